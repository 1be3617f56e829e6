package engine

import (
	"context"
	"errors"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"taskdock/internal/domain"
)

// CurrentWeather returns the reading for a location. A reading younger than
// the configured TTL is served from cache, in memory or persisted; otherwise
// a fresh one is generated, persisted, and cached. The bool reports whether
// the reading came from cache.
func (e Engine) CurrentWeather(ctx context.Context, location string) (domain.Weather, bool, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return domain.Weather{}, false, errors.New("location is required")
	}
	if w, ok := e.cachedWeather(location); ok {
		return w, true, nil
	}
	if w, err := e.Store.WeatherFor(location); err == nil && e.freshWithinTTL(w) {
		e.cacheWeather(location, w)
		return w, true, nil
	}
	w := e.generateWeather(location)
	if err := e.Store.SaveWeather(w); err != nil {
		log.Printf("engine: persist weather for %s: %v", location, err)
	}
	e.cacheWeather(location, w)
	return w, false, nil
}

// WeatherForecast returns one reading per day starting today. Each day copies
// the base reading with the temperature raised by half a degree per day out.
// days <= 0 defaults to 5.
func (e Engine) WeatherForecast(ctx context.Context, location string, days int) ([]domain.Weather, error) {
	if days == 0 {
		days = 5
	}
	if days < 1 || days > 7 {
		return nil, errors.New("days must be between 1 and 7")
	}
	base, _, err := e.CurrentWeather(ctx, location)
	if err != nil {
		return nil, err
	}
	forecast := make([]domain.Weather, 0, days)
	for i := 0; i < days; i++ {
		day := base
		day.Temperature += float64(i) * 0.5
		forecast = append(forecast, day)
	}
	return forecast, nil
}

// ClearWeatherCache drops the in-memory cache and the persisted snapshots.
func (e Engine) ClearWeatherCache(ctx context.Context) error {
	if e.weatherCache != nil {
		e.weatherCache.Purge()
	}
	if err := e.Store.ClearWeather(); err != nil {
		return err
	}
	e.History.Note(ctx, "weather.cache_cleared", "weather", "", nil)
	return nil
}

func (e Engine) cachedWeather(location string) (domain.Weather, bool) {
	if e.weatherCache == nil {
		return domain.Weather{}, false
	}
	return e.weatherCache.Get(location)
}

func (e Engine) cacheWeather(location string, w domain.Weather) {
	if e.weatherCache != nil {
		e.weatherCache.Add(location, w)
	}
}

func (e Engine) freshWithinTTL(w domain.Weather) bool {
	ts, ok := w.Time()
	if !ok {
		return false
	}
	return e.now().Sub(ts) < e.Config.WeatherTTL()
}

func (e Engine) generateWeather(location string) domain.Weather {
	return domain.Weather{
		Location:    location,
		Temperature: e.randFloat(10, 35),
		Condition:   domain.WeatherConditions[e.randIndex(len(domain.WeatherConditions))],
		Humidity:    e.randFloat(30, 90),
		WindSpeed:   e.randFloat(0, 50),
		Pressure:    e.randFloat(980, 1030),
		Visibility:  e.randFloat(5, 25),
		Timestamp:   e.now().UTC().Format(time.RFC3339),
	}
}

func (e Engine) randFloat(lo, hi float64) float64 {
	if e.Rand != nil {
		return lo + e.Rand.Float64()*(hi-lo)
	}
	return lo + rand.Float64()*(hi-lo)
}

func (e Engine) randIndex(n int) int {
	if e.Rand != nil {
		return e.Rand.IntN(n)
	}
	return rand.IntN(n)
}
