package domain

import (
	"slices"
	"strings"
	"time"
)

const (
	StatusPending    = "pending"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

const (
	CategoryWork      = "work"
	CategoryPersonal  = "personal"
	CategoryShopping  = "shopping"
	CategoryHealth    = "health"
	CategoryEducation = "education"
	CategoryFinance   = "finance"
	CategoryTravel    = "travel"
	CategoryHome      = "home"
	CategoryOther     = "other"
)

const (
	ConditionSunny  = "sunny"
	ConditionCloudy = "cloudy"
	ConditionRainy  = "rainy"
	ConditionSnowy  = "snowy"
	ConditionStormy = "stormy"
)

var TaskStatuses = []string{StatusPending, StatusInProgress, StatusCompleted, StatusCancelled}

var TaskCategories = []string{
	CategoryWork, CategoryPersonal, CategoryShopping, CategoryHealth,
	CategoryEducation, CategoryFinance, CategoryTravel, CategoryHome, CategoryOther,
}

var WeatherConditions = []string{ConditionSunny, ConditionCloudy, ConditionRainy, ConditionSnowy, ConditionStormy}

func ValidTaskStatus(s string) bool       { return slices.Contains(TaskStatuses, s) }
func ValidTaskCategory(s string) bool     { return slices.Contains(TaskCategories, s) }
func ValidWeatherCondition(s string) bool { return slices.Contains(WeatherConditions, s) }

var categoryColors = map[string]string{
	CategoryWork:      "#3B82F6",
	CategoryPersonal:  "#10B981",
	CategoryShopping:  "#F59E0B",
	CategoryHealth:    "#EF4444",
	CategoryEducation: "#8B5CF6",
	CategoryFinance:   "#06B6D4",
	CategoryTravel:    "#F97316",
	CategoryHome:      "#84CC16",
	CategoryOther:     "#6B7280",
}

func CategoryColor(category string) string {
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return categoryColors[CategoryOther]
}

func CategoryLabel(category string) string {
	parts := strings.Split(category, "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status" enum:"pending,in_progress,completed,cancelled"`
	Priority    int      `json:"priority"`
	Category    string   `json:"category" enum:"work,personal,shopping,health,education,finance,travel,home,other"`
	CreatedAt   string   `json:"created_at" format:"date-time"`
	UpdatedAt   string   `json:"updated_at" format:"date-time"`
	DueDate     *string  `json:"due_date,omitempty" format:"date-time"`
	Tags        []string `json:"tags"`
}

// DueTime parses the due date; ok is false when there is none or it is malformed.
func (t Task) DueTime() (time.Time, bool) {
	if t.DueDate == nil {
		return time.Time{}, false
	}
	due, err := time.Parse(time.RFC3339, *t.DueDate)
	if err != nil {
		return time.Time{}, false
	}
	return due, true
}

// IsOverdue is computed against the supplied clock, never stored.
func (t Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted {
		return false
	}
	due, ok := t.DueTime()
	if !ok {
		return false
	}
	return now.After(due)
}

func (t Task) IsHighPriority() bool { return t.Priority >= 4 }

type User struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	CreatedAt   string         `json:"created_at" format:"date-time"`
	LastLogin   *string        `json:"last_login,omitempty" format:"date-time"`
	IsActive    bool           `json:"is_active"`
	Preferences map[string]any `json:"preferences"`
}

func (u User) FullName() string { return u.FirstName + " " + u.LastName }

type Weather struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition" enum:"sunny,cloudy,rainy,snowy,stormy"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Pressure    float64 `json:"pressure"`
	Visibility  float64 `json:"visibility"`
	Timestamp   string  `json:"timestamp" format:"date-time"`
}

func (w Weather) TemperatureFahrenheit() float64 { return w.Temperature*9/5 + 32 }

// IsGoodWeather reports whether conditions suit outdoor activity: sunny or
// cloudy, 15-30 degrees, wind under 20 km/h.
func (w Weather) IsGoodWeather() bool {
	if w.Condition != ConditionSunny && w.Condition != ConditionCloudy {
		return false
	}
	return w.Temperature >= 15 && w.Temperature <= 30 && w.WindSpeed < 20
}

// Time parses the snapshot timestamp; ok is false when it is malformed.
func (w Weather) Time() (time.Time, bool) {
	ts, err := time.Parse(time.RFC3339, w.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
