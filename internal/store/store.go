// Package store persists each record kind as a single JSON document inside a
// data directory. Loads degrade to empty collections on missing or corrupt
// documents; saves rewrite the whole document through a temp file and rename
// so the success path never leaves a half-written file.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"taskdock/internal/domain"
)

var ErrNotFound = errors.New("not found")

const (
	tasksFile    = "tasks.json"
	usersFile    = "users.json"
	weatherFile  = "weather.json"
	settingsFile = "settings.json"
)

// Store reads and writes the per-kind documents. Now is injectable for tests;
// nil falls back to time.Now.
type Store struct {
	DataDir string
	Now     func() time.Time
}

func New(dataDir string) (*Store, error) {
	if dataDir == "" {
		dataDir = "data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{DataDir: dataDir}, nil
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Store) path(name string) string { return filepath.Join(s.DataDir, name) }

// Check reports whether the data directory is reachable.
func (s *Store) Check() error {
	if _, err := os.Stat(s.DataDir); err != nil {
		return fmt.Errorf("data dir: %w", err)
	}
	return nil
}

// readJSON decodes the named document into out. Missing documents are not an
// error; corrupt ones are logged and reported as absent so callers degrade to
// empty collections.
func (s *Store) readJSON(name string, out any) bool {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("store: read %s: %v", name, err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		log.Printf("store: decode %s: %v", name, err)
		return false
	}
	return true
}

func (s *Store) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	path := s.path(name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// EnsureDocuments creates any missing documents with their empty form.
func (s *Store) EnsureDocuments() error {
	docs := []struct {
		name  string
		empty any
	}{
		{tasksFile, []domain.Task{}},
		{usersFile, []domain.User{}},
		{weatherFile, map[string]domain.Weather{}},
		{settingsFile, map[string]any{}},
	}
	for _, doc := range docs {
		if _, err := os.Stat(s.path(doc.name)); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return err
		}
		if err := s.writeJSON(doc.name, doc.empty); err != nil {
			return err
		}
	}
	return nil
}

// Tasks loads the full task collection. Records carrying a category outside
// the closed set decode as other; that is the one permitted coercion.
func (s *Store) Tasks() []domain.Task {
	var tasks []domain.Task
	if !s.readJSON(tasksFile, &tasks) {
		return []domain.Task{}
	}
	for i := range tasks {
		if !domain.ValidTaskCategory(tasks[i].Category) {
			tasks[i].Category = domain.CategoryOther
		}
	}
	return tasks
}

func (s *Store) SaveTasks(tasks []domain.Task) error {
	return s.writeJSON(tasksFile, tasks)
}

// PutTask upserts by id: replace in place preserving position, else append.
func (s *Store) PutTask(task domain.Task) error {
	tasks := s.Tasks()
	replaced := false
	for i := range tasks {
		if tasks[i].ID == task.ID {
			tasks[i] = task
			replaced = true
			break
		}
	}
	if !replaced {
		tasks = append(tasks, task)
	}
	return s.SaveTasks(tasks)
}

func (s *Store) Task(id int) (domain.Task, error) {
	for _, t := range s.Tasks() {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, ErrNotFound
}

func (s *Store) DeleteTask(id int) error {
	tasks := s.Tasks()
	kept := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(tasks) {
		return ErrNotFound
	}
	return s.SaveTasks(kept)
}

func (s *Store) Users() []domain.User {
	var users []domain.User
	if !s.readJSON(usersFile, &users) {
		return []domain.User{}
	}
	return users
}

func (s *Store) SaveUsers(users []domain.User) error {
	return s.writeJSON(usersFile, users)
}

// PutUser upserts by id with the same in-place semantics as PutTask.
func (s *Store) PutUser(user domain.User) error {
	users := s.Users()
	replaced := false
	for i := range users {
		if users[i].ID == user.ID {
			users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, user)
	}
	return s.SaveUsers(users)
}

func (s *Store) User(id string) (domain.User, error) {
	for _, u := range s.Users() {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (s *Store) UserByUsername(username string) (domain.User, error) {
	for _, u := range s.Users() {
		if u.Username == username {
			return u, nil
		}
	}
	return domain.User{}, ErrNotFound
}

func (s *Store) DeleteUser(id string) error {
	users := s.Users()
	kept := make([]domain.User, 0, len(users))
	for _, u := range users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	if len(kept) == len(users) {
		return ErrNotFound
	}
	return s.SaveUsers(kept)
}

// Weather loads all snapshots keyed by location.
func (s *Store) Weather() map[string]domain.Weather {
	data := map[string]domain.Weather{}
	if !s.readJSON(weatherFile, &data) {
		return map[string]domain.Weather{}
	}
	return data
}

// SaveWeather overwrites the snapshot for its location.
func (s *Store) SaveWeather(w domain.Weather) error {
	all := s.Weather()
	all[w.Location] = w
	return s.writeJSON(weatherFile, all)
}

func (s *Store) WeatherFor(location string) (domain.Weather, error) {
	w, ok := s.Weather()[location]
	if !ok {
		return domain.Weather{}, ErrNotFound
	}
	return w, nil
}

func (s *Store) ClearWeather() error {
	return s.writeJSON(weatherFile, map[string]domain.Weather{})
}

func (s *Store) Settings() map[string]any {
	data := map[string]any{}
	if !s.readJSON(settingsFile, &data) {
		return map[string]any{}
	}
	return data
}

func (s *Store) SetSetting(key string, value any) error {
	settings := s.Settings()
	settings[key] = value
	return s.writeJSON(settingsFile, settings)
}

func (s *Store) Setting(key string) (any, bool) {
	v, ok := s.Settings()[key]
	return v, ok
}

func (s *Store) DeleteSetting(key string) error {
	settings := s.Settings()
	if _, ok := settings[key]; !ok {
		return ErrNotFound
	}
	delete(settings, key)
	return s.writeJSON(settingsFile, settings)
}
