// Package engine implements the operations shared by the HTTP API and the
// CLI: task CRUD with filtering and sorting, user accounts, weather readings
// behind a TTL cache, settings, and maintenance commands.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"taskdock/internal/config"
	"taskdock/internal/domain"
	"taskdock/internal/history"
	"taskdock/internal/store"
)

type Engine struct {
	Store   *store.Store
	History history.Log
	Config  *config.Config
	Now     func() time.Time
	Rand    *rand.Rand

	weatherCache *expirable.LRU[string, domain.Weather]
}

// New builds an engine around a store. A nil config falls back to defaults.
func New(s *store.Store, hist history.Log, cfg *config.Config) Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	return Engine{
		Store:        s,
		History:      hist,
		Config:       cfg,
		weatherCache: expirable.NewLRU[string, domain.Weather](cfg.Weather.CacheSize, nil, cfg.WeatherTTL()),
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

// TaskCreateOptions are parameters for creating a task. Zero values take the
// documented defaults.
type TaskCreateOptions struct {
	Title       string
	Description *string
	Status      string
	Priority    int
	Category    string
	DueDate     *string
	Tags        []string
}

func (e Engine) CreateTask(ctx context.Context, opts TaskCreateOptions) (domain.Task, error) {
	if strings.TrimSpace(opts.Title) == "" {
		return domain.Task{}, errors.New("title is required")
	}
	if len(opts.Title) > 200 {
		return domain.Task{}, errors.New("title too long (max 200 characters)")
	}
	status := opts.Status
	if status == "" {
		status = domain.StatusPending
	}
	if !domain.ValidTaskStatus(status) {
		return domain.Task{}, errors.New("invalid status value")
	}
	priority := opts.Priority
	if priority == 0 {
		priority = 1
	}
	if priority < 1 || priority > 5 {
		return domain.Task{}, errors.New("priority must be between 1 and 5")
	}
	category := opts.Category
	if category == "" {
		category = domain.CategoryOther
	}
	if !domain.ValidTaskCategory(category) {
		return domain.Task{}, errors.New("invalid category value")
	}
	due, err := normalizeDue(opts.DueDate)
	if err != nil {
		return domain.Task{}, err
	}
	tags := opts.Tags
	if tags == nil {
		tags = []string{}
	}

	tasks := e.Store.Tasks()
	now := e.now().UTC().Format(time.RFC3339)
	t := domain.Task{
		ID:          nextTaskID(tasks),
		Title:       opts.Title,
		Description: opts.Description,
		Status:      status,
		Priority:    priority,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
		DueDate:     due,
		Tags:        tags,
	}
	if err := e.Store.SaveTasks(append(tasks, t)); err != nil {
		return domain.Task{}, err
	}
	e.History.Note(ctx, "task.created", "task", strconv.Itoa(t.ID), history.Detail{"title": t.Title})
	return t, nil
}

func (e Engine) Task(ctx context.Context, id int) (domain.Task, error) {
	t, err := e.Store.Task(id)
	if err != nil {
		return domain.Task{}, fmt.Errorf("task %d: %w", id, err)
	}
	return t, nil
}

// TaskListOptions select and order tasks. All filters are optional and
// combine conjunctively; Limit <= 0 means no limit.
type TaskListOptions struct {
	Status      string
	Category    string
	Priority    int
	Search      string
	OverdueOnly bool
	SortBy      string
	Descending  bool
	Limit       int
}

func (e Engine) ListTasks(ctx context.Context, opts TaskListOptions) ([]domain.Task, error) {
	if opts.Status != "" && !domain.ValidTaskStatus(opts.Status) {
		return nil, errors.New("invalid status value")
	}
	if opts.Category != "" && !domain.ValidTaskCategory(opts.Category) {
		return nil, errors.New("invalid category value")
	}
	if opts.SortBy != "" && !ValidSortKey(opts.SortBy) {
		return nil, errors.New("invalid sort key")
	}
	tasks := FilterTasks(e.Store.Tasks(), TaskFilters{
		Status:      opts.Status,
		Category:    opts.Category,
		Priority:    opts.Priority,
		Search:      opts.Search,
		OverdueOnly: opts.OverdueOnly,
	}, e.now())
	tasks = SortTasks(tasks, opts.SortBy, opts.Descending)
	if opts.Limit > 0 && len(tasks) > opts.Limit {
		tasks = tasks[:opts.Limit]
	}
	return tasks, nil
}

// TaskUpdateOptions encapsulates a partial update. Zero values leave a field
// unchanged; Description and DueDate clear when set to an empty string, and a
// non-nil Tags replaces the whole list.
type TaskUpdateOptions struct {
	ID          int
	Title       string
	Description *string
	Status      string
	Category    string
	Priority    int
	DueDate     *string
	Tags        []string
}

func (e Engine) UpdateTask(ctx context.Context, opts TaskUpdateOptions) (domain.Task, error) {
	tasks := e.Store.Tasks()
	idx := -1
	for i := range tasks {
		if tasks[i].ID == opts.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return domain.Task{}, fmt.Errorf("task %d: %w", opts.ID, store.ErrNotFound)
	}
	t := tasks[idx]

	if opts.Title != "" {
		if strings.TrimSpace(opts.Title) == "" {
			return domain.Task{}, errors.New("title is required")
		}
		if len(opts.Title) > 200 {
			return domain.Task{}, errors.New("title too long (max 200 characters)")
		}
		t.Title = opts.Title
	}
	if opts.Description != nil {
		if *opts.Description == "" {
			t.Description = nil
		} else {
			t.Description = opts.Description
		}
	}
	if opts.Status != "" {
		if !domain.ValidTaskStatus(opts.Status) {
			return domain.Task{}, errors.New("invalid status value")
		}
		t.Status = opts.Status
	}
	if opts.Category != "" {
		if !domain.ValidTaskCategory(opts.Category) {
			return domain.Task{}, errors.New("invalid category value")
		}
		t.Category = opts.Category
	}
	if opts.Priority != 0 {
		if opts.Priority < 1 || opts.Priority > 5 {
			return domain.Task{}, errors.New("priority must be between 1 and 5")
		}
		t.Priority = opts.Priority
	}
	if opts.DueDate != nil {
		due, err := normalizeDue(opts.DueDate)
		if err != nil {
			return domain.Task{}, err
		}
		t.DueDate = due
	}
	if opts.Tags != nil {
		t.Tags = opts.Tags
	}
	t.UpdatedAt = e.now().UTC().Format(time.RFC3339)

	tasks[idx] = t
	if err := e.Store.SaveTasks(tasks); err != nil {
		return domain.Task{}, err
	}
	e.History.Note(ctx, "task.updated", "task", strconv.Itoa(t.ID), nil)
	return t, nil
}

func (e Engine) DeleteTask(ctx context.Context, id int) error {
	if err := e.Store.DeleteTask(id); err != nil {
		return fmt.Errorf("task %d: %w", id, err)
	}
	e.History.Note(ctx, "task.deleted", "task", strconv.Itoa(id), nil)
	return nil
}

// TaskStatistics aggregates the current collection.
func (e Engine) TaskStatistics(ctx context.Context) TaskStats {
	return ComputeTaskStats(e.Store.Tasks(), e.now())
}

type CategoryInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Categories lists the closed category set with display labels and colors.
func Categories() []CategoryInfo {
	out := make([]CategoryInfo, 0, len(domain.TaskCategories))
	for _, c := range domain.TaskCategories {
		out = append(out, CategoryInfo{Value: c, Label: domain.CategoryLabel(c), Color: domain.CategoryColor(c)})
	}
	return out
}

type UserCreateOptions struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// CreateUser validates the options, enforces username uniqueness and stores
// the account under a generated id.
func (e Engine) CreateUser(ctx context.Context, opts UserCreateOptions) (domain.User, error) {
	fields := []struct{ name, value string }{
		{"username", opts.Username},
		{"email", opts.Email},
		{"first name", opts.FirstName},
		{"last name", opts.LastName},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return domain.User{}, fmt.Errorf("%s is required", f.name)
		}
	}
	if !strings.Contains(opts.Email, "@") || !strings.Contains(opts.Email, ".") {
		return domain.User{}, errors.New("invalid email format")
	}
	if _, err := e.Store.UserByUsername(opts.Username); err == nil {
		return domain.User{}, errors.New("username already exists")
	}

	u := domain.User{
		ID:          uuid.New().String(),
		Username:    opts.Username,
		Email:       opts.Email,
		FirstName:   opts.FirstName,
		LastName:    opts.LastName,
		CreatedAt:   e.now().UTC().Format(time.RFC3339),
		IsActive:    true,
		Preferences: map[string]any{},
	}
	if err := e.Store.PutUser(u); err != nil {
		return domain.User{}, err
	}
	e.History.Note(ctx, "user.created", "user", u.ID, history.Detail{"username": u.Username})
	return u, nil
}

func (e Engine) User(ctx context.Context, id string) (domain.User, error) {
	u, err := e.Store.User(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", id, err)
	}
	return u, nil
}

func (e Engine) ListUsers(ctx context.Context) []domain.User {
	return e.Store.Users()
}

func (e Engine) DeleteUser(ctx context.Context, id string) error {
	if err := e.Store.DeleteUser(id); err != nil {
		return fmt.Errorf("user %s: %w", id, err)
	}
	e.History.Note(ctx, "user.deleted", "user", id, nil)
	return nil
}

func (e Engine) Settings(ctx context.Context) map[string]any {
	return e.Store.Settings()
}

func (e Engine) SetSetting(ctx context.Context, key string, value any) error {
	if strings.TrimSpace(key) == "" || value == nil {
		return errors.New("key and value are required")
	}
	if err := e.Store.SetSetting(key, value); err != nil {
		return err
	}
	e.History.Note(ctx, "setting.updated", "setting", key, nil)
	return nil
}

func (e Engine) Setting(ctx context.Context, key string) (any, error) {
	v, ok := e.Store.Setting(key)
	if !ok {
		return nil, fmt.Errorf("setting %s: %w", key, store.ErrNotFound)
	}
	return v, nil
}

func (e Engine) DeleteSetting(ctx context.Context, key string) error {
	if err := e.Store.DeleteSetting(key); err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	e.History.Note(ctx, "setting.deleted", "setting", key, nil)
	return nil
}

type AppInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

func (e Engine) Info() AppInfo {
	return AppInfo{
		Name:        e.Config.App.Name,
		Version:     e.Config.App.Version,
		Description: e.Config.App.Description,
	}
}

type HealthReport struct {
	Status string `json:"status"`
	Tasks  int    `json:"tasks"`
	Users  int    `json:"users"`
}

// Health checks the data directory is reachable and reports collection sizes.
func (e Engine) Health(ctx context.Context) (HealthReport, error) {
	if err := e.Store.Check(); err != nil {
		return HealthReport{Status: "unhealthy"}, err
	}
	return HealthReport{
		Status: "healthy",
		Tasks:  len(e.Store.Tasks()),
		Users:  len(e.Store.Users()),
	}, nil
}

// Init creates the storage documents and seeds sample tasks when the task
// document is empty. It reports whether samples were written.
func (e Engine) Init(ctx context.Context) (bool, error) {
	if err := e.Store.EnsureDocuments(); err != nil {
		return false, err
	}
	if len(e.Store.Tasks()) > 0 {
		return false, nil
	}
	samples := []TaskCreateOptions{
		{Title: "Learn Go", Description: strPtr("Study the language and tooling"), Status: domain.StatusCompleted, Priority: 3, Category: domain.CategoryEducation},
		{Title: "Build API", Description: strPtr("Create RESTful API endpoints"), Status: domain.StatusInProgress, Priority: 4, Category: domain.CategoryWork},
		{Title: "Write tests", Description: strPtr("Add unit tests"), Status: domain.StatusPending, Priority: 2, Category: domain.CategoryWork},
	}
	for _, opts := range samples {
		if _, err := e.CreateTask(ctx, opts); err != nil {
			return false, fmt.Errorf("seed sample data: %w", err)
		}
	}
	return true, nil
}

// CreateBackup snapshots every document into a timestamped directory and
// returns its path.
func (e Engine) CreateBackup(ctx context.Context) (string, error) {
	path, err := e.Store.CreateBackup()
	if err != nil {
		return "", err
	}
	e.History.Note(ctx, "backup.created", "backup", path, nil)
	return path, nil
}

// RestoreBackup copies a backup's documents back over the live ones.
func (e Engine) RestoreBackup(ctx context.Context, path string) error {
	if err := e.Store.RestoreBackup(path); err != nil {
		return err
	}
	e.History.Note(ctx, "backup.restored", "backup", path, nil)
	return nil
}

func (e Engine) ListBackups(ctx context.Context) []string {
	return e.Store.ListBackups()
}

// CleanupBackups removes all but the newest keep backups and reports how many
// were removed.
func (e Engine) CleanupBackups(ctx context.Context, keep int) int {
	removed := e.Store.CleanupBackups(keep)
	if removed > 0 {
		e.History.Note(ctx, "backup.cleanup", "backup", "", history.Detail{"removed": removed, "keep": keep})
	}
	return removed
}

// RecentHistory returns the newest activity entries.
func (e Engine) RecentHistory(ctx context.Context, limit int) ([]history.Entry, error) {
	return e.History.Recent(ctx, limit)
}

// --- helpers ---

func nextTaskID(tasks []domain.Task) int {
	next := 1
	for _, t := range tasks {
		if t.ID >= next {
			next = t.ID + 1
		}
	}
	return next
}

// normalizeDue validates an optional RFC 3339 due date. The empty string
// clears the field.
func normalizeDue(due *string) (*string, error) {
	if due == nil || *due == "" {
		return nil, nil
	}
	if _, err := time.Parse(time.RFC3339, *due); err != nil {
		return nil, errors.New("invalid due date (use RFC 3339)")
	}
	return due, nil
}

func strPtr(s string) *string { return &s }
