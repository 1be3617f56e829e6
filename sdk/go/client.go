// Package taskdocksdk is a small Go client for the Taskdock HTTP API.
package taskdocksdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is a minimal Taskdock HTTP API client. BaseURL includes the API
// base path, e.g. http://localhost:5000/api.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New creates a client with sane defaults.
func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// Task represents the API task model.
type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status"`
	Priority    int      `json:"priority"`
	Category    string   `json:"category"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags"`
}

// User represents the API user model.
type User struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Email       string         `json:"email"`
	FirstName   string         `json:"first_name"`
	LastName    string         `json:"last_name"`
	CreatedAt   string         `json:"created_at"`
	LastLogin   *string        `json:"last_login,omitempty"`
	IsActive    bool           `json:"is_active"`
	Preferences map[string]any `json:"preferences"`
}

// Weather represents one reading or forecast day.
type Weather struct {
	Location    string  `json:"location"`
	Temperature float64 `json:"temperature"`
	Condition   string  `json:"condition"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Pressure    float64 `json:"pressure"`
	Visibility  float64 `json:"visibility"`
	Timestamp   string  `json:"timestamp"`
}

// TaskStats aggregates the task collection.
type TaskStats struct {
	Total          int            `json:"total"`
	ByStatus       map[string]int `json:"by_status"`
	Overdue        int            `json:"overdue"`
	HighPriority   int            `json:"high_priority"`
	CompletionRate float64        `json:"completion_rate"`
	ByCategory     map[string]int `json:"by_category"`
}

// Category describes one task category.
type Category struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// HistoryEntry is one line of the activity log.
type HistoryEntry struct {
	ID         int64          `json:"id"`
	TS         string         `json:"ts"`
	Event      string         `json:"event"`
	EntityKind string         `json:"entity_kind"`
	EntityID   string         `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
}

// Health reports the store check and per-document counts.
type Health struct {
	Status   string `json:"status"`
	Database struct {
		Tasks int `json:"tasks"`
		Users int `json:"users"`
	} `json:"database"`
}

// Info identifies the application.
type Info struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
}

// APIError wraps non-2xx responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d body=%s", e.StatusCode, e.Body)
}

// NewTask holds the fields accepted when creating a task. Zero-valued
// optionals fall back to the server defaults.
type NewTask struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status,omitempty"`
	Priority    int      `json:"priority,omitempty"`
	Category    string   `json:"category,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TaskPatch updates only the fields it carries. An empty description or
// due date clears the stored value.
type TaskPatch struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      *string  `json:"status,omitempty"`
	Priority    *int     `json:"priority,omitempty"`
	Category    *string  `json:"category,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// TaskListParams filter and order a listing. Zero values are left out of
// the query string.
type TaskListParams struct {
	Status    string
	Category  string
	Priority  int
	Search    string
	Overdue   bool
	SortBy    string
	SortOrder string
	Limit     int
}

func (p TaskListParams) query() string {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	if p.Category != "" {
		q.Set("category", p.Category)
	}
	if p.Priority > 0 {
		q.Set("priority", strconv.Itoa(p.Priority))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Overdue {
		q.Set("overdue", "true")
	}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.SortOrder != "" {
		q.Set("sort_order", p.SortOrder)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// TaskList wraps a tasks listing with its count and echoed filters.
type TaskList struct {
	Tasks   []Task         `json:"tasks"`
	Count   int            `json:"count"`
	Filters map[string]any `json:"filters"`
}

// ListTasks returns tasks matching params.
func (c *Client) ListTasks(ctx context.Context, params TaskListParams) (TaskList, error) {
	var resp TaskList
	err := c.do(ctx, http.MethodGet, "tasks"+params.query(), nil, &resp)
	return resp, err
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, t NewTask) (Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPost, "tasks", t, &resp)
	return resp.Task, err
}

// Task fetches one task by id.
func (c *Client) Task(ctx context.Context, id int) (Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("tasks/%d", id), nil, &resp)
	return resp.Task, err
}

// UpdateTask applies a partial update.
func (c *Client) UpdateTask(ctx context.Context, id int, patch TaskPatch) (Task, error) {
	var resp struct {
		Task Task `json:"task"`
	}
	err := c.do(ctx, http.MethodPut, fmt.Sprintf("tasks/%d", id), patch, &resp)
	return resp.Task, err
}

// DeleteTask deletes a task.
func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("tasks/%d", id), nil, nil)
}

// TaskStatistics returns aggregate task counts.
func (c *Client) TaskStatistics(ctx context.Context) (TaskStats, error) {
	var resp struct {
		Statistics TaskStats `json:"statistics"`
	}
	err := c.do(ctx, http.MethodGet, "tasks/statistics", nil, &resp)
	return resp.Statistics, err
}

// Categories returns the known task categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var resp struct {
		Categories []Category `json:"categories"`
	}
	err := c.do(ctx, http.MethodGet, "tasks/categories", nil, &resp)
	return resp.Categories, err
}

// ListUsers returns all users.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
	}
	err := c.do(ctx, http.MethodGet, "users", nil, &resp)
	return resp.Users, err
}

// CreateUser creates a user.
func (c *Client) CreateUser(ctx context.Context, username, email, firstName, lastName string) (User, error) {
	body := map[string]any{
		"username":   username,
		"email":      email,
		"first_name": firstName,
		"last_name":  lastName,
	}
	var resp struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "users", body, &resp)
	return resp.User, err
}

// User fetches one user by id.
func (c *Client) User(ctx context.Context, id string) (User, error) {
	var resp struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "users/"+url.PathEscape(id), nil, &resp)
	return resp.User, err
}

// DeleteUser deletes a user.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "users/"+url.PathEscape(id), nil, nil)
}

// CurrentWeather returns the reading for a location and whether it came
// from the server cache.
func (c *Client) CurrentWeather(ctx context.Context, location string) (Weather, bool, error) {
	var resp struct {
		Weather Weather `json:"weather"`
		Cached  bool    `json:"cached"`
	}
	err := c.do(ctx, http.MethodGet, "weather/"+url.PathEscape(location), nil, &resp)
	return resp.Weather, resp.Cached, err
}

// Forecast returns a daily forecast, one entry per day.
func (c *Client) Forecast(ctx context.Context, location string, days int) ([]Weather, error) {
	endpoint := "weather/" + url.PathEscape(location) + "/forecast"
	if days > 0 {
		endpoint = fmt.Sprintf("%s?days=%d", endpoint, days)
	}
	var resp struct {
		Forecast []Weather `json:"forecast"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Forecast, err
}

// ClearWeatherCache drops all cached readings.
func (c *Client) ClearWeatherCache(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "weather/cache/clear", nil, nil)
}

// Health runs the server-side store check.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var resp Health
	err := c.do(ctx, http.MethodGet, "admin/health", nil, &resp)
	return resp, err
}

// Settings returns all settings.
func (c *Client) Settings(ctx context.Context) (map[string]any, error) {
	var resp struct {
		Settings map[string]any `json:"settings"`
	}
	err := c.do(ctx, http.MethodGet, "admin/settings", nil, &resp)
	return resp.Settings, err
}

// SetSetting creates or replaces one setting.
func (c *Client) SetSetting(ctx context.Context, key string, value any) error {
	body := map[string]any{
		"key":   key,
		"value": value,
	}
	return c.do(ctx, http.MethodPost, "admin/settings", body, nil)
}

// DeleteSetting removes one setting.
func (c *Client) DeleteSetting(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "admin/settings/"+url.PathEscape(key), nil, nil)
}

// Info identifies the server application.
func (c *Client) Info(ctx context.Context) (Info, error) {
	var resp Info
	err := c.do(ctx, http.MethodGet, "info", nil, &resp)
	return resp, err
}

// History returns recent activity, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	endpoint := "admin/history"
	if limit > 0 {
		endpoint = fmt.Sprintf("%s?limit=%d", endpoint, limit)
	}
	var resp struct {
		Entries []HistoryEntry `json:"entries"`
	}
	err := c.do(ctx, http.MethodGet, endpoint, nil, &resp)
	return resp.Entries, err
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, out any) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
	url := c.base() + "/" + strings.TrimLeft(endpoint, "/")
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(b)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) base() string {
	return strings.TrimRight(c.BaseURL, "/")
}
