package server

import (
	"taskdock/internal/domain"
	"taskdock/internal/engine"
	"taskdock/internal/history"
)

// Request payloads

type CreateTaskRequest struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status,omitempty" enum:"pending,in_progress,completed,cancelled"`
	Priority    int      `json:"priority,omitempty"`
	Category    string   `json:"category,omitempty" enum:"work,personal,shopping,health,education,finance,travel,home,other"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UpdateTaskRequest carries a partial update. Omitted fields stay untouched;
// description and due_date clear when set to the empty string.
type UpdateTaskRequest struct {
	Title       string   `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Status      string   `json:"status,omitempty" enum:"pending,in_progress,completed,cancelled"`
	Priority    int      `json:"priority,omitempty"`
	Category    string   `json:"category,omitempty" enum:"work,personal,shopping,health,education,finance,travel,home,other"`
	DueDate     *string  `json:"due_date,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

type CreateUserRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type UpdateSettingRequest struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Response payloads

type MessageResponse struct {
	Message string `json:"message"`
}

type TaskListResponse struct {
	Tasks     []domain.Task  `json:"tasks"`
	Count     int            `json:"count"`
	Filters   map[string]any `json:"filters" jsonschema:"type=object,additionalProperties=true"`
	Timestamp string         `json:"timestamp" format:"date-time"`
}

type TaskResponse struct {
	Task      domain.Task `json:"task"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp,omitempty" format:"date-time"`
}

type TaskStatsResponse struct {
	Statistics engine.TaskStats `json:"statistics"`
	Timestamp  string           `json:"timestamp" format:"date-time"`
}

type CategoriesResponse struct {
	Categories []engine.CategoryInfo `json:"categories"`
	Timestamp  string                `json:"timestamp" format:"date-time"`
}

type UserListResponse struct {
	Users     []domain.User `json:"users"`
	Count     int           `json:"count"`
	Timestamp string        `json:"timestamp" format:"date-time"`
}

type UserResponse struct {
	User      domain.User `json:"user"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp,omitempty" format:"date-time"`
}

type WeatherResponse struct {
	Weather   domain.Weather `json:"weather"`
	Cached    bool           `json:"cached"`
	Timestamp string         `json:"timestamp" format:"date-time"`
}

type ForecastResponse struct {
	Location  string           `json:"location"`
	Forecast  []domain.Weather `json:"forecast"`
	Days      int              `json:"days"`
	Timestamp string           `json:"timestamp" format:"date-time"`
}

type DatabaseHealth struct {
	Tasks int `json:"tasks"`
	Users int `json:"users"`
}

type HealthResponse struct {
	Status    string         `json:"status"`
	Database  DatabaseHealth `json:"database"`
	Timestamp string         `json:"timestamp" format:"date-time"`
}

type SettingsResponse struct {
	Settings  map[string]any `json:"settings" jsonschema:"type=object,additionalProperties=true"`
	Timestamp string         `json:"timestamp" format:"date-time"`
}

type SettingResponse struct {
	Message string `json:"message"`
	Key     string `json:"key"`
	Value   any    `json:"value"`
}

type InfoResponse struct {
	engine.AppInfo
	Timestamp string `json:"timestamp" format:"date-time"`
}

type HistoryResponse struct {
	Entries   []history.Entry `json:"entries"`
	Count     int             `json:"count"`
	Timestamp string          `json:"timestamp" format:"date-time"`
}
