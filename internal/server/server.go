// Package server exposes the engine over HTTP. Routes are declared with huma
// on a chi router, so the OpenAPI document and the Swagger UI come for free.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	humachi "github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"taskdock/internal/engine"
	"taskdock/internal/store"
)

// Config for the HTTP API handler.
type Config struct {
	Engine   engine.Engine
	BasePath string
}

type apiErrorBody struct {
	Code    string         `json:"code" example:"not_found"`
	Message string         `json:"message" example:"task 7: not found"`
	Details map[string]any `json:"details,omitempty" jsonschema:"type=object,additionalProperties=true"`
}

// apiError models the error envelope.
type apiError struct {
	status int
	Body   apiErrorBody `json:"error"`
}

func (e *apiError) GetStatus() int { return e.status }
func (e *apiError) Error() string  { return e.Body.Message }

// New returns an HTTP handler exposing the Taskdock API.
func New(cfg Config) (http.Handler, error) {
	basePath := cfg.BasePath
	if basePath == "" {
		basePath = "/api"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	version := "1.0.0"
	if cfg.Engine.Config != nil {
		version = cfg.Engine.Config.App.Version
	}
	huma.DefaultArrayNullable = false
	// Override Huma errors to use the envelope above.
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		return newAPIError(status, "", msg, nil)
	}
	huma.NewErrorWithContext = func(_ huma.Context, status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(msg), "validation") {
			// Schema/request validation errors should be 400 bad_request
			status = http.StatusBadRequest
		}
		var details map[string]any
		if len(errs) > 0 {
			details = map[string]any{"errors": errs}
		}
		return newAPIError(status, "", msg, details)
	}

	router := chi.NewRouter()
	router.Use(cors.AllowAll().Handler)
	hcfg := huma.DefaultConfig("Taskdock API", version)
	hcfg.OpenAPIPath = "/openapi"
	hcfg.DocsPath = "" // custom Swagger UI below
	api := humachi.New(router, hcfg)
	group := huma.NewGroup(api, basePath)

	registerDocs(router, basePath)
	registerInfo(group, cfg.Engine)
	registerTasks(group, cfg.Engine)
	registerUsers(group, cfg.Engine)
	registerWeather(group, cfg.Engine)
	registerAdmin(group, cfg.Engine)
	registerOpenAPI(router, api, basePath)

	return router, nil
}

func newAPIError(status int, code, message string, details map[string]any) huma.StatusError {
	if code == "" {
		code = defaultCodeForStatus(status)
	}
	return &apiError{
		status: status,
		Body: apiErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// handleError maps engine errors onto status codes by the wrapped sentinel or
// the message shape.
func handleError(err error) huma.StatusError {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return newAPIError(http.StatusNotFound, "not_found", err.Error(), nil)
	}
	msg := err.Error()
	lowered := strings.ToLower(msg)
	switch {
	case strings.Contains(lowered, "already exists"):
		return newAPIError(http.StatusConflict, "conflict", msg, nil)
	case strings.Contains(lowered, "invalid"),
		strings.Contains(lowered, "required"),
		strings.Contains(lowered, "must"),
		strings.Contains(lowered, "too long"):
		return newAPIError(http.StatusBadRequest, "bad_request", msg, nil)
	default:
		return newAPIError(http.StatusInternalServerError, "internal_error", "internal error", map[string]any{"error": msg})
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusInternalServerError:
		return "internal_error"
	default:
		return strings.ToLower(strings.ReplaceAll(http.StatusText(status), " ", "_"))
	}
}

// nowStamp renders response timestamps with the engine clock so tests can pin
// them.
func nowStamp(e engine.Engine) string {
	if e.Now != nil {
		return e.Now().UTC().Format(time.RFC3339)
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func registerDocs(r chi.Router, basePath string) {
	r.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		io.WriteString(w, swaggerHTML(basePath))
	})
}

func registerOpenAPI(r chi.Router, api huma.API, basePath string) {
	var spec []byte
	specPath := path.Join(basePath, "openapi.json")
	r.Get(specPath, func(w http.ResponseWriter, r *http.Request) {
		if spec == nil {
			oas := api.OpenAPI()
			ensureDefaultErrorResponses(oas)
			spec, _ = json.Marshal(oas)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(spec)
	})
}

func ensureDefaultErrorResponses(oas *huma.OpenAPI) {
	if oas == nil || oas.Paths == nil {
		return
	}
	for _, item := range oas.Paths {
		for _, op := range []*huma.Operation{
			item.Get, item.Put, item.Post, item.Delete, item.Options, item.Head, item.Patch, item.Trace,
		} {
			if op == nil {
				continue
			}
			if op.Responses == nil {
				op.Responses = map[string]*huma.Response{}
			}
			op.Responses["default"] = &huma.Response{
				Description: "Error",
				Content: map[string]*huma.MediaType{
					"application/json": {
						Schema: &huma.Schema{Ref: "#/components/schemas/ApiError"},
					},
				},
			}
		}
	}
}

func swaggerHTML(basePath string) string {
	specURL := path.Join("/", path.Join(basePath, "openapi.json"))
	return fmt.Sprintf(`<!doctype html>
<html lang="en">
  <head>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1"/>
    <title>Taskdock API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
    <script>
      window.onload = () => {
        SwaggerUIBundle({
          url: '%s',
          dom_id: '#swagger-ui'
        });
      };
    </script>
  </body>
</html>`, specURL)
}

func registerInfo(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "app-info",
		Method:      http.MethodGet,
		Path:        "/info",
		Summary:     "Application info",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body InfoResponse `json:"body"`
	}, error) {
		return &struct {
			Body InfoResponse `json:"body"`
		}{Body: InfoResponse{AppInfo: e.Info(), Timestamp: nowStamp(e)}}, nil
	})
}

func registerTasks(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tasks",
		Method:      http.MethodGet,
		Path:        "/tasks",
		Summary:     "List tasks",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Status    string `query:"status"`
		Category  string `query:"category"`
		Priority  int    `query:"priority"`
		Search    string `query:"search"`
		Overdue   bool   `query:"overdue"`
		SortBy    string `query:"sort_by" default:"created_at"`
		SortOrder string `query:"sort_order" enum:"asc,desc" default:"desc"`
		Limit     int    `query:"limit"`
	}) (*struct {
		Body TaskListResponse `json:"body"`
	}, error) {
		tasks, err := e.ListTasks(ctx, engine.TaskListOptions{
			Status:      input.Status,
			Category:    input.Category,
			Priority:    input.Priority,
			Search:      input.Search,
			OverdueOnly: input.Overdue,
			SortBy:      input.SortBy,
			Descending:  input.SortOrder != "asc",
			Limit:       input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskListResponse `json:"body"`
		}{Body: TaskListResponse{
			Tasks: tasks,
			Count: len(tasks),
			Filters: map[string]any{
				"status":     input.Status,
				"category":   input.Category,
				"priority":   input.Priority,
				"search":     input.Search,
				"overdue":    input.Overdue,
				"sort_by":    input.SortBy,
				"sort_order": input.SortOrder,
			},
			Timestamp: nowStamp(e),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "task-categories",
		Method:      http.MethodGet,
		Path:        "/tasks/categories",
		Summary:     "List task categories",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body CategoriesResponse `json:"body"`
	}, error) {
		return &struct {
			Body CategoriesResponse `json:"body"`
		}{Body: CategoriesResponse{Categories: engine.Categories(), Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "task-statistics",
		Method:      http.MethodGet,
		Path:        "/tasks/statistics",
		Summary:     "Task statistics",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body TaskStatsResponse `json:"body"`
	}, error) {
		return &struct {
			Body TaskStatsResponse `json:"body"`
		}{Body: TaskStatsResponse{Statistics: e.TaskStatistics(ctx), Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-task",
		Method:        http.MethodPost,
		Path:          "/tasks",
		Summary:       "Create task",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      input.Body.Status,
			Priority:    input.Body.Priority,
			Category:    input.Body.Category,
			DueDate:     input.Body.DueDate,
			Tags:        input.Body.Tags,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t, Message: "Task created successfully"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-task",
		Method:      http.MethodGet,
		Path:        "/tasks/{id}",
		Summary:     "Get task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int `path:"id"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := e.Task(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t, Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-task",
		Method:      http.MethodPut,
		Path:        "/tasks/{id}",
		Summary:     "Update task",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusNotFound,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		ID   int               `path:"id"`
		Body UpdateTaskRequest `json:"body"`
	}) (*struct {
		Body TaskResponse `json:"body"`
	}, error) {
		t, err := e.UpdateTask(ctx, engine.TaskUpdateOptions{
			ID:          input.ID,
			Title:       input.Body.Title,
			Description: input.Body.Description,
			Status:      input.Body.Status,
			Priority:    input.Body.Priority,
			Category:    input.Body.Category,
			DueDate:     input.Body.DueDate,
			Tags:        input.Body.Tags,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body TaskResponse `json:"body"`
		}{Body: TaskResponse{Task: t, Message: "Task updated successfully"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-task",
		Method:      http.MethodDelete,
		Path:        "/tasks/{id}",
		Summary:     "Delete task",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int `path:"id"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if err := e.DeleteTask(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "Task deleted successfully"}}, nil
	})
}

func registerUsers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "list-users",
		Method:      http.MethodGet,
		Path:        "/users",
		Summary:     "List users",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body UserListResponse `json:"body"`
	}, error) {
		users := e.ListUsers(ctx)
		return &struct {
			Body UserListResponse `json:"body"`
		}{Body: UserListResponse{Users: users, Count: len(users), Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-user",
		Method:        http.MethodPost,
		Path:          "/users",
		Summary:       "Create user",
		DefaultStatus: http.StatusCreated,
		Errors: []int{
			http.StatusBadRequest,
			http.StatusConflict,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body CreateUserRequest `json:"body"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		u, err := e.CreateUser(ctx, engine.UserCreateOptions{
			Username:  input.Body.Username,
			Email:     input.Body.Email,
			FirstName: input.Body.FirstName,
			LastName:  input.Body.LastName,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: UserResponse{User: u, Message: "User created successfully"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-user",
		Method:      http.MethodGet,
		Path:        "/users/{id}",
		Summary:     "Get user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body UserResponse `json:"body"`
	}, error) {
		u, err := e.User(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body UserResponse `json:"body"`
		}{Body: UserResponse{User: u, Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-user",
		Method:      http.MethodDelete,
		Path:        "/users/{id}",
		Summary:     "Delete user",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID string `path:"id"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if err := e.DeleteUser(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "User deleted successfully"}}, nil
	})
}

func registerWeather(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "get-weather",
		Method:      http.MethodGet,
		Path:        "/weather/{location}",
		Summary:     "Current weather",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Location string `path:"location"`
	}) (*struct {
		Body WeatherResponse `json:"body"`
	}, error) {
		w, cached, err := e.CurrentWeather(ctx, input.Location)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body WeatherResponse `json:"body"`
		}{Body: WeatherResponse{Weather: w, Cached: cached, Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "weather-forecast",
		Method:      http.MethodGet,
		Path:        "/weather/{location}/forecast",
		Summary:     "Weather forecast",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Location string `path:"location"`
		Days     int    `query:"days" default:"5"`
	}) (*struct {
		Body ForecastResponse `json:"body"`
	}, error) {
		forecast, err := e.WeatherForecast(ctx, input.Location, input.Days)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ForecastResponse `json:"body"`
		}{Body: ForecastResponse{
			Location:  input.Location,
			Forecast:  forecast,
			Days:      len(forecast),
			Timestamp: nowStamp(e),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "clear-weather-cache",
		Method:      http.MethodPost,
		Path:        "/weather/cache/clear",
		Summary:     "Clear weather cache",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if err := e.ClearWeatherCache(ctx); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "Weather cache cleared successfully"}}, nil
	})
}

// healthFailure reports an unhealthy check with the health envelope rather
// than the error one.
type healthFailure struct {
	Status    string `json:"status"`
	Detail    string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func (h *healthFailure) GetStatus() int { return http.StatusInternalServerError }
func (h *healthFailure) Error() string  { return h.Detail }

func registerAdmin(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/admin/health",
		Summary:     "Health check",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body HealthResponse `json:"body"`
	}, error) {
		report, err := e.Health(ctx)
		if err != nil {
			return nil, &healthFailure{Status: "unhealthy", Detail: err.Error(), Timestamp: nowStamp(e)}
		}
		return &struct {
			Body HealthResponse `json:"body"`
		}{Body: HealthResponse{
			Status:    report.Status,
			Database:  DatabaseHealth{Tasks: report.Tasks, Users: report.Users},
			Timestamp: nowStamp(e),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-settings",
		Method:      http.MethodGet,
		Path:        "/admin/settings",
		Summary:     "List settings",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body SettingsResponse `json:"body"`
	}, error) {
		return &struct {
			Body SettingsResponse `json:"body"`
		}{Body: SettingsResponse{Settings: e.Settings(ctx), Timestamp: nowStamp(e)}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-setting",
		Method:      http.MethodPost,
		Path:        "/admin/settings",
		Summary:     "Update setting",
		Errors: []int{
			http.StatusBadRequest,
			http.StatusInternalServerError,
		},
	}, func(ctx context.Context, input *struct {
		Body UpdateSettingRequest `json:"body"`
	}) (*struct {
		Body SettingResponse `json:"body"`
	}, error) {
		if err := e.SetSetting(ctx, input.Body.Key, input.Body.Value); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body SettingResponse `json:"body"`
		}{Body: SettingResponse{
			Message: "Setting updated successfully",
			Key:     input.Body.Key,
			Value:   input.Body.Value,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-setting",
		Method:      http.MethodDelete,
		Path:        "/admin/settings/{key}",
		Summary:     "Delete setting",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Key string `path:"key"`
	}) (*struct {
		Body MessageResponse `json:"body"`
	}, error) {
		if err := e.DeleteSetting(ctx, input.Key); err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body MessageResponse `json:"body"`
		}{Body: MessageResponse{Message: "Setting deleted successfully"}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recent-history",
		Method:      http.MethodGet,
		Path:        "/admin/history",
		Summary:     "Recent activity",
		Errors:      []int{http.StatusInternalServerError},
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit" default:"50"`
	}) (*struct {
		Body HistoryResponse `json:"body"`
	}, error) {
		entries, err := e.RecentHistory(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body HistoryResponse `json:"body"`
		}{Body: HistoryResponse{Entries: entries, Count: len(entries), Timestamp: nowStamp(e)}}, nil
	})
}
