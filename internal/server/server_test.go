package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"

	"taskdock/internal/db"
	"taskdock/internal/domain"
	"taskdock/internal/engine"
	"taskdock/internal/history"
	"taskdock/internal/migrate"
	"taskdock/internal/store"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	dataDir := t.TempDir()
	st, err := store.New(dataDir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	conn, err := db.Open(db.Config{DataDir: dataDir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(st, history.Log{DB: conn}, nil)
	handler, err := New(Config{Engine: eng, BasePath: "/api"})
	if err != nil {
		t.Fatalf("build handler: %v", err)
	}
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	res, err := client.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return res, data
}

func decodeErrorEnvelope(t *testing.T, data []byte) (code, message string) {
	t.Helper()
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		t.Fatalf("unmarshal error envelope: %v (%s)", err, string(data))
	}
	return envelope.Error.Code, envelope.Error.Message
}

type taskEnvelope struct {
	Task      domain.Task `json:"task"`
	Message   string      `json:"message"`
	Timestamp string      `json:"timestamp"`
}

func TestTaskCRUDOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	createRes, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"title":       "Ship feature",
		"description": "write the handler",
		"priority":    4,
		"category":    "work",
		"tags":        []string{"api"},
	}, nil)
	if createRes.StatusCode != http.StatusCreated {
		t.Fatalf("create task status %d: %s", createRes.StatusCode, string(data))
	}
	var created taskEnvelope
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal created task: %v", err)
	}
	if created.Task.ID != 1 {
		t.Fatalf("expected task id 1, got %d", created.Task.ID)
	}
	if created.Task.Status != domain.StatusPending {
		t.Fatalf("expected default status pending, got %s", created.Task.Status)
	}
	if created.Message != "Task created successfully" {
		t.Fatalf("unexpected create message %q", created.Message)
	}

	getRes, getBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks/1", nil, nil)
	if getRes.StatusCode != http.StatusOK {
		t.Fatalf("get task status %d: %s", getRes.StatusCode, string(getBody))
	}
	var fetched taskEnvelope
	if err := json.Unmarshal(getBody, &fetched); err != nil {
		t.Fatalf("unmarshal fetched task: %v", err)
	}
	if fetched.Task.Title != "Ship feature" {
		t.Fatalf("expected title Ship feature, got %q", fetched.Task.Title)
	}
	if fetched.Timestamp == "" {
		t.Fatalf("expected timestamp on get response")
	}

	updRes, updBody := doJSON(t, client, http.MethodPut, srv.URL+"/api/tasks/1", map[string]any{
		"status": "completed",
	}, nil)
	if updRes.StatusCode != http.StatusOK {
		t.Fatalf("update task status %d: %s", updRes.StatusCode, string(updBody))
	}
	var updated taskEnvelope
	if err := json.Unmarshal(updBody, &updated); err != nil {
		t.Fatalf("unmarshal updated task: %v", err)
	}
	if updated.Task.Status != domain.StatusCompleted {
		t.Fatalf("expected status completed, got %s", updated.Task.Status)
	}
	if updated.Task.Title != "Ship feature" {
		t.Fatalf("partial update should keep title, got %q", updated.Task.Title)
	}
	if updated.Message != "Task updated successfully" {
		t.Fatalf("unexpected update message %q", updated.Message)
	}

	missingRes, missingBody := doJSON(t, client, http.MethodPut, srv.URL+"/api/tasks/99", map[string]any{
		"status": "completed",
	}, nil)
	if missingRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing task, got %d: %s", missingRes.StatusCode, string(missingBody))
	}
	if code, _ := decodeErrorEnvelope(t, missingBody); code != "not_found" {
		t.Fatalf("expected not_found code, got %q", code)
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/tasks/1", nil, nil)
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete task status %d: %s", delRes.StatusCode, string(delBody))
	}
	var deleted MessageResponse
	if err := json.Unmarshal(delBody, &deleted); err != nil {
		t.Fatalf("unmarshal delete response: %v", err)
	}
	if deleted.Message != "Task deleted successfully" {
		t.Fatalf("unexpected delete message %q", deleted.Message)
	}

	goneRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks/1", nil, nil)
	if goneRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", goneRes.StatusCode)
	}
}

func TestTaskValidationOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"title": "   ",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank title should be 400, got %d: %s", res.StatusCode, string(data))
	}
	code, msg := decodeErrorEnvelope(t, data)
	if code != "bad_request" || msg != "title is required" {
		t.Fatalf("unexpected envelope %q %q", code, msg)
	}

	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"title":    "ok",
		"priority": 9,
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("priority 9 should be 400, got %d: %s", res.StatusCode, string(data))
	}
	if _, msg = decodeErrorEnvelope(t, data); !strings.Contains(msg, "priority") {
		t.Fatalf("expected priority message, got %q", msg)
	}

	// Enum mismatch is rejected by schema validation before the engine runs.
	res, data = doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", map[string]any{
		"title":  "ok",
		"status": "paused",
	}, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad status should be 400, got %d: %s", res.StatusCode, string(data))
	}
	if code, _ = decodeErrorEnvelope(t, data); code != "bad_request" {
		t.Fatalf("expected bad_request code, got %q", code)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks?status=bogus", nil, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bogus filter should be 400, got %d: %s", res.StatusCode, string(data))
	}
	if _, msg = decodeErrorEnvelope(t, data); msg != "invalid status value" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestTaskListFiltersOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	seed := []map[string]any{
		{"title": "Write report", "category": "work", "priority": 2},
		{"title": "Buy groceries", "category": "shopping", "priority": 5, "status": "completed"},
		{"title": "Plan trip", "category": "travel", "priority": 4},
	}
	for _, body := range seed {
		res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/tasks", body, nil)
		if res.StatusCode != http.StatusCreated {
			t.Fatalf("seed task status %d: %s", res.StatusCode, string(data))
		}
	}

	type listEnvelope struct {
		Tasks   []domain.Task  `json:"tasks"`
		Count   int            `json:"count"`
		Filters map[string]any `json:"filters"`
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks?status=pending", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("list status %d: %s", res.StatusCode, string(data))
	}
	var pending listEnvelope
	if err := json.Unmarshal(data, &pending); err != nil {
		t.Fatalf("unmarshal list: %v", err)
	}
	if pending.Count != 2 || len(pending.Tasks) != 2 {
		t.Fatalf("expected 2 pending tasks, got count=%d len=%d", pending.Count, len(pending.Tasks))
	}
	got := map[int]bool{}
	for _, task := range pending.Tasks {
		got[task.ID] = true
	}
	if !got[1] || !got[3] {
		t.Fatalf("expected tasks 1 and 3, got %v", got)
	}
	if pending.Filters["status"] != "pending" {
		t.Fatalf("filters should echo status, got %v", pending.Filters["status"])
	}
	if pending.Filters["sort_order"] != "desc" {
		t.Fatalf("sort_order should default to desc, got %v", pending.Filters["sort_order"])
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks?sort_by=priority&sort_order=asc", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("sorted list status %d: %s", res.StatusCode, string(data))
	}
	var sorted listEnvelope
	if err := json.Unmarshal(data, &sorted); err != nil {
		t.Fatalf("unmarshal sorted list: %v", err)
	}
	if len(sorted.Tasks) != 3 || sorted.Tasks[0].ID != 1 || sorted.Tasks[2].ID != 2 {
		t.Fatalf("unexpected priority asc order: %+v", taskIDList(sorted.Tasks))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks?sort_by=priority&sort_order=desc&limit=2", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("limited list status %d: %s", res.StatusCode, string(data))
	}
	var limited listEnvelope
	if err := json.Unmarshal(data, &limited); err != nil {
		t.Fatalf("unmarshal limited list: %v", err)
	}
	if limited.Count != 2 || limited.Tasks[0].ID != 2 || limited.Tasks[1].ID != 3 {
		t.Fatalf("unexpected priority desc limit 2: %+v", taskIDList(limited.Tasks))
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks/statistics", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("statistics status %d: %s", res.StatusCode, string(data))
	}
	var stats struct {
		Statistics struct {
			Total    int            `json:"total"`
			ByStatus map[string]int `json:"by_status"`
		} `json:"statistics"`
	}
	if err := json.Unmarshal(data, &stats); err != nil {
		t.Fatalf("unmarshal statistics: %v", err)
	}
	if stats.Statistics.Total != 3 {
		t.Fatalf("expected 3 tasks in statistics, got %d", stats.Statistics.Total)
	}
	if stats.Statistics.ByStatus["completed"] != 1 {
		t.Fatalf("expected 1 completed, got %d", stats.Statistics.ByStatus["completed"])
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/tasks/categories", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("categories status %d: %s", res.StatusCode, string(data))
	}
	var cats struct {
		Categories []engine.CategoryInfo `json:"categories"`
	}
	if err := json.Unmarshal(data, &cats); err != nil {
		t.Fatalf("unmarshal categories: %v", err)
	}
	if len(cats.Categories) != len(domain.TaskCategories) {
		t.Fatalf("expected %d categories, got %d", len(domain.TaskCategories), len(cats.Categories))
	}
	for _, c := range cats.Categories {
		if c.Value == "" || c.Label == "" || !strings.HasPrefix(c.Color, "#") {
			t.Fatalf("incomplete category entry: %+v", c)
		}
	}
}

func taskIDList(tasks []domain.Task) []int {
	ids := make([]int, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, t.ID)
	}
	return ids
}

func TestUserEndpointsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	type userEnvelope struct {
		User    domain.User `json:"user"`
		Message string      `json:"message"`
	}

	res, data := doJSON(t, client, http.MethodPost, srv.URL+"/api/users", map[string]any{
		"username":   "ada",
		"email":      "ada@example.com",
		"first_name": "Ada",
		"last_name":  "Lovelace",
	}, nil)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create user status %d: %s", res.StatusCode, string(data))
	}
	var created userEnvelope
	if err := json.Unmarshal(data, &created); err != nil {
		t.Fatalf("unmarshal created user: %v", err)
	}
	if created.User.ID == "" || created.User.Username != "ada" {
		t.Fatalf("unexpected created user: %+v", created.User)
	}
	if created.Message != "User created successfully" {
		t.Fatalf("unexpected create message %q", created.Message)
	}

	dupRes, dupBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/users", map[string]any{
		"username":   "ada",
		"email":      "other@example.com",
		"first_name": "Other",
		"last_name":  "Person",
	}, nil)
	if dupRes.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate username should be 409, got %d: %s", dupRes.StatusCode, string(dupBody))
	}
	if code, _ := decodeErrorEnvelope(t, dupBody); code != "conflict" {
		t.Fatalf("expected conflict code, got %q", code)
	}

	badRes, badBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/users", map[string]any{
		"username":   "bob",
		"email":      "nodomain",
		"first_name": "Bob",
		"last_name":  "Builder",
	}, nil)
	if badRes.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad email should be 400, got %d: %s", badRes.StatusCode, string(badBody))
	}
	if _, msg := decodeErrorEnvelope(t, badBody); msg != "invalid email format" {
		t.Fatalf("unexpected message %q", msg)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/users", nil, nil)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list users status %d: %s", listRes.StatusCode, string(listBody))
	}
	var listed struct {
		Users []domain.User `json:"users"`
		Count int           `json:"count"`
	}
	if err := json.Unmarshal(listBody, &listed); err != nil {
		t.Fatalf("unmarshal users: %v", err)
	}
	if listed.Count != 1 || len(listed.Users) != 1 {
		t.Fatalf("expected one user, got count=%d len=%d", listed.Count, len(listed.Users))
	}

	getRes, getBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/users/"+created.User.ID, nil, nil)
	if getRes.StatusCode != http.StatusOK {
		t.Fatalf("get user status %d: %s", getRes.StatusCode, string(getBody))
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/users/"+created.User.ID, nil, nil)
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete user status %d: %s", delRes.StatusCode, string(delBody))
	}
	var deleted MessageResponse
	if err := json.Unmarshal(delBody, &deleted); err != nil {
		t.Fatalf("unmarshal delete response: %v", err)
	}
	if deleted.Message != "User deleted successfully" {
		t.Fatalf("unexpected delete message %q", deleted.Message)
	}

	goneRes, _ := doJSON(t, client, http.MethodGet, srv.URL+"/api/users/"+created.User.ID, nil, nil)
	if goneRes.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", goneRes.StatusCode)
	}
}

func TestWeatherEndpointsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	type weatherEnvelope struct {
		Weather domain.Weather `json:"weather"`
		Cached  bool           `json:"cached"`
	}

	res, data := doJSON(t, client, http.MethodGet, srv.URL+"/api/weather/Lisbon", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("weather status %d: %s", res.StatusCode, string(data))
	}
	var first weatherEnvelope
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatalf("unmarshal weather: %v", err)
	}
	if first.Cached {
		t.Fatalf("first reading should not be cached")
	}
	if first.Weather.Location != "Lisbon" {
		t.Fatalf("expected location Lisbon, got %q", first.Weather.Location)
	}
	if first.Weather.Temperature < 10 || first.Weather.Temperature >= 35 {
		t.Fatalf("temperature out of range: %v", first.Weather.Temperature)
	}
	if !domain.ValidWeatherCondition(first.Weather.Condition) {
		t.Fatalf("unexpected condition %q", first.Weather.Condition)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/weather/Lisbon", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("second weather status %d: %s", res.StatusCode, string(data))
	}
	var second weatherEnvelope
	if err := json.Unmarshal(data, &second); err != nil {
		t.Fatalf("unmarshal second weather: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second reading should be cached")
	}
	if second.Weather.Temperature != first.Weather.Temperature {
		t.Fatalf("cached reading should match: %v != %v", second.Weather.Temperature, first.Weather.Temperature)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/weather/Lisbon/forecast?days=3", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("forecast status %d: %s", res.StatusCode, string(data))
	}
	var forecast ForecastResponse
	if err := json.Unmarshal(data, &forecast); err != nil {
		t.Fatalf("unmarshal forecast: %v", err)
	}
	if forecast.Days != 3 || len(forecast.Forecast) != 3 {
		t.Fatalf("expected 3 forecast days, got days=%d len=%d", forecast.Days, len(forecast.Forecast))
	}
	if forecast.Location != "Lisbon" || forecast.Forecast[0].Location != "Lisbon" {
		t.Fatalf("forecast location mismatch: %+v", forecast)
	}

	badRes, badBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/weather/Lisbon/forecast?days=9", nil, nil)
	if badRes.StatusCode != http.StatusBadRequest {
		t.Fatalf("days=9 should be 400, got %d: %s", badRes.StatusCode, string(badBody))
	}
	if _, msg := decodeErrorEnvelope(t, badBody); msg != "days must be between 1 and 7" {
		t.Fatalf("unexpected message %q", msg)
	}

	clearRes, clearBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/weather/cache/clear", nil, nil)
	if clearRes.StatusCode != http.StatusOK {
		t.Fatalf("clear cache status %d: %s", clearRes.StatusCode, string(clearBody))
	}
	var cleared MessageResponse
	if err := json.Unmarshal(clearBody, &cleared); err != nil {
		t.Fatalf("unmarshal clear response: %v", err)
	}
	if cleared.Message != "Weather cache cleared successfully" {
		t.Fatalf("unexpected clear message %q", cleared.Message)
	}

	res, data = doJSON(t, client, http.MethodGet, srv.URL+"/api/weather/Lisbon", nil, nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("post-clear weather status %d: %s", res.StatusCode, string(data))
	}
	var fresh weatherEnvelope
	if err := json.Unmarshal(data, &fresh); err != nil {
		t.Fatalf("unmarshal post-clear weather: %v", err)
	}
	if fresh.Cached {
		t.Fatalf("reading after clear should not be cached")
	}
}

func TestAdminEndpointsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	healthRes, healthBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/health", nil, nil)
	if healthRes.StatusCode != http.StatusOK {
		t.Fatalf("health status %d: %s", healthRes.StatusCode, string(healthBody))
	}
	var health HealthResponse
	if err := json.Unmarshal(healthBody, &health); err != nil {
		t.Fatalf("unmarshal health: %v", err)
	}
	if health.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", health.Status)
	}
	if health.Database.Tasks != 0 || health.Database.Users != 0 {
		t.Fatalf("expected empty collections, got %+v", health.Database)
	}

	setRes, setBody := doJSON(t, client, http.MethodPost, srv.URL+"/api/admin/settings", map[string]any{
		"key":   "theme",
		"value": "dark",
	}, nil)
	if setRes.StatusCode != http.StatusOK {
		t.Fatalf("set setting status %d: %s", setRes.StatusCode, string(setBody))
	}
	var set SettingResponse
	if err := json.Unmarshal(setBody, &set); err != nil {
		t.Fatalf("unmarshal setting response: %v", err)
	}
	if set.Message != "Setting updated successfully" || set.Key != "theme" || set.Value != "dark" {
		t.Fatalf("unexpected setting response: %+v", set)
	}

	listRes, listBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/settings", nil, nil)
	if listRes.StatusCode != http.StatusOK {
		t.Fatalf("list settings status %d: %s", listRes.StatusCode, string(listBody))
	}
	var settings struct {
		Settings map[string]any `json:"settings"`
	}
	if err := json.Unmarshal(listBody, &settings); err != nil {
		t.Fatalf("unmarshal settings: %v", err)
	}
	if settings.Settings["theme"] != "dark" {
		t.Fatalf("expected theme=dark, got %v", settings.Settings)
	}

	delRes, delBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/admin/settings/theme", nil, nil)
	if delRes.StatusCode != http.StatusOK {
		t.Fatalf("delete setting status %d: %s", delRes.StatusCode, string(delBody))
	}
	againRes, againBody := doJSON(t, client, http.MethodDelete, srv.URL+"/api/admin/settings/theme", nil, nil)
	if againRes.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete should be 404, got %d: %s", againRes.StatusCode, string(againBody))
	}

	histRes, histBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/admin/history?limit=5", nil, nil)
	if histRes.StatusCode != http.StatusOK {
		t.Fatalf("history status %d: %s", histRes.StatusCode, string(histBody))
	}
	var hist struct {
		Entries []history.Entry `json:"entries"`
		Count   int             `json:"count"`
	}
	if err := json.Unmarshal(histBody, &hist); err != nil {
		t.Fatalf("unmarshal history: %v", err)
	}
	if hist.Count < 2 || len(hist.Entries) != hist.Count {
		t.Fatalf("expected at least 2 history entries, got %d", hist.Count)
	}
	if hist.Entries[0].Event != "setting.deleted" {
		t.Fatalf("expected setting.deleted first, got %q", hist.Entries[0].Event)
	}
}

func TestInfoAndDocsOverHTTP(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	client := srv.Client()

	infoRes, infoBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/info", nil, nil)
	if infoRes.StatusCode != http.StatusOK {
		t.Fatalf("info status %d: %s", infoRes.StatusCode, string(infoBody))
	}
	var info struct {
		Name    string `json:"name"`
		Version string `json:"version"`
	}
	if err := json.Unmarshal(infoBody, &info); err != nil {
		t.Fatalf("unmarshal info: %v", err)
	}
	if info.Name != "Taskdock" || info.Version != "1.0.0" {
		t.Fatalf("unexpected info: %+v", info)
	}

	docsRes, docsBody := doJSON(t, client, http.MethodGet, srv.URL+"/docs", nil, nil)
	if docsRes.StatusCode != http.StatusOK {
		t.Fatalf("docs status %d", docsRes.StatusCode)
	}
	if !strings.Contains(string(docsBody), "swagger-ui") {
		t.Fatalf("docs page should embed swagger-ui")
	}

	oasRes, oasBody := doJSON(t, client, http.MethodGet, srv.URL+"/api/openapi.json", nil, nil)
	if oasRes.StatusCode != http.StatusOK {
		t.Fatalf("openapi status %d", oasRes.StatusCode)
	}
	var oas map[string]any
	if err := json.Unmarshal(oasBody, &oas); err != nil {
		t.Fatalf("unmarshal openapi: %v", err)
	}
	if oas["openapi"] == nil {
		t.Fatalf("openapi document missing version field")
	}
}
