package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"

	"taskdock/internal/app"
	"taskdock/internal/server"
)

func main() {
	eng, cleanup, err := app.Setup(app.Options{DataDir: "/tmp/taskdock-check/data"})
	if err != nil {
		panic(err)
	}
	defer cleanup()
	if _, err := eng.Init(context.Background()); err != nil {
		panic(err)
	}
	h, err := server.New(server.Config{Engine: eng, BasePath: "/api"})
	if err != nil {
		panic(err)
	}
	ts := httptest.NewServer(h)
	defer ts.Close()

	body := map[string]any{
		"title":    "Check the docs page",
		"priority": 3,
		"category": "work",
	}
	b, _ := json.Marshal(body)
	res, err := http.Post(ts.URL+"/api/tasks", "application/json", bytes.NewReader(b))
	if err != nil {
		panic(err)
	}
	defer res.Body.Close()
	var resp any
	_ = json.NewDecoder(res.Body).Decode(&resp)
	fmt.Printf("status=%d resp=%v\n", res.StatusCode, resp)
}
