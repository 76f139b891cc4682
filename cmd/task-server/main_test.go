package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/config"
	"taskboard/internal/tasks"
	"taskboard/internal/taskstore"
)

func init() {
	log.SetOutput(io.Discard)
}

func TestNewBackendUsesFileWithoutRedisURL(t *testing.T) {
	cfg := config.Server{DBFile: filepath.Join(t.TempDir(), "tasks.json")}

	backend, closeBackend, err := newBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newBackend: %v", err)
	}
	defer closeBackend()

	if _, ok := backend.(*taskstore.FileStore); !ok {
		t.Fatalf("expected *taskstore.FileStore, got %T", backend)
	}
}

func TestNewBackendUsesRedis(t *testing.T) {
	m := miniredis.RunT(t)
	cfg := config.Server{RedisURL: "redis://" + m.Addr()}

	backend, closeBackend, err := newBackend(context.Background(), cfg)
	if err != nil {
		t.Fatalf("newBackend: %v", err)
	}
	defer closeBackend()

	if _, ok := backend.(*taskstore.RedisStore); !ok {
		t.Fatalf("expected *taskstore.RedisStore, got %T", backend)
	}

	svc, err := taskstore.NewService(context.Background(), backend)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.CreateTask(context.Background(), tasks.Draft{Title: "in redis"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !m.Exists(taskstore.DefaultRedisKey) {
		t.Fatalf("tasks must be saved under %q", taskstore.DefaultRedisKey)
	}
}

func TestNewBackendRedisErrors(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "bad url", url: "http://localhost:6379"},
		{name: "unreachable", url: "redis://127.0.0.1:1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()

			if _, _, err := newBackend(ctx, config.Server{RedisURL: tt.url}); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func newServer(t *testing.T, cfg config.Server) *httptest.Server {
	t.Helper()
	svc, err := taskstore.NewService(context.Background(), taskstore.NewFileStore(filepath.Join(t.TempDir(), "tasks.json")))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler := taskstore.NewHandler(svc, taskstore.Config{
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
		Logger:        log.StandardLogger(),
	})

	srv := httptest.NewServer(chiWithMiddleware(handler.Router(), cfg))
	t.Cleanup(srv.Close)
	return srv
}

func TestServerStackAnswersPreflight(t *testing.T) {
	const origin = "http://localhost:5173"
	srv := newServer(t, config.Server{CORSOrigins: []string{origin}, AdminUser: "admin", AdminPassword: "secret"})

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/tasks", nil)
	req.Header.Set("Origin", origin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight must be answered with 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != origin {
		t.Fatalf("unexpected allow origin %q", got)
	}
	if resp.Header.Get("WWW-Authenticate") != "" {
		t.Fatalf("preflight must not require credentials")
	}
}

func TestServerStackServesTasks(t *testing.T) {
	const origin = "http://localhost:5173"
	srv := newServer(t, config.Server{CORSOrigins: []string{origin}})

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/tasks", nil)
	req.Header.Set("Origin", origin)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	if string(body) != "[]" && string(body) != "[]\n" {
		t.Fatalf("expected an empty list, got %q", body)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != origin {
		t.Fatalf("allowed origin must get CORS headers, got %q", got)
	}

	resp, err = http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown path must be 404, got %d", resp.StatusCode)
	}
}
