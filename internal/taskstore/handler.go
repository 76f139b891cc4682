// Package taskstore это хранилище задач: HTTP-слой на chi, сервис и бэкенды хранения.
//
// Цепочка вызовов: handler -> service -> backend.
package taskstore

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"

	appMiddleware "taskboard/internal/middleware"
	"taskboard/internal/tasks"
	"taskboard/internal/validation"
)

const maxBodySize = 64 << 10

// Config настраивает HTTP-слой хранилища.
type Config struct {
	Priorities     []string
	Categories     []string
	RequestTimeout time.Duration
	// Если AdminUser не пустой, изменяющие запросы требуют Basic Auth.
	AdminUser     string
	AdminPassword string
	Logger        log.FieldLogger
}

// Handler это HTTP-слой хранилища задач.
//
// Здесь всё, что относится к HTTP: роуты, разбор JSON, коды ответов, middleware.
// Правила полей те же, что у клиента, но с лимитом заголовка хранилища.
type Handler struct {
	svc    *Service
	rules  *validation.Engine
	cfg    Config
	logger log.FieldLogger
}

// NewHandler создаёт Handler поверх сервиса.
func NewHandler(svc *Service, cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Handler{
		svc: svc,
		rules: validation.New(validation.Options{
			PriorityOptions: cfg.Priorities,
			CategoryOptions: cfg.Categories,
			MaxTitle:        tasks.StoreMaxTitleLength,
		}),
		cfg:    cfg,
		logger: logger,
	}
}

// Router собирает HTTP-роутер для задач.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Route("/tasks", func(r chi.Router) {
		r.Use(appMiddleware.JSONHeaderMiddleware)
		if h.cfg.RequestTimeout > 0 {
			r.Use(appMiddleware.RequestTimeoutMiddleware(h.cfg.RequestTimeout))
		}

		r.Get("/", h.getAllTasks)
		r.Get("/{id}", h.getTaskByID)

		r.Group(func(r chi.Router) {
			if h.cfg.AdminUser != "" {
				r.Use(appMiddleware.BasicAuthMiddleware(h.cfg.AdminUser, h.cfg.AdminPassword))
			}
			r.Post("/", h.createTask)
			r.Put("/{id}", h.updateTask)
			r.Delete("/{id}", h.deleteTask)
		})
	})
	return r
}

// getAllTasks обрабатывает GET /tasks
//
// Поддерживает ?delay=2s для проверки таймаутов на стороне клиента.
func (h *Handler) getAllTasks(w http.ResponseWriter, r *http.Request) {
	delay, err := parseDelayParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid delay. Use e.g. ?delay=200ms or ?delay=2s")
		return
	}

	list, err := h.svc.ListTasks(r.Context(), delay)
	if err != nil {
		if h.handleContextError(w, err) {
			return
		}
		h.logger.WithError(err).Error("list tasks failed")
		writeError(w, http.StatusInternalServerError, "Failed to load tasks")
		return
	}

	out := make([]taskJSON, len(list))
	for i, t := range list {
		out[i] = toJSON(t)
	}
	writeJSON(w, http.StatusOK, out)
}

// createTask обрабатывает POST /tasks
func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	draft, err := h.rules.Validate(req.input())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.svc.CreateTask(r.Context(), draft)
	if err != nil {
		if h.handleContextError(w, err) {
			return
		}
		h.logger.WithError(err).Error("create task failed")
		writeError(w, http.StatusInternalServerError, "Failed to save task")
		return
	}

	h.logger.WithField("task", created.ID).Debug("task created")
	writeJSON(w, http.StatusCreated, toJSON(created))
}

// getTaskByID обрабатывает GET /tasks/{id}
func (h *Handler) getTaskByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	task, ok, err := h.svc.GetTask(r.Context(), id)
	if err != nil {
		if h.handleContextError(w, err) {
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get task")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, toJSON(task))
}

// updateTask обрабатывает PUT /tasks/{id}
//
// Тело заменяет все поля задачи, completed обязателен.
func (h *Handler) updateTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.Completed == nil {
		writeError(w, http.StatusBadRequest, "Missing required field: completed")
		return
	}

	draft, err := h.rules.Validate(req.input())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, ok, err := h.svc.UpdateTask(r.Context(), id, draft)
	if err != nil {
		if h.handleContextError(w, err) {
			return
		}
		h.logger.WithError(err).WithField("task", id).Error("update task failed")
		writeError(w, http.StatusInternalServerError, "Failed to save tasks")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	writeJSON(w, http.StatusOK, toJSON(updated))
}

// deleteTask обрабатывает DELETE /tasks/{id}, при успехе 204.
func (h *Handler) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := h.svc.DeleteTask(r.Context(), id)
	if err != nil {
		if h.handleContextError(w, err) {
			return
		}
		h.logger.WithError(err).WithField("task", id).Error("delete task failed")
		writeError(w, http.StatusInternalServerError, "Failed to save tasks")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decode читает тело запроса строго: лишние поля и неверные типы дают 400.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (taskRequest, bool) {
	dec := sonic.ConfigStd.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	dec.DisallowUnknownFields()

	var req taskRequest
	if err := dec.Decode(&req); err != nil {
		h.logger.WithError(err).Debug("rejecting request body")
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return taskRequest{}, false
	}
	return req, true
}

// parseDelayParam парсит query-параметр ?delay=...
func parseDelayParam(r *http.Request) (time.Duration, error) {
	raw := r.URL.Query().Get("delay")
	if raw == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}

	if d < 0 {
		return 0, errors.New("delay must be >= 0")
	}
	return d, nil
}

// handleContextError обрабатывает отмену и таймаут запроса.
func (h *Handler) handleContextError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, context.Canceled):
		// Клиент ушёл, отвечать некому.
		return true
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusRequestTimeout, "Request timeout")
		return true
	default:
		return false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"Failed to encode response"}`, http.StatusInternalServerError)
		return
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
