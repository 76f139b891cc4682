package taskstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/tasks"
)

// Service это слой бизнес-логики хранилища задач.
//
// Список задач живёт в памяти. Любое изменение сначала собирается в кандидат,
// кандидат сохраняется в Backend и только после этого становится текущим.
type Service struct {
	backend Backend
	newID   func() string

	mu    sync.RWMutex
	tasks []tasks.Task
}

// NewService создает сервис и загружает задачи из хранилища.
func NewService(ctx context.Context, backend Backend) (*Service, error) {
	loaded, err := backend.LoadTasks(ctx)
	if err != nil {
		return nil, err
	}

	return &Service{
		backend: backend,
		newID:   uuid.NewString,
		tasks:   loaded,
	}, nil
}

// ListTasks возвращает копию списка задач.
//
// Если delay > 0, ответ задерживается (медленное I/O для проверки таймаутов).
// Ожидание прерывается по ctx.Done().
func (s *Service) ListTasks(ctx context.Context, delay time.Duration) ([]tasks.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if delay > 0 {
		if err := sleepCtx(ctx, delay); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tasks.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

// GetTask возвращает задачу по id.
func (s *Service) GetTask(ctx context.Context, id string) (tasks.Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return tasks.Task{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := s.indexOf(id); idx >= 0 {
		return s.tasks[idx], true, nil
	}
	return tasks.Task{}, false, nil
}

// CreateTask выдаёт задаче id и сохраняет её.
func (s *Service) CreateTask(ctx context.Context, d tasks.Draft) (tasks.Task, error) {
	if err := ctx.Err(); err != nil {
		return tasks.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created := d.WithID(s.newID())

	candidate := make([]tasks.Task, 0, len(s.tasks)+1)
	candidate = append(candidate, s.tasks...)
	candidate = append(candidate, created)

	if err := s.backend.SaveTasks(ctx, candidate); err != nil {
		return tasks.Task{}, err
	}

	s.tasks = candidate
	return created, nil
}

// UpdateTask заменяет поля задачи. ID берётся из пути, а не из тела.
func (s *Service) UpdateTask(ctx context.Context, id string, d tasks.Draft) (tasks.Task, bool, error) {
	if err := ctx.Err(); err != nil {
		return tasks.Task{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx == -1 {
		return tasks.Task{}, false, nil
	}

	updated := d.WithID(id)

	candidate := make([]tasks.Task, len(s.tasks))
	copy(candidate, s.tasks)
	candidate[idx] = updated

	if err := s.backend.SaveTasks(ctx, candidate); err != nil {
		return tasks.Task{}, false, err
	}

	s.tasks = candidate
	return updated, true, nil
}

// DeleteTask удаляет задачу по id.
func (s *Service) DeleteTask(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx == -1 {
		return false, nil
	}

	candidate := make([]tasks.Task, 0, len(s.tasks)-1)
	candidate = append(candidate, s.tasks[:idx]...)
	candidate = append(candidate, s.tasks[idx+1:]...)

	if err := s.backend.SaveTasks(ctx, candidate); err != nil {
		return false, err
	}

	s.tasks = candidate
	return true, nil
}

// indexOf вызывается под s.mu.
func (s *Service) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
