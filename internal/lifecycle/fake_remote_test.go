package lifecycle

import (
	"context"
	"errors"
	"io"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/tasks"
	"taskboard/internal/validation"
)

type updateCall struct {
	ID   string
	Task tasks.Task
}

// fakeRemote записывает вызовы и отвечает через подставленные функции.
type fakeRemote struct {
	mu sync.Mutex

	createFn func(ctx context.Context, d tasks.Draft) (tasks.Task, error)
	updateFn func(ctx context.Context, id string, t tasks.Task) (tasks.Task, error)
	removeFn func(ctx context.Context, id string) error
	listFn   func(ctx context.Context) ([]tasks.Task, error)

	creates []tasks.Draft
	updates []updateCall
	removes []string
	lists   int
}

func (f *fakeRemote) Create(ctx context.Context, d tasks.Draft) (tasks.Task, error) {
	f.mu.Lock()
	f.creates = append(f.creates, d)
	fn := f.createFn
	f.mu.Unlock()
	if fn == nil {
		return tasks.Task{}, errors.New("unexpected Create call")
	}
	return fn(ctx, d)
}

func (f *fakeRemote) Update(ctx context.Context, id string, t tasks.Task) (tasks.Task, error) {
	f.mu.Lock()
	f.updates = append(f.updates, updateCall{ID: id, Task: t})
	fn := f.updateFn
	f.mu.Unlock()
	if fn == nil {
		return tasks.Task{}, errors.New("unexpected Update call")
	}
	return fn(ctx, id, t)
}

func (f *fakeRemote) Remove(ctx context.Context, id string) error {
	f.mu.Lock()
	f.removes = append(f.removes, id)
	fn := f.removeFn
	f.mu.Unlock()
	if fn == nil {
		return errors.New("unexpected Remove call")
	}
	return fn(ctx, id)
}

func (f *fakeRemote) List(ctx context.Context) ([]tasks.Task, error) {
	f.mu.Lock()
	f.lists++
	fn := f.listFn
	f.mu.Unlock()
	if fn == nil {
		return nil, errors.New("unexpected List call")
	}
	return fn(ctx)
}

func (f *fakeRemote) Creates() []tasks.Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tasks.Draft(nil), f.creates...)
}

func (f *fakeRemote) Updates() []updateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]updateCall(nil), f.updates...)
}

func (f *fakeRemote) Removes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.removes...)
}

func (f *fakeRemote) Lists() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

func listOf(list ...tasks.Task) func(context.Context) ([]tasks.Task, error) {
	return func(context.Context) ([]tasks.Task, error) {
		return list, nil
	}
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func newOrchestrator(remote Remote, opts ...Option) *Orchestrator {
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	return New(remote, validation.New(validation.Options{}), opts...)
}
