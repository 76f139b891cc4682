// Package lifecycle связывает проверку ввода, клиент хранилища и локальный список задач.
//
// Orchestrator даёт по одному обработчику на действие пользователя (создание,
// правка, отметка выполнения, удаление), владеет списком задач и единственным каналом
// ошибок. Слой отображения видит только снимок состояния (View).
package lifecycle

import (
	"context"
	"errors"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/taskclient"
	"taskboard/internal/tasks"
	"taskboard/internal/validation"
)

// Тексты сообщений, которые видит пользователь.
const (
	MsgInvalidTaskID     = "Invalid task ID"
	MsgInvalidTask       = "Invalid task"
	MsgDeleteFailed      = "Failed to delete task"
	MsgNetworkError      = "Network error: could not reach the task store"
	MsgMalformedResponse = "Unexpected response from the task store"
)

// Remote это операции хранилища, которые нужны оркестратору.
// *taskclient.Client реализует его.
type Remote interface {
	Create(ctx context.Context, d tasks.Draft) (tasks.Task, error)
	Update(ctx context.Context, id string, t tasks.Task) (tasks.Task, error)
	Remove(ctx context.Context, id string) error
	List(ctx context.Context) ([]tasks.Task, error)
}

// Report это текущая запись канала ошибок.
//
// StatusCode и Body заполнены, если ошибка пришла из ответа хранилища
// (или из сетевой ошибки: тогда StatusCode == 0, а Body содержит её текст).
type Report struct {
	Message    string
	StatusCode int
	Body       map[string]any
	Violations validation.Violations
}

// View это неизменяемый снимок состояния для отрисовки.
type View struct {
	Tasks   []tasks.Task
	Report  *Report
	Pending map[string]int
}

// Option настраивает Orchestrator.
type Option func(*Orchestrator)

// WithLogger задаёт логгер.
func WithLogger(l log.FieldLogger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithListener подписывает слой отображения на изменения.
//
// Вызовы слушателей сериализованы и идут без блокировок оркестратора, поэтому
// слушатель может сам вызывать обработчики. Изменения, случившиеся во время
// доставки, сливаются в один следующий снимок: промежуточные View могут быть
// пропущены, последний всегда отражает актуальное состояние.
func WithListener(fn func(View)) Option {
	return func(o *Orchestrator) { o.listeners = append(o.listeners, fn) }
}

// Orchestrator обрабатывает действия пользователя над задачами.
//
// Обработчики можно вызывать из разных горутин одновременно: каждый вызов
// независим, результаты применяются в порядке завершения. Список задач
// меняется только здесь и только после ответа хранилища.
type Orchestrator struct {
	remote    Remote
	engine    *validation.Engine
	logger    log.FieldLogger
	listeners []func(View)

	mu      sync.RWMutex
	tasks   []tasks.Task
	report  *Report
	pending map[string]int

	notifyMu    sync.Mutex
	dispatching bool
	dirty       bool
}

// New создаёт Orchestrator.
func New(remote Remote, engine *validation.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		remote:  remote,
		engine:  engine,
		pending: map[string]int{},
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = log.StandardLogger()
	}
	return o
}

// Snapshot возвращает копию текущего состояния.
func (o *Orchestrator) Snapshot() View {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.viewLocked()
}

// Tasks возвращает копию списка задач.
func (o *Orchestrator) Tasks() []tasks.Task {
	return o.Snapshot().Tasks
}

// Report возвращает текущую ошибку, если она есть.
func (o *Orchestrator) Report() (Report, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.report == nil {
		return Report{}, false
	}
	return cloneReport(*o.report), true
}

// Pending сообщает, что по задаче id есть незавершённая операция.
func (o *Orchestrator) Pending(id string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.pending[id] > 0
}

// Reload заново загружает список задач из хранилища и заменяет локальный целиком.
func (o *Orchestrator) Reload(ctx context.Context) error {
	list, err := o.remote.List(ctx)
	if err != nil {
		o.logger.WithError(err).Warn("reload tasks failed")
		o.fail(err, "")
		return err
	}

	o.mu.Lock()
	o.tasks = append([]tasks.Task(nil), list...)
	o.report = nil
	o.mu.Unlock()

	o.notify()
	return nil
}

// Create проверяет форму и создаёт задачу.
//
// Невалидный ввод: Rejected, все нарушения в канале ошибок и в форме, значения
// формы не меняются, хранилище не вызывается. Ошибка хранилища: Failed, без
// перезагрузки и без сброса формы. Успех: ошибка очищается, форма сбрасывается,
// список перезагружается. Если форма уже отправляется, вызов ничего не делает
// и возвращает текущее состояние формы.
func (o *Orchestrator) Create(ctx context.Context, f *Form) State {
	in, cur, ok := f.begin()
	if !ok {
		o.logger.Debug("create suppressed: form is already submitting")
		return cur
	}

	draft, err := o.engine.Validate(in)
	if err != nil {
		var v validation.Violations
		if !errors.As(err, &v) {
			f.transition(StateFailed)
			o.fail(err, "")
			return StateFailed
		}
		f.reject(v)
		o.setReport(&Report{Message: v.Error(), Violations: v})
		return StateRejected
	}

	f.transition(StateSubmitting)
	o.notify()

	created, err := o.remote.Create(ctx, draft)
	if err != nil {
		o.logger.WithError(err).Warn("create task failed")
		f.transition(StateFailed)
		o.fail(err, "")
		return StateFailed
	}

	o.logger.WithField("task", created.ID).Info("task created")
	o.setReport(nil)
	f.reset()
	// Ошибку перезагрузки Reload сам кладёт в канал ошибок.
	_ = o.Reload(ctx)
	return StateSucceeded
}

// Edit проверяет форму и сохраняет её как новое содержимое задачи id.
//
// Форма обычно заполнена через NewFormFrom. Состояния и канал ошибок те же,
// что у Create; пока идёт запрос, задача id считается незавершённой (Pending).
// Пустой id отклоняется без вызова хранилища.
func (o *Orchestrator) Edit(ctx context.Context, id string, f *Form) State {
	if id == "" {
		o.setReport(&Report{Message: MsgInvalidTaskID})
		return StateFailed
	}

	in, cur, ok := f.begin()
	if !ok {
		o.logger.WithField("task", id).Debug("edit suppressed: form is already submitting")
		return cur
	}

	draft, err := o.engine.Validate(in)
	if err != nil {
		var v validation.Violations
		if !errors.As(err, &v) {
			f.transition(StateFailed)
			o.fail(err, "")
			return StateFailed
		}
		f.reject(v)
		o.setReport(&Report{Message: v.Error(), Violations: v})
		return StateRejected
	}

	f.transition(StateSubmitting)
	done := o.track(id)
	defer done()

	entry := o.logger.WithField("task", id)

	updated, err := o.remote.Update(ctx, id, draft.WithID(id))
	if err == nil && updated.ID == "" {
		err = taskclient.ErrMalformedResponse
	}
	if err != nil {
		entry.WithError(err).Warn("edit task failed")
		f.transition(StateFailed)
		o.fail(err, "")
		return StateFailed
	}

	entry.Info("task updated")
	o.setReport(nil)
	f.reset()
	_ = o.Reload(ctx)
	return StateSucceeded
}

// Toggle инвертирует Completed у задачи.
//
// Каждый вызов уходит в хранилище независимо, без дедупликации. Успех
// перезагружает список, ошибка (в том числе некорректный ответ) только
// попадает в канал ошибок.
func (o *Orchestrator) Toggle(ctx context.Context, t tasks.Task) State {
	if t.ID == "" {
		o.setReport(&Report{Message: MsgInvalidTask})
		return StateFailed
	}

	done := o.track(t.ID)
	defer done()

	next := t
	next.Completed = !t.Completed

	entry := o.logger.WithFields(log.Fields{"task": t.ID, "completed": next.Completed})

	updated, err := o.remote.Update(ctx, t.ID, next)
	if err == nil && updated.ID == "" {
		err = taskclient.ErrMalformedResponse
	}
	if err != nil {
		entry.WithError(err).Warn("toggle task failed")
		o.fail(err, "")
		return StateFailed
	}

	entry.Debug("task toggled")
	o.setReport(nil)
	_ = o.Reload(ctx)
	return StateSucceeded
}

// Delete удаляет задачу id.
//
// Пустой id отклоняется без вызова хранилища. После успеха задача убирается
// из локального списка, если она там есть; отсутствие задачи не ошибка.
// При любой ошибке список не меняется, а в канал ошибок уходит MsgDeleteFailed.
func (o *Orchestrator) Delete(ctx context.Context, id string) State {
	if id == "" {
		o.setReport(&Report{Message: MsgInvalidTaskID})
		return StateFailed
	}

	done := o.track(id)
	defer done()

	if err := o.remote.Remove(ctx, id); err != nil {
		o.logger.WithError(err).WithField("task", id).Warn("delete task failed")
		o.fail(err, MsgDeleteFailed)
		return StateFailed
	}

	o.mu.Lock()
	kept := make([]tasks.Task, 0, len(o.tasks))
	for _, t := range o.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	if len(kept) != len(o.tasks) {
		o.tasks = kept
	}
	o.report = nil
	o.mu.Unlock()

	o.notify()
	return StateSucceeded
}

// track отмечает операцию над задачей id как незавершённую.
// Возвращённую функцию нужно вызвать ровно один раз (через defer).
func (o *Orchestrator) track(id string) func() {
	o.mu.Lock()
	o.pending[id]++
	o.mu.Unlock()
	o.notify()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			if o.pending[id] <= 1 {
				delete(o.pending, id)
			} else {
				o.pending[id]--
			}
			o.mu.Unlock()
			o.notify()
		})
	}
}

// fail переводит ошибку в запись канала ошибок. Если message не пустой,
// он заменяет текст по умолчанию.
func (o *Orchestrator) fail(err error, message string) {
	r := describe(err)
	if message != "" {
		r.Message = message
	}
	o.setReport(&r)
}

func (o *Orchestrator) setReport(r *Report) {
	o.mu.Lock()
	o.report = r
	o.mu.Unlock()
	o.notify()
}

// notify доставляет слушателям свежий снимок. Если доставка уже идёт (в другой
// горутине или выше по стеку, из самого слушателя), вызов только помечает
// состояние изменившимся, и текущая доставка повторит круг.
func (o *Orchestrator) notify() {
	if len(o.listeners) == 0 {
		return
	}

	o.notifyMu.Lock()
	o.dirty = true
	if o.dispatching {
		o.notifyMu.Unlock()
		return
	}
	o.dispatching = true
	for o.dirty {
		o.dirty = false
		o.notifyMu.Unlock()

		view := o.Snapshot()
		for _, fn := range o.listeners {
			fn(view)
		}

		o.notifyMu.Lock()
	}
	o.dispatching = false
	o.notifyMu.Unlock()
}

// viewLocked вызывается под o.mu.
func (o *Orchestrator) viewLocked() View {
	v := View{
		Tasks:   append([]tasks.Task(nil), o.tasks...),
		Pending: make(map[string]int, len(o.pending)),
	}
	for id, n := range o.pending {
		v.Pending[id] = n
	}
	if o.report != nil {
		r := cloneReport(*o.report)
		v.Report = &r
	}
	return v
}

// describe выбирает текст для пользователя по виду ошибки.
func describe(err error) Report {
	var apiErr *taskclient.Error
	if !errors.As(err, &apiErr) {
		if errors.Is(err, taskclient.ErrMalformedResponse) {
			return Report{Message: MsgMalformedResponse}
		}
		return Report{Message: err.Error()}
	}

	r := Report{StatusCode: apiErr.StatusCode, Body: cloneBody(apiErr.Body)}
	switch {
	case apiErr.Transport():
		r.Message = MsgNetworkError
	case errors.Is(apiErr, taskclient.ErrMalformedResponse):
		r.Message = MsgMalformedResponse
	default:
		r.Message = apiErr.Error()
	}
	return r
}

func cloneReport(r Report) Report {
	r.Body = cloneBody(r.Body)
	r.Violations = append(validation.Violations(nil), r.Violations...)
	return r
}

func cloneBody(b map[string]any) map[string]any {
	if b == nil {
		return nil
	}
	out := make(map[string]any, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}
