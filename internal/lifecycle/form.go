package lifecycle

import (
	"sync"

	"taskboard/internal/tasks"
	"taskboard/internal/validation"
)

// Form это экземпляр формы создания или правки задачи.
//
// Форма хранит введённые значения, нарушения последней проверки и состояние
// отправки. Пока отправка идёт, повторный Create или Edit по этой форме ничего
// не делает.
type Form struct {
	mu         sync.Mutex
	input      validation.Input
	violations validation.Violations
	state      State
}

// NewForm создаёт пустую форму.
func NewForm() *Form {
	return &Form{}
}

// NewFormFrom создаёт форму правки, заполненную полями задачи t.
func NewFormFrom(t tasks.Task) *Form {
	return &Form{input: validation.Input{
		Title:       validation.Ptr(t.Title),
		Description: validation.Ptr(t.Description),
		Priority:    validation.Ptr(t.Priority),
		Category:    validation.Ptr(t.Category),
		DueDate:     validation.Ptr(t.DueDate),
		Completed:   validation.Ptr(t.Completed),
	}}
}

// Set заменяет введённые значения.
func (f *Form) Set(in validation.Input) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = copyInput(in)
}

// Edit меняет введённые значения на месте.
func (f *Form) Edit(fn func(*validation.Input)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.input)
	f.input = copyInput(f.input)
}

// Values возвращает копию введённых значений.
func (f *Form) Values() validation.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return copyInput(f.input)
}

// Violations возвращает нарушения последней проверки.
func (f *Form) Violations() validation.Violations {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append(validation.Violations(nil), f.violations...)
}

// State возвращает состояние последней отправки.
func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Busy сообщает, что кнопку отправки нужно заблокировать.
func (f *Form) Busy() bool {
	return f.State().InFlight()
}

// begin переводит форму в Validating. Если отправка уже идёт, возвращает false
// и текущее состояние.
func (f *Form) begin() (validation.Input, State, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state.InFlight() {
		return validation.Input{}, f.state, false
	}
	f.state = StateValidating
	f.violations = nil
	return copyInput(f.input), f.state, true
}

func (f *Form) transition(s State) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = s
}

// reject сохраняет нарушения. Введённые значения не трогаются.
func (f *Form) reject(v validation.Violations) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = StateRejected
	f.violations = append(validation.Violations(nil), v...)
}

// reset очищает форму после успешной отправки.
func (f *Form) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.input = validation.Input{}
	f.violations = nil
	f.state = StateSucceeded
}

func copyInput(in validation.Input) validation.Input {
	return validation.Input{
		Title:       clonePtr(in.Title),
		Description: clonePtr(in.Description),
		Priority:    clonePtr(in.Priority),
		Category:    clonePtr(in.Category),
		DueDate:     clonePtr(in.DueDate),
		Completed:   clonePtr(in.Completed),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
