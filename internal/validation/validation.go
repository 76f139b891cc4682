// Package validation проверяет введённую пользователем запись задачи до отправки в хранилище.
//
// Проверка чистая: без I/O, результат зависит только от входа и настроек Engine.
// Правила описаны тегами go-playground/validator, наборы приоритетов и категорий
// передаёт вызывающий код.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/tasks"
)

// Options задаёт допустимые значения и ограничения длины.
//
// Нулевые значения заменяются значениями по умолчанию из пакета tasks.
type Options struct {
	PriorityOptions []string
	CategoryOptions []string
	MaxTitle        int
	MaxDescription  int
}

// Input это сырая запись из формы.
//
// nil означает, что поле не заполнено (или пришло как null).
type Input struct {
	Title       *string
	Description *string
	Priority    *string
	Category    *string
	DueDate     *string
	Completed   *bool
}

// Ptr возвращает указатель на значение. Удобно для заполнения Input.
func Ptr[T any](v T) *T {
	return &v
}

// record это нормализованная запись, которую проверяет validator.
// Тег label даёт полю человеческое имя для сообщений.
type record struct {
	Title       string `label:"title" validate:"required,title_len"`
	Description string `label:"description" validate:"description_len"`
	Priority    string `label:"priority" validate:"omitempty,priority"`
	Category    string `label:"category" validate:"omitempty,category"`
	DueDate     string `label:"due date" validate:"omitempty,datetime=2006-01-02"`
}

// Engine проверяет записи задач.
//
// Engine безопасен для одновременного использования.
type Engine struct {
	v    *validator.Validate
	opts Options
}

// New создаёт Engine с заданными настройками.
func New(opts Options) *Engine {
	if len(opts.PriorityOptions) == 0 {
		opts.PriorityOptions = tasks.Priorities()
	}
	if len(opts.CategoryOptions) == 0 {
		opts.CategoryOptions = tasks.Categories()
	}
	if opts.MaxTitle <= 0 {
		opts.MaxTitle = tasks.MaxTitleLength
	}
	if opts.MaxDescription <= 0 {
		opts.MaxDescription = tasks.MaxDescriptionLength
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("label")
	})

	register(v, "title_len", maxRunes(opts.MaxTitle))
	register(v, "description_len", maxRunes(opts.MaxDescription))
	register(v, "priority", oneOf(opts.PriorityOptions))
	register(v, "category", oneOf(opts.CategoryOptions))

	return &Engine{v: v, opts: opts}
}

// Options возвращает действующие настройки (с подставленными значениями по умолчанию).
func (e *Engine) Options() Options {
	out := e.opts
	out.PriorityOptions = append([]string(nil), e.opts.PriorityOptions...)
	out.CategoryOptions = append([]string(nil), e.opts.CategoryOptions...)
	return out
}

// Validate нормализует запись и проверяет её.
//
// При успехе возвращается нормализованная запись: все необязательные поля
// приведены к "", Completed к false, заголовок без пробелов по краям.
// При ошибке возвращается Violations со всеми нарушенными полями.
func (e *Engine) Validate(in Input) (tasks.Draft, error) {
	d := Normalize(in)

	err := e.v.Struct(record{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
		DueDate:     d.DueDate,
	})
	if err == nil {
		return d, nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return tasks.Draft{}, err
	}

	out := make(Violations, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{Field: fe.Field(), Message: e.message(fe)})
	}
	return tasks.Draft{}, out
}

// Normalize приводит отсутствующие поля к пустым значениям.
func Normalize(in Input) tasks.Draft {
	return tasks.Draft{
		Title:       strings.TrimSpace(deref(in.Title)),
		Description: deref(in.Description),
		Priority:    deref(in.Priority),
		Category:    deref(in.Category),
		DueDate:     deref(in.DueDate),
		Completed:   in.Completed != nil && *in.Completed,
	}
}

func (e *Engine) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "title_len":
		return fmt.Sprintf("%s must be at most %d characters", fe.Field(), e.opts.MaxTitle)
	case "description_len":
		return fmt.Sprintf("%s must be at most %d characters", fe.Field(), e.opts.MaxDescription)
	default:
		return fe.Field() + " is invalid"
	}
}

// register паникует, если validator отказался принять правило.
func register(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

func maxRunes(n int) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return utf8.RuneCountInString(fl.Field().String()) <= n
	}
}

func oneOf(allowed []string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
