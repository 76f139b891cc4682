package tasks

// Значения приоритета, которые понимает хранилище задач.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Категории по умолчанию. Клиент может передать свой набор.
const (
	CategoryWork     = "Work"
	CategoryPersonal = "Personal"
	CategoryStudy    = "Study"
)

// Ограничения длины полей.
//
// MaxTitleLength проверяет клиент, StoreMaxTitleLength хранилище.
// Хранилище главнее: всё, что длиннее его лимита, отклоняется с 400.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 500
	StoreMaxTitleLength  = 255
)

// DueDateLayout формат срока выполнения (календарная дата).
const DueDateLayout = "2006-01-02"

// Priorities возвращает допустимые приоритеты в порядке отображения.
func Priorities() []string {
	return []string{PriorityLow, PriorityMedium, PriorityHigh}
}

// Categories возвращает категории по умолчанию.
func Categories() []string {
	return []string{CategoryWork, CategoryPersonal, CategoryStudy}
}

// Draft это нормализованная запись задачи без идентификатора.
//
// Необязательные поля всегда заполнены: отсутствующее значение это "", а не nil.
type Draft struct {
	Title       string
	Description string
	Priority    string
	Category    string
	DueDate     string
	Completed   bool
}

// Task модель задачи.
//
// ID выдаёт хранилище при создании и больше не меняет.
type Task struct {
	ID          string
	Title       string
	Description string
	Priority    string
	Category    string
	DueDate     string
	Completed   bool
}

// Draft возвращает запись задачи без идентификатора.
func (t Task) Draft() Draft {
	return Draft{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
	}
}

// WithID собирает задачу из записи и выданного хранилищем id.
func (d Draft) WithID(id string) Task {
	return Task{
		ID:          id,
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
		DueDate:     d.DueDate,
		Completed:   d.Completed,
	}
}
