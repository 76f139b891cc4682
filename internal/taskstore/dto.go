package taskstore

import (
	"taskboard/internal/tasks"
	"taskboard/internal/validation"
)

// taskJSON это представление задачи в ответах API и в файле/Redis.
// Имена полей совпадают с контрактом хранилища (due_date в snake case).
type taskJSON struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
}

func toJSON(t tasks.Task) taskJSON {
	return taskJSON{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		Category:    t.Category,
		DueDate:     t.DueDate,
		Completed:   t.Completed,
	}
}

func (j taskJSON) task() tasks.Task {
	return tasks.Task{
		ID:          j.ID,
		Title:       j.Title,
		Description: j.Description,
		Priority:    j.Priority,
		Category:    j.Category,
		DueDate:     j.DueDate,
		Completed:   j.Completed,
	}
}

// taskRequest описывает тело POST и PUT.
//
// Указатели нужны, чтобы отличать отсутствующее поле и null от пустой строки.
// Неизвестные поля отклоняет декодер.
type taskRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *string `json:"due_date"`
	Completed   *bool   `json:"completed"`
}

func (r taskRequest) input() validation.Input {
	return validation.Input{
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Category:    r.Category,
		DueDate:     r.DueDate,
		Completed:   r.Completed,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}
