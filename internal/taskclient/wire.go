package taskclient

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/bytedance/sonic"

	"taskboard/internal/tasks"
)

// wireRecord это тело POST и PUT. Все поля передаются всегда,
// пустое значение это "", а не отсутствие поля.
type wireRecord struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"due_date"`
	Completed   bool   `json:"completed"`
}

func recordFromDraft(d tasks.Draft) wireRecord {
	return wireRecord{
		Title:       d.Title,
		Description: d.Description,
		Priority:    d.Priority,
		Category:    d.Category,
		DueDate:     d.DueDate,
		Completed:   d.Completed,
	}
}

// wireTask это задача в ответе хранилища.
//
// id может прийти строкой или числом, поэтому он разбирается отдельно.
// Title указатель: отсутствие заголовка делает ответ некорректным.
type wireTask struct {
	ID          json.RawMessage `json:"id"`
	Title       *string         `json:"title"`
	Description *string         `json:"description"`
	Priority    *string         `json:"priority"`
	Category    *string         `json:"category"`
	DueDate     *string         `json:"due_date"`
	Completed   bool            `json:"completed"`
}

func (w wireTask) task() (tasks.Task, error) {
	id, err := parseID(w.ID)
	if err != nil {
		return tasks.Task{}, err
	}
	if w.Title == nil {
		return tasks.Task{}, fmt.Errorf("%w: task %s has no title", ErrMalformedResponse, id)
	}
	return tasks.Task{
		ID:          id,
		Title:       *w.Title,
		Description: str(w.Description),
		Priority:    str(w.Priority),
		Category:    str(w.Category),
		DueDate:     str(w.DueDate),
		Completed:   w.Completed,
	}, nil
}

func parseID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("%w: missing id", ErrMalformedResponse)
	}
	if raw[0] == '"' {
		var s string
		if err := sonic.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		if s == "" {
			return "", fmt.Errorf("%w: empty id", ErrMalformedResponse)
		}
		return s, nil
	}
	if _, err := strconv.ParseFloat(string(raw), 64); err != nil {
		return "", fmt.Errorf("%w: id %s is neither string nor number", ErrMalformedResponse, raw)
	}
	return string(raw), nil
}

func decodeTask(data []byte) (tasks.Task, error) {
	var w wireTask
	if err := sonic.Unmarshal(data, &w); err != nil {
		return tasks.Task{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return w.task()
}

func decodeTasks(data []byte) ([]tasks.Task, error) {
	var ws []wireTask
	if err := sonic.Unmarshal(data, &ws); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	out := make([]tasks.Task, 0, len(ws))
	for _, w := range ws {
		t, err := w.task()
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// decodeBody разбирает тело ошибки. Не-JSON тело становится {"error": текст}.
func decodeBody(data []byte) map[string]any {
	body := map[string]any{}
	if len(data) == 0 {
		return body
	}
	if err := sonic.Unmarshal(data, &body); err == nil {
		return body
	}
	body = map[string]any{}
	if text := trimText(data); text != "" {
		body["error"] = text
	}
	return body
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
