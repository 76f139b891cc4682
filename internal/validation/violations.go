package validation

import "strings"

// Violation описывает одно нарушенное правило.
type Violation struct {
	Field   string
	Message string
}

// Violations это результат неуспешной проверки: по одному сообщению на поле.
type Violations []Violation

func (v Violations) Error() string {
	return strings.Join(v.Messages(), "; ")
}

// Messages возвращает сообщения в порядке полей.
func (v Violations) Messages() []string {
	out := make([]string, len(v))
	for i, item := range v {
		out[i] = item.Message
	}
	return out
}

// Field возвращает сообщение для поля, если оно нарушено.
func (v Violations) Field(name string) (string, bool) {
	for _, item := range v {
		if item.Field == name {
			return item.Message, true
		}
	}
	return "", false
}
