package taskclient

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID возвращается без сетевого вызова, если id пустой.
	ErrInvalidID = errors.New("task id must not be empty")
	// ErrMalformedResponse означает, что ответ получен, но не похож на задачу.
	ErrMalformedResponse = errors.New("malformed response")
)

// Error описывает неуспешный вызов хранилища.
//
// StatusCode == 0 значит, что HTTP-ответа не было (сетевая ошибка); тогда
// Body синтезируется как {"error": <текст сетевой ошибки>}.
// Для ответов не из 2xx StatusCode и Status берутся из ответа, Body это
// разобранное тело (или пустой объект).
type Error struct {
	Op         string
	StatusCode int
	Status     string
	Body       map[string]any
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	msg := e.Status
	if m := e.Message(); m != "" {
		msg += ": " + m
	}
	if errors.Is(e.Err, ErrMalformedResponse) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Message возвращает поле "error" из тела ответа, если оно строка.
func (e *Error) Message() string {
	if e.Body == nil {
		return ""
	}
	s, _ := e.Body["error"].(string)
	return s
}

// Transport сообщает, что ответа от сервера не было.
func (e *Error) Transport() bool { return e.StatusCode == 0 }

// IsTransport сообщает, что err это сетевая ошибка без HTTP-ответа.
func IsTransport(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Transport()
}

// StatusCode возвращает HTTP-статус из err, если ответ был получен.
func StatusCode(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && !e.Transport() {
		return e.StatusCode, true
	}
	return 0, false
}
