// Package taskclient это типизированный HTTP-клиент хранилища задач.
//
// Клиент единственный на стороне приложения знает имена полей на проводе
// (due_date) и превращает ответы хранилища в tasks.Task или *Error.
package taskclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/tasks"
)

const maxResponseSize = 4 << 20

// Client вызывает хранилище задач по HTTP.
//
// Client безопасен для одновременного использования.
type Client struct {
	base     *url.URL
	http     *http.Client
	user     string
	password string
	logger   log.FieldLogger
}

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет http.Client (таймауты, транспорт).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBasicAuth добавляет Basic Auth ко всем запросам.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		c.user = user
		c.password = password
	}
}

// WithLogger задаёт логгер для отладочных записей о запросах.
func WithLogger(l log.FieldLogger) Option {
	return func(c *Client) { c.logger = l }
}

// New создаёт клиент. baseURL это адрес хранилища, например http://localhost:8000.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""

	c := &Client{
		base:   u,
		http:   http.DefaultClient,
		logger: discardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Create отправляет нормализованную запись, хранилище выдаёт id.
func (c *Client) Create(ctx context.Context, d tasks.Draft) (tasks.Task, error) {
	const op = "create task"

	resp, err := c.do(ctx, op, http.MethodPost, "/tasks", recordFromDraft(d))
	if err != nil {
		return tasks.Task{}, err
	}
	return c.task(op, resp)
}

// Update заменяет запись задачи id.
func (c *Client) Update(ctx context.Context, id string, t tasks.Task) (tasks.Task, error) {
	const op = "update task"

	resp, err := c.do(ctx, op, http.MethodPut, "/tasks/"+id, recordFromDraft(t.Draft()))
	if err != nil {
		return tasks.Task{}, err
	}
	return c.task(op, resp)
}

// Remove удаляет задачу. Пустой id отклоняется без запроса.
func (c *Client) Remove(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidID
	}
	_, err := c.do(ctx, "delete task", http.MethodDelete, "/tasks/"+id, nil)
	return err
}

// List возвращает актуальный список задач.
func (c *Client) List(ctx context.Context) ([]tasks.Task, error) {
	const op = "list tasks"

	resp, err := c.do(ctx, op, http.MethodGet, "/tasks", nil)
	if err != nil {
		return nil, err
	}
	list, err := decodeTasks(resp.data)
	if err != nil {
		return nil, resp.malformed(op, err)
	}
	return list, nil
}

func (c *Client) task(op string, resp reply) (tasks.Task, error) {
	t, err := decodeTask(resp.data)
	if err != nil {
		return tasks.Task{}, resp.malformed(op, err)
	}
	return t, nil
}

// reply это успешный (2xx) ответ хранилища.
type reply struct {
	code   int
	status string
	data   []byte
}

// malformed описывает 2xx-ответ, тело которого не похоже на задачу.
func (r reply) malformed(op string, err error) *Error {
	return &Error{Op: op, StatusCode: r.code, Status: r.status, Body: map[string]any{}, Err: err}
}

// do выполняет запрос и возвращает успешный ответ.
//
// Путь пишется в строку запроса как есть, без percent-encoding:
// id вида "!@#$" уходит на сервер буквально.
func (c *Client) do(ctx context.Context, op, method, path string, body any) (reply, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := sonic.Marshal(body)
		if err != nil {
			return reply{}, fmt.Errorf("%s: encode body: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String(), rdr)
	if err != nil {
		return reply{}, fmt.Errorf("%s: %w", op, err)
	}
	req.URL.Opaque = c.base.Path + path
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	entry := c.logger.WithFields(log.Fields{"op": op, "method": method, "path": req.URL.Opaque})

	resp, err := c.http.Do(req)
	if err != nil {
		entry.WithError(err).Debug("task store unreachable")
		return reply{}, &Error{Op: op, Body: map[string]any{"error": err.Error()}, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		entry.WithError(err).Debug("reading response failed")
		return reply{}, &Error{Op: op, Body: map[string]any{"error": err.Error()}, Err: err}
	}

	entry = entry.WithField("status", resp.StatusCode)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		entry.Debug("task store rejected request")
		return reply{}, &Error{
			Op:         op,
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       decodeBody(data),
		}
	}
	entry.Debug("task store request done")
	return reply{code: resp.StatusCode, status: resp.Status, data: data}, nil
}

func trimText(data []byte) string {
	return strings.TrimSpace(string(data))
}

func discardLogger() log.FieldLogger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
