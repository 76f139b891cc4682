package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/lifecycle"
	"taskboard/internal/tasks"
	"taskboard/internal/taskstore"
)

func newStore(t *testing.T) *taskstore.Service {
	t.Helper()
	svc, err := taskstore.NewService(context.Background(), taskstore.NewFileStore(filepath.Join(t.TempDir(), "tasks.json")))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	srv := httptest.NewServer(taskstore.NewHandler(svc, taskstore.Config{Logger: logger}).Router())
	t.Cleanup(srv.Close)

	for _, key := range []string{"ADMIN_USER", "ADMIN_PASSWORD", "TASKS_PRIORITIES", "TASKS_CATEGORIES", "DEBUG"} {
		t.Setenv(key, "")
	}
	t.Setenv("TASKS_API_URL", srv.URL)
	return svc
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAddAndList(t *testing.T) {
	svc := newStore(t)

	out, err := run(t, "add", "--title", "  Write report ", "-p", "High", "--due", "2099-01-02")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !strings.Contains(out, "Write report") || !strings.Contains(out, "2099-01-02") {
		t.Fatalf("created task must be rendered, got:\n%s", out)
	}

	list, _ := svc.ListTasks(context.Background(), 0)
	if len(list) != 1 || list[0].Title != "Write report" || list[0].Priority != "High" {
		t.Fatalf("unexpected stored tasks %#v", list)
	}

	out, err = run(t, "list")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, list[0].ID) {
		t.Fatalf("list must show the id, got:\n%s", out)
	}
}

func TestAddRejectsInvalidInput(t *testing.T) {
	svc := newStore(t)

	_, err := run(t, "add", "--priority", "Urgent")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "title is required") || !strings.Contains(err.Error(), "priority is invalid") {
		t.Fatalf("unexpected error %q", err)
	}
	if list, _ := svc.ListTasks(context.Background(), 0); len(list) != 0 {
		t.Fatalf("nothing must be stored, got %#v", list)
	}
}

func TestToggleAndRemove(t *testing.T) {
	svc := newStore(t)
	created, err := svc.CreateTask(context.Background(), tasks.Draft{Title: "Pay bills"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := run(t, "toggle", created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if !strings.Contains(out, "[x]") {
		t.Fatalf("task must be shown as done, got:\n%s", out)
	}

	if _, err := run(t, "toggle", "missing"); err == nil {
		t.Fatalf("expected error for unknown id")
	}

	out, err = run(t, "rm", created.ID)
	if err != nil {
		t.Fatalf("rm: %v", err)
	}
	if !strings.Contains(out, "No tasks.") {
		t.Fatalf("list must be empty after delete, got:\n%s", out)
	}
}

func TestEditChangesOnlyGivenFields(t *testing.T) {
	svc := newStore(t)
	created, err := svc.CreateTask(context.Background(), tasks.Draft{
		Title: "Read book", Description: "chapter 3", Category: "Study", Completed: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	out, err := run(t, "edit", created.ID, "--title", "Read two books", "-p", "Low")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if !strings.Contains(out, "Read two books") {
		t.Fatalf("edited task must be rendered, got:\n%s", out)
	}

	list, _ := svc.ListTasks(context.Background(), 0)
	want := tasks.Task{
		ID: created.ID, Title: "Read two books", Description: "chapter 3",
		Priority: "Low", Category: "Study", Completed: true,
	}
	if len(list) != 1 || list[0] != want {
		t.Fatalf("unexpected stored tasks %#v", list)
	}
}

func TestEditRejectsInvalidInput(t *testing.T) {
	svc := newStore(t)
	created, err := svc.CreateTask(context.Background(), tasks.Draft{Title: "Keep me"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = run(t, "edit", created.ID, "--title", " ", "--due", "someday")
	if err == nil || !strings.Contains(err.Error(), "title is required") || !strings.Contains(err.Error(), "due date is invalid") {
		t.Fatalf("unexpected error %v", err)
	}
	if list, _ := svc.ListTasks(context.Background(), 0); len(list) != 1 || list[0].Title != "Keep me" {
		t.Fatalf("stored task must not change, got %#v", list)
	}

	if _, err := run(t, "edit", "missing", "--title", "x"); err == nil {
		t.Fatalf("expected error for unknown id")
	}
}

func TestRemoveUnknownIDFails(t *testing.T) {
	newStore(t)

	_, err := run(t, "rm", "does-not-exist")
	if err == nil || err.Error() != lifecycle.MsgDeleteFailed {
		t.Fatalf("expected %q, got %v", lifecycle.MsgDeleteFailed, err)
	}
}

func TestUnreachableStore(t *testing.T) {
	newStore(t)
	t.Setenv("TASKS_API_URL", "http://127.0.0.1:1")

	_, err := run(t, "list")
	if err == nil || err.Error() != lifecycle.MsgNetworkError {
		t.Fatalf("expected network error, got %v", err)
	}
}

func TestRenderMarksOverdue(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	var buf bytes.Buffer

	err := render(&buf, lifecycle.View{Tasks: []tasks.Task{
		{ID: "1", Title: "late", DueDate: "2024-06-14"},
		{ID: "2", Title: "today", DueDate: "2024-06-15"},
		{ID: "3", Title: "done late", DueDate: "2024-01-01", Completed: true},
	}}, now)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header and 3 rows, got:\n%s", buf.String())
	}
	if !strings.Contains(lines[1], "(overdue)") {
		t.Fatalf("past due task must be marked: %q", lines[1])
	}
	if strings.Contains(lines[2], "(overdue)") || strings.Contains(lines[3], "(overdue)") {
		t.Fatalf("only open past due tasks are overdue:\n%s", buf.String())
	}
}
