package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"taskboard/internal/lifecycle"
	"taskboard/internal/tasks"
)

// render печатает список задач таблицей.
func render(w io.Writer, v lifecycle.View, now time.Time) error {
	if len(v.Tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tPRIORITY\tCATEGORY\tDUE")
	for _, t := range v.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, doneMark(t), t.Title, dash(t.Priority), dash(t.Category), due(t, now))
	}
	return tw.Flush()
}

func doneMark(t tasks.Task) string {
	if t.Completed {
		return "[x]"
	}
	return "[ ]"
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// due помечает просроченные незавершённые задачи.
func due(t tasks.Task, now time.Time) string {
	if t.DueDate == "" {
		return "-"
	}
	d, err := time.ParseInLocation(tasks.DueDateLayout, t.DueDate, now.Location())
	if err != nil || t.Completed {
		return t.DueDate
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if d.Before(today) {
		return t.DueDate + " (overdue)"
	}
	return t.DueDate
}
