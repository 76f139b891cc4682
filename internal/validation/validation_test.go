package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"

	"taskboard/internal/tasks"
)

func TestValidateNormalizesOptionalFields(t *testing.T) {
	e := New(Options{})

	got, err := e.Validate(Input{Title: Ptr("  Only Title  ")})
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := tasks.Draft{Title: "Only Title"}
	if got != want {
		t.Fatalf("unexpected draft: %#v", got)
	}
}

func TestValidateKeepsProvidedFields(t *testing.T) {
	e := New(Options{})
	in := Input{
		Title:       Ptr("Test Task"),
		Description: Ptr("Test Description"),
		Priority:    Ptr("High"),
		Category:    Ptr("Work"),
		DueDate:     Ptr("2099-12-31"),
		Completed:   Ptr(true),
	}

	got, err := e.Validate(in)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	want := tasks.Draft{
		Title:       "Test Task",
		Description: "Test Description",
		Priority:    "High",
		Category:    "Work",
		DueDate:     "2099-12-31",
		Completed:   true,
	}
	if got != want {
		t.Fatalf("unexpected draft: %#v", got)
	}
}

func TestValidateViolations(t *testing.T) {
	e := New(Options{
		PriorityOptions: []string{"Low", "Medium", "High"},
		CategoryOptions: []string{"Work", "Personal", "Other"},
	})

	tests := []struct {
		name  string
		in    Input
		field string
		text  string
	}{
		{"missing title", Input{Description: Ptr("d")}, "title", "title is required"},
		{"blank title", Input{Title: Ptr("   ")}, "title", "title is required"},
		{"long title", Input{Title: Ptr(strings.Repeat("T", 101))}, "title", "title must be at most 100 characters"},
		{"long description", Input{Title: Ptr("t"), Description: Ptr(strings.Repeat("d", 501))}, "description", "description must be at most 500 characters"},
		{"unknown priority", Input{Title: Ptr("t"), Priority: Ptr("urgent")}, "priority", "priority is invalid"},
		{"unknown category", Input{Title: Ptr("t"), Category: Ptr("Study")}, "category", "category is invalid"},
		{"bad date format", Input{Title: Ptr("t"), DueDate: Ptr("30-06-2024")}, "due date", "due date is invalid"},
		{"impossible date", Input{Title: Ptr("t"), DueDate: Ptr("2024-02-30")}, "due date", "due date is invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Validate(tt.in)
			var v Violations
			if !errors.As(err, &v) {
				t.Fatalf("expected violations, got %v", err)
			}
			msg, ok := v.Field(tt.field)
			if !ok {
				t.Fatalf("no violation for %q in %v", tt.field, v)
			}
			if msg != tt.text {
				t.Fatalf("expected %q, got %q", tt.text, msg)
			}
			if !strings.Contains(msg, tt.field) {
				t.Fatalf("message %q does not name field %q", msg, tt.field)
			}
		})
	}
}

func TestValidateAccumulatesAllFields(t *testing.T) {
	e := New(Options{})

	_, err := e.Validate(Input{
		Priority: Ptr("urgent"),
		Category: Ptr("Nope"),
		DueDate:  Ptr("tomorrow"),
	})
	var v Violations
	if !errors.As(err, &v) {
		t.Fatalf("expected violations, got %v", err)
	}
	fields := []string{"title", "priority", "category", "due date"}
	if len(v) != len(fields) {
		t.Fatalf("expected %d violations, got %v", len(fields), v)
	}
	for i, f := range fields {
		if v[i].Field != f {
			t.Fatalf("violation %d: expected field %q, got %q", i, f, v[i].Field)
		}
	}
	if !strings.Contains(err.Error(), "title is required") {
		t.Fatalf("error text lost title violation: %q", err.Error())
	}
}

func TestValidateBoundaries(t *testing.T) {
	e := New(Options{})

	in := Input{
		Title:       Ptr(strings.Repeat("T", tasks.MaxTitleLength)),
		Description: Ptr(strings.Repeat("D", tasks.MaxDescriptionLength)),
	}
	if _, err := e.Validate(in); err != nil {
		t.Fatalf("values at the bound must pass: %v", err)
	}

	// Длина считается в символах, а не в байтах.
	in.Title = Ptr(strings.Repeat("ж", tasks.MaxTitleLength))
	if _, err := e.Validate(in); err != nil {
		t.Fatalf("multibyte title at the bound must pass: %v", err)
	}
}

func TestValidateAcceptsPastAndFarFutureDates(t *testing.T) {
	e := New(Options{})
	for _, d := range []string{"2000-01-01", "2100-01-01"} {
		got, err := e.Validate(Input{Title: Ptr("t"), DueDate: Ptr(d)})
		if err != nil {
			t.Fatalf("%s: %v", d, err)
		}
		if got.DueDate != d {
			t.Fatalf("expected due date %s, got %s", d, got.DueDate)
		}
	}
}

func TestValidateCustomMaxTitle(t *testing.T) {
	e := New(Options{MaxTitle: tasks.StoreMaxTitleLength})

	if _, err := e.Validate(Input{Title: Ptr(strings.Repeat("T", 255))}); err != nil {
		t.Fatalf("255 chars must pass: %v", err)
	}
	_, err := e.Validate(Input{Title: Ptr(strings.Repeat("T", 256))})
	if err == nil || !strings.Contains(err.Error(), "at most 255") {
		t.Fatalf("expected length violation, got %v", err)
	}
}

func TestOptionsReturnsCopy(t *testing.T) {
	e := New(Options{})
	opts := e.Options()
	opts.PriorityOptions[0] = "changed"
	if e.Options().PriorityOptions[0] != tasks.PriorityLow {
		t.Fatalf("engine options were mutated through the returned copy")
	}
}

func TestRegisterPanicsOnRejectedRule(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic for an empty tag")
		}
		if msg, _ := r.(string); !strings.Contains(msg, "register") {
			t.Fatalf("unexpected panic value %#v", r)
		}
	}()

	register(validator.New(), "", maxRunes(1))
}
