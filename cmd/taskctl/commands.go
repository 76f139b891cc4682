package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"taskboard/internal/config"
	"taskboard/internal/lifecycle"
	"taskboard/internal/taskclient"
	"taskboard/internal/tasks"
	"taskboard/internal/validation"
)

// app это всё, что нужно одной команде: оркестратор и куда печатать.
type app struct {
	orch    *lifecycle.Orchestrator
	out     io.Writer
	timeout time.Duration
}

func newRootCmd() *cobra.Command {
	var (
		a       app
		apiURL  string
		timeout time.Duration
		verbose bool
	)

	root := &cobra.Command{
		Use:           "taskctl",
		Short:         "Manage tasks in the task store",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadClient()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("api") {
				cfg.APIURL = apiURL
			}
			if verbose {
				cfg.Debug = true
			}

			built, err := newApp(cfg, timeout, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			a = *built
			return nil
		},
	}

	root.PersistentFlags().StringVar(&apiURL, "api", config.DefaultAPIURL, "Task store URL (overrides TASKS_API_URL)")
	root.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Timeout for the whole command")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and state changes")

	root.AddCommand(listCmd(&a))
	root.AddCommand(addCmd(&a))
	root.AddCommand(editCmd(&a))
	root.AddCommand(toggleCmd(&a))
	root.AddCommand(rmCmd(&a))

	return root
}

func newApp(cfg config.Client, timeout time.Duration, out io.Writer) (*app, error) {
	logger := log.New()
	logger.SetOutput(io.Discard)
	if cfg.Debug {
		logger.SetOutput(out)
		logger.SetLevel(log.DebugLevel)
	}

	opts := []taskclient.Option{
		taskclient.WithHTTPClient(&http.Client{Timeout: timeout}),
		taskclient.WithLogger(logger),
	}
	if cfg.AdminUser != "" {
		opts = append(opts, taskclient.WithBasicAuth(cfg.AdminUser, cfg.AdminPassword))
	}
	client, err := taskclient.New(cfg.APIURL, opts...)
	if err != nil {
		return nil, err
	}

	engine := validation.New(validation.Options{
		PriorityOptions: cfg.Priorities,
		CategoryOptions: cfg.Categories,
	})

	orch := lifecycle.New(client, engine,
		lifecycle.WithLogger(logger),
		lifecycle.WithListener(func(v lifecycle.View) {
			logger.WithFields(log.Fields{"tasks": len(v.Tasks), "pending": len(v.Pending)}).Debug("view updated")
		}),
	)

	return &app{orch: orch, out: out, timeout: timeout}, nil
}

func (a *app) context() (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), a.timeout)
}

// finish печатает список и превращает итог операции в ошибку команды.
func (a *app) finish(state lifecycle.State) error {
	view := a.orch.Snapshot()
	if err := render(a.out, view, time.Now()); err != nil {
		return err
	}
	if state == lifecycle.StateRejected || state == lifecycle.StateFailed {
		if view.Report != nil {
			return errors.New(view.Report.Message)
		}
		return fmt.Errorf("operation %s", state)
	}
	return nil
}

func listCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			if err := a.orch.Reload(ctx); err != nil {
				return a.finish(lifecycle.StateFailed)
			}
			return a.finish(lifecycle.StateSucceeded)
		},
	}
}

// taskFlags это поля задачи в флагах add и edit.
type taskFlags struct {
	title, description, priority, category, due string
}

func (tf *taskFlags) bind(cmd *cobra.Command, titleUsage string) {
	cmd.Flags().StringVarP(&tf.title, "title", "t", "", titleUsage)
	cmd.Flags().StringVarP(&tf.description, "description", "d", "", "Task description")
	cmd.Flags().StringVarP(&tf.priority, "priority", "p", "", "Priority: Low, Medium or High")
	cmd.Flags().StringVarP(&tf.category, "category", "c", "", "Category: Work, Personal or Study")
	cmd.Flags().StringVar(&tf.due, "due", "", "Due date, "+tasks.DueDateLayout)
}

// apply переносит в in только заданные флаги.
// Незаданный флаг это отсутствующее поле, а не пустая строка.
func (tf *taskFlags) apply(cmd *cobra.Command, in *validation.Input) {
	flags := cmd.Flags()
	set := func(dst **string, name, v string) {
		if flags.Changed(name) {
			*dst = validation.Ptr(v)
		}
	}
	set(&in.Title, "title", tf.title)
	set(&in.Description, "description", tf.description)
	set(&in.Priority, "priority", tf.priority)
	set(&in.Category, "category", tf.category)
	set(&in.DueDate, "due", tf.due)
}

func addCmd(a *app) *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			form := lifecycle.NewForm()
			form.Edit(func(in *validation.Input) { tf.apply(cmd, in) })

			return a.finish(a.orch.Create(ctx, form))
		},
	}
	tf.bind(cmd, "Task title (required)")

	return cmd
}

func editCmd(a *app) *cobra.Command {
	var tf taskFlags

	cmd := &cobra.Command{
		Use:   "edit [id]",
		Short: "Change fields of a task",
		Long:  "Change fields of a task. Fields without a flag keep their current values.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			if err := a.orch.Reload(ctx); err != nil {
				return a.finish(lifecycle.StateFailed)
			}

			task, ok := findTask(a.orch.Tasks(), args[0])
			if !ok {
				return fmt.Errorf("task %q not found", args[0])
			}

			form := lifecycle.NewFormFrom(task)
			form.Edit(func(in *validation.Input) { tf.apply(cmd, in) })

			return a.finish(a.orch.Edit(ctx, task.ID, form))
		},
	}
	tf.bind(cmd, "Task title")

	return cmd
}

func toggleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle [id]",
		Short: "Flip the completed flag of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			if err := a.orch.Reload(ctx); err != nil {
				return a.finish(lifecycle.StateFailed)
			}

			task, ok := findTask(a.orch.Tasks(), args[0])
			if !ok {
				return fmt.Errorf("task %q not found", args[0])
			}
			return a.finish(a.orch.Toggle(ctx, task))
		},
	}
}

func rmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm [id]",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.context()
			defer cancel()

			if err := a.orch.Reload(ctx); err != nil {
				return a.finish(lifecycle.StateFailed)
			}
			return a.finish(a.orch.Delete(ctx, args[0]))
		},
	}
}

func findTask(list []tasks.Task, id string) (tasks.Task, bool) {
	for _, t := range list {
		if t.ID == id {
			return t, true
		}
	}
	return tasks.Task{}, false
}
