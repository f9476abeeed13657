package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/filter"
	"github.com/nhle/bizdash/internal/model"
)

func newTodoCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "todo",
		Short: "List and edit todos",
	}
	cmd.AddCommand(
		newTodoListCommand(e),
		newTodoAddCommand(e),
		newTodoToggleCommand(e),
		newTodoUpdateCommand(e),
		newTodoDeleteCommand(e),
	)
	return cmd
}

func newTodoListCommand(e *env) *cobra.Command {
	var bucket, listID string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "Show the todos of a filter bucket",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := filter.ParseBucket(bucket)
			if err != nil {
				return err
			}
			var list *string
			if listID != "" {
				list = &listID
			}
			todos := e.app.Todos.View(b, list)
			return e.render(cmd.OutOrStdout(), todos, todoHeaders, func() [][]string {
				return todoRows(todos)
			})
		},
	}
	cmd.Flags().StringVarP(&bucket, "filter", "f", string(filter.BucketAll),
		"bucket: today, scheduled, all or completed")
	cmd.Flags().StringVarP(&listID, "list", "l", "", "only show todos of this list")
	return cmd
}

func newTodoAddCommand(e *env) *cobra.Command {
	var listID, due, priority, notes string

	cmd := &cobra.Command{
		Use:   "add TITLE...",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo := model.Todo{
				Title:    strings.Join(args, " "),
				ListID:   listID,
				Priority: model.Priority(priority),
				Notes:    notes,
			}
			if due != "" {
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				todo.DueDate = d
			}

			saved, err := e.app.Todos.Add(cmd.Context(), todo)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), saved, todoHeaders, func() [][]string {
				return todoRows([]model.Todo{saved})
			})
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "list the todo belongs to")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityNone), "none, low, medium or high")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newTodoToggleCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Flip the completed flag of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := e.app.Todos.Toggle(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), todo, todoHeaders, func() [][]string {
				return todoRows([]model.Todo{todo})
			})
		},
	}
}

func newTodoUpdateCommand(e *env) *cobra.Command {
	var title, listID, due, priority, notes string
	var clearDue bool

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change fields of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			todo, err := e.app.Todos.Get(args[0])
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("title") {
				todo.Title = title
			}
			if flags.Changed("list") {
				todo.ListID = listID
			}
			if flags.Changed("priority") {
				todo.Priority = model.Priority(priority)
			}
			if flags.Changed("notes") {
				todo.Notes = notes
			}
			switch {
			case clearDue && due != "":
				return fmt.Errorf("--due and --clear-due are mutually exclusive")
			case clearDue:
				todo.DueDate = nil
			case due != "":
				d, err := parseDate(due)
				if err != nil {
					return err
				}
				todo.DueDate = d
			}

			saved, err := e.app.Todos.Update(cmd.Context(), todo)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), saved, todoHeaders, func() [][]string {
				return todoRows([]model.Todo{saved})
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&listID, "list", "l", "", "move to this list")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "none, low, medium or high")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newTodoDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Todos.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted todo %s\n", args[0])
			return nil
		},
	}
}
