package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/model"
)

func newListCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage todo lists",
	}
	cmd.AddCommand(
		newListShowCommand(e),
		newListAddCommand(e),
		newListUpdateCommand(e),
		newListDeleteCommand(e),
		newListPruneCommand(e),
	)
	return cmd
}

// listView is a todo list with its number of open todos.
type listView struct {
	model.TodoList `yaml:",inline"`
	Open           int `json:"open" yaml:"open"`
}

func newListShowCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "Show todo lists with their open todo count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			open := e.app.Todos.OpenByList()
			lists := e.app.Todos.Lists()
			views := make([]listView, 0, len(lists))
			for _, l := range lists {
				views = append(views, listView{TodoList: l, Open: open[l.ID]})
			}
			return e.render(cmd.OutOrStdout(), views, []string{"ID", "NAME", "COLOR", "OPEN"}, func() [][]string {
				rows := make([][]string, 0, len(views))
				for _, v := range views {
					rows = append(rows, []string{v.ID, v.Name, v.Color, strconv.Itoa(v.Open)})
				}
				return rows
			})
		},
	}
}

func newListAddCommand(e *env) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Create a todo list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.app.Todos.AddList(cmd.Context(), model.TodoList{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			return e.renderList(cmd, list)
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "display color")
	return cmd
}

func newListUpdateCommand(e *env) *cobra.Command {
	var name, color string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Rename or recolor a todo list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var list model.TodoList
			found := false
			for _, l := range e.app.Todos.Lists() {
				if l.ID == args[0] {
					list, found = l, true
					break
				}
			}
			if !found {
				return fmt.Errorf("list %s not found", args[0])
			}
			if cmd.Flags().Changed("name") {
				list.Name = name
			}
			if cmd.Flags().Changed("color") {
				list.Color = color
			}

			saved, err := e.app.Todos.UpdateList(cmd.Context(), list)
			if err != nil {
				return err
			}
			return e.renderList(cmd, saved)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&color, "color", "", "new color")
	return cmd
}

func (e *env) renderList(cmd *cobra.Command, list model.TodoList) error {
	return e.render(cmd.OutOrStdout(), list, []string{"ID", "NAME", "COLOR"}, func() [][]string {
		return [][]string{{list.ID, list.Name, list.Color}}
	})
}

func newListDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a todo list and all of its todos",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := e.app.Todos.DeleteList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted list %s and %d todo(s)\n", args[0], n)
			return nil
		},
	}
}

func newListPruneCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Remove todos whose list no longer exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n := e.app.Todos.PruneOrphans(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d orphaned todo(s)\n", n)
			return nil
		},
	}
}
