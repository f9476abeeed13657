package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/model"
)

func newAgreementCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agreement",
		Aliases: []string{"ag"},
		Short:   "List and edit agreements",
	}
	cmd.AddCommand(
		newAgreementListCommand(e),
		newAgreementAddCommand(e),
		newAgreementStatusCommand(e),
		newAgreementDeleteCommand(e),
		newAgreementListsCommand(e),
		newAgreementAddListCommand(e),
		newAgreementDeleteListCommand(e),
	)
	return cmd
}

func statusField(sj bool) model.StatusField {
	if sj {
		return model.FieldSJStatus
	}
	return model.FieldStatus
}

func newAgreementListCommand(e *env) *cobra.Command {
	var listID, status string
	var sj bool

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Show agreements, optionally filtered by list and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var list *string
			if listID != "" {
				list = &listID
			}
			var want *model.AgreementStatus
			if status != "" {
				s, err := model.ParseAgreementStatus(status)
				if err != nil {
					return err
				}
				want = &s
			}

			agreements := e.app.Agreements.Filter(list, want, statusField(sj))
			return e.render(cmd.OutOrStdout(), agreements, agreementHeaders, func() [][]string {
				return agreementRows(agreements)
			})
		},
	}
	cmd.Flags().StringVarP(&listID, "list", "l", "", "only show agreements of this list")
	cmd.Flags().StringVarP(&status, "status", "s", "", "only show agreements with this status")
	cmd.Flags().BoolVar(&sj, "sj", false, "filter on the SJ review status instead of the internal one")
	return cmd
}

func newAgreementAddCommand(e *env) *cobra.Command {
	var a model.Agreement

	cmd := &cobra.Command{
		Use:   "add ELEMENT",
		Short: "Create an agreement",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.Element = args[0]
			saved, err := e.app.Agreements.Add(cmd.Context(), a)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), saved, agreementHeaders, func() [][]string {
				return agreementRows([]model.Agreement{saved})
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&a.ListID, "list", "l", "", "list the agreement belongs to")
	f.StringVar(&a.Responsible, "responsible", "", "person in charge")
	f.StringVar(&a.RequestDate, "request-date", "", "date the work was requested")
	f.StringVar(&a.DeliveryDate, "delivery-date", "", "agreed delivery date")
	f.StringVar(&a.Description, "description", "", "description of the work")
	f.StringVar(&a.SJRequest, "sj-request", "", "request as stated by SJ")
	return cmd
}

func newAgreementStatusCommand(e *env) *cobra.Command {
	var sj bool

	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set the status (or with --sj the SJ review status) of an agreement",
		Long: fmt.Sprintf(`Set one of the two status fields of an agreement. Any status may
follow any other. Valid values: %v`, model.AgreementStatuses),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.app.Agreements.UpdateStatus(cmd.Context(), args[0], model.AgreementStatus(args[1]), sj)
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), a, agreementHeaders, func() [][]string {
				return agreementRows([]model.Agreement{a})
			})
		},
	}
	cmd.Flags().BoolVar(&sj, "sj", false, "set the SJ review status")
	return cmd
}

func newAgreementDeleteCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete an agreement",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.app.Agreements.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted agreement %s\n", args[0])
			return nil
		},
	}
}

func newAgreementListsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "Show agreement lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lists := e.app.Agreements.Lists()
			return e.render(cmd.OutOrStdout(), lists, []string{"ID", "NAME", "COLOR"}, func() [][]string {
				rows := make([][]string, 0, len(lists))
				for _, l := range lists {
					rows = append(rows, []string{l.ID, l.Name, l.Color})
				}
				return rows
			})
		},
	}
}

func newAgreementAddListCommand(e *env) *cobra.Command {
	var color string

	cmd := &cobra.Command{
		Use:   "add-list NAME",
		Short: "Create an agreement list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := e.app.Agreements.AddList(cmd.Context(), model.AgreementList{Name: args[0], Color: color})
			if err != nil {
				return err
			}
			return e.render(cmd.OutOrStdout(), list, []string{"ID", "NAME", "COLOR"}, func() [][]string {
				return [][]string{{list.ID, list.Name, list.Color}}
			})
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "display color")
	return cmd
}

func newAgreementDeleteListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-list ID",
		Short: "Delete an agreement list and all of its agreements",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := e.app.Agreements.DeleteList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted agreement list %s and %d agreement(s)\n", args[0], n)
			return nil
		},
	}
}
