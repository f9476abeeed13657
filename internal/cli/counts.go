package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/filter"
	"github.com/nhle/bizdash/internal/model"
	"github.com/nhle/bizdash/internal/theme"
)

// countsView is the dashboard summary printed by `bizdash counts`.
type countsView struct {
	Todos      map[filter.Bucket]int         `json:"todos" yaml:"todos"`
	OpenByList map[string]int                `json:"openByList" yaml:"openByList"`
	Status     map[model.AgreementStatus]int `json:"agreementStatus" yaml:"agreementStatus"`
	SJStatus   map[model.AgreementStatus]int `json:"agreementSjStatus" yaml:"agreementSjStatus"`
}

func newCountsCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "counts",
		Short: "Show todo bucket sizes and agreement status tallies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v := countsView{
				Todos:      e.app.Todos.Counts(),
				OpenByList: e.app.Todos.OpenByList(),
				Status:     e.app.Agreements.CountByStatus(model.FieldStatus),
				SJStatus:   e.app.Agreements.CountByStatus(model.FieldSJStatus),
			}
			return e.render(cmd.OutOrStdout(), v, []string{"GROUP", "NAME", "COUNT"}, func() [][]string {
				var rows [][]string
				for _, b := range filter.Buckets {
					rows = append(rows, []string{"todos", string(b), strconv.Itoa(v.Todos[b])})
				}
				for _, s := range model.AgreementStatuses {
					rows = append(rows, []string{"status", theme.StatusStyle(s).Render(string(s)), strconv.Itoa(v.Status[s])})
				}
				for _, s := range model.AgreementStatuses {
					rows = append(rows, []string{"sj status", theme.StatusStyle(s).Render(string(s)), strconv.Itoa(v.SJStatus[s])})
				}
				return rows
			})
		},
	}
}
