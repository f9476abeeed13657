package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/filter"
	"github.com/nhle/bizdash/internal/theme"
)

func newWatchCommand(e *env) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep refreshing from the backend and print a summary after each refresh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.app.Online() {
				return errors.New("watch needs remote.base_url in the config file")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			r := e.app.Refresher
			r.Start(ctx)
			defer r.Stop()

			out := cmd.OutOrStdout()
			seen := 0
			for {
				select {
				case <-ctx.Done():
					return nil
				case res := <-r.Results():
					stamp := res.At.Format(time.Kitchen)
					switch {
					case res.AuthError:
						fmt.Fprintf(out, "%s %s %s\n", stamp, res.Name,
							theme.ErrorStyle.Render("authentication failed; run `bizdash login`"))
					case res.Error != nil:
						fmt.Fprintf(out, "%s %s %s\n", stamp, res.Name, theme.ErrorStyle.Render(res.Error.Error()))
					default:
						counts := e.app.Todos.Counts()
						fmt.Fprintf(out, "%s %s ok  today=%d scheduled=%d all=%d completed=%d agreements=%d\n",
							stamp, res.Name,
							counts[filter.BucketToday], counts[filter.BucketScheduled],
							counts[filter.BucketAll], counts[filter.BucketCompleted],
							len(e.app.Agreements.Agreements()))
					}
					seen++
					if limit > 0 && seen >= limit {
						return nil
					}
				}
			}
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "exit after this many refreshes (0 runs until interrupted)")
	return cmd
}
