// Package cli implements the bizdash command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/app"
	"github.com/nhle/bizdash/internal/model"
)

// skipSession marks commands that run without opening a session.
const skipSession = "skip-session"

// env is the state shared by every command of one invocation.
type env struct {
	configPath string
	output     string
	offline    bool

	cfg       *model.AppConfig
	log       zerolog.Logger
	app       *app.App
	logCloser io.Closer
}

func newRootCommand(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "bizdash",
		Short: "Business dashboard for todos and agreements",
		Long: `bizdash keeps todos, todo lists and agreements in sync with the
dashboard API and a local cache, and prints filtered views of them.

Without remote.base_url in the config file it works purely locally.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&e.configPath, "config", model.DefaultConfigPath(), "path to the config file")
	flags.StringVarP(&e.output, "output", "o", string(formatTable), "output format: table, json or yaml")
	flags.BoolVar(&e.offline, "offline", false, "do not contact the backend before running the command")

	root.AddCommand(
		newTodoCommand(e),
		newListCommand(e),
		newAgreementCommand(e),
		newCountsCommand(e),
		newLoginCommand(e),
		newLogoutCommand(e),
		newWatchCommand(e),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration and opens the session for the command.
func (e *env) setup(cmd *cobra.Command) error {
	if _, err := parseFormat(e.output); err != nil {
		return err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := model.LoadConfig(e.configPath)
	if err != nil {
		return err
	}
	e.cfg = cfg
	e.log, e.logCloser = app.NewLogger(cfg.Log, cmd.ErrOrStderr())

	if cmd.Annotations[skipSession] == "true" {
		return nil
	}

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, app.Options{Log: e.log})
	if err != nil {
		return err
	}
	e.app = a

	if a.Online() && !e.offline {
		if err := a.Sync(ctx); err != nil {
			e.log.Warn().Err(err).Msg("backend unreachable, using cached data")
		}
	}
	return nil
}

func (e *env) teardown() {
	if e.app != nil {
		if err := e.app.Close(); err != nil {
			e.log.Warn().Err(err).Msg("closing session")
		}
		e.app = nil
	}
	if e.logCloser != nil {
		_ = e.logCloser.Close()
		e.logCloser = nil
	}
}

// Run executes the command line args and releases the session afterwards.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	e := &env{log: zerolog.Nop()}
	root := newRootCommand(e)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	defer e.teardown()
	return root.ExecuteContext(ctx)
}

// Execute runs bizdash with the process arguments.
func Execute() {
	if err := Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
