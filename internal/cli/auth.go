package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/nhle/bizdash/internal/credential"
	"github.com/nhle/bizdash/internal/theme"
)

func newLoginCommand(e *env) *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store the API bearer token in the system keyring",
		Long: "Store the API bearer token in the system keyring. Without --token it is " +
			"prompted for on a terminal and read from stdin otherwise.",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				var err error
				token, err = readToken(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}
			token = strings.TrimSpace(token)
			if token == "" {
				return fmt.Errorf("token must not be empty")
			}

			ring, err := credential.OpenKeyring(e.cfg.Credential.Key)
			if err != nil {
				return err
			}
			if err := ring.SetToken(token); err != nil {
				return err
			}
			e.log.Debug().Str("key", e.cfg.Credential.Key).Msg("token stored")
			fmt.Fprintln(cmd.OutOrStdout(), "Token stored.")
			return nil
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token (prompted for when omitted)")
	return cmd
}

// readToken asks for the token with a masked prompt when in is a terminal
// and reads the first line of in otherwise.
func readToken(in io.Reader, hint io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		fmt.Fprintln(hint, theme.HelpStyle.Render("The token is stored in the system keyring, never in the config file."))

		var token string
		err := huh.NewForm(huh.NewGroup(
			huh.NewInput().
				Title("API Token").
				Description("Bearer token for the dashboard backend").
				EchoMode(huh.EchoModePassword).
				Value(&token).
				Validate(validateToken),
		)).WithInput(f).WithOutput(hint).Run()
		if errors.Is(err, huh.ErrUserAborted) {
			return "", fmt.Errorf("login cancelled")
		}
		if err != nil {
			return "", fmt.Errorf("reading token: %w", err)
		}
		return token, nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return line, nil
}

func validateToken(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("token is required")
	}
	return nil
}

func newLogoutCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Remove the stored API token",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipSession: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ring, err := credential.OpenKeyring(e.cfg.Credential.Key)
			if err != nil {
				return err
			}
			if err := ring.DeleteToken(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Token removed.")
			return nil
		},
	}
}
