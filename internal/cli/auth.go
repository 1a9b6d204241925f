package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	goGate "github.com/MrEthical07/goGate"
	"github.com/spf13/cobra"
)

// StatusResult is the output of status, login and logout.
type StatusResult struct {
	Hydrated      bool             `json:"hydrated"`
	Authenticated bool             `json:"authenticated"`
	User          *goGate.Identity `json:"user,omitempty"`
}

func statusOf(st goGate.State) StatusResult {
	return StatusResult{
		Hydrated:      st.Hydrated,
		Authenticated: st.Authenticated(),
		User:          st.User,
	}
}

func printStatus(a *app, st goGate.State) error {
	res := statusOf(st)
	return a.out.print(res, func(w io.Writer) {
		if !res.Authenticated {
			fmt.Fprintln(w, "not signed in")
			return
		}
		fmt.Fprintf(w, "signed in as %s (%s)\n", res.User.Email, res.User.ID)
		for _, m := range res.User.Memberships {
			fmt.Fprintf(w, "  %-24s %-8s %s\n", m.BarName, m.Role, m.BarID)
		}
	})
}

func newLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Long: `Sign in with email and password. The password is read from --password,
then GATECTL_PASSWORD, then the first line of stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("GATECTL_PASSWORD")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return wrapExit(ExitCommandError, "read password", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}

			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.engine.SignIn(cmd.Context(), email, password); err != nil {
				if errors.Is(err, goGate.ErrInvalidCredentials) {
					return wrapExit(ExitAuth, "login rejected", err)
				}
				return wrapExit(ExitFailure, "login failed", err)
			}
			return printStatus(a, a.engine.Store().State())
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			a.engine.SignOut()
			if err := a.engine.Store().Flush(cmd.Context()); err != nil {
				return wrapExit(ExitFailure, "clear stored session", err)
			}
			if a.engine.Store().PersistFailures() > 0 {
				return wrapExit(ExitFailure, "clear stored session", errors.New("backend write failed"))
			}
			return printStatus(a, a.engine.Store().State())
		},
	}
}

func newStatusCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()
			return printStatus(a, a.engine.Store().State())
		},
	}
}
