package cli

import (
	"errors"
	"fmt"
	"io"

	goGate "github.com/MrEthical07/goGate"
	"github.com/MrEthical07/goGate/api"
	"github.com/spf13/cobra"
)

func newBarsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bars",
		Short: "Manage bars with the stored session",
	}
	cmd.AddCommand(newBarsListCommand(rootOpts))
	cmd.AddCommand(newBarsCreateCommand(rootOpts))
	cmd.AddCommand(newBarsStatsCommand(rootOpts))
	cmd.AddCommand(newBarsInviteCommand(rootOpts))
	return cmd
}

// withSignedIn opens the app, requires a session and maps backend
// authorization failures to ExitAuth.
func withSignedIn(cmd *cobra.Command, rootOpts *RootOptions, fn func(a *app) error) error {
	a, err := openApp(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.engine.Store().State().Authenticated() {
		return wrapExit(ExitAuth, "not signed in; run gatectl login", nil)
	}
	err = fn(a)
	if errors.Is(err, goGate.ErrAuthorizationExpired) {
		return wrapExit(ExitAuth, "session expired; run gatectl login", err)
	}
	return err
}

func newBarsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List bars visible to the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignedIn(cmd, rootOpts, func(a *app) error {
				bars, err := a.engine.API().ListBars(cmd.Context())
				if err != nil {
					return err
				}
				return a.out.print(bars, func(w io.Writer) {
					if len(bars) == 0 {
						fmt.Fprintln(w, "no bars")
						return
					}
					for _, b := range bars {
						fmt.Fprintf(w, "%-38s %-24s %-12s orders=%d photos=%d\n", b.ID, b.Name, b.City, b.PendingOrders, b.PendingPhotos)
					}
				})
			})
		},
	}
}

func newBarsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var req api.CreateBarRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a bar",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignedIn(cmd, rootOpts, func(a *app) error {
				bar, err := a.engine.API().CreateBar(cmd.Context(), req)
				if err != nil {
					return err
				}
				return a.out.print(bar, func(w io.Writer) {
					fmt.Fprintf(w, "created %s (%s)\n", bar.Name, bar.ID)
				})
			})
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "bar name")
	cmd.Flags().StringVar(&req.City, "city", "", "city")
	cmd.Flags().StringVar(&req.Address, "address", "", "street address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBarsStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats <bar-id>",
		Short: "Show a bar's activity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSignedIn(cmd, rootOpts, func(a *app) error {
				stats, err := a.engine.API().BarStats(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return a.out.print(stats, func(w io.Writer) {
					fmt.Fprintf(w, "orders=%d revenue=%.2f pending_orders=%d pending_photos=%d\n",
						stats.TotalOrders, stats.TotalRevenue, stats.PendingOrders, stats.PendingPhotos)
					for _, d := range stats.TopDrinks {
						fmt.Fprintf(w, "  %-24s %d\n", d.Name, d.Count)
					}
				})
			})
		},
	}
}

func newBarsInviteCommand(rootOpts *RootOptions) *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "invite <bar-id> <email>",
		Short: "Invite a user to a bar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := goGate.Role(role)
			if !r.Valid() {
				return wrapExit(ExitCommandError, fmt.Sprintf("invalid role %q", role), nil)
			}
			return withSignedIn(cmd, rootOpts, func(a *app) error {
				res, err := a.engine.API().InviteUser(cmd.Context(), args[0], args[1], r)
				if err != nil {
					return err
				}
				return a.out.print(res, func(w io.Writer) {
					fmt.Fprintln(w, res.InvitationLink)
				})
			})
		},
	}

	cmd.Flags().StringVar(&role, "role", string(goGate.RoleStaff), "OWNER, MANAGER, STAFF or VIEWER")
	return cmd
}
