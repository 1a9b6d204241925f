package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// CheckResult is the gate decision for one location.
type CheckResult struct {
	Location string `json:"location"`
	Decision string `json:"decision"`
	Target   string `json:"target,omitempty"`
}

func newCheckCommand(rootOpts *RootOptions) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <location>...",
		Short: "Show the gate decision for locations",
		Long: `Evaluate each location against the stored session and print the
gate decision. With --strict the command fails unless every location is
allowed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer a.Close()

			gate := a.engine.Gate()
			results := make([]CheckResult, 0, len(args))
			denied := 0
			for _, loc := range args {
				d, target := gate.Authorize(loc)
				if d.Redirect() {
					denied++
				}
				results = append(results, CheckResult{Location: loc, Decision: d.String(), Target: target})
			}

			if err := a.out.print(results, func(w io.Writer) {
				for _, r := range results {
					if r.Target != "" {
						fmt.Fprintf(w, "%-32s %s -> %s\n", r.Location, r.Decision, r.Target)
					} else {
						fmt.Fprintf(w, "%-32s %s\n", r.Location, r.Decision)
					}
				}
			}); err != nil {
				return err
			}
			if strict && denied > 0 {
				return wrapExit(ExitFailure, fmt.Sprintf("%d location(s) not allowed", denied), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail unless every location is allowed")
	return cmd
}
