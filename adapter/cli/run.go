package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/commands"
	"github.com/felixgeelhaar/autoresolve/internal/resolution/domain"
	"github.com/spf13/cobra"
)

var runAt string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one resolution pass now",
	Long: `Select every unfilled booking inside its auto-accept window and resolve it.

With --at the pass runs as if the clock read that time, which is useful to
replay a pass against a copy of production data.

Examples:
  autoresolve run
  autoresolve run --at 2025-11-24T06:00:00Z`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		ref, err := parseReferenceTime(runAt)
		if err != nil {
			return err
		}

		result, err := a.RunBatchHandler.Handle(cmd.Context(), commands.RunBatchCommand{ReferenceTime: ref})
		if err != nil {
			return fmt.Errorf("resolution pass failed: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), result)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Pass at %s: %d selected, %d errors (%s)\n",
			result.ReferenceTime.Format(time.RFC3339), result.Selected, result.Errors, result.Duration.Round(time.Millisecond))

		kinds := make([]string, 0, len(result.Counts))
		for kind := range result.Counts {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(out, "  %-20s %d\n", kind, result.Counts[domain.ResolutionKind(kind)])
		}

		for _, res := range result.Resolutions {
			line := fmt.Sprintf("  %s  %-20s %s", res.BookingID.String()[:8], res.Kind, res.OriginalStart.Format(time.RFC3339))
			switch {
			case res.NewStart != nil:
				line += " -> " + res.NewStart.Format(time.RFC3339)
			case res.AbortCause != "":
				line += " (" + string(res.AbortCause) + ")"
			case res.Message != "":
				line += " " + res.Message
			}
			fmt.Fprintln(out, line)
		}
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runAt, "at", "", "reference time (RFC 3339 or YYYY-MM-DD)")
	rootCmd.AddCommand(runCmd)
}
