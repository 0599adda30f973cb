package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/spf13/cobra"
)

var candidatesAt string

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List bookings the next pass would act on",
	Long: `Dry run of batch selection: lists confirmed bookings without a provider
whose start falls inside their region's auto-accept window. Nothing is changed.

Examples:
  autoresolve candidates
  autoresolve candidates --at 2025-11-24T06:00:00Z --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		ref, err := parseReferenceTime(candidatesAt)
		if err != nil {
			return err
		}

		candidates, err := a.ListCandidatesHandler.Handle(cmd.Context(), queries.ListCandidatesQuery{ReferenceTime: ref})
		if err != nil {
			return fmt.Errorf("failed to list candidates: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), candidates)
		}

		out := cmd.OutOrStdout()
		if len(candidates) == 0 {
			fmt.Fprintln(out, "No unfilled bookings inside their window.")
			return nil
		}
		fmt.Fprintf(out, "%d candidate(s):\n", len(candidates))
		for _, c := range candidates {
			fmt.Fprintf(out, "  %s  %-8s %-12s %s  attempts=%d window=%dm\n",
				c.BookingID.String()[:8], c.RegionID, c.ServiceID, c.Start.Format(time.RFC3339),
				c.RescheduleAttempts, c.WindowMinutes)
		}
		return nil
	},
}

func init() {
	candidatesCmd.Flags().StringVar(&candidatesAt, "at", "", "reference time (RFC 3339 or YYYY-MM-DD)")
	rootCmd.AddCommand(candidatesCmd)
}
