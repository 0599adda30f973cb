package cli

import (
	"fmt"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	outcomesBooking string
	outcomesType    string
	outcomesSince   string
	outcomesLimit   int
)

var outcomesCmd = &cobra.Command{
	Use:   "outcomes",
	Short: "Show the resolution outcome log",
	Long: `Show recorded outcomes, newest first.

Examples:
  autoresolve outcomes
  autoresolve outcomes --type rbu --limit 20
  autoresolve outcomes --booking 6f1c...`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}

		query := queries.ListOutcomesQuery{Type: outcomesType, Limit: outcomesLimit}
		if outcomesBooking != "" {
			id, err := uuid.Parse(outcomesBooking)
			if err != nil {
				return fmt.Errorf("invalid booking id: %w", err)
			}
			query.BookingID = &id
		}
		if outcomesSince != "" {
			since, err := parseReferenceTime(outcomesSince)
			if err != nil {
				return err
			}
			query.Since = &since
		}

		entries, err := a.ListOutcomesHandler.Handle(cmd.Context(), query)
		if err != nil {
			return fmt.Errorf("failed to list outcomes: %w", err)
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), entries)
		}

		out := cmd.OutOrStdout()
		if len(entries) == 0 {
			fmt.Fprintln(out, "No outcomes recorded.")
			return nil
		}
		for _, e := range entries {
			status := "ok"
			if !e.Success {
				status = "failed"
			}
			fmt.Fprintf(out, "%s  %s  %-22s %-6s %s\n",
				e.RecordedAt.Format(time.RFC3339), e.BookingID.String()[:8], e.Type, status, e.Message)
		}
		return nil
	},
}

func init() {
	outcomesCmd.Flags().StringVar(&outcomesBooking, "booking", "", "filter by booking id")
	outcomesCmd.Flags().StringVar(&outcomesType, "type", "", "filter by outcome type (rbu or cbu)")
	outcomesCmd.Flags().StringVar(&outcomesSince, "since", "", "only outcomes recorded at or after this time")
	outcomesCmd.Flags().IntVar(&outcomesLimit, "limit", 50, "maximum number of entries")
	rootCmd.AddCommand(outcomesCmd)
}
