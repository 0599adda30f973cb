package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/autoresolve/internal/resolution/application/queries"
	"github.com/spf13/cobra"
)

var blackoutCountry string

var blackoutCmd = &cobra.Command{
	Use:   "blackout <YYYY-MM-DD>",
	Short: "Check whether a date is a reschedule blackout",
	Long: `Report whether a date may not be used as a reschedule target for a
country, and which holiday makes it so.

Examples:
  autoresolve blackout 2025-11-28 --country US`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := requireApp()
		if err != nil {
			return err
		}
		date, err := time.Parse("2006-01-02", args[0])
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		verdict, err := a.CheckBlackoutHandler.Handle(cmd.Context(), queries.CheckBlackoutQuery{
			Date:    date,
			Country: strings.ToUpper(blackoutCountry),
		})
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), verdict)
		}

		out := cmd.OutOrStdout()
		if !verdict.Blackout {
			fmt.Fprintf(out, "%s is open in %s\n", args[0], verdict.Country)
			return nil
		}
		fmt.Fprintf(out, "%s is a blackout in %s\n", args[0], verdict.Country)
		for _, h := range verdict.Holidays {
			fmt.Fprintf(out, "  holiday: %s\n", h)
		}
		if verdict.DayAfter != "" {
			fmt.Fprintf(out, "  day after: %s\n", verdict.DayAfter)
		}
		return nil
	},
}

func init() {
	blackoutCmd.Flags().StringVar(&blackoutCountry, "country", "US", "ISO 3166 country code")
	rootCmd.AddCommand(blackoutCmd)
}
