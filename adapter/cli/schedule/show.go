package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	showDate string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the plan for a day",
	Long: `Display the persisted plan for today or a specific date, including
drift status against the live task set.

Examples:
  orbita schedule show
  orbita schedule show --date 2024-01-15`,
	Aliases: []string{"today", "view"},
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GetPlanHandler == nil {
			fmt.Println("Schedule viewing requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		date, err := parseOrToday(showDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		result, err := app.GetPlanHandler.Handle(cmd.Context(), queries.GetPlanQuery{
			UserID: app.CurrentUserID,
			Date:   date,
		})
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}

		dateStr := date.Format("Monday, January 2, 2006")
		fmt.Printf("Plan for %s\n", dateStr)
		fmt.Println(strings.Repeat("=", 60))

		if result == nil {
			fmt.Println("\n  No plan generated yet for this date.")
			fmt.Println("  Use 'orbita schedule plan' to generate one.")
			return nil
		}

		fmt.Printf("Status: %s (generated %s)\n", result.Status, result.GeneratedAt.Format(time.RFC3339))

		if len(result.TimeBlocks) == 0 {
			fmt.Println("\n  No scheduled blocks.")
		}

		for _, b := range result.TimeBlocks {
			ghost := ""
			if b.IsGhost {
				ghost = " (ghost)"
			}
			fmt.Printf("\n%s - %s  task=%s kind=%s status=%s%s\n",
				b.Start.Format("15:04"), b.End.Format("15:04"), b.TaskID, b.Kind, b.Status, ghost)
		}

		if len(result.PendingChanges) > 0 {
			fmt.Println(strings.Repeat("-", 60))
			fmt.Println("Pending changes since this plan was generated:")
			for _, p := range result.PendingChanges {
				fmt.Printf("  - %s (%s)\n", p.Title, p.TaskID)
			}
		}

		return nil
	},
}

func parseOrToday(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	return time.Parse("2006-01-02", s)
}

func init() {
	showCmd.Flags().StringVarP(&showDate, "date", "d", "", "date to show (YYYY-MM-DD)")
}
