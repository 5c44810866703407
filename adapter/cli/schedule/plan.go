package schedule

import (
	"fmt"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/commands"
	"github.com/spf13/cobra"
)

var (
	planStartDate string
	planMaxDays   int
	planFromNow   bool
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Generate a fresh plan over a horizon",
	Long: `Runs the scheduling pipeline (capacity, filter+DAG, scoring, day packing,
time-block building) and persists the resulting plan rows, replacing any
prior plan_group covering the same dates.

Examples:
  orbita schedule plan
  orbita schedule plan --date 2024-01-15 --days 5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.GeneratePlanHandler == nil {
			fmt.Println("Plan generation requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		start, err := parseOrToday(planStartDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		maxDays := planMaxDays
		if maxDays <= 0 {
			maxDays = 7
		}

		result, err := app.GeneratePlanHandler.Handle(cmd.Context(), commands.GeneratePlanCommand{
			UserID:    app.CurrentUserID,
			StartDate: start,
			MaxDays:   maxDays,
			FromNow:   planFromNow,
		})
		if err != nil {
			return fmt.Errorf("failed to generate plan: %w", err)
		}

		fmt.Printf("Generated plan group %s covering %d day(s)\n", result.PlanGroupID, len(result.Plans))
		for _, p := range result.Plans {
			fmt.Printf("  %s: %d block(s)\n", p.Day().Date.Format("2006-01-02"), len(p.TimeBlocks()))
		}
		if len(result.UnscheduledTasks) > 0 {
			fmt.Printf("Unscheduled: %d task(s)\n", len(result.UnscheduledTasks))
		}
		if len(result.ExcludedTasks) > 0 {
			fmt.Printf("Excluded: %d task(s)\n", len(result.ExcludedTasks))
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planStartDate, "date", "d", "", "horizon start date (YYYY-MM-DD, default today)")
	planCmd.Flags().IntVar(&planMaxDays, "days", 7, "number of days to plan")
	planCmd.Flags().BoolVar(&planFromNow, "from-now", false, "pack the first day starting from the current time rather than day start")
}
