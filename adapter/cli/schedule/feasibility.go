package schedule

import (
	"fmt"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/queries"
	"github.com/spf13/cobra"
)

var (
	feasibilityDate    string
	feasibilityMaxDays int
)

var feasibilityCmd = &cobra.Command{
	Use:   "feasibility",
	Short: "Check whether pending tasks fit in a horizon",
	Long: `Compares total pending-task demand against raw day capacity over a
horizon without running the full packer, answering quickly whether a plan
generation would plausibly overflow.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.CheckFeasibilityHandler == nil {
			fmt.Println("Feasibility check requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		start, err := parseOrToday(feasibilityDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		maxDays := feasibilityMaxDays
		if maxDays <= 0 {
			maxDays = 7
		}

		result, err := app.CheckFeasibilityHandler.Handle(cmd.Context(), queries.CheckFeasibilityQuery{
			UserID:    app.CurrentUserID,
			StartDate: start,
			MaxDays:   maxDays,
		})
		if err != nil {
			return fmt.Errorf("failed to check feasibility: %w", err)
		}

		fmt.Printf("Demand: %dm  Capacity: %dm\n", result.TotalDemandMinutes, result.TotalCapacityMinutes)
		if result.Feasible {
			fmt.Println("Feasible: yes")
			return nil
		}

		fmt.Printf("Feasible: no (short by %dm)\n", result.ShortfallMinutes)
		fmt.Println("Suggested actions:")
		for _, action := range result.SuggestedActions {
			fmt.Printf("  - %s\n", action)
		}
		return nil
	},
}

func init() {
	feasibilityCmd.Flags().StringVarP(&feasibilityDate, "date", "d", "", "horizon start date (YYYY-MM-DD, default today)")
	feasibilityCmd.Flags().IntVar(&feasibilityMaxDays, "days", 7, "number of days to check")
}
