package schedule

import (
	"fmt"
	"time"

	"github.com/mugi0227/nagi-scheduler/adapter/cli"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/application/commands"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	moveDate     string
	moveNewStart string
	moveNewEnd   string
)

var moveCmd = &cobra.Command{
	Use:   "move <task-id>",
	Short: "Move or resize a scheduled time block",
	Long: `Relocates or resizes a single time block. Moving to a different
calendar date removes the block from its original plan row and appends it
to the target date's row; the underlying task's own time fields are
written back to match. This command places both the new start and the
new end on the --date day, so from the CLI a block is moved or resized
within that day only.

Examples:
  orbita schedule move <task-id> --date 2024-01-15 --start 09:00 --end 10:30
  orbita schedule move <task-id> --date 2024-01-16 --start 14:00 --end 15:00`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cli.GetApp()
		if app == nil || app.MoveTimeBlockHandler == nil {
			fmt.Println("Schedule editing requires database connection.")
			fmt.Println("Start services with: docker-compose up -d")
			return nil
		}

		taskID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid task ID: %w", err)
		}

		origDate, err := parseOrToday(moveDate)
		if err != nil {
			return fmt.Errorf("invalid date format, use YYYY-MM-DD: %w", err)
		}

		newStart, err := parseTimeOnDate(origDate, moveNewStart)
		if err != nil {
			return fmt.Errorf("invalid start time format, use HH:MM: %w", err)
		}
		newEnd, err := parseTimeOnDate(origDate, moveNewEnd)
		if err != nil {
			return fmt.Errorf("invalid end time format, use HH:MM: %w", err)
		}

		result, err := app.MoveTimeBlockHandler.Handle(cmd.Context(), commands.MoveTimeBlockCommand{
			UserID:       app.CurrentUserID,
			TaskID:       taskID,
			OriginalDate: origDate,
			NewStart:     newStart,
			NewEnd:       newEnd,
		})
		if err != nil {
			return fmt.Errorf("failed to move time block: %w", err)
		}

		fmt.Printf("Moved task %s to %s - %s\n", taskID, result.Block.Start.Format("2006-01-02 15:04"), result.Block.End.Format("15:04"))
		return nil
	},
}

func parseTimeOnDate(date time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func init() {
	moveCmd.Flags().StringVarP(&moveDate, "date", "d", "", "original block date (YYYY-MM-DD, default today)")
	moveCmd.Flags().StringVar(&moveNewStart, "start", "", "new start time (HH:MM)")
	moveCmd.Flags().StringVar(&moveNewEnd, "end", "", "new end time (HH:MM)")
	moveCmd.MarkFlagRequired("start")
	moveCmd.MarkFlagRequired("end")
}
