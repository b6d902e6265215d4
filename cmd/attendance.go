package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/veskrna/face-attend/internal/attendance"
	"github.com/veskrna/face-attend/internal/config"
	"github.com/veskrna/face-attend/internal/database"
	"github.com/veskrna/face-attend/internal/database/postgres"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance [date]",
	Short: "Print the attendance register for a date",
	Long: `Print the attendance register for a calendar date (YYYY-MM-DD).
Defaults to today (UTC) when no date is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAttendance,
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
}

func runAttendance(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	date := database.DateOf(time.Now())
	if len(args) == 1 {
		date = args[0]
	}

	pool, err := postgres.Initialize(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}
	defer pool.Close()

	ledger := attendance.NewLedger(postgres.NewAttendanceRepository(pool))

	records, err := ledger.ListByDate(context.Background(), date)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Printf("No attendance records for %s\n", date)
		return nil
	}

	fmt.Printf("Attendance for %s (%d records):\n", date, len(records))
	for _, r := range records {
		name := r.DisplayName
		if name == "" {
			name = r.IdentityID
		}
		fmt.Printf("  %s  %-8s %-24s confidence %.2f\n",
			r.TimeIn.UTC().Format("15:04:05"), r.Status, name, r.ConfidenceScore)
	}
	return nil
}
