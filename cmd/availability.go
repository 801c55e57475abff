package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var (
	avTechnician int64
	avDate       string
	avStart      string
	avEnd        string
	avNote       string
)

var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Declare technician working windows",
	RunE:  declareAvailability,
}

func init() {
	availabilityCmd.Flags().Int64Var(&avTechnician, "technician", 0, "technician id")
	availabilityCmd.Flags().StringVar(&avDate, "date", "", "working day (YYYY-MM-DD)")
	availabilityCmd.Flags().StringVar(&avStart, "start", "08:00", "window start (HH:MM)")
	availabilityCmd.Flags().StringVar(&avEnd, "end", "16:00", "window end (HH:MM)")
	availabilityCmd.Flags().StringVar(&avNote, "note", "", "free-form note")
	rootCmd.AddCommand(availabilityCmd)
}

func declareAvailability(cmd *cobra.Command, args []string) error {
	date, err := time.Parse("2006-01-02", avDate)
	if err != nil {
		return fmt.Errorf("parse --date: %w", err)
	}
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	warnings, err := svc.Planner().DeclareAvailability(ctx, avTechnician, date, avStart, avEnd, avNote)
	if err != nil {
		return err
	}
	fmt.Printf("availability saved: technician %d, %s %s-%s\n", avTechnician, avDate, avStart, avEnd)
	for _, w := range warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	return nil
}
