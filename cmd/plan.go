package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

var (
	planDate  string
	planOrder []int64
	planActor int64
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute and commit visit plans",
}

var planDatesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List days with declared availability",
	RunE:  planDates,
}

var planPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Compute the plan for a day without persisting it",
	RunE:  planPreview,
}

var planCommitCmd = &cobra.Command{
	Use:   "commit",
	Short: "Persist the plan for a day",
	RunE:  planCommit,
}

func init() {
	planPreviewCmd.Flags().StringVar(&planDate, "date", "", "planning day (YYYY-MM-DD)")
	planCommitCmd.Flags().StringVar(&planDate, "date", "", "planning day (YYYY-MM-DD)")
	planCommitCmd.Flags().Int64SliceVar(&planOrder, "order", nil, "explicit address order (ids)")
	planCommitCmd.Flags().Int64Var(&planActor, "actor", 0, "operator user id")
	planCmd.AddCommand(planDatesCmd, planPreviewCmd, planCommitCmd)
	rootCmd.AddCommand(planCmd)
}

func parsePlanDate() (time.Time, error) {
	if planDate == "" {
		return time.Time{}, fmt.Errorf("--date is required")
	}
	d, err := time.Parse("2006-01-02", planDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse --date: %w", err)
	}
	return d, nil
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func planDates(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	dates, err := svc.Planner().PlanningDates(ctx)
	if err != nil {
		return err
	}
	for _, d := range dates {
		fmt.Printf("%s  %s\n", d.Date.Format("2006-01-02"), d.Label)
	}
	return nil
}

func planPreview(cmd *cobra.Command, args []string) error {
	date, err := parsePlanDate()
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	preview, err := svc.Planner().Preview(ctx, date)
	if err != nil {
		return err
	}
	fmt.Printf("plan for %s: %d slots, stock %d\n", preview.Date.Format("2006-01-02"), len(preview.Slots), preview.Stock)
	for _, v := range preview.Plan.Planned {
		fmt.Printf("  %s  %-20s  %s\n", v.Slot.Start.Format("15:04"), v.Slot.Technician, v.Address.Label())
	}
	for _, a := range preview.Plan.Unplanned {
		fmt.Printf("  unplanned: %s\n", a.Label())
	}
	for _, a := range preview.Eligibility.SkippedBlocked {
		fmt.Printf("  blocked: %s (%s)\n", a.Label(), *a.BlockedReason)
	}
	for _, a := range preview.Eligibility.SkippedBuffered {
		fmt.Printf("  buffered: %s\n", a.Label())
	}
	return nil
}

func planCommit(cmd *cobra.Command, args []string) error {
	date, err := parsePlanDate()
	if err != nil {
		return err
	}
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	res, err := svc.Planner().Commit(ctx, date, planOrder, planActor)
	if err != nil {
		return err
	}
	fmt.Printf("committed %s: %d visits, %d unplanned, stock %d\n",
		res.CommitID, len(res.Plan.Planned), len(res.Plan.Unplanned), res.Stock)
	return nil
}
