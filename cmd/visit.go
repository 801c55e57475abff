package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/meterplan/app"
)

var (
	visitDate       string
	visitAddress    int64
	visitTechnician int64
	visitStart      string
	visitActor      int64

	updateID     int64
	updateStatus string
	updateNotes  string
	updateOldNo  string
	updateNewNo  string
	updateActor  int64

	rescheduleAddress int64
)

var visitCmd = &cobra.Command{
	Use:   "visit",
	Short: "Book and update individual visits",
}

var visitBookCmd = &cobra.Command{
	Use:   "book",
	Short: "Book one visit outside the automatic planner",
	RunE:  visitBook,
}

var visitUpdateCmd = &cobra.Command{
	Use:   "update",
	Short: "Change the status or details of an appointment",
	RunE:  visitUpdate,
}

var visitRescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Push back an address' live appointment on resident request",
	RunE:  visitReschedule,
}

func init() {
	visitBookCmd.Flags().StringVar(&visitDate, "date", "", "visit day (YYYY-MM-DD)")
	visitBookCmd.Flags().Int64Var(&visitAddress, "address", 0, "address id")
	visitBookCmd.Flags().Int64Var(&visitTechnician, "technician", 0, "technician id")
	visitBookCmd.Flags().StringVar(&visitStart, "start", "", "slot start (HH:MM)")
	visitBookCmd.Flags().Int64Var(&visitActor, "actor", 0, "operator user id")
	visitUpdateCmd.Flags().Int64Var(&updateID, "id", 0, "appointment id")
	visitUpdateCmd.Flags().StringVar(&updateStatus, "status", "", "new status")
	visitUpdateCmd.Flags().StringVar(&updateNotes, "notes", "", "notes")
	visitUpdateCmd.Flags().StringVar(&updateOldNo, "old-meter", "", "old meter number")
	visitUpdateCmd.Flags().StringVar(&updateNewNo, "new-meter", "", "new meter number")
	visitUpdateCmd.Flags().Int64Var(&updateActor, "actor", 0, "operator user id")
	visitRescheduleCmd.Flags().Int64Var(&rescheduleAddress, "address", 0, "address id")
	visitCmd.AddCommand(visitBookCmd, visitUpdateCmd, visitRescheduleCmd)
	rootCmd.AddCommand(visitCmd)
}

func visitBook(cmd *cobra.Command, args []string) error {
	date, err := time.Parse("2006-01-02", visitDate)
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

	appt, err := svc.Planner().CommitManual(ctx, app.ManualVisitRequest{
		Date:         date,
		AddressID:    visitAddress,
		TechnicianID: visitTechnician,
		Start:        visitStart,
		Actor:        visitActor,
	})
	if err != nil {
		return err
	}
	fmt.Printf("booked: address %d, %s-%s\n", appt.AddressID, appt.StartsAt.Format("15:04"), appt.EndsAt.Format("15:04"))
	return nil
}

func visitUpdate(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	req := app.UpdateRequest{AppointmentID: updateID, Actor: updateActor}
	if cmd.Flags().Changed("status") {
		req.Status = &updateStatus
	}
	if cmd.Flags().Changed("notes") {
		req.Notes = &updateNotes
	}
	if cmd.Flags().Changed("old-meter") {
		req.OldMeterNo = &updateOldNo
	}
	if cmd.Flags().Changed("new-meter") {
		req.NewMeterNo = &updateNewNo
	}
	appt, err := svc.Planner().UpdateAppointment(ctx, req)
	if err != nil {
		return err
	}
	fmt.Printf("appointment %d is now %s\n", appt.ID, appt.Status)
	return nil
}

func visitReschedule(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := svc.Planner().ResidentReschedule(ctx, rescheduleAddress); err != nil {
		return err
	}
	fmt.Printf("appointment for address %d marked for rescheduling\n", rescheduleAddress)
	return nil
}
