package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	stockQty   int
	stockRef   string
	stockType  string
	stockNote  string
	stockActor int64
)

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Inspect and adjust the meter stock",
}

var stockLevelCmd = &cobra.Command{
	Use:   "level",
	Short: "Print the current stock level",
	RunE:  stockLevel,
}

var stockPurchaseCmd = &cobra.Command{
	Use:   "purchase",
	Short: "Register a purchased meter batch",
	RunE:  stockPurchase,
}

var stockAdjustCmd = &cobra.Command{
	Use:   "adjust",
	Short: "Register a manual stock correction",
	RunE:  stockAdjust,
}

func init() {
	stockPurchaseCmd.Flags().IntVar(&stockQty, "qty", 0, "number of meters")
	stockPurchaseCmd.Flags().StringVar(&stockRef, "ref", "", "order reference")
	stockPurchaseCmd.Flags().StringVar(&stockType, "type", "", "meter type")
	stockPurchaseCmd.Flags().StringVar(&stockNote, "note", "", "free-form note")
	stockPurchaseCmd.Flags().Int64Var(&stockActor, "actor", 0, "operator user id")
	stockAdjustCmd.Flags().IntVar(&stockQty, "qty", 0, "correction size (positive lowers stock)")
	stockAdjustCmd.Flags().StringVar(&stockNote, "note", "", "reason for the correction")
	stockAdjustCmd.Flags().Int64Var(&stockActor, "actor", 0, "operator user id")
	stockCmd.AddCommand(stockLevelCmd, stockPurchaseCmd, stockAdjustCmd)
	rootCmd.AddCommand(stockCmd)
}

func stockLevel(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	level, err := svc.Planner().StockLevel(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("stock: %d meters\n", level)
	return nil
}

func stockPurchase(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	level, err := svc.Planner().PurchaseStock(ctx, stockQty, stockRef, stockType, stockNote, stockActor)
	if err != nil {
		return err
	}
	fmt.Printf("purchased %d meters, stock now %d\n", stockQty, level)
	return nil
}

func stockAdjust(cmd *cobra.Command, args []string) error {
	ctx, stop := commandContext()
	defer stop()
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()

	level, err := svc.Planner().AdjustStock(ctx, stockQty, stockNote, stockActor)
	if err != nil {
		return err
	}
	fmt.Printf("adjusted by %d, stock now %d\n", -stockQty, level)
	return nil
}
