package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(budgetCmd)
	budgetCmd.AddCommand(budgetStatusCmd)
}

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Weekly HIGH-cost decision budget",
	Long:  "Inspect how many HIGH-cost decisions this ISO week has consumed.\nThe counter resets when the next week starts; it is never carried over.",
}

var budgetStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current week's usage",
	RunE:  runBudgetStatus,
}

func runBudgetStatus(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	b := eng.BudgetStatus()
	fmt.Printf("Week %s — %s\n", b.WeekStart.Format("2006-01-02"), b.WeekEnd.Format("2006-01-02"))
	fmt.Printf("HIGH decisions: %d/%d used\n", b.HighDecisionsUsed, b.HighDecisionsCap)
	if b.HighDecisionsUsed >= b.HighDecisionsCap {
		fmt.Printf("Budget exhausted; next slot opens %s\n", b.WeekEnd.Add(time.Millisecond).Format(time.RFC3339))
	}
	return nil
}
