package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/model"
)

func init() {
	rootCmd.AddCommand(approveCmd)
}

var approveCmd = &cobra.Command{
	Use:   "approve <approval-id>",
	Short: "Approve an open approval",
	Args:  cobra.ExactArgs(1),
	RunE:  runApprove,
}

func runApprove(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	a, err := eng.Decide(args[0], model.DecisionApproved)
	if err != nil {
		return err
	}
	fmt.Printf("Approved %s (%s on %s)\n", a.ID, a.ActionType, a.SubjectID)
	return nil
}
