package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/model"
)

func init() {
	rootCmd.AddCommand(denyCmd)
}

var denyCmd = &cobra.Command{
	Use:   "deny <approval-id>",
	Short: "Deny an open approval",
	Args:  cobra.ExactArgs(1),
	RunE:  runDeny,
}

func runDeny(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	a, err := eng.Decide(args[0], model.DecisionDenied)
	if err != nil {
		return err
	}
	fmt.Printf("Denied %s (%s on %s)\n", a.ID, a.ActionType, a.SubjectID)
	return nil
}
