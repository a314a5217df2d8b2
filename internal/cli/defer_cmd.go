package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/model"
)

func init() {
	rootCmd.AddCommand(deferCmd)
}

var deferCmd = &cobra.Command{
	Use:   "defer <approval-id>",
	Short: "Defer an open approval",
	Long:  "Marks the approval DEFERRED and restarts its decision window.\nA deferred approval stays actionable and can be decided again.",
	Args:  cobra.ExactArgs(1),
	RunE:  runDefer,
}

func runDefer(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	a, err := eng.Decide(args[0], model.DecisionDeferred)
	if err != nil {
		return err
	}
	fmt.Printf("Deferred %s until %s\n", a.ID, a.Deadline.Format(time.RFC3339))
	return nil
}
