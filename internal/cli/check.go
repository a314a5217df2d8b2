package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/model"
)

var (
	checkSubjectType string
	checkActionType  string
	checkStatus      string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkSubjectType, "subject-type", "", "kind of subject (e.g., student)")
	checkCmd.Flags().StringVar(&checkActionType, "action-type", "", "requested action type")
	checkCmd.Flags().StringVar(&checkStatus, "status", "", "subject's current status")
	checkCmd.MarkFlagRequired("subject-type")
	checkCmd.MarkFlagRequired("action-type")
	checkCmd.MarkFlagRequired("status")
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Eligibility yes/no for an action",
	Long:  "Answers whether the action type is permitted for a subject in the given\nstatus. Boolean only: no scores, no recommendations, no explanations.\nExits 0 if eligible, 1 if not.",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	el := eng.CheckEligibility(checkSubjectType, checkActionType, model.State{Status: checkStatus})
	if el.Eligible {
		fmt.Println("eligible")
		return nil
	}
	fmt.Println("not eligible")
	os.Exit(1)
	return nil
}
