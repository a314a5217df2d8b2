package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/govern"
	"github.com/ppiankov/decisiongate/internal/model"
)

var (
	createSubject string
	createAction  string
	createCost    string
	createRev     string
	createBlast   string

	createQuestions     int
	createInterventions int
	createExceptions    int
	createEscalations   int

	listPending bool
)

func init() {
	rootCmd.AddCommand(approvalCmd)
	approvalCmd.AddCommand(approvalCreateCmd)
	approvalCmd.AddCommand(approvalListCmd)

	approvalCreateCmd.Flags().StringVar(&createSubject, "subject", "", "subject the action targets")
	approvalCreateCmd.Flags().StringVar(&createAction, "action", "", "requested action type")
	approvalCreateCmd.Flags().StringVar(&createCost, "cost", "LOW", "cost tag: LOW, MED, HIGH")
	approvalCreateCmd.Flags().StringVar(&createRev, "reversibility", "easy", "reversibility tag: easy, hard")
	approvalCreateCmd.Flags().StringVar(&createBlast, "blast", "local", "blast radius tag: local, segment, global")
	approvalCreateCmd.Flags().IntVar(&createQuestions, "questions", 0, "recent clarifying questions")
	approvalCreateCmd.Flags().IntVar(&createInterventions, "interventions", 0, "recent manual interventions")
	approvalCreateCmd.Flags().IntVar(&createExceptions, "exceptions", 0, "recent unhandled exceptions")
	approvalCreateCmd.Flags().IntVar(&createEscalations, "escalations", 0, "recent human escalations")
	approvalCreateCmd.MarkFlagRequired("subject")
	approvalCreateCmd.MarkFlagRequired("action")

	approvalListCmd.Flags().BoolVar(&listPending, "pending", false, "only approvals awaiting a decision")
}

var approvalCmd = &cobra.Command{
	Use:   "approval",
	Short: "Approval lifecycle",
	Long:  "Run requested actions through the gate and inspect approval records.",
}

var approvalCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Gate a requested action",
	Long:  "Creates an approval record and routes it: friction escalates, a category\nmatch queues for manual sign-off, the weekly HIGH budget denies over cap,\notherwise the action is auto-approved.",
	RunE:  runApprovalCreate,
}

var approvalListCmd = &cobra.Command{
	Use:   "list",
	Short: "List approval records in creation order",
	RunE:  runApprovalList,
}

func runApprovalCreate(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	res, err := eng.Gate(createSubject, createAction,
		model.Cost(createCost),
		model.Reversibility(createRev),
		model.BlastRadius(createBlast),
		model.FrictionDelta{
			Questions:     createQuestions,
			Interventions: createInterventions,
			Exceptions:    createExceptions,
			Escalations:   createEscalations,
		})
	if err != nil {
		return err
	}

	fmt.Printf("Approval %s\n", res.Approval.ID)
	switch res.Route {
	case govern.RouteAuto:
		fmt.Println("AUTO-APPROVED")
	case govern.RouteManual:
		fmt.Printf("MANUAL: %s\n", res.Reason)
	case govern.RouteEscalated:
		fmt.Printf("ESCALATED: %s\n", res.Reason)
	case govern.RouteDenied:
		fmt.Printf("DENIED: %s\n", res.Reason)
		if res.AutoKill {
			fmt.Println("Auto-kill: disable the rule that proposed this action.")
		}
	}
	return nil
}

func runApprovalList(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	records := eng.Approvals()
	if listPending {
		records = eng.OpenApprovals()
	}
	if len(records) == 0 {
		fmt.Println("No approvals.")
		return nil
	}

	for _, a := range records {
		line := fmt.Sprintf("%-36s %-8s %-5s %-24s %s", a.ID, a.Decision, a.Cost, a.ActionType, a.SubjectID)
		if a.Open() {
			r := eng.TimeRemaining(a)
			if r.Expired {
				line += "  [expired]"
			} else {
				line += fmt.Sprintf("  [%dh%02dm left]", r.Hours, r.Minutes)
			}
		}
		fmt.Println(line)
	}
	return nil
}
