package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var ruleName string

func init() {
	rootCmd.AddCommand(ruleCmd)
	ruleCmd.AddCommand(ruleAddCmd)
	ruleCmd.AddCommand(ruleKillCmd)
	ruleCmd.AddCommand(ruleRestartCmd)
	ruleCmd.AddCommand(ruleListCmd)

	ruleAddCmd.Flags().StringVar(&ruleName, "name", "", "human-readable rule name")
	ruleAddCmd.MarkFlagRequired("name")
}

var ruleCmd = &cobra.Command{
	Use:   "rule",
	Short: "Automation rule kill switches",
	Long:  "Register automation rules and flip their kill switches.\nA killed rule opens a cooldown window before it can be restarted or re-killed.",
}

var ruleAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a running automation rule",
	RunE:  runRuleAdd,
}

var ruleKillCmd = &cobra.Command{
	Use:   "kill <rule-id>",
	Short: "Switch a rule off",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleKill,
}

var ruleRestartCmd = &cobra.Command{
	Use:   "restart <rule-id>",
	Short: "Resume a killed rule after its cooldown",
	Args:  cobra.ExactArgs(1),
	RunE:  runRuleRestart,
}

var ruleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules and their effective status",
	RunE:  runRuleList,
}

func runRuleAdd(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	r, err := eng.AddRule(ruleName)
	if err != nil {
		return err
	}
	fmt.Printf("Added rule %s (%s)\n", r.ID, r.Name)
	return nil
}

func runRuleKill(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	res, err := eng.KillRule(args[0])
	if err != nil {
		return err
	}
	if !res.Allowed {
		fmt.Printf("Kill refused: %s\n", res.Reason)
		return nil
	}
	fmt.Printf("Killed %s\n", args[0])
	return nil
}

func runRuleRestart(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	res, err := eng.RestartRule(args[0])
	if err != nil {
		return err
	}
	if !res.Allowed {
		fmt.Printf("Restart refused: %s\n", res.Reason)
		return nil
	}
	fmt.Printf("Restarted %s\n", args[0])
	return nil
}

func runRuleList(cmd *cobra.Command, args []string) error {
	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	rules := eng.Rules()
	if len(rules) == 0 {
		fmt.Println("No rules registered.")
		return nil
	}
	for _, r := range rules {
		line := fmt.Sprintf("%-36s %-9s %s", r.ID, eng.RuleStatus(r), r.Name)
		if r.CooldownUntil != nil {
			line += fmt.Sprintf("  cooldown until %s", r.CooldownUntil.Format(time.RFC3339))
		}
		fmt.Println(line)
	}
	return nil
}
