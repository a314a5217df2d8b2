package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/decisiongate/internal/model"
)

var (
	factType    string
	factSubject string
	factSource  string
	factValues  []string

	factListSubject string
	factListSince   string
	factListUntil   string
)

func init() {
	rootCmd.AddCommand(factCmd)
	factCmd.AddCommand(factAppendCmd)
	factCmd.AddCommand(factListCmd)

	factAppendCmd.Flags().StringVar(&factType, "type", "", "event type (e.g., attendance_recorded)")
	factAppendCmd.Flags().StringVar(&factSubject, "subject", "", "subject the event is about")
	factAppendCmd.Flags().StringVar(&factSource, "source", "", "producing system")
	factAppendCmd.Flags().StringArrayVar(&factValues, "value", nil, "payload entry as key=value (repeatable)")
	factAppendCmd.MarkFlagRequired("type")
	factAppendCmd.MarkFlagRequired("subject")
	factAppendCmd.MarkFlagRequired("source")

	factListCmd.Flags().StringVar(&factListSubject, "subject", "", "filter by subject")
	factListCmd.Flags().StringVar(&factListSince, "since", "", "start of time range (RFC 3339)")
	factListCmd.Flags().StringVar(&factListUntil, "until", "", "end of time range (RFC 3339)")
}

var factCmd = &cobra.Command{
	Use:   "fact",
	Short: "Append-only event ledger",
	Long:  "Record and inspect immutable facts produced by external systems.\nFacts are never updated or deleted; corrections are new facts.",
}

var factAppendCmd = &cobra.Command{
	Use:   "append",
	Short: "Record one event in the ledger",
	RunE:  runFactAppend,
}

var factListCmd = &cobra.Command{
	Use:   "list",
	Short: "List facts in insertion order",
	RunE:  runFactList,
}

func runFactAppend(cmd *cobra.Command, args []string) error {
	value := map[string]any{}
	for _, kv := range factValues {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return fmt.Errorf("invalid --value %q, want key=value", kv)
		}
		value[k] = v
	}

	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	f := model.Fact{
		EventType: factType,
		SubjectID: factSubject,
		Source:    factSource,
		Value:     value,
		Timestamp: time.Now(),
	}
	if err := eng.AppendFact(f); err != nil {
		return err
	}
	fmt.Printf("Recorded %s for %s\n", f.EventType, f.SubjectID)
	return nil
}

func runFactList(cmd *cobra.Command, args []string) error {
	var from, until time.Time
	var err error
	if factListSince != "" {
		if from, err = time.Parse(time.RFC3339, factListSince); err != nil {
			return fmt.Errorf("invalid --since: %w", err)
		}
	}
	if factListUntil != "" {
		if until, err = time.Parse(time.RFC3339, factListUntil); err != nil {
			return fmt.Errorf("invalid --until: %w", err)
		}
	}

	eng, done, err := openEngine()
	if err != nil {
		return err
	}
	defer done()

	facts := eng.QueryFacts(factListSubject, from, until)
	if len(facts) == 0 {
		fmt.Println("No facts recorded.")
		return nil
	}
	for _, f := range facts {
		fmt.Printf("%s  %-24s %-20s %s\n", f.Timestamp.Format(time.RFC3339), f.EventType, f.SubjectID, f.Source)
	}
	return nil
}
