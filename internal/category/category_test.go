package category

import (
	"testing"

	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/model"
)

func taxonomy() []config.Category {
	return config.Default().Categories
}

func TestCategorizeScenario(t *testing.T) {
	a := model.Approval{SubjectID: "refund-1029", ActionType: "approve"}
	if got := Categorize(a, taxonomy()); got != "money" {
		t.Errorf("expected money, got %q", got)
	}
	if !RequiresManualApproval(a, taxonomy()) {
		t.Error("categorized approval must require manual sign-off")
	}
}

func TestCategorizeKeywordSets(t *testing.T) {
	cases := []struct {
		subject string
		action  string
		want    string
	}{
		{"payment-plan-77", "update", "money"},
		{"student-12", "apply-discount", "money"},
		{"teacher-4", "reassign", "relation"},
		{"group-a", "swap-instructor", "relation"},
		{"parent-relation-9", "note", "relation"},
		{"claim-2210", "open", "liability"},
		{"incident-77", "legal-review", "liability"},
		{"gym-3", "safety-check", "liability"},
		{"student-42", "award-badge", None},
	}
	for _, tc := range cases {
		a := model.Approval{SubjectID: tc.subject, ActionType: tc.action}
		if got := Categorize(a, taxonomy()); got != tc.want {
			t.Errorf("%s/%s: expected %q, got %q", tc.subject, tc.action, tc.want, got)
		}
	}
}

func TestCategorizeFirstMatchWinsInOrder(t *testing.T) {
	// Matches both money (refund) and liability (claim): money is
	// checked first.
	a := model.Approval{SubjectID: "refund-claim-3", ActionType: "review"}
	if got := Categorize(a, taxonomy()); got != "money" {
		t.Errorf("money > relation > liability order violated, got %q", got)
	}

	// Matches relation (teacher) and liability (safety): relation wins.
	b := model.Approval{SubjectID: "teacher-1", ActionType: "safety-briefing"}
	if got := Categorize(b, taxonomy()); got != "relation" {
		t.Errorf("relation must be checked before liability, got %q", got)
	}
}

func TestCategorizeCaseInsensitive(t *testing.T) {
	a := model.Approval{SubjectID: "REFUND-1029", ActionType: "Approve"}
	if got := Categorize(a, taxonomy()); got != "money" {
		t.Errorf("matching must be case-insensitive, got %q", got)
	}
}

func TestCategorizeEmptyTaxonomy(t *testing.T) {
	a := model.Approval{SubjectID: "refund-1", ActionType: "approve"}
	if got := Categorize(a, nil); got != None {
		t.Errorf("no taxonomy means no category, got %q", got)
	}
	if RequiresManualApproval(a, nil) {
		t.Error("no taxonomy means no mandatory sign-off")
	}
}

func FuzzCategorize(f *testing.F) {
	f.Add("refund-1029", "approve")
	f.Add("teacher-4", "reassign")
	f.Add("", "")
	f.Add("claim", "refund")

	tax := taxonomy()
	valid := map[string]bool{None: true}
	for _, c := range tax {
		valid[c.Name] = true
	}

	f.Fuzz(func(t *testing.T, subject, action string) {
		a := model.Approval{SubjectID: subject, ActionType: action}
		got := Categorize(a, tax)
		if !valid[got] {
			t.Errorf("Categorize returned unknown category %q", got)
		}
		// Determinism under replay.
		if again := Categorize(a, tax); again != got {
			t.Errorf("Categorize not deterministic: %q then %q", got, again)
		}
	})
}
