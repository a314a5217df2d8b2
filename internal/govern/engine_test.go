package govern

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ppiankov/decisiongate/internal/audit"
	"github.com/ppiankov/decisiongate/internal/clock"
	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/model"
	"github.com/ppiankov/decisiongate/internal/storage"
)

// Monday 09:00 local, well inside an ISO week.
var t0 = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func newEngine(t *testing.T, opts ...Option) (*Engine, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(t0)
	e, err := New(config.Default(), append([]Option{WithClock(fc)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e, fc
}

func TestGateAutoApprovesQuietLowCostAction(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.Gate("badge-rule-7", "grant_badge", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteAuto {
		t.Fatalf("route = %s, want %s", res.Route, RouteAuto)
	}
	if res.Approval.Decision != model.DecisionApproved {
		t.Errorf("decision = %s, want approved", res.Approval.Decision)
	}
	if res.Approval.DecidedAt == nil {
		t.Error("auto-approved record must carry decided_at")
	}
}

func TestGateFrictionEscalatesBeforeAnythingElse(t *testing.T) {
	e, _ := newEngine(t)

	// Subject would also match the money category; friction wins.
	res, err := e.Gate("refund-1029", "issue_refund", model.CostLow, model.ReversibilityEasy, model.BlastLocal,
		model.FrictionDelta{Questions: 6})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteEscalated {
		t.Fatalf("route = %s, want %s", res.Route, RouteEscalated)
	}
	if res.Approval.Decision != model.DecisionPending {
		t.Errorf("escalated approval must stay pending, got %s", res.Approval.Decision)
	}
	if res.Reason == "" {
		t.Error("escalation must name the tripped signal")
	}
}

func TestGateCategoryMatchQueuesForManualSignoff(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.Gate("refund-1029", "process", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteManual {
		t.Fatalf("route = %s, want %s", res.Route, RouteManual)
	}
	if res.Category != "money" {
		t.Errorf("category = %q, want money", res.Category)
	}
	if res.Approval.Decision != model.DecisionPending {
		t.Errorf("manual approval must stay pending, got %s", res.Approval.Decision)
	}
	if len(e.OpenApprovals()) != 1 {
		t.Errorf("open approvals = %d, want 1", len(e.OpenApprovals()))
	}
}

func TestGateSecondHighInWeekDeniedWithAutoKill(t *testing.T) {
	e, _ := newEngine(t)

	first, err := e.Gate("cohort-migrate", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("first Gate: %v", err)
	}
	if first.Route != RouteAuto {
		t.Fatalf("first HIGH within cap should auto-approve, got %s", first.Route)
	}

	second, err := e.Gate("cohort-archive", "archive", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("second Gate: %v", err)
	}
	if second.Route != RouteDenied {
		t.Fatalf("route = %s, want %s", second.Route, RouteDenied)
	}
	if !second.AutoKill {
		t.Error("cap violation must signal auto-kill")
	}
	if second.Reason != "Weekly HIGH decision cap exceeded (1/1)" {
		t.Errorf("reason = %q", second.Reason)
	}
	if second.Approval.Decision != model.DecisionDenied {
		t.Errorf("denied approval decision = %s", second.Approval.Decision)
	}

	b := e.BudgetStatus()
	if b.HighDecisionsUsed != 1 {
		t.Errorf("used = %d, want 1 (denied attempt consumes nothing)", b.HighDecisionsUsed)
	}
}

func TestGateHighAllowedAgainAfterWeekRollover(t *testing.T) {
	e, fc := newEngine(t)

	if _, err := e.Gate("s1", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{}); err != nil {
		t.Fatalf("Gate: %v", err)
	}
	fc.Advance(7 * 24 * time.Hour)

	res, err := e.Gate("s2", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteAuto {
		t.Errorf("new week should reopen the budget, got %s", res.Route)
	}
}

func TestDecideResolvesManuallyQueuedApproval(t *testing.T) {
	e, _ := newEngine(t)

	res, err := e.Gate("refund-1029", "process", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	a, err := e.Decide(res.Approval.ID, model.DecisionApproved)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if a.Decision != model.DecisionApproved || a.DecidedAt == nil {
		t.Errorf("got %s decided_at=%v", a.Decision, a.DecidedAt)
	}
	if len(e.OpenApprovals()) != 0 {
		t.Error("approved record must leave the open queue")
	}
}

func TestExpirePendingSurfacesOverdueApprovals(t *testing.T) {
	e, fc := newEngine(t)

	res, err := e.Gate("refund-1029", "process", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	fc.Advance(25 * time.Hour)

	expired := e.ExpirePending()
	if len(expired) != 1 || expired[0].ID != res.Approval.ID {
		t.Fatalf("expired = %v", expired)
	}
	// Overdue is advisory: the record is still decidable.
	if _, err := e.Decide(res.Approval.ID, model.DecisionDenied); err != nil {
		t.Errorf("expired approval must remain decidable: %v", err)
	}
}

func TestKillRuleThenRestartAfterCooldown(t *testing.T) {
	e, fc := newEngine(t)

	r, err := e.AddRule("auto-badge-award")
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	res, err := e.KillRule(r.ID)
	if err != nil || !res.Allowed {
		t.Fatalf("Kill: allowed=%v err=%v", res.Allowed, err)
	}

	res, err = e.RestartRule(r.ID)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if res.Allowed {
		t.Fatal("restart inside cooldown must be denied")
	}

	fc.Advance(31 * time.Minute)
	res, err = e.RestartRule(r.ID)
	if err != nil || !res.Allowed {
		t.Fatalf("restart after cooldown: allowed=%v err=%v", res.Allowed, err)
	}
	got, _ := e.board.Get(r.ID)
	if got.Status != model.RuleRunning {
		t.Errorf("status = %s, want running", got.Status)
	}
}

func TestFactsAndEligibilityThroughEngine(t *testing.T) {
	e, _ := newEngine(t)

	err := e.AppendFact(model.Fact{
		EventType: "enrollment",
		SubjectID: "student-17",
		Timestamp: t0,
		Source:    "sis",
		Value:     map[string]any{"course": "go-201"},
	})
	if err != nil {
		t.Fatalf("AppendFact: %v", err)
	}
	if got := e.QueryFacts("student-17", time.Time{}, time.Time{}); len(got) != 1 {
		t.Fatalf("facts = %d, want 1", len(got))
	}

	el := e.CheckEligibility("student", "enroll", model.State{Status: "active"})
	if !el.Eligible {
		t.Error("active subject must be eligible under defaults")
	}
	el = e.CheckEligibility("student", "enroll", model.State{Status: "suspended"})
	if el.Eligible {
		t.Error("suspended subject must not be eligible")
	}
}

func TestSetConfigAppliesNewTaxonomy(t *testing.T) {
	e, _ := newEngine(t)

	cfg := config.Default()
	cfg.Categories = []config.Category{{Name: "inventory", Keywords: []string{"restock"}}}
	if err := e.SetConfig(cfg, "sha256:test"); err != nil {
		t.Fatalf("SetConfig: %v", err)
	}

	res, err := e.Gate("refund-1029", "process", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteAuto {
		t.Errorf("refund keyword dropped from taxonomy, route = %s", res.Route)
	}

	res, err = e.Gate("restock-44", "order", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteManual || res.Category != "inventory" {
		t.Errorf("route = %s category = %q", res.Route, res.Category)
	}
}

func TestSetConfigRejectsInvalid(t *testing.T) {
	e, _ := newEngine(t)
	bad := config.Default()
	bad.ApprovalTTL = -time.Hour
	if err := e.SetConfig(bad, ""); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestEnginesAreIsolated(t *testing.T) {
	a, _ := newEngine(t)
	b, _ := newEngine(t)

	if _, err := a.Gate("s", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{}); err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if got := b.BudgetStatus().HighDecisionsUsed; got != 0 {
		t.Errorf("tenant b budget used = %d, want 0", got)
	}
}

func TestEngineHydratesFromStore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.db")

	st, err := storage.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	e1, fc := newEngine(t, WithStore(st))
	if _, err := e1.Gate("s1", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{}); err != nil {
		t.Fatalf("Gate: %v", err)
	}
	manual, err := e1.Gate("refund-9", "process", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	r, err := e1.AddRule("auto-badge-award")
	if err != nil {
		t.Fatalf("AddRule: %v", err)
	}
	if _, err := e1.KillRule(r.ID); err != nil {
		t.Fatalf("KillRule: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	st2, err := storage.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st2.Close()
	e2, err := New(config.Default(), WithClock(fc), WithStore(st2))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if got := e2.BudgetStatus().HighDecisionsUsed; got != 1 {
		t.Errorf("hydrated budget used = %d, want 1", got)
	}
	open := e2.OpenApprovals()
	if len(open) != 1 || open[0].ID != manual.Approval.ID {
		t.Fatalf("hydrated open approvals = %v", open)
	}
	// The week's slot is spent; a HIGH action is still denied.
	res, err := e2.Gate("s2", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{})
	if err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if res.Route != RouteDenied {
		t.Errorf("route after restart = %s, want %s", res.Route, RouteDenied)
	}
	got, ok := e2.board.Get(r.ID)
	if !ok || got.Status != model.RuleKilled {
		t.Errorf("hydrated rule = %+v ok=%v", got, ok)
	}
}

func TestEngineWritesAuditChain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "audit.jsonl")

	log, err := audit.Open(path)
	if err != nil {
		t.Fatalf("audit.Open: %v", err)
	}
	e, _ := newEngine(t, WithAudit(log), WithConfigHash("sha256:cfg"))

	if _, err := e.Gate("refund-9", "process", model.CostLow, model.ReversibilityEasy, model.BlastLocal, model.FrictionDelta{}); err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if _, err := e.Gate("s1", "migrate", model.CostHigh, model.ReversibilityHard, model.BlastSegment, model.FrictionDelta{}); err != nil {
		t.Fatalf("Gate: %v", err)
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	res := audit.Verify(path)
	if !res.Valid {
		t.Fatalf("chain invalid: %s (line %d)", res.Error, res.ErrorLine)
	}
	if res.Lines != 2 {
		t.Errorf("lines = %d, want 2", res.Lines)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	for _, want := range []audit.Outcome{audit.OutcomeManualQueued, audit.OutcomeAutoApproved} {
		if !strings.Contains(string(raw), `"outcome":"`+string(want)+`"`) {
			t.Errorf("audit log missing outcome %s: %s", want, raw)
		}
	}
}
