// Package govern wires the governance components into one engine: facts
// accumulate, eligibility answers yes/no, and every requested action flows
// through friction, categorization, and the weekly budget before it is
// auto-approved or queued for a human. One Engine per tenant; there is
// no package-level state.
package govern

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ppiankov/decisiongate/internal/approval"
	"github.com/ppiankov/decisiongate/internal/audit"
	"github.com/ppiankov/decisiongate/internal/budget"
	"github.com/ppiankov/decisiongate/internal/category"
	"github.com/ppiankov/decisiongate/internal/clock"
	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/eligibility"
	"github.com/ppiankov/decisiongate/internal/factstore"
	"github.com/ppiankov/decisiongate/internal/friction"
	"github.com/ppiankov/decisiongate/internal/killboard"
	"github.com/ppiankov/decisiongate/internal/model"
	"github.com/ppiankov/decisiongate/internal/storage"
)

// Route is where the gate sent a requested action.
type Route string

const (
	// RouteAuto — no gate objected; the approval was auto-approved.
	RouteAuto Route = "auto"
	// RouteManual — a category match requires human sign-off.
	RouteManual Route = "manual"
	// RouteEscalated — friction forced a jump to human review.
	RouteEscalated Route = "escalated"
	// RouteDenied — the weekly HIGH budget denied the action.
	RouteDenied Route = "denied"
)

// GateResult is the outcome of running one action through the gate.
type GateResult struct {
	Approval model.Approval
	Route    Route
	Category string
	Reason   string
	// AutoKill signals that the caller must kill the rule responsible
	// for the denied HIGH-cost action.
	AutoKill bool
}

// Engine is the per-tenant governance context. All mutable state hangs
// off this struct; two engines in one process are fully isolated.
type Engine struct {
	mu         sync.Mutex
	cfg        *config.Config
	configHash string

	clock     clock.Clock
	facts     *factstore.Store
	approvals *approval.Manager
	limiter   *budget.Limiter
	board     *killboard.Board

	store *storage.Store
	log   *audit.Log
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock injects a clock; tests use a fake to simulate time passing.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithStore attaches a SQLite store. State is written through on every
// mutation and read back at startup.
func WithStore(s *storage.Store) Option {
	return func(e *Engine) { e.store = s }
}

// WithAudit attaches a hash-chained decision log.
func WithAudit(l *audit.Log) Option {
	return func(e *Engine) { e.log = l }
}

// WithConfigHash stamps audit entries with the loaded config's hash.
func WithConfigHash(hash string) Option {
	return func(e *Engine) { e.configHash = hash }
}

// New builds an engine from the given config. Nil config uses defaults.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:   cfg,
		clock: clock.Wall(),
		facts: factstore.New(),
	}
	for _, opt := range opts {
		opt(e)
	}

	e.approvals = approval.NewManager(e.clock, cfg.ApprovalTTL)
	e.limiter = budget.NewLimiter(e.clock, cfg.WeeklyHighCap)
	e.board = killboard.NewBoard(e.clock, cfg.KillCooldown)

	if e.store != nil {
		if err := e.hydrate(); err != nil {
			return nil, fmt.Errorf("hydrate from store: %w", err)
		}
	}
	return e, nil
}

func (e *Engine) hydrate() error {
	ctx := context.Background()

	facts, err := e.store.ListFacts(ctx, "", time.Time{}, time.Time{})
	if err != nil {
		return err
	}
	for _, f := range facts {
		if err := e.facts.Append(f); err != nil {
			return err
		}
	}

	approvals, err := e.store.ListApprovals(ctx)
	if err != nil {
		return err
	}
	e.approvals.Hydrate(approvals)

	rules, err := e.store.ListRules(ctx)
	if err != nil {
		return err
	}
	e.board.Hydrate(rules)

	start, _ := budget.WeekBounds(e.clock.Now())
	if b, ok, err := e.store.GetWeeklyBudget(ctx, start); err != nil {
		return err
	} else if ok {
		e.limiter.Hydrate(b)
	}
	return nil
}

// SetConfig swaps the live governance parameters. Approval TTL,
// friction thresholds, the category taxonomy, and eligibility rules
// take effect immediately; the kill cooldown and weekly cap are fixed
// at construction and need a restart.
func (e *Engine) SetConfig(cfg *config.Config, hash string) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.configHash = hash
	e.mu.Unlock()
	e.approvals.SetTTL(cfg.ApprovalTTL)
	return nil
}

func (e *Engine) snapshot() (*config.Config, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg, e.configHash
}

// AppendFact records one external event in the ledger.
func (e *Engine) AppendFact(f model.Fact) error {
	if err := e.facts.Append(f); err != nil {
		return err
	}
	if e.store != nil {
		if err := e.store.InsertFact(context.Background(), f); err != nil {
			return err
		}
	}
	return nil
}

// QueryFacts returns facts for a subject within [from, until].
func (e *Engine) QueryFacts(subjectID string, from, until time.Time) []model.Fact {
	return e.facts.Query(subjectID, from, until)
}

// CheckEligibility answers whether the action type is permitted for a
// subject in the given state. Boolean only.
func (e *Engine) CheckEligibility(subjectType, actionType string, state model.State) model.Eligibility {
	cfg, _ := e.snapshot()
	return eligibility.Evaluate(subjectType, actionType, state, cfg.Eligibility, e.clock.Now())
}

// Gate runs one requested action through the full control flow:
//
//  1. Create the approval record (always, for audit).
//  2. Friction — a crossed threshold short-circuits to human review.
//  3. Categorization — any money/relation/liability match forces
//     manual sign-off regardless of automation confidence.
//  4. Weekly budget — a HIGH cost over the cap is denied with an
//     auto-kill signal; within the cap it consumes the week's slot.
//  5. Nothing objected: the approval is auto-approved.
func (e *Engine) Gate(subjectID, actionType string, cost model.Cost, rev model.Reversibility, blast model.BlastRadius, delta model.FrictionDelta) (GateResult, error) {
	cfg, cfgHash := e.snapshot()

	a, err := e.approvals.Create(subjectID, actionType, cost, rev, blast)
	if err != nil {
		return GateResult{}, err
	}
	if e.store != nil {
		if err := e.store.InsertApproval(context.Background(), a); err != nil {
			return GateResult{}, err
		}
	}

	entry := audit.Entry{
		ApprovalID: a.ID,
		SubjectID:  subjectID,
		ActionType: actionType,
		ConfigHash: cfgHash,
	}

	if fr := friction.Evaluate(delta, cfg.Friction); fr.Escalate {
		entry.Outcome = audit.OutcomeEscalated
		entry.Reason = fr.Reason
		if err := e.record(entry); err != nil {
			return GateResult{}, err
		}
		return GateResult{Approval: a, Route: RouteEscalated, Reason: fr.Reason}, nil
	}

	if cat := category.Categorize(a, cfg.Categories); cat != category.None {
		reason := fmt.Sprintf("category %s requires manual sign-off", cat)
		entry.Outcome = audit.OutcomeManualQueued
		entry.Reason = reason
		if err := e.record(entry); err != nil {
			return GateResult{}, err
		}
		return GateResult{Approval: a, Route: RouteManual, Category: cat, Reason: reason}, nil
	}

	if cost == model.CostHigh {
		res := e.limiter.ReserveHighDecisionSlot()
		if err := e.persistBudget(); err != nil {
			return GateResult{}, err
		}
		if !res.Allowed {
			denied, err := e.decide(a.ID, model.DecisionDenied)
			if err != nil {
				return GateResult{}, err
			}
			entry.Outcome = audit.OutcomeDenied
			entry.Reason = res.Reason
			if err := e.record(entry); err != nil {
				return GateResult{}, err
			}
			return GateResult{Approval: denied, Route: RouteDenied, Reason: res.Reason, AutoKill: true}, nil
		}
	}

	approved, err := e.decide(a.ID, model.DecisionApproved)
	if err != nil {
		return GateResult{}, err
	}
	entry.Outcome = audit.OutcomeAutoApproved
	if err := e.record(entry); err != nil {
		return GateResult{}, err
	}
	return GateResult{Approval: approved, Route: RouteAuto}, nil
}

// decide resolves an approval and writes it through to storage.
func (e *Engine) decide(id string, d model.Decision) (model.Approval, error) {
	a, err := e.approvals.Decide(id, d)
	if err != nil {
		return model.Approval{}, err
	}
	if e.store != nil {
		if err := e.store.UpdateApprovalDecision(context.Background(), a); err != nil {
			return model.Approval{}, err
		}
	}
	return a, nil
}

// Decide resolves an open approval by a human (or an authorized
// automation) and records the outcome.
func (e *Engine) Decide(id string, d model.Decision) (model.Approval, error) {
	a, err := e.decide(id, d)
	if err != nil {
		return model.Approval{}, err
	}

	_, cfgHash := e.snapshot()
	var outcome audit.Outcome
	switch d {
	case model.DecisionApproved:
		outcome = audit.OutcomeApproved
	case model.DecisionDenied:
		outcome = audit.OutcomeDenied
	case model.DecisionDeferred:
		outcome = audit.OutcomeDeferred
	}
	err = e.record(audit.Entry{
		ApprovalID: a.ID,
		SubjectID:  a.SubjectID,
		ActionType: a.ActionType,
		Outcome:    outcome,
		ConfigHash: cfgHash,
	})
	if err != nil {
		return model.Approval{}, err
	}
	return a, nil
}

// Approvals returns all approval records in creation order.
func (e *Engine) Approvals() []model.Approval { return e.approvals.List() }

// OpenApprovals returns approvals still awaiting a final decision.
func (e *Engine) OpenApprovals() []model.Approval { return e.approvals.Open() }

// ExpirePending surfaces open approvals whose deadline has passed.
// Nothing is decided here — what to do with an expired-but-open
// approval is the caller's escalation policy.
func (e *Engine) ExpirePending() []model.Approval { return e.approvals.Expired() }

// IsExpired reports whether the approval's deadline has passed.
func (e *Engine) IsExpired(a model.Approval) bool { return e.approvals.IsExpired(a) }

// TimeRemaining reports how long the approval stays actionable.
func (e *Engine) TimeRemaining(a model.Approval) approval.Remaining {
	return approval.TimeRemaining(a.Deadline, e.clock.Now())
}

// AddRule registers a running automation rule.
func (e *Engine) AddRule(name string) (model.Rule, error) {
	r, err := e.board.Add(name)
	if err != nil {
		return model.Rule{}, err
	}
	if e.store != nil {
		if err := e.store.InsertRule(context.Background(), r); err != nil {
			return model.Rule{}, err
		}
	}
	return r, nil
}

// KillRule switches a rule off, opening its cooldown window. A denied
// kill (cooldown active, already killed) is an expected outcome carried
// in the result, not an error.
func (e *Engine) KillRule(id string) (killboard.Result, error) {
	res, err := e.board.Kill(id)
	if err != nil || !res.Allowed {
		return res, err
	}
	if err := e.persistRule(id); err != nil {
		return killboard.Result{}, err
	}

	r, _ := e.board.Get(id)
	_, cfgHash := e.snapshot()
	if err := e.record(audit.Entry{
		RuleID:     r.ID,
		Outcome:    audit.OutcomeRuleKilled,
		Reason:     fmt.Sprintf("rule %q killed", r.Name),
		ConfigHash: cfgHash,
	}); err != nil {
		return killboard.Result{}, err
	}
	return res, nil
}

// RestartRule resumes a killed rule once its cooldown has lapsed.
func (e *Engine) RestartRule(id string) (killboard.Result, error) {
	res, err := e.board.Restart(id)
	if err != nil || !res.Allowed {
		return res, err
	}
	if err := e.persistRule(id); err != nil {
		return killboard.Result{}, err
	}

	r, _ := e.board.Get(id)
	_, cfgHash := e.snapshot()
	if err := e.record(audit.Entry{
		RuleID:     r.ID,
		Outcome:    audit.OutcomeRuleRestart,
		Reason:     fmt.Sprintf("rule %q restarted", r.Name),
		ConfigHash: cfgHash,
	}); err != nil {
		return killboard.Result{}, err
	}
	return res, nil
}

// Rules returns all rules in registration order.
func (e *Engine) Rules() []model.Rule { return e.board.List() }

// RuleStatus reports the rule's status with the cooldown window made
// visible.
func (e *Engine) RuleStatus(r model.Rule) model.RuleStatus {
	return e.board.EffectiveStatus(r)
}

// BudgetStatus returns a snapshot of this week's HIGH-decision budget.
func (e *Engine) BudgetStatus() model.WeeklyBudget { return e.limiter.Current() }

func (e *Engine) persistRule(id string) error {
	if e.store == nil {
		return nil
	}
	r, ok := e.board.Get(id)
	if !ok {
		return fmt.Errorf("rule %q not found", id)
	}
	return e.store.UpdateRuleStatus(context.Background(), r)
}

func (e *Engine) persistBudget() error {
	if e.store == nil {
		return nil
	}
	return e.store.UpsertWeeklyBudget(context.Background(), e.limiter.Current())
}

func (e *Engine) record(entry audit.Entry) error {
	if e.log == nil {
		return nil
	}
	return e.log.Record(entry)
}
