package model

import "time"

// Decision is the lifecycle state of an approval record.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionApproved Decision = "APPROVED"
	DecisionDenied   Decision = "DENIED"
	DecisionDeferred Decision = "DEFERRED"
)

// Terminal returns true if the decision can no longer change.
// DEFERRED is re-decidable and is therefore not terminal.
func (d Decision) Terminal() bool {
	return d == DecisionApproved || d == DecisionDenied
}

// Cost classifies the impact tier of a gated decision.
type Cost string

const (
	CostLow  Cost = "LOW"
	CostMed  Cost = "MED"
	CostHigh Cost = "HIGH"
)

// Reversibility indicates how hard a decision is to undo.
type Reversibility string

const (
	ReversibilityEasy Reversibility = "easy"
	ReversibilityHard Reversibility = "hard"
)

// BlastRadius is the scope of impact of a gated action.
type BlastRadius string

const (
	BlastLocal   BlastRadius = "local"
	BlastSegment BlastRadius = "segment"
	BlastGlobal  BlastRadius = "global"
)

// RuleStatus is the lifecycle state of an automation rule.
type RuleStatus string

const (
	RuleRunning  RuleStatus = "running"
	RuleKilled   RuleStatus = "killed"
	RuleCooldown RuleStatus = "cooldown"
)

// Fact is one immutable event in the append-only ledger. Facts are
// produced by external systems (attendance, payments, video pipelines)
// and are read-only to the governance core.
type Fact struct {
	EventType string         `json:"event_type"`
	SubjectID string         `json:"subject_id"`
	Value     map[string]any `json:"value,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source"`
}

// Validate rejects facts missing a required field.
func (f Fact) Validate() error {
	if f.EventType == "" {
		return &ValidationError{Field: "event_type", Reason: "is required"}
	}
	if f.SubjectID == "" {
		return &ValidationError{Field: "subject_id", Reason: "is required"}
	}
	if f.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "is required"}
	}
	if f.Source == "" {
		return &ValidationError{Field: "source", Reason: "is required"}
	}
	return nil
}

// State is a point-in-time derived snapshot of a subject. It is a view
// recomputed on demand, never an authoritative record.
type State struct {
	SubjectType string    `json:"subject_type"`
	Status      string    `json:"status"`
	ComputedAt  time.Time `json:"computed_at"`
}

// Eligibility is a boolean answer to "may subject type X perform action
// type Y now". It deliberately carries no numeric score.
type Eligibility struct {
	SubjectType string    `json:"subject_type"`
	ActionType  string    `json:"action_type"`
	Eligible    bool      `json:"eligible"`
	EvaluatedAt time.Time `json:"evaluated_at"`
}

// Approval is a gated decision request. Records are created PENDING,
// mutated only through the lifecycle manager, and never deleted — a
// superseding decision overwrites the value, the record stays for audit.
//
// Invariant: DecidedAt == nil ⟺ Decision == PENDING.
type Approval struct {
	ID            string        `json:"id"`
	SubjectID     string        `json:"subject_id"`
	ActionType    string        `json:"action_type"`
	Decision      Decision      `json:"decision"`
	DecidedAt     *time.Time    `json:"decided_at,omitempty"`
	Cost          Cost          `json:"decision_cost"`
	Reversibility Reversibility `json:"reversibility"`
	BlastRadius   BlastRadius   `json:"blast_radius"`
	Deadline      time.Time     `json:"deadline"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Open returns true while the approval still needs a final decision.
// A deferred approval re-enters the pending queue, so it counts as open.
func (a Approval) Open() bool {
	return a.Decision == DecisionPending || a.Decision == DecisionDeferred
}

// ValidateTags rejects invalid cost/reversibility/blast radius values
// before any state mutation.
func ValidateTags(cost Cost, rev Reversibility, blast BlastRadius) error {
	switch cost {
	case CostLow, CostMed, CostHigh:
	default:
		return &ValidationError{Field: "decision_cost", Reason: "must be one of LOW, MED, HIGH"}
	}
	switch rev {
	case ReversibilityEasy, ReversibilityHard:
	default:
		return &ValidationError{Field: "reversibility", Reason: `must be "easy" or "hard"`}
	}
	switch blast {
	case BlastLocal, BlastSegment, BlastGlobal:
	default:
		return &ValidationError{Field: "blast_radius", Reason: "must be one of local, segment, global"}
	}
	return nil
}

// Rule is a switchable automation rule tracked by the kill board.
type Rule struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Status        RuleStatus `json:"status"`
	StartedAt     time.Time  `json:"started_at"`
	KilledAt      *time.Time `json:"killed_at,omitempty"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty"`
}

// WeeklyBudget caps HIGH-cost decisions for one ISO week. A stale week's
// counter is never mutated; crossing the boundary constructs a new value.
type WeeklyBudget struct {
	HighDecisionsUsed int       `json:"high_decisions_used"`
	HighDecisionsCap  int       `json:"high_decisions_cap"`
	WeekStart         time.Time `json:"week_start"`
	WeekEnd           time.Time `json:"week_end"`
}

// FrictionDelta is a rolling-window snapshot of operational friction
// signals, recomputed by the caller and evaluated against fixed
// thresholds by the monitor.
type FrictionDelta struct {
	Questions     int       `json:"questions"`
	Interventions int       `json:"interventions"`
	Exceptions    int       `json:"exceptions"`
	Escalations   int       `json:"escalations"`
	ComputedAt    time.Time `json:"computed_at"`
}
