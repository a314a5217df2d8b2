package audit

// Outcome names the governance event an audit entry records.
type Outcome string

const (
	OutcomeAutoApproved Outcome = "auto_approved"
	OutcomeManualQueued Outcome = "manual_queued"
	OutcomeEscalated    Outcome = "escalated"
	OutcomeDenied       Outcome = "denied"
	OutcomeApproved     Outcome = "approved"
	OutcomeDeferred     Outcome = "deferred"
	OutcomeRuleKilled   Outcome = "rule_killed"
	OutcomeRuleRestart  Outcome = "rule_restarted"
)

// Entry is one line in the hash-chained JSONL decision log. All fields
// are flat scalars to guarantee deterministic json.Marshal field order
// for reproducible hashing.
type Entry struct {
	Timestamp  string  `json:"ts"`
	ApprovalID string  `json:"approval_id,omitempty"`
	RuleID     string  `json:"rule_id,omitempty"`
	SubjectID  string  `json:"subject_id,omitempty"`
	ActionType string  `json:"action_type,omitempty"`
	Outcome    Outcome `json:"outcome"`
	Reason     string  `json:"reason,omitempty"`
	ConfigHash string  `json:"config_hash,omitempty"`
	PrevHash   string  `json:"prev_hash"`
}
