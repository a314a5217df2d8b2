// Package storage persists the governance state in SQLite: an
// insert-only facts table, approvals with in-place decision updates,
// rules with in-place status updates, and one weekly_budget row per ISO
// week. The in-memory components stay authoritative at runtime; this
// layer makes state survive restarts and lets the CLI inspect it across
// processes.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ppiankov/decisiongate/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS facts (
	seq         INTEGER PRIMARY KEY AUTOINCREMENT,
	event_type  TEXT NOT NULL,
	subject_id  TEXT NOT NULL,
	value_json  TEXT NOT NULL DEFAULT '{}',
	ts_ms       INTEGER NOT NULL,
	source      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_facts_subject ON facts(subject_id, ts_ms);

CREATE TABLE IF NOT EXISTS approvals (
	id            TEXT PRIMARY KEY,
	subject_id    TEXT NOT NULL,
	action_type   TEXT NOT NULL,
	decision      TEXT NOT NULL,
	decided_at_ms INTEGER,
	cost          TEXT NOT NULL,
	reversibility TEXT NOT NULL,
	blast_radius  TEXT NOT NULL,
	deadline_ms   INTEGER NOT NULL,
	created_at_ms INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS rules (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	status            TEXT NOT NULL,
	started_at_ms     INTEGER NOT NULL,
	killed_at_ms      INTEGER,
	cooldown_until_ms INTEGER
);

CREATE TABLE IF NOT EXISTS weekly_budget (
	week_start_ms INTEGER PRIMARY KEY,
	week_end_ms   INTEGER NOT NULL,
	high_used     INTEGER NOT NULL,
	high_cap      INTEGER NOT NULL
);
`

// Store persists governance state in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toMillisPtr(value *time.Time) *int64 {
	if value == nil {
		return nil
	}
	ms := toMillis(*value)
	return &ms
}

func fromMillisPtr(value *int64) *time.Time {
	if value == nil {
		return nil
	}
	t := fromMillis(*value)
	return &t
}

// Open opens a SQLite governance store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// InsertFact appends one fact row. There is deliberately no update or
// delete statement for facts anywhere in this package.
func (s *Store) InsertFact(ctx context.Context, f model.Fact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	value := f.Value
	if value == nil {
		value = map[string]any{}
	}
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal fact value: %w", err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO facts (event_type, subject_id, value_json, ts_ms, source) VALUES (?, ?, ?, ?, ?)`,
		f.EventType, f.SubjectID, string(valueJSON), toMillis(f.Timestamp), f.Source)
	if err != nil {
		return fmt.Errorf("insert fact: %w", err)
	}
	return nil
}

// ListFacts returns facts in insertion order, optionally filtered by
// subject and [from, until]. Zero times mean unbounded.
func (s *Store) ListFacts(ctx context.Context, subjectID string, from, until time.Time) ([]model.Fact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	query := `SELECT event_type, subject_id, value_json, ts_ms, source FROM facts`
	var conds []string
	var args []any
	if subjectID != "" {
		conds = append(conds, "subject_id = ?")
		args = append(args, subjectID)
	}
	if !from.IsZero() {
		conds = append(conds, "ts_ms >= ?")
		args = append(args, toMillis(from))
	}
	if !until.IsZero() {
		conds = append(conds, "ts_ms <= ?")
		args = append(args, toMillis(until))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY seq"

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list facts: %w", err)
	}
	defer rows.Close()

	var out []model.Fact
	for rows.Next() {
		var f model.Fact
		var valueJSON string
		var tsMs int64
		if err := rows.Scan(&f.EventType, &f.SubjectID, &valueJSON, &tsMs, &f.Source); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		if err := json.Unmarshal([]byte(valueJSON), &f.Value); err != nil {
			return nil, fmt.Errorf("unmarshal fact value: %w", err)
		}
		f.Timestamp = fromMillis(tsMs)
		out = append(out, f)
	}
	return out, rows.Err()
}

// InsertApproval inserts one approval record.
func (s *Store) InsertApproval(ctx context.Context, a model.Approval) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO approvals (id, subject_id, action_type, decision, decided_at_ms, cost, reversibility, blast_radius, deadline_ms, created_at_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.SubjectID, a.ActionType, string(a.Decision), toMillisPtr(a.DecidedAt),
		string(a.Cost), string(a.Reversibility), string(a.BlastRadius),
		toMillis(a.Deadline), toMillis(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// UpdateApprovalDecision updates the decision fields of an existing
// record in place. The row itself is never deleted.
func (s *Store) UpdateApprovalDecision(ctx context.Context, a model.Approval) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE approvals SET decision = ?, decided_at_ms = ?, deadline_ms = ? WHERE id = ?`,
		string(a.Decision), toMillisPtr(a.DecidedAt), toMillis(a.Deadline), a.ID)
	if err != nil {
		return fmt.Errorf("update approval: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update approval: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("approval %q not found", a.ID)
	}
	return nil
}

// ListApprovals returns all approvals in creation order.
func (s *Store) ListApprovals(ctx context.Context) ([]model.Approval, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, subject_id, action_type, decision, decided_at_ms, cost, reversibility, blast_radius, deadline_ms, created_at_ms
		 FROM approvals ORDER BY created_at_ms, id`)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	defer rows.Close()

	var out []model.Approval
	for rows.Next() {
		var a model.Approval
		var decision, cost, rev, blast string
		var decidedMs *int64
		var deadlineMs, createdMs int64
		if err := rows.Scan(&a.ID, &a.SubjectID, &a.ActionType, &decision, &decidedMs,
			&cost, &rev, &blast, &deadlineMs, &createdMs); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		a.Decision = model.Decision(decision)
		a.DecidedAt = fromMillisPtr(decidedMs)
		a.Cost = model.Cost(cost)
		a.Reversibility = model.Reversibility(rev)
		a.BlastRadius = model.BlastRadius(blast)
		a.Deadline = fromMillis(deadlineMs)
		a.CreatedAt = fromMillis(createdMs)
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertRule inserts one rule record.
func (s *Store) InsertRule(ctx context.Context, r model.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rules (id, name, status, started_at_ms, killed_at_ms, cooldown_until_ms) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Name, string(r.Status), toMillis(r.StartedAt),
		toMillisPtr(r.KilledAt), toMillisPtr(r.CooldownUntil))
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	return nil
}

// UpdateRuleStatus updates a rule's lifecycle fields in place.
func (s *Store) UpdateRuleStatus(ctx context.Context, r model.Rule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.sqlDB.ExecContext(ctx,
		`UPDATE rules SET status = ?, started_at_ms = ?, killed_at_ms = ?, cooldown_until_ms = ? WHERE id = ?`,
		string(r.Status), toMillis(r.StartedAt), toMillisPtr(r.KilledAt), toMillisPtr(r.CooldownUntil), r.ID)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("rule %q not found", r.ID)
	}
	return nil
}

// ListRules returns all rules in start order.
func (s *Store) ListRules(ctx context.Context) ([]model.Rule, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT id, name, status, started_at_ms, killed_at_ms, cooldown_until_ms FROM rules ORDER BY started_at_ms, id`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []model.Rule
	for rows.Next() {
		var r model.Rule
		var status string
		var startedMs int64
		var killedMs, cooldownMs *int64
		if err := rows.Scan(&r.ID, &r.Name, &status, &startedMs, &killedMs, &cooldownMs); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Status = model.RuleStatus(status)
		r.StartedAt = fromMillis(startedMs)
		r.KilledAt = fromMillisPtr(killedMs)
		r.CooldownUntil = fromMillisPtr(cooldownMs)
		out = append(out, r)
	}
	return out, rows.Err()
}

// UpsertWeeklyBudget stores the counter for the budget's week. One row
// per ISO week; a new week inserts a new row, leaving past weeks as
// they ended.
func (s *Store) UpsertWeeklyBudget(ctx context.Context, b model.WeeklyBudget) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO weekly_budget (week_start_ms, week_end_ms, high_used, high_cap) VALUES (?, ?, ?, ?)
		 ON CONFLICT(week_start_ms) DO UPDATE SET high_used = excluded.high_used, high_cap = excluded.high_cap`,
		toMillis(b.WeekStart), toMillis(b.WeekEnd), b.HighDecisionsUsed, b.HighDecisionsCap)
	if err != nil {
		return fmt.Errorf("upsert weekly budget: %w", err)
	}
	return nil
}

// GetWeeklyBudget returns the stored budget for the week starting at
// weekStart, if any.
func (s *Store) GetWeeklyBudget(ctx context.Context, weekStart time.Time) (model.WeeklyBudget, bool, error) {
	if err := ctx.Err(); err != nil {
		return model.WeeklyBudget{}, false, err
	}
	var b model.WeeklyBudget
	var startMs, endMs int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT week_start_ms, week_end_ms, high_used, high_cap FROM weekly_budget WHERE week_start_ms = ?`,
		toMillis(weekStart)).Scan(&startMs, &endMs, &b.HighDecisionsUsed, &b.HighDecisionsCap)
	if err == sql.ErrNoRows {
		return model.WeeklyBudget{}, false, nil
	}
	if err != nil {
		return model.WeeklyBudget{}, false, fmt.Errorf("get weekly budget: %w", err)
	}
	b.WeekStart = fromMillis(startMs)
	b.WeekEnd = fromMillis(endMs)
	return b, true, nil
}
