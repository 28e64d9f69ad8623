/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements the persistence contracts (payroll.RuleSetStore,
  payroll.RunStore) using SQLite. In production, the same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  rule_sets:    Versioned labor rule configurations. The full config
                (including the bracket table) is stored as the factory's
                JSON blob next to the indexed resolution columns.
  payroll_runs: Run identity, state and totals.
  run_ledgers:  Per-employee totals per run.
  ledger_lines: Itemized payslip lines, ordered.

IMMUTABILITY ENFORCEMENT:
  Rule sets are insert-only; a change in law is a new row with a later
  effective-from. Runs are replaced wholesale inside a transaction, and
  only through Update, which the engine calls for state transitions,
  draft recomputation and audited adjustment appends.

UNIQUENESS:
  A partial unique index on (jurisdiction, year, month, half, run_type)
  WHERE state != 'voided' enforces the one-active-run-per-slot rule in
  the database itself, so voiding a run frees the slot for a correction.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

USAGE:
  st, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer st.Close()

  engine := payroll.NewEngine(st.RuleSets(), st.Runs())

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - payroll/store.go: Interface definitions
  - payroll/store/memory.go: In-memory implementation for testing
  - factory/ruleset.go: Schema of the stored rule-set config blob
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
)

// Store owns the database connection. The typed views RuleSets() and
// Runs() expose the payroll persistence interfaces.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// RuleSets returns the payroll.RuleSetStore view.
func (s *Store) RuleSets() payroll.RuleSetStore { return &ruleSetStore{db: s.db} }

// Runs returns the payroll.RunStore view.
func (s *Store) Runs() payroll.RunStore { return &runStore{db: s.db} }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS rule_sets (
		id             TEXT PRIMARY KEY,
		jurisdiction   TEXT NOT NULL,
		version        INTEGER NOT NULL,
		effective_from TEXT NOT NULL,
		effective_to   TEXT,
		config         TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_rule_sets_jurisdiction
		ON rule_sets(jurisdiction, effective_from);

	CREATE TABLE IF NOT EXISTS payroll_runs (
		id               TEXT PRIMARY KEY,
		jurisdiction     TEXT NOT NULL,
		year             INTEGER NOT NULL,
		month            INTEGER NOT NULL,
		half             INTEGER NOT NULL,
		run_type         TEXT NOT NULL,
		rule_set_id      TEXT NOT NULL REFERENCES rule_sets(id),
		state            TEXT NOT NULL,
		total_gross      TEXT NOT NULL,
		total_deductions TEXT NOT NULL,
		total_net        TEXT NOT NULL,
		employer_json    TEXT NOT NULL,
		created_at       TEXT NOT NULL,
		computed_at      TEXT NOT NULL,
		approved_at      TEXT,
		approved_by      TEXT NOT NULL DEFAULT '',
		paid_at          TEXT,
		voided_at        TEXT,
		void_reason      TEXT NOT NULL DEFAULT ''
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_active_run_slot
		ON payroll_runs(jurisdiction, year, month, half, run_type)
		WHERE state != 'voided';

	CREATE TABLE IF NOT EXISTS run_ledgers (
		run_id            TEXT NOT NULL REFERENCES payroll_runs(id),
		employee_id       TEXT NOT NULL,
		gross             TEXT NOT NULL,
		deductions        TEXT NOT NULL,
		net               TEXT NOT NULL,
		contribution_base TEXT NOT NULL,
		PRIMARY KEY (run_id, employee_id)
	);

	CREATE TABLE IF NOT EXISTS ledger_lines (
		run_id      TEXT NOT NULL,
		employee_id TEXT NOT NULL,
		ord         INTEGER NOT NULL,
		concept     TEXT NOT NULL,
		label       TEXT NOT NULL,
		kind        TEXT NOT NULL,
		base        TEXT NOT NULL,
		rate        TEXT,
		amount      TEXT NOT NULL,
		manual      INTEGER NOT NULL,
		entered_by  TEXT NOT NULL DEFAULT '',
		entered_at  TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (run_id, employee_id, ord),
		FOREIGN KEY (run_id, employee_id) REFERENCES run_ledgers(run_id, employee_id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RULE SET STORE
// =============================================================================

type ruleSetStore struct {
	db *sql.DB
}

var _ payroll.RuleSetStore = (*ruleSetStore)(nil)

func (s *ruleSetStore) Save(ctx context.Context, rs payroll.LaborRuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	config, err := json.Marshal(factory.ToJSON(&rs))
	if err != nil {
		return fmt.Errorf("failed to serialize rule set %s: %w", rs.ID, err)
	}

	var to interface{}
	if rs.EffectiveTo != nil {
		to = rs.EffectiveTo.Format("2006-01-02")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rule_sets (id, jurisdiction, version, effective_from, effective_to, config)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(rs.ID), string(rs.Jurisdiction), rs.Version,
		rs.EffectiveFrom.Format("2006-01-02"), to, string(config))
	if err != nil {
		return fmt.Errorf("failed to save rule set %s: %w", rs.ID, err)
	}
	return nil
}

func (s *ruleSetStore) ForJurisdiction(ctx context.Context, jurisdiction payroll.JurisdictionCode) ([]payroll.LaborRuleSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT config FROM rule_sets WHERE jurisdiction = ? ORDER BY effective_from`,
		string(jurisdiction))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []payroll.LaborRuleSet
	for rows.Next() {
		var config string
		if err := rows.Scan(&config); err != nil {
			return nil, err
		}
		rs, err := factory.ParseRuleSet(config)
		if err != nil {
			return nil, fmt.Errorf("stored rule set is corrupt: %w", err)
		}
		out = append(out, *rs)
	}
	return out, rows.Err()
}

func (s *ruleSetStore) Get(ctx context.Context, id payroll.RuleSetID) (*payroll.LaborRuleSet, error) {
	var config string
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM rule_sets WHERE id = ?`, string(id)).Scan(&config)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return factory.ParseRuleSet(config)
}

// =============================================================================
// RUN STORE
// =============================================================================

type runStore struct {
	db *sql.DB
}

var _ payroll.RunStore = (*runStore)(nil)

func (s *runStore) Save(ctx context.Context, run *payroll.PayrollRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := insertRun(ctx, tx, run); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s %s %s", payroll.ErrDuplicateRun,
				run.Jurisdiction, run.Period, run.Type)
		}
		return err
	}
	if err := insertLedgers(ctx, tx, run); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *runStore) Update(ctx context.Context, run *payroll.PayrollRun) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ledger_lines WHERE run_id = ?`, string(run.ID)); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM run_ledgers WHERE run_id = ?`, string(run.ID)); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM payroll_runs WHERE id = ?`, string(run.ID))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return payroll.ErrRunNotFound
	}

	if err := insertRun(ctx, tx, run); err != nil {
		return err
	}
	if err := insertLedgers(ctx, tx, run); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *runStore) Get(ctx context.Context, id payroll.RunID) (*payroll.PayrollRun, error) {
	run, err := s.scanRun(ctx, `WHERE id = ?`, string(id))
	if err != nil {
		return nil, err
	}
	if run == nil {
		return nil, payroll.ErrRunNotFound
	}
	return run, nil
}

func (s *runStore) ActiveForPeriod(ctx context.Context, jurisdiction payroll.JurisdictionCode, period payroll.PayPeriod, runType payroll.RunType) (*payroll.PayrollRun, error) {
	return s.scanRun(ctx,
		`WHERE jurisdiction = ? AND year = ? AND month = ? AND half = ? AND run_type = ? AND state != 'voided'`,
		string(jurisdiction), period.Year, int(period.Month), int(period.Half), string(runType))
}

// -----------------------------------------------------------------------------
// Row mapping
// -----------------------------------------------------------------------------

type employerJSON struct {
	SocialSecurity string `json:"social_security"`
	TrainingFund   string `json:"training_fund"`
	LaborRisk      string `json:"labor_risk"`
	BonusAccrual   string `json:"bonus_accrual"`
	Total          string `json:"total"`
}

func insertRun(ctx context.Context, tx *sql.Tx, run *payroll.PayrollRun) error {
	employer, err := json.Marshal(employerJSON{
		SocialSecurity: run.Employer.SocialSecurity.String(),
		TrainingFund:   run.Employer.TrainingFund.String(),
		LaborRisk:      run.Employer.LaborRisk.String(),
		BonusAccrual:   run.Employer.BonusAccrual.String(),
		Total:          run.Employer.Total.String(),
	})
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payroll_runs (
			id, jurisdiction, year, month, half, run_type, rule_set_id, state,
			total_gross, total_deductions, total_net, employer_json,
			created_at, computed_at, approved_at, approved_by, paid_at, voided_at, void_reason
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(run.ID), string(run.Jurisdiction),
		run.Period.Year, int(run.Period.Month), int(run.Period.Half),
		string(run.Type), string(run.RuleSetID), string(run.State),
		run.TotalGross.String(), run.TotalDeductions.String(), run.TotalNet.String(),
		string(employer),
		run.CreatedAt.Format(time.RFC3339), run.ComputedAt.Format(time.RFC3339),
		nullTime(run.ApprovedAt), run.ApprovedBy,
		nullTime(run.PaidAt), nullTime(run.VoidedAt), run.VoidReason)
	return err
}

func insertLedgers(ctx context.Context, tx *sql.Tx, run *payroll.PayrollRun) error {
	for _, l := range run.Ledgers {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO run_ledgers (run_id, employee_id, gross, deductions, net, contribution_base)
			VALUES (?, ?, ?, ?, ?, ?)`,
			string(run.ID), string(l.EmployeeID),
			l.Gross.String(), l.Deductions.String(), l.Net.String(),
			l.ContributionBase.String())
		if err != nil {
			return err
		}

		for _, line := range l.Lines {
			var rate interface{}
			if line.Rate != nil {
				rate = line.Rate.String()
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO ledger_lines (run_id, employee_id, ord, concept, label, kind,
					base, rate, amount, manual, entered_by, entered_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				string(run.ID), string(l.EmployeeID), line.Order,
				string(line.Concept), line.Label, string(line.Kind),
				line.Base.String(), rate, line.Amount.String(),
				boolToInt(line.Manual), line.EnteredBy, line.EnteredAt)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *runStore) scanRun(ctx context.Context, where string, args ...interface{}) (*payroll.PayrollRun, error) {
	query := `
		SELECT id, jurisdiction, year, month, half, run_type, rule_set_id, state,
			total_gross, total_deductions, total_net, employer_json,
			created_at, computed_at, approved_at, approved_by, paid_at, voided_at, void_reason
		FROM payroll_runs ` + where

	var (
		run        payroll.PayrollRun
		id, jur    string
		year       int
		month      int
		half       int
		runType    string
		ruleSetID  string
		state      string
		gross      string
		deductions string
		net        string
		employer   string
		createdAt  string
		computedAt string
		approvedAt sql.NullString
		paidAt     sql.NullString
		voidedAt   sql.NullString
	)
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&id, &jur, &year, &month, &half, &runType, &ruleSetID, &state,
		&gross, &deductions, &net, &employer,
		&createdAt, &computedAt, &approvedAt, &run.ApprovedBy,
		&paidAt, &voidedAt, &run.VoidReason)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	run.ID = payroll.RunID(id)
	run.Jurisdiction = payroll.JurisdictionCode(jur)
	run.Period = payroll.PayPeriod{Year: year, Month: time.Month(month), Half: payroll.HalfMonth(half)}
	run.Type = payroll.RunType(runType)
	run.RuleSetID = payroll.RuleSetID(ruleSetID)
	run.State = payroll.RunState(state)
	run.TotalGross = payroll.MustParseMoney(gross)
	run.TotalDeductions = payroll.MustParseMoney(deductions)
	run.TotalNet = payroll.MustParseMoney(net)

	var ej employerJSON
	if err := json.Unmarshal([]byte(employer), &ej); err != nil {
		return nil, fmt.Errorf("stored employer summary is corrupt: %w", err)
	}
	run.Employer = payroll.EmployerContributionSummary{
		SocialSecurity: payroll.MustParseMoney(ej.SocialSecurity),
		TrainingFund:   payroll.MustParseMoney(ej.TrainingFund),
		LaborRisk:      payroll.MustParseMoney(ej.LaborRisk),
		BonusAccrual:   payroll.MustParseMoney(ej.BonusAccrual),
		Total:          payroll.MustParseMoney(ej.Total),
	}

	run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	run.ComputedAt, _ = time.Parse(time.RFC3339, computedAt)
	run.ApprovedAt = parseNullTime(approvedAt)
	run.PaidAt = parseNullTime(paidAt)
	run.VoidedAt = parseNullTime(voidedAt)

	if err := s.loadLedgers(ctx, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func (s *runStore) loadLedgers(ctx context.Context, run *payroll.PayrollRun) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, gross, deductions, net, contribution_base
		FROM run_ledgers WHERE run_id = ? ORDER BY employee_id`,
		string(run.ID))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var employeeID, gross, deductions, net, base string
		if err := rows.Scan(&employeeID, &gross, &deductions, &net, &base); err != nil {
			return err
		}
		run.Ledgers = append(run.Ledgers, payroll.EmployeeLedger{
			EmployeeID:       payroll.EmployeeID(employeeID),
			Gross:            payroll.MustParseMoney(gross),
			Deductions:       payroll.MustParseMoney(deductions),
			Net:              payroll.MustParseMoney(net),
			ContributionBase: payroll.MustParseMoney(base),
		})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range run.Ledgers {
		if err := s.loadLines(ctx, run.ID, &run.Ledgers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (s *runStore) loadLines(ctx context.Context, runID payroll.RunID, ledger *payroll.EmployeeLedger) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ord, concept, label, kind, base, rate, amount, manual, entered_by, entered_at
		FROM ledger_lines WHERE run_id = ? AND employee_id = ? ORDER BY ord`,
		string(runID), string(ledger.EmployeeID))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			line    payroll.PayLedgerLine
			concept string
			kind    string
			base    string
			rate    sql.NullString
			amount  string
			manual  int
		)
		if err := rows.Scan(&line.Order, &concept, &line.Label, &kind,
			&base, &rate, &amount, &manual, &line.EnteredBy, &line.EnteredAt); err != nil {
			return err
		}
		line.Concept = payroll.ConceptCode(concept)
		line.Kind = payroll.LineKind(kind)
		line.Base = payroll.MustParseMoney(base)
		if rate.Valid {
			r := payroll.MustParseDecimal(rate.String)
			line.Rate = &r
		}
		line.Amount = payroll.MustParseMoney(amount)
		line.Manual = manual != 0
		ledger.Lines = append(ledger.Lines, line)
	}
	return rows.Err()
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil
	}
	return &t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
