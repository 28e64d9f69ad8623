/*
engine.go - Run computation orchestration

PURPOSE:
  The Engine is the entry point collaborators call. It resolves a single
  rule-set snapshot for the run, computes every employee's ledger from
  that snapshot, aggregates, and persists - or fails as a whole.

CONCURRENCY MODEL:
  Employee ledgers within a run are independent: each reads the same
  immutable rule set and its own input snapshot, with no shared mutable
  state. They are computed in parallel; aggregation is the
  synchronization point and waits for all of them. A failure in any
  single ledger aborts the whole computation (all-or-nothing) - a run is
  either fully computed or left in its prior state, never partial.

IDEMPOTENCE:
  Recomputing a Draft run with unchanged inputs produces identical
  ledgers and totals: inputs are sorted by employee ID before fan-out,
  decimal arithmetic is deterministic, and results are collected by
  index, so goroutine scheduling never affects output.

SEE ALSO:
  - ledger.go: Per-employee computation
  - run.go: State machine and aggregation
  - store.go: Persistence contracts
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Resolver *RuleResolver
	Runs     RunStore

	// Now is injectable for deterministic tests; defaults to time.Now.
	Now func() time.Time
}

func NewEngine(ruleSets RuleSetStore, runs RunStore) *Engine {
	return &Engine{
		Resolver: NewRuleResolver(ruleSets),
		Runs:     runs,
		Now:      time.Now,
	}
}

// RunSpec describes the run to compute: the period identity and the
// employee input snapshots gathered from the external collaborators.
type RunSpec struct {
	Jurisdiction JurisdictionCode
	Period       PayPeriod
	Type         RunType
	Employees    []EmployeeInput
}

// ComputeRun computes a fully populated Draft run, or returns a typed
// failure without persisting anything.
func (e *Engine) ComputeRun(ctx context.Context, spec RunSpec) (*PayrollRun, error) {
	if err := spec.Period.Validate(); err != nil {
		return nil, err
	}
	if !spec.Type.Valid() {
		return nil, fmt.Errorf("invalid run type %q", spec.Type)
	}

	if existing, err := e.Runs.ActiveForPeriod(ctx, spec.Jurisdiction, spec.Period, spec.Type); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s %s %s (run %s)",
			ErrDuplicateRun, spec.Jurisdiction, spec.Period, spec.Type, existing.ID)
	}

	rules, err := e.Resolver.Resolve(ctx, spec.Jurisdiction, spec.Period.End())
	if err != nil {
		return nil, err
	}

	ledgers, err := e.computeLedgers(rules, spec)
	if err != nil {
		return nil, err
	}

	id, err := e.freeRunID(ctx, spec)
	if err != nil {
		return nil, err
	}

	now := e.Now().UTC()
	run := &PayrollRun{
		ID:           id,
		Jurisdiction: spec.Jurisdiction,
		Period:       spec.Period,
		Type:         spec.Type,
		RuleSetID:    rules.ID,
		State:        RunDraft,
		Ledgers:      ledgers,
		CreatedAt:    now,
		ComputedAt:   now,
	}
	NewRunAggregator(rules).Aggregate(run)

	if err := e.Runs.Save(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// RecomputeRun re-runs calculation for a Draft run with fresh inputs.
// Approved and Paid runs are immutable snapshots and are rejected.
func (e *Engine) RecomputeRun(ctx context.Context, runID RunID, employees []EmployeeInput) (*PayrollRun, error) {
	run, err := e.Runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !run.CanRecompute() {
		return nil, &StateTransitionError{RunID: run.ID, From: run.State, To: RunDraft}
	}

	// Recomputation must use the same snapshot as the original pass.
	// Resolve again and require the same rule-set version; if the rules
	// changed under the draft, surface it instead of mixing versions.
	rules, err := e.Resolver.Resolve(ctx, run.Jurisdiction, run.Period.End())
	if err != nil {
		return nil, err
	}
	if rules.ID != run.RuleSetID {
		return nil, fmt.Errorf("rule set changed under draft run %s: had %s, resolved %s",
			run.ID, run.RuleSetID, rules.ID)
	}

	ledgers, err := e.computeLedgers(rules, RunSpec{
		Jurisdiction: run.Jurisdiction,
		Period:       run.Period,
		Type:         run.Type,
		Employees:    employees,
	})
	if err != nil {
		return nil, err
	}

	run.Ledgers = ledgers
	run.ComputedAt = e.Now().UTC()
	NewRunAggregator(rules).Aggregate(run)

	if err := e.Runs.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// computeLedgers fans the per-employee work out and joins it
// all-or-nothing. Inputs are sorted by employee ID first so output
// ordering - and therefore recomputation - is deterministic.
func (e *Engine) computeLedgers(rules *LaborRuleSet, spec RunSpec) ([]EmployeeLedger, error) {
	inputs := make([]EmployeeInput, len(spec.Employees))
	copy(inputs, spec.Employees)
	sort.Slice(inputs, func(i, j int) bool {
		return inputs[i].Profile.EmployeeID < inputs[j].Profile.EmployeeID
	})

	builder := NewLedgerBuilder(rules, spec.Period, spec.Type)
	ledgers := make([]EmployeeLedger, len(inputs))
	errs := make([]error, len(inputs))

	var wg sync.WaitGroup
	for i := range inputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ledger, err := builder.Build(inputs[i])
			if err != nil {
				errs[i] = err
				return
			}
			ledgers[i] = *ledger
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return ledgers, nil
}

// ApproveRun transitions a Draft run to Approved.
func (e *Engine) ApproveRun(ctx context.Context, runID RunID, approvedBy string) (*PayrollRun, error) {
	run, err := e.Runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := run.Approve(approvedBy, e.Now().UTC()); err != nil {
		return nil, err
	}
	if err := e.Runs.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// PayRun transitions an Approved run to Paid.
func (e *Engine) PayRun(ctx context.Context, runID RunID) (*PayrollRun, error) {
	run, err := e.Runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := run.MarkPaid(e.Now().UTC()); err != nil {
		return nil, err
	}
	if err := e.Runs.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// VoidRun transitions a Draft or Approved run to Voided, freeing the
// (period, type) slot for a corrected run.
func (e *Engine) VoidRun(ctx context.Context, runID RunID, reason string) (*PayrollRun, error) {
	run, err := e.Runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if err := run.Void(reason, e.Now().UTC()); err != nil {
		return nil, err
	}
	if err := e.Runs.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// AppendAdjustment appends a manual adjustment line to one employee's
// ledger on an Approved run, with a full audit trail. This is the only
// sanctioned mutation of an Approved run; Draft runs recompute instead,
// and Paid runs reject all edits.
func (e *Engine) AppendAdjustment(ctx context.Context, runID RunID, employeeID EmployeeID, adj Adjustment) (*PayrollRun, error) {
	run, err := e.Runs.Get(ctx, runID)
	if err != nil {
		return nil, err
	}
	if run.State != RunApproved {
		return nil, fmt.Errorf("%w: adjustments append only to approved runs, run %s is %s",
			ErrInvalidStateTransition, run.ID, run.State)
	}
	if adj.EnteredBy == "" {
		return nil, fmt.Errorf("adjustment on run %s requires an actor for the audit trail", run.ID)
	}

	rules, err := e.Resolver.Store.Get(ctx, run.RuleSetID)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		return nil, fmt.Errorf("rule set %s referenced by run %s not found", run.RuleSetID, run.ID)
	}

	var ledger *EmployeeLedger
	for i := range run.Ledgers {
		if run.Ledgers[i].EmployeeID == employeeID {
			ledger = &run.Ledgers[i]
			break
		}
	}
	if ledger == nil {
		return nil, fmt.Errorf("employee %s has no ledger in run %s", employeeID, run.ID)
	}

	if adj.EnteredAt.IsZero() {
		adj.EnteredAt = e.Now().UTC()
	}
	line := PayLedgerLine{
		Concept:   ConceptAdjustment,
		Label:     adj.Label,
		Kind:      adj.Kind,
		Base:      adj.Amount,
		Amount:    rules.Rounding.Apply(adj.Amount),
		Manual:    true,
		EnteredBy: adj.EnteredBy,
		EnteredAt: adj.EnteredAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		Order:     len(ledger.Lines) + 1,
	}
	ledger.Lines = append(ledger.Lines, line)

	if err := ledger.RecalculateTotals(); err != nil {
		// Fail closed: drop the appended line, leave the run untouched.
		ledger.Lines = ledger.Lines[:len(ledger.Lines)-1]
		ledger.RecalculateTotals()
		return nil, err
	}

	NewRunAggregator(rules).Aggregate(run)
	if err := e.Runs.Update(ctx, run); err != nil {
		return nil, err
	}
	return run, nil
}

// =============================================================================
// PROJECTIONS - Read-only views for report builders and the API
// =============================================================================

// RegisterRow is one row of the payroll register report.
type RegisterRow struct {
	EmployeeID EmployeeID
	Gross      Money
	Deductions Money
	Net        Money
}

// Register returns the per-employee register rows for a run.
func Register(run *PayrollRun) []RegisterRow {
	rows := make([]RegisterRow, len(run.Ledgers))
	for i, l := range run.Ledgers {
		rows[i] = RegisterRow{
			EmployeeID: l.EmployeeID,
			Gross:      l.Gross,
			Deductions: l.Deductions,
			Net:        l.Net,
		}
	}
	return rows
}

// LedgerFor returns one employee's ledger from a run, or nil.
func LedgerFor(run *PayrollRun, employeeID EmployeeID) *EmployeeLedger {
	for i := range run.Ledgers {
		if run.Ledgers[i].EmployeeID == employeeID {
			return &run.Ledgers[i]
		}
	}
	return nil
}

// freeRunID derives a stable run ID from the run identity. A voided run
// keeps its ID forever, so replacements for the same slot get a revision
// suffix.
func (e *Engine) freeRunID(ctx context.Context, spec RunSpec) (RunID, error) {
	base := RunID(fmt.Sprintf("%s-%s-%s", spec.Jurisdiction, spec.Period, spec.Type))
	id := base
	for rev := 2; ; rev++ {
		_, err := e.Runs.Get(ctx, id)
		if errors.Is(err, ErrRunNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		id = RunID(fmt.Sprintf("%s-r%d", base, rev))
	}
}
