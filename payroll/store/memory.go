// Package store provides in-memory implementations of the payroll
// persistence interfaces, for tests and development.
package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// RULE SET MEMORY - In-memory payroll.RuleSetStore
// =============================================================================

type RuleSetMemory struct {
	mu       sync.RWMutex
	ruleSets map[payroll.RuleSetID]payroll.LaborRuleSet
}

func NewRuleSetMemory() *RuleSetMemory {
	return &RuleSetMemory{ruleSets: make(map[payroll.RuleSetID]payroll.LaborRuleSet)}
}

var _ payroll.RuleSetStore = (*RuleSetMemory)(nil)

func (m *RuleSetMemory) Save(_ context.Context, rs payroll.LaborRuleSet) error {
	if err := rs.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ruleSets[rs.ID] = rs
	return nil
}

func (m *RuleSetMemory) ForJurisdiction(_ context.Context, jurisdiction payroll.JurisdictionCode) ([]payroll.LaborRuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []payroll.LaborRuleSet
	for _, rs := range m.ruleSets {
		if rs.Jurisdiction == jurisdiction {
			out = append(out, rs)
		}
	}
	return out, nil
}

func (m *RuleSetMemory) Get(_ context.Context, id payroll.RuleSetID) (*payroll.LaborRuleSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rs, ok := m.ruleSets[id]
	if !ok {
		return nil, nil
	}
	return &rs, nil
}

// =============================================================================
// RUN MEMORY - In-memory payroll.RunStore
// =============================================================================

type RunMemory struct {
	mu   sync.RWMutex
	runs map[payroll.RunID]*payroll.PayrollRun
}

func NewRunMemory() *RunMemory {
	return &RunMemory{runs: make(map[payroll.RunID]*payroll.PayrollRun)}
}

var _ payroll.RunStore = (*RunMemory)(nil)

func (m *RunMemory) Save(_ context.Context, run *payroll.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.runs[run.ID]; exists {
		return fmt.Errorf("run %s already stored", run.ID)
	}
	if run.Active() {
		for _, other := range m.runs {
			if other.Active() &&
				other.Jurisdiction == run.Jurisdiction &&
				other.Period == run.Period &&
				other.Type == run.Type {
				return fmt.Errorf("%w: %s occupied by run %s",
					payroll.ErrDuplicateRun, run.Period, other.ID)
			}
		}
	}
	m.runs[run.ID] = cloneRun(run)
	return nil
}

func (m *RunMemory) Update(_ context.Context, run *payroll.PayrollRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.runs[run.ID]; !exists {
		return payroll.ErrRunNotFound
	}
	m.runs[run.ID] = cloneRun(run)
	return nil
}

func (m *RunMemory) Get(_ context.Context, id payroll.RunID) (*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, payroll.ErrRunNotFound
	}
	return cloneRun(run), nil
}

func (m *RunMemory) ActiveForPeriod(_ context.Context, jurisdiction payroll.JurisdictionCode, period payroll.PayPeriod, runType payroll.RunType) (*payroll.PayrollRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, run := range m.runs {
		if run.Active() && run.Jurisdiction == jurisdiction && run.Period == period && run.Type == runType {
			return cloneRun(run), nil
		}
	}
	return nil, nil
}

// cloneRun deep-copies a run so callers never share ledger slices with
// the store's copy.
func cloneRun(run *payroll.PayrollRun) *payroll.PayrollRun {
	clone := *run
	clone.Ledgers = make([]payroll.EmployeeLedger, len(run.Ledgers))
	for i, l := range run.Ledgers {
		lc := l
		lc.Lines = make([]payroll.PayLedgerLine, len(l.Lines))
		copy(lc.Lines, l.Lines)
		clone.Ledgers[i] = lc
	}
	return &clone
}
