/*
store.go - Persistence interfaces

PURPOSE:
  The engine computes; collaborators persist. These interfaces are what
  the engine needs from the rule-repository and run-repository
  collaborators. Implementations: payroll/store (in-memory, tests/dev)
  and store/sqlite (durable).

CONTRACTS:
  - Rule sets are immutable once referenced by a finalized run; a change
    becomes a new version with a later effective-from date.
  - RunStore.ActiveForPeriod excludes voided runs, so voiding frees the
    (jurisdiction, period, type) slot for a corrected run.
  - Update replaces a run wholesale; stores never mutate ledger lines of
    Approved/Paid runs except through the engine's audited append path.

SEE ALSO:
  - payroll/store/memory.go: In-memory implementation
  - store/sqlite/sqlite.go: SQLite implementation
*/
package payroll

import "context"

// =============================================================================
// RULE SET STORE
// =============================================================================

type RuleSetStore interface {
	// Save persists a validated rule set.
	Save(ctx context.Context, rs LaborRuleSet) error

	// ForJurisdiction returns all versions for a jurisdiction, any order.
	ForJurisdiction(ctx context.Context, jurisdiction JurisdictionCode) ([]LaborRuleSet, error)

	// Get returns one rule set by ID, or nil if absent.
	Get(ctx context.Context, id RuleSetID) (*LaborRuleSet, error)
}

// =============================================================================
// RUN STORE
// =============================================================================

type RunStore interface {
	// Save persists a newly computed run. Fails with ErrDuplicateRun if a
	// non-voided run already occupies (jurisdiction, period, type).
	Save(ctx context.Context, run *PayrollRun) error

	// Update replaces an existing run (state transitions, recomputation,
	// audited adjustment appends).
	Update(ctx context.Context, run *PayrollRun) error

	// Get returns a run by ID, or ErrRunNotFound.
	Get(ctx context.Context, id RunID) (*PayrollRun, error)

	// ActiveForPeriod returns the non-voided run for the slot, or nil.
	ActiveForPeriod(ctx context.Context, jurisdiction JurisdictionCode, period PayPeriod, runType RunType) (*PayrollRun, error)
}
