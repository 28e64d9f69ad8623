/*
errors.go - Centralized error types for the payroll engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The engine fails closed: when inputs are inconsistent it surfaces a
  typed error rather than guessing a "reasonable" value.

ERROR CATEGORIES:
  1. Rule resolution - Missing or overlapping rule sets
  2. Validation - Structural rule-set problems, bad calculation inputs
  3. Run lifecycle - State machine violations, duplicate runs

USAGE:
  Callers branch with errors.Is / errors.As:

    if errors.Is(err, payroll.ErrNegativeNetPay) {
        var nnp *payroll.NegativeNetPayError
        errors.As(err, &nnp)
        // report nnp.EmployeeID and halt approval
    }

SEE ALSO:
  - rules.go: Returns resolution and bracket-table errors
  - ledger.go: Returns NegativeNetPayError / StaleProfileError
  - run.go: Returns StateTransitionError
*/
package payroll

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNoApplicableRuleSet is returned when no rule set is active for a
	// jurisdiction at the requested as-of date.
	ErrNoApplicableRuleSet = errors.New("no applicable rule set")

	// ErrAmbiguousRuleSet is returned when more than one rule set is
	// active at the same instant. Write-side enforcement should make this
	// unreachable; the read path defends against it anyway.
	ErrAmbiguousRuleSet = errors.New("ambiguous rule set: overlapping effective windows")

	// ErrInvalidBracketTable is returned when a tax bracket table fails
	// structural validation at rule-set construction.
	ErrInvalidBracketTable = errors.New("invalid tax bracket table")

	// ErrInvalidContributionBase is returned when a social-security base
	// is negative. Upstream validation should make this unreachable.
	ErrInvalidContributionBase = errors.New("invalid contribution base")

	// ErrNegativeNetPay is returned when deductions would exceed gross
	// earnings. The engine never clamps; a human resolves the data.
	ErrNegativeNetPay = errors.New("negative net pay")

	// ErrInvalidStateTransition is returned for disallowed run state
	// changes (e.g. approving an already-Paid run).
	ErrInvalidStateTransition = errors.New("invalid run state transition")

	// ErrStaleProfileReference is returned when a compensation profile is
	// not valid as of the run's period.
	ErrStaleProfileReference = errors.New("stale compensation profile")

	// ErrDuplicateRun is returned when a non-voided run already exists
	// for the same (jurisdiction, period, type).
	ErrDuplicateRun = errors.New("run already exists for period")

	// ErrRunNotFound is returned when a referenced run doesn't exist.
	ErrRunNotFound = errors.New("run not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoRuleSetError reports a failed rule-set resolution.
type NoRuleSetError struct {
	Jurisdiction JurisdictionCode
	AsOf         time.Time
}

func (e *NoRuleSetError) Error() string {
	return fmt.Sprintf("no rule set for jurisdiction %q as of %s",
		e.Jurisdiction, e.AsOf.Format("2006-01-02"))
}

func (e *NoRuleSetError) Unwrap() error { return ErrNoApplicableRuleSet }

// AmbiguousRuleSetError reports overlapping effective windows.
type AmbiguousRuleSetError struct {
	Jurisdiction JurisdictionCode
	AsOf         time.Time
	Matches      []RuleSetID
}

func (e *AmbiguousRuleSetError) Error() string {
	return fmt.Sprintf("ambiguous rule set for jurisdiction %q as of %s: %d overlapping sets",
		e.Jurisdiction, e.AsOf.Format("2006-01-02"), len(e.Matches))
}

func (e *AmbiguousRuleSetError) Unwrap() error { return ErrAmbiguousRuleSet }

// BracketTableError reports where a bracket table is malformed.
type BracketTableError struct {
	Index  int // offending bracket, -1 for table-level problems
	Reason string
}

func (e *BracketTableError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid bracket table: %s", e.Reason)
	}
	return fmt.Sprintf("invalid bracket table at index %d: %s", e.Index, e.Reason)
}

func (e *BracketTableError) Unwrap() error { return ErrInvalidBracketTable }

// ContributionBaseError reports a negative social-security base.
type ContributionBaseError struct {
	EmployeeID EmployeeID
	Base       Money
}

func (e *ContributionBaseError) Error() string {
	return fmt.Sprintf("invalid contribution base %v for employee %s", e.Base, e.EmployeeID)
}

func (e *ContributionBaseError) Unwrap() error { return ErrInvalidContributionBase }

// NegativeNetPayError identifies the employee whose deductions exceed
// gross. The whole run computation aborts on this error.
type NegativeNetPayError struct {
	EmployeeID EmployeeID
	Gross      Money
	Deductions Money
}

func (e *NegativeNetPayError) Error() string {
	return fmt.Sprintf("negative net pay for employee %s: gross %v, deductions %v",
		e.EmployeeID, e.Gross, e.Deductions)
}

func (e *NegativeNetPayError) Unwrap() error { return ErrNegativeNetPay }

// StateTransitionError reports a disallowed run state change.
type StateTransitionError struct {
	RunID RunID
	From  RunState
	To    RunState
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("run %s: cannot transition from %s to %s", e.RunID, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error { return ErrInvalidStateTransition }

// StaleProfileError reports a compensation profile that is not valid as
// of the run's period.
type StaleProfileError struct {
	EmployeeID EmployeeID
	AsOf       time.Time
}

func (e *StaleProfileError) Error() string {
	return fmt.Sprintf("compensation profile for employee %s not valid as of %s",
		e.EmployeeID, e.AsOf.Format("2006-01-02"))
}

func (e *StaleProfileError) Unwrap() error { return ErrStaleProfileReference }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to inconsistent input
// data that a caller (or a human) must correct.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNegativeNetPay) ||
		errors.Is(err, ErrInvalidContributionBase) ||
		errors.Is(err, ErrStaleProfileReference) ||
		errors.Is(err, ErrInvalidStateTransition) ||
		errors.Is(err, ErrDuplicateRun) ||
		errors.Is(err, ErrInvalidBracketTable)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoApplicableRuleSet) ||
		errors.Is(err, ErrRunNotFound)
}
