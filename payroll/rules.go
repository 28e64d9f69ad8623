/*
rules.go - Labor rule sets and their resolution

PURPOSE:
  A LaborRuleSet is the immutable, versioned configuration of everything a
  jurisdiction mandates about payroll math: tax brackets, social-security
  rates and cap, employer surcharges, overtime multipliers, the statutory
  bonus, rounding discipline and standard working hours. Every calculator
  in the engine reads from one resolved rule set, so a run can never mix
  rule versions.

EFFECTIVE WINDOWS:
  Rule sets are valid over a half-open interval [EffectiveFrom,
  EffectiveTo). A nil EffectiveTo means "open-ended". At most one set may
  be active per jurisdiction per instant; the resolver defends against
  overlaps even though the write side is expected to prevent them.

BRACKET TABLE INVARIANT:
  The table is ordered ascending by lower bound, starts at zero, and
  covers [0, +inf) with no gaps: each bracket's lower bound is the
  previous bracket's (exclusive) upper bound. Each bracket carries a
  pre-computed base tax for income below its lower bound, so
  tax = base + rate x (income - lower). Continuity at every boundary is
  validated at construction, within one unit of the rounding precision.

VERSIONING:
  Rule sets referenced by a finalized run are never mutated. A change in
  law becomes a new version with a later EffectiveFrom, closing the
  previous window.

SEE ALSO:
  - tax.go: Bracket lookup and tax formula
  - contribution.go: Uses the SS rates, cap and surcharges
  - factory/ruleset.go: JSON representation and load-time validation
*/
package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// TAX BRACKET
// =============================================================================

// TaxBracket is one tier of a progressive income-tax table. Lower is the
// inclusive lower bound of taxable monthly income; the upper bound is the
// next bracket's Lower (the last bracket is unbounded above). Base is the
// pre-computed tax owed on income below Lower.
type TaxBracket struct {
	Lower decimal.Decimal
	Rate  decimal.Decimal
	Base  decimal.Decimal
}

// =============================================================================
// LABOR RULE SET
// =============================================================================

type LaborRuleSet struct {
	ID           RuleSetID
	Jurisdiction JurisdictionCode
	Version      int

	// Half-open validity window [EffectiveFrom, EffectiveTo).
	// Nil EffectiveTo means open-ended.
	EffectiveFrom time.Time
	EffectiveTo   *time.Time

	// Social security
	EmployeeSSRate decimal.Decimal // employee-side rate on the capped base
	EmployerSSRate decimal.Decimal // employer-side rate, computed independently
	SSBaseCap      Money           // contribution base cap

	// Employer-only flat surcharges on total payroll (uncapped)
	TrainingFundRate decimal.Decimal
	LaborRiskRate    decimal.Decimal

	// Progressive income tax
	Brackets []TaxBracket

	// Overtime multipliers on the derived hourly rate
	OvertimeOrdinaryRate decimal.Decimal
	OvertimeNightRate    decimal.Decimal

	// Flat statutory bonus, exempt from income tax and social security
	StatutoryBonus Money

	// Monthly standard working hours (hourly rate divisor)
	StandardMonthlyHours decimal.Decimal

	Rounding RoundingPolicy
}

// ActiveAt reports whether the rule set's window contains t.
func (rs *LaborRuleSet) ActiveAt(t time.Time) bool {
	if t.Before(rs.EffectiveFrom) {
		return false
	}
	if rs.EffectiveTo != nil && !t.Before(*rs.EffectiveTo) {
		return false
	}
	return true
}

// Validate checks the structural invariants. It must pass before a rule
// set is stored or used by the engine; the calculators assume it holds.
func (rs *LaborRuleSet) Validate() error {
	if rs.Jurisdiction == "" {
		return fmt.Errorf("rule set %s: jurisdiction is required", rs.ID)
	}
	if rs.EffectiveTo != nil && !rs.EffectiveFrom.Before(*rs.EffectiveTo) {
		return fmt.Errorf("rule set %s: effective window is empty", rs.ID)
	}
	if rs.EmployeeSSRate.IsNegative() || rs.EmployerSSRate.IsNegative() {
		return fmt.Errorf("rule set %s: negative social-security rate", rs.ID)
	}
	if rs.SSBaseCap.IsNegative() {
		return fmt.Errorf("rule set %s: negative contribution base cap", rs.ID)
	}
	if rs.TrainingFundRate.IsNegative() || rs.LaborRiskRate.IsNegative() {
		return fmt.Errorf("rule set %s: negative surcharge rate", rs.ID)
	}
	if !rs.StandardMonthlyHours.IsPositive() {
		return fmt.Errorf("rule set %s: standard monthly hours must be positive", rs.ID)
	}
	if rs.OvertimeOrdinaryRate.IsNegative() || rs.OvertimeNightRate.IsNegative() {
		return fmt.Errorf("rule set %s: negative overtime multiplier", rs.ID)
	}
	if rs.StatutoryBonus.IsNegative() {
		return fmt.Errorf("rule set %s: negative statutory bonus", rs.ID)
	}
	if rs.Rounding.Precision < 0 {
		return fmt.Errorf("rule set %s: negative rounding precision", rs.ID)
	}
	return rs.validateBrackets()
}

// validateBrackets enforces the bracket-table invariant: ordered, starts
// at zero, non-negative rates, and continuous at every boundary within
// one rounding unit.
func (rs *LaborRuleSet) validateBrackets() error {
	if len(rs.Brackets) == 0 {
		return &BracketTableError{Index: -1, Reason: "table is empty"}
	}
	if !rs.Brackets[0].Lower.IsZero() {
		return &BracketTableError{Index: 0, Reason: "first bracket must start at 0"}
	}
	if !rs.Brackets[0].Base.IsZero() {
		return &BracketTableError{Index: 0, Reason: "first bracket base tax must be 0"}
	}

	tolerance := rs.Rounding.Unit()
	for i, b := range rs.Brackets {
		if b.Rate.IsNegative() {
			return &BracketTableError{Index: i, Reason: "negative rate"}
		}
		if b.Base.IsNegative() {
			return &BracketTableError{Index: i, Reason: "negative base tax"}
		}
		if i == 0 {
			continue
		}
		prev := rs.Brackets[i-1]
		if !b.Lower.GreaterThan(prev.Lower) {
			return &BracketTableError{Index: i, Reason: "lower bounds not strictly ascending"}
		}
		// Continuity: the previous bracket's formula evaluated at this
		// boundary must equal this bracket's base tax within tolerance.
		atBoundary := prev.Base.Add(prev.Rate.Mul(b.Lower.Sub(prev.Lower)))
		if atBoundary.Sub(b.Base).Abs().GreaterThan(tolerance) {
			return &BracketTableError{
				Index:  i,
				Reason: fmt.Sprintf("discontinuous at lower bound %v: %v vs base %v", b.Lower, atBoundary, b.Base),
			}
		}
	}
	return nil
}

// =============================================================================
// RULE RESOLVER - Unique active rule set for (jurisdiction, as-of)
// =============================================================================

// RuleResolver finds the unique rule set whose effective window contains
// an as-of date.
type RuleResolver struct {
	Store RuleSetStore
}

func NewRuleResolver(store RuleSetStore) *RuleResolver {
	return &RuleResolver{Store: store}
}

// Resolve returns the single active rule set, ErrNoApplicableRuleSet if
// none match, or ErrAmbiguousRuleSet if overlapping windows both contain
// the date (a data-integrity violation surfaced rather than guessed at).
func (r *RuleResolver) Resolve(ctx context.Context, jurisdiction JurisdictionCode, asOf time.Time) (*LaborRuleSet, error) {
	sets, err := r.Store.ForJurisdiction(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}

	var matches []*LaborRuleSet
	for i := range sets {
		if sets[i].ActiveAt(asOf) {
			matches = append(matches, &sets[i])
		}
	}

	switch len(matches) {
	case 0:
		return nil, &NoRuleSetError{Jurisdiction: jurisdiction, AsOf: asOf}
	case 1:
		return matches[0], nil
	default:
		ids := make([]RuleSetID, len(matches))
		for i, m := range matches {
			ids[i] = m.ID
		}
		return nil, &AmbiguousRuleSetError{Jurisdiction: jurisdiction, AsOf: asOf, Matches: ids}
	}
}
