/*
Package payroll provides the core payroll calculation engine.

PURPOSE:
  This package contains the types and algorithms for computing a payroll
  run: itemized per-employee payslips (ledgers), employer-side contribution
  aggregates, and run-level totals that reconcile exactly across employees
  and recomputations.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A fixed-point monetary amount backed by decimal.Decimal
  - RoundingPolicy: The single shared rounding discipline for the engine
  - PayLedgerLine: One itemized earning or deduction on a payslip
  - EmployeeLedger: A per-employee, per-run collection of ledger lines
  - Employee/Run/RuleSet IDs: Type-safe identifiers

DESIGN PRINCIPLES:
  1. Precision: Money uses decimal.Decimal. Binary floating point is never
     used for monetary values.
  2. Rounding once: Every ledger line is rounded exactly once, at its final
     amount. Totals are sums of already-rounded lines and are never
     re-rounded (sum-of-rounded, not round-of-sum).
  3. Immutability: Ledgers and lines are never edited after a run is
     approved. Corrections go through appended adjustment lines or a new
     run.
  4. Type Safety: Strong typing for IDs prevents mixing employee, run and
     rule-set identifiers.

USAGE:
  salary := payroll.NewMoney(12000)
  policy := payroll.RoundingPolicy{Precision: 2, Mode: payroll.RoundNearest}
  rounded := policy.Apply(salary.Div(payroll.MustParseDecimal("173.33")))

SEE ALSO:
  - rules.go: LaborRuleSet configuration and validation
  - ledger.go: LedgerBuilder assembling the canonical line order
  - run.go: PayrollRun state machine and aggregation
*/
package payroll

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Fixed-point monetary amount
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func NewMoneyFromInt(value int) Money {
	return Money{Value: decimal.NewFromInt(int64(value))}
}

func ZeroMoney() Money {
	return Money{Value: decimal.Zero}
}

func MustParseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// MustParseMoney parses a decimal string into Money. Invalid input yields
// zero, matching MustParseDecimal. Intended for constants and tests.
func MustParseMoney(s string) Money {
	return Money{Value: MustParseDecimal(s)}
}

func (m Money) Add(o Money) Money              { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money              { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Mul(s decimal.Decimal) Money    { return Money{Value: m.Value.Mul(s)} }
func (m Money) Div(s decimal.Decimal) Money    { return Money{Value: m.Value.Div(s)} }
func (m Money) Neg() Money                     { return Money{Value: m.Value.Neg()} }
func (m Money) IsNegative() bool               { return m.Value.IsNegative() }
func (m Money) IsZero() bool                   { return m.Value.IsZero() }
func (m Money) IsPositive() bool               { return m.Value.IsPositive() }
func (m Money) GreaterThan(o Money) bool       { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool          { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool             { return m.Value.Equal(o.Value) }
func (m Money) Min(o Money) Money              { if m.LessThan(o) { return m }; return o }
func (m Money) Max(o Money) Money              { if m.GreaterThan(o) { return m }; return o }
func (m Money) String() string                 { return m.Value.String() }

// =============================================================================
// ROUNDING POLICY - Single shared rounding function
// =============================================================================

// RoundingMode selects how a monetary value is brought to the rule set's
// precision. The stored source values "Normal"/"Arriba"/"Abajo" map to
// nearest/up/down.
type RoundingMode string

const (
	// RoundNearest rounds half away from zero (commercial rounding).
	RoundNearest RoundingMode = "nearest"
	// RoundUp always rounds away from zero.
	RoundUp RoundingMode = "up"
	// RoundDown always rounds toward zero.
	RoundDown RoundingMode = "down"
)

// RoundingPolicy is applied exactly once per ledger line, at the line's
// final amount. Intermediate values (hourly rates, taxable bases) are
// never rounded, and an already-rounded figure is never re-rounded.
type RoundingPolicy struct {
	Precision int32
	Mode      RoundingMode
}

func (rp RoundingPolicy) Apply(m Money) Money {
	switch rp.Mode {
	case RoundUp:
		return Money{Value: m.Value.RoundUp(rp.Precision)}
	case RoundDown:
		return Money{Value: m.Value.RoundDown(rp.Precision)}
	default:
		return Money{Value: m.Value.Round(rp.Precision)}
	}
}

// Unit returns the smallest representable step at the policy's precision
// (e.g. 0.01 for two decimals). Used as the bracket-continuity tolerance.
func (rp RoundingPolicy) Unit() decimal.Decimal {
	return decimal.New(1, -rp.Precision)
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID string
type RunID string
type RuleSetID string
type JurisdictionCode string

// =============================================================================
// LEDGER LINES - One line per payslip concept
// =============================================================================

// LineKind classifies a ledger line as an earning or a deduction.
type LineKind string

const (
	KindEarning   LineKind = "earning"
	KindDeduction LineKind = "deduction"
)

// ConceptCode identifies the payslip concept a line represents.
type ConceptCode string

const (
	ConceptBaseSalary       ConceptCode = "base_salary"
	ConceptOvertimeOrdinary ConceptCode = "overtime_ordinary"
	ConceptOvertimeNight    ConceptCode = "overtime_night"
	ConceptCommission       ConceptCode = "commission"
	ConceptStatutoryBonus   ConceptCode = "statutory_bonus"
	ConceptSocialSecurity   ConceptCode = "social_security"
	ConceptIncomeTax        ConceptCode = "income_tax"
	ConceptFixedDeduction   ConceptCode = "fixed_deduction"
	ConceptAdjustment       ConceptCode = "adjustment"
)

// PayLedgerLine is one itemized earning or deduction. Amount is always
// stored rounded per the run's RoundingPolicy; Base and Rate preserve the
// unrounded inputs for auditability. Rate is nil for fixed amounts.
type PayLedgerLine struct {
	Concept ConceptCode
	Label   string
	Kind    LineKind

	// Calculation inputs (unrounded, for audit)
	Base Money
	Rate *decimal.Decimal

	// Final amount, rounded once per RoundingPolicy. Always non-negative;
	// Kind determines the sign of its contribution to net pay.
	Amount Money

	// Manual marks ad-hoc adjustment lines entered by a person rather
	// than computed by the engine.
	Manual bool

	// Audit fields for appended adjustments
	EnteredBy string
	EnteredAt string // RFC3339; empty for engine-computed lines

	// Display order on the payslip, 1-based, dense
	Order int
}

// =============================================================================
// EMPLOYEE LEDGER - Per-employee, per-run payslip
// =============================================================================

// EmployeeLedger holds the ordered lines and derived totals for one
// employee within one run. It is created during run computation and never
// mutated once the run leaves Draft, except for adjustment-line appends
// on Approved runs (which re-derive the totals from the rounded lines).
type EmployeeLedger struct {
	EmployeeID EmployeeID
	Lines      []PayLedgerLine

	// Derived totals: sums of the already-rounded line amounts.
	Gross      Money // "total devengado"
	Deductions Money // "total deducciones"
	Net        Money

	// ContributionBase is the capped social-security base used for this
	// employee (zero when not affiliated). Kept so employer-side
	// contributions can be aggregated without recomputing lines.
	ContributionBase Money
}

// RecalculateTotals re-derives Gross/Deductions/Net from the rounded
// lines. Returns ErrNegativeNetPay (wrapped) if deductions exceed gross.
func (l *EmployeeLedger) RecalculateTotals() error {
	gross := ZeroMoney()
	deductions := ZeroMoney()
	for _, line := range l.Lines {
		switch line.Kind {
		case KindEarning:
			gross = gross.Add(line.Amount)
		case KindDeduction:
			deductions = deductions.Add(line.Amount)
		}
	}
	net := gross.Sub(deductions)
	if net.IsNegative() {
		return &NegativeNetPayError{
			EmployeeID: l.EmployeeID,
			Gross:      gross,
			Deductions: deductions,
		}
	}
	l.Gross = gross
	l.Deductions = deductions
	l.Net = net
	return nil
}
