/*
profile.go - Employee compensation profiles and per-run inputs

PURPOSE:
  A CompensationProfile is the versioned snapshot of how one employee is
  paid: base salary, hours divisor, social-security affiliation,
  tax-exemption status, recurring deductions and payment method. Profiles
  carry a validity window; exactly one profile is active per employee at
  a time, and historical profiles are retained for audit.

RUN INPUTS:
  EmployeeInput bundles the profile with what the timekeeping and
  adjustment-entry collaborators report for the period: overtime hours,
  commissions, and manual adjustment lines already entered. The engine
  treats all of it as an externally-owned, read-only snapshot.

SEE ALSO:
  - ledger.go: Consumes EmployeeInput to build the payslip
  - engine.go: Validates profiles against the run's single as-of date
*/
package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// COMPENSATION PROFILE - Versioned by validity window
// =============================================================================

// PaymentMethod is how net pay is disbursed. The engine only records it;
// disbursement is an external collaborator's job.
type PaymentMethod string

const (
	PayByTransfer PaymentMethod = "transfer"
	PayByCheck    PaymentMethod = "check"
	PayByCash     PaymentMethod = "cash"
)

// FixedDeduction is a recurring deduction attached to the profile
// (loan installments, salary advances).
type FixedDeduction struct {
	Label  string
	Amount Money // per full month; halved for half-month periods
}

type CompensationProfile struct {
	EmployeeID EmployeeID

	BaseSalary Money

	// StandardMonthlyHours overrides the rule set's divisor when
	// positive; zero means "use the jurisdiction standard".
	StandardMonthlyHours decimal.Decimal

	// Affiliated controls whether social security is withheld.
	Affiliated bool

	// TaxExempt skips the income-tax line; the reason is kept for audit.
	TaxExempt       bool
	TaxExemptReason string

	FixedDeductions []FixedDeduction
	PaymentMethod   PaymentMethod

	// Half-open validity window [ValidFrom, ValidTo). Nil ValidTo means
	// currently active.
	ValidFrom time.Time
	ValidTo   *time.Time
}

// ActiveAt reports whether the profile's validity window contains t.
func (p *CompensationProfile) ActiveAt(t time.Time) bool {
	if t.Before(p.ValidFrom) {
		return false
	}
	if p.ValidTo != nil && !t.Before(*p.ValidTo) {
		return false
	}
	return true
}

// HourlyRate returns the cached salary / hours derivation, unrounded.
func (p *CompensationProfile) HourlyRate(defaultHours decimal.Decimal) Money {
	divisor := p.StandardMonthlyHours
	if !divisor.IsPositive() {
		divisor = defaultHours
	}
	return p.BaseSalary.Div(divisor)
}

// =============================================================================
// PER-RUN EMPLOYEE INPUT
// =============================================================================

// Adjustment is a manual ad-hoc line entered for the period before or
// after computation. Amount is non-negative; Kind gives it direction.
type Adjustment struct {
	Label     string
	Kind      LineKind
	Amount    Money
	EnteredBy string
	EnteredAt time.Time
}

// EmployeeInput is everything the engine needs to compute one employee's
// ledger for a period.
type EmployeeInput struct {
	Profile CompensationProfile

	// Reported by the timekeeping collaborator
	OvertimeHours      decimal.Decimal
	NightOvertimeHours decimal.Decimal

	// Reported other income for the period
	Commissions Money

	// IncludeStatutoryBonus adds the flat statutory bonus earning line to
	// an ordinary run (when it has not been paid this period yet).
	// Statutory-bonus runs always pay it regardless of this flag.
	IncludeStatutoryBonus bool

	// Manual lines already entered via the adjustment-entry collaborator
	Adjustments []Adjustment
}
