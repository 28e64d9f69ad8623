/*
overtime.go - Overtime pay calculation

PURPOSE:
  Converts reported overtime hours into monetary amounts. The hourly rate
  is derived from the monthly base salary and the standard monthly hours
  divisor, and is kept UNROUNDED; rounding happens once at the final line
  amount, never on the intermediate rate.

CATEGORIES:
  Ordinary and night overtime use their own multipliers from the rule
  set. Multiple categories within one run are reported as separate
  ledger lines, never merged, to preserve auditability.

SEE ALSO:
  - rules.go: Overtime multipliers and standard monthly hours
  - ledger.go: Emits one line per overtime category
*/
package payroll

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// OVERTIME CALCULATOR
// =============================================================================

type OvertimeCalculator struct {
	Rules *LaborRuleSet
}

func NewOvertimeCalculator(rules *LaborRuleSet) *OvertimeCalculator {
	return &OvertimeCalculator{Rules: rules}
}

// HourlyRate returns the unrounded hourly rate for a monthly base salary,
// using the profile's own hours divisor when set and the rule set's
// standard otherwise.
func (c *OvertimeCalculator) HourlyRate(baseSalary Money, standardHours decimal.Decimal) Money {
	divisor := standardHours
	if !divisor.IsPositive() {
		divisor = c.Rules.StandardMonthlyHours
	}
	return baseSalary.Div(divisor)
}

// Ordinary returns the unrounded ordinary-overtime amount. Zero hours
// yields zero without error; negative hours are rejected.
func (c *OvertimeCalculator) Ordinary(baseSalary Money, standardHours, hours decimal.Decimal) (Money, error) {
	return c.amount(baseSalary, standardHours, hours, c.Rules.OvertimeOrdinaryRate)
}

// Night returns the unrounded night-overtime amount using the night
// multiplier.
func (c *OvertimeCalculator) Night(baseSalary Money, standardHours, hours decimal.Decimal) (Money, error) {
	return c.amount(baseSalary, standardHours, hours, c.Rules.OvertimeNightRate)
}

func (c *OvertimeCalculator) amount(baseSalary Money, standardHours, hours, multiplier decimal.Decimal) (Money, error) {
	if hours.IsNegative() {
		return ZeroMoney(), fmt.Errorf("overtime hours must be non-negative, got %v", hours)
	}
	if hours.IsZero() {
		return ZeroMoney(), nil
	}
	rate := c.HourlyRate(baseSalary, standardHours)
	return rate.Mul(hours).Mul(multiplier), nil
}
