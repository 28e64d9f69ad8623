package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// OVERTIME TESTS
// =============================================================================

func TestOvertime_OrdinaryAmount(t *testing.T) {
	// GIVEN: Base salary 12000 over 173.33 standard hours (hourly rate
	//   ~69.2321, kept unrounded)
	// WHEN: 10 ordinary overtime hours at 1.5x
	// THEN: Amount rounds once at the end to 1038.48

	rules := testRules()
	calc := payroll.NewOvertimeCalculator(rules)

	amount, err := calc.Ordinary(money("12000"), decimal.Zero, dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	rounded := rules.Rounding.Apply(amount)
	if !rounded.Equal(money("1038.48")) {
		t.Errorf("expected 1038.48, got %v (unrounded %v)", rounded, amount)
	}
}

func TestOvertime_HourlyRateUnrounded(t *testing.T) {
	// The intermediate hourly rate must never be rounded to cents; only
	// the final line amount is.

	calc := payroll.NewOvertimeCalculator(testRules())

	rate := calc.HourlyRate(money("12000"), decimal.Zero)
	cents := rate.Value.Round(2)
	if rate.Value.Equal(cents) {
		t.Errorf("hourly rate %v looks pre-rounded; expected full precision", rate)
	}
}

func TestOvertime_NightMultiplier(t *testing.T) {
	// Night hours use the 2.0x multiplier: same 10 hours pay 4/3 of the
	// ordinary amount.

	calc := payroll.NewOvertimeCalculator(testRules())

	ordinary, err := calc.Ordinary(money("12000"), decimal.Zero, dec("10"))
	if err != nil {
		t.Fatal(err)
	}
	night, err := calc.Night(money("12000"), decimal.Zero, dec("10"))
	if err != nil {
		t.Fatal(err)
	}

	expected := ordinary.Div(dec("1.5")).Mul(dec("2.0"))
	if !night.Equal(expected) {
		t.Errorf("expected night %v, got %v", expected, night)
	}
}

func TestOvertime_ZeroHours(t *testing.T) {
	calc := payroll.NewOvertimeCalculator(testRules())

	amount, err := calc.Ordinary(money("12000"), decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatal(err)
	}
	if !amount.IsZero() {
		t.Errorf("expected zero for zero hours, got %v", amount)
	}
}

func TestOvertime_NegativeHoursRejected(t *testing.T) {
	calc := payroll.NewOvertimeCalculator(testRules())

	if _, err := calc.Ordinary(money("12000"), decimal.Zero, dec("-1")); err == nil {
		t.Error("expected error for negative hours")
	}
}

func TestOvertime_ProfileHoursOverrideDivisor(t *testing.T) {
	// GIVEN: A profile with its own 160-hour divisor
	// THEN: The hourly rate uses 160, not the jurisdiction standard

	calc := payroll.NewOvertimeCalculator(testRules())

	rate := calc.HourlyRate(money("16000"), dec("160"))
	if !rate.Equal(money("100")) {
		t.Errorf("expected 100/h with 160-hour divisor, got %v", rate)
	}
}
