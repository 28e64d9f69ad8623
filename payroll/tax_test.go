package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// PROGRESSIVE TAX TESTS
// =============================================================================

func TestTax_ZeroIncome(t *testing.T) {
	// GIVEN: The standard progressive bracket table
	// WHEN: Income is zero
	// THEN: Tax is zero (first bracket starts at 0 with base 0)

	calc := payroll.NewTaxBracketCalculator(testRules())

	tax := calc.Tax(decimal.Zero)
	if !tax.IsZero() {
		t.Errorf("expected zero tax for zero income, got %v", tax)
	}
}

func TestTax_NegativeIncome(t *testing.T) {
	// Negative taxable income never reaches the calculator in a valid run,
	// but it must still degrade to zero rather than a negative tax.

	calc := payroll.NewTaxBracketCalculator(testRules())

	tax := calc.Tax(dec("-100"))
	if !tax.IsZero() {
		t.Errorf("expected zero tax for negative income, got %v", tax)
	}
}

func TestTax_FirstBracket(t *testing.T) {
	// GIVEN: 5% on income in [0, 25000.01)
	// WHEN: Income 10000
	// THEN: Tax = 0.05 x 10000 = 500

	calc := payroll.NewTaxBracketCalculator(testRules())

	tax := calc.Tax(dec("10000"))
	if !tax.Equal(dec("500")) {
		t.Errorf("expected 500, got %v", tax)
	}
}

func TestTax_MiddleBracket(t *testing.T) {
	// GIVEN: 7% above 25000.01 with pre-computed base 1250
	// WHEN: Income 30000
	// THEN: Unrounded tax = 1250 + 0.07 x 4999.99 = 1599.9993,
	//       which the ledger rounds to 1600.00

	rules := testRules()
	calc := payroll.NewTaxBracketCalculator(rules)

	tax := calc.Tax(dec("30000"))
	if !tax.Equal(dec("1599.9993")) {
		t.Errorf("expected unrounded 1599.9993, got %v", tax)
	}

	rounded := rules.Rounding.Apply(payroll.Money{Value: tax})
	if !rounded.Equal(money("1600.00")) {
		t.Errorf("expected rounded 1600.00, got %v", rounded)
	}
}

func TestTax_BoundaryBelongsToUpperBracket(t *testing.T) {
	// Lower bounds are inclusive: income exactly at a boundary uses the
	// upper bracket's formula. Continuity makes the two formulas agree at
	// the boundary within the rounding unit.

	calc := payroll.NewTaxBracketCalculator(testRules())

	below := calc.Tax(dec("25000")) // last cent of the 5% bracket
	at := calc.Tax(dec("25000.01")) // first cent of the 7% bracket

	if !below.Equal(dec("1250")) {
		t.Errorf("expected 1250 just below boundary, got %v", below)
	}
	if !at.Equal(dec("1250")) {
		t.Errorf("expected base 1250 at boundary, got %v", at)
	}
}

func TestTax_LastBracketUnboundedAbove(t *testing.T) {
	calc := payroll.NewTaxBracketCalculator(testRules())

	// 2416.67 + 0.07 x (100000 - 41666.68)
	tax := calc.Tax(dec("100000"))
	expected := dec("2416.67").Add(dec("0.07").Mul(dec("100000").Sub(dec("41666.68"))))
	if !tax.Equal(expected) {
		t.Errorf("expected %v, got %v", expected, tax)
	}
}

func TestTax_MonotonicNonDecreasing(t *testing.T) {
	// GIVEN: Any valid bracket table
	// WHEN: Income increases across bracket boundaries
	// THEN: Tax never decreases

	calc := payroll.NewTaxBracketCalculator(testRules())

	incomes := []string{
		"0", "0.01", "100", "24999.99", "25000", "25000.01", "25000.02",
		"41666.67", "41666.68", "41666.69", "83333", "200000",
	}
	prev := decimal.Zero
	for _, s := range incomes {
		tax := calc.Tax(dec(s))
		if tax.LessThan(prev) {
			t.Errorf("tax decreased at income %s: %v < %v", s, tax, prev)
		}
		prev = tax
	}
}
