/*
tax.go - Progressive income-tax calculation

PURPOSE:
  Maps taxable monthly income to the income-tax amount using the rule
  set's ordered bracket table. The function is pure: no side effects, no
  rounding (the ledger builder rounds the resulting line once, at its
  final amount).

FORMULA:
  Locate the bracket whose [lower, upper) interval contains the income
  (the last bracket is unbounded above; lower bounds are inclusive, so an
  income exactly at a boundary belongs to the upper bracket). Then:

    tax = bracket.Base + bracket.Rate x (income - bracket.Lower)

  Income 0 yields tax 0 because the first bracket starts at 0 with base 0.

CONTINUITY:
  The formula is monotonic and continuous at boundaries as long as the
  bracket table satisfies its structural invariant. That invariant is
  validated when the LaborRuleSet is constructed (rules.go), not on every
  call here.

SEE ALSO:
  - rules.go: TaxBracket definition and table validation
  - ledger.go: Computes the taxable base and rounds the tax line
*/
package payroll

import "github.com/shopspring/decimal"

// =============================================================================
// TAX BRACKET CALCULATOR
// =============================================================================

// TaxBracketCalculator computes income tax from a validated bracket table.
type TaxBracketCalculator struct {
	Brackets []TaxBracket
}

func NewTaxBracketCalculator(rules *LaborRuleSet) *TaxBracketCalculator {
	return &TaxBracketCalculator{Brackets: rules.Brackets}
}

// Tax returns the unrounded income tax for a non-negative taxable monthly
// income. Negative income is treated as zero taxable income; upstream
// validation rejects negative bases before they reach here.
func (c *TaxBracketCalculator) Tax(income decimal.Decimal) decimal.Decimal {
	if len(c.Brackets) == 0 || !income.IsPositive() {
		return decimal.Zero
	}

	b := c.bracketFor(income)
	return b.Base.Add(b.Rate.Mul(income.Sub(b.Lower)))
}

// bracketFor returns the last bracket whose inclusive lower bound does
// not exceed the income.
func (c *TaxBracketCalculator) bracketFor(income decimal.Decimal) TaxBracket {
	match := c.Brackets[0]
	for _, b := range c.Brackets[1:] {
		if income.GreaterThanOrEqual(b.Lower) {
			match = b
			continue
		}
		break
	}
	return match
}
