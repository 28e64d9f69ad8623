/*
Package catalog provides pre-built labor rule sets.

PURPOSE:
  Ready-to-use LaborRuleSet configurations for common statutory setups.
  These are convenience constructors so deployments can bootstrap a
  jurisdiction without hand-writing bracket tables; real installations
  load their gazette figures through the factory package instead.

AVAILABLE PRESETS:
  StandardRuleSet:  Progressive four-tier income tax, capped social
                    security, both employer surcharges, 1.5x/2.0x
                    overtime, flat statutory bonus.
  FlatTaxRuleSet:   Single-rate income tax, otherwise standard. Useful
                    for special-regime jurisdictions and for tests.

BRACKET TABLES:
  Base taxes are pre-computed so that tax = base + rate x (income -
  lower) is continuous at every boundary. Validate() checks this on
  every preset before it is handed out.

USAGE:
  rs := catalog.StandardRuleSet("DO", 2025)
  if err := ruleStore.Save(ctx, rs); err != nil { ... }

SEE ALSO:
  - factory/ruleset.go: JSON-based rule-set loading
  - payroll/rules.go: LaborRuleSet definition and validation
*/
package catalog

import (
	"fmt"
	"time"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// STANDARD PRESET
// =============================================================================

// StandardRuleSet returns a typical progressive-tax rule set effective
// for the given calendar year. The window is [Jan 1, Jan 1 of next
// year), so consecutive yearly versions never overlap.
func StandardRuleSet(jurisdiction payroll.JurisdictionCode, year int) payroll.LaborRuleSet {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	return payroll.LaborRuleSet{
		ID:            payroll.RuleSetID(fmt.Sprintf("%s-standard-%d", jurisdiction, year)),
		Jurisdiction:  jurisdiction,
		Version:       1,
		EffectiveFrom: from,
		EffectiveTo:   &to,

		EmployeeSSRate: payroll.MustParseDecimal("0.0483"),
		EmployerSSRate: payroll.MustParseDecimal("0.0709"),
		SSBaseCap:      payroll.MustParseMoney("125000.00"),

		TrainingFundRate: payroll.MustParseDecimal("0.01"),
		LaborRiskRate:    payroll.MustParseDecimal("0.012"),

		// Monthly taxable income. Bases are pre-computed at each lower
		// bound so the schedule is continuous.
		Brackets: []payroll.TaxBracket{
			{Lower: payroll.MustParseDecimal("0"), Rate: payroll.MustParseDecimal("0"), Base: payroll.MustParseDecimal("0")},
			{Lower: payroll.MustParseDecimal("25000.01"), Rate: payroll.MustParseDecimal("0.15"), Base: payroll.MustParseDecimal("0")},
			{Lower: payroll.MustParseDecimal("41666.68"), Rate: payroll.MustParseDecimal("0.20"), Base: payroll.MustParseDecimal("2500.00")},
			{Lower: payroll.MustParseDecimal("83333.34"), Rate: payroll.MustParseDecimal("0.25"), Base: payroll.MustParseDecimal("10833.33")},
		},

		OvertimeOrdinaryRate: payroll.MustParseDecimal("1.5"),
		OvertimeNightRate:    payroll.MustParseDecimal("2.0"),

		StatutoryBonus: payroll.MustParseMoney("250.00"),

		StandardMonthlyHours: payroll.MustParseDecimal("173.33"),

		Rounding: payroll.RoundingPolicy{Precision: 2, Mode: payroll.RoundNearest},
	}
}

// FlatTaxRuleSet returns a single-rate variant of the standard preset.
func FlatTaxRuleSet(jurisdiction payroll.JurisdictionCode, year int, rate string) payroll.LaborRuleSet {
	rs := StandardRuleSet(jurisdiction, year)
	rs.ID = payroll.RuleSetID(fmt.Sprintf("%s-flat-%d", jurisdiction, year))
	rs.Brackets = []payroll.TaxBracket{
		{Lower: payroll.MustParseDecimal("0"), Rate: payroll.MustParseDecimal(rate), Base: payroll.MustParseDecimal("0")},
	}
	return rs
}
