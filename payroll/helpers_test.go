package payroll_test

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SHARED TEST FIXTURES
// =============================================================================

func money(s string) payroll.Money       { return payroll.MustParseMoney(s) }
func dec(s string) decimal.Decimal       { return payroll.MustParseDecimal(s) }
func date(y int, m time.Month) time.Time { return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC) }

// testRules returns a progressive-tax rule set effective for 2025:
// 5% up to 25000, 7% above, SS 4.83%/7.09% capped at 125000, overtime
// 1.5x/2.0x on a 173.33-hour month, rounding to cents half-away-from-zero.
func testRules() *payroll.LaborRuleSet {
	to := date(2026, time.January)
	return &payroll.LaborRuleSet{
		ID:            "DO-test-2025",
		Jurisdiction:  "DO",
		Version:       1,
		EffectiveFrom: date(2025, time.January),
		EffectiveTo:   &to,

		EmployeeSSRate: dec("0.0483"),
		EmployerSSRate: dec("0.0709"),
		SSBaseCap:      money("125000.00"),

		TrainingFundRate: dec("0.01"),
		LaborRiskRate:    dec("0.012"),

		Brackets: []payroll.TaxBracket{
			{Lower: dec("0"), Rate: dec("0.05"), Base: dec("0")},
			{Lower: dec("25000.01"), Rate: dec("0.07"), Base: dec("1250")},
			{Lower: dec("41666.68"), Rate: dec("0.07"), Base: dec("2416.67")},
		},

		OvertimeOrdinaryRate: dec("1.5"),
		OvertimeNightRate:    dec("2.0"),

		StatutoryBonus: money("250.00"),

		StandardMonthlyHours: dec("173.33"),

		Rounding: payroll.RoundingPolicy{Precision: 2, Mode: payroll.RoundNearest},
	}
}

// testProfile returns an affiliated, taxable profile valid since 2020.
func testProfile(id string, salary string) payroll.CompensationProfile {
	return payroll.CompensationProfile{
		EmployeeID: payroll.EmployeeID(id),
		BaseSalary: money(salary),
		Affiliated: true,
		ValidFrom:  date(2020, time.January),
	}
}

func june2025() payroll.PayPeriod {
	return payroll.NewPayPeriod(2025, time.June)
}
