package factory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
)

func validRuleSetJSON() string {
	return `{
		"id": "DO-standard-2025",
		"jurisdiction": "DO",
		"version": 1,
		"effective_from": "2025-01-01",
		"effective_to": "2026-01-01",
		"social_security": {
			"employee_rate": "0.0483",
			"employer_rate": "0.0709",
			"base_cap": "125000.00"
		},
		"surcharges": {"training_fund_rate": "0.01", "labor_risk_rate": "0.012"},
		"tax_brackets": [
			{"lower": "0", "rate": "0", "base": "0"},
			{"lower": "25000.01", "rate": "0.15", "base": "0"},
			{"lower": "41666.68", "rate": "0.20", "base": "2500.00"}
		],
		"overtime": {"ordinary_multiplier": "1.5", "night_multiplier": "2.0"},
		"statutory_bonus": "250.00",
		"standard_monthly_hours": "173.33",
		"rounding": {"precision": 2, "mode": "up"}
	}`
}

func TestParseRuleSet_Valid(t *testing.T) {
	rs, err := factory.ParseRuleSet(validRuleSetJSON())
	require.NoError(t, err)

	assert.Equal(t, payroll.RuleSetID("DO-standard-2025"), rs.ID)
	assert.Equal(t, payroll.JurisdictionCode("DO"), rs.Jurisdiction)
	assert.True(t, rs.EmployeeSSRate.Equal(payroll.MustParseDecimal("0.0483")))
	assert.True(t, rs.SSBaseCap.Equal(payroll.MustParseMoney("125000.00")))
	assert.Len(t, rs.Brackets, 3)
	assert.Equal(t, payroll.RoundUp, rs.Rounding.Mode)
	assert.Equal(t, int32(2), rs.Rounding.Precision)
	require.NotNil(t, rs.EffectiveTo)
}

func TestParseRuleSet_InvalidJSON(t *testing.T) {
	_, err := factory.ParseRuleSet("{not json")
	assert.Error(t, err)
}

func TestParseRuleSet_NumbersRejectedForMoney(t *testing.T) {
	// Rates and amounts must be decimal strings, never JSON numbers -
	// numbers would ride through float64 on some clients.

	_, err := factory.ParseRuleSet(`{
		"id": "x", "jurisdiction": "DO", "effective_from": "2025-01-01",
		"social_security": {"employee_rate": 0.0483, "employer_rate": "0.07", "base_cap": "1000"},
		"surcharges": {"training_fund_rate": "0", "labor_risk_rate": "0"},
		"tax_brackets": [{"lower": "0", "rate": "0", "base": "0"}],
		"overtime": {"ordinary_multiplier": "1.5", "night_multiplier": "2.0"},
		"statutory_bonus": "0", "standard_monthly_hours": "173.33",
		"rounding": {"precision": 2, "mode": "nearest"}
	}`)
	assert.Error(t, err)
}

func TestParseRuleSet_MissingRequiredField(t *testing.T) {
	rj := factory.RuleSetJSON{
		ID:            "x",
		Jurisdiction:  "DO",
		EffectiveFrom: "2025-01-01",
	}
	_, err := factory.FromJSON(rj)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestParseRuleSet_BadDate(t *testing.T) {
	rj := factory.RuleSetJSON{ID: "x", Jurisdiction: "DO", EffectiveFrom: "01/01/2025"}
	_, err := factory.FromJSON(rj)
	assert.Error(t, err)
}

func TestParseRuleSet_DiscontinuousTableRejected(t *testing.T) {
	// The factory runs full rule-set validation, so a structurally broken
	// bracket table is rejected at load time.

	rj := factory.RuleSetJSON{
		ID:            "x",
		Jurisdiction:  "DO",
		EffectiveFrom: "2025-01-01",
		SocialSec:     factory.SocialSecurityJSON{EmployeeRate: "0.05", EmployerRate: "0.07", BaseCap: "1000"},
		Surcharges:    factory.SurchargesJSON{TrainingFundRate: "0", LaborRiskRate: "0"},
		TaxBrackets: []factory.TaxBracketJSON{
			{Lower: "0", Rate: "0.05", Base: "0"},
			{Lower: "10000", Rate: "0.10", Base: "9999"}, // formula gives 500
		},
		Overtime:     factory.OvertimeJSON{OrdinaryMultiplier: "1.5", NightMultiplier: "2.0"},
		StatBonus:    "0",
		MonthlyHours: "173.33",
		Rounding:     factory.RoundingJSON{Precision: 2, Mode: "nearest"},
	}
	_, err := factory.FromJSON(rj)
	assert.ErrorIs(t, err, payroll.ErrInvalidBracketTable)
}

func TestParseRuleSet_DefaultRoundingModeIsNearest(t *testing.T) {
	rj := factory.RuleSetJSON{
		ID:            "x",
		Jurisdiction:  "DO",
		EffectiveFrom: "2025-01-01",
		SocialSec:     factory.SocialSecurityJSON{EmployeeRate: "0.05", EmployerRate: "0.07", BaseCap: "1000"},
		Surcharges:    factory.SurchargesJSON{TrainingFundRate: "0", LaborRiskRate: "0"},
		TaxBrackets:   []factory.TaxBracketJSON{{Lower: "0", Rate: "0.05", Base: "0"}},
		Overtime:      factory.OvertimeJSON{OrdinaryMultiplier: "1.5", NightMultiplier: "2.0"},
		StatBonus:     "0",
		MonthlyHours:  "173.33",
		Rounding:      factory.RoundingJSON{Precision: 2},
	}
	rs, err := factory.FromJSON(rj)
	require.NoError(t, err)
	assert.Equal(t, payroll.RoundNearest, rs.Rounding.Mode)
}

func TestToJSON_RoundTrip(t *testing.T) {
	original, err := factory.ParseRuleSet(validRuleSetJSON())
	require.NoError(t, err)

	back, err := factory.FromJSON(factory.ToJSON(original))
	require.NoError(t, err)

	assert.Equal(t, original.ID, back.ID)
	assert.True(t, original.EmployeeSSRate.Equal(back.EmployeeSSRate))
	assert.True(t, original.SSBaseCap.Equal(back.SSBaseCap))
	assert.True(t, original.StandardMonthlyHours.Equal(back.StandardMonthlyHours))
	assert.Equal(t, original.Rounding, back.Rounding)
	require.Len(t, back.Brackets, len(original.Brackets))
	for i := range original.Brackets {
		assert.True(t, original.Brackets[i].Lower.Equal(back.Brackets[i].Lower))
		assert.True(t, original.Brackets[i].Base.Equal(back.Brackets[i].Base))
	}
	require.NotNil(t, back.EffectiveTo)
	assert.True(t, original.EffectiveTo.Equal(*back.EffectiveTo))
}
