/*
Package factory provides JSON to Go rule-set conversion.

PURPOSE:
  Converts JSON rule-set definitions into payroll.LaborRuleSet values.
  Statutory figures change by gazette, not by code release: payroll
  administrators define the new year's rates and brackets in JSON, and
  the factory produces a validated, strongly-typed rule set.

WHY JSON?
  - Non-developers can load the yearly gazette figures
  - Easy integration with admin UI
  - Version control for rule definitions
  - Database storage of rule configs (the bracket table is stored as a
    JSON blob by the SQLite store; this package is that blob's schema)

VALIDATION:
  Parsing is not acceptance. Every parsed rule set runs
  LaborRuleSet.Validate() before it is returned, so a malformed or
  discontinuous bracket table is rejected at load time, never at
  calculation time. All monetary figures and rates are decimal strings;
  the factory refuses JSON numbers for them to keep floats out of the
  money path.

JSON SCHEMA:
  {
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
      {"lower": "25000.01", "rate": "0.15", "base": "0"}
    ],
    "overtime": {"ordinary_multiplier": "1.5", "night_multiplier": "2.0"},
    "statutory_bonus": "250.00",
    "standard_monthly_hours": "173.33",
    "rounding": {"precision": 2, "mode": "nearest"}
  }

USAGE:
  rs, err := factory.ParseRuleSet(jsonStr)

SEE ALSO:
  - payroll/rules.go: LaborRuleSet definition and validation
  - catalog/json.go: Preset JSON builders
*/
package factory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// RuleSetJSON is the JSON representation of a labor rule set. All rates
// and monetary amounts are decimal strings.
type RuleSetJSON struct {
	ID            string              `json:"id"`
	Jurisdiction  string              `json:"jurisdiction"`
	Version       int                 `json:"version,omitempty"`
	EffectiveFrom string              `json:"effective_from"`
	EffectiveTo   string              `json:"effective_to,omitempty"`
	SocialSec     SocialSecurityJSON  `json:"social_security"`
	Surcharges    SurchargesJSON      `json:"surcharges"`
	TaxBrackets   []TaxBracketJSON    `json:"tax_brackets"`
	Overtime      OvertimeJSON        `json:"overtime"`
	StatBonus     string              `json:"statutory_bonus"`
	MonthlyHours  string              `json:"standard_monthly_hours"`
	Rounding      RoundingJSON        `json:"rounding"`
}

type SocialSecurityJSON struct {
	EmployeeRate string `json:"employee_rate"`
	EmployerRate string `json:"employer_rate"`
	BaseCap      string `json:"base_cap"`
}

type SurchargesJSON struct {
	TrainingFundRate string `json:"training_fund_rate"`
	LaborRiskRate    string `json:"labor_risk_rate"`
}

type TaxBracketJSON struct {
	Lower string `json:"lower"`
	Rate  string `json:"rate"`
	Base  string `json:"base"`
}

type OvertimeJSON struct {
	OrdinaryMultiplier string `json:"ordinary_multiplier"`
	NightMultiplier    string `json:"night_multiplier"`
}

type RoundingJSON struct {
	Precision int32  `json:"precision"`
	Mode      string `json:"mode"` // nearest | up | down
}

// =============================================================================
// RULE SET FACTORY
// =============================================================================

// ParseRuleSet parses a JSON string into a validated LaborRuleSet.
func ParseRuleSet(jsonStr string) (*payroll.LaborRuleSet, error) {
	var rj RuleSetJSON
	if err := json.Unmarshal([]byte(jsonStr), &rj); err != nil {
		return nil, fmt.Errorf("failed to parse rule set JSON: %w", err)
	}
	return FromJSON(rj)
}

// FromJSON converts RuleSetJSON to a validated LaborRuleSet.
func FromJSON(rj RuleSetJSON) (*payroll.LaborRuleSet, error) {
	from, err := parseDate(rj.EffectiveFrom)
	if err != nil {
		return nil, fmt.Errorf("effective_from: %w", err)
	}

	rs := payroll.LaborRuleSet{
		ID:            payroll.RuleSetID(rj.ID),
		Jurisdiction:  payroll.JurisdictionCode(rj.Jurisdiction),
		Version:       rj.Version,
		EffectiveFrom: from,
	}
	if rj.EffectiveTo != "" {
		to, err := parseDate(rj.EffectiveTo)
		if err != nil {
			return nil, fmt.Errorf("effective_to: %w", err)
		}
		rs.EffectiveTo = &to
	}

	fields := []struct {
		name string
		raw  string
		dst  *decimal.Decimal
	}{
		{"social_security.employee_rate", rj.SocialSec.EmployeeRate, &rs.EmployeeSSRate},
		{"social_security.employer_rate", rj.SocialSec.EmployerRate, &rs.EmployerSSRate},
		{"surcharges.training_fund_rate", rj.Surcharges.TrainingFundRate, &rs.TrainingFundRate},
		{"surcharges.labor_risk_rate", rj.Surcharges.LaborRiskRate, &rs.LaborRiskRate},
		{"overtime.ordinary_multiplier", rj.Overtime.OrdinaryMultiplier, &rs.OvertimeOrdinaryRate},
		{"overtime.night_multiplier", rj.Overtime.NightMultiplier, &rs.OvertimeNightRate},
		{"standard_monthly_hours", rj.MonthlyHours, &rs.StandardMonthlyHours},
	}
	for _, f := range fields {
		d, err := parseDecimal(f.name, f.raw)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}

	baseCap, err := parseDecimal("social_security.base_cap", rj.SocialSec.BaseCap)
	if err != nil {
		return nil, err
	}
	rs.SSBaseCap = payroll.Money{Value: baseCap}

	bonus, err := parseDecimal("statutory_bonus", rj.StatBonus)
	if err != nil {
		return nil, err
	}
	rs.StatutoryBonus = payroll.Money{Value: bonus}

	for i, bj := range rj.TaxBrackets {
		lower, err := parseDecimal(fmt.Sprintf("tax_brackets[%d].lower", i), bj.Lower)
		if err != nil {
			return nil, err
		}
		rate, err := parseDecimal(fmt.Sprintf("tax_brackets[%d].rate", i), bj.Rate)
		if err != nil {
			return nil, err
		}
		base, err := parseDecimal(fmt.Sprintf("tax_brackets[%d].base", i), bj.Base)
		if err != nil {
			return nil, err
		}
		rs.Brackets = append(rs.Brackets, payroll.TaxBracket{Lower: lower, Rate: rate, Base: base})
	}

	rs.Rounding = payroll.RoundingPolicy{
		Precision: rj.Rounding.Precision,
		Mode:      parseRoundingMode(rj.Rounding.Mode),
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return &rs, nil
}

// ToJSON converts a LaborRuleSet back to its JSON representation.
func ToJSON(rs *payroll.LaborRuleSet) RuleSetJSON {
	rj := RuleSetJSON{
		ID:            string(rs.ID),
		Jurisdiction:  string(rs.Jurisdiction),
		Version:       rs.Version,
		EffectiveFrom: rs.EffectiveFrom.Format("2006-01-02"),
		SocialSec: SocialSecurityJSON{
			EmployeeRate: rs.EmployeeSSRate.String(),
			EmployerRate: rs.EmployerSSRate.String(),
			BaseCap:      rs.SSBaseCap.String(),
		},
		Surcharges: SurchargesJSON{
			TrainingFundRate: rs.TrainingFundRate.String(),
			LaborRiskRate:    rs.LaborRiskRate.String(),
		},
		Overtime: OvertimeJSON{
			OrdinaryMultiplier: rs.OvertimeOrdinaryRate.String(),
			NightMultiplier:    rs.OvertimeNightRate.String(),
		},
		StatBonus:    rs.StatutoryBonus.String(),
		MonthlyHours: rs.StandardMonthlyHours.String(),
		Rounding: RoundingJSON{
			Precision: rs.Rounding.Precision,
			Mode:      string(rs.Rounding.Mode),
		},
	}
	if rs.EffectiveTo != nil {
		rj.EffectiveTo = rs.EffectiveTo.Format("2006-01-02")
	}
	for _, b := range rs.Brackets {
		rj.TaxBrackets = append(rj.TaxBrackets, TaxBracketJSON{
			Lower: b.Lower.String(),
			Rate:  b.Rate.String(),
			Base:  b.Base.String(),
		})
	}
	return rj
}

// =============================================================================
// PARSE HELPERS
// =============================================================================

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t.UTC(), nil
}

func parseDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%s is required", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", field, raw)
	}
	return d, nil
}

func parseRoundingMode(s string) payroll.RoundingMode {
	switch payroll.RoundingMode(s) {
	case payroll.RoundUp:
		return payroll.RoundUp
	case payroll.RoundDown:
		return payroll.RoundDown
	default:
		return payroll.RoundNearest
	}
}
