/*
json.go - JSON preset builders

These construct JSON rule-set definitions directly, for seeding stores
and admin tooling that speaks the factory's wire format. They build the
JSON by hand to avoid an import cycle with the factory package.

USAGE:
  jsonStr := catalog.StandardRuleSetJSON("DO", 2025)
  rs, err := factory.ParseRuleSet(jsonStr)
*/
package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

// StandardRuleSetJSON returns the JSON form of StandardRuleSet.
func StandardRuleSetJSON(jurisdiction string, year int) string {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	rj := map[string]interface{}{
		"id":             fmt.Sprintf("%s-standard-%d", jurisdiction, year),
		"jurisdiction":   jurisdiction,
		"version":        1,
		"effective_from": from.Format("2006-01-02"),
		"effective_to":   from.AddDate(1, 0, 0).Format("2006-01-02"),
		"social_security": map[string]interface{}{
			"employee_rate": "0.0483",
			"employer_rate": "0.0709",
			"base_cap":      "125000.00",
		},
		"surcharges": map[string]interface{}{
			"training_fund_rate": "0.01",
			"labor_risk_rate":    "0.012",
		},
		"tax_brackets": []map[string]interface{}{
			{"lower": "0", "rate": "0", "base": "0"},
			{"lower": "25000.01", "rate": "0.15", "base": "0"},
			{"lower": "41666.68", "rate": "0.20", "base": "2500.00"},
			{"lower": "83333.34", "rate": "0.25", "base": "10833.33"},
		},
		"overtime": map[string]interface{}{
			"ordinary_multiplier": "1.5",
			"night_multiplier":    "2.0",
		},
		"statutory_bonus":        "250.00",
		"standard_monthly_hours": "173.33",
		"rounding": map[string]interface{}{
			"precision": 2,
			"mode":      "nearest",
		},
	}
	b, _ := json.MarshalIndent(rj, "", "  ")
	return string(b)
}
