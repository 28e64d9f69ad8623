package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// PAY PERIOD - Identity of a payroll run in time
// =============================================================================

// HalfMonth selects whether an ordinary run covers a full month or one of
// its halves (quincena).
type HalfMonth int

const (
	FullMonth  HalfMonth = 0
	FirstHalf  HalfMonth = 1
	SecondHalf HalfMonth = 2
)

// PayPeriod identifies the slice of time a run pays for.
type PayPeriod struct {
	Year  int
	Month time.Month
	Half  HalfMonth
}

func NewPayPeriod(year int, month time.Month) PayPeriod {
	return PayPeriod{Year: year, Month: month, Half: FullMonth}
}

func (p PayPeriod) Validate() error {
	if p.Year < 1900 || p.Year > 9999 {
		return fmt.Errorf("invalid period year %d", p.Year)
	}
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("invalid period month %d", p.Month)
	}
	if p.Half < FullMonth || p.Half > SecondHalf {
		return fmt.Errorf("invalid period half %d", p.Half)
	}
	return nil
}

// Start returns the first day covered by the period.
func (p PayPeriod) Start() time.Time {
	day := 1
	if p.Half == SecondHalf {
		day = 16
	}
	return time.Date(p.Year, p.Month, day, 0, 0, 0, 0, time.UTC)
}

// End returns the last day covered by the period. This is the single
// as-of date used for rule-set and profile resolution across the whole
// run, so a run never mixes rule versions.
func (p PayPeriod) End() time.Time {
	if p.Half == FirstHalf {
		return time.Date(p.Year, p.Month, 15, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(p.Year, p.Month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}

// Fraction returns the portion of a monthly amount the period pays:
// 1 for a full month, 0.5 for a half month.
func (p PayPeriod) Fraction() decimal.Decimal {
	if p.Half == FullMonth {
		return decimal.NewFromInt(1)
	}
	return decimal.New(5, -1)
}

func (p PayPeriod) String() string {
	switch p.Half {
	case FirstHalf:
		return fmt.Sprintf("%04d-%02d/1", p.Year, p.Month)
	case SecondHalf:
		return fmt.Sprintf("%04d-%02d/2", p.Year, p.Month)
	default:
		return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
	}
}

// =============================================================================
// RUN TYPE
// =============================================================================

// RunType distinguishes the kinds of payroll runs a period can have.
type RunType string

const (
	// RunOrdinary is the regular salary run.
	RunOrdinary RunType = "ordinary"
	// RunExtraordinary covers off-cycle payments (e.g. commissions-only).
	RunExtraordinary RunType = "extraordinary"
	// RunStatutoryBonus pays the flat statutory bonus, exempt from income
	// tax and social security.
	RunStatutoryBonus RunType = "statutory_bonus"
)

func (t RunType) Valid() bool {
	switch t {
	case RunOrdinary, RunExtraordinary, RunStatutoryBonus:
		return true
	}
	return false
}
