/*
run.go - Payroll run state machine and aggregation

PURPOSE:
  A PayrollRun is the unit of work: one period, one type, one resolved
  rule set, one ledger per employee, and run-level totals that mirror the
  sum of the ledgers exactly. This file owns the run lifecycle and the
  aggregation step.

STATE MACHINE:
  Draft -> Approved -> Paid, with a side transition Draft/Approved ->
  Voided (terminal, requires a reason). Approving requires all ledgers
  present; paying is a pure status/timestamp change; voiding is allowed
  from anywhere except Paid. Recomputation is only permitted in Draft.
  Approved and Paid runs are immutable snapshots - corrections go through
  appended adjustment lines (Approved only, with audit) or a new run.

RECONCILIATION INVARIANT:
  run.TotalNet   == sum of ledger.Net     (exactly)
  run.TotalGross == sum of ledger.Gross   (exactly)
  Rounding happened per line before summation, so the printed payslips
  and the printed run report are individually self-consistent.

EMPLOYER SUMMARY:
  The EmployerContributionSummary is owned 1:1 by its run, derived during
  aggregation and recomputed whenever the run is recomputed. It is never
  edited directly.

SEE ALSO:
  - ledger.go: Produces the per-employee ledgers
  - engine.go: Orchestrates computation and persistence
*/
package payroll

import "time"

// =============================================================================
// RUN STATE
// =============================================================================

type RunState string

const (
	RunDraft    RunState = "draft"
	RunApproved RunState = "approved"
	RunPaid     RunState = "paid"
	RunVoided   RunState = "voided"
)

// =============================================================================
// EMPLOYER CONTRIBUTION SUMMARY
// =============================================================================

// EmployerContributionSummary aggregates everything the employer owes on
// top of net pay for one run.
type EmployerContributionSummary struct {
	SocialSecurity Money // employer-side SS, summed per employee
	TrainingFund   Money // flat surcharge on total payroll
	LaborRisk      Money // flat surcharge on total payroll
	BonusAccrual   Money // proportional statutory-bonus liability accrual
	Total          Money
}

// =============================================================================
// PAYROLL RUN
// =============================================================================

type PayrollRun struct {
	ID           RunID
	Jurisdiction JurisdictionCode
	Period       PayPeriod
	Type         RunType

	// The rule-set snapshot the whole run was computed against.
	RuleSetID RuleSetID

	State RunState

	Ledgers []EmployeeLedger

	TotalGross      Money
	TotalDeductions Money
	TotalNet        Money

	Employer EmployerContributionSummary

	CreatedAt  time.Time
	ComputedAt time.Time
	ApprovedAt *time.Time
	ApprovedBy string
	PaidAt     *time.Time
	VoidedAt   *time.Time
	VoidReason string
}

// Active reports whether the run occupies its (period, type) uniqueness
// slot. Voided runs do not, so a corrected run can be created.
func (r *PayrollRun) Active() bool {
	return r.State != RunVoided
}

// CanRecompute reports whether calculation may be re-run.
func (r *PayrollRun) CanRecompute() bool {
	return r.State == RunDraft
}

// Approve transitions Draft -> Approved. All ledgers must be present
// (the run was fully computed); ledgers are NegativeNetPay-free by
// construction, computation fails closed before a draft ever holds one.
func (r *PayrollRun) Approve(by string, at time.Time) error {
	if r.State != RunDraft {
		return &StateTransitionError{RunID: r.ID, From: r.State, To: RunApproved}
	}
	if r.ComputedAt.IsZero() || len(r.Ledgers) == 0 {
		return &StateTransitionError{RunID: r.ID, From: r.State, To: RunApproved}
	}
	r.State = RunApproved
	r.ApprovedAt = &at
	r.ApprovedBy = by
	return nil
}

// MarkPaid transitions Approved -> Paid. Pure status/timestamp change.
func (r *PayrollRun) MarkPaid(at time.Time) error {
	if r.State != RunApproved {
		return &StateTransitionError{RunID: r.ID, From: r.State, To: RunPaid}
	}
	r.State = RunPaid
	r.PaidAt = &at
	return nil
}

// Void transitions Draft or Approved -> Voided. Terminal; a reason is
// required. Paid runs cannot be voided.
func (r *PayrollRun) Void(reason string, at time.Time) error {
	if r.State == RunPaid || r.State == RunVoided {
		return &StateTransitionError{RunID: r.ID, From: r.State, To: RunVoided}
	}
	if reason == "" {
		return &StateTransitionError{RunID: r.ID, From: r.State, To: RunVoided}
	}
	r.State = RunVoided
	r.VoidedAt = &at
	r.VoidReason = reason
	return nil
}

// =============================================================================
// RUN AGGREGATOR
// =============================================================================

// RunAggregator rolls the per-employee ledgers up into run totals and the
// employer contribution summary.
type RunAggregator struct {
	Rules *LaborRuleSet
}

func NewRunAggregator(rules *LaborRuleSet) *RunAggregator {
	return &RunAggregator{Rules: rules}
}

// Aggregate fills the run's totals and employer summary from its ledgers.
// Totals are sums of the already-rounded ledger totals; nothing here is
// re-rounded except the employer-side amounts, each rounded once at its
// own final value.
func (a *RunAggregator) Aggregate(run *PayrollRun) {
	round := a.Rules.Rounding
	contrib := NewContributionCalculator(a.Rules)

	gross := ZeroMoney()
	deductions := ZeroMoney()
	net := ZeroMoney()
	employerSS := ZeroMoney()
	bonusAccrual := ZeroMoney()

	accruesBonus := run.Type == RunOrdinary && a.Rules.StatutoryBonus.IsPositive()
	twelve := NewMoneyFromInt(12).Value

	for _, ledger := range run.Ledgers {
		gross = gross.Add(ledger.Gross)
		deductions = deductions.Add(ledger.Deductions)
		net = net.Add(ledger.Net)

		if ledger.ContributionBase.IsPositive() {
			employerSS = employerSS.Add(round.Apply(contrib.Employer(ledger.ContributionBase)))
		}
		if accruesBonus {
			accrual := a.Rules.StatutoryBonus.Div(twelve).Mul(run.Period.Fraction())
			bonusAccrual = bonusAccrual.Add(round.Apply(accrual))
		}
	}

	training := round.Apply(contrib.TrainingFund(gross))
	risk := round.Apply(contrib.LaborRisk(gross))

	run.TotalGross = gross
	run.TotalDeductions = deductions
	run.TotalNet = net
	run.Employer = EmployerContributionSummary{
		SocialSecurity: employerSS,
		TrainingFund:   training,
		LaborRisk:      risk,
		BonusAccrual:   bonusAccrual,
		Total:          employerSS.Add(training).Add(risk).Add(bonusAccrual),
	}
}
