/*
ledger.go - Canonical payslip assembly

PURPOSE:
  LedgerBuilder turns one employee's input snapshot into the ordered
  ledger of earning and deduction lines for a run. This is where all the
  calculators meet and where the rounding discipline is enforced: every
  line is rounded exactly once at its final amount, and the ledger totals
  are sums of those already-rounded amounts.

CANONICAL ORDER:
  Earnings:   base salary, ordinary overtime, night overtime,
              commissions, statutory bonus, manual earning adjustments
              -> "total devengado" (gross)
  Deductions: social security (employee), income tax, fixed recurring
              deductions, manual deduction adjustments
              -> "total deducciones"
  Net = gross - deductions. If deductions would exceed gross the builder
  fails with NegativeNetPayError - never a silent clamp - surfacing the
  data problem (e.g. a misconfigured loan installment) for a human.

BASES:
  Social security base = gross - exempt items (the statutory bonus),
  capped afterwards. Taxable base = gross - exempt items. Both use the
  rounded line amounts, so the printed payslip is self-consistent.

RUN TYPES:
  Ordinary runs build the full ledger. Statutory-bonus runs pay only the
  flat bonus (exempt from tax and social security) plus any manual
  adjustments. Extraordinary runs carry no base salary or overtime, only
  commissions and adjustments, taxed and contributed normally.

SEE ALSO:
  - tax.go, contribution.go, overtime.go: The per-concept calculators
  - run.go: Aggregates the built ledgers into run totals
*/
package payroll

// =============================================================================
// LEDGER BUILDER
// =============================================================================

type LedgerBuilder struct {
	Rules  *LaborRuleSet
	Period PayPeriod
	Type   RunType

	tax      *TaxBracketCalculator
	contrib  *ContributionCalculator
	overtime *OvertimeCalculator
}

func NewLedgerBuilder(rules *LaborRuleSet, period PayPeriod, runType RunType) *LedgerBuilder {
	return &LedgerBuilder{
		Rules:    rules,
		Period:   period,
		Type:     runType,
		tax:      NewTaxBracketCalculator(rules),
		contrib:  NewContributionCalculator(rules),
		overtime: NewOvertimeCalculator(rules),
	}
}

// Build computes the full ordered ledger for one employee. The input is
// read-only; repeated calls with the same input produce identical output.
func (b *LedgerBuilder) Build(input EmployeeInput) (*EmployeeLedger, error) {
	profile := &input.Profile
	asOf := b.Period.End()
	if !profile.ActiveAt(asOf) {
		return nil, &StaleProfileError{EmployeeID: profile.EmployeeID, AsOf: asOf}
	}

	round := b.Rules.Rounding
	ledger := &EmployeeLedger{EmployeeID: profile.EmployeeID}

	// ---- Earnings ----
	exempt := ZeroMoney()

	switch b.Type {
	case RunStatutoryBonus:
		bonus := round.Apply(b.Rules.StatutoryBonus)
		ledger.Lines = append(ledger.Lines, PayLedgerLine{
			Concept: ConceptStatutoryBonus,
			Label:   "Statutory bonus",
			Kind:    KindEarning,
			Base:    b.Rules.StatutoryBonus,
			Amount:  bonus,
		})
		exempt = exempt.Add(bonus)

	case RunExtraordinary:
		// Off-cycle run: no salary, overtime or bonus lines.

	default: // RunOrdinary
		fraction := b.Period.Fraction()
		salary := round.Apply(profile.BaseSalary.Mul(fraction))
		ledger.Lines = append(ledger.Lines, PayLedgerLine{
			Concept: ConceptBaseSalary,
			Label:   "Base salary",
			Kind:    KindEarning,
			Base:    profile.BaseSalary,
			Amount:  salary,
		})

		ordinary, err := b.overtime.Ordinary(profile.BaseSalary, profile.StandardMonthlyHours, input.OvertimeHours)
		if err != nil {
			return nil, err
		}
		if !ordinary.IsZero() {
			rate := b.Rules.OvertimeOrdinaryRate
			ledger.Lines = append(ledger.Lines, PayLedgerLine{
				Concept: ConceptOvertimeOrdinary,
				Label:   "Overtime (ordinary)",
				Kind:    KindEarning,
				Base:    b.overtime.HourlyRate(profile.BaseSalary, profile.StandardMonthlyHours).Mul(input.OvertimeHours),
				Rate:    &rate,
				Amount:  round.Apply(ordinary),
			})
		}

		night, err := b.overtime.Night(profile.BaseSalary, profile.StandardMonthlyHours, input.NightOvertimeHours)
		if err != nil {
			return nil, err
		}
		if !night.IsZero() {
			rate := b.Rules.OvertimeNightRate
			ledger.Lines = append(ledger.Lines, PayLedgerLine{
				Concept: ConceptOvertimeNight,
				Label:   "Overtime (night)",
				Kind:    KindEarning,
				Base:    b.overtime.HourlyRate(profile.BaseSalary, profile.StandardMonthlyHours).Mul(input.NightOvertimeHours),
				Rate:    &rate,
				Amount:  round.Apply(night),
			})
		}

		if input.IncludeStatutoryBonus && b.Rules.StatutoryBonus.IsPositive() {
			bonus := round.Apply(b.Rules.StatutoryBonus)
			ledger.Lines = append(ledger.Lines, PayLedgerLine{
				Concept: ConceptStatutoryBonus,
				Label:   "Statutory bonus",
				Kind:    KindEarning,
				Base:    b.Rules.StatutoryBonus,
				Amount:  bonus,
			})
			exempt = exempt.Add(bonus)
		}
	}

	if b.Type != RunStatutoryBonus && input.Commissions.IsPositive() {
		commission := round.Apply(input.Commissions)
		ledger.Lines = append(ledger.Lines, PayLedgerLine{
			Concept: ConceptCommission,
			Label:   "Commissions",
			Kind:    KindEarning,
			Base:    input.Commissions,
			Amount:  commission,
		})
	}

	for _, adj := range input.Adjustments {
		if adj.Kind != KindEarning {
			continue
		}
		ledger.Lines = append(ledger.Lines, b.adjustmentLine(adj, round))
	}

	gross := ZeroMoney()
	for _, line := range ledger.Lines {
		gross = gross.Add(line.Amount)
	}

	// ---- Deductions ----
	if b.Type != RunStatutoryBonus {
		if profile.Affiliated {
			base := gross.Sub(exempt)
			capped, err := b.contrib.CapBase(profile.EmployeeID, base)
			if err != nil {
				return nil, err
			}
			ledger.ContributionBase = capped
			ss := round.Apply(b.contrib.Employee(capped))
			if !ss.IsZero() {
				rate := b.Rules.EmployeeSSRate
				ledger.Lines = append(ledger.Lines, PayLedgerLine{
					Concept: ConceptSocialSecurity,
					Label:   "Social security (employee)",
					Kind:    KindDeduction,
					Base:    capped,
					Rate:    &rate,
					Amount:  ss,
				})
			}
		}

		if !profile.TaxExempt {
			taxable := gross.Sub(exempt)
			tax := round.Apply(Money{Value: b.tax.Tax(taxable.Value)})
			if !tax.IsZero() {
				ledger.Lines = append(ledger.Lines, PayLedgerLine{
					Concept: ConceptIncomeTax,
					Label:   "Income tax",
					Kind:    KindDeduction,
					Base:    taxable,
					Amount:  tax,
				})
			}
		}

		if b.Type == RunOrdinary {
			fraction := b.Period.Fraction()
			for _, fd := range profile.FixedDeductions {
				amount := round.Apply(fd.Amount.Mul(fraction))
				if amount.IsZero() {
					continue
				}
				ledger.Lines = append(ledger.Lines, PayLedgerLine{
					Concept: ConceptFixedDeduction,
					Label:   fd.Label,
					Kind:    KindDeduction,
					Base:    fd.Amount,
					Amount:  amount,
				})
			}
		}
	}

	for _, adj := range input.Adjustments {
		if adj.Kind != KindDeduction {
			continue
		}
		ledger.Lines = append(ledger.Lines, b.adjustmentLine(adj, round))
	}

	for i := range ledger.Lines {
		ledger.Lines[i].Order = i + 1
	}

	if err := ledger.RecalculateTotals(); err != nil {
		return nil, err
	}
	return ledger, nil
}

func (b *LedgerBuilder) adjustmentLine(adj Adjustment, round RoundingPolicy) PayLedgerLine {
	line := PayLedgerLine{
		Concept: ConceptAdjustment,
		Label:   adj.Label,
		Kind:    adj.Kind,
		Base:    adj.Amount,
		Amount:  round.Apply(adj.Amount),
		Manual:  true,
		EnteredBy: adj.EnteredBy,
	}
	if !adj.EnteredAt.IsZero() {
		line.EnteredAt = adj.EnteredAt.UTC().Format("2006-01-02T15:04:05Z07:00")
	}
	return line
}
