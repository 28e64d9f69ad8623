/*
contribution.go - Social-security contributions and employer surcharges

PURPOSE:
  Computes the employee-side social-security deduction and the
  employer-side contributions. The two sides share the capped base but
  are computed independently from their own rates - the employer amount
  is never derived from the employee amount.

BASE AND CAP:
  contribution = rate x min(base, cap)

  The base is the employee's gross regular earnings with explicitly
  exempt items (the statutory bonus) already excluded by the caller,
  BEFORE capping. A negative base is a data problem and fails with
  ErrInvalidContributionBase rather than being silently floored.

SURCHARGES:
  The employer additionally owes two independent flat-rate charges
  (training fund, labor risk) on total payroll, uncapped. These never
  touch the employee's payslip; they appear only in the run's
  EmployerContributionSummary.

SEE ALSO:
  - ledger.go: Builds the SS base and the employee deduction line
  - run.go: Aggregates employer contributions per run
*/
package payroll

// =============================================================================
// CONTRIBUTION CALCULATOR
// =============================================================================

type ContributionCalculator struct {
	Rules *LaborRuleSet
}

func NewContributionCalculator(rules *LaborRuleSet) *ContributionCalculator {
	return &ContributionCalculator{Rules: rules}
}

// CapBase returns the contribution base after applying the cap. Fails
// with ErrInvalidContributionBase if the base is negative.
func (c *ContributionCalculator) CapBase(employeeID EmployeeID, base Money) (Money, error) {
	if base.IsNegative() {
		return ZeroMoney(), &ContributionBaseError{EmployeeID: employeeID, Base: base}
	}
	return base.Min(c.Rules.SSBaseCap), nil
}

// Employee returns the unrounded employee-side contribution on an
// already-capped base.
func (c *ContributionCalculator) Employee(cappedBase Money) Money {
	return cappedBase.Mul(c.Rules.EmployeeSSRate)
}

// Employer returns the unrounded employer-side contribution on the same
// capped base, using the employer's own (typically higher) rate.
func (c *ContributionCalculator) Employer(cappedBase Money) Money {
	return cappedBase.Mul(c.Rules.EmployerSSRate)
}

// TrainingFund returns the unrounded training-fund surcharge on total
// payroll (uncapped).
func (c *ContributionCalculator) TrainingFund(totalPayroll Money) Money {
	return totalPayroll.Mul(c.Rules.TrainingFundRate)
}

// LaborRisk returns the unrounded labor-risk surcharge on total payroll
// (uncapped).
func (c *ContributionCalculator) LaborRisk(totalPayroll Money) Money {
	return totalPayroll.Mul(c.Rules.LaborRiskRate)
}
