package payroll_test

import (
	"errors"
	"testing"

	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// SOCIAL SECURITY CONTRIBUTION TESTS
// =============================================================================

func TestContribution_CappedBase(t *testing.T) {
	// GIVEN: Cap 5000, employee rate 4.83%
	// WHEN: Contribution base 12000 (exempt bonus already excluded)
	// THEN: Base caps at 5000, contribution = 241.50 exactly

	rules := testRules()
	rules.SSBaseCap = money("5000")
	calc := payroll.NewContributionCalculator(rules)

	capped, err := calc.CapBase("emp-1", money("12000"))
	if err != nil {
		t.Fatal(err)
	}
	if !capped.Equal(money("5000")) {
		t.Errorf("expected capped base 5000, got %v", capped)
	}

	contribution := rules.Rounding.Apply(calc.Employee(capped))
	if !contribution.Equal(money("241.50")) {
		t.Errorf("expected 241.50, got %v", contribution)
	}
}

func TestContribution_BelowCapUsesFullBase(t *testing.T) {
	calc := payroll.NewContributionCalculator(testRules())

	capped, err := calc.CapBase("emp-1", money("12000"))
	if err != nil {
		t.Fatal(err)
	}
	if !capped.Equal(money("12000")) {
		t.Errorf("base below cap should pass through, got %v", capped)
	}
	// 0.0483 x 12000 = 579.60
	if got := calc.Employee(capped); !got.Equal(money("579.60")) {
		t.Errorf("expected 579.60, got %v", got)
	}
}

func TestContribution_NegativeBaseRejected(t *testing.T) {
	// A negative base is a data problem, never silently floored to zero.

	calc := payroll.NewContributionCalculator(testRules())

	_, err := calc.CapBase("emp-1", money("-1"))
	if !errors.Is(err, payroll.ErrInvalidContributionBase) {
		t.Fatalf("expected ErrInvalidContributionBase, got %v", err)
	}
	var cbe *payroll.ContributionBaseError
	if !errors.As(err, &cbe) || cbe.EmployeeID != "emp-1" {
		t.Errorf("error should identify the employee, got %+v", cbe)
	}
}

func TestContribution_EmployerRateIndependent(t *testing.T) {
	// GIVEN: Employer rate 7.09% on the same capped base
	// THEN: The employer amount is computed from its own rate, never
	//       derived from the employee amount

	calc := payroll.NewContributionCalculator(testRules())

	capped, _ := calc.CapBase("emp-1", money("10000"))
	employee := calc.Employee(capped)
	employer := calc.Employer(capped)

	if !employee.Equal(money("483")) {
		t.Errorf("expected employee 483, got %v", employee)
	}
	if !employer.Equal(money("709")) {
		t.Errorf("expected employer 709, got %v", employer)
	}
}

func TestContribution_MonotonicThenConstant(t *testing.T) {
	// GIVEN: Cap 5000
	// WHEN: The base grows past the cap
	// THEN: The contribution grows with it, then stays constant

	rules := testRules()
	rules.SSBaseCap = money("5000")
	calc := payroll.NewContributionCalculator(rules)

	prev := payroll.ZeroMoney()
	atCap := payroll.ZeroMoney()
	for _, s := range []string{"0", "1000", "4999.99", "5000", "8000", "100000"} {
		capped, err := calc.CapBase("emp-1", money(s))
		if err != nil {
			t.Fatal(err)
		}
		got := calc.Employee(capped)
		if got.LessThan(prev) {
			t.Errorf("contribution decreased at base %s: %v < %v", s, got, prev)
		}
		prev = got
		if s == "5000" {
			atCap = got
		}
	}
	if !prev.Equal(atCap) {
		t.Errorf("contribution above cap should stay at the cap value %v, got %v", atCap, prev)
	}
}

// =============================================================================
// EMPLOYER SURCHARGE TESTS
// =============================================================================

func TestSurcharges_UncappedOnTotalPayroll(t *testing.T) {
	// Training fund and labor risk ignore the SS cap entirely.

	rules := testRules()
	rules.SSBaseCap = money("5000")
	calc := payroll.NewContributionCalculator(rules)

	total := money("300000")
	if got := calc.TrainingFund(total); !got.Equal(money("3000")) {
		t.Errorf("expected training fund 3000, got %v", got)
	}
	if got := calc.LaborRisk(total); !got.Equal(money("3600")) {
		t.Errorf("expected labor risk 3600, got %v", got)
	}
}
