/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND RATES:
  Every monetary amount and rate crosses the wire as a decimal string
  ("1038.49", "0.0483"), never as a JSON number. Floats never touch the
  money path.

TYPES:
  Rule sets:
    RuleSetDTO (wraps factory.RuleSetJSON), CreateRuleSetRequest

  Runs:
    ComputeRunRequest, RecomputeRunRequest, RunDTO, PeriodDTO,
    EmployerSummaryDTO

  Ledgers:
    EmployeeInputDTO, ProfileDTO, FixedDeductionDTO, AdjustmentDTO,
    LedgerDTO, LedgerLineDTO, RegisterRowDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ruleset.go: RuleSetJSON type
*/
package api

import (
	"github.com/warp/payroll-engine/factory"
)

// =============================================================================
// RULE SET TYPES
// =============================================================================

// RuleSetDTO represents a labor rule set in API responses.
type RuleSetDTO struct {
	ID           string              `json:"id"`
	Jurisdiction string              `json:"jurisdiction"`
	Version      int                 `json:"version"`
	Config       factory.RuleSetJSON `json:"config"`
}

// CreateRuleSetRequest is the request to register a rule set.
type CreateRuleSetRequest struct {
	Config factory.RuleSetJSON `json:"config"`
}

// =============================================================================
// RUN TYPES
// =============================================================================

// PeriodDTO identifies a pay period. Half: 0 = full month, 1 = first
// half, 2 = second half.
type PeriodDTO struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Half  int `json:"half,omitempty"`
}

// ComputeRunRequest is the request to compute a new payroll run.
type ComputeRunRequest struct {
	Jurisdiction string             `json:"jurisdiction"`
	Period       PeriodDTO          `json:"period"`
	Type         string             `json:"type"`
	Employees    []EmployeeInputDTO `json:"employees"`
}

// RecomputeRunRequest carries fresh inputs for a draft run.
type RecomputeRunRequest struct {
	Employees []EmployeeInputDTO `json:"employees"`
}

// ApproveRunRequest identifies the approving actor.
type ApproveRunRequest struct {
	ApprovedBy string `json:"approved_by"`
}

// VoidRunRequest carries the mandatory void reason.
type VoidRunRequest struct {
	Reason string `json:"reason"`
}

// AppendAdjustmentRequest appends a manual line to one employee's ledger
// on an approved run.
type AppendAdjustmentRequest struct {
	EmployeeID string `json:"employee_id"`
	Label      string `json:"label"`
	Kind       string `json:"kind"` // earning | deduction
	Amount     string `json:"amount"`
	EnteredBy  string `json:"entered_by"`
}

// RunDTO represents a payroll run in API responses.
type RunDTO struct {
	ID              string             `json:"id"`
	Jurisdiction    string             `json:"jurisdiction"`
	Period          PeriodDTO          `json:"period"`
	Type            string             `json:"type"`
	RuleSetID       string             `json:"rule_set_id"`
	State           string             `json:"state"`
	TotalGross      string             `json:"total_gross"`
	TotalDeductions string             `json:"total_deductions"`
	TotalNet        string             `json:"total_net"`
	Employer        EmployerSummaryDTO `json:"employer"`
	Ledgers         []LedgerDTO        `json:"ledgers,omitempty"`
	CreatedAt       string             `json:"created_at"`
	ComputedAt      string             `json:"computed_at"`
	ApprovedAt      string             `json:"approved_at,omitempty"`
	ApprovedBy      string             `json:"approved_by,omitempty"`
	PaidAt          string             `json:"paid_at,omitempty"`
	VoidedAt        string             `json:"voided_at,omitempty"`
	VoidReason      string             `json:"void_reason,omitempty"`
}

// EmployerSummaryDTO is the employer-side cost of a run.
type EmployerSummaryDTO struct {
	SocialSecurity string `json:"social_security"`
	TrainingFund   string `json:"training_fund"`
	LaborRisk      string `json:"labor_risk"`
	BonusAccrual   string `json:"bonus_accrual"`
	Total          string `json:"total"`
}

// =============================================================================
// LEDGER TYPES
// =============================================================================

// ProfileDTO is the compensation profile snapshot for one employee.
type ProfileDTO struct {
	EmployeeID           string              `json:"employee_id"`
	BaseSalary           string              `json:"base_salary"`
	StandardMonthlyHours string              `json:"standard_monthly_hours,omitempty"`
	Affiliated           bool                `json:"affiliated"`
	TaxExempt            bool                `json:"tax_exempt,omitempty"`
	TaxExemptReason      string              `json:"tax_exempt_reason,omitempty"`
	FixedDeductions      []FixedDeductionDTO `json:"fixed_deductions,omitempty"`
	PaymentMethod        string              `json:"payment_method,omitempty"`
	ValidFrom            string              `json:"valid_from"`
	ValidTo              string              `json:"valid_to,omitempty"`
}

// FixedDeductionDTO is a recurring profile deduction.
type FixedDeductionDTO struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// AdjustmentDTO is a manual ad-hoc line entered for the period.
type AdjustmentDTO struct {
	Label     string `json:"label"`
	Kind      string `json:"kind"` // earning | deduction
	Amount    string `json:"amount"`
	EnteredBy string `json:"entered_by"`
	EnteredAt string `json:"entered_at,omitempty"`
}

// EmployeeInputDTO is one employee's input snapshot for a run.
type EmployeeInputDTO struct {
	Profile               ProfileDTO      `json:"profile"`
	OvertimeHours         string          `json:"overtime_hours,omitempty"`
	NightOvertimeHours    string          `json:"night_overtime_hours,omitempty"`
	Commissions           string          `json:"commissions,omitempty"`
	IncludeStatutoryBonus bool            `json:"include_statutory_bonus,omitempty"`
	Adjustments           []AdjustmentDTO `json:"adjustments,omitempty"`
}

// LedgerLineDTO is one itemized payslip line.
type LedgerLineDTO struct {
	Order     int    `json:"order"`
	Concept   string `json:"concept"`
	Label     string `json:"label"`
	Kind      string `json:"kind"`
	Base      string `json:"base"`
	Rate      string `json:"rate,omitempty"`
	Amount    string `json:"amount"`
	Manual    bool   `json:"manual,omitempty"`
	EnteredBy string `json:"entered_by,omitempty"`
	EnteredAt string `json:"entered_at,omitempty"`
}

// LedgerDTO is one employee's full payslip in a run.
type LedgerDTO struct {
	EmployeeID       string          `json:"employee_id"`
	Lines            []LedgerLineDTO `json:"lines"`
	Gross            string          `json:"gross"`
	Deductions       string          `json:"deductions"`
	Net              string          `json:"net"`
	ContributionBase string          `json:"contribution_base"`
}

// RegisterRowDTO is one row of the payroll register report.
type RegisterRowDTO struct {
	EmployeeID string `json:"employee_id"`
	Gross      string `json:"gross"`
	Deductions string `json:"deductions"`
	Net        string `json:"net"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
