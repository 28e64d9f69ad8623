/*
handlers.go - HTTP API handlers for the payroll engine

PURPOSE:
  Exposes the payroll engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Rule sets:
    GET    /api/rule-sets?jurisdiction=DO  List rule sets
    POST   /api/rule-sets                  Register rule set from JSON
    GET    /api/rule-sets/{id}             Get one rule set

  Runs:
    POST   /api/runs                       Compute a new draft run
    GET    /api/runs/{id}                  Get run with full ledgers
    POST   /api/runs/{id}/recompute        Recompute draft with fresh inputs
    POST   /api/runs/{id}/approve          Draft -> Approved
    POST   /api/runs/{id}/pay              Approved -> Paid
    POST   /api/runs/{id}/void             Draft/Approved -> Voided
    POST   /api/runs/{id}/adjustments      Append manual line (approved runs)

  Reports:
    GET    /api/runs/{id}/register         Per-employee register rows
    GET    /api/runs/{id}/employer-summary Employer-side cost
    GET    /api/runs/{id}/ledgers/{employeeID}  One employee's payslip

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine: Run computation and lifecycle
  - RuleSets: Rule set persistence

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input
  3. Call domain logic (engine, projections)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (duplicate run, disallowed state transition)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.
  Actor identity for approvals and adjustments is taken from the request
  body; production deployments put an auth middleware in front.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/warp/payroll-engine/factory"
	"github.com/warp/payroll-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine   *payroll.Engine
	RuleSets payroll.RuleSetStore
}

// NewHandler creates a new handler around the engine and its rule store.
func NewHandler(engine *payroll.Engine, ruleSets payroll.RuleSetStore) *Handler {
	return &Handler{Engine: engine, RuleSets: ruleSets}
}

// =============================================================================
// RULE SET HANDLERS
// =============================================================================

// CreateRuleSet registers a new rule set from its JSON definition.
func (h *Handler) CreateRuleSet(w http.ResponseWriter, r *http.Request) {
	var req CreateRuleSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	rs, err := factory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule set", err)
		return
	}
	if err := h.RuleSets.Save(r.Context(), *rs); err != nil {
		writeDomainError(w, "Failed to save rule set", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRuleSetDTO(rs))
}

// ListRuleSets returns all rule sets for a jurisdiction.
func (h *Handler) ListRuleSets(w http.ResponseWriter, r *http.Request) {
	jurisdiction := r.URL.Query().Get("jurisdiction")
	if jurisdiction == "" {
		writeError(w, http.StatusBadRequest, "jurisdiction query parameter is required", nil)
		return
	}

	ruleSets, err := h.RuleSets.ForJurisdiction(r.Context(), payroll.JurisdictionCode(jurisdiction))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rule sets", err)
		return
	}

	dtos := make([]RuleSetDTO, len(ruleSets))
	for i := range ruleSets {
		dtos[i] = toRuleSetDTO(&ruleSets[i])
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRuleSet returns a single rule set.
func (h *Handler) GetRuleSet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	rs, err := h.RuleSets.Get(r.Context(), payroll.RuleSetID(id))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get rule set", err)
		return
	}
	if rs == nil {
		writeError(w, http.StatusNotFound, "Rule set not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toRuleSetDTO(rs))
}

// =============================================================================
// RUN HANDLERS
// =============================================================================

// ComputeRun computes a new draft payroll run.
func (h *Handler) ComputeRun(w http.ResponseWriter, r *http.Request) {
	var req ComputeRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	employees, err := parseEmployeeInputs(req.Employees)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee input", err)
		return
	}

	run, err := h.Engine.ComputeRun(r.Context(), payroll.RunSpec{
		Jurisdiction: payroll.JurisdictionCode(req.Jurisdiction),
		Period:       parsePeriod(req.Period),
		Type:         payroll.RunType(req.Type),
		Employees:    employees,
	})
	if err != nil {
		writeDomainError(w, "Failed to compute run", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRunDTO(run, true))
}

// GetRun returns a run with its full ledgers.
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.fetchRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, true))
}

// RecomputeRun recomputes a draft run with fresh inputs.
func (h *Handler) RecomputeRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RecomputeRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	employees, err := parseEmployeeInputs(req.Employees)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee input", err)
		return
	}

	run, err := h.Engine.RecomputeRun(r.Context(), payroll.RunID(id), employees)
	if err != nil {
		writeDomainError(w, "Failed to recompute run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, true))
}

// ApproveRun transitions a draft run to approved.
func (h *Handler) ApproveRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req ApproveRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ApprovedBy == "" {
		writeError(w, http.StatusBadRequest, "approved_by is required", nil)
		return
	}

	run, err := h.Engine.ApproveRun(r.Context(), payroll.RunID(id), req.ApprovedBy)
	if err != nil {
		writeDomainError(w, "Failed to approve run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, false))
}

// PayRun transitions an approved run to paid.
func (h *Handler) PayRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := h.Engine.PayRun(r.Context(), payroll.RunID(id))
	if err != nil {
		writeDomainError(w, "Failed to mark run paid", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, false))
}

// VoidRun voids a draft or approved run.
func (h *Handler) VoidRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req VoidRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	run, err := h.Engine.VoidRun(r.Context(), payroll.RunID(id), req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to void run", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, false))
}

// AppendAdjustment appends a manual line to one employee's ledger on an
// approved run.
func (h *Handler) AppendAdjustment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req AppendAdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := parseMoney("amount", req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adjustment", err)
		return
	}
	kind, err := parseLineKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid adjustment", err)
		return
	}

	run, err := h.Engine.AppendAdjustment(r.Context(),
		payroll.RunID(id), payroll.EmployeeID(req.EmployeeID),
		payroll.Adjustment{
			Label:     req.Label,
			Kind:      kind,
			Amount:    amount,
			EnteredBy: req.EnteredBy,
		})
	if err != nil {
		writeDomainError(w, "Failed to append adjustment", err)
		return
	}
	writeJSON(w, http.StatusOK, toRunDTO(run, true))
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetRegister returns the per-employee register rows for a run.
func (h *Handler) GetRegister(w http.ResponseWriter, r *http.Request) {
	run, ok := h.fetchRun(w, r)
	if !ok {
		return
	}

	rows := payroll.Register(run)
	dtos := make([]RegisterRowDTO, len(rows))
	for i, row := range rows {
		dtos[i] = RegisterRowDTO{
			EmployeeID: string(row.EmployeeID),
			Gross:      row.Gross.String(),
			Deductions: row.Deductions.String(),
			Net:        row.Net.String(),
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployerSummary returns the employer-side cost of a run.
func (h *Handler) GetEmployerSummary(w http.ResponseWriter, r *http.Request) {
	run, ok := h.fetchRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toEmployerDTO(run))
}

// GetLedger returns one employee's payslip from a run.
func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	run, ok := h.fetchRun(w, r)
	if !ok {
		return
	}

	employeeID := chi.URLParam(r, "employeeID")
	ledger := payroll.LedgerFor(run, payroll.EmployeeID(employeeID))
	if ledger == nil {
		writeError(w, http.StatusNotFound, "Employee has no ledger in this run", nil)
		return
	}
	writeJSON(w, http.StatusOK, toLedgerDTO(ledger))
}

func (h *Handler) fetchRun(w http.ResponseWriter, r *http.Request) (*payroll.PayrollRun, bool) {
	id := chi.URLParam(r, "id")
	run, err := h.Engine.Runs.Get(r.Context(), payroll.RunID(id))
	if err != nil {
		writeDomainError(w, "Failed to get run", err)
		return nil, false
	}
	return run, true
}

// =============================================================================
// DOMAIN -> DTO CONVERSION
// =============================================================================

func toRuleSetDTO(rs *payroll.LaborRuleSet) RuleSetDTO {
	return RuleSetDTO{
		ID:           string(rs.ID),
		Jurisdiction: string(rs.Jurisdiction),
		Version:      rs.Version,
		Config:       factory.ToJSON(rs),
	}
}

func toRunDTO(run *payroll.PayrollRun, withLedgers bool) RunDTO {
	dto := RunDTO{
		ID:           string(run.ID),
		Jurisdiction: string(run.Jurisdiction),
		Period: PeriodDTO{
			Year:  run.Period.Year,
			Month: int(run.Period.Month),
			Half:  int(run.Period.Half),
		},
		Type:            string(run.Type),
		RuleSetID:       string(run.RuleSetID),
		State:           string(run.State),
		TotalGross:      run.TotalGross.String(),
		TotalDeductions: run.TotalDeductions.String(),
		TotalNet:        run.TotalNet.String(),
		Employer:        toEmployerDTO(run),
		CreatedAt:       run.CreatedAt.Format(time.RFC3339),
		ComputedAt:      run.ComputedAt.Format(time.RFC3339),
		ApprovedBy:      run.ApprovedBy,
		VoidReason:      run.VoidReason,
	}
	if run.ApprovedAt != nil {
		dto.ApprovedAt = run.ApprovedAt.Format(time.RFC3339)
	}
	if run.PaidAt != nil {
		dto.PaidAt = run.PaidAt.Format(time.RFC3339)
	}
	if run.VoidedAt != nil {
		dto.VoidedAt = run.VoidedAt.Format(time.RFC3339)
	}
	if withLedgers {
		dto.Ledgers = make([]LedgerDTO, len(run.Ledgers))
		for i := range run.Ledgers {
			dto.Ledgers[i] = toLedgerDTO(&run.Ledgers[i])
		}
	}
	return dto
}

func toEmployerDTO(run *payroll.PayrollRun) EmployerSummaryDTO {
	return EmployerSummaryDTO{
		SocialSecurity: run.Employer.SocialSecurity.String(),
		TrainingFund:   run.Employer.TrainingFund.String(),
		LaborRisk:      run.Employer.LaborRisk.String(),
		BonusAccrual:   run.Employer.BonusAccrual.String(),
		Total:          run.Employer.Total.String(),
	}
}

func toLedgerDTO(l *payroll.EmployeeLedger) LedgerDTO {
	dto := LedgerDTO{
		EmployeeID:       string(l.EmployeeID),
		Lines:            make([]LedgerLineDTO, len(l.Lines)),
		Gross:            l.Gross.String(),
		Deductions:       l.Deductions.String(),
		Net:              l.Net.String(),
		ContributionBase: l.ContributionBase.String(),
	}
	for i, line := range l.Lines {
		ld := LedgerLineDTO{
			Order:     line.Order,
			Concept:   string(line.Concept),
			Label:     line.Label,
			Kind:      string(line.Kind),
			Base:      line.Base.String(),
			Amount:    line.Amount.String(),
			Manual:    line.Manual,
			EnteredBy: line.EnteredBy,
			EnteredAt: line.EnteredAt,
		}
		if line.Rate != nil {
			ld.Rate = line.Rate.String()
		}
		dto.Lines[i] = ld
	}
	return dto
}

// =============================================================================
// DTO -> DOMAIN PARSING
// =============================================================================

func parsePeriod(p PeriodDTO) payroll.PayPeriod {
	return payroll.PayPeriod{
		Year:  p.Year,
		Month: time.Month(p.Month),
		Half:  payroll.HalfMonth(p.Half),
	}
}

func parseEmployeeInputs(dtos []EmployeeInputDTO) ([]payroll.EmployeeInput, error) {
	inputs := make([]payroll.EmployeeInput, len(dtos))
	for i, dto := range dtos {
		input, err := parseEmployeeInput(dto)
		if err != nil {
			return nil, fmt.Errorf("employee %q: %w", dto.Profile.EmployeeID, err)
		}
		inputs[i] = input
	}
	return inputs, nil
}

func parseEmployeeInput(dto EmployeeInputDTO) (payroll.EmployeeInput, error) {
	var input payroll.EmployeeInput

	profile, err := parseProfile(dto.Profile)
	if err != nil {
		return input, err
	}
	input.Profile = profile

	if input.OvertimeHours, err = parseOptionalDecimal("overtime_hours", dto.OvertimeHours); err != nil {
		return input, err
	}
	if input.NightOvertimeHours, err = parseOptionalDecimal("night_overtime_hours", dto.NightOvertimeHours); err != nil {
		return input, err
	}
	commissions, err := parseOptionalDecimal("commissions", dto.Commissions)
	if err != nil {
		return input, err
	}
	input.Commissions = payroll.Money{Value: commissions}
	input.IncludeStatutoryBonus = dto.IncludeStatutoryBonus

	for _, a := range dto.Adjustments {
		adj, err := parseAdjustment(a)
		if err != nil {
			return input, err
		}
		input.Adjustments = append(input.Adjustments, adj)
	}
	return input, nil
}

func parseProfile(dto ProfileDTO) (payroll.CompensationProfile, error) {
	var p payroll.CompensationProfile
	if dto.EmployeeID == "" {
		return p, errors.New("employee_id is required")
	}
	p.EmployeeID = payroll.EmployeeID(dto.EmployeeID)

	salary, err := parseMoney("base_salary", dto.BaseSalary)
	if err != nil {
		return p, err
	}
	p.BaseSalary = salary

	if p.StandardMonthlyHours, err = parseOptionalDecimal("standard_monthly_hours", dto.StandardMonthlyHours); err != nil {
		return p, err
	}

	p.Affiliated = dto.Affiliated
	p.TaxExempt = dto.TaxExempt
	p.TaxExemptReason = dto.TaxExemptReason
	p.PaymentMethod = payroll.PaymentMethod(dto.PaymentMethod)

	for _, fd := range dto.FixedDeductions {
		amount, err := parseMoney("fixed_deductions.amount", fd.Amount)
		if err != nil {
			return p, err
		}
		p.FixedDeductions = append(p.FixedDeductions, payroll.FixedDeduction{
			Label:  fd.Label,
			Amount: amount,
		})
	}

	if p.ValidFrom, err = parseDate("valid_from", dto.ValidFrom); err != nil {
		return p, err
	}
	if dto.ValidTo != "" {
		to, err := parseDate("valid_to", dto.ValidTo)
		if err != nil {
			return p, err
		}
		p.ValidTo = &to
	}
	return p, nil
}

func parseAdjustment(dto AdjustmentDTO) (payroll.Adjustment, error) {
	var adj payroll.Adjustment

	amount, err := parseMoney("adjustments.amount", dto.Amount)
	if err != nil {
		return adj, err
	}
	kind, err := parseLineKind(dto.Kind)
	if err != nil {
		return adj, err
	}

	adj.Label = dto.Label
	adj.Kind = kind
	adj.Amount = amount
	adj.EnteredBy = dto.EnteredBy
	if dto.EnteredAt != "" {
		t, err := time.Parse(time.RFC3339, dto.EnteredAt)
		if err != nil {
			return adj, fmt.Errorf("adjustments.entered_at: invalid timestamp %q", dto.EnteredAt)
		}
		adj.EnteredAt = t
	}
	return adj, nil
}

func parseLineKind(s string) (payroll.LineKind, error) {
	switch payroll.LineKind(s) {
	case payroll.KindEarning, payroll.KindDeduction:
		return payroll.LineKind(s), nil
	default:
		return "", fmt.Errorf("invalid line kind %q (want earning or deduction)", s)
	}
}

func parseMoney(field, raw string) (payroll.Money, error) {
	if raw == "" {
		return payroll.ZeroMoney(), fmt.Errorf("%s is required", field)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return payroll.ZeroMoney(), fmt.Errorf("%s: invalid decimal %q", field, raw)
	}
	return payroll.Money{Value: d}, nil
}

func parseOptionalDecimal(field, raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: invalid decimal %q", field, raw)
	}
	return d, nil
}

func parseDate(field, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: invalid date %q (want YYYY-MM-DD)", field, raw)
	}
	return t.UTC(), nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps typed domain failures to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case payroll.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, payroll.ErrDuplicateRun),
		errors.Is(err, payroll.ErrInvalidStateTransition):
		writeError(w, http.StatusConflict, message, err)
	case payroll.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
