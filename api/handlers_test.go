package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/catalog"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

// =============================================================================
// TEST SERVER SETUP
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	ruleSets := store.NewRuleSetMemory()
	require.NoError(t, ruleSets.Save(context.Background(), catalog.StandardRuleSet("DO", 2025)))

	engine := payroll.NewEngine(ruleSets, store.NewRunMemory())
	engine.Now = func() time.Time { return time.Date(2025, time.July, 1, 12, 0, 0, 0, time.UTC) }

	srv := httptest.NewServer(api.NewRouter(api.NewHandler(engine, ruleSets)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

func computeRequest() api.ComputeRunRequest {
	return api.ComputeRunRequest{
		Jurisdiction: "DO",
		Period:       api.PeriodDTO{Year: 2025, Month: 6},
		Type:         "ordinary",
		Employees: []api.EmployeeInputDTO{
			{
				Profile: api.ProfileDTO{
					EmployeeID: "emp-1",
					BaseSalary: "30000",
					Affiliated: true,
					ValidFrom:  "2020-01-01",
				},
				OvertimeHours: "10",
			},
			{
				Profile: api.ProfileDTO{
					EmployeeID: "emp-2",
					BaseSalary: "12000",
					Affiliated: true,
					ValidFrom:  "2020-01-01",
				},
			},
		},
	}
}

// =============================================================================
// RUN ENDPOINT TESTS
// =============================================================================

func TestAPI_ComputeRun(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/runs", computeRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var run api.RunDTO
	decodeInto(t, resp, &run)

	assert.Equal(t, "draft", run.State)
	assert.Equal(t, "DO-standard-2025", run.RuleSetID)
	require.Len(t, run.Ledgers, 2)
	assert.Equal(t, "emp-1", run.Ledgers[0].EmployeeID)
	assert.NotEmpty(t, run.TotalNet)
	// Decimal strings, never numbers
	assert.Regexp(t, `^\d+(\.\d+)?$`, run.TotalGross)
}

func TestAPI_ComputeRun_DuplicateConflict(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/runs", computeRequest())
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/runs", computeRequest())
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_ComputeRun_BadDecimalRejected(t *testing.T) {
	srv := newTestServer(t)

	req := computeRequest()
	req.Employees[0].Profile.BaseSalary = "30,000"
	resp := postJSON(t, srv.URL+"/api/runs", req)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_RunLifecycle(t *testing.T) {
	srv := newTestServer(t)

	var run api.RunDTO
	decodeInto(t, postJSON(t, srv.URL+"/api/runs", computeRequest()), &run)
	base := fmt.Sprintf("%s/api/runs/%s", srv.URL, run.ID)

	// Approve
	var approved api.RunDTO
	resp := postJSON(t, base+"/approve", api.ApproveRunRequest{ApprovedBy: "cfo-maria"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeInto(t, resp, &approved)
	assert.Equal(t, "approved", approved.State)
	assert.Equal(t, "cfo-maria", approved.ApprovedBy)

	// Append an audited adjustment while approved
	resp = postJSON(t, base+"/adjustments", api.AppendAdjustmentRequest{
		EmployeeID: "emp-1",
		Label:      "Cafeteria balance",
		Kind:       "deduction",
		Amount:     "75.50",
		EnteredBy:  "hr-ana",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var adjusted api.RunDTO
	decodeInto(t, resp, &adjusted)
	assert.NotEqual(t, approved.TotalNet, adjusted.TotalNet)

	// Pay
	resp = postJSON(t, base+"/pay", struct{}{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var paid api.RunDTO
	decodeInto(t, resp, &paid)
	assert.Equal(t, "paid", paid.State)

	// Voiding a paid run conflicts
	resp = postJSON(t, base+"/void", api.VoidRunRequest{Reason: "too late"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPI_VoidThenRecreate(t *testing.T) {
	srv := newTestServer(t)

	var run api.RunDTO
	decodeInto(t, postJSON(t, srv.URL+"/api/runs", computeRequest()), &run)

	resp := postJSON(t, fmt.Sprintf("%s/api/runs/%s/void", srv.URL, run.ID),
		api.VoidRunRequest{Reason: "wrong inputs"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/runs", computeRequest())
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "voided slot should be free")
}

func TestAPI_GetRunNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/runs/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// REPORT ENDPOINT TESTS
// =============================================================================

func TestAPI_Register(t *testing.T) {
	srv := newTestServer(t)

	var run api.RunDTO
	decodeInto(t, postJSON(t, srv.URL+"/api/runs", computeRequest()), &run)

	resp, err := http.Get(fmt.Sprintf("%s/api/runs/%s/register", srv.URL, run.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var rows []api.RegisterRowDTO
	decodeInto(t, resp, &rows)
	require.Len(t, rows, 2)
	assert.Equal(t, "emp-1", rows[0].EmployeeID)
	assert.NotEmpty(t, rows[0].Net)
}

func TestAPI_EmployerSummary(t *testing.T) {
	srv := newTestServer(t)

	var run api.RunDTO
	decodeInto(t, postJSON(t, srv.URL+"/api/runs", computeRequest()), &run)

	resp, err := http.Get(fmt.Sprintf("%s/api/runs/%s/employer-summary", srv.URL, run.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var summary api.EmployerSummaryDTO
	decodeInto(t, resp, &summary)
	assert.NotEmpty(t, summary.SocialSecurity)
	assert.NotEmpty(t, summary.Total)
}

func TestAPI_GetLedger(t *testing.T) {
	srv := newTestServer(t)

	var run api.RunDTO
	decodeInto(t, postJSON(t, srv.URL+"/api/runs", computeRequest()), &run)

	resp, err := http.Get(fmt.Sprintf("%s/api/runs/%s/ledgers/emp-2", srv.URL, run.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ledger api.LedgerDTO
	decodeInto(t, resp, &ledger)
	assert.Equal(t, "emp-2", ledger.EmployeeID)
	assert.NotEmpty(t, ledger.Lines)

	resp, err = http.Get(fmt.Sprintf("%s/api/runs/%s/ledgers/ghost", srv.URL, run.ID))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// RULE SET ENDPOINT TESTS
// =============================================================================

func TestAPI_CreateAndListRuleSets(t *testing.T) {
	srv := newTestServer(t)

	var created api.RuleSetDTO
	var config struct {
		Config json.RawMessage `json:"config"`
	}
	config.Config = json.RawMessage(catalog.StandardRuleSetJSON("MX", 2025))

	resp := postJSON(t, srv.URL+"/api/rule-sets", config)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeInto(t, resp, &created)
	assert.Equal(t, "MX-standard-2025", created.ID)

	resp, err := http.Get(srv.URL + "/api/rule-sets?jurisdiction=MX")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []api.RuleSetDTO
	decodeInto(t, resp, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "MX", list[0].Jurisdiction)
}

func TestAPI_CreateRuleSet_InvalidRejected(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/rule-sets", api.CreateRuleSetRequest{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPI_ListRuleSets_RequiresJurisdiction(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/rule-sets")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
