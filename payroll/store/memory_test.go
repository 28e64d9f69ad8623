package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payroll-engine/payroll"
	"github.com/warp/payroll-engine/payroll/store"
)

func memRules() payroll.LaborRuleSet {
	return payroll.LaborRuleSet{
		ID:                   "XX-2025",
		Jurisdiction:         "XX",
		EffectiveFrom:        time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		StandardMonthlyHours: payroll.MustParseDecimal("173.33"),
		Brackets: []payroll.TaxBracket{
			{Lower: payroll.MustParseDecimal("0"), Rate: payroll.MustParseDecimal("0.1"), Base: payroll.MustParseDecimal("0")},
		},
		Rounding: payroll.RoundingPolicy{Precision: 2, Mode: payroll.RoundNearest},
	}
}

func memRun(id payroll.RunID, state payroll.RunState) *payroll.PayrollRun {
	return &payroll.PayrollRun{
		ID:           id,
		Jurisdiction: "XX",
		Period:       payroll.NewPayPeriod(2025, time.June),
		Type:         payroll.RunOrdinary,
		RuleSetID:    "XX-2025",
		State:        state,
		Ledgers: []payroll.EmployeeLedger{
			{EmployeeID: "emp-1", Lines: []payroll.PayLedgerLine{
				{Concept: payroll.ConceptBaseSalary, Kind: payroll.KindEarning, Amount: payroll.MustParseMoney("100"), Order: 1},
			}},
		},
	}
}

func TestRuleSetMemory_SaveValidates(t *testing.T) {
	m := store.NewRuleSetMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, memRules()))

	invalid := memRules()
	invalid.Brackets = nil
	assert.Error(t, m.Save(ctx, invalid))
}

func TestRuleSetMemory_GetAbsentIsNil(t *testing.T) {
	m := store.NewRuleSetMemory()

	rs, err := m.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, rs)
}

func TestRuleSetMemory_ForJurisdiction(t *testing.T) {
	m := store.NewRuleSetMemory()
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, memRules()))

	other := memRules()
	other.ID = "YY-2025"
	other.Jurisdiction = "YY"
	require.NoError(t, m.Save(ctx, other))

	sets, err := m.ForJurisdiction(ctx, "XX")
	require.NoError(t, err)
	assert.Len(t, sets, 1)
	assert.Equal(t, payroll.RuleSetID("XX-2025"), sets[0].ID)
}

func TestRunMemory_ActiveSlotUniqueness(t *testing.T) {
	m := store.NewRunMemory()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, memRun("run-1", payroll.RunDraft)))

	err := m.Save(ctx, memRun("run-2", payroll.RunDraft))
	assert.ErrorIs(t, err, payroll.ErrDuplicateRun)
}

func TestRunMemory_VoidedRunFreesSlot(t *testing.T) {
	m := store.NewRunMemory()
	ctx := context.Background()

	first := memRun("run-1", payroll.RunDraft)
	require.NoError(t, m.Save(ctx, first))

	first.State = payroll.RunVoided
	require.NoError(t, m.Update(ctx, first))

	require.NoError(t, m.Save(ctx, memRun("run-2", payroll.RunDraft)))

	active, err := m.ActiveForPeriod(ctx, "XX", payroll.NewPayPeriod(2025, time.June), payroll.RunOrdinary)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, payroll.RunID("run-2"), active.ID)
}

func TestRunMemory_GetUnknown(t *testing.T) {
	m := store.NewRunMemory()

	_, err := m.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)
}

func TestRunMemory_UpdateUnknown(t *testing.T) {
	m := store.NewRunMemory()

	err := m.Update(context.Background(), memRun("nope", payroll.RunDraft))
	assert.ErrorIs(t, err, payroll.ErrRunNotFound)
}

func TestRunMemory_ClonesOnReadAndWrite(t *testing.T) {
	// Callers must never share ledger slices with the store's copy.

	m := store.NewRunMemory()
	ctx := context.Background()

	original := memRun("run-1", payroll.RunDraft)
	require.NoError(t, m.Save(ctx, original))

	original.Ledgers[0].Lines[0].Amount = payroll.MustParseMoney("999")

	got, err := m.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, got.Ledgers[0].Lines[0].Amount.Equal(payroll.MustParseMoney("100")),
		"mutating the caller's run leaked into the store")

	got.Ledgers[0].Lines[0].Amount = payroll.MustParseMoney("555")
	again, err := m.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.True(t, again.Ledgers[0].Lines[0].Amount.Equal(payroll.MustParseMoney("100")),
		"mutating a read result leaked into the store")
}
