package plancache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundflow/internal/database"
	"github.com/aristath/fundflow/internal/domain"
	"github.com/aristath/fundflow/internal/modules/planner"
	"github.com/aristath/fundflow/internal/solver"
)

func testRequest() planner.Request {
	return planner.Request{
		Banks:    []string{"HSBC", "MUFG"},
		Branches: map[string][]string{"HSBC": {"main"}, "MUFG": {"main"}},
		Days:     []string{"2024-06-03", "2024-06-04"},
		Services: []string{"wire"},
		NetCash: map[domain.BankDay]int64{
			{Bank: "HSBC", Day: "2024-06-03"}: -50,
		},
		InitialBalance: map[string]int64{"HSBC": 100, "MUFG": 200},
		Safety:         map[string]int64{"HSBC": 20, "MUFG": 20},
		RouteFees: map[domain.Route]int64{
			{FromBank: "HSBC", FromBranch: "main", ToBank: "MUFG", ToBranch: "main", Service: "wire"}: 3,
		},
		CutOffs:          map[domain.BankService]string{{Bank: "HSBC", Service: "wire"}: "14:00"},
		ShortfallPenalty: 1,
		PlanningTime:     "15:00",
	}
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	a := Fingerprint(testRequest())
	b := Fingerprint(testRequest())
	require.NotEmpty(t, a)
	assert.Equal(t, a, b, "identical requests must hash identically")

	changed := testRequest()
	changed.InitialBalance["HSBC"] = 101
	assert.NotEqual(t, a, Fingerprint(changed))
}

func TestCache_RoundTrip(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	cache := New(db)
	fp := Fingerprint(testRequest())

	_, ok, err := cache.Get(fp)
	require.NoError(t, err)
	assert.False(t, ok)

	plan := planner.Plan{
		Status: solver.StatusOptimal,
		Transfers: []domain.Transfer{{
			Route: domain.Route{FromBank: "MUFG", FromBranch: "main", ToBank: "HSBC", ToBranch: "main", Service: "wire"},
			Day:   "2024-06-03", Amount: 50, Fee: 3,
		}},
		Balances: map[domain.BankDay]float64{
			{Bank: "HSBC", Day: "2024-06-03"}: 100,
		},
		Shortfalls:     map[domain.BankDay]float64{},
		TotalFee:       3,
		TotalShortfall: 0,
		Objective:      3,
	}
	require.NoError(t, cache.Put(fp, plan))

	got, ok, err := cache.Get(fp)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, solver.StatusOptimal, got.Status)
	assert.Equal(t, plan.Transfers, got.Transfers)
	assert.InDelta(t, 100, got.Balances[domain.BankDay{Bank: "HSBC", Day: "2024-06-03"}], 1e-9)
	assert.InDelta(t, 3, got.TotalFee, 1e-9)
}

func TestCache_PutReplaces(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	defer db.Close()

	cache := New(db)
	require.NoError(t, cache.Put("fp", planner.Plan{Status: solver.StatusOptimal, TotalFee: 1}))
	require.NoError(t, cache.Put("fp", planner.Plan{Status: solver.StatusOptimal, TotalFee: 2}))

	got, ok, err := cache.Get("fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 2, got.TotalFee, 1e-9)
}
