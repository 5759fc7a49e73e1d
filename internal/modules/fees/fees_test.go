package fees

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundflow/internal/domain"
)

func rule(from, to, bin string, fee int64) domain.FeeRule {
	return domain.FeeRule{
		FromBank:   from,
		FromBranch: from + "1",
		Service:    "G",
		AmountBin:  bin,
		ToBank:     to,
		ToBranch:   to + "1",
		Fee:        fee,
	}
}

func TestParseBin(t *testing.T) {
	iv, err := ParseBin("0-30000")
	require.NoError(t, err)
	assert.Equal(t, 0.0, iv.Low)
	assert.Equal(t, 30000.0, iv.High)

	iv, err = ParseBin("30001+")
	require.NoError(t, err)
	assert.Equal(t, 30001.0, iv.Low)
	assert.True(t, math.IsInf(iv.High, 1))

	iv, err = ParseBin("100 - 200")
	require.NoError(t, err)
	assert.Equal(t, 100.0, iv.Low)
	assert.Equal(t, 200.0, iv.High)

	_, err = ParseBin("cheap")
	assert.Error(t, err)

	_, err = ParseBin("100-")
	assert.Error(t, err)
}

func TestIntervalBoundsAreClosed(t *testing.T) {
	iv, err := ParseBin("100-200")
	require.NoError(t, err)
	assert.True(t, iv.Contains(100))
	assert.True(t, iv.Contains(200))
	assert.False(t, iv.Contains(99))
	assert.False(t, iv.Contains(201))
}

func TestNewCalculator_MalformedBinFailsFast(t *testing.T) {
	_, err := NewCalculator([]domain.FeeRule{rule("A", "B", "not-a-bin", 100)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "amount_bin")
}

func TestCalculator_Fee(t *testing.T) {
	calc, err := NewCalculator([]domain.FeeRule{
		rule("A", "B", "0-30000", 110),
		rule("A", "B", "30001+", 330),
	})
	require.NoError(t, err)

	r := rule("A", "B", "", 0).Route()

	fee, err := calc.Fee(r, 500)
	require.NoError(t, err)
	assert.Equal(t, int64(110), fee)

	fee, err = calc.Fee(r, 50000)
	require.NoError(t, err)
	assert.Equal(t, int64(330), fee)
}

func TestCalculator_FirstMatchWins(t *testing.T) {
	calc, err := NewCalculator([]domain.FeeRule{
		rule("A", "B", "0-1000", 110),
		rule("A", "B", "0-1000", 990),
	})
	require.NoError(t, err)

	fee, err := calc.Fee(rule("A", "B", "", 0).Route(), 500)
	require.NoError(t, err)
	assert.Equal(t, int64(110), fee)
}

func TestCalculator_NoMatch(t *testing.T) {
	calc, err := NewCalculator([]domain.FeeRule{rule("A", "B", "0-1000", 110)})
	require.NoError(t, err)

	_, err = calc.Fee(rule("A", "C", "", 0).Route(), 500)
	assert.ErrorIs(t, err, ErrNoMatchingRule)

	// Route matches but the amount falls outside every bin.
	_, err = calc.Fee(rule("A", "B", "", 0).Route(), 5000)
	assert.ErrorIs(t, err, ErrNoMatchingRule)
}

func TestBuildRouteFees(t *testing.T) {
	fees, err := BuildRouteFees([]domain.FeeRule{
		rule("A", "B", "0-30000", 110),
		rule("A", "B", "30001+", 330),
		rule("B", "A", "0+", 220),
	})
	require.NoError(t, err)

	assert.Len(t, fees, 2)
	assert.Equal(t, int64(110), fees[rule("A", "B", "", 0).Route()])
	assert.Equal(t, int64(220), fees[rule("B", "A", "", 0).Route()])
}

func TestBuildRouteFees_ValidatesBins(t *testing.T) {
	_, err := BuildRouteFees([]domain.FeeRule{rule("A", "B", "broken", 110)})
	assert.Error(t, err)
}
