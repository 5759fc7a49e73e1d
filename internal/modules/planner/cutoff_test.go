package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundflow/internal/domain"
)

func TestCutoffSchedule_SameDayWithoutRule(t *testing.T) {
	sched, err := newCutoffSchedule([]string{"A"}, []string{"G"}, nil, "15:00", 3)
	require.NoError(t, err)

	assert.Equal(t, 0, sched.settlementIndex("A", "G", 0))
	assert.Equal(t, 2, sched.settlementIndex("A", "G", 2))
}

func TestCutoffSchedule_EarlyCutoffDefersToNextDay(t *testing.T) {
	cutOffs := map[domain.BankService]string{{Bank: "A", Service: "G"}: "14:00"}
	sched, err := newCutoffSchedule([]string{"A"}, []string{"G"}, cutOffs, "15:00", 3)
	require.NoError(t, err)

	assert.Equal(t, 1, sched.settlementIndex("A", "G", 0))
	assert.Equal(t, 2, sched.settlementIndex("A", "G", 1))
	// Clipped: nothing settles beyond the horizon.
	assert.Equal(t, 2, sched.settlementIndex("A", "G", 2))
}

func TestCutoffSchedule_LateCutoffSettlesSameDay(t *testing.T) {
	cutOffs := map[domain.BankService]string{{Bank: "A", Service: "G"}: "15:00"}
	sched, err := newCutoffSchedule([]string{"A"}, []string{"G"}, cutOffs, "15:00", 2)
	require.NoError(t, err)

	assert.Equal(t, 0, sched.settlementIndex("A", "G", 0))
}

func TestCutoffSchedule_InvalidTimes(t *testing.T) {
	_, err := newCutoffSchedule([]string{"A"}, []string{"G"}, nil, "late", 2)
	assert.Error(t, err)

	cutOffs := map[domain.BankService]string{{Bank: "A", Service: "G"}: "2pm"}
	_, err = newCutoffSchedule([]string{"A"}, []string{"G"}, cutOffs, "15:00", 2)
	assert.Error(t, err)
}
