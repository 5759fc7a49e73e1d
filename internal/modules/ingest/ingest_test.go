package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/fundflow/internal/domain"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMaster(t *testing.T) {
	path := writeFile(t, "master.csv",
		"bank_id,branch_id,service_id,cut_off_time\nA,A1,G,15:00\nB,B1,G,\n")

	rows, err := LoadMaster(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, domain.MasterRow{Bank: "A", Branch: "A1", Service: "G", CutOffTime: "15:00"}, rows[0])
	assert.Empty(t, rows[1].CutOffTime)
}

func TestLoadMaster_MissingColumn(t *testing.T) {
	path := writeFile(t, "master.csv", "bank_id,branch_id,service_id\nA,A1,G\n")

	_, err := LoadMaster(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing columns")
	assert.Contains(t, err.Error(), "cut_off_time")
}

func TestLoadFeeTable(t *testing.T) {
	path := writeFile(t, "fee.csv",
		"from_bank,from_branch,service_id,amount_bin,to_bank,to_branch,fee\nA,A1,G,0-30000,B,B1,110\n")

	rows, err := LoadFeeTable(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(110), rows[0].Fee)
	assert.Equal(t, "0-30000", rows[0].AmountBin)
}

func TestLoadFeeTable_BadFee(t *testing.T) {
	path := writeFile(t, "fee.csv",
		"from_bank,from_branch,service_id,amount_bin,to_bank,to_branch,fee\nA,A1,G,0+,B,B1,lots\n")

	_, err := LoadFeeTable(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadBalances(t *testing.T) {
	path := writeFile(t, "balance.csv", "bank_id,balance\nA,1000\nB,0\n")

	rows, err := LoadBalances(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1000), rows[0].Balance)
}

func TestLoadCashflow(t *testing.T) {
	path := writeFile(t, "cash.csv",
		"date,bank_id,amount,direction\n2024-01-05,A,250,out\n2024-01-06,B,90,in\n")

	rows, err := LoadCashflow(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, domain.DirectionOut, rows[0].Direction)
	assert.Equal(t, int64(90), rows[1].Amount)
}

func TestLoadCashflow_BadDate(t *testing.T) {
	path := writeFile(t, "cash.csv", "date,bank_id,amount,direction\nJan 5,A,250,out\n")

	_, err := LoadCashflow(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadMaster(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}
