// Package ingest loads and validates the four CSV input tables before the
// core ever sees them: bank master, fee table, balance snapshot and
// cashflow history.
package ingest

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aristath/fundflow/internal/domain"
)

const dateLayout = "2006-01-02"

func readTable(path string, required []string) (map[string]int, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s: empty file", path)
	}

	idx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		idx[col] = i
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("%s: missing columns: %v", path, missing)
	}
	return idx, records[1:], nil
}

func parseInt(path, col string, row int, raw string) (int64, error) {
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s row %d: invalid %s %q", path, row+2, col, raw)
	}
	return v, nil
}

// LoadMaster reads the bank/branch/service master table.
func LoadMaster(path string) ([]domain.MasterRow, error) {
	idx, rows, err := readTable(path, []string{"bank_id", "branch_id", "service_id", "cut_off_time"})
	if err != nil {
		return nil, err
	}
	out := make([]domain.MasterRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.MasterRow{
			Bank:       r[idx["bank_id"]],
			Branch:     r[idx["branch_id"]],
			Service:    r[idx["service_id"]],
			CutOffTime: r[idx["cut_off_time"]],
		})
	}
	return out, nil
}

// LoadFeeTable reads the fee table. Amount bins are parsed later, at
// calculator construction.
func LoadFeeTable(path string) ([]domain.FeeRule, error) {
	idx, rows, err := readTable(path, []string{"from_bank", "from_branch", "service_id", "amount_bin", "to_bank", "to_branch", "fee"})
	if err != nil {
		return nil, err
	}
	out := make([]domain.FeeRule, 0, len(rows))
	for i, r := range rows {
		fee, err := parseInt(path, "fee", i, r[idx["fee"]])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.FeeRule{
			FromBank:   r[idx["from_bank"]],
			FromBranch: r[idx["from_branch"]],
			Service:    r[idx["service_id"]],
			AmountBin:  r[idx["amount_bin"]],
			ToBank:     r[idx["to_bank"]],
			ToBranch:   r[idx["to_branch"]],
			Fee:        fee,
		})
	}
	return out, nil
}

// LoadBalances reads the opening balance snapshot.
func LoadBalances(path string) ([]domain.BalanceSnapshot, error) {
	idx, rows, err := readTable(path, []string{"bank_id", "balance"})
	if err != nil {
		return nil, err
	}
	out := make([]domain.BalanceSnapshot, 0, len(rows))
	for i, r := range rows {
		bal, err := parseInt(path, "balance", i, r[idx["balance"]])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.BalanceSnapshot{Bank: r[idx["bank_id"]], Balance: bal})
	}
	return out, nil
}

// LoadCashflow reads the cashflow history. Direction tokens are validated
// downstream by the safety estimator.
func LoadCashflow(path string) ([]domain.CashflowObservation, error) {
	idx, rows, err := readTable(path, []string{"date", "bank_id", "amount", "direction"})
	if err != nil {
		return nil, err
	}
	out := make([]domain.CashflowObservation, 0, len(rows))
	for i, r := range rows {
		date, err := time.Parse(dateLayout, r[idx["date"]])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: invalid date %q", path, i+2, r[idx["date"]])
		}
		amount, err := parseInt(path, "amount", i, r[idx["amount"]])
		if err != nil {
			return nil, err
		}
		out = append(out, domain.CashflowObservation{
			Date:      date,
			Bank:      r[idx["bank_id"]],
			Amount:    amount,
			Direction: r[idx["direction"]],
		})
	}
	return out, nil
}
