// Package export writes solved transfer plans to CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/aristath/fundflow/internal/domain"
)

// Columns is the fixed output order downstream settlement tooling expects.
var Columns = []string{"execute_date", "from_bank", "to_bank", "service_id", "amount", "expected_fee"}

// WriteCSV writes the plan to path, one row per transfer, amounts rounded
// to whole currency units.
func WriteCSV(transfers []domain.Transfer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create plan file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		f.Close()
		return err
	}
	for _, t := range transfers {
		row := []string{
			t.Day,
			t.Route.FromBank,
			t.Route.ToBank,
			t.Route.Service,
			strconv.FormatInt(int64(math.Round(t.Amount)), 10),
			strconv.FormatInt(int64(math.Round(t.Fee)), 10),
		}
		if err := w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
