package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"PayLedger/internal/ledger"
)

// WriteSnapshot renders the account snapshot as CSV.
// Layout: client,available,held,total,locked with amounts at fixed
// 4-decimal precision. Callers pass the sorted views from Engine.Snapshot,
// so output is deterministic for a given run.
func WriteSnapshot(w io.Writer, accounts []ledger.AccountView) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, a := range accounts {
		row := []string{
			strconv.FormatUint(uint64(a.ClientID), 10),
			a.Available.StringFixed(4),
			a.Held.StringFixed(4),
			a.Total.StringFixed(4),
			strconv.FormatBool(a.Locked),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for client %d: %w", a.ClientID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
