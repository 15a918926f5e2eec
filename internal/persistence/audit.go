package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// AuditWriter writes processing outcomes and snapshots to Postgres using
// multi-row INSERT. The audit trail is serve-mode infrastructure: the
// engine itself never touches storage.
type AuditWriter struct {
	db *sql.DB
}

// OutcomeRow represents a row in audit.outcomes
type OutcomeRow struct {
	OutcomeID  string // UUID
	RunID      string // UUID of this process run
	Seq        int64  // Position in the run's record stream
	Kind       string
	ClientID   uint16
	TxID       uint32
	Amount     *decimal.Decimal // Nil for dispute-family records
	Applied    bool
	Reason     string
	RecordedAt time.Time
}

// SnapshotRow represents a row in audit.snapshots
type SnapshotRow struct {
	RunID     string
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
	CreatedAt time.Time
}

func NewAuditWriter(db *sql.DB) *AuditWriter {
	return &AuditWriter{db: db}
}

// WriteOutcomeBatch writes a batch of outcomes within the given transaction.
func (w *AuditWriter) WriteOutcomeBatch(ctx context.Context, tx *sql.Tx, rows []OutcomeRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO audit.outcomes
		(outcome_id, run_id, seq, kind, client_id, tx_id, amount, applied, reason, recorded_at)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*10)

	for i, r := range rows {
		base := i * 10
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))

		var amount interface{}
		if r.Amount != nil {
			amount = r.Amount.String()
		}

		args = append(args,
			r.OutcomeID, r.RunID, r.Seq, r.Kind,
			int32(r.ClientID), int64(r.TxID), amount, r.Applied,
			r.Reason, r.RecordedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (outcome_id) DO NOTHING" // Idempotent writes

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// WriteSnapshotRows writes a full account snapshot for a run.
// Re-running the same run id overwrites earlier rows so the stored
// snapshot always reflects the final state.
func (w *AuditWriter) WriteSnapshotRows(ctx context.Context, rows []SnapshotRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO audit.snapshots
		(run_id, client_id, available, held, total, locked, created_at)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*7)

	for i, r := range rows {
		base := i * 7
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7,
		))
		args = append(args,
			r.RunID, int32(r.ClientID),
			r.Available.String(), r.Held.String(), r.Total.String(),
			r.Locked, r.CreatedAt,
		)
	}

	query += strings.Join(values, ", ")
	query += ` ON CONFLICT (run_id, client_id) DO UPDATE SET
		available = EXCLUDED.available,
		held = EXCLUDED.held,
		total = EXCLUDED.total,
		locked = EXCLUDED.locked,
		created_at = EXCLUDED.created_at`

	_, err := w.db.ExecContext(ctx, query, args...)
	return err
}

// LoadOutcomes reads back a run's outcomes in stream order.
// Used by integration tests and operator tooling.
func (w *AuditWriter) LoadOutcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT outcome_id, run_id, seq, kind, client_id, tx_id, amount, applied, reason, recorded_at
		FROM audit.outcomes
		WHERE run_id = $1
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var result []OutcomeRow
	for rows.Next() {
		var r OutcomeRow
		var clientID int32
		var txID int64
		var amount sql.NullString

		if err := rows.Scan(&r.OutcomeID, &r.RunID, &r.Seq, &r.Kind,
			&clientID, &txID, &amount, &r.Applied, &r.Reason, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}

		r.ClientID = uint16(clientID)
		r.TxID = uint32(txID)
		if amount.Valid {
			d, err := decimal.NewFromString(amount.String)
			if err != nil {
				return nil, fmt.Errorf("parse stored amount: %w", err)
			}
			r.Amount = &d
		}

		result = append(result, r)
	}

	return result, rows.Err()
}
