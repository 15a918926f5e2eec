package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"PayLedger/internal/record"

	"github.com/shopspring/decimal"
)

// CSVReader streams transaction records from a CSV source.
// Expected layout: type,client,tx,amount with a header row. Fields may
// carry surrounding whitespace; dispute-family rows may omit the amount
// column entirely or leave it empty.
type CSVReader struct {
	r        *csv.Reader
	firstRow bool
}

func NewCSVReader(src io.Reader) *CSVReader {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1 // Rows have 3 or 4 columns
	r.TrimLeadingSpace = true

	return &CSVReader{
		r:        r,
		firstRow: true,
	}
}

// Next returns the next record. io.EOF signals end of input; any other
// error describes a malformed row the caller may log and skip.
func (cr *CSVReader) Next() (record.Record, error) {
	fields, err := cr.r.Read()
	if err != nil {
		if err == io.EOF {
			return record.Record{}, io.EOF
		}
		return record.Record{}, fmt.Errorf("read row: %w", err)
	}

	if cr.firstRow {
		cr.firstRow = false
		if isHeaderRow(fields) {
			return cr.Next()
		}
	}

	return parseFields(fields)
}

// ReadAll drains the source, separating parseable records from row errors.
// Used by tests and small batch runs; the CLI streams via Next.
func (cr *CSVReader) ReadAll() ([]record.Record, []error) {
	var records []record.Record
	var errs []error

	for {
		rec, err := cr.Next()
		if err == io.EOF {
			return records, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, rec)
	}
}

func isHeaderRow(fields []string) bool {
	if len(fields) == 0 {
		return false
	}
	_, err := record.ParseKind(fields[0])
	return err != nil
}

func parseFields(fields []string) (record.Record, error) {
	if len(fields) < 3 {
		return record.Record{}, fmt.Errorf("row has %d fields, want at least 3", len(fields))
	}

	kind, err := record.ParseKind(fields[0])
	if err != nil {
		return record.Record{}, err
	}

	client, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 16)
	if err != nil {
		return record.Record{}, fmt.Errorf("parse client: %w", err)
	}

	tx, err := strconv.ParseUint(strings.TrimSpace(fields[2]), 10, 32)
	if err != nil {
		return record.Record{}, fmt.Errorf("parse tx: %w", err)
	}

	rec := record.Record{
		Kind:     kind,
		ClientID: uint16(client),
		TxID:     uint32(tx),
	}

	// The amount column is meaningful only for deposits and withdrawals;
	// dispute-family records always use the amount stored in history.
	if kind.HasAmount() && len(fields) >= 4 {
		raw := strings.TrimSpace(fields[3])
		if raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return record.Record{}, fmt.Errorf("parse amount: %w", err)
			}
			amount = amount.Round(4)
			rec.Amount = &amount
		}
	}

	return rec, nil
}
