package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"PayLedger/internal/record"

	"github.com/shopspring/decimal"
)

// RawRecord is the raw message from NATS, ready for the shell to parse
// and hand to the engine loop.
type RawRecord struct {
	Subject   string
	Data      []byte
	Timestamp time.Time
	AckFunc   func() // Call to ACK the NATS message after successful processing
	NakFunc   func() // Call to NAK on failure (will be redelivered)
}

// recordJSON is the JSON wire format for streamed records.
// Field names use snake_case to match upstream producers; amount is a
// decimal string to keep fractional precision exact.
type recordJSON struct {
	Type   string  `json:"type"`
	Client uint16  `json:"client"`
	Tx     uint32  `json:"tx"`
	Amount *string `json:"amount,omitempty"`
}

// ParseRawRecord converts a RawRecord into a typed record.Record.
func ParseRawRecord(raw RawRecord) (record.Record, error) {
	var j recordJSON
	if err := json.Unmarshal(raw.Data, &j); err != nil {
		return record.Record{}, fmt.Errorf("parse record: %w", err)
	}

	kind, err := record.ParseKind(j.Type)
	if err != nil {
		return record.Record{}, fmt.Errorf("parse type: %w", err)
	}

	rec := record.Record{
		Kind:     kind,
		ClientID: j.Client,
		TxID:     j.Tx,
	}

	if kind.HasAmount() && j.Amount != nil {
		amount, err := decimal.NewFromString(*j.Amount)
		if err != nil {
			return record.Record{}, fmt.Errorf("parse amount: %w", err)
		}
		amount = amount.Round(4)
		rec.Amount = &amount
	}

	return rec, nil
}

// MarshalRecord encodes a record in the JSON wire format. Used by tests
// and by tooling that injects records into the transaction stream.
func MarshalRecord(rec record.Record) ([]byte, error) {
	j := recordJSON{
		Type:   rec.Kind.String(),
		Client: rec.ClientID,
		Tx:     rec.TxID,
	}
	if rec.Amount != nil {
		s := rec.Amount.String()
		j.Amount = &s
	}
	return json.Marshal(j)
}
