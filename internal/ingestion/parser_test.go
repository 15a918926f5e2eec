package ingestion_test

import (
	"testing"
	"time"

	"PayLedger/internal/ingestion"
	"PayLedger/internal/record"

	"github.com/shopspring/decimal"
)

func rawFromJSON(data string) ingestion.RawRecord {
	return ingestion.RawRecord{
		Subject:   "pay.tx.test",
		Data:      []byte(data),
		Timestamp: time.Now(),
		AckFunc:   func() {},
		NakFunc:   func() {},
	}
}

// ============================================================================
// Test: ParseRawRecord
// ============================================================================

func TestParseRawRecord_Deposit(t *testing.T) {
	rec, err := ingestion.ParseRawRecord(rawFromJSON(`{"type":"deposit","client":1,"tx":10,"amount":"25.5"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rec.Kind != record.KindDeposit {
		t.Errorf("kind: got %v, want deposit", rec.Kind)
	}
	if rec.ClientID != 1 || rec.TxID != 10 {
		t.Errorf("ids: got client=%d tx=%d", rec.ClientID, rec.TxID)
	}
	if rec.Amount == nil || !rec.Amount.Equal(decimal.RequireFromString("25.5")) {
		t.Errorf("amount: got %v, want 25.5", rec.Amount)
	}
}

func TestParseRawRecord_DisputeHasNoAmount(t *testing.T) {
	rec, err := ingestion.ParseRawRecord(rawFromJSON(`{"type":"dispute","client":1,"tx":10}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Amount != nil {
		t.Errorf("dispute should carry no amount, got %s", rec.Amount)
	}
}

func TestParseRawRecord_DisputeAmountIgnored(t *testing.T) {
	rec, err := ingestion.ParseRawRecord(rawFromJSON(`{"type":"resolve","client":1,"tx":10,"amount":"99"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rec.Amount != nil {
		t.Error("amount on a resolve record should be dropped")
	}
}

func TestParseRawRecord_RoundsToFourDecimals(t *testing.T) {
	rec, err := ingestion.ParseRawRecord(rawFromJSON(`{"type":"deposit","client":1,"tx":10,"amount":"1.23456"}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !rec.Amount.Equal(decimal.RequireFromString("1.2346")) {
		t.Errorf("got %s, want 1.2346", rec.Amount)
	}
}

func TestParseRawRecord_InvalidJSON(t *testing.T) {
	if _, err := ingestion.ParseRawRecord(rawFromJSON(`{not json`)); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestParseRawRecord_UnknownType(t *testing.T) {
	if _, err := ingestion.ParseRawRecord(rawFromJSON(`{"type":"transfer","client":1,"tx":10}`)); err == nil {
		t.Error("unknown type should fail")
	}
}

func TestParseRawRecord_BadAmount(t *testing.T) {
	if _, err := ingestion.ParseRawRecord(rawFromJSON(`{"type":"deposit","client":1,"tx":10,"amount":"abc"}`)); err == nil {
		t.Error("non-numeric amount should fail")
	}
}

func TestMarshalRecord_RoundTrip(t *testing.T) {
	a := decimal.RequireFromString("7.0001")
	orig := record.Record{Kind: record.KindWithdrawal, ClientID: 3, TxID: 44, Amount: &a}

	data, err := ingestion.MarshalRecord(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	rec, err := ingestion.ParseRawRecord(rawFromJSON(string(data)))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if rec.Kind != orig.Kind || rec.ClientID != orig.ClientID || rec.TxID != orig.TxID {
		t.Errorf("round trip mismatch: %+v vs %+v", rec, orig)
	}
	if !rec.Amount.Equal(a) {
		t.Errorf("amount: got %s, want %s", rec.Amount, a)
	}
}
