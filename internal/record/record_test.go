package record_test

import (
	"testing"

	"PayLedger/internal/record"

	"github.com/shopspring/decimal"
)

func TestParseKind_AllKnownTypes(t *testing.T) {
	cases := map[string]record.Kind{
		"deposit":    record.KindDeposit,
		"withdrawal": record.KindWithdrawal,
		"dispute":    record.KindDispute,
		"resolve":    record.KindResolve,
		"chargeback": record.KindChargeback,
	}

	for input, want := range cases {
		got, err := record.ParseKind(input)
		if err != nil {
			t.Errorf("ParseKind(%q): %v", input, err)
			continue
		}
		if got != want {
			t.Errorf("ParseKind(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseKind_TrimsWhitespace(t *testing.T) {
	got, err := record.ParseKind("  dispute ")
	if err != nil {
		t.Fatalf("ParseKind: %v", err)
	}
	if got != record.KindDispute {
		t.Errorf("got %v, want KindDispute", got)
	}
}

func TestParseKind_Unknown(t *testing.T) {
	for _, input := range []string{"", "Deposit", "transfer", "deposits"} {
		if _, err := record.ParseKind(input); err == nil {
			t.Errorf("ParseKind(%q) should fail", input)
		}
	}
}

func TestKind_StringRoundTrip(t *testing.T) {
	kinds := []record.Kind{
		record.KindDeposit,
		record.KindWithdrawal,
		record.KindDispute,
		record.KindResolve,
		record.KindChargeback,
	}

	for _, k := range kinds {
		parsed, err := record.ParseKind(k.String())
		if err != nil {
			t.Errorf("%v.String() does not parse back: %v", k, err)
		}
		if parsed != k {
			t.Errorf("round trip %v -> %q -> %v", k, k.String(), parsed)
		}
	}
}

func TestKind_HasAmount(t *testing.T) {
	if !record.KindDeposit.HasAmount() || !record.KindWithdrawal.HasAmount() {
		t.Error("deposit and withdrawal carry an amount")
	}
	for _, k := range []record.Kind{record.KindDispute, record.KindResolve, record.KindChargeback} {
		if k.HasAmount() {
			t.Errorf("%v should not carry an amount", k)
		}
	}
}

func TestRecord_AmountValue(t *testing.T) {
	r := record.Record{Kind: record.KindDispute, ClientID: 1, TxID: 1}
	if !r.AmountValue().IsZero() {
		t.Error("nil amount should read as zero")
	}

	d := decimal.RequireFromString("3.5")
	r.Amount = &d
	if !r.AmountValue().Equal(d) {
		t.Errorf("got %s, want 3.5", r.AmountValue())
	}
}
