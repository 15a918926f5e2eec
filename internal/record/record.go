package record

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kind identifies the transaction record type
type Kind int32

const (
	KindDeposit Kind = iota
	KindWithdrawal
	KindDispute
	KindResolve
	KindChargeback
)

func (k Kind) String() string {
	switch k {
	case KindDeposit:
		return "deposit"
	case KindWithdrawal:
		return "withdrawal"
	case KindDispute:
		return "dispute"
	case KindResolve:
		return "resolve"
	case KindChargeback:
		return "chargeback"
	default:
		return "unknown"
	}
}

// ParseKind converts a wire type string to a Kind.
// Producers use lowercase names; surrounding whitespace is tolerated.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSpace(s) {
	case "deposit":
		return KindDeposit, nil
	case "withdrawal":
		return KindWithdrawal, nil
	case "dispute":
		return KindDispute, nil
	case "resolve":
		return KindResolve, nil
	case "chargeback":
		return KindChargeback, nil
	default:
		return 0, fmt.Errorf("unknown record type: %q", s)
	}
}

// HasAmount reports whether this kind carries an amount on the wire.
// The dispute family references a prior transaction and carries none.
func (k Kind) HasAmount() bool {
	return k == KindDeposit || k == KindWithdrawal
}

// Record is a single immutable fact from the transaction log
type Record struct {
	Kind     Kind
	ClientID uint16
	TxID     uint32
	Amount   *decimal.Decimal // Nil for dispute/resolve/chargeback
}

// AmountValue returns the amount or zero if absent.
func (r Record) AmountValue() decimal.Decimal {
	if r.Amount == nil {
		return decimal.Zero
	}
	return *r.Amount
}
