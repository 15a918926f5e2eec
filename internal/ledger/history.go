package ledger

import (
	"PayLedger/internal/record"

	"github.com/shopspring/decimal"
)

// DisputeStatus tracks dispute progress for a single transaction
type DisputeStatus int32

const (
	DisputeStatusNormal DisputeStatus = iota
	DisputeStatusDisputed
	DisputeStatusResolved
	DisputeStatusChargedBack
)

func (ds DisputeStatus) String() string {
	switch ds {
	case DisputeStatusNormal:
		return "Normal"
	case DisputeStatusDisputed:
		return "Disputed"
	case DisputeStatusResolved:
		return "Resolved"
	case DisputeStatusChargedBack:
		return "ChargedBack"
	default:
		return "Unknown"
	}
}

// CanTransitionTo validates dispute state transitions.
// Resolved and ChargedBack are terminal: a settled transaction can
// never be disputed again, which is what prevents double-counting.
func (ds DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	validTransitions := map[DisputeStatus][]DisputeStatus{
		DisputeStatusNormal: {
			DisputeStatusDisputed,
		},
		DisputeStatusDisputed: {
			DisputeStatusResolved,
			DisputeStatusChargedBack,
		},
	}

	allowed, ok := validTransitions[ds]
	if !ok {
		return false
	}

	for _, allowedStatus := range allowed {
		if next == allowedStatus {
			return true
		}
	}

	return false
}

// HistoryEntry is the immutable fact retained for a deposit or withdrawal,
// plus its mutable dispute status.
type HistoryEntry struct {
	Kind     record.Kind
	ClientID uint16
	Amount   decimal.Decimal
	Status   DisputeStatus
}

// History indexes applied deposits and withdrawals by transaction id.
// Only fund-moving records are indexed; dispute-family records reference
// entries here and are never entries themselves.
type History struct {
	entries map[uint32]*HistoryEntry
}

func NewHistory() *History {
	return &History{
		entries: make(map[uint32]*HistoryEntry),
	}
}

// Record inserts a new entry. Returns false if the transaction id is
// already taken: tx ids are globally unique across all clients.
func (h *History) Record(txID uint32, kind record.Kind, clientID uint16, amount decimal.Decimal) bool {
	if _, exists := h.entries[txID]; exists {
		return false
	}
	h.entries[txID] = &HistoryEntry{
		Kind:     kind,
		ClientID: clientID,
		Amount:   amount,
		Status:   DisputeStatusNormal,
	}
	return true
}

// Lookup returns the entry for a transaction id, or nil if unknown
func (h *History) Lookup(txID uint32) *HistoryEntry {
	return h.entries[txID]
}

// Len returns the number of indexed transactions
func (h *History) Len() int {
	return len(h.entries)
}

// OpenDisputes counts entries currently in the Disputed status
func (h *History) OpenDisputes() int {
	n := 0
	for _, e := range h.entries {
		if e.Status == DisputeStatusDisputed {
			n++
		}
	}
	return n
}
