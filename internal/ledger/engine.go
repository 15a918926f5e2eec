package ledger

import (
	"sort"
	"time"

	"PayLedger/internal/observability"
	"PayLedger/internal/record"

	"github.com/rs/zerolog"
)

// Reason says why a record was ignored
type Reason int32

const (
	ReasonNone Reason = iota
	ReasonUnknownTransaction
	ReasonClientMismatch
	ReasonInvalidStateTransition
	ReasonInsufficientFunds
	ReasonAccountLocked
	ReasonDuplicateTransaction
	ReasonMissingAmount
	ReasonNegativeAmount
	ReasonUnknownKind
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonUnknownTransaction:
		return "unknown_transaction"
	case ReasonClientMismatch:
		return "client_mismatch"
	case ReasonInvalidStateTransition:
		return "invalid_state_transition"
	case ReasonInsufficientFunds:
		return "insufficient_funds"
	case ReasonAccountLocked:
		return "account_locked"
	case ReasonDuplicateTransaction:
		return "duplicate_transaction"
	case ReasonMissingAmount:
		return "missing_amount"
	case ReasonNegativeAmount:
		return "negative_amount"
	case ReasonUnknownKind:
		return "unknown_kind"
	default:
		return "unknown"
	}
}

// Outcome is the result of applying a single record.
// A record either mutates state (Applied) or is ignored with a reason.
// Neither case is fatal: the engine keeps processing whatever follows.
type Outcome struct {
	Applied bool
	Reason  Reason
}

func applied() Outcome {
	return Outcome{Applied: true}
}

func ignored(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// Engine is the single-threaded transaction processor. It owns the
// account table and the transaction history; callers feed it records
// one at a time and read the final state via Snapshot.
type Engine struct {
	accounts map[uint16]*Account
	history  *History
	log      zerolog.Logger
	metrics  *observability.Metrics
}

func NewEngine(log zerolog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		accounts: make(map[uint16]*Account),
		history:  NewHistory(),
		log:      log,
		metrics:  metrics,
	}
}

// Apply processes one record against the ledger.
// Ordering is semantically significant: a dispute only lands if the
// disputed transaction was already applied, so callers must feed records
// in log order from a single goroutine.
func (e *Engine) Apply(rec record.Record) Outcome {
	start := time.Now()
	kind := rec.Kind.String()

	var outcome Outcome
	switch rec.Kind {
	case record.KindDeposit:
		outcome = e.applyDeposit(rec)
	case record.KindWithdrawal:
		outcome = e.applyWithdrawal(rec)
	case record.KindDispute:
		outcome = e.applyDispute(rec)
	case record.KindResolve:
		outcome = e.applyResolve(rec)
	case record.KindChargeback:
		outcome = e.applyChargeback(rec)
	default:
		outcome = ignored(ReasonUnknownKind)
	}

	if outcome.Applied {
		if e.metrics != nil {
			e.metrics.RecordsApplied.WithLabelValues(kind).Inc()
		}
	} else {
		e.log.Debug().
			Str("kind", kind).
			Uint16("client", rec.ClientID).
			Uint32("tx", rec.TxID).
			Str("reason", outcome.Reason.String()).
			Msg("record ignored")
		if e.metrics != nil {
			e.metrics.RecordsIgnored.WithLabelValues(kind, outcome.Reason.String()).Inc()
		}
	}

	if e.metrics != nil {
		e.metrics.ApplyDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		e.metrics.OpenDisputes.Set(float64(e.history.OpenDisputes()))
	}

	return outcome
}

// account returns the client's account, creating it on first reference
func (e *Engine) account(clientID uint16) *Account {
	acct, ok := e.accounts[clientID]
	if !ok {
		acct = NewAccount(clientID)
		e.accounts[clientID] = acct
		if e.metrics != nil {
			e.metrics.AccountsCreated.Inc()
			e.metrics.Accounts.Set(float64(len(e.accounts)))
		}
	}
	return acct
}

func (e *Engine) applyDeposit(rec record.Record) Outcome {
	if rec.Amount == nil {
		return ignored(ReasonMissingAmount)
	}
	amount := *rec.Amount
	if amount.IsNegative() {
		return ignored(ReasonNegativeAmount)
	}

	acct := e.account(rec.ClientID)
	if acct.Locked {
		return ignored(ReasonAccountLocked)
	}

	if !e.history.Record(rec.TxID, record.KindDeposit, rec.ClientID, amount) {
		return ignored(ReasonDuplicateTransaction)
	}

	acct.Available = acct.Available.Add(amount)
	return applied()
}

func (e *Engine) applyWithdrawal(rec record.Record) Outcome {
	if rec.Amount == nil {
		return ignored(ReasonMissingAmount)
	}
	amount := *rec.Amount
	if amount.IsNegative() {
		return ignored(ReasonNegativeAmount)
	}

	acct := e.account(rec.ClientID)
	if acct.Locked {
		return ignored(ReasonAccountLocked)
	}

	if err := acct.ValidateSufficientAvailable(amount); err != nil {
		return ignored(ReasonInsufficientFunds)
	}

	if !e.history.Record(rec.TxID, record.KindWithdrawal, rec.ClientID, amount) {
		return ignored(ReasonDuplicateTransaction)
	}

	acct.Available = acct.Available.Sub(amount)
	return applied()
}

// applyDispute moves the referenced amount from available to held.
// The same movement applies whether the referenced transaction was a
// deposit or a withdrawal; for withdrawals this can push available
// (and total) negative, which the ledger tolerates. The client already
// took the funds out and is now contesting them.
func (e *Engine) applyDispute(rec record.Record) Outcome {
	entry := e.history.Lookup(rec.TxID)
	if entry == nil {
		return ignored(ReasonUnknownTransaction)
	}
	if entry.ClientID != rec.ClientID {
		return ignored(ReasonClientMismatch)
	}
	if !entry.Status.CanTransitionTo(DisputeStatusDisputed) {
		return ignored(ReasonInvalidStateTransition)
	}

	acct := e.account(rec.ClientID)
	acct.Available = acct.Available.Sub(entry.Amount)
	acct.Held = acct.Held.Add(entry.Amount)
	entry.Status = DisputeStatusDisputed

	return applied()
}

// applyResolve releases held funds back to available and settles the
// dispute. Resolved is terminal: the transaction cannot be re-disputed.
func (e *Engine) applyResolve(rec record.Record) Outcome {
	entry := e.history.Lookup(rec.TxID)
	if entry == nil {
		return ignored(ReasonUnknownTransaction)
	}
	if entry.ClientID != rec.ClientID {
		return ignored(ReasonClientMismatch)
	}
	if !entry.Status.CanTransitionTo(DisputeStatusResolved) {
		return ignored(ReasonInvalidStateTransition)
	}

	acct := e.account(rec.ClientID)
	acct.Held = acct.Held.Sub(entry.Amount)
	acct.Available = acct.Available.Add(entry.Amount)
	entry.Status = DisputeStatusResolved

	return applied()
}

// applyChargeback removes held funds entirely and freezes the account.
// The lock gates future deposits and withdrawals only; an account can
// still see its remaining disputes resolved or charged back.
func (e *Engine) applyChargeback(rec record.Record) Outcome {
	entry := e.history.Lookup(rec.TxID)
	if entry == nil {
		return ignored(ReasonUnknownTransaction)
	}
	if entry.ClientID != rec.ClientID {
		return ignored(ReasonClientMismatch)
	}
	if !entry.Status.CanTransitionTo(DisputeStatusChargedBack) {
		return ignored(ReasonInvalidStateTransition)
	}

	acct := e.account(rec.ClientID)
	acct.Held = acct.Held.Sub(entry.Amount)
	acct.Locked = true
	entry.Status = DisputeStatusChargedBack

	if e.metrics != nil {
		e.metrics.AccountsLocked.Inc()
	}

	return applied()
}

// Snapshot returns a copy of every account, sorted by client id.
// Safe to call between records; the views do not alias engine state.
func (e *Engine) Snapshot() []AccountView {
	views := make([]AccountView, 0, len(e.accounts))
	for _, acct := range e.accounts {
		views = append(views, acct.View())
	}

	sort.Slice(views, func(i, j int) bool {
		return views[i].ClientID < views[j].ClientID
	})

	return views
}

// DisputeStatusOf reports the dispute status for a transaction id.
// Returns false if the transaction was never indexed.
func (e *Engine) DisputeStatusOf(txID uint32) (DisputeStatus, bool) {
	entry := e.history.Lookup(txID)
	if entry == nil {
		return DisputeStatusNormal, false
	}
	return entry.Status, true
}

// AccountCount returns the number of accounts materialized so far
func (e *Engine) AccountCount() int {
	return len(e.accounts)
}
