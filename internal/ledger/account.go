package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account holds one client's balances.
// Total is always derived from Available + Held so the balance identity
// cannot drift no matter how the two components move.
type Account struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

func NewAccount(clientID uint16) *Account {
	return &Account{
		ClientID:  clientID,
		Available: decimal.Zero,
		Held:      decimal.Zero,
	}
}

// Total returns available + held funds
func (a *Account) Total() decimal.Decimal {
	return a.Available.Add(a.Held)
}

// View captures the account as an immutable snapshot row.
func (a *Account) View() AccountView {
	return AccountView{
		ClientID:  a.ClientID,
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total(),
		Locked:    a.Locked,
	}
}

// AccountView is a read-only copy of an account's state at snapshot time
type AccountView struct {
	ClientID  uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}

// ValidateSufficientAvailable checks the account can cover a debit
func (a *Account) ValidateSufficientAvailable(required decimal.Decimal) error {
	if a.Available.LessThan(required) {
		return fmt.Errorf("insufficient available balance: have=%s, need=%s", a.Available, required)
	}
	return nil
}
