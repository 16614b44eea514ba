package optimizer

import (
	"github.com/shopspring/decimal"
)

// Ledger accumulates the amount charged to each payment method across a batch.
// A method absent from the ledger was never used.
type Ledger map[string]decimal.Decimal

type LedgerEntry struct {
	MethodID string
	Amount   decimal.Decimal
}

func (l Ledger) Add(methodID string, amount decimal.Decimal) {
	if cur, ok := l[methodID]; ok {
		l[methodID] = cur.Add(amount)
		return
	}
	l[methodID] = amount
}

// Get returns the accumulated amount, zero for unused methods.
func (l Ledger) Get(methodID string) decimal.Decimal {
	if amount, ok := l[methodID]; ok {
		return amount
	}
	return decimal.Zero
}

func (l Ledger) Total() decimal.Decimal {
	total := decimal.Zero
	for _, amount := range l {
		total = total.Add(amount)
	}
	return total
}

// Entries lists used methods following order. Methods not in order are omitted.
func (l Ledger) Entries(order []string) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(l))
	for _, id := range order {
		if amount, ok := l[id]; ok {
			entries = append(entries, LedgerEntry{MethodID: id, Amount: amount})
		}
	}
	return entries
}

// Format renders every amount with two decimal places.
func (l Ledger) Format() map[string]string {
	out := make(map[string]string, len(l))
	for id, amount := range l {
		out[id] = amount.StringFixed(2)
	}
	return out
}
