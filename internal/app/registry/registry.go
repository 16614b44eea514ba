// Package registry holds the mutable remaining limits of payment methods during one optimization run.
package registry

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devkekops/paymentopt/internal/app/entity"
)

var ErrInsufficientLimit = errors.New("insufficient limit")
var ErrUnknownMethod = errors.New("unknown payment method")

// Instrument is a read-only view of a payment method and what is left of its limit.
type Instrument struct {
	ID        string
	Discount  int
	Remaining decimal.Decimal
}

func (i Instrument) IsPoints() bool {
	return i.ID == entity.PointsID
}

// Covers reports whether the remaining limit is enough for amount.
func (i Instrument) Covers(amount decimal.Decimal) bool {
	return i.Remaining.GreaterThanOrEqual(amount)
}

// Registry is an arena of instruments indexed by id. Input order is kept so that
// "first matching card" lookups are deterministic. Not safe for concurrent use:
// every batch gets its own Registry.
type Registry struct {
	instruments []Instrument
	index       map[string]int
	points      int
}

func New(methods []entity.PaymentMethod) (*Registry, error) {
	if err := entity.ValidatePaymentMethods(methods); err != nil {
		return nil, err
	}

	r := &Registry{
		instruments: make([]Instrument, 0, len(methods)),
		index:       make(map[string]int, len(methods)),
		points:      -1,
	}
	for i, m := range methods {
		r.instruments = append(r.instruments, Instrument{ID: m.ID, Discount: m.Discount, Remaining: m.Limit})
		r.index[m.ID] = i
		if m.IsPoints() {
			r.points = i
		}
	}
	return r, nil
}

func (r *Registry) Lookup(id string) (Instrument, bool) {
	i, ok := r.index[id]
	if !ok {
		return Instrument{}, false
	}
	return r.instruments[i], true
}

func (r *Registry) Points() (Instrument, bool) {
	if r.points < 0 {
		return Instrument{}, false
	}
	return r.instruments[r.points], true
}

// FirstCardCovering returns the first non-points instrument, in input order,
// whose remaining limit is at least amount.
func (r *Registry) FirstCardCovering(amount decimal.Decimal) (Instrument, bool) {
	for _, inst := range r.instruments {
		if !inst.IsPoints() && inst.Covers(amount) {
			return inst, true
		}
	}
	return Instrument{}, false
}

// IDs returns instrument ids in input order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.instruments))
	for _, inst := range r.instruments {
		ids = append(ids, inst.ID)
	}
	return ids
}

// Snapshot returns a copy of every instrument in input order.
func (r *Registry) Snapshot() []Instrument {
	out := make([]Instrument, len(r.instruments))
	copy(out, r.instruments)
	return out
}

// Charge decrements the remaining limit of id by amount.
func (r *Registry) Charge(id string, amount decimal.Decimal) error {
	return r.ChargeAll([]entity.Charge{{MethodID: id, Amount: amount}})
}

// ChargeAll applies every charge or none of them. Limits are checked against the
// sum of charges per instrument before anything is decremented.
func (r *Registry) ChargeAll(charges []entity.Charge) error {
	needed := make(map[int]decimal.Decimal, len(charges))
	for _, c := range charges {
		i, ok := r.index[c.MethodID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownMethod, c.MethodID)
		}
		if c.Amount.IsNegative() {
			return entity.ValidationError{Field: "charge.amount", Message: fmt.Sprintf("negative charge %s on %s", c.Amount, c.MethodID)}
		}
		sum, ok := needed[i]
		if !ok {
			sum = decimal.Zero
		}
		needed[i] = sum.Add(c.Amount)
	}

	for i, amount := range needed {
		if !r.instruments[i].Covers(amount) {
			return fmt.Errorf("%w: %s has %s, needs %s",
				ErrInsufficientLimit, r.instruments[i].ID, r.instruments[i].Remaining.StringFixed(2), amount.StringFixed(2))
		}
	}

	for i, amount := range needed {
		r.instruments[i].Remaining = r.instruments[i].Remaining.Sub(amount)
	}
	return nil
}
