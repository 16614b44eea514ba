// Package optimizer decides, order by order, which payment methods pay for a batch.
//
// Each order is evaluated against three strategies, in this priority:
//
//  1. full payment with loyalty points, discounted by the points rate;
//  2. full payment with a card the order is promoted for, discounted by that card's rate;
//  3. partial payment: at least 10% of the value in points, the rest with one card,
//     with a flat 10% discount on the whole order.
//
// Points win ties against cards. A later strategy only wins by being strictly cheaper.
// When none applies the order is paid in full without discount, or left unpaid.
// Decisions are greedy and final; limits consumed by one order are gone for the next.
package optimizer

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/devkekops/paymentopt/internal/app/entity"
	"github.com/devkekops/paymentopt/internal/app/logger"
	"github.com/devkekops/paymentopt/internal/app/registry"
)

var (
	hundred       = decimal.NewFromInt(100)
	partialFactor = decimal.RequireFromString("0.9")
	minPointsRate = decimal.RequireFromString("0.1")
)

// Result is the outcome of one optimization run.
type Result struct {
	Usage     Ledger
	Outcomes  []entity.OrderOutcome
	Unpaid    []string
	Remaining []registry.Instrument

	methods []string
}

// Entries lists the usage ledger in payment method input order.
func (r *Result) Entries() []LedgerEntry {
	return r.Usage.Entries(r.methods)
}

// Optimize validates the input and allocates every order in input order.
func Optimize(orders []entity.Order, methods []entity.PaymentMethod) (*Result, error) {
	if err := entity.ValidateOrders(orders); err != nil {
		return nil, err
	}
	reg, err := registry.New(methods)
	if err != nil {
		return nil, err
	}

	a := NewAllocator(reg)
	res := &Result{
		Outcomes: make([]entity.OrderOutcome, 0, len(orders)),
		methods:  reg.IDs(),
	}
	for _, order := range orders {
		outcome, err := a.Allocate(order)
		if err != nil {
			return nil, err
		}
		res.Outcomes = append(res.Outcomes, outcome)
		if outcome.Strategy == entity.Unpayable {
			res.Unpaid = append(res.Unpaid, order.ID)
		}
	}
	res.Usage = a.Usage()
	res.Remaining = reg.Snapshot()
	return res, nil
}

// Allocator commits one order at a time against a registry and its usage ledger.
type Allocator struct {
	reg   *registry.Registry
	usage Ledger
}

func NewAllocator(reg *registry.Registry) *Allocator {
	return &Allocator{
		reg:   reg,
		usage: make(Ledger),
	}
}

func (a *Allocator) Usage() Ledger {
	return a.usage
}

type candidate struct {
	strategy entity.Strategy
	cost     decimal.Decimal
	charges  []entity.Charge
}

// Allocate picks the cheapest feasible strategy for order and commits its charges.
// An order nothing can pay yields an Unpayable outcome and no mutation.
func (a *Allocator) Allocate(order entity.Order) (entity.OrderOutcome, error) {
	best := a.evaluate(order)
	if best.strategy == "" {
		best = a.fallback(order)
	}

	outcome := entity.OrderOutcome{OrderID: order.ID, Strategy: best.strategy, Charges: best.charges}
	if best.strategy == entity.Unpayable {
		logger.Logger.Debug().Str("order", order.ID).Str("value", order.Value.StringFixed(2)).Msg("order left unpaid")
		return outcome, nil
	}

	if err := a.reg.ChargeAll(best.charges); err != nil {
		return entity.OrderOutcome{}, fmt.Errorf("order %s: %w", order.ID, err)
	}
	for _, c := range best.charges {
		a.usage.Add(c.MethodID, c.Amount)
	}

	logger.Logger.Debug().
		Str("order", order.ID).
		Str("strategy", string(best.strategy)).
		Str("cost", best.cost.StringFixed(2)).
		Msg("order allocated")
	return outcome, nil
}

func (a *Allocator) evaluate(order entity.Order) candidate {
	best := candidate{cost: order.Value}
	points, hasPoints := a.reg.Points()

	if hasPoints {
		cost := discounted(order.Value, points.Discount)
		if points.Covers(cost) && cost.LessThanOrEqual(best.cost) {
			best = candidate{
				strategy: entity.FullPoints,
				cost:     cost,
				charges:  []entity.Charge{{MethodID: points.ID, Amount: cost}},
			}
		}
	}

	for _, id := range order.Promotions {
		card, ok := a.reg.Lookup(id)
		if !ok || card.IsPoints() {
			continue
		}
		cost := discounted(order.Value, card.Discount)
		if card.Covers(cost) && cost.LessThan(best.cost) {
			best = candidate{
				strategy: entity.FullCard,
				cost:     cost,
				charges:  []entity.Charge{{MethodID: card.ID, Amount: cost}},
			}
		}
	}

	if hasPoints {
		if c, ok := a.partial(order.Value, points); ok && c.cost.LessThan(best.cost) {
			best = c
		}
	}
	return best
}

// partial splits the order between points and the first card able to cover the rest.
// The 10% discount and 10% minimum points share do not depend on the points rate.
func (a *Allocator) partial(value decimal.Decimal, points registry.Instrument) (candidate, bool) {
	total := round2(value.Mul(partialFactor))
	minPoints := round2(value.Mul(minPointsRate))

	pointsPart := decimal.Min(points.Remaining, total)
	if pointsPart.LessThan(minPoints) {
		return candidate{}, false
	}

	cardPart := total.Sub(pointsPart)
	card, ok := a.reg.FirstCardCovering(cardPart)
	if !ok {
		return candidate{}, false
	}

	return candidate{
		strategy: entity.PartialPoints,
		cost:     total,
		charges: []entity.Charge{
			{MethodID: points.ID, Amount: pointsPart},
			{MethodID: card.ID, Amount: cardPart},
		},
	}, true
}

func (a *Allocator) fallback(order entity.Order) candidate {
	full := func(id string) candidate {
		return candidate{
			strategy: entity.FullFallback,
			cost:     order.Value,
			charges:  []entity.Charge{{MethodID: id, Amount: order.Value}},
		}
	}

	if points, ok := a.reg.Points(); ok && points.Covers(order.Value) {
		return full(points.ID)
	}
	if card, ok := a.reg.FirstCardCovering(order.Value); ok {
		return full(card.ID)
	}
	return candidate{strategy: entity.Unpayable, cost: decimal.Zero}
}

// discounted applies a percentage discount: the factor (100-percent)/100 and the
// product are each rounded half-up to two decimals.
func discounted(value decimal.Decimal, percent int) decimal.Decimal {
	factor := round2(decimal.NewFromInt(int64(100 - percent)).Div(hundred))
	return round2(value.Mul(factor))
}

// round2 rounds half-up to two decimals. Amounts are never negative here, so
// decimal's half-away-from-zero rounding is the same thing.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
