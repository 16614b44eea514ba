package entity

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PointsID is the reserved identifier of the loyalty-points wallet.
const PointsID = "PUNKTY"

var ErrInvalidInput = errors.New("invalid input")

// ValidationError describes which field of an order or payment method was rejected.
// It matches ErrInvalidInput with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidInput
}

type Order struct {
	ID         string          `json:"id"`
	Value      decimal.Decimal `json:"value"`
	Promotions []string        `json:"promotions,omitempty"`
}

type PaymentMethod struct {
	ID       string          `json:"id"`
	Discount int             `json:"discount"`
	Limit    decimal.Decimal `json:"limit"`
}

func (m PaymentMethod) IsPoints() bool {
	return m.ID == PointsID
}

// Batch is one independent optimization input: a list of orders paid from its own set of methods.
type Batch struct {
	Orders         []Order
	PaymentMethods []PaymentMethod
}

type Strategy string

const (
	FullPoints    Strategy = "FULL_POINTS"
	FullCard      Strategy = "FULL_CARD"
	PartialPoints Strategy = "PARTIAL_POINTS"
	FullFallback  Strategy = "FULL_FALLBACK"
	Unpayable     Strategy = "UNPAYABLE"
)

type Charge struct {
	MethodID string
	Amount   decimal.Decimal
}

// OrderOutcome is the terminal decision taken for one order.
type OrderOutcome struct {
	OrderID  string
	Strategy Strategy
	Charges  []Charge
}

func (o OrderOutcome) Total() decimal.Decimal {
	total := decimal.Zero
	for _, c := range o.Charges {
		total = total.Add(c.Amount)
	}
	return total
}

func ValidateOrders(orders []Order) error {
	for i, o := range orders {
		if o.Value.IsNegative() {
			return ValidationError{
				Field:   fmt.Sprintf("orders[%d].value", i),
				Message: fmt.Sprintf("order %q has negative value %s", o.ID, o.Value),
			}
		}
	}
	return nil
}

func ValidatePaymentMethods(methods []PaymentMethod) error {
	seen := make(map[string]struct{}, len(methods))
	for i, m := range methods {
		field := fmt.Sprintf("paymentMethods[%d]", i)
		if m.ID == "" {
			return ValidationError{Field: field + ".id", Message: "empty id"}
		}
		if _, ok := seen[m.ID]; ok {
			return ValidationError{Field: field + ".id", Message: fmt.Sprintf("duplicate id %q", m.ID)}
		}
		seen[m.ID] = struct{}{}

		if m.Discount < 0 || m.Discount > 100 {
			return ValidationError{Field: field + ".discount", Message: fmt.Sprintf("%d is outside 0-100", m.Discount)}
		}
		if m.Limit.IsNegative() {
			return ValidationError{Field: field + ".limit", Message: fmt.Sprintf("negative limit %s", m.Limit)}
		}
	}
	return nil
}
