package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devkekops/paymentopt/internal/app/entity"
)

var ErrUnexpectedStatus = errors.New("unexpected status code")

type OrderRecord struct {
	ID         string          `json:"id"`
	Value      decimal.Decimal `json:"value"`
	Promotions []string        `json:"promotions"`
}

// MethodRecord is a payment method as found in input files. Discount may come as
// "15" or 15, so it is decoded as a decimal and must turn out to be an integer.
type MethodRecord struct {
	ID       string          `json:"id"`
	Discount decimal.Decimal `json:"discount"`
	Limit    decimal.Decimal `json:"limit"`
}

// Document is a complete optimization input.
type Document struct {
	Orders         []OrderRecord  `json:"orders"`
	PaymentMethods []MethodRecord `json:"paymentMethods"`
}

func (r OrderRecord) Order() entity.Order {
	return entity.Order{ID: r.ID, Value: r.Value, Promotions: r.Promotions}
}

func (r MethodRecord) PaymentMethod() (entity.PaymentMethod, error) {
	if !r.Discount.IsInteger() || r.Discount.LessThan(decimal.Zero) || r.Discount.GreaterThan(decimal.NewFromInt(100)) {
		return entity.PaymentMethod{}, entity.ValidationError{
			Field:   "discount",
			Message: fmt.Sprintf("method %q: %s is not an integer in 0-100", r.ID, r.Discount),
		}
	}
	return entity.PaymentMethod{ID: r.ID, Discount: int(r.Discount.IntPart()), Limit: r.Limit}, nil
}

func (d Document) Batch() (entity.Batch, error) {
	methods, err := toPaymentMethods(d.PaymentMethods)
	if err != nil {
		return entity.Batch{}, err
	}
	return entity.Batch{Orders: toOrders(d.Orders), PaymentMethods: methods}, nil
}

func toOrders(records []OrderRecord) []entity.Order {
	orders := make([]entity.Order, 0, len(records))
	for _, r := range records {
		orders = append(orders, r.Order())
	}
	return orders
}

func toPaymentMethods(records []MethodRecord) ([]entity.PaymentMethod, error) {
	methods := make([]entity.PaymentMethod, 0, len(records))
	for _, r := range records {
		m, err := r.PaymentMethod()
		if err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, nil
}

func DecodeOrders(r io.Reader) ([]entity.Order, error) {
	var records []OrderRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode orders: %w", err)
	}
	return toOrders(records), nil
}

func DecodePaymentMethods(r io.Reader) ([]entity.PaymentMethod, error) {
	var records []MethodRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode payment methods: %w", err)
	}
	return toPaymentMethods(records)
}

// Loader reads orders and payment methods from local files or http(s) URLs.
type Loader struct {
	httpClient *http.Client
}

func New(timeout int) *Loader {
	client := &http.Client{
		Timeout: time.Duration(timeout * int(time.Second)),
	}
	return &Loader{
		httpClient: client,
	}
}

func (l *Loader) Orders(ctx context.Context, source string) ([]entity.Order, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return DecodeOrders(rc)
}

func (l *Loader) PaymentMethods(ctx context.Context, source string) ([]entity.PaymentMethod, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return DecodePaymentMethods(rc)
}

func (l *Loader) Batch(ctx context.Context, ordersSource, methodsSource string) (entity.Batch, error) {
	orders, err := l.Orders(ctx, ordersSource)
	if err != nil {
		return entity.Batch{}, err
	}
	methods, err := l.PaymentMethods(ctx, methodsSource)
	if err != nil {
		return entity.Batch{}, err
	}
	return entity.Batch{Orders: orders, PaymentMethods: methods}, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	res, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		res.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, source, res.StatusCode)
	}
	return res.Body, nil
}
