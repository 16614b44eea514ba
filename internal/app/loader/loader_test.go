package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkekops/paymentopt/internal/app/entity"
)

const ordersJSON = `[
	{"id": "ORDER1", "value": "150.00", "promotions": ["mZysk"]},
	{"id": "ORDER2", "value": 200.00},
	{"id": "ORDER3", "value": "50.00", "promotions": []}
]`

const methodsJSON = `[
	{"id": "PUNKTY", "discount": "15", "limit": "100.00"},
	{"id": "mZysk", "discount": 10, "limit": 180}
]`

func TestDecodeOrders(t *testing.T) {
	orders, err := DecodeOrders(strings.NewReader(ordersJSON))
	require.NoError(t, err)
	require.Len(t, orders, 3)

	assert.Equal(t, "ORDER1", orders[0].ID)
	assert.True(t, decimal.RequireFromString("150").Equal(orders[0].Value))
	assert.Equal(t, []string{"mZysk"}, orders[0].Promotions)
	assert.True(t, decimal.RequireFromString("200").Equal(orders[1].Value))
	assert.Empty(t, orders[1].Promotions)
	assert.Empty(t, orders[2].Promotions)
}

func TestDecodePaymentMethods(t *testing.T) {
	methods, err := DecodePaymentMethods(strings.NewReader(methodsJSON))
	require.NoError(t, err)
	require.Len(t, methods, 2)

	assert.Equal(t, entity.PaymentMethod{ID: "PUNKTY", Discount: 15, Limit: methods[0].Limit}, methods[0])
	assert.True(t, decimal.RequireFromString("100").Equal(methods[0].Limit))
	assert.Equal(t, 10, methods[1].Discount)
	assert.False(t, methods[1].IsPoints())
}

func TestDecodePaymentMethodsRejectsBadDiscount(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"fractional", `[{"id": "VISA", "discount": "7.5", "limit": "1"}]`},
		{"above 100", `[{"id": "VISA", "discount": 101, "limit": "1"}]`},
		{"negative", `[{"id": "VISA", "discount": "-1", "limit": "1"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodePaymentMethods(strings.NewReader(tt.body))
			assert.ErrorIs(t, err, entity.ErrInvalidInput)
		})
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := DecodeOrders(strings.NewReader(`{"id":`))
	assert.Error(t, err)

	_, err = DecodePaymentMethods(strings.NewReader(`[{"id": "VISA", "limit": "abc"}]`))
	assert.Error(t, err)
}

func TestDocumentBatch(t *testing.T) {
	doc := Document{
		Orders:         []OrderRecord{{ID: "1", Value: decimal.NewFromInt(10)}},
		PaymentMethods: []MethodRecord{{ID: "VISA", Discount: decimal.NewFromInt(5), Limit: decimal.NewFromInt(10)}},
	}
	batch, err := doc.Batch()
	require.NoError(t, err)
	assert.Len(t, batch.Orders, 1)
	assert.Equal(t, 5, batch.PaymentMethods[0].Discount)
}

func TestLoaderReadsFiles(t *testing.T) {
	dir := t.TempDir()
	ordersPath := filepath.Join(dir, "orders.json")
	methodsPath := filepath.Join(dir, "paymentmethods.json")
	require.NoError(t, os.WriteFile(ordersPath, []byte(ordersJSON), 0o600))
	require.NoError(t, os.WriteFile(methodsPath, []byte(methodsJSON), 0o600))

	batch, err := New(5).Batch(context.Background(), ordersPath, methodsPath)
	require.NoError(t, err)
	assert.Len(t, batch.Orders, 3)
	assert.Len(t, batch.PaymentMethods, 2)

	_, err = New(5).Orders(context.Background(), filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoaderFetchesURLs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orders.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ordersJSON))
	})
	mux.HandleFunc("/paymentmethods.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(methodsJSON))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	l := New(5)
	batch, err := l.Batch(context.Background(), srv.URL+"/orders.json", srv.URL+"/paymentmethods.json")
	require.NoError(t, err)
	assert.Len(t, batch.Orders, 3)
	assert.Len(t, batch.PaymentMethods, 2)

	_, err = l.Orders(context.Background(), srv.URL+"/nope.json")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}
