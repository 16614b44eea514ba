package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkekops/paymentopt/internal/app/entity"
	"github.com/devkekops/paymentopt/internal/app/optimizer"
)

func TestObserve(t *testing.T) {
	res, err := optimizer.Optimize(
		[]entity.Order{
			{ID: "1", Value: decimal.RequireFromString("100.00")},
			{ID: "2", Value: decimal.RequireFromString("100.00")},
			{ID: "3", Value: decimal.RequireFromString("100.00")},
		},
		[]entity.PaymentMethod{
			{ID: entity.PointsID, Discount: 15, Limit: decimal.RequireFromString("95.00")},
		},
	)
	require.NoError(t, err)

	m := New()
	m.Observe(res)
	m.Observe(res)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.orders.WithLabelValues(string(entity.FullPoints))))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.orders.WithLabelValues(string(entity.Unpayable))))
	assert.Equal(t, 170.0, testutil.ToFloat64(m.charged.WithLabelValues(entity.PointsID)))
}

func TestHandler(t *testing.T) {
	m := New()
	m.runs.Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "paymentopt_runs_total 1"))
}
