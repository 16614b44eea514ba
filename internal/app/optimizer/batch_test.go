package optimizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devkekops/paymentopt/internal/app/entity"
)

func TestOptimizeBatchesIsolatesMethods(t *testing.T) {
	shared := []entity.PaymentMethod{
		method("PUNKTY", 15, "100.00"),
		method("VISA", 0, "100.00"),
	}
	batches := make([]entity.Batch, 0, 8)
	for i := 0; i < 8; i++ {
		batches = append(batches, entity.Batch{
			Orders:         []entity.Order{order("a", "100.00"), order("b", "50.00")},
			PaymentMethods: shared,
		})
	}
	batches = append(batches, entity.Batch{
		Orders:         []entity.Order{order("bad", "-5")},
		PaymentMethods: shared,
	})

	results := OptimizeBatches(context.Background(), batches, 4)
	require.Len(t, results, len(batches))

	for i, r := range results[:8] {
		require.NoError(t, r.Err, "batch %d", i)
		// a: points 85, b: points 15 + VISA 30
		assertUsage(t, map[string]string{"PUNKTY": "100.00", "VISA": "30.00"}, r.Result.Usage)
	}
	assert.ErrorIs(t, results[8].Err, entity.ErrInvalidInput)
	assert.Nil(t, results[8].Result)

	assert.True(t, dec("100.00").Equal(shared[0].Limit))
}

func TestOptimizeBatchesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	batches := []entity.Batch{
		{Orders: []entity.Order{order("a", "1")}, PaymentMethods: []entity.PaymentMethod{method("VISA", 0, "1")}},
		{Orders: []entity.Order{order("b", "1")}, PaymentMethods: []entity.PaymentMethod{method("VISA", 0, "1")}},
	}
	results := OptimizeBatches(ctx, batches, 0)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}
