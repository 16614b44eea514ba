package optimizer

import (
	"context"
	"sync"

	"github.com/devkekops/paymentopt/internal/app/entity"
	"github.com/devkekops/paymentopt/internal/app/logger"
)

type BatchResult struct {
	Result *Result
	Err    error
}

type task struct {
	idx   int
	batch entity.Batch
}

type worker struct {
	id      int
	taskCh  <-chan task
	results []BatchResult
}

func (w *worker) loop(wg *sync.WaitGroup) {
	defer wg.Done()
	for t := range w.taskCh {
		res, err := Optimize(t.batch.Orders, t.batch.PaymentMethods)
		if err != nil {
			logger.Logger.Info().Int("worker", w.id).Int("batch", t.idx).Err(err).Msg("batch rejected")
		}
		// each index is written by exactly one worker
		w.results[t.idx] = BatchResult{Result: res, Err: err}
	}
}

// OptimizeBatches runs independent batches on a pool of workers. Every batch builds
// its own registry and ledger, so methods are never shared between batches. Results
// keep the order of batches. Batches not yet started when ctx is done get ctx.Err().
func OptimizeBatches(ctx context.Context, batches []entity.Batch, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	results := make([]BatchResult, len(batches))
	taskCh := make(chan task)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		w := &worker{id: i, taskCh: taskCh, results: results}
		wg.Add(1)
		go w.loop(&wg)
	}

	next := 0
dispatch:
	for ; next < len(batches); next++ {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break dispatch
		case taskCh <- task{idx: next, batch: batches[next]}:
		}
	}
	close(taskCh)
	wg.Wait()

	for ; next < len(batches); next++ {
		results[next] = BatchResult{Err: ctx.Err()}
	}
	return results
}
