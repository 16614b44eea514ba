package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/devkekops/paymentopt/internal/app/entity"
	"github.com/devkekops/paymentopt/internal/app/optimizer"
)

var ErrRunNotFound = errors.New("run not found")
var ErrRunExists = errors.New("run already exists")

// Run is a persisted optimization run: the usage ledger, the decision taken for
// every order and the orders left unpaid.
type Run struct {
	RunID      string
	OrderCount int
	CreatedAt  time.Time
	Usage      []Usage
	Outcomes   []entity.OrderOutcome
	Unpaid     []string
}

type Usage struct {
	MethodID string          `db:"method_id"`
	Amount   decimal.Decimal `db:"amount"`
}

// NewRun captures res under runID. Usage keeps payment method input order.
func NewRun(runID string, orderCount int, res *optimizer.Result) Run {
	run := Run{
		RunID:      runID,
		OrderCount: orderCount,
		CreatedAt:  time.Now().Truncate(time.Millisecond),
		Outcomes:   res.Outcomes,
		Unpaid:     res.Unpaid,
	}
	for _, e := range res.Entries() {
		run.Usage = append(run.Usage, Usage{MethodID: e.MethodID, Amount: e.Amount})
	}
	return run
}

type Repository interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, runID string) (Run, error)
	Close()
}
