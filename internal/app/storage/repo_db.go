package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/devkekops/paymentopt/internal/app/entity"
	"github.com/devkekops/paymentopt/internal/app/logger"
)

const sqlitePrefix = "sqlite:"

var schema = `
CREATE TABLE IF NOT EXISTS runs(
	run_id			TEXT PRIMARY KEY,
	order_count		INTEGER NOT NULL,
	created_at		BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_usage(
	run_id			TEXT NOT NULL,
	position		INTEGER NOT NULL,
	method_id		TEXT NOT NULL,
	amount			NUMERIC(15,2) NOT NULL,
	PRIMARY KEY (run_id, method_id)
);

CREATE TABLE IF NOT EXISTS run_unpaid(
	run_id			TEXT NOT NULL,
	position		INTEGER NOT NULL,
	order_id		TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS run_outcome(
	run_id			TEXT NOT NULL,
	position		INTEGER NOT NULL,
	order_id		TEXT NOT NULL,
	strategy		TEXT NOT NULL,
	PRIMARY KEY (run_id, position)
);

CREATE TABLE IF NOT EXISTS run_charge(
	run_id			TEXT NOT NULL,
	outcome_position	INTEGER NOT NULL,
	position		INTEGER NOT NULL,
	method_id		TEXT NOT NULL,
	amount			NUMERIC(15,2) NOT NULL,
	PRIMARY KEY (run_id, outcome_position, position)
);`

type runRow struct {
	RunID      string `db:"run_id"`
	OrderCount int    `db:"order_count"`
	CreatedAt  int64  `db:"created_at"`
}

type outcomeRow struct {
	Position int    `db:"position"`
	OrderID  string `db:"order_id"`
	Strategy string `db:"strategy"`
}

type chargeRow struct {
	OutcomePosition int             `db:"outcome_position"`
	MethodID        string          `db:"method_id"`
	Amount          decimal.Decimal `db:"amount"`
}

type RepoDB struct {
	db *sqlx.DB
}

// NewRepoDB connects to postgres through pgx, or to SQLite when databaseURI starts
// with "sqlite:" (e.g. "sqlite::memory:"), and creates the schema.
func NewRepoDB(databaseURI string) (*RepoDB, error) {
	driver, dsn := "pgx", databaseURI
	if strings.HasPrefix(databaseURI, sqlitePrefix) {
		driver, dsn = "sqlite", strings.TrimPrefix(databaseURI, sqlitePrefix)
	}

	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection, otherwise every connection sees its own :memory: database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &RepoDB{db: db}, nil
}

func (r *RepoDB) SaveRun(ctx context.Context, run Run) error {
	querySaveRun := `INSERT INTO runs (run_id, order_count, created_at) VALUES ($1, $2, $3)`
	querySaveUsage := `INSERT INTO run_usage (run_id, position, method_id, amount) VALUES ($1, $2, $3, $4)`
	querySaveUnpaid := `INSERT INTO run_unpaid (run_id, position, order_id) VALUES ($1, $2, $3)`
	querySaveOutcome := `INSERT INTO run_outcome (run_id, position, order_id, strategy) VALUES ($1, $2, $3, $4)`
	querySaveCharge := `INSERT INTO run_charge (run_id, outcome_position, position, method_id, amount) VALUES ($1, $2, $3, $4, $5)`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func(tx *sqlx.Tx) {
		err := tx.Rollback()
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			logger.Logger.Err(err).Str("run", run.RunID).Msg("rollback")
		}
	}(tx)

	_, err = tx.ExecContext(ctx, querySaveRun, run.RunID, run.OrderCount, run.CreatedAt.UnixMilli())
	if err != nil {
		if isConstraintViolation(err) {
			return fmt.Errorf("%w: %s", ErrRunExists, run.RunID)
		}
		return err
	}

	for i, u := range run.Usage {
		if _, err := tx.ExecContext(ctx, querySaveUsage, run.RunID, i, u.MethodID, u.Amount); err != nil {
			return err
		}
	}
	for i, orderID := range run.Unpaid {
		if _, err := tx.ExecContext(ctx, querySaveUnpaid, run.RunID, i, orderID); err != nil {
			return err
		}
	}
	for i, o := range run.Outcomes {
		if _, err := tx.ExecContext(ctx, querySaveOutcome, run.RunID, i, o.OrderID, string(o.Strategy)); err != nil {
			return err
		}
		for j, c := range o.Charges {
			if _, err := tx.ExecContext(ctx, querySaveCharge, run.RunID, i, j, c.MethodID, c.Amount); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func (r *RepoDB) GetRun(ctx context.Context, runID string) (Run, error) {
	queryGetRun := `SELECT run_id, order_count, created_at FROM runs WHERE run_id = ($1)`
	queryGetUsage := `SELECT method_id, amount FROM run_usage WHERE run_id = ($1) ORDER BY position ASC`
	queryGetUnpaid := `SELECT order_id FROM run_unpaid WHERE run_id = ($1) ORDER BY position ASC`
	queryGetOutcomes := `SELECT position, order_id, strategy FROM run_outcome WHERE run_id = ($1) ORDER BY position ASC`
	queryGetCharges := `SELECT outcome_position, method_id, amount FROM run_charge WHERE run_id = ($1) ORDER BY outcome_position ASC, position ASC`

	var row runRow
	err := r.db.GetContext(ctx, &row, queryGetRun, runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return Run{}, err
	}

	run := Run{
		RunID:      row.RunID,
		OrderCount: row.OrderCount,
		CreatedAt:  time.UnixMilli(row.CreatedAt),
	}
	if err := r.db.SelectContext(ctx, &run.Usage, queryGetUsage, runID); err != nil {
		return Run{}, err
	}
	if err := r.db.SelectContext(ctx, &run.Unpaid, queryGetUnpaid, runID); err != nil {
		return Run{}, err
	}

	var outcomes []outcomeRow
	if err := r.db.SelectContext(ctx, &outcomes, queryGetOutcomes, runID); err != nil {
		return Run{}, err
	}
	var charges []chargeRow
	if err := r.db.SelectContext(ctx, &charges, queryGetCharges, runID); err != nil {
		return Run{}, err
	}

	index := make(map[int]int, len(outcomes))
	for _, o := range outcomes {
		index[o.Position] = len(run.Outcomes)
		run.Outcomes = append(run.Outcomes, entity.OrderOutcome{OrderID: o.OrderID, Strategy: entity.Strategy(o.Strategy)})
	}
	for _, c := range charges {
		i, ok := index[c.OutcomePosition]
		if !ok {
			continue
		}
		run.Outcomes[i].Charges = append(run.Outcomes[i].Charges, entity.Charge{MethodID: c.MethodID, Amount: c.Amount})
	}

	return run, nil
}

func isConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

func (r *RepoDB) Close() {
	r.db.Close()
}
