package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// syncWorkers bounds the fan-out of SyncAllCatererBalances.
const syncWorkers = 8

type SyncService interface {
	SyncCatererBalance(ctx context.Context, catererID int) (*CatererBalance, error)
	SyncAllCatererBalances(ctx context.Context) (*SyncReport, error)
}

type syncService struct {
	pool *pgxpool.Pool
}

// NewSyncService constructs the balance reconciliation job.
func NewSyncService(pool *pgxpool.Pool) SyncService {
	return &syncService{pool: pool}
}

// recomputeCatererBalanceTx rebuilds one caterer's denormalized projection
// strictly from its non-cancelled distributions and all of its payments,
// overwriting whatever the caterers row held. Idempotent by construction:
// the inputs are the authoritative rows, never the stale aggregate.
func recomputeCatererBalanceTx(ctx context.Context, tx pgx.Tx, catererID int) error {
	_, err := computeAndStoreBalance(ctx, tx, catererID)
	return err
}

func computeAndStoreBalance(ctx context.Context, tx pgx.Tx, catererID int) (*CatererBalance, error) {
	var totalBilled decimal.Decimal
	var totalOrders int
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(grand_total), 0), COUNT(*)
		FROM distributions
		WHERE caterer_id = $1 AND status <> 'cancelled'`,
		catererID,
	).Scan(&totalBilled, &totalOrders); err != nil {
		return nil, fmt.Errorf("sum distributions for caterer %d: %w", catererID, err)
	}

	var totalPaid decimal.Decimal
	if err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0)
		FROM caterer_payments
		WHERE caterer_id = $1`,
		catererID,
	).Scan(&totalPaid); err != nil {
		return nil, fmt.Errorf("sum payments for caterer %d: %w", catererID, err)
	}

	balanceDue := totalBilled.Sub(totalPaid)
	if balanceDue.IsNegative() {
		balanceDue = decimal.Zero
	}

	if _, err := tx.Exec(ctx, `
		UPDATE caterers
		SET total_billed = $1, total_paid = $2, balance_due = $3, total_orders = $4
		WHERE id = $5`,
		totalBilled, totalPaid, balanceDue, totalOrders, catererID,
	); err != nil {
		return nil, fmt.Errorf("store balance for caterer %d: %w", catererID, err)
	}

	return &CatererBalance{
		CatererID:   catererID,
		TotalBilled: totalBilled,
		TotalPaid:   totalPaid,
		BalanceDue:  balanceDue,
		TotalOrders: totalOrders,
	}, nil
}

// SyncCatererBalance recomputes and overwrites one caterer's aggregate,
// returning the fresh projection.
func (s *syncService) SyncCatererBalance(ctx context.Context, catererID int) (*CatererBalance, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists bool
	if err := tx.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM caterers WHERE id = $1)", catererID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check caterer %d: %w", catererID, err)
	}
	if !exists {
		return nil, &NotFoundError{Entity: "caterer", ID: catererID}
	}

	balance, err := computeAndStoreBalance(ctx, tx, catererID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit balance sync: %w", err)
	}
	return balance, nil
}

// SyncAllCatererBalances recomputes every caterer's aggregate with bounded
// parallelism. Each caterer is independent: one failure is tallied and never
// aborts the rest.
func (s *syncService) SyncAllCatererBalances(ctx context.Context) (*SyncReport, error) {
	rows, err := s.pool.Query(ctx, "SELECT id FROM caterers ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list caterers: %w", err)
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan caterer id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate caterers: %w", err)
	}

	report := &SyncReport{Errors: make(map[int]string)}
	var mu sync.Mutex

	g := &errgroup.Group{}
	g.SetLimit(syncWorkers)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			_, err := s.SyncCatererBalance(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				// Context cancellation is a caller abort, not a per-caterer failure.
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return err
				}
				report.Failed++
				report.Errors[id] = err.Error()
				return nil
			}
			report.Synced++
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("balance sync aborted: %w", err)
	}
	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	return report, nil
}
