package fulfillment

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Fulfill grants downloads and bumps sales counters for one completed
// checkout, atomically. Grants dedup on (user_id, project_id, txn_id)
// and the counter moves only when a grant row is actually new, so a
// redelivered event cannot inflate sales.
func (r *Repo) Fulfill(ctx context.Context, txnID, userID string, projectIDs []string) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, pid := range projectIDs {
		ct, err := tx.Exec(ctx, `
			INSERT INTO download_grants(user_id, project_id, txn_id)
			VALUES ($1,$2,$3)
			ON CONFLICT (user_id, project_id, txn_id) DO NOTHING`,
			userID, pid, txnID)
		if err != nil {
			return err
		}
		if ct.RowsAffected() == 0 {
			continue
		}
		if _, err := tx.Exec(ctx, `
			UPDATE projects SET sales_count = sales_count + 1 WHERE id=$1`, pid); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
