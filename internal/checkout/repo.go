package checkout

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("checkout: not found")
	ErrInvalidTransition = errors.New("checkout: invalid status transition")
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, c Checkout, items []CheckoutItem) error {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
		INSERT INTO checkouts(txn_id, user_id, amount, product_info, total_cents, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		c.TxnID, c.UserID, c.Amount, c.ProductInfo, c.TotalCents, StatusPending)
	if err != nil {
		return err
	}

	for _, it := range items {
		_, err = tx.Exec(ctx, `
			INSERT INTO checkout_items(txn_id, project_id, title, price_cents)
			VALUES ($1,$2,$3,$4)`,
			c.TxnID, it.ProjectID, it.Title, it.PriceCents)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *Repo) Get(ctx context.Context, txnID string) (Checkout, error) {
	var c Checkout
	err := r.DB.QueryRow(ctx, `
		SELECT txn_id, user_id, amount, product_info, total_cents, status, created_at, updated_at
		FROM checkouts WHERE txn_id=$1`, txnID).
		Scan(&c.TxnID, &c.UserID, &c.Amount, &c.ProductInfo, &c.TotalCents, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkout{}, ErrNotFound
	}
	return c, err
}

// MarkPaid settles a checkout: lock the row, move it to PAID and
// append one purchase per snapshot item. A checkout already PAID is a
// replayed callback; its purchases are returned unchanged. Purchases
// dedup on (txn_id, project_id) so a crash between insert and commit
// cannot double-credit.
func (r *Repo) MarkPaid(ctx context.Context, txnID string) (Checkout, []Purchase, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Checkout{}, nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var c Checkout
	err = tx.QueryRow(ctx, `
		SELECT txn_id, user_id, amount, product_info, total_cents, status, created_at, updated_at
		FROM checkouts WHERE txn_id=$1 FOR UPDATE`, txnID).
		Scan(&c.TxnID, &c.UserID, &c.Amount, &c.ProductInfo, &c.TotalCents, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkout{}, nil, ErrNotFound
	}
	if err != nil {
		return Checkout{}, nil, err
	}

	if c.Status == StatusPaid {
		purchases, err := r.purchasesForTxn(ctx, tx, txnID)
		if err != nil {
			return Checkout{}, nil, err
		}
		return c, purchases, tx.Commit(ctx)
	}
	if !CanTransition(c.Status, StatusPaid) {
		return Checkout{}, nil, ErrInvalidTransition
	}

	rows, err := tx.Query(ctx, `SELECT project_id, price_cents FROM checkout_items WHERE txn_id=$1`, txnID)
	if err != nil {
		return Checkout{}, nil, err
	}
	type snap struct {
		projectID string
		price     int
	}
	var snaps []snap
	for rows.Next() {
		var s snap
		if err := rows.Scan(&s.projectID, &s.price); err != nil {
			rows.Close()
			return Checkout{}, nil, err
		}
		snaps = append(snaps, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return Checkout{}, nil, err
	}

	for _, s := range snaps {
		_, err = tx.Exec(ctx, `
			INSERT INTO purchases(id, txn_id, project_id, user_id, price_cents)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (txn_id, project_id) DO NOTHING`,
			uuid.NewString(), txnID, s.projectID, c.UserID, s.price)
		if err != nil {
			return Checkout{}, nil, err
		}
	}

	if _, err = tx.Exec(ctx, `UPDATE checkouts SET status=$2, updated_at=now() WHERE txn_id=$1`, txnID, StatusPaid); err != nil {
		return Checkout{}, nil, err
	}
	c.Status = StatusPaid

	purchases, err := r.purchasesForTxn(ctx, tx, txnID)
	if err != nil {
		return Checkout{}, nil, err
	}
	return c, purchases, tx.Commit(ctx)
}

func (r *Repo) purchasesForTxn(ctx context.Context, tx pgx.Tx, txnID string) ([]Purchase, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, txn_id, project_id, user_id, price_cents, purchased_at
		FROM purchases WHERE txn_id=$1`, txnID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchases(rows)
}

// MarkCancelled moves a PENDING checkout to CANCELLED. Cancelling an
// already-terminal checkout is a no-op so replayed failure callbacks
// stay idempotent.
func (r *Repo) MarkCancelled(ctx context.Context, txnID string) error {
	ct, err := r.DB.Exec(ctx, `
		UPDATE checkouts SET status=$2, updated_at=now()
		WHERE txn_id=$1 AND status=$3`, txnID, StatusCancelled, StatusPending)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		// distinguish missing from already settled
		if _, err := r.Get(ctx, txnID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) ListPurchasesByUser(ctx context.Context, userID string) ([]Purchase, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, txn_id, project_id, user_id, price_cents, purchased_at
		FROM purchases WHERE user_id=$1 ORDER BY purchased_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPurchases(rows)
}

func collectPurchases(rows pgx.Rows) ([]Purchase, error) {
	var out []Purchase
	for rows.Next() {
		var p Purchase
		if err := rows.Scan(&p.ID, &p.TxnID, &p.ProjectID, &p.UserID, &p.PriceCents, &p.PurchasedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) HasPurchase(ctx context.Context, userID, projectID string) (bool, error) {
	var n int
	err := r.DB.QueryRow(ctx, `
		SELECT COUNT(*) FROM purchases WHERE user_id=$1 AND project_id=$2`, userID, projectID).Scan(&n)
	return n > 0, err
}

func (r *Repo) ListSales(ctx context.Context) ([]Sale, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT p.id, p.txn_id, p.project_id, p.user_id, p.price_cents, p.purchased_at,
		       COALESCE(pr.title, ''), COALESCE(u.email, '')
		FROM purchases p
		LEFT JOIN projects pr ON pr.id = p.project_id
		LEFT JOIN users u ON u.id = p.user_id
		ORDER BY p.purchased_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sale
	for rows.Next() {
		var s Sale
		if err := rows.Scan(&s.ID, &s.TxnID, &s.ProjectID, &s.UserID, &s.PriceCents, &s.PurchasedAt,
			&s.ProjectTitle, &s.BuyerEmail); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
