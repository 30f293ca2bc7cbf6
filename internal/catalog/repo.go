package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("catalog: not found")

type Repo struct{ DB *pgxpool.Pool }

const projectCols = `id, title, category, description, price_cents, image_url, demo_url, download_url, sales_count, created_at, updated_at`

func scanProject(row pgx.Row) (Project, error) {
	var p Project
	err := row.Scan(&p.ID, &p.Title, &p.Category, &p.Description, &p.PriceCents,
		&p.ImageURL, &p.DemoURL, &p.DownloadURL, &p.SalesCount, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return p, ErrNotFound
	}
	return p, err
}

// ListProjects returns the catalog, optionally narrowed by category
// and a title/description search term.
func (r *Repo) ListProjects(ctx context.Context, category, search string) ([]Project, error) {
	q := `SELECT ` + projectCols + ` FROM projects WHERE 1=1`
	args := []any{}
	if category != "" {
		args = append(args, category)
		q += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		q += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", len(args), len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProject(ctx context.Context, id string) (Project, error) {
	row := r.DB.QueryRow(ctx, `SELECT `+projectCols+` FROM projects WHERE id=$1`, id)
	return scanProject(row)
}

// GetProjectsByIDs fetches title and price for cart additions so the
// stored cart never trusts client-supplied prices.
func (r *Repo) GetProjectsByIDs(ctx context.Context, ids []string) (map[string]Project, error) {
	if len(ids) == 0 {
		return map[string]Project{}, nil
	}
	rows, err := r.DB.Query(ctx, `SELECT `+projectCols+` FROM projects WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Project, len(ids))
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *Repo) CreateProject(ctx context.Context, p Project) (Project, error) {
	p.ID = uuid.NewString()
	row := r.DB.QueryRow(ctx, `
		INSERT INTO projects(id, title, category, description, price_cents, image_url, demo_url, download_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING `+projectCols, p.ID, p.Title, p.Category, p.Description, p.PriceCents, p.ImageURL, p.DemoURL, p.DownloadURL)
	return scanProject(row)
}

func (r *Repo) UpdateProject(ctx context.Context, p Project) (Project, error) {
	row := r.DB.QueryRow(ctx, `
		UPDATE projects
		SET title=$2, category=$3, description=$4, price_cents=$5, image_url=$6, demo_url=$7, download_url=$8, updated_at=now()
		WHERE id=$1
		RETURNING `+projectCols, p.ID, p.Title, p.Category, p.Description, p.PriceCents, p.ImageURL, p.DemoURL, p.DownloadURL)
	return scanProject(row)
}

func (r *Repo) DeleteProject(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CreateReview(ctx context.Context, rev Review) (Review, error) {
	rev.ID = uuid.NewString()
	err := r.DB.QueryRow(ctx, `
		INSERT INTO reviews(id, project_id, user_id, rating, comment)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at`, rev.ID, rev.ProjectID, rev.UserID, rev.Rating, rev.Comment).
		Scan(&rev.CreatedAt)
	return rev, err
}

// ListReviews returns reviews for one project; unapproved ones are
// included only when approvedOnly is false (admin view).
func (r *Repo) ListReviews(ctx context.Context, projectID string, approvedOnly bool) ([]Review, error) {
	q := `SELECT id, project_id, user_id, rating, comment, approved, created_at
	      FROM reviews WHERE project_id=$1`
	if approvedOnly {
		q += ` AND approved`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func (r *Repo) ListPendingReviews(ctx context.Context) ([]Review, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, project_id, user_id, rating, comment, approved, created_at
		FROM reviews WHERE NOT approved ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectReviews(rows)
}

func collectReviews(rows pgx.Rows) ([]Review, error) {
	var out []Review
	for rows.Next() {
		var rev Review
		if err := rows.Scan(&rev.ID, &rev.ProjectID, &rev.UserID, &rev.Rating, &rev.Comment, &rev.Approved, &rev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func (r *Repo) ApproveReview(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE reviews SET approved=true WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) DeleteReview(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM reviews WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repo) CreateInquiry(ctx context.Context, in Inquiry) (Inquiry, error) {
	in.ID = uuid.NewString()
	in.Status = InquiryOpen
	err := r.DB.QueryRow(ctx, `
		INSERT INTO inquiries(id, name, email, subject, message, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING created_at`, in.ID, in.Name, in.Email, in.Subject, in.Message, in.Status).
		Scan(&in.CreatedAt)
	return in, err
}

func (r *Repo) ListInquiries(ctx context.Context, status string) ([]Inquiry, error) {
	q := `SELECT id, name, email, subject, message, status, created_at FROM inquiries`
	args := []any{}
	if status != "" {
		q += ` WHERE status=$1`
		args = append(args, status)
	}
	q += ` ORDER BY created_at DESC`

	rows, err := r.DB.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Inquiry
	for rows.Next() {
		var in Inquiry
		if err := rows.Scan(&in.ID, &in.Name, &in.Email, &in.Subject, &in.Message, &in.Status, &in.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, rows.Err()
}

func (r *Repo) CloseInquiry(ctx context.Context, id string) error {
	ct, err := r.DB.Exec(ctx, `UPDATE inquiries SET status=$2 WHERE id=$1`, id, InquiryClosed)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
