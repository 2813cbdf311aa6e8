package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CatererService interface {
	CreateCaterer(ctx context.Context, input CatererInput) (*Caterer, error)
	GetCaterer(ctx context.Context, id int) (*Caterer, error)
	ListCaterers(ctx context.Context) ([]Caterer, error)
	UpdateCaterer(ctx context.Context, id int, input CatererInput) (*Caterer, error)
	DeleteCaterer(ctx context.Context, id int) error
}

type CatererInput struct {
	Name          string
	ContactPerson string
	Phone         string
	Email         string
	Address       string
	GSTIN         string
}

type catererService struct {
	pool *pgxpool.Pool
}

// NewCatererService constructs a CatererService backed by PostgreSQL.
func NewCatererService(pool *pgxpool.Pool) CatererService {
	return &catererService{pool: pool}
}

const catererColumns = `id, name, contact_person, phone, email, address, gstin,
	total_billed, total_paid, balance_due, total_orders, is_active, created_at`

func scanCaterer(row pgx.Row) (*Caterer, error) {
	c := &Caterer{}
	err := row.Scan(
		&c.ID, &c.Name, &c.ContactPerson, &c.Phone, &c.Email, &c.Address, &c.GSTIN,
		&c.TotalBilled, &c.TotalPaid, &c.BalanceDue, &c.TotalOrders, &c.IsActive, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func toPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CreateCaterer inserts a new caterer with a zeroed balance projection.
func (s *catererService) CreateCaterer(ctx context.Context, input CatererInput) (*Caterer, error) {
	if input.Name == "" {
		return nil, validationf("name", "must not be empty")
	}

	c, err := scanCaterer(s.pool.QueryRow(ctx, `
		INSERT INTO caterers (name, contact_person, phone, email, address, gstin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+catererColumns,
		input.Name, toPtr(input.ContactPerson), toPtr(input.Phone),
		toPtr(input.Email), toPtr(input.Address), toPtr(input.GSTIN),
	))
	if err != nil {
		return nil, fmt.Errorf("create caterer %q: %w", input.Name, err)
	}
	return c, nil
}

// GetCaterer returns one caterer including its balance projection.
func (s *catererService) GetCaterer(ctx context.Context, id int) (*Caterer, error) {
	c, err := scanCaterer(s.pool.QueryRow(ctx,
		"SELECT "+catererColumns+" FROM caterers WHERE id = $1", id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "caterer", ID: id}
		}
		return nil, fmt.Errorf("get caterer %d: %w", id, err)
	}
	return c, nil
}

// ListCaterers returns all active caterers ordered by name.
func (s *catererService) ListCaterers(ctx context.Context) ([]Caterer, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT "+catererColumns+" FROM caterers WHERE is_active = true ORDER BY name",
	)
	if err != nil {
		return nil, fmt.Errorf("list caterers: %w", err)
	}
	defer rows.Close()

	var caterers []Caterer
	for rows.Next() {
		var c Caterer
		if err := rows.Scan(
			&c.ID, &c.Name, &c.ContactPerson, &c.Phone, &c.Email, &c.Address, &c.GSTIN,
			&c.TotalBilled, &c.TotalPaid, &c.BalanceDue, &c.TotalOrders, &c.IsActive, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan caterer: %w", err)
		}
		caterers = append(caterers, c)
	}
	return caterers, rows.Err()
}

// UpdateCaterer rewrites the contact fields. The balance projection is owned
// by the ledger and the sync job; it cannot be edited here.
func (s *catererService) UpdateCaterer(ctx context.Context, id int, input CatererInput) (*Caterer, error) {
	if input.Name == "" {
		return nil, validationf("name", "must not be empty")
	}

	c, err := scanCaterer(s.pool.QueryRow(ctx, `
		UPDATE caterers
		SET name = $1, contact_person = $2, phone = $3, email = $4, address = $5, gstin = $6
		WHERE id = $7
		RETURNING `+catererColumns,
		input.Name, toPtr(input.ContactPerson), toPtr(input.Phone),
		toPtr(input.Email), toPtr(input.Address), toPtr(input.GSTIN), id,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Entity: "caterer", ID: id}
		}
		return nil, fmt.Errorf("update caterer %d: %w", id, err)
	}
	return c, nil
}

// DeleteCaterer soft-deletes a caterer. Refused with RelatedRecordsError
// while distributions or payments reference it; the counts tell the caller
// what stands in the way.
func (s *catererService) DeleteCaterer(ctx context.Context, id int) error {
	var distCount, payCount int
	if err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM distributions WHERE caterer_id = $1),
			(SELECT count(*) FROM caterer_payments WHERE caterer_id = $1)`,
		id,
	).Scan(&distCount, &payCount); err != nil {
		return fmt.Errorf("count related records for caterer %d: %w", id, err)
	}
	if distCount > 0 || payCount > 0 {
		return &RelatedRecordsError{Entity: "caterer", ID: id, Distributions: distCount, Payments: payCount}
	}

	tag, err := s.pool.Exec(ctx, "UPDATE caterers SET is_active = false WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete caterer %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "caterer", ID: id}
	}
	return nil
}
