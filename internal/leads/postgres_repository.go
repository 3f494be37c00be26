package leads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const leadColumns = `id, tenant_id, landing_page_id, name, email, phone, source,
	custom_fields, readiness_score, ip_address, user_agent, status, created_at`

// PostgresRepository stores leads in the relational database. The
// (email, source) unique constraint makes CreateOrGet race-free.
type PostgresRepository struct {
	pool pgxQuerier
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	if pool == nil {
		panic("leads: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

func newPostgresRepositoryWithQuerier(q pgxQuerier) *PostgresRepository {
	if q == nil {
		panic("leads: querier required")
	}
	return &PostgresRepository{pool: q}
}

// CreateOrGet inserts the lead, or returns the stored one when the
// (email, source) pair already exists.
func (r *PostgresRepository) CreateOrGet(ctx context.Context, lead *Lead) (*Lead, bool, error) {
	stored := cloneLead(lead)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	fields, err := json.Marshal(stored.CustomFields)
	if err != nil {
		return nil, false, fmt.Errorf("leads: marshal custom fields: %w", err)
	}

	query := `
		INSERT INTO leads (id, tenant_id, landing_page_id, name, email, phone, source,
			custom_fields, readiness_score, ip_address, user_agent, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (email, source) DO NOTHING
		RETURNING created_at
	`
	var createdAt time.Time
	err = r.pool.QueryRow(ctx, query,
		stored.ID,
		stored.TenantID,
		stored.LandingPageID,
		stored.Name,
		stored.Email,
		stored.Phone,
		stored.Source,
		fields,
		stored.ReadinessScore,
		stored.IPAddress,
		stored.UserAgent,
		stored.Status,
	).Scan(&createdAt)
	switch {
	case err == nil:
		stored.CreatedAt = createdAt
		return stored, true, nil
	case errors.Is(err, pgx.ErrNoRows):
		existing, err := r.getByEmailSource(ctx, stored.Email, stored.Source)
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	default:
		return nil, false, fmt.Errorf("leads: insert failed: %w", err)
	}
}

func (r *PostgresRepository) getByEmailSource(ctx context.Context, email, source string) (*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE email = $1 AND source = $2`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, email, source))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("leads: conflicting row vanished for %s/%s: %w", email, source, ErrLeadNotFound)
		}
		return nil, fmt.Errorf("leads: select duplicate failed: %w", err)
	}
	return lead, nil
}

// GetByID fetches a single lead.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Lead, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrLeadNotFound
	}
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`
	lead, err := scanLead(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("leads: select failed: %w", err)
	}
	return lead, nil
}

// List returns leads newest first.
func (r *PostgresRepository) List(ctx context.Context, filter ListFilter) ([]*Lead, error) {
	query := `
		SELECT ` + leadColumns + `
		FROM leads
		WHERE ($1 = '' OR source = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.pool.Query(ctx, query, filter.Source, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("leads: list failed: %w", err)
	}
	defer rows.Close()

	out := []*Lead{}
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("leads: scan failed: %w", err)
		}
		out = append(out, lead)
	}
	return out, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	var lead Lead
	var fields []byte
	if err := row.Scan(
		&lead.ID,
		&lead.TenantID,
		&lead.LandingPageID,
		&lead.Name,
		&lead.Email,
		&lead.Phone,
		&lead.Source,
		&fields,
		&lead.ReadinessScore,
		&lead.IPAddress,
		&lead.UserAgent,
		&lead.Status,
		&lead.CreatedAt,
	); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &lead.CustomFields); err != nil {
			return nil, fmt.Errorf("leads: decode custom fields: %w", err)
		}
	}
	return &lead, nil
}
