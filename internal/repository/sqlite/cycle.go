package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cycleconnect/server/internal/domain"
)

// cycleRepo implements domain.CycleRepository using SQLite.
type cycleRepo struct {
	db *sql.DB
}

const cycleColumns = `c.id, c.owner_id, c.model, c.cycle_type, c.landmark, c.image_url, c.image_key, c.is_active, c.created_at, c.updated_at`

func (r *cycleRepo) Create(ctx context.Context, cycle *domain.Cycle) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO cycles (owner_id, model, cycle_type, landmark, image_url, image_key, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycle.OwnerID, cycle.Model, cycle.CycleType, cycle.Landmark,
		cycle.ImageURL, cycle.ImageKey, cycle.IsActive, now, now,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrCycleExists
		}
		return fmt.Errorf("insert cycle: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	cycle.ID = id
	cycle.CreatedAt = now
	cycle.UpdatedAt = now
	return nil
}

func (r *cycleRepo) GetByID(ctx context.Context, id int64) (*domain.Cycle, error) {
	return r.getOne(ctx, "c.id = ?", id)
}

func (r *cycleRepo) GetByOwner(ctx context.Context, ownerID int64) (*domain.Cycle, error) {
	return r.getOne(ctx, "c.owner_id = ?", ownerID)
}

func (r *cycleRepo) getOne(ctx context.Context, where string, arg any) (*domain.Cycle, error) {
	c := &domain.Cycle{}
	err := r.db.QueryRowContext(ctx,
		"SELECT "+cycleColumns+" FROM cycles c WHERE "+where, arg,
	).Scan(&c.ID, &c.OwnerID, &c.Model, &c.CycleType, &c.Landmark,
		&c.ImageURL, &c.ImageKey, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("query cycle: %w", err)
	}
	return c, nil
}

func (r *cycleRepo) Search(ctx context.Context, filter domain.CycleFilter, projection domain.OwnerProjection) ([]domain.Cycle, error) {
	q := newEnrichedQuery(projection)
	if filter.ActiveOnly {
		q.whereEq("c.is_active", true)
	}
	q.whereEq("c.landmark", filter.Landmark)
	if filter.CycleType != domain.CycleTypeAny {
		q.whereEq("c.cycle_type", filter.CycleType)
	}
	return r.queryEnriched(ctx, q)
}

func (r *cycleRepo) FindDetailed(ctx context.Context, id int64, projection domain.OwnerProjection) ([]domain.Cycle, error) {
	q := newEnrichedQuery(projection)
	q.whereEq("c.id", id)
	return r.queryEnriched(ctx, q)
}

// enrichedQuery composes the join of cycles with the projected subset of the
// owner's profile: equality predicates on cycle columns, a fixed join spec,
// and one of the two owner projections.
type enrichedQuery struct {
	projection domain.OwnerProjection
	where      []string
	args       []any
}

func newEnrichedQuery(projection domain.OwnerProjection) *enrichedQuery {
	return &enrichedQuery{projection: projection}
}

func (q *enrichedQuery) whereEq(column string, value any) {
	q.where = append(q.where, column+" = ?")
	q.args = append(q.args, value)
}

func (q *enrichedQuery) sql() string {
	ownerCols := "u.id, u.full_name"
	if q.projection == domain.OwnerContact {
		ownerCols = "u.id, u.full_name, u.avatar, u.phone_number, u.email, u.upi_id"
	}
	return "SELECT " + cycleColumns + ", " + ownerCols +
		" FROM cycles c JOIN users u ON u.id = c.owner_id" +
		" WHERE " + strings.Join(q.where, " AND ") +
		" ORDER BY c.id"
}

func (r *cycleRepo) queryEnriched(ctx context.Context, q *enrichedQuery) ([]domain.Cycle, error) {
	rows, err := r.db.QueryContext(ctx, q.sql(), q.args...)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}
	defer rows.Close()

	cycles := []domain.Cycle{}
	for rows.Next() {
		var c domain.Cycle
		owner := &domain.OwnerProfile{}

		dest := []any{&c.ID, &c.OwnerID, &c.Model, &c.CycleType, &c.Landmark,
			&c.ImageURL, &c.ImageKey, &c.IsActive, &c.CreatedAt, &c.UpdatedAt,
			&owner.ID, &owner.FullName}
		if q.projection == domain.OwnerContact {
			dest = append(dest, &owner.Avatar, &owner.PhoneNumber, &owner.Email, &owner.UpiID)
		}

		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan cycle: %w", err)
		}
		c.Owner = owner
		cycles = append(cycles, c)
	}
	return cycles, rows.Err()
}
