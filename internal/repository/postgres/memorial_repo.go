package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"gedenkseiten/internal/domain"
)

const memorialColumns = `id, owner_id, kind, slug, first_name, last_name,
	birth_date, death_date, birth_place, death_place, cause_of_death, gender,
	blocks, is_published, moderation_status, published_at, published_until,
	payment_status, archived_at, notice_stage, version, view_count,
	created_at, updated_at`

type memorialRepository struct {
	DB *sql.DB
}

// NewMemorialRepository returns a domain.MemorialRepository implemented with Postgres.
func NewMemorialRepository(db *sql.DB) domain.MemorialRepository {
	return &memorialRepository{DB: db}
}

func scanMemorial(row interface{ Scan(...any) error }) (*domain.Memorial, error) {
	m := &domain.Memorial{}
	var birthNull, deathNull, pubAtNull, pubUntilNull, archivedNull sql.NullTime
	var blocksNull []byte
	err := row.Scan(
		&m.ID, &m.OwnerID, &m.Kind, &m.Slug, &m.FirstName, &m.LastName,
		&birthNull, &deathNull, &m.BirthPlace, &m.DeathPlace, &m.CauseOfDeath, &m.Gender,
		&blocksNull, &m.IsPublished, &m.ModerationStatus, &pubAtNull, &pubUntilNull,
		&m.PaymentStatus, &archivedNull, &m.NoticeStage, &m.Version, &m.ViewCount,
		&m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if birthNull.Valid {
		m.BirthDate = &birthNull.Time
	}
	if deathNull.Valid {
		m.DeathDate = &deathNull.Time
	}
	if pubAtNull.Valid {
		m.PublishedAt = &pubAtNull.Time
	}
	if pubUntilNull.Valid {
		m.PublishedUntil = &pubUntilNull.Time
	}
	if archivedNull.Valid {
		m.ArchivedAt = &archivedNull.Time
	}
	if blocksNull != nil {
		m.Blocks = blocksNull
	}
	return m, nil
}

func (r *memorialRepository) Create(ctx context.Context, m *domain.Memorial) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	query := `
		INSERT INTO memorials (id, owner_id, kind, slug, first_name, last_name,
			birth_date, death_date, birth_place, death_place, cause_of_death, gender,
			blocks, moderation_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	var blocks any
	if m.Blocks != nil {
		blocks = []byte(m.Blocks)
	}
	_, err := r.DB.ExecContext(ctx, query,
		m.ID, m.OwnerID, m.Kind, m.Slug, m.FirstName, m.LastName,
		m.BirthDate, m.DeathDate, m.BirthPlace, m.DeathPlace, m.CauseOfDeath, m.Gender,
		blocks, m.ModerationStatus, m.CreatedAt, m.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return fmt.Errorf("slug %q: %w", m.Slug, domain.ErrConflict)
	}
	return err
}

func (r *memorialRepository) GetByID(ctx context.Context, id string) (*domain.Memorial, error) {
	query := `SELECT ` + memorialColumns + ` FROM memorials WHERE id = $1`
	m, err := scanMemorial(r.DB.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return m, err
}

func (r *memorialRepository) GetBySlug(ctx context.Context, slug string) (*domain.Memorial, error) {
	query := `SELECT ` + memorialColumns + ` FROM memorials WHERE slug = $1`
	m, err := scanMemorial(r.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(slug))))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return m, err
}

func (r *memorialRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Memorial, error) {
	query := `
		SELECT ` + memorialColumns + `
		FROM memorials
		WHERE owner_id = $1 AND archived_at IS NULL
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	memorials := make([]*domain.Memorial, 0)
	for rows.Next() {
		m, err := scanMemorial(rows)
		if err != nil {
			return nil, err
		}
		memorials = append(memorials, m)
	}
	return memorials, rows.Err()
}

func (r *memorialRepository) ListByModerationStatus(ctx context.Context, status domain.ModerationStatus, params domain.PaginationParams) ([]*domain.Memorial, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM memorials WHERE moderation_status = $1 AND archived_at IS NULL`
	if err := r.DB.QueryRowContext(ctx, countQuery, status).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := `
		SELECT ` + memorialColumns + `
		FROM memorials
		WHERE moderation_status = $1 AND archived_at IS NULL
		ORDER BY updated_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, status, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	memorials := make([]*domain.Memorial, 0)
	for rows.Next() {
		m, err := scanMemorial(rows)
		if err != nil {
			return nil, 0, err
		}
		memorials = append(memorials, m)
	}
	return memorials, total, rows.Err()
}

func (r *memorialRepository) Update(ctx context.Context, id string, upd domain.MemorialUpdate) (*domain.Memorial, error) {
	setClauses := []string{"updated_at = NOW()", "version = version + 1"}
	args := []any{}
	n := 1
	add := func(col string, val any) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col, n))
		args = append(args, val)
		n++
	}
	if upd.FirstName != nil {
		add("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		add("last_name", *upd.LastName)
	}
	if upd.BirthDate != nil {
		add("birth_date", *upd.BirthDate)
	}
	if upd.DeathDate != nil {
		add("death_date", *upd.DeathDate)
	}
	if upd.BirthPlace != nil {
		add("birth_place", *upd.BirthPlace)
	}
	if upd.DeathPlace != nil {
		add("death_place", *upd.DeathPlace)
	}
	if upd.CauseOfDeath != nil {
		add("cause_of_death", *upd.CauseOfDeath)
	}
	if upd.Gender != nil {
		add("gender", *upd.Gender)
	}
	if upd.Blocks != nil {
		add("blocks", []byte(upd.Blocks))
	}
	if n == 1 {
		return r.GetByID(ctx, id)
	}
	args = append(args, id)
	query := fmt.Sprintf(`
		UPDATE memorials SET %s
		WHERE id = $%d AND archived_at IS NULL
		RETURNING `+memorialColumns,
		strings.Join(setClauses, ", "), n)
	m, err := scanMemorial(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return m, err
}

func (r *memorialRepository) SetModerationStatus(ctx context.Context, id string, version int, status domain.ModerationStatus, publishedAt *time.Time) (*domain.Memorial, error) {
	// Approval publishes; any other status leaves is_published alone.
	query := `
		UPDATE memorials SET
			moderation_status = $1,
			is_published = CASE WHEN $2::timestamptz IS NOT NULL THEN TRUE ELSE is_published END,
			published_at = COALESCE($2, published_at),
			notice_stage = CASE WHEN $2::timestamptz IS NOT NULL THEN 0 ELSE notice_stage END,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $3 AND version = $4 AND archived_at IS NULL
		RETURNING ` + memorialColumns
	m, err := scanMemorial(r.DB.QueryRowContext(ctx, query, status, publishedAt, id, version))
	if errors.Is(err, sql.ErrNoRows) {
		// Distinguish a missing row from a stale version.
		if _, getErr := r.GetByID(ctx, id); getErr != nil {
			return nil, getErr
		}
		return nil, domain.ErrConflict
	}
	return m, err
}

func (r *memorialRepository) SetPublished(ctx context.Context, id string, published bool) (*domain.Memorial, error) {
	query := `
		UPDATE memorials SET is_published = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND archived_at IS NULL
		RETURNING ` + memorialColumns
	m, err := scanMemorial(r.DB.QueryRowContext(ctx, query, published, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return m, err
}

func (r *memorialRepository) Publish(ctx context.Context, id string, publishedAt time.Time, publishedUntil *time.Time, payment domain.PaymentStatus) (*domain.Memorial, error) {
	query := `
		UPDATE memorials SET
			is_published = TRUE,
			published_at = $1,
			published_until = $2,
			payment_status = $3,
			notice_stage = 0,
			version = version + 1,
			updated_at = NOW()
		WHERE id = $4 AND archived_at IS NULL
		RETURNING ` + memorialColumns
	m, err := scanMemorial(r.DB.QueryRowContext(ctx, query, publishedAt, publishedUntil, payment, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return m, err
}

func (r *memorialRepository) Archive(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE memorials SET archived_at = $1, is_published = FALSE, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND archived_at IS NULL
	`
	result, err := r.DB.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memorialRepository) ListExpiringBefore(ctx context.Context, to time.Time) ([]*domain.Memorial, error) {
	query := `
		SELECT ` + memorialColumns + `
		FROM memorials
		WHERE is_published
		  AND archived_at IS NULL
		  AND published_until IS NOT NULL
		  AND published_until <= $1
		ORDER BY published_until ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	memorials := make([]*domain.Memorial, 0)
	for rows.Next() {
		m, err := scanMemorial(rows)
		if err != nil {
			return nil, err
		}
		memorials = append(memorials, m)
	}
	return memorials, rows.Err()
}

func (r *memorialRepository) Unpublish(ctx context.Context, id string, noticeStage int) error {
	query := `
		UPDATE memorials SET is_published = FALSE, notice_stage = $1, version = version + 1, updated_at = NOW()
		WHERE id = $2
	`
	result, err := r.DB.ExecContext(ctx, query, noticeStage, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memorialRepository) SetNoticeStage(ctx context.Context, id string, stage int) error {
	query := `UPDATE memorials SET notice_stage = $1 WHERE id = $2`
	result, err := r.DB.ExecContext(ctx, query, stage, id)
	if err != nil {
		return err
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *memorialRepository) AddViews(ctx context.Context, id string, delta int64) error {
	query := `UPDATE memorials SET view_count = view_count + $1 WHERE id = $2`
	_, err := r.DB.ExecContext(ctx, query, delta, id)
	return err
}
