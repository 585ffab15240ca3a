package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"gedenkseiten/internal/domain"
)

type emailTemplateRepository struct {
	DB *sql.DB
}

// NewEmailTemplateRepository returns a domain.EmailTemplateRepository implemented with Postgres.
func NewEmailTemplateRepository(db *sql.DB) domain.EmailTemplateRepository {
	return &emailTemplateRepository{DB: db}
}

func (r *emailTemplateRepository) GetActiveByName(ctx context.Context, name string) (*domain.EmailTemplate, error) {
	query := `
		SELECT id, name, subject, html_body, text_body, is_active
		FROM email_templates
		WHERE name = $1 AND is_active
	`
	t := &domain.EmailTemplate{}
	err := r.DB.QueryRowContext(ctx, query, name).Scan(
		&t.ID, &t.Name, &t.Subject, &t.HTMLBody, &t.TextBody, &t.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("template %q: %w", name, domain.ErrTemplateMissing)
		}
		return nil, err
	}
	return t, nil
}
