package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/mailcanvas/mailcanvas/internal/domain"
)

// templatePsql is a Squirrel StatementBuilder configured for PostgreSQL
var templatePsql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var templateColumns = []string{"id", "user_id", "name", "content", "created_at", "updated_at"}

type templateRepository struct {
	db *sql.DB
}

// NewTemplateRepository creates a new PostgreSQL template repository
func NewTemplateRepository(db *sql.DB) domain.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) CreateTemplate(ctx context.Context, template *domain.Template) error {
	if template.ID == "" {
		template.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	template.CreatedAt = now
	template.UpdatedAt = now

	query, args, err := templatePsql.
		Insert("templates").
		Columns(templateColumns...).
		Values(template.ID, template.UserID, template.Name, template.Content, template.CreatedAt, template.UpdatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}
	return nil
}

func (r *templateRepository) GetTemplateByID(ctx context.Context, userID, id string) (*domain.Template, error) {
	query, args, err := templatePsql.
		Select(templateColumns...).
		From("templates").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	template, err := scanTemplate(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

func (r *templateRepository) ListTemplates(ctx context.Context, userID string) ([]*domain.Template, error) {
	query, args, err := templatePsql.
		Select(templateColumns...).
		From("templates").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("updated_at DESC", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := make([]*domain.Template, 0)
	for rows.Next() {
		template, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating template rows: %w", err)
	}
	return templates, nil
}

func (r *templateRepository) UpdateTemplate(ctx context.Context, template *domain.Template) error {
	template.UpdatedAt = time.Now().UTC()

	query, args, err := templatePsql.
		Update("templates").
		Set("name", template.Name).
		Set("content", template.Content).
		Set("updated_at", template.UpdatedAt).
		Where(sq.Eq{"user_id": template.UserID}).
		Where(sq.Eq{"id": template.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update template: %w", err)
	}
	return requireAffected(result)
}

func (r *templateRepository) DeleteTemplate(ctx context.Context, userID, id string) error {
	query, args, err := templatePsql.
		Delete("templates").
		Where(sq.Eq{"user_id": userID}).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return requireAffected(result)
}

func requireAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return &domain.ErrTemplateNotFound{Message: "template not found"}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTemplate(row rowScanner) (*domain.Template, error) {
	var (
		template domain.Template
		content  sql.NullString
	)
	err := row.Scan(
		&template.ID,
		&template.UserID,
		&template.Name,
		&content,
		&template.CreatedAt,
		&template.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if content.Valid {
		template.Content = &content.String
	}
	return &template, nil
}
