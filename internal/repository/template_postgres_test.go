package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailcanvas/mailcanvas/internal/domain"
	"github.com/mailcanvas/mailcanvas/internal/repository/testutil"
)

const (
	testUserID     = "user-42"
	testTemplateID = "7b1e4f2a-3c5d-4e6f-8a9b-0c1d2e3f4a5b"
)

func strPtr(s string) *string {
	return &s
}

func templateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "name", "content", "created_at", "updated_at"})
}

func TestTemplateRepository_CreateTemplate(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	ctx := context.Background()

	t.Run("assigns id and timestamps", func(t *testing.T) {
		template := &domain.Template{
			UserID:  testUserID,
			Name:    "Welcome",
			Content: strPtr(`[{"type":"text","content":"Hi"}]`),
		}

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO templates (id,user_id,name,content,created_at,updated_at) VALUES ($1,$2,$3,$4,$5,$6)")).
			WithArgs(sqlmock.AnyArg(), testUserID, "Welcome", `[{"type":"text","content":"Hi"}]`, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := repo.CreateTemplate(ctx, template)
		require.NoError(t, err)
		assert.NotEmpty(t, template.ID)
		assert.False(t, template.CreatedAt.IsZero())
		assert.Equal(t, template.CreatedAt, template.UpdatedAt)
	})

	t.Run("keeps nil content as NULL", func(t *testing.T) {
		template := &domain.Template{ID: testTemplateID, UserID: testUserID, Name: "Empty"}

		mock.ExpectExec("INSERT INTO templates").
			WithArgs(testTemplateID, testUserID, "Empty", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, repo.CreateTemplate(ctx, template))
		assert.Equal(t, testTemplateID, template.ID)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec("INSERT INTO templates").WillReturnError(errors.New("connection reset"))

		err := repo.CreateTemplate(ctx, &domain.Template{UserID: testUserID, Name: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create template")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_GetTemplateByID(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	selectQuery := regexp.QuoteMeta("SELECT id, user_id, name, content, created_at, updated_at FROM templates WHERE user_id = $1 AND id = $2")

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(selectQuery).
			WithArgs(testUserID, testTemplateID).
			WillReturnRows(templateRows().AddRow(testTemplateID, testUserID, "Welcome", "<p>Hi</p>", now, now))

		template, err := repo.GetTemplateByID(ctx, testUserID, testTemplateID)
		require.NoError(t, err)
		assert.Equal(t, testTemplateID, template.ID)
		assert.Equal(t, "Welcome", template.Name)
		require.NotNil(t, template.Content)
		assert.Equal(t, "<p>Hi</p>", *template.Content)
		assert.Equal(t, now, template.CreatedAt)
	})

	t.Run("null content", func(t *testing.T) {
		mock.ExpectQuery(selectQuery).
			WithArgs(testUserID, testTemplateID).
			WillReturnRows(templateRows().AddRow(testTemplateID, testUserID, "Blank", nil, now, now))

		template, err := repo.GetTemplateByID(ctx, testUserID, testTemplateID)
		require.NoError(t, err)
		assert.Nil(t, template.Content)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(selectQuery).
			WithArgs(testUserID, testTemplateID).
			WillReturnError(sql.ErrNoRows)

		template, err := repo.GetTemplateByID(ctx, testUserID, testTemplateID)
		assert.Nil(t, template)
		var notFound *domain.ErrTemplateNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectQuery(selectQuery).WillReturnError(errors.New("timeout"))

		_, err := repo.GetTemplateByID(ctx, testUserID, testTemplateID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get template")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_ListTemplates(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	listQuery := regexp.QuoteMeta("FROM templates WHERE user_id = $1 ORDER BY updated_at DESC, id")

	t.Run("returns rows in order", func(t *testing.T) {
		mock.ExpectQuery(listQuery).
			WithArgs(testUserID).
			WillReturnRows(templateRows().
				AddRow("b", testUserID, "Newer", "[]", now, now).
				AddRow("a", testUserID, "Older", nil, now.Add(-time.Hour), now.Add(-time.Hour)))

		templates, err := repo.ListTemplates(ctx, testUserID)
		require.NoError(t, err)
		require.Len(t, templates, 2)
		assert.Equal(t, "Newer", templates[0].Name)
		assert.Nil(t, templates[1].Content)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		mock.ExpectQuery(listQuery).WithArgs(testUserID).WillReturnRows(templateRows())

		templates, err := repo.ListTemplates(ctx, testUserID)
		require.NoError(t, err)
		assert.NotNil(t, templates)
		assert.Empty(t, templates)
	})

	t.Run("row error", func(t *testing.T) {
		mock.ExpectQuery(listQuery).
			WithArgs(testUserID).
			WillReturnRows(templateRows().
				AddRow("a", testUserID, "One", "[]", now, now).
				RowError(0, errors.New("broken row")))

		_, err := repo.ListTemplates(ctx, testUserID)
		require.Error(t, err)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(listQuery).WillReturnError(errors.New("down"))

		_, err := repo.ListTemplates(ctx, testUserID)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to list templates")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_UpdateTemplate(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	ctx := context.Background()
	updateQuery := regexp.QuoteMeta("UPDATE templates SET name = $1, content = $2, updated_at = $3 WHERE user_id = $4 AND id = $5")

	t.Run("success", func(t *testing.T) {
		template := &domain.Template{ID: testTemplateID, UserID: testUserID, Name: "Renamed", Content: strPtr("[]")}

		mock.ExpectExec(updateQuery).
			WithArgs("Renamed", "[]", sqlmock.AnyArg(), testUserID, testTemplateID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateTemplate(ctx, template))
		assert.False(t, template.UpdatedAt.IsZero())
	})

	t.Run("no rows means not found", func(t *testing.T) {
		mock.ExpectExec(updateQuery).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateTemplate(ctx, &domain.Template{ID: testTemplateID, UserID: "someone-else", Name: "x"})
		var notFound *domain.ErrTemplateNotFound
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("database error", func(t *testing.T) {
		mock.ExpectExec(updateQuery).WillReturnError(errors.New("deadlock"))

		err := repo.UpdateTemplate(ctx, &domain.Template{ID: testTemplateID, UserID: testUserID, Name: "x"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to update template")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTemplateRepository_DeleteTemplate(t *testing.T) {
	db, mock, cleanup := testutil.SetupMockDB(t)
	defer cleanup()

	repo := NewTemplateRepository(db)
	ctx := context.Background()
	deleteQuery := regexp.QuoteMeta("DELETE FROM templates WHERE user_id = $1 AND id = $2")

	mock.ExpectExec(deleteQuery).
		WithArgs(testUserID, testTemplateID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.DeleteTemplate(ctx, testUserID, testTemplateID))

	mock.ExpectExec(deleteQuery).
		WithArgs(testUserID, testTemplateID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.DeleteTemplate(ctx, testUserID, testTemplateID)
	var notFound *domain.ErrTemplateNotFound
	assert.ErrorAs(t, err, &notFound)

	mock.ExpectExec(deleteQuery).
		WithArgs(testUserID, testTemplateID).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("no driver support")))
	err = repo.DeleteTemplate(ctx, testUserID, testTemplateID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to get affected rows")

	assert.NoError(t, mock.ExpectationsWereMet())
}
