package testutil

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupMockDB(t *testing.T) {
	t.Run("matches queries by regexp", func(t *testing.T) {
		db, mock, cleanup := SetupMockDB(t)
		defer cleanup()

		mock.ExpectQuery("SELECT .* FROM templates").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("1"))

		var id string
		require.NoError(t, db.QueryRow("SELECT id FROM templates WHERE user_id = $1", "u").Scan(&id))
		assert.Equal(t, "1", id)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("cleanup closes database", func(t *testing.T) {
		db, _, cleanup := SetupMockDB(t)
		assert.NoError(t, db.Ping())

		cleanup()
		assert.Error(t, db.Ping())
	})
}
