package db

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateAppliesEveryStatement(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer raw.Close()

	for _, m := range migrations {
		mock.ExpectExec(m).WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), sqlx.NewDb(raw, "postgres")))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateStopsOnError(t *testing.T) {
	raw, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer raw.Close()

	mock.ExpectExec(migrations[0]).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(migrations[1]).WillReturnError(assert.AnError)

	err = Migrate(context.Background(), sqlx.NewDb(raw, "postgres"))
	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "migration 1")
	require.NoError(t, mock.ExpectationsWereMet())
}
