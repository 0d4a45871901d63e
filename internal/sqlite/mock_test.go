package sqlite

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/lexicon/pkg/types"
)

func mockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))

	b := NewBackend(WithDB(db))
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	return b, mock
}

func TestDriverErrorsAreMarked(t *testing.T) {
	b, mock := mockBackend(t)
	driverErr := errors.New("disk I/O error")
	mock.ExpectQuery(`SELECT payload FROM "center" WHERE uuid = \?`).
		WithArgs("c-1").
		WillReturnError(driverErr)

	tbl := tableOf(t, b, types.KindCenter)
	_, err := tbl.Get("c-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrPersistence))
	assert.True(t, errors.Is(err, driverErr), "the driver error is kept as the cause")
	assert.False(t, errors.Is(err, types.ErrNotFound))

	mock.ExpectClose()
	require.NoError(t, b.Detach())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnchangedPayloadIsNotRewritten(t *testing.T) {
	b, mock := mockBackend(t)
	rec := &types.CenterShallow{UUID: "c-1", Name: "Nord"}
	payload, err := encode(rec)
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT payload FROM "center"`).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"payload"}).AddRow(string(payload)))
	mock.ExpectRollback()

	stored, created, err := tableOf(t, b, types.KindCenter).UpdateOrCreate("c-1", rec)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "Nord", stored.(*types.CenterShallow).Name)
	assert.NoError(t, mock.ExpectationsWereMet(), "no UPDATE is issued")
}

func TestSchemaFailureDoesNotAttach(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only database"))
	mock.ExpectClose()

	b := NewBackend(WithDB(db))
	err = b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	assert.True(t, errors.Is(err, types.ErrPersistence))

	_, err = b.GetTable(types.KindCenter)
	assert.ErrorIs(t, err, types.ErrStoreDetached)
	assert.NoError(t, mock.ExpectationsWereMet())
}
