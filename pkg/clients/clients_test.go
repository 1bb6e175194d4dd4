package clients

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var clientRowColumns = []string{"id", "user_id", "name", "email", "address", "phone_number", "company_name", "created_at", "updated_at"}

func setupStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db), mock
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := setupStore(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO clients")).
		WithArgs(sqlmock.AnyArg(), userID, "Acme", "ap@acme.test", "1 Main St", "", "Acme Corp").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	c, err := store.Create(context.Background(), userID, &Input{
		Name:        "  Acme ",
		Email:       "ap@acme.test",
		Address:     "1 Main St",
		CompanyName: "Acme Corp",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", c.Name)
	assert.Equal(t, userID, c.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateRequiresName(t *testing.T) {
	store, _ := setupStore(t)
	_, err := store.Create(context.Background(), uuid.New(), &Input{Name: "   "})
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestPostgresStore_GetScopedToOwner(t *testing.T) {
	store, mock := setupStore(t)
	userID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM clients WHERE id = $1 AND user_id = $2")).
		WithArgs(id, userID).
		WillReturnRows(sqlmock.NewRows(clientRowColumns))

	_, err := store.Get(context.Background(), userID, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStore_List(t *testing.T) {
	store, mock := setupStore(t)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM clients WHERE user_id = $1 ORDER BY name")).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(clientRowColumns).
			AddRow(uuid.NewString(), userID.String(), "Acme", "", "", "", "", now, now).
			AddRow(uuid.NewString(), userID.String(), "Beta", "b@beta.test", "", "", "", now, now))

	list, err := store.List(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Beta", list[1].Name)
}

func TestPostgresStore_UpdateAndDelete(t *testing.T) {
	store, mock := setupStore(t)
	userID, id := uuid.New(), uuid.New()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE clients")).
		WillReturnRows(sqlmock.NewRows(clientRowColumns).
			AddRow(id.String(), userID.String(), "Acme 2", "", "", "", "", now, now))
	c, err := store.Update(context.Background(), userID, id, &Input{Name: "Acme 2"})
	require.NoError(t, err)
	assert.Equal(t, "Acme 2", c.Name)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE clients")).
		WillReturnRows(sqlmock.NewRows(clientRowColumns))
	_, err = store.Update(context.Background(), userID, id, &Input{Name: "Acme 2"})
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM clients")).
		WithArgs(id, userID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, store.Delete(context.Background(), userID, id), ErrNotFound)
}
