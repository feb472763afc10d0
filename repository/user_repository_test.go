package repository

import (
	"testing"
	"time"

	"tunehub/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileTestColumns = []string{
	"id", "user_id", "user_type", "bio", "profile_picture",
	"location", "website", "created_at", "updated_at",
}

func profileRow(id, userID int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(profileTestColumns).
		AddRow(id, userID, model.UserTypeListener, nil, nil, nil, nil, now, now)
}

func TestGetProfileByUserIDCreatesListenerOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	// First call finds no row, inserts the listener profile and rereads it.
	mock.ExpectQuery("SELECT .+ FROM user_profiles WHERE user_id").
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(profileTestColumns))
	mock.ExpectExec("INSERT IGNORE INTO user_profiles").
		WithArgs(int64(42), model.UserTypeListener).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery("SELECT .+ FROM user_profiles WHERE user_id").
		WithArgs(int64(42)).
		WillReturnRows(profileRow(7, 42))

	// Second call reads the existing row. No further insert is expected;
	// ExpectationsWereMet fails if one happens.
	mock.ExpectQuery("SELECT .+ FROM user_profiles WHERE user_id").
		WithArgs(int64(42)).
		WillReturnRows(profileRow(7, 42))

	first, err := repo.GetProfileByUserID(42)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := repo.GetProfileByUserID(42)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, int64(42), second.UserID)
	assert.Equal(t, model.UserTypeListener, second.UserType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetProfileByUserIDReturnsExisting(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewMySQLUserRepository(db)

	mock.ExpectQuery("SELECT .+ FROM user_profiles WHERE user_id").
		WithArgs(int64(9)).
		WillReturnRows(profileRow(3, 9))

	profile, err := repo.GetProfileByUserID(9)
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, int64(3), profile.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
