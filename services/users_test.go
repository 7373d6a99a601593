package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/Daysof1/proyecto/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const userByEmailQuery = `SELECT id, name, email, password_hash, role, phone, address, active, created_at, updated_at FROM users WHERE email = \$1`

func userRow(id uuid.UUID, email, hash string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "phone", "address", "active", "created_at", "updated_at"}).
		AddRow(id, "Ana", email, hash, models.RoleCustomer, nil, nil, active, now, now)
}

func TestRegister(t *testing.T) {
	db, mock := newMockDB(t)
	users := NewUsers(db)
	now := time.Now()

	mock.ExpectQuery(quote(`INSERT INTO users (id, name, email, password_hash, role, phone, address)`)).
		WithArgs(sqlmock.AnyArg(), "Ana", "ana@example.com", sqlmock.AnyArg(), models.RoleCustomer, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	public, err := users.Register(context.Background(), RegisterParams{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", public.Email)
	assert.Equal(t, models.RoleCustomer, public.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	users := NewUsers(db)

	mock.ExpectQuery(quote(`INSERT INTO users`)).
		WillReturnError(&pq.Error{Code: pq.ErrorCode(pqUniqueViolation)})

	_, err := users.Register(context.Background(), RegisterParams{
		Name:     "Ana",
		Email:    "ana@example.com",
		Password: "secret123",
	})
	assert.Equal(t, KindDuplicateName, KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticate(t *testing.T) {
	db, mock := newMockDB(t)
	users := NewUsers(db)
	userID := uuid.New()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery(userByEmailQuery).WithArgs("ana@example.com").
		WillReturnRows(userRow(userID, "ana@example.com", string(hash), true))

	public, err := users.Authenticate(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, userID, public.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Wrong password, unknown email and a deactivated account all come back as
// the same error, so a caller cannot probe which emails exist.
func TestAuthenticateRejections(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("wrong password", func(t *testing.T) {
		db, mock := newMockDB(t)
		users := NewUsers(db)
		mock.ExpectQuery(userByEmailQuery).
			WillReturnRows(userRow(uuid.New(), "ana@example.com", string(hash), true))

		_, err := users.Authenticate(context.Background(), "ana@example.com", "nope")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("unknown email", func(t *testing.T) {
		db, mock := newMockDB(t)
		users := NewUsers(db)
		mock.ExpectQuery(userByEmailQuery).WillReturnError(sql.ErrNoRows)

		_, err := users.Authenticate(context.Background(), "ghost@example.com", "secret123")
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("inactive account", func(t *testing.T) {
		db, mock := newMockDB(t)
		users := NewUsers(db)
		mock.ExpectQuery(userByEmailQuery).
			WillReturnRows(userRow(uuid.New(), "ana@example.com", string(hash), false))

		_, err := users.Authenticate(context.Background(), "ana@example.com", "secret123")
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

// The public projection must never carry the password hash.
func TestPublicProjection(t *testing.T) {
	user := models.User{
		ID:           uuid.New(),
		Name:         "Ana",
		Email:        "ana@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         models.RoleAdmin,
		Active:       true,
	}

	public := user.Public()
	assert.Equal(t, user.ID, public.ID)
	assert.Equal(t, user.Email, public.Email)
	assert.Equal(t, models.RoleAdmin, public.Role)
}
