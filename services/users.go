package services

import (
	"context"
	"database/sql"

	"github.com/Daysof1/proyecto/database"
	"github.com/Daysof1/proyecto/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Users is the credential collaborator: it owns the full user record,
// password hash included, and hands everything else a PublicUser projection.
type Users struct {
	db *database.DB
}

func NewUsers(db *database.DB) *Users {
	return &Users{db: db}
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Phone    *string
	Address  *string
}

// Register creates a customer account with a bcrypt-hashed password.
func (u *Users) Register(ctx context.Context, params RegisterParams) (*models.PublicUser, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, translateDB(err, "register user")
	}

	user := models.User{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Role:         models.RoleCustomer,
		Phone:        params.Phone,
		Address:      params.Address,
		Active:       true,
	}

	err = u.db.QueryRowContext(ctx, `INSERT INTO users (id, name, email, password_hash, role, phone, address)
	                                 VALUES ($1, $2, $3, $4, $5, $6, $7)
	                                 RETURNING created_at, updated_at`,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.Phone, user.Address,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, translateDB(err, "register user")
	}

	public := user.Public()
	return &public, nil
}

// Authenticate checks the email/password pair against the stored hash and
// returns the public projection of an active account. It deliberately
// reports the same NotFound for an unknown email and a wrong password.
func (u *Users) Authenticate(ctx context.Context, email, password string) (*models.PublicUser, error) {
	var user models.User
	err := u.db.QueryRowContext(ctx, `SELECT id, name, email, password_hash, role, phone, address, active, created_at, updated_at
	                                  FROM users WHERE email = $1`, email).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.Phone, &user.Address, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "invalid credentials")
	}
	if err != nil {
		return nil, translateDB(err, "authenticate user")
	}

	if !user.Active {
		return nil, newError(KindNotFound, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, newError(KindNotFound, "invalid credentials")
	}

	public := user.Public()
	return &public, nil
}

// Get returns the public projection of a user.
func (u *Users) Get(ctx context.Context, id uuid.UUID) (*models.PublicUser, error) {
	var user models.User
	err := u.db.QueryRowContext(ctx, `SELECT id, name, email, password_hash, role, phone, address, active, created_at, updated_at
	                                  FROM users WHERE id = $1`, id).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role,
		&user.Phone, &user.Address, &user.Active, &user.CreatedAt, &user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, newError(KindNotFound, "user %s not found", id)
	}
	if err != nil {
		return nil, translateDB(err, "get user")
	}

	public := user.Public()
	return &public, nil
}
