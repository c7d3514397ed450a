package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/event-booking/internal/model"
	"github.com/iliyamo/event-booking/internal/utils"
)

// UserRepo provides access to the users table.  Besides authentication
// it serves as the requester directory for the reservation path: role
// lookups for the booking guard and name/email resolution for booking
// contact fields.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a new UserRepo bound to the given database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID.  Emails are normalized to
// lower case before storage.  A duplicate email maps to ErrEmailExists
// (MySQL error 1062).
func (r *UserRepo) Create(ctx context.Context, name, email, password, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (name, email, password, role) VALUES (?,?,?,?)",
		name, email, hash, role)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, password, role, created_at FROM users WHERE email = ? LIMIT 1",
		email).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.  Callers that only need role or contact
// fields still receive the full row; sql.ErrNoRows passes through when
// the user does not exist.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name, email, password, role, created_at FROM users WHERE id = ? LIMIT 1",
		id).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	return u, err
}
