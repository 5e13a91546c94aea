package repositories

import (
	"context"
	"database/sql"
	"errors"
)

var ErrAdminNotFound = errors.New("admin not found")

// Admin is a console operator. The only thing the core needs from it is a
// credential check; profile data lives elsewhere.
type Admin struct {
	ID           int    `json:"id" db:"id"`
	Email        string `json:"email" db:"email"`
	PasswordHash string `json:"-" db:"password_hash"`
}

type AdminRepository interface {
	GetByEmail(ctx context.Context, email string) (*Admin, error)
}

type postgresAdminRepository struct {
	db *sql.DB
}

func NewPostgresAdminRepository(db *sql.DB) AdminRepository {
	return &postgresAdminRepository{db: db}
}

func (r *postgresAdminRepository) GetByEmail(ctx context.Context, email string) (*Admin, error) {
	query := `SELECT id, email, password_hash FROM admins WHERE email = $1`
	var a Admin
	err := r.db.QueryRowContext(ctx, query, email).Scan(&a.ID, &a.Email, &a.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &a, nil
}
