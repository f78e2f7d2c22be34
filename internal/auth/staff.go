package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// Account is a staff dashboard login.
type Account struct {
	ID       string
	Username string
	PassHash string
	Role     string
}

// Accounts persists staff accounts in Postgres.
type Accounts struct {
	db *sql.DB
}

// NewAccounts creates the staff account store.
func NewAccounts(db *sql.DB) *Accounts {
	return &Accounts{db: db}
}

// ByUsername returns an account, or nil when absent.
func (a *Accounts) ByUsername(ctx context.Context, username string) (*Account, error) {
	row := a.db.QueryRowContext(ctx, `
		SELECT id, username, pass_hash, role FROM staff_accounts WHERE username = $1
	`, username)
	var acc Account
	if err := row.Scan(&acc.ID, &acc.Username, &acc.PassHash, &acc.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &acc, nil
}

// Create inserts a new staff account.
func (a *Accounts) Create(ctx context.Context, username, passHash, role string) error {
	_, err := a.db.ExecContext(ctx, `
		INSERT INTO staff_accounts (id, username, pass_hash, role)
		VALUES ($1,$2,$3,$4)
	`, uuid.NewString(), username, passHash, role)
	return err
}

// Bootstrap creates the initial staff account when none exist yet.
func (a *Accounts) Bootstrap(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}
	var count int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM staff_accounts`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	return a.Create(ctx, username, hash, RoleAdmin)
}
