package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ideabank/ideabank-webapi/internal/domain/account"
)

const (
	createAccountSQL = `INSERT INTO accounts (display_name, preferred_name, biography, password_hash, salt_value)
		VALUES ($1, $2, $3, $4, $5)`

	getAuthInfoSQL = `SELECT display_name, password_hash, salt_value
		FROM accounts WHERE display_name = $1`

	getProfileSQL = `SELECT preferred_name, biography
		FROM accounts WHERE display_name = $1`

	listDisplayNamesSQL = `SELECT display_name FROM accounts`
)

var _ account.Repository = (*AccountRepository)(nil)

// AccountRepository implements account.Repository backed by PostgreSQL.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns an AccountRepository that uses the given pool.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// Create inserts a new account row.
func (r *AccountRepository) Create(ctx context.Context, rec account.Record) error {
	_, err := r.pool.Exec(ctx, createAccountSQL,
		rec.DisplayName, rec.PreferredName, rec.Biography, rec.PasswordHash, rec.SaltValue,
	)
	if err != nil {
		if pgErrCode(err) == uniqueViolationCode {
			return account.ErrDisplayNameTaken
		}
		return fmt.Errorf("creating account %q: %w", rec.DisplayName, err)
	}
	return nil
}

// GetAuthInfo returns the stored credentials for a display name.
func (r *AccountRepository) GetAuthInfo(ctx context.Context, displayName string) (*account.AuthInfo, error) {
	rows, err := r.pool.Query(ctx, getAuthInfoSQL, displayName)
	if err != nil {
		return nil, fmt.Errorf("getting auth info for %q: %w", displayName, err)
	}

	info, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (account.AuthInfo, error) {
		var a account.AuthInfo
		err := row.Scan(&a.DisplayName, &a.PasswordHash, &a.SaltValue)
		return a, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("getting auth info for %q: %w", displayName, err)
	}
	return &info, nil
}

// GetProfile returns the public profile fields for a display name.
func (r *AccountRepository) GetProfile(ctx context.Context, displayName string) (*account.Profile, error) {
	rows, err := r.pool.Query(ctx, getProfileSQL, displayName)
	if err != nil {
		return nil, fmt.Errorf("getting profile for %q: %w", displayName, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, func(row pgx.CollectableRow) (account.Profile, error) {
		var p account.Profile
		err := row.Scan(&p.PreferredName, &p.Biography)
		return p, err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, account.ErrNotFound
		}
		return nil, fmt.Errorf("getting profile for %q: %w", displayName, err)
	}
	return &p, nil
}

// ListDisplayNames returns every registered display name.
func (r *AccountRepository) ListDisplayNames(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listDisplayNamesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing display names: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
