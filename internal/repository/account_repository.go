package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/HossamJa/devops-capstone-project/shared/apperror"
	"github.com/HossamJa/devops-capstone-project/shared/models"
)

// ErrAccountNotFound signals that no row exists for the requested id.
var ErrAccountNotFound = errors.New("account not found")

// AccountWriteRepository owns the accounts table in PostgreSQL, the source of
// truth for every account.
type AccountWriteRepository struct {
	db *sql.DB
}

func NewAccountWriteRepository(db *sql.DB) *AccountWriteRepository {
	return &AccountWriteRepository{db: db}
}

func (r *AccountWriteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return apperror.Persistence("failed to ping database", err)
	}
	return nil
}

// Create inserts the account and sets its store-assigned id.
func (r *AccountWriteRepository) Create(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (name, email, address, phone_number, date_joined)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		account.Name, account.Email, account.Address,
		nullString(account.PhoneNumber), account.DateJoined,
	).Scan(&account.ID)
	if err != nil {
		return apperror.Persistence("failed to create account", err)
	}
	return nil
}

func (r *AccountWriteRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	query := `
		SELECT id, name, email, address, phone_number, date_joined
		FROM accounts
		WHERE id = $1
	`
	var account models.Account
	var phone sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID, &account.Name, &account.Email, &account.Address,
		&phone, &account.DateJoined,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, apperror.Persistence("failed to get account", err)
	}
	account.PhoneNumber = phone.String
	return &account, nil
}

// Update overwrites every column of the row identified by account.ID.
func (r *AccountWriteRepository) Update(ctx context.Context, account *models.Account) error {
	query := `
		UPDATE accounts
		SET name = $2, email = $3, address = $4, phone_number = $5, date_joined = $6
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Email, account.Address,
		nullString(account.PhoneNumber), account.DateJoined,
	)
	if err != nil {
		return apperror.Persistence("failed to update account", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperror.Persistence("failed to check rows affected", err)
	}
	if rows == 0 {
		return apperror.Persistence("failed to update account", fmt.Errorf("id %d: %w", account.ID, ErrAccountNotFound))
	}
	return nil
}

// Delete removes the row if it exists. Deleting a missing id is not an error;
// the returned bool reports whether a row was removed.
func (r *AccountWriteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return false, apperror.Persistence("failed to delete account", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperror.Persistence("failed to check rows affected", err)
	}
	return rows > 0, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
