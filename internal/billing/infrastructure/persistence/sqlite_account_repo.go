package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
)

const sqliteAccountColumns = `id, email, credits, subscription_plan, subscription_status,
	subscription_start_date, subscription_end_date, total_credits_purchased,
	created_at, updated_at`

// SQLiteAccountRepository implements domain.AccountRepository using SQLite.
type SQLiteAccountRepository struct {
	conn database.Connection
}

// NewSQLiteAccountRepository creates a new SQLite account repository.
func NewSQLiteAccountRepository(conn database.Connection) *SQLiteAccountRepository {
	return &SQLiteAccountRepository{conn: conn}
}

// Save inserts a new account.
func (r *SQLiteAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + sqliteAccountColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		account.ID().String(),
		account.Email().String(),
		account.Credits(),
		account.SubscriptionPlan(),
		string(account.SubscriptionStatus()),
		formatTimePtr(account.SubscriptionStart()),
		formatTimePtr(account.SubscriptionEnd()),
		account.TotalCreditsPurchased(),
		formatTime(account.CreatedAt()),
		formatTime(account.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an account.
func (r *SQLiteAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET credits = ?, subscription_plan = ?, subscription_status = ?,
		    subscription_start_date = ?, subscription_end_date = ?,
		    total_credits_purchased = ?, updated_at = ?
		WHERE id = ?
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		account.Credits(),
		account.SubscriptionPlan(),
		string(account.SubscriptionStatus()),
		formatTimePtr(account.SubscriptionStart()),
		formatTimePtr(account.SubscriptionEnd()),
		account.TotalCreditsPurchased(),
		formatTime(account.UpdatedAt()),
		account.ID().String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// FindByEmail loads an account by its email.
func (r *SQLiteAccountRepository) FindByEmail(ctx context.Context, email sharedDomain.Email) (*domain.Account, error) {
	query := `
		SELECT ` + sqliteAccountColumns + `
		FROM accounts
		WHERE email = ?
	`

	var (
		idStr        string
		emailStr     string
		credits      int64
		plan         sql.NullString
		status       sql.NullString
		startStr     sql.NullString
		endStr       sql.NullString
		total        int64
		createdAtStr string
		updatedAtStr string
	)

	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, email.String()).Scan(
		&idStr, &emailStr, &credits, &plan, &status,
		&startStr, &endStr, &total, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid id in accounts row: %w", err)
	}
	addr, err := sharedDomain.NewEmail(emailStr)
	if err != nil {
		return nil, fmt.Errorf("invalid email in accounts row: %w", err)
	}
	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(updatedAtStr)
	if err != nil {
		return nil, err
	}
	start, err := parseTimePtr(startStr)
	if err != nil {
		return nil, err
	}
	end, err := parseTimePtr(endStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateAccount(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		addr,
		credits,
		plan.String,
		domain.SubscriptionStatus(status.String),
		start,
		end,
		total,
	), nil
}
