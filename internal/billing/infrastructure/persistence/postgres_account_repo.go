package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
)

const postgresAccountColumns = `id, email, credits, subscription_plan, subscription_status,
	subscription_start_date, subscription_end_date, total_credits_purchased,
	created_at, updated_at`

// PostgresAccountRepository implements domain.AccountRepository using PostgreSQL.
type PostgresAccountRepository struct {
	conn database.Connection
}

// NewPostgresAccountRepository creates a new PostgreSQL account repository.
func NewPostgresAccountRepository(conn database.Connection) *PostgresAccountRepository {
	return &PostgresAccountRepository{conn: conn}
}

// Save inserts a new account.
func (r *PostgresAccountRepository) Save(ctx context.Context, account *domain.Account) error {
	query := `
		INSERT INTO accounts (` + postgresAccountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		account.ID(),
		account.Email().String(),
		account.Credits(),
		account.SubscriptionPlan(),
		string(account.SubscriptionStatus()),
		account.SubscriptionStart(),
		account.SubscriptionEnd(),
		account.TotalCreditsPurchased(),
		account.CreatedAt(),
		account.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

// Update persists the mutable fields of an account.
func (r *PostgresAccountRepository) Update(ctx context.Context, account *domain.Account) error {
	query := `
		UPDATE accounts
		SET credits = $2, subscription_plan = $3, subscription_status = $4,
		    subscription_start_date = $5, subscription_end_date = $6,
		    total_credits_purchased = $7, updated_at = $8
		WHERE id = $1
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		account.ID(),
		account.Credits(),
		account.SubscriptionPlan(),
		string(account.SubscriptionStatus()),
		account.SubscriptionStart(),
		account.SubscriptionEnd(),
		account.TotalCreditsPurchased(),
		account.UpdatedAt(),
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
func (r *PostgresAccountRepository) FindByEmail(ctx context.Context, email sharedDomain.Email) (*domain.Account, error) {
	query := `
		SELECT ` + postgresAccountColumns + `
		FROM accounts
		WHERE email = $1
	`

	var (
		id        uuid.UUID
		emailStr  string
		credits   int64
		plan      string
		status    string
		start     *time.Time
		end       *time.Time
		total     int64
		createdAt time.Time
		updatedAt time.Time
	)

	exec := database.ExecutorFromContext(ctx, r.conn)
	err := exec.QueryRow(ctx, query, email.String()).Scan(
		&id, &emailStr, &credits, &plan, &status,
		&start, &end, &total, &createdAt, &updatedAt,
	)
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	addr, err := sharedDomain.NewEmail(emailStr)
	if err != nil {
		return nil, fmt.Errorf("invalid email in accounts row: %w", err)
	}

	return domain.RehydrateAccount(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		addr,
		credits,
		plan,
		domain.SubscriptionStatus(status),
		start,
		end,
		total,
	), nil
}
