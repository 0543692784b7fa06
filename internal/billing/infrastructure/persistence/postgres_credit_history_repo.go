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

// PostgresCreditHistoryRepository implements domain.CreditHistoryRepository
// using PostgreSQL.
type PostgresCreditHistoryRepository struct {
	conn database.Connection
}

// NewPostgresCreditHistoryRepository creates a new PostgreSQL credit history repository.
func NewPostgresCreditHistoryRepository(conn database.Connection) *PostgresCreditHistoryRepository {
	return &PostgresCreditHistoryRepository{conn: conn}
}

// Save appends an audit entry.
func (r *PostgresCreditHistoryRepository) Save(ctx context.Context, entry *domain.CreditHistoryEntry) error {
	query := `
		INSERT INTO credit_history (
			id, user_email, action, credits_changed, credits_before,
			credits_after, reason, transaction_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		entry.ID(),
		entry.UserEmail().String(),
		string(entry.Action()),
		entry.CreditsChanged(),
		entry.CreditsBefore(),
		entry.CreditsAfter(),
		entry.Reason(),
		entry.TransactionID(),
		entry.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save credit history entry: %w", err)
	}
	return nil
}

// ListByEmail returns an account's audit entries, newest first.
func (r *PostgresCreditHistoryRepository) ListByEmail(ctx context.Context, email sharedDomain.Email) ([]*domain.CreditHistoryEntry, error) {
	query := `
		SELECT id, user_email, action, credits_changed, credits_before,
		       credits_after, reason, transaction_id, created_at
		FROM credit_history
		WHERE user_email = $1
		ORDER BY created_at DESC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, email.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list credit history: %w", err)
	}
	defer rows.Close()

	entries := make([]*domain.CreditHistoryEntry, 0)
	for rows.Next() {
		var (
			id             uuid.UUID
			userEmail      string
			action         string
			creditsChanged int64
			creditsBefore  int64
			creditsAfter   int64
			reason         *string
			transactionID  *uuid.UUID
			createdAt      time.Time
		)

		err := rows.Scan(
			&id, &userEmail, &action, &creditsChanged, &creditsBefore,
			&creditsAfter, &reason, &transactionID, &createdAt,
		)
		if err != nil {
			return nil, err
		}

		addr, err := sharedDomain.NewEmail(userEmail)
		if err != nil {
			return nil, fmt.Errorf("invalid email in credit_history row: %w", err)
		}

		entries = append(entries, domain.RehydrateCreditHistoryEntry(
			sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
			addr,
			domain.CreditAction(action),
			creditsChanged,
			creditsBefore,
			creditsAfter,
			deref(reason),
			transactionID,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
