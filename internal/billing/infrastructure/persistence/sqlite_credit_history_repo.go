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

// SQLiteCreditHistoryRepository implements domain.CreditHistoryRepository
// using SQLite.
type SQLiteCreditHistoryRepository struct {
	conn database.Connection
}

// NewSQLiteCreditHistoryRepository creates a new SQLite credit history repository.
func NewSQLiteCreditHistoryRepository(conn database.Connection) *SQLiteCreditHistoryRepository {
	return &SQLiteCreditHistoryRepository{conn: conn}
}

// Save appends an audit entry.
func (r *SQLiteCreditHistoryRepository) Save(ctx context.Context, entry *domain.CreditHistoryEntry) error {
	query := `
		INSERT INTO credit_history (
			id, user_email, action, credits_changed, credits_before,
			credits_after, reason, transaction_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var txID any
	if entry.TransactionID() != nil {
		txID = entry.TransactionID().String()
	}

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		entry.ID().String(),
		entry.UserEmail().String(),
		string(entry.Action()),
		entry.CreditsChanged(),
		entry.CreditsBefore(),
		entry.CreditsAfter(),
		nilIfEmpty(entry.Reason()),
		txID,
		formatTime(entry.CreatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save credit history entry: %w", err)
	}
	return nil
}

// ListByEmail returns an account's audit entries, newest first.
func (r *SQLiteCreditHistoryRepository) ListByEmail(ctx context.Context, email sharedDomain.Email) ([]*domain.CreditHistoryEntry, error) {
	query := `
		SELECT id, user_email, action, credits_changed, credits_before,
		       credits_after, reason, transaction_id, created_at
		FROM credit_history
		WHERE user_email = ?
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
			idStr          string
			userEmail      string
			action         string
			creditsChanged int64
			creditsBefore  int64
			creditsAfter   int64
			reason         sql.NullString
			txIDStr        sql.NullString
			createdAtStr   string
		)

		err := rows.Scan(
			&idStr, &userEmail, &action, &creditsChanged, &creditsBefore,
			&creditsAfter, &reason, &txIDStr, &createdAtStr,
		)
		if err != nil {
			return nil, err
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid id in credit_history row: %w", err)
		}
		addr, err := sharedDomain.NewEmail(userEmail)
		if err != nil {
			return nil, fmt.Errorf("invalid email in credit_history row: %w", err)
		}
		createdAt, err := parseTime(createdAtStr)
		if err != nil {
			return nil, err
		}

		var transactionID *uuid.UUID
		if txIDStr.Valid {
			parsed, err := uuid.Parse(txIDStr.String)
			if err != nil {
				return nil, fmt.Errorf("invalid transaction id in credit_history row: %w", err)
			}
			transactionID = &parsed
		}

		entries = append(entries, domain.RehydrateCreditHistoryEntry(
			sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
			addr,
			domain.CreditAction(action),
			creditsChanged,
			creditsBefore,
			creditsAfter,
			reason.String,
			transactionID,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
