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

const postgresTransactionColumns = `id, user_email, transaction_type, plan_name, billing_cycle,
	credits_purchased, amount, currency, status, payment_reference,
	invoice_sent, invoice_url, completed_at, created_at, updated_at`

// PostgresTransactionRepository implements domain.TransactionRepository
// using PostgreSQL.
type PostgresTransactionRepository struct {
	conn database.Connection
}

// NewPostgresTransactionRepository creates a new PostgreSQL transaction repository.
func NewPostgresTransactionRepository(conn database.Connection) *PostgresTransactionRepository {
	return &PostgresTransactionRepository{conn: conn}
}

// Save inserts a new transaction.
func (r *PostgresTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + postgresTransactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		tx.ID(),
		tx.UserEmail().String(),
		string(tx.Type()),
		nilIfEmpty(tx.PlanName()),
		nilIfEmpty(string(tx.BillingCycle())),
		tx.CreditsPurchased(),
		tx.Amount(),
		tx.Currency(),
		string(tx.Status()),
		nilIfEmpty(tx.PaymentReference()),
		tx.InvoiceSent(),
		nilIfEmpty(tx.InvoiceURL()),
		tx.CompletedAt(),
		tx.CreatedAt(),
		tx.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// Update persists a status transition. The status predicate makes the
// pending-to-completed transition a compare-and-set: when two confirms
// race, the loser's UPDATE matches no row and its unit of work rolls back.
func (r *PostgresTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = $2, payment_reference = $3, invoice_sent = $4,
		    invoice_url = $5, completed_at = $6, updated_at = $7
		WHERE id = $1 AND status != 'completed'
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		tx.ID(),
		string(tx.Status()),
		nilIfEmpty(tx.PaymentReference()),
		tx.InvoiceSent(),
		nilIfEmpty(tx.InvoiceURL()),
		tx.CompletedAt(),
		tx.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return r.updateMissReason(ctx, tx.ID())
	}
	return nil
}

// updateMissReason distinguishes a vanished row from one another confirm
// already completed.
func (r *PostgresTransactionRepository) updateMissReason(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var status string
	err := exec.QueryRow(ctx, `SELECT status FROM transactions WHERE id = $1`, id).Scan(&status)
	if err != nil {
		if database.IsNoRows(err) {
			return domain.ErrTransactionNotFound
		}
		return fmt.Errorf("failed to inspect transaction status: %w", err)
	}
	return domain.ErrTransactionCompleted
}

// MarkInvoiceSent persists the invoice markers of a completed transaction.
func (r *PostgresTransactionRepository) MarkInvoiceSent(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET invoice_sent = $2, invoice_url = $3, updated_at = $4
		WHERE id = $1
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		tx.ID(),
		tx.InvoiceSent(),
		nilIfEmpty(tx.InvoiceURL()),
		tx.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark invoice sent: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrTransactionNotFound
	}
	return nil
}

// FindByIDAndEmail loads a transaction scoped to the owning account.
func (r *PostgresTransactionRepository) FindByIDAndEmail(ctx context.Context, id uuid.UUID, email sharedDomain.Email) (*domain.Transaction, error) {
	query := `
		SELECT ` + postgresTransactionColumns + `
		FROM transactions
		WHERE id = $1 AND user_email = $2
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	tx, err := scanPostgresTransaction(exec.QueryRow(ctx, query, id, email.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, nil
}

// ListByEmail returns an account's transactions, newest first.
func (r *PostgresTransactionRepository) ListByEmail(ctx context.Context, email sharedDomain.Email) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + postgresTransactionColumns + `
		FROM transactions
		WHERE user_email = $1
		ORDER BY created_at DESC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, email.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := make([]*domain.Transaction, 0)
	for rows.Next() {
		tx, err := scanPostgresTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func scanPostgresTransaction(row database.Row) (*domain.Transaction, error) {
	var (
		id               uuid.UUID
		userEmail        string
		txType           string
		planName         *string
		billingCycle     *string
		creditsPurchased int64
		amount           int64
		currency         string
		status           string
		paymentReference *string
		invoiceSent      bool
		invoiceURL       *string
		completedAt      *time.Time
		createdAt        time.Time
		updatedAt        time.Time
	)

	err := row.Scan(
		&id, &userEmail, &txType, &planName, &billingCycle,
		&creditsPurchased, &amount, &currency, &status, &paymentReference,
		&invoiceSent, &invoiceURL, &completedAt, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	email, err := sharedDomain.NewEmail(userEmail)
	if err != nil {
		return nil, fmt.Errorf("invalid email in transactions row: %w", err)
	}

	return domain.RehydrateTransaction(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		email,
		domain.TransactionType(txType),
		deref(planName),
		domain.BillingCycle(deref(billingCycle)),
		creditsPurchased,
		amount,
		currency,
		domain.TransactionStatus(status),
		deref(paymentReference),
		invoiceSent,
		deref(invoiceURL),
		completedAt,
	), nil
}
