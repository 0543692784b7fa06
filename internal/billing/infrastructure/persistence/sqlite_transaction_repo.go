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

const sqliteTransactionColumns = `id, user_email, transaction_type, plan_name, billing_cycle,
	credits_purchased, amount, currency, status, payment_reference,
	invoice_sent, invoice_url, completed_at, created_at, updated_at`

// SQLiteTransactionRepository implements domain.TransactionRepository
// using SQLite.
type SQLiteTransactionRepository struct {
	conn database.Connection
}

// NewSQLiteTransactionRepository creates a new SQLite transaction repository.
func NewSQLiteTransactionRepository(conn database.Connection) *SQLiteTransactionRepository {
	return &SQLiteTransactionRepository{conn: conn}
}

// Save inserts a new transaction.
func (r *SQLiteTransactionRepository) Save(ctx context.Context, tx *domain.Transaction) error {
	query := `
		INSERT INTO transactions (` + sqliteTransactionColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	_, err := exec.Exec(ctx, query,
		tx.ID().String(),
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
		formatTimePtr(tx.CompletedAt()),
		formatTime(tx.CreatedAt()),
		formatTime(tx.UpdatedAt()),
	)
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// Update persists a status transition. The status predicate makes the
// pending-to-completed transition a compare-and-set: when two confirms
// race, the loser's UPDATE matches no row and its unit of work rolls back.
func (r *SQLiteTransactionRepository) Update(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET status = ?, payment_reference = ?, invoice_sent = ?,
		    invoice_url = ?, completed_at = ?, updated_at = ?
		WHERE id = ? AND status != 'completed'
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		string(tx.Status()),
		nilIfEmpty(tx.PaymentReference()),
		tx.InvoiceSent(),
		nilIfEmpty(tx.InvoiceURL()),
		formatTimePtr(tx.CompletedAt()),
		formatTime(tx.UpdatedAt()),
		tx.ID().String(),
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
func (r *SQLiteTransactionRepository) updateMissReason(ctx context.Context, id uuid.UUID) error {
	exec := database.ExecutorFromContext(ctx, r.conn)

	var status string
	err := exec.QueryRow(ctx, `SELECT status FROM transactions WHERE id = ?`, id.String()).Scan(&status)
	if err != nil {
		if database.IsNoRows(err) {
			return domain.ErrTransactionNotFound
		}
		return fmt.Errorf("failed to inspect transaction status: %w", err)
	}
	return domain.ErrTransactionCompleted
}

// MarkInvoiceSent persists the invoice markers of a completed transaction.
func (r *SQLiteTransactionRepository) MarkInvoiceSent(ctx context.Context, tx *domain.Transaction) error {
	query := `
		UPDATE transactions
		SET invoice_sent = ?, invoice_url = ?, updated_at = ?
		WHERE id = ?
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	result, err := exec.Exec(ctx, query,
		tx.InvoiceSent(),
		nilIfEmpty(tx.InvoiceURL()),
		formatTime(tx.UpdatedAt()),
		tx.ID().String(),
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
func (r *SQLiteTransactionRepository) FindByIDAndEmail(ctx context.Context, id uuid.UUID, email sharedDomain.Email) (*domain.Transaction, error) {
	query := `
		SELECT ` + sqliteTransactionColumns + `
		FROM transactions
		WHERE id = ? AND user_email = ?
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	tx, err := scanSQLiteTransaction(exec.QueryRow(ctx, query, id.String(), email.String()))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return tx, nil
}

// ListByEmail returns an account's transactions, newest first.
func (r *SQLiteTransactionRepository) ListByEmail(ctx context.Context, email sharedDomain.Email) ([]*domain.Transaction, error) {
	query := `
		SELECT ` + sqliteTransactionColumns + `
		FROM transactions
		WHERE user_email = ?
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
		tx, err := scanSQLiteTransaction(rows)
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

func scanSQLiteTransaction(row database.Row) (*domain.Transaction, error) {
	var (
		idStr            string
		userEmail        string
		txType           string
		planName         sql.NullString
		billingCycle     sql.NullString
		creditsPurchased int64
		amount           int64
		currency         string
		status           string
		paymentReference sql.NullString
		invoiceSent      bool
		invoiceURL       sql.NullString
		completedAtStr   sql.NullString
		createdAtStr     string
		updatedAtStr     string
	)

	err := row.Scan(
		&idStr, &userEmail, &txType, &planName, &billingCycle,
		&creditsPurchased, &amount, &currency, &status, &paymentReference,
		&invoiceSent, &invoiceURL, &completedAtStr, &createdAtStr, &updatedAtStr,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid id in transactions row: %w", err)
	}
	email, err := sharedDomain.NewEmail(userEmail)
	if err != nil {
		return nil, fmt.Errorf("invalid email in transactions row: %w", err)
	}
	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}
	updatedAt, err := parseTime(updatedAtStr)
	if err != nil {
		return nil, err
	}
	completedAt, err := parseTimePtr(completedAtStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateTransaction(
		sharedDomain.RehydrateBaseEntity(id, createdAt, updatedAt),
		email,
		domain.TransactionType(txType),
		planName.String,
		domain.BillingCycle(billingCycle.String),
		creditsPurchased,
		amount,
		currency,
		domain.TransactionStatus(status),
		paymentReference.String,
		invoiceSent,
		invoiceURL.String,
		completedAt,
	), nil
}
