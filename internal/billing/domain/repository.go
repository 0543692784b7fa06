package domain

import (
	"context"

	"github.com/google/uuid"

	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// TransactionRepository persists payment transactions.
type TransactionRepository interface {
	Save(ctx context.Context, tx *Transaction) error
	// Update persists a status transition. It refuses to overwrite a row
	// that is already completed and returns ErrTransactionCompleted, so a
	// confirm that lost a race cannot commit a second credit.
	Update(ctx context.Context, tx *Transaction) error
	// MarkInvoiceSent persists the invoice markers of a completed
	// transaction without touching its status.
	MarkInvoiceSent(ctx context.Context, tx *Transaction) error
	FindByIDAndEmail(ctx context.Context, id uuid.UUID, email sharedDomain.Email) (*Transaction, error)
	ListByEmail(ctx context.Context, email sharedDomain.Email) ([]*Transaction, error)
}

// AccountRepository persists billing accounts.
type AccountRepository interface {
	Save(ctx context.Context, account *Account) error
	Update(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email sharedDomain.Email) (*Account, error)
}

// CatalogRepository reads the seeded plan and credit package catalog.
type CatalogRepository interface {
	ListPlans(ctx context.Context) ([]*Plan, error)
	FindPlanByName(ctx context.Context, name string) (*Plan, error)
	ListCreditPackages(ctx context.Context) ([]*CreditPackage, error)
	FindCreditPackageByCredits(ctx context.Context, credits int64) (*CreditPackage, error)
}

// CreditHistoryRepository persists the append-only credit audit trail.
type CreditHistoryRepository interface {
	Save(ctx context.Context, entry *CreditHistoryEntry) error
	ListByEmail(ctx context.Context, email sharedDomain.Email) ([]*CreditHistoryEntry, error)
}
