package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// TransactionDTO is a data transfer object for payment transactions.
type TransactionDTO struct {
	ID               uuid.UUID
	TransactionType  string
	PlanName         string
	BillingCycle     string
	CreditsPurchased int64
	Amount           int64
	Currency         string
	Status           string
	PaymentReference string
	InvoiceSent      bool
	InvoiceURL       string
	CompletedAt      *time.Time
	CreatedAt        time.Time
}

// ListPaymentHistoryQuery contains the parameters for a payment history lookup.
type ListPaymentHistoryQuery struct {
	UserEmail string
}

// ListPaymentHistoryHandler handles the ListPaymentHistoryQuery.
type ListPaymentHistoryHandler struct {
	txRepo domain.TransactionRepository
}

var _ sharedApplication.QueryHandler[ListPaymentHistoryQuery, []TransactionDTO] = (*ListPaymentHistoryHandler)(nil)

// NewListPaymentHistoryHandler creates a new ListPaymentHistoryHandler.
func NewListPaymentHistoryHandler(txRepo domain.TransactionRepository) *ListPaymentHistoryHandler {
	return &ListPaymentHistoryHandler{txRepo: txRepo}
}

// Handle executes the ListPaymentHistoryQuery. Transactions come back
// newest first.
func (h *ListPaymentHistoryHandler) Handle(ctx context.Context, query ListPaymentHistoryQuery) ([]TransactionDTO, error) {
	email, err := sharedDomain.NewEmail(query.UserEmail)
	if err != nil {
		return nil, domain.NewValidationError("email", "a valid email address is required")
	}

	transactions, err := h.txRepo.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	dtos := make([]TransactionDTO, len(transactions))
	for i, tx := range transactions {
		dtos[i] = TransactionDTO{
			ID:               tx.ID(),
			TransactionType:  string(tx.Type()),
			PlanName:         tx.PlanName(),
			BillingCycle:     string(tx.BillingCycle()),
			CreditsPurchased: tx.CreditsPurchased(),
			Amount:           tx.Amount(),
			Currency:         tx.Currency(),
			Status:           string(tx.Status()),
			PaymentReference: tx.PaymentReference(),
			InvoiceSent:      tx.InvoiceSent(),
			InvoiceURL:       tx.InvoiceURL(),
			CompletedAt:      tx.CompletedAt(),
			CreatedAt:        tx.CreatedAt(),
		}
	}
	return dtos, nil
}
