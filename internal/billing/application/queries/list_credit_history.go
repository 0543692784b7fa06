package queries

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// CreditHistoryDTO is a data transfer object for credit audit entries.
type CreditHistoryDTO struct {
	ID             uuid.UUID
	Action         string
	CreditsChanged int64
	CreditsBefore  int64
	CreditsAfter   int64
	Reason         string
	TransactionID  *uuid.UUID
	CreatedAt      time.Time
}

// ListCreditHistoryQuery contains the parameters for a credit history lookup.
type ListCreditHistoryQuery struct {
	UserEmail string
}

// ListCreditHistoryHandler handles the ListCreditHistoryQuery.
type ListCreditHistoryHandler struct {
	historyRepo domain.CreditHistoryRepository
}

var _ sharedApplication.QueryHandler[ListCreditHistoryQuery, []CreditHistoryDTO] = (*ListCreditHistoryHandler)(nil)

// NewListCreditHistoryHandler creates a new ListCreditHistoryHandler.
func NewListCreditHistoryHandler(historyRepo domain.CreditHistoryRepository) *ListCreditHistoryHandler {
	return &ListCreditHistoryHandler{historyRepo: historyRepo}
}

// Handle executes the ListCreditHistoryQuery. Entries come back newest first.
func (h *ListCreditHistoryHandler) Handle(ctx context.Context, query ListCreditHistoryQuery) ([]CreditHistoryDTO, error) {
	email, err := sharedDomain.NewEmail(query.UserEmail)
	if err != nil {
		return nil, domain.NewValidationError("email", "a valid email address is required")
	}

	entries, err := h.historyRepo.ListByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	dtos := make([]CreditHistoryDTO, len(entries))
	for i, entry := range entries {
		dtos[i] = CreditHistoryDTO{
			ID:             entry.ID(),
			Action:         string(entry.Action()),
			CreditsChanged: entry.CreditsChanged(),
			CreditsBefore:  entry.CreditsBefore(),
			CreditsAfter:   entry.CreditsAfter(),
			Reason:         entry.Reason(),
			TransactionID:  entry.TransactionID(),
			CreatedAt:      entry.CreatedAt(),
		}
	}
	return dtos, nil
}
