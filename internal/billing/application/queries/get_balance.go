package queries

import (
	"context"
	"time"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// BalanceDTO is a data transfer object for an account's balance view.
type BalanceDTO struct {
	Email                 string
	Credits               int64
	SubscriptionPlan      string
	SubscriptionStatus    string
	SubscriptionStart     *time.Time
	SubscriptionEnd       *time.Time
	TotalCreditsPurchased int64
	WarningLevel          string
}

// GetBalanceQuery contains the parameters for a balance lookup.
type GetBalanceQuery struct {
	UserEmail string
}

// GetBalanceHandler handles the GetBalanceQuery.
type GetBalanceHandler struct {
	accountRepo  domain.AccountRepository
	lowThreshold int64
}

var _ sharedApplication.QueryHandler[GetBalanceQuery, *BalanceDTO] = (*GetBalanceHandler)(nil)

// NewGetBalanceHandler creates a new GetBalanceHandler.
func NewGetBalanceHandler(accountRepo domain.AccountRepository, lowThreshold int64) *GetBalanceHandler {
	return &GetBalanceHandler{accountRepo: accountRepo, lowThreshold: lowThreshold}
}

// Handle executes the GetBalanceQuery.
func (h *GetBalanceHandler) Handle(ctx context.Context, query GetBalanceQuery) (*BalanceDTO, error) {
	email, err := sharedDomain.NewEmail(query.UserEmail)
	if err != nil {
		return nil, domain.NewValidationError("email", "a valid email address is required")
	}

	account, err := h.accountRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return &BalanceDTO{
		Email:                 account.Email().String(),
		Credits:               account.Credits(),
		SubscriptionPlan:      account.SubscriptionPlan(),
		SubscriptionStatus:    string(account.SubscriptionStatus()),
		SubscriptionStart:     account.SubscriptionStart(),
		SubscriptionEnd:       account.SubscriptionEnd(),
		TotalCreditsPurchased: account.TotalCreditsPurchased(),
		WarningLevel:          string(account.WarningLevel(h.lowThreshold)),
	}, nil
}
