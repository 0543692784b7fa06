package commands

import (
	"context"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/pkg/observability"
)

// GrantCreditsCommand adds credits to an account outside the payment flow.
type GrantCreditsCommand struct {
	UserEmail string
	Credits   int64
	Reason    string
}

// GrantCreditsResult contains the result of granting credits.
type GrantCreditsResult struct {
	NewBalance int64
}

// GrantCreditsHandler handles the GrantCreditsCommand.
type GrantCreditsHandler struct {
	accountRepo domain.AccountRepository
	historyRepo domain.CreditHistoryRepository
	uow         sharedApplication.UnitOfWork
	metrics     observability.Metrics
}

var _ sharedApplication.CommandHandler[GrantCreditsCommand, *GrantCreditsResult] = (*GrantCreditsHandler)(nil)

// NewGrantCreditsHandler creates a new GrantCreditsHandler.
func NewGrantCreditsHandler(
	accountRepo domain.AccountRepository,
	historyRepo domain.CreditHistoryRepository,
	uow sharedApplication.UnitOfWork,
) *GrantCreditsHandler {
	return &GrantCreditsHandler{
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		uow:         uow,
		metrics:     observability.NoopMetrics{},
	}
}

// WithMetrics sets the metrics sink used for grant counters.
func (h *GrantCreditsHandler) WithMetrics(m observability.Metrics) *GrantCreditsHandler {
	if m != nil {
		h.metrics = m
	}
	return h
}

// Handle executes the GrantCreditsCommand.
func (h *GrantCreditsHandler) Handle(ctx context.Context, cmd GrantCreditsCommand) (*GrantCreditsResult, error) {
	email, err := sharedDomain.NewEmail(cmd.UserEmail)
	if err != nil {
		return nil, domain.NewValidationError("userEmail", "a valid email address is required")
	}
	if cmd.Credits <= 0 {
		return nil, domain.NewValidationError("credits", "must be positive")
	}
	reason := cmd.Reason
	if reason == "" {
		reason = "Manual grant"
	}

	var result *GrantCreditsResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		account, err := h.accountRepo.FindByEmail(txCtx, email)
		if err != nil {
			return err
		}

		creditsBefore := account.Credits()
		if err := account.GrantCredits(cmd.Credits); err != nil {
			return err
		}

		entry, err := domain.NewCreditHistoryEntry(
			email,
			domain.CreditActionGranted,
			cmd.Credits,
			creditsBefore,
			account.Credits(),
			reason,
			nil,
		)
		if err != nil {
			return err
		}

		if err := h.accountRepo.Update(txCtx, account); err != nil {
			return err
		}
		if err := h.historyRepo.Save(txCtx, entry); err != nil {
			return err
		}

		result = &GrantCreditsResult{NewBalance: account.Credits()}
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.metrics.Counter("billing.credits.granted", cmd.Credits)
	return result, nil
}
