package commands

import (
	"context"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
	"github.com/nexthire/billing/internal/shared/infrastructure/outbox"
)

// CreditsPackageInput identifies the credit bundle being bought.
type CreditsPackageInput struct {
	Credits      int64
	BonusCredits int64
}

// InitiatePaymentCommand contains the data needed to start a payment.
type InitiatePaymentCommand struct {
	UserEmail       string
	TransactionType string
	PlanName        string
	BillingCycle    string
	CreditsPackage  *CreditsPackageInput
	Amount          int64
}

// InitiatePaymentResult contains the result of starting a payment.
type InitiatePaymentResult struct {
	TransactionID uuid.UUID
	Amount        int64
	UPIString     string
}

// UPIConfig carries the payee identity encoded into payment strings.
type UPIConfig struct {
	PayeeAddress string
	PayeeName    string
}

// InitiatePaymentHandler handles the InitiatePaymentCommand.
type InitiatePaymentHandler struct {
	txRepo      domain.TransactionRepository
	accountRepo domain.AccountRepository
	catalogRepo domain.CatalogRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
	upi         UPIConfig
}

var _ sharedApplication.CommandHandler[InitiatePaymentCommand, *InitiatePaymentResult] = (*InitiatePaymentHandler)(nil)

// NewInitiatePaymentHandler creates a new InitiatePaymentHandler.
func NewInitiatePaymentHandler(
	txRepo domain.TransactionRepository,
	accountRepo domain.AccountRepository,
	catalogRepo domain.CatalogRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	upi UPIConfig,
) *InitiatePaymentHandler {
	return &InitiatePaymentHandler{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		catalogRepo: catalogRepo,
		outboxRepo:  outboxRepo,
		uow:         uow,
		upi:         upi,
	}
}

// Handle executes the InitiatePaymentCommand.
func (h *InitiatePaymentHandler) Handle(ctx context.Context, cmd InitiatePaymentCommand) (*InitiatePaymentResult, error) {
	email, err := sharedDomain.NewEmail(cmd.UserEmail)
	if err != nil {
		return nil, domain.NewValidationError("userEmail", "a valid email address is required")
	}

	txType := domain.TransactionType(cmd.TransactionType)
	if !txType.IsValid() {
		return nil, domain.NewValidationError("transactionType", "must be subscription or credits")
	}
	if cmd.Amount <= 0 {
		return nil, domain.NewValidationError("amount", "must be positive")
	}

	creditsPurchased, err := h.resolveCredits(ctx, txType, cmd)
	if err != nil {
		return nil, err
	}

	var result *InitiatePaymentResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		// An account exists for every email that ever initiated a payment,
		// so confirmation never has to create one.
		if _, err := h.accountRepo.FindByEmail(txCtx, email); err != nil {
			if err != domain.ErrAccountNotFound {
				return err
			}
			account, err := domain.NewAccount(email)
			if err != nil {
				return err
			}
			if err := h.accountRepo.Save(txCtx, account); err != nil {
				return err
			}
		}

		tx, err := domain.NewTransaction(email, txType, cmd.PlanName, domain.BillingCycle(cmd.BillingCycle), creditsPurchased, cmd.Amount)
		if err != nil {
			return err
		}

		if err := h.txRepo.Save(txCtx, tx); err != nil {
			return err
		}

		events := tx.DomainEvents()
		sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(email.String()))

		msgs := make([]*outbox.Message, 0, len(events))
		for _, event := range events {
			msg, err := outbox.NewMessage(event)
			if err != nil {
				return err
			}
			msgs = append(msgs, msg)
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}

		result = &InitiatePaymentResult{
			TransactionID: tx.ID(),
			Amount:        tx.Amount(),
			UPIString:     domain.NewUPIString(h.upi.PayeeAddress, h.upi.PayeeName, tx.Amount(), tx.ID()).String(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// resolveCredits determines the credit grant for the transaction from the
// catalog: the plan's monthly allowance for subscriptions, the package
// credits plus bonus for credit purchases.
func (h *InitiatePaymentHandler) resolveCredits(ctx context.Context, txType domain.TransactionType, cmd InitiatePaymentCommand) (int64, error) {
	switch txType {
	case domain.TransactionTypeSubscription:
		if cmd.PlanName == "" {
			return 0, domain.NewValidationError("planName", "required for subscription payments")
		}
		if !domain.BillingCycle(cmd.BillingCycle).IsValid() {
			return 0, domain.NewValidationError("billingCycle", "must be monthly or yearly")
		}
		plan, err := h.catalogRepo.FindPlanByName(ctx, cmd.PlanName)
		if err != nil {
			if database.IsNoRows(err) || err == domain.ErrPlanNotFound {
				return 0, domain.NewValidationError("planName", "unknown subscription plan")
			}
			return 0, err
		}
		return plan.CreditsPerMonth(), nil

	case domain.TransactionTypeCredits:
		if cmd.CreditsPackage == nil || cmd.CreditsPackage.Credits <= 0 {
			return 0, domain.NewValidationError("creditsPackage", "required for credit purchases")
		}
		pkg, err := h.catalogRepo.FindCreditPackageByCredits(ctx, cmd.CreditsPackage.Credits)
		if err != nil {
			if database.IsNoRows(err) || err == domain.ErrCreditPackageNotFound {
				return 0, domain.NewValidationError("creditsPackage", "unknown credit package")
			}
			return 0, err
		}
		return pkg.TotalCredits(), nil
	}

	return 0, domain.NewValidationError("transactionType", "must be subscription or credits")
}
