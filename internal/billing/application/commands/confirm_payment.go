package commands

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/outbox"
)

// ConfirmPaymentCommand contains the data needed to confirm a payment.
type ConfirmPaymentCommand struct {
	TransactionID    uuid.UUID
	UserEmail        string
	PaymentReference string
}

// ConfirmPaymentResult contains the result of confirming a payment.
type ConfirmPaymentResult struct {
	CreditsAdded int64
	NewBalance   int64
}

// ConfirmPaymentHandler handles the ConfirmPaymentCommand. The status
// change, the account credit, the audit entry and the completion event
// all commit in one transaction or not at all.
type ConfirmPaymentHandler struct {
	txRepo      domain.TransactionRepository
	accountRepo domain.AccountRepository
	historyRepo domain.CreditHistoryRepository
	outboxRepo  outbox.Repository
	uow         sharedApplication.UnitOfWork
}

var _ sharedApplication.CommandHandler[ConfirmPaymentCommand, *ConfirmPaymentResult] = (*ConfirmPaymentHandler)(nil)

// NewConfirmPaymentHandler creates a new ConfirmPaymentHandler.
func NewConfirmPaymentHandler(
	txRepo domain.TransactionRepository,
	accountRepo domain.AccountRepository,
	historyRepo domain.CreditHistoryRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *ConfirmPaymentHandler {
	return &ConfirmPaymentHandler{
		txRepo:      txRepo,
		accountRepo: accountRepo,
		historyRepo: historyRepo,
		outboxRepo:  outboxRepo,
		uow:         uow,
	}
}

// Handle executes the ConfirmPaymentCommand.
func (h *ConfirmPaymentHandler) Handle(ctx context.Context, cmd ConfirmPaymentCommand) (*ConfirmPaymentResult, error) {
	if cmd.TransactionID == uuid.Nil {
		return nil, domain.NewValidationError("transactionId", "transaction id is required")
	}
	email, err := sharedDomain.NewEmail(cmd.UserEmail)
	if err != nil {
		return nil, domain.NewValidationError("userEmail", "a valid email address is required")
	}

	var result *ConfirmPaymentResult

	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		tx, err := h.txRepo.FindByIDAndEmail(txCtx, cmd.TransactionID, email)
		if err != nil {
			return err
		}

		if err := tx.Complete(cmd.PaymentReference, time.Now()); err != nil {
			return err
		}

		account, err := h.accountRepo.FindByEmail(txCtx, email)
		if err != nil {
			return err
		}

		creditsBefore := account.Credits()
		if err := account.ApplyPurchase(tx, time.Now()); err != nil {
			return err
		}

		txID := tx.ID()
		entry, err := domain.NewCreditHistoryEntry(
			email,
			domain.CreditActionAdded,
			tx.CreditsPurchased(),
			creditsBefore,
			account.Credits(),
			tx.CreditReason(),
			&txID,
		)
		if err != nil {
			return err
		}

		if err := h.txRepo.Update(txCtx, tx); err != nil {
			return err
		}
		if err := h.accountRepo.Update(txCtx, account); err != nil {
			return err
		}
		if err := h.historyRepo.Save(txCtx, entry); err != nil {
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

		result = &ConfirmPaymentResult{
			CreditsAdded: tx.CreditsPurchased(),
			NewBalance:   account.Credits(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
