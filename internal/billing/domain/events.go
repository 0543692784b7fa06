package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// AggregateType for billing transaction events.
const TransactionAggregateType = "Transaction"

// Routing keys for billing events.
const (
	PaymentInitiatedRoutingKey = "billing.payment.initiated"
	PaymentCompletedRoutingKey = "billing.payment.completed"
)

// PaymentInitiatedEvent is emitted when a pending transaction is created.
type PaymentInitiatedEvent struct {
	sharedDomain.BaseEvent
	TransactionID    uuid.UUID `json:"transaction_id"`
	UserEmail        string    `json:"user_email"`
	TransactionType  string    `json:"transaction_type"`
	PlanName         string    `json:"plan_name,omitempty"`
	BillingCycle     string    `json:"billing_cycle,omitempty"`
	CreditsPurchased int64     `json:"credits_purchased"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
}

// NewPaymentInitiatedEvent creates a payment initiated event.
func NewPaymentInitiatedEvent(tx *Transaction) *PaymentInitiatedEvent {
	return &PaymentInitiatedEvent{
		BaseEvent:        sharedDomain.NewBaseEvent(tx.ID(), TransactionAggregateType, PaymentInitiatedRoutingKey),
		TransactionID:    tx.ID(),
		UserEmail:        tx.UserEmail().String(),
		TransactionType:  string(tx.Type()),
		PlanName:         tx.PlanName(),
		BillingCycle:     string(tx.BillingCycle()),
		CreditsPurchased: tx.CreditsPurchased(),
		Amount:           tx.Amount(),
		Currency:         tx.Currency(),
	}
}

// PaymentCompletedEvent is emitted when a pending transaction is confirmed.
type PaymentCompletedEvent struct {
	sharedDomain.BaseEvent
	TransactionID    uuid.UUID `json:"transaction_id"`
	UserEmail        string    `json:"user_email"`
	TransactionType  string    `json:"transaction_type"`
	PlanName         string    `json:"plan_name,omitempty"`
	BillingCycle     string    `json:"billing_cycle,omitempty"`
	CreditsPurchased int64     `json:"credits_purchased"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"payment_reference"`
	CompletedAt      time.Time `json:"completed_at"`
}

// NewPaymentCompletedEvent creates a payment completed event.
func NewPaymentCompletedEvent(tx *Transaction) *PaymentCompletedEvent {
	completedAt := time.Now().UTC()
	if tx.CompletedAt() != nil {
		completedAt = *tx.CompletedAt()
	}
	return &PaymentCompletedEvent{
		BaseEvent:        sharedDomain.NewBaseEvent(tx.ID(), TransactionAggregateType, PaymentCompletedRoutingKey),
		TransactionID:    tx.ID(),
		UserEmail:        tx.UserEmail().String(),
		TransactionType:  string(tx.Type()),
		PlanName:         tx.PlanName(),
		BillingCycle:     string(tx.BillingCycle()),
		CreditsPurchased: tx.CreditsPurchased(),
		Amount:           tx.Amount(),
		Currency:         tx.Currency(),
		PaymentReference: tx.PaymentReference(),
		CompletedAt:      completedAt,
	}
}
