package domain

import (
	"fmt"
	"strings"
	"time"

	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// TransactionType classifies what a payment buys.
type TransactionType string

const (
	TransactionTypeSubscription TransactionType = "subscription"
	TransactionTypeCredits      TransactionType = "credits"
)

// IsValid checks if the transaction type is valid.
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeSubscription || t == TransactionTypeCredits
}

// BillingCycle is the subscription renewal cadence.
type BillingCycle string

const (
	BillingCycleNone    BillingCycle = ""
	BillingCycleMonthly BillingCycle = "monthly"
	BillingCycleYearly  BillingCycle = "yearly"
)

// IsValid checks if the billing cycle is valid for a subscription.
func (c BillingCycle) IsValid() bool {
	return c == BillingCycleMonthly || c == BillingCycleYearly
}

// TransactionStatus is the payment lifecycle state.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// DefaultCurrency is the only currency the service bills in.
const DefaultCurrency = "INR"

// Transaction is a payment from initiation through confirmation.
type Transaction struct {
	sharedDomain.BaseAggregateRoot
	userEmail        sharedDomain.Email
	transactionType  TransactionType
	planName         string
	billingCycle     BillingCycle
	creditsPurchased int64
	amount           int64
	currency         string
	status           TransactionStatus
	paymentReference string
	invoiceSent      bool
	invoiceURL       string
	completedAt      *time.Time
}

// NewTransaction creates a pending transaction and records a payment
// initiated event.
func NewTransaction(userEmail sharedDomain.Email, txType TransactionType, planName string, cycle BillingCycle, creditsPurchased, amount int64) (*Transaction, error) {
	if userEmail.IsEmpty() {
		return nil, NewValidationError("userEmail", "user email is required")
	}
	if !txType.IsValid() {
		return nil, NewValidationError("transactionType", "must be subscription or credits")
	}
	if amount <= 0 {
		return nil, NewValidationError("amount", "must be positive")
	}
	if creditsPurchased < 0 {
		return nil, NewValidationError("creditsPackage", "credits cannot be negative")
	}
	if txType == TransactionTypeSubscription {
		if planName == "" {
			return nil, NewValidationError("planName", "required for subscription payments")
		}
		if !cycle.IsValid() {
			return nil, NewValidationError("billingCycle", "must be monthly or yearly")
		}
	} else {
		planName = ""
		cycle = BillingCycleNone
	}

	tx := &Transaction{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(),
		userEmail:         userEmail,
		transactionType:   txType,
		planName:          planName,
		billingCycle:      cycle,
		creditsPurchased:  creditsPurchased,
		amount:            amount,
		currency:          DefaultCurrency,
		status:            TransactionStatusPending,
	}

	tx.AddDomainEvent(NewPaymentInitiatedEvent(tx))

	return tx, nil
}

// RehydrateTransaction recreates a transaction from persisted state.
func RehydrateTransaction(
	entity sharedDomain.BaseEntity,
	userEmail sharedDomain.Email,
	txType TransactionType,
	planName string,
	cycle BillingCycle,
	creditsPurchased, amount int64,
	currency string,
	status TransactionStatus,
	paymentReference string,
	invoiceSent bool,
	invoiceURL string,
	completedAt *time.Time,
) *Transaction {
	return &Transaction{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(entity),
		userEmail:         userEmail,
		transactionType:   txType,
		planName:          planName,
		billingCycle:      cycle,
		creditsPurchased:  creditsPurchased,
		amount:            amount,
		currency:          currency,
		status:            status,
		paymentReference:  paymentReference,
		invoiceSent:       invoiceSent,
		invoiceURL:        invoiceURL,
		completedAt:       completedAt,
	}
}

// Getters
func (t *Transaction) UserEmail() sharedDomain.Email { return t.userEmail }
func (t *Transaction) Type() TransactionType         { return t.transactionType }
func (t *Transaction) PlanName() string              { return t.planName }
func (t *Transaction) BillingCycle() BillingCycle    { return t.billingCycle }
func (t *Transaction) CreditsPurchased() int64       { return t.creditsPurchased }
func (t *Transaction) Amount() int64                 { return t.amount }
func (t *Transaction) Currency() string              { return t.currency }
func (t *Transaction) Status() TransactionStatus     { return t.status }
func (t *Transaction) PaymentReference() string      { return t.paymentReference }
func (t *Transaction) InvoiceSent() bool             { return t.invoiceSent }
func (t *Transaction) InvoiceURL() string            { return t.invoiceURL }
func (t *Transaction) CompletedAt() *time.Time       { return t.completedAt }

// IsCompleted reports whether the payment has been confirmed.
func (t *Transaction) IsCompleted() bool {
	return t.status == TransactionStatusCompleted
}

// Complete confirms the payment at most once. A missing reference gets a
// generated REF-<unix millis> fallback.
func (t *Transaction) Complete(paymentReference string, now time.Time) error {
	if t.status == TransactionStatusCompleted {
		return ErrTransactionCompleted
	}
	if strings.TrimSpace(paymentReference) == "" {
		paymentReference = fmt.Sprintf("REF-%d", now.UnixMilli())
	}

	completedAt := now.UTC()
	t.status = TransactionStatusCompleted
	t.paymentReference = paymentReference
	t.completedAt = &completedAt
	t.Touch()

	t.AddDomainEvent(NewPaymentCompletedEvent(t))

	return nil
}

// MarkInvoiceSent records that an invoice was issued for this transaction.
func (t *Transaction) MarkInvoiceSent(invoiceURL string) {
	t.invoiceSent = true
	t.invoiceURL = invoiceURL
	t.Touch()
}

// CreditReason describes the credit grant in the audit trail.
func (t *Transaction) CreditReason() string {
	if t.transactionType == TransactionTypeSubscription {
		return fmt.Sprintf("Subscription: %s", t.planName)
	}
	return "Credit purchase"
}
