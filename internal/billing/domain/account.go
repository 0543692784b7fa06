package domain

import (
	"time"

	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// SubscriptionStatus is the state of an account's subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusFree    SubscriptionStatus = "free"
	SubscriptionStatusActive  SubscriptionStatus = "active"
	SubscriptionStatusExpired SubscriptionStatus = "expired"
)

// Account holds an account's credit balance and subscription window.
type Account struct {
	sharedDomain.BaseAggregateRoot
	email                 sharedDomain.Email
	credits               int64
	subscriptionPlan      string
	subscriptionStatus    SubscriptionStatus
	subscriptionStart     *time.Time
	subscriptionEnd       *time.Time
	totalCreditsPurchased int64
}

// NewAccount creates an account on the free tier with no credits.
func NewAccount(email sharedDomain.Email) (*Account, error) {
	if email.IsEmpty() {
		return nil, NewValidationError("email", "email is required")
	}
	return &Account{
		BaseAggregateRoot:  sharedDomain.NewBaseAggregateRoot(),
		email:              email,
		subscriptionPlan:   "free",
		subscriptionStatus: SubscriptionStatusFree,
	}, nil
}

// RehydrateAccount recreates an account from persisted state.
func RehydrateAccount(
	entity sharedDomain.BaseEntity,
	email sharedDomain.Email,
	credits int64,
	plan string,
	status SubscriptionStatus,
	start, end *time.Time,
	totalCreditsPurchased int64,
) *Account {
	return &Account{
		BaseAggregateRoot:     sharedDomain.RehydrateBaseAggregateRoot(entity),
		email:                 email,
		credits:               credits,
		subscriptionPlan:      plan,
		subscriptionStatus:    status,
		subscriptionStart:     start,
		subscriptionEnd:       end,
		totalCreditsPurchased: totalCreditsPurchased,
	}
}

// Getters
func (a *Account) Email() sharedDomain.Email              { return a.email }
func (a *Account) Credits() int64                         { return a.credits }
func (a *Account) SubscriptionPlan() string               { return a.subscriptionPlan }
func (a *Account) SubscriptionStatus() SubscriptionStatus { return a.subscriptionStatus }
func (a *Account) SubscriptionStart() *time.Time          { return a.subscriptionStart }
func (a *Account) SubscriptionEnd() *time.Time            { return a.subscriptionEnd }
func (a *Account) TotalCreditsPurchased() int64           { return a.totalCreditsPurchased }

// ApplyPurchase credits the account for a completed transaction. A
// subscription purchase also activates the plan for one calendar month or
// year from now depending on the billing cycle.
func (a *Account) ApplyPurchase(tx *Transaction, now time.Time) error {
	if !tx.IsCompleted() {
		return NewValidationError("transaction", "cannot apply a pending transaction")
	}

	a.credits += tx.CreditsPurchased()
	a.totalCreditsPurchased += tx.CreditsPurchased()

	if tx.Type() == TransactionTypeSubscription {
		start := now.UTC()
		var end time.Time
		if tx.BillingCycle() == BillingCycleYearly {
			end = start.AddDate(1, 0, 0)
		} else {
			end = start.AddDate(0, 1, 0)
		}
		a.subscriptionPlan = tx.PlanName()
		a.subscriptionStatus = SubscriptionStatusActive
		a.subscriptionStart = &start
		a.subscriptionEnd = &end
	}

	a.Touch()

	return nil
}

// GrantCredits adds credits outside the payment flow, e.g. an admin grant.
func (a *Account) GrantCredits(credits int64) error {
	if credits <= 0 {
		return NewValidationError("credits", "must be positive")
	}
	a.credits += credits
	a.Touch()
	return nil
}

// CreditWarningLevel summarizes how close the balance is to running out.
type CreditWarningLevel string

const (
	CreditWarningNone  CreditWarningLevel = "ok"
	CreditWarningLow   CreditWarningLevel = "low"
	CreditWarningEmpty CreditWarningLevel = "empty"
)

// WarningLevel classifies the balance against a low-credit threshold.
func (a *Account) WarningLevel(lowThreshold int64) CreditWarningLevel {
	switch {
	case a.credits == 0:
		return CreditWarningEmpty
	case a.credits <= lowThreshold:
		return CreditWarningLow
	default:
		return CreditWarningNone
	}
}
