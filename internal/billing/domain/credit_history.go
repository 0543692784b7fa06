package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// CreditAction describes how a credit history entry changed the balance.
type CreditAction string

const (
	CreditActionAdded   CreditAction = "added"
	CreditActionGranted CreditAction = "granted"
)

// CreditHistoryEntry is an append-only audit record of a balance change.
type CreditHistoryEntry struct {
	sharedDomain.BaseEntity
	userEmail      sharedDomain.Email
	action         CreditAction
	creditsChanged int64
	creditsBefore  int64
	creditsAfter   int64
	reason         string
	transactionID  *uuid.UUID
}

// NewCreditHistoryEntry records a balance change for an account.
func NewCreditHistoryEntry(userEmail sharedDomain.Email, action CreditAction, creditsChanged, creditsBefore, creditsAfter int64, reason string, transactionID *uuid.UUID) (*CreditHistoryEntry, error) {
	if userEmail.IsEmpty() {
		return nil, NewValidationError("userEmail", "user email is required")
	}
	if creditsBefore+creditsChanged != creditsAfter {
		return nil, NewValidationError("creditsAfter", "balance arithmetic does not add up")
	}
	return &CreditHistoryEntry{
		BaseEntity:     sharedDomain.NewBaseEntity(),
		userEmail:      userEmail,
		action:         action,
		creditsChanged: creditsChanged,
		creditsBefore:  creditsBefore,
		creditsAfter:   creditsAfter,
		reason:         reason,
		transactionID:  transactionID,
	}, nil
}

// RehydrateCreditHistoryEntry recreates an entry from persisted state.
func RehydrateCreditHistoryEntry(entity sharedDomain.BaseEntity, userEmail sharedDomain.Email, action CreditAction, creditsChanged, creditsBefore, creditsAfter int64, reason string, transactionID *uuid.UUID) *CreditHistoryEntry {
	return &CreditHistoryEntry{
		BaseEntity:     entity,
		userEmail:      userEmail,
		action:         action,
		creditsChanged: creditsChanged,
		creditsBefore:  creditsBefore,
		creditsAfter:   creditsAfter,
		reason:         reason,
		transactionID:  transactionID,
	}
}

func (e *CreditHistoryEntry) UserEmail() sharedDomain.Email { return e.userEmail }
func (e *CreditHistoryEntry) Action() CreditAction          { return e.action }
func (e *CreditHistoryEntry) CreditsChanged() int64         { return e.creditsChanged }
func (e *CreditHistoryEntry) CreditsBefore() int64          { return e.creditsBefore }
func (e *CreditHistoryEntry) CreditsAfter() int64           { return e.creditsAfter }
func (e *CreditHistoryEntry) Reason() string                { return e.reason }
func (e *CreditHistoryEntry) TransactionID() *uuid.UUID     { return e.transactionID }
