package domain

import (
	"fmt"

	"github.com/google/uuid"

	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// UPIString is the deep-link payment string returned on initiate. It is a
// display encoding for the client's UPI app; the service never verifies the
// payment against it.
type UPIString struct {
	value string
}

// NewUPIString builds the payment string for a pending transaction.
// Payee address and name come from configuration.
func NewUPIString(payeeAddress, payeeName string, amount int64, transactionID uuid.UUID) UPIString {
	return UPIString{
		value: fmt.Sprintf("upi://pay?pa=%s&pn=%s&am=%d&cu=%s&tn=Payment-%s",
			payeeAddress, payeeName, amount, DefaultCurrency, transactionID),
	}
}

// String returns the encoded payment string.
func (u UPIString) String() string {
	return u.value
}

// Equals checks if two payment strings are equal.
func (u UPIString) Equals(other sharedDomain.ValueObject) bool {
	if o, ok := other.(UPIString); ok {
		return u.value == o.value
	}
	return false
}
