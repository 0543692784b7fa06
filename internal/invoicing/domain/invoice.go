package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Invoice is the document issued for a completed payment.
type Invoice struct {
	InvoiceNumber    string    `json:"invoiceNumber"`
	TransactionID    uuid.UUID `json:"transactionId"`
	UserEmail        string    `json:"userEmail"`
	TransactionType  string    `json:"transactionType"`
	PlanName         string    `json:"planName,omitempty"`
	CreditsPurchased int64     `json:"creditsPurchased"`
	Amount           int64     `json:"amount"`
	Currency         string    `json:"currency"`
	PaymentReference string    `json:"paymentReference"`
	IssuedAt         time.Time `json:"issuedAt"`
}

// InvoiceNumberFor derives the invoice number from the transaction id.
func InvoiceNumberFor(transactionID uuid.UUID) string {
	return "INV-" + strings.ToUpper(transactionID.String()[:8])
}

// URL is the stable reference stored on the transaction once the invoice
// has been issued.
func (i Invoice) URL() string {
	return fmt.Sprintf("invoice://%s", i.InvoiceNumber)
}
