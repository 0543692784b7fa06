package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/application/commands"
	"github.com/nexthire/billing/internal/billing/application/queries"
	"github.com/nexthire/billing/internal/billing/domain"
	"github.com/nexthire/billing/pkg/observability"
)

// BillingHandler handles billing API requests.
type BillingHandler struct {
	initiatePayment    *commands.InitiatePaymentHandler
	confirmPayment     *commands.ConfirmPaymentHandler
	listPlans          *queries.ListPlansHandler
	listCreditPackages *queries.ListCreditPackagesHandler
	getBalance         *queries.GetBalanceHandler
	listTransactions   *queries.ListPaymentHistoryHandler
	listCreditHistory  *queries.ListCreditHistoryHandler
	metrics            observability.Metrics
	logger             *slog.Logger
}

// BillingHandlerConfig holds dependencies for the billing handler.
type BillingHandlerConfig struct {
	InitiatePayment    *commands.InitiatePaymentHandler
	ConfirmPayment     *commands.ConfirmPaymentHandler
	ListPlans          *queries.ListPlansHandler
	ListCreditPackages *queries.ListCreditPackagesHandler
	GetBalance         *queries.GetBalanceHandler
	ListTransactions   *queries.ListPaymentHistoryHandler
	ListCreditHistory  *queries.ListCreditHistoryHandler
	Metrics            observability.Metrics
	Logger             *slog.Logger
}

// NewBillingHandler creates a new billing handler.
func NewBillingHandler(cfg BillingHandlerConfig) *BillingHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observability.NoopMetrics{}
	}
	return &BillingHandler{
		initiatePayment:    cfg.InitiatePayment,
		confirmPayment:     cfg.ConfirmPayment,
		listPlans:          cfg.ListPlans,
		listCreditPackages: cfg.ListCreditPackages,
		getBalance:         cfg.GetBalance,
		listTransactions:   cfg.ListTransactions,
		listCreditHistory:  cfg.ListCreditHistory,
		metrics:            cfg.Metrics,
		logger:             cfg.Logger,
	}
}

type creditsPackageRequest struct {
	Credits      int64 `json:"credits"`
	BonusCredits int64 `json:"bonusCredits"`
}

type initiatePaymentRequest struct {
	UserEmail       string                 `json:"userEmail"`
	TransactionType string                 `json:"transactionType"`
	PlanName        string                 `json:"planName"`
	BillingCycle    string                 `json:"billingCycle"`
	CreditsPackage  *creditsPackageRequest `json:"creditsPackage"`
	Amount          int64                  `json:"amount"`
}

type initiatePaymentResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transactionId"`
	Amount        int64  `json:"amount"`
	UPIString     string `json:"upiString"`
}

// InitiatePayment handles POST /api/v1/payments/initiate
func (h *BillingHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req initiatePaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	cmd := commands.InitiatePaymentCommand{
		UserEmail:       req.UserEmail,
		TransactionType: req.TransactionType,
		PlanName:        req.PlanName,
		BillingCycle:    req.BillingCycle,
		Amount:          req.Amount,
	}
	if req.CreditsPackage != nil {
		cmd.CreditsPackage = &commands.CreditsPackageInput{
			Credits:      req.CreditsPackage.Credits,
			BonusCredits: req.CreditsPackage.BonusCredits,
		}
	}

	result, err := h.initiatePayment.Handle(r.Context(), cmd)
	if err != nil {
		h.writeDomainError(w, err, "Failed to initiate payment")
		return
	}

	h.metrics.Counter("billing.payments.initiated", 1, observability.T("type", req.TransactionType))

	writeJSON(w, http.StatusOK, initiatePaymentResponse{
		Success:       true,
		TransactionID: result.TransactionID.String(),
		Amount:        result.Amount,
		UPIString:     result.UPIString,
	})
}

type confirmPaymentRequest struct {
	TransactionID    string `json:"transactionId"`
	UserEmail        string `json:"userEmail"`
	PaymentReference string `json:"paymentReference"`
}

type confirmPaymentResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	CreditsAdded int64  `json:"creditsAdded"`
	NewBalance   int64  `json:"newBalance"`
}

// ConfirmPayment handles POST /api/v1/payments/confirm
func (h *BillingHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	txID, err := uuid.Parse(req.TransactionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "transactionId must be a valid UUID")
		return
	}

	result, err := h.confirmPayment.Handle(r.Context(), commands.ConfirmPaymentCommand{
		TransactionID:    txID,
		UserEmail:        req.UserEmail,
		PaymentReference: req.PaymentReference,
	})
	if err != nil {
		h.writeDomainError(w, err, "Failed to confirm payment")
		return
	}

	h.metrics.Counter("billing.payments.completed", 1)
	h.metrics.Counter("billing.credits.added", result.CreditsAdded)

	writeJSON(w, http.StatusOK, confirmPaymentResponse{
		Success:      true,
		Message:      "Payment confirmed successfully",
		CreditsAdded: result.CreditsAdded,
		NewBalance:   result.NewBalance,
	})
}

type planResponse struct {
	Name            string   `json:"name"`
	DisplayName     string   `json:"displayName"`
	PriceMonthly    int64    `json:"priceMonthly"`
	PriceYearly     int64    `json:"priceYearly"`
	CreditsPerMonth int64    `json:"creditsPerMonth"`
	Features        []string `json:"features"`
	Active          bool     `json:"active"`
}

// ListPlans handles GET /api/v1/plans
func (h *BillingHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.listPlans.Handle(r.Context())
	if err != nil {
		h.logger.Error("failed to list plans", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list plans")
		return
	}

	dtos := make([]planResponse, len(plans))
	for i, p := range plans {
		dtos[i] = planResponse{
			Name:            p.Name,
			DisplayName:     p.DisplayName,
			PriceMonthly:    p.PriceMonthly,
			PriceYearly:     p.PriceYearly,
			CreditsPerMonth: p.CreditsPerMonth,
			Features:        p.Features,
			Active:          p.Active,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"plans": dtos,
	})
}

type creditPackageResponse struct {
	Credits      int64 `json:"credits"`
	Price        int64 `json:"price"`
	BonusCredits int64 `json:"bonusCredits"`
	TotalCredits int64 `json:"totalCredits"`
}

// ListCreditPackages handles GET /api/v1/credit-packages
func (h *BillingHandler) ListCreditPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.listCreditPackages.Handle(r.Context())
	if err != nil {
		h.logger.Error("failed to list credit packages", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list credit packages")
		return
	}

	dtos := make([]creditPackageResponse, len(packages))
	for i, p := range packages {
		dtos[i] = creditPackageResponse{
			Credits:      p.Credits,
			Price:        p.Price,
			BonusCredits: p.BonusCredits,
			TotalCredits: p.TotalCredits,
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"packages": dtos,
	})
}

type balanceResponse struct {
	Email                 string  `json:"email"`
	Credits               int64   `json:"credits"`
	SubscriptionPlan      string  `json:"subscriptionPlan"`
	SubscriptionStatus    string  `json:"subscriptionStatus"`
	SubscriptionStart     *string `json:"subscriptionStartDate"`
	SubscriptionEnd       *string `json:"subscriptionEndDate"`
	TotalCreditsPurchased int64   `json:"totalCreditsPurchased"`
	WarningLevel          string  `json:"warningLevel"`
}

// GetBalance handles GET /api/v1/accounts/{email}/balance
func (h *BillingHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Account email is required")
		return
	}

	balance, err := h.getBalance.Handle(r.Context(), queries.GetBalanceQuery{UserEmail: email})
	if err != nil {
		h.writeDomainError(w, err, "Failed to get balance")
		return
	}

	writeJSON(w, http.StatusOK, balanceResponse{
		Email:                 balance.Email,
		Credits:               balance.Credits,
		SubscriptionPlan:      balance.SubscriptionPlan,
		SubscriptionStatus:    balance.SubscriptionStatus,
		SubscriptionStart:     formatTimePtr(balance.SubscriptionStart),
		SubscriptionEnd:       formatTimePtr(balance.SubscriptionEnd),
		TotalCreditsPurchased: balance.TotalCreditsPurchased,
		WarningLevel:          balance.WarningLevel,
	})
}

type transactionResponse struct {
	ID               string  `json:"id"`
	TransactionType  string  `json:"transactionType"`
	PlanName         string  `json:"planName,omitempty"`
	BillingCycle     string  `json:"billingCycle,omitempty"`
	CreditsPurchased int64   `json:"creditsPurchased"`
	Amount           int64   `json:"amount"`
	Currency         string  `json:"currency"`
	Status           string  `json:"status"`
	PaymentReference string  `json:"paymentReference,omitempty"`
	InvoiceSent      bool    `json:"invoiceSent"`
	InvoiceURL       string  `json:"invoiceUrl,omitempty"`
	CompletedAt      *string `json:"completedAt"`
	CreatedAt        string  `json:"createdAt"`
}

// ListTransactions handles GET /api/v1/accounts/{email}/transactions
func (h *BillingHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Account email is required")
		return
	}

	transactions, err := h.listTransactions.Handle(r.Context(), queries.ListPaymentHistoryQuery{UserEmail: email})
	if err != nil {
		h.writeDomainError(w, err, "Failed to list transactions")
		return
	}

	dtos := make([]transactionResponse, len(transactions))
	for i, tx := range transactions {
		dtos[i] = transactionResponse{
			ID:               tx.ID.String(),
			TransactionType:  tx.TransactionType,
			PlanName:         tx.PlanName,
			BillingCycle:     tx.BillingCycle,
			CreditsPurchased: tx.CreditsPurchased,
			Amount:           tx.Amount,
			Currency:         tx.Currency,
			Status:           tx.Status,
			PaymentReference: tx.PaymentReference,
			InvoiceSent:      tx.InvoiceSent,
			InvoiceURL:       tx.InvoiceURL,
			CompletedAt:      formatTimePtr(tx.CompletedAt),
			CreatedAt:        tx.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": dtos,
	})
}

type creditHistoryResponse struct {
	ID             string  `json:"id"`
	Action         string  `json:"action"`
	CreditsChanged int64   `json:"creditsChanged"`
	CreditsBefore  int64   `json:"creditsBefore"`
	CreditsAfter   int64   `json:"creditsAfter"`
	Reason         string  `json:"reason"`
	TransactionID  *string `json:"transactionId"`
	CreatedAt      string  `json:"createdAt"`
}

// ListCreditHistory handles GET /api/v1/accounts/{email}/credit-history
func (h *BillingHandler) ListCreditHistory(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if email == "" {
		writeError(w, http.StatusBadRequest, "Account email is required")
		return
	}

	entries, err := h.listCreditHistory.Handle(r.Context(), queries.ListCreditHistoryQuery{UserEmail: email})
	if err != nil {
		h.writeDomainError(w, err, "Failed to list credit history")
		return
	}

	dtos := make([]creditHistoryResponse, len(entries))
	for i, entry := range entries {
		var txID *string
		if entry.TransactionID != nil {
			s := entry.TransactionID.String()
			txID = &s
		}
		dtos[i] = creditHistoryResponse{
			ID:             entry.ID.String(),
			Action:         entry.Action,
			CreditsChanged: entry.CreditsChanged,
			CreditsBefore:  entry.CreditsBefore,
			CreditsAfter:   entry.CreditsAfter,
			Reason:         entry.Reason,
			TransactionID:  txID,
			CreatedAt:      entry.CreatedAt.UTC().Format(time.RFC3339),
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"history": dtos,
	})
}

// writeDomainError maps application errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 with a generic message.
func (h *BillingHandler) writeDomainError(w http.ResponseWriter, err error, fallback string) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, domain.ErrTransactionCompleted):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrPlanNotFound),
		errors.Is(err, domain.ErrCreditPackageNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
