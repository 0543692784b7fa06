package queries

import (
	"context"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
)

// PlanDTO is a data transfer object for subscription plans.
type PlanDTO struct {
	Name            string
	DisplayName     string
	PriceMonthly    int64
	PriceYearly     int64
	CreditsPerMonth int64
	Features        []string
	Active          bool
}

// ListPlansHandler serves the subscription plan catalog.
type ListPlansHandler struct {
	catalogRepo domain.CatalogRepository
}

var _ sharedApplication.CatalogHandler[[]PlanDTO] = (*ListPlansHandler)(nil)

// NewListPlansHandler creates a new ListPlansHandler.
func NewListPlansHandler(catalogRepo domain.CatalogRepository) *ListPlansHandler {
	return &ListPlansHandler{catalogRepo: catalogRepo}
}

// Handle returns all plans in the catalog.
func (h *ListPlansHandler) Handle(ctx context.Context) ([]PlanDTO, error) {
	plans, err := h.catalogRepo.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]PlanDTO, len(plans))
	for i, p := range plans {
		dtos[i] = PlanDTO{
			Name:            p.Name(),
			DisplayName:     p.DisplayName(),
			PriceMonthly:    p.PriceMonthly(),
			PriceYearly:     p.PriceYearly(),
			CreditsPerMonth: p.CreditsPerMonth(),
			Features:        p.Features(),
			Active:          p.Active(),
		}
	}
	return dtos, nil
}
