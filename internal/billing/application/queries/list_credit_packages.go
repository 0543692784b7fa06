package queries

import (
	"context"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
)

// CreditPackageDTO is a data transfer object for credit packages.
type CreditPackageDTO struct {
	Credits      int64
	Price        int64
	BonusCredits int64
	TotalCredits int64
}

// ListCreditPackagesHandler serves the credit package catalog.
type ListCreditPackagesHandler struct {
	catalogRepo domain.CatalogRepository
}

var _ sharedApplication.CatalogHandler[[]CreditPackageDTO] = (*ListCreditPackagesHandler)(nil)

// NewListCreditPackagesHandler creates a new ListCreditPackagesHandler.
func NewListCreditPackagesHandler(catalogRepo domain.CatalogRepository) *ListCreditPackagesHandler {
	return &ListCreditPackagesHandler{catalogRepo: catalogRepo}
}

// Handle returns all credit packages in the catalog.
func (h *ListCreditPackagesHandler) Handle(ctx context.Context) ([]CreditPackageDTO, error) {
	packages, err := h.catalogRepo.ListCreditPackages(ctx)
	if err != nil {
		return nil, err
	}

	dtos := make([]CreditPackageDTO, len(packages))
	for i, p := range packages {
		dtos[i] = CreditPackageDTO{
			Credits:      p.Credits(),
			Price:        p.Price(),
			BonusCredits: p.BonusCredits(),
			TotalCredits: p.TotalCredits(),
		}
	}
	return dtos, nil
}
