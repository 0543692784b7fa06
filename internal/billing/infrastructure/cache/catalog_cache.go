package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

const (
	plansKey    = "billing:catalog:plans"
	packagesKey = "billing:catalog:packages"
)

// planRecord is the cache encoding of a plan.
type planRecord struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	DisplayName     string    `json:"display_name"`
	PriceMonthly    int64     `json:"price_monthly"`
	PriceYearly     int64     `json:"price_yearly"`
	CreditsPerMonth int64     `json:"credits_per_month"`
	Features        []string  `json:"features"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
}

// packageRecord is the cache encoding of a credit package.
type packageRecord struct {
	ID           uuid.UUID `json:"id"`
	Credits      int64     `json:"credits"`
	Price        int64     `json:"price"`
	BonusCredits int64     `json:"bonus_credits"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// CachedCatalogRepository is a read-through Redis cache in front of a
// catalog repository. The catalog only changes via migrations, so entries
// get a TTL rather than explicit invalidation. Any cache failure falls
// back to the underlying store.
type CachedCatalogRepository struct {
	inner  domain.CatalogRepository
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedCatalogRepository wraps a catalog repository with a Redis cache.
func NewCachedCatalogRepository(inner domain.CatalogRepository, client *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedCatalogRepository {
	return &CachedCatalogRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// ListPlans returns the plan catalog, preferring the cache.
func (r *CachedCatalogRepository) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	var records []planRecord
	if r.readCache(ctx, plansKey, &records) {
		plans := make([]*domain.Plan, len(records))
		for i, rec := range records {
			plans[i] = rec.toPlan()
		}
		return plans, nil
	}

	plans, err := r.inner.ListPlans(ctx)
	if err != nil {
		return nil, err
	}

	records = make([]planRecord, len(plans))
	for i, p := range plans {
		records[i] = toPlanRecord(p)
	}
	r.writeCache(ctx, plansKey, records)

	return plans, nil
}

// FindPlanByName looks up a plan, serving it from the cached catalog when
// possible.
func (r *CachedCatalogRepository) FindPlanByName(ctx context.Context, name string) (*domain.Plan, error) {
	var records []planRecord
	if r.readCache(ctx, plansKey, &records) {
		for _, rec := range records {
			if rec.Name == name {
				return rec.toPlan(), nil
			}
		}
		return nil, domain.ErrPlanNotFound
	}

	return r.inner.FindPlanByName(ctx, name)
}

// ListCreditPackages returns the package catalog, preferring the cache.
func (r *CachedCatalogRepository) ListCreditPackages(ctx context.Context) ([]*domain.CreditPackage, error) {
	var records []packageRecord
	if r.readCache(ctx, packagesKey, &records) {
		packages := make([]*domain.CreditPackage, len(records))
		for i, rec := range records {
			packages[i] = rec.toPackage()
		}
		return packages, nil
	}

	packages, err := r.inner.ListCreditPackages(ctx)
	if err != nil {
		return nil, err
	}

	records = make([]packageRecord, len(packages))
	for i, p := range packages {
		records[i] = toPackageRecord(p)
	}
	r.writeCache(ctx, packagesKey, records)

	return packages, nil
}

// FindCreditPackageByCredits looks up a package, serving it from the cached
// catalog when possible.
func (r *CachedCatalogRepository) FindCreditPackageByCredits(ctx context.Context, credits int64) (*domain.CreditPackage, error) {
	var records []packageRecord
	if r.readCache(ctx, packagesKey, &records) {
		for _, rec := range records {
			if rec.Credits == credits {
				return rec.toPackage(), nil
			}
		}
		return nil, domain.ErrCreditPackageNotFound
	}

	return r.inner.FindCreditPackageByCredits(ctx, credits)
}

// readCache reports whether the key was present and decoded into dest.
func (r *CachedCatalogRepository) readCache(ctx context.Context, key string, dest any) bool {
	if r.client == nil {
		return false
	}

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			r.logger.Warn("catalog cache read failed", "key", key, "error", err)
		}
		return false
	}

	if err := json.Unmarshal(data, dest); err != nil {
		r.logger.Warn("catalog cache entry is corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (r *CachedCatalogRepository) writeCache(ctx context.Context, key string, value any) {
	if r.client == nil {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn("catalog cache encode failed", "key", key, "error", err)
		return
	}
	if err := r.client.Set(ctx, key, data, r.ttl).Err(); err != nil {
		r.logger.Warn("catalog cache write failed", "key", key, "error", err)
	}
}

func toPlanRecord(p *domain.Plan) planRecord {
	return planRecord{
		ID:              p.ID(),
		Name:            p.Name(),
		DisplayName:     p.DisplayName(),
		PriceMonthly:    p.PriceMonthly(),
		PriceYearly:     p.PriceYearly(),
		CreditsPerMonth: p.CreditsPerMonth(),
		Features:        p.Features(),
		Active:          p.Active(),
		CreatedAt:       p.CreatedAt(),
	}
}

func (rec planRecord) toPlan() *domain.Plan {
	return domain.RehydratePlan(
		sharedDomain.RehydrateBaseEntity(rec.ID, rec.CreatedAt, rec.CreatedAt),
		rec.Name, rec.DisplayName, rec.PriceMonthly, rec.PriceYearly, rec.CreditsPerMonth,
		rec.Features, rec.Active,
	)
}

func toPackageRecord(p *domain.CreditPackage) packageRecord {
	return packageRecord{
		ID:           p.ID(),
		Credits:      p.Credits(),
		Price:        p.Price(),
		BonusCredits: p.BonusCredits(),
		Active:       p.Active(),
		CreatedAt:    p.CreatedAt(),
	}
}

func (rec packageRecord) toPackage() *domain.CreditPackage {
	return domain.RehydrateCreditPackage(
		sharedDomain.RehydrateBaseEntity(rec.ID, rec.CreatedAt, rec.CreatedAt),
		rec.Credits, rec.Price, rec.BonusCredits, rec.Active,
	)
}
