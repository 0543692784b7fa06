package domain

import (
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
)

// Plan is a subscription tier from the catalog. Read model: plans are
// seeded by migrations and never mutated through this service.
type Plan struct {
	sharedDomain.BaseEntity
	name            string
	displayName     string
	priceMonthly    int64
	priceYearly     int64
	creditsPerMonth int64
	features        []string
	active          bool
}

// RehydratePlan recreates a plan from a catalog row.
func RehydratePlan(entity sharedDomain.BaseEntity, name, displayName string, priceMonthly, priceYearly, creditsPerMonth int64, features []string, active bool) *Plan {
	return &Plan{
		BaseEntity:      entity,
		name:            name,
		displayName:     displayName,
		priceMonthly:    priceMonthly,
		priceYearly:     priceYearly,
		creditsPerMonth: creditsPerMonth,
		features:        features,
		active:          active,
	}
}

func (p *Plan) Name() string           { return p.name }
func (p *Plan) DisplayName() string    { return p.displayName }
func (p *Plan) PriceMonthly() int64    { return p.priceMonthly }
func (p *Plan) PriceYearly() int64     { return p.priceYearly }
func (p *Plan) CreditsPerMonth() int64 { return p.creditsPerMonth }
func (p *Plan) Features() []string     { return p.features }
func (p *Plan) Active() bool           { return p.active }

// Price returns the plan price for a billing cycle.
func (p *Plan) Price(cycle BillingCycle) int64 {
	if cycle == BillingCycleYearly {
		return p.priceYearly
	}
	return p.priceMonthly
}

// CreditPackage is a one-off purchasable bundle of interview credits.
type CreditPackage struct {
	sharedDomain.BaseEntity
	credits      int64
	price        int64
	bonusCredits int64
	active       bool
}

// RehydrateCreditPackage recreates a credit package from a catalog row.
func RehydrateCreditPackage(entity sharedDomain.BaseEntity, credits, price, bonusCredits int64, active bool) *CreditPackage {
	return &CreditPackage{
		BaseEntity:   entity,
		credits:      credits,
		price:        price,
		bonusCredits: bonusCredits,
		active:       active,
	}
}

func (p *CreditPackage) Credits() int64      { return p.credits }
func (p *CreditPackage) Price() int64        { return p.price }
func (p *CreditPackage) BonusCredits() int64 { return p.bonusCredits }
func (p *CreditPackage) Active() bool        { return p.active }

// TotalCredits is the credit grant including the bundle bonus.
func (p *CreditPackage) TotalCredits() int64 {
	return p.credits + p.bonusCredits
}
