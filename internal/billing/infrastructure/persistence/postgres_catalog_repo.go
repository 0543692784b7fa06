package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
)

// PostgresCatalogRepository implements domain.CatalogRepository using PostgreSQL.
// Only active catalog rows are served; retired plans and packages stay in the
// tables for historical transactions but are invisible here.
type PostgresCatalogRepository struct {
	conn database.Connection
}

// NewPostgresCatalogRepository creates a new PostgreSQL catalog repository.
func NewPostgresCatalogRepository(conn database.Connection) *PostgresCatalogRepository {
	return &PostgresCatalogRepository{conn: conn}
}

// ListPlans returns all active subscription plans ordered by monthly price.
func (r *PostgresCatalogRepository) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	query := `
		SELECT id, name, display_name, price_monthly, price_yearly, credits_per_month, features, is_active, created_at
		FROM subscription_plans
		WHERE is_active
		ORDER BY price_monthly ASC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	plans := make([]*domain.Plan, 0)
	for rows.Next() {
		plan, err := scanPostgresPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return plans, nil
}

// FindPlanByName looks up an active plan by its key.
func (r *PostgresCatalogRepository) FindPlanByName(ctx context.Context, name string) (*domain.Plan, error) {
	query := `
		SELECT id, name, display_name, price_monthly, price_yearly, credits_per_month, features, is_active, created_at
		FROM subscription_plans
		WHERE name = $1 AND is_active
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	plan, err := scanPostgresPlan(exec.QueryRow(ctx, query, name))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return plan, nil
}

// ListCreditPackages returns all active credit packages ordered by size.
func (r *PostgresCatalogRepository) ListCreditPackages(ctx context.Context) ([]*domain.CreditPackage, error) {
	query := `
		SELECT id, credits, price, bonus_credits, is_active, created_at
		FROM credit_packages
		WHERE is_active
		ORDER BY credits ASC
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit packages: %w", err)
	}
	defer rows.Close()

	packages := make([]*domain.CreditPackage, 0)
	for rows.Next() {
		pkg, err := scanPostgresPackage(rows)
		if err != nil {
			return nil, err
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return packages, nil
}

// FindCreditPackageByCredits looks up an active package by its credit count.
func (r *PostgresCatalogRepository) FindCreditPackageByCredits(ctx context.Context, credits int64) (*domain.CreditPackage, error) {
	query := `
		SELECT id, credits, price, bonus_credits, is_active, created_at
		FROM credit_packages
		WHERE credits = $1 AND is_active
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	pkg, err := scanPostgresPackage(exec.QueryRow(ctx, query, credits))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrCreditPackageNotFound
		}
		return nil, fmt.Errorf("failed to find credit package: %w", err)
	}
	return pkg, nil
}

func scanPostgresPlan(row database.Row) (*domain.Plan, error) {
	var (
		id              uuid.UUID
		name            string
		displayName     string
		priceMonthly    int64
		priceYearly     int64
		creditsPerMonth int64
		featuresJSON    []byte
		isActive        bool
		createdAt       time.Time
	)

	if err := row.Scan(&id, &name, &displayName, &priceMonthly, &priceYearly, &creditsPerMonth, &featuresJSON, &isActive, &createdAt); err != nil {
		return nil, err
	}

	var features []string
	if len(featuresJSON) > 0 {
		if err := json.Unmarshal(featuresJSON, &features); err != nil {
			return nil, fmt.Errorf("invalid features in subscription_plans row: %w", err)
		}
	}

	return domain.RehydratePlan(
		sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		name, displayName, priceMonthly, priceYearly, creditsPerMonth,
		features, isActive,
	), nil
}

func scanPostgresPackage(row database.Row) (*domain.CreditPackage, error) {
	var (
		id           uuid.UUID
		credits      int64
		price        int64
		bonusCredits int64
		isActive     bool
		createdAt    time.Time
	)

	if err := row.Scan(&id, &credits, &price, &bonusCredits, &isActive, &createdAt); err != nil {
		return nil, err
	}

	return domain.RehydrateCreditPackage(
		sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		credits, price, bonusCredits, isActive,
	), nil
}
