package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
)

// SQLiteCatalogRepository implements domain.CatalogRepository using SQLite.
// Only active catalog rows are served; retired plans and packages stay in the
// tables for historical transactions but are invisible here.
type SQLiteCatalogRepository struct {
	conn database.Connection
}

// NewSQLiteCatalogRepository creates a new SQLite catalog repository.
func NewSQLiteCatalogRepository(conn database.Connection) *SQLiteCatalogRepository {
	return &SQLiteCatalogRepository{conn: conn}
}

// ListPlans returns all active subscription plans ordered by monthly price.
func (r *SQLiteCatalogRepository) ListPlans(ctx context.Context) ([]*domain.Plan, error) {
	query := `
		SELECT id, name, display_name, price_monthly, price_yearly, credits_per_month, features, is_active, created_at
		FROM subscription_plans
		WHERE is_active = 1
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
		plan, err := scanSQLitePlan(rows)
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
func (r *SQLiteCatalogRepository) FindPlanByName(ctx context.Context, name string) (*domain.Plan, error) {
	query := `
		SELECT id, name, display_name, price_monthly, price_yearly, credits_per_month, features, is_active, created_at
		FROM subscription_plans
		WHERE name = ? AND is_active = 1
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	plan, err := scanSQLitePlan(exec.QueryRow(ctx, query, name))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to find plan: %w", err)
	}
	return plan, nil
}

// ListCreditPackages returns all active credit packages ordered by size.
func (r *SQLiteCatalogRepository) ListCreditPackages(ctx context.Context) ([]*domain.CreditPackage, error) {
	query := `
		SELECT id, credits, price, bonus_credits, is_active, created_at
		FROM credit_packages
		WHERE is_active = 1
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
		pkg, err := scanSQLitePackage(rows)
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
func (r *SQLiteCatalogRepository) FindCreditPackageByCredits(ctx context.Context, credits int64) (*domain.CreditPackage, error) {
	query := `
		SELECT id, credits, price, bonus_credits, is_active, created_at
		FROM credit_packages
		WHERE credits = ? AND is_active = 1
	`

	exec := database.ExecutorFromContext(ctx, r.conn)
	pkg, err := scanSQLitePackage(exec.QueryRow(ctx, query, credits))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, domain.ErrCreditPackageNotFound
		}
		return nil, fmt.Errorf("failed to find credit package: %w", err)
	}
	return pkg, nil
}

func scanSQLitePlan(row database.Row) (*domain.Plan, error) {
	var (
		idStr           string
		name            string
		displayName     string
		priceMonthly    int64
		priceYearly     int64
		creditsPerMonth int64
		featuresJSON    string
		isActive        int64
		createdAtStr    string
	)

	if err := row.Scan(&idStr, &name, &displayName, &priceMonthly, &priceYearly, &creditsPerMonth, &featuresJSON, &isActive, &createdAtStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid id in subscription_plans row: %w", err)
	}
	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	var features []string
	if featuresJSON != "" {
		if err := json.Unmarshal([]byte(featuresJSON), &features); err != nil {
			return nil, fmt.Errorf("invalid features in subscription_plans row: %w", err)
		}
	}

	return domain.RehydratePlan(
		sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		name, displayName, priceMonthly, priceYearly, creditsPerMonth,
		features, isActive != 0,
	), nil
}

func scanSQLitePackage(row database.Row) (*domain.CreditPackage, error) {
	var (
		idStr        string
		credits      int64
		price        int64
		bonusCredits int64
		isActive     int64
		createdAtStr string
	)

	if err := row.Scan(&idStr, &credits, &price, &bonusCredits, &isActive, &createdAtStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("invalid id in credit_packages row: %w", err)
	}
	createdAt, err := parseTime(createdAtStr)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateCreditPackage(
		sharedDomain.RehydrateBaseEntity(id, createdAt, createdAt),
		credits, price, bonusCredits, isActive != 0,
	), nil
}
