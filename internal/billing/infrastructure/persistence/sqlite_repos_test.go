package persistence

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexthire/billing/internal/billing/domain"
	sharedApplication "github.com/nexthire/billing/internal/shared/application"
	sharedDomain "github.com/nexthire/billing/internal/shared/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
	"github.com/nexthire/billing/internal/shared/infrastructure/database/sqlite"
	"github.com/nexthire/billing/internal/shared/infrastructure/migrations"
)

func setupDB(t *testing.T) database.Connection {
	t.Helper()

	ctx := context.Background()
	conn, err := sqlite.NewConnection(ctx, database.Config{
		Driver:     database.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "billing_test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.NoError(t, migrations.Run(ctx, conn))
	return conn
}

func newEmail(t *testing.T, value string) sharedDomain.Email {
	t.Helper()
	email, err := sharedDomain.NewEmail(value)
	require.NoError(t, err)
	return email
}

func TestSQLiteCatalogRepository_Seeds(t *testing.T) {
	conn := setupDB(t)
	repo := NewSQLiteCatalogRepository(conn)
	ctx := context.Background()

	t.Run("lists seeded plans", func(t *testing.T) {
		plans, err := repo.ListPlans(ctx)
		require.NoError(t, err)
		require.Len(t, plans, 3)

		assert.Equal(t, "free", plans[0].Name())
		assert.Equal(t, "pro", plans[1].Name())
		assert.Equal(t, "enterprise", plans[2].Name())
		assert.Equal(t, int64(2499), plans[1].PriceMonthly())
		assert.Equal(t, int64(24990), plans[1].PriceYearly())
		assert.Equal(t, int64(50), plans[1].CreditsPerMonth())
		assert.Contains(t, plans[1].Features(), "Resume Parsing")
		assert.True(t, plans[1].Active())
	})

	t.Run("finds plan by name", func(t *testing.T) {
		plan, err := repo.FindPlanByName(ctx, "enterprise")
		require.NoError(t, err)
		assert.Equal(t, int64(999), plan.CreditsPerMonth())

		_, err = repo.FindPlanByName(ctx, "platinum")
		require.ErrorIs(t, err, domain.ErrPlanNotFound)
	})

	t.Run("lists seeded credit packages", func(t *testing.T) {
		packages, err := repo.ListCreditPackages(ctx)
		require.NoError(t, err)
		require.Len(t, packages, 4)

		assert.Equal(t, int64(10), packages[0].Credits())
		assert.Equal(t, int64(100), packages[3].Credits())
		assert.Equal(t, int64(40), packages[3].BonusCredits())
	})

	t.Run("finds package by credit count", func(t *testing.T) {
		pkg, err := repo.FindCreditPackageByCredits(ctx, 25)
		require.NoError(t, err)
		assert.Equal(t, int64(1699), pkg.Price())
		assert.Equal(t, int64(5), pkg.BonusCredits())
		assert.Equal(t, int64(30), pkg.TotalCredits())
		assert.True(t, pkg.Active())

		_, err = repo.FindCreditPackageByCredits(ctx, 7)
		require.ErrorIs(t, err, domain.ErrCreditPackageNotFound)
	})
}

func TestSQLiteCatalogRepository_HidesInactiveRows(t *testing.T) {
	conn := setupDB(t)
	repo := NewSQLiteCatalogRepository(conn)
	ctx := context.Background()

	_, err := conn.Exec(ctx, `
		INSERT INTO subscription_plans (id, name, display_name, price_monthly, price_yearly, credits_per_month, features, is_active, created_at)
		VALUES (?, 'legacy', 'Legacy', 999, 9990, 20, '["Legacy Templates"]', 0, '2024-01-01T00:00:00Z')
	`, uuid.NewString())
	require.NoError(t, err)

	_, err = conn.Exec(ctx, `
		INSERT INTO credit_packages (id, credits, price, bonus_credits, is_active, created_at)
		VALUES (?, 500, 19999, 100, 0, '2024-01-01T00:00:00Z')
	`, uuid.NewString())
	require.NoError(t, err)

	plans, err := repo.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 3)
	for _, p := range plans {
		assert.True(t, p.Active())
	}

	_, err = repo.FindPlanByName(ctx, "legacy")
	require.ErrorIs(t, err, domain.ErrPlanNotFound)

	packages, err := repo.ListCreditPackages(ctx)
	require.NoError(t, err)
	require.Len(t, packages, 4)

	_, err = repo.FindCreditPackageByCredits(ctx, 500)
	require.ErrorIs(t, err, domain.ErrCreditPackageNotFound)
}

func TestSQLiteTransactionRepository_RoundTrip(t *testing.T) {
	conn := setupDB(t)
	repo := NewSQLiteTransactionRepository(conn)
	ctx := context.Background()
	email := newEmail(t, "buyer@example.com")

	tx, err := domain.NewTransaction(email, domain.TransactionTypeSubscription, "pro", domain.BillingCycleMonthly, 50, 2499)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tx))

	t.Run("finds by id and email", func(t *testing.T) {
		found, err := repo.FindByIDAndEmail(ctx, tx.ID(), email)
		require.NoError(t, err)

		assert.Equal(t, tx.ID(), found.ID())
		assert.Equal(t, "buyer@example.com", found.UserEmail().String())
		assert.Equal(t, domain.TransactionTypeSubscription, found.Type())
		assert.Equal(t, "pro", found.PlanName())
		assert.Equal(t, domain.BillingCycleMonthly, found.BillingCycle())
		assert.Equal(t, int64(50), found.CreditsPurchased())
		assert.Equal(t, int64(2499), found.Amount())
		assert.Equal(t, "INR", found.Currency())
		assert.Equal(t, domain.TransactionStatusPending, found.Status())
		assert.Nil(t, found.CompletedAt())
	})

	t.Run("missing id or wrong email is not found", func(t *testing.T) {
		_, err := repo.FindByIDAndEmail(ctx, uuid.New(), email)
		require.ErrorIs(t, err, domain.ErrTransactionNotFound)

		_, err = repo.FindByIDAndEmail(ctx, tx.ID(), newEmail(t, "other@example.com"))
		require.ErrorIs(t, err, domain.ErrTransactionNotFound)
	})

	t.Run("update persists completion", func(t *testing.T) {
		now := time.Now()
		require.NoError(t, tx.Complete("pay_abc123", now))
		require.NoError(t, repo.Update(ctx, tx))

		found, err := repo.FindByIDAndEmail(ctx, tx.ID(), email)
		require.NoError(t, err)
		assert.Equal(t, domain.TransactionStatusCompleted, found.Status())
		assert.Equal(t, "pay_abc123", found.PaymentReference())
		require.NotNil(t, found.CompletedAt())
		assert.WithinDuration(t, now, *found.CompletedAt(), time.Second)
	})

	t.Run("marks invoice on a completed transaction", func(t *testing.T) {
		tx.MarkInvoiceSent("invoice://INV-ABCD1234")
		require.NoError(t, repo.MarkInvoiceSent(ctx, tx))

		found, err := repo.FindByIDAndEmail(ctx, tx.ID(), email)
		require.NoError(t, err)
		assert.True(t, found.InvoiceSent())
		assert.Equal(t, "invoice://INV-ABCD1234", found.InvoiceURL())
		assert.Equal(t, domain.TransactionStatusCompleted, found.Status())
	})

	t.Run("lists newest first", func(t *testing.T) {
		second, err := domain.NewTransaction(email, domain.TransactionTypeCredits, "", domain.BillingCycleNone, 30, 1699)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, second))

		list, err := repo.ListByEmail(ctx, email)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, second.ID(), list[0].ID())
		assert.Equal(t, tx.ID(), list[1].ID())
	})

	t.Run("update of unknown transaction is not found", func(t *testing.T) {
		ghost, err := domain.NewTransaction(email, domain.TransactionTypeCredits, "", domain.BillingCycleNone, 10, 749)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Update(ctx, ghost), domain.ErrTransactionNotFound)
	})
}

func TestSQLiteTransactionRepository_UpdateRefusesCompletedRow(t *testing.T) {
	conn := setupDB(t)
	repo := NewSQLiteTransactionRepository(conn)
	ctx := context.Background()
	email := newEmail(t, "racer@example.com")

	tx, err := domain.NewTransaction(email, domain.TransactionTypeCredits, "", domain.BillingCycleNone, 30, 1699)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, tx))

	// Two confirms load the same pending row before either commits.
	stale, err := repo.FindByIDAndEmail(ctx, tx.ID(), email)
	require.NoError(t, err)

	require.NoError(t, tx.Complete("pay_winner", time.Now()))
	require.NoError(t, repo.Update(ctx, tx))

	require.NoError(t, stale.Complete("pay_loser", time.Now()))
	require.ErrorIs(t, repo.Update(ctx, stale), domain.ErrTransactionCompleted)

	found, err := repo.FindByIDAndEmail(ctx, tx.ID(), email)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusCompleted, found.Status())
	assert.Equal(t, "pay_winner", found.PaymentReference())
}

func TestSQLiteAccountRepository_RoundTrip(t *testing.T) {
	conn := setupDB(t)
	repo := NewSQLiteAccountRepository(conn)
	ctx := context.Background()
	email := newEmail(t, "account@example.com")

	account, err := domain.NewAccount(email)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, account))

	t.Run("finds by email", func(t *testing.T) {
		found, err := repo.FindByEmail(ctx, email)
		require.NoError(t, err)

		assert.Equal(t, account.ID(), found.ID())
		assert.Equal(t, int64(0), found.Credits())
		assert.Equal(t, "free", found.SubscriptionPlan())
		assert.Equal(t, domain.SubscriptionStatusFree, found.SubscriptionStatus())
		assert.Nil(t, found.SubscriptionStart())
	})

	t.Run("unknown email is not found", func(t *testing.T) {
		_, err := repo.FindByEmail(ctx, newEmail(t, "ghost@example.com"))
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("update persists a subscription purchase", func(t *testing.T) {
		now := time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

		tx, err := domain.NewTransaction(email, domain.TransactionTypeSubscription, "pro", domain.BillingCycleMonthly, 50, 2499)
		require.NoError(t, err)
		require.NoError(t, tx.Complete("pay_ref", now))
		require.NoError(t, account.ApplyPurchase(tx, now))
		require.NoError(t, repo.Update(ctx, account))

		found, err := repo.FindByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, int64(50), found.Credits())
		assert.Equal(t, int64(50), found.TotalCreditsPurchased())
		assert.Equal(t, "pro", found.SubscriptionPlan())
		assert.Equal(t, domain.SubscriptionStatusActive, found.SubscriptionStatus())
		require.NotNil(t, found.SubscriptionStart())
		require.NotNil(t, found.SubscriptionEnd())
		assert.Equal(t, now, found.SubscriptionStart().UTC())
		assert.Equal(t, now.AddDate(0, 1, 0), found.SubscriptionEnd().UTC())
	})
}

func TestSQLiteCreditHistoryRepository_RoundTrip(t *testing.T) {
	conn := setupDB(t)
	repo := NewSQLiteCreditHistoryRepository(conn)
	ctx := context.Background()
	email := newEmail(t, "audit@example.com")

	txID := uuid.New()
	first, err := domain.NewCreditHistoryEntry(email, domain.CreditActionAdded, 30, 0, 30, "Credit purchase", &txID)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := domain.NewCreditHistoryEntry(email, domain.CreditActionGranted, 5, 30, 35, "Manual grant", nil)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	entries, err := repo.ListByEmail(ctx, email)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domain.CreditActionGranted, entries[0].Action())
	assert.Nil(t, entries[0].TransactionID())
	assert.Equal(t, domain.CreditActionAdded, entries[1].Action())
	require.NotNil(t, entries[1].TransactionID())
	assert.Equal(t, txID, *entries[1].TransactionID())
	assert.Equal(t, int64(30), entries[1].CreditsChanged())
	assert.Equal(t, "Credit purchase", entries[1].Reason())
}

func TestRepositoriesParticipateInUnitOfWork(t *testing.T) {
	conn := setupDB(t)
	repos := NewRepositories(conn)
	uow := database.NewUnitOfWork(conn)
	ctx := context.Background()
	email := newEmail(t, "uow@example.com")

	t.Run("rollback leaves nothing behind", func(t *testing.T) {
		err := sharedApplication.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
			account, err := domain.NewAccount(email)
			if err != nil {
				return err
			}
			if err := repos.Accounts.Save(txCtx, account); err != nil {
				return err
			}
			return assert.AnError
		})
		require.ErrorIs(t, err, assert.AnError)

		_, err = repos.Accounts.FindByEmail(ctx, email)
		require.ErrorIs(t, err, domain.ErrAccountNotFound)
	})

	t.Run("commit persists all writes", func(t *testing.T) {
		err := sharedApplication.WithUnitOfWork(ctx, uow, func(txCtx context.Context) error {
			account, err := domain.NewAccount(email)
			if err != nil {
				return err
			}
			if err := repos.Accounts.Save(txCtx, account); err != nil {
				return err
			}

			tx, err := domain.NewTransaction(email, domain.TransactionTypeCredits, "", domain.BillingCycleNone, 30, 1699)
			if err != nil {
				return err
			}
			return repos.Transactions.Save(txCtx, tx)
		})
		require.NoError(t, err)

		account, err := repos.Accounts.FindByEmail(ctx, email)
		require.NoError(t, err)
		assert.Equal(t, "uow@example.com", account.Email().String())

		list, err := repos.Transactions.ListByEmail(ctx, email)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})
}

func TestNewRepositories_SelectsDriver(t *testing.T) {
	conn := setupDB(t)
	repos := NewRepositories(conn)

	assert.IsType(t, &SQLiteTransactionRepository{}, repos.Transactions)
	assert.IsType(t, &SQLiteAccountRepository{}, repos.Accounts)
	assert.IsType(t, &SQLiteCatalogRepository{}, repos.Catalog)
	assert.IsType(t, &SQLiteCreditHistoryRepository{}, repos.CreditHistory)
}
