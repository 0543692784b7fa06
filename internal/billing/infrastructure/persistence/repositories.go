package persistence

import (
	"github.com/nexthire/billing/internal/billing/domain"
	"github.com/nexthire/billing/internal/shared/infrastructure/database"
)

// Repositories bundles the billing repositories for a connection.
type Repositories struct {
	Transactions  domain.TransactionRepository
	Accounts      domain.AccountRepository
	Catalog       domain.CatalogRepository
	CreditHistory domain.CreditHistoryRepository
}

// NewRepositories creates the repository set matching the connection's driver.
func NewRepositories(conn database.Connection) *Repositories {
	if conn.Driver() == database.DriverSQLite {
		return &Repositories{
			Transactions:  NewSQLiteTransactionRepository(conn),
			Accounts:      NewSQLiteAccountRepository(conn),
			Catalog:       NewSQLiteCatalogRepository(conn),
			CreditHistory: NewSQLiteCreditHistoryRepository(conn),
		}
	}
	return &Repositories{
		Transactions:  NewPostgresTransactionRepository(conn),
		Accounts:      NewPostgresAccountRepository(conn),
		Catalog:       NewPostgresCatalogRepository(conn),
		CreditHistory: NewPostgresCreditHistoryRepository(conn),
	}
}
