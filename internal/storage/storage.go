// internal/storage/storage.go
package storage

import (
	"context"

	"expense-hive/internal/domain"
)

// Find* methods return (nil, nil) when nothing matches. Identifiers are
// assigned by the store on insert.

type AccountStorage interface {
	CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id string) (*domain.Account, error)
}

type CategoryStorage interface {
	ListCategories(ctx context.Context, accountID string) ([]domain.Category, error)
	InsertCategories(ctx context.Context, accountID string, categories []domain.Category) ([]domain.Category, error)
	// UpdateCategory returns nil when the category does not belong to accountID.
	UpdateCategory(ctx context.Context, accountID string, category domain.Category) (*domain.Category, error)
	// DeleteCategories clears the category id on the account's expenses that
	// referenced a removed category. Their category name is kept.
	DeleteCategories(ctx context.Context, accountID string, ids []string) (int64, error)
}

type ExpenseStorage interface {
	ListExpenses(ctx context.Context, accountID string) ([]domain.Expense, error)
	InsertExpenses(ctx context.Context, accountID string, expenses []domain.Expense) ([]domain.Expense, error)
	// UpdateExpense returns nil when the expense does not belong to accountID.
	UpdateExpense(ctx context.Context, accountID string, expense domain.Expense) (*domain.Expense, error)
	DeleteExpenses(ctx context.Context, accountID string, ids []string) (int64, error)
	// RenameCategory moves expenses filed under a category to its new name.
	// Expenses match by categoryID, or by oldName when they carry no id.
	RenameCategory(ctx context.Context, accountID, categoryID, oldName, newName string) (int64, error)
}

type Storage interface {
	AccountStorage
	CategoryStorage
	ExpenseStorage
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Name() string
}
