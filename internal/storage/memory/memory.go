// internal/storage/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"expense-hive/internal/domain"
	"expense-hive/internal/storage"
)

// Storage keeps everything in process memory. It enforces the same unique
// constraints as the database backends.
type Storage struct {
	mu         sync.RWMutex
	accounts   map[string]domain.Account
	categories map[string][]domain.Category
	expenses   map[string][]domain.Expense
}

var _ storage.Storage = (*Storage)(nil)

func NewStorage() *Storage {
	return &Storage{
		accounts:   make(map[string]domain.Account),
		categories: make(map[string][]domain.Category),
		expenses:   make(map[string][]domain.Expense),
	}
}

func (s *Storage) Name() string                   { return "memory" }
func (s *Storage) Ping(ctx context.Context) error  { return ctx.Err() }
func (s *Storage) Close(ctx context.Context) error { return nil }

// === AccountStorage ===

func (s *Storage) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, account.Email) {
			return nil, &domain.ConflictError{Messages: []string{"Email already exists"}}
		}
	}
	account.ID = domain.NewID()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.accounts[account.ID] = account
	return &account, nil
}

func (s *Storage) FindAccountByEmail(ctx context.Context, email string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, nil
}

func (s *Storage) FindAccountByID(ctx context.Context, id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if a, ok := s.accounts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

// === CategoryStorage ===

func (s *Storage) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Category(nil), s.categories[accountID]...), nil
}

func (s *Storage) InsertCategories(ctx context.Context, accountID string, categories []domain.Category) ([]domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.categories[accountID]
	created := make([]domain.Category, 0, len(categories))
	for _, c := range categories {
		c.ID = domain.NewID()
		c.Account = accountID
		if err := uniqueCategory(append(existing, created...), c); err != nil {
			return nil, err
		}
		created = append(created, c)
	}
	s.categories[accountID] = append(existing, created...)
	return created, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, accountID string, category domain.Category) (*domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.categories[accountID]
	for i := range list {
		if list[i].ID != category.ID {
			continue
		}
		others := make([]domain.Category, 0, len(list)-1)
		others = append(others, list[:i]...)
		others = append(others, list[i+1:]...)
		if err := uniqueCategory(others, category); err != nil {
			return nil, err
		}
		list[i].Name = category.Name
		list[i].Color = category.Color
		updated := list[i]
		return &updated, nil
	}
	return nil, nil
}

func (s *Storage) DeleteCategories(ctx context.Context, accountID string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := toSet(ids)
	kept := s.categories[accountID][:0]
	var n int64
	for _, c := range s.categories[accountID] {
		if drop[c.ID] {
			n++
			continue
		}
		kept = append(kept, c)
	}
	s.categories[accountID] = kept

	list := s.expenses[accountID]
	for i := range list {
		if drop[list[i].CategoryID] {
			list[i].CategoryID = ""
		}
	}
	return n, nil
}

func uniqueCategory(existing []domain.Category, c domain.Category) error {
	for _, e := range existing {
		if e.Name == c.Name {
			return &domain.ConflictError{Messages: []string{fmt.Sprintf("category name %q already exists", c.Name)}}
		}
		if strings.EqualFold(e.Color, c.Color) {
			return &domain.ConflictError{Messages: []string{fmt.Sprintf("category color %q already in use", c.Color)}}
		}
	}
	return nil
}

// === ExpenseStorage ===

func (s *Storage) ListExpenses(ctx context.Context, accountID string) ([]domain.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Expense(nil), s.expenses[accountID]...), nil
}

func (s *Storage) InsertExpenses(ctx context.Context, accountID string, expenses []domain.Expense) ([]domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]domain.Expense, 0, len(expenses))
	for _, e := range expenses {
		e.ID = domain.NewID()
		e.Account = accountID
		created = append(created, e)
	}
	s.expenses[accountID] = append(s.expenses[accountID], created...)
	return created, nil
}

func (s *Storage) UpdateExpense(ctx context.Context, accountID string, expense domain.Expense) (*domain.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.expenses[accountID]
	for i := range list {
		if list[i].ID != expense.ID {
			continue
		}
		expense.Account = accountID
		list[i] = expense
		return &expense, nil
	}
	return nil, nil
}

func (s *Storage) DeleteExpenses(ctx context.Context, accountID string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drop := toSet(ids)
	kept := s.expenses[accountID][:0]
	var n int64
	for _, e := range s.expenses[accountID] {
		if drop[e.ID] {
			n++
			continue
		}
		kept = append(kept, e)
	}
	s.expenses[accountID] = kept
	return n, nil
}

func (s *Storage) RenameCategory(ctx context.Context, accountID, categoryID, oldName, newName string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	list := s.expenses[accountID]
	for i := range list {
		e := &list[i]
		if e.CategoryID == categoryID || (e.CategoryID == "" && e.Category == oldName) {
			e.Category = newName
			e.CategoryID = categoryID
			n++
		}
	}
	return n, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
