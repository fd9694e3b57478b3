// internal/service/expenses.go
package service

import (
	"context"
	"fmt"
	"log/slog"

	"expense-hive/internal/domain"
	"expense-hive/internal/validator"
)

func (t *Tracker) ListExpenses(ctx context.Context, accountID string) ([]domain.Expense, error) {
	if err := checkID(accountID); err != nil {
		return nil, err
	}
	expenses, err := t.store.ListExpenses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	if len(expenses) == 0 {
		return nil, fmt.Errorf("no expenses for account %s: %w", accountID, domain.ErrNotFound)
	}
	return expenses, nil
}

// prepareExpense validates e and puts its date in canonical form. The
// returned error is the item's full list of messages.
func prepareExpense(e domain.Expense) (domain.Expense, error) {
	if err := validator.Struct(e); err != nil {
		return e, err
	}
	date, err := domain.NormalizeDate(e.Date)
	if err != nil {
		return e, domain.NewValidationError(`"date" must be in ISO 8601 date format`)
	}
	e.Date = date
	return e, nil
}

// categoryIDs maps the account's category names to their identifiers.
func (t *Tracker) categoryIDs(ctx context.Context, accountID string) (map[string]string, error) {
	categories, err := t.store.ListCategories(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	ids := make(map[string]string, len(categories))
	for _, c := range categories {
		ids[c.Name] = c.ID
	}
	return ids, nil
}

// CreateExpenses validates every item before writing any. The first
// invalid item rejects the batch with its messages.
func (t *Tracker) CreateExpenses(ctx context.Context, accountID string, items []domain.Expense) ([]domain.Expense, error) {
	if err := t.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError(`"expenses" must contain at least 1 item`)
	}

	ids, err := t.categoryIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}

	prepared := make([]domain.Expense, len(items))
	for i, item := range items {
		e, err := prepareExpense(item)
		if err != nil {
			return nil, err
		}
		e.CategoryID = ids[e.Category]
		prepared[i] = e
	}

	created, err := t.store.InsertExpenses(ctx, accountID, prepared)
	if err != nil {
		return nil, fmt.Errorf("insert expenses: %w", err)
	}
	slog.Info("expenses created", "account_id", accountID, "count", len(created))
	return created, nil
}

// UpdateExpenses replaces the given expenses. Every item must carry the id
// of an expense the account owns; otherwise nothing is written.
func (t *Tracker) UpdateExpenses(ctx context.Context, accountID string, items []domain.Expense) ([]domain.Expense, error) {
	if err := checkID(accountID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("No expenses to update.")
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := checkIDs("_id", ids); err != nil {
		return nil, err
	}

	existing, err := t.store.ListExpenses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	owned := make(map[string]bool, len(existing))
	for _, e := range existing {
		owned[e.ID] = true
	}

	categoryIDs, err := t.categoryIDs(ctx, accountID)
	if err != nil {
		return nil, err
	}

	prepared := make([]domain.Expense, len(items))
	for i, item := range items {
		if !owned[item.ID] {
			return nil, fmt.Errorf("expense %s: %w", item.ID, domain.ErrNotFound)
		}
		e, err := prepareExpense(item)
		if err != nil {
			return nil, err
		}
		e.CategoryID = categoryIDs[e.Category]
		prepared[i] = e
	}

	updated := make([]domain.Expense, 0, len(prepared))
	for _, e := range prepared {
		u, err := t.store.UpdateExpense(ctx, accountID, e)
		if err != nil {
			return nil, fmt.Errorf("update expense %s: %w", e.ID, err)
		}
		if u == nil {
			return nil, fmt.Errorf("expense %s: %w", e.ID, domain.ErrNotFound)
		}
		updated = append(updated, *u)
	}
	slog.Info("expenses updated", "account_id", accountID, "count", len(updated))
	return updated, nil
}

// DeleteExpenses removes the account's expenses among ids. Unknown or
// foreign ids are ignored.
func (t *Tracker) DeleteExpenses(ctx context.Context, accountID string, ids []string) (int64, error) {
	if err := checkID(accountID); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, domain.NewValidationError("No expenses to delete.")
	}
	if err := checkIDs("deletedExpenses", ids); err != nil {
		return 0, err
	}

	n, err := t.store.DeleteExpenses(ctx, accountID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete expenses: %w", err)
	}
	slog.Info("expenses deleted", "account_id", accountID, "requested", len(ids), "deleted", n)
	return n, nil
}
