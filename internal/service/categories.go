// internal/service/categories.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"expense-hive/internal/domain"
	"expense-hive/internal/validator"
)

func (t *Tracker) ListCategories(ctx context.Context, accountID string) ([]domain.Category, error) {
	if err := checkID(accountID); err != nil {
		return nil, err
	}
	categories, err := t.store.ListCategories(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if len(categories) == 0 {
		return nil, fmt.Errorf("no categories for account %s: %w", accountID, domain.ErrNotFound)
	}
	return categories, nil
}

// conflicts lists every name or color used more than once in set. Colors
// compare case-insensitively.
func conflicts(set []domain.Category) []string {
	var msgs []string
	names := make(map[string]bool, len(set))
	colors := make(map[string]bool, len(set))
	for _, c := range set {
		if names[c.Name] {
			msgs = append(msgs, fmt.Sprintf("category name %q already exists", c.Name))
		}
		color := strings.ToUpper(c.Color)
		if colors[color] {
			msgs = append(msgs, fmt.Sprintf("category color %q already in use", c.Color))
		}
		names[c.Name] = true
		colors[color] = true
	}
	return msgs
}

func validateCategories(items []domain.Category) error {
	for _, c := range items {
		if err := validator.Struct(c); err != nil {
			return err
		}
	}
	return nil
}

// CreateCategories adds a batch of categories. Names and colors must be
// unique within the batch and against the account's existing categories.
func (t *Tracker) CreateCategories(ctx context.Context, accountID string, items []domain.Category) ([]domain.Category, error) {
	if err := t.requireAccount(ctx, accountID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError(`"categories" must contain at least 1 item`)
	}
	if err := validateCategories(items); err != nil {
		return nil, err
	}

	existing, err := t.store.ListCategories(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	if msgs := conflicts(append(existing, items...)); len(msgs) > 0 {
		return nil, &domain.ConflictError{Messages: msgs}
	}

	created, err := t.store.InsertCategories(ctx, accountID, items)
	if err != nil {
		return nil, fmt.Errorf("insert categories: %w", err)
	}

	// Expenses filed under these names before the category existed.
	for _, c := range created {
		if _, err := t.store.RenameCategory(ctx, accountID, c.ID, c.Name, c.Name); err != nil {
			return nil, fmt.Errorf("link expenses to %s: %w", c.Name, err)
		}
	}

	slog.Info("categories created", "account_id", accountID, "count", len(created))
	return created, nil
}

// UpdateCategories renames or recolors owned categories. A rename is
// carried over to every expense filed under the category.
func (t *Tracker) UpdateCategories(ctx context.Context, accountID string, items []domain.Category) ([]domain.Category, error) {
	if err := checkID(accountID); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.NewValidationError("No categories to update.")
	}
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	if err := checkIDs("_id", ids); err != nil {
		return nil, err
	}
	if err := validateCategories(items); err != nil {
		return nil, err
	}

	existing, err := t.store.ListCategories(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	byID := make(map[string]domain.Category, len(existing))
	for _, c := range existing {
		byID[c.ID] = c
	}

	changes := make(map[string]domain.Category, len(items))
	for _, item := range items {
		if _, ok := byID[item.ID]; !ok {
			return nil, fmt.Errorf("category %s: %w", item.ID, domain.ErrNotFound)
		}
		if _, dup := changes[item.ID]; dup {
			return nil, domain.NewValidationError(fmt.Sprintf("category %s listed more than once", item.ID))
		}
		changes[item.ID] = item
	}

	after := make([]domain.Category, 0, len(existing))
	for _, c := range existing {
		if u, ok := changes[c.ID]; ok {
			c.Name, c.Color = u.Name, u.Color
		}
		after = append(after, c)
	}
	if msgs := conflicts(after); len(msgs) > 0 {
		return nil, &domain.ConflictError{Messages: msgs}
	}

	updated := make([]domain.Category, 0, len(items))
	for _, item := range items {
		u, err := t.store.UpdateCategory(ctx, accountID, item)
		if err != nil {
			return nil, fmt.Errorf("update category %s: %w", item.ID, err)
		}
		if u == nil {
			return nil, fmt.Errorf("category %s: %w", item.ID, domain.ErrNotFound)
		}

		old := byID[item.ID]
		if old.Name != u.Name {
			n, err := t.store.RenameCategory(ctx, accountID, u.ID, old.Name, u.Name)
			if err != nil {
				return nil, fmt.Errorf("rename expenses of %s: %w", u.ID, err)
			}
			slog.Info("category renamed", "account_id", accountID, "category_id", u.ID, "from", old.Name, "to", u.Name, "expenses", n)
		}
		updated = append(updated, *u)
	}
	return updated, nil
}

func (t *Tracker) DeleteCategories(ctx context.Context, accountID string, ids []string) (int64, error) {
	if err := checkID(accountID); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, domain.NewValidationError("No categories to delete.")
	}
	if err := checkIDs("deletedCategories", ids); err != nil {
		return 0, err
	}

	n, err := t.store.DeleteCategories(ctx, accountID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete categories: %w", err)
	}
	slog.Info("categories deleted", "account_id", accountID, "requested", len(ids), "deleted", n)
	return n, nil
}
