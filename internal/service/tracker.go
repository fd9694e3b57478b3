// internal/service/tracker.go

// Package service is the single place where input is validated and
// ownership is enforced. Handlers decode requests and map errors; stores
// only persist.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expense-hive/internal/aggregate"
	"expense-hive/internal/auth"
	"expense-hive/internal/domain"
	"expense-hive/internal/storage"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type Tracker struct {
	store  storage.Storage
	tokens *auth.TokenService
	now    func() time.Time
}

func New(store storage.Storage, tokens *auth.TokenService) *Tracker {
	return &Tracker{store: store, tokens: tokens, now: time.Now}
}

// Store exposes the backend, for health checks.
func (t *Tracker) Store() storage.Storage {
	return t.store
}

func checkID(id string) error {
	if !domain.ValidID(id) {
		return fmt.Errorf("%w: %q", domain.ErrInvalidID, id)
	}
	return nil
}

func (t *Tracker) requireAccount(ctx context.Context, accountID string) error {
	if err := checkID(accountID); err != nil {
		return err
	}
	account, err := t.store.FindAccountByID(ctx, accountID)
	if err != nil {
		return fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return fmt.Errorf("account %s: %w", accountID, domain.ErrNotFound)
	}
	return nil
}

// checkIDs reports every identifier that is not a valid object id.
func checkIDs(field string, ids []string) error {
	var msgs []string
	for i, id := range ids {
		if !domain.ValidID(id) {
			msgs = append(msgs, fmt.Sprintf("%q[%d] must be a valid id", field, i))
		}
	}
	if len(msgs) > 0 {
		return domain.NewValidationError(msgs...)
	}
	return nil
}

// === Summary ===

// Summary runs the aggregator over the account's expenses. An empty
// timeframe means monthly and an empty date means today (UTC).
func (t *Tracker) Summary(ctx context.Context, accountID, timeframe, date string) (aggregate.Result, error) {
	if err := checkID(accountID); err != nil {
		return aggregate.Result{}, err
	}

	tf := aggregate.Monthly
	if strings.TrimSpace(timeframe) != "" {
		tf = aggregate.ParseTimeframe(timeframe)
	}

	ref := t.now().UTC()
	if date != "" {
		d, err := aggregate.CalendarDay(date)
		if err != nil {
			return aggregate.Result{}, domain.NewValidationError(`"date" must be in ISO 8601 date format`)
		}
		ref = d
	}

	expenses, err := t.store.ListExpenses(ctx, accountID)
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("list expenses: %w", err)
	}
	categories, err := t.store.ListCategories(ctx, accountID)
	if err != nil {
		return aggregate.Result{}, fmt.Errorf("list categories: %w", err)
	}

	result, err := aggregate.Run(expenses, aggregate.ColorsFrom(categories), tf, ref)
	if err != nil {
		slog.Warn("summary rejected", "account_id", accountID, "error", err)
		return aggregate.Result{}, err
	}
	return result, nil
}
