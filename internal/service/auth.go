// internal/service/auth.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"expense-hive/internal/auth"
	"expense-hive/internal/domain"
	"expense-hive/internal/validator"
)

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,strongpassword"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (t *Tracker) Register(ctx context.Context, in RegisterInput) (*domain.Account, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validator.Struct(in); err != nil {
		return nil, err
	}

	existing, err := t.store.FindAccountByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	if existing != nil {
		return nil, &domain.ConflictError{Messages: []string{"Email already exists"}}
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	account, err := t.store.CreateAccount(ctx, domain.Account{
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    t.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}

	slog.Info("account registered", "account_id", account.ID)
	return account, nil
}

func (t *Tracker) Login(ctx context.Context, in LoginInput) (domain.Session, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validator.Struct(in); err != nil {
		return domain.Session{}, err
	}

	account, err := t.store.FindAccountByEmail(ctx, in.Email)
	if err != nil {
		return domain.Session{}, fmt.Errorf("find account: %w", err)
	}
	if account == nil || !auth.CheckPassword(in.Password, account.PasswordHash) {
		return domain.Session{}, ErrInvalidCredentials
	}
	return t.tokens.IssueSession(account.ID)
}

// Refresh issues a new session for a still-existing account.
func (t *Tracker) Refresh(ctx context.Context, refreshToken string) (domain.Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return domain.Session{}, domain.NewValidationError(`"refreshToken" is required`)
	}
	claims, err := t.tokens.ParseToken(refreshToken, auth.KindRefresh)
	if err != nil {
		return domain.Session{}, err
	}

	account, err := t.store.FindAccountByID(ctx, claims.AccountID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		slog.Warn("refresh for missing account", "account_id", claims.AccountID)
		return domain.Session{}, auth.ErrInvalidToken
	}
	return t.tokens.IssueSession(account.ID)
}
