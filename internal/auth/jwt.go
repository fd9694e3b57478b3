// internal/auth/jwt.go
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"expense-hive/internal/config"
	"expense-hive/internal/domain"

	"github.com/golang-jwt/jwt/v5"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
)

type Claims struct {
	AccountID string `json:"account"`
	Kind      string `json:"kind"`
	jwt.RegisteredClaims
}

type TokenService struct {
	secretKey        []byte
	expiresIn        time.Duration
	refreshExpiresIn time.Duration
	now              func() time.Time
}

func NewTokenService(cfg config.Config) *TokenService {
	return &TokenService{
		secretKey:        []byte(cfg.JWTSecret),
		expiresIn:        cfg.JWTExpiresIn,
		refreshExpiresIn: cfg.JWTRefreshExpiresIn,
		now:              time.Now,
	}
}

// IssueSession signs a fresh access/refresh pair for accountID.
func (s *TokenService) IssueSession(accountID string) (domain.Session, error) {
	now := s.now()
	access, accessExp, err := s.sign(accountID, KindAccess, now, s.expiresIn)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign access token: %w", err)
	}
	refresh, refreshExp, err := s.sign(accountID, KindRefresh, now, s.refreshExpiresIn)
	if err != nil {
		return domain.Session{}, fmt.Errorf("sign refresh token: %w", err)
	}

	slog.Info("session issued", "account_id", accountID, "expires_at", accessExp.Format(time.RFC3339))
	return domain.Session{
		AccountID:        accountID,
		AccessToken:      access,
		RefreshToken:     refresh,
		ExpiresAt:        accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Refresh trades a valid refresh token for a new session.
func (s *TokenService) Refresh(refreshToken string) (domain.Session, error) {
	claims, err := s.ParseToken(refreshToken, KindRefresh)
	if err != nil {
		return domain.Session{}, err
	}
	return s.IssueSession(claims.AccountID)
}

func (s *TokenService) sign(accountID, kind string, now time.Time, ttl time.Duration) (string, time.Time, error) {
	exp := now.Add(ttl)
	claims := Claims{
		AccountID: accountID,
		Kind:      kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(s.secretKey)
	return tokenStr, exp, err
}

// ParseToken verifies tokenStr and checks it is of the expected kind.
func (s *TokenService) ParseToken(tokenStr, kind string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Kind != kind || !domain.ValidID(claims.AccountID) {
		return nil, ErrInvalidToken
	}

	slog.Debug("JWT parsed successfully", "account_id", claims.AccountID, "kind", kind)
	return claims, nil
}
