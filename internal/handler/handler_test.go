package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expense-hive/internal/auth"
	"expense-hive/internal/config"
	"expense-hive/internal/domain"
	"expense-hive/internal/service"
	"expense-hive/internal/storage/memory"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type APISuite struct {
	suite.Suite
	router  *gin.Engine
	store   *memory.Storage
	token   string
	refresh string
	account string
}

func TestAPI(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:           "handler-test-secret-handler-test-secret",
		JWTExpiresIn:        time.Hour,
		JWTRefreshExpiresIn: 24 * time.Hour,
		CORSOrigins:         []string{"*"},
	}
}

func (s *APISuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	tokens := auth.NewTokenService(cfg)
	s.store = memory.NewStorage()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.router = NewRouter(New(service.New(s.store, tokens)), tokens, cfg, logger)

	s.token, s.refresh, s.account = s.signUp("ann@example.com")
}

func (s *APISuite) signUp(email string) (token, refresh, account string) {
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": email, "password": "Secret1!"})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": email, "password": "Secret1!"})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Success      bool   `json:"success"`
		Token        string `json:"token"`
		RefreshToken string `json:"refreshToken"`
		Account      string `json:"account"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	s.Require().True(body.Success)
	return body.Token, body.RefreshToken, body.Account
}

func (s *APISuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](s *APISuite, w *httptest.ResponseRecorder) T {
	var v T
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *APISuite) TestHealth() {
	w := s.do(http.MethodGet, "/api/v1/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"status":"ok","storage":"memory"}`, w.Body.String())
	s.NotEmpty(w.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestRequestIDIsEchoed() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal("abc-123", w.Header().Get("X-Request-ID"))
}

func (s *APISuite) TestRegisterErrors() {
	w := s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "ann@example.com", "password": "Secret1!"})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{"email": "not-an-email", "password": "weak"})
	s.Equal(http.StatusBadRequest, w.Code)
	body := decode[map[string]any](s, w)
	s.Equal(false, body["success"])
	s.Len(body["message"], 2)
}

func (s *APISuite) TestLoginWrongPassword() {
	w := s.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{"email": "ann@example.com", "password": "Wrong1!x"})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestRefresh() {
	w := s.do(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refreshToken": s.refresh})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	body := decode[map[string]any](s, w)
	s.Equal(s.account, body["account"])

	w = s.do(http.MethodPost, "/api/v1/auth/refresh", "", gin.H{"refreshToken": s.token})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestAuthRequired() {
	w := s.do(http.MethodGet, "/api/v1/expenses/"+s.account, "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"success":false,"message":"No token provided"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/expenses/"+s.account, "garbage", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"success":false,"message":"Invalid token"}`, w.Body.String())

	// A refresh token is not an access token.
	w = s.do(http.MethodGet, "/api/v1/expenses/"+s.account, s.refresh, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *APISuite) TestExpiredToken() {
	cfg := testConfig()
	cfg.JWTExpiresIn = -time.Minute
	session, err := auth.NewTokenService(cfg).IssueSession(s.account)
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/api/v1/expenses/"+s.account, session.AccessToken, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.JSONEq(`{"success":false,"message":"Token has expired"}`, w.Body.String())
}

func (s *APISuite) TestForeignAccountIsForbidden() {
	otherToken, _, _ := s.signUp("eve@example.com")

	w := s.do(http.MethodGet, "/api/v1/expenses/"+s.account, otherToken, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/expenses", otherToken, gin.H{
		"account":  s.account,
		"expenses": []gin.H{{"name": "x", "amount": 1, "date": "2024-03-15", "category": "Food"}},
	})
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *APISuite) TestInvalidAccountID() {
	w := s.do(http.MethodGet, "/api/v1/expenses/123", s.token, nil)
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"error":"Invalid account ID"}`, w.Body.String())
}

func (s *APISuite) TestExpenseLifecycle() {
	w := s.do(http.MethodGet, "/api/v1/expenses/"+s.account, s.token, nil)
	s.Equal(http.StatusNotFound, w.Code)
	s.JSONEq(`{"message":"No expenses found for this user"}`, w.Body.String())

	w = s.do(http.MethodPost, "/api/v1/expenses", s.token, gin.H{
		"account": s.account,
		"expenses": []gin.H{
			{"name": "Lunch", "amount": 12.5, "date": "2024-03-15", "category": "Food"},
			{"name": "Taxi", "amount": 20, "date": "2024-03-14T18:30:00Z", "category": "Travel"},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	created := decode[struct {
		Success  bool             `json:"success"`
		Expenses []domain.Expense `json:"expenses"`
	}](s, w)
	s.True(created.Success)
	s.Require().Len(created.Expenses, 2)
	s.Equal("2024-03-15T00:00:00.000Z", created.Expenses[0].Date)

	w = s.do(http.MethodGet, "/api/v1/expenses/"+s.account, s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	list := decode[[]domain.Expense](s, w)
	s.Len(list, 2)

	changed := created.Expenses[0]
	changed.Amount = 14
	w = s.do(http.MethodPut, "/api/v1/expenses", s.token, gin.H{"modifiedExpenses": []domain.Expense{changed}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	updated := decode[map[string]any](s, w)
	s.Equal("Expenses updated successfully", updated["message"])

	w = s.do(http.MethodDelete, "/api/v1/expenses", s.token, gin.H{"deletedExpenses": []string{}})
	s.Equal(http.StatusBadRequest, w.Code)
	s.JSONEq(`{"message":"No expenses to delete."}`, w.Body.String())

	w = s.do(http.MethodDelete, "/api/v1/expenses", s.token, gin.H{"deletedExpenses": []string{changed.ID}})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal("Expenses deleted successfully.", decode[map[string]any](s, w)["message"])
}

func (s *APISuite) TestCreateExpensesValidation() {
	w := s.do(http.MethodPost, "/api/v1/expenses", s.token, gin.H{
		"expenses": []gin.H{{"name": "Lunch", "amount": -3, "date": "2024-03-15", "category": "Food"}},
	})
	s.Equal(http.StatusBadRequest, w.Code)
	body := decode[map[string]any](s, w)
	s.Equal(false, body["success"])
	s.Equal([]any{`"amount" must be a positive number`}, body["message"])

	w = s.do(http.MethodPost, "/api/v1/expenses", s.token, "not an object")
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *APISuite) TestCategoriesAndSummary() {
	w := s.do(http.MethodPost, "/api/v1/categories", s.token, gin.H{
		"account":    s.account,
		"categories": []gin.H{{"name": "Food", "color": "#FF0000"}, {"name": "Rent", "color": "#00FF00"}},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	cats := decode[struct {
		Categories []domain.Category `json:"categories"`
	}](s, w).Categories
	s.Require().Len(cats, 2)

	w = s.do(http.MethodPost, "/api/v1/categories", s.token, gin.H{
		"categories": []gin.H{{"name": "Food", "color": "#0000FF"}},
	})
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/expenses", s.token, gin.H{
		"expenses": []gin.H{
			{"name": "Lunch", "amount": 25, "date": "2024-03-15", "category": "Food"},
			{"name": "Flat", "amount": 75, "date": "2024-03-01", "category": "Rent"},
			{"name": "Old", "amount": 10, "date": "2023-12-31", "category": "Rent"},
		},
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/expenses/"+s.account+"/summary?timeframe=monthly&date=2024-03-20", s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	summary := decode[struct {
		Timeframe string  `json:"timeframe"`
		Reference string  `json:"reference"`
		Total     float64 `json:"total"`
		Buckets   []struct {
			Name  string  `json:"name"`
			Value float64 `json:"value"`
			Color string  `json:"color"`
			Share float64 `json:"share"`
			Label string  `json:"label"`
		} `json:"buckets"`
	}](s, w)
	s.Equal("monthly", summary.Timeframe)
	s.Equal("2024-03-20", summary.Reference)
	s.Equal(100.0, summary.Total)
	s.Require().Len(summary.Buckets, 2)
	s.Equal("Food", summary.Buckets[0].Name)
	s.Equal("#FF0000", summary.Buckets[0].Color)
	s.Equal("25.00", summary.Buckets[0].Label)
	s.Equal(75.0, summary.Buckets[1].Share)

	w = s.do(http.MethodGet, "/api/v1/expenses/"+s.account+"/summary?date=tomorrow", s.token, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	renamed := cats[0]
	renamed.Name = "Groceries"
	w = s.do(http.MethodPut, "/api/v1/categories", s.token, gin.H{"modifiedCategories": []domain.Category{renamed}})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/expenses/"+s.account, s.token, nil)
	list := decode[[]domain.Expense](s, w)
	s.Equal("Groceries", list[0].Category)

	w = s.do(http.MethodDelete, "/api/v1/categories", s.token, gin.H{"deletedCategories": []string{cats[1].ID}})
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/categories/"+s.account, s.token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Len(decode[[]domain.Category](s, w), 1)
}

func (s *APISuite) TestSummaryMalformedStoredDate() {
	_, err := s.store.InsertExpenses(context.Background(), s.account, []domain.Expense{
		{Name: "Bad", Amount: 1, Date: "15/03/2024", Category: "Food"},
	})
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/api/v1/expenses/"+s.account+"/summary", s.token, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	body := decode[map[string]any](s, w)
	s.Len(body["records"], 1)
}

func TestRateLimitOnAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	tokens := auth.NewTokenService(cfg)
	router := NewRouter(New(service.New(memory.NewStorage(), tokens)), tokens, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))

	var last int
	for i := 0; i <= authRateLimit; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		last = w.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestCorsConfig(t *testing.T) {
	cfg := testConfig()
	cc := corsConfig(cfg)
	require.True(t, cc.AllowAllOrigins)
	assert.False(t, cc.AllowCredentials)

	cfg.CORSOrigins = []string{"https://app.example.com"}
	cc = corsConfig(cfg)
	assert.False(t, cc.AllowAllOrigins)
	assert.Equal(t, []string{"https://app.example.com"}, cc.AllowOrigins)
	assert.True(t, cc.AllowCredentials)
}
