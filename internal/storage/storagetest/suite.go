// internal/storage/storagetest/suite.go

// Package storagetest holds the behaviour every storage backend must share.
// Backends embed Suite in their own tests and provide a fresh store per test.
package storagetest

import (
	"context"
	"errors"

	"expense-hive/internal/domain"
	"expense-hive/internal/storage"

	"github.com/stretchr/testify/suite"
)

type Suite struct {
	suite.Suite
	// NewStore returns an empty store. Called before each test.
	NewStore func() storage.Storage

	Store storage.Storage
	ctx   context.Context
}

func (s *Suite) SetupTest() {
	s.ctx = context.Background()
	s.Store = s.NewStore()
}

func (s *Suite) TearDownTest() {
	if s.Store != nil {
		s.Require().NoError(s.Store.Close(s.ctx))
	}
}

func (s *Suite) account(email string) string {
	a, err := s.Store.CreateAccount(s.ctx, domain.Account{Email: email, PasswordHash: "hash"})
	s.Require().NoError(err)
	return a.ID
}

func (s *Suite) TestAccounts() {
	id := s.account("ann@example.com")
	s.True(domain.ValidID(id))

	got, err := s.Store.FindAccountByEmail(s.ctx, "ann@example.com")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal(id, got.ID)
	s.Equal("hash", got.PasswordHash)
	s.False(got.CreatedAt.IsZero())

	byID, err := s.Store.FindAccountByID(s.ctx, id)
	s.Require().NoError(err)
	s.Require().NotNil(byID)
	s.Equal("ann@example.com", byID.Email)

	missing, err := s.Store.FindAccountByEmail(s.ctx, "bob@example.com")
	s.NoError(err)
	s.Nil(missing)

	missing, err = s.Store.FindAccountByID(s.ctx, domain.NewID())
	s.NoError(err)
	s.Nil(missing)

	_, err = s.Store.CreateAccount(s.ctx, domain.Account{Email: "ann@example.com", PasswordHash: "x"})
	s.True(errors.Is(err, domain.ErrConflict), "duplicate email: %v", err)
}

func (s *Suite) TestCategories() {
	acc := s.account("cat@example.com")
	other := s.account("other@example.com")

	created, err := s.Store.InsertCategories(s.ctx, acc, []domain.Category{
		{Name: "Food", Color: "#FF0000"},
		{Name: "Rent", Color: "#00FF00"},
	})
	s.Require().NoError(err)
	s.Require().Len(created, 2)
	s.True(domain.ValidID(created[0].ID))

	list, err := s.Store.ListCategories(s.ctx, acc)
	s.Require().NoError(err)
	s.Len(list, 2)

	list, err = s.Store.ListCategories(s.ctx, other)
	s.Require().NoError(err)
	s.Empty(list)

	// Same name is fine for a different account.
	_, err = s.Store.InsertCategories(s.ctx, other, []domain.Category{{Name: "Food", Color: "#FF0000"}})
	s.NoError(err)

	_, err = s.Store.InsertCategories(s.ctx, acc, []domain.Category{{Name: "Food", Color: "#0000FF"}})
	s.True(errors.Is(err, domain.ErrConflict), "duplicate name: %v", err)

	updated, err := s.Store.UpdateCategory(s.ctx, acc, domain.Category{ID: created[0].ID, Name: "Groceries", Color: "#FF0000"})
	s.Require().NoError(err)
	s.Require().NotNil(updated)
	s.Equal("Groceries", updated.Name)

	foreign, err := s.Store.UpdateCategory(s.ctx, other, domain.Category{ID: created[0].ID, Name: "Stolen", Color: "#123456"})
	s.NoError(err)
	s.Nil(foreign)

	n, err := s.Store.DeleteCategories(s.ctx, other, []string{created[1].ID})
	s.NoError(err)
	s.Zero(n)

	n, err = s.Store.DeleteCategories(s.ctx, acc, []string{created[1].ID})
	s.NoError(err)
	s.EqualValues(1, n)

	list, err = s.Store.ListCategories(s.ctx, acc)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Groceries", list[0].Name)
}

func (s *Suite) TestExpenses() {
	acc := s.account("exp@example.com")
	other := s.account("other@example.com")

	created, err := s.Store.InsertExpenses(s.ctx, acc, []domain.Expense{
		{Name: "Lunch", Amount: 12.5, Date: "2024-03-15T00:00:00.000Z", Category: "Food"},
		{Name: "Rent", Amount: 800, Date: "2024-03-01T00:00:00.000Z", Category: "Home"},
		{Name: "Coffee", Amount: 3.2, Date: "2024-03-16T08:30:00.000Z", Category: "Food"},
	})
	s.Require().NoError(err)
	s.Require().Len(created, 3)

	list, err := s.Store.ListExpenses(s.ctx, acc)
	s.Require().NoError(err)
	s.Require().Len(list, 3)
	s.Equal("Lunch", list[0].Name)
	s.Equal(12.5, list[0].Amount)
	s.Equal("2024-03-15T00:00:00.000Z", list[0].Date)
	s.Equal("2024-03-16T08:30:00.000Z", list[2].Date)

	list, err = s.Store.ListExpenses(s.ctx, other)
	s.Require().NoError(err)
	s.Empty(list)

	changed := created[0]
	changed.Amount = 14.75
	changed.Name = "Big lunch"
	updated, err := s.Store.UpdateExpense(s.ctx, acc, changed)
	s.Require().NoError(err)
	s.Require().NotNil(updated)
	s.Equal(14.75, updated.Amount)

	foreign, err := s.Store.UpdateExpense(s.ctx, other, changed)
	s.NoError(err)
	s.Nil(foreign)

	n, err := s.Store.DeleteExpenses(s.ctx, acc, []string{created[1].ID, domain.NewID()})
	s.NoError(err)
	s.EqualValues(1, n)

	list, err = s.Store.ListExpenses(s.ctx, acc)
	s.Require().NoError(err)
	s.Len(list, 2)
}

func (s *Suite) TestRenameCategory() {
	acc := s.account("rename@example.com")
	catID := domain.NewID()

	_, err := s.Store.InsertExpenses(s.ctx, acc, []domain.Expense{
		{Name: "a", Amount: 1, Date: "2024-03-15T00:00:00.000Z", Category: "Food", CategoryID: catID},
		{Name: "b", Amount: 2, Date: "2024-03-15T00:00:00.000Z", Category: "Food"},
		{Name: "c", Amount: 3, Date: "2024-03-15T00:00:00.000Z", Category: "Fun"},
	})
	s.Require().NoError(err)

	n, err := s.Store.RenameCategory(s.ctx, acc, catID, "Food", "Groceries")
	s.Require().NoError(err)
	s.EqualValues(2, n)

	list, err := s.Store.ListExpenses(s.ctx, acc)
	s.Require().NoError(err)
	s.Equal("Groceries", list[0].Category)
	s.Equal("Groceries", list[1].Category)
	s.Equal(catID, list[1].CategoryID)
	s.Equal("Fun", list[2].Category)
}

func (s *Suite) TestDeleteCategoryUnlinksExpenses() {
	acc := s.account("unlink@example.com")
	other := s.account("unlink-other@example.com")

	cats, err := s.Store.InsertCategories(s.ctx, acc, []domain.Category{{Name: "Food", Color: "#FF0000"}})
	s.Require().NoError(err)
	catID := cats[0].ID

	_, err = s.Store.InsertExpenses(s.ctx, acc, []domain.Expense{
		{Name: "a", Amount: 1, Date: "2024-03-15T00:00:00.000Z", Category: "Food", CategoryID: catID},
	})
	s.Require().NoError(err)
	_, err = s.Store.InsertExpenses(s.ctx, other, []domain.Expense{
		{Name: "b", Amount: 2, Date: "2024-03-15T00:00:00.000Z", Category: "Food", CategoryID: catID},
	})
	s.Require().NoError(err)

	n, err := s.Store.DeleteCategories(s.ctx, acc, []string{catID})
	s.Require().NoError(err)
	s.EqualValues(1, n)

	list, err := s.Store.ListExpenses(s.ctx, acc)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal("Food", list[0].Category)
	s.Empty(list[0].CategoryID)

	list, err = s.Store.ListExpenses(s.ctx, other)
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(catID, list[0].CategoryID)
}
