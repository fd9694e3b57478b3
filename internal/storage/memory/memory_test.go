package memory

import (
	"context"
	"sync"
	"testing"

	"expense-hive/internal/domain"
	"expense-hive/internal/storage"
	"expense-hive/internal/storage/storagetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMemoryStorage(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		NewStore: func() storage.Storage { return NewStorage() },
	})
}

func TestListReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	acc := domain.NewID()
	_, err := s.InsertExpenses(ctx, acc, []domain.Expense{{Name: "a", Amount: 1, Date: "2024-03-15T00:00:00.000Z", Category: "x"}})
	require.NoError(t, err)

	list, err := s.ListExpenses(ctx, acc)
	require.NoError(t, err)
	list[0].Name = "changed"

	again, err := s.ListExpenses(ctx, acc)
	require.NoError(t, err)
	assert.Equal(t, "a", again[0].Name)
}

func TestConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	s := NewStorage()
	acc := domain.NewID()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.InsertExpenses(ctx, acc, []domain.Expense{{Name: "a", Amount: 1, Date: "2024-03-15T00:00:00.000Z", Category: "x"}})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.ListExpenses(ctx, acc)
	require.NoError(t, err)
	assert.Len(t, list, 20)
}
