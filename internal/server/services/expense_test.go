package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/common"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validExpense(date time.Time) *models.Expense {
	return &models.Expense{
		Date:        date,
		Category:    "groceries",
		Description: "weekly shop",
		Currency:    "eur",
		Amount:      42.10,
	}
}

func TestExpenseCreate(t *testing.T) {
	f := newFixture(t)
	alice, bob := registerPair(t, f)

	in := validExpense(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	in.UserID = bob.ID
	in.ID = 99

	e, err := f.expenses.Create(context.Background(), alice.ID, in)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, e.UserID)
	assert.NotEqual(t, int64(99), e.ID)
	assert.Equal(t, "EUR", e.Currency)
	assert.True(t, e.IsActive)
}

func TestExpenseCreate_Validation(t *testing.T) {
	f := newFixture(t)
	alice, _ := registerPair(t, f)
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		mutate func(e *models.Expense)
	}{
		{"no date", func(e *models.Expense) { e.Date = time.Time{} }},
		{"no category", func(e *models.Expense) { e.Category = "" }},
		{"no description", func(e *models.Expense) { e.Description = "" }},
		{"no currency", func(e *models.Expense) { e.Currency = "" }},
		{"long currency", func(e *models.Expense) { e.Currency = "EURO" }},
		{"numeric currency", func(e *models.Expense) { e.Currency = "978" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validExpense(day)
			tt.mutate(e)
			_, err := f.expenses.Create(context.Background(), alice.ID, e)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestExpenseListAndDelete(t *testing.T) {
	f := newFixture(t)
	alice, bob := registerPair(t, f)
	ctx := context.Background()
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	first, err := f.expenses.Create(ctx, alice.ID, validExpense(day))
	require.NoError(t, err)
	second, err := f.expenses.Create(ctx, alice.ID, validExpense(day.AddDate(0, 1, 0)))
	require.NoError(t, err)

	list, err := f.expenses.List(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)

	empty, err := f.expenses.List(ctx, bob.ID)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.ErrorIs(t, f.expenses.Delete(ctx, bob.ID, first.ID), common.ErrorNotFound)
	require.NoError(t, f.expenses.Delete(ctx, alice.ID, first.ID))
	assert.ErrorIs(t, f.expenses.Delete(ctx, alice.ID, first.ID), common.ErrorNotFound)
}
