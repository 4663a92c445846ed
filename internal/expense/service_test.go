package expense_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/expense"
)

func newService() *expense.Service {
	return expense.NewService(docstore.NewMemory())
}

func TestCreateAndGet(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, expense.CreateParams{
		Description: "Shop rent",
		Amount:      1500,
		Category:    "Rent",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.False(t, created.Date.IsZero())

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shop rent", got.Description)
	assert.Equal(t, 1500.0, got.Amount)
	assert.Equal(t, "Rent", got.Category)
}

func TestGetMissing(t *testing.T) {
	svc := newService()

	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, expense.ErrNotFound)
}

func TestList(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for _, desc := range []string{"one", "two", "three"} {
		_, err := svc.Create(ctx, expense.CreateParams{Description: desc, Amount: 10})
		require.NoError(t, err)
	}

	expenses, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, expenses, 3)
}

func TestByDate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	_, err := svc.Create(ctx, expense.CreateParams{Description: "a", Amount: 100})
	require.NoError(t, err)
	_, err = svc.Create(ctx, expense.CreateParams{Description: "b", Amount: 250})
	require.NoError(t, err)

	today := time.Now().UTC().Format(time.DateOnly)

	expenses, total, err := svc.ByDate(ctx, today)
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
	assert.Equal(t, 350.0, total)

	expenses, total, err = svc.ByDate(ctx, "2000-01-01")
	require.NoError(t, err)
	assert.Empty(t, expenses)
	assert.Zero(t, total)
}

func TestByDateInvalidDay(t *testing.T) {
	svc := newService()

	_, _, err := svc.ByDate(context.Background(), "01/02/2024")
	assert.Error(t, err)
}

func TestUpdate(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, expense.CreateParams{
		Description: "Electricity",
		Amount:      80,
		Category:    "Utilities",
	})
	require.NoError(t, err)

	newAmount := 95.0

	updated, err := svc.Update(ctx, created.ID, expense.UpdateParams{Amount: &newAmount})
	require.NoError(t, err)
	assert.Equal(t, 95.0, updated.Amount)
	// Untouched fields survive.
	assert.Equal(t, "Electricity", updated.Description)
	assert.Equal(t, "Utilities", updated.Category)
}

func TestUpdateMissing(t *testing.T) {
	svc := newService()

	amount := 10.0
	_, err := svc.Update(context.Background(), "nope", expense.UpdateParams{Amount: &amount})
	assert.ErrorIs(t, err, expense.ErrNotFound)
}

func TestDelete(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, expense.CreateParams{Description: "temp", Amount: 1})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))

	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, expense.ErrNotFound)
}

func TestDeleteMissing(t *testing.T) {
	svc := newService()

	err := svc.Delete(context.Background(), "nope")
	assert.ErrorIs(t, err, expense.ErrNotFound)
}
