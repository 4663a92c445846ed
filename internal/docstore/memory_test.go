package docstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahanj/shopledger/internal/docstore"
)

type testDoc struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Price float64 `json:"price"`
	Date  string  `json:"date"`
}

func TestMemory_CreateGet(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, "docs", testDoc{Name: "widget", Count: 3})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	var got testDoc
	require.NoError(t, store.Get(ctx, "docs", id, &got))
	assert.Equal(t, "widget", got.Name)
	assert.Equal(t, 3, got.Count)
}

func TestMemory_GetMissing(t *testing.T) {
	store := docstore.NewMemory()

	var got testDoc
	err := store.Get(context.Background(), "docs", "nope", &got)
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestMemory_UpdateMergesFields(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, "docs", testDoc{Name: "widget", Count: 3, Price: 9.5})
	require.NoError(t, err)

	require.NoError(t, store.Update(ctx, "docs", id, map[string]any{"count": 10}))

	var got testDoc
	require.NoError(t, store.Get(ctx, "docs", id, &got))
	assert.Equal(t, 10, got.Count)
	// Untouched fields survive the merge.
	assert.Equal(t, "widget", got.Name)
	assert.Equal(t, 9.5, got.Price)
}

func TestMemory_UpdateMissing(t *testing.T) {
	store := docstore.NewMemory()

	err := store.Update(context.Background(), "docs", "nope", map[string]any{"count": 1})
	assert.ErrorIs(t, err, docstore.ErrNotFound)
}

func TestMemory_DeleteMissingIsNoop(t *testing.T) {
	store := docstore.NewMemory()

	assert.NoError(t, store.Delete(context.Background(), "docs", "nope"))
}

func TestMemory_QueryFilters(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	docs := []testDoc{
		{Name: "a", Count: 1, Price: 5, Date: "2024-03-16T10:00:00Z"},
		{Name: "b", Count: 2, Price: 15, Date: "2024-03-17T09:30:00Z"},
		{Name: "c", Count: 3, Price: 25, Date: "2024-03-17T23:59:59Z"},
		{Name: "d", Count: 4, Price: 35, Date: "2024-03-18T00:00:00Z"},
	}
	for _, d := range docs {
		_, err := store.Create(ctx, "docs", d)
		require.NoError(t, err)
	}

	tests := []struct {
		name    string
		filters []docstore.Filter
		want    []string
	}{
		{
			name:    "equality on string",
			filters: []docstore.Filter{{Field: "name", Op: docstore.OpEqual, Value: "b"}},
			want:    []string{"b"},
		},
		{
			name:    "numeric gte",
			filters: []docstore.Filter{{Field: "price", Op: docstore.OpGTE, Value: 15.0}},
			want:    []string{"b", "c", "d"},
		},
		{
			name:    "numeric lte",
			filters: []docstore.Filter{{Field: "count", Op: docstore.OpLTE, Value: 2}},
			want:    []string{"a", "b"},
		},
		{
			name: "calendar day bounds",
			filters: []docstore.Filter{
				{Field: "date", Op: docstore.OpGTE, Value: "2024-03-17"},
				{Field: "date", Op: docstore.OpLT, Value: "2024-03-18"},
			},
			want: []string{"b", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Query(ctx, "docs", docstore.Query{Filters: tt.filters})
			require.NoError(t, err)

			names := make([]string, len(got))
			for i, d := range got {
				var td testDoc
				require.NoError(t, d.Decode(&td))
				names[i] = td.Name
			}

			assert.ElementsMatch(t, tt.want, names)
		})
	}
}

func TestMemory_QueryLimit(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := store.Create(ctx, "docs", testDoc{Name: "x", Count: i})
		require.NoError(t, err)
	}

	got, err := store.Query(ctx, "docs", docstore.Query{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDayFilters(t *testing.T) {
	filters, err := docstore.DayFilters("date", "2024-03-17")
	require.NoError(t, err)
	require.Len(t, filters, 2)

	assert.Equal(t, docstore.OpGTE, filters[0].Op)
	assert.Equal(t, "2024-03-17", filters[0].Value)
	assert.Equal(t, docstore.OpLT, filters[1].Op)
	assert.Equal(t, "2024-03-18", filters[1].Value)

	_, err = docstore.DayFilters("date", "17/03/2024")
	assert.Error(t, err)
}

func TestMemory_TxReadValidateWrite(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, "docs", testDoc{Name: "widget", Count: 10})
	require.NoError(t, err)

	err = store.RunTx(ctx, func(tx docstore.Tx) error {
		var d testDoc
		if err := tx.Get(ctx, "docs", id, &d); err != nil {
			return err
		}

		return tx.Update(ctx, "docs", id, map[string]any{"count": d.Count - 4})
	})
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, store.Get(ctx, "docs", id, &got))
	assert.Equal(t, 6, got.Count)
}

func TestMemory_TxRetriesOnConflict(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, "docs", testDoc{Name: "widget", Count: 10})
	require.NoError(t, err)

	attempts := 0

	err = store.RunTx(ctx, func(tx docstore.Tx) error {
		attempts++

		var d testDoc
		if err := tx.Get(ctx, "docs", id, &d); err != nil {
			return err
		}

		if attempts == 1 {
			// Interleave a write after the read so the first commit fails
			// validation.
			require.NoError(t, store.Update(ctx, "docs", id, map[string]any{"count": 99}))
		}

		return tx.Update(ctx, "docs", id, map[string]any{"count": d.Count - 1})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	var got testDoc
	require.NoError(t, store.Get(ctx, "docs", id, &got))
	// The retry read the interleaved value, so its decrement wins.
	assert.Equal(t, 98, got.Count)
}

func TestMemory_TxConflictExhaustsRetries(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, "docs", testDoc{Name: "widget", Count: 10})
	require.NoError(t, err)

	attempts := 0

	err = store.RunTx(ctx, func(tx docstore.Tx) error {
		attempts++

		var d testDoc
		if err := tx.Get(ctx, "docs", id, &d); err != nil {
			return err
		}

		// Invalidate the read on every attempt.
		require.NoError(t, store.Update(ctx, "docs", id, map[string]any{"count": attempts}))

		return tx.Update(ctx, "docs", id, map[string]any{"count": 0})
	})
	assert.ErrorIs(t, err, docstore.ErrConflict)
	assert.Equal(t, 3, attempts)
}

func TestMemory_TxBusinessErrorNotRetried(t *testing.T) {
	store := docstore.NewMemory()

	attempts := 0
	wantErr := assert.AnError

	err := store.RunTx(context.Background(), func(tx docstore.Tx) error {
		attempts++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, attempts)
}

func TestMemory_TxAbortDiscardsWrites(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	id, err := store.Create(ctx, "docs", testDoc{Name: "widget", Count: 10})
	require.NoError(t, err)

	err = store.RunTx(ctx, func(tx docstore.Tx) error {
		if err := tx.Update(ctx, "docs", id, map[string]any{"count": 0}); err != nil {
			return err
		}

		return assert.AnError
	})
	require.Error(t, err)

	var got testDoc
	require.NoError(t, store.Get(ctx, "docs", id, &got))
	assert.Equal(t, 10, got.Count)
}

func TestMemory_TxReadAbsentConflictsWithCreate(t *testing.T) {
	store := docstore.NewMemory()
	ctx := context.Background()

	attempts := 0

	err := store.RunTx(ctx, func(tx docstore.Tx) error {
		attempts++

		var d testDoc

		err := tx.Get(ctx, "docs", "shared", &d)
		if err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return err
		}

		if attempts == 1 {
			// The document appears between our absent read and commit.
			require.NoError(t, store.Set(ctx, "docs", "shared", testDoc{Name: "other"}))
		}

		return tx.Set(ctx, "docs", "shared", testDoc{Name: "mine"})
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)

	var got testDoc
	require.NoError(t, store.Get(ctx, "docs", "shared", &got))
	assert.Equal(t, "mine", got.Name)
}

func TestMemory_TxCancelledContext(t *testing.T) {
	store := docstore.NewMemory()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.RunTx(ctx, func(tx docstore.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
