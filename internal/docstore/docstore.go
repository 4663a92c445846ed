// Package docstore provides a small document store with named collections
// and optimistic transactions. Documents are JSON values keyed by a
// store-assigned id. Two backends exist: an in-memory store used by tests
// and the dev mode, and a Postgres store backed by a JSONB table.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrConflict is returned when an optimistic transaction read a document
	// that was modified by another transaction before commit. RunTx retries
	// a bounded number of times before surfacing it.
	ErrConflict = errors.New("transaction conflict")

	// ErrTimeout is returned when a transaction exceeded its allotted time.
	ErrTimeout = errors.New("transaction timed out")
)

// Doc is a raw document together with its store-assigned id.
type Doc struct {
	ID   string
	Data json.RawMessage
}

// Decode unmarshals the document body into out.
func (d Doc) Decode(out any) error {
	return json.Unmarshal(d.Data, out)
}

// Op is a filter comparison operator.
type Op string

const (
	OpEqual Op = "=="
	OpGTE   Op = ">="
	OpLTE   Op = "<="
	OpLT    Op = "<"
)

// Filter compares a single top-level document field against a value.
// String values compare lexically, numeric values numerically.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query selects documents from a collection. All filters must match.
type Query struct {
	Filters []Filter
	Limit   int
}

// DayFilters builds the filter pair selecting documents whose RFC 3339
// timestamp field falls on the given calendar day (inclusive). The day is
// an ISO date string such as "2024-03-17".
func DayFilters(field, day string) ([]Filter, error) {
	start, err := time.Parse(time.DateOnly, day)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", day, err)
	}

	end := start.AddDate(0, 0, 1)

	return []Filter{
		{Field: field, Op: OpGTE, Value: start.Format(time.DateOnly)},
		{Field: field, Op: OpLT, Value: end.Format(time.DateOnly)},
	}, nil
}

// Tx is the handle passed to a RunTx function. Reads observe a consistent
// snapshot; writes become visible atomically at commit, or not at all.
type Tx interface {
	// Get reads a document into out. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string, out any) error

	// Create inserts a document under a fresh id and returns the id.
	Create(ctx context.Context, collection string, v any) (string, error)

	// Set writes a document under the given id, creating or replacing it.
	Set(ctx context.Context, collection, id string, v any) error

	// Update merges the given top-level fields into an existing document.
	// Returns ErrNotFound if the document does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// Delete removes a document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, collection, id string) error
}

// Store is the document store interface consumed by the services.
type Store interface {
	Get(ctx context.Context, collection, id string, out any) error
	List(ctx context.Context, collection string) ([]Doc, error)
	Query(ctx context.Context, collection string, q Query) ([]Doc, error)
	Create(ctx context.Context, collection string, v any) (string, error)
	Set(ctx context.Context, collection, id string, v any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error

	// RunTx executes fn inside an optimistic transaction. On ErrConflict the
	// whole function is retried from scratch with backoff; after the retry
	// budget is exhausted the conflict is surfaced to the caller. Any other
	// error aborts the transaction without retrying.
	RunTx(ctx context.Context, fn func(tx Tx) error) error
}

const (
	txMaxAttempts    = 3
	txInitialBackoff = 25 * time.Millisecond
)

// runWithRetry drives one transaction attempt at a time, retrying only on
// conflicts. Validation errors pass straight through on the first attempt.
func runWithRetry(ctx context.Context, attempt func() error) error {
	backoff := txInitialBackoff

	var err error

	for i := 0; i < txMaxAttempts; i++ {
		err = attempt()
		if !errors.Is(err, ErrConflict) {
			return err
		}

		select {
		case <-ctx.Done():
			return contextError(ctx)
		case <-time.After(backoff):
		}

		backoff *= 2
	}

	return err
}

func contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}

	return ctx.Err()
}
