package expense

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahanj/shopledger/internal/docstore"
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Expense, error) {
	e := &Expense{
		Description: params.Description,
		Amount:      params.Amount,
		Category:    params.Category,
		Date:        time.Now().UTC(),
	}

	id, err := s.store.Create(ctx, Collection, e)
	if err != nil {
		return nil, fmt.Errorf("creating expense: %w", err)
	}

	e.ID = id

	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Expense, error) {
	var e Expense

	if err := s.store.Get(ctx, Collection, id, &e); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	e.ID = id

	return &e, nil
}

func (s *Service) List(ctx context.Context) ([]*Expense, error) {
	docs, err := s.store.List(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	return decodeAll(docs)
}

// ByDate returns all expenses logged on the given calendar day together
// with their total amount. The day is an ISO date string ("2006-01-02").
func (s *Service) ByDate(ctx context.Context, day string) ([]*Expense, float64, error) {
	filters, err := docstore.DayFilters("date", day)
	if err != nil {
		return nil, 0, err
	}

	docs, err := s.store.Query(ctx, Collection, docstore.Query{Filters: filters})
	if err != nil {
		return nil, 0, fmt.Errorf("querying expenses by date: %w", err)
	}

	expenses, err := decodeAll(docs)
	if err != nil {
		return nil, 0, err
	}

	var total float64
	for _, e := range expenses {
		total += e.Amount
	}

	return expenses, total, nil
}

func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Expense, error) {
	fields := make(map[string]any)

	if params.Description != nil {
		fields["description"] = *params.Description
	}

	if params.Amount != nil {
		fields["amount"] = *params.Amount
	}

	if params.Category != nil {
		fields["category"] = *params.Category
	}

	if len(fields) > 0 {
		if err := s.store.Update(ctx, Collection, id, fields); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, ErrNotFound
			}

			return nil, fmt.Errorf("updating expense: %w", err)
		}
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	// Deleting is made explicit about existence so callers get a 404 for
	// unknown ids rather than a silent no-op.
	var e Expense
	if err := s.store.Get(ctx, Collection, id, &e); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("getting expense: %w", err)
	}

	if err := s.store.Delete(ctx, Collection, id); err != nil {
		return fmt.Errorf("deleting expense: %w", err)
	}

	return nil
}

// CreateTx, UpdateTx and DeleteTx are the in-transaction entry points used
// by the inventory linker to keep a purchase expense in lockstep with its
// owning item.

func (s *Service) CreateTx(ctx context.Context, tx docstore.Tx, e Expense) (string, error) {
	return tx.Create(ctx, Collection, e)
}

func (s *Service) UpdateTx(ctx context.Context, tx docstore.Tx, id string, amount float64, description string) error {
	return tx.Update(ctx, Collection, id, map[string]any{
		"amount":      amount,
		"description": description,
	})
}

func (s *Service) DeleteTx(ctx context.Context, tx docstore.Tx, id string) error {
	return tx.Delete(ctx, Collection, id)
}

func decodeAll(docs []docstore.Doc) ([]*Expense, error) {
	expenses := make([]*Expense, len(docs))

	for i, d := range docs {
		var e Expense
		if err := d.Decode(&e); err != nil {
			return nil, fmt.Errorf("decoding expense %s: %w", d.ID, err)
		}

		e.ID = d.ID
		expenses[i] = &e
	}

	return expenses, nil
}
