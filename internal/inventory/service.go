package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/expense"
)

type Service struct {
	store    docstore.Store
	expenses *expense.Service
}

func NewService(store docstore.Store, expenses *expense.Service) *Service {
	return &Service{store: store, expenses: expenses}
}

// Create takes a new item into stock and synthesizes the matching purchase
// expense. Both documents are written in one transaction so a failed item
// write cannot leave an unlinked expense behind.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Item, error) {
	if params.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	item := &Item{
		Name:          params.Name,
		ModelNumber:   params.ModelNumber,
		Quantity:      params.Quantity,
		PurchasePrice: params.PurchasePrice,
		SellingPrice:  params.SellingPrice,
	}

	err := s.store.RunTx(ctx, func(tx docstore.Tx) error {
		cost := params.PurchasePrice * float64(params.Quantity)

		expenseID, err := s.expenses.CreateTx(ctx, tx, expense.Expense{
			Description: PurchaseDescription(params.Quantity, params.Name, params.ModelNumber),
			Amount:      cost,
			Category:    expense.CategoryInventory,
			Date:        time.Now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("creating purchase expense: %w", err)
		}

		item.ExpenseID = expenseID

		id, err := tx.Create(ctx, Collection, item)
		if err != nil {
			return fmt.Errorf("creating item: %w", err)
		}

		item.ID = id

		return nil
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Item, error) {
	var item Item

	if err := s.store.Get(ctx, Collection, id, &item); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting item: %w", err)
	}

	item.ID = id

	return &item, nil
}

func (s *Service) List(ctx context.Context) ([]*Item, error) {
	docs, err := s.store.List(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	items := make([]*Item, len(docs))

	for i, d := range docs {
		var item Item
		if err := d.Decode(&item); err != nil {
			return nil, fmt.Errorf("decoding item %s: %w", d.ID, err)
		}

		item.ID = d.ID
		items[i] = &item
	}

	return items, nil
}

// Update patches an item. When quantity or purchase price change and the
// item owns a linked expense, the expense's amount and description are
// recomputed in the same transaction.
func (s *Service) Update(ctx context.Context, id string, params UpdateParams) (*Item, error) {
	if params.Quantity != nil && *params.Quantity < 0 {
		return nil, ErrInvalidQuantity
	}

	var updated Item

	err := s.store.RunTx(ctx, func(tx docstore.Tx) error {
		var item Item
		if err := tx.Get(ctx, Collection, id, &item); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("getting item: %w", err)
		}

		costChanged := params.Quantity != nil || params.PurchasePrice != nil

		if costChanged && item.ExpenseID != "" {
			quantity := item.Quantity
			if params.Quantity != nil {
				quantity = *params.Quantity
			}

			price := item.PurchasePrice
			if params.PurchasePrice != nil {
				price = *params.PurchasePrice
			}

			name := item.Name
			if params.Name != nil {
				name = *params.Name
			}

			model := item.ModelNumber
			if params.ModelNumber != nil {
				model = *params.ModelNumber
			}

			err := s.expenses.UpdateTx(ctx, tx, item.ExpenseID,
				price*float64(quantity),
				PurchaseDescription(quantity, name, model),
			)
			if err != nil {
				return fmt.Errorf("updating linked expense: %w", err)
			}
		}

		fields := make(map[string]any)

		if params.Name != nil {
			item.Name = *params.Name
			fields["itemName"] = *params.Name
		}

		if params.ModelNumber != nil {
			item.ModelNumber = *params.ModelNumber
			fields["modelNumber"] = *params.ModelNumber
		}

		if params.Quantity != nil {
			item.Quantity = *params.Quantity
			fields["quantity"] = *params.Quantity
		}

		if params.PurchasePrice != nil {
			item.PurchasePrice = *params.PurchasePrice
			fields["purchasePrice"] = *params.PurchasePrice
		}

		if params.SellingPrice != nil {
			item.SellingPrice = *params.SellingPrice
			fields["sellingPrice"] = *params.SellingPrice
		}

		if len(fields) > 0 {
			if err := tx.Update(ctx, Collection, id, fields); err != nil {
				return fmt.Errorf("updating item: %w", err)
			}
		}

		item.ID = id
		updated = item

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// Delete removes an item together with its linked purchase expense.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.RunTx(ctx, func(tx docstore.Tx) error {
		var item Item
		if err := tx.Get(ctx, Collection, id, &item); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("getting item: %w", err)
		}

		if item.ExpenseID != "" {
			if err := s.expenses.DeleteTx(ctx, tx, item.ExpenseID); err != nil {
				return fmt.Errorf("deleting linked expense: %w", err)
			}
		}

		if err := tx.Delete(ctx, Collection, id); err != nil {
			return fmt.Errorf("deleting item: %w", err)
		}

		return nil
	})
}
