package quotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/inventory"
)

//go:generate mockgen -source=service.go -destination=inventory_mock.go -package=quotation

// InventoryReader resolves current item data for pricing previews.
type InventoryReader interface {
	Get(ctx context.Context, id string) (*inventory.Item, error)
}

type Service struct {
	store docstore.Store
	items InventoryReader
}

func NewService(store docstore.Store, items InventoryReader) *Service {
	return &Service{store: store, items: items}
}

// Create prices a potential sale from current inventory without mutating
// any stock. Totals follow the same rules as a real sale: optional price
// overrides per line, trade-in deduction and borrowed-item markup.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Quotation, error) {
	var (
		quoted []Item
		total  float64
	)

	for _, line := range params.Lines {
		item, err := s.items.Get(ctx, line.ItemID)
		if err != nil {
			return nil, err
		}

		price := item.SellingPrice
		if line.SellingPrice != nil {
			price = *line.SellingPrice
		}

		if price <= 0 {
			return nil, fmt.Errorf("%w: %s", ErrMissingPrice, item.Name)
		}

		lineTotal := price * float64(line.QuantityRequested)
		total += lineTotal

		quoted = append(quoted, Item{
			ItemID:            line.ItemID,
			Name:              item.Name,
			ModelNumber:       item.ModelNumber,
			QuantityRequested: line.QuantityRequested,
			PricePerItem:      price,
			LineTotal:         lineTotal,
			AvailableQuantity: item.Quantity,
		})
	}

	q := &Quotation{
		CustomerName: params.CustomerName,
		PhoneNumber:  params.PhoneNumber,
		Items:        quoted,
		Notes:        params.Notes,
		Date:         time.Now().UTC(),
		Installments: params.Installments,
	}

	if params.OldItemExchange != nil {
		deduction := params.OldItemExchange.DeductionAmount
		total -= deduction
		q.OldItemExchange = params.OldItemExchange
		q.OldItemDeduction = &deduction
	}

	if len(params.BorrowedItems) > 0 {
		var profit float64

		for _, b := range params.BorrowedItems {
			total += b.SellingPrice * float64(b.Quantity)
			profit += (b.SellingPrice - b.BorrowedCost) * float64(b.Quantity)
		}

		q.BorrowedItems = params.BorrowedItems
		q.BorrowedItemsProfit = &profit
	}

	q.TotalAmount = total

	id, err := s.store.Create(ctx, Collection, q)
	if err != nil {
		return nil, fmt.Errorf("creating quotation: %w", err)
	}

	q.ID = id

	return q, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Quotation, error) {
	var q Quotation

	if err := s.store.Get(ctx, Collection, id, &q); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting quotation: %w", err)
	}

	q.ID = id

	return &q, nil
}

func (s *Service) List(ctx context.Context) ([]*Quotation, error) {
	docs, err := s.store.List(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("listing quotations: %w", err)
	}

	quotations := make([]*Quotation, len(docs))

	for i, d := range docs {
		var q Quotation
		if err := d.Decode(&q); err != nil {
			return nil, fmt.Errorf("decoding quotation %s: %w", d.ID, err)
		}

		q.ID = d.ID
		quotations[i] = &q
	}

	return quotations, nil
}
