package sale

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/inventory"
)

// CreditLedger is the slice of the credit ledger the sale ledger needs:
// creating the credit record for a sale that closes with a balance, and
// removing it when the sale is deleted. Implemented by credit.Service.
type CreditLedger interface {
	CreateRecordTx(ctx context.Context, tx docstore.Tx, s *Sale) error
	DeleteRecordTx(ctx context.Context, tx docstore.Tx, saleID string) error
}

type Service struct {
	store   docstore.Store
	credits CreditLedger
}

func NewService(store docstore.Store, credits CreditLedger) *Service {
	return &Service{store: store, credits: credits}
}

// Create processes a multi-item sale in one transaction: read every
// requested item, validate all stock levels, then decrement stock, write
// the sale and, if a balance remains, its credit record. Any failure after
// the read phase aborts the whole transaction.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Sale, error) {
	if len(params.Lines) == 0 {
		return nil, ErrNoLines
	}

	var created *Sale

	err := s.store.RunTx(ctx, func(tx docstore.Tx) error {
		// Read phase: snapshot every requested item before touching anything.
		items := make([]inventory.Item, len(params.Lines))

		for i, line := range params.Lines {
			if err := tx.Get(ctx, inventory.Collection, line.ItemID, &items[i]); err != nil {
				if errors.Is(err, docstore.ErrNotFound) {
					return fmt.Errorf("item %s: %w", line.ItemID, inventory.ErrNotFound)
				}

				return fmt.Errorf("reading item %s: %w", line.ItemID, err)
			}

			items[i].ID = line.ItemID
		}

		// Validate phase: every line must be satisfiable before any write.
		for i, line := range params.Lines {
			if items[i].Quantity < line.QuantitySold {
				return &InsufficientStockError{
					ItemID:    line.ItemID,
					ItemName:  items[i].Name,
					Available: items[i].Quantity,
					Requested: line.QuantitySold,
				}
			}
		}

		// Write phase: decrement stock and snapshot the sold lines.
		var total float64

		sold := make([]Item, len(params.Lines))

		for i, line := range params.Lines {
			item := items[i]

			err := tx.Update(ctx, inventory.Collection, line.ItemID, map[string]any{
				"quantity": item.Quantity - line.QuantitySold,
			})
			if err != nil {
				return fmt.Errorf("updating stock for %s: %w", line.ItemID, err)
			}

			price := item.SellingPrice
			if line.SellingPrice != nil {
				price = *line.SellingPrice
			}

			lineTotal := price * float64(line.QuantitySold)
			total += lineTotal

			sold[i] = Item{
				ItemID:       line.ItemID,
				Name:         item.Name,
				ModelNumber:  item.ModelNumber,
				QuantitySold: line.QuantitySold,
				PricePerItem: price,
				LineTotal:    lineTotal,
			}
		}

		sale := &Sale{
			CustomerName:  params.CustomerName,
			PhoneNumber:   params.PhoneNumber,
			PaymentMethod: params.PaymentMethod,
			Items:         sold,
			Date:          time.Now().UTC(),
			Installments:  params.Installments,
		}

		if params.OldItemExchange != nil {
			deduction := params.OldItemExchange.DeductionAmount
			total -= deduction
			sale.OldItemExchange = params.OldItemExchange
			sale.OldItemDeduction = &deduction
		}

		if len(params.BorrowedItems) > 0 {
			var profit float64

			for _, b := range params.BorrowedItems {
				total += b.SellingPrice * float64(b.Quantity)
				profit += (b.SellingPrice - b.BorrowedCost) * float64(b.Quantity)
			}

			sale.BorrowedItems = params.BorrowedItems
			sale.BorrowedItemsProfit = &profit
		}

		amountPaid := total
		if params.AmountPaid != nil {
			amountPaid = *params.AmountPaid
		}

		sale.TotalAmount = total
		sale.AmountPaid = amountPaid
		sale.Balance = total - amountPaid
		sale.CreditStatus = deriveStatus(amountPaid, sale.Balance)

		id, err := tx.Create(ctx, Collection, sale)
		if err != nil {
			return fmt.Errorf("creating sale: %w", err)
		}

		sale.ID = id

		if sale.Balance > 0 {
			if err := s.credits.CreateRecordTx(ctx, tx, sale); err != nil {
				return fmt.Errorf("creating credit record: %w", err)
			}
		}

		created = sale

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Sale, error) {
	var sale Sale

	if err := s.store.Get(ctx, Collection, id, &sale); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("getting sale: %w", err)
	}

	sale.ID = id

	return &sale, nil
}

func (s *Service) List(ctx context.Context) ([]*Sale, error) {
	docs, err := s.store.List(ctx, Collection)
	if err != nil {
		return nil, fmt.Errorf("listing sales: %w", err)
	}

	return decodeAll(docs)
}

// ByDate returns all sales on the given calendar day and their combined
// total.
func (s *Service) ByDate(ctx context.Context, day string) ([]*Sale, float64, error) {
	filters, err := docstore.DayFilters("date", day)
	if err != nil {
		return nil, 0, err
	}

	docs, err := s.store.Query(ctx, Collection, docstore.Query{Filters: filters})
	if err != nil {
		return nil, 0, fmt.Errorf("querying sales by date: %w", err)
	}

	sales, err := decodeAll(docs)
	if err != nil {
		return nil, 0, err
	}

	var total float64
	for _, sl := range sales {
		total += sl.TotalAmount
	}

	return sales, total, nil
}

// UpdateCustomer patches the customer-facing fields of a sale. The credit
// math is never touched here; payments go through the credit ledger.
func (s *Service) UpdateCustomer(ctx context.Context, id string, params UpdateCustomerParams) (*Sale, error) {
	fields := make(map[string]any)

	if params.CustomerName != nil {
		fields["customerName"] = *params.CustomerName
	}

	if params.PhoneNumber != nil {
		fields["phoneNumber"] = *params.PhoneNumber
	}

	if params.PaymentMethod != nil {
		fields["paymentMethod"] = *params.PaymentMethod
	}

	if len(fields) > 0 {
		if err := s.store.Update(ctx, Collection, id, fields); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return nil, ErrNotFound
			}

			return nil, fmt.Errorf("updating sale: %w", err)
		}
	}

	return s.Get(ctx, id)
}

// Delete reverses a sale: restores stock for every recorded line, removes
// the sale and removes its credit record. Inventory items deleted since
// the sale are tolerated; their stock is simply not restored.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.RunTx(ctx, func(tx docstore.Tx) error {
		var sale Sale
		if err := tx.Get(ctx, Collection, id, &sale); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return ErrNotFound
			}

			return fmt.Errorf("getting sale: %w", err)
		}

		type restore struct {
			itemID   string
			quantity int
		}

		var restores []restore

		for _, line := range sale.Items {
			var item inventory.Item

			err := tx.Get(ctx, inventory.Collection, line.ItemID, &item)
			if errors.Is(err, docstore.ErrNotFound) {
				continue
			}

			if err != nil {
				return fmt.Errorf("reading item %s: %w", line.ItemID, err)
			}

			restores = append(restores, restore{
				itemID:   line.ItemID,
				quantity: item.Quantity + line.QuantitySold,
			})
		}

		for _, r := range restores {
			err := tx.Update(ctx, inventory.Collection, r.itemID, map[string]any{
				"quantity": r.quantity,
			})
			if err != nil {
				return fmt.Errorf("restoring stock for %s: %w", r.itemID, err)
			}
		}

		if err := tx.Delete(ctx, Collection, id); err != nil {
			return fmt.Errorf("deleting sale: %w", err)
		}

		return s.credits.DeleteRecordTx(ctx, tx, id)
	})
}

func decodeAll(docs []docstore.Doc) ([]*Sale, error) {
	sales := make([]*Sale, len(docs))

	for i, d := range docs {
		var sl Sale
		if err := d.Decode(&sl); err != nil {
			return nil, fmt.Errorf("decoding sale %s: %w", d.ID, err)
		}

		sl.ID = d.ID
		sales[i] = &sl
	}

	return sales, nil
}
