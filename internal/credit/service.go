package credit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/sale"
)

type Service struct {
	store docstore.Store
}

func NewService(store docstore.Store) *Service {
	return &Service{store: store}
}

// ApplyPayment records a payment against a sale's outstanding balance,
// updating the sale, its credit record and the payment log in one
// transaction.
func (s *Service) ApplyPayment(ctx context.Context, params PaymentParams) (*Payment, error) {
	var created *Payment

	err := s.store.RunTx(ctx, func(tx docstore.Tx) error {
		var sl sale.Sale
		if err := tx.Get(ctx, sale.Collection, params.SaleID, &sl); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return sale.ErrNotFound
			}

			return fmt.Errorf("getting sale: %w", err)
		}

		switch {
		case sl.Balance <= 0:
			return ErrNoOutstandingBalance
		case params.Amount <= 0:
			return ErrInvalidAmount
		case params.Amount > sl.Balance:
			return ErrAmountExceedsBalance
		}

		// The credit record is read before any write so the whole flow
		// keeps its read-then-validate-then-write ordering.
		var rec Record

		recErr := tx.Get(ctx, RecordCollection, params.SaleID, &rec)
		if recErr != nil && !errors.Is(recErr, docstore.ErrNotFound) {
			return fmt.Errorf("getting credit record: %w", recErr)
		}

		recordExists := recErr == nil

		newBalance := sl.Balance - params.Amount
		newAmountPaid := sl.AmountPaid + params.Amount

		status := sale.StatusPartial
		if newBalance == 0 {
			status = sale.StatusPaid
		}

		err := tx.Update(ctx, sale.Collection, params.SaleID, map[string]any{
			"balance":      newBalance,
			"amountPaid":   newAmountPaid,
			"creditStatus": status,
		})
		if err != nil {
			return fmt.Errorf("updating sale: %w", err)
		}

		recStatus := RecordActive
		if newBalance == 0 {
			// Soft-close instead of deleting: history stays queryable.
			recStatus = RecordCompleted
		}

		if recordExists {
			err = tx.Update(ctx, RecordCollection, params.SaleID, map[string]any{
				"balance":    newBalance,
				"amountPaid": newAmountPaid,
				"status":     recStatus,
			})
		} else {
			err = tx.Set(ctx, RecordCollection, params.SaleID, Record{
				SaleID:       params.SaleID,
				CustomerName: sl.CustomerName,
				PhoneNumber:  sl.PhoneNumber,
				TotalAmount:  sl.TotalAmount,
				AmountPaid:   newAmountPaid,
				Balance:      newBalance,
				Status:       recStatus,
				Date:         time.Now().UTC(),
			})
		}

		if err != nil {
			return fmt.Errorf("updating credit record: %w", err)
		}

		payment := &Payment{
			SaleID:        params.SaleID,
			Amount:        params.Amount,
			PaymentMethod: params.PaymentMethod,
			Description:   params.Description,
			ChequeNumber:  params.ChequeNumber,
			ChequeDate:    params.ChequeDate,
			Date:          time.Now().UTC(),
		}

		id, err := tx.Create(ctx, PaymentCollection, payment)
		if err != nil {
			return fmt.Errorf("creating payment: %w", err)
		}

		payment.ID = id
		created = payment

		return nil
	})
	if err != nil {
		return nil, err
	}

	return created, nil
}

// ReversePayment deletes a payment and exactly undoes its effect on the
// sale and the credit record, regardless of how many other payments exist.
func (s *Service) ReversePayment(ctx context.Context, paymentID string) error {
	return s.store.RunTx(ctx, func(tx docstore.Tx) error {
		var payment Payment
		if err := tx.Get(ctx, PaymentCollection, paymentID, &payment); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				return ErrPaymentNotFound
			}

			return fmt.Errorf("getting payment: %w", err)
		}

		var sl sale.Sale
		if err := tx.Get(ctx, sale.Collection, payment.SaleID, &sl); err != nil {
			if errors.Is(err, docstore.ErrNotFound) {
				// A payment without its sale means the ledgers already
				// disagree; surface it rather than papering over.
				return fmt.Errorf("associated sale %s: %w", payment.SaleID, sale.ErrNotFound)
			}

			return fmt.Errorf("getting sale: %w", err)
		}

		var rec Record

		recErr := tx.Get(ctx, RecordCollection, payment.SaleID, &rec)
		if recErr != nil && !errors.Is(recErr, docstore.ErrNotFound) {
			return fmt.Errorf("getting credit record: %w", recErr)
		}

		recordExists := recErr == nil

		newBalance := sl.Balance + payment.Amount
		newAmountPaid := sl.AmountPaid - payment.Amount

		status := sale.StatusUnpaid
		if newAmountPaid > 0 {
			status = sale.StatusPartial
		}

		if newBalance == 0 {
			status = sale.StatusPaid
		}

		err := tx.Update(ctx, sale.Collection, payment.SaleID, map[string]any{
			"balance":      newBalance,
			"amountPaid":   newAmountPaid,
			"creditStatus": status,
		})
		if err != nil {
			return fmt.Errorf("updating sale: %w", err)
		}

		recStatus := RecordActive
		if newBalance == 0 {
			recStatus = RecordCompleted
		}

		if recordExists {
			err = tx.Update(ctx, RecordCollection, payment.SaleID, map[string]any{
				"balance":    newBalance,
				"amountPaid": newAmountPaid,
				"status":     recStatus,
			})
		} else {
			// Recreate a record that went missing so payment history stays
			// queryable after the reversal.
			err = tx.Set(ctx, RecordCollection, payment.SaleID, Record{
				SaleID:       payment.SaleID,
				CustomerName: sl.CustomerName,
				PhoneNumber:  sl.PhoneNumber,
				TotalAmount:  sl.TotalAmount,
				AmountPaid:   newAmountPaid,
				Balance:      newBalance,
				Status:       recStatus,
				Date:         time.Now().UTC(),
			})
		}

		if err != nil {
			return fmt.Errorf("updating credit record: %w", err)
		}

		return tx.Delete(ctx, PaymentCollection, paymentID)
	})
}

// PaymentsForSale lists every payment recorded against a sale.
func (s *Service) PaymentsForSale(ctx context.Context, saleID string) ([]*Payment, error) {
	docs, err := s.store.Query(ctx, PaymentCollection, docstore.Query{
		Filters: []docstore.Filter{{Field: "saleId", Op: docstore.OpEqual, Value: saleID}},
	})
	if err != nil {
		return nil, fmt.Errorf("querying payments: %w", err)
	}

	payments := make([]*Payment, len(docs))

	for i, d := range docs {
		var p Payment
		if err := d.Decode(&p); err != nil {
			return nil, fmt.Errorf("decoding payment %s: %w", d.ID, err)
		}

		p.ID = d.ID
		payments[i] = &p
	}

	return payments, nil
}

// Records lists credit records that still carry a balance.
func (s *Service) Records(ctx context.Context) ([]*Record, error) {
	docs, err := s.store.List(ctx, RecordCollection)
	if err != nil {
		return nil, fmt.Errorf("listing credit records: %w", err)
	}

	var records []*Record

	for _, d := range docs {
		var rec Record
		if err := d.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decoding credit record %s: %w", d.ID, err)
		}

		if rec.Balance > 0 {
			records = append(records, &rec)
		}
	}

	return records, nil
}

// Record returns the credit record for a sale, completed ones included.
func (s *Service) Record(ctx context.Context, saleID string) (*Record, error) {
	var rec Record

	if err := s.store.Get(ctx, RecordCollection, saleID, &rec); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrRecordNotFound
		}

		return nil, fmt.Errorf("getting credit record: %w", err)
	}

	return &rec, nil
}

// CreateRecordTx writes the credit record for a freshly created sale that
// closed with an outstanding balance. Part of the sale-create transaction.
func (s *Service) CreateRecordTx(ctx context.Context, tx docstore.Tx, sl *sale.Sale) error {
	return tx.Set(ctx, RecordCollection, sl.ID, Record{
		SaleID:       sl.ID,
		CustomerName: sl.CustomerName,
		PhoneNumber:  sl.PhoneNumber,
		TotalAmount:  sl.TotalAmount,
		AmountPaid:   sl.AmountPaid,
		Balance:      sl.Balance,
		Status:       RecordActive,
		Date:         time.Now().UTC(),
	})
}

// DeleteRecordTx removes a sale's credit record; a no-op when none exists.
// Part of the sale-delete transaction.
func (s *Service) DeleteRecordTx(ctx context.Context, tx docstore.Tx, saleID string) error {
	return tx.Delete(ctx, RecordCollection, saleID)
}
