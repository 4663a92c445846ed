package credit

import (
	"errors"
	"time"
)

// RecordCollection holds per-sale credit records, keyed by the owning
// sale's id. PaymentCollection holds individual payments against them.
const (
	RecordCollection  = "credit"
	PaymentCollection = "credit_payments"
)

var (
	ErrPaymentNotFound      = errors.New("credit payment not found")
	ErrRecordNotFound       = errors.New("credit record not found")
	ErrNoOutstandingBalance = errors.New("sale has no outstanding balance")
	ErrInvalidAmount        = errors.New("payment amount must be greater than zero")
	ErrAmountExceedsBalance = errors.New("payment amount exceeds outstanding balance")
)

// RecordStatus is the lifecycle state of a credit record. Fully paid
// records are soft-closed as Completed rather than deleted so payment
// history stays queryable.
type RecordStatus string

const (
	RecordActive    RecordStatus = "Active"
	RecordCompleted RecordStatus = "Completed"
)

// Record is the queryable projection of a sale's outstanding credit. The
// sale's balance/amountPaid are the source of truth; the record mirrors
// them and exists from the first unpaid balance onward.
type Record struct {
	SaleID       string       `json:"saleId"`
	CustomerName string       `json:"customerName"`
	PhoneNumber  string       `json:"phoneNumber"`
	TotalAmount  float64      `json:"totalAmount"`
	AmountPaid   float64      `json:"amountPaid"`
	Balance      float64      `json:"balance"`
	Status       RecordStatus `json:"status"`
	Date         time.Time    `json:"date"`
}

// Payment is a single payment applied against a sale's balance. Immutable
// once created; reversal deletes it and exactly undoes its effect.
type Payment struct {
	ID            string    `json:"-"`
	SaleID        string    `json:"saleId"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Description   string    `json:"description,omitempty"`
	ChequeNumber  string    `json:"chequeNumber,omitempty"`
	ChequeDate    string    `json:"chequeDate,omitempty"`
	Date          time.Time `json:"date"`
}

type PaymentParams struct {
	SaleID        string
	Amount        float64
	PaymentMethod string
	Description   string
	ChequeNumber  string
	ChequeDate    string
}
