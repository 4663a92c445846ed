package quotation

import (
	"errors"
	"time"

	"github.com/sahanj/shopledger/internal/sale"
)

// Collection is the document store collection holding quotations.
const Collection = "quotations"

var (
	ErrNotFound     = errors.New("quotation not found")
	ErrMissingPrice = errors.New("selling price missing for item")
)

// Item is one quoted line. Unlike a sale line it records the available
// quantity at quote time; stock is never mutated by a quotation.
type Item struct {
	ItemID            string  `json:"itemId"`
	Name              string  `json:"itemName"`
	ModelNumber       string  `json:"modelNumber"`
	QuantityRequested int     `json:"quantityRequested"`
	PricePerItem      float64 `json:"pricePerItem"`
	LineTotal         float64 `json:"totalAmount"`
	AvailableQuantity int     `json:"availableQuantity"`
}

type Quotation struct {
	ID           string    `json:"-"`
	CustomerName string    `json:"customerName"`
	PhoneNumber  string    `json:"phoneNumber"`
	Items        []Item    `json:"items"`
	TotalAmount  float64   `json:"totalAmount"`
	Notes        string    `json:"notes,omitempty"`
	Date         time.Time `json:"date"`

	Installments        *sale.InstallmentPlan `json:"installment_info,omitempty"`
	OldItemExchange     *sale.OldItemExchange `json:"old_item_exchange,omitempty"`
	BorrowedItems       []sale.BorrowedItem   `json:"borrowed_items,omitempty"`
	OldItemDeduction    *float64              `json:"old_item_deduction,omitempty"`
	BorrowedItemsProfit *float64              `json:"borrowed_items_profit,omitempty"`
}

type LineParams struct {
	ItemID            string
	QuantityRequested int
	SellingPrice      *float64
}

type CreateParams struct {
	CustomerName string
	PhoneNumber  string
	Lines        []LineParams
	Notes        string

	Installments    *sale.InstallmentPlan
	OldItemExchange *sale.OldItemExchange
	BorrowedItems   []sale.BorrowedItem
}
