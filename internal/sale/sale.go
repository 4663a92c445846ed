package sale

import "time"

// Collection is the document store collection holding sales.
const Collection = "sales"

// Status classifies how much of a sale has been paid. The invariant
// amountPaid + balance == totalAmount holds after every operation that
// touches a sale; status is derived from it and never set directly.
type Status string

const (
	StatusUnpaid  Status = "Unpaid"
	StatusPartial Status = "Partial"
	StatusPaid    Status = "Paid"
)

// Item is one sold line. Name, model number and price are snapshotted at
// sale time and never re-derived from current inventory.
type Item struct {
	ItemID       string  `json:"itemId"`
	Name         string  `json:"itemName"`
	ModelNumber  string  `json:"modelNumber"`
	QuantitySold int     `json:"quantitySold"`
	PricePerItem float64 `json:"pricePerItem"`
	LineTotal    float64 `json:"totalAmount"`
}

// InstallmentPlan captures an agreed payment schedule. Informational only;
// it does not drive the credit math.
type InstallmentPlan struct {
	HasPlan              bool     `json:"has_plan"`
	NumberOfInstallments int      `json:"number_of_installments,omitempty"`
	DueDates             []string `json:"due_dates,omitempty"`
}

// OldItemExchange is a trade-in deducted from the sale total.
type OldItemExchange struct {
	Description     string  `json:"description"`
	DeductionAmount float64 `json:"deduction_amount"`
}

// BorrowedItem is stock sourced from a neighbouring shop for this sale.
// Its selling price is added to the total; the margin over the borrowed
// cost is tracked for reporting only.
type BorrowedItem struct {
	Description  string  `json:"description"`
	BorrowedCost float64 `json:"borrowed_cost"`
	SellingPrice float64 `json:"selling_price"`
	Quantity     int     `json:"quantity"`
}

type Sale struct {
	ID            string    `json:"-"`
	CustomerName  string    `json:"customerName"`
	PhoneNumber   string    `json:"phoneNumber"`
	PaymentMethod string    `json:"paymentMethod"`
	Items         []Item    `json:"items"`
	TotalAmount   float64   `json:"totalAmount"`
	AmountPaid    float64   `json:"amountPaid"`
	Balance       float64   `json:"balance"`
	CreditStatus  Status    `json:"creditStatus"`
	Date          time.Time `json:"date"`

	Installments        *InstallmentPlan `json:"installment_info,omitempty"`
	OldItemExchange     *OldItemExchange `json:"old_item_exchange,omitempty"`
	BorrowedItems       []BorrowedItem   `json:"borrowed_items,omitempty"`
	OldItemDeduction    *float64         `json:"old_item_deduction,omitempty"`
	BorrowedItemsProfit *float64         `json:"borrowed_items_profit,omitempty"`
}

// LineParams is one requested sale line. SellingPrice overrides the item's
// current selling price when set.
type LineParams struct {
	ItemID       string
	QuantitySold int
	SellingPrice *float64
}

type CreateParams struct {
	CustomerName  string
	PhoneNumber   string
	PaymentMethod string
	Lines         []LineParams

	// AmountPaid defaults to the computed total (a fully paid sale).
	AmountPaid *float64

	Installments    *InstallmentPlan
	OldItemExchange *OldItemExchange
	BorrowedItems   []BorrowedItem
}

type UpdateCustomerParams struct {
	CustomerName  *string
	PhoneNumber   *string
	PaymentMethod *string
}

// deriveStatus classifies a sale's payment completeness. Paid wins whenever
// the balance is zero, regardless of how it got there.
func deriveStatus(amountPaid, balance float64) Status {
	switch {
	case balance == 0:
		return StatusPaid
	case amountPaid > 0:
		return StatusPartial
	default:
		return StatusUnpaid
	}
}
