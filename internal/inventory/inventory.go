package inventory

import (
	"errors"
	"fmt"
)

// Collection is the document store collection holding inventory items.
const Collection = "inventory"

var (
	ErrNotFound        = errors.New("inventory item not found")
	ErrInvalidQuantity = errors.New("quantity cannot be negative")
)

// Item is a stocked product. ExpenseID links the purchase expense that was
// synthesized when the item was taken into stock; the linker keeps that
// expense's amount and description derived from quantity and purchase price.
type Item struct {
	ID            string  `json:"-"`
	Name          string  `json:"itemName"`
	ModelNumber   string  `json:"modelNumber"`
	Quantity      int     `json:"quantity"`
	PurchasePrice float64 `json:"purchasePrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	ExpenseID     string  `json:"expenseId,omitempty"`
}

type CreateParams struct {
	Name          string
	ModelNumber   string
	Quantity      int
	PurchasePrice float64
	SellingPrice  float64
}

type UpdateParams struct {
	Name          *string
	ModelNumber   *string
	Quantity      *int
	PurchasePrice *float64
	SellingPrice  *float64
}

// PurchaseDescription is the generated description of a linked purchase
// expense.
func PurchaseDescription(quantity int, name, modelNumber string) string {
	return fmt.Sprintf("Inventory Purchase: %d x %s (%s)", quantity, name, modelNumber)
}
