package expense

import (
	"errors"
	"time"
)

// Collection is the document store collection holding expenses.
const Collection = "expenses"

// CategoryInventory marks expenses synthesized by the inventory linker for
// stock purchases. Their amount and description are derived from the owning
// inventory item and kept in sync by the linker.
const CategoryInventory = "Inventory"

var ErrNotFound = errors.New("expense not found")

// Expense is a single bookkeeping entry.
type Expense struct {
	ID          string    `json:"-"`
	Description string    `json:"description"`
	Amount      float64   `json:"amount"`
	Category    string    `json:"category"`
	Date        time.Time `json:"date"`
}

type CreateParams struct {
	Description string
	Amount      float64
	Category    string
}

type UpdateParams struct {
	Description *string
	Amount      *float64
	Category    *string
}
