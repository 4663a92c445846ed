package sale

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("sale not found")
	ErrNoLines           = errors.New("sale requires at least one item")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError reports the first line whose requested quantity
// exceeds available stock. The whole sale is rejected; no line is written.
type InsufficientStockError struct {
	ItemID    string
	ItemName  string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d",
		e.ItemName, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
