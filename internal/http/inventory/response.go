package inventory

import "github.com/sahanj/shopledger/internal/inventory"

type itemResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"itemName"`
	ModelNumber   string  `json:"modelNumber"`
	Quantity      int     `json:"quantity"`
	PurchasePrice float64 `json:"purchasePrice"`
	SellingPrice  float64 `json:"sellingPrice"`
	ExpenseID     string  `json:"expenseId,omitempty"`
}

func toResponse(item *inventory.Item) itemResponse {
	return itemResponse{
		ID:            item.ID,
		Name:          item.Name,
		ModelNumber:   item.ModelNumber,
		Quantity:      item.Quantity,
		PurchasePrice: item.PurchasePrice,
		SellingPrice:  item.SellingPrice,
		ExpenseID:     item.ExpenseID,
	}
}

func toResponseList(items []*inventory.Item) []itemResponse {
	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toResponse(item)
	}

	return resp
}
