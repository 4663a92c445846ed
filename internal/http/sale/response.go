package sale

import (
	"time"

	"github.com/sahanj/shopledger/internal/sale"
)

type saleResponse struct {
	ID            string      `json:"id"`
	CustomerName  string      `json:"customerName"`
	PhoneNumber   string      `json:"phoneNumber"`
	PaymentMethod string      `json:"paymentMethod"`
	Items         []sale.Item `json:"items"`
	TotalAmount   float64     `json:"totalAmount"`
	AmountPaid    float64     `json:"amountPaid"`
	Balance       float64     `json:"balance"`
	CreditStatus  sale.Status `json:"creditStatus"`
	Date          time.Time   `json:"date"`

	Installments        *sale.InstallmentPlan `json:"installment_info,omitempty"`
	OldItemExchange     *sale.OldItemExchange `json:"old_item_exchange,omitempty"`
	BorrowedItems       []sale.BorrowedItem   `json:"borrowed_items,omitempty"`
	OldItemDeduction    *float64              `json:"old_item_deduction,omitempty"`
	BorrowedItemsProfit *float64              `json:"borrowed_items_profit,omitempty"`
}

func toResponse(s *sale.Sale) saleResponse {
	return saleResponse{
		ID:                  s.ID,
		CustomerName:        s.CustomerName,
		PhoneNumber:         s.PhoneNumber,
		PaymentMethod:       s.PaymentMethod,
		Items:               s.Items,
		TotalAmount:         s.TotalAmount,
		AmountPaid:          s.AmountPaid,
		Balance:             s.Balance,
		CreditStatus:        s.CreditStatus,
		Date:                s.Date,
		Installments:        s.Installments,
		OldItemExchange:     s.OldItemExchange,
		BorrowedItems:       s.BorrowedItems,
		OldItemDeduction:    s.OldItemDeduction,
		BorrowedItemsProfit: s.BorrowedItemsProfit,
	}
}

func toResponseList(sales []*sale.Sale) []saleResponse {
	resp := make([]saleResponse, len(sales))
	for i, s := range sales {
		resp[i] = toResponse(s)
	}

	return resp
}
