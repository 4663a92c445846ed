package quotation

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/inventory"
	"github.com/sahanj/shopledger/internal/quotation"
	"github.com/sahanj/shopledger/internal/sale"
)

type Handler struct {
	svc *quotation.Service
}

func NewHandler(svc *quotation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
}

type lineRequest struct {
	ItemID            string   `json:"itemId"`
	QuantityRequested int      `json:"quantityRequested"`
	SellingPrice      *float64 `json:"sellingPrice,omitempty"`
}

type createQuotationRequest struct {
	CustomerName string        `json:"customerName"`
	PhoneNumber  string        `json:"phoneNumber"`
	Items        []lineRequest `json:"items"`
	Notes        string        `json:"notes,omitempty"`

	Installments    *sale.InstallmentPlan `json:"installment_info,omitempty"`
	OldItemExchange *sale.OldItemExchange `json:"old_item_exchange,omitempty"`
	BorrowedItems   []sale.BorrowedItem   `json:"borrowed_items,omitempty"`
}

type quotationResponse struct {
	ID           string           `json:"id"`
	CustomerName string           `json:"customerName"`
	PhoneNumber  string           `json:"phoneNumber"`
	Items        []quotation.Item `json:"items"`
	TotalAmount  float64          `json:"totalAmount"`
	Notes        string           `json:"notes,omitempty"`
	Date         time.Time        `json:"date"`

	Installments        *sale.InstallmentPlan `json:"installment_info,omitempty"`
	OldItemExchange     *sale.OldItemExchange `json:"old_item_exchange,omitempty"`
	BorrowedItems       []sale.BorrowedItem   `json:"borrowed_items,omitempty"`
	OldItemDeduction    *float64              `json:"old_item_deduction,omitempty"`
	BorrowedItemsProfit *float64              `json:"borrowed_items_profit,omitempty"`
}

func toResponse(q *quotation.Quotation) quotationResponse {
	return quotationResponse{
		ID:                  q.ID,
		CustomerName:        q.CustomerName,
		PhoneNumber:         q.PhoneNumber,
		Items:               q.Items,
		TotalAmount:         q.TotalAmount,
		Notes:               q.Notes,
		Date:                q.Date,
		Installments:        q.Installments,
		OldItemExchange:     q.OldItemExchange,
		BorrowedItems:       q.BorrowedItems,
		OldItemDeduction:    q.OldItemDeduction,
		BorrowedItemsProfit: q.BorrowedItemsProfit,
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createQuotationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines := make([]quotation.LineParams, 0, len(req.Items))
	for _, l := range req.Items {
		lines = append(lines, quotation.LineParams{
			ItemID:            l.ItemID,
			QuantityRequested: l.QuantityRequested,
			SellingPrice:      l.SellingPrice,
		})
	}

	q, err := h.svc.Create(r.Context(), quotation.CreateParams{
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		Lines:           lines,
		Notes:           req.Notes,
		Installments:    req.Installments,
		OldItemExchange: req.OldItemExchange,
		BorrowedItems:   req.BorrowedItems,
	})
	if err != nil {
		if errors.Is(err, quotation.ErrMissingPrice) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if errors.Is(err, inventory.ErrNotFound) {
			http.Error(w, "inventory item not found", http.StatusNotFound)
			return
		}

		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(q)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	quotations, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]quotationResponse, len(quotations))
	for i, q := range quotations {
		resp[i] = toResponse(q)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	q, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(q)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, quotation.ErrNotFound):
		http.Error(w, "quotation not found", http.StatusNotFound)
	case errors.Is(err, docstore.ErrConflict):
		http.Error(w, "conflicting concurrent update, retry the request", http.StatusConflict)
	case errors.Is(err, docstore.ErrTimeout):
		http.Error(w, "operation timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
