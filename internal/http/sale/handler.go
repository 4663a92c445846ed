package sale

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/inventory"
	"github.com/sahanj/shopledger/internal/sale"
)

type Handler struct {
	svc *sale.Service
}

func NewHandler(svc *sale.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/by_date/{date}", h.byDate)
	r.Get("/{id}", h.get)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Patch("/{id}", h.updateCustomer)
	r.Delete("/{id}", h.delete)
}

type lineRequest struct {
	ItemID       string   `json:"itemId"`
	QuantitySold int      `json:"quantitySold"`
	SellingPrice *float64 `json:"sellingPrice,omitempty"`
}

type createSaleRequest struct {
	CustomerName  string        `json:"customerName"`
	PhoneNumber   string        `json:"phoneNumber"`
	PaymentMethod string        `json:"paymentMethod"`
	Items         []lineRequest `json:"items"`
	AmountPaid    *float64      `json:"amountPaid,omitempty"`

	Installments    *sale.InstallmentPlan `json:"installment_info,omitempty"`
	OldItemExchange *sale.OldItemExchange `json:"old_item_exchange,omitempty"`
	BorrowedItems   []sale.BorrowedItem   `json:"borrowed_items,omitempty"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createSaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lines := make([]sale.LineParams, 0, len(req.Items))
	for _, l := range req.Items {
		lines = append(lines, sale.LineParams{
			ItemID:       l.ItemID,
			QuantitySold: l.QuantitySold,
			SellingPrice: l.SellingPrice,
		})
	}

	s, err := h.svc.Create(r.Context(), sale.CreateParams{
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		PaymentMethod:   req.PaymentMethod,
		Lines:           lines,
		AmountPaid:      req.AmountPaid,
		Installments:    req.Installments,
		OldItemExchange: req.OldItemExchange,
		BorrowedItems:   req.BorrowedItems,
	})
	if err != nil {
		var stockErr *sale.InsufficientStockError
		if errors.As(err, &stockErr) {
			http.Error(w, stockErr.Error(), http.StatusBadRequest)
			return
		}

		if errors.Is(err, sale.ErrNoLines) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if errors.Is(err, inventory.ErrNotFound) {
			http.Error(w, "unknown inventory item", http.StatusBadRequest)
			return
		}

		writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(s)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	sales, err := h.svc.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(sales)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type byDateResponse struct {
	Sales []saleResponse `json:"sales"`
	Total float64        `json:"total"`
}

func (h *Handler) byDate(w http.ResponseWriter, r *http.Request) {
	sales, total, err := h.svc.ByDate(r.Context(), chi.URLParam(r, "date"))
	if err != nil {
		http.Error(w, "invalid date, expected YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(byDateResponse{Sales: toResponseList(sales), Total: total}); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	s, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(s)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateCustomerRequest struct {
	CustomerName  *string `json:"customerName,omitempty"`
	PhoneNumber   *string `json:"phoneNumber,omitempty"`
	PaymentMethod *string `json:"paymentMethod,omitempty"`
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	var req updateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s, err := h.svc.UpdateCustomer(r.Context(), chi.URLParam(r, "id"), sale.UpdateCustomerParams{
		CustomerName:  req.CustomerName,
		PhoneNumber:   req.PhoneNumber,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(s)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sale.ErrNotFound):
		http.Error(w, "sale not found", http.StatusNotFound)
	case errors.Is(err, docstore.ErrConflict):
		http.Error(w, "conflicting concurrent update, retry the request", http.StatusConflict)
	case errors.Is(err, docstore.ErrTimeout):
		http.Error(w, "operation timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
