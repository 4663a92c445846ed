package credit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sahanj/shopledger/internal/credit"
	"github.com/sahanj/shopledger/internal/docstore"
	"github.com/sahanj/shopledger/internal/sale"
)

type Handler struct {
	svc *credit.Service
}

func NewHandler(svc *credit.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.applyPayment)
	r.Get("/all", h.records)
	r.Get("/record/{sale_id}", h.record)
	r.Get("/{sale_id}", h.payments)
}

func (h *Handler) AdminRoutes(r chi.Router) {
	r.Delete("/payment/{payment_id}", h.reversePayment)
}

type paymentRequest struct {
	SaleID        string  `json:"saleId"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"paymentMethod"`
	Description   string  `json:"description,omitempty"`
	ChequeNumber  string  `json:"chequeNumber,omitempty"`
	ChequeDate    string  `json:"chequeDate,omitempty"`
}

type paymentResponse struct {
	ID            string    `json:"id"`
	SaleID        string    `json:"saleId"`
	Amount        float64   `json:"amount"`
	PaymentMethod string    `json:"paymentMethod"`
	Description   string    `json:"description,omitempty"`
	ChequeNumber  string    `json:"chequeNumber,omitempty"`
	ChequeDate    string    `json:"chequeDate,omitempty"`
	Date          time.Time `json:"date"`
}

func toPaymentResponse(p *credit.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		SaleID:        p.SaleID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Description:   p.Description,
		ChequeNumber:  p.ChequeNumber,
		ChequeDate:    p.ChequeDate,
		Date:          p.Date,
	}
}

func (h *Handler) applyPayment(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	p, err := h.svc.ApplyPayment(r.Context(), credit.PaymentParams{
		SaleID:        req.SaleID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Description:   req.Description,
		ChequeNumber:  req.ChequeNumber,
		ChequeDate:    req.ChequeDate,
	})
	if err != nil {
		switch {
		case errors.Is(err, credit.ErrNoOutstandingBalance),
			errors.Is(err, credit.ErrInvalidAmount),
			errors.Is(err, credit.ErrAmountExceedsBalance):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			writeError(w, err)
		}

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toPaymentResponse(p)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) reversePayment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.ReversePayment(r.Context(), chi.URLParam(r, "payment_id")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type recordResponse struct {
	SaleID       string              `json:"saleId"`
	CustomerName string              `json:"customerName"`
	PhoneNumber  string              `json:"phoneNumber"`
	TotalAmount  float64             `json:"totalAmount"`
	AmountPaid   float64             `json:"amountPaid"`
	Balance      float64             `json:"balance"`
	Status       credit.RecordStatus `json:"status"`
	Date         time.Time           `json:"date"`
}

func toRecordResponse(rec *credit.Record) recordResponse {
	return recordResponse{
		SaleID:       rec.SaleID,
		CustomerName: rec.CustomerName,
		PhoneNumber:  rec.PhoneNumber,
		TotalAmount:  rec.TotalAmount,
		AmountPaid:   rec.AmountPaid,
		Balance:      rec.Balance,
		Status:       rec.Status,
		Date:         rec.Date,
	}
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	records, err := h.svc.Records(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]recordResponse, len(records))
	for i, rec := range records {
		resp[i] = toRecordResponse(rec)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) record(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.Record(r.Context(), chi.URLParam(r, "sale_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toRecordResponse(rec)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) payments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.svc.PaymentsForSale(r.Context(), chi.URLParam(r, "sale_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toPaymentResponse(p)
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sale.ErrNotFound):
		http.Error(w, "sale not found", http.StatusNotFound)
	case errors.Is(err, credit.ErrPaymentNotFound):
		http.Error(w, "credit payment not found", http.StatusNotFound)
	case errors.Is(err, credit.ErrRecordNotFound):
		http.Error(w, "credit record not found", http.StatusNotFound)
	case errors.Is(err, docstore.ErrConflict):
		http.Error(w, "conflicting concurrent update, retry the request", http.StatusConflict)
	case errors.Is(err, docstore.ErrTimeout):
		http.Error(w, "operation timed out", http.StatusGatewayTimeout)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
