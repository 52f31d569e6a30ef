package payment

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// Handler exposes the PayPal checkout endpoints.
type Handler struct {
	Svc *Service
}

// CreateOrder handles POST /api/paypal/create-order.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "payment_not_configured", "payment handler unavailable", nil)
		return
	}
	var in CreateOrderInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	res, err := h.Svc.CreateOrder(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, res)
}

type executeBody struct {
	PaymentID string `json:"payment_id"`
	PayerID   string `json:"payer_id"`
}

// ExecutePayment handles POST /api/paypal/execute-payment. The ids are read
// from the query string, or from a JSON body when the query is empty.
func (h *Handler) ExecutePayment(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "payment_not_configured", "payment handler unavailable", nil)
		return
	}
	q := r.URL.Query()
	body := executeBody{PaymentID: q.Get("payment_id"), PayerID: q.Get("payer_id")}
	if body.PaymentID == "" && r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			common.JSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body", nil)
			return
		}
	}
	res, err := h.Svc.ExecutePayment(r.Context(), body.PaymentID, body.PayerID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, res)
}
