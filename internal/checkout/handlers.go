package checkout

import (
	"net/http"

	"github.com/noah-isme/backend-nursery/internal/common"
	"github.com/noah-isme/backend-nursery/internal/pricing"
)

type Handler struct {
	Svc *Service
}

// Totals is the JSON rendering of a breakdown with plain numeric amounts.
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	TaxAmount      float64 `json:"tax_amount"`
	ShippingCost   float64 `json:"shipping_cost"`
	DiscountAmount float64 `json:"discount_amount"`
	Total          float64 `json:"total"`
}

// ToTotals converts b into its response form.
func ToTotals(b pricing.Breakdown) Totals {
	return Totals{
		Subtotal:       b.Subtotal.InexactFloat64(),
		TaxAmount:      b.TaxAmount.InexactFloat64(),
		ShippingCost:   b.ShippingCost.InexactFloat64(),
		DiscountAmount: b.DiscountAmount.InexactFloat64(),
		Total:          b.Total.InexactFloat64(),
	}
}

// CalculateTotal handles POST /api/calculate-total.
func (h *Handler) CalculateTotal(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "internal_error", "checkout service not configured", nil)
		return
	}
	var req Request
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	breakdown, err := h.Svc.Calculate(r.Context(), req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, ToTotals(breakdown))
}
