package discount

import (
	"net/http"
	"strings"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// Handler exposes discount code endpoints.
type Handler struct {
	Svc *Service
}

// Validate handles GET /api/validate-discount?discount_code=CODE.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "internal_error", "discount service not configured", nil)
		return
	}
	code := r.URL.Query().Get("discount_code")
	if strings.TrimSpace(code) == "" {
		common.JSONError(w, http.StatusBadRequest, "bad_request", "discount_code is required", map[string]any{"field": "discount_code"})
		return
	}
	out, err := h.Svc.Validate(r.Context(), code)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, out)
}
