package profile

import (
	"net/http"

	"github.com/noah-isme/backend-nursery/internal/common"
)

// Handler exposes the caller's profile.
type Handler struct {
	Service *Service
}

// Get handles GET /api/profile.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Service.Get(r.Context(), userID)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, p)
}

// Update handles PUT /api/profile.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	var req Update
	if err := common.DecodeJSON(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Service.Update(r.Context(), userID, req)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, p)
}
