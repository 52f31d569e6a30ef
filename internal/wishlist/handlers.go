package wishlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
)

type Handler struct {
	Svc *Service
}

// List handles GET /api/wishlist.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	plants, err := h.Svc.List(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, plants)
}

// Add handles POST /api/wishlist/{plant_id}.
func (h *Handler) Add(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Add(r.Context(), chi.URLParam(r, "plant_id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Plant added to wishlist"})
}

// Remove handles DELETE /api/wishlist/{plant_id}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Remove(r.Context(), chi.URLParam(r, "plant_id")); err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{"message": "Plant removed from wishlist"})
}
