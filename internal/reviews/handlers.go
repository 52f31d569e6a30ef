package reviews

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/backend-nursery/internal/common"
)

type Handler struct {
	Svc *Service
}

// List handles GET /api/plants/{id}/reviews.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.Svc.List(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, items)
}

// Create handles POST /api/plants/{id}/reviews.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateInput
	if err := common.DecodeJSON(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	review, err := h.Svc.Create(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]string{
		"message":   "Review added successfully",
		"review_id": review.ID,
	})
}

// Helpful handles POST /api/reviews/{id}/helpful.
func (h *Handler) Helpful(w http.ResponseWriter, r *http.Request) {
	review, err := h.Svc.MarkHelpful(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"message":       "Review marked as helpful",
		"helpful_count": review.HelpfulCount,
	})
}
