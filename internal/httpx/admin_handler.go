package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/catalog"
	"github.com/chaitanyaponnada/projecthub/internal/checkout"
)

type AdminHandler struct {
	Catalog  *catalog.Service
	Checkout *checkout.Service
	Log      *zap.Logger
}

type ProjectReq struct {
	Title       string `json:"title" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents" validate:"required,min=0"`
	ImageURL    string `json:"image_url"`
	DemoURL     string `json:"demo_url"`
	DownloadURL string `json:"download_url" validate:"required,url"`
}

func (h *AdminHandler) RegisterAdmin(r chi.Router) {
	r.Post("/admin/projects", h.createProject)
	r.Put("/admin/projects/{id}", h.updateProject)
	r.Delete("/admin/projects/{id}", h.deleteProject)

	r.Get("/admin/reviews/pending", h.pendingReviews)
	r.Post("/admin/reviews/{id}/approve", h.approveReview)
	r.Delete("/admin/reviews/{id}", h.deleteReview)

	r.Get("/admin/inquiries", h.listInquiries)
	r.Post("/admin/inquiries/{id}/close", h.closeInquiry)

	r.Get("/admin/sales", h.listSales)
}

func (h *AdminHandler) createProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.Catalog.CreateProject(r.Context(), catalog.Project{
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		DemoURL:     req.DemoURL,
		DownloadURL: req.DownloadURL,
	})
	if err != nil {
		h.Log.Error("create project failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *AdminHandler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	p, err := h.Catalog.UpdateProject(r.Context(), catalog.Project{
		ID:          chi.URLParam(r, "id"),
		Title:       req.Title,
		Category:    req.Category,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		ImageURL:    req.ImageURL,
		DemoURL:     req.DemoURL,
		DownloadURL: req.DownloadURL,
	})
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("update project failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AdminHandler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteProject(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("delete project failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) pendingReviews(w http.ResponseWriter, r *http.Request) {
	revs, err := h.Catalog.ListPendingReviews(r.Context())
	if err != nil {
		h.Log.Error("list pending reviews failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if revs == nil {
		revs = []catalog.Review{}
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *AdminHandler) approveReview(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.ApproveReview(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) deleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.DeleteReview(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "review not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listInquiries(w http.ResponseWriter, r *http.Request) {
	ins, err := h.Catalog.ListInquiries(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.Log.Error("list inquiries failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ins == nil {
		ins = []catalog.Inquiry{}
	}
	writeJSON(w, http.StatusOK, ins)
}

func (h *AdminHandler) closeInquiry(w http.ResponseWriter, r *http.Request) {
	if err := h.Catalog.CloseInquiry(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "inquiry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := h.Checkout.ListSales(r.Context())
	if err != nil {
		h.Log.Error("list sales failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if sales == nil {
		sales = []checkout.Sale{}
	}
	writeJSON(w, http.StatusOK, sales)
}
