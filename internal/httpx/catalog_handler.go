package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/catalog"
)

type CatalogHandler struct {
	Catalog *catalog.Service
	Log     *zap.Logger
}

type CreateReviewReq struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required"`
}

type CreateInquiryReq struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}

func (h *CatalogHandler) Register(r chi.Router) {
	r.Get("/projects", h.listProjects)
	r.Get("/projects/{id}", h.getProject)
	r.Get("/projects/{id}/reviews", h.listReviews)
	r.Post("/inquiries", h.createInquiry)
}

func (h *CatalogHandler) RegisterProtected(r chi.Router) {
	r.Post("/projects/{id}/reviews", h.createReview)
}

func (h *CatalogHandler) listProjects(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Catalog.ListProjects(r.Context(), r.URL.Query().Get("category"), r.URL.Query().Get("q"))
	if err != nil {
		h.Log.Error("list projects failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ps == nil {
		ps = []catalog.Project{}
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *CatalogHandler) getProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := h.Catalog.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		h.Log.Error("get project failed", zap.String("project_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *CatalogHandler) listReviews(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	revs, err := h.Catalog.ListReviews(r.Context(), id, true)
	if err != nil {
		h.Log.Error("list reviews failed", zap.String("project_id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if revs == nil {
		revs = []catalog.Review{}
	}
	writeJSON(w, http.StatusOK, revs)
}

func (h *CatalogHandler) createReview(w http.ResponseWriter, r *http.Request) {
	var req CreateReviewReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, _ := SessionFrom(r.Context())
	projectID := chi.URLParam(r, "id")

	if _, err := h.Catalog.GetProject(r.Context(), projectID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	rev, err := h.Catalog.CreateReview(r.Context(), catalog.Review{
		ProjectID: projectID,
		UserID:    sess.UserID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.Log.Error("create review failed", zap.String("project_id", projectID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (h *CatalogHandler) createInquiry(w http.ResponseWriter, r *http.Request) {
	var req CreateInquiryReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	in, err := h.Catalog.CreateInquiry(r.Context(), catalog.Inquiry{
		Name:    req.Name,
		Email:   req.Email,
		Subject: req.Subject,
		Message: req.Message,
	})
	if err != nil {
		h.Log.Error("create inquiry failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, in)
}
