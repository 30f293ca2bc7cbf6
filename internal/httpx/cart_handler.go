package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/cart"
	"github.com/chaitanyaponnada/projecthub/internal/catalog"
)

type CartHandler struct {
	Carts   cart.Store
	Catalog *catalog.Service
	Log     *zap.Logger
}

type AddCartItemReq struct {
	ProjectID string `json:"project_id" validate:"required"`
}

func (h *CartHandler) RegisterProtected(r chi.Router) {
	r.Get("/cart", h.getCart)
	r.Post("/cart/items", h.addItem)
	r.Delete("/cart/items/{id}", h.removeItem)
	r.Delete("/cart", h.clear)
}

func (h *CartHandler) getCart(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	c, err := h.Carts.Get(r.Context(), sess.UserID)
	if err != nil {
		h.Log.Error("get cart failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req AddCartItemReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, _ := SessionFrom(r.Context())

	// title and price come from the catalog, never from the client
	p, err := h.Catalog.GetProject(r.Context(), req.ProjectID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	c, err := h.Carts.Get(r.Context(), sess.UserID)
	if err != nil {
		h.Log.Error("get cart failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := c.Add(cart.Item{ProjectID: p.ID, Title: p.Title, PriceCents: p.PriceCents}); err != nil {
		if errors.Is(err, cart.ErrAlreadyInCart) {
			writeError(w, http.StatusConflict, "item already in cart")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.Carts.Save(r.Context(), c); err != nil {
		h.Log.Error("save cart failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	c, err := h.Carts.Get(r.Context(), sess.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	c.Remove(chi.URLParam(r, "id"))

	if err := h.Carts.Save(r.Context(), c); err != nil {
		h.Log.Error("save cart failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *CartHandler) clear(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	if err := h.Carts.Clear(r.Context(), sess.UserID); err != nil {
		h.Log.Error("clear cart failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
