package httpx

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/catalog"
	"github.com/chaitanyaponnada/projecthub/internal/checkout"
	"github.com/chaitanyaponnada/projecthub/internal/payu"
)

type PaymentHandler struct {
	Checkout *checkout.Service
	Catalog  *catalog.Service
	Log      *zap.Logger

	// FrontendURL is where the payer lands after the provider round
	// trip, e.g. https://shop.example.com
	FrontendURL string
}

type InitiateReq struct {
	TxnID       string `json:"txnid" validate:"required"`
	Amount      string `json:"amount"`
	ProductInfo string `json:"productinfo" validate:"required"`
	FirstName   string `json:"firstname" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Phone       string `json:"phone"`
}

func (h *PaymentHandler) Register(r chi.Router) {
	r.Post("/payment/callback", h.callback)
}

func (h *PaymentHandler) RegisterProtected(r chi.Router) {
	r.Post("/payment/initiate", h.initiate)
	r.Get("/purchases", h.listPurchases)
	r.Get("/purchases/{projectID}/download", h.download)
}

func (h *PaymentHandler) initiate(w http.ResponseWriter, r *http.Request) {
	var req InitiateReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, _ := SessionFrom(r.Context())

	payload, err := h.Checkout.Initiate(r.Context(), sess.UserID, payu.Request{
		TxnID:       req.TxnID,
		Amount:      req.Amount,
		ProductInfo: req.ProductInfo,
		FirstName:   req.FirstName,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		if errors.Is(err, checkout.ErrEmptyCart) {
			writeError(w, http.StatusBadRequest, "cart is empty")
			return
		}
		h.Log.Error("payment initiation failed", zap.String("txn_id", req.TxnID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "payment initiation failed",
			"error":   err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

// callback receives the provider's form-encoded POST and answers with
// a redirect back to the storefront. The verdict never leaks the
// expected hash; a mismatch only surfaces as error=hash_mismatch.
func (h *PaymentHandler) callback(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form body")
		return
	}

	cb := payu.Callback{
		Status:      r.PostFormValue("status"),
		TxnID:       r.PostFormValue("txnid"),
		Amount:      r.PostFormValue("amount"),
		ProductInfo: r.PostFormValue("productinfo"),
		FirstName:   r.PostFormValue("firstname"),
		Email:       r.PostFormValue("email"),
		Hash:        r.PostFormValue("hash"),
	}

	res, err := h.Checkout.HandleCallback(r.Context(), cb)
	if err != nil {
		h.Log.Error("callback handling failed", zap.String("txn_id", cb.TxnID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"message": "payment verification failed",
			"error":   err.Error(),
		})
		return
	}

	q := url.Values{}
	q.Set("txnid", res.TxnID)
	if res.Verified {
		q.Set("status", "success")
	} else {
		q.Set("status", "cancelled")
		if res.Reason != "" {
			q.Set("error", res.Reason)
		}
	}
	http.Redirect(w, r, h.FrontendURL+"/payment-status?"+q.Encode(), http.StatusSeeOther)
}

func (h *PaymentHandler) listPurchases(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	ps, err := h.Checkout.ListPurchases(r.Context(), sess.UserID)
	if err != nil {
		h.Log.Error("list purchases failed", zap.String("user_id", sess.UserID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if ps == nil {
		ps = []checkout.Purchase{}
	}
	writeJSON(w, http.StatusOK, ps)
}

// download hands out the project's download URL, but only to a buyer.
func (h *PaymentHandler) download(w http.ResponseWriter, r *http.Request) {
	sess, _ := SessionFrom(r.Context())
	projectID := chi.URLParam(r, "projectID")

	owned, err := h.Checkout.HasPurchase(r.Context(), sess.UserID, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if !owned {
		writeError(w, http.StatusForbidden, "project not purchased")
		return
	}

	p, err := h.Catalog.GetProject(r.Context(), projectID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeError(w, http.StatusNotFound, "project not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"download_url": p.DownloadURL})
}
