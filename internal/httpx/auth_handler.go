package httpx

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/users"
)

type AuthHandler struct {
	Users *users.Service
	Log   *zap.Logger
}

type RegisterReq struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResp struct {
	Token string     `json:"token"`
	User  users.User `json:"user"`
}

func (h *AuthHandler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

func (h *AuthHandler) RegisterProtected(r chi.Router) {
	r.Post("/auth/logout", h.logout)
}

func (h *AuthHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.Users.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		h.Log.Error("register failed", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginReq
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, u, err := h.Users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		h.Log.Error("login failed", zap.String("email", req.Email), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, LoginResp{Token: token, User: u})
}

func (h *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if err := h.Users.Logout(r.Context(), token); err != nil {
		h.Log.Warn("logout failed", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
