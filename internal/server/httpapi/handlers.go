package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/keuthlie/internal/server/services"
)

// Authenticator is the set of flows exposed over HTTP.
type Authenticator interface {
	Register(ctx context.Context, username, email, password string) (string, error)
	Login(ctx context.Context, email, password, service string) (*services.LoginResult, error)
	VerifyToken(ctx context.Context, token string) (string, error)
	ChangePassword(ctx context.Context, token, password, newPassword string) (*services.LoginResult, error)
	RevokeAll(ctx context.Context, token string) (string, error)
}

type handlers struct {
	auth Authenticator
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.auth.Register(r.Context(), req.Username, req.Email, *req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]string{"uuid": id})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.Login(r.Context(), req.Email, *req.Password, req.Service)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]string{"id": res.ID, "token": res.Token})
}

func (h *handlers) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.auth.VerifyToken(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]string{"id": id})
}

func (h *handlers) changePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.auth.ChangePassword(r.Context(), req.Token, *req.Password, *req.NewPassword)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]string{"id": res.ID, "token": res.Token})
}

func (h *handlers) revoke(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	id, err := h.auth.RevokeAll(r.Context(), req.Token)
	if err != nil {
		writeError(w, err)
		return
	}

	writeOK(w, map[string]string{"id": id})
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeOK(w, map[string]string{"status": "ok"})
}
