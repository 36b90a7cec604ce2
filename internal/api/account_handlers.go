package api

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

type accountRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateAccount stores a new account
func (h *Handlers) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	id, err := h.models.Accounts.Create(r.Context(), req.Email, req.Password, req.Role)
	observe("account", "create", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "account created",
		"id":      id,
	})
}

// Login checks an email and password pair
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req accountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	role, err := h.models.Accounts.CheckCredentials(r.Context(), req.Email, req.Password)
	observe("account", "login", err)
	if err != nil {
		writeError(w, r, err)
		return
	}

	log.Info().
		Str("role", role).
		Str("remote_addr", r.RemoteAddr).
		Msg("Login succeeded")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid": true,
		"role":  role,
	})
}
