package http

import (
	"net/http"

	"budgetai/internal/core"
	"budgetai/internal/log"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	signed, err := s.accounts.Register(r.Context(), p.Get("email"), p.Get("name"), p.Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "User registered", log.FieldUserID, signed.User.ID)
	writeJSON(w, http.StatusCreated, signed)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	signed, err := s.accounts.Login(r.Context(), p.Get("email"), p.Get("password"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, signed)
}

// handlePasswordResetRequest always answers 202 so the endpoint does not
// reveal which emails are registered.
func (s *Server) handlePasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	email := p.Get("email")
	if email == "" {
		writeError(w, r, core.Invalid("email", "is required"))
		return
	}
	token, err := s.accounts.RequestPasswordReset(r.Context(), email)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if token != "" {
		s.notifyReset(r.Context(), email, token)
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	p, err := parseBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.accounts.ResetPassword(r.Context(), p.Get("token"), p.Get("password")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
