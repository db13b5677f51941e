package httpapi

import (
	"errors"
	"net/http"

	"github.com/clearstack/opsdesk/internal/domain"
)

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token string      `json:"token"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  domain.Role `json:"role"`
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, id, err := s.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidLogin) || errors.Is(err, domain.ErrUserNotFound) {
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		if errors.Is(err, domain.ErrNotConfigured) {
			writeError(w, http.StatusServiceUnavailable, "directory unavailable")
			return
		}
		writeError(w, http.StatusInternalServerError, "sign in failed")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, signInResponse{
		Token: token,
		Email: id.Email,
		Name:  id.Name,
		Role:  id.Role,
	})
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	token := GetToken(r.Context())
	if token == "" {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	s.dropSurfaces(token)
	if err := s.auth.SignOut(r.Context(), token); err != nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}
