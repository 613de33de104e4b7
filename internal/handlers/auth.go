package handlers

import (
	"net/http"

	"shotlog/internal/metrics"
	"shotlog/internal/middleware"
	"shotlog/internal/models"

	"github.com/rs/zerolog/log"
)

// aliasCookieMaxAge keeps an alias for a year
const aliasCookieMaxAge = 86400 * 365

type loginRequest struct {
	Alias string `json:"alias"`
}

type meResponse struct {
	Alias string `json:"alias"`
}

// HandleLogin records the alias and sets the alias cookie
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeRequest(r, &req, func() error {
		req.Alias = r.FormValue("alias")
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to decode login request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	alias, err := models.NormalizeAlias(req.Alias)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid").Inc()
		log.Warn().Str("alias", req.Alias).Msg("Rejected login alias")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.store.RegisterUser(r.Context(), alias); err != nil {
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		log.Error().Err(err).Str("user", alias).Msg("Failed to register user")
		http.Error(w, "Failed to log in", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.UserCookieName,
		Value:    alias,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   aliasCookieMaxAge,
	})

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	log.Info().Str("user", alias).Msg("User logged in")

	writeJSON(w, meResponse{Alias: alias}, "login")
}

// HandleLogout clears the alias cookie
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.UserCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.config.SecureCookies,
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleAPIMe returns the current alias
func (h *Handler) HandleAPIMe(w http.ResponseWriter, r *http.Request) {
	alias, ok := currentUser(w, r)
	if !ok {
		return
	}
	writeJSON(w, meResponse{Alias: alias}, "me")
}
