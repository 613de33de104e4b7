package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shotlog/internal/advisor"
	"shotlog/internal/database"
	"shotlog/internal/metrics"
	"shotlog/internal/middleware"
	"shotlog/internal/models"
	"shotlog/internal/shots"

	"github.com/rs/zerolog/log"
)

// Config holds handler configuration options
type Config struct {
	// SecureCookies sets the Secure flag on the alias cookie
	// Should be true in production (HTTPS), false for local development (HTTP)
	SecureCookies bool
}

// Handler contains all HTTP handler methods and their dependencies.
// Dependencies are injected via the constructor for better testability.
type Handler struct {
	svc    *shots.Service
	store  database.Store
	config Config
}

// NewHandler creates a new Handler with all required dependencies.
func NewHandler(svc *shots.Service, store database.Store, config Config) *Handler {
	return &Handler{
		svc:    svc,
		store:  store,
		config: config,
	}
}

// isJSONRequest checks if the request Content-Type is JSON
func isJSONRequest(r *http.Request) bool {
	contentType := r.Header.Get("Content-Type")
	return strings.Contains(contentType, "application/json")
}

// decodeRequest decodes either JSON or form data into the target interface based on Content-Type.
// The parseForm function is called when the request is form-encoded (not JSON).
// Returns an error if parsing fails.
func decodeRequest(r *http.Request, target any, parseForm func() error) error {
	if isJSONRequest(r) {
		if err := json.NewDecoder(r.Body).Decode(target); err != nil {
			return err
		}
		return nil
	}

	if err := r.ParseForm(); err != nil {
		return err
	}
	return parseForm()
}

// writeJSON encodes and writes a JSON response
func writeJSON(w http.ResponseWriter, v any, entityName string) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode " + entityName + " response")
	}
}

// writeCreated writes a 201 JSON response
func writeCreated(w http.ResponseWriter, v any, entityName string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode " + entityName + " response")
	}
}

var validationErrors = []error{
	models.ErrNameRequired,
	models.ErrNameTooLong,
	models.ErrFieldTooLong,
	models.ErrNotesTooLong,
	models.ErrInvalidProcess,
	models.ErrInvalidShotType,
	models.ErrTargetRatioRange,
	models.ErrOutOfRange,
	models.ErrInvalidDate,
	models.ErrAliasInvalid,
	models.ErrNothingToUpdate,
}

func isValidationError(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// writeError maps service errors to a status code. Validation failures carry
// their message; store failures are logged and reported generically.
func writeError(w http.ResponseWriter, err error, action string) {
	switch {
	case isValidationError(err):
		log.Warn().Err(err).Msg(action + " validation failed")
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, database.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("Failed to " + action)
		http.Error(w, "Failed to "+action, http.StatusInternalServerError)
	}
}

// currentUser returns the alias resolved by the user middleware, answering
// 401 when there is none.
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	alias, ok := middleware.UserFromContext(r.Context())
	if !ok {
		http.Error(w, "Login required", http.StatusUnauthorized)
		return "", false
	}
	return alias, true
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, "health")
}

// HandleOptions returns the choice lists for the bean and shot forms.
func (h *Handler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, models.FormOptions(), "options")
}

// HandleDose returns the recommended dose for a shot type.
func (h *Handler) HandleDose(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("shot_type")
	st := advisor.Double
	if raw != "" {
		parsed, ok := advisor.ParseShotType(raw)
		if !ok {
			http.Error(w, models.ErrInvalidShotType.Error(), http.StatusBadRequest)
			return
		}
		st = parsed
	}

	writeJSON(w, struct {
		ShotType advisor.ShotType `json:"shot_type"`
		DoseG    advisor.Value    `json:"dose_g"`
	}{st, advisor.RecommendedDose(st)}, "dose")
}

// HandleStats returns the record totals last published to the gauges.
func (h *Handler) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, metrics.Snapshot(), "stats")
}
