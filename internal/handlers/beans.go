package handlers

import (
	"net/http"
	"strconv"

	"shotlog/internal/advisor"
	"shotlog/internal/models"
	"shotlog/internal/suggestions"

	"github.com/rs/zerolog/log"
)

// HandleBeanList returns the user's beans sorted by label
func (h *Handler) HandleBeanList(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	beans, err := h.svc.Beans(r.Context(), user)
	if err != nil {
		writeError(w, err, "list beans")
		return
	}
	if beans == nil {
		beans = []*models.Bean{}
	}
	writeJSON(w, beans, "beans")
}

// HandleBeanGet returns a single bean
func (h *Handler) HandleBeanGet(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	bean, err := h.svc.Bean(r.Context(), user, r.PathValue("id"))
	if err != nil {
		writeError(w, err, "get bean")
		return
	}
	writeJSON(w, bean, "bean")
}

// HandleBeanCreate adds a bean, or updates the one with the same brand and name
func (h *Handler) HandleBeanCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateBeanRequest
	if err := decodeRequest(r, &req, func() error {
		req = models.CreateBeanRequest{
			Brand:        r.FormValue("brand"),
			Name:         r.FormValue("name"),
			Process:      models.Process(r.FormValue("process")),
			ProcessOther: r.FormValue("process_other"),
			TargetRatio:  advisor.Parse(r.FormValue("target_ratio")).Ptr(),
			Notes:        r.FormValue("notes"),
		}
		log.Debug().
			Str("brand", req.Brand).
			Str("name", req.Name).
			Msg("Parsed bean create form")
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to decode bean create request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bean, err := h.svc.SaveBean(r.Context(), user, &req)
	if err != nil {
		writeError(w, err, "save bean")
		return
	}
	writeCreated(w, bean, "bean")
}

// HandleBeanUpdate changes a bean's target ratio or notes
func (h *Handler) HandleBeanUpdate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateBeanRequest
	if err := decodeRequest(r, &req, func() error {
		if r.Form.Has("target_ratio") {
			req.TargetRatio = advisor.Parse(r.FormValue("target_ratio")).Ptr()
		}
		if r.Form.Has("notes") {
			notes := r.FormValue("notes")
			req.Notes = &notes
		}
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to decode bean update request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bean, err := h.svc.UpdateBean(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		writeError(w, err, "update bean")
		return
	}
	writeJSON(w, bean, "bean")
}

// HandleSuggestions completes a bean form field from the user's beans
func (h *Handler) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	field, ok := suggestions.ParseField(r.PathValue("field"))
	if !ok {
		http.Error(w, "Unknown suggestion field", http.StatusNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 50 {
			http.Error(w, "limit must be between 1 and 50", http.StatusBadRequest)
			return
		}
		limit = n
	}

	results, err := h.svc.Suggest(r.Context(), user, field, r.URL.Query().Get("q"), limit)
	if err != nil {
		writeError(w, err, "search suggestions")
		return
	}
	if results == nil {
		results = []suggestions.Suggestion{}
	}
	writeJSON(w, results, "suggestions")
}
