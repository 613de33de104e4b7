package handlers

import (
	"bytes"
	"net/http"
	"time"

	"shotlog/internal/advisor"
	"shotlog/internal/middleware"
	"shotlog/internal/models"
	"shotlog/internal/shots"

	"github.com/rs/zerolog/log"
)

// adviceRequest is a shot preview, optionally against one of the user's beans
type adviceRequest struct {
	models.CreateShotRequest
	BeanID string `json:"bean_id"`
}

// parseShotForm reads a shot from form values. Numbers that do not parse are
// left absent.
func parseShotForm(r *http.Request) models.CreateShotRequest {
	return models.CreateShotRequest{
		Date:        r.FormValue("date"),
		ShotType:    advisor.ShotType(r.FormValue("shot_type")),
		Grind:       r.FormValue("grind"),
		Dose:        advisor.Parse(r.FormValue("dose_g")),
		Yield:       advisor.Parse(r.FormValue("yield_g")),
		Time:        advisor.Parse(r.FormValue("time_s")),
		TargetRatio: advisor.Parse(r.FormValue("target_ratio")),
		Notes:       r.FormValue("notes"),
	}
}

// HandleAdvice derives and classifies a shot without storing it
func (h *Handler) HandleAdvice(w http.ResponseWriter, r *http.Request) {
	var req adviceRequest
	if err := decodeRequest(r, &req, func() error {
		req.CreateShotRequest = parseShotForm(r)
		req.BeanID = r.FormValue("bean_id")
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to decode advice request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var bean *models.Bean
	if req.BeanID != "" {
		user, ok := middleware.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "Login required", http.StatusUnauthorized)
			return
		}
		b, err := h.svc.Bean(r.Context(), user, req.BeanID)
		if err != nil {
			writeError(w, err, "get bean")
			return
		}
		bean = b
	}

	res, err := h.svc.Preview(&req.CreateShotRequest, bean)
	if err != nil {
		writeError(w, err, "compute advice")
		return
	}
	writeJSON(w, res, "advice")
}

// HandleShotCreate computes advice for a shot and appends it to the bean's log
func (h *Handler) HandleShotCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateShotRequest
	if err := decodeRequest(r, &req, func() error {
		req = parseShotForm(r)
		return nil
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to decode shot create request")
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	entry, err := h.svc.LogShot(r.Context(), user, r.PathValue("id"), &req)
	if err != nil {
		writeError(w, err, "log shot")
		return
	}
	writeCreated(w, entry, "shot")
}

// HandleBeanShots returns the shots of one bean, newest first
func (h *Handler) HandleBeanShots(w http.ResponseWriter, r *http.Request) {
	h.writeLog(w, r, r.PathValue("id"))
}

// HandleShotList returns all of the user's shots, newest first. The bean
// query parameter narrows the log to one bean.
func (h *Handler) HandleShotList(w http.ResponseWriter, r *http.Request) {
	h.writeLog(w, r, r.URL.Query().Get("bean"))
}

func (h *Handler) writeLog(w http.ResponseWriter, r *http.Request, beanID string) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	entries, err := h.svc.Log(r.Context(), user, beanID)
	if err != nil {
		writeError(w, err, "list shots")
		return
	}
	if entries == nil {
		entries = []*models.ShotEntry{}
	}
	writeJSON(w, entries, "shots")
}

// HandleShotExport downloads the log as CSV
func (h *Handler) HandleShotExport(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	// Render into a buffer so a failure can still produce an error status
	var buf bytes.Buffer
	if err := h.svc.ExportCSV(r.Context(), &buf, user, r.URL.Query().Get("bean")); err != nil {
		writeError(w, err, "export shots")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+shots.ExportFilename(time.Now())+`"`)
	if _, err := buf.WriteTo(w); err != nil {
		log.Warn().Err(err).Msg("Failed to write export")
	}
}
