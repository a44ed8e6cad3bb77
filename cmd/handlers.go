package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"sensor-dashboard/internal/analytics"
	"sensor-dashboard/internal/auth"
	"sensor-dashboard/internal/models"
	"sensor-dashboard/internal/refresh"
	"sensor-dashboard/internal/report"
)

const defaultRecentExports = 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeArtifact(w http.ResponseWriter, a report.Artifact) {
	w.Header().Set("Content-Type", a.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+a.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(a.Data)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   version,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login payload")
		return
	}

	err := s.deps.Dashboard.Login(req.Username, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "logged_in"})
	}
}

func (s *Server) logoutHandler(w http.ResponseWriter, r *http.Request) {
	s.deps.Dashboard.Logout()
	if s.deps.Stream != nil {
		s.deps.Stream.CloseAll()
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dashboard.Status())
}

func (s *Server) snapshotHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.deps.Dashboard.Snapshot())
}

func (s *Server) channelView(w http.ResponseWriter, r *http.Request) (models.ChannelView, bool) {
	ch, err := models.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return models.ChannelView{}, false
	}
	v, ok := s.deps.Dashboard.Snapshot().View(ch)
	if !ok {
		writeError(w, http.StatusNotFound, "no view for channel "+ch.String())
	}
	return v, ok
}

func (s *Server) channelHandler(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.channelView(w, r); ok {
		writeJSON(w, http.StatusOK, v)
	}
}

func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	if v, ok := s.channelView(w, r); ok {
		writeJSON(w, http.StatusOK, v.Chart)
	}
}

func (s *Server) chartImageHandler(w http.ResponseWriter, r *http.Request) {
	ch, err := models.ParseChannel(mux.Vars(r)["channel"])
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if s.deps.Charts == nil {
		writeError(w, http.StatusNotFound, "chart images are disabled")
		return
	}
	img, ok := s.deps.Charts.Image(ch)
	if !ok {
		writeError(w, http.StatusNotFound, "no data for channel "+ch.String())
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	w.Write(img)
}

func (s *Server) refreshHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Dashboard.Refresh(); err != nil {
		if errors.Is(err, refresh.ErrNotRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refresh dispatched"})
}

func (s *Server) exportJSONHandler(w http.ResponseWriter, r *http.Request) {
	a, err := s.deps.Reports.ExportJSON(s.deps.Dashboard.Snapshot())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeArtifact(w, a)
}

func (s *Server) exportSummaryHandler(w http.ResponseWriter, r *http.Request) {
	writeArtifact(w, s.deps.Reports.ExportDailySummary(s.deps.Dashboard.Snapshot(), time.Now()))
}

func (s *Server) recentExportsHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.Exports == nil {
		writeError(w, http.StatusNotFound, "export store is disabled")
		return
	}

	count := int64(defaultRecentExports)
	if v := r.URL.Query().Get("count"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	exports, err := s.deps.Exports.RecentExports(count)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	type entry struct {
		Filename  string    `json:"filename"`
		CreatedAt time.Time `json:"created_at"`
		Bytes     int       `json:"bytes"`
	}
	out := make([]entry, 0, len(exports))
	for _, e := range exports {
		out = append(out, entry{Filename: e.Filename, CreatedAt: e.CreatedAt, Bytes: len(e.Data)})
	}
	writeJSON(w, http.StatusOK, out)
}

type sensorResponse struct {
	SensorID int                 `json:"sensor_id"`
	Name     string              `json:"name"`
	Unit     string              `json:"unit"`
	Channel  models.Channel      `json:"channel"`
	Window   models.Window       `json:"window"`
	Stats    models.ChannelStats `json:"stats"`
}

// sensorHandler queries one sensor live and windows the answer the same way
// the refresh loop does.
func (s *Server) sensorHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "sensor id must be an integer")
		return
	}
	ch, ok := analytics.Classify(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown sensor "+strconv.Itoa(id))
		return
	}

	batch, err := s.deps.Sensors.MeasurementsBySensor(r.Context(), id)
	if err != nil {
		s.log.Warn("sensor query failed", slog.Int("sensor_id", id), slog.Any("err", err))
		writeError(w, http.StatusBadGateway, "backend connection error")
		return
	}

	var own []models.Measurement
	for _, m := range batch {
		if m.SensorID == id {
			own = append(own, m)
		}
	}
	win := analytics.SelectWindows(own)[ch]

	writeJSON(w, http.StatusOK, sensorResponse{
		SensorID: id,
		Name:     models.SensorName(id),
		Unit:     models.SensorUnit(id),
		Channel:  ch,
		Window:   win,
		Stats:    analytics.Stats(win),
	})
}
