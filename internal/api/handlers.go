package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/watermon-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/watermon-core/internal/journal"
	"github.com/nerrad567/watermon-core/internal/meter"
	"github.com/nerrad567/watermon-core/internal/submission"
)

// componentHealthTimeout bounds each component check within /health.
const componentHealthTimeout = 3 * time.Second

// handleHealth reports the server and component health.
//
// The response is 200 with status "ok" when every configured component is
// healthy, or "degraded" with per-component detail otherwise. The HTTP
// status stays 200 either way so dashboards can read the body.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string)
	status := "ok"

	check := func(name string, hc HealthChecker) {
		if hc == nil {
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), componentHealthTimeout)
		defer cancel()
		if err := hc.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			return
		}
		components[name] = "ok"
	}

	check("store", s.store)
	check("journal", s.journalDB)
	check("broker", s.broker)

	writeJSON(w, http.StatusOK, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

// handleListRooms returns the configured rooms and meters in display order.
func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"rooms": s.submissions.Rooms(),
	})
}

// latestReading is one meter's most recent stored value, if any.
type latestReading struct {
	MeterID     string     `json:"meter_id"`
	MeterName   string     `json:"meter_name"`
	Room        string     `json:"room"`
	StoredValue *float64   `json:"stored_value,omitempty"`
	RawValue    *float64   `json:"raw_value,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

// handleLatestReadings returns the last stored value per configured meter.
// Meters with no data yet are listed with null values.
func (s *Server) handleLatestReadings(w http.ResponseWriter, r *http.Request) {
	if s.latest == nil {
		writeNotFound(w, "latest readings not available")
		return
	}

	var readings []latestReading
	for _, room := range s.submissions.Rooms() {
		for _, m := range room.Meters {
			lr := latestReading{
				MeterID:   m.ID,
				MeterName: m.Name,
				Room:      room.Name,
			}

			value, when, err := s.latest.LastValue(r.Context(), room.Name, m.ID)
			if err == nil {
				raw := value - m.Offset
				lr.StoredValue = &value
				lr.RawValue = &raw
				lr.Timestamp = &when
			} else if !errors.Is(err, influxdb.ErrNoData) {
				s.logger.Warn("latest reading lookup failed",
					"meter", m.ID,
					"error", err,
				)
			}

			readings = append(readings, lr)
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"readings": readings,
	})
}

// createReadingRequest is the body for POST /api/v1/readings.
type createReadingRequest struct {
	MeterID string `json:"meter_id"`
	Value   string `json:"value"`
}

// handleCreateReading stores a single reading outside the form flow.
func (s *Server) handleCreateReading(w http.ResponseWriter, r *http.Request) {
	var req createReadingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			writeBadRequest(w, "request body is required")
			return
		}
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}
	if req.MeterID == "" {
		writeBadRequest(w, "meter_id is required")
		return
	}

	result, err := s.submissions.SubmitSingle(r.Context(), req.MeterID, req.Value)
	if err != nil {
		if errors.Is(err, meter.ErrUnknownMeter) {
			writeNotFound(w, "unknown meter: "+req.MeterID)
			return
		}
		writeInternalError(w, err.Error())
		return
	}

	switch result.Outcome {
	case submission.OutcomeWritten:
		writeJSON(w, http.StatusCreated, result)
	case submission.OutcomeSkipped:
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "value is required")
	case submission.OutcomeInvalid:
		writeError(w, http.StatusUnprocessableEntity, ErrCodeValidation, result.Error)
	case submission.OutcomeWriteFailed:
		writeError(w, http.StatusBadGateway, ErrCodeInternal, result.Error)
	default:
		writeInternalError(w, "unexpected outcome")
	}
}

// handleListSubmissions returns journalled per-meter outcomes.
func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeNotFound(w, "submission journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := journal.Filter{
		SubmissionID: q.Get("submission_id"),
		MeterID:      q.Get("meter"),
		Outcome:      q.Get("outcome"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "limit must be an integer")
			return
		}
		filter.Limit = n
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "offset must be an integer")
			return
		}
		filter.Offset = n
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing journal entries failed", "error", err)
		writeInternalError(w, "failed to list submissions")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
