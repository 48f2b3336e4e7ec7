// Fieldtrace - Field Canvassing Activity Reconstruction and Scoring
// Copyright 2026 Fieldtrace Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fieldtrace/fieldtrace

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/fieldtrace/fieldtrace/internal/models"
)

// recordsResponse is the live records listing.
type recordsResponse struct {
	Day     string                    `json:"day"`
	Records []*models.DailyUserRecord `json:"records"`
}

// submitResponse acknowledges an accepted event.
type submitResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"day":    s.records.Day(),
	})
}

func (s *Server) handleListRecords(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, recordsResponse{
		Day:     s.records.Day(),
		Records: s.records.All(),
	})
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	rec, ok := s.records.Get(userID)
	if !ok {
		writeError(w, http.StatusNotFound, "no record for user "+userID+" today")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request) {
	var ev models.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, "malformed event body: "+err.Error())
		return
	}

	if ev.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if ev.Type == "" {
		writeError(w, http.StatusBadRequest, "type is required")
		return
	}
	if ev.Timestamp <= 0 {
		writeError(w, http.StatusBadRequest, "timestamp must be positive epoch milliseconds")
		return
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	if err := s.sink.SubmitEvent(ev); err != nil {
		s.logger.Error().Err(err).Str("user_id", ev.UserID).Msg("Event submission failed")
		writeError(w, http.StatusServiceUnavailable, "event pipeline unavailable")
		return
	}

	// Processing is asynchronous; acceptance is not yet aggregation.
	writeJSON(w, http.StatusAccepted, submitResponse{ID: ev.ID, Status: "accepted"})
}

func (s *Server) handleReconstruct(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "date")
	if !validDay(day) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	userID := r.URL.Query().Get("user")

	result, err := s.recon.Reconstruct(r.Context(), day, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("day", day).Msg("Reconstruction failed")
		writeError(w, http.StatusBadGateway, "day log unavailable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEvictReconstruction(w http.ResponseWriter, r *http.Request) {
	day := chi.URLParam(r, "date")
	if !validDay(day) {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	s.recon.Evict(day, r.URL.Query().Get("user"))
	w.WriteHeader(http.StatusNoContent)
}

func validDay(day string) bool {
	_, err := time.Parse("2006-01-02", day)
	return err == nil
}
