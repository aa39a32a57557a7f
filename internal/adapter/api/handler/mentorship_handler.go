package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// MentorshipHandler handles the resource routes the freemium gate protects.
// The mentorship domain itself lives in another service; these endpoints
// accept the request, assign an identifier and hand off. What matters here is
// that every one of them passes through quota and rate-limit enforcement
// before this code runs.
type MentorshipHandler struct {
	logger *slog.Logger
}

// NewMentorshipHandler creates a new MentorshipHandler.
func NewMentorshipHandler(logger *slog.Logger) *MentorshipHandler {
	return &MentorshipHandler{logger: logger}
}

// CreateIntern handles POST /api/mentorship/interns.
func (h *MentorshipHandler) CreateIntern(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, "intern")
}

// CreateCase handles POST /api/mentorship/cases.
func (h *MentorshipHandler) CreateCase(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, "case")
}

// UploadResource handles POST /api/mentorship/resources.
func (h *MentorshipHandler) UploadResource(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, "resource")
}

// ScheduleSession handles POST /api/mentorship/sessions.
func (h *MentorshipHandler) ScheduleSession(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, "session")
}

// CreateCompetency handles POST /api/mentorship/competencies.
func (h *MentorshipHandler) CreateCompetency(w http.ResponseWriter, r *http.Request) {
	h.accepted(w, "competency")
}

// ExportReport handles GET /api/mentorship/reports/export.
func (h *MentorshipHandler) ExportReport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"export_id":    uuid.New(),
		"requested_at": time.Now().UTC(),
		"status":       "queued",
	})
}

// AIAssist handles POST /api/mentorship/ai/assist.
func (h *MentorshipHandler) AIAssist(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"request_id": uuid.New(),
		"status":     "accepted",
	})
}

func (h *MentorshipHandler) accepted(w http.ResponseWriter, kind string) {
	id := uuid.New()
	h.logger.Debug("resource accepted", "kind", kind, "id", id)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"id":         id,
		"kind":       kind,
		"created_at": time.Now().UTC(),
	})
}
