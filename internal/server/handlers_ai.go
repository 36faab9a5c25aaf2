package server

import (
	"net/http"
	"strconv"
)

// handleChatSessionCreate handles POST /api/chat/sessions.
func (s *Server) handleChatSessionCreate(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	WriteJSON(w, http.StatusCreated, s.app.Agent.Sessions().Create())
}

// handleChatSession handles GET (transcript) and DELETE on /api/chat/sessions/{id}.
func (s *Server) handleChatSession(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodDelete) {
		return
	}
	sessions := s.app.Agent.Sessions()

	if r.Method == http.MethodDelete {
		if err := sessions.Delete(id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	sess, err := sessions.Get(id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, sess)
}

// handleChatMessage handles POST /api/chat/sessions/{id}/messages with {"message": "..."}.
func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request, id string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}

	reply, err := s.app.Agent.Respond(r.Context(), id, body.Message)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, reply)
}

// handleInsights handles POST /api/insights; ?refresh=true skips the cached report.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	report, err := s.app.Insights.Get(r.Context(), QueryBool(r, "refresh"))
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report)
}

// --- Alerts ---

// handleAlerts handles GET /api/alerts; ?all=true includes dismissed alerts.
func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	if QueryBool(r, "all") {
		WriteJSON(w, http.StatusOK, s.app.Alerts.All())
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Alerts.Active())
}

// handleAlertDismiss handles POST /api/alerts/{index}/dismiss. The index is
// into the active list; out of range is not an error.
func (s *Server) handleAlertDismiss(w http.ResponseWriter, r *http.Request, raw string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	index, err := strconv.Atoi(raw)
	if err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "alert index must be an integer", "validation")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"dismissed": s.app.Alerts.Dismiss(index)})
}

func (s *Server) handleAlertsClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	s.app.Alerts.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// handleAlertsWS handles GET /api/alerts/ws and upgrades to the alert stream.
func (s *Server) handleAlertsWS(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	s.app.Hub.ServeWS(w, r)
}
