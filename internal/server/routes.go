package server

import (
	"net/http"
	"strings"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/mystock/internal/common"
)

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/api/ai/status", s.handleAIStatus)
	mux.HandleFunc("/api/tools", s.handleToolList)

	// Holdings
	mux.HandleFunc("/api/holdings/", s.handleHoldingByID)
	mux.HandleFunc("/api/holdings", s.handleHoldings)
	mux.HandleFunc("/api/export", s.handleExport)
	mux.HandleFunc("/api/import", s.handleImport)

	// Portfolio and prices
	mux.HandleFunc("/api/portfolio", s.handlePortfolio)
	mux.HandleFunc("/api/prices/", s.handlePrice)
	mux.HandleFunc("/api/funds/search", s.handleFundSearch)
	mux.HandleFunc("/api/funds/", s.routeFunds)
	mux.HandleFunc("/api/forex", s.handleForex)

	// AI
	mux.HandleFunc("/api/chat/sessions/", s.routeChatSession)
	mux.HandleFunc("/api/chat/sessions", s.handleChatSessionCreate)
	mux.HandleFunc("/api/insights", s.handleInsights)

	// Alerts
	mux.HandleFunc("/api/alerts/ws", s.handleAlertsWS)
	mux.HandleFunc("/api/alerts/clear", s.handleAlertsClear)
	mux.HandleFunc("/api/alerts/", s.routeAlerts)
	mux.HandleFunc("/api/alerts", s.handleAlerts)

	// MCP over Streamable HTTP
	mux.Handle("/mcp", mcpserver.NewStreamableHTTPServer(s.app.MCPServer,
		mcpserver.WithStateLess(true),
	))
}

// routeFunds dispatches /api/funds/{symbol}/nav.
func (s *Server) routeFunds(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/funds/")
	symbol, sub, _ := strings.Cut(rest, "/")
	if symbol == "" || sub != "nav" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleManualNAV(w, r, symbol)
}

// routeChatSession dispatches /api/chat/sessions/{id} and /api/chat/sessions/{id}/messages.
func (s *Server) routeChatSession(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/chat/sessions/")
	id, sub, _ := strings.Cut(rest, "/")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "session id is required in path")
		return
	}

	switch sub {
	case "":
		s.handleChatSession(w, r, id)
	case "messages":
		s.handleChatMessage(w, r, id)
	default:
		WriteError(w, http.StatusNotFound, "Not found")
	}
}

// routeAlerts dispatches /api/alerts/{index}/dismiss.
func (s *Server) routeAlerts(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/alerts/")
	index, sub, _ := strings.Cut(rest, "/")
	if index == "" || sub != "dismiss" {
		WriteError(w, http.StatusNotFound, "Not found")
		return
	}
	s.handleAlertDismiss(w, r, index)
}

// --- System handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{
		"version": common.Version,
		"build":   common.Build,
		"commit":  common.GitCommit,
	})
}

func (s *Server) handleAIStatus(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Budget.Status(r.Context()))
}

func (s *Server) handleToolList(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Tools.Schemas())
}
