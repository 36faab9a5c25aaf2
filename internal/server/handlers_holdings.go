package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/mystock/internal/models"
)

// maxImportBytes bounds an uploaded CSV
const maxImportBytes = 5 << 20

// handleHoldings handles GET (list, optional ?category=) and POST (create) on /api/holdings.
func (s *Server) handleHoldings(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	ctx := r.Context()

	if r.Method == http.MethodGet {
		category := models.Category(strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("category"))))
		if category != "" && !category.Valid() {
			WriteErrorWithCode(w, http.StatusBadRequest, "unknown category "+string(category), "validation")
			return
		}
		holdings, err := s.app.Store.GetHoldings(ctx, category)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		if holdings == nil {
			holdings = []models.Holding{}
		}
		WriteJSON(w, http.StatusOK, holdings)
		return
	}

	var h models.Holding
	if !DecodeJSON(w, r, &h) {
		return
	}
	id, err := s.app.Store.AddHolding(ctx, &h)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	created, err := s.app.Store.GetHolding(ctx, id)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// handleHoldingByID handles GET, PUT and DELETE on /api/holdings/{id}.
func (s *Server) handleHoldingByID(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}
	ctx := r.Context()

	raw := PathParam(r, "/api/holdings/", "")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		WriteErrorWithCode(w, http.StatusBadRequest, fmt.Sprintf("invalid holding id %q", raw), "validation")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h, err := s.app.Store.GetHolding(ctx, id)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, h)

	case http.MethodPut:
		var h models.Holding
		if !DecodeJSON(w, r, &h) {
			return
		}
		if err := s.app.Store.UpdateHolding(ctx, id, &h); err != nil {
			WriteServiceError(w, err)
			return
		}
		updated, err := s.app.Store.GetHolding(ctx, id)
		if err != nil {
			WriteServiceError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, updated)

	case http.MethodDelete:
		if err := s.app.Store.DeleteHolding(ctx, id); err != nil {
			WriteServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleExport handles GET /api/export and streams the ledger as CSV.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	var buf bytes.Buffer
	if _, err := s.app.Transfer.Export(r.Context(), &buf); err != nil {
		WriteServiceError(w, err)
		return
	}

	name := fmt.Sprintf("mystock_portfolio_%s.csv", time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// handleImport handles POST /api/import. The CSV body replaces every holding.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)

	res, err := s.app.Transfer.Import(r.Context(), body)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
