package server

import (
	"net/http"
	"strings"

	"github.com/bobmcallan/mystock/internal/models"
)

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	summary, err := s.app.Portfolio.GetPortfolio(r.Context())
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, summary)
}

// handlePrice handles GET /api/prices/{symbol}?category=
func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	symbol := strings.TrimSpace(PathParam(r, "/api/prices/", ""))
	if symbol == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "symbol is required in path", "validation")
		return
	}

	category := models.Category(strings.ToUpper(r.URL.Query().Get("category")))
	if category == "" {
		category = models.CategoryUSStock
	}
	if !category.Valid() {
		WriteErrorWithCode(w, http.StatusBadRequest, "unknown category "+string(category), "validation")
		return
	}

	resolver, ok := s.app.Resolvers.For(category)
	if !ok {
		WriteError(w, http.StatusNotFound, "no price source for "+string(category))
		return
	}
	rec, ok := resolver.Resolve(r.Context(), symbol)
	if !ok {
		WriteErrorWithCode(w, http.StatusNotFound, "no price available for "+symbol, "not_found")
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// handleFundSearch handles GET /api/funds/search?q=
func (s *Server) handleFundSearch(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		WriteErrorWithCode(w, http.StatusBadRequest, "q is required", "validation")
		return
	}
	WriteJSON(w, http.StatusOK, s.app.Funds.Search(r.Context(), q))
}

// handleManualNAV handles POST /api/funds/{symbol}/nav with {"nav": 1.23}
func (s *Server) handleManualNAV(w http.ResponseWriter, r *http.Request, symbol string) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var body struct {
		NAV float64 `json:"nav"`
	}
	if !DecodeJSON(w, r, &body) {
		return
	}
	rec, err := s.app.ManualNAV.SetManualNAV(r.Context(), symbol, body.NAV)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// handleForex handles GET /api/forex?from=&to=
func (s *Server) handleForex(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	from := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("from")))
	to := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("to")))
	if to == "" {
		to = s.app.Portfolio.ReportingCurrency()
	}
	if len(from) != 3 || len(to) != 3 {
		WriteErrorWithCode(w, http.StatusBadRequest, "from and to must be 3-letter currency codes", "validation")
		return
	}

	rate, ok := s.app.Forex.GetRate(r.Context(), from, to)
	if !ok {
		WriteErrorWithCode(w, http.StatusBadGateway, "exchange rate unavailable", "provider")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"from": from,
		"to":   to,
		"rate": rate,
	})
}
