package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bobmcallan/mystock/internal/models"
)

func TestWriteServiceError_StatusMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		tag  string
	}{
		{"validation", &models.ValidationError{Field: "quantity", Message: "quantity must be positive"}, http.StatusBadRequest, "validation"},
		{"not found", &models.NotFoundError{Entity: "holding", ID: "7"}, http.StatusNotFound, "not_found"},
		{"budget", fmt.Errorf("chat: %w", models.ErrBudgetExceeded), http.StatusPaymentRequired, "budget_exceeded"},
		{"no ai", models.ErrAINotConfigured, http.StatusServiceUnavailable, "ai_not_configured"},
		{"provider", &models.ProviderError{Provider: "openai", Err: errors.New("timeout")}, http.StatusBadGateway, "provider"},
		{"other", errors.New("disk full"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			WriteServiceError(rr, tt.err)

			if rr.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, rr.Code)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("Invalid JSON body: %v", err)
			}
			if body.Code != tt.tag {
				t.Errorf("Expected code %q, got %q", tt.tag, body.Code)
			}
			if body.Error == "" {
				t.Error("Expected an error message")
			}
		})
	}
}

func TestRequireMethod_SetsAllowHeader(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/api/holdings/1", nil)

	if RequireMethod(rr, req, http.MethodGet, http.MethodPut) {
		t.Fatal("PATCH should not be allowed")
	}
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rr.Code)
	}
	if got := rr.Header().Get("Allow"); got != "GET, PUT" {
		t.Errorf("Expected Allow 'GET, PUT', got %q", got)
	}
}

func TestDecodeJSON_RejectsMalformedBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/holdings", strings.NewReader("{not json"))

	var v map[string]any
	if DecodeJSON(rr, req, &v) {
		t.Fatal("Expected decode failure")
	}
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rr.Code)
	}
}

func TestPathParam(t *testing.T) {
	tests := []struct {
		path, prefix, suffix, want string
	}{
		{"/api/holdings/42", "/api/holdings/", "", "42"},
		{"/api/chat/sessions/abc/messages", "/api/chat/sessions/", "/messages", "abc"},
		{"/api/prices/D05.SI/extra", "/api/prices/", "", "D05.SI"},
		{"/other/42", "/api/holdings/", "", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		if got := PathParam(req, tt.prefix, tt.suffix); got != tt.want {
			t.Errorf("PathParam(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestQueryBool(t *testing.T) {
	tests := map[string]bool{
		"/api/alerts?all=true": true,
		"/api/alerts?all=1":    true,
		"/api/alerts?all=no":   false,
		"/api/alerts":          false,
	}
	for target, want := range tests {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if got := QueryBool(req, "all"); got != want {
			t.Errorf("QueryBool(%q) = %v, want %v", target, got, want)
		}
	}
}
