package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func serveCORS(origins []string, method, origin string) *httptest.ResponseRecorder {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	req := httptest.NewRequest(method, "/api/quiz", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	rr := httptest.NewRecorder()
	CORS(origins)(next).ServeHTTP(rr, req)
	return rr
}

func TestCORSExplicitOrigin(t *testing.T) {
	rr := serveCORS([]string{"https://quiz.example.com"}, http.MethodGet, "https://quiz.example.com")

	if rr.Code != http.StatusTeapot {
		t.Errorf("Expected request to reach handler, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://quiz.example.com" {
		t.Errorf("Unexpected Allow-Origin: %q", got)
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("Expected credentials for explicit origin")
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "X-Quiz-Session-ID") {
		t.Error("Expected session header to be allowed")
	}
}

func TestCORSWildcardWithoutCredentials(t *testing.T) {
	rr := serveCORS([]string{"*"}, http.MethodGet, "http://localhost:5173")

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Unexpected Allow-Origin: %q", got)
	}
	if rr.Header().Get("Access-Control-Allow-Credentials") != "" {
		t.Error("Wildcard must not allow credentials")
	}
}

func TestCORSRejectedOrigin(t *testing.T) {
	rr := serveCORS([]string{"https://quiz.example.com"}, http.MethodGet, "https://evil.example.com")

	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("Expected no Allow-Origin for unknown origin")
	}
	if rr.Header().Get("Vary") != "Origin" {
		t.Error("Expected Vary: Origin")
	}
}

func TestCORSPreflight(t *testing.T) {
	rr := serveCORS([]string{"*"}, http.MethodOptions, "http://localhost:5173")

	if rr.Code != http.StatusNoContent {
		t.Errorf("Expected 204 for preflight, got %d", rr.Code)
	}
}
