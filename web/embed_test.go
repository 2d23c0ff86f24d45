package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSPAHandler(t *testing.T) {
	h := SPAHandler()

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{"/", http.StatusOK, "Quizzical"},
		{"/app.js", http.StatusOK, "WebSocket"},
		{"/some/client/route", http.StatusOK, "Quizzical"},
		{"/api/unknown", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rr.Code != tt.wantCode {
				t.Fatalf("Expected %d, got %d", tt.wantCode, rr.Code)
			}
			if tt.wantBody != "" && !strings.Contains(rr.Body.String(), tt.wantBody) {
				t.Errorf("Expected body to contain %q", tt.wantBody)
			}
		})
	}
}
