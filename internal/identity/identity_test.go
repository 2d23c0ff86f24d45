package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ashureev/quizzical/internal/store"
)

func TestGenerateAnonIDIsValid(t *testing.T) {
	id := generateAnonID()
	if !isValidAnonID(id) {
		t.Errorf("Generated ID %q does not match the anon pattern", id)
	}
}

func TestIsValidAnonID(t *testing.T) {
	tests := map[string]bool{
		"anon_6ba7b810-9dad-11d1-80b4-00c04fd430c8": true,
		"anon_6ba7b8109dad11d180b400c04fd430c8":     false,
		"6ba7b810-9dad-11d1-80b4-00c04fd430c8":      false,
		"anon_6BA7B810-9DAD-11D1-80B4-00C04FD430C8": false,
		"anon_":                                     false,
	}
	for id, want := range tests {
		if got := isValidAnonID(id); got != want {
			t.Errorf("isValidAnonID(%q) = %v, want %v", id, got, want)
		}
	}
}

func TestSanitizeSessionID(t *testing.T) {
	tests := map[string]string{
		"":              DefaultSessionIDValue,
		"  tab-1 ":      "tab-1",
		"bad id!":       DefaultSessionIDValue,
		"a1b2.c3:d4_e5": "a1b2.c3:d4_e5",
	}
	for in, want := range tests {
		if got := sanitizeSessionID(in); got != want {
			t.Errorf("sanitizeSessionID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareAssignsIdentity(t *testing.T) {
	repo, err := store.NewSQLite(store.MemoryPath)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	defer repo.Close()

	var gotUser, gotSession string
	h := Middleware(repo, true)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		gotUser = UserIDFromContext(r.Context())
		gotSession = SessionIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/quiz?session_id=tab-7", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if !isValidAnonID(gotUser) {
		t.Fatalf("Expected anonymous user ID, got %q", gotUser)
	}
	if gotSession != "tab-7" {
		t.Errorf("Expected session tab-7, got %q", gotSession)
	}

	user, err := repo.GetUser(req.Context(), gotUser)
	if err != nil || user == nil {
		t.Fatalf("Expected user to be stored, got %v, %v", user, err)
	}

	// Cookie is reused on the next request.
	cookies := w.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != AnonCookieName {
		t.Fatalf("Expected anon cookie, got %v", cookies)
	}
	req2 := httptest.NewRequest(http.MethodGet, "/api/quiz", nil)
	req2.AddCookie(cookies[0])
	req2.Header.Set(SessionHeaderName, "tab-8")
	first := gotUser
	h.ServeHTTP(httptest.NewRecorder(), req2)

	if gotUser != first {
		t.Errorf("Expected same user %q, got %q", first, gotUser)
	}
	if gotSession != "tab-8" {
		t.Errorf("Expected session from header, got %q", gotSession)
	}
}
