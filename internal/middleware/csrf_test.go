package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/travelblog/internal/model"
)

func csrfProtected(called *bool) http.Handler {
	return NewCSRFMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	}))
}

func TestCSRFMiddleware_SafeMethods_PassThroughWithoutToken(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodOptions} {
		t.Run(method, func(t *testing.T) {
			called := false
			w := httptest.NewRecorder()

			csrfProtected(&called).ServeHTTP(w, httptest.NewRequest(method, "/api/admin/comments", nil))

			if !called {
				t.Fatalf("handler should have been called for %s", method)
			}
		})
	}
}

func TestCSRFMiddleware_StateChangingMethods_RequireToken(t *testing.T) {
	tests := []struct {
		name   string
		cookie string
		header string
	}{
		{"Cookieなし", "", "token-a"},
		{"ヘッダーなし", "token-a", ""},
		{"不一致", "token-a", "token-b"},
	}

	for _, method := range []string{http.MethodPost, http.MethodPatch, http.MethodDelete} {
		for _, tt := range tests {
			t.Run(method+"/"+tt.name, func(t *testing.T) {
				called := false
				req := httptest.NewRequest(method, "/api/comments/c-1", nil)
				if tt.cookie != "" {
					req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: tt.cookie})
				}
				if tt.header != "" {
					req.Header.Set(CSRFHeaderName, tt.header)
				}
				w := httptest.NewRecorder()

				csrfProtected(&called).ServeHTTP(w, req)

				if called {
					t.Fatal("handler should not have been called")
				}
				if w.Code != http.StatusForbidden {
					t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
				}
				var body ErrorResponseBody
				if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode: %v", err)
				}
				if body.Code != model.ErrCodeCSRFMismatch {
					t.Errorf("code = %q, want %q", body.Code, model.ErrCodeCSRFMismatch)
				}
			})
		}
	}
}

func TestCSRFMiddleware_MatchingToken_PassesThrough(t *testing.T) {
	called := false
	req := httptest.NewRequest(http.MethodPatch, "/api/comments/c-1/status", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc123"})
	req.Header.Set("X-CSRF-Token", "abc123")
	w := httptest.NewRecorder()

	csrfProtected(&called).ServeHTTP(w, req)

	if !called {
		t.Fatal("handler should have been called with matching token")
	}
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestCSRFTokenHandler_IssuesCookieAndReturnsJSON(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{CookieSecure: true, CookieDomain: "example.pl"})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body["token"]) != 64 {
		t.Errorf("token length = %d, want 64", len(body["token"]))
	}

	var csrfCookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == CSRFCookieName {
			csrfCookie = c
		}
	}
	if csrfCookie == nil {
		t.Fatal("csrf-token cookie should be set")
	}
	if csrfCookie.Value != body["token"] {
		t.Error("cookie value should equal returned token")
	}
	if csrfCookie.HttpOnly {
		t.Error("csrf-token cookie must be readable from JavaScript")
	}
	if !csrfCookie.Secure || csrfCookie.Domain != "example.pl" {
		t.Errorf("cookie attributes = %+v", csrfCookie)
	}
}

func TestCSRFTokenHandler_ExistingCookie_ReturnsSameToken(t *testing.T) {
	handler := NewCSRFTokenHandler(CSRFConfig{})

	req := httptest.NewRequest(http.MethodGet, "/api/csrf-token", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "existing"})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if body["token"] != "existing" {
		t.Errorf("token = %q, want existing", body["token"])
	}
	if len(w.Result().Cookies()) != 0 {
		t.Error("existing cookie should not be replaced")
	}
}
