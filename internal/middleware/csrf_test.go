package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func echoToken() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(TokenFromContext(r.Context())))
	})
}

func TestCSRF_IssuesCookieOnGet(t *testing.T) {
	req := httptest.NewRequest("GET", "/transports", nil)
	rr := httptest.NewRecorder()

	CSRF(echoToken()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rr.Code)
	}
	cookies := rr.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != CSRFCookieName {
		t.Fatalf("Expected csrf cookie, got %v", cookies)
	}
	if rr.Body.String() != cookies[0].Value {
		t.Errorf("Context token %q does not match cookie %q", rr.Body.String(), cookies[0].Value)
	}
}

func TestCSRF_RejectsPostWithoutToken(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/transports/refresh", nil)
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	rr := httptest.NewRecorder()

	CSRF(echoToken()).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", rr.Code)
	}
}

func TestCSRF_AcceptsFormToken(t *testing.T) {
	form := url.Values{CSRFFormField: {"abc"}}
	req := httptest.NewRequest("POST", "/api/transports/refresh", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	rr := httptest.NewRecorder()

	CSRF(echoToken()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}

func TestCSRF_AcceptsHeaderToken(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/transports", strings.NewReader("[]"))
	req.Header.Set(CSRFHeaderName, "abc")
	req.AddCookie(&http.Cookie{Name: CSRFCookieName, Value: "abc"})
	rr := httptest.NewRecorder()

	CSRF(echoToken()).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rr.Code)
	}
}
