package site

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestLandingPage(t *testing.T) {
	h := New("Hello <there>")
	h.now = func() time.Time { return time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC) }

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	want := "Go-Chi Hello &lt;there&gt; <br> Current UTC time: 2024-05-06T07:08:09Z"
	if got := resp.Body.String(); got != want {
		t.Fatalf("unexpected body:\n got %q\nwant %q", got, want)
	}
}

func TestLandingPageDefaultGreeting(t *testing.T) {
	r := chi.NewRouter()
	New("").RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := resp.Body.String(); len(got) < 10 || got[:10] != "Go-Chi Hi!" {
		t.Fatalf("expected default greeting, got %q", got)
	}
}

func TestHealth(t *testing.T) {
	r := chi.NewRouter()
	New("").RegisterRoutes(r)

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	if resp.Code != http.StatusOK || resp.Body.String() != "OK" {
		t.Fatalf("unexpected health response: %d %q", resp.Code, resp.Body.String())
	}
}
