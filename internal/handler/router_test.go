package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	middlewarePkg "github.com/zhouzirui/persons-api/internal/middleware"
	personModel "github.com/zhouzirui/persons-api/internal/model/person"
	watchService "github.com/zhouzirui/persons-api/internal/service/watch"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	hub := watchService.NewHub(4)
	t.Cleanup(hub.Close)

	store, err := personModel.NewMemoryStore([]personModel.Person{{ID: 1, Name: "Alice"}}, personModel.WithNotifier(hub))
	require.NoError(t, err)

	metrics, err := middlewarePkg.NewMetrics()
	require.NoError(t, err)

	return NewRouter(store, hub, metrics, Options{Greeting: "Hi!"})
}

func call(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestEndToEndScenario(t *testing.T) {
	r := newTestRouter(t)

	resp := call(r, http.MethodGet, "/api/persons", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[{"id":1,"name":"Alice"}]`, resp.Body.String())

	resp = call(r, http.MethodGet, "/api/person/1", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"id":1,"name":"Alice"}`, resp.Body.String())

	resp = call(r, http.MethodGet, "/api/person/2", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = call(r, http.MethodPost, "/api/person", `{"name":"Bob"}`)
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = call(r, http.MethodGet, "/api/persons", "")
	var persons []personModel.Person
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &persons))
	assert.Len(t, persons, 2)

	resp = call(r, http.MethodDelete, "/api/person/1", "")
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = call(r, http.MethodGet, "/api/person/1", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestSiteRoutes(t *testing.T) {
	r := newTestRouter(t)

	resp := call(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, strings.HasPrefix(resp.Body.String(), "Go-Chi Hi! <br> Current UTC time: "))
	assert.Equal(t, "*", resp.Header().Get("Access-Control-Allow-Origin"))

	resp = call(r, http.MethodGet, "/health", "")
	assert.Equal(t, "OK", resp.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	r := newTestRouter(t)

	call(r, http.MethodGet, "/api/person/7", "")

	resp := call(r, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `path="/api/person/{id}",status="404"`)
}

func TestUnknownRoutesAreJSON(t *testing.T) {
	r := newTestRouter(t)

	resp := call(r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.JSONEq(t, `{"error":"route not found"}`, resp.Body.String())

	resp = call(r, http.MethodPatch, "/api/person/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.Code)
}

func TestRouterWithoutOptionalServices(t *testing.T) {
	store, err := personModel.NewMemoryStore(personModel.Seed())
	require.NoError(t, err)
	r := NewRouter(store, nil, nil, Options{})

	assert.Equal(t, http.StatusServiceUnavailable, call(r, http.MethodGet, "/api/persons/watch", "").Code)
	assert.Equal(t, http.StatusNotFound, call(r, http.MethodGet, "/metrics", "").Code)
	assert.Equal(t, http.StatusOK, call(r, http.MethodGet, "/api/persons", "").Code)
}
