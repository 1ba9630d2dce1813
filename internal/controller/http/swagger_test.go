package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSpec = `openapi: "3.0.3"
info:
  title: Test
  version: "1"
paths:
  /posts:
    get:
      responses:
        "200":
          description: ok
`

func TestSwaggerHandler(t *testing.T) {
	h, err := NewSwaggerHandler("Test API", []byte(testSpec))
	require.NoError(t, err)

	r := chi.NewRouter()
	h.RegisterRoutes(r)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/docs/openapi.json", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	assert.Equal(t, "3.0.3", doc["openapi"])

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Test API - API Documentation")
}

func TestSwaggerHandler_InvalidDocument(t *testing.T) {
	_, err := NewSwaggerHandler("Broken", []byte("openapi: [unclosed"))
	assert.Error(t, err)
}
