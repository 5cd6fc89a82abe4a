package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/pixelstudio/internal/logging"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type httpObs struct {
	route  string
	status int
}

func (o *httpObs) ObserveHTTP(_ string, route string, status int, _ time.Duration) {
	o.route = route
	o.status = status
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	obs := &httpObs{}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(AccessLog(logging.NewJSON(&buf, "info"), obs))
	r.Get("/api/images/{imageID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/images/abc", nil)
	req.AddCookie(&http.Cookie{Name: "pixelstudio_access", Value: "secret-token"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "/api/images/{imageID}", obs.route)
	assert.Equal(t, http.StatusTeapot, obs.status)

	line := buf.String()
	assert.Contains(t, line, `"status":418`)
	assert.Contains(t, line, `"request_id"`)
	assert.NotContains(t, line, "secret-token")
}
