package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, inbound string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var seen string
	r := gin.New()
	r.Use(Middleware())
	r.GET("/ping", func(c *gin.Context) {
		seen = Value(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if inbound != "" {
		req.Header.Set("X-Request-ID", inbound)
	}
	r.ServeHTTP(w, req)
	return w, seen
}

func TestReusesWellFormedInboundID(t *testing.T) {
	id := uuid.NewString()

	w, seen := serve(t, id)

	assert.Equal(t, id, w.Header().Get("X-Request-ID"))
	assert.Equal(t, id, seen)
}

func TestReplacesMalformedInboundID(t *testing.T) {
	w, seen := serve(t, "not-a-uuid\r\ninjected")

	got := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, got, seen)
}

func TestGeneratesIDWhenMissing(t *testing.T) {
	w, seen := serve(t, "")

	got := w.Header().Get("X-Request-ID")
	_, err := uuid.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, got, seen)
}
