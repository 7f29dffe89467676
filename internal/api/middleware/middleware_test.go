package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})
	return r
}

func get(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminAuth_Token(t *testing.T) {
	r := newRouter(AdminAuth("letmein", ""))

	assert.Equal(t, http.StatusUnauthorized, get(r, nil).Code)
	assert.Equal(t, http.StatusForbidden, get(r, map[string]string{"X-Admin-Token": "nope"}).Code)
	assert.Equal(t, http.StatusOK, get(r, map[string]string{"X-Admin-Token": "letmein"}).Code)
}

func TestAdminAuth_TOTP(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: "admin"})
	require.NoError(t, err)
	r := newRouter(AdminAuth("letmein", key.Secret()))

	w := get(r, map[string]string{"X-Admin-Token": "letmein"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, err := totp.GenerateCode(key.Secret(), time.Now())
	require.NoError(t, err)
	w = get(r, map[string]string{"X-Admin-Token": "letmein", "X-Admin-TOTP": code})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	r := newRouter(RequestID())

	w := get(r, nil)
	generated := w.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(generated)
	require.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	incoming := uuid.NewString()
	w = get(r, map[string]string{RequestIDHeader: incoming})
	assert.Equal(t, incoming, w.Header().Get(RequestIDHeader))

	w = get(r, map[string]string{RequestIDHeader: "<script>"})
	assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	r := newRouter(RequestID(), Logger(zerolog.New(&buf)))

	get(r, nil)

	out := buf.String()
	assert.Contains(t, out, `"path":"/ping"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"request_id":"`)
}
