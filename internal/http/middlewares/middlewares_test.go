package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_RefillsFractionally(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	rl := NewRateLimiter(10, 2)
	rl.now = func() time.Time { return now }

	require.True(t, rl.Allow("a"))
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))
	require.True(t, rl.Allow("b"))

	// 100ms at 10/s refills exactly one token.
	now = now.Add(100 * time.Millisecond)
	require.True(t, rl.Allow("a"))
	require.False(t, rl.Allow("a"))
}

func TestAdminAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRouter := func(token string) *gin.Engine {
		r := gin.New()
		r.GET("/admin", AdminAuth(token), func(c *gin.Context) { c.Status(http.StatusNoContent) })
		return r
	}

	tests := []struct {
		name   string
		token  string
		header string
		want   int
	}{
		{name: "disabled", token: "", header: "anything", want: http.StatusForbidden},
		{name: "missing header", token: "s3cret", want: http.StatusUnauthorized},
		{name: "wrong header", token: "s3cret", header: "nope", want: http.StatusUnauthorized},
		{name: "ok", token: "s3cret", header: "s3cret", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.header != "" {
				req.Header.Set(AdminTokenHeader, tt.header)
			}
			w := httptest.NewRecorder()
			newRouter(tt.token).ServeHTTP(w, req)
			require.Equal(t, tt.want, w.Code)
		})
	}
}
