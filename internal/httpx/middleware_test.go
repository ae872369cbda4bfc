package httpx

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeSessions map[string]string

func (f fakeSessions) Resolve(_ context.Context, token string) (string, error) {
	id, ok := f[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return id, nil
}

type fakeAdmins map[string]bool

func (f fakeAdmins) IsAdmin(_ context.Context, userID string) (bool, error) {
	return f[userID], nil
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	sessions := fakeSessions{"tok-alice": "alice", "tok-bob": "bob"}
	admins := fakeAdmins{"alice": true}

	auth := r.Group("/", RequireAuth(sessions))
	auth.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": UserID(c)})
	})
	auth.GET("/admin", RequireAdmin(admins), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func get(r *gin.Engine, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	r := testRouter()

	require.Equal(t, http.StatusUnauthorized, get(r, "/me", "").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/me", "bogus").Code)

	w := get(r, "/me", "tok-bob")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"user_id":"bob"`)
}

func TestRequireAdmin(t *testing.T) {
	r := testRouter()

	require.Equal(t, http.StatusOK, get(r, "/admin", "tok-alice").Code)
	require.Equal(t, http.StatusForbidden, get(r, "/admin", "tok-bob").Code)
	require.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
}
