package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/tabula-io/tabula/internal/pkg/jwt"
)

func authRouter(secret []byte) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(BearerAuth(secret))
	router.GET("/ping", func(c *gin.Context) {
		userID, _ := c.Get(ContextUserIDKey)
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return router
}

func TestBearerAuth(t *testing.T) {
	secret := []byte("test-secret")
	router := authRouter(secret)

	do := func(authorization string) *httptest.ResponseRecorder {
		resp := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		if authorization != "" {
			req.Header.Set("Authorization", authorization)
		}
		router.ServeHTTP(resp, req)
		return resp
	}

	require.Equal(t, http.StatusUnauthorized, do("").Code)
	require.Equal(t, http.StatusUnauthorized, do("Basic abc").Code)
	require.Equal(t, http.StatusUnauthorized, do("Bearer not-a-token").Code)

	token, err := jwt.GenerateToken("user-7", secret, time.Hour)
	require.NoError(t, err)
	resp := do("Bearer " + token)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "user-7")

	expired, err := jwt.GenerateToken("user-7", secret, -time.Minute)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+expired).Code)

	foreign, err := jwt.GenerateToken("user-7", []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, do("Bearer "+foreign).Code)
}
