package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkuaegis/aegis-study-client/pkg/config"
	apperrors "github.com/dkuaegis/aegis-study-client/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *AuthState) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	auth := NewAuthState()
	client, err := New(config.APIConfig{
		BaseURL:       server.URL,
		Timeout:       2 * time.Second,
		SessionCookie: "SESSION=abc123",
	}, auth, nil, nil)
	require.NoError(t, err)
	return client, auth
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func TestClientDecodesEnvelopedData(t *testing.T) {
	r := testRouter()
	r.GET("/studies/7", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": gin.H{"studyId": 7, "title": "go study"}})
	})
	client, _ := newTestClient(t, r)

	var study struct {
		ID    int64  `json:"studyId"`
		Title string `json:"title"`
	}
	require.NoError(t, client.Get(context.Background(), "studies/7", &study))
	assert.EqualValues(t, 7, study.ID)
	assert.Equal(t, "go study", study.Title)
}

func TestClientDecodesNakedJSON(t *testing.T) {
	r := testRouter()
	r.GET("/studies", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"studyId": 1}, {"studyId": 2}})
	})
	client, _ := newTestClient(t, r)

	var list []struct {
		ID int64 `json:"studyId"`
	}
	require.NoError(t, client.Get(context.Background(), "studies", &list))
	assert.Len(t, list, 2)
}

func TestClientSendsCredentialsAndRequestID(t *testing.T) {
	var gotCookie, gotRequestID string
	r := testRouter()
	r.GET("/studies", func(c *gin.Context) {
		gotCookie = c.GetHeader("Cookie")
		gotRequestID = c.GetHeader("X-Request-ID")
		c.JSON(http.StatusOK, gin.H{"data": []gin.H{}})
	})
	client, _ := newTestClient(t, r)

	require.NoError(t, client.Get(context.Background(), "studies", nil))
	assert.Equal(t, "SESSION=abc123", gotCookie)
	assert.NotEmpty(t, gotRequestID)
}

func TestClientMarksAuthStateOn401(t *testing.T) {
	r := testRouter()
	r.GET("/studies/roles", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": gin.H{"code": "UNAUTHORIZED", "message": "session expired"}})
	})
	client, auth := newTestClient(t, r)

	err := client.Get(context.Background(), "studies/roles", nil)
	require.Error(t, err)
	assert.True(t, auth.Unauthorized(), "a 401 must flip the shared auth state before returning")
	assert.Equal(t, http.StatusUnauthorized, apperrors.StatusOf(err))
}

func TestClientTypedErrorCarriesStatusAndServerMessage(t *testing.T) {
	r := testRouter()
	r.POST("/studies/7/enrollment", func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"error": gin.H{"code": "CONFLICT", "message": "already applied"}})
	})
	client, auth := newTestClient(t, r)

	err := client.Post(context.Background(), "studies/7/enrollment", map[string]string{"applicationReason": "hi"}, nil)
	require.Error(t, err)

	appErr := apperrors.FromError(err)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "already applied", appErr.Message)
	assert.False(t, auth.Unauthorized())
}

func TestClientFallbackErrorWithoutEnvelope(t *testing.T) {
	r := testRouter()
	r.GET("/studies/9", func(c *gin.Context) {
		c.String(http.StatusNotFound, "not here")
	})
	client, _ := newTestClient(t, r)

	err := client.Get(context.Background(), "studies/9", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusOf(err))
}

func TestClientDeleteIgnoresEmptyBody(t *testing.T) {
	r := testRouter()
	r.DELETE("/studies/7/enrollment", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	client, _ := newTestClient(t, r)

	assert.NoError(t, client.Delete(context.Background(), "studies/7/enrollment"))
}
