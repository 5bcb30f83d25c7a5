package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tienda-backend/internal/models"
	"tienda-backend/internal/token"
)

func newTestRouter(signer *token.Signer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin",
		RequireAuth(signer),
		RequireRoles(models.RoleAdmin),
		func(c *gin.Context) {
			claims := ClaimsFromContext(c)
			c.String(http.StatusOK, strconv.FormatUint(uint64(claims.UserID), 10))
		})
	return r
}

func doRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingHeader(t *testing.T) {
	signer := token.NewSigner("test-secret", 15*time.Minute)
	r := newTestRouter(signer)

	w := doRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthBadFormat(t *testing.T) {
	signer := token.NewSigner("test-secret", 15*time.Minute)
	r := newTestRouter(signer)

	for _, header := range []string{"Basic abc", "Bearer", "Bearer a b"} {
		w := doRequest(r, header)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	signer := token.NewSigner("test-secret", 15*time.Minute)
	r := newTestRouter(signer)

	w := doRequest(r, "Bearer not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Token signed with a different secret
	other := token.NewSigner("other-secret", 15*time.Minute)
	raw, err := other.Issue(1, []string{models.RoleAdmin})
	require.NoError(t, err)
	w = doRequest(r, "Bearer "+raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRolesForbidsNonAdmin(t *testing.T) {
	signer := token.NewSigner("test-secret", 15*time.Minute)
	r := newTestRouter(signer)

	raw, err := signer.Issue(5, []string{models.RoleUser})
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+raw)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAllowsAdmin(t *testing.T) {
	signer := token.NewSigner("test-secret", 15*time.Minute)
	r := newTestRouter(signer)

	raw, err := signer.Issue(5, []string{models.RoleUser, models.RoleAdmin})
	require.NoError(t, err)

	w := doRequest(r, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Body.String())
}

func TestClaimsFromContextWithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Nil(t, ClaimsFromContext(c))
}
