package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ElectricBrains530/atomic-crm/internal/auth"
	"github.com/ElectricBrains530/atomic-crm/internal/constants"
	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/membership"
	"github.com/ElectricBrains530/atomic-crm/internal/session"
	"github.com/ElectricBrains530/atomic-crm/internal/tenant"
)

type stubInitRepo struct {
	initialized bool
}

func (s *stubInitRepo) IsInitialized() (bool, error) { return s.initialized, nil }
func (s *stubInitRepo) MarkInitialized() error       { s.initialized = true; return nil }

type stubIDP struct {
	valid map[string]*idp.User
}

func (s *stubIDP) SignIn(ctx context.Context, email, password string) (*idp.User, string, error) {
	return nil, "", idp.ErrInvalidCredentials
}

func (s *stubIDP) VerifyToken(ctx context.Context, token string) (*idp.User, error) {
	if user, ok := s.valid[token]; ok {
		return user, nil
	}
	return nil, idp.ErrTokenInvalid
}

func (s *stubIDP) CreateUser(ctx context.Context, in idp.CreateUserInput) (*idp.User, error) {
	return nil, idp.ErrEmailTaken
}

func (s *stubIDP) UpdateUser(ctx context.Context, id string, in idp.UpdateUserInput) (*idp.User, error) {
	return nil, idp.ErrUserNotFound
}

type emptySource struct{}

func (emptySource) ListForUser(ctx context.Context, caller session.Caller) ([]membership.Membership, error) {
	return nil, nil
}

func testLog() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

func setupRouter(t *testing.T, initialized bool, identities idp.Provider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	resolver := membership.NewResolver(emptySource{}, tenant.NewMemoryStore(), session.ContextReader{}, testLog())
	provider := auth.NewProvider(resolver, &stubInitRepo{initialized: initialized}, testLog())

	router := gin.New()
	router.Use(sessions.Sessions(constants.SessionCookieName, cookie.NewStore([]byte("secret"))))
	router.Use(SessionCaller())
	router.Use(CheckAuth(provider, identities, testLog()))

	router.GET("/api/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	router.POST("/api/auth/login", func(c *gin.Context) {
		sess := sessions.Default(c)
		sess.Set(constants.SessionKeyUserID, "u1")
		sess.Set(constants.SessionKeyAccessToken, "valid-token")
		require.NoError(t, sess.Save())
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCheckAuthUninitializedRedirects(t *testing.T) {
	router := setupRouter(t, false, &stubIDP{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/protected", nil))

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "/sign-up", resp["redirectTo"])
}

func TestCheckAuthPublicPathBypasses(t *testing.T) {
	router := setupRouter(t, false, &stubIDP{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckAuthMissingSession(t *testing.T) {
	router := setupRouter(t, true, &stubIDP{})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCheckAuthValidSession(t *testing.T) {
	identities := &stubIDP{valid: map[string]*idp.User{"valid-token": {ID: "u1"}}}
	router := setupRouter(t, true, identities)

	// Establish a session
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCheckAuthRejectsStaleToken(t *testing.T) {
	identities := &stubIDP{valid: map[string]*idp.User{"valid-token": {ID: "u1"}}}
	router := setupRouter(t, true, identities)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()

	// The token is revoked upstream
	delete(identities.valid, "valid-token")

	req := httptest.NewRequest(http.MethodGet, "/api/protected", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
