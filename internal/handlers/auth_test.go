package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ElectricBrains530/atomic-crm/internal/auth"
	"github.com/ElectricBrains530/atomic-crm/internal/constants"
	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/membership"
	"github.com/ElectricBrains530/atomic-crm/internal/middleware"
	"github.com/ElectricBrains530/atomic-crm/internal/models"
	"github.com/ElectricBrains530/atomic-crm/internal/repository"
	"github.com/ElectricBrains530/atomic-crm/internal/services"
	"github.com/ElectricBrains530/atomic-crm/internal/session"
	"github.com/ElectricBrains530/atomic-crm/internal/tenant"
)

// dbSource serves memberships straight from the trusted store, standing in
// for the record store path.
type dbSource struct {
	members repository.OrgMemberRepository
}

func (s *dbSource) ListForUser(ctx context.Context, caller session.Caller) ([]membership.Membership, error) {
	records, err := s.members.ListByUserID(caller.UserID)
	if err != nil {
		return nil, err
	}

	memberships := make([]membership.Membership, 0, len(records))
	for _, r := range records {
		memberships = append(memberships, membership.Membership{
			ID:             r.ID,
			OrganizationID: r.OrganizationID,
			UserID:         r.UserID,
			Role:           r.Role,
			Status:         r.Status,
			CreatedAt:      r.CreatedAt,
			Organization: membership.OrganizationInfo{
				Name: r.Organization.Name,
				Plan: r.Organization.Plan,
			},
		})
	}
	return memberships, nil
}

type authApp struct {
	router  *gin.Engine
	db      *gorm.DB
	members repository.OrgMemberRepository
	orgs    repository.OrganizationRepository
	store   tenant.Store
}

func setupAuthApp(t *testing.T) *authApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := setupTestDB(t)
	members := repository.NewOrgMemberRepository(db)
	employees := repository.NewEmployeeRepository(db)
	orgs := repository.NewOrganizationRepository(db)
	initRepo := repository.NewInitStateRepository(db)
	authUsers := repository.NewAuthUserRepository(db)

	identities := idp.NewLocalProvider(authUsers, "test-secret")
	tenantStore := tenant.NewMemoryStore()
	resolver := membership.NewResolver(&dbSource{members: members}, tenantStore, session.ContextReader{}, testLog())
	provider := auth.NewProvider(resolver, initRepo, testLog())

	authService := services.NewAuthService(identities, orgs, members, employees, initRepo, testLog())
	handler := NewAuthHandler(authService, provider, tenantStore, testLog())

	router := gin.New()
	store := cookie.NewStore([]byte("test-session-secret"))
	router.Use(sessions.Sessions(constants.SessionCookieName, store))
	router.Use(middleware.SessionCaller())

	api := router.Group("/api/auth")
	{
		api.POST("/sign-up", handler.SignUp)
		api.POST("/login", handler.Login)
		api.POST("/logout", handler.Logout)
		api.GET("/me", middleware.RequireAuth(), handler.Me)
		api.POST("/switch-organization", middleware.RequireAuth(), handler.SwitchOrganization)
		api.POST("/can-access", middleware.RequireAuth(), handler.CanAccess)
	}

	return &authApp{router: router, db: db, members: members, orgs: orgs, store: tenantStore}
}

func (a *authApp) request(t *testing.T, method, path string, body any, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}

	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *authApp) signUp(t *testing.T) []*http.Cookie {
	t.Helper()
	w := a.request(t, http.MethodPost, "/api/auth/sign-up", map[string]any{
		"email":             "founder@example.com",
		"password":          "super-secret",
		"first_name":        "Fay",
		"last_name":         "Founder",
		"organization_name": "Acme",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func TestSignUpAndMe(t *testing.T) {
	app := setupAuthApp(t)
	cookies := app.signUp(t)

	w := app.request(t, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Data struct {
			FullName               string `json:"full_name"`
			ActiveOrganizationID   uint64 `json:"active_organization_id"`
			AvailableOrganizations []struct {
				Name string `json:"name"`
				Role string `json:"role"`
			} `json:"available_organizations"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Fay Founder", resp.Data.FullName)
	require.Len(t, resp.Data.AvailableOrganizations, 1)
	assert.Equal(t, "Acme", resp.Data.AvailableOrganizations[0].Name)
	assert.Equal(t, "owner", resp.Data.AvailableOrganizations[0].Role)
}

func TestMeRequiresSession(t *testing.T) {
	app := setupAuthApp(t)

	w := app.request(t, http.MethodGet, "/api/auth/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	app := setupAuthApp(t)
	app.signUp(t)

	w := app.request(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "founder@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginAndLogout(t *testing.T) {
	app := setupAuthApp(t)
	app.signUp(t)

	w := app.request(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "founder@example.com",
		"password": "super-secret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()

	w = app.request(t, http.MethodGet, "/api/auth/me", nil, cookies)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.request(t, http.MethodPost, "/api/auth/logout", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	cleared := w.Result().Cookies()

	w = app.request(t, http.MethodGet, "/api/auth/me", nil, cleared)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSwitchOrganization(t *testing.T) {
	app := setupAuthApp(t)
	cookies := app.signUp(t)

	// Identify the founder and attach a second organization
	w := app.request(t, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var me struct {
		Data struct {
			ActiveOrganizationID uint64 `json:"active_organization_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	firstOrg := me.Data.ActiveOrganizationID

	second := &models.Organization{Name: "Globex", Plan: "pro"}
	require.NoError(t, app.orgs.Create(second))

	userID := userIDFromStore(t, app, firstOrg)

	require.NoError(t, app.members.Create(&models.OrgMember{
		OrganizationID: second.ID,
		UserID:         userID,
		Role:           models.RoleMember,
		Status:         models.MemberStatusActive,
		CreatedAt:      time.Now().Add(time.Second),
	}))

	// Membership changes become visible at the next epoch boundary
	w = app.request(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email":    "founder@example.com",
		"password": "super-secret",
	}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	cookies = w.Result().Cookies()

	// Switching to a non-member organization is rejected
	w = app.request(t, http.MethodPost, "/api/auth/switch-organization", map[string]any{
		"organization_id": 9999,
	}, cookies)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Switching to the second organization takes effect immediately
	w = app.request(t, http.MethodPost, "/api/auth/switch-organization", map[string]any{
		"organization_id": second.ID,
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, second.ID, me.Data.ActiveOrganizationID)

	w = app.request(t, http.MethodGet, "/api/auth/me", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &me))
	assert.Equal(t, second.ID, me.Data.ActiveOrganizationID)
}

func TestCanAccessEndpoint(t *testing.T) {
	app := setupAuthApp(t)
	cookies := app.signUp(t)

	w := app.request(t, http.MethodPost, "/api/auth/can-access", map[string]any{
		"action":   "create",
		"resource": "users",
	}, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Allowed bool `json:"allowed"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Allowed)
}

// userIDFromStore finds the single member of the given organization.
func userIDFromStore(t *testing.T, app *authApp, orgID uint64) string {
	t.Helper()
	var member models.OrgMember
	require.NoError(t, app.db.Where("organization_id = ?", orgID).First(&member).Error)
	return member.UserID
}
