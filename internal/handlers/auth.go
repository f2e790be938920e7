package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/auth"
	"github.com/ElectricBrains530/atomic-crm/internal/constants"
	apierrors "github.com/ElectricBrains530/atomic-crm/internal/errors"
	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/middleware"
	"github.com/ElectricBrains530/atomic-crm/internal/services"
	"github.com/ElectricBrains530/atomic-crm/internal/tenant"
)

// AuthHandler serves login, logout, sign-up, identity, and organization
// switching.
type AuthHandler struct {
	authService *services.AuthService
	provider    *auth.Provider
	store       tenant.Store
	log         *logrus.Entry
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService *services.AuthService, provider *auth.Provider, store tenant.Store, log *logrus.Entry) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		provider:    provider,
		store:       store,
		log:         log,
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and password are required")
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, idp.ErrInvalidCredentials) || errors.Is(err, idp.ErrUserBanned) {
			apierrors.RespondWithError(c, http.StatusUnauthorized,
				apierrors.NewAPIError(apierrors.ErrCodeInvalidCredentials, "Invalid email or password"))
			return
		}
		h.log.WithError(err).Error("login failed")
		apierrors.InternalError(c, "")
		return
	}

	sess := sessions.Default(c)
	sess.Set(constants.SessionKeyUserID, user.ID)
	sess.Set(constants.SessionKeyAccessToken, token)
	if err := sess.Save(); err != nil {
		h.log.WithError(err).Error("session save failed")
		apierrors.InternalError(c, "")
		return
	}

	// A fresh login starts a new resolution epoch.
	h.provider.Resolver().Invalidate(user.ID)

	c.JSON(http.StatusOK, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if caller, ok := middleware.GetCaller(c); ok {
		if err := h.store.Clear(c.Request.Context(), caller.UserID); err != nil {
			h.log.WithError(err).Warn("active context clear failed on logout")
		}
		h.provider.Resolver().Invalidate(caller.UserID)
	}

	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{MaxAge: -1, Path: "/"})
	if err := sess.Save(); err != nil {
		h.log.WithError(err).Error("session clear failed")
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// SignUp handles POST /api/auth/sign-up, the one-time initial setup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req struct {
		Email            string `json:"email" binding:"required,email"`
		Password         string `json:"password" binding:"required"`
		FirstName        string `json:"first_name" binding:"required"`
		LastName         string `json:"last_name" binding:"required"`
		OrganizationName string `json:"organization_name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid sign-up request")
		return
	}
	if len(req.Password) < constants.MinPasswordLength {
		apierrors.BadRequest(c, "Password is too short")
		return
	}

	user, token, err := h.authService.SignUp(c.Request.Context(), services.SignUpInput{
		Email:            req.Email,
		Password:         req.Password,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		OrganizationName: req.OrganizationName,
	})
	if err != nil {
		if errors.Is(err, services.ErrAlreadyInitialized) {
			apierrors.Conflict(c, "Setup has already completed")
			return
		}
		if errors.Is(err, idp.ErrEmailTaken) {
			apierrors.Conflict(c, "Email already registered")
			return
		}
		h.log.WithError(err).Error("sign-up failed")
		apierrors.InternalError(c, "")
		return
	}

	sess := sessions.Default(c)
	sess.Set(constants.SessionKeyUserID, user.ID)
	sess.Set(constants.SessionKeyAccessToken, token)
	if err := sess.Save(); err != nil {
		h.log.WithError(err).Error("session save failed")
		apierrors.InternalError(c, "")
		return
	}

	h.provider.InvalidateInitCache()
	h.provider.Resolver().Invalidate(user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	identity, err := h.provider.GetIdentity(c.Request.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNoActiveMembership) {
			apierrors.NoActiveMembership(c)
			return
		}
		h.log.WithError(err).Error("identity resolution failed")
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identity})
}

// SwitchOrganization handles POST /api/auth/switch-organization. The target
// must be one of the caller's own memberships; the switch starts a new
// resolution epoch.
func (h *AuthHandler) SwitchOrganization(c *gin.Context) {
	var req struct {
		OrganizationID uint64 `json:"organization_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "organization_id is required")
		return
	}

	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	_, all, err := h.provider.Resolver().Resolve(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("membership resolution failed")
		apierrors.InternalError(c, "")
		return
	}

	valid := false
	for _, m := range all {
		if m.OrganizationID == req.OrganizationID {
			valid = true
			break
		}
	}
	if !valid {
		apierrors.Forbidden(c, "Not a member of that organization")
		return
	}

	if err := h.store.Set(c.Request.Context(), caller.UserID, req.OrganizationID); err != nil {
		h.log.WithError(err).Error("active context write failed")
		apierrors.InternalError(c, "")
		return
	}

	h.provider.Resolver().Invalidate(caller.UserID)

	identity, err := h.provider.GetIdentity(c.Request.Context())
	if err != nil {
		if errors.Is(err, auth.ErrNoActiveMembership) {
			apierrors.NoActiveMembership(c)
			return
		}
		h.log.WithError(err).Error("identity resolution failed after switch")
		apierrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": identity})
}

// CanAccess handles POST /api/auth/can-access, the UI's permission probe.
func (h *AuthHandler) CanAccess(c *gin.Context) {
	var req struct {
		Action   string `json:"action" binding:"required"`
		Resource string `json:"resource" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "action and resource are required")
		return
	}

	allowed := h.provider.CanAccess(c.Request.Context(), req.Action, req.Resource)
	c.JSON(http.StatusOK, gin.H{"allowed": allowed})
}
