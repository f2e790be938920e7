package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ElectricBrains530/atomic-crm/internal/constants"
	"github.com/ElectricBrains530/atomic-crm/internal/dto"
	apierrors "github.com/ElectricBrains530/atomic-crm/internal/errors"
	"github.com/ElectricBrains530/atomic-crm/internal/idp"
	"github.com/ElectricBrains530/atomic-crm/internal/services"
)

// UserHandler is the privileged user-management endpoint. It authenticates
// with the bearer token alone, never the cookie session: the endpoint is
// called cross-origin and must re-verify the caller on every request.
type UserHandler struct {
	users *services.UserService
	log   *logrus.Entry
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *services.UserService, log *logrus.Entry) *UserHandler {
	return &UserHandler{users: users, log: log}
}

// Handle dispatches /api/users by method. CORS preflights get an empty 204;
// anything besides POST and PATCH gets a 405.
func (h *UserHandler) Handle(c *gin.Context) {
	switch c.Request.Method {
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	case http.MethodPost:
		h.invite(c)
	case http.MethodPatch:
		h.patch(c)
	default:
		apierrors.MethodNotAllowed(c)
	}
}

func (h *UserHandler) invite(c *gin.Context) {
	caller, ok := h.resolveCaller(c)
	if !ok {
		return
	}

	var req struct {
		Email         string `json:"email" binding:"required,email"`
		Password      string `json:"password"`
		FirstName     string `json:"first_name"`
		LastName      string `json:"last_name"`
		Disabled      bool   `json:"disabled"`
		Administrator bool   `json:"administrator"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid invitation request")
		return
	}

	employee, err := h.users.Invite(c.Request.Context(), caller, services.InviteInput{
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Disabled:      req.Disabled,
		Administrator: req.Administrator,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToEmployeeDTO(*employee)})
}

func (h *UserHandler) patch(c *gin.Context) {
	caller, ok := h.resolveCaller(c)
	if !ok {
		return
	}

	var req struct {
		EmployeeID    uint64  `json:"employee_id" binding:"required"`
		Email         *string `json:"email"`
		FirstName     *string `json:"first_name"`
		LastName      *string `json:"last_name"`
		Avatar        *string `json:"avatar"`
		Administrator *bool   `json:"administrator"`
		Disabled      *bool   `json:"disabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid patch request")
		return
	}

	employee, err := h.users.Patch(c.Request.Context(), caller, services.PatchInput{
		EmployeeID:    req.EmployeeID,
		Email:         req.Email,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Avatar:        req.Avatar,
		Administrator: req.Administrator,
		Disabled:      req.Disabled,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": dto.ToEmployeeDTO(*employee)})
}

// resolveCaller extracts the bearer token and organization hint, verifies
// them, and writes the error response itself on failure.
func (h *UserHandler) resolveCaller(c *gin.Context) (*services.Caller, bool) {
	token := bearerToken(c.GetHeader("Authorization"))

	var orgHint uint64
	if raw := c.GetHeader(constants.OrganizationHeader); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err == nil {
			orgHint = parsed
		}
	}

	caller, err := h.users.ResolveCaller(c.Request.Context(), token, orgHint)
	if err != nil {
		h.respondError(c, err)
		return nil, false
	}
	return caller, true
}

// respondError maps service errors to the endpoint's wire contract. Forbidden
// callers get the same 401 as unauthenticated ones so the endpoint does not
// confirm account existence or privilege levels to probes.
func (h *UserHandler) respondError(c *gin.Context, err error) {
	var partial *services.PartialFailureError

	switch {
	case errors.Is(err, services.ErrUnauthorized), errors.Is(err, services.ErrForbidden):
		apierrors.Unauthorized(c, "Not allowed")
	case errors.Is(err, services.ErrTargetNotFound):
		apierrors.NotFound(c, "User not found")
	case errors.Is(err, idp.ErrEmailTaken):
		apierrors.Conflict(c, "Email already registered")
	case errors.As(err, &partial):
		h.log.WithError(err).WithField("stage", partial.Stage).Error("user management partial failure")
		apierrors.PartialFailure(c, "")
	default:
		h.log.WithError(err).Error("user management failed")
		apierrors.InternalError(c, "")
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if strings.HasPrefix(header, prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
