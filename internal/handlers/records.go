package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	apierrors "github.com/ElectricBrains530/atomic-crm/internal/errors"
	"github.com/ElectricBrains530/atomic-crm/internal/middleware"
	"github.com/ElectricBrains530/atomic-crm/internal/recordstore"
)

// RecordHandler proxies CRM data requests to the record store with the
// caller's token. Tenant scoping happens in the client's transport; this
// handler adds nothing but authentication plumbing.
type RecordHandler struct {
	client *recordstore.Client
	log    *logrus.Entry
}

// NewRecordHandler creates a RecordHandler.
func NewRecordHandler(client *recordstore.Client, log *logrus.Entry) *RecordHandler {
	return &RecordHandler{client: client, log: log}
}

// Query handles GET /api/records/:collection
func (h *RecordHandler) Query(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	rows, err := h.client.WithToken(caller.Token).Query(
		c.Request.Context(), c.Param("collection"), c.Request.URL.Query())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// Insert handles POST /api/records/:collection
func (h *RecordHandler) Insert(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		apierrors.BadRequest(c, "Invalid JSON body")
		return
	}

	rows, err := h.client.WithToken(caller.Token).Insert(
		c.Request.Context(), c.Param("collection"), body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": rows})
}

// Update handles PATCH /api/records/:collection
func (h *RecordHandler) Update(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var body json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		apierrors.BadRequest(c, "Invalid JSON body")
		return
	}

	rows, err := h.client.WithToken(caller.Token).Update(
		c.Request.Context(), c.Param("collection"), c.Request.URL.Query(), body)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// RPC handles POST /api/rpc/:fn
func (h *RecordHandler) RPC(c *gin.Context) {
	caller, ok := middleware.GetCaller(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var args json.RawMessage
	if err := c.ShouldBindJSON(&args); err != nil {
		apierrors.BadRequest(c, "Invalid JSON body")
		return
	}

	result, err := h.client.WithToken(caller.Token).RPC(
		c.Request.Context(), c.Param("fn"), args)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func (h *RecordHandler) respondError(c *gin.Context, err error) {
	var upstream *recordstore.UpstreamError
	if errors.As(err, &upstream) {
		// Client errors from the store pass through with their status;
		// everything else is an upstream failure.
		if upstream.StatusCode >= 400 && upstream.StatusCode < 500 {
			apierrors.RespondWithError(c, upstream.StatusCode,
				apierrors.NewAPIError(apierrors.ErrCodeUpstreamIO, upstream.Message))
			return
		}
		apierrors.UpstreamIO(c, "")
		return
	}

	h.log.WithError(err).Error("record store request failed")
	apierrors.UpstreamIO(c, "")
}
