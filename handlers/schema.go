package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/linkshare/linkshare/backend/session-store/internal/schema"
)

// SchemaManager is implemented by *schema.Provisioner.
type SchemaManager interface {
	Apply(ctx context.Context) (*schema.Report, error)
	Verify(ctx context.Context) (*schema.Report, error)
}

type SchemaHandler struct {
	mgr SchemaManager
}

func NewSchemaHandler(mgr SchemaManager) *SchemaHandler {
	return &SchemaHandler{mgr: mgr}
}

func (h *SchemaHandler) Register(r gin.IRouter, trusted gin.HandlerFunc) {
	a := r.Group("/admin", trusted)
	a.GET("/schema", h.Verify)
	a.POST("/schema", h.Apply)
}

// Verify answers 200 when the database matches the layout and 409 with the
// report when something is missing or drifted.
func (h *SchemaHandler) Verify(c *gin.Context) {
	report, err := h.mgr.Verify(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, err)
		return
	}
	if !report.OK() {
		c.JSON(http.StatusConflict, BaseResponse{StatusMessage: "schema drift", Data: report})
		return
	}
	respond(c, http.StatusOK, report)
}

func (h *SchemaHandler) Apply(c *gin.Context) {
	report, err := h.mgr.Apply(c.Request.Context())
	if err != nil {
		var ce *schema.ConflictError
		if errors.As(err, &ce) {
			c.JSON(http.StatusConflict, BaseResponse{StatusMessage: "schema conflict", Data: report, Error: err.Error()})
			return
		}
		fail(c, http.StatusInternalServerError, err)
		return
	}
	respond(c, http.StatusOK, report)
}

// SchemaCheck is a readiness check that fails while the layout is not in place.
func SchemaCheck(mgr SchemaManager) Check {
	return Check{Name: "schema", Fn: func(ctx context.Context) error {
		report, err := mgr.Verify(ctx)
		if err != nil {
			return err
		}
		if !report.OK() {
			return errors.New("schema drift")
		}
		return nil
	}}
}
