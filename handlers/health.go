package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// Check is one readiness dependency.
type Check struct {
	Name string
	Fn   func(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

func Health(c *gin.Context) {
	c.String(http.StatusOK, "healthy")
}

// Ready returns 200 only when every check passes.
func Ready(checks ...Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}
		for _, chk := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
			err := chk.Fn(ctx)
			cancel()
			deps[chk.Name] = err == nil
			if err != nil {
				ready = false
			}
		}
		data := gin.H{"deps": deps, "uptime": time.Since(startTime).String()}
		if !ready {
			data["status"] = "not_ready"
			c.JSON(http.StatusServiceUnavailable, BaseResponse{StatusMessage: http.StatusText(http.StatusServiceUnavailable), Data: data})
			return
		}
		data["status"] = "ready"
		respond(c, http.StatusOK, data)
	}
}
