package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"booking-engine/internal/handler/httperr"
	"booking-engine/internal/infra/metrics"
	"booking-engine/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

const codeInternal = "internal"

// ErrorHandler logs server-side failures with their stack and guarantees every
// aborted request ends with a JSON error body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ge := range c.Errors {
			resp, ok := ge.Meta.(httperr.Response)
			if ok && resp.Status < http.StatusInternalServerError {
				continue
			}
			slog.Error("request failed",
				"path", c.FullPath(),
				"code", resp.Error.Code,
				"error", ge.Err.Error(),
				"stack", errs.ExtractStackLines(ge.Err, 8))
		}

		if c.Writer.Written() {
			return
		}
		// newest public error wins
		for i := len(c.Errors) - 1; i >= 0; i-- {
			ge := c.Errors[i]
			if !ge.IsType(gin.ErrorTypePublic) {
				continue
			}
			if resp, ok := ge.Meta.(httperr.Response); ok {
				c.JSON(resp.Status, resp)
				return
			}
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		if len(c.Errors) > 0 {
			c.JSON(http.StatusInternalServerError, internalError())
		}
	}
}

func CustomRecovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("recovered from panic",
					"error", fmt.Sprint(rec),
					"method", c.Request.Method,
					"path", c.Request.URL.Path)
				metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, routeLabel(c), "500").Inc()

				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError())
			}
		}()
		c.Next()
	}
}

func internalError() httperr.Response {
	resp := httperr.Response{Status: http.StatusInternalServerError}
	resp.Error.Code = codeInternal
	resp.Error.Message = "Internal server error"
	return resp
}
