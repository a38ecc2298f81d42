package middleware

import (
	"errors"
	"net/http"

	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ProblemHandler converts errors recorded with c.Error into Problem Details (RFC 7807)
// responses. A *problems.Problem is rendered as is; any other error becomes a 500 that
// does not leak the error text.
func ProblemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only handle if there are errors and response hasn't been written yet
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		var problem problems.Problem
		var p *problems.Problem
		if errors.As(c.Errors[0].Err, &p) {
			problem = *p
			if problem.Status == 0 {
				problem.Status = http.StatusInternalServerError
			}
			if problem.Title == "" {
				problem.Title = http.StatusText(problem.Status)
			}
		} else {
			problem = *problems.Internal("")
		}
		if problem.Instance == "" {
			problem.Instance = c.Request.URL.Path
		}

		if problem.TraceID == "" {
			if sc := trace.SpanContextFromContext(c.Request.Context()); sc.IsValid() {
				problem.TraceID = sc.TraceID().String()
			}
		}

		c.Header("Content-Type", problems.ContentType)
		c.JSON(problem.Status, problem)
	}
}
