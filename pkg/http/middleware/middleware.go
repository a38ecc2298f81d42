// Package middleware holds the gin middleware chain shared by every HTTP process.
package middleware

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/Sokol111/match-events/pkg/http/problems"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Middleware represents a Gin middleware with priority. Lower priorities wrap higher ones.
type Middleware struct {
	Priority int
	Handler  gin.HandlerFunc
}

type mwIn struct {
	fx.In
	Middlewares []Middleware `group:"gin_mw"`
}

func provideGinAndHandler(in mwIn) (*gin.Engine, http.Handler) {
	e := NewEngine(in.Middlewares...)
	return e, e
}

// NewEngine builds a gin engine with mws installed in priority order. Entries with a nil
// Handler are skipped.
func NewEngine(mws ...Middleware) *gin.Engine {
	engine := gin.New(func(e *gin.Engine) {
		e.ContextWithFallback = true
	})

	sorted := append([]Middleware(nil), mws...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })
	for _, m := range sorted {
		if m.Handler == nil {
			continue
		}
		engine.Use(m.Handler)
	}

	return engine
}

// requestFields returns common request fields for logging.
func requestFields(c *gin.Context) []zap.Field {
	return []zap.Field{
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("query", c.Request.URL.RawQuery),
		zap.String("client_ip", c.ClientIP()),
	}
}

func isHealthPath(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/health/")
}

// abort records p on the context and stops the chain. The problem middleware renders it.
func abort(c *gin.Context, p *problems.Problem) {
	p.Instance = c.Request.URL.Path
	_ = c.Error(p) //nolint:errcheck // returned *gin.Error is only needed for chaining
	c.Abort()
}

// responseStatus is the status the request will end with: the written status, or the
// status of the first recorded problem when nothing was written yet.
func responseStatus(c *gin.Context) int {
	if c.Writer.Written() {
		return c.Writer.Status()
	}
	if len(c.Errors) == 0 {
		return c.Writer.Status()
	}
	var p *problems.Problem
	if errors.As(c.Errors[0].Err, &p) {
		return p.Status
	}
	return http.StatusInternalServerError
}
