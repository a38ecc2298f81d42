package internal

import (
	"context"
	"strings"

	appconfig "github.com/Sokol111/match-events/pkg/core/config"
	otelconfig "github.com/Sokol111/match-events/pkg/observability/config"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.37.0"
	"go.uber.org/zap"
)

const RoleKey = attribute.Key("pipeline.role")

// NewResource describes the service plus the pipeline role of this process.
func NewResource(ctx context.Context, appCfg appconfig.AppConfig, role otelconfig.Role) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceNameKey.String(appCfg.ServiceName),
		semconv.ServiceVersionKey.String(appCfg.ServiceVersion),
		semconv.DeploymentEnvironmentNameKey.String(appCfg.Environment),
	}
	if role != "" {
		attrs = append(attrs, RoleKey.String(string(role)))
	}
	return resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithHost(),
		resource.WithAttributes(attrs...),
	)
}

// Instrumented reports whether a request is traced and measured. Probes are not.
func Instrumented(c *gin.Context) bool {
	return !strings.HasPrefix(c.Request.URL.Path, "/health/")
}

// ShutdownHook flushes a provider within DefaultShutdownTimeout.
func ShutdownHook(name string, log *zap.Logger, shutdown func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, otelconfig.DefaultShutdownTimeout)
		defer cancel()
		if err := shutdown(ctx); err != nil {
			log.Warn("telemetry flush failed", zap.String("provider", name), zap.Error(err))
			return err
		}
		return nil
	}
}
