package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/openplans/planbox/internal/telemetry"
)

// OtelTracing instruments API requests with OpenTelemetry spans.
func OtelTracing(serviceName string) gin.HandlerFunc {
	return telemetry.GinMiddleware(serviceName)
}

// TraceID exposes the current trace ID to clients via a response header.
func TraceID() gin.HandlerFunc {
	return telemetry.TraceIDMiddleware()
}
