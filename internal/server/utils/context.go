package utils

import (
	"context"
	"net/url"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// secretParams never appear in logs or span attributes.
var secretParams = []string{"appid", "api_key", "apikey", "key"}

// GetSpanFromGinContext extracts the span context from Gin context
func GetSpanFromGinContext(c *gin.Context) trace.Span {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return trace.SpanFromContext(ctx)
		}
	}
	return trace.SpanFromContext(c.Request.Context())
}

// GetContextFromGinContext extracts the context with span from Gin context
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

// GetRequestIDFromGinContext extracts request ID from Gin context
func GetRequestIDFromGinContext(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}

// RedactQuery masks credential parameters in a raw query string.
func RedactQuery(raw string) string {
	if raw == "" {
		return raw
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return "[unparseable query]"
	}
	redacted := false
	for _, name := range secretParams {
		if _, ok := values[name]; ok {
			values.Set(name, "REDACTED")
			redacted = true
		}
	}
	if !redacted {
		return raw
	}
	return values.Encode()
}

// RedactURL returns u as a string with credential parameters masked.
func RedactURL(u *url.URL) string {
	c := *u
	c.RawQuery = RedactQuery(u.RawQuery)
	return c.String()
}
