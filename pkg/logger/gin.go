package logger

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/anupakum/MCP-Payment-idea/pkg/correlation"

	"github.com/gin-gonic/gin"
)

const maxBody = 8 * 1024

func limit(b []byte) []byte {
	if len(b) > maxBody {
		return b[:maxBody]
	}
	return b
}

type responseBodyWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (r *responseBodyWriter) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// CorrelationMiddleware reads X-Correlation-ID or generates one, stores it
// in the request context and echoes it back in the response.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		corrID := c.GetHeader(correlation.HeaderName)
		if corrID == "" {
			corrID = correlation.NewID()
		}

		ctx := correlation.WithID(c.Request.Context(), corrID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(correlation.HeaderName, corrID)

		c.Next()
	}
}

// RequestLogger logs every request. Bodies are attached only for responses
// with status >= 400 to keep card data out of routine logs.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		responseBuffer := &bytes.Buffer{}
		c.Writer = &responseBodyWriter{body: responseBuffer, ResponseWriter: c.Writer}

		c.Next()

		attrs := []any{
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.String("query", c.Request.URL.RawQuery),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
		}
		if c.Writer.Status() >= 400 {
			attrs = append(attrs,
				bodyAttr("request_body", limit(requestBody)),
				bodyAttr("response_body", limit(responseBuffer.Bytes())),
			)
		}

		slog.InfoContext(c.Request.Context(), "HTTP request", attrs...)
	}
}

func bodyAttr(key string, b []byte) slog.Attr {
	bb := bytes.TrimSpace(b)
	if len(bb) == 0 {
		return slog.Any(key, nil)
	}
	if json.Valid(bb) {
		return slog.Any(key, json.RawMessage(bb))
	}
	return slog.String(key, string(bb))
}
