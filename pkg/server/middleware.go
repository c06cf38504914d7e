package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
)

// requestID propagates the caller's X-Request-ID or assigns a new one.
func (s *Server) requestID(c *gin.Context) {
	id := c.GetHeader(headerRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(ctxRequestID, id)
	c.Header(headerRequestID, id)
	c.Next()
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()

	attrs := []any{
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", c.GetString(ctxRequestID),
	}
	if len(c.Errors) > 0 {
		attrs = append(attrs, "error", c.Errors.Last().Error())
	}
	if c.Writer.Status() >= http.StatusInternalServerError {
		s.logger.Error("http request", attrs...)
		return
	}
	s.logger.Info("http request", attrs...)
}

func (s *Server) rateLimit(c *gin.Context) {
	if s.limiter != nil && !s.limiter.Allow() {
		writeJSONError(c, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}
	c.Next()
}
