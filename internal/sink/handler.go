// internal/sink/handler.go

package sink

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/orgoj/servicelog/internal/logger"
	"github.com/orgoj/servicelog/internal/record"
	"github.com/orgoj/servicelog/internal/validation"
)

// IngestResponse is returned for accepted batches.
type IngestResponse struct {
	Status   string `json:"status"`
	BatchID  string `json:"batch_id"`
	Accepted int    `json:"accepted"`
}

// rateLimitMiddleware limits requests per client IP.
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := s.resolver.ClientIP(c.Request)

		s.limiterMu.Lock()
		limiter, exists := s.limiters[ip]
		if !exists {
			limiter = rate.NewLimiter(s.rateLimit, s.burstLimit)
			s.limiters[ip] = limiter
		}
		s.limiterMu.Unlock()

		if !limiter.Allow() {
			s.appLogger.Info("Rate limit exceeded for IP: %s", ip)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}

		c.Next()
	}
}

// apiKeyMiddleware rejects requests without a configured api key.
func (s *Server) apiKeyMiddleware() gin.HandlerFunc {
	keys := make([][]byte, len(s.cfg.APIKeys))
	for i, k := range s.cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(c *gin.Context) {
		presented := []byte(c.GetHeader(s.cfg.APIKeyHeader))
		if len(presented) > 0 {
			for _, k := range keys {
				if subtle.ConstantTimeCompare(presented, k) == 1 {
					c.Next()
					return
				}
			}
		}
		s.appLogger.Warn("Rejected request without valid api key from %s", s.resolver.ClientIP(c.Request))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
	}
}

// ingestHandler decodes a payload and relays its entries as one batch.
func (s *Server) ingestHandler(c *gin.Context) {
	if s.maxBodySize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodySize)
	}

	var payload logger.IngestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("body exceeds %d bytes", maxErr.Limit)})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed JSON payload"})
		return
	}
	if payload.ApplicationName == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "applicationName is required"})
		return
	}
	if err := validation.IsValidName(payload.ApplicationName, validation.DefaultMaxNameLength); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "applicationName: " + err.Error()})
		return
	}
	if payload.SubsystemName != "" {
		if err := validation.IsValidName(payload.SubsystemName, validation.DefaultMaxNameLength); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "subsystemName: " + err.Error()})
			return
		}
	}
	if !s.applicationAllowed(payload.ApplicationName) {
		s.appLogger.Warn("Rejected batch for application '%s'", payload.ApplicationName)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "application not allowed"})
		return
	}

	records := make([]record.Record, 0, len(payload.LogEntries))
	for i, entry := range payload.LogEntries {
		rec, err := entry.Record()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("logEntries[%d]: %v", i, err)})
			return
		}
		if err := validation.CheckFields(rec.Fields(), validation.DefaultMaxDepth, validation.DefaultMaxKeyLength); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("logEntries[%d]: %v", i, err)})
			return
		}
		records = append(records, rec)
	}

	batchID := uuid.NewString()
	if err := s.relay.Send(c.Request.Context(), records); err != nil {
		s.appLogger.Error("Relay of batch %s to '%s' failed: %v", batchID, s.relay.Name(), err)
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":    "relay failed",
			"kind":     logger.Kind(err),
			"batch_id": batchID,
		})
		return
	}

	s.appLogger.Debug("Relayed batch %s: %d entries for %s/%s from %s",
		batchID, len(records), payload.ApplicationName, payload.SubsystemName, s.resolver.ClientIP(c.Request))
	c.JSON(http.StatusOK, IngestResponse{Status: "ok", BatchID: batchID, Accepted: len(records)})
}

func (s *Server) applicationAllowed(name string) bool {
	for _, g := range s.allowed {
		if g.Match(name) {
			return true
		}
	}
	return false
}
