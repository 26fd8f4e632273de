package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/llmgate/promptcoder/circuitbreaker"
	"github.com/llmgate/promptcoder/internal/utils"
)

const requestIdHeaderKey = "X-Request-Id"

type HealthHandler struct {
	breaker *circuitbreaker.CircuitBreaker
}

func NewHealthHandler(breaker *circuitbreaker.CircuitBreaker) *HealthHandler {
	return &HealthHandler{
		breaker: breaker,
	}
}

// IsHealthy reports liveness. An open circuit is still a healthy process.
func (h *HealthHandler) IsHealthy(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"circuit": h.breaker.State().String(),
	})
}

// RequestId tags every request with an id, reusing the caller's X-Request-Id
// when present.
func RequestId() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(requestIdHeaderKey)
		if requestId == "" {
			requestId = uuid.New().String()
		}
		c.Set(utils.RequestIdKey, requestId)
		c.Header(requestIdHeaderKey, requestId)
		c.Next()
	}
}
