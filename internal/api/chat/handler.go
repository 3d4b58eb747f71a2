package chat

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nextdocs/docsgpt/internal/domain"
)

// anonymousClient pools every request that arrives without a usable
// network address under one shared rate-limit identifier.
const anonymousClient = "anonymous"

// Streamer runs the chat pipeline and returns the fragment stream.
type Streamer interface {
	Chat(ctx context.Context, clientID string, conversation []domain.ChatMessage) (<-chan string, error)
}

// Handler handles the public chat endpoint
type Handler struct {
	service Streamer
	logger  *zap.Logger
}

// NewHandler creates a new chat handler
func NewHandler(service Streamer, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
}

// Chat answers one conversation with an incrementally streamed
// markdown completion. Rate-limited requests get a 429; any pipeline
// failure before the first byte gets a 500 with no partial body.
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientID := clientIdentifier(c)

	stream, err := h.service.Chat(c.Request.Context(), clientID, req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTooManyRequests):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		default:
			h.logger.Error("chat pipeline failed",
				zap.String("client", clientID),
				zap.Error(err),
			)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	c.Header("Content-Type", "text/markdown; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	// Blocking receive per fragment; the channel closes on upstream
	// exhaustion, and a client disconnect cancels the request context,
	// which stops the relay behind the channel.
	c.Stream(func(w io.Writer) bool {
		fragment, ok := <-stream
		if !ok {
			return false
		}
		_, _ = io.WriteString(w, fragment)
		return true
	})
}

// clientIdentifier derives the rate-limit key from the caller's real
// or forwarded address. Requests with no resolvable address share the
// anonymous bucket instead of failing.
func clientIdentifier(c *gin.Context) string {
	if ip := c.GetHeader("X-Real-IP"); ip != "" {
		return ip
	}
	if ip := c.GetHeader("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := c.ClientIP(); ip != "" {
		return ip
	}
	return anonymousClient
}
