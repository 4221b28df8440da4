package pushstub

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KasumiMercury/primind-scan-reminder/internal/infra/push"
)

type Handler struct {
	storage *Storage
}

func NewHandler(storage *Storage) *Handler {
	return &Handler{storage: storage}
}

// POST /v1/messages
func (h *Handler) HandleSend(c *gin.Context) {
	var msg push.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if msg.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	key := c.GetHeader(push.IdempotencyKeyHeader)
	id, result := h.storage.deliver(key, msg)

	switch result {
	case deliverUnavailable:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "injected failure"})
	case deliverInvalidToken:
		c.JSON(http.StatusGone, gin.H{"error": "token is no longer registered"})
	case deliverReplayed:
		slog.Debug("replayed push", slog.String("idempotency_key", key), slog.String("message_id", id))
		c.JSON(http.StatusOK, push.Receipt{MessageID: id})
	default:
		slog.Info("accepted push",
			slog.String("idempotency_key", key),
			slog.String("message_id", id),
			slog.String("type", msg.Data["type"]),
		)
		c.JSON(http.StatusCreated, push.Receipt{MessageID: id})
	}
}

// GET /v1/messages
func (h *Handler) HandleList(c *gin.Context) {
	delivered := h.storage.Delivered()
	c.JSON(http.StatusOK, gin.H{
		"messages": delivered,
		"count":    len(delivered),
	})
}

type invalidateRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /v1/tokens/invalidate
func (h *Handler) HandleInvalidateToken(c *gin.Context) {
	var req invalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.storage.InvalidateToken(req.Token)
	c.Status(http.StatusNoContent)
}

type faultRequest struct {
	FailNext int `json:"fail_next"`
}

// POST /v1/faults
func (h *Handler) HandleFaults(c *gin.Context) {
	var req faultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.storage.FailNext(req.FailNext)
	c.Status(http.StatusNoContent)
}

// POST /reset
func (h *Handler) HandleReset(c *gin.Context) {
	h.storage.Reset()
	slog.Info("reset push stub")
	c.JSON(http.StatusOK, gin.H{"status": "reset complete"})
}

func NewRouter(storage *Storage) *gin.Engine {
	h := NewHandler(storage)

	r := gin.New()
	r.Use(gin.Recovery())

	r.POST("/reset", h.HandleReset)
	v1 := r.Group("/v1")
	v1.POST("/messages", h.HandleSend)
	v1.GET("/messages", h.HandleList)
	v1.POST("/tokens/invalidate", h.HandleInvalidateToken)
	v1.POST("/faults", h.HandleFaults)

	return r
}
