package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/kitchen-relay/internal/adapter/handler/pb"
	"github.com/rl1809/kitchen-relay/internal/core/domain"
	"github.com/rl1809/kitchen-relay/internal/core/service"
)

// HTTPHandler exposes the relay over plain HTTP: the two relay operations
// as JSON POSTs and the broadcast stream as server-sent events.
type HTTPHandler struct {
	relay  *service.RelayService
	logger *slog.Logger
}

type SubmitOrderHTTPRequest struct {
	OrderID string `json:"order_id"`
	Table   string `json:"table"`
	Item    string `json:"item"`
}

type UpdateStatusHTTPRequest struct {
	Status string `json:"status"`
}

type RelayHTTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(relay *service.RelayService, logger *slog.Logger) *HTTPHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPHandler{relay: relay, logger: logger}
}

// NewRouter builds the relay's gin engine.
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.POST("/orders", h.SubmitOrder)
	api.POST("/orders/:id/status", h.UpdateStatus)
	api.GET("/events", h.Events)

	return r
}

func (h *HTTPHandler) SubmitOrder(c *gin.Context) {
	var req SubmitOrderHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, RelayHTTPResponse{Success: false, Message: "invalid request body"})
		return
	}

	if err := h.relay.SubmitOrder(c.Request.Context(), req.OrderID, req.Table, req.Item); err != nil {
		h.writeRelayError(c, err)
		return
	}
	c.JSON(http.StatusOK, RelayHTTPResponse{Success: true, Message: "order broadcast"})
}

func (h *HTTPHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, RelayHTTPResponse{Success: false, Message: "invalid request body"})
		return
	}

	if err := h.relay.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		h.writeRelayError(c, err)
		return
	}
	c.JSON(http.StatusOK, RelayHTTPResponse{Success: true, Message: "status broadcast"})
}

// Events streams broadcasts as server-sent events. The first event is
// Subscribed, sent once the caller is registered.
func (h *HTTPHandler) Events(c *gin.Context) {
	sub, err := h.relay.Subscribe()
	if err != nil {
		h.writeRelayError(c, err)
		return
	}
	defer h.relay.Unsubscribe(sub)

	h.logger.Info("sse client subscribed", "subscriber_id", sub.ID, "remote", c.ClientIP())

	greeted := false
	c.Stream(func(w io.Writer) bool {
		if !greeted {
			greeted = true
			c.SSEvent(domain.EventSubscribed, pb.RelayEvent{Name: domain.EventSubscribed})
			return true
		}
		select {
		case ev, ok := <-sub.C:
			if !ok {
				return false
			}
			c.SSEvent(ev.Name, pb.FromEvent(ev))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})

	h.logger.Info("sse client unsubscribed", "subscriber_id", sub.ID)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "subscribers": h.relay.SubscriberCount()})
}

func (h *HTTPHandler) writeRelayError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	if errors.Is(err, service.ErrRelayClosed) {
		status = http.StatusServiceUnavailable
		message = "relay shutting down"
	}
	h.logger.Warn("relay call failed", "path", c.FullPath(), "error", err)
	c.JSON(status, RelayHTTPResponse{Success: false, Message: message})
}
