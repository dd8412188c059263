// internal/handlers/settlement/settlement_handler.go
package settlement

import (
	"net/http"
	"strconv"

	settlementdom "subpay-service/internal/domain/settlement"
	"subpay-service/internal/events"
	"subpay-service/internal/pkg/response"
	settlementUsecase "subpay-service/internal/service/settlement"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the provider dashboard host is known
		return true
	},
}

type SettlementHandler struct {
	dispatcher *settlementUsecase.DispatcherService
	hub        *events.Hub
	logger     *zap.Logger
}

func NewSettlementHandler(dispatcher *settlementUsecase.DispatcherService, hub *events.Hub, logger *zap.Logger) *SettlementHandler {
	return &SettlementHandler{
		dispatcher: dispatcher,
		hub:        hub,
		logger:     logger,
	}
}

// ListInstructions returns queued transfer instructions, optionally
// filtered by status (provider only).
func (h *SettlementHandler) ListInstructions(c *gin.Context) {
	status := settlementdom.Status(c.Query("status"))
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	list, err := h.dispatcher.List(c.Request.Context(), status, limit)
	if err != nil {
		h.logger.Error("failed to list settlement instructions", zap.Error(err))
		response.FromError(c, "failed to list settlement instructions", err)
		return
	}

	response.Success(c, http.StatusOK, "instructions retrieved", list)
}

// Redrive re-queues failed instructions for delivery (provider only).
func (h *SettlementHandler) Redrive(c *gin.Context) {
	n, err := h.dispatcher.Redrive(c.Request.Context())
	if err != nil {
		h.logger.Error("settlement redrive failed", zap.Error(err))
		response.FromError(c, "settlement redrive failed", err)
		return
	}

	h.logger.Info("settlement redrive requested", zap.Int64("requeued", n))
	response.Success(c, http.StatusOK, "redrive started", gin.H{"requeued": n})
}

// StreamEvents upgrades to a websocket and subscribes the client to
// settlement events. Authentication runs in middleware before this.
func (h *SettlementHandler) StreamEvents(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	h.hub.Add(conn)
	h.logger.Info("settlement stream client connected",
		zap.String("ip", c.ClientIP()),
		zap.Int("clients", h.hub.ClientCount()),
	)

	// Drain reads so pings and close frames are processed. The hub only
	// ever writes; a read error means the client went away. Remove owns
	// the close.
	go func() {
		defer h.hub.Remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
