package handlers

import (
	"context"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// StreamHandlers upgrades connections for live scene and sysop updates
type StreamHandlers struct {
	editor      *services.EditorService
	broadcaster *messaging.SceneBroadcaster
	sysop       *messaging.SysOpBroadcaster
	upgrader    *websocket.Upgrader
	conn        messaging.ConnConfig
	logger      *logging.ChanneledLogger
}

// NewStreamHandlers creates stream handlers with injected dependencies
func NewStreamHandlers(
	editor *services.EditorService,
	broadcaster *messaging.SceneBroadcaster,
	sysop *messaging.SysOpBroadcaster,
	allowedOrigins []string,
	conn messaging.ConnConfig,
	logger *logging.ChanneledLogger,
) *StreamHandlers {
	return &StreamHandlers{
		editor:      editor,
		broadcaster: broadcaster,
		sysop:       sysop,
		upgrader:    messaging.NewUpgrader(allowedOrigins),
		conn:        conn,
		logger:      logger,
	}
}

// SessionStream pushes every scene change of the session. The current
// state is sent first so clients need no separate fetch.
func (h *StreamHandlers) SessionStream(c *gin.Context) {
	sessionID := c.Param(middleware.SessionIDParam)
	if _, err := h.editor.Session(sessionID); err != nil {
		respondError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Websocket().Warn("Websocket upgrade failed", "sessionId", logging.MaskSessionID(sessionID), "error", err.Error())
		return
	}

	client, err := h.editor.Subscribe(sessionID, h.broadcaster)
	if err != nil {
		// the session ended between the lookup and the upgrade
		h.logger.Websocket().Debug("Websocket subscribe failed", "sessionId", logging.MaskSessionID(sessionID), "error", err.Error())
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, err.Error()), time.Now().Add(time.Second))
		conn.Close()
		return
	}
	defer h.broadcaster.RemoveClient(client)
	h.logger.LogWebsocketEvent("connected", sessionID, h.broadcaster.ClientCount(sessionID))

	if err := messaging.Serve(c.Request.Context(), conn, client, h.conn); err != nil {
		h.logger.Websocket().Debug("Websocket closed", "sessionId", logging.MaskSessionID(sessionID), "reason", err.Error())
	}
}

// SysOpStream pushes periodic service stats.
func (h *StreamHandlers) SysOpStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Websocket().Warn("Sysop websocket upgrade failed", "error", err.Error())
		return
	}

	ctx := c.Request.Context()
	client := h.sysop.NewClient()
	h.sysop.Register(ctx, client)
	defer func() {
		// the request context may already be done here
		unregisterCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		h.sysop.Unregister(unregisterCtx, client)
	}()

	if err := messaging.Serve(ctx, conn, client, h.conn); err != nil {
		h.logger.Websocket().Debug("Sysop websocket closed", "reason", err.Error())
	}
}
