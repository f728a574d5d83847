package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/gin-gonic/gin"
)

// SetLogLevelRequest changes one channel's level.
type SetLogLevelRequest struct {
	Channel string `json:"channel" binding:"required"`
	Level   string `json:"level" binding:"required"`
}

// SysOpHandlers serves operational endpoints
type SysOpHandlers struct {
	sysop       *services.SysOpService
	broadcaster *logging.LogBroadcaster
	logger      *logging.ChanneledLogger
}

// NewSysOpHandlers creates sysop handlers with injected dependencies
func NewSysOpHandlers(sysop *services.SysOpService, broadcaster *logging.LogBroadcaster, logger *logging.ChanneledLogger) *SysOpHandlers {
	return &SysOpHandlers{sysop: sysop, broadcaster: broadcaster, logger: logger}
}

// GetStats returns session and subscriber counts.
func (h *SysOpHandlers) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.sysop.Stats())
}

// GetPerformance returns the performance tracker snapshot.
func (h *SysOpHandlers) GetPerformance(c *gin.Context) {
	c.JSON(http.StatusOK, h.sysop.Performance())
}

// GetLogLevels returns current log levels for all channels.
func (h *SysOpHandlers) GetLogLevels(c *gin.Context) {
	c.JSON(http.StatusOK, h.sysop.LogLevels())
}

// SetLogLevel sets the log level for a specific channel.
func (h *SysOpHandlers) SetLogLevel(c *gin.Context) {
	var req SetLogLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}
	if err := h.sysop.SetLogLevel(req.Channel, req.Level); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"channel": req.Channel, "level": req.Level})
}

// StreamLogs handles the SSE connection for live log streaming.
func (h *SysOpHandlers) StreamLogs(c *gin.Context) {
	if h.broadcaster == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Log broadcaster not available"})
		return
	}

	filters := logging.AppliedFilters{Channel: logging.AllChannels}
	if name := c.Query("channel"); name != "" && name != string(logging.AllChannels) {
		channel, err := logging.ParseChannel(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filters.Channel = channel
	}
	if name := c.DefaultQuery("level", "INFO"); name != "" {
		level, err := logging.ParseLevel(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filters.Level = level
	}

	client := h.broadcaster.NewClient(filters)
	if !h.broadcaster.RegisterClient(client) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Log broadcaster stopped"})
		return
	}
	defer h.broadcaster.UnregisterClient(client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(c.Writer, ": connection established\n\n")
	c.Writer.Flush()

	c.Stream(func(w io.Writer) bool {
		select {
		case message, ok := <-client.Channel:
			if !ok {
				return false
			}
			fmt.Fprintf(w, "data: %s\n\n", message)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
