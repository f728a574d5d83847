package handlers

import (
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/codegen"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// RenderHandlers serves markup, previews and the exported template
type RenderHandlers struct {
	render *services.RenderService
	code   *services.CodeService
	logger *logging.ChanneledLogger
}

// NewRenderHandlers creates render handlers with injected dependencies
func NewRenderHandlers(render *services.RenderService, code *services.CodeService, logger *logging.ChanneledLogger) *RenderHandlers {
	return &RenderHandlers{render: render, code: code, logger: logger}
}

// GetMarkup returns the scene as an HTML fragment.
func (h *RenderHandlers) GetMarkup(c *gin.Context) {
	start := time.Now()
	sessionID := c.Param(middleware.SessionIDParam)
	h.logger.Render().Debug("Received markup request", "sessionId", logging.MaskSessionID(sessionID))

	html, err := h.render.Markup(sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Render().Info("Markup request completed", "bytes", len(html), "duration", time.Since(start))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// GetPreview returns a raster preview. The format comes from the route's
// file extension; ?width= and ?height= size it.
func (h *RenderHandlers) GetPreview(c *gin.Context) {
	sessionID := c.Param(middleware.SessionIDParam)
	h.logger.Preview().Debug("Received preview request", "sessionId", logging.MaskSessionID(sessionID), "path", c.Request.URL.Path)

	format, err := media.ParseFormat(path.Ext(c.FullPath()))
	if err != nil {
		respondError(c, err)
		return
	}

	width, ok := intQuery(c, "width")
	if !ok {
		return
	}
	height, ok := intQuery(c, "height")
	if !ok {
		return
	}

	data, err := h.render.Preview(sessionID, width, height, format)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, format.ContentType(), data)
}

// GetCode returns the component template; ?format=text|html|ansi.
func (h *RenderHandlers) GetCode(c *gin.Context) {
	format, err := codegen.ParseFormat(c.Query("format"))
	if err != nil {
		respondError(c, err)
		return
	}

	out, err := h.code.Generate(format)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, format.ContentType(), []byte(out))
}

func intQuery(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name, "details": raw})
		return 0, false
	}
	return v, true
}
