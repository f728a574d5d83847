package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/entities/scene"
	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/projection"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/http/middleware"
	"github.com/gin-gonic/gin"
)

// UpdateSpotlightRequest sets one field. Value keeps its JSON type.
type UpdateSpotlightRequest struct {
	Field string          `json:"field" binding:"required"`
	Value json.RawMessage `json:"value"`
}

// SetBlendModeRequest selects the global blend mode.
type SetBlendModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// EditorHandlers contains the session and scene mutation handlers
type EditorHandlers struct {
	editor      *services.EditorService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewEditorHandlers creates editor handlers with injected dependencies
func NewEditorHandlers(editor *services.EditorService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *EditorHandlers {
	return &EditorHandlers{
		editor:      editor,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// CreateSession starts a session, optionally seeded with a posted scene.
func (h *EditorHandlers) CreateSession(c *gin.Context) {
	start := time.Now()
	h.logger.Session().Debug("Received create session request", "method", c.Request.Method, "path", c.Request.URL.Path)

	var initial *scene.Scene
	if c.Request.ContentLength != 0 {
		var posted scene.Scene
		if err := c.ShouldBindJSON(&posted); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scene", "details": err.Error()})
			return
		}
		initial = &posted
	}

	created, err := h.editor.CreateSession(initial)
	if err != nil {
		respondError(c, err)
		return
	}

	h.logger.Session().Info("Create session request completed",
		"sessionId", logging.MaskSessionID(created.SessionID), "duration", time.Since(start))
	c.JSON(http.StatusCreated, created)
}

// GetSession returns the session's scene and projection.
func (h *EditorHandlers) GetSession(c *gin.Context) {
	state, err := h.editor.Session(c.Param(middleware.SessionIDParam))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// DeleteSession ends the session.
func (h *EditorHandlers) DeleteSession(c *gin.Context) {
	sessionID := c.Param(middleware.SessionIDParam)
	if err := h.editor.DeleteSession(sessionID); err != nil {
		respondError(c, err)
		return
	}
	h.logger.Session().Info("Delete session request completed", "sessionId", logging.MaskSessionID(sessionID))
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// GetProjection returns only the projection of the session's scene.
func (h *EditorHandlers) GetProjection(c *gin.Context) {
	p, err := h.editor.Project(c.Param(middleware.SessionIDParam))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// ProjectScene projects a posted scene without a session.
func (h *EditorHandlers) ProjectScene(c *gin.Context) {
	start := time.Now()
	marker := h.perfTracker.StartOperation("render:stateless", "")
	defer marker.Complete()

	var posted scene.Scene
	if err := c.ShouldBindJSON(&posted); err != nil {
		marker.SetError(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scene", "details": err.Error()})
		return
	}

	p := projection.ProjectScene(posted)
	h.logger.Render().Info("Stateless projection completed", "shapes", len(p.Shapes), "duration", time.Since(start))
	c.JSON(http.StatusOK, p)
}

// AddSpotlight appends a default spotlight.
func (h *EditorHandlers) AddSpotlight(c *gin.Context) {
	h.respondMutation(c, "add")(h.editor.AddSpotlight(c.Param(middleware.SessionIDParam)))
}

// DuplicateSpotlight appends an offset copy of a spotlight.
func (h *EditorHandlers) DuplicateSpotlight(c *gin.Context) {
	spotlightID, ok := spotlightParam(c)
	if !ok {
		return
	}
	h.respondMutation(c, "duplicate")(h.editor.DuplicateSpotlight(c.Param(middleware.SessionIDParam), spotlightID))
}

// MirrorSpotlight appends a mirrored copy of a spotlight.
func (h *EditorHandlers) MirrorSpotlight(c *gin.Context) {
	spotlightID, ok := spotlightParam(c)
	if !ok {
		return
	}
	h.respondMutation(c, "mirror")(h.editor.MirrorDuplicateSpotlight(c.Param(middleware.SessionIDParam), spotlightID))
}

// RemoveSpotlight removes a spotlight, keeping at least one.
func (h *EditorHandlers) RemoveSpotlight(c *gin.Context) {
	spotlightID, ok := spotlightParam(c)
	if !ok {
		return
	}
	h.respondMutation(c, "remove")(h.editor.RemoveSpotlight(c.Param(middleware.SessionIDParam), spotlightID))
}

// UpdateSpotlight sets one field of a spotlight.
func (h *EditorHandlers) UpdateSpotlight(c *gin.Context) {
	spotlightID, ok := spotlightParam(c)
	if !ok {
		return
	}

	var req UpdateSpotlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	value, err := decodeValue(req.Value)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid value", "details": err.Error()})
		return
	}

	h.respondMutation(c, "update")(h.editor.UpdateSpotlight(c.Param(middleware.SessionIDParam), spotlightID, scene.Field(req.Field), value))
}

// SetBackground replaces the background.
func (h *EditorHandlers) SetBackground(c *gin.Context) {
	var req scene.BackgroundConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	bg, err := req.Background()
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondMutation(c, "set_background")(h.editor.SetBackground(c.Param(middleware.SessionIDParam), bg))
}

// SetBlendMode replaces the global blend mode.
func (h *EditorHandlers) SetBlendMode(c *gin.Context) {
	var req SetBlendModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	mode, err := scene.ParseBlendMode(req.Mode)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondMutation(c, "set_blend_mode")(h.editor.SetBlendMode(c.Param(middleware.SessionIDParam), mode))
}

// respondMutation returns a writer for a service call's results, so that a
// call can be passed straight through.
func (h *EditorHandlers) respondMutation(c *gin.Context, operation string) func(*services.MutationResult, error) {
	start := time.Now()
	h.logger.Editor().Debug("Received editor request", "operation", operation, "method", c.Request.Method, "path", c.Request.URL.Path)

	return func(res *services.MutationResult, err error) {
		if err != nil {
			respondError(c, err)
			return
		}
		h.logger.Editor().Info("Editor request completed", "operation", operation, "changed", res.Changed, "duration", time.Since(start))
		c.JSON(http.StatusOK, res)
	}
}

func spotlightParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("sid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid spotlight id %q", c.Param("sid"))})
		return 0, false
	}
	return id, true
}

// decodeValue keeps numbers as json.Number so integers and floats both
// reach the model unchanged.
func decodeValue(raw json.RawMessage) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("value is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
