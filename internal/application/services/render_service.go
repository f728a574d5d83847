package services

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/projection"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/presentation/templates"
)

// RenderService turns session scenes into markup and raster previews.
type RenderService struct {
	editor      *EditorService
	previews    *media.PreviewRenderer
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewRenderService creates a new render service
func NewRenderService(
	editor *EditorService,
	previews *media.PreviewRenderer,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *RenderService {
	return &RenderService{
		editor:      editor,
		previews:    previews,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Markup renders a session's scene as an HTML fragment.
func (s *RenderService) Markup(sessionID string) (string, error) {
	marker := s.perfTracker.StartOperation("render:markup", sessionID)
	defer marker.Complete()

	sc, err := s.editor.Scene(sessionID)
	if err != nil {
		marker.SetError(err)
		return "", err
	}
	html := templates.RenderScene(projection.ProjectScene(sc))
	marker.AddMetadata("bytes", len(html))
	return html, nil
}

// Preview rasterizes a session's scene. A zero width uses the configured
// maximum and a zero height follows a 16:9 aspect.
func (s *RenderService) Preview(sessionID string, width, height int, format media.Format) ([]byte, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("preview:"+string(format), sessionID)
	defer marker.Complete()

	sc, err := s.editor.Scene(sessionID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	data, err := s.previews.Render(sc, width, height, format)
	if err != nil {
		marker.SetError(err)
		return nil, fmt.Errorf("failed to render preview: %w", err)
	}

	marker.AddMetadata("bytes", len(data))
	s.logger.Preview().Info("Preview rendered",
		"sessionId", logging.MaskSessionID(sessionID),
		"format", format,
		"width", width,
		"height", height,
		"bytes", len(data),
		"duration", time.Since(start))
	return data, nil
}
