// Package container provides dependency injection for all singleton services
package container

import (
	"fmt"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/application/services"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/caching/stores"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/media"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/messaging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/security"
	"github.com/AtRiskMedia/spotlight-go/pkg/config"
)

// sysopStatsInterval is how often the sysop dashboard is refreshed.
const sysopStatsInterval = 5 * time.Second

// Container holds all singleton services and infrastructure dependencies
type Container struct {
	// Application Services
	EditorService *services.EditorService
	CodeService   *services.CodeService
	RenderService *services.RenderService
	SysOpService  *services.SysOpService

	// Infrastructure Dependencies
	SessionStore     *stores.EditorSessionStore
	Broadcaster      *messaging.SceneBroadcaster
	SysOpBroadcaster *messaging.SysOpBroadcaster
	Tokens           *security.TokenIssuer
	LogBroadcaster   *logging.LogBroadcaster
	Logger           *logging.ChanneledLogger
	PerfTracker      *performance.Tracker
}

// NewContainer creates and wires all singleton services from pkg/config.
func NewContainer(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) (*Container, error) {
	tokens, err := security.NewTokenIssuer(config.JWTSecret, config.SessionTokenTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}
	if config.JWTSecret == "" {
		logger.Startup().Warn("JWT_SECRET not set; session tokens will not survive a restart")
	}

	store := stores.NewEditorSessionStore(config.MaxEditorSessions, logger)
	broadcaster := messaging.NewSceneBroadcaster(16, logger)

	editor := services.NewEditorService(store, tokens, broadcaster, logger, perfTracker, config.MaxSpotlightsPerScene)
	renderer := media.NewPreviewRenderer(config.PreviewMaxWidth, config.PreviewWebPQuality)
	sysop := services.NewSysOpService(editor, broadcaster, logger, perfTracker, config.MaxEditorSessions)

	return &Container{
		EditorService: editor,
		CodeService:   services.NewCodeService(logger, perfTracker),
		RenderService: services.NewRenderService(editor, renderer, logger, perfTracker),
		SysOpService:  sysop,

		SessionStore: store,
		Broadcaster:  broadcaster,
		SysOpBroadcaster: messaging.NewSysOpBroadcaster(func() any {
			return sysop.Stats()
		}, sysopStatsInterval, logger),
		Tokens:         tokens,
		LogBroadcaster: logging.GetBroadcaster(),
		Logger:         logger,
		PerfTracker:    perfTracker,
	}, nil
}
