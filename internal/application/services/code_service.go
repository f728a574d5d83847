package services

import (
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/domain/services/codegen"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
)

// CodeService serves the exported component template.
type CodeService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewCodeService creates a new code service
func NewCodeService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *CodeService {
	return &CodeService{logger: logger, perfTracker: perfTracker}
}

// Generate returns the template in format.
func (s *CodeService) Generate(format codegen.Format) (string, error) {
	start := time.Now()
	marker := s.perfTracker.StartOperation("codegen:"+string(format), "")
	defer marker.Complete()

	out, err := codegen.Render(format)
	if err != nil {
		marker.SetError(err)
		s.logger.LogError(logging.ChannelCodegen, "generate", err, map[string]any{"format": string(format)})
		return "", err
	}

	marker.AddMetadata("bytes", len(out))
	s.logger.Codegen().Info("Component template generated",
		"format", format, "bytes", len(out), "duration", time.Since(start))
	return out, nil
}
