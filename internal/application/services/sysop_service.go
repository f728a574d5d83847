package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/spotlight-go/internal/infrastructure/observability/performance"
)

var ErrInvalidLogSetting = errors.New("invalid log setting")

// SubscriberCounter reports live websocket subscribers.
type SubscriberCounter interface {
	TotalClients() int
}

// SysOpService serves operational state: sessions, subscribers, timings and
// log levels.
type SysOpService struct {
	editor      *EditorService
	subscribers SubscriberCounter
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	maxSessions int
	started     time.Time
}

// NewSysOpService creates a new sysop service with injected dependencies
func NewSysOpService(
	editor *EditorService,
	subscribers SubscriberCounter,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
	maxSessions int,
) *SysOpService {
	return &SysOpService{
		editor:      editor,
		subscribers: subscribers,
		logger:      logger,
		perfTracker: perfTracker,
		maxSessions: maxSessions,
		started:     time.Now(),
	}
}

// Stats is the payload pushed to the sysop dashboard.
type Stats struct {
	Timestamp        time.Time                `json:"timestamp"`
	Uptime           string                   `json:"uptime"`
	ActiveSessions   int                      `json:"activeSessions"`
	MaxSessions      int                      `json:"maxSessions"`
	WebsocketClients int                      `json:"websocketClients"`
	Health           performance.HealthStatus `json:"health"`
}

// Stats returns the current dashboard figures.
func (s *SysOpService) Stats() Stats {
	clients := 0
	if s.subscribers != nil {
		clients = s.subscribers.TotalClients()
	}
	return Stats{
		Timestamp:        time.Now().UTC(),
		Uptime:           time.Since(s.started).Round(time.Second).String(),
		ActiveSessions:   s.editor.ActiveSessions(),
		MaxSessions:      s.maxSessions,
		WebsocketClients: clients,
		Health:           s.perfTracker.Health(),
	}
}

// Performance returns the tracker snapshot.
func (s *SysOpService) Performance() performance.Snapshot {
	return s.perfTracker.TakeSnapshot()
}

// LogLevels returns the level of every log channel.
func (s *SysOpService) LogLevels() map[string]string {
	return s.logger.GetChannelLevels()
}

// SetLogLevel changes one channel's level at runtime.
func (s *SysOpService) SetLogLevel(channelName, levelName string) error {
	channel, err := logging.ParseChannel(channelName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogSetting, err)
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidLogSetting, err)
	}
	if err := s.logger.SetChannelLevel(channel, level); err != nil {
		return err
	}
	s.logger.System().Info("Log level changed", "channel", channel, "level", level.String())
	return nil
}
