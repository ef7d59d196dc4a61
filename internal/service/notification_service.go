package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/config"
	"github.com/spec-kit/property-service/internal/events"
)

// NotificationService reacts to issue events. Delivery is a stub that
// logs what would be sent; the channels (email, webhook) are wired but
// delivery integration is owned by the platform notification system.
type NotificationService struct {
	cfg    config.NotificationConfig
	logger *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(cfg config.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{cfg: cfg, logger: logger}
}

// Register subscribes the service to the events it cares about.
func (s *NotificationService) Register(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventIssueRaised, s.onIssueRaised)
	dispatcher.Subscribe(events.EventIssueAssigned, s.onIssueAssigned)
	dispatcher.Subscribe(events.EventIssueStatusChanged, s.onStatusChanged)
	dispatcher.Subscribe(events.EventIssueEscalated, s.onEscalated)
}

func (s *NotificationService) onIssueRaised(_ context.Context, event events.Event) error {
	s.logger.Info("notify: issue raised",
		zap.String("issue_id", event.IssueID),
		zap.String("email_from", s.cfg.EmailFrom))
	return nil
}

func (s *NotificationService) onIssueAssigned(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueAssignedPayload)
	if !ok {
		return nil
	}
	fields := []zap.Field{zap.String("issue_id", event.IssueID), zap.Bool("auto_assigned", payload.AutoAssigned)}
	if payload.WorkerID != nil {
		fields = append(fields, zap.String("worker_id", *payload.WorkerID))
	}
	s.logger.Info("notify: issue assigned", fields...)
	return nil
}

func (s *NotificationService) onStatusChanged(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueStatusChangedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("notify: issue status changed",
		zap.String("issue_id", event.IssueID),
		zap.String("old_status", string(payload.OldStatus)),
		zap.String("new_status", string(payload.NewStatus)))
	return nil
}

func (s *NotificationService) onEscalated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueEscalatedPayload)
	if !ok {
		return nil
	}
	s.logger.Warn("notify: issue escalated",
		zap.String("issue_id", event.IssueID),
		zap.String("sweep", payload.Sweep),
		zap.String("reason", payload.Reason))
	if s.cfg.WebhookURL != "" {
		// webhook delivery handled by the platform notifier.
		s.logger.Info("notify: webhook queued", zap.String("url", s.cfg.WebhookURL))
	}
	return nil
}
