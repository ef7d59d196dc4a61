package worker

import (
	"go.uber.org/zap"

	"github.com/spec-kit/property-service/internal/config"
	"github.com/spec-kit/property-service/internal/events"
	"github.com/spec-kit/property-service/internal/service"
)

// StartNotificationWorker subscribes the notification service to the
// event stream. Dispatch is synchronous and in-process.
func StartNotificationWorker(dispatcher events.Dispatcher, cfg config.NotificationConfig, logger *zap.Logger) *service.NotificationService {
	notifications := service.NewNotificationService(cfg, logger)
	notifications.Register(dispatcher)
	return notifications
}
