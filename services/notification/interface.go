package notification

import (
	"context"
	"strconv"

	"servimatch/models"

	"go.uber.org/zap"
)

// NotificationService delivers reminder messages to customers and providers.
type NotificationService interface {
	SendCustomerNotification(ctx context.Context, customerID int64, title, body string, data map[string]string) error
	SendProviderNotification(ctx context.Context, providerID int64, title, body string, data map[string]string) error
}

// LogNotificationService writes notifications to the log. Push delivery is
// owned by another system.
type LogNotificationService struct {
	Logger *zap.Logger
}

func NewLogNotificationService(logger *zap.Logger) *LogNotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotificationService{Logger: logger}
}

func (s *LogNotificationService) SendCustomerNotification(_ context.Context, customerID int64, title, body string, data map[string]string) error {
	s.Logger.Info("Customer notification",
		zap.Int64("customerId", customerID),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data))
	return nil
}

func (s *LogNotificationService) SendProviderNotification(_ context.Context, providerID int64, title, body string, data map[string]string) error {
	s.Logger.Info("Provider notification",
		zap.Int64("providerId", providerID),
		zap.String("title", title),
		zap.String("body", body),
		zap.Any("data", data))
	return nil
}

// Dispatch routes a reminder to the matching Send method.
func Dispatch(ctx context.Context, svc NotificationService, p models.ReminderPayload) error {
	data := map[string]string{
		"requestId": strconv.FormatInt(p.RequestID, 10),
		"fireDate":  p.FireDate,
		"title":     p.Title,
		"body":      p.Body,
	}
	switch p.Target {
	case models.RoleCustomer:
		return svc.SendCustomerNotification(ctx, p.TargetID, p.Title, p.Body, data)
	case models.RoleProvider:
		return svc.SendProviderNotification(ctx, p.TargetID, p.Title, p.Body, data)
	default:
		return ErrUnknownTarget
	}
}
