package services

import (
	"context"

	"github.com/campuslostfound/lostfound/internal/model"
	"github.com/campuslostfound/lostfound/internal/store"
)

type NotificationService struct {
	store store.Store
}

func NewNotificationService(s store.Store) *NotificationService {
	return &NotificationService{store: s}
}

func (s *NotificationService) ListUnread(ctx context.Context, recipientID string) ([]*model.Notification, error) {
	return s.store.Notifications().ListUnread(ctx, recipientID)
}

// MarkRead flags a notification as read. Other users' notifications report not found.
func (s *NotificationService) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	return s.store.Notifications().MarkRead(ctx, recipientID, notificationID)
}
