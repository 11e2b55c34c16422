package notif

import (
	"context"
	"fmt"
	"log"

	"linkup/internal/common"
	"linkup/internal/dbmysql"
	"linkup/internal/user"

	"github.com/google/uuid"
)

// Pusher delivers an event to a user's live realtime session, if any.
// Implemented by the connection registry; injected at construction so this
// package never reaches for transport state through a global.
type Pusher interface {
	Push(userID, event string, data interface{}) bool
}

// Service persists notifications and attempts best-effort realtime
// delivery. Persistence is the durability guarantee; the push is only a
// latency optimization and its failure is logged and swallowed.
type Service struct {
	repo   dbmysql.NotificationRepository
	users  user.UserRepository
	pusher Pusher
}

func NewService(repo dbmysql.NotificationRepository, users user.UserRepository, pusher Pusher) *Service {
	return &Service{
		repo:   repo,
		users:  users,
		pusher: pusher,
	}
}

func (s *Service) Create(
	ctx context.Context,
	recipientID, senderID string,
	notifType common.NotificationType,
	content string,
	entityID, entityModel string,
) (*dbmysql.Notification, error) {
	if recipientID == "" {
		return nil, fmt.Errorf("recipient is required")
	}
	if content == "" {
		return nil, fmt.Errorf("content is required")
	}

	notification := &dbmysql.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		SenderID:    senderID,
		Type:        notifType,
		Content:     content,
		Read:        false,
	}
	if entityID != "" {
		notification.EntityID = &entityID
	}
	if entityModel != "" {
		notification.EntityModel = &entityModel
	}

	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, err
	}

	if name, err := s.users.DisplayName(ctx, senderID); err == nil {
		notification.SenderName = name
	}

	if !s.pusher.Push(recipientID, "new_notification", notification) {
		log.Printf("notification %s not pushed, recipient %s offline", notification.ID, recipientID)
	}

	return notification, nil
}

func (s *Service) List(ctx context.Context, recipientID string, page, limit int) ([]*dbmysql.Notification, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.repo.ByRecipient(ctx, recipientID, limit, (page-1)*limit)
}

func (s *Service) MarkRead(ctx context.Context, notificationID string) error {
	return s.repo.MarkAsRead(ctx, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, recipientID string) error {
	return s.repo.MarkAllAsRead(ctx, recipientID)
}

// Delete removes a notification owned by the requester.
func (s *Service) Delete(ctx context.Context, notificationID, requesterID string) error {
	notification, err := s.repo.ByID(ctx, notificationID)
	if err != nil {
		return err
	}
	if notification.RecipientID != requesterID {
		return fmt.Errorf("notification belongs to another user: %w", common.ErrForbidden)
	}
	return s.repo.Delete(ctx, notificationID)
}

func (s *Service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	return s.repo.UnreadCount(ctx, recipientID)
}
