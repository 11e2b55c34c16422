package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"
	"strings"

	"linkup/internal/chat/repository"
	"linkup/internal/common"
	"linkup/internal/dbmysql"

	"github.com/google/uuid"
)

// MediaSaver records attachment ownership for a message. Implemented by the
// Mongo media store; failures there must not lose the already-persisted
// message.
type MediaSaver interface {
	SaveMessageMedia(ctx context.Context, senderID, messageID string, urls []string) error
}

// ConversationSummary is the shape served by the conversation list endpoint:
// the counterpart resolved, the latest message, ordered by recency upstream.
type ConversationSummary struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	LastMessage *dbmysql.Message `json:"last_message,omitempty"`
	Timestamp   int64            `json:"timestamp"`
	Unread      int64            `json:"unread"`
}

// ChatService defines the messaging operations exposed to the REST handler
// and the realtime event router.
type ChatService interface {
	ResolveConversation(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error)
	GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error)

	SendMessage(ctx context.Context, senderID, recipientID, text string, attachments []string) (*dbmysql.Message, error)
	GetMessages(ctx context.Context, conversationID string, page, limit int) ([]*dbmysql.Message, error)
	MarkDelivered(ctx context.Context, messageID string) (*dbmysql.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
	DeleteMessage(ctx context.Context, messageID, requesterID string) error
}

type chatService struct {
	repo  repository.ChatRepository
	media MediaSaver
}

// Constructor used in DI/wire
func NewChatService(r repository.ChatRepository, media MediaSaver) ChatService {
	return &chatService{repo: r, media: media}
}

// ResolveConversation finds or creates the single conversation for an
// unordered pair of users. Concurrent first-contact races are absorbed by
// the unique participant key: a duplicate-key insert means someone else just
// created the row, so the lookup is retried once.
func (s *chatService) ResolveConversation(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error) {
	if userA == "" || userB == "" {
		return nil, errors.New("both participants are required")
	}
	if strings.EqualFold(userA, userB) {
		return nil, common.ErrSelfConversation
	}

	conv, err := s.repo.FindConversationByPair(ctx, userA, userB)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	low, high := dbmysql.CanonicalPair(userA, userB)
	conv = &dbmysql.Conversation{
		ID:              uuid.NewString(),
		ParticipantLow:  low,
		ParticipantHigh: high,
		ParticipantKey:  dbmysql.ParticipantKeyFor(userA, userB),
	}

	err = s.repo.CreateConversation(ctx, conv)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return nil, err
	}

	return s.repo.FindConversationByPair(ctx, userA, userB)
}

func (s *chatService) GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error) {
	if conversationID == "" {
		return nil, errors.New("conversation ID is required")
	}
	return s.repo.GetConversation(ctx, conversationID)
}

func (s *chatService) ListConversations(ctx context.Context, userID string) ([]*ConversationSummary, error) {
	convs, err := s.repo.ListConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		unread, err := s.repo.CountUnread(ctx, conv.ID, userID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, &ConversationSummary{
			ID:          conv.ID,
			RecipientID: conv.Counterpart(userID),
			LastMessage: conv.LastMessage,
			Timestamp:   conv.UpdatedAt.Unix(),
			Unread:      unread,
		})
	}
	return summaries, nil
}

// SendMessage persists a message with status sent and moves the parent
// conversation's lastMessage pointer. Attachment rows and media records are
// created from the raw URLs.
func (s *chatService) SendMessage(ctx context.Context, senderID, recipientID, text string, attachments []string) (*dbmysql.Message, error) {
	if senderID == "" {
		return nil, errors.New("sender ID cannot be empty")
	}
	if recipientID == "" {
		return nil, errors.New("recipient ID cannot be empty")
	}
	if text == "" && len(attachments) == 0 {
		return nil, errors.New("message must contain text or attachments")
	}

	conv, err := s.ResolveConversation(ctx, senderID, recipientID)
	if err != nil {
		return nil, err
	}

	msg := &dbmysql.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		SenderID:       senderID,
		Text:           text,
		Status:         common.StatusSent,
		Attachments:    attachmentRows(attachments),
	}

	if err := s.repo.SaveMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	if len(attachments) > 0 {
		if err := s.media.SaveMessageMedia(ctx, senderID, msg.ID, attachments); err != nil {
			// The message is durable; media bookkeeping failure is not fatal.
			log.Printf("media records for message %s failed: %v", msg.ID, err)
		}
	}

	if err := s.repo.SetLastMessage(ctx, conv.ID, msg.ID); err != nil {
		return nil, fmt.Errorf("failed to update conversation: %w", err)
	}

	return msg, nil
}

// GetMessages pages through history. Pages are 1-indexed; a page past the
// end yields an empty slice. The result is chronological: oldest of the
// page first.
func (s *chatService) GetMessages(ctx context.Context, conversationID string, page, limit int) ([]*dbmysql.Message, error) {
	if conversationID == "" {
		return nil, errors.New("conversation ID is required")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	messages, err := s.repo.FetchPage(ctx, conversationID, page, limit)
	if err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkDelivered promotes a message from sent to delivered. Any other current
// status makes this a no-op returning the message as it stands: a read
// message is never demoted.
func (s *chatService) MarkDelivered(ctx context.Context, messageID string) (*dbmysql.Message, error) {
	if _, err := s.repo.UpdateStatusIf(ctx, messageID, common.StatusSent, common.StatusDelivered); err != nil {
		return nil, err
	}
	return s.repo.GetMessage(ctx, messageID)
}

func (s *chatService) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	if conversationID == "" {
		return 0, errors.New("conversation ID is required")
	}
	return s.repo.MarkConversationRead(ctx, conversationID, readerID)
}

// DeleteMessage removes a message owned by the requester. The conversation's
// lastMessage pointer is not recomputed when the newest message goes away;
// readers of the conversation list tolerate the dangling reference.
func (s *chatService) DeleteMessage(ctx context.Context, messageID, requesterID string) error {
	msg, err := s.repo.GetMessage(ctx, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID != requesterID {
		return fmt.Errorf("only the sender can delete a message: %w", common.ErrForbidden)
	}
	return s.repo.DeleteMessage(ctx, messageID)
}

func attachmentRows(urls []string) []dbmysql.Attachment {
	if len(urls) == 0 {
		return nil
	}
	rows := make([]dbmysql.Attachment, 0, len(urls))
	for _, url := range urls {
		rows = append(rows, dbmysql.Attachment{
			Name:     path.Base(url),
			MimeType: mimeTypeFor(url),
			URL:      url,
		})
	}
	return rows
}

func mimeTypeFor(url string) string {
	switch strings.ToLower(path.Ext(url)) {
	case ".mp4":
		return "video/mp4"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
