package repository

import (
	"context"
	"errors"
	"fmt"

	"linkup/internal/common"
	"linkup/internal/dbmysql"

	"gorm.io/gorm"
)

// ChatRepository owns all conversation and message persistence.
type ChatRepository interface {
	FindConversationByPair(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error)
	CreateConversation(ctx context.Context, conv *dbmysql.Conversation) error
	GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error)
	ListConversations(ctx context.Context, userID string) ([]*dbmysql.Conversation, error)
	SetLastMessage(ctx context.Context, conversationID, messageID string) error

	SaveMessage(ctx context.Context, msg *dbmysql.Message) error
	GetMessage(ctx context.Context, messageID string) (*dbmysql.Message, error)
	FetchPage(ctx context.Context, conversationID string, page, limit int) ([]*dbmysql.Message, error)
	UpdateStatusIf(ctx context.Context, messageID string, from, to common.MessageStatus) (int64, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
	CountUnread(ctx context.Context, conversationID, userID string) (int64, error)
	DeleteMessage(ctx context.Context, messageID string) error
}

type chatRepo struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) ChatRepository {
	return &chatRepo{db: db}
}

func (r *chatRepo) FindConversationByPair(ctx context.Context, userA, userB string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	key := dbmysql.ParticipantKeyFor(userA, userB)
	err := r.db.WithContext(ctx).Where("participant_key = ?", key).First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation for pair: %w", common.ErrNotFound)
		}
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepo) CreateConversation(ctx context.Context, conv *dbmysql.Conversation) error {
	err := r.db.WithContext(ctx).Create(conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("conversation already exists: %w", common.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *chatRepo) GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error) {
	var conv dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Preload("LastMessage").
		Where("id = ?", conversationID).
		First(&conv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", conversationID, common.ErrNotFound)
		}
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepo) ListConversations(ctx context.Context, userID string) ([]*dbmysql.Conversation, error) {
	var convs []*dbmysql.Conversation
	err := r.db.WithContext(ctx).
		Preload("LastMessage").
		Where("participant_low = ? OR participant_high = ?", userID, userID).
		Order("updated_at DESC").
		Find(&convs).Error
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// SetLastMessage is last-write-wins: concurrent sends both update the
// pointer and the later write sticks.
func (r *chatRepo) SetLastMessage(ctx context.Context, conversationID, messageID string) error {
	return r.db.WithContext(ctx).
		Model(&dbmysql.Conversation{}).
		Where("id = ?", conversationID).
		Update("last_message_id", messageID).Error
}

func (r *chatRepo) SaveMessage(ctx context.Context, msg *dbmysql.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *chatRepo) GetMessage(ctx context.Context, messageID string) (*dbmysql.Message, error) {
	var msg dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("id = ?", messageID).
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("message %s: %w", messageID, common.ErrNotFound)
		}
		return nil, err
	}
	return &msg, nil
}

// FetchPage returns a newest-first page; the service reverses it before
// handing the slice out so callers see chronological order.
func (r *chatRepo) FetchPage(ctx context.Context, conversationID string, page, limit int) ([]*dbmysql.Message, error) {
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var messages []*dbmysql.Message
	err := r.db.WithContext(ctx).
		Preload("Attachments").
		Where("conversation_id = ?", conversationID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// UpdateStatusIf transitions a message's status only when it currently holds
// the expected value. Returns the number of rows changed: zero means the
// message was already past that state (or missing).
func (r *chatRepo) UpdateStatusIf(ctx context.Context, messageID string, from, to common.MessageStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("id = ? AND status = ?", messageID, from).
		Update("status", to)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkConversationRead flips every message the reader did not author and
// that is not already read. Idempotent by construction.
func (r *chatRepo) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND status <> ?",
			conversationID, readerID, common.StatusRead).
		Update("status", common.StatusRead)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *chatRepo) CountUnread(ctx context.Context, conversationID, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&dbmysql.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND status <> ?",
			conversationID, userID, common.StatusRead).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// DeleteMessage removes the message row and its attachment rows. The parent
// conversation's last_message_id is intentionally not recomputed here; see
// the service-level comment on DeleteMessage.
func (r *chatRepo) DeleteMessage(ctx context.Context, messageID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", messageID).Delete(&dbmysql.Attachment{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", messageID).Delete(&dbmysql.Message{}).Error
	})
}
