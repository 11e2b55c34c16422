package dbmysql

import (
	"time"

	"linkup/internal/common"
)

type Message struct {
	ID             string               `gorm:"primaryKey;size:36" json:"id"`
	ConversationID string               `gorm:"column:conversation_id;index;size:36;not null" json:"conversation_id"`
	SenderID       string               `gorm:"column:sender_id;index;size:36;not null" json:"sender_id"`
	Text           string               `gorm:"column:text;type:text" json:"text"`
	Status         common.MessageStatus `gorm:"column:status;type:enum('sent','delivered','read');default:'sent'" json:"status"`
	Attachments    []Attachment         `gorm:"foreignKey:MessageID" json:"attachments"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

type Attachment struct {
	ID        uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	MessageID string `gorm:"column:message_id;index;size:36;not null" json:"message_id"`
	Name      string `gorm:"column:name;size:255;not null" json:"name"`
	MimeType  string `gorm:"column:mime_type;size:100;not null" json:"type"`
	URL       string `gorm:"column:url;size:512;not null" json:"url"`
}
