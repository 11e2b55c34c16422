package dbmysql

import (
	"time"

	"linkup/internal/common"
)

type Notification struct {
	ID          string                  `gorm:"primaryKey;size:36" json:"id"`
	RecipientID string                  `gorm:"column:recipient_id;index;size:36;not null" json:"recipient"`
	SenderID    string                  `gorm:"column:sender_id;size:36;not null" json:"sender"`
	Type        common.NotificationType `gorm:"column:type;size:50;not null" json:"type"`
	Content     string                  `gorm:"column:content;type:text;not null" json:"content"`
	EntityID    *string                 `gorm:"column:entity_id;size:36" json:"entity_id,omitempty"`
	EntityModel *string                 `gorm:"column:entity_model;size:50" json:"entity_model,omitempty"`
	Read        bool                    `gorm:"column:read;default:false" json:"read"`

	// Display fields populated from the sender, not persisted.
	SenderName string `gorm:"-" json:"sender_name,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}
