package dbmysql

import (
	"strings"
	"time"
)

// Conversation binds exactly two users. The participant pair is stored in a
// canonical order so {A,B} and {B,A} map to the same row; participant_key is
// the unique index enforcing at most one conversation per pair.
type Conversation struct {
	ID              string  `gorm:"primaryKey;size:36" json:"id"`
	ParticipantLow  string  `gorm:"column:participant_low;index;size:36;not null" json:"participant_low"`
	ParticipantHigh string  `gorm:"column:participant_high;index;size:36;not null" json:"participant_high"`
	ParticipantKey  string  `gorm:"column:participant_key;uniqueIndex;size:80;not null" json:"-"`
	LastMessageID   *string `gorm:"column:last_message_id;size:36" json:"last_message_id"`

	LastMessage *Message `gorm:"foreignKey:LastMessageID" json:"last_message,omitempty"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// CanonicalPair sorts two user ids into the stored order. Comparison is
// case-insensitive so the uniqueness check is stable regardless of how the
// ids were spelled by the caller.
func CanonicalPair(userA, userB string) (low, high string) {
	if strings.Compare(strings.ToLower(userA), strings.ToLower(userB)) <= 0 {
		return userA, userB
	}
	return userB, userA
}

// ParticipantKeyFor derives the unique key for a pair of user ids.
func ParticipantKeyFor(userA, userB string) string {
	low, high := CanonicalPair(userA, userB)
	return strings.ToLower(low) + ":" + strings.ToLower(high)
}

// Participants returns the pair in stored order.
func (c *Conversation) Participants() [2]string {
	return [2]string{c.ParticipantLow, c.ParticipantHigh}
}

// Counterpart returns the other participant, or "" when userID is not part
// of the conversation.
func (c *Conversation) Counterpart(userID string) string {
	switch userID {
	case c.ParticipantLow:
		return c.ParticipantHigh
	case c.ParticipantHigh:
		return c.ParticipantLow
	}
	return ""
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return userID == c.ParticipantLow || userID == c.ParticipantHigh
}
