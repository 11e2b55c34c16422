package ws

import (
	"encoding/json"
	"time"

	"linkup/internal/dbmysql"
)

// Event is the JSON envelope for everything crossing the realtime channel,
// in both directions.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Inbound event names.
const (
	EventAuthenticate             = "authenticate"
	EventSendMessage              = "send_message"
	EventMarkRead                 = "mark_read"
	EventMarkNotificationRead     = "mark_notification_read"
	EventMarkAllNotificationsRead = "mark_all_notifications_read"
	EventTyping                   = "typing"
	EventStopTyping               = "stop_typing"
	EventSetPresence              = "set_presence"
)

// Outbound event names.
const (
	EventAuthenticated    = "authenticated"
	EventNotificationCnt  = "notification_count"
	EventNewMessage       = "new_message"
	EventNewNotification  = "new_notification"
	EventMessageStatus    = "message_status"
	EventMessageDelivered = "message_delivered"
	EventMessageSent      = "message_sent"
	EventMessagesRead     = "messages_read"
	EventUserTyping       = "user_typing"
	EventUserStopTyping   = "user_stop_typing"
	EventPresenceUpdate   = "user_presence_update"
	EventUserStatus       = "user_status"
	EventError            = "error"
)

// Inbound payloads.

type authenticateData struct {
	Token string `json:"token"`
}

type sendMessageData struct {
	RecipientID string   `json:"recipient_id"`
	Text        string   `json:"text"`
	Attachments []string `json:"attachments"`
}

type markReadData struct {
	ConversationID string `json:"conversation_id"`
}

type markNotificationReadData struct {
	NotificationID string `json:"notification_id"`
}

type typingData struct {
	RecipientID    string `json:"recipient_id"`
	ConversationID string `json:"conversation_id"`
	UserName       string `json:"user_name"`
}

type setPresenceData struct {
	Status string `json:"status"`
}

// Outbound payloads.

type AuthResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type NotificationCount struct {
	Count int64 `json:"count"`
}

type MessageStatusUpdate struct {
	MessageID string    `json:"message_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type DeliveryReceipt struct {
	MessageID string    `json:"message_id"`
	SenderID  string    `json:"sender_id"`
	Timestamp time.Time `json:"timestamp"`
}

type MessagesRead struct {
	ConversationID string `json:"conversation_id"`
	ReadBy         string `json:"read_by"`
}

type TypingUpdate struct {
	ConversationID string    `json:"conversation_id"`
	UserID         string    `json:"user_id"`
	UserName       string    `json:"user_name,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type PresenceUpdate struct {
	UserID    string    `json:"user_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

type UserStatus struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}

// NewMessagePayload is what the recipient and sender see for a message
// pushed over the channel.
type NewMessagePayload struct {
	Message *dbmysql.Message `json:"message"`
}

func encode(event string, data interface{}) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Event{Event: event, Data: raw})
}
