package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"linkup/internal/common"
	"linkup/internal/config"
	"linkup/internal/dbmysql"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// TokenVerifier checks a credential token and yields the user identity.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// UserDirectory resolves a user id to a human-readable display name.
type UserDirectory interface {
	DisplayName(ctx context.Context, userID string) (string, error)
}

// MessageService is the slice of the chat service the router drives.
type MessageService interface {
	SendMessage(ctx context.Context, senderID, recipientID, text string, attachments []string) (*dbmysql.Message, error)
	MarkDelivered(ctx context.Context, messageID string) (*dbmysql.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
	GetConversation(ctx context.Context, conversationID string) (*dbmysql.Conversation, error)
}

// NotificationService is the slice of the notification emitter the router
// drives.
type NotificationService interface {
	Create(ctx context.Context, recipientID, senderID string, notifType common.NotificationType, content string, entityID, entityModel string) (*dbmysql.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int64, error)
}

// Router is the protocol state machine for the realtime channel. Each
// session moves unauthenticated -> authenticated -> closed; only the
// authentication handshake is accepted in the first state. Events from one
// session are handled in order on that session's read loop; errors are
// reported back to the originating session and never tear it down.
type Router struct {
	registry *Registry
	messages MessageService
	notifs   NotificationService
	verifier TokenVerifier
	users    UserDirectory
	log      *zap.Logger

	typingClear time.Duration
	queueSize   int
	upgrader    websocket.Upgrader
}

func NewRouter(
	registry *Registry,
	messages MessageService,
	notifs NotificationService,
	verifier TokenVerifier,
	users UserDirectory,
	log *zap.Logger,
	cfg *config.Config,
) *Router {
	typingClear := time.Duration(cfg.Realtime.TypingClearSeconds) * time.Second
	if typingClear <= 0 {
		typingClear = 5 * time.Second
	}

	return &Router{
		registry:    registry,
		messages:    messages,
		notifs:      notifs,
		verifier:    verifier,
		users:       users,
		log:         log,
		typingClear: typingClear,
		queueSize:   cfg.Realtime.SendQueueSize,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := rt.upgrader.Upgrade(w, r, nil)
	if err != nil {
		rt.log.Error("upgrade error", zap.Error(err))
		return
	}

	sess := NewSession(uuid.NewString(), conn, rt.queueSize, rt.log)
	sess.Start()
	rt.log.Info("connected", zap.String("session_id", sess.ID))

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	rt.readLoop(sess, conn)
}

func (rt *Router) readLoop(sess *Session, conn *websocket.Conn) {
	defer rt.handleDisconnect(sess)

	var userID string // empty until the authentication handshake succeeds

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				rt.log.Warn("read loop error", zap.String("session_id", sess.ID), zap.Error(err))
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(pongWait))

		var ev Event
		if err := json.Unmarshal(raw, &ev); err != nil {
			sess.Send(EventError, ErrorEvent{Message: "malformed event"})
			continue
		}

		userID = rt.dispatch(context.Background(), sess, userID, ev)
	}
}

// dispatch routes a single inbound event and returns the (possibly updated)
// authenticated user id for the session. Handler failures are reported to
// the caller only; they never propagate to other sessions.
func (rt *Router) dispatch(ctx context.Context, sess *Session, userID string, ev Event) string {
	if ev.Event == EventAuthenticate {
		return rt.handleAuthenticate(ctx, sess, userID, ev.Data)
	}

	if userID == "" {
		sess.Send(EventError, ErrorEvent{Message: common.ErrUnauthenticated.Error()})
		return userID
	}

	var err error
	switch ev.Event {
	case EventSendMessage:
		err = rt.handleSendMessage(ctx, sess, userID, ev.Data)
	case EventMarkRead:
		err = rt.handleMarkRead(ctx, sess, userID, ev.Data)
	case EventMarkNotificationRead:
		err = rt.handleMarkNotificationRead(ctx, sess, userID, ev.Data)
	case EventMarkAllNotificationsRead:
		err = rt.handleMarkAllNotificationsRead(ctx, sess, userID)
	case EventTyping:
		err = rt.handleTyping(sess, userID, ev.Data, true)
	case EventStopTyping:
		err = rt.handleTyping(sess, userID, ev.Data, false)
	case EventSetPresence:
		err = rt.handleSetPresence(userID, ev.Data)
	default:
		err = fmt.Errorf("unknown event %q", ev.Event)
	}

	if err != nil {
		rt.log.Warn("event failed",
			zap.String("session_id", sess.ID),
			zap.String("event", ev.Event),
			zap.Error(err))
		sess.Send(EventError, ErrorEvent{Message: eventErrorMessage(ev.Event)})
	}
	return userID
}

func (rt *Router) handleAuthenticate(ctx context.Context, sess *Session, userID string, data json.RawMessage) string {
	var req authenticateData
	if err := json.Unmarshal(data, &req); err != nil {
		sess.Send(EventAuthenticated, AuthResult{Success: false, Message: "invalid authenticate payload"})
		return userID
	}

	verified, err := rt.verifier.Verify(req.Token)
	if err != nil || verified == "" {
		sess.Send(EventAuthenticated, AuthResult{Success: false, Message: common.ErrAuthFailed.Error()})
		return userID
	}

	rt.registry.Register(verified, sess)
	sess.Send(EventAuthenticated, AuthResult{Success: true})

	rt.registry.Broadcast(EventUserStatus, UserStatus{UserID: verified, Status: "online"})

	if count, err := rt.notifs.UnreadCount(ctx, verified); err != nil {
		rt.log.Warn("unread count failed", zap.String("user_id", verified), zap.Error(err))
	} else {
		sess.Send(EventNotificationCnt, NotificationCount{Count: count})
	}

	rt.log.Info("authenticated", zap.String("session_id", sess.ID), zap.String("user_id", verified))
	return verified
}

func (rt *Router) handleSendMessage(ctx context.Context, sess *Session, senderID string, data json.RawMessage) error {
	var req sendMessageData
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	msg, err := rt.messages.SendMessage(ctx, senderID, req.RecipientID, req.Text, req.Attachments)
	if err != nil {
		return err
	}

	senderName, err := rt.users.DisplayName(ctx, senderID)
	if err != nil {
		senderName = senderID
	}

	// The emitter persists the notification and best-effort pushes
	// new_notification to the recipient itself.
	if _, err := rt.notifs.Create(ctx, req.RecipientID, senderID, common.NewMessageType,
		fmt.Sprintf("%s sent you a message", senderName), msg.ID, common.EntityMessage); err != nil {
		rt.log.Warn("notification create failed", zap.String("message_id", msg.ID), zap.Error(err))
	}

	if rt.registry.IsOnline(req.RecipientID) {
		delivered, err := rt.messages.MarkDelivered(ctx, msg.ID)
		if err != nil {
			return err
		}

		rt.registry.Push(req.RecipientID, EventNewMessage, NewMessagePayload{Message: delivered})
		rt.registry.Push(req.RecipientID, EventMessageDelivered, DeliveryReceipt{
			MessageID: delivered.ID,
			SenderID:  senderID,
			Timestamp: delivered.UpdatedAt,
		})
		sess.Send(EventMessageStatus, MessageStatusUpdate{
			MessageID: delivered.ID,
			Status:    string(delivered.Status),
			Timestamp: delivered.UpdatedAt,
		})
		msg = delivered
	} else {
		sess.Send(EventMessageStatus, MessageStatusUpdate{
			MessageID: msg.ID,
			Status:    string(common.StatusSent),
			Timestamp: msg.CreatedAt,
		})
	}

	sess.Send(EventMessageSent, NewMessagePayload{Message: msg})
	return nil
}

func (rt *Router) handleMarkRead(ctx context.Context, sess *Session, readerID string, data json.RawMessage) error {
	var req markReadData
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	if _, err := rt.messages.MarkConversationRead(ctx, req.ConversationID, readerID); err != nil {
		return err
	}

	conv, err := rt.messages.GetConversation(ctx, req.ConversationID)
	if err != nil {
		return err
	}

	if counterpart := conv.Counterpart(readerID); counterpart != "" {
		rt.registry.Push(counterpart, EventMessagesRead, MessagesRead{
			ConversationID: req.ConversationID,
			ReadBy:         readerID,
		})
	}
	return nil
}

func (rt *Router) handleMarkNotificationRead(ctx context.Context, sess *Session, userID string, data json.RawMessage) error {
	var req markNotificationReadData
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	if err := rt.notifs.MarkRead(ctx, req.NotificationID); err != nil {
		return err
	}

	count, err := rt.notifs.UnreadCount(ctx, userID)
	if err != nil {
		return err
	}
	sess.Send(EventNotificationCnt, NotificationCount{Count: count})
	return nil
}

func (rt *Router) handleMarkAllNotificationsRead(ctx context.Context, sess *Session, userID string) error {
	if err := rt.notifs.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	sess.Send(EventNotificationCnt, NotificationCount{Count: 0})
	return nil
}

// handleTyping pushes a typing (or stop-typing) indicator to the recipient
// when they are online. A typing indicator also schedules an automatic
// stop-typing after the configured timeout; the timer is fire-and-forget
// because duplicate stop-typing events are harmless to the recipient.
func (rt *Router) handleTyping(sess *Session, userID string, data json.RawMessage, typing bool) error {
	var req typingData
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	if !rt.registry.IsOnline(req.RecipientID) {
		return nil
	}

	if !typing {
		rt.registry.Push(req.RecipientID, EventUserStopTyping, TypingUpdate{
			ConversationID: req.ConversationID,
			UserID:         userID,
			Timestamp:      time.Now(),
		})
		return nil
	}

	rt.registry.Push(req.RecipientID, EventUserTyping, TypingUpdate{
		ConversationID: req.ConversationID,
		UserID:         userID,
		UserName:       req.UserName,
		Timestamp:      time.Now(),
	})

	time.AfterFunc(rt.typingClear, func() {
		rt.registry.Push(req.RecipientID, EventUserStopTyping, TypingUpdate{
			ConversationID: req.ConversationID,
			UserID:         userID,
			Timestamp:      time.Now(),
		})
	})
	return nil
}

func (rt *Router) handleSetPresence(userID string, data json.RawMessage) error {
	var req setPresenceData
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}

	// Broadcast to every connected session; presence fan-out is not scoped
	// to friends.
	rt.registry.Broadcast(EventPresenceUpdate, PresenceUpdate{
		UserID:    userID,
		Status:    req.Status,
		Timestamp: time.Now(),
	})
	return nil
}

// handleDisconnect tears the session down. The offline broadcast only fires
// when the registry still maps this session to a user: a session displaced
// by a newer login for the same user must not mark that user offline.
func (rt *Router) handleDisconnect(sess *Session) {
	if userID, ok := rt.registry.UserFor(sess.ID); ok {
		rt.registry.Unregister(sess.ID)
		rt.registry.Broadcast(EventUserStatus, UserStatus{UserID: userID, Status: "offline"})
		rt.log.Info("disconnected", zap.String("session_id", sess.ID), zap.String("user_id", userID))
	} else {
		rt.log.Info("disconnected", zap.String("session_id", sess.ID))
	}
	sess.Close()
}

func eventErrorMessage(event string) string {
	switch event {
	case EventSendMessage:
		return "Failed to send message"
	case EventMarkRead:
		return "Failed to mark messages as read"
	case EventMarkNotificationRead:
		return "Failed to mark notification as read"
	case EventMarkAllNotificationsRead:
		return "Failed to mark all notifications as read"
	default:
		return "Failed to handle " + event
	}
}
