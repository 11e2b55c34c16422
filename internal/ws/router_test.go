package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"linkup/internal/common"
	"linkup/internal/dbmysql"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubVerifier map[string]string

func (v stubVerifier) Verify(token string) (string, error) {
	if userID, ok := v[token]; ok {
		return userID, nil
	}
	return "", common.ErrAuthFailed
}

type stubDirectory map[string]string

func (d stubDirectory) DisplayName(_ context.Context, userID string) (string, error) {
	if name, ok := d[userID]; ok {
		return name, nil
	}
	return "", common.ErrNotFound
}

type stubMessages struct {
	sendErr   error
	lastSent  *dbmysql.Message
	delivered []string
	readCalls []string
	conv      *dbmysql.Conversation
}

func (m *stubMessages) SendMessage(_ context.Context, senderID, recipientID, text string, attachments []string) (*dbmysql.Message, error) {
	if m.sendErr != nil {
		return nil, m.sendErr
	}
	m.lastSent = &dbmysql.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       senderID,
		Text:           text,
		Status:         common.StatusSent,
	}
	return m.lastSent, nil
}

func (m *stubMessages) MarkDelivered(_ context.Context, messageID string) (*dbmysql.Message, error) {
	m.delivered = append(m.delivered, messageID)
	msg := *m.lastSent
	msg.Status = common.StatusDelivered
	return &msg, nil
}

func (m *stubMessages) MarkConversationRead(_ context.Context, conversationID, readerID string) (int64, error) {
	m.readCalls = append(m.readCalls, conversationID+":"+readerID)
	return 2, nil
}

func (m *stubMessages) GetConversation(_ context.Context, conversationID string) (*dbmysql.Conversation, error) {
	if m.conv == nil {
		return nil, fmt.Errorf("conversation %s: %w", conversationID, common.ErrNotFound)
	}
	return m.conv, nil
}

type createdNotif struct {
	recipientID string
	senderID    string
	content     string
}

type stubNotifs struct {
	created   []createdNotif
	marked    []string
	markedAll []string
	unread    int64
}

func (n *stubNotifs) Create(_ context.Context, recipientID, senderID string, _ common.NotificationType, content string, _, _ string) (*dbmysql.Notification, error) {
	n.created = append(n.created, createdNotif{recipientID: recipientID, senderID: senderID, content: content})
	return &dbmysql.Notification{ID: "n1", RecipientID: recipientID, SenderID: senderID, Content: content}, nil
}

func (n *stubNotifs) MarkRead(_ context.Context, notificationID string) error {
	n.marked = append(n.marked, notificationID)
	return nil
}

func (n *stubNotifs) MarkAllRead(_ context.Context, userID string) error {
	n.markedAll = append(n.markedAll, userID)
	return nil
}

func (n *stubNotifs) UnreadCount(_ context.Context, _ string) (int64, error) {
	return n.unread, nil
}

func newTestRouter(msgs *stubMessages, notifs *stubNotifs) (*Router, *Registry) {
	reg := NewRegistry()
	rt := &Router{
		registry:    reg,
		messages:    msgs,
		notifs:      notifs,
		verifier:    stubVerifier{"good-token": "alice"},
		users:       stubDirectory{"alice": "Alice"},
		log:         zap.NewNop(),
		typingClear: 20 * time.Millisecond,
		queueSize:   32,
	}
	return rt, reg
}

func inbound(t *testing.T, event string, payload interface{}) Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return Event{Event: event, Data: raw}
}

func recvWait(t *testing.T, s *Session, timeout time.Duration) Event {
	t.Helper()
	select {
	case raw := <-s.sendQueue:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	case <-time.After(timeout):
		t.Fatalf("session %s: no event within %v", s.ID, timeout)
		return Event{}
	}
}

func TestDispatchRejectsUnauthenticated(t *testing.T) {
	rt, _ := newTestRouter(&stubMessages{}, &stubNotifs{})
	sess := newTestSession("s1")

	userID := rt.dispatch(context.Background(), sess, "", inbound(t, EventSendMessage, sendMessageData{RecipientID: "bob", Text: "hi"}))
	assert.Empty(t, userID)

	ev := recvEvent(t, sess)
	assert.Equal(t, EventError, ev.Event)

	var errEv ErrorEvent
	require.NoError(t, json.Unmarshal(ev.Data, &errEv))
	assert.Equal(t, common.ErrUnauthenticated.Error(), errEv.Message)
}

func TestAuthenticateSuccess(t *testing.T) {
	rt, reg := newTestRouter(&stubMessages{}, &stubNotifs{unread: 3})
	observer := newTestSession("s-bob")
	reg.Register("bob", observer)

	sess := newTestSession("s1")
	userID := rt.dispatch(context.Background(), sess, "", inbound(t, EventAuthenticate, authenticateData{Token: "good-token"}))
	assert.Equal(t, "alice", userID)
	assert.True(t, reg.IsOnline("alice"))

	events := drainEvents(sess)
	require.Len(t, events, 3)
	assert.Equal(t, EventAuthenticated, events[0].Event)
	assert.Equal(t, EventUserStatus, events[1].Event) // own broadcast copy
	assert.Equal(t, EventNotificationCnt, events[2].Event)

	var auth AuthResult
	require.NoError(t, json.Unmarshal(events[0].Data, &auth))
	assert.True(t, auth.Success)

	var count NotificationCount
	require.NoError(t, json.Unmarshal(events[2].Data, &count))
	assert.Equal(t, int64(3), count.Count)

	ev := recvEvent(t, observer)
	assert.Equal(t, EventUserStatus, ev.Event)
	var status UserStatus
	require.NoError(t, json.Unmarshal(ev.Data, &status))
	assert.Equal(t, "alice", status.UserID)
	assert.Equal(t, "online", status.Status)
}

func TestAuthenticateBadToken(t *testing.T) {
	rt, reg := newTestRouter(&stubMessages{}, &stubNotifs{})
	sess := newTestSession("s1")

	userID := rt.dispatch(context.Background(), sess, "", inbound(t, EventAuthenticate, authenticateData{Token: "wrong"}))
	assert.Empty(t, userID)
	assert.Empty(t, reg.OnlineUsers())

	ev := recvEvent(t, sess)
	assert.Equal(t, EventAuthenticated, ev.Event)

	var auth AuthResult
	require.NoError(t, json.Unmarshal(ev.Data, &auth))
	assert.False(t, auth.Success)
}

func TestSendMessageOfflineRecipient(t *testing.T) {
	msgs := &stubMessages{}
	notifs := &stubNotifs{}
	rt, _ := newTestRouter(msgs, notifs)
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventSendMessage, sendMessageData{RecipientID: "bob", Text: "hi"}))

	// Notification persisted even though nobody is online to receive it.
	require.Len(t, notifs.created, 1)
	assert.Equal(t, "bob", notifs.created[0].recipientID)
	assert.Equal(t, "Alice sent you a message", notifs.created[0].content)

	assert.Empty(t, msgs.delivered)

	events := drainEvents(sess)
	require.Len(t, events, 2)
	assert.Equal(t, EventMessageStatus, events[0].Event)
	assert.Equal(t, EventMessageSent, events[1].Event)

	var status MessageStatusUpdate
	require.NoError(t, json.Unmarshal(events[0].Data, &status))
	assert.Equal(t, string(common.StatusSent), status.Status)
}

func TestSendMessageOnlineRecipient(t *testing.T) {
	msgs := &stubMessages{}
	rt, reg := newTestRouter(msgs, &stubNotifs{})

	recipient := newTestSession("s-bob")
	reg.Register("bob", recipient)
	sender := newTestSession("s1")

	rt.dispatch(context.Background(), sender, "alice", inbound(t, EventSendMessage, sendMessageData{RecipientID: "bob", Text: "hi"}))

	assert.Equal(t, []string{"m1"}, msgs.delivered)

	got := drainEvents(recipient)
	require.Len(t, got, 2)
	assert.Equal(t, EventNewMessage, got[0].Event)
	assert.Equal(t, EventMessageDelivered, got[1].Event)

	var payload NewMessagePayload
	require.NoError(t, json.Unmarshal(got[0].Data, &payload))
	assert.Equal(t, common.StatusDelivered, payload.Message.Status)

	sent := drainEvents(sender)
	require.Len(t, sent, 2)
	assert.Equal(t, EventMessageStatus, sent[0].Event)
	assert.Equal(t, EventMessageSent, sent[1].Event)

	var status MessageStatusUpdate
	require.NoError(t, json.Unmarshal(sent[0].Data, &status))
	assert.Equal(t, string(common.StatusDelivered), status.Status)
}

func TestMarkReadNotifiesCounterpart(t *testing.T) {
	msgs := &stubMessages{conv: &dbmysql.Conversation{
		ID:              "c1",
		ParticipantLow:  "alice",
		ParticipantHigh: "bob",
	}}
	rt, reg := newTestRouter(msgs, &stubNotifs{})

	counterpart := newTestSession("s-bob")
	reg.Register("bob", counterpart)
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventMarkRead, markReadData{ConversationID: "c1"}))

	assert.Equal(t, []string{"c1:alice"}, msgs.readCalls)

	ev := recvEvent(t, counterpart)
	assert.Equal(t, EventMessagesRead, ev.Event)

	var read MessagesRead
	require.NoError(t, json.Unmarshal(ev.Data, &read))
	assert.Equal(t, "c1", read.ConversationID)
	assert.Equal(t, "alice", read.ReadBy)
}

func TestMarkNotificationReadRefreshesCount(t *testing.T) {
	notifs := &stubNotifs{unread: 4}
	rt, _ := newTestRouter(&stubMessages{}, notifs)
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventMarkNotificationRead, markNotificationReadData{NotificationID: "n1"}))

	assert.Equal(t, []string{"n1"}, notifs.marked)

	ev := recvEvent(t, sess)
	assert.Equal(t, EventNotificationCnt, ev.Event)

	var count NotificationCount
	require.NoError(t, json.Unmarshal(ev.Data, &count))
	assert.Equal(t, int64(4), count.Count)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	notifs := &stubNotifs{unread: 9}
	rt, _ := newTestRouter(&stubMessages{}, notifs)
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventMarkAllNotificationsRead, struct{}{}))

	assert.Equal(t, []string{"alice"}, notifs.markedAll)

	ev := recvEvent(t, sess)
	assert.Equal(t, EventNotificationCnt, ev.Event)

	var count NotificationCount
	require.NoError(t, json.Unmarshal(ev.Data, &count))
	assert.Zero(t, count.Count)
}

func TestTypingAutoClears(t *testing.T) {
	rt, reg := newTestRouter(&stubMessages{}, &stubNotifs{})

	recipient := newTestSession("s-bob")
	reg.Register("bob", recipient)
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventTyping, typingData{
		RecipientID:    "bob",
		ConversationID: "c1",
		UserName:       "Alice",
	}))

	ev := recvWait(t, recipient, time.Second)
	assert.Equal(t, EventUserTyping, ev.Event)

	// The stop-typing indicator arrives on its own once the timer fires.
	ev = recvWait(t, recipient, time.Second)
	assert.Equal(t, EventUserStopTyping, ev.Event)

	var update TypingUpdate
	require.NoError(t, json.Unmarshal(ev.Data, &update))
	assert.Equal(t, "alice", update.UserID)
	assert.Equal(t, "c1", update.ConversationID)
}

func TestTypingToOfflineRecipientIsDropped(t *testing.T) {
	rt, _ := newTestRouter(&stubMessages{}, &stubNotifs{})
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventTyping, typingData{RecipientID: "bob", ConversationID: "c1"}))

	assert.Empty(t, drainEvents(sess))
}

func TestSetPresenceBroadcasts(t *testing.T) {
	rt, reg := newTestRouter(&stubMessages{}, &stubNotifs{})

	observer := newTestSession("s-bob")
	reg.Register("bob", observer)
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", inbound(t, EventSetPresence, setPresenceData{Status: "away"}))

	ev := recvEvent(t, observer)
	assert.Equal(t, EventPresenceUpdate, ev.Event)

	var update PresenceUpdate
	require.NoError(t, json.Unmarshal(ev.Data, &update))
	assert.Equal(t, "alice", update.UserID)
	assert.Equal(t, "away", update.Status)
}

func TestUnknownEventReportsError(t *testing.T) {
	rt, _ := newTestRouter(&stubMessages{}, &stubNotifs{})
	sess := newTestSession("s1")

	rt.dispatch(context.Background(), sess, "alice", Event{Event: "no_such_event"})

	ev := recvEvent(t, sess)
	assert.Equal(t, EventError, ev.Event)
}

func TestDisplacedSessionDoesNotMarkUserOffline(t *testing.T) {
	rt, reg := newTestRouter(&stubMessages{}, &stubNotifs{})

	observer := newTestSession("s-carol")
	reg.Register("carol", observer)

	old := newTestSession("s1")
	fresh := newTestSession("s2")
	reg.Register("alice", old)
	reg.Register("alice", fresh)

	rt.handleDisconnect(old)
	assert.True(t, reg.IsOnline("alice"))
	assert.Empty(t, drainEvents(observer))

	rt.handleDisconnect(fresh)
	assert.False(t, reg.IsOnline("alice"))

	ev := recvEvent(t, observer)
	assert.Equal(t, EventUserStatus, ev.Event)

	var status UserStatus
	require.NoError(t, json.Unmarshal(ev.Data, &status))
	assert.Equal(t, "alice", status.UserID)
	assert.Equal(t, "offline", status.Status)
}
