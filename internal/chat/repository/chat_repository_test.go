package repository

import (
	"context"
	"testing"
	"time"

	"linkup/internal/common"
	"linkup/internal/dbmysql"

	"github.com/DATA-DOG/go-sqlmock"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupRepo(t *testing.T) (ChatRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return NewChatRepository(gormDB), mock
}

func TestFindConversationByPairUsesCanonicalKey(t *testing.T) {
	repo, mock := setupRepo(t)

	rows := sqlmock.NewRows([]string{"id", "participant_low", "participant_high", "participant_key"}).
		AddRow("c1", "Alice", "bob", "alice:bob")

	mock.ExpectQuery("SELECT (.+) FROM `conversations` WHERE participant_key = \\?").
		WithArgs("alice:bob", 1).
		WillReturnRows(rows)

	// Caller order and casing do not matter; the key is canonical.
	conv, err := repo.FindConversationByPair(context.Background(), "bob", "Alice")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)
}

func TestFindConversationByPairNotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM `conversations`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindConversationByPair(context.Background(), "alice", "bob")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateConversationDuplicateKeyIsConflict(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `conversations`").
		WillReturnError(&mysqldriver.MySQLError{Number: 1062, Message: "Duplicate entry 'alice:bob'"})
	mock.ExpectRollback()

	err := repo.CreateConversation(context.Background(), &dbmysql.Conversation{
		ID:              "c1",
		ParticipantLow:  "alice",
		ParticipantHigh: "bob",
		ParticipantKey:  "alice:bob",
	})
	assert.ErrorIs(t, err, common.ErrConflict)
}

func TestSetLastMessage(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `conversations` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SetLastMessage(context.Background(), "c1", "m1"))
}

func TestUpdateStatusIfReportsRowsChanged(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `messages` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	changed, err := repo.UpdateStatusIf(context.Background(), "m1", common.StatusSent, common.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, int64(1), changed)
}

func TestUpdateStatusIfNoOpWhenStatusMoved(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `messages` SET").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	changed, err := repo.UpdateStatusIf(context.Background(), "m1", common.StatusSent, common.StatusDelivered)
	require.NoError(t, err)
	assert.Zero(t, changed)
}

func TestMarkConversationReadSkipsOwnAndAlreadyRead(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `messages` SET").
		WithArgs(string(common.StatusRead), sqlmock.AnyArg(), "c1", "alice", string(common.StatusRead)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	changed, err := repo.MarkConversationRead(context.Background(), "c1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(3), changed)
}

func TestCountUnread(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `messages`").
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(4))

	count, err := repo.CountUnread(context.Background(), "c1", "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
}

func TestFetchPageNewestFirst(t *testing.T) {
	repo, mock := setupRepo(t)

	now := time.Now()
	messageRows := sqlmock.NewRows([]string{"id", "conversation_id", "sender_id", "text", "status", "created_at"}).
		AddRow("m3", "c1", "alice", "three", "sent", now).
		AddRow("m2", "c1", "bob", "two", "read", now.Add(-time.Minute))

	mock.ExpectQuery("SELECT (.+) FROM `messages` WHERE conversation_id = \\?").
		WillReturnRows(messageRows)
	mock.ExpectQuery("SELECT (.+) FROM `attachments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "message_id"}))

	messages, err := repo.FetchPage(context.Background(), "c1", 1, 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "m3", messages[0].ID)
	assert.Equal(t, "m2", messages[1].ID)
}

func TestDeleteMessageRemovesAttachmentsInSameTransaction(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM `attachments` WHERE message_id = \\?").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM `messages` WHERE id = \\?").
		WithArgs("m1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteMessage(context.Background(), "m1"))
}

func TestGetMessagePreloadsAttachments(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM `messages` WHERE id = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id", "conversation_id", "sender_id", "text", "status"}).
			AddRow("m1", "c1", "alice", "hello", "sent"))
	mock.ExpectQuery("SELECT (.+) FROM `attachments`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "message_id", "name", "mime_type", "url"}).
			AddRow(1, "m1", "x.png", "image/png", "https://cdn.example.com/x.png"))

	msg, err := repo.GetMessage(context.Background(), "m1")
	require.NoError(t, err)
	require.Len(t, msg.Attachments, 1)
	assert.Equal(t, "image/png", msg.Attachments[0].MimeType)
}

func TestGetMessageNotFound(t *testing.T) {
	repo, mock := setupRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM `messages`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetMessage(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
