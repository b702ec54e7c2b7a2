package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"ascendra_backend/internal/model"
	"ascendra_backend/internal/repository"
	"ascendra_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newChatStack(t *testing.T, db *gorm.DB, aiURL string) *ChatService {
	t.Helper()
	return NewChatService(
		repository.NewConversationRepository(db),
		repository.NewUserRepository(db),
		newAIService(aiURL),
	)
}

func stubAIServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(AIChatResponse{
			Content:  reply,
			Category: "general",
		})
	}))
	t.Cleanup(server.Close)
	return server
}

// TestSendMessage_AutoCreatesConversation 未指定会话时自动创建，
// 标题取首句，用户与助手消息成对落库
func TestSendMessage_AutoCreatesConversation(t *testing.T) {
	db := newTestDB(t)
	server := stubAIServer(t, "Happy to help!")
	svc := newChatStack(t, db, server.URL)
	user := seedUser(t, db)

	reply, convID, err := svc.SendMessage(user.ID, "", "I need help with exams")
	require.NoError(t, err)
	assert.NotEmpty(t, convID)
	assert.Equal(t, "assistant", reply.Role)
	assert.Equal(t, "Happy to help!", reply.Content)

	conv, err := svc.GetConversation(convID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "I need help with exams", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "user", conv.Messages[0].Role)
	assert.Equal(t, "I need help with exams", conv.Messages[0].Content)
	assert.Equal(t, "assistant", conv.Messages[1].Role)
}

// TestSendMessage_TruncatesLongTitle 长消息标题截断到50字符加省略号
func TestSendMessage_TruncatesLongTitle(t *testing.T) {
	db := newTestDB(t)
	server := stubAIServer(t, "ok")
	svc := newChatStack(t, db, server.URL)
	user := seedUser(t, db)

	long := strings.Repeat("a", 80)
	_, convID, err := svc.SendMessage(user.ID, "", long)
	require.NoError(t, err)

	conv, err := svc.GetConversation(convID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("a", 50)+"...", conv.Title)
}

// TestSendMessage_TruncatesMultiByteTitle 中文消息按字符截断，标题保持合法UTF-8
func TestSendMessage_TruncatesMultiByteTitle(t *testing.T) {
	db := newTestDB(t)
	server := stubAIServer(t, "ok")
	svc := newChatStack(t, db, server.URL)
	user := seedUser(t, db)

	long := strings.Repeat("学", 80)
	_, convID, err := svc.SendMessage(user.ID, "", long)
	require.NoError(t, err)

	conv, err := svc.GetConversation(convID, user.ID)
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("学", 50)+"...", conv.Title)
	assert.True(t, utf8.ValidString(conv.Title))
}

// TestSendMessage_AppendsToExisting 指定会话时消息持续追加
func TestSendMessage_AppendsToExisting(t *testing.T) {
	db := newTestDB(t)
	server := stubAIServer(t, "ok")
	svc := newChatStack(t, db, server.URL)
	user := seedUser(t, db)

	_, convID, err := svc.SendMessage(user.ID, "", "first")
	require.NoError(t, err)
	_, convID2, err := svc.SendMessage(user.ID, convID, "second")
	require.NoError(t, err)
	assert.Equal(t, convID, convID2)

	conv, err := svc.GetConversation(convID, user.ID)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 4)
}

// TestSendMessage_HistoryWindow 转发给AI的上下文只带最近10条
func TestSendMessage_HistoryWindow(t *testing.T) {
	db := newTestDB(t)
	var lastHistory []model.ChatMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req AIChatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		lastHistory = req.ConversationHistory
		json.NewEncoder(w).Encode(AIChatResponse{Content: "ok"})
	}))
	defer server.Close()
	svc := newChatStack(t, db, server.URL)
	user := seedUser(t, db)

	_, convID, err := svc.SendMessage(user.ID, "", "msg 0")
	require.NoError(t, err)
	for i := 1; i < 8; i++ {
		_, _, err = svc.SendMessage(user.ID, convID, "msg")
		require.NoError(t, err)
	}

	assert.Len(t, lastHistory, historyWindow)
}

// TestSendMessage_FallbackStillPersists AI不可用时兜底回复照常入库
func TestSendMessage_FallbackStillPersists(t *testing.T) {
	db := newTestDB(t)
	svc := newChatStack(t, db, "http://127.0.0.1:1")
	user := seedUser(t, db)

	reply, convID, err := svc.SendMessage(user.ID, "", "anyone there?")
	require.NoError(t, err)
	assert.Equal(t, fallbackResponse().Content, reply.Content)

	conv, err := svc.GetConversation(convID, user.ID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, fallbackResponse().Content, conv.Messages[1].Content)
}

// TestConversationOwnership 会话按用户隔离
func TestConversationOwnership(t *testing.T) {
	db := newTestDB(t)
	server := stubAIServer(t, "ok")
	svc := newChatStack(t, db, server.URL)
	alice := seedUser(t, db)
	bob := seedUser(t, db)

	_, convID, err := svc.SendMessage(alice.ID, "", "private")
	require.NoError(t, err)

	_, err = svc.GetConversation(convID, bob.ID)
	assert.ErrorIs(t, err, util.ErrConversationGone)
	assert.ErrorIs(t, svc.DeleteConversation(convID, bob.ID), util.ErrConversationGone)

	// 本人可删
	require.NoError(t, svc.DeleteConversation(convID, alice.ID))
	_, err = svc.GetConversation(convID, alice.ID)
	assert.ErrorIs(t, err, util.ErrConversationGone)
}

// TestCreateAndListConversations 手动建会话与列表
func TestCreateAndListConversations(t *testing.T) {
	db := newTestDB(t)
	server := stubAIServer(t, "ok")
	svc := newChatStack(t, db, server.URL)
	user := seedUser(t, db)

	conv, err := svc.CreateConversation(user.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "New Conversation", conv.Title)

	_, err = svc.CreateConversation(user.ID, "Exam prep")
	require.NoError(t, err)

	convs, err := svc.ListConversations(user.ID)
	require.NoError(t, err)
	assert.Len(t, convs, 2)
}
