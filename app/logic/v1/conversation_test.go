package v1

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmart-ai/dashmart/pkg/types"
)

func seedConversation(t *testing.T, conversations *fakeConversationStore) *types.Conversation {
	t.Helper()
	conv := &types.Conversation{
		ID:        "c1",
		UserID:    "u1",
		SessionID: "s1",
		Status:    types.CONVERSATION_STATUS_OPEN,
		Mode:      types.CONVERSATION_MODE_AI_ONLY,
		Queue:     types.CONVERSATION_QUEUE_GENERAL,
		Priority:  types.CONVERSATION_PRIORITY_MEDIUM,
	}
	require.NoError(t, conversations.Create(context.Background(), *conv))
	return conv
}

func TestTakeoverFlow(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := &fakeMessageStore{}
	audits := &fakeAuditStore{}
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, messages, audits, recorder)
	seedConversation(t, conversations)

	conv, err := engine.takeover(context.Background(), "admin-1", "c1", false)
	require.NoError(t, err)
	assert.Equal(t, types.CONVERSATION_MODE_HUMAN_ONLY, conv.Mode)
	assert.Equal(t, "admin-1", conv.AssignedAdmin)

	// 必须出现接管系统消息
	assert.True(t, containsMessage(messages.byRole(types.MESSAGE_ROLE_SYSTEM), systemMessageTakenOver))

	// 一条完整的审计记录
	require.Len(t, audits.created, 1)
	audit := audits.created[0]
	assert.Equal(t, types.ADMIN_ACTION_TAKEOVER, audit.Action)
	assert.Equal(t, "admin-1", audit.AdminID)
	assert.Equal(t, types.CONVERSATION_MODE_AI_ONLY, audit.Before["mode"])
	assert.Equal(t, types.CONVERSATION_MODE_HUMAN_ONLY, audit.After["mode"])

	// 推送了模式变更事件
	events := recorder.ofType(types.WS_EVENT_MODE_CHANGED)
	require.NotEmpty(t, events)
	assert.Equal(t, types.CONVERSATION_MODE_HUMAN_ONLY, events[len(events)-1].event.Mode)
}

func TestReturnToAIFlow(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := &fakeMessageStore{}
	audits := &fakeAuditStore{}
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, messages, audits, recorder)
	seedConversation(t, conversations)

	_, err := engine.takeover(context.Background(), "admin-1", "c1", false)
	require.NoError(t, err)

	conv, err := engine.returnToAI(context.Background(), "admin-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, types.CONVERSATION_MODE_AI_ONLY, conv.Mode)
	assert.True(t, containsMessage(messages.byRole(types.MESSAGE_ROLE_SYSTEM), systemMessageReturnedToAI))

	require.Len(t, audits.created, 2)
	assert.Equal(t, types.ADMIN_ACTION_RETURN_TO_AI, audits.created[1].Action)
}

func TestTakeoverAssistMode(t *testing.T) {
	conversations := newFakeConversationStore()
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, &fakeAuditStore{}, &eventRecorder{})
	seedConversation(t, conversations)

	conv, err := engine.takeover(context.Background(), "admin-2", "c1", true)
	require.NoError(t, err)
	assert.Equal(t, types.CONVERSATION_MODE_AI_ASSIST, conv.Mode)
}

func TestCloseAppendsSystemMessageAndEvent(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := &fakeMessageStore{}
	audits := &fakeAuditStore{}
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, messages, audits, recorder)
	seedConversation(t, conversations)

	conv, err := engine.close(context.Background(), "admin-1", "c1")
	require.NoError(t, err)
	assert.Equal(t, types.CONVERSATION_STATUS_CLOSED, conv.Status)
	assert.True(t, containsMessage(messages.byRole(types.MESSAGE_ROLE_SYSTEM), systemMessageClosed))
	assert.NotEmpty(t, recorder.ofType(types.WS_EVENT_CLOSED))
	require.Len(t, audits.created, 1)
	assert.Equal(t, types.ADMIN_ACTION_CLOSE, audits.created[0].Action)
}

func TestOperateMissingConversation(t *testing.T) {
	engine := newTestConvEngine(newFakeConversationStore(), &fakeMessageStore{}, &fakeAuditStore{}, &eventRecorder{})

	_, err := engine.close(context.Background(), "admin-1", "nope")
	require.Error(t, err)
}

func TestInternalNoteIsAdminOnly(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := &fakeMessageStore{}
	audits := &fakeAuditStore{}
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, messages, audits, recorder)
	seedConversation(t, conversations)

	msg, err := engine.sendHumanMessage(context.Background(), "admin-1", "c1", "customer seems upset", true)
	require.NoError(t, err)
	assert.True(t, msg.InternalNote)
	assert.Equal(t, internalNotePrefix+"customer seems upset", msg.Content)

	events := recorder.ofType(types.WS_EVENT_NEW_MESSAGE)
	require.Len(t, events, 1)
	assert.True(t, events[0].adminOnly)

	require.Len(t, audits.created, 1)
	assert.Equal(t, types.ADMIN_ACTION_ADD_NOTE, audits.created[0].Action)
}

func TestHumanMessageReachesConversationTopic(t *testing.T) {
	conversations := newFakeConversationStore()
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, &fakeAuditStore{}, recorder)
	seedConversation(t, conversations)

	msg, err := engine.sendHumanMessage(context.Background(), "admin-1", "c1", "your order ships today", false)
	require.NoError(t, err)
	assert.False(t, msg.InternalNote)

	events := recorder.ofType(types.WS_EVENT_NEW_MESSAGE)
	require.Len(t, events, 1)
	assert.False(t, events[0].adminOnly)
}

func TestAssignWritesAuditAndEvent(t *testing.T) {
	conversations := newFakeConversationStore()
	audits := &fakeAuditStore{}
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, audits, recorder)
	seedConversation(t, conversations)

	conv, err := engine.assign(context.Background(), "admin-1", "c1", "agent-7")
	require.NoError(t, err)
	assert.Equal(t, "agent-7", conv.AssignedAdmin)
	assert.NotZero(t, conv.LastMessageAt)
	require.Len(t, audits.created, 1)
	assert.Equal(t, types.ADMIN_ACTION_ASSIGN, audits.created[0].Action)
	assert.Equal(t, "", audits.created[0].Before["assigned_admin"])
	assert.Equal(t, "agent-7", audits.created[0].After["assigned_admin"])
	assert.NotEmpty(t, recorder.ofType(types.WS_EVENT_ASSIGNED))
}

func TestAssignMeResolvesToRequestingAdmin(t *testing.T) {
	conversations := newFakeConversationStore()
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, &fakeAuditStore{}, &eventRecorder{})
	seedConversation(t, conversations)

	conv, err := engine.assign(context.Background(), "admin-1", "c1", "me")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", conv.AssignedAdmin)

	// 落库的也是操作者 id，不是字面量 me
	stored, err := engine.get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", stored.AssignedAdmin)
}

func TestCustomerAppendSerializesWithAdminOps(t *testing.T) {
	conversations := newFakeConversationStore()
	messages := &fakeMessageStore{}
	engine := newTestConvEngine(conversations, messages, &fakeAuditStore{}, &eventRecorder{})
	conv := seedConversation(t, conversations)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, engine.appendLocked(context.Background(), conv, &types.ConversationMessage{
				Role:    types.MESSAGE_ROLE_CUSTOMER,
				Content: "any updates?",
			}))
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := engine.takeover(context.Background(), "admin-1", conv.ID, false)
		assert.NoError(t, err)
	}()
	wg.Wait()

	assert.Len(t, messages.byRole(types.MESSAGE_ROLE_CUSTOMER), 8)
	assert.Len(t, messages.byRole(types.MESSAGE_ROLE_SYSTEM), 1)
}

func TestEnsureCreatesThenReopens(t *testing.T) {
	conversations := newFakeConversationStore()
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, &fakeAuditStore{}, &eventRecorder{})

	conv, err := engine.ensure(context.Background(), "u1", "s1", "web", "")
	require.NoError(t, err)
	assert.Equal(t, types.CONVERSATION_STATUS_OPEN, conv.Status)
	assert.Equal(t, types.CONVERSATION_MODE_AI_ONLY, conv.Mode)
	assert.Equal(t, types.CONVERSATION_QUEUE_GENERAL, conv.Queue)
	assert.Equal(t, types.CONVERSATION_PRIORITY_MEDIUM, conv.Priority)
	assert.Greater(t, conv.SlaDueAt, int64(0))
	firstSlaDueAt := conv.SlaDueAt

	// 同一 session 不重复建会话
	again, err := engine.ensure(context.Background(), "u1", "s1", "web", "")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	// 关闭后客户继续发言会重新打开并重置 SLA
	_, err = engine.close(context.Background(), "admin-1", conv.ID)
	require.NoError(t, err)
	engine.now = func() time.Time { return time.Now().Add(time.Hour) }
	reopened, err := engine.ensure(context.Background(), "u1", "s1", "web", "")
	require.NoError(t, err)
	assert.Equal(t, conv.ID, reopened.ID)
	assert.Equal(t, types.CONVERSATION_STATUS_OPEN, reopened.Status)
	assert.Greater(t, reopened.SlaDueAt, firstSlaDueAt)
}

func TestEnsureWithExplicitConversationID(t *testing.T) {
	conversations := newFakeConversationStore()
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, &fakeAuditStore{}, &eventRecorder{})
	seedConversation(t, conversations)

	// 显式 ID 跳过 session 查找
	conv, err := engine.ensure(context.Background(), "u1", "other-session", "web", "c1")
	require.NoError(t, err)
	assert.Equal(t, "c1", conv.ID)

	_, err = engine.ensure(context.Background(), "u1", "s1", "web", "nope")
	require.Error(t, err)
}

func TestSetNeedsReview(t *testing.T) {
	conversations := newFakeConversationStore()
	audits := &fakeAuditStore{}
	recorder := &eventRecorder{}
	engine := newTestConvEngine(conversations, &fakeMessageStore{}, audits, recorder)
	seedConversation(t, conversations)

	conv, err := engine.setNeedsReview(context.Background(), "admin-1", "c1", true)
	require.NoError(t, err)
	assert.True(t, conv.NeedsReview)
	assert.NotZero(t, conv.LastMessageAt)
	require.Len(t, audits.created, 1)
	assert.Equal(t, types.ADMIN_ACTION_MARK_REVIEW, audits.created[0].Action)
	assert.NotEmpty(t, recorder.ofType(types.WS_EVENT_UPDATED))
}
