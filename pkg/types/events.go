package types

import "fmt"

type WsEventType int32

const (
	WS_EVENT_UNKNOWN      WsEventType = 0
	WS_EVENT_NEW_MESSAGE  WsEventType = 1 // 会话产生新消息
	WS_EVENT_ASSIGNED     WsEventType = 2 // 会话被指派
	WS_EVENT_MODE_CHANGED WsEventType = 3 // 会话模式变更
	WS_EVENT_CLOSED       WsEventType = 4 // 会话已关闭
	WS_EVENT_UPDATED      WsEventType = 5 // 会话其他字段变更

	WS_EVENT_SYSTEM_ONSUBSCRIBE WsEventType = 300
	WS_EVENT_SYSTEM_UNSUBSCRIBE WsEventType = 301
)

const (
	TOPIC_CHAT_ADMINS = "/chat/admins"
)

// TopicConversation 单个会话的订阅主题。内部备注不会发布到该主题。
func TopicConversation(conversationID string) string {
	return fmt.Sprintf("/chat/conversation/%s", conversationID)
}

// ConversationEvent 推送载荷。
type ConversationEvent struct {
	ConversationID string               `json:"conversation_id"`
	Status         ConversationStatus   `json:"status,omitempty"`
	Mode           ConversationMode     `json:"mode,omitempty"`
	AssignedAdmin  string               `json:"assigned_admin,omitempty"`
	Message        *ConversationMessage `json:"message,omitempty"`
}
