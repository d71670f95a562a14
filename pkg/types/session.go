package types

// SessionMessage 会话窗口内的一条消息。
type SessionMessage struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp int64       `json:"timestamp"`
}

// SessionState 单个会话的有界消息窗口。内存态会被周期性清理，
// redis 中的拷贝用于重建。
type SessionState struct {
	SessionID      string           `json:"session_id"`
	UserID         string           `json:"user_id"`
	Messages       []SessionMessage `json:"messages"`
	LastAccessedAt int64            `json:"last_accessed_at"`
}
