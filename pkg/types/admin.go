package types

import (
	sq "github.com/Masterminds/squirrel"
)

type AdminAction string

const (
	ADMIN_ACTION_ASSIGN       AdminAction = "ASSIGN"
	ADMIN_ACTION_TAKEOVER     AdminAction = "TAKEOVER"
	ADMIN_ACTION_RETURN_TO_AI AdminAction = "RETURN_TO_AI"
	ADMIN_ACTION_CLOSE        AdminAction = "CLOSE"
	ADMIN_ACTION_ADD_NOTE     AdminAction = "ADD_NOTE"
	ADMIN_ACTION_MARK_REVIEW  AdminAction = "MARK_REVIEW"
	ADMIN_ACTION_SEND_MESSAGE AdminAction = "SEND_MESSAGE"
)

// AdminChatAudit append-only 审计记录，每次改变会话状态的管理操作一条。
type AdminChatAudit struct {
	ID             string      `json:"id" db:"id"`
	AdminID        string      `json:"admin_id" db:"admin_id"`
	ConversationID string      `json:"conversation_id" db:"conversation_id"`
	Action         AdminAction `json:"action" db:"action"`
	Before         JSONMap     `json:"before" db:"before"`
	After          JSONMap     `json:"after" db:"after"`
	CreatedAt      int64       `json:"created_at" db:"created_at"`
}

type ListAdminChatAuditOptions struct {
	AdminID        string
	ConversationID string
	Action         AdminAction
}

func (opts ListAdminChatAuditOptions) Apply(query *sq.SelectBuilder) {
	if opts.AdminID != "" {
		*query = query.Where(sq.Eq{"admin_id": opts.AdminID})
	}
	if opts.ConversationID != "" {
		*query = query.Where(sq.Eq{"conversation_id": opts.ConversationID})
	}
	if opts.Action != "" {
		*query = query.Where(sq.Eq{"action": opts.Action})
	}
}

const (
	ADMIN_ROLE_ADMIN = "admin"
	ADMIN_ROLE_AGENT = "agent"
)

// AdminUser 后台账号，support 权限为布尔检查，不建角色图。
type AdminUser struct {
	ID        string `json:"id" db:"id"`
	Name      string `json:"name" db:"name"`
	Token     string `json:"-" db:"token"`
	Role      string `json:"role" db:"role"`
	CreatedAt int64  `json:"created_at" db:"created_at"`
}
