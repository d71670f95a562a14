package types

import (
	"time"

	sq "github.com/Masterminds/squirrel"
)

type ConversationStatus string

const (
	CONVERSATION_STATUS_OPEN   ConversationStatus = "open"
	CONVERSATION_STATUS_CLOSED ConversationStatus = "closed"
)

type ConversationMode string

const (
	CONVERSATION_MODE_AI_ONLY    ConversationMode = "AI_ONLY"
	CONVERSATION_MODE_AI_ASSIST  ConversationMode = "AI_ASSIST"
	CONVERSATION_MODE_HUMAN_ONLY ConversationMode = "HUMAN_ONLY"
)

func ConversationModeFromString(s string) (ConversationMode, bool) {
	switch ConversationMode(s) {
	case CONVERSATION_MODE_AI_ONLY, CONVERSATION_MODE_AI_ASSIST, CONVERSATION_MODE_HUMAN_ONLY:
		return ConversationMode(s), true
	default:
		return "", false
	}
}

const (
	CONVERSATION_QUEUE_GENERAL = "general"

	CONVERSATION_PRIORITY_LOW    = "low"
	CONVERSATION_PRIORITY_MEDIUM = "medium"
	CONVERSATION_PRIORITY_HIGH   = "high"
)

// Conversation 一次客户支持会话。status 与 mode 两条轴各自独立流转，
// closed 为 status 的终态，但记录永久保留。
type Conversation struct {
	ID            string             `json:"id" db:"id"`
	UserID        string             `json:"user_id" db:"user_id"`
	SessionID     string             `json:"session_id" db:"session_id"`
	Channel       string             `json:"channel" db:"channel"`
	Status        ConversationStatus `json:"status" db:"status"`
	Mode          ConversationMode   `json:"mode" db:"mode"`
	Queue         string             `json:"queue" db:"queue"`
	Priority      string             `json:"priority" db:"priority"`
	AssignedAdmin string             `json:"assigned_admin" db:"assigned_admin"`
	NeedsReview   bool               `json:"needs_review" db:"needs_review"`
	Confidence    float64            `json:"confidence" db:"confidence"`
	SlaDueAt      int64              `json:"sla_due_at" db:"sla_due_at"`
	SlaBreached   bool               `json:"sla_breached" db:"sla_breached"`
	LastMessageAt int64              `json:"last_message_at" db:"last_message_at"`
	CreatedAt     int64              `json:"created_at" db:"created_at"`
	UpdatedAt     int64              `json:"updated_at" db:"updated_at"`
}

// IsSLABreached SLA 超时判定在读取时惰性计算，不做巡检。
func (c *Conversation) IsSLABreached(now time.Time) bool {
	if c.SlaBreached {
		return true
	}
	return c.SlaDueAt > 0 && c.SlaDueAt < now.Unix()
}

type ListConversationOptions struct {
	Status        ConversationStatus
	Queue         string
	AssignedAdmin string
	Unassigned    bool
	NeedsReview   *bool
	SLABreachedAt int64 // non-zero: only conversations breached at this instant
	Keywords      string
}

func (opts ListConversationOptions) Apply(query *sq.SelectBuilder) {
	if opts.Status != "" {
		*query = query.Where(sq.Eq{"status": opts.Status})
	}
	if opts.Queue != "" {
		*query = query.Where(sq.Eq{"queue": opts.Queue})
	}
	if opts.AssignedAdmin != "" {
		*query = query.Where(sq.Eq{"assigned_admin": opts.AssignedAdmin})
	}
	if opts.Unassigned {
		*query = query.Where(sq.Eq{"assigned_admin": ""})
	}
	if opts.NeedsReview != nil {
		*query = query.Where(sq.Eq{"needs_review": *opts.NeedsReview})
	}
	if opts.SLABreachedAt > 0 {
		*query = query.Where(sq.Or{
			sq.Eq{"sla_breached": true},
			sq.And{sq.Gt{"sla_due_at": 0}, sq.Lt{"sla_due_at": opts.SLABreachedAt}},
		})
	}
	if opts.Keywords != "" {
		keyword := "%" + opts.Keywords + "%"
		*query = query.Where(sq.Or{
			sq.ILike{"user_id": keyword},
			sq.ILike{"session_id": keyword},
			sq.Expr("EXISTS (SELECT 1 FROM "+TABLE_CONVERSATION_MESSAGE.Name()+" m WHERE m.conversation_id = "+TABLE_CONVERSATION.Name()+".id AND m.content ILIKE ?)", keyword),
		})
	}
}

type UpdateConversationArgs struct {
	Status        *ConversationStatus
	Mode          *ConversationMode
	Queue         *string
	Priority      *string
	AssignedAdmin *string
	NeedsReview   *bool
	Confidence    *float64
	SlaBreached   *bool
	SlaDueAt      *int64
	LastMessageAt *int64
}
