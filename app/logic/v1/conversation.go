package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/app/store"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

const (
	systemMessageTakenOver    = "Human agent took over"
	systemMessageReturnedToAI = "Conversation returned to AI"
	systemMessageClosed       = "Conversation closed"
	internalNotePrefix        = "Internal note: "
)

type publishFunc func(types.WsEventType, *types.ConversationEvent) error

// convEngine 会话状态机。status 与 mode 两条轴独立流转，所有写操作
// 经过会话级互斥锁串行化，每次管理操作落一条审计并推送一次事件。
type convEngine struct {
	conversations store.ConversationStore
	messages      store.ConversationMessageStore
	audits        store.AdminChatAuditStore
	publish       publishFunc
	publishAdmin  publishFunc
	locks         cmap.ConcurrentMap[string, *sync.Mutex]
	now           func() time.Time
	slaDuration   time.Duration
}

func newConvEngine(s *core.Core) *convEngine {
	tower := s.Srv().Tower()
	return &convEngine{
		conversations: s.Store().ConversationStore(),
		messages:      s.Store().ConversationMessageStore(),
		audits:        s.Store().AdminChatAuditStore(),
		publish:       tower.PublishConversationEvent,
		publishAdmin:  tower.PublishAdminEvent,
		locks:         cmap.New[*sync.Mutex](),
		now:           time.Now,
		slaDuration:   s.Cfg().Chat.SLADuration(),
	}
}

func (e *convEngine) lock(conversationID string) func() {
	mu, _ := e.locks.Get(conversationID)
	if mu == nil {
		mu = &sync.Mutex{}
		if !e.locks.SetIfAbsent(conversationID, mu) {
			mu, _ = e.locks.Get(conversationID)
		}
	}
	mu.Lock()
	return mu.Unlock
}

func (e *convEngine) get(ctx context.Context, id string) (*types.Conversation, error) {
	conv, err := e.conversations.GetConversation(ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("convEngine.get.ConversationStore.GetConversation", i18n.ERROR_INTERNAL, err)
	}
	if conv == nil {
		return nil, errors.New("convEngine.get.nil", i18n.ERROR_CONVERSATION_NOT_FOUND, err).Code(http.StatusNotFound)
	}
	return conv, nil
}

// ensure 返回客户当前会话。显式带 conversationID 时直接取该会话，
// 否则按 user+session 找，没有则新建。客户在已关闭会话上继续发消息
// 时重新打开会话并重置 SLA。
func (e *convEngine) ensure(ctx context.Context, userID, sessionID, channel, conversationID string) (*types.Conversation, error) {
	var (
		conv *types.Conversation
		err  error
	)
	if conversationID != "" {
		if conv, err = e.get(ctx, conversationID); err != nil {
			return nil, err
		}
	} else {
		conv, err = e.conversations.GetBySession(ctx, userID, sessionID)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.New("convEngine.ensure.ConversationStore.GetBySession", i18n.ERROR_INTERNAL, err)
		}
	}

	if conv == nil {
		conv = &types.Conversation{
			ID:        utils.GenUniqIDStr(),
			UserID:    userID,
			SessionID: sessionID,
			Channel:   channel,
			Status:    types.CONVERSATION_STATUS_OPEN,
			Mode:      types.CONVERSATION_MODE_AI_ONLY,
			Queue:     types.CONVERSATION_QUEUE_GENERAL,
			Priority:  types.CONVERSATION_PRIORITY_MEDIUM,
			SlaDueAt:  e.now().Add(e.slaDuration).Unix(),
		}
		if err = e.conversations.Create(ctx, *conv); err != nil {
			return nil, errors.New("convEngine.ensure.ConversationStore.Create", i18n.ERROR_INTERNAL, err)
		}
		return conv, nil
	}

	if conv.Status == types.CONVERSATION_STATUS_CLOSED {
		status := types.CONVERSATION_STATUS_OPEN
		slaDueAt := e.now().Add(e.slaDuration).Unix()
		if err = e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
			Status:   &status,
			SlaDueAt: &slaDueAt,
		}); err != nil {
			return nil, errors.New("convEngine.ensure.reopen", i18n.ERROR_INTERNAL, err)
		}
		conv.Status = status
		conv.SlaDueAt = slaDueAt
	}
	return conv, nil
}

// appendLocked 客户侧写消息的入口，与同会话的管理操作互斥。管理操作
// 自己持锁后调 appendMessage，不走这里。
func (e *convEngine) appendLocked(ctx context.Context, conv *types.Conversation, msg *types.ConversationMessage) error {
	defer e.lock(conv.ID)()
	return e.appendMessage(ctx, conv, msg)
}

// appendMessage 落一条消息并推进 lastMessageAt，随后推送 new-message
// 事件。内部备注只进 admins 主题。
func (e *convEngine) appendMessage(ctx context.Context, conv *types.Conversation, msg *types.ConversationMessage) error {
	if msg.ID == "" {
		msg.ID = utils.GenUniqIDStr()
	}
	msg.ConversationID = conv.ID
	msg.CreatedAt = e.now().Unix()

	if err := e.messages.Create(ctx, *msg); err != nil {
		return errors.New("convEngine.appendMessage.ConversationMessageStore.Create", i18n.ERROR_INTERNAL, err)
	}

	lastMessageAt := msg.CreatedAt
	if err := e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
		LastMessageAt: &lastMessageAt,
	}); err != nil {
		return errors.New("convEngine.appendMessage.ConversationStore.Update", i18n.ERROR_INTERNAL, err)
	}
	conv.LastMessageAt = lastMessageAt

	event := &types.ConversationEvent{
		ConversationID: conv.ID,
		Status:         conv.Status,
		Mode:           conv.Mode,
		AssignedAdmin:  conv.AssignedAdmin,
		Message:        msg,
	}
	publish := e.publish
	if msg.InternalNote {
		publish = e.publishAdmin
	}
	if err := publish(types.WS_EVENT_NEW_MESSAGE, event); err != nil {
		slog.Error("failed to publish new message event", slog.String("conversation_id", conv.ID), slog.String("error", err.Error()))
	}
	return nil
}

func (e *convEngine) audit(ctx context.Context, adminID string, conv *types.Conversation, action types.AdminAction, before, after types.JSONMap) {
	if err := e.audits.Create(ctx, types.AdminChatAudit{
		ID:             utils.GenUniqIDStr(),
		AdminID:        adminID,
		ConversationID: conv.ID,
		Action:         action,
		Before:         before,
		After:          after,
		CreatedAt:      e.now().Unix(),
	}); err != nil {
		slog.Error("failed to write admin audit", slog.String("conversation_id", conv.ID), slog.String("action", string(action)), slog.String("error", err.Error()))
	}
}

func snapshot(c *types.Conversation) types.JSONMap {
	return types.JSONMap{
		"status":         c.Status,
		"mode":           c.Mode,
		"queue":          c.Queue,
		"priority":       c.Priority,
		"assigned_admin": c.AssignedAdmin,
		"needs_review":   c.NeedsReview,
	}
}

// assign 指派会话。targetAdmin 传 "me" 表示指派给操作者自己。
func (e *convEngine) assign(ctx context.Context, adminID, conversationID, targetAdmin string) (*types.Conversation, error) {
	if targetAdmin == "me" {
		targetAdmin = adminID
	}
	defer e.lock(conversationID)()

	conv, err := e.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	before := snapshot(conv)

	lastMessageAt := e.now().Unix()
	if err = e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
		AssignedAdmin: &targetAdmin,
		LastMessageAt: &lastMessageAt,
	}); err != nil {
		return nil, errors.New("convEngine.assign.ConversationStore.Update", i18n.ERROR_INTERNAL, err)
	}
	conv.AssignedAdmin = targetAdmin
	conv.LastMessageAt = lastMessageAt

	e.audit(ctx, adminID, conv, types.ADMIN_ACTION_ASSIGN, before, snapshot(conv))
	e.publishState(conv, types.WS_EVENT_ASSIGNED)
	return conv, nil
}

// takeover 切到人工。assist 为 true 时进入人机协同模式，AI 仍然生成
// 回复但会话被标记给指定客服跟进。
func (e *convEngine) takeover(ctx context.Context, adminID, conversationID string, assist bool) (*types.Conversation, error) {
	defer e.lock(conversationID)()

	conv, err := e.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	before := snapshot(conv)

	mode := types.CONVERSATION_MODE_HUMAN_ONLY
	if assist {
		mode = types.CONVERSATION_MODE_AI_ASSIST
	}
	if err = e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
		Mode:          &mode,
		AssignedAdmin: &adminID,
	}); err != nil {
		return nil, errors.New("convEngine.takeover.ConversationStore.Update", i18n.ERROR_INTERNAL, err)
	}
	conv.Mode = mode
	conv.AssignedAdmin = adminID

	if err = e.appendMessage(ctx, conv, &types.ConversationMessage{
		Role:    types.MESSAGE_ROLE_SYSTEM,
		Content: systemMessageTakenOver,
	}); err != nil {
		return nil, err
	}

	e.audit(ctx, adminID, conv, types.ADMIN_ACTION_TAKEOVER, before, snapshot(conv))
	e.publishState(conv, types.WS_EVENT_MODE_CHANGED)
	return conv, nil
}

func (e *convEngine) returnToAI(ctx context.Context, adminID, conversationID string) (*types.Conversation, error) {
	defer e.lock(conversationID)()

	conv, err := e.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	before := snapshot(conv)

	mode := types.CONVERSATION_MODE_AI_ONLY
	if err = e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
		Mode: &mode,
	}); err != nil {
		return nil, errors.New("convEngine.returnToAI.ConversationStore.Update", i18n.ERROR_INTERNAL, err)
	}
	conv.Mode = mode

	if err = e.appendMessage(ctx, conv, &types.ConversationMessage{
		Role:    types.MESSAGE_ROLE_SYSTEM,
		Content: systemMessageReturnedToAI,
	}); err != nil {
		return nil, err
	}

	e.audit(ctx, adminID, conv, types.ADMIN_ACTION_RETURN_TO_AI, before, snapshot(conv))
	e.publishState(conv, types.WS_EVENT_MODE_CHANGED)
	return conv, nil
}

func (e *convEngine) close(ctx context.Context, adminID, conversationID string) (*types.Conversation, error) {
	defer e.lock(conversationID)()

	conv, err := e.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	before := snapshot(conv)

	status := types.CONVERSATION_STATUS_CLOSED
	if err = e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
		Status: &status,
	}); err != nil {
		return nil, errors.New("convEngine.close.ConversationStore.Update", i18n.ERROR_INTERNAL, err)
	}
	conv.Status = status

	if err = e.appendMessage(ctx, conv, &types.ConversationMessage{
		Role:    types.MESSAGE_ROLE_SYSTEM,
		Content: systemMessageClosed,
	}); err != nil {
		return nil, err
	}

	e.audit(ctx, adminID, conv, types.ADMIN_ACTION_CLOSE, before, snapshot(conv))
	e.publishState(conv, types.WS_EVENT_CLOSED)
	return conv, nil
}

func (e *convEngine) setNeedsReview(ctx context.Context, adminID, conversationID string, needsReview bool) (*types.Conversation, error) {
	defer e.lock(conversationID)()

	conv, err := e.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	before := snapshot(conv)

	lastMessageAt := e.now().Unix()
	if err = e.conversations.Update(ctx, conv.ID, types.UpdateConversationArgs{
		NeedsReview:   &needsReview,
		LastMessageAt: &lastMessageAt,
	}); err != nil {
		return nil, errors.New("convEngine.setNeedsReview.ConversationStore.Update", i18n.ERROR_INTERNAL, err)
	}
	conv.NeedsReview = needsReview
	conv.LastMessageAt = lastMessageAt

	e.audit(ctx, adminID, conv, types.ADMIN_ACTION_MARK_REVIEW, before, snapshot(conv))
	e.publishState(conv, types.WS_EVENT_UPDATED)
	return conv, nil
}

// sendHumanMessage 客服发言。internalNote 为 true 时消息仅管理端可见，
// 内容加 Internal note: 前缀。
func (e *convEngine) sendHumanMessage(ctx context.Context, adminID, conversationID, content string, internalNote bool) (*types.ConversationMessage, error) {
	defer e.lock(conversationID)()

	conv, err := e.get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	before := snapshot(conv)

	if internalNote {
		content = internalNotePrefix + content
	}
	msg := &types.ConversationMessage{
		Role:         types.MESSAGE_ROLE_HUMAN,
		Content:      content,
		InternalNote: internalNote,
	}
	if err = e.appendMessage(ctx, conv, msg); err != nil {
		return nil, err
	}

	action := types.ADMIN_ACTION_SEND_MESSAGE
	if internalNote {
		action = types.ADMIN_ACTION_ADD_NOTE
	}
	e.audit(ctx, adminID, conv, action, before, snapshot(conv))
	return msg, nil
}

func (e *convEngine) publishState(conv *types.Conversation, eventType types.WsEventType) {
	if err := e.publish(eventType, &types.ConversationEvent{
		ConversationID: conv.ID,
		Status:         conv.Status,
		Mode:           conv.Mode,
		AssignedAdmin:  conv.AssignedAdmin,
	}); err != nil {
		slog.Error("failed to publish conversation event", slog.String("conversation_id", conv.ID), slog.String("error", err.Error()))
	}
}

type ConversationLogic struct {
	ctx    context.Context
	core   *core.Core
	engine *convEngine
}

func NewConversationLogic(ctx context.Context, core *core.Core) *ConversationLogic {
	return &ConversationLogic{
		ctx:    ctx,
		core:   core,
		engine: newConvEngine(core),
	}
}

func (l *ConversationLogic) Assign(adminID, conversationID, targetAdmin string) (*types.Conversation, error) {
	return l.engine.assign(l.ctx, adminID, conversationID, targetAdmin)
}

func (l *ConversationLogic) Takeover(adminID, conversationID string, assist bool) (*types.Conversation, error) {
	return l.engine.takeover(l.ctx, adminID, conversationID, assist)
}

func (l *ConversationLogic) ReturnToAI(adminID, conversationID string) (*types.Conversation, error) {
	return l.engine.returnToAI(l.ctx, adminID, conversationID)
}

func (l *ConversationLogic) Close(adminID, conversationID string) (*types.Conversation, error) {
	return l.engine.close(l.ctx, adminID, conversationID)
}

func (l *ConversationLogic) SetNeedsReview(adminID, conversationID string, needsReview bool) (*types.Conversation, error) {
	return l.engine.setNeedsReview(l.ctx, adminID, conversationID, needsReview)
}

func (l *ConversationLogic) SendHumanMessage(adminID, conversationID, content string, internalNote bool) (*types.ConversationMessage, error) {
	return l.engine.sendHumanMessage(l.ctx, adminID, conversationID, content, internalNote)
}

func (l *ConversationLogic) List(opts types.ListConversationOptions, page, pageSize uint64) ([]types.Conversation, int64, error) {
	list, err := l.core.Store().ConversationStore().ListConversations(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("ConversationLogic.List.ConversationStore.ListConversations", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().ConversationStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("ConversationLogic.List.ConversationStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

type ConversationDetail struct {
	Conversation *types.Conversation         `json:"conversation"`
	SLABreached  bool                        `json:"sla_breached"`
	Messages     []types.ConversationMessage `json:"messages"`
	RecentOrders []types.Order               `json:"recent_orders"`
}

// GetDetail 管理端会话详情，附带客户最近订单方便客服直接答复物流问题。
func (l *ConversationLogic) GetDetail(conversationID string) (*ConversationDetail, error) {
	conv, err := l.engine.get(l.ctx, conversationID)
	if err != nil {
		return nil, err
	}

	messages, err := l.core.Store().ConversationMessageStore().ListMessages(l.ctx, types.ListConversationMessageOptions{
		ConversationID: conversationID,
	}, types.NO_PAGINATION, types.NO_PAGINATION)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("ConversationLogic.GetDetail.ConversationMessageStore.ListMessages", i18n.ERROR_INTERNAL, err)
	}

	detail := &ConversationDetail{
		Conversation: conv,
		SLABreached:  conv.IsSLABreached(time.Now()),
		Messages:     messages,
	}

	if conv.UserID != "" {
		orders, err := l.core.Store().OrderStore().ListOrders(l.ctx, conv.UserID, types.DEFAULT_PAGE, 3)
		if err != nil && err != sql.ErrNoRows {
			return nil, errors.New("ConversationLogic.GetDetail.OrderStore.ListOrders", i18n.ERROR_INTERNAL, err)
		}
		detail.RecentOrders = orders
	}
	return detail, nil
}

func (l *ConversationLogic) ListAudits(opts types.ListAdminChatAuditOptions, page, pageSize uint64) ([]types.AdminChatAudit, int64, error) {
	list, err := l.core.Store().AdminChatAuditStore().ListAudits(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("ConversationLogic.ListAudits.AdminChatAuditStore.ListAudits", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().AdminChatAuditStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("ConversationLogic.ListAudits.AdminChatAuditStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}
