package v1

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	pkgerrors "github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/mark"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

// apologyReply RAG 与兜底双双失败时的保底回复。
const apologyReply = "Sorry, something went wrong on our side. Please try again in a moment, or ask to talk to a support agent."

type ChatLogic struct {
	ctx  context.Context
	core *core.Core
	conv *convEngine
}

func NewChatLogic(ctx context.Context, core *core.Core) *ChatLogic {
	return &ChatLogic{
		ctx:  ctx,
		core: core,
		conv: newConvEngine(core),
	}
}

type SendMessageArgs struct {
	SessionID      string                `json:"session_id"`
	Message        string                `json:"message"`
	UserID         string                `json:"user_id"`
	Mode           types.ChatRequestMode `json:"mode"`
	DocumentID     string                `json:"document_id"`
	ConversationID string                `json:"conversation_id"`
	Channel        string                `json:"channel"`
}

type SendMessageResult struct {
	ConversationID string                   `json:"conversation_id"`
	MessageID      string                   `json:"message_id"`
	TraceID        string                   `json:"trace_id"`
	Reply          string                   `json:"reply"`
	Sources        []types.ChatSource       `json:"sources,omitempty"`
	Cards          []types.ProductCard      `json:"cards"`
	UsedFallback   bool                     `json:"used_fallback"`
	NoAnswerReason types.ShortCircuitReason `json:"no_answer_reason,omitempty"`
	RagTraceID     string                   `json:"rag_trace_id,omitempty"`
	Model          string                   `json:"model,omitempty"`
}

// SendMessage 处理一轮客户提问。traceID 在入口生成，无论成功失败都
// 随响应返回，便于客户反馈问题时定位。
func (l *ChatLogic) SendMessage(args SendMessageArgs) (*SendMessageResult, error) {
	traceID := utils.GenUniqIDStr()

	if args.SessionID == "" || args.Message == "" {
		return nil, pkgerrors.New("ChatLogic.SendMessage.args", i18n.ERROR_INVALIDARGUMENT, nil).
			Code(http.StatusUnprocessableEntity).WithData(map[string]interface{}{"trace_id": traceID})
	}
	if args.Channel == "" {
		args.Channel = "web"
	}

	conv, err := l.conv.ensure(l.ctx, args.UserID, args.SessionID, args.Channel, args.ConversationID)
	if err != nil {
		return nil, withTrace(err, traceID)
	}

	history := l.sessionHistory(args.SessionID, args.UserID)

	if err = l.conv.appendLocked(l.ctx, conv, &types.ConversationMessage{
		Role:    types.MESSAGE_ROLE_CUSTOMER,
		Content: args.Message,
		TraceID: traceID,
	}); err != nil {
		return nil, withTrace(err, traceID)
	}
	l.core.Session().AddMessage(args.SessionID, args.UserID, types.MESSAGE_ROLE_CUSTOMER, args.Message)

	result := &SendMessageResult{
		ConversationID: conv.ID,
		TraceID:        traceID,
		Cards:          []types.ProductCard{},
	}

	if conv.Mode != types.CONVERSATION_MODE_HUMAN_ONLY && l.core.Srv().AI() == nil {
		return nil, pkgerrors.New("ChatLogic.SendMessage.ai", i18n.ERROR_AI_NOT_CONFIGURED, nil).
			WithData(map[string]interface{}{"trace_id": traceID})
	}

	// 联系方式脱敏后再触达模型，回复里还原
	masker := mark.NewPIIWorker()
	args.Message = masker.Do(args.Message)
	for _, item := range history {
		item.Content = masker.Do(item.Content)
	}

	start := time.Now()
	outcome, err := newChatRouter(l.core).route(l.ctx, conv, args, history)
	if err != nil {
		return nil, withTrace(err, traceID)
	}

	// HUMAN_ONLY 固定回执，不触达模型
	if outcome.humanOnly {
		l.core.Metrics().ChatTurnInc("human_only")
		result.Reply = outcome.reply
		if err = l.persistAssistantReply(conv, result, 0, nil); err != nil {
			return nil, withTrace(err, traceID)
		}
		return result, nil
	}
	outcome.reply = masker.Undo(outcome.reply)

	route := lo.If(outcome.usedFallback || outcome.trace == nil, "fallback").Else("rag")
	l.core.Metrics().ChatTurnInc(route)
	l.core.Metrics().ChatReplyObserve(route, time.Since(start))

	result.Reply = outcome.reply
	result.Sources = outcome.sources
	if len(outcome.cards) > 0 {
		result.Cards = outcome.cards
	}
	result.UsedFallback = outcome.usedFallback
	result.NoAnswerReason = outcome.reason
	result.Model = outcome.model

	if err = l.persistAssistantReply(conv, result, time.Since(start).Milliseconds(), outcome.trace); err != nil {
		return nil, withTrace(err, traceID)
	}
	l.core.Session().AddMessage(args.SessionID, args.UserID, types.MESSAGE_ROLE_ASSISTANT, result.Reply)
	return result, nil
}

type turnOutcome struct {
	reply        string
	sources      []types.ChatSource
	cards        []types.ProductCard
	usedFallback bool
	humanOnly    bool
	reason       types.ShortCircuitReason
	model        string
	trace        *types.RagTrace
}

// chatRouter 把会话模式、请求模式与全局开关翻译成一条具体路径：
// 固定回执、RAG 还是数据库兜底。
type chatRouter struct {
	ragEnabled      bool
	rag             func(ctx context.Context, conversationID, documentID, query string, history []*types.MessageContext) (*ragOutcome, error)
	fallback        func(ctx context.Context, userID, message string, history []*types.MessageContext) (*fallbackOutcome, error)
	onProviderError func(provider string)
}

func newChatRouter(s *core.Core) *chatRouter {
	return &chatRouter{
		ragEnabled:      s.Cfg().Chat.IsRagEnabled(),
		rag:             newRagEngine(s).processMessage,
		fallback:        newFallbackEngine(s).answer,
		onProviderError: s.Metrics().ProviderErrorInc,
	}
}

// route 按请求模式与全局开关在 RAG 与兜底之间路由。auto 模式下 RAG
// 无答案或出错都会落到兜底，两边都失败时退化为保底致歉。
func (r *chatRouter) route(ctx context.Context, conv *types.Conversation, args SendMessageArgs, history []*types.MessageContext) (*turnOutcome, error) {
	if conv.Mode == types.CONVERSATION_MODE_HUMAN_ONLY {
		return &turnOutcome{reply: ai.HUMAN_ONLY_ACK, humanOnly: true}, nil
	}

	ragAllowed := r.ragEnabled && args.Mode != types.CHAT_REQUEST_MODE_CHAT

	var (
		outcome = &turnOutcome{}
		ragErr  error
	)

	if ragAllowed {
		rag, err := r.rag(ctx, conv.ID, args.DocumentID, args.Message, history)
		if err != nil {
			ragErr = err
			r.onProviderError("rag")
			slog.Error("rag path failed", slog.String("conversation_id", conv.ID), slog.String("error", err.Error()))
		} else {
			outcome.reason = rag.Reason
			if !rag.NoAnswer {
				outcome.reply = rag.Reply
				outcome.sources = rag.Sources
				outcome.model = rag.Model
				outcome.trace = rag.Trace
				return outcome, nil
			}
		}
	}

	if args.Mode == types.CHAT_REQUEST_MODE_RAG {
		if ragErr != nil {
			return nil, mapAIError("chatRouter.route.rag", ragErr)
		}
		// RAG-only 无答案时直接回固定拒答语
		outcome.reply = ai.NO_ANSWER_PHRASE
		return outcome, nil
	}

	fallback, err := r.fallback(ctx, args.UserID, args.Message, history)
	if err != nil {
		r.onProviderError("fallback")
		if ragErr != nil {
			// 双路径失败，保底致歉，trace id 仍随响应返回
			slog.Error("both rag and fallback failed", slog.String("conversation_id", conv.ID), slog.String("error", err.Error()))
			outcome.reply = apologyReply
			outcome.usedFallback = true
			return outcome, nil
		}
		return nil, mapAIError("chatRouter.route.fallback", err)
	}

	outcome.reply = fallback.Reply
	outcome.cards = fallback.Cards
	// 从 RAG 落下来的才算 fallback，chat 模式下兜底就是主路径
	outcome.usedFallback = ragAllowed
	outcome.model = fallback.Model
	return outcome, nil
}

// persistAssistantReply 落助手消息；带 trace 的消息在落库后写入 RagTrace，
// 保证 rag_enabled 消息一定能关联到一条检索轨迹。
func (l *ChatLogic) persistAssistantReply(conv *types.Conversation, result *SendMessageResult, latencyMs int64, trace *types.RagTrace) error {
	msg := &types.ConversationMessage{
		Role:         types.MESSAGE_ROLE_ASSISTANT,
		Content:      result.Reply,
		TraceID:      result.TraceID,
		Model:        result.Model,
		LatencyMs:    latencyMs,
		RagEnabled:   trace != nil,
		UsedFallback: result.UsedFallback,
	}
	if trace != nil {
		msg.RagTraceID = trace.ID
		result.RagTraceID = trace.ID
	}

	if err := l.conv.appendLocked(l.ctx, conv, msg); err != nil {
		return err
	}
	result.MessageID = msg.ID

	if trace != nil {
		if err := newRagEngine(l.core).saveTrace(l.ctx, trace, msg.ID); err != nil {
			return pkgerrors.New("ChatLogic.persistAssistantReply.saveTrace", i18n.ERROR_INTERNAL, err)
		}
	}
	return nil
}

// sessionHistory 把 session 窗口转成模型上下文，超出 token 预算时
// 从最旧一侧裁剪。
func (l *ChatLogic) sessionHistory(sessionID, userID string) []*types.MessageContext {
	messages := l.core.Session().History(sessionID, userID)
	history := lo.Map(messages, func(item types.SessionMessage, _ int) *types.MessageContext {
		role := types.USER_ROLE_ASSISTANT
		if item.Role == types.MESSAGE_ROLE_CUSTOMER {
			role = types.USER_ROLE_USER
		}
		return &types.MessageContext{
			Role:    role,
			Content: item.Content,
		}
	})

	driver := l.core.Srv().AI()
	if driver == nil {
		return history
	}
	limit := l.core.Cfg().Chat.HistoryTokenLimit
	for len(history) > 1 && ai.MessagesOverLimit(history, driver.ChatModel(), limit) {
		history = history[1:]
	}
	return history
}

func withTrace(err error, traceID string) error {
	if ce, ok := err.(*pkgerrors.CustomizedError); ok {
		return ce.WithData(map[string]interface{}{"trace_id": traceID})
	}
	return pkgerrors.New("ChatLogic", i18n.ERROR_INTERNAL, err).WithData(map[string]interface{}{"trace_id": traceID})
}

// mapAIError 把模型侧错误翻译成分类后的友好错误，不做重试。
func mapAIError(trace string, err error) *pkgerrors.CustomizedError {
	var apiErr *openai.APIError
	switch {
	case errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests:
		return pkgerrors.New(trace, i18n.CHAT_ERROR_RATE_LIMIT, err).Code(http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded):
		return pkgerrors.New(trace, i18n.CHAT_ERROR_LATENCY, err).Code(http.StatusServiceUnavailable)
	case errors.As(err, &apiErr) || isNetworkError(err):
		return pkgerrors.New(trace, i18n.CHAT_ERROR_CONNECTIVITY, err).Code(http.StatusServiceUnavailable)
	default:
		return pkgerrors.New(trace, i18n.CHAT_ERROR_GENERIC, err).Code(http.StatusServiceUnavailable)
	}
}

func isNetworkError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr)
}

// History 客户端拉取会话消息，内部备注永远不会出现在返回里。
func (l *ChatLogic) History(conversationID string, page, pageSize uint64) ([]types.ConversationMessage, int64, error) {
	opts := types.ListConversationMessageOptions{
		ConversationID: conversationID,
		ExcludeNotes:   true,
	}
	list, err := l.core.Store().ConversationMessageStore().ListMessages(l.ctx, opts, page, pageSize)
	if err != nil {
		return nil, 0, pkgerrors.New("ChatLogic.History.ConversationMessageStore.ListMessages", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().ConversationMessageStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, pkgerrors.New("ChatLogic.History.ConversationMessageStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}
