package v1

import (
	"context"
	"net/http"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

type routeRecorder struct {
	ragCalls      int
	fallbackCalls int
	providerErrs  []string
}

func newTestChatRouter(rec *routeRecorder, ragEnabled bool, rag *ragOutcome, ragErr error, fallback *fallbackOutcome, fallbackErr error) *chatRouter {
	return &chatRouter{
		ragEnabled: ragEnabled,
		rag: func(_ context.Context, _, _, _ string, _ []*types.MessageContext) (*ragOutcome, error) {
			rec.ragCalls++
			return rag, ragErr
		},
		fallback: func(_ context.Context, _, _ string, _ []*types.MessageContext) (*fallbackOutcome, error) {
			rec.fallbackCalls++
			return fallback, fallbackErr
		},
		onProviderError: func(provider string) {
			rec.providerErrs = append(rec.providerErrs, provider)
		},
	}
}

func openConversation(mode types.ConversationMode) *types.Conversation {
	return &types.Conversation{
		ID:     "c1",
		Status: types.CONVERSATION_STATUS_OPEN,
		Mode:   mode,
	}
}

func TestRouteHumanOnlyNeverTouchesModel(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, true, &ragOutcome{Reply: "should not appear"}, nil, &fallbackOutcome{Reply: "should not appear"}, nil)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_HUMAN_ONLY), SendMessageArgs{Message: "hi"}, nil)
	require.NoError(t, err)
	assert.True(t, outcome.humanOnly)
	assert.Equal(t, ai.HUMAN_ONLY_ACK, outcome.reply)
	assert.Zero(t, rec.ragCalls)
	assert.Zero(t, rec.fallbackCalls)
}

func TestRouteRagAnswerWins(t *testing.T) {
	rec := &routeRecorder{}
	trace := &types.RagTrace{ID: "t1"}
	router := newTestChatRouter(rec, true, &ragOutcome{
		Reply:   "Delivery takes 15 minutes.",
		Sources: []types.ChatSource{{DocumentID: "d1"}},
		Model:   "gpt-test",
		Trace:   trace,
	}, nil, nil, nil)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "how fast?"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Delivery takes 15 minutes.", outcome.reply)
	assert.False(t, outcome.usedFallback)
	assert.Same(t, trace, outcome.trace)
	assert.Equal(t, 1, rec.ragCalls)
	assert.Zero(t, rec.fallbackCalls)
}

func TestRouteAutoNoAnswerFallsBack(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, true,
		&ragOutcome{NoAnswer: true, Reason: types.REASON_NO_MATCHES}, nil,
		&fallbackOutcome{Reply: "We have Organic Milk 1L.", Cards: []types.ProductCard{{ProductID: "p1"}}}, nil)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "milk?"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "We have Organic Milk 1L.", outcome.reply)
	assert.True(t, outcome.usedFallback)
	assert.Equal(t, types.REASON_NO_MATCHES, outcome.reason)
	require.Len(t, outcome.cards, 1)
	assert.Equal(t, "p1", outcome.cards[0].ProductID)
	assert.Equal(t, 1, rec.ragCalls)
	assert.Equal(t, 1, rec.fallbackCalls)
}

func TestRouteRagModeNoAnswerRefuses(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, true, &ragOutcome{NoAnswer: true, Reason: types.REASON_NO_MATCHES}, nil, nil, nil)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "milk?", Mode: types.CHAT_REQUEST_MODE_RAG}, nil)
	require.NoError(t, err)
	assert.Equal(t, ai.NO_ANSWER_PHRASE, outcome.reply)
	assert.False(t, outcome.usedFallback)
	assert.Zero(t, rec.fallbackCalls)
}

func TestRouteChatModeSkipsRag(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, true, nil, nil, &fallbackOutcome{Reply: "from the catalog"}, nil)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "milk?", Mode: types.CHAT_REQUEST_MODE_CHAT}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from the catalog", outcome.reply)
	// chat 模式下兜底是主路径，不算 fallback
	assert.False(t, outcome.usedFallback)
	assert.Zero(t, rec.ragCalls)
}

func TestRouteRagDisabledGoesStraightToFallback(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, false, nil, nil, &fallbackOutcome{Reply: "from the catalog"}, nil)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "milk?"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "from the catalog", outcome.reply)
	assert.False(t, outcome.usedFallback)
	assert.Zero(t, rec.ragCalls)
}

func TestRouteDoubleFailureApologizes(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, true, nil, assert.AnError, nil, assert.AnError)

	outcome, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "milk?"}, nil)
	require.NoError(t, err)
	assert.Equal(t, apologyReply, outcome.reply)
	assert.True(t, outcome.usedFallback)
	assert.Equal(t, []string{"rag", "fallback"}, rec.providerErrs)
}

func TestRouteRagModeProviderErrorSurfaces(t *testing.T) {
	rec := &routeRecorder{}
	router := newTestChatRouter(rec, true, nil, &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, nil, nil)

	_, err := router.route(context.Background(), openConversation(types.CONVERSATION_MODE_AI_ONLY), SendMessageArgs{Message: "milk?", Mode: types.CHAT_REQUEST_MODE_RAG}, nil)
	require.Error(t, err)
	assert.Zero(t, rec.fallbackCalls)
	assert.Equal(t, []string{"rag"}, rec.providerErrs)
}

func TestMapAIError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"rate limited", &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests}, i18n.CHAT_ERROR_RATE_LIMIT},
		{"timeout", context.DeadlineExceeded, i18n.CHAT_ERROR_LATENCY},
		{"provider 5xx", &openai.APIError{HTTPStatusCode: http.StatusBadGateway}, i18n.CHAT_ERROR_CONNECTIVITY},
		{"anything else", assert.AnError, i18n.CHAT_ERROR_GENERIC},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ce := mapAIError("test", tc.err)
			assert.Equal(t, tc.want, ce.Message())
			assert.Equal(t, http.StatusServiceUnavailable, ce.GetCode())
		})
	}
}
