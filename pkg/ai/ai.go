package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/samber/lo"
	openai "github.com/sashabaranov/go-openai"

	"github.com/dashmart-ai/dashmart/pkg/types"
)

const (
	MODEL_BASE_LANGUAGE_CN = "cn"
	MODEL_BASE_LANGUAGE_EN = "en"
)

type ModelName struct {
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
}

type Lang interface {
	Lang() string
}

// Query 聊天补全驱动。
type Query interface {
	Query(ctx context.Context, query []*types.MessageContext) (GenerateResponse, error)
	ChatModel() string
	Lang
}

// Embedding 向量化驱动，返回结果与输入顺序一一对应。
type Embedding interface {
	EmbeddingForQuery(ctx context.Context, content []string) (EmbeddingResult, error)
	EmbeddingForDocument(ctx context.Context, title string, content []string) (EmbeddingResult, error)
	EmbeddingModel() string
}

// Driver 单个 AI 后端的完整能力面。
type Driver interface {
	Query
	Embedding
	Name() string
}

type GenerateResponse struct {
	Received []string      `json:"received"`
	Model    string        `json:"model"`
	Usage    *openai.Usage `json:"usage"`
}

func (r GenerateResponse) Message() string {
	return strings.TrimSpace(strings.Join(r.Received, ""))
}

type EmbeddingResult struct {
	Model string        `json:"model"`
	Usage *openai.Usage `json:"usage"`
	Data  [][]float32   `json:"data"`
}

func NewQueryOptions(ctx context.Context, driver Query, query []*types.MessageContext) *QueryOptions {
	return &QueryOptions{
		ctx:     ctx,
		_driver: driver,
		query:   query,
	}
}

type QueryOptions struct {
	ctx     context.Context
	_driver Query
	query   []*types.MessageContext
	prompt  string
	vars    map[string]string
}

func (s *QueryOptions) WithPrompt(prompt string) *QueryOptions {
	s.prompt = strings.TrimSpace(prompt)
	return s
}

func (s *QueryOptions) WithVar(key, value string) *QueryOptions {
	if s.vars == nil {
		s.vars = make(map[string]string)
	}
	s.vars[key] = value
	return s
}

// Query 渲染 prompt 变量后发起一次补全请求。
func (s *QueryOptions) Query() (GenerateResponse, error) {
	query := s.query
	if s.prompt != "" {
		prompt := s.prompt
		for k, v := range s.vars {
			prompt = strings.ReplaceAll(prompt, k, v)
		}
		query = append([]*types.MessageContext{{
			Role:    types.USER_ROLE_SYSTEM,
			Content: prompt,
		}}, query...)
	}

	return s._driver.Query(s.ctx, query)
}

// NumTokens openai cookbook 的消息计数算法，未识别的模型按 gpt-4 口径估算。
func NumTokens(messages []openai.ChatCompletionMessage, model string) (numTokens int, err error) {
	var tokensPerMessage int
	switch model {
	case "gpt-3.5-turbo-0613",
		"gpt-4-0314",
		"gpt-4-0613":
		tokensPerMessage = 3
	default:
		if strings.Contains(model, "gpt-3.5") {
			return NumTokens(messages, "gpt-3.5-turbo-0613")
		}
		return NumTokens(messages, "gpt-4-0613")
	}

	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return 0, fmt.Errorf("encoding for model: %w", err)
	}

	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += len(tkm.Encode(message.Content, nil, nil))
		numTokens += len(tkm.Encode(message.Role, nil, nil))
	}
	numTokens += 3 // every reply is primed with <|start|>assistant<|message|>
	return numTokens, nil
}

// MessagesOverLimit 历史窗口的 token 预算检查。
func MessagesOverLimit(msgs []*types.MessageContext, model string, limit int) bool {
	tokenNum, err := NumTokens(lo.Map(msgs, func(item *types.MessageContext, _ int) openai.ChatCompletionMessage {
		return openai.ChatCompletionMessage{
			Role:    item.Role,
			Content: item.Content,
		}
	}), model)
	if err != nil {
		return false
	}
	return tokenNum > limit
}
