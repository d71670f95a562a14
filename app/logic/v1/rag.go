package v1

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/app/store"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

const chunkPreviewLength = 200

// ragEngine 文档问答主路径。短路判定全部发生在触达模型之前，
// 命中短路时绝不调用模型。
type ragEngine struct {
	docs    store.KnowledgeDocumentStore
	chunks  store.KnowledgeChunkStore
	vectors store.VectorStore
	traces  store.RagTraceStore
	driver  ai.Driver
	cfg     core.ChatConfig
}

func newRagEngine(s *core.Core) *ragEngine {
	return &ragEngine{
		docs:    s.Store().KnowledgeDocumentStore(),
		chunks:  s.Store().KnowledgeChunkStore(),
		vectors: s.Store().VectorStore(),
		traces:  s.Store().RagTraceStore(),
		driver:  s.Srv().AI(),
		cfg:     s.Cfg().Chat,
	}
}

// ragOutcome 单次 RAG 处理结果。NoAnswer 为 true 时 Reply 不可用，
// Reason 非空表示未触达模型的短路原因。
type ragOutcome struct {
	Reply    string
	NoAnswer bool
	Reason   types.ShortCircuitReason
	Sources  []types.ChatSource
	Model    string
	Trace    *types.RagTrace
}

// processMessage 按候选集判定 → 召回 → 严格 grounding 生成的顺序处理一轮提问。
// documentID 非空表示只允许检索该文档。
func (e *ragEngine) processMessage(ctx context.Context, conversationID, documentID, query string, history []*types.MessageContext) (*ragOutcome, error) {
	allowed, reason, err := e.candidateDocuments(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if reason != "" {
		return &ragOutcome{NoAnswer: true, Reason: reason}, nil
	}

	hits, embeddingModel, err := newRetriever(e.vectors, e.chunks, e.docs, e.driver).Retrieve(ctx, query, uint64(e.cfg.TopK), allowed)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &ragOutcome{NoAnswer: true, Reason: types.REASON_NO_MATCHES}, nil
	}

	prompt := ai.PROMPT_RAG_EN
	if e.driver.Lang() == ai.MODEL_BASE_LANGUAGE_CN {
		prompt = ai.PROMPT_RAG_CN
	}

	messages := append(append([]*types.MessageContext{}, history...), &types.MessageContext{
		Role:    types.USER_ROLE_USER,
		Content: query,
	})

	resp, err := ai.NewQueryOptions(ctx, e.driver, messages).
		WithPrompt(prompt).
		WithVar(ai.PROMPT_VAR_SITE_NAME, ai.SITE_NAME).
		WithVar(ai.PROMPT_VAR_DOCS, buildRagContext(hits)).
		Query()
	if err != nil {
		return nil, err
	}

	reply := resp.Message()
	outcome := &ragOutcome{
		Reply:    reply,
		NoAnswer: ai.IsNoAnswer(reply),
		Model:    resp.Model,
		Sources: lo.Map(hits, func(item types.RetrievedChunk, _ int) types.ChatSource {
			return types.ChatSource{
				DocumentID:    item.DocumentID,
				DocumentTitle: item.DocumentTitle,
				ChunkIndex:    item.ChunkIndex,
				Page:          item.Page,
				Score:         item.Score,
			}
		}),
		Trace: &types.RagTrace{
			ID:             utils.GenUniqIDStr(),
			ConversationID: conversationID,
			TopK:           e.cfg.TopK,
			ChunkSize:      e.cfg.ChunkSize,
			Overlap:        e.cfg.Overlap,
			EmbeddingModel: embeddingModel,
			ChatModel:      resp.Model,
			Chunks: lo.Map(hits, func(item types.RetrievedChunk, _ int) types.RagTraceChunk {
				return types.RagTraceChunk{
					DocumentID: item.DocumentID,
					ChunkID:    item.ChunkID,
					ChunkIndex: item.ChunkIndex,
					Score:      item.Score,
					Preview:    preview(item.Content, chunkPreviewLength),
				}
			}),
		},
	}
	return outcome, nil
}

// candidateDocuments 计算允许检索的文档候选集，返回非空 reason 表示短路。
func (e *ragEngine) candidateDocuments(ctx context.Context, documentID string) ([]string, types.ShortCircuitReason, error) {
	if documentID != "" {
		doc, err := e.docs.GetDocument(ctx, documentID)
		if err != nil && err != sql.ErrNoRows {
			return nil, "", err
		}
		if doc == nil || !doc.Retrievable() {
			return nil, types.REASON_DOCUMENT_NOT_AVAILABLE, nil
		}
		return []string{documentID}, "", nil
	}

	ids, err := e.docs.ListRetrievableIDs(ctx)
	if err != nil && err != sql.ErrNoRows {
		return nil, "", err
	}
	if len(ids) == 0 {
		return nil, types.REASON_NO_ENABLED_DOCUMENTS, nil
	}
	return ids, "", nil
}

// saveTrace 在助手消息落库后补全关联并持久化 trace。
func (e *ragEngine) saveTrace(ctx context.Context, trace *types.RagTrace, messageID string) error {
	trace.MessageID = messageID
	return e.traces.Create(ctx, *trace)
}

// buildRagContext 拼接带出处标注的参考资料块，模型可以据此
// 在回答中指明信息来源。
func buildRagContext(hits []types.RetrievedChunk) string {
	var b strings.Builder
	for i, item := range hits {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(fmt.Sprintf("[document: %s | chunk %d", item.DocumentTitle, item.ChunkIndex))
		if item.Page > 0 {
			b.WriteString(fmt.Sprintf(" | page %d", item.Page))
		}
		b.WriteString("]\n")
		b.WriteString(item.Content)
	}
	return b.String()
}

func preview(content string, limit int) string {
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
