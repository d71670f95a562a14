package v1

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func newTestRagEngine(docs *fakeDocStore, chunks *fakeChunkStore, vectors *fakeVectorStore, traces *fakeTraceStore, driver *fakeDriver) *ragEngine {
	cfg := core.ChatConfig{}
	cfg.Normalize()
	cfg.TopK = 2
	return &ragEngine{
		docs:    docs,
		chunks:  chunks,
		vectors: vectors,
		traces:  traces,
		driver:  driver,
		cfg:     cfg,
	}
}

func readyDoc(id, title string) *types.KnowledgeDocument {
	return &types.KnowledgeDocument{
		ID:             id,
		Title:          title,
		Status:         types.INGEST_STATUS_READY,
		EnabledForChat: true,
	}
}

func TestRagShortCircuitDocumentNotAvailable(t *testing.T) {
	driver := &fakeDriver{}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{
		"d1": {ID: "d1", Status: types.INGEST_STATUS_PROCESSING, EnabledForChat: true},
	}}
	engine := newTestRagEngine(docs, &fakeChunkStore{}, &fakeVectorStore{}, &fakeTraceStore{}, driver)

	outcome, err := engine.processMessage(context.Background(), "c1", "d1", "refund policy?", nil)
	require.NoError(t, err)
	assert.True(t, outcome.NoAnswer)
	assert.Equal(t, types.REASON_DOCUMENT_NOT_AVAILABLE, outcome.Reason)
	// 短路时既不向量化也不生成
	assert.Zero(t, driver.queryCalls)
	assert.Zero(t, driver.embedCalls)
	assert.Nil(t, outcome.Trace)
}

func TestRagShortCircuitUnknownDocument(t *testing.T) {
	driver := &fakeDriver{}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{}}
	engine := newTestRagEngine(docs, &fakeChunkStore{}, &fakeVectorStore{}, &fakeTraceStore{}, driver)

	outcome, err := engine.processMessage(context.Background(), "c1", "missing", "hi", nil)
	require.NoError(t, err)
	assert.Equal(t, types.REASON_DOCUMENT_NOT_AVAILABLE, outcome.Reason)
	assert.Zero(t, driver.queryCalls)
}

func TestRagShortCircuitNoEnabledDocuments(t *testing.T) {
	driver := &fakeDriver{}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{
		"d1": {ID: "d1", Status: types.INGEST_STATUS_READY, EnabledForChat: false},
	}}
	engine := newTestRagEngine(docs, &fakeChunkStore{}, &fakeVectorStore{}, &fakeTraceStore{}, driver)

	outcome, err := engine.processMessage(context.Background(), "c1", "", "refund policy?", nil)
	require.NoError(t, err)
	assert.Equal(t, types.REASON_NO_ENABLED_DOCUMENTS, outcome.Reason)
	assert.Zero(t, driver.queryCalls)
	assert.Zero(t, driver.embedCalls)
}

func TestRagShortCircuitNoMatches(t *testing.T) {
	driver := &fakeDriver{}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{"d1": readyDoc("d1", "FAQ")}}
	engine := newTestRagEngine(docs, &fakeChunkStore{}, &fakeVectorStore{}, &fakeTraceStore{}, driver)

	outcome, err := engine.processMessage(context.Background(), "c1", "", "refund policy?", nil)
	require.NoError(t, err)
	assert.Equal(t, types.REASON_NO_MATCHES, outcome.Reason)
	// 向量化发生了，但没有触达生成模型
	assert.Equal(t, 1, driver.embedCalls)
	assert.Zero(t, driver.queryCalls)
}

func TestRagAnswerWithProvenance(t *testing.T) {
	driver := &fakeDriver{replies: []string{"Refunds are processed within 5 days."}}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{"d1": readyDoc("d1", "Refund FAQ")}}
	chunks := &fakeChunkStore{chunks: map[string][]types.KnowledgeChunk{
		"d1": {
			{ID: "ch0", DocumentID: "d1", ChunkIndex: 0, Content: "Refunds are processed within 5 days."},
			{ID: "ch1", DocumentID: "d1", ChunkIndex: 1, Content: "Contact support for damaged items."},
		},
	}}
	vectors := &fakeVectorStore{hits: []types.VectorQueryResult{
		{ID: "d1_0", DocumentID: "d1", ChunkIndex: 0, Cos: 0.92},
		{ID: "d1_1", DocumentID: "d1", ChunkIndex: 1, Cos: 0.71},
	}}
	traces := &fakeTraceStore{}
	engine := newTestRagEngine(docs, chunks, vectors, traces, driver)

	outcome, err := engine.processMessage(context.Background(), "c1", "", "when do I get my refund?", nil)
	require.NoError(t, err)
	assert.False(t, outcome.NoAnswer)
	assert.Empty(t, outcome.Reason)
	assert.Equal(t, "Refunds are processed within 5 days.", outcome.Reply)

	require.Len(t, outcome.Sources, 2)
	assert.Equal(t, "Refund FAQ", outcome.Sources[0].DocumentTitle)
	assert.Equal(t, float32(0.92), outcome.Sources[0].Score)

	require.NotNil(t, outcome.Trace)
	assert.Equal(t, "c1", outcome.Trace.ConversationID)
	assert.Equal(t, 2, outcome.Trace.TopK)
	require.Len(t, outcome.Trace.Chunks, 2)
	assert.Equal(t, "ch0", outcome.Trace.Chunks[0].ChunkID)

	// trace 在助手消息落库后才持久化
	assert.Empty(t, traces.created)
	require.NoError(t, engine.saveTrace(context.Background(), outcome.Trace, "m9"))
	require.Len(t, traces.created, 1)
	assert.Equal(t, "m9", traces.created[0].MessageID)

	// grounding prompt 带上了出处标注的参考块
	require.Len(t, driver.queryInputs, 1)
	system := driver.queryInputs[0][0]
	assert.Equal(t, types.USER_ROLE_SYSTEM, system.Role)
	assert.Contains(t, system.Content, "[document: Refund FAQ | chunk 0]")
	assert.Contains(t, system.Content, ai.NO_ANSWER_PHRASE)
}

func TestRagRefusalDetected(t *testing.T) {
	driver := &fakeDriver{replies: []string{ai.NO_ANSWER_PHRASE}}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{"d1": readyDoc("d1", "FAQ")}}
	chunks := &fakeChunkStore{chunks: map[string][]types.KnowledgeChunk{
		"d1": {{ID: "ch0", DocumentID: "d1", ChunkIndex: 0, Content: "Delivery areas list."}},
	}}
	vectors := &fakeVectorStore{hits: []types.VectorQueryResult{
		{ID: "d1_0", DocumentID: "d1", ChunkIndex: 0, Cos: 0.5},
	}}
	engine := newTestRagEngine(docs, chunks, vectors, &fakeTraceStore{}, driver)

	outcome, err := engine.processMessage(context.Background(), "c1", "", "do you sell cars?", nil)
	require.NoError(t, err)
	assert.True(t, outcome.NoAnswer)
	assert.Empty(t, outcome.Reason)
	assert.Equal(t, 1, driver.queryCalls)
}

func TestRagAllowListFiltersOtherDocuments(t *testing.T) {
	driver := &fakeDriver{}
	docs := &fakeDocStore{docs: map[string]*types.KnowledgeDocument{
		"d1": readyDoc("d1", "FAQ"),
		"d2": {ID: "d2", Status: types.INGEST_STATUS_READY, EnabledForChat: false},
	}}
	vectors := &fakeVectorStore{hits: []types.VectorQueryResult{
		{ID: "d2_0", DocumentID: "d2", ChunkIndex: 0, Cos: 0.99},
	}}
	engine := newTestRagEngine(docs, &fakeChunkStore{}, vectors, &fakeTraceStore{}, driver)

	// d2 被禁用，唯一的命中被 allow-list 挡掉
	outcome, err := engine.processMessage(context.Background(), "c1", "", "anything", nil)
	require.NoError(t, err)
	assert.Equal(t, types.REASON_NO_MATCHES, outcome.Reason)
}
