package v1

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/pgvector/pgvector-go"

	"github.com/dashmart-ai/dashmart/app/store"
	"github.com/dashmart-ai/dashmart/pkg/ai"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

func TestMain(m *testing.M) {
	utils.SetupIDWorker(1)
	os.Exit(m.Run())
}

// fakeDriver 可编程的 AI 驱动，记录每次调用以便断言 no-call 保证。
type fakeDriver struct {
	queryCalls  int
	embedCalls  int
	queryInputs [][]*types.MessageContext
	replies     []string
	queryErr    error
	embedErr    error
}

func (d *fakeDriver) Query(_ context.Context, msgs []*types.MessageContext) (ai.GenerateResponse, error) {
	d.queryCalls++
	d.queryInputs = append(d.queryInputs, msgs)
	if d.queryErr != nil {
		return ai.GenerateResponse{}, d.queryErr
	}
	reply := "ok"
	if len(d.replies) > 0 {
		reply = d.replies[0]
		d.replies = d.replies[1:]
	}
	return ai.GenerateResponse{Received: []string{reply}, Model: "fake-chat"}, nil
}

func (d *fakeDriver) ChatModel() string { return "fake-chat" }
func (d *fakeDriver) Lang() string      { return ai.MODEL_BASE_LANGUAGE_EN }
func (d *fakeDriver) Name() string      { return "fake" }

func (d *fakeDriver) EmbeddingForQuery(_ context.Context, content []string) (ai.EmbeddingResult, error) {
	d.embedCalls++
	if d.embedErr != nil {
		return ai.EmbeddingResult{}, d.embedErr
	}
	data := make([][]float32, len(content))
	for i := range data {
		data[i] = []float32{0.1, 0.2, 0.3}
	}
	return ai.EmbeddingResult{Model: "fake-embedding", Data: data}, nil
}

func (d *fakeDriver) EmbeddingForDocument(ctx context.Context, _ string, content []string) (ai.EmbeddingResult, error) {
	return d.EmbeddingForQuery(ctx, content)
}

func (d *fakeDriver) EmbeddingModel() string { return "fake-embedding" }

// 以下 fake 只实现被测路径用到的方法，其余由内嵌接口兜底。

type fakeDocStore struct {
	store.KnowledgeDocumentStore
	docs map[string]*types.KnowledgeDocument
}

func (s *fakeDocStore) GetDocument(_ context.Context, id string) (*types.KnowledgeDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *doc
	return &cp, nil
}

func (s *fakeDocStore) ListRetrievableIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id, doc := range s.docs {
		if doc.Retrievable() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type fakeChunkStore struct {
	store.KnowledgeChunkStore
	chunks map[string][]types.KnowledgeChunk // by document id
}

func (s *fakeChunkStore) List(_ context.Context, documentID string) ([]types.KnowledgeChunk, error) {
	return s.chunks[documentID], nil
}

type fakeVectorStore struct {
	store.VectorStore
	hits []types.VectorQueryResult
}

func (s *fakeVectorStore) Query(_ context.Context, opts types.GetVectorsOptions, _ pgvector.Vector, limit uint64) ([]types.VectorQueryResult, error) {
	allowed := make(map[string]bool, len(opts.AllowedDocumentIDs))
	for _, id := range opts.AllowedDocumentIDs {
		allowed[id] = true
	}
	var out []types.VectorQueryResult
	for _, hit := range s.hits {
		if !allowed[hit.DocumentID] {
			continue
		}
		out = append(out, hit)
		if uint64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

type fakeTraceStore struct {
	store.RagTraceStore
	created []types.RagTrace
}

func (s *fakeTraceStore) Create(_ context.Context, data types.RagTrace) error {
	s.created = append(s.created, data)
	return nil
}

type fakeConversationStore struct {
	store.ConversationStore
	mu   sync.Mutex
	byID map[string]*types.Conversation
}

func newFakeConversationStore() *fakeConversationStore {
	return &fakeConversationStore{byID: make(map[string]*types.Conversation)}
}

func (s *fakeConversationStore) Create(_ context.Context, data types.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := data
	s.byID[data.ID] = &cp
	return nil
}

func (s *fakeConversationStore) GetConversation(_ context.Context, id string) (*types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *conv
	return &cp, nil
}

func (s *fakeConversationStore) GetBySession(_ context.Context, userID, sessionID string) (*types.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *types.Conversation
	for _, conv := range s.byID {
		if conv.UserID != userID || conv.SessionID != sessionID {
			continue
		}
		if latest == nil || conv.CreatedAt > latest.CreatedAt {
			latest = conv
		}
	}
	if latest == nil {
		return nil, sql.ErrNoRows
	}
	cp := *latest
	return &cp, nil
}

func (s *fakeConversationStore) Update(_ context.Context, id string, args types.UpdateConversationArgs) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("conversation %s not found", id)
	}
	if args.Status != nil {
		conv.Status = *args.Status
	}
	if args.Mode != nil {
		conv.Mode = *args.Mode
	}
	if args.Queue != nil {
		conv.Queue = *args.Queue
	}
	if args.Priority != nil {
		conv.Priority = *args.Priority
	}
	if args.AssignedAdmin != nil {
		conv.AssignedAdmin = *args.AssignedAdmin
	}
	if args.NeedsReview != nil {
		conv.NeedsReview = *args.NeedsReview
	}
	if args.Confidence != nil {
		conv.Confidence = *args.Confidence
	}
	if args.SlaBreached != nil {
		conv.SlaBreached = *args.SlaBreached
	}
	if args.SlaDueAt != nil {
		conv.SlaDueAt = *args.SlaDueAt
	}
	if args.LastMessageAt != nil {
		conv.LastMessageAt = *args.LastMessageAt
	}
	return nil
}

type fakeMessageStore struct {
	store.ConversationMessageStore
	mu      sync.Mutex
	created []types.ConversationMessage
}

func (s *fakeMessageStore) Create(_ context.Context, data types.ConversationMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, data)
	return nil
}

func (s *fakeMessageStore) byRole(role types.MessageRole) []types.ConversationMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.ConversationMessage
	for _, msg := range s.created {
		if msg.Role == role {
			out = append(out, msg)
		}
	}
	return out
}

type fakeAuditStore struct {
	store.AdminChatAuditStore
	mu      sync.Mutex
	created []types.AdminChatAudit
}

func (s *fakeAuditStore) Create(_ context.Context, data types.AdminChatAudit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = append(s.created, data)
	return nil
}

type publishedEvent struct {
	eventType types.WsEventType
	event     *types.ConversationEvent
	adminOnly bool
}

type eventRecorder struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (r *eventRecorder) publish(eventType types.WsEventType, event *types.ConversationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{eventType: eventType, event: event})
	return nil
}

func (r *eventRecorder) publishAdmin(eventType types.WsEventType, event *types.ConversationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, publishedEvent{eventType: eventType, event: event, adminOnly: true})
	return nil
}

func (r *eventRecorder) ofType(eventType types.WsEventType) []publishedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []publishedEvent
	for _, e := range r.events {
		if e.eventType == eventType {
			out = append(out, e)
		}
	}
	return out
}

func newTestConvEngine(conversations *fakeConversationStore, messages *fakeMessageStore, audits *fakeAuditStore, recorder *eventRecorder) *convEngine {
	return &convEngine{
		conversations: conversations,
		messages:      messages,
		audits:        audits,
		publish:       recorder.publish,
		publishAdmin:  recorder.publishAdmin,
		locks:         cmap.New[*sync.Mutex](),
		now:           time.Now,
		slaDuration:   15 * time.Minute,
	}
}

func containsMessage(messages []types.ConversationMessage, content string) bool {
	for _, msg := range messages {
		if strings.Contains(msg.Content, content) {
			return true
		}
	}
	return false
}
