package v1

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"

	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/chunker"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/extract"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

type KnowledgeLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewKnowledgeLogic(ctx context.Context, core *core.Core) *KnowledgeLogic {
	return &KnowledgeLogic{
		ctx:  ctx,
		core: core,
	}
}

// Upload 接收原始文件并同步执行摄取。摄取失败不向调用方报错，
// 文档会停留在 failed 状态并带上失败原因，由管理端重试。
func (l *KnowledgeLogic) Upload(fileName, title string, tags []string, data []byte) (*types.KnowledgeDocument, error) {
	if title == "" {
		title = fileName
	}
	if len(data) == 0 {
		return nil, errors.New("KnowledgeLogic.Upload.empty", i18n.ERROR_DOCUMENT_EMPTY, nil).Code(http.StatusUnprocessableEntity)
	}
	maxSize := int64(l.core.Cfg().Chat.MaxUploadSizeMB) << 20
	if int64(len(data)) > maxSize {
		return nil, errors.New("KnowledgeLogic.Upload.size", i18n.ERROR_MORE_TAHN_MAX, fmt.Errorf("file size %d over limit %d", len(data), maxSize)).Code(http.StatusUnprocessableEntity)
	}

	fileType := types.FileTypeFromName(fileName)
	if fileType == types.FILE_TYPE_UNKNOWN {
		return nil, errors.New("KnowledgeLogic.Upload.fileType", i18n.ERROR_FILE_UNSUPPORTED, fmt.Errorf("unsupported file %s", fileName)).Code(http.StatusUnprocessableEntity)
	}

	doc := types.KnowledgeDocument{
		ID:             utils.GenUniqIDStr(),
		Title:          title,
		FileName:       fileName,
		FileType:       fileType,
		FileSize:       int64(len(data)),
		Status:         types.INGEST_STATUS_UPLOADED,
		EnabledForChat: true,
		Tags:           tags,
	}
	doc.FileKey = fmt.Sprintf("knowledge/%s/%s", doc.ID, fileName)

	if storage := l.core.FileStorage(); storage != nil {
		if err := storage.Upload(l.ctx, doc.FileKey, bytes.NewReader(data)); err != nil {
			return nil, errors.New("KnowledgeLogic.Upload.FileStorage.Upload", i18n.ERROR_INTERNAL, err)
		}
	}

	if err := l.core.Store().KnowledgeDocumentStore().Create(l.ctx, doc); err != nil {
		return nil, errors.New("KnowledgeLogic.Upload.KnowledgeDocumentStore.Create", i18n.ERROR_INTERNAL, err)
	}

	if err := l.ingest(&doc, data); err != nil {
		l.core.Metrics().IngestionInc("failed")
		_ = l.core.Store().KnowledgeDocumentStore().SetStatus(l.ctx, doc.ID, types.INGEST_STATUS_FAILED, err.Error())
		doc.Status = types.INGEST_STATUS_FAILED
		doc.FailReason = err.Error()
		return &doc, nil
	}
	l.core.Metrics().IngestionInc("ready")

	return l.GetDocument(doc.ID)
}

// ingest 摄取流水线：processing → 抽取 → 切片 → 逐片向量化 → 写入。
// 先清空旧切片与向量，保证同一文档重跑结果一致。
func (l *KnowledgeLogic) ingest(doc *types.KnowledgeDocument, data []byte) error {
	store := l.core.Store()
	if err := store.KnowledgeDocumentStore().SetStatus(l.ctx, doc.ID, types.INGEST_STATUS_PROCESSING, ""); err != nil {
		return err
	}

	result, err := extract.Extract(doc.FileName, "", data)
	if err != nil {
		return err
	}

	chatCfg := l.core.Cfg().Chat
	chunks := chunker.New(chatCfg.ChunkSize, chatCfg.Overlap).Split(result.Text)
	if len(chunks) == 0 {
		return extract.ErrEmptyDocument
	}

	driver := l.core.Srv().AI()
	if driver == nil {
		return fmt.Errorf("ai provider is not configured")
	}

	resp, err := driver.EmbeddingForDocument(l.ctx, doc.Title, lo.Map(chunks, func(item chunker.Chunk, _ int) string {
		return item.Text
	}))
	if err != nil {
		return err
	}
	if len(resp.Data) != len(chunks) {
		return fmt.Errorf("embedding result mismatch, got %d, expect %d", len(resp.Data), len(chunks))
	}

	headings := buildHeadingIndex(result.Text, doc.FileType)

	var (
		vectors   = make([]types.Vector, 0, len(chunks))
		chunkRows = make([]*types.KnowledgeChunk, 0, len(chunks))
	)
	for i, item := range chunks {
		page := result.PageAt(item.Start)
		heading := headings.headingFor(item.Start)
		vectors = append(vectors, types.Vector{
			ID:             types.VectorID(doc.ID, item.Index),
			DocumentID:     doc.ID,
			ChunkIndex:     item.Index,
			Page:           page,
			Heading:        heading,
			StartOffset:    item.Start,
			EndOffset:      item.End,
			Embedding:      pgvector.NewVector(resp.Data[i]),
			OriginalLength: len([]rune(item.Text)),
		})
		chunkRows = append(chunkRows, &types.KnowledgeChunk{
			ID:          utils.GenUniqIDStr(),
			DocumentID:  doc.ID,
			ChunkIndex:  item.Index,
			Content:     item.Text,
			StartOffset: item.Start,
			EndOffset:   item.End,
			Page:        page,
			Heading:     heading,
		})
	}

	if err = store.VectorStore().BatchDelete(l.ctx, doc.ID); err != nil {
		return err
	}
	if err = store.KnowledgeChunkStore().BatchDelete(l.ctx, doc.ID); err != nil {
		return err
	}
	if err = store.VectorStore().BatchCreate(l.ctx, vectors); err != nil {
		return err
	}
	if err = store.KnowledgeChunkStore().BatchCreate(l.ctx, chunkRows); err != nil {
		return err
	}

	return store.KnowledgeDocumentStore().FinishIngest(l.ctx, doc.ID, len(chunks), result.PageCount, resp.Model)
}

// Reindex 丢弃现有切片和向量后用当前配置重新摄取，
// 依赖对象存储中的原始文件。
func (l *KnowledgeLogic) Reindex(id string) (*types.KnowledgeDocument, error) {
	doc, err := l.GetDocument(id)
	if err != nil {
		return nil, err
	}
	if err = reindexable(doc); err != nil {
		return nil, err
	}

	storage := l.core.FileStorage()
	if storage == nil {
		return nil, errors.New("KnowledgeLogic.Reindex.storage", i18n.ERROR_INTERNAL, fmt.Errorf("object storage is not configured, cannot reload raw file"))
	}
	obj, err := storage.GetObject(l.ctx, doc.FileKey)
	if err != nil {
		return nil, errors.New("KnowledgeLogic.Reindex.GetObject", i18n.ERROR_INTERNAL, err)
	}

	if err = l.ingest(doc, obj.File); err != nil {
		l.core.Metrics().IngestionInc("failed")
		_ = l.core.Store().KnowledgeDocumentStore().SetStatus(l.ctx, doc.ID, types.INGEST_STATUS_FAILED, err.Error())
		doc.Status = types.INGEST_STATUS_FAILED
		doc.FailReason = err.Error()
		return doc, nil
	}
	l.core.Metrics().IngestionInc("ready")

	return l.GetDocument(doc.ID)
}

// reindexable 摄取中的文档不允许再次触发摄取，避免并发双摄取。
func reindexable(doc *types.KnowledgeDocument) error {
	if doc.Status == types.INGEST_STATUS_PROCESSING {
		return errors.New("KnowledgeLogic.Reindex.status", i18n.ERROR_DOCUMENT_NOTREADY, nil).Code(http.StatusConflict)
	}
	return nil
}

func (l *KnowledgeLogic) Update(id string, args types.UpdateKnowledgeDocumentArgs) error {
	if _, err := l.GetDocument(id); err != nil {
		return err
	}
	if err := l.core.Store().KnowledgeDocumentStore().Update(l.ctx, id, args); err != nil {
		return errors.New("KnowledgeLogic.Update.KnowledgeDocumentStore.Update", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

// Delete 连带清理切片、向量与对象存储中的原始文件。
func (l *KnowledgeLogic) Delete(id string) error {
	doc, err := l.GetDocument(id)
	if err != nil {
		return err
	}

	store := l.core.Store()
	if err = store.KnowledgeChunkStore().BatchDelete(l.ctx, id); err != nil {
		return errors.New("KnowledgeLogic.Delete.KnowledgeChunkStore.BatchDelete", i18n.ERROR_INTERNAL, err)
	}
	if err = store.VectorStore().BatchDelete(l.ctx, id); err != nil {
		return errors.New("KnowledgeLogic.Delete.VectorStore.BatchDelete", i18n.ERROR_INTERNAL, err)
	}
	if storage := l.core.FileStorage(); storage != nil && doc.FileKey != "" {
		if err = storage.Delete(l.ctx, doc.FileKey); err != nil {
			return errors.New("KnowledgeLogic.Delete.FileStorage.Delete", i18n.ERROR_INTERNAL, err)
		}
	}
	if err = store.KnowledgeDocumentStore().Delete(l.ctx, id); err != nil {
		return errors.New("KnowledgeLogic.Delete.KnowledgeDocumentStore.Delete", i18n.ERROR_INTERNAL, err)
	}
	return nil
}

func (l *KnowledgeLogic) GetDocument(id string) (*types.KnowledgeDocument, error) {
	doc, err := l.core.Store().KnowledgeDocumentStore().GetDocument(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("KnowledgeLogic.GetDocument.KnowledgeDocumentStore.GetDocument", i18n.ERROR_INTERNAL, err)
	}
	if doc == nil {
		return nil, errors.New("KnowledgeLogic.GetDocument.nil", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
	}
	return doc, nil
}

func (l *KnowledgeLogic) ListDocuments(opts types.ListKnowledgeDocumentOptions, page, pageSize uint64) ([]types.KnowledgeDocument, int64, error) {
	list, err := l.core.Store().KnowledgeDocumentStore().ListDocuments(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, 0, errors.New("KnowledgeLogic.ListDocuments.KnowledgeDocumentStore.ListDocuments", i18n.ERROR_INTERNAL, err)
	}
	total, err := l.core.Store().KnowledgeDocumentStore().Total(l.ctx, opts)
	if err != nil {
		return nil, 0, errors.New("KnowledgeLogic.ListDocuments.KnowledgeDocumentStore.Total", i18n.ERROR_INTERNAL, err)
	}
	return list, total, nil
}

func (l *KnowledgeLogic) ListChunks(documentID string) ([]types.KnowledgeChunk, error) {
	if _, err := l.GetDocument(documentID); err != nil {
		return nil, err
	}
	list, err := l.core.Store().KnowledgeChunkStore().List(l.ctx, documentID)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("KnowledgeLogic.ListChunks.KnowledgeChunkStore.List", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}

type headingSpan struct {
	start int // rune offset
	title string
}

type headingIndex []headingSpan

// buildHeadingIndex 仅对 markdown 生效，记录各级标题的 rune 偏移，
// 用于给切片标注最近的上文标题。
func buildHeadingIndex(text string, fileType types.FileType) headingIndex {
	if fileType != types.FILE_TYPE_MARKDOWN {
		return nil
	}

	var (
		index  headingIndex
		offset int
	)
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			index = append(index, headingSpan{
				start: offset,
				title: strings.TrimSpace(strings.TrimLeft(trimmed, "#")),
			})
		}
		offset += len([]rune(line)) + 1
	}
	return index
}

func (h headingIndex) headingFor(start int) string {
	title := ""
	for _, span := range h {
		if span.start > start {
			break
		}
		title = span.title
	}
	return title
}
