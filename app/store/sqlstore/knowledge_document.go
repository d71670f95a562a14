package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/dashmart-ai/dashmart/pkg/register"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KnowledgeDocumentStore = NewKnowledgeDocumentStore(provider)
	})
}

type KnowledgeDocumentStore struct {
	CommonFields
}

// NewKnowledgeDocumentStore 创建一个新的 KnowledgeDocumentStore 实例
func NewKnowledgeDocumentStore(provider SqlProviderAchieve) *KnowledgeDocumentStore {
	repo := &KnowledgeDocumentStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_KNOWLEDGE_DOCUMENT)
	repo.SetAllColumns("id", "title", "file_key", "file_name", "file_type", "file_size",
		"status", "fail_reason", "enabled_for_chat", "tags", "chunk_count", "page_count",
		"embedding_model", "created_at", "updated_at")
	return repo
}

// Create 创建新的文档记录
func (s *KnowledgeDocumentStore) Create(ctx context.Context, data types.KnowledgeDocument) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	if data.UpdatedAt == 0 {
		data.UpdatedAt = time.Now().Unix()
	}
	if data.Tags == nil {
		data.Tags = pq.StringArray{}
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.Title, data.FileKey, data.FileName, data.FileType, data.FileSize,
			data.Status, data.FailReason, data.EnabledForChat, data.Tags, data.ChunkCount, data.PageCount,
			data.EmbeddingModel, data.CreatedAt, data.UpdatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// GetDocument 根据ID获取文档记录
func (s *KnowledgeDocumentStore) GetDocument(ctx context.Context, id string) (*types.KnowledgeDocument, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.KnowledgeDocument
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// Update 更新文档的可编辑字段
func (s *KnowledgeDocumentStore) Update(ctx context.Context, id string, args types.UpdateKnowledgeDocumentArgs) error {
	query := sq.Update(s.GetTable()).Set("updated_at", time.Now().Unix()).Where(sq.Eq{"id": id})
	if args.Title != nil {
		query = query.Set("title", *args.Title)
	}
	if args.Tags != nil {
		query = query.Set("tags", pq.StringArray(args.Tags))
	}
	if args.EnabledForChat != nil {
		query = query.Set("enabled_for_chat", *args.EnabledForChat)
	}

	queryString, sqlArgs, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, sqlArgs...)
	return err
}

// Delete 删除文档记录
func (s *KnowledgeDocumentStore) Delete(ctx context.Context, id string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// SetStatus 推进摄取状态
func (s *KnowledgeDocumentStore) SetStatus(ctx context.Context, id string, status types.IngestStatus, failReason string) error {
	query := sq.Update(s.GetTable()).
		Set("status", status).
		Set("fail_reason", failReason).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// FinishIngest 摄取成功，写入切片统计并置为 ready
func (s *KnowledgeDocumentStore) FinishIngest(ctx context.Context, id string, chunkCount, pageCount int, embeddingModel string) error {
	query := sq.Update(s.GetTable()).
		Set("status", types.INGEST_STATUS_READY).
		Set("fail_reason", "").
		Set("chunk_count", chunkCount).
		Set("page_count", pageCount).
		Set("embedding_model", embeddingModel).
		Set("updated_at", time.Now().Unix()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// ListDocuments 分页获取文档记录列表
func (s *KnowledgeDocumentStore) ListDocuments(ctx context.Context, opts types.ListKnowledgeDocumentOptions, page, pageSize uint64) ([]types.KnowledgeDocument, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).OrderBy("created_at DESC")
	if pageSize != types.NO_PAGINATION {
		query = query.Limit(pageSize).Offset((page - 1) * pageSize)
	}
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.KnowledgeDocument
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *KnowledgeDocumentStore) Total(ctx context.Context, opts types.ListKnowledgeDocumentOptions) (int64, error) {
	query := sq.Select("COUNT(*)").From(s.GetTable())
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var total int64
	if err = s.GetReplica(ctx).Get(&total, queryString, args...); err != nil {
		return 0, err
	}
	return total, nil
}

// ListRetrievableIDs 检索候选集：ready 且开启了 chat 的文档
func (s *KnowledgeDocumentStore) ListRetrievableIDs(ctx context.Context) ([]string, error) {
	query := sq.Select("id").From(s.GetTable()).
		Where(sq.Eq{"status": types.INGEST_STATUS_READY, "enabled_for_chat": true})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var ids []string
	if err = s.GetReplica(ctx).Select(&ids, queryString, args...); err != nil {
		return nil, err
	}
	return ids, nil
}
