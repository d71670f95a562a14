package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/dashmart-ai/dashmart/pkg/register"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KnowledgeChunkStore = NewKnowledgeChunkStore(provider)
	})
}

type KnowledgeChunkStore struct {
	CommonFields
}

// NewKnowledgeChunkStore 创建一个新的 KnowledgeChunkStore 实例
func NewKnowledgeChunkStore(provider SqlProviderAchieve) *KnowledgeChunkStore {
	repo := &KnowledgeChunkStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_KNOWLEDGE_CHUNK)
	repo.SetAllColumns("id", "document_id", "chunk_index", "content", "start_offset", "end_offset", "page", "heading", "created_at")
	return repo
}

// Create 创建新的文档切片记录
func (s *KnowledgeChunkStore) Create(ctx context.Context, data types.KnowledgeChunk) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns(s.GetAllColumns()...).
		Values(data.ID, data.DocumentID, data.ChunkIndex, data.Content, data.StartOffset, data.EndOffset, data.Page, data.Heading, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// BatchCreate 批量创建文档切片记录
func (s *KnowledgeChunkStore) BatchCreate(ctx context.Context, data []*types.KnowledgeChunk) error {
	if len(data) == 0 {
		return nil
	}

	query := sq.Insert(s.GetTable()).Columns(s.GetAllColumns()...)
	for _, item := range data {
		if item.CreatedAt == 0 {
			item.CreatedAt = time.Now().Unix()
		}
		query = query.Values(item.ID, item.DocumentID, item.ChunkIndex, item.Content, item.StartOffset, item.EndOffset, item.Page, item.Heading, item.CreatedAt)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// Get 根据ID获取文档切片记录
func (s *KnowledgeChunkStore) Get(ctx context.Context, documentID, id string) (*types.KnowledgeChunk, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"document_id": documentID, "id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.KnowledgeChunk
	if err := s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// List 按切片顺序返回文档的全部切片
func (s *KnowledgeChunkStore) List(ctx context.Context, documentID string) ([]types.KnowledgeChunk, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"document_id": documentID}).
		OrderBy("chunk_index ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.KnowledgeChunk
	if err := s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// BatchDelete 删除文档的全部切片，reindex 与删除文档时调用
func (s *KnowledgeChunkStore) BatchDelete(ctx context.Context, documentID string) error {
	query := sq.Delete(s.GetTable()).Where(sq.Eq{"document_id": documentID})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}
