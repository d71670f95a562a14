package v1

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/dashmart-ai/dashmart/app/core"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

// RagTraceLogic 检索轨迹只读查询，纯排障用途。
type RagTraceLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewRagTraceLogic(ctx context.Context, core *core.Core) *RagTraceLogic {
	return &RagTraceLogic{
		ctx:  ctx,
		core: core,
	}
}

func (l *RagTraceLogic) GetTrace(id string) (*types.RagTrace, error) {
	trace, err := l.core.Store().RagTraceStore().GetTrace(l.ctx, id)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("RagTraceLogic.GetTrace.RagTraceStore.GetTrace", i18n.ERROR_INTERNAL, err)
	}
	if trace == nil {
		return nil, errors.New("RagTraceLogic.GetTrace.nil", i18n.ERROR_NOT_FOUND, err).Code(http.StatusNotFound)
	}
	return trace, nil
}

func (l *RagTraceLogic) ListTraces(opts types.ListRagTraceOptions, page, pageSize uint64) ([]types.RagTrace, error) {
	list, err := l.core.Store().RagTraceStore().ListTraces(l.ctx, opts, page, pageSize)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("RagTraceLogic.ListTraces.RagTraceStore.ListTraces", i18n.ERROR_INTERNAL, err)
	}
	return list, nil
}
