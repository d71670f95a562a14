package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/types"
)

func (s *HttpSrv) GetRagTrace(c *gin.Context) {
	id, _ := c.Params.Get("id")
	trace, err := v1.NewRagTraceLogic(c, s.Core).GetTrace(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.GetRagTrace", err))
		return
	}
	response.APISuccess(c, trace)
}

func (s *HttpSrv) ListRagTraces(c *gin.Context) {
	page, pageSize := bindPagination(c)
	opts := types.ListRagTraceOptions{
		ConversationID: c.Query("conversation_id"),
		MessageID:      c.Query("message_id"),
		DocumentID:     c.Query("document_id"),
	}

	list, err := v1.NewRagTraceLogic(c, s.Core).ListTraces(opts, page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListRagTraces", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}
