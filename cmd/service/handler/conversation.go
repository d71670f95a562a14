package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/cmd/service/middleware"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

func (s *HttpSrv) ListConversations(c *gin.Context) {
	page, pageSize := bindPagination(c)
	opts := types.ListConversationOptions{
		Status:        types.ConversationStatus(c.Query("status")),
		Queue:         c.Query("queue"),
		AssignedAdmin: c.Query("assigned_admin"),
		Unassigned:    c.Query("unassigned") == "true",
		Keywords:      c.Query("keywords"),
	}
	if needsReview := c.Query("needs_review"); needsReview != "" {
		val := needsReview == "true"
		opts.NeedsReview = &val
	}
	if c.Query("sla_breached") == "true" {
		opts.SLABreachedAt = time.Now().Unix()
	}

	list, total, err := v1.NewConversationLogic(c, s.Core).List(opts, page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListConversations", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}

func (s *HttpSrv) GetConversationDetail(c *gin.Context) {
	id, _ := c.Params.Get("id")
	detail, err := v1.NewConversationLogic(c, s.Core).GetDetail(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.GetConversationDetail", err))
		return
	}
	response.APISuccess(c, detail)
}

type AssignConversationRequest struct {
	AdminID string `json:"admin_id" binding:"required"`
}

func (s *HttpSrv) AssignConversation(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req AssignConversationRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	conv, err := v1.NewConversationLogic(c, s.Core).Assign(adminID(c), id, req.AdminID)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.AssignConversation", err))
		return
	}
	response.APISuccess(c, conv)
}

type TakeoverConversationRequest struct {
	Assist bool `json:"assist"`
}

func (s *HttpSrv) TakeoverConversation(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req TakeoverConversationRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	conv, err := v1.NewConversationLogic(c, s.Core).Takeover(adminID(c), id, req.Assist)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.TakeoverConversation", err))
		return
	}
	response.APISuccess(c, conv)
}

func (s *HttpSrv) ReturnConversationToAI(c *gin.Context) {
	id, _ := c.Params.Get("id")
	conv, err := v1.NewConversationLogic(c, s.Core).ReturnToAI(adminID(c), id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ReturnConversationToAI", err))
		return
	}
	response.APISuccess(c, conv)
}

func (s *HttpSrv) CloseConversation(c *gin.Context) {
	id, _ := c.Params.Get("id")
	conv, err := v1.NewConversationLogic(c, s.Core).Close(adminID(c), id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.CloseConversation", err))
		return
	}
	response.APISuccess(c, conv)
}

type SetNeedsReviewRequest struct {
	NeedsReview bool `json:"needs_review"`
}

func (s *HttpSrv) SetConversationNeedsReview(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req SetNeedsReviewRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	conv, err := v1.NewConversationLogic(c, s.Core).SetNeedsReview(adminID(c), id, req.NeedsReview)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.SetConversationNeedsReview", err))
		return
	}
	response.APISuccess(c, conv)
}

type SendHumanMessageRequest struct {
	Content      string `json:"content" binding:"required"`
	InternalNote bool   `json:"internal_note"`
}

func (s *HttpSrv) SendHumanMessage(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req SendHumanMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	msg, err := v1.NewConversationLogic(c, s.Core).SendHumanMessage(adminID(c), id, req.Content, req.InternalNote)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.SendHumanMessage", err))
		return
	}
	response.APISuccess(c, msg)
}

func (s *HttpSrv) ListConversationAudits(c *gin.Context) {
	page, pageSize := bindPagination(c)
	opts := types.ListAdminChatAuditOptions{
		AdminID:        c.Query("admin_id"),
		ConversationID: c.Query("conversation_id"),
		Action:         types.AdminAction(c.Query("action")),
	}

	list, total, err := v1.NewConversationLogic(c, s.Core).ListAudits(opts, page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListConversationAudits", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}

func adminID(c *gin.Context) string {
	if user := middleware.InjectAdminUser(c); user != nil {
		return user.ID
	}
	return ""
}
