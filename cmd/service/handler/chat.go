package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

type SendChatMessageRequest struct {
	SessionID      string `json:"session_id" binding:"required"`
	Message        string `json:"message" binding:"required"`
	UserID         string `json:"user_id"`
	Mode           string `json:"mode"`
	DocumentID     string `json:"document_id"`
	ConversationID string `json:"conversation_id"`
	Channel        string `json:"channel"`
}

func (s *HttpSrv) SendChatMessage(c *gin.Context) {
	var req SendChatMessageRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	result, err := v1.NewChatLogic(c, s.Core).SendMessage(v1.SendMessageArgs{
		SessionID:      req.SessionID,
		Message:        req.Message,
		UserID:         req.UserID,
		Mode:           types.ChatRequestModeFromString(req.Mode),
		DocumentID:     req.DocumentID,
		ConversationID: req.ConversationID,
		Channel:        req.Channel,
	})
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.SendChatMessage", err))
		return
	}
	response.APISuccess(c, result)
}

func (s *HttpSrv) GetChatHistory(c *gin.Context) {
	conversationID, _ := c.Params.Get("conversation_id")
	page, pageSize := bindPagination(c)

	list, total, err := v1.NewChatLogic(c, s.Core).History(conversationID, page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.GetChatHistory", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}
