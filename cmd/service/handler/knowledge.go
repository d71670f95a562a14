package handler

import (
	"io"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/dashmart-ai/dashmart/app/logic/v1"
	"github.com/dashmart-ai/dashmart/app/response"
	"github.com/dashmart-ai/dashmart/pkg/errors"
	"github.com/dashmart-ai/dashmart/pkg/i18n"
	"github.com/dashmart-ai/dashmart/pkg/types"
	"github.com/dashmart-ai/dashmart/pkg/utils"
)

// UploadKnowledgeDocument multipart 上传，file 为文件本体，
// title 与 tags(逗号分隔) 可选。
func (s *HttpSrv) UploadKnowledgeDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.APIError(c, errors.New("HttpSrv.UploadKnowledgeDocument.FormFile", i18n.ERROR_INVALIDARGUMENT, err).Code(422))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.APIError(c, errors.New("HttpSrv.UploadKnowledgeDocument.Open", i18n.ERROR_INTERNAL, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.APIError(c, errors.New("HttpSrv.UploadKnowledgeDocument.ReadAll", i18n.ERROR_INTERNAL, err))
		return
	}

	var tags []string
	if raw := c.PostForm("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	doc, err := v1.NewKnowledgeLogic(c, s.Core).Upload(fileHeader.Filename, c.PostForm("title"), tags, data)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.UploadKnowledgeDocument", err))
		return
	}
	response.APISuccess(c, doc)
}

func (s *HttpSrv) ListKnowledgeDocuments(c *gin.Context) {
	page, pageSize := bindPagination(c)
	opts := types.ListKnowledgeDocumentOptions{
		Status:   types.IngestStatus(c.Query("status")),
		Keywords: c.Query("keywords"),
	}
	if enabled := c.Query("enabled"); enabled != "" {
		val := enabled == "true"
		opts.Enabled = &val
	}

	list, total, err := v1.NewKnowledgeLogic(c, s.Core).ListDocuments(opts, page, pageSize)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListKnowledgeDocuments", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list":  list,
		"total": total,
	})
}

func (s *HttpSrv) GetKnowledgeDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	doc, err := v1.NewKnowledgeLogic(c, s.Core).GetDocument(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.GetKnowledgeDocument", err))
		return
	}
	response.APISuccess(c, doc)
}

type UpdateKnowledgeDocumentRequest struct {
	Title          *string  `json:"title"`
	Tags           []string `json:"tags"`
	EnabledForChat *bool    `json:"enabled_for_chat"`
}

func (s *HttpSrv) UpdateKnowledgeDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	var req UpdateKnowledgeDocumentRequest
	if err := utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err := v1.NewKnowledgeLogic(c, s.Core).Update(id, types.UpdateKnowledgeDocumentArgs{
		Title:          req.Title,
		Tags:           req.Tags,
		EnabledForChat: req.EnabledForChat,
	}); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.UpdateKnowledgeDocument", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) DeleteKnowledgeDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	if err := v1.NewKnowledgeLogic(c, s.Core).Delete(id); err != nil {
		response.APIError(c, errors.Trace("HttpSrv.DeleteKnowledgeDocument", err))
		return
	}
	response.APISuccess(c, nil)
}

func (s *HttpSrv) ReindexKnowledgeDocument(c *gin.Context) {
	id, _ := c.Params.Get("id")
	doc, err := v1.NewKnowledgeLogic(c, s.Core).Reindex(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ReindexKnowledgeDocument", err))
		return
	}
	response.APISuccess(c, doc)
}

func (s *HttpSrv) ListKnowledgeChunks(c *gin.Context) {
	id, _ := c.Params.Get("id")
	list, err := v1.NewKnowledgeLogic(c, s.Core).ListChunks(id)
	if err != nil {
		response.APIError(c, errors.Trace("HttpSrv.ListKnowledgeChunks", err))
		return
	}
	response.APISuccess(c, gin.H{
		"list": list,
	})
}
