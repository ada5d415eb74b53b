package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"DocPilot/internal/modules/rag/application/service"
	"DocPilot/pkg/back"
	"DocPilot/pkg/xerr"
	"DocPilot/pkg/zlog"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// multipart 头部等额外开销
const multipartOverhead = 1 << 20

// DocumentHandler 文档上传、列表与删除
type DocumentHandler struct {
	docSvc   service.DocumentService
	maxBytes int64
}

func NewDocumentHandler(docSvc service.DocumentService, maxBytes int64) *DocumentHandler {
	return &DocumentHandler{docSvc: docSvc, maxBytes: maxBytes}
}

// Upload 上传并摄入单个文件
//
// 路由: POST /api/upload
// 请求体: multipart/form-data，字段 file
// 响应体: UploadRespond
func (h *DocumentHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes+multipartOverhead)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			back.Error(c, xerr.BadRequest, "file exceeds upload size limit")
			return
		}
		zlog.Warn("upload without file", zap.Error(err))
		back.Error(c, xerr.BadRequest, "file is required")
		return
	}
	if h.maxBytes > 0 && fh.Size > h.maxBytes {
		back.Error(c, xerr.BadRequest, "file exceeds upload size limit")
		return
	}

	f, err := fh.Open()
	if err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		back.Error(c, xerr.BadRequest, xerr.ErrParam.Message)
		return
	}

	res, err := h.docSvc.Upload(c.Request.Context(), fh.Filename, data)
	if err != nil {
		zlog.Warn("document upload failed", zap.String("filename", fh.Filename), zap.Error(err))
	}
	back.Result(c, res, err)
}

// List 路由: GET /api/documents
func (h *DocumentHandler) List(c *gin.Context) {
	res, err := h.docSvc.List(c.Request.Context())
	back.Result(c, res, err)
}

// Delete 路由: DELETE /api/documents/:document_id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := strings.TrimSpace(c.Param("document_id"))
	res, err := h.docSvc.Delete(c.Request.Context(), id)
	back.Result(c, res, err)
}

// Health 路由: GET /api/health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
