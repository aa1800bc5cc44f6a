package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yixuan-h/pagemate/internal/chat"
	"github.com/yixuan-h/pagemate/internal/common"
)

// UploadFile ingests one attached document. The previous file stays active
// until the new one decodes end to end.
func (h *Handler) UploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "file field required")
		return
	}

	f, err := fh.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10002, "failed to open upload")
		return
	}
	defer f.Close()

	uploaded, err := h.Ingestor.Ingest(fh.Filename, fh.Size, f)
	if err != nil {
		switch chat.KindOf(err) {
		case chat.KindFileTooLarge:
			common.Fail(c, http.StatusRequestEntityTooLarge, 41301, chat.UserFacingMessage(err))
		case chat.KindUnsupportedFileType:
			common.Fail(c, http.StatusUnsupportedMediaType, 41501, chat.UserFacingMessage(err))
		default:
			common.Fail(c, http.StatusUnprocessableEntity, 42201, chat.UserFacingMessage(err))
		}
		return
	}

	h.Controller.AttachFile(uploaded)
	common.Ok(c, gin.H{
		"name":       uploaded.Name,
		"size_bytes": uploaded.SizeBytes,
		"extension":  uploaded.Extension,
	})
}

func (h *Handler) RemoveFile(c *gin.Context) {
	h.Controller.RemoveFile()
	common.Ok(c, nil)
}
