package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yixuan-h/pagemate/internal/chat"
	"github.com/yixuan-h/pagemate/internal/common"
)

type summarizePageReq struct {
	TabID string `json:"tab_id"`
	Text  string `json:"text" binding:"required"`
}

// SubmitSummarizeJob is the floating-control path: the content script sends
// the page text, the daemon captures the screenshot, and the remote call
// happens in the background worker. The content script polls the job.
func (h *Handler) SubmitSummarizeJob(c *gin.Context) {
	var req summarizePageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	shot, err := h.Bridge.CaptureScreenshot(c.Request.Context())
	if err != nil {
		log.Printf("[summarize] screenshot capture failed: %v", err)
		common.Fail(c, http.StatusBadGateway, 50201, chat.UserFacingMessage(err))
		return
	}

	jobID, err := common.NewULID()
	if err != nil {
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	job := &chat.Job{
		ID:         jobID,
		TabID:      req.TabID,
		PageText:   req.Text,
		Screenshot: shot,
		Status:     chat.JobQueued,
	}
	if err := h.Jobs.CreateJob(c.Request.Context(), job); err != nil {
		log.Printf("[summarize] create job failed: %v", err)
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	if err := h.Rabbit.PublishJob(c.Request.Context(), job.ID); err != nil {
		// the background domain is gone; this is the reload case, not a
		// transient network error
		log.Printf("[summarize] publish failed job=%s err=%v", job.ID, err)
		inv := chat.E(chat.KindContextInvalidated, "summarize", err)
		_ = h.Jobs.MarkJobFailed(c.Request.Context(), job.ID, chat.UserFacingMessage(inv))
		common.Fail(c, http.StatusBadGateway, 50202, chat.UserFacingMessage(inv))
		return
	}

	common.Ok(c, gin.H{"job_id": job.ID})
}

func (h *Handler) GetJob(c *gin.Context) {
	jobID := c.Param("job_id")
	if jobID == "" {
		common.Fail(c, http.StatusBadRequest, 10002, "job_id required")
		return
	}

	j, err := h.Jobs.GetJobByID(c.Request.Context(), jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			common.Fail(c, http.StatusNotFound, 40402, "job not found")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		return
	}

	common.Ok(c, gin.H{
		"job": gin.H{
			"id":         j.ID,
			"status":     j.Status,
			"result":     j.Result,
			"error":      j.Error,
			"created_at": j.CreatedAt,
			"updated_at": j.UpdatedAt,
		},
	})
}
