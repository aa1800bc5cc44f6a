package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yixuan-h/pagemate/internal/chat"
	"github.com/yixuan-h/pagemate/internal/common"
)

// OpenPopup starts a popup lifetime: sessions are restored, the most recent
// one becomes active, and any captured page context or uploaded file from a
// previous lifetime is dropped.
func (h *Handler) OpenPopup(c *gin.Context) {
	if err := h.Controller.Open(c.Request.Context()); err != nil {
		if errors.Is(err, chat.ErrBusy) {
			common.Fail(c, http.StatusConflict, 40901, "a request is in flight")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to restore sessions")
		return
	}
	common.Ok(c, gin.H{"active_session_id": h.Controller.ActiveID()})
}

func (h *Handler) ListSessions(c *gin.Context) {
	sessions := h.Controller.Sessions()

	type summary struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		UpdatedAt int64  `json:"updated_at"`
		Empty     bool   `json:"empty"`
	}
	out := make([]summary, 0, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		out = append(out, summary{
			ID:        s.ID,
			Title:     s.Title,
			UpdatedAt: s.UpdatedAt.UnixMilli(),
			Empty:     s.Empty(),
		})
	}

	common.Ok(c, gin.H{
		"sessions":          out,
		"active_session_id": h.Controller.ActiveID(),
	})
}

func (h *Handler) NewSession(c *gin.Context) {
	sess, err := h.Controller.NewSession(c.Request.Context())
	if err != nil {
		if errors.Is(err, chat.ErrBusy) {
			common.Fail(c, http.StatusConflict, 40901, "a request is in flight")
			return
		}
		common.Fail(c, http.StatusInternalServerError, 50001, "failed to create session")
		return
	}
	common.Ok(c, gin.H{"session_id": sess.ID, "title": sess.Title})
}

func (h *Handler) SwitchSession(c *gin.Context) {
	id := c.Param("session_id")
	if err := h.Controller.SwitchSession(id); err != nil {
		switch {
		case errors.Is(err, chat.ErrBusy):
			common.Fail(c, http.StatusConflict, 40901, "a request is in flight")
		case errors.Is(err, chat.ErrNoSession):
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}
	common.Ok(c, gin.H{"active_session_id": id})
}

func (h *Handler) ListMessages(c *gin.Context) {
	id := c.Param("session_id")
	sess, err := h.Controller.SessionByID(id)
	if err != nil {
		common.Fail(c, http.StatusNotFound, 40401, "session not found")
		return
	}
	common.Ok(c, gin.H{
		"session_id": sess.ID,
		"title":      sess.Title,
		"messages":   sess.Messages,
	})
}

type submitMessageReq struct {
	Text string `json:"text" binding:"required"`
}

// SubmitMessage runs one user turn through the controller. Remote failures
// come back as a normal model turn; only controller-level rejections
// (in-flight request, missing session) surface as HTTP errors.
func (h *Handler) SubmitMessage(c *gin.Context) {
	var req submitMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	reply, err := h.Controller.SubmitUserText(c.Request.Context(), req.Text)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBusy):
			common.Fail(c, http.StatusConflict, 40901, "a request is in flight")
		case errors.Is(err, chat.ErrNoSession):
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}
	if reply == nil {
		// empty input is a no-op
		common.Ok(c, gin.H{"reply": nil})
		return
	}
	common.Ok(c, gin.H{
		"session_id": h.Controller.ActiveID(),
		"reply":      reply,
	})
}

// SummarizeActive runs the fixed summary prompt in the active session.
func (h *Handler) SummarizeActive(c *gin.Context) {
	reply, err := h.Controller.Summarize(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrBusy):
			common.Fail(c, http.StatusConflict, 40901, "a request is in flight")
		case errors.Is(err, chat.ErrNoSession):
			common.Fail(c, http.StatusNotFound, 40401, "session not found")
		default:
			common.Fail(c, http.StatusInternalServerError, 50001, "internal error")
		}
		return
	}
	common.Ok(c, gin.H{
		"session_id": h.Controller.ActiveID(),
		"reply":      reply,
	})
}
