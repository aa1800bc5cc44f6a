package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yixuan-h/pagemate/internal/common"
	"github.com/yixuan-h/pagemate/internal/httpapi/handlers"
	"github.com/yixuan-h/pagemate/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	r.GET("/ping", h.Ping)

	// browser side
	r.GET("/bridge", h.BridgeConnect)

	// popup side
	r.POST("/popup/open", h.OpenPopup)
	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions", h.NewSession)
	r.POST("/sessions/:session_id/activate", h.SwitchSession)
	r.GET("/sessions/:session_id/messages", h.ListMessages)
	r.POST("/messages", h.SubmitMessage)
	r.POST("/summarize", h.SummarizeActive)
	r.POST("/files", h.UploadFile)
	r.DELETE("/files", h.RemoveFile)
	r.POST("/page/summarize-control", h.TriggerPageSummarize)

	// page floating control (async job path)
	r.POST("/page/summarize", h.SubmitSummarizeJob)
	r.GET("/jobs/:job_id", h.GetJob)

	return r
}
