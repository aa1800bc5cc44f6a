package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yixuan-h/pagemate/internal/bridge"
	"github.com/yixuan-h/pagemate/internal/chat"
	"github.com/yixuan-h/pagemate/internal/common"
	"github.com/yixuan-h/pagemate/internal/config"
	"github.com/yixuan-h/pagemate/internal/ingest"
	"github.com/yixuan-h/pagemate/internal/store/rabbitmq"
)

type Handler struct {
	Cfg        config.Config
	Controller *chat.Controller
	Ingestor   *ingest.Ingestor
	Bridge     *bridge.Bridge
	Jobs       *chat.JobRepo
	Rabbit     *rabbitmq.Publisher

	upgrader websocket.Upgrader
}

func NewHandler(cfg config.Config, ctrl *chat.Controller, ing *ingest.Ingestor, br *bridge.Bridge, jobs *chat.JobRepo, rabbit *rabbitmq.Publisher) *Handler {
	return &Handler{
		Cfg:        cfg,
		Controller: ctrl,
		Ingestor:   ing,
		Bridge:     br,
		Jobs:       jobs,
		Rabbit:     rabbit,
		upgrader: websocket.Upgrader{
			// the daemon binds to loopback; the extension connects locally
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.Ok(c, gin.H{
		"bridge_connected": h.Bridge.Connected(),
	})
}
