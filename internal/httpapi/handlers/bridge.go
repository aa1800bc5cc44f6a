package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yixuan-h/pagemate/internal/common"
)

// BridgeConnect upgrades the content script's websocket and attaches it as
// the active browser bridge. A reconnect replaces the previous socket and
// fails out anything pending on it.
func (h *Handler) BridgeConnect(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[bridge] upgrade failed: %v", err)
		return
	}
	h.Bridge.Attach(conn)
	log.Printf("[bridge] extension attached from %s", c.ClientIP())
}

// TriggerPageSummarize asks the page's floating control to run its own
// summarize flow (the popup-triggered action).
func (h *Handler) TriggerPageSummarize(c *gin.Context) {
	if err := h.Bridge.NotifySummarize(); err != nil {
		common.Fail(c, http.StatusBadGateway, 50201, "extension not connected")
		return
	}
	common.Ok(c, nil)
}
