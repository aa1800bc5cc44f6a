package bridge

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yixuan-h/pagemate/internal/chat"
)

// Actions understood by the content script on the other side of the socket.
const (
	ActionGetText            = "GET_TEXT"
	ActionCaptureScreenshot  = "CAPTURE_SCREENSHOT"
	ActionInjectProbe        = "INJECT_PROBE"
	ActionSummarizeFromPopup = "SUMMARIZE_FROM_POPUP"
)

type request struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action"`
}

type response struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Data    string `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Bridge holds the websocket connection from the browser extension and
// correlates request/response pairs by id. The extension may disconnect and
// reconnect at any time (tab reload, extension reload); every call pending
// across a disconnect fails with the distinct context-invalidated kind so
// callers can tell "reload the page" apart from a network problem.
type Bridge struct {
	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan response
}

func New() *Bridge {
	return &Bridge{pending: make(map[string]chan response)}
}

// Attach adopts a fresh connection, replacing and failing out whatever came
// before it, and starts routing responses.
func (b *Bridge) Attach(conn *websocket.Conn) {
	b.mu.Lock()
	old := b.conn
	b.conn = conn
	b.failPendingLocked()
	b.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	go b.readLoop(conn)
}

// Connected reports whether an extension is currently attached.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil
}

func (b *Bridge) readLoop(conn *websocket.Conn) {
	for {
		var resp response
		if err := conn.ReadJSON(&resp); err != nil {
			b.mu.Lock()
			if b.conn == conn {
				b.conn = nil
				b.failPendingLocked()
			}
			b.mu.Unlock()
			log.Printf("[bridge] connection closed: %v", err)
			return
		}

		b.mu.Lock()
		ch, ok := b.pending[resp.ID]
		if ok {
			delete(b.pending, resp.ID)
		}
		b.mu.Unlock()
		if ok {
			ch <- resp
		}
	}
}

// failPendingLocked drains every waiter with a closed channel; call waiters
// translate that into a context-invalidated error.
func (b *Bridge) failPendingLocked() {
	for id, ch := range b.pending {
		close(ch)
		delete(b.pending, id)
	}
}

func errGone() error {
	return chat.E(chat.KindContextInvalidated, "bridge", errors.New("extension not connected"))
}

// call sends one request and waits for its correlated response. There is no
// call timeout; a hung extension blocks the caller until the context is
// cancelled or the socket drops.
func (b *Bridge) call(ctx context.Context, action string) (string, error) {
	id := uuid.NewString()
	ch := make(chan response, 1)

	b.mu.Lock()
	conn := b.conn
	if conn == nil {
		b.mu.Unlock()
		return "", errGone()
	}
	b.pending[id] = ch
	err := conn.WriteJSON(request{ID: id, Action: action})
	if err != nil {
		delete(b.pending, id)
		b.mu.Unlock()
		return "", chat.E(chat.KindContextInvalidated, "bridge", err)
	}
	b.mu.Unlock()

	select {
	case <-ctx.Done():
		b.mu.Lock()
		delete(b.pending, id)
		b.mu.Unlock()
		return "", ctx.Err()
	case resp, ok := <-ch:
		if !ok {
			return "", errGone()
		}
		if !resp.Success {
			return "", errors.New(resp.Error)
		}
		return resp.Data, nil
	}
}

// DocumentHTML implements page.TextProbe.
func (b *Bridge) DocumentHTML(ctx context.Context) (string, error) {
	return b.call(ctx, ActionGetText)
}

// InjectProbe implements page.ProbeInjector.
func (b *Bridge) InjectProbe(ctx context.Context) error {
	_, err := b.call(ctx, ActionInjectProbe)
	return err
}

// CaptureScreenshot implements page.ScreenCapturer.
func (b *Bridge) CaptureScreenshot(ctx context.Context) (string, error) {
	return b.call(ctx, ActionCaptureScreenshot)
}

// NotifySummarize fires the popup-triggered summarize action at the page's
// floating control. Fire-and-forget: no response is awaited.
func (b *Bridge) NotifySummarize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.conn == nil {
		return errGone()
	}
	return b.conn.WriteJSON(request{Action: ActionSummarizeFromPopup})
}
