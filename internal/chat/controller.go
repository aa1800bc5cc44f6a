package chat

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
)

// State of the controller's send loop.
type State int

const (
	StateIdle State = iota
	StateSending
)

// ErrBusy rejects a submission while another request is in flight. One
// remote request globally; concurrent cross-session sends are out of scope.
var ErrBusy = errors.New("chat: a request is already in flight")

// ErrNoSession is returned for operations on an unknown session id.
var ErrNoSession = errors.New("chat: session not found")

// Responder performs the remote model call.
type Responder interface {
	GenerateContent(ctx context.Context, contents []Message) (string, error)
}

// ContextCapturer produces the page context for the active tab.
type ContextCapturer interface {
	Capture(ctx context.Context) (PageContext, error)
}

// Controller is the orchestration core: it owns the active session id, the
// lazily captured page context and the uploaded file for one popup lifetime,
// updates the session store on every transition and serializes remote calls
// behind an explicit Idle/Sending state machine.
type Controller struct {
	mu       sync.Mutex
	store    *Store
	remote   Responder
	capturer ContextCapturer

	state    State
	activeID string
	pageCtx  *PageContext
	file     *UploadedFile
}

func NewController(store *Store, remote Responder, capturer ContextCapturer) *Controller {
	return &Controller{
		store:    store,
		remote:   remote,
		capturer: capturer,
	}
}

// Open starts a popup lifetime: restores persisted sessions, activates the
// most recently used one (or creates a fresh one for an empty store), and
// drops any previously captured page context and uploaded file.
func (c *Controller) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateSending {
		return ErrBusy
	}
	if err := c.store.Load(ctx); err != nil {
		return err
	}

	id := c.store.MostRecent()
	if id == "" {
		sess, err := c.store.CreateSession()
		if err != nil {
			return err
		}
		id = sess.ID
		c.persistLocked(ctx)
	}

	c.activeID = id
	c.pageCtx = nil
	c.file = nil
	return nil
}

// SubmitUserText appends a user turn to the active session and runs one
// remote round-trip. Empty (after trimming) input is a no-op. Returns the
// appended model turn; remote failures are recorded into the conversation as
// a model turn, not returned as an error.
func (c *Controller) SubmitUserText(ctx context.Context, text string) (*Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	return c.submit(ctx, text, func(sess *Session) {
		if countRole(sess.Messages, RoleUser) == 1 {
			sess.Title = deriveTitle(text)
		}
	})
}

// Summarize runs the fixed summary prompt, the popup's one-click path.
func (c *Controller) Summarize(ctx context.Context) (*Message, error) {
	return c.submit(ctx, "Summarize this page for me.", func(sess *Session) {
		if sess.Title == "New Chat" {
			sess.Title = "Page Summary"
		}
	})
}

func (c *Controller) submit(ctx context.Context, text string, retitle func(*Session)) (*Message, error) {
	c.mu.Lock()
	if c.state == StateSending {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	sess, ok := c.store.Get(c.activeID)
	if !ok {
		c.mu.Unlock()
		return nil, ErrNoSession
	}
	c.state = StateSending

	// The user turn lands in the session before anything remote happens.
	sess.Messages = append(sess.Messages, NewUserMessage(text))
	retitle(sess)
	c.persistLocked(ctx)

	history := make([]Message, len(sess.Messages))
	copy(history, sess.Messages)
	file := c.file
	c.mu.Unlock()

	reply := c.roundTrip(ctx, history, file)

	c.mu.Lock()
	sess.Messages = append(sess.Messages, reply)
	c.persistLocked(ctx)
	c.state = StateIdle
	c.mu.Unlock()
	return &reply, nil
}

// roundTrip captures page context if this lifetime has none yet, composes
// the payload and calls the remote API. Every failure becomes a model turn
// carrying a user-facing message; nothing propagates further.
func (c *Controller) roundTrip(ctx context.Context, history []Message, file *UploadedFile) Message {
	pageCtx, err := c.ensurePageContext(ctx)
	if err != nil {
		log.Printf("[controller] context capture failed: %v", err)
		return NewModelMessage(UserFacingMessage(err))
	}

	contents := Compose(history, pageCtx, file)
	text, err := c.remote.GenerateContent(ctx, contents)
	if err != nil {
		log.Printf("[controller] remote call failed: %v", err)
		return NewModelMessage(UserFacingMessage(err))
	}
	return NewModelMessage(text)
}

func (c *Controller) ensurePageContext(ctx context.Context) (PageContext, error) {
	c.mu.Lock()
	cached := c.pageCtx
	c.mu.Unlock()
	if cached != nil {
		return *cached, nil
	}

	captured, err := c.capturer.Capture(ctx)
	if err != nil {
		return PageContext{}, err
	}

	c.mu.Lock()
	c.pageCtx = &captured
	c.mu.Unlock()
	return captured, nil
}

// SwitchSession activates an existing session. Rejected while Sending.
func (c *Controller) SwitchSession(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSending {
		return ErrBusy
	}
	if _, ok := c.store.Get(id); !ok {
		return ErrNoSession
	}
	c.activeID = id
	return nil
}

// NewSession creates a session and makes it active. Rejected while Sending.
func (c *Controller) NewSession(ctx context.Context) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateSending {
		return Session{}, ErrBusy
	}
	sess, err := c.store.CreateSession()
	if err != nil {
		return Session{}, err
	}
	c.activeID = sess.ID
	c.persistLocked(ctx)
	return copySession(sess), nil
}

// AttachFile replaces the active uploaded file. The ingestor only hands over
// fully decoded files, so a failed upload never disturbs the previous one.
func (c *Controller) AttachFile(f UploadedFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file = &f
}

// RemoveFile discards the active uploaded file, if any.
func (c *Controller) RemoveFile() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.file = nil
}

// ActiveFile returns the current uploaded file, if any.
func (c *Controller) ActiveFile() (UploadedFile, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.file == nil {
		return UploadedFile{}, false
	}
	return *c.file, true
}

// ActiveID returns the active session id.
func (c *Controller) ActiveID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activeID
}

// State returns the current send-loop state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Sessions returns deep-copied sessions, newest first.
func (c *Controller) Sessions() []Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Snapshot()
}

// SessionByID returns a deep copy of one session.
func (c *Controller) SessionByID(id string) (Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.store.Get(id)
	if !ok {
		return Session{}, ErrNoSession
	}
	return copySession(sess), nil
}

// persistLocked writes the store. A failed write is surfaced as a warning
// and the in-memory session carries on; the conversation must not die on a
// storage hiccup.
func (c *Controller) persistLocked(ctx context.Context) {
	if err := c.store.Persist(ctx, c.activeID); err != nil {
		log.Printf("[controller] warn: persisting sessions failed: %v", err)
	}
}

func countRole(messages []Message, role string) int {
	n := 0
	for _, m := range messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// deriveTitle trims the first user message to 30 characters.
func deriveTitle(text string) string {
	runes := []rune(text)
	if len(runes) <= 30 {
		return text
	}
	return string(runes[:30]) + "..."
}
