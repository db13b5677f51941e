package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/clearstack/opsdesk/internal/chatstore"
	"github.com/clearstack/opsdesk/internal/config"
	"github.com/clearstack/opsdesk/internal/domain"
)

// Remote is the slice of the chat backend a controller needs.
type Remote interface {
	SetSession(ctx context.Context, email, name string) error
	GetUserProject(ctx context.Context, email string) (*domain.ProjectBinding, error)
	CommonChat(ctx context.Context, query string) (string, error)
	DualChat(ctx context.Context, message string) (string, error)
	WorkChat(ctx context.Context, message, projectID string) (string, error)
}

// Transcript fallbacks, kept identical to the browser build.
const (
	fallbackReply = "No reply from server"
	sendErrorText = "Error connecting to chatbot."
)

// Controller drives one chat surface: the visible transcript, the active
// session handle and the history list, persisting through the chat store
// and talking to the remote backend. Three variants share it, differing in
// greeting, endpoint and project scoping.
//
// The lock is held only around state mutation, never across the remote
// call or the store writes: overlapping sends interleave in transcript
// completion order but neither reply is lost, and a send in flight never
// blocks the surface.
type Controller struct {
	chatType string
	store    *chatstore.Store
	remote   Remote
	identity *domain.Identity

	mu            sync.Mutex
	transcript    []domain.ChatMessage
	history       []domain.ChatSession
	sessionID     int64
	inFlight      int
	projectID     string
	projectName   string
	projectInfo   string

	unsub func()
	now   func() time.Time
}

// NewCommunication builds the general-purpose surface.
func NewCommunication(store *chatstore.Store, remote Remote, id *domain.Identity) *Controller {
	c := newController(domain.ChatTypeCommunication, store, remote, id)
	c.resetTranscript()
	return c
}

// NewDual builds the dual-mode surface. Its visible history is the
// unified list, so it registers as a store observer and refreshes when
// any surface writes the unified key.
func NewDual(store *chatstore.Store, remote Remote, id *domain.Identity) *Controller {
	c := newController(domain.ChatTypeDual, store, remote, id)
	c.resetTranscript()
	c.unsub = store.Subscribe(func(unifiedKey string) {
		if unifiedKey != c.unifiedKey() {
			return
		}
		refreshed := store.RestoreUnified(unifiedKey)
		c.mu.Lock()
		c.history = refreshed
		c.mu.Unlock()
	})
	return c
}

// NewProject builds the project-scoped surface. An empty projectID leaves
// the surface on the default binding until Start resolves one remotely.
func NewProject(store *chatstore.Store, remote Remote, id *domain.Identity, projectID, projectName string) *Controller {
	c := newController(domain.ChatTypeProject, store, remote, id)
	c.projectID = config.DefaultProjectID
	c.projectName = config.DefaultProjectName
	if projectID != "" {
		c.projectID = projectID
		c.projectName = projectName
		if projectName == "" {
			c.projectName = "Unnamed Project"
		}
	}
	c.resetTranscript()
	return c
}

func newController(chatType string, store *chatstore.Store, remote Remote, id *domain.Identity) *Controller {
	return &Controller{
		chatType: chatType,
		store:    store,
		remote:   remote,
		identity: id,
		now:      time.Now,
	}
}

// Start restores durable history and performs the best-effort remote
// handshake. Handshake failure is logged and never blocks local usage.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	switch c.chatType {
	case domain.ChatTypeDual:
		c.history = c.store.RestoreUnified(c.unifiedKey())
	case domain.ChatTypeProject:
		c.history = c.store.LoadFeatureHistory(c.featureKeyLocked())
		if c.identity.Email != "" {
			if unified := c.store.RestoreUnified(c.unifiedKey()); len(unified) > 0 {
				c.history = unified
			}
		}
	default:
		c.history = c.store.LoadFeatureHistory(c.featureKeyLocked())
	}
	explicit := c.chatType == domain.ChatTypeProject && c.projectID != config.DefaultProjectID
	c.mu.Unlock()

	if c.identity.Email == "" {
		return
	}
	if err := c.remote.SetSession(ctx, c.identity.Email, c.identity.Name); err != nil {
		slog.Warn("chat session handshake failed", "surface", c.chatType, "error", err)
	}

	if c.chatType == domain.ChatTypeProject && !explicit {
		c.bindProject(ctx)
	}
}

// bindProject asks the backend which project the identity belongs to and
// rebinds the surface, resetting the transcript to the scoped greeting.
func (c *Controller) bindProject(ctx context.Context) {
	binding, err := c.remote.GetUserProject(ctx, c.identity.Email)
	if err != nil {
		slog.Warn("project auto-bind failed", "email", c.identity.Email, "error", err)
		return
	}
	if binding == nil || binding.ProjectID == "" {
		return
	}

	c.mu.Lock()
	c.projectID = binding.ProjectID
	c.projectName = binding.ProjectName
	if c.projectName == "" {
		c.projectName = "Unknown Project"
	}
	c.projectInfo = binding.FullProjectInfo
	c.sessionID = 0
	c.resetTranscript()
	c.mu.Unlock()
}

// SendMessage appends the user message, forwards it to the backend and
// appends the reply. It returns the assistant turn that was appended and
// whether a send actually happened (a blank message is a no-op). A failed
// send appends the fixed error entry and leaves history untouched; either
// way the surface always returns to idle.
func (c *Controller) SendMessage(ctx context.Context, text string) (domain.ChatMessage, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.ChatMessage{}, false
	}

	c.mu.Lock()
	c.transcript = append(c.transcript, domain.ChatMessage{Role: domain.ChatRoleUser, Content: text})
	if c.sessionID == 0 {
		c.sessionID = c.now().UnixMilli()
	}
	sessionID := c.sessionID
	projectID := c.projectID
	c.inFlight++
	c.mu.Unlock()

	reply, err := c.callRemote(ctx, text, projectID)

	c.mu.Lock()
	c.inFlight--

	if err != nil {
		slog.Error("chat request failed", "surface", c.chatType, "error", err)
		errMsg := domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: sendErrorText}
		c.transcript = append(c.transcript, errMsg)
		c.mu.Unlock()
		return errMsg, true
	}

	if reply == "" {
		reply = fallbackReply
	}
	botMsg := domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: reply}
	c.transcript = append(c.transcript, botMsg)

	c.upsertSessionLocked(sessionID, text)
	featureKey := c.featureKeyLocked()
	history := make([]domain.ChatSession, len(c.history))
	copy(history, c.history)
	c.mu.Unlock()

	// Persist from copies with the lock released: the unified write
	// notifies observers synchronously, and the dual surface's observer
	// takes this same lock.
	c.store.SaveFeatureHistory(featureKey, history)
	c.store.MergeIntoUnified(c.unifiedKey(), history)
	return botMsg, true
}

func (c *Controller) callRemote(ctx context.Context, text, projectID string) (string, error) {
	switch c.chatType {
	case domain.ChatTypeCommunication:
		return c.remote.CommonChat(ctx, text)
	case domain.ChatTypeDual:
		return c.remote.DualChat(ctx, text)
	case domain.ChatTypeProject:
		return c.remote.WorkChat(ctx, text, projectID)
	}
	return "", fmt.Errorf("unknown chat surface %q", c.chatType)
}

// upsertSessionLocked maintains exactly one history record per session
// handle: the first completed exchange creates it, later ones replace its
// transcript, timestamp and count in place.
func (c *Controller) upsertSessionLocked(sessionID int64, firstText string) {
	full := make([]domain.ChatMessage, len(c.transcript))
	copy(full, c.transcript)
	now := c.now()

	for i := range c.history {
		if c.history[i].SessionID == sessionID {
			c.history[i].FullChat = full
			c.history[i].Timestamp = now
			c.history[i].MessageCount = len(full)
			return
		}
	}

	record := domain.ChatSession{
		ID:           sessionID,
		SessionID:    sessionID,
		ChatType:     c.chatType,
		Summary:      firstText,
		FullChat:     full,
		Timestamp:    now,
		SessionName:  fmt.Sprintf("Session %s", now.Format("2006-01-02 15:04:05")),
		MessageCount: len(full),
	}
	if c.chatType == domain.ChatTypeProject {
		record.ProjectID = c.projectID
		record.ProjectName = c.projectName
		record.SessionName = fmt.Sprintf("%s - %s", c.projectName, now.Format("2006-01-02 15:04:05"))
	}
	c.history = append(c.history, record)
}

// NewSession resets the transcript to the greeting and clears the active
// handle; the next send mints a fresh session.
func (c *Controller) NewSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = 0
	c.resetTranscript()
}

// LoadHistorySession replaces the transcript with a stored session's and
// adopts its handle, so subsequent sends update it rather than create.
func (c *Controller) LoadHistorySession(id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sess := range c.history {
		if sess.ID != id {
			continue
		}
		c.transcript = make([]domain.ChatMessage, len(sess.FullChat))
		copy(c.transcript, sess.FullChat)
		c.sessionID = sess.SessionID
		if c.chatType == domain.ChatTypeProject {
			c.projectID = sess.ProjectID
			if c.projectID == "" {
				c.projectID = config.DefaultProjectID
			}
			c.projectName = sess.ProjectName
			if c.projectName == "" {
				c.projectName = config.DefaultProjectName
			}
		}
		return nil
	}
	return domain.ErrSessionNotFound
}

// DeleteSession removes the id from the in-memory list and both durable
// scopes.
func (c *Controller) DeleteSession(id int64) {
	c.mu.Lock()
	kept := c.history[:0]
	for _, sess := range c.history {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	c.history = kept
	featureKey := c.featureKeyLocked()
	c.mu.Unlock()

	c.store.DeleteSession(id, featureKey, c.unifiedKey())
}

// AwaitingReply reports whether any send is still in flight (the typing
// indicator state).
func (c *Controller) AwaitingReply() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight > 0
}

// Transcript returns a copy of the visible messages.
func (c *Controller) Transcript() []domain.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatMessage, len(c.transcript))
	copy(out, c.transcript)
	return out
}

// History returns a copy of the surface's session list.
func (c *Controller) History() []domain.ChatSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChatSession, len(c.history))
	copy(out, c.history)
	return out
}

// ActiveSessionID returns the current handle, zero when no session is
// active.
func (c *Controller) ActiveSessionID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Project returns the surface's current project binding.
func (c *Controller) Project() (id, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectID, c.projectName
}

// ProjectInfo returns the backend's full project description, when bound.
func (c *Controller) ProjectInfo() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectInfo
}

// Close releases the store subscription, if any.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

func (c *Controller) resetTranscript() {
	c.transcript = []domain.ChatMessage{{Role: domain.ChatRoleAssistant, Content: c.greeting()}}
}

func (c *Controller) greeting() string {
	switch c.chatType {
	case domain.ChatTypeCommunication:
		return "Hello! I'm your Communication Assistant. I can help you with general questions, discussions, and provide information on various topics. How can I assist you today?"
	case domain.ChatTypeDual:
		return "Hello! I'm your Dual Chat Assistant. I can help you with both general development questions and project-specific guidance. How can I assist you today?"
	default:
		if c.projectID != config.DefaultProjectID {
			return fmt.Sprintf("Hello! I'm your Project Chat Assistant for %q.", c.projectName)
		}
		return "Hello! I'm your Project Chat Assistant. I can help you with project-related questions, development guidance, team collaboration, and project management. How can I assist you today?"
	}
}

func (c *Controller) featureKeyLocked() string {
	switch c.chatType {
	case domain.ChatTypeCommunication:
		return config.FeatureKeyCommunication
	case domain.ChatTypeDual:
		return c.unifiedKey()
	default:
		return chatstore.ProjectFeatureKey(c.projectID)
	}
}

func (c *Controller) unifiedKey() string {
	return chatstore.UnifiedKey(c.identity.Email)
}
