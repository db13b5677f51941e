package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"

	"github.com/clearstack/opsdesk/internal/config"
)

const maxMessageLen = 4000

// Notifier posts console ops events (sign-ins, role mutations, errors) to
// a Telegram chat. Everything is best-effort: a nil Notifier, a missing
// token or a send failure only costs the notification.
type Notifier struct {
	bot *bot.Bot
	cfg *config.Config
}

type EventType string

const (
	EventAuth  EventType = "auth"
	EventRole  EventType = "role"
	EventError EventType = "error"
)

// New builds the notifier, or returns nil when no bot token is
// configured.
func New(cfg *config.Config) *Notifier {
	if cfg.BotToken == "" || cfg.OpsChatID == 0 {
		return nil
	}
	b, err := bot.New(cfg.BotToken)
	if err != nil {
		slog.Warn("ops notifier disabled", "error", err)
		return nil
	}
	return &Notifier{bot: b, cfg: cfg}
}

func (n *Notifier) send(eventType EventType, message string) {
	if n == nil {
		return
	}
	if len([]rune(message)) > maxMessageLen {
		message = string([]rune(message)[:maxMessageLen-20]) + "\n\n... (truncated)"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := n.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:          n.cfg.OpsChatID,
		Text:            message,
		MessageThreadID: n.topicID(eventType),
	})
	if err != nil {
		slog.Error("failed to send ops notification", "type", eventType, "error", err)
	}
}

// AuthEvent reports a sign-in or sign-out.
func (n *Notifier) AuthEvent(event, email string) {
	n.send(EventAuth, fmt.Sprintf("Console %s\n\nUser: %s\nTime: %s",
		event, email, time.Now().Format("2006-01-02 15:04:05")))
}

// RoleEvent reports a role administration mutation.
func (n *Notifier) RoleEvent(event, detail string) {
	n.send(EventRole, fmt.Sprintf("Role admin: %s\n\nDetail: %s", event, detail))
}

// Error reports an operational error with its context.
func (n *Notifier) Error(err error, context string) {
	n.send(EventError, fmt.Sprintf("Error\n\nContext: %s\nError: %s\nTime: %s",
		context, err.Error(), time.Now().Format("2006-01-02 15:04:05")))
}

func (n *Notifier) topicID(eventType EventType) int {
	switch eventType {
	case EventAuth:
		return n.cfg.OpsTopicAuth
	case EventRole:
		return n.cfg.OpsTopicRole
	case EventError:
		return n.cfg.OpsTopicErr
	}
	return 0
}
