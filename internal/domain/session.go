package domain

import "time"

// Chat message roles.
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one transcript entry. Messages are immutable once
// appended; a transcript may only grow or be replaced wholesale on restore.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat surface discriminators stored on history records.
const (
	ChatTypeCommunication = "communication"
	ChatTypeDual          = "dual"
	ChatTypeProject       = "project"
)

// ChatSession is one durable conversational thread. ID and SessionID carry
// the same timestamp-derived value; SessionID is the stable handle matched
// on update so a history list holds exactly one record per session.
type ChatSession struct {
	ID           int64         `json:"id"`
	SessionID    int64         `json:"sessionId"`
	ChatType     string        `json:"chatType"`
	ProjectID    string        `json:"projectId,omitempty"`
	ProjectName  string        `json:"projectName,omitempty"`
	Summary      string        `json:"summary"`
	FullChat     []ChatMessage `json:"fullChat"`
	Timestamp    time.Time     `json:"timestamp"`
	SessionName  string        `json:"sessionName"`
	MessageCount int           `json:"messageCount,omitempty"`
}
