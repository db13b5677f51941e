package config

import "time"

const (
	// Remote chat request timeout. The browser build had none, so a hung
	// request left the typing indicator up forever; the client bounds it.
	ChatRequestTimeout = 90 * time.Second

	// Handshake and project lookup are best-effort and kept short.
	HandshakeTimeout = 10 * time.Second

	// Durable history key prefixes, byte-compatible with the browser
	// build so previously exported histories stay readable.
	FeatureKeyCommunication = "chatHistory_communication"
	FeatureKeyWorkChat      = "chatHistory_work_chat"
	FeatureKeyProjectPrefix = "chatHistory_project_"
	UnifiedKeyPrefix        = "unified_chatHistory_"
	UnifiedKeyGuest         = "unified_chatHistory_guest"

	// Default project binding before the backend resolves one.
	DefaultProjectID   = "Default"
	DefaultProjectName = "Default Project"

	// Rate limit (requests per minute, per signed-in email)
	RateLimitPerMinute = 30

	// HTTP server timeouts
	ReadTimeout     = 15 * time.Second
	WriteTimeout    = 2 * time.Minute
	ShutdownTimeout = 10 * time.Second
)
