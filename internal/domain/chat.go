package domain

import "strings"

// Message roles accepted on the chat endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation. The last message of an
// inbound conversation is the one being answered; it is never treated
// as prior context.
type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required,min=1,dive"`
}

// DocumentChunk is one stored documentation snippet with its token
// count and the flattened docs path it came from. Chunks are immutable;
// the chat pipeline only reads them.
type DocumentChunk struct {
	Text       string
	TokenCount int
	SourcePath string
}

// URL derives the public docs URL from the chunk's file path:
// underscores become slashes and a trailing ".txt" is dropped.
func (c DocumentChunk) URL() string {
	return strings.TrimSuffix(strings.ReplaceAll(c.SourcePath, "_", "/"), ".txt")
}
