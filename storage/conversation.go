// Package storage provides conversation storage and the category news cache.
//
// Information Hiding:
// - Storage backend implementation details hidden behind interfaces
// - Allows swapping between memory, SQLite and Redis without API changes
// - Each implementation encapsulates its own data structures and protocols
//
// The answer pipeline never touches conversation storage; only the chat
// loop persists history between turns.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/seekr/llm"
)

// ConversationStorage defines the interface for storing conversation history.
type ConversationStorage interface {
	// Save replaces the stored history for a session.
	Save(ctx context.Context, sessionID string, history []llm.ChatMessage) error

	// Load loads conversation history for a session.
	// Returns empty slice (not nil) if session doesn't exist.
	// Returns error only for storage failures, not missing sessions.
	Load(ctx context.Context, sessionID string) ([]llm.ChatMessage, error)

	// Delete deletes a session and its history.
	Delete(ctx context.Context, sessionID string) error

	// ListSessions lists sessions, most recently updated first.
	ListSessions(ctx context.Context) ([]SessionInfo, error)

	// Exists checks if a session exists.
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// SessionInfo summarises a stored conversation.
type SessionInfo struct {
	ID           string
	Title        string
	MessageCount int
	UpdatedAt    time.Time
}

const maxTitleRunes = 60

// TitleOf names a conversation after its first user message.
func TitleOf(history []llm.ChatMessage) string {
	for _, m := range history {
		if m.Role != llm.RoleUser {
			continue
		}
		title := strings.Join(strings.Fields(m.Content), " ")
		if r := []rune(title); len(r) > maxTitleRunes {
			title = string(r[:maxTitleRunes-3]) + "..."
		}
		return title
	}
	return ""
}

// NewSessionID returns a fresh random session identifier.
func NewSessionID() string {
	return uuid.NewString()
}
