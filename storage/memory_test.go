package storage

import (
	"context"
	"testing"
	"time"

	"github.com/richinex/seekr/llm"
)

// runConversationStorageTests exercises the ConversationStorage contract.
func runConversationStorageTests(t *testing.T, open func(t *testing.T) ConversationStorage) {
	t.Run("SaveAndLoad", func(t *testing.T) {
		storage := open(t)
		ctx := context.Background()

		messages := []llm.ChatMessage{
			llm.UserMessage("Hello"),
			llm.AssistantMessage("Hi there\nSources used: Example"),
		}
		if err := storage.Save(ctx, "test-session", messages); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		loaded, err := storage.Load(ctx, "test-session")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if len(loaded) != 2 {
			t.Fatalf("expected 2 messages, got %d", len(loaded))
		}
		if loaded[0] != messages[0] || loaded[1] != messages[1] {
			t.Errorf("round trip mismatch: %+v", loaded)
		}
	})

	t.Run("LoadNonexistentSession", func(t *testing.T) {
		loaded, err := open(t).Load(context.Background(), "nonexistent")
		if err != nil {
			t.Fatalf("Load failed: %v", err)
		}
		if loaded == nil || len(loaded) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", loaded)
		}
	})

	t.Run("OverwriteSession", func(t *testing.T) {
		storage := open(t)
		ctx := context.Background()

		_ = storage.Save(ctx, "s", []llm.ChatMessage{llm.UserMessage("a"), llm.AssistantMessage("b")})
		if err := storage.Save(ctx, "s", []llm.ChatMessage{llm.UserMessage("c")}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		loaded, _ := storage.Load(ctx, "s")
		if len(loaded) != 1 || loaded[0].Content != "c" {
			t.Errorf("expected only the latest history, got %+v", loaded)
		}
	})

	t.Run("DeleteSession", func(t *testing.T) {
		storage := open(t)
		ctx := context.Background()

		if err := storage.Save(ctx, "test-session", []llm.ChatMessage{llm.UserMessage("Test")}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		exists, err := storage.Exists(ctx, "test-session")
		if err != nil || !exists {
			t.Fatalf("expected session to exist (err=%v)", err)
		}
		if err := storage.Delete(ctx, "test-session"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		exists, err = storage.Exists(ctx, "test-session")
		if err != nil {
			t.Fatalf("Exists failed: %v", err)
		}
		if exists {
			t.Error("expected session to not exist after deletion")
		}
		loaded, _ := storage.Load(ctx, "test-session")
		if len(loaded) != 0 {
			t.Errorf("expected messages to be gone, got %d", len(loaded))
		}
	})

	t.Run("ListSessions", func(t *testing.T) {
		storage := open(t)
		ctx := context.Background()

		if err := storage.Save(ctx, "older", []llm.ChatMessage{llm.UserMessage("What is Go?")}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}
		if err := storage.Save(ctx, "newer", []llm.ChatMessage{
			llm.UserMessage("Capital of France"), llm.AssistantMessage("Paris"),
		}); err != nil {
			t.Fatalf("Save failed: %v", err)
		}

		sessions, err := storage.ListSessions(ctx)
		if err != nil {
			t.Fatalf("ListSessions failed: %v", err)
		}
		if len(sessions) != 2 {
			t.Fatalf("expected 2 sessions, got %d", len(sessions))
		}
		if sessions[0].ID != "newer" || sessions[1].ID != "older" {
			t.Errorf("expected most recent first, got %s, %s", sessions[0].ID, sessions[1].ID)
		}
		if sessions[0].Title != "Capital of France" || sessions[0].MessageCount != 2 {
			t.Errorf("unexpected summary: %+v", sessions[0])
		}
	})
}

// steppingClock advances one second per call so saves are strictly ordered.
func steppingClock() func() time.Time {
	t := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func TestInMemoryStorage(t *testing.T) {
	runConversationStorageTests(t, func(t *testing.T) ConversationStorage {
		s := NewInMemoryStorage()
		s.now = steppingClock()
		return s
	})
}

func TestInMemoryStorageIsolation(t *testing.T) {
	storage := NewInMemoryStorage()
	ctx := context.Background()

	history := []llm.ChatMessage{llm.UserMessage("original")}
	if err := storage.Save(ctx, "s", history); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	history[0].Content = "mutated"

	loaded, _ := storage.Load(ctx, "s")
	if loaded[0].Content != "original" {
		t.Errorf("storage shared the caller's slice: %q", loaded[0].Content)
	}
	loaded[0].Content = "mutated again"
	again, _ := storage.Load(ctx, "s")
	if again[0].Content != "original" {
		t.Errorf("Load returned shared slice: %q", again[0].Content)
	}
}

func TestTitleOf(t *testing.T) {
	history := []llm.ChatMessage{
		llm.SystemMessage("sys"),
		llm.UserMessage("  what   is\nthe weather  "),
		llm.UserMessage("second"),
	}
	if got := TitleOf(history); got != "what is the weather" {
		t.Errorf("TitleOf = %q", got)
	}

	long := make([]rune, 100)
	for i := range long {
		long[i] = 'x'
	}
	got := []rune(TitleOf([]llm.ChatMessage{llm.UserMessage(string(long))}))
	if len(got) != maxTitleRunes {
		t.Errorf("expected %d runes, got %d", maxTitleRunes, len(got))
	}

	if TitleOf(nil) != "" {
		t.Error("expected empty title for empty history")
	}
}

func TestNewSessionIDUnique(t *testing.T) {
	if NewSessionID() == NewSessionID() {
		t.Error("expected distinct session IDs")
	}
}
