package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	jsonutil "github.com/richinex/seekr/internal/json"
	"github.com/richinex/seekr/internal/logger"
	"github.com/richinex/seekr/llm"
	"github.com/richinex/seekr/tools"
)

// RelatedQuestionCount is how many follow-up questions are produced.
const RelatedQuestionCount = 5

// DefaultRelatedQuestions is used whenever the model's questions cannot
// be used.
func DefaultRelatedQuestions() []string {
	return []string{
		"Tell me more about this topic",
		"What are the main benefits?",
		"Can you explain it differently?",
		"What are some examples?",
		"What are the limitations?",
	}
}

// RelatedQuestions asks for follow-ups to a finished answer. It never
// fails: any problem yields DefaultRelatedQuestions.
func RelatedQuestions(ctx context.Context, client *llm.Client, query, answer, language string, l *zap.Logger) []string {
	messages := []llm.ChatMessage{
		llm.SystemMessage(RelatedQuestionsPrompt(language)),
		llm.UserMessage(fmt.Sprintf("Generate 5 related questions for this topic and response:\n\nTopic: %s\n\nResponse: %s", query, answer)),
	}
	return relatedFrom(ctx, client, messages, l)
}

// RelatedForConversation asks for follow-ups to query in the context of
// history, before any answer exists.
func RelatedForConversation(ctx context.Context, client *llm.Client, query string, history []llm.ChatMessage, language string, l *zap.Logger) []string {
	return relatedFrom(ctx, client, RelatedMessages(query, history, language), l)
}

func relatedFrom(ctx context.Context, client *llm.Client, messages []llm.ChatMessage, l *zap.Logger) []string {
	l = logger.OrNop(l)
	out, err := client.Complete(ctx, messages,
		llm.WithForcedTool(tools.RelatedQuestionsTool),
		llm.WithLabel("related_questions"),
	)
	if err != nil {
		if !llm.IsCanceled(err) {
			l.Warn("related questions failed", zap.Error(err))
		}
		return DefaultRelatedQuestions()
	}
	questions, ok := ParseRelatedQuestions(out.ToolArgs)
	if !ok {
		l.Debug("related questions unusable, using defaults", zap.String("raw_preview", jsonutil.Preview(out.ToolArgs, 200)))
		return DefaultRelatedQuestions()
	}
	return questions
}

// ParseRelatedQuestions reads {"questions": [...]} tool arguments. ok is
// false unless exactly RelatedQuestionCount non-blank questions are found.
func ParseRelatedQuestions(args string) ([]string, bool) {
	var payload struct {
		Questions []string `json:"questions"`
	}
	if err := jsonutil.ExtractInto(args, &payload); err != nil {
		return nil, false
	}
	if len(payload.Questions) != RelatedQuestionCount {
		return nil, false
	}
	out := make([]string, 0, RelatedQuestionCount)
	for _, q := range payload.Questions {
		q = strings.TrimSpace(q)
		if q == "" {
			return nil, false
		}
		out = append(out, q)
	}
	return out, true
}

// WithSourcesNote appends "\nSources used: t1, t2" to an assistant turn
// that cited sources.
func WithSourcesNote(content string, sources []Source) string {
	if len(sources) == 0 {
		return content
	}
	titles := make([]string, len(sources))
	for i, s := range sources {
		titles[i] = s.Title
	}
	return content + "\nSources used: " + strings.Join(titles, ", ")
}

// FollowUpMessage is the final user turn of a conversation: the new
// question, prefixed with the conversation's first question when there is
// one.
func FollowUpMessage(query string, history []llm.ChatMessage) string {
	for _, m := range history {
		if m.Role == llm.RoleUser && m.Content != "" {
			return fmt.Sprintf("Previous topic: %s\nNew question: %s", m.Content, query)
		}
	}
	return query
}

// DirectMessages builds the direct path's main completion. history is
// copied, never modified.
func DirectMessages(query string, history []llm.ChatMessage, searchContext, language string) []llm.ChatMessage {
	messages := make([]llm.ChatMessage, 0, len(history)+3)
	messages = append(messages, llm.SystemMessage(DirectSystemPrompt(language, searchContext != "")))
	messages = append(messages, history...)
	if searchContext != "" {
		messages = append(messages, llm.UserMessage("Search Results:\n"+searchContext))
	}
	return append(messages, llm.UserMessage(FollowUpMessage(query, history)))
}

// RelatedMessages builds the direct path's related-questions completion.
func RelatedMessages(query string, history []llm.ChatMessage, language string) []llm.ChatMessage {
	l := LanguageName(language)
	messages := make([]llm.ChatMessage, 0, len(history)+3)
	messages = append(messages,
		llm.SystemMessage(fmt.Sprintf("You are a helpful assistant. IMPORTANT: You must generate all questions in %s only. "+
			"This is a strict requirement - do not use any other language.", l)),
		llm.SystemMessage(RelatedQuestionsPrompt(language)+fmt.Sprintf("\n\nIMPORTANT: You MUST generate all questions ONLY in %s. "+
			"This is a strict requirement - do not use any other language under any circumstances.", l)),
	)
	messages = append(messages, history...)
	return append(messages, llm.UserMessage(FollowUpMessage(query, history)))
}
