package agent

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
)

var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
}

// LanguageName expands a supported locale code ("fr", "pt-BR") to the
// language's English name. Anything else is returned unchanged, and an
// empty string means English.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "English"
	}
	base, _, _ := strings.Cut(strings.ToLower(code), "-")
	if name, ok := languageNames[base]; ok {
		return name
	}
	return code
}

// CiteSourcesInstruction is appended to the direct-path system prompt when
// search context is supplied.
const CiteSourcesInstruction = "Use the search results provided to enhance your responses, " +
	"and always cite your sources when using information from them."

// MainAssistant is the direct-path system prompt.
func MainAssistant(language string) string {
	l := LanguageName(language)
	return fmt.Sprintf("You are a helpful assistant. You MUST respond ONLY in %s. "+
		"This is a strict requirement - do not use any other language under any circumstances. "+
		"If you cannot provide an answer in %s, respond with an error message in %s.", l, l, l)
}

// DirectSystemPrompt is the direct path's system message.
func DirectSystemPrompt(language string, withSearchContext bool) string {
	l := LanguageName(language)
	prompt := fmt.Sprintf("You are a helpful assistant. IMPORTANT: You must respond in %s. "+
		"This is a strict requirement - all your responses should be in %s only. ", l, l)
	if withSearchContext {
		prompt += CiteSourcesInstruction
	}
	return prompt
}

// RelatedQuestionsPrompt is the related-questions system prompt.
func RelatedQuestionsPrompt(language string) string {
	return fmt.Sprintf("You are a helpful assistant. You MUST generate all questions ONLY in %s. "+
		"This is a strict requirement - do not use any other language under any circumstances. "+
		"Generate relevant follow-up questions based on the conversation context.", LanguageName(language))
}

func agentPrompt(role, task, language string) string {
	return fmt.Sprintf("You are a %s agent. You MUST respond ONLY in %s. "+
		"This is a strict requirement - do not use any other language under any circumstances. %s",
		role, LanguageName(language), task)
}

// AgentPlanning is the planner's base prompt.
func AgentPlanning(language string) string {
	return agentPrompt("planning", "Plan the steps needed to answer the user's query.", language)
}

// AgentSearch is the search persona's base prompt.
func AgentSearch(language string) string {
	return agentPrompt("search", "Generate focused search queries to find relevant information.", language)
}

// AgentConsolidation is the consolidator's base prompt.
func AgentConsolidation(language string) string {
	return agentPrompt("consolidation", "Combine the search results into a comprehensive answer.", language)
}

var planSchemaInstructions = "\n\n" + heredoc.Doc(`
	IMPORTANT: Your response must be valid JSON matching this schema:
	{
	  "answer": "string - your detailed plan",
	  "sources": [],
	  "confidence": number between 0 and 1,
	  "steps": [
	    {
	      "id": number,
	      "description": "string",
	      "requires_search": boolean,
	      "requires_tools": string[],
	      "status": "pending"
	    }
	  ]
	}`)

var consolidationSchemaInstructions = "\n\n" + heredoc.Doc(`
	IMPORTANT: Your response must be valid JSON matching this schema:
	{
	  "answer": "string - your detailed answer with citations [1], [2], etc.",
	  "sources": [{"title": "string", "url": "string"}],
	  "confidence": number between 0 and 1
	}`)

const searchQueryInstructions = "\n\nIMPORTANT: Generate a concise search query (maximum 400 characters). " +
	"Do not include any explanations or JSON formatting."
