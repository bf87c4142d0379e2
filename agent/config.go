// Persona configuration.
//
// Information Hiding:
// - Prompt construction per language hidden
// - Default values hidden

package agent

// Config describes one persona.
type Config struct {
	// Name is a unique identifier for the persona.
	Name string

	// Description explains what this persona does (shown by the CLI).
	Description string

	// SystemPrompt renders the persona's system prompt for a language.
	SystemPrompt func(language string) string
}

// DefaultConfig returns a plain assistant persona.
func DefaultConfig() Config {
	return Config{
		Name:         "assistant",
		Description:  "A general-purpose assistant",
		SystemPrompt: MainAssistant,
	}
}

// Prompt renders the system prompt, falling back to MainAssistant.
func (c Config) Prompt(language string) string {
	if c.SystemPrompt == nil {
		return MainAssistant(language)
	}
	return c.SystemPrompt(language)
}

// Planner plans the steps needed to answer a query.
func Planner() Config {
	return NewBuilder("planning_agent").
		Description("Breaks down complex queries into actionable steps").
		SystemPrompt(AgentPlanning).
		LanguageReminder("plan the steps").
		Build()
}

// Searcher turns a plan into a focused web search query.
func Searcher() Config {
	return NewBuilder("search_agent").
		Description("Handles web searches and information gathering").
		SystemPrompt(AgentSearch).
		LanguageReminder("generate search queries").
		Build()
}

// Consolidator combines search results into the final answer.
func Consolidator() Config {
	return NewBuilder("consolidation_agent").
		Description("Combines information from multiple sources into coherent answers").
		SystemPrompt(AgentConsolidation).
		LanguageReminder("provide the final answer").
		Build()
}

// Weather answers current-conditions questions for a place.
func Weather() Config {
	return NewBuilder("weather_agent").
		Description("Provides weather information for locations").
		SystemPrompt(AgentPlanning).
		Build()
}

// Personas lists the built-in personas.
func Personas() *Collection {
	return NewCollection().
		AddConfig(Planner()).
		AddConfig(Searcher()).
		AddConfig(Consolidator()).
		AddConfig(Weather())
}
