// Persona builder for fluent configuration.
//
// Information Hiding:
// - Builder state management hidden
// - Default value application hidden

package agent

import "fmt"

// Builder provides fluent configuration for creating personas.
// Usage: agent.NewBuilder("name") - no stutter.
type Builder struct {
	name         string
	description  string
	systemPrompt func(string) string
	reminder     string
}

// NewBuilder creates a new persona builder with the given name.
func NewBuilder(name string) *Builder {
	return &Builder{name: name}
}

// Description sets the persona's description.
func (b *Builder) Description(description string) *Builder {
	b.description = description
	return b
}

// SystemPrompt sets the language-aware system prompt.
func (b *Builder) SystemPrompt(prompt func(language string) string) *Builder {
	b.systemPrompt = prompt
	return b
}

// StaticPrompt sets a system prompt that ignores the language.
func (b *Builder) StaticPrompt(prompt string) *Builder {
	b.systemPrompt = func(string) string { return prompt }
	return b
}

// LanguageReminder appends "IMPORTANT: You MUST <task> in <language> only."
// to the system prompt.
func (b *Builder) LanguageReminder(task string) *Builder {
	b.reminder = task
	return b
}

// Build creates the persona configuration.
func (b *Builder) Build() Config {
	description := b.description
	if description == "" {
		description = fmt.Sprintf("Agent: %s", b.name)
	}

	prompt := b.systemPrompt
	if prompt == nil {
		name := b.name
		prompt = func(string) string {
			return fmt.Sprintf("You are an agent named %s.", name)
		}
	}
	if task := b.reminder; task != "" {
		base := prompt
		prompt = func(language string) string {
			return fmt.Sprintf("%s\n\nIMPORTANT: You MUST %s in %s only.", base(language), task, LanguageName(language))
		}
	}

	return Config{
		Name:         b.name,
		Description:  description,
		SystemPrompt: prompt,
	}
}

// Name returns the builder's persona name.
func (b *Builder) Name() string {
	return b.name
}

// Collection manages multiple persona configurations.
type Collection struct {
	configs []Config
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{configs: []Config{}}
}

// Add adds a persona from a builder.
func (c *Collection) Add(builder *Builder) *Collection {
	c.configs = append(c.configs, builder.Build())
	return c
}

// AddConfig adds a pre-built config.
func (c *Collection) AddConfig(config Config) *Collection {
	c.configs = append(c.configs, config)
	return c
}

// Get returns the persona with the given name.
func (c *Collection) Get(name string) (Config, bool) {
	for _, cfg := range c.configs {
		if cfg.Name == name {
			return cfg, true
		}
	}
	return Config{}, false
}

// Build returns all configurations.
func (c *Collection) Build() []Config {
	return c.configs
}

// Len returns the number of personas.
func (c *Collection) Len() int {
	return len(c.configs)
}

// Info describes a persona's basic information.
type Info struct {
	Name        string
	Description string
}

// List returns persona names and descriptions.
func (c *Collection) List() []Info {
	result := make([]Info, len(c.configs))
	for i, cfg := range c.configs {
		result[i] = Info{
			Name:        cfg.Name,
			Description: cfg.Description,
		}
	}
	return result
}
