// Package persona defines the assistant's conversational identities.
// A persona is a named system prompt; the active one shapes how the
// reasoning engine answers.
package persona

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Persona is one conversational identity.
type Persona struct {
	ID           string
	Name         string
	Description  string
	SystemPrompt string
}

// Context carries the per-session values a system prompt is rendered
// with.
type Context struct {
	Language string
	Timezone string
}

// Render substitutes session context into the persona's system prompt.
// Supported placeholders: {{language}}, {{timezone}}.
func (p *Persona) Render(ctx Context) string {
	lang := languageName(ctx.Language)
	out := strings.ReplaceAll(p.SystemPrompt, "{{language}}", lang)
	out = strings.ReplaceAll(out, "{{timezone}}", ctx.Timezone)
	return out
}

func languageName(code string) string {
	switch strings.ToLower(code) {
	case "de":
		return "German"
	case "en", "":
		return "English"
	case "fr":
		return "French"
	case "es":
		return "Spanish"
	case "it":
		return "Italian"
	default:
		return code
	}
}

// Manager holds the available personas.
type Manager struct {
	mu       sync.RWMutex
	personas map[string]*Persona
}

// NewManager creates a manager pre-loaded with the built-in personas.
func NewManager() *Manager {
	m := &Manager{personas: make(map[string]*Persona)}
	for _, p := range builtins() {
		m.personas[p.ID] = p
	}
	return m
}

// Get returns a persona by ID.
func (m *Manager) Get(id string) (*Persona, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.personas[id]
	if !ok {
		return nil, fmt.Errorf("unknown persona %q", id)
	}
	return p, nil
}

// Register adds or replaces a persona.
func (m *Manager) Register(p *Persona) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.personas[p.ID] = p
}

// List returns all persona IDs in stable order.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.personas))
	for id := range m.personas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
