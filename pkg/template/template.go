package template

import (
	"fmt"
	"strings"
	"sync"
)

// Vars holds substitution values keyed by placeholder name.
type Vars map[string]string

// Template is a subject/body pair with {{name}} placeholders.
type Template struct {
	Subject string
	Body    string
}

// Renderer resolves a template id to a rendered subject and body.
type Renderer interface {
	Render(templateID string, vars Vars) (subject, body string, err error)
}

// MapRenderer is an in-memory Renderer backed by registered templates.
// Safe for concurrent use.
type MapRenderer struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewMapRenderer returns an empty renderer.
func NewMapRenderer() *MapRenderer {
	return &MapRenderer{templates: make(map[string]Template)}
}

// Register binds a template to an id, replacing any previous binding.
func (r *MapRenderer) Register(id string, tmpl Template) *MapRenderer {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[id] = tmpl
	return r
}

func (r *MapRenderer) Render(templateID string, vars Vars) (string, string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[templateID]
	r.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
	}
	return Substitute(tmpl.Subject, vars), Substitute(tmpl.Body, vars), nil
}

// Substitute replaces every {{name}} placeholder in s with its value
// from vars. Unknown placeholders are left untouched.
func Substitute(s string, vars Vars) string {
	for name, value := range vars {
		s = strings.ReplaceAll(s, "{{"+name+"}}", value)
	}
	return s
}
