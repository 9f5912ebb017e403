package template

import (
	"bytes"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine renders card titles and summaries. Templates use text/template
// syntax with the sprig function library, e.g. `{{ .count }} {{ plural "issue" "issues" .count }}`.
type Engine struct {
	mu    sync.Mutex
	cache map[string]*template.Template
	funcs template.FuncMap
}

// New creates a new template engine
func New() *Engine {
	funcs := sprig.TxtFuncMap()
	funcs["plural"] = func(one, many string, n interface{}) string {
		if toInt(n) == 1 {
			return one
		}
		return many
	}
	return &Engine{
		cache: make(map[string]*template.Template),
		funcs: funcs,
	}
}

// Render executes text against data. Strings without template actions are
// returned unchanged. Referencing a key missing from data is an error.
func (e *Engine) Render(text string, data map[string]interface{}) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := e.parse(text)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", text, err)
	}
	return buf.String(), nil
}

// Validate parses text without executing it.
func (e *Engine) Validate(text string) error {
	if !strings.Contains(text, "{{") {
		return nil
	}
	_, err := e.parse(text)
	return err
}

func (e *Engine) parse(text string) (*template.Template, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if tmpl, ok := e.cache[text]; ok {
		return tmpl, nil
	}
	tmpl, err := template.New("card").Funcs(e.funcs).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %q: %w", text, err)
	}
	e.cache[text] = tmpl
	return tmpl, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
