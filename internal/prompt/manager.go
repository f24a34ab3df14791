// Package prompt loads and renders the embedded prompt templates.
package prompt

import (
	"bytes"
	"embed"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed prompts/*.prompt
var promptFiles embed.FS

type Backend string
type Key string

const (
	DefaultBackend Backend = "default"
	APIBackend     Backend = "api"

	ReviewPrompt Key = "review"
)

// ReviewData is the data rendered into the review prompt templates.
type ReviewData struct {
	Title              string
	Body               string
	Diff               string
	Instruction        string
	CustomInstructions []string
}

// Manager holds the parsed prompt templates, keyed by prompt name and agent
// backend. File naming follows "key_backend.prompt"; the "default" backend
// serves any backend without its own variant.
type Manager struct {
	prompts map[Key]map[Backend]*template.Template
}

// NewManager parses all embedded prompt files.
func NewManager() (*Manager, error) {
	m := &Manager{prompts: make(map[Key]map[Backend]*template.Template)}

	files, err := promptFiles.ReadDir("prompts")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded prompts directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() {
			continue
		}

		fileName := file.Name()
		baseName := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		lastUnderscore := strings.LastIndex(baseName, "_")
		if lastUnderscore <= 0 || lastUnderscore == len(baseName)-1 {
			return nil, fmt.Errorf("invalid prompt filename format: %s (expected 'key_backend.prompt')", fileName)
		}

		key := Key(baseName[:lastUnderscore])
		backend := Backend(baseName[lastUnderscore+1:])

		content, err := promptFiles.ReadFile("prompts/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("failed to read embedded prompt file %s: %w", fileName, err)
		}

		if err := m.register(key, backend, string(content)); err != nil {
			return nil, fmt.Errorf("failed to register prompt from file %s: %w", fileName, err)
		}
	}

	return m, nil
}

func (m *Manager) register(key Key, backend Backend, content string) error {
	tmpl, err := template.New(string(key) + "_" + string(backend)).Parse(content)
	if err != nil {
		return fmt.Errorf("could not parse template: %w", err)
	}

	if _, ok := m.prompts[key]; !ok {
		m.prompts[key] = make(map[Backend]*template.Template)
	}
	m.prompts[key][backend] = tmpl
	return nil
}

func (m *Manager) get(key Key, backend Backend) (*template.Template, error) {
	byBackend, ok := m.prompts[key]
	if !ok {
		return nil, fmt.Errorf("no prompts found for key '%s'", key)
	}
	if tmpl, ok := byBackend[backend]; ok {
		return tmpl, nil
	}
	if tmpl, ok := byBackend[DefaultBackend]; ok {
		return tmpl, nil
	}
	return nil, fmt.Errorf("no template found for key '%s' and backend '%s', and no default was available", key, backend)
}

// Render executes the template for the given key and backend.
func (m *Manager) Render(key Key, backend Backend, data any) (string, error) {
	tmpl, err := m.get(key, backend)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}
