package alerts

import (
	"embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templatesFS embed.FS

const DefaultLang = "en"

// Languages lists the embedded template sets.
var Languages = []string{"en", "pt"}

const (
	KeyWorkerUnhealthy = "worker.unhealthy"
	KeyWorkerRecovered = "worker.recovered"
	KeyWorkerStopped   = "worker.stopped"
)

type Service struct {
	templates map[string]map[string]interface{}
}

func NewService() (*Service, error) {
	s := &Service{
		templates: make(map[string]map[string]interface{}),
	}

	for _, lang := range Languages {
		data, err := templatesFS.ReadFile(fmt.Sprintf("templates/%s.yaml", lang))
		if err != nil {
			return nil, fmt.Errorf("read %s templates: %w", lang, err)
		}

		var templates map[string]interface{}
		if err := yaml.Unmarshal(data, &templates); err != nil {
			return nil, fmt.Errorf("parse %s templates: %w", lang, err)
		}

		s.templates[lang] = templates
	}

	return s, nil
}

// Supports reports whether lang has an embedded template set.
func (s *Service) Supports(lang string) bool {
	_, ok := s.templates[lang]
	return ok
}

// Get renders the template under a dotted key ("worker.stopped") for lang,
// falling back to DefaultLang. Placeholders look like {{name}}. An unknown
// key renders as the key itself.
func (s *Service) Get(lang, key string, params map[string]interface{}) string {
	tmpl, ok := s.templates[lang]
	if !ok {
		tmpl = s.templates[DefaultLang]
	}

	var current interface{} = tmpl
	for _, part := range strings.Split(key, ".") {
		m, ok := current.(map[string]interface{})
		if !ok {
			return key
		}
		current = m[part]
	}

	text, ok := current.(string)
	if !ok {
		return key
	}

	return replacePlaceholders(text, params)
}

func replacePlaceholders(text string, params map[string]interface{}) string {
	for key, value := range params {
		text = strings.ReplaceAll(text, "{{"+key+"}}", fmt.Sprint(value))
	}
	return text
}
