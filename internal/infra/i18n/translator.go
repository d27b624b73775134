package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed locales
var LocalesFS embed.FS

// Translator resolves user-facing text keys against an embedded locale
// bundle. Unknown keys fall back to the key itself so a missing translation
// never hides a warning.
type Translator struct {
	translations map[string]string
	welcomeText  string
}

// NewTranslator loads the bundle for langCode from fsys (usually LocalesFS).
func NewTranslator(fsys fs.FS, langCode string) (*Translator, error) {
	filePath := filepath.Join("locales", fmt.Sprintf("%s.yaml", langCode))

	data, err := fs.ReadFile(fsys, filePath)
	if err != nil {
		return nil, fmt.Errorf("read translation file %s: %w", filePath, err)
	}

	var translations map[string]string
	if err := yaml.Unmarshal(data, &translations); err != nil {
		return nil, fmt.Errorf("parse translation file: %w", err)
	}

	welcomePath := filepath.Join("locales", fmt.Sprintf("welcome-%s.txt", langCode))
	welcomeBytes, err := fs.ReadFile(fsys, welcomePath)
	if err != nil {
		return nil, fmt.Errorf("read welcome file %s: %w", welcomePath, err)
	}

	return &Translator{
		translations: translations,
		welcomeText:  string(welcomeBytes),
	}, nil
}

// T translates key, formatting with args when given.
func (t *Translator) T(key string, args ...interface{}) string {
	format, ok := t.translations[key]
	if !ok {
		return key
	}
	if len(args) > 0 {
		return fmt.Sprintf(format, args...)
	}
	return format
}

// Welcome returns the long-form text posted when the bot joins a group.
func (t *Translator) Welcome() string {
	return t.welcomeText
}
