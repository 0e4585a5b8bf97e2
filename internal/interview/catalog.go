package interview

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// ClosingID is the id of the terminal question in every catalog.
const ClosingID = "closing"

// ParseLanguage accepts "en"/"es" and their regional forms ("en-US", "es-MX").
// An empty value defaults to English.
func ParseLanguage(v string) (Language, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return English, true
	}
	if i := strings.IndexAny(v, "-_"); i > 0 {
		v = v[:i]
	}
	switch Language(v) {
	case English, Spanish:
		return Language(v), true
	default:
		return "", false
	}
}

type UIHint string

const (
	UISingle      UIHint = "single"
	UIMultiSelect UIHint = "multi_select"
)

type Question struct {
	ID          string   `yaml:"id" json:"id"`
	Text        string   `yaml:"text" json:"text"`
	TargetField string   `yaml:"field" json:"target_field"`
	Required    bool     `yaml:"required" json:"required"`
	UIHint      UIHint   `yaml:"ui_hint" json:"ui_hint,omitempty"`
	Language    Language `yaml:"-" json:"language"`
}

func (q Question) IsMultiSelect() bool { return q.UIHint == UIMultiSelect }

type localeFile struct {
	Clarification         string     `yaml:"clarification"`
	ClosingAcknowledgment string     `yaml:"closing_acknowledgment"`
	Questions             []Question `yaml:"questions"`
}

type catalogFile struct {
	Version   int                     `yaml:"version"`
	Languages map[Language]localeFile `yaml:"languages"`
}

// Catalog is the immutable, per-language ordered question list.
// Lookups never retain iteration state.
type Catalog struct {
	version int
	locales map[Language]localeFile
}

//go:embed questions.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultCatalog returns the catalog embedded in the binary.
func DefaultCatalog() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadCatalog(defaultCatalogYAML)
	})
	return defaultCatalog, defaultErr
}

// LoadCatalog parses and validates a catalog document. Every language must
// carry the same ids in the same positions so a session can be resumed by
// index in either language, and each list must end with the closing question.
func LoadCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	en, ok := f.Languages[English]
	if !ok || len(en.Questions) == 0 {
		return nil, errors.New("catalog: english questions are required")
	}
	if _, ok := f.Languages[Spanish]; !ok {
		return nil, errors.New("catalog: spanish questions are required")
	}

	for lang, loc := range f.Languages {
		if _, ok := ParseLanguage(string(lang)); !ok {
			return nil, fmt.Errorf("catalog: unsupported language %q", lang)
		}
		if err := validateLocale(lang, loc, en); err != nil {
			return nil, err
		}
		for i := range loc.Questions {
			loc.Questions[i].Language = lang
			if loc.Questions[i].UIHint == "" {
				loc.Questions[i].UIHint = UISingle
			}
		}
		f.Languages[lang] = loc
	}

	return &Catalog{version: f.Version, locales: f.Languages}, nil
}

func validateLocale(lang Language, loc, ref localeFile) error {
	if len(loc.Questions) != len(ref.Questions) {
		return fmt.Errorf("catalog %s: %d questions, english has %d", lang, len(loc.Questions), len(ref.Questions))
	}
	if strings.TrimSpace(loc.ClosingAcknowledgment) == "" || strings.TrimSpace(loc.Clarification) == "" {
		return fmt.Errorf("catalog %s: clarification and closing_acknowledgment are required", lang)
	}

	seen := make(map[string]struct{}, len(loc.Questions))
	for i, q := range loc.Questions {
		if q.ID == "" || strings.TrimSpace(q.Text) == "" || q.TargetField == "" {
			return fmt.Errorf("catalog %s: question %d needs id, text and field", lang, i)
		}
		if q.ID != ref.Questions[i].ID {
			return fmt.Errorf("catalog %s: position %d is %q, english has %q", lang, i, q.ID, ref.Questions[i].ID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("catalog %s: duplicate id %q", lang, q.ID)
		}
		seen[q.ID] = struct{}{}

		switch q.UIHint {
		case "", UISingle, UIMultiSelect:
		default:
			return fmt.Errorf("catalog %s: question %q has unknown ui_hint %q", lang, q.ID, q.UIHint)
		}
	}

	if last := loc.Questions[len(loc.Questions)-1]; last.ID != ClosingID {
		return fmt.Errorf("catalog %s: last question must be %q, got %q", lang, ClosingID, last.ID)
	}
	return nil
}

func (c *Catalog) Version() int { return c.version }

func (c *Catalog) locale(lang Language) localeFile {
	if loc, ok := c.locales[lang]; ok {
		return loc
	}
	return c.locales[English]
}

// Questions returns a fresh copy of the ordered list for lang.
// Unknown languages fall back to English.
func (c *Catalog) Questions(lang Language) []Question {
	src := c.locale(lang).Questions
	out := make([]Question, len(src))
	copy(out, src)
	return out
}

func (c *Catalog) Count() int { return len(c.locales[English].Questions) }

// Question returns the question at index i, or false when i is out of range.
func (c *Catalog) Question(lang Language, i int) (Question, bool) {
	qs := c.locale(lang).Questions
	if i < 0 || i >= len(qs) {
		return Question{}, false
	}
	return qs[i], true
}

// IndexOf returns the position of id, or -1.
func (c *Catalog) IndexOf(lang Language, id string) int {
	for i, q := range c.locale(lang).Questions {
		if q.ID == id {
			return i
		}
	}
	return -1
}

func (c *Catalog) ClosingAcknowledgment(lang Language) string {
	return c.locale(lang).ClosingAcknowledgment
}

func (c *Catalog) Clarification(lang Language) string {
	return c.locale(lang).Clarification
}
