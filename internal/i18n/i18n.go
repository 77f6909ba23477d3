// ABOUTME: Message catalogs for CLI output in English, Japanese, and Chinese.
// ABOUTME: Catalogs are embedded YAML; the language is picked from config or LANG.
package i18n

import (
	"embed"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var locales embed.FS

// DefaultLang is used when nothing better matches.
const DefaultLang = "en"

var supported = []language.Tag{language.English, language.Japanese, language.Chinese}

var matcher = language.NewMatcher(supported)

// Supported returns the available language codes, default first.
func Supported() []string {
	out := make([]string, len(supported))
	for i, t := range supported {
		out[i] = t.String()
	}
	return out
}

// Detect maps a locale string such as "ja_JP.UTF-8" or "zh-TW" to a supported language code.
func Detect(locale string) string {
	locale = normalize(locale)
	if locale == "" {
		return DefaultLang
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return DefaultLang
	}

	_, idx, conf := matcher.Match(tag)
	if conf != language.No {
		return supported[idx].String()
	}

	// regional variants with a different script still share the base language
	base, _ := tag.Base()
	for _, t := range supported {
		if b, _ := t.Base(); b == base {
			return t.String()
		}
	}
	return DefaultLang
}

// normalize turns a POSIX locale into a BCP 47 string.
func normalize(locale string) string {
	locale = strings.TrimSpace(locale)
	if i := strings.IndexAny(locale, ".@"); i >= 0 {
		locale = locale[:i]
	}
	if locale == "C" || locale == "POSIX" {
		return ""
	}
	return strings.ReplaceAll(locale, "_", "-")
}

// Catalog holds the messages for one language with English as fallback.
type Catalog struct {
	lang     string
	texts    map[string]string
	fallback map[string]string
}

// New loads the catalog for lang, which may be any locale string Detect accepts.
func New(lang string) (*Catalog, error) {
	code := Detect(lang)

	fallback, err := load(DefaultLang)
	if err != nil {
		return nil, err
	}
	c := &Catalog{lang: code, texts: fallback, fallback: fallback}
	if code != DefaultLang {
		if c.texts, err = load(code); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func load(code string) (map[string]string, error) {
	data, err := locales.ReadFile("locales/" + code + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("read %s catalog: %w", code, err)
	}
	texts := make(map[string]string)
	if err := yaml.Unmarshal(data, &texts); err != nil {
		return nil, fmt.Errorf("parse %s catalog: %w", code, err)
	}
	return texts, nil
}

// Lang returns the selected language code.
func (c *Catalog) Lang() string {
	return c.lang
}

// T returns the message for key. Unknown keys fall back to English, then to the key itself.
func (c *Catalog) T(key string) string {
	if s, ok := c.texts[key]; ok {
		return s
	}
	if s, ok := c.fallback[key]; ok {
		return s
	}
	return key
}

// Tf formats the message for key with args.
func (c *Catalog) Tf(key string, args ...any) string {
	return fmt.Sprintf(c.T(key), args...)
}
