package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// FileExt is the extension of translation files inside the language directory.
const FileExt = ".po"

// Translator renders message keys in one language.
type Translator struct {
	tag     language.Tag
	printer *message.Printer
}

// English returns a translator that prints every key as-is.
func English() *Translator {
	return &Translator{tag: language.English, printer: message.NewPrinter(language.English)}
}

// New builds a translator for tag from a set of translated messages.
func New(tag language.Tag, messages map[string]string) (*Translator, error) {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, msg := range messages {
		if err := b.SetString(tag, key, msg); err != nil {
			return nil, fmt.Errorf("adding message %q: %w", key, err)
		}
	}
	return &Translator{tag: tag, printer: message.NewPrinter(tag, message.Catalog(b))}, nil
}

// Load reads <dir>/<lang>.po. An empty or English lang, or a missing file,
// yields the English translator without error.
func Load(dir, lang string) (*Translator, error) {
	if lang == "" {
		return English(), nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("parsing language %q: %w", lang, err)
	}
	if tag == language.English {
		return English(), nil
	}

	f, err := os.Open(filepath.Join(dir, lang+FileExt))
	if errors.Is(err, fs.ErrNotExist) {
		return English(), nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	po, err := ParsePO(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", f.Name(), err)
	}
	return New(tag, po.Messages)
}

// T formats key in the translator's language.
func (t *Translator) T(key string, args ...any) string {
	if t == nil {
		return fmt.Sprintf(key, args...)
	}
	return t.printer.Sprintf(key, args...)
}

// Language returns the translator's language tag.
func (t *Translator) Language() language.Tag {
	if t == nil {
		return language.English
	}
	return t.tag
}
