// Package catalog turns Qt Linguist documents into immutable lookup tables.
//
// A Catalog is built once per locale and never mutated afterwards, so a
// single instance can be shared by any number of goroutines.
package catalog

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	tserrors "tscat/internal/errors"
	"tscat/internal/tsfile"
)

// Location points at the code that uses a message. It is carried for
// tooling only and never consulted by lookups.
type Location struct {
	File string `json:"file"`
	Line int    `json:"line"`
}

// Key identifies a message within a catalog.
type Key struct {
	Context        string
	Source         string
	Disambiguation string
}

// Entry is a single translated message.
type Entry struct {
	Context           string     `json:"context"`
	Source            string     `json:"source"`
	Disambiguation    string     `json:"disambiguation,omitempty"`
	Translation       string     `json:"translation"`
	Unfinished        bool       `json:"unfinished,omitempty"`
	Obsolete          bool       `json:"obsolete,omitempty"`
	Numerus           bool       `json:"numerus,omitempty"`
	NumerusForms      []string   `json:"numerusForms,omitempty"`
	TranslatorComment string     `json:"translatorComment,omitempty"`
	ExtraComment      string     `json:"extraComment,omitempty"`
	Locations         []Location `json:"locations,omitempty"`
}

// Key returns the lookup key of the entry.
func (e Entry) Key() Key {
	return Key{Context: e.Context, Source: e.Source, Disambiguation: e.Disambiguation}
}

// Finished reports whether the entry may answer a lookup.
func (e Entry) Finished() bool {
	if e.Unfinished || e.Obsolete {
		return false
	}
	if e.Numerus {
		for _, form := range e.NumerusForms {
			if form != "" {
				return true
			}
		}
		return false
	}
	return e.Translation != ""
}

// Stats summarises a catalog.
type Stats struct {
	Contexts   int `json:"contexts"`
	Messages   int `json:"messages"`
	Finished   int `json:"finished"`
	Unfinished int `json:"unfinished"`
	Obsolete   int `json:"obsolete"`
	Numerus    int `json:"numerus"`
}

type Catalog struct {
	version        string
	language       string
	sourceLanguage string
	tag            language.Tag
	printer        *message.Printer
	pluralOrder    []plural.Form
	entries        []Entry
	contexts       []string
	index          map[Key]int
}

// Load reads a TS document and builds a catalog from it.
func Load(r io.Reader) (*Catalog, error) {
	doc, err := tsfile.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// LoadFile loads the TS document stored at path.
func LoadFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer file.Close()
	cat, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return cat, nil
}

// LoadFS loads the TS document stored at name inside fsys.
func LoadFS(fsys fs.FS, name string) (*Catalog, error) {
	file, err := fsys.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", name, err)
	}
	defer file.Close()
	cat, err := Load(file)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", name, err)
	}
	return cat, nil
}

// FromDocument indexes an already decoded document.
func FromDocument(doc *tsfile.Document) (*Catalog, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", tserrors.ErrMalformedDocument)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	tag := ParseLocale(doc.Language)
	cat := &Catalog{
		version:        doc.Version,
		language:       doc.Language,
		sourceLanguage: doc.SourceLanguage,
		tag:            tag,
		printer:        message.NewPrinter(tag),
		pluralOrder:    pluralOrder(tag),
		index:          make(map[Key]int),
	}

	seenContexts := make(map[string]struct{}, len(doc.Contexts))
	for _, context := range doc.Contexts {
		name := context.ContextName()
		if _, ok := seenContexts[name]; !ok {
			seenContexts[name] = struct{}{}
			cat.contexts = append(cat.contexts, name)
		}
		for _, msg := range context.Messages {
			entry := entryFromMessage(name, msg)
			key := entry.Key()
			if _, exists := cat.index[key]; exists {
				return nil, fmt.Errorf("%w: context %q source %q comment %q", tserrors.ErrDuplicateMessage, key.Context, key.Source, key.Disambiguation)
			}
			cat.index[key] = len(cat.entries)
			cat.entries = append(cat.entries, entry)
		}
	}
	return cat, nil
}

func entryFromMessage(context string, msg tsfile.Message) Entry {
	translationType := strings.ToLower(strings.TrimSpace(msg.Translation.Type))
	entry := Entry{
		Context:           context,
		Source:            msg.SourceText(),
		Disambiguation:    msg.Comment,
		Unfinished:        translationType == tsfile.TypeUnfinished,
		Obsolete:          translationType == tsfile.TypeVanished || translationType == tsfile.TypeObsolete,
		Numerus:           msg.IsNumerus(),
		TranslatorComment: msg.TranslatorComment,
		ExtraComment:      msg.ExtraComment,
		Locations:         resolveLocations(msg.Locations),
	}
	if entry.Numerus {
		entry.NumerusForms = append([]string(nil), msg.Translation.NumerusForms...)
	} else {
		entry.Translation = msg.Translation.Text
	}
	return entry
}

// resolveLocations turns relative "+n" lines into absolute ones. Relative
// lines count from the previous location in the same file.
func resolveLocations(locations []tsfile.Location) []Location {
	if len(locations) == 0 {
		return nil
	}
	resolved := make([]Location, 0, len(locations))
	lastLine := make(map[string]int)
	currentFile := ""
	for _, location := range locations {
		file := location.Filename
		if file == "" {
			file = currentFile
		}
		currentFile = file
		raw := strings.TrimSpace(location.Line)
		line, err := strconv.Atoi(raw)
		if err != nil {
			line = 0
		}
		if strings.HasPrefix(raw, "+") || strings.HasPrefix(raw, "-") {
			line += lastLine[file]
		}
		lastLine[file] = line
		resolved = append(resolved, Location{File: file, Line: line})
	}
	return resolved
}

// ParseLocale parses a TS language attribute such as "zh_TW". Unknown
// values yield language.Und.
func ParseLocale(value string) language.Tag {
	normalized := strings.ReplaceAll(strings.TrimSpace(value), "_", "-")
	if normalized == "" {
		return language.Und
	}
	tag, err := language.Parse(normalized)
	if err != nil {
		return language.Und
	}
	return tag
}

// Language returns the raw language attribute of the document.
func (c *Catalog) Language() string {
	if c == nil {
		return ""
	}
	return c.language
}

// Tag returns the parsed language of the catalog.
func (c *Catalog) Tag() language.Tag {
	if c == nil {
		return language.Und
	}
	return c.tag
}

func (c *Catalog) SourceLanguage() string {
	if c == nil {
		return ""
	}
	return c.sourceLanguage
}

func (c *Catalog) Version() string {
	if c == nil {
		return ""
	}
	return c.version
}

// Len returns the number of messages, finished or not.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}

// Entries returns a copy of the entries in document order.
func (c *Catalog) Entries() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Contexts returns the context names in sorted order.
func (c *Catalog) Contexts() []string {
	if c == nil {
		return nil
	}
	out := append([]string(nil), c.contexts...)
	sort.Strings(out)
	return out
}

// Entry returns the entry stored for key regardless of its state.
func (c *Catalog) Entry(key Key) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	index, ok := c.index[key]
	if !ok {
		return Entry{}, false
	}
	return c.entries[index], true
}

// Lookup returns the entry for the given key. Unfinished, obsolete and
// empty translations are reported as absent.
func (c *Catalog) Lookup(context, source, disambiguation string) (Entry, bool) {
	entry, ok := c.Entry(Key{Context: context, Source: source, Disambiguation: disambiguation})
	if !ok || !entry.Finished() {
		return Entry{}, false
	}
	return entry, true
}

// Translate returns the display string for a message: the translation
// when one exists, the source string otherwise, with %1..%99 replaced by
// args in order.
func (c *Catalog) Translate(context, source, disambiguation string, args ...any) string {
	text := source
	if entry, ok := c.Lookup(context, source, disambiguation); ok {
		if entry.Numerus {
			text = firstNonEmpty(entry.NumerusForms, source)
		} else {
			text = entry.Translation
		}
	}
	return substitute(text, c.messagePrinter(), nil, args)
}

// TranslateN resolves a numerus message for count n. %n and %Ln are
// replaced by n before the positional arguments are applied.
func (c *Catalog) TranslateN(context, source, disambiguation string, n int, args ...any) string {
	text := source
	if entry, ok := c.Lookup(context, source, disambiguation); ok {
		if entry.Numerus {
			text = c.numerusForm(entry.NumerusForms, n, source)
		} else {
			text = entry.Translation
		}
	}
	return substitute(text, c.messagePrinter(), &n, args)
}

// Stats counts entries by state.
func (c *Catalog) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	stats := Stats{Contexts: len(c.contexts), Messages: len(c.entries)}
	for _, entry := range c.entries {
		if entry.Numerus {
			stats.Numerus++
		}
		switch {
		case entry.Obsolete:
			stats.Obsolete++
		case entry.Finished():
			stats.Finished++
		default:
			stats.Unfinished++
		}
	}
	return stats
}

// Document rebuilds a TS document from the catalog, grouping entries by
// context in first-appearance order.
func (c *Catalog) Document() *tsfile.Document {
	doc := &tsfile.Document{}
	if c == nil {
		return doc
	}
	doc.Version = c.version
	doc.Language = c.language
	doc.SourceLanguage = c.sourceLanguage

	positions := make(map[string]int, len(c.contexts))
	for _, entry := range c.entries {
		position, ok := positions[entry.Context]
		if !ok {
			name := entry.Context
			position = len(doc.Contexts)
			positions[entry.Context] = position
			doc.Contexts = append(doc.Contexts, tsfile.Context{Name: &name})
		}
		doc.Contexts[position].Messages = append(doc.Contexts[position].Messages, messageFromEntry(entry))
	}
	return doc
}

func messageFromEntry(entry Entry) tsfile.Message {
	source := entry.Source
	msg := tsfile.Message{
		Source:            &source,
		Comment:           entry.Disambiguation,
		ExtraComment:      entry.ExtraComment,
		TranslatorComment: entry.TranslatorComment,
	}
	for _, location := range entry.Locations {
		msg.Locations = append(msg.Locations, tsfile.Location{Filename: location.File, Line: strconv.Itoa(location.Line)})
	}
	switch {
	case entry.Obsolete:
		msg.Translation.Type = tsfile.TypeVanished
	case entry.Unfinished:
		msg.Translation.Type = tsfile.TypeUnfinished
	}
	if entry.Numerus {
		msg.Numerus = "yes"
		msg.Translation.NumerusForms = append([]string(nil), entry.NumerusForms...)
	} else {
		msg.Translation.Text = entry.Translation
	}
	return msg
}

func (c *Catalog) messagePrinter() *message.Printer {
	if c == nil {
		return nil
	}
	return c.printer
}

func firstNonEmpty(values []string, fallback string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return fallback
}
