// Package export converts catalogs into other translation formats.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
	"golang.org/x/text/feature/plural"

	"tscat/internal/catalog"
	tserrors "tscat/internal/errors"
	"tscat/internal/tsfile"
)

// Format names an output format.
type Format string

const (
	FormatTS   Format = "ts"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat accepts a format name or file extension.
func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(value), "."))) {
	case FormatTS:
		return FormatTS, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatTOML:
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("%w: %q", tserrors.ErrUnsupportedFormat, value)
	}
}

// ContentType returns the media type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatTS:
		return "application/xml; charset=utf-8"
	case FormatTOML:
		return "application/toml; charset=utf-8"
	default:
		return "application/json"
	}
}

// Payload is the JSON shape served to web front-ends: context name to
// message key to translated text. Unfinished messages are left out so
// clients fall back to the source string.
type Payload struct {
	Language string                       `json:"language"`
	Contexts map[string]map[string]string `json:"contexts"`
}

// MessageKey is the key of a message inside one context of a Payload.
func MessageKey(source, disambiguation string) string {
	if disambiguation == "" {
		return source
	}
	return source + "#" + disambiguation
}

// MessageID is the go-i18n message id of an entry.
func MessageID(context, source, disambiguation string) string {
	return context + "." + MessageKey(source, disambiguation)
}

// JSON builds the payload for a catalog. A nil catalog yields an empty
// payload in language.
func JSON(cat *catalog.Catalog, language string) Payload {
	payload := Payload{Language: language, Contexts: map[string]map[string]string{}}
	finished := lo.Filter(cat.Entries(), func(entry catalog.Entry, _ int) bool {
		return entry.Finished() && !entry.Numerus
	})
	for _, entry := range finished {
		messages, ok := payload.Contexts[entry.Context]
		if !ok {
			messages = map[string]string{}
			payload.Contexts[entry.Context] = messages
		}
		messages[MessageKey(entry.Source, entry.Disambiguation)] = entry.Translation
	}
	return payload
}

// GoI18nMessages converts finished entries into go-i18n messages. Qt
// placeholders become template fields: %1 is {{.Arg1}}, %n is
// {{.PluralCount}}.
func GoI18nMessages(cat *catalog.Catalog) []*goi18n.Message {
	forms := cat.PluralForms()
	messages := make([]*goi18n.Message, 0, cat.Len())
	for _, entry := range cat.Entries() {
		if !entry.Finished() {
			continue
		}
		msg := &goi18n.Message{
			ID:          MessageID(entry.Context, entry.Source, entry.Disambiguation),
			Description: entry.Disambiguation,
		}
		if !entry.Numerus {
			msg.Other = templateText(entry.Translation)
			messages = append(messages, msg)
			continue
		}
		for i, text := range entry.NumerusForms {
			if i >= len(forms) {
				break
			}
			setForm(msg, forms[i], templateText(text))
		}
		if msg.Other == "" {
			msg.Other = templateText(entry.NumerusForms[len(entry.NumerusForms)-1])
		}
		messages = append(messages, msg)
	}
	return messages
}

func setForm(msg *goi18n.Message, form plural.Form, text string) {
	switch form {
	case plural.Zero:
		msg.Zero = text
	case plural.One:
		msg.One = text
	case plural.Two:
		msg.Two = text
	case plural.Few:
		msg.Few = text
	case plural.Many:
		msg.Many = text
	default:
		msg.Other = text
	}
}

// templateText rewrites Qt placeholders into text/template fields.
func templateText(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	var out strings.Builder
	for i := 0; i < len(text); {
		if text[i] != '%' || i+1 >= len(text) {
			out.WriteByte(text[i])
			i++
			continue
		}
		j := i + 1
		if text[j] == 'L' && j+1 < len(text) {
			j++
		}
		if text[j] == 'n' {
			out.WriteString("{{.PluralCount}}")
			i = j + 1
			continue
		}
		end := j
		for end < len(text) && end-j < 2 && text[end] >= '0' && text[end] <= '9' {
			end++
		}
		position, err := strconv.Atoi(text[j:end])
		if err != nil || position < 1 {
			out.WriteByte('%')
			i++
			continue
		}
		out.WriteString("{{.Arg" + strconv.Itoa(position) + "}}")
		i = end
	}
	return out.String()
}

type tomlMessage struct {
	Description string `toml:"description,omitempty"`
	Zero        string `toml:"zero,omitempty"`
	One         string `toml:"one,omitempty"`
	Two         string `toml:"two,omitempty"`
	Few         string `toml:"few,omitempty"`
	Many        string `toml:"many,omitempty"`
	Other       string `toml:"other,omitempty"`
}

// TOML renders a go-i18n message file.
func TOML(cat *catalog.Catalog) ([]byte, error) {
	messages := GoI18nMessages(cat)
	table := make(map[string]tomlMessage, len(messages))
	for _, msg := range messages {
		table[msg.ID] = tomlMessage{
			Description: msg.Description,
			Zero:        msg.Zero,
			One:         msg.One,
			Two:         msg.Two,
			Few:         msg.Few,
			Many:        msg.Many,
			Other:       msg.Other,
		}
	}
	data, err := toml.Marshal(table)
	if err != nil {
		return nil, fmt.Errorf("encode toml messages: %w", err)
	}
	return data, nil
}

// TS re-encodes the catalog as a Qt Linguist document.
func TS(cat *catalog.Catalog) ([]byte, error) {
	var buf bytes.Buffer
	if err := tsfile.Encode(&buf, cat.Document()); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render encodes a catalog in the requested format.
func Render(cat *catalog.Catalog, format Format) ([]byte, error) {
	switch format {
	case FormatTS:
		return TS(cat)
	case FormatTOML:
		return TOML(cat)
	case FormatJSON:
		data, err := json.MarshalIndent(JSON(cat, cat.Language()), "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode json payload: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("%w: %q", tserrors.ErrUnsupportedFormat, format)
	}
}
