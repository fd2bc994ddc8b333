// Package tsfile reads and writes Qt Linguist translation source (.ts) documents.
package tsfile

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"

	tserrors "tscat/internal/errors"
)

// Translation types recognised on the <translation> element.
const (
	TypeUnfinished = "unfinished"
	TypeVanished   = "vanished"
	TypeObsolete   = "obsolete"
)

// Document is the <TS> root element.
type Document struct {
	XMLName        xml.Name  `xml:"TS"`
	Version        string    `xml:"version,attr,omitempty"`
	Language       string    `xml:"language,attr,omitempty"`
	SourceLanguage string    `xml:"sourcelanguage,attr,omitempty"`
	Contexts       []Context `xml:"context"`
}

// Context groups the messages of one UI class.
type Context struct {
	Name     *string   `xml:"name"`
	Comment  string    `xml:"comment,omitempty"`
	Messages []Message `xml:"message"`
}

type Message struct {
	ID                string      `xml:"id,attr,omitempty"`
	Numerus           string      `xml:"numerus,attr,omitempty"`
	Locations         []Location  `xml:"location"`
	Source            *string     `xml:"source"`
	OldSource         string      `xml:"oldsource,omitempty"`
	Comment           string      `xml:"comment,omitempty"`
	ExtraComment      string      `xml:"extracomment,omitempty"`
	TranslatorComment string      `xml:"translatorcomment,omitempty"`
	Translation       Translation `xml:"translation"`
}

// Location is provenance metadata for translator tooling. Line may be
// absolute ("42") or relative to the previous location ("+3").
type Location struct {
	Filename string `xml:"filename,attr,omitempty"`
	Line     string `xml:"line,attr,omitempty"`
}

type Translation struct {
	Type         string   `xml:"type,attr,omitempty"`
	Text         string   `xml:",chardata"`
	NumerusForms []string `xml:"numerusform"`
}

// IsNumerus reports whether the message carries plural forms.
func (m Message) IsNumerus() bool {
	return strings.EqualFold(m.Numerus, "yes")
}

// ContextName returns the context name or an empty string when absent.
func (c Context) ContextName() string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}

// SourceText returns the source string or an empty string when absent.
func (m Message) SourceText() string {
	if m.Source == nil {
		return ""
	}
	return *m.Source
}

// Decode parses a TS document. Any structural problem fails the whole decode.
func Decode(r io.Reader) (*Document, error) {
	decoder := xml.NewDecoder(bufio.NewReader(r))
	decoder.CharsetReader = charsetReader
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", tserrors.ErrMalformedDocument, err)
	}
	if err := expectEnd(decoder); err != nil {
		return nil, fmt.Errorf("%w: %v", tserrors.ErrMalformedDocument, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// expectEnd reads what follows the root element. Only whitespace, comments
// and processing instructions may come before EOF.
func expectEnd(decoder *xml.Decoder) error {
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch t := token.(type) {
		case xml.StartElement:
			return fmt.Errorf("element <%s> after the root element", t.Name.Local)
		case xml.CharData:
			if strings.TrimSpace(string(t)) != "" {
				return fmt.Errorf("text %q after the root element", strings.TrimSpace(string(t)))
			}
		case xml.ProcInst:
			if t.Target == "xml" {
				return fmt.Errorf("xml declaration after the root element")
			}
		}
	}
}

// Validate checks the elements the schema requires.
func (d *Document) Validate() error {
	for contextIndex, context := range d.Contexts {
		if context.Name == nil || strings.TrimSpace(*context.Name) == "" {
			return fmt.Errorf("%w: context #%d", tserrors.ErrMissingContextName, contextIndex+1)
		}
		for messageIndex, message := range context.Messages {
			if message.Source == nil {
				return fmt.Errorf("%w: context %q message #%d", tserrors.ErrMissingSource, *context.Name, messageIndex+1)
			}
		}
	}
	return nil
}

// Encode writes the document the way lupdate lays it out.
func Encode(w io.Writer, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: nil document", tserrors.ErrMalformedDocument)
	}
	if _, err := io.WriteString(w, "<?xml version=\"1.0\" encoding=\"utf-8\"?>\n<!DOCTYPE TS>\n"); err != nil {
		return err
	}
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "    ")
	if err := encoder.Encode(doc); err != nil {
		return fmt.Errorf("encode ts document: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	encoding, err := ianaindex.IANA.Encoding(label)
	if err != nil {
		return nil, err
	}
	if encoding == nil {
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
	return encoding.NewDecoder().Reader(input), nil
}
