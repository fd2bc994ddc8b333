package catalog

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Format replaces %1..%99 in text with args in order, without locale
// aware number formatting.
func Format(text string, args ...any) string {
	return substitute(text, nil, nil, args)
}

// substitute expands Qt style placeholders. %N (1..99) takes args[N-1],
// %LN formats numeric arguments with the printer's digit grouping, and %n
// or %Ln take count when it is set. Placeholders without a value are kept
// as written.
func substitute(text string, printer *message.Printer, count *int, args []any) string {
	if !strings.Contains(text, "%") {
		return text
	}
	var out strings.Builder
	out.Grow(len(text))
	for i := 0; i < len(text); {
		if text[i] != '%' {
			out.WriteByte(text[i])
			i++
			continue
		}
		j := i + 1
		localized := false
		if j < len(text) && text[j] == 'L' {
			localized = true
			j++
		}
		if j < len(text) && text[j] == 'n' && count != nil {
			out.WriteString(formatArg(*count, localized, printer))
			i = j + 1
			continue
		}
		digitsEnd := j
		for digitsEnd < len(text) && digitsEnd-j < 2 && isDigit(text[digitsEnd]) {
			digitsEnd++
		}
		if digitsEnd == j {
			out.WriteByte('%')
			i++
			continue
		}
		position, _ := strconv.Atoi(text[j:digitsEnd])
		if position < 1 || position > len(args) {
			out.WriteString(text[i:digitsEnd])
			i = digitsEnd
			continue
		}
		out.WriteString(formatArg(args[position-1], localized, printer))
		i = digitsEnd
	}
	return out.String()
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func formatArg(value any, localized bool, printer *message.Printer) string {
	if localized && printer != nil && isNumber(value) {
		return printer.Sprintf("%v", number.Decimal(value))
	}
	return fmt.Sprint(value)
}

func isNumber(value any) bool {
	switch value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	default:
		return false
	}
}

const pluralSearchLimit = 200

// pluralOrder lists the integer plural categories a language uses, in the
// order Qt lists numerus forms.
func pluralOrder(tag language.Tag) []plural.Form {
	seen := make(map[plural.Form]struct{})
	for i := 0; i <= pluralSearchLimit; i++ {
		seen[plural.Cardinal.MatchPlural(tag, i, 0, 0, 0, 0)] = struct{}{}
	}
	order := make([]plural.Form, 0, len(seen))
	for _, form := range []plural.Form{plural.Zero, plural.One, plural.Two, plural.Few, plural.Many, plural.Other} {
		if _, ok := seen[form]; ok {
			order = append(order, form)
		}
	}
	return order
}

// PluralForms returns the CLDR category each numerus form index stands for.
func (c *Catalog) PluralForms() []plural.Form {
	if c == nil {
		return nil
	}
	return append([]plural.Form(nil), c.pluralOrder...)
}

func (c *Catalog) numerusForm(forms []string, n int, fallback string) string {
	if len(forms) == 0 {
		return fallback
	}
	if n < 0 {
		n = -n
	}
	category := plural.Cardinal.MatchPlural(c.tag, n, 0, 0, 0, 0)
	index := 0
	for i, form := range c.pluralOrder {
		if form == category {
			index = i
			break
		}
	}
	if index >= len(forms) {
		index = len(forms) - 1
	}
	if forms[index] == "" {
		return firstNonEmpty(forms, fallback)
	}
	return forms[index]
}
