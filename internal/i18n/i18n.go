package i18n

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"

	"tscat/internal/catalog"
	tserrors "tscat/internal/errors"
	"tscat/internal/tsfile"
)

// Registry holds one catalog per locale. It never changes after it is
// built; reloads produce a new Registry.
type Registry struct {
	domain   string
	source   language.Tag
	catalogs map[language.Tag]*catalog.Catalog
	files    map[language.Tag]string
	fallback *catalog.Catalog
	tags     []language.Tag
	matcher  language.Matcher

	// generation is unique per process and grows with every registry built.
	generation uint64
}

var generations atomic.Uint64

// LoadDir loads every <domain>_<locale>.ts file found in dir.
func LoadDir(dir, domain string, source language.Tag) (*Registry, error) {
	return LoadFS(os.DirFS(dir), domain, source)
}

// LoadFS loads every <domain>_<locale>.ts file at the root of fsys. A single
// malformed file fails the whole load.
func LoadFS(fsys fs.FS, domain string, source language.Tag) (*Registry, error) {
	domain = strings.TrimSpace(domain)
	if domain == "" {
		return nil, tserrors.ErrInvalidDomain
	}
	paths, err := fs.Glob(fsys, domain+"_*.ts")
	if err != nil {
		return nil, fmt.Errorf("glob %s catalogs: %w", domain, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w for domain %q", tserrors.ErrNoCatalogs, domain)
	}
	sort.Strings(paths)

	catalogs := make(map[language.Tag]*catalog.Catalog, len(paths))
	files := make(map[language.Tag]string, len(paths))
	for _, name := range paths {
		cat, err := catalog.LoadFS(fsys, name)
		if err != nil {
			return nil, err
		}
		tag := cat.Tag()
		if tag == language.Und {
			tag = localeFromFileName(domain, name)
		}
		if tag == language.Und {
			return nil, fmt.Errorf("%w: cannot determine locale of %s", tserrors.ErrInvalidLocale, name)
		}
		if previous, exists := files[tag]; exists {
			return nil, fmt.Errorf("%w: locale %s defined by both %s and %s", tserrors.ErrDuplicateLocale, tag, previous, name)
		}
		files[tag] = name
		catalogs[tag] = cat
	}
	return newRegistry(domain, source, catalogs, files), nil
}

// NewRegistry builds a registry from catalogs that are already loaded.
// Catalogs must carry a language attribute.
func NewRegistry(domain string, source language.Tag, catalogs ...*catalog.Catalog) (*Registry, error) {
	byTag := make(map[language.Tag]*catalog.Catalog, len(catalogs))
	for _, cat := range catalogs {
		if cat.Tag() == language.Und {
			return nil, fmt.Errorf("%w: catalog without language", tserrors.ErrInvalidLocale)
		}
		if _, exists := byTag[cat.Tag()]; exists {
			return nil, fmt.Errorf("%w: locale %s given twice", tserrors.ErrDuplicateLocale, cat.Tag())
		}
		byTag[cat.Tag()] = cat
	}
	return newRegistry(domain, source, byTag, map[language.Tag]string{}), nil
}

func newRegistry(domain string, source language.Tag, catalogs map[language.Tag]*catalog.Catalog, files map[language.Tag]string) *Registry {
	if source == language.Und {
		source = language.English
	}
	// An empty catalog in the source language gives fallbacks the same
	// placeholder and plural handling as real catalogs.
	fallback, _ := catalog.FromDocument(&tsfile.Document{Language: source.String()})
	registry := &Registry{
		domain:   domain,
		source:   source,
		catalogs: catalogs,
		files:    files,
		fallback: fallback,

		generation: generations.Add(1),
	}

	others := make([]language.Tag, 0, len(registry.catalogs))
	for tag := range registry.catalogs {
		if tag != source {
			others = append(others, tag)
		}
	}
	sort.Slice(others, func(i, j int) bool { return others[i].String() < others[j].String() })
	registry.tags = append([]language.Tag{source}, others...)
	registry.matcher = language.NewMatcher(registry.tags)
	return registry
}

func localeFromFileName(domain, name string) language.Tag {
	base := strings.TrimSuffix(path.Base(name), path.Ext(name))
	return catalog.ParseLocale(strings.TrimPrefix(base, domain+"_"))
}

// Domain returns the file name prefix catalogs were loaded with.
func (r *Registry) Domain() string {
	return r.domain
}

// Generation identifies this registry among all registries built by the
// process. Later registries have larger generations.
func (r *Registry) Generation() uint64 {
	return r.generation
}

// SourceTag returns the language of the source strings.
func (r *Registry) SourceTag() language.Tag {
	return r.source
}

// Locales returns the supported locales, source language first.
func (r *Registry) Locales() []language.Tag {
	return append([]language.Tag(nil), r.tags...)
}

// Catalog returns the catalog loaded for tag. The source language has no
// catalog.
func (r *Registry) Catalog(tag language.Tag) (*catalog.Catalog, bool) {
	cat, ok := r.catalogs[tag]
	return cat, ok
}

// File returns the file a locale was loaded from.
func (r *Registry) File(tag language.Tag) string {
	return r.files[tag]
}

// Supports reports whether tag is the source language or has a catalog.
func (r *Registry) Supports(tag language.Tag) bool {
	if tag == r.source {
		return true
	}
	_, ok := r.catalogs[tag]
	return ok
}

// Match returns the best supported locale for the preferred tags, or the
// source language when nothing matches.
func (r *Registry) Match(preferred ...language.Tag) language.Tag {
	if len(preferred) == 0 {
		return r.source
	}
	_, index, confidence := r.matcher.Match(preferred...)
	if confidence == language.No {
		return r.source
	}
	return r.tags[index]
}

// FromQueryLanguage parses a language code coming from a query parameter
// or cookie. It only succeeds for supported locales.
func (r *Registry) FromQueryLanguage(value string) (language.Tag, bool) {
	tag := catalog.ParseLocale(value)
	if tag == language.Und {
		return language.Und, false
	}
	_, index, confidence := r.matcher.Match(tag)
	if confidence == language.No {
		return language.Und, false
	}
	return r.tags[index], true
}

// FromAcceptLanguage picks a locale from an Accept-Language header.
func (r *Registry) FromAcceptLanguage(headerValue string) language.Tag {
	if strings.TrimSpace(headerValue) == "" {
		return r.source
	}
	tags, _, err := language.ParseAcceptLanguage(headerValue)
	if err != nil {
		return r.source
	}
	return r.Match(tags...)
}

// Lookup finds a finished translation in the catalog of tag.
func (r *Registry) Lookup(tag language.Tag, context, source, disambiguation string) (catalog.Entry, bool) {
	cat, ok := r.catalogs[tag]
	if !ok {
		return catalog.Entry{}, false
	}
	return cat.Lookup(context, source, disambiguation)
}

// Translate renders a message for tag, falling back to the source string
// for unknown locales and missing messages.
func (r *Registry) Translate(tag language.Tag, context, source, disambiguation string, args ...any) string {
	cat, ok := r.catalogs[tag]
	if !ok {
		cat = r.fallback
	}
	return cat.Translate(context, source, disambiguation, args...)
}

// TranslateN renders a numerus message for tag.
func (r *Registry) TranslateN(tag language.Tag, context, source, disambiguation string, n int, args ...any) string {
	cat, ok := r.catalogs[tag]
	if !ok {
		cat = r.fallback
	}
	return cat.TranslateN(context, source, disambiguation, n, args...)
}
