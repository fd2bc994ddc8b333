package i18n

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/language"

	"tscat/internal/catalog"
	tserrors "tscat/internal/errors"
)

// Loader builds a fresh registry, typically from disk.
type Loader func() (*Registry, error)

type state struct {
	registry *Registry
	active   language.Tag
}

// Translator serves the current registry and active locale. Both are
// swapped together, so readers never see a registry paired with a locale
// it does not support.
type Translator struct {
	loader Loader

	current atomic.Pointer[state]

	reloadMu        sync.Mutex
	lastReload      atomic.Int64
	lastReloadError atomic.Pointer[string]
}

// NewTranslator loads the initial registry. A load failure is returned
// as is; there is nothing to fall back to yet.
func NewTranslator(loader Loader, active language.Tag) (*Translator, error) {
	registry, err := loader()
	if err != nil {
		return nil, err
	}
	t := &Translator{loader: loader}
	t.current.Store(&state{registry: registry, active: supported(registry, active)})
	t.lastReload.Store(time.Now().UnixNano())
	return t, nil
}

func supported(registry *Registry, tag language.Tag) language.Tag {
	if registry.Supports(tag) {
		return tag
	}
	return registry.Match(tag)
}

// Registry returns the registry currently in use.
func (t *Translator) Registry() *Registry {
	return t.current.Load().registry
}

// Active returns the locale used by Tr and TrN.
func (t *Translator) Active() language.Tag {
	return t.current.Load().active
}

// ActiveCatalog returns the catalog of the active locale, or nil when the
// source language is active.
func (t *Translator) ActiveCatalog() *catalog.Catalog {
	current := t.current.Load()
	cat, _ := current.registry.Catalog(current.active)
	return cat
}

// Use switches the active locale.
func (t *Translator) Use(tag language.Tag) error {
	for {
		current := t.current.Load()
		if !current.registry.Supports(tag) {
			return fmt.Errorf("%w: %s", tserrors.ErrLocaleNotFound, tag)
		}
		next := &state{registry: current.registry, active: tag}
		if t.current.CompareAndSwap(current, next) {
			return nil
		}
	}
}

// Tr translates a message into the active locale.
func (t *Translator) Tr(context, source, disambiguation string, args ...any) string {
	current := t.current.Load()
	return current.registry.Translate(current.active, context, source, disambiguation, args...)
}

// TrN translates a numerus message into the active locale.
func (t *Translator) TrN(context, source, disambiguation string, n int, args ...any) string {
	current := t.current.Load()
	return current.registry.TranslateN(current.active, context, source, disambiguation, n, args...)
}

// Reload builds a new registry with the loader and swaps it in. On
// failure the previous registry stays in place.
func (t *Translator) Reload() error {
	t.reloadMu.Lock()
	defer t.reloadMu.Unlock()

	registry, err := t.loader()
	t.lastReload.Store(time.Now().UnixNano())
	if err != nil {
		message := err.Error()
		t.lastReloadError.Store(&message)
		return err
	}
	t.lastReloadError.Store(nil)
	for {
		current := t.current.Load()
		next := &state{registry: registry, active: supported(registry, current.active)}
		if t.current.CompareAndSwap(current, next) {
			return nil
		}
	}
}

// LastReload returns when the registry was last (re)loaded and the error
// of that attempt, if any.
func (t *Translator) LastReload() (time.Time, string) {
	at := time.Unix(0, t.lastReload.Load())
	if message := t.lastReloadError.Load(); message != nil {
		return at, *message
	}
	return at, ""
}
