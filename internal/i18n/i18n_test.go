package i18n

import (
	"errors"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	tserrors "tscat/internal/errors"
)

const testDomain = "dde-file-manager"

var (
	finnish     = language.Finnish
	portuguese  = language.Portuguese
	traditional = language.MustParse("zh-TW")
)

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	registry, err := LoadDir("../catalog/testdata", testDomain, language.English)
	require.NoError(t, err)
	return registry
}

func TestLoadDir(t *testing.T) {
	registry := loadTestRegistry(t)
	assert.Equal(t, testDomain, registry.Domain())
	assert.Equal(t, []language.Tag{language.English, finnish, portuguese, traditional}, registry.Locales())
	assert.Equal(t, "dde-file-manager_zh_TW.ts", registry.File(traditional))

	_, ok := registry.Catalog(language.English)
	assert.False(t, ok)
	assert.True(t, registry.Supports(language.English))
	assert.False(t, registry.Supports(language.German))
}

func TestRegistry_GenerationGrows(t *testing.T) {
	first := loadTestRegistry(t)
	second := loadTestRegistry(t)
	assert.Greater(t, second.Generation(), first.Generation())

	built, err := NewRegistry(testDomain, language.English)
	require.NoError(t, err)
	assert.Greater(t, built.Generation(), second.Generation())
}

func TestRegistry_Translate(t *testing.T) {
	registry := loadTestRegistry(t)

	assert.Equal(t, "1/2 lähetetty", registry.Translate(finnish, "BluetoothTransDialog", "%1/%2 Sent", "", "1", "2"))
	assert.Equal(t, "Repetir", registry.Translate(portuguese, "DFMTaskWidget", "Retry", "button"))
	assert.Equal(t, "隱藏內建磁碟", registry.Translate(traditional, "GenerateSettingTranslate", "Hide built-in disks", ""))
	assert.Equal(t, "Hide built-in disks", registry.Translate(finnish, "GenerateSettingTranslate", "Hide built-in disks", ""))
	assert.Equal(t, "1/2 Sent", registry.Translate(language.English, "BluetoothTransDialog", "%1/%2 Sent", "", "1", "2"))
	assert.Equal(t, "1/2 Sent", registry.Translate(language.German, "BluetoothTransDialog", "%1/%2 Sent", "", "1", "2"))
	assert.Equal(t, "1 file", registry.TranslateN(language.German, "A", "%n file", "", 1))

	entry, ok := registry.Lookup(portuguese, "AppController", "New Folder", "")
	require.True(t, ok)
	assert.Equal(t, "Nova pasta", entry.Translation)
	_, ok = registry.Lookup(language.German, "AppController", "New Folder", "")
	assert.False(t, ok)
}

func TestFromQueryLanguage(t *testing.T) {
	registry := loadTestRegistry(t)
	tests := []struct {
		input    string
		expected language.Tag
		ok       bool
	}{
		{"fi", finnish, true},
		{"pt", portuguese, true},
		{"zh_TW", traditional, true},
		{"zh-TW", traditional, true},
		{"en", language.English, true},
		{" FI ", finnish, true},
		{"de", language.Und, false},
		{"unknown", language.Und, false},
		{"", language.Und, false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := registry.FromQueryLanguage(tt.input)
			if ok != tt.ok || got != tt.expected {
				t.Fatalf("expected (%v,%v), got (%v,%v)", tt.expected, tt.ok, got, ok)
			}
		})
	}
}

func TestFromAcceptLanguage(t *testing.T) {
	registry := loadTestRegistry(t)
	tests := []struct {
		header   string
		expected language.Tag
	}{
		{"fi-FI,fi;q=0.9", finnish},
		{"pt;q=0.8", portuguese},
		{"zh-TW,zh;q=0.8", traditional},
		{"de,pt;q=0.5", portuguese},
		{"", language.English},
		{"de-DE", language.English},
		{";;;", language.English},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := registry.FromAcceptLanguage(tt.header)
			if got != tt.expected {
				t.Fatalf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestLoadFS_Errors(t *testing.T) {
	valid := []byte(`<TS language="fi"><context><name>A</name><message><source>a</source><translation>b</translation></message></context></TS>`)

	t.Run("empty domain", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{}, " ", language.English)
		assert.ErrorIs(t, err, tserrors.ErrInvalidDomain)
	})
	t.Run("no files", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{"other_fi.ts": {Data: valid}}, "app", language.English)
		assert.ErrorIs(t, err, tserrors.ErrNoCatalogs)
	})
	t.Run("one malformed file fails the load", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{
			"app_fi.ts": {Data: valid},
			"app_pt.ts": {Data: []byte(`<TS><context>`)},
		}, "app", language.English)
		assert.ErrorIs(t, err, tserrors.ErrMalformedDocument)
	})
	t.Run("locale from file name", func(t *testing.T) {
		registry, err := LoadFS(fstest.MapFS{
			"app_pt.ts": {Data: []byte(`<TS><context><name>A</name><message><source>a</source><translation>b</translation></message></context></TS>`)},
		}, "app", language.English)
		require.NoError(t, err)
		assert.Equal(t, "b", registry.Translate(portuguese, "A", "a", ""))
	})
	t.Run("unknown locale", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{
			"app_unknown.ts": {Data: []byte(`<TS></TS>`)},
		}, "app", language.English)
		assert.ErrorIs(t, err, tserrors.ErrInvalidLocale)
	})
	t.Run("duplicate locale", func(t *testing.T) {
		_, err := LoadFS(fstest.MapFS{
			"app_fi.ts":    {Data: valid},
			"app_fi_FI.ts": {Data: valid},
		}, "app", language.English)
		assert.ErrorIs(t, err, tserrors.ErrDuplicateLocale)
		assert.NotErrorIs(t, err, tserrors.ErrDuplicateMessage)
	})
}

func TestTranslator_UseAndReload(t *testing.T) {
	calls := 0
	loader := func() (*Registry, error) {
		calls++
		if calls == 3 {
			return nil, errors.New("disk on fire")
		}
		return LoadDir("../catalog/testdata", testDomain, language.English)
	}
	translator, err := NewTranslator(loader, portuguese)
	require.NoError(t, err)

	assert.Equal(t, portuguese, translator.Active())
	assert.Equal(t, "Repetir", translator.Tr("DFMTaskWidget", "Retry", "button"))
	assert.Equal(t, "pt", translator.ActiveCatalog().Language())

	require.NoError(t, translator.Use(finnish))
	assert.Equal(t, "1/2 lähetetty", translator.Tr("BluetoothTransDialog", "%1/%2 Sent", "", 1, 2))
	assert.Equal(t, "3 Sent", translator.TrN("BluetoothTransDialog", "%n Sent", "", 3))

	assert.ErrorIs(t, translator.Use(language.German), tserrors.ErrLocaleNotFound)
	assert.Equal(t, finnish, translator.Active())

	previous := translator.Registry()
	require.NoError(t, translator.Reload())
	assert.NotSame(t, previous, translator.Registry())
	assert.Equal(t, finnish, translator.Active())
	_, lastErr := translator.LastReload()
	assert.Empty(t, lastErr)

	kept := translator.Registry()
	assert.Error(t, translator.Reload())
	assert.Same(t, kept, translator.Registry())
	_, lastErr = translator.LastReload()
	assert.Equal(t, "disk on fire", lastErr)
}

func TestNewTranslator_UnsupportedActiveFallsBack(t *testing.T) {
	translator, err := NewTranslator(func() (*Registry, error) {
		return LoadDir("../catalog/testdata", testDomain, language.English)
	}, language.MustParse("pt-BR"))
	require.NoError(t, err)
	assert.Equal(t, portuguese, translator.Active())

	translator, err = NewTranslator(func() (*Registry, error) {
		return LoadDir("../catalog/testdata", testDomain, language.English)
	}, language.German)
	require.NoError(t, err)
	assert.Equal(t, language.English, translator.Active())
	assert.Nil(t, translator.ActiveCatalog())
}

func TestNewTranslator_LoadFailure(t *testing.T) {
	_, err := NewTranslator(func() (*Registry, error) {
		return LoadDir("does-not-exist", testDomain, language.English)
	}, language.English)
	assert.Error(t, err)
}

func TestTranslator_ConcurrentReaders(t *testing.T) {
	translator, err := NewTranslator(func() (*Registry, error) {
		return LoadDir("../catalog/testdata", testDomain, language.English)
	}, finnish)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%4 == 0 {
					_ = translator.Reload()
					continue
				}
				got := translator.Tr("AppController", "New Folder", "")
				assert.Contains(t, []string{"Uusi kansio", "Nova pasta"}, got)
			}
		}(i)
	}
	for j := 0; j < 20; j++ {
		if j%2 == 0 {
			_ = translator.Use(portuguese)
		} else {
			_ = translator.Use(finnish)
		}
	}
	wg.Wait()
}
