package validation

import (
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/text/language"

	tserrors "tscat/internal/errors"
)

const maxCacheTTL = 24 * time.Hour

// ValidateDomain checks a catalog file name prefix such as "dde-file-manager".
// Path separators and glob metacharacters are rejected because the domain is
// used to build a file pattern.
func ValidateDomain(domain string) error {
	trimmed := strings.TrimSpace(domain)
	if trimmed == "" {
		return tserrors.ErrInvalidDomain
	}
	if strings.ContainsAny(trimmed, `/\*?[]`) {
		return fmt.Errorf("%w: %q", tserrors.ErrInvalidDomain, domain)
	}
	return nil
}

// ValidateLocale parses a locale code. Both "zh_TW" and "zh-TW" are accepted.
func ValidateLocale(locale string) (language.Tag, error) {
	trimmed := strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	if trimmed == "" {
		return language.Und, tserrors.ErrInvalidLocale
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q", tserrors.ErrInvalidLocale, locale)
	}
	return tag, nil
}

// ValidateCacheTTL accepts zero (cache disabled) up to one day.
func ValidateCacheTTL(ttl time.Duration) error {
	if ttl < 0 || ttl > maxCacheTTL {
		return fmt.Errorf("%w: %s", tserrors.ErrInvalidCacheTTL, ttl)
	}
	return nil
}

func ValidateTranslationsDir(dir string) error {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return tserrors.ErrInvalidDirectory
	}
	info, err := os.Stat(trimmed)
	if err != nil {
		return fmt.Errorf("%w: %v", tserrors.ErrInvalidDirectory, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", tserrors.ErrInvalidDirectory, trimmed)
	}
	return nil
}
