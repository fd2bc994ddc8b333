package errors

import "errors"

var (
	ErrMalformedDocument  = errors.New("malformed translation document")
	ErrMissingSource      = errors.New("message has no source")
	ErrMissingContextName = errors.New("context has no name")
	ErrDuplicateMessage   = errors.New("duplicate message")
	ErrDuplicateLocale    = errors.New("duplicate locale")
	ErrNoCatalogs         = errors.New("no translation catalogs found")
	ErrLocaleNotFound     = errors.New("locale not found")
	ErrInvalidLocale      = errors.New("invalid locale")
	ErrUnsupportedFormat  = errors.New("unsupported export format")
	ErrInvalidDomain      = errors.New("invalid translation domain")
	ErrInvalidCacheTTL    = errors.New("invalid cache ttl")
	ErrInvalidDirectory   = errors.New("invalid translations directory")
	ErrReloadFailed       = errors.New("translation reload failed")
	ErrSettingsNotFound   = errors.New("settings file not found")
	ErrInvalidSettings    = errors.New("invalid settings format")
	ErrInvalidQuery       = errors.New("invalid lookup query")
)
