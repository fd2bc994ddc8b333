// Command tstool inspects Qt Linguist catalogs from the command line:
// looking up messages, printing statistics, validating files and converting
// them to the formats served over HTTP.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/cloudfoundry/jibber_jabber"
	"github.com/go-errors/errors"
	"github.com/integrii/flaggy"
	"github.com/samber/lo"
	"golang.org/x/text/language"

	"tscat/internal/catalog"
	"tscat/internal/export"
	"tscat/internal/i18n"
	"tscat/internal/logger"
	"tscat/internal/validation"
	"tscat/internal/version"
)

// detectLocale reports the operating system locale as an IETF tag.
var detectLocale = jibber_jabber.DetectIETF

// options holds every flag of every subcommand; only the ones of the
// selected subcommand are meaningful.
type options struct {
	debug bool

	dir            string
	domain         string
	sourceLanguage string

	lang    string
	context string
	comment string
	count   int
	args    []string
	source  string

	input  string
	output string
	format string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(argv []string, stdout, stderr io.Writer) int {
	opts := options{
		dir:            "translations",
		sourceLanguage: "en",
		lang:           "auto",
		count:          -1,
		format:         "json",
	}

	parser := flaggy.NewParser("tstool")
	parser.Description = "Inspect and convert Qt Linguist translation catalogs"
	parser.Version = fmt.Sprintf("%s (commit %s)", version.Version, version.Commit)
	parser.Bool(&opts.debug, "", "debug", "Log at debug level and print stack traces on failure")

	catalogFlags := func(sc *flaggy.Subcommand) {
		sc.String(&opts.dir, "d", "dir", "Directory holding <domain>_<locale>.ts files")
		sc.String(&opts.domain, "", "domain", "Catalog domain (file name prefix)")
		sc.String(&opts.sourceLanguage, "", "source-language", "Language the source strings are written in")
	}

	lookup := flaggy.NewSubcommand("lookup")
	lookup.Description = "Translate one message"
	catalogFlags(lookup)
	lookup.String(&opts.lang, "l", "lang", "Locale to translate to, or auto to use the system locale")
	lookup.String(&opts.context, "c", "context", "Message context")
	lookup.String(&opts.comment, "", "comment", "Disambiguation comment")
	lookup.Int(&opts.count, "n", "count", "Count selecting the plural form and replacing %n")
	lookup.StringSlice(&opts.args, "a", "arg", "Argument for %1..%99, repeatable")
	lookup.AddPositionalValue(&opts.source, "source", 1, true, "Source text to translate")

	stats := flaggy.NewSubcommand("stats")
	stats.Description = "Print per-locale message counts"
	catalogFlags(stats)

	validate := flaggy.NewSubcommand("validate")
	validate.Description = "Parse every catalog of the directory and report errors"
	catalogFlags(validate)

	convert := flaggy.NewSubcommand("convert")
	convert.Description = "Convert a .ts file to json, toml or ts"
	convert.String(&opts.input, "i", "in", "Input .ts file")
	convert.String(&opts.output, "o", "out", "Output file, stdout when empty")
	convert.String(&opts.format, "f", "format", "Output format: json, toml or ts")

	for _, sc := range []*flaggy.Subcommand{lookup, stats, validate, convert} {
		parser.AttachSubcommand(sc, 1)
	}
	if err := parser.ParseArgs(argv); err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	level := "warn"
	if opts.debug {
		level = "debug"
	}
	logger.Init(logger.Options{Level: level, Output: "stderr", Format: "console"})

	var err error
	switch {
	case lookup.Used:
		err = runLookup(opts, stdout)
	case stats.Used:
		err = runStats(opts, stdout)
	case validate.Used:
		err = runValidate(opts, stdout)
	case convert.Used:
		err = runConvert(opts, stdout)
	default:
		fmt.Fprintln(stderr, "tstool: a subcommand is required (lookup, stats, validate, convert)")
		return 2
	}
	if err != nil {
		if opts.debug {
			fmt.Fprintln(stderr, errors.Wrap(err, 1).ErrorStack())
		} else {
			fmt.Fprintf(stderr, "tstool: %v\n", err)
		}
		return 1
	}
	return 0
}

func loadRegistry(opts options) (*i18n.Registry, error) {
	if err := validation.ValidateDomain(opts.domain); err != nil {
		return nil, err
	}
	if err := validation.ValidateTranslationsDir(opts.dir); err != nil {
		return nil, err
	}
	source, err := validation.ValidateLocale(opts.sourceLanguage)
	if err != nil {
		return nil, err
	}
	return i18n.LoadDir(opts.dir, opts.domain, source)
}

// resolveLang maps the --lang flag onto a loaded locale. auto asks the
// operating system and falls back to the source language.
func resolveLang(registry *i18n.Registry, value string) (language.Tag, error) {
	if value != "auto" {
		tag, ok := registry.FromQueryLanguage(value)
		if !ok {
			return language.Und, errors.Errorf("locale %q is not loaded (have %s)", value, strings.Join(localeNames(registry), ", "))
		}
		return tag, nil
	}
	detected, err := detectLocale()
	if err != nil {
		logger.Get().Debug().Err(err).Msg("system locale not detected, using source language")
		return registry.SourceTag(), nil
	}
	tag := registry.Match(catalog.ParseLocale(detected))
	logger.Get().Debug().Str("detected", detected).Str("locale", tag.String()).Msg("system locale resolved")
	return tag, nil
}

func localeNames(registry *i18n.Registry) []string {
	return lo.Map(registry.Locales(), func(tag language.Tag, _ int) string { return tag.String() })
}

func runLookup(opts options, stdout io.Writer) error {
	if opts.context == "" {
		return errors.New("--context is required")
	}
	registry, err := loadRegistry(opts)
	if err != nil {
		return err
	}
	tag, err := resolveLang(registry, opts.lang)
	if err != nil {
		return err
	}
	args := lo.Map(opts.args, func(arg string, _ int) any { return arg })

	var text string
	if opts.count >= 0 {
		text = registry.TranslateN(tag, opts.context, opts.source, opts.comment, opts.count, args...)
	} else {
		text = registry.Translate(tag, opts.context, opts.source, opts.comment, args...)
	}
	if _, found := registry.Lookup(tag, opts.context, opts.source, opts.comment); !found {
		logger.Get().Debug().Str("locale", tag.String()).Msg("no finished translation, source text returned")
	}
	_, err = fmt.Fprintln(stdout, text)
	return err
}

func runStats(opts options, stdout io.Writer) error {
	registry, err := loadRegistry(opts)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCALE\tFILE\tCONTEXTS\tMESSAGES\tFINISHED\tUNFINISHED\tOBSOLETE\tDONE")
	for _, tag := range registry.Locales() {
		cat, ok := registry.Catalog(tag)
		if !ok {
			continue
		}
		s := cat.Stats()
		done := 100.0
		if active := s.Messages - s.Obsolete; active > 0 {
			done = 100 * float64(s.Finished) / float64(active)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			tag, registry.File(tag), s.Contexts, s.Messages, s.Finished, s.Unfinished, s.Obsolete, done)
	}
	return tw.Flush()
}

// runValidate loads every file on its own so one broken catalog does not
// hide problems in the others.
func runValidate(opts options, stdout io.Writer) error {
	if err := validation.ValidateTranslationsDir(opts.dir); err != nil {
		return err
	}
	pattern := "*.ts"
	if opts.domain != "" {
		if err := validation.ValidateDomain(opts.domain); err != nil {
			return err
		}
		pattern = opts.domain + "_*.ts"
	}
	files, err := filepath.Glob(filepath.Join(opts.dir, pattern))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.Errorf("no catalogs matching %s in %s", pattern, opts.dir)
	}
	sort.Strings(files)

	failed := lo.Filter(files, func(path string, _ int) bool {
		cat, err := catalog.LoadFile(path)
		if err != nil {
			fmt.Fprintf(stdout, "FAIL %s: %v\n", filepath.Base(path), err)
			return true
		}
		fmt.Fprintf(stdout, "ok   %s (%s, %d messages)\n", filepath.Base(path), cat.Language(), cat.Len())
		return false
	})
	if len(failed) > 0 {
		return errors.Errorf("%d of %d catalogs failed validation", len(failed), len(files))
	}
	return nil
}

func runConvert(opts options, stdout io.Writer) error {
	if opts.input == "" {
		return errors.New("--in is required")
	}
	format, err := export.ParseFormat(opts.format)
	if err != nil {
		return err
	}
	cat, err := catalog.LoadFile(opts.input)
	if err != nil {
		return err
	}
	data, err := export.Render(cat, format)
	if err != nil {
		return err
	}
	if opts.output == "" {
		_, err = stdout.Write(data)
		return err
	}
	return os.WriteFile(opts.output, data, 0o644)
}
