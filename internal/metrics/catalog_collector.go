package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/language"

	"tscat/internal/i18n"
)

var (
	cacheSizeDesc         = prometheus.NewDesc("tscat_cache_size", "Number of catalog payloads currently cached", nil, nil)
	localesDesc           = prometheus.NewDesc("tscat_catalog_locales", "Number of locales served, source language included", nil, nil)
	messagesDesc          = prometheus.NewDesc("tscat_catalog_messages", "Catalog messages grouped by locale and state", []string{"locale", "state"}, nil)
	contextsDesc          = prometheus.NewDesc("tscat_catalog_contexts", "Number of contexts per locale", []string{"locale"}, nil)
	lastReloadDesc        = prometheus.NewDesc("tscat_catalog_last_reload_timestamp_seconds", "Timestamp of the last catalog load attempt", nil, nil)
	lastReloadSuccessDesc = prometheus.NewDesc("tscat_catalog_last_reload_success", "Whether the last catalog load succeeded (1) or failed (0)", nil, nil)
	activeLocaleDesc      = prometheus.NewDesc("tscat_active_locale", "Active locale of the translator (always 1)", []string{"locale"}, nil)
)

// CatalogSource is what the collector reads at scrape time. *i18n.Translator
// implements it.
type CatalogSource interface {
	Registry() *i18n.Registry
	LastReload() (time.Time, string)
	Active() language.Tag
}

// Sizer reports how many entries a cache holds.
type Sizer interface {
	Len() int
}

type catalogCollector struct {
	source CatalogSource
	cache  Sizer
}

// NewCatalogCollector returns a Prometheus collector exposing catalog sizes
// and reload status. cache may be nil.
func NewCatalogCollector(source CatalogSource, cache Sizer) prometheus.Collector {
	return &catalogCollector{source: source, cache: cache}
}

func (collector *catalogCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- cacheSizeDesc
	ch <- localesDesc
	ch <- messagesDesc
	ch <- contextsDesc
	ch <- lastReloadDesc
	ch <- lastReloadSuccessDesc
	ch <- activeLocaleDesc
}

func (collector *catalogCollector) Collect(ch chan<- prometheus.Metric) {
	at, lastErr := collector.source.LastReload()
	success := 1.0
	if lastErr != "" {
		success = 0
	}
	ch <- prometheus.MustNewConstMetric(lastReloadDesc, prometheus.GaugeValue, float64(at.Unix()))
	ch <- prometheus.MustNewConstMetric(lastReloadSuccessDesc, prometheus.GaugeValue, success)
	ch <- prometheus.MustNewConstMetric(activeLocaleDesc, prometheus.GaugeValue, 1, collector.source.Active().String())

	cacheSize := 0
	if collector.cache != nil {
		cacheSize = collector.cache.Len()
	}
	ch <- prometheus.MustNewConstMetric(cacheSizeDesc, prometheus.GaugeValue, float64(cacheSize))

	registry := collector.source.Registry()
	if registry == nil {
		return
	}
	locales := registry.Locales()
	ch <- prometheus.MustNewConstMetric(localesDesc, prometheus.GaugeValue, float64(len(locales)))
	for _, tag := range locales {
		cat, ok := registry.Catalog(tag)
		if !ok {
			continue
		}
		locale := tag.String()
		stats := cat.Stats()
		ch <- prometheus.MustNewConstMetric(contextsDesc, prometheus.GaugeValue, float64(stats.Contexts), locale)
		ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.GaugeValue, float64(stats.Finished), locale, "finished")
		ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.GaugeValue, float64(stats.Unfinished), locale, "unfinished")
		ch <- prometheus.MustNewConstMetric(messagesDesc, prometheus.GaugeValue, float64(stats.Obsolete), locale, "obsolete")
	}
}
