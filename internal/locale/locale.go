// Package locale loads the embedded message catalogs used for event summaries
// and human-readable CLI output.
package locale

import (
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"github.com/tartampluch/go-ethiocal/internal/config"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

const (
	localeDir    = "locales"
	localePrefix = "active."
	localeSuffix = ".json"
)

// Catalog translates message keys into the active language.
type Catalog struct {
	bundle    *i18n.Bundle
	localizer *i18n.Localizer
	languages []string
}

// NewCatalog loads every embedded locale and selects lang.
// Unknown languages fall back to English.
func NewCatalog(lang string) (*Catalog, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	entries, err := localeFS.ReadDir(localeDir)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.ErrLocalesAccess, err)
	}

	c := &Catalog{bundle: bundle}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, localePrefix) || !strings.HasSuffix(name, localeSuffix) {
			slog.Debug(config.MsgLocaleSkip,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		langCode := strings.TrimSuffix(strings.TrimPrefix(name, localePrefix), localeSuffix)
		if langCode == "" {
			slog.Warn(config.MsgLocaleBadName,
				config.LogKeyComponent, config.CompI18n,
				config.LogKeyFile, name,
			)
			continue
		}

		if _, err := bundle.LoadMessageFileFS(localeFS, localeDir+"/"+name); err != nil {
			return nil, fmt.Errorf("%s %s: %w", config.ErrLocaleLoad, name, err)
		}
		c.languages = append(c.languages, langCode)
		slog.Debug(config.MsgLocaleLoaded,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyLang, langCode,
			config.LogKeyFile, name,
		)
	}
	sort.Strings(c.languages)

	c.SetLanguage(lang)
	return c, nil
}

// Languages lists the language codes found in the embedded catalogs.
func (c *Catalog) Languages() []string {
	return append([]string(nil), c.languages...)
}

// SetLanguage switches the active language.
func (c *Catalog) SetLanguage(lang string) {
	if lang == "" {
		lang = config.DefaultLanguage
	}
	c.localizer = i18n.NewLocalizer(c.bundle, lang)
}

// Msg translates key with optional template data. A missing key is
// returned unchanged so the output stays readable.
func (c *Catalog) Msg(key string, data map[string]any) string {
	msg, err := c.localizer.Localize(&i18n.LocalizeConfig{
		MessageID:    key,
		TemplateData: data,
	})
	if err != nil {
		slog.Debug(config.MsgTransMissing,
			config.LogKeyComponent, config.CompI18n,
			config.LogKeyKey, key,
			config.LogKeyError, err,
		)
		return key
	}
	return msg
}

// SummaryFormatter returns a closure that localizes the event summary,
// suitable for engine.Generator.FormatSummary.
func (c *Catalog) SummaryFormatter() func(name string, age int, yearKnown bool) string {
	return func(name string, age int, yearKnown bool) string {
		key := config.TKeyEvtSummary
		data := map[string]any{"Name": name}
		if yearKnown {
			if age == 0 {
				key = config.TKeyEvtSummaryBirth
			} else {
				key = config.TKeyEvtSummaryAge
				data["Age"] = age
			}
		}

		if msg := c.Msg(key, data); msg != key {
			return msg
		}

		switch {
		case !yearKnown:
			return fmt.Sprintf(config.FallbackSummary, name)
		case age == 0:
			return fmt.Sprintf(config.FallbackSummaryBirth, name)
		default:
			return fmt.Sprintf(config.FallbackSummaryAge, name, age)
		}
	}
}
