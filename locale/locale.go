/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package locale holds the bundled en/ja strings and picks one per request.
package locale

import (
	_ "embed"
	"fmt"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/Seednode/janken/tournament"
)

//go:embed locales.yaml
var bundled []byte

// Locale is one language's strings.
type Locale struct {
	Tag                string            `yaml:"-" json:"tag"`
	DefaultParticipant string            `yaml:"default_participant" json:"-"`
	Moves              map[string]string `yaml:"moves" json:"moves"`
	Outcomes           map[string]string `yaml:"outcomes" json:"-"`
	Client             map[string]string `yaml:"client" json:"client"`
}

// DefaultName satisfies tournament.DefaultName.
func (l *Locale) DefaultName(index int) string {
	return fmt.Sprintf(l.DefaultParticipant, index)
}

func (l *Locale) MoveName(m tournament.Move) string {
	if name, ok := l.Moves[string(m)]; ok {
		return name
	}
	return string(m)
}

// OutcomeText renders the round result banner.
func (l *Locale) OutcomeText(o tournament.Outcome) string {
	text := l.Outcomes[string(o.Kind)]
	if o.Kind == tournament.OutcomeDecisive {
		return fmt.Sprintf(text, l.MoveName(o.WinningMove))
	}
	return text
}

// Catalog matches Accept-Language headers against the bundled locales.
type Catalog struct {
	locales  []*Locale
	matcher  language.Matcher
	fallback *Locale
}

// Supported lists bundled tags; the first entry is the fallback.
var Supported = []language.Tag{language.English, language.Japanese}

func Load() (*Catalog, error) {
	return Parse(bundled, Supported)
}

// Parse builds a Catalog from YAML keyed by BCP 47 tag. tags orders the
// matcher; the first tag is used when nothing matches.
func Parse(data []byte, tags []language.Tag) (*Catalog, error) {
	raw := map[string]*Locale{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal locales: %w", err)
	}

	if len(tags) == 0 {
		return nil, fmt.Errorf("no locales requested")
	}

	c := &Catalog{}
	for _, tag := range tags {
		l, ok := raw[tag.String()]
		if !ok || l == nil {
			return nil, fmt.Errorf("missing locale %q", tag)
		}
		l.Tag = tag.String()
		c.locales = append(c.locales, l)
	}

	c.matcher = language.NewMatcher(tags)
	c.fallback = c.locales[0]

	return c, nil
}

// Match picks the best locale for an Accept-Language header value.
func (c *Catalog) Match(acceptLanguage string) *Locale {
	prefs, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(prefs) == 0 {
		return c.fallback
	}

	_, index, conf := c.matcher.Match(prefs...)
	if conf == language.No {
		return c.fallback
	}

	return c.locales[index]
}

// Lookup returns the locale for an exact tag such as "ja", or the fallback.
func (c *Catalog) Lookup(tag string) *Locale {
	for _, l := range c.locales {
		if l.Tag == tag {
			return l
		}
	}
	return c.fallback
}

func (c *Catalog) Fallback() *Locale {
	return c.fallback
}
