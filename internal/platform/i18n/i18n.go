package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// Resolver negotiates the content language among a fixed set of supported languages.
type Resolver struct {
	supported []string
	fallback  string
	matcher   language.Matcher
}

// NewResolver builds a resolver. The fallback language is always supported and
// wins whenever negotiation finds no acceptable match.
func NewResolver(fallback string, supported []string) *Resolver {
	fallback = strings.ToLower(strings.TrimSpace(fallback))
	if fallback == "" {
		fallback = "ja"
	}
	langs := []string{fallback}
	for _, l := range supported {
		l = strings.ToLower(strings.TrimSpace(l))
		if l == "" || contains(langs, l) {
			continue
		}
		langs = append(langs, l)
	}
	tags := make([]language.Tag, 0, len(langs))
	for _, l := range langs {
		tags = append(tags, language.Make(l))
	}
	return &Resolver{
		supported: langs,
		fallback:  fallback,
		matcher:   language.NewMatcher(tags),
	}
}

// Supported returns the supported languages, fallback first.
func (r *Resolver) Supported() []string {
	out := make([]string, len(r.supported))
	copy(out, r.supported)
	return out
}

// Fallback returns the configured fallback language.
func (r *Resolver) Fallback() string { return r.fallback }

// Resolve chooses the best supported language from an Accept-Language header.
func (r *Resolver) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return r.fallback
	}
	_, idx, conf := r.matcher.Match(prefs...)
	if conf == language.No {
		return r.fallback
	}
	return r.supported[idx]
}

// Normalize maps an explicit language choice such as "en-GB" onto a supported
// language. It returns "" when the value is unsupported.
func (r *Resolver) Normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	tag, err := language.Parse(value)
	if err != nil {
		return ""
	}
	_, idx, conf := r.matcher.Match(tag)
	if conf == language.No {
		return ""
	}
	return r.supported[idx]
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
