package viewsync

import (
	"strings"

	"golang.org/x/text/language"
)

// Message keys understood by the default catalog
const (
	MessageGenericError   = "errors.generic"
	MessageSessionExpired = "errors.session_expired"
	MessageNotFound       = "errors.not_found"
)

// DefaultLanguages are the languages of the pipe separated messages the
// backend sends, in variant order
var DefaultLanguages = []language.Tag{
	language.English,
	language.Arabic,
}

// DefaultCatalog holds the messages the library emits itself
var DefaultCatalog = map[string]string{
	MessageGenericError:   "Something went wrong, please try again | حدث خطأ ما، يرجى المحاولة مرة أخرى",
	MessageSessionExpired: "Your session has expired, please sign in again | انتهت صلاحية الجلسة، يرجى تسجيل الدخول مرة أخرى",
	MessageNotFound:       "No data found | لا توجد بيانات",
}

// Localizer turns a message key or a raw server message into the text shown
// to the user
type Localizer interface {
	Localize(msg string, locale language.Tag) string
}

// LocalizerFunc adapts a function to the Localizer interface
type LocalizerFunc func(msg string, locale language.Tag) string

// Localize implements the Localizer interface
func (f LocalizerFunc) Localize(msg string, locale language.Tag) string {
	return f(msg, locale)
}

// PipeLocalizer localizes messages of the form "English | Arabic": each
// variant belongs to the language at the same position of the configured
// languages. If the variant for the requested locale is missing, the first
// non-empty variant is used.
type PipeLocalizer struct {
	matcher language.Matcher
	catalog map[string]string
}

// NewPipeLocalizer returns a PipeLocalizer for the given variant languages
// (DefaultLanguages if empty). catalog maps message keys to pipe separated
// messages; DefaultCatalog is used if it is nil.
func NewPipeLocalizer(languages []language.Tag, catalog map[string]string) *PipeLocalizer {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	if catalog == nil {
		catalog = DefaultCatalog
	}
	return &PipeLocalizer{
		matcher: language.NewMatcher(languages),
		catalog: catalog,
	}
}

// Localize implements the Localizer interface
func (l *PipeLocalizer) Localize(msg string, locale language.Tag) string {
	if m, ok := l.catalog[msg]; ok {
		msg = m
	}
	if !strings.Contains(msg, "|") {
		return strings.TrimSpace(msg)
	}
	variants := strings.Split(msg, "|")
	for i, v := range variants {
		variants[i] = strings.TrimSpace(v)
	}
	_, idx, _ := l.matcher.Match(locale)
	if idx < len(variants) && variants[idx] != "" {
		return variants[idx]
	}
	for _, v := range variants {
		if v != "" {
			return v
		}
	}
	return ""
}
