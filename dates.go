package spacetravelling

import (
	"fmt"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/eringen/spacetravelling/prismic"
)

type dateLocale struct {
	months [12]string
	// timeFormat joins a formatted date and a time of day.
	timeFormat string
}

var supportedLocales = []language.Tag{
	language.BrazilianPortuguese,
	language.English,
}

var dateLocales = map[language.Tag]dateLocale{
	language.BrazilianPortuguese: {
		months:     [12]string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez"},
		timeFormat: "%s, às %s",
	},
	language.English: {
		months:     [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		timeFormat: "%s, at %s",
	},
}

var localeMatcher = language.NewMatcher(supportedLocales)

// DateFormatter renders CMS publication timestamps for display, e.g.
// "15 mar 2021" in pt-BR.
type DateFormatter struct {
	tag    language.Tag
	locale dateLocale
	loc    *time.Location
}

// NewDateFormatter picks the closest supported locale to locale (pt-BR when
// nothing matches) and renders times in the named zone.
func NewDateFormatter(locale, timeZone string) (*DateFormatter, error) {
	_, idx, _ := localeMatcher.Match(language.Make(locale))
	tag := supportedLocales[idx]

	loc := time.UTC
	if timeZone != "" {
		var err error
		loc, err = time.LoadLocation(timeZone)
		if err != nil {
			return nil, fmt.Errorf("load time zone %q: %w", timeZone, err)
		}
	}

	return &DateFormatter{
		tag:    tag,
		locale: dateLocales[tag],
		loc:    loc,
	}, nil
}

// Locale returns the BCP 47 tag the formatter settled on.
func (f *DateFormatter) Locale() string {
	return f.tag.String()
}

// Date formats raw as "dd MMM yyyy". Unparseable input is returned unchanged.
func (f *DateFormatter) Date(raw string) string {
	t, ok := ParsePublicationDate(raw)
	if !ok {
		return raw
	}
	t = t.In(f.loc)
	month := f.caser().String(f.locale.months[t.Month()-1])
	return fmt.Sprintf("%02d %s %d", t.Day(), month, t.Year())
}

// caser returns a fresh Caser; Casers are stateful and cannot be shared
// between goroutines.
func (f *DateFormatter) caser() cases.Caser {
	if f.tag == language.BrazilianPortuguese {
		return cases.Lower(f.tag)
	}
	return cases.Title(f.tag)
}

// DateTime formats raw with its date and time of day.
func (f *DateFormatter) DateTime(raw string) string {
	t, ok := ParsePublicationDate(raw)
	if !ok {
		return raw
	}
	return fmt.Sprintf(f.locale.timeFormat, f.Date(raw), t.In(f.loc).Format("15:04"))
}

// ParsePublicationDate parses a CMS timestamp.
func ParsePublicationDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{prismic.DateLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
