package snapshot

import (
	"strings"
	"time"
)

// DayNames holds weekday names indexed by time.Weekday.
type DayNames [7]string

var EnglishDayNames = DayNames{
	time.Sunday:    "Sunday",
	time.Monday:    "Monday",
	time.Tuesday:   "Tuesday",
	time.Wednesday: "Wednesday",
	time.Thursday:  "Thursday",
	time.Friday:    "Friday",
	time.Saturday:  "Saturday",
}

var dayNamesByLang = map[string]DayNames{
	"en": EnglishDayNames,
	"uk": {
		time.Sunday:    "Неділя",
		time.Monday:    "Понеділок",
		time.Tuesday:   "Вівторок",
		time.Wednesday: "Середа",
		time.Thursday:  "Четвер",
		time.Friday:    "П'ятниця",
		time.Saturday:  "Субота",
	},
	"de": {
		time.Sunday:    "Sonntag",
		time.Monday:    "Montag",
		time.Tuesday:   "Dienstag",
		time.Wednesday: "Mittwoch",
		time.Thursday:  "Donnerstag",
		time.Friday:    "Freitag",
		time.Saturday:  "Samstag",
	},
}

// DayNamesFor picks the table for a language tag such as "uk" or "de-AT".
// Unknown languages get English.
func DayNamesFor(lang string) DayNames {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, "-_"); i > 0 {
		lang = lang[:i]
	}
	if names, ok := dayNamesByLang[lang]; ok {
		return names
	}
	return EnglishDayNames
}

func (n DayNames) isZero() bool {
	return n == DayNames{}
}

func (n DayNames) name(d time.Weekday) string {
	return n[d]
}
