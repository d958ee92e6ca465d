package services

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/custodia-labs/sercha-assist/internal/core/domain"
)

// Slot validation failures. Messages are shown to the user as the reason
// a value was not accepted.
var (
	errDateUnrecognized = errors.New("I couldn't work out which date you meant")
	errDatePast         = errors.New("that date is in the past")
	errTimeUnrecognized = errors.New("I couldn't work out which time you meant")
	errTimeAmbiguous    = errors.New("I'm not sure whether you meant AM or PM")
	errTimeVague        = errors.New("I need an exact time rather than a part of the day")
	errEmailInvalid     = errors.New("that doesn't look like a valid email address")
	errNameInvalid      = errors.New("that doesn't look like a name")
)

const maxNameLength = 100

const (
	monthExpr   = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`
	weekdayExpr = `(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`
	countExpr   = `(\d{1,3}|a|an|one|two|three|four|five|six|seven|eight|nine|ten)`
	ordinalExpr = `(?:st|nd|rd|th)?`
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var counts = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// datePattern recognizes one family of date phrases and resolves a
// match against today.
type datePattern struct {
	re      *regexp.Regexp
	resolve func(m []string, today time.Time) (time.Time, bool)
}

// Order matters: the first pattern found in a message wins, so longer
// phrases come before their prefixes.
var datePatterns = []datePattern{
	{
		re: phrase(`(?:the\s+)?day\s+after\s+tomorrow\b`),
		resolve: func(_ []string, today time.Time) (time.Time, bool) {
			return today.AddDate(0, 0, 2), true
		},
	},
	{
		re: phrase(`tomorrow\b`),
		resolve: func(_ []string, today time.Time) (time.Time, bool) {
			return today.AddDate(0, 0, 1), true
		},
	},
	{
		re: phrase(`today\b`),
		resolve: func(_ []string, today time.Time) (time.Time, bool) {
			return today, true
		},
	},
	{
		re: phrase(`in\s+` + countExpr + `\s+(day|week)s?\b`),
		resolve: func(m []string, today time.Time) (time.Time, bool) {
			n, ok := counts[m[1]]
			if !ok {
				var err error
				if n, err = strconv.Atoi(m[1]); err != nil {
					return time.Time{}, false
				}
			}
			if m[2] == "week" {
				n *= 7
			}
			return today.AddDate(0, 0, n), true
		},
	},
	{
		re: phrase(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})\b`),
		resolve: func(m []string, today time.Time) (time.Time, bool) {
			y, _ := strconv.Atoi(m[1])
			mo, _ := strconv.Atoi(m[2])
			d, _ := strconv.Atoi(m[3])
			return calendarDate(y, time.Month(mo), d, today.Location())
		},
	},
	{
		re: phrase(monthExpr + `\.?\s+(\d{1,2})` + ordinalExpr + `\b(?:,?\s+(\d{4})\b)?`),
		resolve: func(m []string, today time.Time) (time.Time, bool) {
			d, _ := strconv.Atoi(m[2])
			return monthDay(m[1], d, m[3], today)
		},
	},
	{
		re: phrase(`(?:the\s+)?(\d{1,2})` + ordinalExpr + `\s+(?:of\s+)?` + monthExpr + `\b(?:,?\s+(\d{4})\b)?`),
		resolve: func(m []string, today time.Time) (time.Time, bool) {
			d, _ := strconv.Atoi(m[1])
			return monthDay(m[2], d, m[3], today)
		},
	},
	{
		re: phrase(`(?:(?:next|this|coming)\s+)?` + weekdayExpr + `\b`),
		resolve: func(m []string, today time.Time) (time.Time, bool) {
			ahead := (int(weekdays[m[1]]) - int(today.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			return today.AddDate(0, 0, ahead), true
		},
	},
}

// timePattern recognizes one family of clock phrases. Ambiguous phrases
// resolve to an error instead of a value.
type timePattern struct {
	re      *regexp.Regexp
	resolve func(m []string) (string, error)
}

var timePatterns = []timePattern{
	{
		re: phrase(`(noon|midday|midnight)\b`),
		resolve: func(m []string) (string, error) {
			if m[1] == "midnight" {
				return "00:00", nil
			}
			return "12:00", nil
		},
	},
	{
		re: phrase(`(\d{1,2})(?:[:.](\d{2}))?\s*([ap])\.?m\b\.?`),
		resolve: func(m []string) (string, error) {
			h, _ := strconv.Atoi(m[1])
			mins := 0
			if m[2] != "" {
				mins, _ = strconv.Atoi(m[2])
			}
			if h < 1 || h > 12 || mins > 59 {
				return "", errTimeUnrecognized
			}
			if h == 12 {
				h = 0
			}
			if m[3] == "p" {
				h += 12
			}
			return clock(h, mins), nil
		},
	},
	{
		re: phrase(`(\d{1,2})[:h](\d{2})\b`),
		resolve: func(m []string) (string, error) {
			h, _ := strconv.Atoi(m[1])
			mins, _ := strconv.Atoi(m[2])
			if h > 23 || mins > 59 {
				return "", errTimeUnrecognized
			}
			// "2:30" could be either half of the day; "02:30" and "14:30" cannot
			if len(m[1]) == 1 && h >= 1 && h <= 9 {
				return "", errTimeAmbiguous
			}
			return clock(h, mins), nil
		},
	},
	{
		re: phrase(`(\d{1,2})\s+o'?clock\b`),
		resolve: func(m []string) (string, error) {
			return "", errTimeAmbiguous
		},
	},
	{
		re: phrase(`(morning|afternoon|evening|tonight|night|lunchtime)\b`),
		resolve: func(m []string) (string, error) {
			return "", errTimeVague
		},
	},
}

var (
	bareHour = regexp.MustCompile(`^(?:at\s+)?(\d{1,2})$`)

	emailPattern  = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9\-]*[A-Za-z0-9])?)+$`)
	emailInText   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)+`)
	namedAs       = regexp.MustCompile(`(?i:\b(?:my\s+name\s+is|name\s+is|i\s+am|i'm|this\s+is|call\s+me)\s+)([A-Z][\pL'\-]*(?:\s+[A-Z][\pL'\-]*){0,3})`)
	bookedFor     = regexp.MustCompile(`\bfor\s+([A-Z][\pL'\-]*(?:\s+[A-Z][\pL'\-]*){1,3})`)
	wholeName     = regexp.MustCompile(`^[\pL][\pL'\-.]*(?:\s+[\pL][\pL'\-.]*){0,4}$`)
	nonNameTokens = regexp.MustCompile(`(?i)^(?:` + monthExpr + `|` + weekdayExpr + `|today|tomorrow|yes|no|ok|okay|sure|please|thanks|hi|hello)$`)
)

// phrase compiles a case-insensitive expression that starts on a word boundary
func phrase(expr string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b(?:` + expr + `)`)
}

func calendarDate(y int, m time.Month, d int, loc *time.Location) (time.Time, bool) {
	t := time.Date(y, m, d, 0, 0, 0, 0, loc)
	if t.Year() != y || t.Month() != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// monthDay resolves a month name and day. Without a year the next
// occurrence on or after today is used.
func monthDay(month string, day int, year string, today time.Time) (time.Time, bool) {
	mo, ok := months[strings.ToLower(month)[:3]]
	if !ok {
		return time.Time{}, false
	}
	if year != "" {
		y, _ := strconv.Atoi(year)
		return calendarDate(y, mo, day, today.Location())
	}
	t, ok := calendarDate(today.Year(), mo, day, today.Location())
	if !ok {
		// Feb 29 outside a leap year
		return calendarDate(today.Year()+1, mo, day, today.Location())
	}
	if t.Before(today) {
		return calendarDate(today.Year()+1, mo, day, today.Location())
	}
	return t, true
}

func clock(h, m int) string {
	return fmt.Sprintf("%02d:%02d", h, m)
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func normalizePhrase(raw string) string {
	s := strings.Join(strings.Fields(strings.ToLower(raw)), " ")
	return strings.Trim(s, " ,;!?")
}

// ResolveDate turns a date phrase into YYYY-MM-DD. Relative phrases are
// resolved against now; dates before now's calendar day are rejected.
func ResolveDate(raw string, now time.Time) (string, error) {
	s := normalizePhrase(raw)
	if s == "" {
		return "", errDateUnrecognized
	}
	today := startOfDay(now)
	for _, p := range datePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		t, ok := p.resolve(m, today)
		if !ok {
			return "", errDateUnrecognized
		}
		if t.Before(today) {
			return "", errDatePast
		}
		return t.Format("2006-01-02"), nil
	}
	return "", errDateUnrecognized
}

// ResolveTime turns a clock phrase into 24-hour HH:MM. A 12-hour time
// needs a meridiem unless it is written with a leading zero.
func ResolveTime(raw string) (string, error) {
	s := normalizePhrase(raw)
	if s == "" {
		return "", errTimeUnrecognized
	}
	for _, p := range timePatterns {
		if m := p.re.FindStringSubmatch(s); m != nil {
			return p.resolve(m)
		}
	}
	if m := bareHour.FindStringSubmatch(s); m != nil {
		// A bare hour past noon can only be 24-hour
		if h, _ := strconv.Atoi(m[1]); h > 12 && h < 24 {
			return clock(h, 0), nil
		}
		return "", errTimeAmbiguous
	}
	return "", errTimeUnrecognized
}

// ValidateEmail checks address syntax and lowercases the domain
func ValidateEmail(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "mailto:")
	s = strings.Trim(s, "<>.,;")
	if len(s) > 254 || !emailPattern.MatchString(s) {
		return "", errEmailInvalid
	}
	at := strings.LastIndex(s, "@")
	return s[:at] + strings.ToLower(s[at:]), nil
}

// ValidateName accepts any non-empty name containing at least one letter
func ValidateName(raw string) (string, error) {
	s := strings.Join(strings.Fields(raw), " ")
	s = strings.Trim(s, ".,;:!?\"")
	if s == "" || strings.ContainsAny(s, "@0123456789") {
		return "", errNameInvalid
	}
	if len([]rune(s)) > maxNameLength {
		return "", errNameInvalid
	}
	if strings.IndexFunc(s, unicode.IsLetter) < 0 {
		return "", errNameInvalid
	}
	return s, nil
}

// ResolveSlot validates a raw value for the named slot
func ResolveSlot(name domain.SlotName, raw string, now time.Time) (string, error) {
	switch name {
	case domain.SlotFullName:
		return ValidateName(raw)
	case domain.SlotEmail:
		return ValidateEmail(raw)
	case domain.SlotDate:
		return ResolveDate(raw, now)
	case domain.SlotTime:
		return ResolveTime(raw)
	default:
		return "", fmt.Errorf("unknown slot %q", name)
	}
}

// findPhrase returns the first substring of msg recognized by patterns
func findPhrase(msg string, res []*regexp.Regexp) string {
	for _, re := range res {
		if loc := re.FindStringIndex(msg); loc != nil {
			return strings.TrimSpace(msg[loc[0]:loc[1]])
		}
	}
	return ""
}

var (
	dateRegexps = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(datePatterns))
		for i, p := range datePatterns {
			out[i] = p.re
		}
		return out
	}()
	timeRegexps = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(timePatterns))
		for i, p := range timePatterns {
			out[i] = p.re
		}
		return out
	}()
)

// ExtractSlots pulls raw slot phrases out of a free-form message without
// a model. It is the fallback when structured extraction declines.
// pending lets a bare reply such as "Sajeena Malla" fill the name slot
// when the name is what was asked for.
func ExtractSlots(msg string, pending []domain.SlotName) map[domain.SlotName]string {
	out := make(map[domain.SlotName]string)

	if email := emailInText.FindString(msg); email != "" {
		out[domain.SlotEmail] = strings.TrimRight(email, ".")
	}
	if d := findPhrase(msg, dateRegexps); d != "" {
		out[domain.SlotDate] = d
	}
	if t := findPhrase(msg, timeRegexps); t != "" {
		out[domain.SlotTime] = t
	} else if bareHour.MatchString(normalizePhrase(msg)) && onlyPending(pending, domain.SlotTime) {
		out[domain.SlotTime] = strings.TrimSpace(msg)
	}

	if name := extractName(msg); name != "" {
		out[domain.SlotFullName] = name
	} else if len(out) == 0 && onlyPending(pending, domain.SlotFullName) {
		s := strings.Trim(strings.TrimSpace(msg), ".!")
		if wholeName.MatchString(s) && !allNonName(strings.Fields(s)) {
			out[domain.SlotFullName] = s
		}
	}
	return out
}

func extractName(msg string) string {
	for _, re := range []*regexp.Regexp{namedAs, bookedFor} {
		for _, m := range re.FindAllStringSubmatch(msg, -1) {
			if name := trimNameTokens(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// trimNameTokens drops trailing words that are dates or fillers
// ("Sajeena Malla Tomorrow").
func trimNameTokens(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && nonNameTokens.MatchString(words[len(words)-1]) {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

func allNonName(words []string) bool {
	for _, w := range words {
		if !nonNameTokens.MatchString(strings.Trim(w, ",.!")) {
			return false
		}
	}
	return true
}

func onlyPending(pending []domain.SlotName, slot domain.SlotName) bool {
	return len(pending) == 1 && pending[0] == slot
}
