package resolver

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

var (
	isoDate     = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	dottedDate  = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})\.(\d{4}|\d{2})?`)
	slashedDate = regexp.MustCompile(`(\d{1,2})/(\d{1,2})(?:/(\d{4}|\d{2}))?`)
	bareDotted  = regexp.MustCompile(`(\d{1,2})\.(\d{1,2}) `)

	// words that turn a following number into a time of day
	timeContext = []string{"um", "at", "alle", "ore", "gegen", "around", "about", "verso", "le", "by"}
)

// explicitDate finds the first written date. It returns the matched span so
// the caller can remove it before looking for a clock time.
func (r *Resolver) explicitDate(s string, today time.Time) (time.Time, string, bool) {
	if m := isoDate.FindStringSubmatch(s); m != nil {
		if d, ok := calendarDate(today.Location(), m[1], m[2], m[3]); ok {
			return d, m[0], true
		}
	}
	for _, re := range []*regexp.Regexp{dottedDate, slashedDate, bareDotted} {
		for _, idx := range re.FindAllStringSubmatchIndex(s, -1) {
			if followsTimeContext(s, idx[0]) || precedesUhr(s, idx[1]) {
				continue
			}
			year := strconv.Itoa(today.Year())
			if len(idx) > 7 && idx[6] >= 0 {
				year = s[idx[6]:idx[7]]
				if len(year) == 2 {
					year = "20" + year
				}
			}
			if d, ok := calendarDate(today.Location(), year, s[idx[4]:idx[5]], s[idx[2]:idx[3]]); ok {
				return d, s[idx[0]:idx[1]], true
			}
		}
	}
	return time.Time{}, "", false
}

// calendarDate builds a date and rejects impossible ones such as 30.02.
func calendarDate(loc *time.Location, year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err1 != nil || err2 != nil || err3 != nil || m < 1 || m > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, loc)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

func followsTimeContext(s string, start int) bool {
	before := strings.Fields(s[:start])
	if len(before) == 0 {
		return false
	}
	last := before[len(before)-1]
	for _, w := range timeContext {
		if last == w {
			return true
		}
	}
	return false
}

func precedesUhr(s string, end int) bool {
	rest := strings.TrimLeft(s[end:], " ")
	return strings.HasPrefix(rest, "uhr") || strings.HasPrefix(rest, "h ")
}

// clockRule reads a time from one regexp. hour and minute are submatch
// indexes (minute 0 means none); offset shifts the result, so "halb drei"
// is hour 3 with offset -30.
type clockRule struct {
	re     *regexp.Regexp
	hour   int
	minute int
	marker int
	offset int
}

var (
	num = `(\d{1,2}|` + numberWordPattern() + `)`

	relativeClockRules = []clockRule{
		{re: regexp.MustCompile(` halb ` + num + ` `), hour: 1, offset: -30},
		{re: regexp.MustCompile(` viertel nach ` + num + ` `), hour: 1, offset: 15},
		{re: regexp.MustCompile(` viertel vor ` + num + ` `), hour: 1, offset: -15},
		{re: regexp.MustCompile(` dreiviertel ` + num + ` `), hour: 1, offset: -15},
		{re: regexp.MustCompile(` kurz nach ` + num + ` `), hour: 1, offset: 15},
		{re: regexp.MustCompile(` kurz vor ` + num + ` `), hour: 1, offset: -15},
		{re: regexp.MustCompile(` half past ` + num + ` `), hour: 1, offset: 30},
		{re: regexp.MustCompile(` quarter past ` + num + ` `), hour: 1, offset: 15},
		{re: regexp.MustCompile(` quarter to ` + num + ` `), hour: 1, offset: -15},
		{re: regexp.MustCompile(` shortly after ` + num + ` `), hour: 1, offset: 15},
		{re: regexp.MustCompile(` just before ` + num + ` `), hour: 1, offset: -15},
		{re: regexp.MustCompile(` poco dopo (?:le )?` + num + ` `), hour: 1, offset: 15},
		{re: regexp.MustCompile(` poco prima (?:delle )?` + num + ` `), hour: 1, offset: -15},
		{re: regexp.MustCompile(` ` + num + ` e mezza `), hour: 1, offset: 30},
		{re: regexp.MustCompile(` ` + num + ` e un quarto `), hour: 1, offset: 15},
		{re: regexp.MustCompile(` ` + num + ` meno un quarto `), hour: 1, offset: -15},
	}

	explicitClockRules = []clockRule{
		{re: regexp.MustCompile(` ` + num + ` uhr (\d{1,2}) `), hour: 1, minute: 2},
		{re: regexp.MustCompile(` (?:um|at|alle|ore|gegen|around|about|verso|verso le|by) (?:ore )?` + num + `(?:[.:](\d{2}))?(?: ?(uhr|am|pm|h|o'clock))?\.? `), hour: 1, minute: 2, marker: 3},
		{re: regexp.MustCompile(` ` + num + `(?:[.:](\d{2}))? ?(uhr|am|pm|h|o'clock)\.? `), hour: 1, minute: 2, marker: 3},
		{re: regexp.MustCompile(`(\d{1,2}):(\d{2})(?: ?(am|pm))?`), hour: 1, minute: 2, marker: 3},
		{re: regexp.MustCompile(` (\d{1,2})\.(\d{2})\.? `), hour: 1, minute: 2},
	}
)

// clock resolves the first time of day in s. Relative forms ("halb drei")
// go first so their number is not read as a full hour, then explicit
// forms, then fuzzy phrases ("am späten Nachmittag").
func (r *Resolver) clock(s string) (string, bool) {
	for _, rule := range relativeClockRules {
		if v, ok := rule.apply(s); ok {
			return v, true
		}
	}
	for _, rule := range explicitClockRules {
		if v, ok := rule.apply(s); ok {
			return v, true
		}
	}
	for _, f := range r.fuzzy {
		if containsWord(s, f.phrase) {
			return f.clock, true
		}
	}
	return "", false
}

func (c clockRule) apply(s string) (string, bool) {
	for _, m := range c.re.FindAllStringSubmatch(s, -1) {
		hour, ok := parseNumber(m[c.hour])
		if !ok {
			continue
		}
		minute := 0
		if c.minute > 0 && m[c.minute] != "" {
			minute, _ = strconv.Atoi(m[c.minute])
		}
		marker := ""
		if c.marker > 0 {
			marker = m[c.marker]
		}
		// a written leading zero ("07:30") is taken literally
		literal := len(m[c.hour]) == 2 && m[c.hour][0] == '0'
		if v, ok := toClock(hour, minute, marker, c.offset, literal); ok {
			return v, true
		}
	}
	return "", false
}

// toClock applies am/pm, the practice-hours reading of small hours ("um 3"
// means 15:00) and the relative offset.
func toClock(hour, minute int, marker string, offset int, literal bool) (string, bool) {
	if hour > 23 || minute > 59 {
		return "", false
	}
	switch {
	case marker == "pm" && hour < 12:
		hour += 12
	case marker == "am" && hour == 12:
		hour = 0
	case marker == "" && !literal && hour >= 1 && hour <= 7:
		hour += 12
	}
	total := hour*60 + minute + offset
	if total < 0 || total >= 24*60 {
		return "", false
	}
	return clinic.FormatClock(total), true
}

var numberWords = map[string]int{
	"eins": 1, "ein": 1, "zwei": 2, "drei": 3, "vier": 4, "fuenf": 5, "sechs": 6,
	"sieben": 7, "acht": 8, "neun": 9, "zehn": 10, "elf": 11, "zwoelf": 12,
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"una": 1, "due": 2, "tre": 3, "quattro": 4, "cinque": 5, "sei": 6, "sette": 7,
	"otto": 8, "nove": 9, "dieci": 10, "undici": 11, "dodici": 12,
}

func numberWordPattern() string {
	words := make([]string, 0, len(numberWords))
	for w := range numberWords {
		words = append(words, w)
	}
	byLength(words)
	return strings.Join(words, "|")
}

func parseNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	n, ok := numberWords[s]
	return n, ok
}
