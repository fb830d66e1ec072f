// Package resolver turns spoken scheduling phrases ("tomorrow afternoon",
// "nächsten Dienstag um halb drei", "15.03. 10:30") into concrete dates,
// clock times and treatment hints. German, English and Italian vocabularies
// are merged into one matcher.
package resolver

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
)

// Result is what an utterance resolved to. Date is always set; it falls back
// to today when no date phrase was found and DateResolved is false.
type Result struct {
	Date             string                     `json:"date"`
	Time             string                     `json:"time,omitempty"`
	DateResolved     bool                       `json:"date_resolved"`
	TimeResolved     bool                       `json:"time_resolved"`
	Treatment        appointments.TreatmentType `json:"treatment_type"`
	TreatmentMatched bool                       `json:"treatment_matched"`
}

// Resolver holds the merged phrase tables of its locales.
type Resolver struct {
	relative    []relativePhrase
	nextWeek    []string
	weekdays    map[string]time.Weekday
	dayParts    map[string]string
	fuzzy       []fuzzyTime
	corrections []string
	yes         []string
	no          []string
	noise       []string
	rules       []KeywordRule
}

type relativePhrase struct {
	phrase string
	days   int
}

// New builds a resolver over the given locales; no locales means all of them.
func New(locales ...string) *Resolver {
	if len(locales) == 0 {
		locales = Locales()
	}
	r := &Resolver{
		weekdays: make(map[string]time.Weekday),
		dayParts: make(map[string]string),
		rules:    DefaultKeywordRules(),
	}
	seen := make(map[string]bool)
	for _, l := range locales {
		code := NormalizeLocale(l)
		if seen[code] {
			continue
		}
		seen[code] = true
		v := vocabularies[code]
		for _, p := range v.today {
			r.relative = append(r.relative, relativePhrase{p, 0})
		}
		for _, p := range v.tomorrow {
			r.relative = append(r.relative, relativePhrase{p, 1})
		}
		for _, p := range v.dayAfter {
			r.relative = append(r.relative, relativePhrase{p, 2})
		}
		r.nextWeek = append(r.nextWeek, v.nextWeek...)
		for name, wd := range v.weekdays {
			r.weekdays[name] = wd
		}
		for part, adverb := range v.weekdayParts {
			r.dayParts[part] = adverb
		}
		r.fuzzy = append(r.fuzzy, v.fuzzy...)
		r.corrections = append(r.corrections, v.corrections...)
		r.yes = append(r.yes, v.affirmations...)
		r.no = append(r.no, v.negations...)
		r.noise = append(r.noise, v.greetingNoise...)
	}
	sort.SliceStable(r.relative, func(i, j int) bool { return len(r.relative[i].phrase) > len(r.relative[j].phrase) })
	sort.SliceStable(r.fuzzy, func(i, j int) bool { return len(r.fuzzy[i].phrase) > len(r.fuzzy[j].phrase) })
	byLength(r.nextWeek)
	byLength(r.corrections)
	return r
}

// WithKeywordRules replaces the treatment table.
func (r *Resolver) WithKeywordRules(rules []KeywordRule) *Resolver {
	out := *r
	out.rules = rules
	return &out
}

var defaultResolver = New()

// Resolve runs the default all-locale resolver.
func Resolve(text string, now time.Time) Result {
	return defaultResolver.Resolve(text, now)
}

// Resolve extracts date, time and treatment from text relative to now. It
// never fails: anything it cannot read is reported as unresolved.
func (r *Resolver) Resolve(text string, now time.Time) Result {
	today := clinic.DateOf(now, now.Location())
	s := r.weekdayDayParts(r.prepare(text))

	res := Result{Date: today.Format(clinic.DateLayout), Treatment: appointments.DefaultTreatment}

	// the date token is cut out before clock matching so "15.03." is not
	// read as a time
	rest := s
	if date, span, ok := r.explicitDate(s, today); ok {
		res.Date, res.DateResolved = date.Format(clinic.DateLayout), true
		rest = strings.Replace(s, span, " ", 1)
	} else if date, ok := r.relativeDate(s, today); ok {
		res.Date, res.DateResolved = date.Format(clinic.DateLayout), true
	}

	if clock, ok := r.clock(rest); ok {
		res.Time, res.TimeResolved = clock, true
	}

	if t, ok := matchTreatment(r.rules, s); ok {
		res.Treatment, res.TreatmentMatched = t, true
	}
	return res
}

// ResolveClock extracts only a clock time.
func (r *Resolver) ResolveClock(text string) (string, bool) {
	return r.clock(r.prepare(text))
}

// Correction detects a repair such as "nein, lieber 11:30" or "rather at 3"
// and returns the corrected clock time.
func (r *Resolver) Correction(text string) (string, bool) {
	s := r.prepare(text)
	if !containsAny(s, r.corrections) {
		return "", false
	}
	return r.clock(s)
}

// Answer classifies a reply to a yes/no question.
type Answer int

const (
	AnswerUnknown Answer = iota
	AnswerYes
	AnswerNo
)

// Confirmation reads a yes/no reply. Negation wins over affirmation, so
// "ja, aber nicht um zehn" is a no.
func (r *Resolver) Confirmation(text string) Answer {
	s := r.prepare(text)
	switch {
	case containsAny(s, r.no):
		return AnswerNo
	case containsAny(s, r.yes):
		return AnswerYes
	default:
		return AnswerUnknown
	}
}

var (
	punctuation   = regexp.MustCompile(`[,;!?"()\[\]]`)
	wordStop      = regexp.MustCompile(`([a-z])\.`)
	inDaysPattern = regexp.MustCompile(` (?:in|tra|fra) (\d{1,2}) (?:days|tagen|giorni) `)
)

// prepare folds text and pads it with spaces so phrases match on whole words.
func (r *Resolver) prepare(text string) string {
	s := fold(text)
	s = punctuation.ReplaceAllString(s, " ")
	s = wordStop.ReplaceAllString(s, "$1 ")
	s = " " + strings.Join(strings.Fields(s), " ") + " "
	for _, n := range r.noise {
		s = strings.ReplaceAll(s, " "+n+" ", " ")
	}
	return s
}

func (r *Resolver) relativeDate(s string, today time.Time) (time.Time, bool) {
	if m := inDaysPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return today.AddDate(0, 0, n), true
		}
	}

	weekday, hasWeekday := r.findWeekday(s)
	if containsAny(s, r.nextWeek) {
		monday := NextMonday(today)
		if hasWeekday {
			return monday.AddDate(0, 0, (int(weekday)+6)%7), true
		}
		return monday, true
	}
	for _, p := range r.relative {
		if containsWord(s, p.phrase) {
			return today.AddDate(0, 0, p.days), true
		}
	}
	if hasWeekday {
		return NextWeekday(today, weekday), true
	}
	return time.Time{}, false
}

// weekdayDayParts rewrites a part of day that follows a weekday into its
// adverb, so "montag morgen" reads as "montag morgens" and the word is no
// longer taken for tomorrow.
func (r *Resolver) weekdayDayParts(s string) string {
	for name := range r.weekdays {
		if !strings.Contains(s, " "+name) {
			continue
		}
		for part, adverb := range r.dayParts {
			s = strings.ReplaceAll(s, " "+name+" "+part+" ", " "+name+" "+adverb+" ")
			s = strings.ReplaceAll(s, " "+name+part+" ", " "+name+" "+adverb+" ")
		}
	}
	return s
}

func (r *Resolver) findWeekday(s string) (time.Weekday, bool) {
	best, found := time.Sunday, false
	bestAt := len(s)
	for name, wd := range r.weekdays {
		if i := strings.Index(s, " "+name+" "); i >= 0 && i < bestAt {
			best, found, bestAt = wd, true, i
		}
	}
	return best, found
}

// NextMonday returns the Monday after today; on a Monday that is 7 days ahead.
func NextMonday(today time.Time) time.Time {
	return NextWeekday(today, time.Monday)
}

// NextWeekday returns the nearest future occurrence of wd, never today.
func NextWeekday(today time.Time, wd time.Weekday) time.Time {
	days := (int(wd) - int(today.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return today.AddDate(0, 0, days)
}

func containsWord(s, phrase string) bool {
	return strings.Contains(s, " "+phrase+" ")
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if containsWord(s, p) {
			return true
		}
	}
	return false
}

func byLength(list []string) {
	sort.SliceStable(list, func(i, j int) bool { return len(list[i]) > len(list[j]) })
}

var folder = strings.NewReplacer(
	"a.m.", "am", "p.m.", "pm",
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"Ä", "ae", "Ö", "oe", "Ü", "ue",
	"à", "a", "è", "e", "é", "e", "ì", "i", "ò", "o", "ù", "u",
	"’", "'",
)

// Fold lowercases text and spells umlauts and accents in ASCII, the form
// every phrase table is written in.
func Fold(s string) string {
	return fold(s)
}

func fold(s string) string {
	return folder.Replace(strings.ToLower(s))
}
