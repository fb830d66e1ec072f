package resolver

import "time"

// Supported locales.
const (
	LocaleGerman  = "de"
	LocaleEnglish = "en"
	LocaleItalian = "it"

	DefaultLocale = LocaleGerman
)

// fuzzyTime maps a spoken phrase onto a canonical slot time.
type fuzzyTime struct {
	phrase string
	clock  string
}

// vocabulary holds one language's phrases. All phrases are written in folded
// form (lowercase, umlauts and accents spelled out in ASCII).
type vocabulary struct {
	locale          string
	today           []string
	tomorrow        []string
	dayAfter        []string
	nextWeek        []string
	weekdays        map[string]time.Weekday
	weekdayParts    map[string]string
	fuzzy           []fuzzyTime
	corrections     []string
	affirmations    []string
	negations       []string
	greetingNoise   []string
	weekdayNames    [7]string
	monthNames      [12]string
	relativeLabels  [3]string
	inDaysTemplate  string
	dateTemplate    string
	todayTemplate   string
	openNowPhrase   string
	closedNowPhrase string
	closedDayPhrase string
}

var german = vocabulary{
	locale:   LocaleGerman,
	today:    []string{"heute"},
	tomorrow: []string{"morgen"},
	dayAfter: []string{"uebermorgen"},
	nextWeek: []string{"naechste woche", "naechsten woche", "kommende woche", "kommenden woche"},
	weekdays: map[string]time.Weekday{
		"montag": time.Monday, "dienstag": time.Tuesday, "mittwoch": time.Wednesday,
		"donnerstag": time.Thursday, "freitag": time.Friday, "samstag": time.Saturday,
		"sonnabend": time.Saturday, "sonntag": time.Sunday,
	},
	// "Montag morgen" and "Montagmorgen" mean Monday morning, not tomorrow
	weekdayParts: map[string]string{
		"morgen": "morgens", "vormittag": "vormittags", "mittag": "mittags",
		"nachmittag": "nachmittags", "abend": "abends",
	},
	fuzzy: []fuzzyTime{
		{"frueh morgens", "08:00"},
		{"frueh", "09:00"},
		{"morgens", "10:00"},
		{"vormittags", "10:00"},
		{"am vormittag", "10:00"},
		{"vor dem mittagessen", "11:30"},
		{"mittags", "12:00"},
		{"gegen mittag", "12:00"},
		{"in der mittagspause", "12:30"},
		{"nach dem mittagessen", "13:30"},
		{"frueher nachmittag", "13:00"},
		{"am fruehen nachmittag", "13:00"},
		{"nachmittags", "15:00"},
		{"am nachmittag", "15:00"},
		{"spaeter nachmittag", "16:00"},
		{"am spaeten nachmittag", "16:00"},
		{"spaet", "17:00"},
		{"nach der arbeit", "18:00"},
		{"nach feierabend", "18:00"},
		{"abends", "18:00"},
		{"spaet abends", "19:00"},
	},
	corrections:     []string{"nein", "lieber", "besser", "stattdessen", "doch nicht", "eher"},
	affirmations:    []string{"ja", "genau", "richtig", "passt", "gerne", "einverstanden", "stimmt", "okay", "ok", "jawohl"},
	negations:       []string{"nein", "nicht", "falsch", "doch nicht", "stimmt nicht"},
	greetingNoise:   []string{"guten morgen"},
	weekdayNames:    [7]string{"Sonntag", "Montag", "Dienstag", "Mittwoch", "Donnerstag", "Freitag", "Samstag"},
	monthNames:      [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
	relativeLabels:  [3]string{"heute", "morgen", "übermorgen"},
	inDaysTemplate:  "in %d Tagen",
	dateTemplate:    "%s, den %d. %s",
	todayTemplate:   "Heute ist %s.",
	openNowPhrase:   "Die Praxis ist gerade geöffnet.",
	closedNowPhrase: "Die Praxis ist gerade geschlossen.",
	closedDayPhrase: "Heute ist die Praxis geschlossen.",
}

var english = vocabulary{
	locale:   LocaleEnglish,
	today:    []string{"today"},
	tomorrow: []string{"tomorrow"},
	dayAfter: []string{"day after tomorrow", "the day after tomorrow"},
	nextWeek: []string{"next week", "the coming week"},
	weekdays: map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
		"sunday": time.Sunday,
	},
	fuzzy: []fuzzyTime{
		{"early morning", "08:00"},
		{"morning", "10:00"},
		{"in the morning", "10:00"},
		{"late morning", "11:00"},
		{"before lunch", "11:30"},
		{"noon", "12:00"},
		{"around noon", "12:00"},
		{"midday", "12:00"},
		{"during lunch", "12:30"},
		{"lunchtime", "12:30"},
		{"early afternoon", "13:00"},
		{"after lunch", "13:30"},
		{"afternoon", "15:00"},
		{"in the afternoon", "15:00"},
		{"late afternoon", "16:00"},
		{"after work", "18:00"},
		{"evening", "18:00"},
		{"late evening", "19:00"},
	},
	corrections:     []string{"no", "rather", "instead", "actually", "better", "make it"},
	affirmations:    []string{"yes", "yeah", "yep", "correct", "right", "sure", "exactly", "okay", "ok", "sounds good", "that works"},
	negations:       []string{"no", "nope", "not", "wrong", "incorrect"},
	greetingNoise:   []string{"good morning", "good afternoon", "good evening"},
	weekdayNames:    [7]string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	monthNames:      [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
	relativeLabels:  [3]string{"today", "tomorrow", "the day after tomorrow"},
	inDaysTemplate:  "in %d days",
	dateTemplate:    "%s, %[3]s %[2]d",
	todayTemplate:   "Today is %s.",
	openNowPhrase:   "The practice is open right now.",
	closedNowPhrase: "The practice is closed right now.",
	closedDayPhrase: "The practice is closed today.",
}

var italian = vocabulary{
	locale:   LocaleItalian,
	today:    []string{"oggi"},
	tomorrow: []string{"domani"},
	dayAfter: []string{"dopodomani", "dopo domani"},
	nextWeek: []string{"prossima settimana", "settimana prossima"},
	weekdays: map[string]time.Weekday{
		"lunedi": time.Monday, "martedi": time.Tuesday, "mercoledi": time.Wednesday,
		"giovedi": time.Thursday, "venerdi": time.Friday, "sabato": time.Saturday,
		"domenica": time.Sunday,
	},
	fuzzy: []fuzzyTime{
		{"presto la mattina", "08:00"},
		{"mattina", "10:00"},
		{"di mattina", "10:00"},
		{"in mattinata", "10:00"},
		{"prima di pranzo", "11:30"},
		{"mezzogiorno", "12:00"},
		{"verso mezzogiorno", "12:00"},
		{"durante la pausa pranzo", "12:30"},
		{"primo pomeriggio", "13:00"},
		{"dopo pranzo", "13:30"},
		{"pomeriggio", "15:00"},
		{"nel pomeriggio", "15:00"},
		{"tardo pomeriggio", "16:00"},
		{"dopo il lavoro", "18:00"},
		{"sera", "18:00"},
		{"in serata", "18:00"},
	},
	corrections:     []string{"no", "meglio", "invece", "piuttosto", "anzi"},
	affirmations:    []string{"si", "certo", "esatto", "giusto", "va bene", "perfetto", "d'accordo", "ok", "okay"},
	negations:       []string{"no", "non", "sbagliato"},
	greetingNoise:   []string{"buongiorno", "buonasera"},
	weekdayNames:    [7]string{"domenica", "lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato"},
	monthNames:      [12]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"},
	relativeLabels:  [3]string{"oggi", "domani", "dopodomani"},
	inDaysTemplate:  "tra %d giorni",
	dateTemplate:    "%s %d %s",
	todayTemplate:   "Oggi è %s.",
	openNowPhrase:   "Lo studio è aperto in questo momento.",
	closedNowPhrase: "Lo studio è chiuso in questo momento.",
	closedDayPhrase: "Oggi lo studio è chiuso.",
}

var vocabularies = map[string]*vocabulary{
	LocaleGerman:  &german,
	LocaleEnglish: &english,
	LocaleItalian: &italian,
}

// Locales lists the supported locale codes.
func Locales() []string {
	return []string{LocaleGerman, LocaleEnglish, LocaleItalian}
}

// NormalizeLocale maps a locale tag such as "de-DE" or "EN" onto a supported
// code, falling back to DefaultLocale.
func NormalizeLocale(locale string) string {
	if len(locale) >= 2 {
		code := fold(locale[:2])
		if _, ok := vocabularies[code]; ok {
			return code
		}
	}
	return DefaultLocale
}

func vocabularyFor(locale string) *vocabulary {
	return vocabularies[NormalizeLocale(locale)]
}
