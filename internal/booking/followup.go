package booking

import (
	"strings"

	"github.com/wolfman30/sofia-scheduler/internal/resolver"
)

// followUp is a symptom-driven question. Keywords are folded substrings in
// any supported language; the first matching rule wins.
type followUp struct {
	keywords  []string
	questions map[string]string
}

var followUps = []followUp{
	{
		keywords: []string{"schmerz", "tut weh", "ziehen", "stechen", "pochen", "pain", "hurt", "toothache", "dolore", "fa male", "mal di denti"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Das tut mir leid zu hören, dass Sie Schmerzen haben. Seit wann haben Sie die Beschwerden, und haben Sie schon Schmerzmittel genommen?",
			resolver.LocaleEnglish: "I am sorry to hear you are in pain. How long have you had it, and have you taken any painkillers?",
			resolver.LocaleItalian: "Mi dispiace che abbia dolore. Da quando ha questi disturbi, e ha già preso un antidolorifico?",
		},
	},
	{
		keywords: []string{"geschwollen", "schwellung", "dicke backe", "swollen", "swelling", "gonfio", "gonfiore"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Seit wann ist es geschwollen, und haben Sie auch Fieber?",
			resolver.LocaleEnglish: "Since when is it swollen, and do you also have a fever?",
			resolver.LocaleItalian: "Da quando è gonfio, e ha anche la febbre?",
		},
	},
	{
		keywords: []string{"zahnfleisch", "blutet", "blutung", "parodont", "gums", "bleed", "gengiv", "sanguin"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Blutet das Zahnfleisch beim Zähneputzen, und seit wann haben Sie das bemerkt?",
			resolver.LocaleEnglish: "Do your gums bleed when you brush, and since when have you noticed it?",
			resolver.LocaleItalian: "Le gengive sanguinano quando si lava i denti, e da quando lo ha notato?",
		},
	},
	{
		keywords: []string{"weisheitszahn", "weisheitszaehne", "wisdom", "dente del giudizio", "denti del giudizio"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Haben Sie Beschwerden am Weisheitszahn oder möchten Sie ihn entfernen lassen?",
			resolver.LocaleEnglish: "Is your wisdom tooth bothering you, or would you like to have it removed?",
			resolver.LocaleItalian: "Il dente del giudizio le dà fastidio o desidera toglierlo?",
		},
	},
	{
		keywords: []string{"implantat", "implant", "impianto"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Geht es um eine Kontrolle Ihres Implantats oder haben Sie Probleme damit?",
			resolver.LocaleEnglish: "Is this a check of your implant, or are you having problems with it?",
			resolver.LocaleItalian: "Si tratta di un controllo dell'impianto o ha dei problemi?",
		},
	},
	{
		keywords: []string{"abgebrochen", "rausgefallen", "herausgefallen", "krone", "fuellung", "plombe", "broke", "fell out", "crown", "filling", "rotto", "caduta", "corona", "otturazione"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Ist die Füllung oder Krone abgebrochen oder ganz herausgefallen?",
			resolver.LocaleEnglish: "Did the filling or crown break, or did it fall out completely?",
			resolver.LocaleItalian: "L'otturazione o la corona si è rotta o è caduta del tutto?",
		},
	},
	{
		keywords: []string{"kontrolle", "untersuchung", "prophylaxe", "reinigung", "vorsorge", "check", "cleaning", "controllo", "pulizia"},
		questions: map[string]string{
			resolver.LocaleGerman:  "Wann waren Sie zuletzt beim Zahnarzt?",
			resolver.LocaleEnglish: "When did you last see a dentist?",
			resolver.LocaleItalian: "Quando è stato l'ultima volta dal dentista?",
		},
	},
}

// MedicalFollowUp returns the question to ask about the reason for a visit,
// or "" when the reason mentions nothing specific.
func MedicalFollowUp(reason, locale string) string {
	s := resolver.Fold(reason)
	code := resolver.NormalizeLocale(locale)
	for _, f := range followUps {
		for _, kw := range f.keywords {
			if strings.Contains(s, kw) {
				return f.questions[code]
			}
		}
	}
	return ""
}
