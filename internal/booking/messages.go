package booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
	"github.com/wolfman30/sofia-scheduler/internal/clinic"
	"github.com/wolfman30/sofia-scheduler/internal/resolver"
)

// messages holds the spoken replies of one locale. Replies are short plain
// sentences because they are read out by a speech layer.
type messages struct {
	askReason      string
	askName        string
	askTime        string
	askTimeOn      string
	freeOn         string
	askPhone       string
	confirm        string
	repeatConfirm  string
	booked         string
	bookedInstead  string
	alreadyBooked  string
	pastDate       string
	outsideHours   string
	closedDay      string
	invalidFormat  string
	slotTaken      string
	offer          string
	noneFree       string
	rejected       string
	tryLater       string
	cancelled      string
	cancelNotFound string
	nextAvailable  string
	at             string
	or             string
	and            string
	interval       string
	ordinals       [3][]string
}

var catalog = map[string]*messages{
	resolver.LocaleGerman: {
		askReason:      "Worum geht es bei Ihrem Besuch? Haben Sie Beschwerden oder möchten Sie zur Kontrolle kommen?",
		askName:        "Darf ich bitte Ihren Vor- und Nachnamen haben?",
		askTime:        "Wann möchten Sie gerne kommen?",
		askTimeOn:      "Um welche Uhrzeit passt es Ihnen am %s?",
		freeOn:         "Am %s hätte ich %s frei.",
		askPhone:       "Unter welcher Telefonnummer erreichen wir Sie?",
		confirm:        "Ich fasse zusammen: %s, %s am %s um %s. Telefon %s. Ist das so richtig?",
		repeatConfirm:  "Soll ich den Termin so eintragen? Bitte antworten Sie mit Ja oder Nein.",
		booked:         "Vielen Dank, %s. Ihr Termin am %s um %s ist eingetragen. Wir freuen uns auf Sie.",
		bookedInstead:  "Der gewünschte Termin war leider gerade vergeben. Ich habe Sie stattdessen für %s um %s eingetragen.",
		alreadyBooked:  "Ihr Termin am %s um %s ist bereits eingetragen.",
		pastDate:       "Dieser Zeitpunkt liegt leider in der Vergangenheit. Wann möchten Sie stattdessen kommen?",
		outsideHours:   "Um %s haben wir am %s leider nicht geöffnet. Die Sprechzeiten an diesem Tag sind %s.",
		closedDay:      "Am %s ist die Praxis leider geschlossen.",
		invalidFormat:  "Das Datum oder die Uhrzeit habe ich leider nicht verstanden. Können Sie das bitte wiederholen?",
		slotTaken:      "Der Termin am %s um %s ist leider schon vergeben.",
		offer:          "Ich könnte Ihnen %s anbieten. Welcher Termin passt Ihnen?",
		noneFree:       "In den nächsten Wochen ist leider kein Termin mehr frei. Bitte rufen Sie uns in der Praxis an.",
		rejected:       "Es tut mir leid, ich konnte keinen passenden Termin für Sie eintragen. Bitte rufen Sie uns direkt in der Praxis an.",
		tryLater:       "Entschuldigung, gerade gibt es ein technisches Problem. Bitte versuchen Sie es in ein paar Minuten noch einmal.",
		cancelled:      "Ihr Termin am %s um %s wurde storniert.",
		cancelNotFound: "Ich konnte keinen aktiven Termin mit der Nummer %d finden.",
		nextAvailable:  "Die nächsten freien Termine sind %s. Welcher passt Ihnen?",
		at:             "um",
		or:             "oder",
		and:            "und",
		interval:       "%s bis %s",
		ordinals: [3][]string{
			{"erste", "ersten", "erster", "erstes"},
			{"zweite", "zweiten", "zweiter", "zweites"},
			{"dritte", "dritten", "dritter", "drittes"},
		},
	},
	resolver.LocaleEnglish: {
		askReason:      "What is the reason for your visit? Are you in pain or is it a check-up?",
		askName:        "May I have your first and last name, please?",
		askTime:        "When would you like to come in?",
		askTimeOn:      "What time works for you on %s?",
		freeOn:         "On %s I have %s available.",
		askPhone:       "What phone number can we reach you at?",
		confirm:        "Let me summarize: %s, %s on %s at %s. Phone %s. Is that correct?",
		repeatConfirm:  "Shall I book the appointment like this? Please answer yes or no.",
		booked:         "Thank you, %s. Your appointment on %s at %s is booked. We look forward to seeing you.",
		bookedInstead:  "Unfortunately the requested time was just taken. I booked you for %s at %s instead.",
		alreadyBooked:  "Your appointment on %s at %s is already booked.",
		pastDate:       "That time is already in the past. When would you like to come in instead?",
		outsideHours:   "We are not open at %s on %s. Opening hours that day are %s.",
		closedDay:      "The practice is closed on %s.",
		invalidFormat:  "I did not catch the date or time. Could you repeat it, please?",
		slotTaken:      "The appointment on %s at %s is already taken.",
		offer:          "I could offer you %s. Which one suits you?",
		noneFree:       "Unfortunately there are no free appointments in the coming weeks. Please call the practice.",
		rejected:       "I am sorry, I could not book a suitable appointment for you. Please call the practice directly.",
		tryLater:       "Sorry, we are having a technical problem right now. Please try again in a few minutes.",
		cancelled:      "Your appointment on %s at %s has been cancelled.",
		cancelNotFound: "I could not find an active appointment with number %d.",
		nextAvailable:  "The next free appointments are %s. Which one suits you?",
		at:             "at",
		or:             "or",
		and:            "and",
		interval:       "%s to %s",
		ordinals: [3][]string{
			{"first", "1st"},
			{"second", "2nd"},
			{"third", "3rd"},
		},
	},
	resolver.LocaleItalian: {
		askReason:      "Qual è il motivo della visita? Ha dolore o si tratta di un controllo?",
		askName:        "Mi può dire nome e cognome, per favore?",
		askTime:        "Quando preferisce venire?",
		askTimeOn:      "A che ora le va bene %s?",
		freeOn:         "Per %s ho liberi questi orari: %s.",
		askPhone:       "A quale numero di telefono possiamo contattarla?",
		confirm:        "Riepilogo: %s, %s %s alle %s. Telefono %s. È corretto?",
		repeatConfirm:  "Devo prenotare così? Risponda sì o no, per favore.",
		booked:         "Grazie, %s. Il suo appuntamento %s alle %s è confermato. A presto.",
		bookedInstead:  "Purtroppo l'orario richiesto è appena stato preso. L'ho prenotata invece per %s alle %s.",
		alreadyBooked:  "Il suo appuntamento %s alle %s è già prenotato.",
		pastDate:       "Questo orario è già passato. Quando preferisce venire invece?",
		outsideHours:   "Alle %s di %s lo studio non è aperto. Gli orari di quel giorno sono %s.",
		closedDay:      "Lo studio è chiuso %s.",
		invalidFormat:  "Non ho capito la data o l'ora. Può ripetere, per favore?",
		slotTaken:      "L'appuntamento %s alle %s è già occupato.",
		offer:          "Potrei offrirle %s. Quale preferisce?",
		noneFree:       "Purtroppo nelle prossime settimane non ci sono appuntamenti liberi. La preghiamo di chiamare lo studio.",
		rejected:       "Mi dispiace, non sono riuscita a prenotare un appuntamento adatto. La preghiamo di chiamare direttamente lo studio.",
		tryLater:       "Mi scusi, al momento c'è un problema tecnico. Riprovi tra qualche minuto.",
		cancelled:      "Il suo appuntamento %s alle %s è stato cancellato.",
		cancelNotFound: "Non ho trovato un appuntamento attivo con il numero %d.",
		nextAvailable:  "I prossimi appuntamenti liberi sono %s. Quale preferisce?",
		at:             "alle",
		or:             "o",
		and:            "e",
		interval:       "dalle %s alle %s",
		ordinals: [3][]string{
			{"primo", "prima"},
			{"secondo", "seconda"},
			{"terzo", "terza"},
		},
	},
}

func messagesFor(locale string) *messages {
	return catalog[resolver.NormalizeLocale(locale)]
}

// spokenSlot phrases a slot relative to now: "morgen um 9 Uhr" or
// "Donnerstag, den 13. März um 9 Uhr".
func spokenSlot(slot appointments.Slot, now time.Time, locale string) string {
	m := messagesFor(locale)
	day := resolver.SpokenDate(slot.Start, locale)
	if days := slot.DaysFrom(now); days >= 0 && days <= 2 {
		day = resolver.RelativeDay(days, locale)
	}
	return fmt.Sprintf("%s %s %s", day, m.at, resolver.SpokenClock(slot.Time, locale))
}

func spokenSlots(slots []appointments.Slot, now time.Time, locale string) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, spokenSlot(s, now, locale))
	}
	return joinList(parts, messagesFor(locale).or)
}

func spokenClocks(slots []appointments.Slot, locale string) string {
	parts := make([]string, 0, len(slots))
	for _, s := range slots {
		parts = append(parts, resolver.SpokenClock(s.Time, locale))
	}
	return joinList(parts, messagesFor(locale).or)
}

// spokenHours reads the opening intervals of date aloud.
func spokenHours(schedule *clinic.Schedule, date time.Time, locale string) string {
	m := messagesFor(locale)
	intervals := schedule.IntervalsOn(date)
	parts := make([]string, 0, len(intervals))
	for _, iv := range intervals {
		parts = append(parts, fmt.Sprintf(m.interval,
			resolver.SpokenClock(iv.Start, locale), resolver.SpokenClock(iv.End, locale)))
	}
	return joinList(parts, m.and)
}

// joinList renders "a, b oder c".
func joinList(items []string, last string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " " + last + " " + items[len(items)-1]
}

// ordinalChoice returns the index of an ordinal word ("die zweite", "the
// first one") in text, if any.
func ordinalChoice(text, locale string, n int) (int, bool) {
	s := " " + strings.Join(strings.Fields(punctuationStrip.Replace(resolver.Fold(text))), " ") + " "
	for i, words := range messagesFor(locale).ordinals {
		if i >= n {
			break
		}
		for _, w := range words {
			if strings.Contains(s, " "+w+" ") {
				return i, true
			}
		}
	}
	return 0, false
}

var punctuationStrip = strings.NewReplacer(",", " ", ".", " ", "!", " ", "?", " ", ";", " ")
