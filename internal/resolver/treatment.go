package resolver

import (
	"strings"

	"github.com/wolfman30/sofia-scheduler/internal/appointments"
)

// KeywordRule maps a set of keywords onto a treatment. Keywords are folded
// (lowercase ASCII) and match anywhere in the text, so "zahnschmerzen"
// hits "schmerz".
type KeywordRule struct {
	Keywords  []string
	Treatment appointments.TreatmentType
}

// DefaultKeywordRules is the built-in de/en/it vocabulary. Order matters:
// the first matching rule wins, so urgent symptoms come first.
func DefaultKeywordRules() []KeywordRule {
	return []KeywordRule{
		{Treatment: appointments.TreatmentEmergency, Keywords: []string{
			"notfall", "schmerz", "akut", "dringend", "geschwollen", "schwellung",
			"emergency", "pain", "toothache", "urgent", "swollen", "hurts",
			"urgenza", "dolore", "mal di denti", "urgente", "gonfio",
		}},
		{Treatment: appointments.TreatmentRootCanal, Keywords: []string{
			"wurzel", "endodontie", "root canal", "devitalizzazione", "canalare",
		}},
		{Treatment: appointments.TreatmentSurgery, Keywords: []string{
			"weisheitszahn", "extraktion", "zahn ziehen", "chirurgie",
			"wisdom tooth", "extraction", "pull a tooth", "oral surgery",
			"dente del giudizio", "estrazione", "chirurgia",
		}},
		{Treatment: appointments.TreatmentImplant, Keywords: []string{
			"implantat", "implant", "impianto",
		}},
		{Treatment: appointments.TreatmentCrownBridge, Keywords: []string{
			"krone", "bruecke", "zahnersatz", "crown", "bridge", "denture", "corona", "ponte", "protesi",
		}},
		{Treatment: appointments.TreatmentOrthodontics, Keywords: []string{
			"zahnspange", "spange", "brackets", "kieferorthopaed", "braces", "orthodont", "apparecchio", "ortodon",
		}},
		{Treatment: appointments.TreatmentCleaning, Keywords: []string{
			"reinigung", "pzr", "prophylaxe", "hygiene", "cleaning", "pulizia", "igiene",
		}},
		{Treatment: appointments.TreatmentFilling, Keywords: []string{
			"fuellung", "plombe", "loch", "karies", "filling", "cavity", "otturazione", "carie",
		}},
		{Treatment: appointments.TreatmentBleaching, Keywords: []string{
			"bleaching", "aufhellung", "weissmachen", "whitening", "sbiancamento",
		}},
		{Treatment: appointments.TreatmentConsultation, Keywords: []string{
			"beratung", "consultation", "advice", "second opinion", "consulenza", "consulto",
		}},
		{Treatment: appointments.TreatmentCheckup, Keywords: []string{
			"kontrolle", "vorsorge", "untersuchung", "check", "controllo", "visita",
		}},
	}
}

// DetectTreatment runs the default keyword table over text.
func DetectTreatment(text string) (appointments.TreatmentType, bool) {
	return matchTreatment(defaultResolver.rules, fold(text))
}

func matchTreatment(rules []KeywordRule, s string) (appointments.TreatmentType, bool) {
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(s, kw) {
				return rule.Treatment, true
			}
		}
	}
	return appointments.DefaultTreatment, false
}
