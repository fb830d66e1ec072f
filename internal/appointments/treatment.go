package appointments

import (
	"strings"
	"time"
)

// TreatmentType is a canonical treatment tag.
type TreatmentType string

const (
	TreatmentCheckup      TreatmentType = "checkup"
	TreatmentCleaning     TreatmentType = "cleaning"
	TreatmentFilling      TreatmentType = "filling"
	TreatmentRootCanal    TreatmentType = "root_canal"
	TreatmentImplant      TreatmentType = "implant"
	TreatmentCrownBridge  TreatmentType = "crown_bridge"
	TreatmentOrthodontics TreatmentType = "orthodontics"
	TreatmentEmergency    TreatmentType = "emergency"
	TreatmentConsultation TreatmentType = "consultation"
	TreatmentBleaching    TreatmentType = "bleaching"
	TreatmentSurgery      TreatmentType = "surgery"

	DefaultTreatment = TreatmentCheckup
)

type treatmentInfo struct {
	duration time.Duration
	names    map[string]string
}

var treatmentCatalog = map[TreatmentType]treatmentInfo{
	TreatmentCheckup:      {30 * time.Minute, map[string]string{"de": "Kontrolluntersuchung", "en": "check-up", "it": "controllo"}},
	TreatmentCleaning:     {60 * time.Minute, map[string]string{"de": "Zahnreinigung", "en": "dental cleaning", "it": "pulizia dentale"}},
	TreatmentFilling:      {45 * time.Minute, map[string]string{"de": "Füllung", "en": "filling", "it": "otturazione"}},
	TreatmentRootCanal:    {90 * time.Minute, map[string]string{"de": "Wurzelbehandlung", "en": "root canal treatment", "it": "devitalizzazione"}},
	TreatmentImplant:      {120 * time.Minute, map[string]string{"de": "Implantat", "en": "implant", "it": "impianto"}},
	TreatmentCrownBridge:  {60 * time.Minute, map[string]string{"de": "Kronen und Brücken", "en": "crowns and bridges", "it": "corone e ponti"}},
	TreatmentOrthodontics: {45 * time.Minute, map[string]string{"de": "Kieferorthopädie", "en": "orthodontics", "it": "ortodonzia"}},
	TreatmentEmergency:    {30 * time.Minute, map[string]string{"de": "Notfallbehandlung", "en": "emergency treatment", "it": "urgenza"}},
	TreatmentConsultation: {30 * time.Minute, map[string]string{"de": "Beratung", "en": "consultation", "it": "consulenza"}},
	TreatmentBleaching:    {60 * time.Minute, map[string]string{"de": "Bleaching", "en": "teeth whitening", "it": "sbiancamento"}},
	TreatmentSurgery:      {60 * time.Minute, map[string]string{"de": "Chirurgie", "en": "oral surgery", "it": "chirurgia orale"}},
}

// TreatmentTypes lists every known treatment.
func TreatmentTypes() []TreatmentType {
	return []TreatmentType{
		TreatmentCheckup, TreatmentCleaning, TreatmentFilling, TreatmentRootCanal,
		TreatmentImplant, TreatmentCrownBridge, TreatmentOrthodontics, TreatmentEmergency,
		TreatmentConsultation, TreatmentBleaching, TreatmentSurgery,
	}
}

// Valid reports whether t is a known treatment.
func (t TreatmentType) Valid() bool {
	_, ok := treatmentCatalog[t]
	return ok
}

// Duration is the default treatment length; unknown types get 30 minutes.
func (t TreatmentType) Duration() time.Duration {
	if info, ok := treatmentCatalog[t]; ok {
		return info.duration
	}
	return 30 * time.Minute
}

// DisplayName renders the treatment for the given locale, falling back to English.
func (t TreatmentType) DisplayName(locale string) string {
	info, ok := treatmentCatalog[t]
	if !ok {
		return string(t)
	}
	if name, ok := info.names[locale]; ok {
		return name
	}
	return info.names["en"]
}

// IsTimeSensitive reports whether the treatment should be scheduled as early as possible.
func (t TreatmentType) IsTimeSensitive() bool {
	return t == TreatmentEmergency
}

// ParseTreatmentType accepts a canonical tag or any localized display name.
func ParseTreatmentType(value string) (TreatmentType, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", false
	}
	slug := TreatmentType(strings.NewReplacer("-", "_", " ", "_").Replace(v))
	if slug.Valid() {
		return slug, true
	}
	for t, info := range treatmentCatalog {
		for _, name := range info.names {
			if strings.ToLower(name) == v {
				return t, true
			}
		}
	}
	return "", false
}
