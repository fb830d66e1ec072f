package booking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedicalFollowUp(t *testing.T) {
	tests := []struct {
		reason string
		locale string
		want   string
	}{
		{"Ich habe starke Zahnschmerzen", "de", "Das tut mir leid zu hören, dass Sie Schmerzen haben. Seit wann haben Sie die Beschwerden, und haben Sie schon Schmerzmittel genommen?"},
		{"meine Backe ist geschwollen", "de", "Seit wann ist es geschwollen, und haben Sie auch Fieber?"},
		{"Mein Zahnfleisch blutet", "de", "Blutet das Zahnfleisch beim Zähneputzen, und seit wann haben Sie das bemerkt?"},
		{"my gums bleed", "en", "Do your gums bleed when you brush, and since when have you noticed it?"},
		{"Mir ist eine Füllung rausgefallen", "de", "Ist die Füllung oder Krone abgebrochen oder ganz herausgefallen?"},
		{"controllo annuale", "it", "Quando è stato l'ultima volta dal dentista?"},
		{"Kontrolle", "en-GB", "When did you last see a dentist?"},
		{"ho mal di denti", "it", "Mi dispiace che abbia dolore. Da quando ha questi disturbi, e ha già preso un antidolorifico?"},
		{"Bleaching", "de", ""},
		{"", "de", ""},
	}
	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.Equal(t, tt.want, MedicalFollowUp(tt.reason, tt.locale))
		})
	}
}

func TestMedicalFollowUpIgnoresLookalikes(t *testing.T) {
	// "Sachen" contains "ache" but is not a symptom
	assert.Empty(t, MedicalFollowUp("Ich habe ein paar Sachen zu fragen", "de"))
}
