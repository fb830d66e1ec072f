package booking

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	phonePattern = regexp.MustCompile(`\+?\d[\d /-]{4,}\d`)
	emailPattern = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	isoDateLike  = regexp.MustCompile(`^\d{4}-\d{1,2}-\d{1,2}$`)
	namePattern  = regexp.MustCompile(`(?i)\b(?:mein name ist|ich heiße|ich heisse|hier spricht|hier ist|ich bin|my name is|this is|i am|i'm|mi chiamo|il mio nome è|sono)\s+(.+)`)

	nameParticles = map[string]bool{"von": true, "van": true, "de": true, "di": true, "da": true, "del": true, "zu": true, "der": true}
)

const minPhoneDigits = 6

type contact struct {
	phone string
	email string
}

// extractContact pulls a phone number and an email address out of text and
// returns the text without them, so digits of a phone number are never read
// as a date or time.
func extractContact(text string) (string, contact) {
	var c contact
	if loc := emailPattern.FindStringIndex(text); loc != nil {
		c.email = text[loc[0]:loc[1]]
		text = text[:loc[0]] + " " + text[loc[1]:]
	}
	for _, loc := range phonePattern.FindAllStringIndex(text, -1) {
		candidate := strings.TrimSpace(text[loc[0]:loc[1]])
		if isoDateLike.MatchString(candidate) || countDigits(candidate) < minPhoneDigits {
			continue
		}
		c.phone = strings.Join(strings.Fields(candidate), " ")
		text = text[:loc[0]] + " " + text[loc[1]:]
		break
	}
	return text, c
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// extractName finds "mein Name ist Jane Doe" style introductions. With
// fallback set, a short answer made only of words is taken as the name.
func extractName(text string, fallback bool) (string, bool) {
	if m := namePattern.FindStringSubmatch(text); m != nil {
		name := leadingName(m[1], true)
		return name, name != ""
	}
	if !fallback {
		return "", false
	}
	name := leadingName(firstSegment(text), false)
	return name, name != ""
}

// firstSegment returns text up to the first punctuation mark.
func firstSegment(text string) string {
	segments := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '.' || r == '!' || r == '?' || r == ';'
	})
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

// leadingName collects up to four name words from the start of s. With
// capitalized set it stops at the first lowercase word that is not a
// particle such as "von".
func leadingName(s string, capitalized bool) string {
	words := strings.Fields(s)
	var out []string
	for _, w := range words {
		if len(out) == 4 {
			break
		}
		trimmed := strings.TrimRight(w, ",.!?;:")
		stop := trimmed != w
		if trimmed == "" || !isNameWord(trimmed) {
			if !capitalized {
				return ""
			}
			break
		}
		first, _ := utf8.DecodeRuneInString(trimmed)
		switch {
		case nameParticles[strings.ToLower(trimmed)] && len(out) > 0:
			out = append(out, strings.ToLower(trimmed))
		case unicode.IsUpper(first):
			out = append(out, trimmed)
		case capitalized:
			stop = true
		default:
			out = append(out, titleCase(trimmed))
		}
		if stop {
			break
		}
	}
	if !capitalized && len(out) < len(words) && len(words) > 4 {
		return ""
	}
	for len(out) > 0 && nameParticles[out[len(out)-1]] {
		out = out[:len(out)-1]
	}
	return strings.Join(out, " ")
}

func isNameWord(w string) bool {
	for _, r := range w {
		if !unicode.IsLetter(r) && r != '-' && r != '\'' {
			return false
		}
	}
	return true
}

func titleCase(w string) string {
	r, size := utf8.DecodeRuneInString(w)
	return string(unicode.ToUpper(r)) + w[size:]
}
