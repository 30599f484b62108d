package tts

import (
	"strings"

	"github.com/nadzzz/mira/internal/locale"
)

// SelectVoice returns the best voice for the target language, or nil.
// Preference order:
//  1. a name containing "Google Bangla"
//  2. a Google voice that is Bangla/Bengali by name or language
//  3. a target-language voice that is female (by name or gender)
//  4. any target-language voice
func SelectVoice(voices []Voice, lang string) *Voice {
	rules := []func(v Voice) bool{
		func(v Voice) bool { return strings.Contains(v.Name, "Google Bangla") },
		func(v Voice) bool {
			if !isGoogle(v) {
				return false
			}
			return strings.Contains(v.Name, "Bangla") ||
				strings.Contains(v.Name, "Bengali") ||
				locale.Matches(v.Language, lang)
		},
		func(v Voice) bool {
			if !locale.Matches(v.Language, lang) {
				return false
			}
			return strings.Contains(v.Name, "Female") ||
				strings.Contains(v.Name, "Sushmita") ||
				strings.Contains(v.Name, "Yasmin") ||
				strings.EqualFold(v.Gender, "female")
		},
		func(v Voice) bool { return locale.Matches(v.Language, lang) },
	}
	for _, match := range rules {
		for i := range voices {
			if match(voices[i]) {
				v := voices[i]
				return &v
			}
		}
	}
	return nil
}

func isGoogle(v Voice) bool {
	return strings.Contains(v.Name, "Google") || strings.EqualFold(v.Provider, "google")
}

// Prosody returns the speaking rate and pitch for a voice. Google voices
// sound natural at a neutral rate with a slight lift; everything else,
// including no voice at all, is sped up and pitched higher.
func Prosody(v *Voice) (rate, pitch float64) {
	if v != nil && isGoogle(*v) {
		return 1.0, 1.1
	}
	return 1.1, 1.5
}

// SameVoices reports whether two voice lists are identical.
func SameVoices(a, b []Voice) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
