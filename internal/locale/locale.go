// Package locale holds the language-tag and digit helpers shared by the
// speech engines and the command interpreter.
package locale

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// Base returns the ISO-639-1 code of a BCP 47 tag ("bn-BD" -> "bn").
// Underscore separators ("bn_BD") are accepted. Unparseable tags are
// returned unchanged.
func Base(tag string) string {
	t, err := language.Parse(strings.ReplaceAll(tag, "_", "-"))
	if err != nil {
		return tag
	}
	base, _ := t.Base()
	return base.String()
}

// Matches reports whether two tags share a base language.
func Matches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return Base(a) == Base(b)
}

const bengaliZero = '০'

// LocalizeDigits rewrites ASCII digits in s to the native digits of tag.
// Only Bengali has native digits here; other tags return s unchanged.
func LocalizeDigits(s, tag string) string {
	if Base(tag) != "bn" {
		return s
	}
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return bengaliZero + (r - '0')
		}
		return r
	}, s)
}

// Clock formats t as a 12-hour clock time with seconds ("3:04:05 PM") in
// the digits of tag.
func Clock(t time.Time, tag string) string {
	return LocalizeDigits(t.Format("3:04:05 PM"), tag)
}

var numberRe = regexp.MustCompile(`[0-9০-৯]+`)

// FirstNumber returns the first run of ASCII or Bengali decimal digits in s.
func FirstNumber(s string) (int, bool) {
	m := numberRe.FindString(s)
	if m == "" {
		return 0, false
	}
	ascii := strings.Map(func(r rune) rune {
		if r >= bengaliZero && r <= bengaliZero+9 {
			return '0' + (r - bengaliZero)
		}
		return r
	}, m)
	n, err := strconv.Atoi(ascii)
	if err != nil {
		return 0, false
	}
	return n, true
}
