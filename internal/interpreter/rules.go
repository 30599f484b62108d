package interpreter

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/nadzzz/mira/internal/launcher"
	"github.com/nadzzz/mira/internal/locale"
)

type rule struct {
	name        string
	triggers    []string
	fallThrough bool   // act, then keep evaluating
	chain       string // rules in the same chain are exclusive; the first match skips the rest
	act         func(e *evaluation) error
}

func words(pattern string) *regexp.Regexp {
	return regexp.MustCompile(norm.NFC.String(pattern))
}

var (
	messagingWords = words(`(?i)মেসেজ|হোয়াটসঅ্যাপ|whatsapp|পাঠাও|send`)
	noteWords      = words(`(?i)save note|note|নোট|লেখো|লিস্ট`)
	appWords       = words(`(?i)খোলো|খোল|open|অ্যাপ|app`)
	searchWords    = words(`(?i)সার্চ|search|খুঁজো|গুগলে|ইউটিউবে|গুগল|ইউটিউব|google|youtube`)
)

// strip removes every match of re from s and normalizes whitespace.
func strip(s string, re *regexp.Regexp) string {
	return strings.Join(strings.Fields(re.ReplaceAllString(s, " ")), " ")
}

func (in *Interpreter) table() []rule {
	return []rule{
		{
			name:     "messaging",
			triggers: []string{"মেসেজ", "হোয়াটসঅ্যাপ", "whatsapp"},
			act:      in.messaging,
		},
		{
			name:        "image",
			triggers:    []string{"ছবি তৈরি", "image", "ছবির"},
			fallThrough: true,
			chain:       "capture",
			act: func(e *evaluation) error {
				in.say(e, ImageText)
				in.open(e, launcher.ImageSearch(e.command), 0)
				return nil
			},
		},
		{
			name:        "note",
			triggers:    []string{"save note", "note", "নোট", "লেখো"},
			fallThrough: true,
			chain:       "capture",
			act:         in.note,
		},
		{
			name:     "volume",
			triggers: []string{"ভলিউম", "volume"},
			act: func(e *evaluation) error {
				in.level(e, "volume", "ভলিউম", defaultVolume)
				return nil
			},
		},
		{
			name:     "brightness",
			triggers: []string{"ব্রাইটনেস", "brightness"},
			act: func(e *evaluation) error {
				in.level(e, "brightness", "ব্রাইটনেস", defaultBrightness)
				return nil
			},
		},
		{
			name:     "wifi",
			triggers: []string{"ওয়াইফাই", "wifi"},
			act: func(e *evaluation) error {
				in.say(e, fmt.Sprintf("ওয়াইফাই %s করছি।", switchState(e)))
				return nil
			},
		},
		{
			name:     "bluetooth",
			triggers: []string{"ব্লুটুথ", "bluetooth"},
			act: func(e *evaluation) error {
				in.say(e, fmt.Sprintf("ব্লুটুথ %s করছি।", switchState(e)))
				return nil
			},
		},
		{
			name:     "app",
			triggers: []string{"খোল", "open"},
			act: func(e *evaluation) error {
				app := strip(e.command, appWords)
				in.say(e, fmt.Sprintf("%s খুলছি।", app))
				in.open(e, launcher.AppSearch(app), 0)
				return nil
			},
		},
		{
			name:     "search",
			triggers: []string{"সার্চ", "search", "খুঁজো", "গুগল", "ইউটিউব", "google", "youtube"},
			act: func(e *evaluation) error {
				q := strip(e.command, searchWords)
				if e.has("ইউটিউব", "youtube") {
					in.say(e, fmt.Sprintf("ইউটিউবে %s।", q))
					in.open(e, launcher.YouTubeSearch(q), 0)
					return nil
				}
				in.say(e, fmt.Sprintf("গুগলে %s।", q))
				in.open(e, launcher.WebSearch(q), 0)
				return nil
			},
		},
		{
			name:     "time",
			triggers: []string{"সময়", "time"},
			act: func(e *evaluation) error {
				in.say(e, fmt.Sprintf("এখন সময় হলো %s।", locale.Clock(in.now(), in.cfg.Locale)))
				return nil
			},
		},
		{
			name:     "small_talk",
			triggers: []string{"কেমন আছো", "how are you"},
			act: func(e *evaluation) error {
				in.say(e, SmallTalkText)
				return nil
			},
		},
	}
}

func (in *Interpreter) messaging(e *evaluation) error {
	in.say(e, MessagingText)
	u := launcher.WhatsAppSend
	if e.has("পাঠাও", "send") {
		u = launcher.WhatsAppText(strip(e.command, messagingWords))
	}
	in.open(e, u, in.cfg.MessagingDelay)
	return nil
}

// note saves the command minus its trigger words, keeping the original case.
func (in *Interpreter) note(e *evaluation) error {
	text := strip(e.raw, noteWords)
	if text == "" {
		in.say(e, NoteUnclearText)
		return nil
	}
	if _, err := in.notebook.Append(e.ctx, text); err != nil {
		return fmt.Errorf("saving note: %w", err)
	}
	in.say(e, NoteSavedText)
	return nil
}

func (in *Interpreter) level(e *evaluation, name, label string, def int) {
	n, ok := locale.FirstNumber(e.command)
	if !ok {
		n = def
	}
	in.display.SetLevel(name, n)
	in.say(e, fmt.Sprintf("%s %d।", label, n))
}

func switchState(e *evaluation) string {
	if e.has("চালু", "on") {
		return "অন"
	}
	return "অফ"
}
