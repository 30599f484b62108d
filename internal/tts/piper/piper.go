// Package piper implements the TTS Synthesizer using a Piper Wyoming protocol server.
//
// Piper is a fast, local neural text-to-speech system. The linuxserver/piper
// container exposes the Wyoming protocol on TCP port 10200. This package
// implements a client for that protocol to list voices and synthesize speech.
//
// Wyoming protocol format (per event):
//
//	<json_length> <payload_length>\n
//	<json_bytes>\n
//	<payload_bytes>   (if payload_length > 0)
package piper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/nadzzz/mira/internal/audio"
	"github.com/nadzzz/mira/internal/config"
	"github.com/nadzzz/mira/internal/locale"
	"github.com/nadzzz/mira/internal/tts"
)

// defaultVoices maps ISO-639-1 language codes to Piper voice model names.
// Piper ships no Bengali model; set tts.piper.voices.bn to a custom one.
var defaultVoices = map[string]string{
	"en": "en_US-lessac-medium",
	"hi": "hi_IN-pratham-medium",
	"ne": "ne_NP-google-medium",
}

// Synthesizer implements tts.Synthesizer using the Wyoming protocol.
type Synthesizer struct {
	endpoint  string            // default host:port of the Piper Wyoming server
	endpoints map[string]string // language -> host:port for per-language Piper instances
	voices    map[string]string // language -> voice name overrides
	fs        afero.Fs          // scratch space for the WAV encoder
}

// New creates a new Piper synthesizer from config.
func New(cfg config.PiperConfig) *Synthesizer {
	voices := make(map[string]string, len(defaultVoices))
	for k, v := range defaultVoices {
		voices[k] = v
	}
	for k, v := range cfg.Voices {
		voices[k] = v
	}

	endpoints := make(map[string]string, len(cfg.Endpoints))
	for lang, ep := range cfg.Endpoints {
		endpoints[lang] = cleanEndpoint(ep)
	}

	return &Synthesizer{
		endpoint:  cleanEndpoint(cfg.Endpoint),
		endpoints: endpoints,
		voices:    voices,
		fs:        afero.NewMemMapFs(),
	}
}

func cleanEndpoint(ep string) string {
	ep = strings.TrimPrefix(ep, "tcp://")
	ep = strings.TrimPrefix(ep, "http://")
	return ep
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "piper" }

func (s *Synthesizer) endpointFor(lang string) string {
	if ep := s.endpoints[lang]; ep != "" {
		return ep
	}
	return s.endpoint
}

func (s *Synthesizer) dial(ctx context.Context, endpoint string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", endpoint)
	if err != nil {
		return nil, fmt.Errorf("connecting to piper: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(30 * time.Second))
	}
	return conn, nil
}

// Voices asks every configured server to describe itself and collects the
// installed voices. Piper ignores rate and pitch, so the provider is "piper".
func (s *Synthesizer) Voices(ctx context.Context) ([]tts.Voice, error) {
	seen := map[string]bool{}
	var out []tts.Voice

	targets := []string{s.endpoint}
	for _, ep := range s.endpoints {
		targets = append(targets, ep)
	}
	for _, ep := range targets {
		if ep == "" || seen[ep] {
			continue
		}
		seen[ep] = true
		voices, err := s.describe(ctx, ep)
		if err != nil {
			return nil, err
		}
		out = append(out, voices...)
	}
	return out, nil
}

func (s *Synthesizer) describe(ctx context.Context, endpoint string) ([]tts.Voice, error) {
	conn, err := s.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := writeEvent(conn, wyomingEvent{Type: "describe"}, nil); err != nil {
		return nil, fmt.Errorf("sending describe event: %w", err)
	}

	for {
		evt, _, err := readEvent(conn)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}
		if evt.Type != "info" {
			slog.Debug("piper unexpected event", "type", evt.Type)
			continue
		}
		return parseInfo(evt.Data)
	}
}

// parseInfo extracts voices from an info event:
// {"tts": [{"voices": [{"name": ..., "languages": [...], "installed": true}]}]}
func parseInfo(data map[string]any) ([]tts.Voice, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("re-encoding info: %w", err)
	}
	var info struct {
		TTS []struct {
			Voices []struct {
				Name      string   `json:"name"`
				Languages []string `json:"languages"`
				Installed *bool    `json:"installed"`
			} `json:"voices"`
		} `json:"tts"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, fmt.Errorf("decoding info: %w", err)
	}

	var out []tts.Voice
	for _, program := range info.TTS {
		for _, v := range program.Voices {
			if v.Installed != nil && !*v.Installed {
				continue
			}
			lang := ""
			if len(v.Languages) > 0 {
				lang = strings.ReplaceAll(v.Languages[0], "_", "-")
			}
			out = append(out, tts.Voice{Name: v.Name, Language: lang, Provider: "piper"})
		}
	}
	return out, nil
}

// Synthesize sends text to the Piper server and returns synthesized audio as WAV.
// Piper has no prosody controls; Rate and Pitch are ignored.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	lang := locale.Base(opts.Language)
	voice := opts.Voice
	if voice == "" {
		voice = s.voices[lang]
	}
	if voice == "" {
		voice = s.voices["en"]
	}

	endpoint := s.endpointFor(lang)
	if endpoint == "" {
		return nil, fmt.Errorf("no piper endpoint configured for language %q", lang)
	}

	slog.Debug("piper synthesize", "text_length", len(text), "voice", voice, "language", lang, "endpoint", endpoint)

	conn, err := s.dial(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	synthEvent := wyomingEvent{
		Type: "synthesize",
		Data: map[string]any{
			"text":  text,
			"voice": map[string]any{"name": voice},
		},
	}
	if err := writeEvent(conn, synthEvent, nil); err != nil {
		return nil, fmt.Errorf("sending synthesize event: %w", err)
	}

	// Response events: audio-start → audio-chunk* → audio-stop
	var (
		pcm        []byte
		sampleRate = 22050
		channels   = 1
		width      = 2
	)
	for {
		evt, payload, err := readEvent(conn)
		if err != nil {
			return nil, fmt.Errorf("reading piper event: %w", err)
		}

		switch evt.Type {
		case "audio-start":
			if rate, ok := evt.Data["rate"].(float64); ok {
				sampleRate = int(rate)
			}
			if ch, ok := evt.Data["channels"].(float64); ok {
				channels = int(ch)
			}
			if w, ok := evt.Data["width"].(float64); ok {
				width = int(w)
			}
			if channels != 1 || width != 2 {
				return nil, fmt.Errorf("unsupported piper audio format: %d channels, %d bytes per sample", channels, width)
			}

		case "audio-chunk":
			pcm = append(pcm, payload...)

		case "audio-stop":
			slog.Debug("piper audio-stop", "pcm_bytes", len(pcm))
			wav, err := audio.EncodeWAV(s.fs, audio.PCMToSamples(pcm), sampleRate)
			if err != nil {
				return nil, err
			}
			return &tts.SynthesizeResult{
				Audio:       wav,
				ContentType: "audio/wav",
				SampleRate:  sampleRate,
				Channels:    channels,
			}, nil

		case "error":
			msg := "unknown error"
			if text, ok := evt.Data["text"].(string); ok {
				msg = text
			}
			return nil, fmt.Errorf("piper error: %s", msg)

		default:
			slog.Debug("piper unknown event", "type", evt.Type)
		}
	}
}

// Close is a no-op; connections are per-request.
func (s *Synthesizer) Close() error { return nil }

// --- Wyoming protocol helpers ---

type wyomingEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// writeEvent sends a Wyoming event over the connection.
func writeEvent(w io.Writer, evt wyomingEvent, payload []byte) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshalling event: %w", err)
	}
	frame := make([]byte, 0, len(body)+len(payload)+24)
	frame = fmt.Appendf(frame, "%d %d\n", len(body), len(payload))
	frame = append(frame, body...)
	frame = append(frame, '\n')
	frame = append(frame, payload...)
	_, err = w.Write(frame)
	return err
}

// readEvent reads a Wyoming event from the connection.
func readEvent(r io.Reader) (*wyomingEvent, []byte, error) {
	var header []byte
	one := make([]byte, 1)
	for {
		if _, err := io.ReadFull(r, one); err != nil {
			return nil, nil, fmt.Errorf("reading header: %w", err)
		}
		if one[0] == '\n' {
			break
		}
		header = append(header, one[0])
	}

	jsonPart, payloadPart, ok := strings.Cut(string(header), " ")
	if !ok {
		return nil, nil, fmt.Errorf("invalid wyoming header: %q", string(header))
	}
	jsonLen, err := strconv.Atoi(strings.TrimSpace(jsonPart))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing json_length: %w", err)
	}
	payloadLen, err := strconv.Atoi(strings.TrimSpace(payloadPart))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing payload_length: %w", err)
	}

	body := make([]byte, jsonLen+1) // trailing newline
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, nil, fmt.Errorf("reading json: %w", err)
	}

	var evt wyomingEvent
	if err := json.Unmarshal(body[:jsonLen], &evt); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling event: %w", err)
	}

	var payload []byte
	if payloadLen > 0 {
		payload = make([]byte, payloadLen)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, nil, fmt.Errorf("reading payload: %w", err)
		}
	}
	return &evt, payload, nil
}
