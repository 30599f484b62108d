// Package google implements the TTS Synthesizer on Cloud Text-to-Speech.
package google

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"google.golang.org/api/option"

	"github.com/nadzzz/mira/internal/config"
	"github.com/nadzzz/mira/internal/tts"
)

// Synthesizer calls ListVoices and SynthesizeSpeech.
type Synthesizer struct {
	client *texttospeech.Client
}

// New dials the Text-to-Speech API. An empty credentials file falls back to
// application default credentials.
func New(ctx context.Context, cfg config.GoogleConfig) (*Synthesizer, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := texttospeech.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating text-to-speech client: %w", err)
	}
	return &Synthesizer{client: client}, nil
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "google" }

// Voices lists every voice the API offers, one entry per language code.
func (s *Synthesizer) Voices(ctx context.Context) ([]tts.Voice, error) {
	resp, err := s.client.ListVoices(ctx, &texttospeechpb.ListVoicesRequest{})
	if err != nil {
		return nil, fmt.Errorf("listing voices: %w", err)
	}
	var out []tts.Voice
	for _, v := range resp.GetVoices() {
		gender := strings.ToLower(v.GetSsmlGender().String())
		for _, lang := range v.GetLanguageCodes() {
			out = append(out, tts.Voice{
				Name:     v.GetName(),
				Language: lang,
				Provider: "google",
				Gender:   gender,
			})
		}
	}
	return out, nil
}

// Synthesize renders text as 16-bit LINEAR16 WAV.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: opts.Language,
			Name:         opts.Voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_LINEAR16,
			SpeakingRate:  opts.Rate,
			Pitch:         Semitones(opts.Pitch),
		},
	}

	slog.Debug("google synthesize", "text_length", len(text), "voice", opts.Voice, "language", opts.Language)

	resp, err := s.client.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("synthesizing speech: %w", err)
	}
	return &tts.SynthesizeResult{
		Audio:       resp.GetAudioContent(),
		ContentType: "audio/wav",
		Channels:    1,
	}, nil
}

// Semitones converts a pitch multiplier to the API's semitone offset,
// clamped to its [-20, 20] range. Zero or negative means no change.
func Semitones(pitch float64) float64 {
	if pitch <= 0 {
		return 0
	}
	st := 12 * math.Log2(pitch)
	return math.Max(-20, math.Min(20, st))
}

// Close releases the gRPC connection.
func (s *Synthesizer) Close() error { return s.client.Close() }
