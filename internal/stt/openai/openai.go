// Package openai implements stt.Transcriber on the OpenAI audio
// transcription API.
package openai

import (
	"bytes"
	"context"
	"fmt"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/mira/internal/config"
)

// Client transcribes utterances with Whisper / gpt-4o-transcribe.
type Client struct {
	client *goopenai.Client
	model  string
}

// New creates an OpenAI transcription client from config.
func New(cfg config.OpenAIConfig) *Client {
	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = goopenai.Whisper1
	}
	return &Client{client: goopenai.NewClientWithConfig(oc), model: model}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "openai" }

// Transcribe uploads one WAV utterance.
func (c *Client) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	resp, err := c.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    c.model,
		FilePath: "utterance.wav",
		Reader:   bytes.NewReader(wav),
		Language: lang,
		Format:   goopenai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("openai transcription: %w", err)
	}
	return resp.Text, nil
}
