// Package whisper implements stt.Transcriber against a self-hosted
// Whisper-compatible HTTP endpoint (whisper.cpp server, faster-whisper,
// whisper-asr-webservice).
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/nadzzz/mira/internal/config"
)

// Client posts WAV utterances to a Whisper endpoint.
type Client struct {
	endpoint  string
	flavor    string // "openai" or "asr"
	model     string
	vadFilter bool
	client    *http.Client
}

// New creates a Whisper client from config.
func New(cfg config.WhisperConfig) *Client {
	flavor := cfg.Type
	if flavor == "" {
		flavor = "openai"
	}
	return &Client{
		endpoint:  cfg.Endpoint,
		flavor:    flavor,
		model:     cfg.Model,
		vadFilter: cfg.VADFilter,
		client:    &http.Client{},
	}
}

// Name returns the backend identifier.
func (c *Client) Name() string { return "whisper" }

// Transcribe sends one utterance to the endpoint.
// Supports two flavors:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (c *Client) Transcribe(ctx context.Context, wav []byte, lang string) (string, error) {
	if c.flavor == "asr" {
		return c.transcribeASR(ctx, wav, lang)
	}
	return c.transcribeOpenAI(ctx, wav, lang)
}

// transcribeASR handles the whisper-asr-webservice format.
// API: POST /asr?task=transcribe&language=bn&output=json&vad_filter=true
// Body: multipart/form-data with field "audio_file"
func (c *Client) transcribeASR(ctx context.Context, wav []byte, lang string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("audio_file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	writer.Close()

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if lang != "" {
		q.Set("language", lang)
	}
	if c.vadFilter {
		q.Set("vad_filter", "true")
	}

	reqURL := c.endpoint + "?" + q.Encode()
	slog.Debug("whisper-asr request", "url", reqURL)
	return c.post(ctx, reqURL, writer.FormDataContentType(), body)
}

// transcribeOpenAI handles OpenAI-compatible whisper endpoints.
func (c *Client) transcribeOpenAI(ctx context.Context, wav []byte, lang string) (string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "utterance.wav")
	if err != nil {
		return "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return "", fmt.Errorf("writing audio: %w", err)
	}
	if c.model != "" {
		_ = writer.WriteField("model", c.model)
	}
	if lang != "" {
		_ = writer.WriteField("language", lang)
	}
	_ = writer.WriteField("response_format", "json")
	writer.Close()

	return c.post(ctx, c.endpoint, writer.FormDataContentType(), body)
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("whisper transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding transcription: %w", err)
	}
	return result.Text, nil
}
