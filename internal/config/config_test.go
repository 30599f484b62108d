package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Locale != "bn-BD" {
		t.Errorf("locale = %q, want bn-BD", cfg.Locale)
	}
	if cfg.Session.RestartDelay != 500*time.Millisecond {
		t.Errorf("restart delay = %s, want 500ms", cfg.Session.RestartDelay)
	}
	if cfg.Session.RetryDelay != time.Second {
		t.Errorf("retry delay = %s, want 1s", cfg.Session.RetryDelay)
	}
	if cfg.Interpreter.ResetDelay != 2*time.Second {
		t.Errorf("reset delay = %s, want 2s", cfg.Interpreter.ResetDelay)
	}
	if cfg.Notes.Key != "mira_notes" {
		t.Errorf("notes key = %q", cfg.Notes.Key)
	}
	if cfg.Presentation.Mode != "tui" {
		t.Errorf("mode = %q, want tui", cfg.Presentation.Mode)
	}
	if !cfg.Transports.HTTP.Enabled || cfg.Transports.MCP.Enabled {
		t.Errorf("transports = %+v", cfg.Transports)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("MIRA_STT_BACKEND", "whisper")
	t.Setenv("MIRA_SESSION_RESTART_DELAY", "250ms")
	t.Setenv("MIRA_TRANSPORTS_HTTP_PORT", "9000")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.STT.Backend != "whisper" {
		t.Errorf("stt backend = %q, want whisper", cfg.STT.Backend)
	}
	if cfg.Session.RestartDelay != 250*time.Millisecond {
		t.Errorf("restart delay = %s, want 250ms", cfg.Session.RestartDelay)
	}
	if cfg.Transports.HTTP.Port != 9000 {
		t.Errorf("http port = %d, want 9000", cfg.Transports.HTTP.Port)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mira.yaml")
	data := []byte(`
locale: en-US
tts:
  backend: piper
  piper:
    endpoints:
      bn: piper-bn:10200
stt:
  openai:
    api_key: ${MIRA_TEST_KEY}
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MIRA_TEST_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Locale != "en-US" {
		t.Errorf("locale = %q", cfg.Locale)
	}
	if cfg.TTS.Backend != "piper" || cfg.TTS.Piper.Endpoints["bn"] != "piper-bn:10200" {
		t.Errorf("tts = %+v", cfg.TTS)
	}
	if cfg.STT.OpenAI.APIKey != "sk-test" {
		t.Errorf("api key = %q, want resolved env ref", cfg.STT.OpenAI.APIKey)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	t.Setenv("MIRA_TTS_BACKEND", "espeak")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown tts backend")
	}
}

func TestValidate(t *testing.T) {
	valid := Config{
		STT:          STTConfig{Backend: "none"},
		TTS:          TTSConfig{Backend: "none"},
		Presentation: PresentationConfig{Mode: "headless"},
		Session:      SessionConfig{RestartDelay: time.Millisecond, RetryDelay: time.Millisecond},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"stt", func(c *Config) { c.STT.Backend = "vosk" }},
		{"mode", func(c *Config) { c.Presentation.Mode = "gui" }},
		{"restart delay", func(c *Config) { c.Session.RestartDelay = 0 }},
		{"retry delay", func(c *Config) { c.Session.RetryDelay = -time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("MIRA_REF", "value")
	if got := resolveEnvRef("${MIRA_REF}"); got != "value" {
		t.Errorf("got %q", got)
	}
	if got := resolveEnvRef("${MIRA_UNSET_REF}"); got != "" {
		t.Errorf("unset ref = %q, want empty", got)
	}
	if got := resolveEnvRef("plain"); got != "plain" {
		t.Errorf("got %q", got)
	}
}

func TestSetupLoggingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mira.log")
	if err := SetupLogging(LoggingConfig{Level: "debug", Format: "text", File: path}); err != nil {
		t.Fatalf("SetupLogging: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
	if err := SetupLogging(LoggingConfig{File: filepath.Join(path, "nope", "x.log")}); err == nil {
		t.Error("expected error for unwritable log path")
	}
}
