// Package config handles loading and validating the mira configuration.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the mira daemon.
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Locale        string              `mapstructure:"locale"`
	Session       SessionConfig       `mapstructure:"session"`
	STT           STTConfig           `mapstructure:"stt"`
	TTS           TTSConfig           `mapstructure:"tts"`
	Audio         AudioConfig         `mapstructure:"audio"`
	Voices        VoicesConfig        `mapstructure:"voices"`
	Interpreter   InterpreterConfig   `mapstructure:"interpreter"`
	Notes         NotesConfig         `mapstructure:"notes"`
	Launcher      LauncherConfig      `mapstructure:"launcher"`
	Presentation  PresentationConfig  `mapstructure:"presentation"`
	Transports    TransportsConfig    `mapstructure:"transports"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Logging       LoggingConfig       `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// SessionConfig holds the listening/speaking arbitration timings.
type SessionConfig struct {
	StartDelay    time.Duration `mapstructure:"start_delay"`    // delay before the first listening attempt
	RestartDelay  time.Duration `mapstructure:"restart_delay"`  // backoff after a listening termination
	RetryDelay    time.Duration `mapstructure:"retry_delay"`    // backoff after a failed start
	GreetingDelay time.Duration `mapstructure:"greeting_delay"` // delay between session start and the greeting
}

// STTConfig selects and configures the speech-to-text backend.
type STTConfig struct {
	Backend string        `mapstructure:"backend"` // "google", "whisper", "openai" or "none"
	Google  GoogleConfig  `mapstructure:"google"`
	Whisper WhisperConfig `mapstructure:"whisper"`
	OpenAI  OpenAIConfig  `mapstructure:"openai"`
}

// GoogleConfig holds Google Cloud client settings.
type GoogleConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
}

// WhisperConfig holds self-hosted Whisper settings.
type WhisperConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	Type      string `mapstructure:"type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	Model     string `mapstructure:"model"`
	VADFilter bool   `mapstructure:"vad_filter"`
}

// OpenAIConfig holds OpenAI API settings.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Backend string       `mapstructure:"backend"` // "piper", "google" or "none"
	Piper   PiperConfig  `mapstructure:"piper"`
	Google  GoogleConfig `mapstructure:"google"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// Endpoints maps ISO-639-1 codes to per-language Wyoming TCP endpoints and
// takes precedence over Endpoint.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`
	Endpoints map[string]string `mapstructure:"endpoints"`
	Voices    map[string]string `mapstructure:"voices"` // ISO-639-1 language code -> Piper voice model name
}

// AudioConfig holds microphone, playback and segmentation settings.
type AudioConfig struct {
	SampleRate      int       `mapstructure:"sample_rate"`
	FramesPerBuffer int       `mapstructure:"frames_per_buffer"`
	PlaybackRate    int       `mapstructure:"playback_rate"`
	VAD             VADConfig `mapstructure:"vad"`
}

// VADConfig tunes the RMS voice activity detector used to segment utterances.
type VADConfig struct {
	SpeechThreshold  float64       `mapstructure:"speech_threshold"`
	SilenceThreshold float64       `mapstructure:"silence_threshold"`
	SpeechFrames     int           `mapstructure:"speech_frames"`
	SilenceFrames    int           `mapstructure:"silence_frames"`
	MaxUtterance     time.Duration `mapstructure:"max_utterance"`
}

// VoicesConfig controls how often the synthesis voice list is polled.
type VoicesConfig struct {
	RetryInterval   time.Duration `mapstructure:"retry_interval"`   // while the list is empty
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // once voices are known
}

// InterpreterConfig holds command interpreter timings.
type InterpreterConfig struct {
	MessagingDelay time.Duration `mapstructure:"messaging_delay"`
	ResetDelay     time.Duration `mapstructure:"reset_delay"`
}

// NotesConfig holds the note store location.
type NotesConfig struct {
	Path string `mapstructure:"path"`
	Key  string `mapstructure:"key"`
}

// LauncherConfig selects how URLs are opened.
type LauncherConfig struct {
	Backend string `mapstructure:"backend"` // "browser" or "log"
}

// PresentationConfig selects the renderer and banner timings.
type PresentationConfig struct {
	Mode           string        `mapstructure:"mode"` // "tui" or "headless"
	TextOnlyBanner time.Duration `mapstructure:"text_only_banner"`
	InsecureBanner time.Duration `mapstructure:"insecure_banner"`
	BannerFade     time.Duration `mapstructure:"banner_fade"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
	MCP  MCPConfig  `mapstructure:"mcp"`
}

// GRPCConfig configures the gRPC health transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP/WebSocket transport.
type HTTPConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
}

// MCPConfig configures the MCP transport.
type MCPConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// NotificationsConfig controls the desktop-style greeting notification.
type NotificationsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
	File   string `mapstructure:"file"`   // optional; stdout when empty
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./mira.yaml, ./configs/mira.yaml, /etc/mira/mira.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("mira")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/mira")
	}

	// Environment variables: MIRA_STT_BACKEND, MIRA_SESSION_RESTART_DELAY, etc.
	v.SetEnvPrefix("MIRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Resolve env var references in sensitive fields (e.g., "${OPENAI_API_KEY}").
	cfg.STT.OpenAI.APIKey = resolveEnvRef(cfg.STT.OpenAI.APIKey)
	cfg.STT.Google.CredentialsFile = resolveEnvRef(cfg.STT.Google.CredentialsFile)
	cfg.TTS.Google.CredentialsFile = resolveEnvRef(cfg.TTS.Google.CredentialsFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("locale", "bn-BD")

	v.SetDefault("session.start_delay", 500*time.Millisecond)
	v.SetDefault("session.restart_delay", 500*time.Millisecond)
	v.SetDefault("session.retry_delay", 1000*time.Millisecond)
	v.SetDefault("session.greeting_delay", 1000*time.Millisecond)

	v.SetDefault("stt.backend", "google")
	v.SetDefault("stt.google.credentials_file", "${GOOGLE_APPLICATION_CREDENTIALS}")
	v.SetDefault("stt.whisper.endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("stt.whisper.type", "openai")
	v.SetDefault("stt.whisper.vad_filter", false)
	v.SetDefault("stt.openai.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("stt.openai.model", "whisper-1")

	v.SetDefault("tts.backend", "google")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("tts.google.credentials_file", "${GOOGLE_APPLICATION_CREDENTIALS}")

	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.frames_per_buffer", 320)
	v.SetDefault("audio.playback_rate", 44100)
	v.SetDefault("audio.vad.speech_threshold", 0.015)
	v.SetDefault("audio.vad.silence_threshold", 0.008)
	v.SetDefault("audio.vad.speech_frames", 3)
	v.SetDefault("audio.vad.silence_frames", 40)
	v.SetDefault("audio.vad.max_utterance", 15*time.Second)

	v.SetDefault("voices.retry_interval", 100*time.Millisecond)
	v.SetDefault("voices.refresh_interval", 30*time.Second)

	v.SetDefault("interpreter.messaging_delay", 1000*time.Millisecond)
	v.SetDefault("interpreter.reset_delay", 2000*time.Millisecond)

	v.SetDefault("notes.path", "mira.sqlite")
	v.SetDefault("notes.key", "mira_notes")

	v.SetDefault("launcher.backend", "browser")

	v.SetDefault("presentation.mode", "tui")
	v.SetDefault("presentation.text_only_banner", 8*time.Second)
	v.SetDefault("presentation.insecure_banner", 6*time.Second)
	v.SetDefault("presentation.banner_fade", 500*time.Millisecond)

	v.SetDefault("transports.grpc.enabled", true)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.host", "127.0.0.1")
	v.SetDefault("transports.http.port", 8099)
	v.SetDefault("transports.mcp.enabled", false)
	v.SetDefault("transports.mcp.port", 8098)

	v.SetDefault("notifications.enabled", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	switch c.STT.Backend {
	case "google", "whisper", "openai", "none":
	default:
		return fmt.Errorf("unknown stt backend %q", c.STT.Backend)
	}
	switch c.TTS.Backend {
	case "piper", "google", "none":
	default:
		return fmt.Errorf("unknown tts backend %q", c.TTS.Backend)
	}
	switch c.Presentation.Mode {
	case "tui", "headless":
	default:
		return fmt.Errorf("unknown presentation mode %q", c.Presentation.Mode)
	}
	if c.Session.RestartDelay <= 0 || c.Session.RetryDelay <= 0 {
		return fmt.Errorf("session delays must be positive (restart=%s retry=%s)",
			c.Session.RestartDelay, c.Session.RetryDelay)
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
// An unset variable resolves to the empty string.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
// When cfg.File is set, records are appended to that file instead of stdout
// so a full-screen renderer can own the terminal.
func SetupLogging(cfg LoggingConfig) error {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var out io.Writer = os.Stdout
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		out = f
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
