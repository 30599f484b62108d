// Mira is a Bengali voice-command assistant. It keeps a continuous listening
// session alive, speaks its replies without hearing itself, and turns
// commands into spoken answers, saved notes and opened links.
//
// Usage:
//
//	mira [flags]
//	mira --config /path/to/mira.yaml
//	mira --headless
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nadzzz/mira/internal/audio"
	"github.com/nadzzz/mira/internal/config"
	"github.com/nadzzz/mira/internal/dispatch"
	"github.com/nadzzz/mira/internal/health"
	"github.com/nadzzz/mira/internal/interpreter"
	"github.com/nadzzz/mira/internal/launcher"
	"github.com/nadzzz/mira/internal/notes"
	"github.com/nadzzz/mira/internal/presentation"
	"github.com/nadzzz/mira/internal/session"
	"github.com/nadzzz/mira/internal/stt"
	googlestt "github.com/nadzzz/mira/internal/stt/google"
	openaistt "github.com/nadzzz/mira/internal/stt/openai"
	"github.com/nadzzz/mira/internal/stt/segment"
	whisperstt "github.com/nadzzz/mira/internal/stt/whisper"
	"github.com/nadzzz/mira/internal/transport"
	grpctransport "github.com/nadzzz/mira/internal/transport/grpc"
	httptransport "github.com/nadzzz/mira/internal/transport/http"
	mcptransport "github.com/nadzzz/mira/internal/transport/mcp"
	"github.com/nadzzz/mira/internal/tts"
	googletts "github.com/nadzzz/mira/internal/tts/google"
	"github.com/nadzzz/mira/internal/tts/piper"
	"github.com/nadzzz/mira/internal/tui"
	"github.com/nadzzz/mira/internal/voice"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/mira.yaml)")
	headless := flag.Bool("headless", false, "log presentation updates instead of running the terminal UI")
	flag.Parse()

	if *showVersion {
		fmt.Printf("mira %s\n", version)
		os.Exit(0)
	}

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *headless {
		cfg.Presentation.Mode = "headless"
	}
	if cfg.Presentation.Mode == "tui" && cfg.Logging.File == "" {
		cfg.Logging.File = "mira.log"
	}
	if err := config.SetupLogging(cfg.Logging); err != nil {
		slog.Error("failed to set up logging", "error", err)
		os.Exit(1)
	}
	slog.Info("mira starting", "version", version, "locale", cfg.Locale)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		slog.Error("mira failed", "error", err)
		os.Exit(1)
	}
	slog.Info("mira stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	mic := audio.NewMicrophone(cfg.Audio.SampleRate, cfg.Audio.FramesPerBuffer)
	defer mic.Close()

	rec, err := newRecognizer(ctx, cfg, mic)
	if err != nil {
		// Recognition is optional; the session falls back to text-only mode.
		slog.Warn("speech recognition disabled", "backend", cfg.STT.Backend, "error", err)
		rec = nil
	}
	synth, err := newSynthesizer(ctx, cfg)
	if err != nil {
		slog.Warn("speech synthesis disabled", "backend", cfg.TTS.Backend, "error", err)
		synth = nil
	}

	input := voice.NewInput(rec, cfg.Locale)
	defer input.Close()
	output := voice.NewOutput(synth, audio.NewSpeaker(cfg.Audio.PlaybackRate), cfg.Locale)
	defer output.Close()

	board := presentation.NewBoard(presentation.Options{
		TextOnlyTTL:   cfg.Presentation.TextOnlyBanner,
		InsecureTTL:   cfg.Presentation.InsecureBanner,
		Fade:          cfg.Presentation.BannerFade,
		Notifications: cfg.Notifications.Enabled,
	})
	defer board.Close()

	arbiter := session.New(input, output, board, session.Config{
		StartDelay:   cfg.Session.StartDelay,
		RestartDelay: cfg.Session.RestartDelay,
		RetryDelay:   cfg.Session.RetryDelay,
	})
	input.Bind(arbiter.Sink)
	output.Bind(arbiter.Sink)

	kv, err := notes.OpenSQLite(cfg.Notes.Path)
	if err != nil {
		return fmt.Errorf("opening note store: %w", err)
	}
	defer kv.Close()
	store := notes.NewStore(kv, cfg.Notes.Key)

	opener, err := launcher.New(cfg.Launcher.Backend)
	if err != nil {
		return err
	}
	if cfg.Launcher.Backend != "log" {
		opener = launcher.Multi(opener, launcher.Log{})
	}

	interp := interpreter.New(arbiter, opener, store, board, interpreter.Config{
		Locale:         cfg.Locale,
		MessagingDelay: cfg.Interpreter.MessagingDelay,
		ResetDelay:     cfg.Interpreter.ResetDelay,
	})
	defer interp.Close()

	dispatcher := dispatch.New(interp, arbiter, board)
	arbiter.OnTranscript(dispatcher.HandleTranscript)

	var transports []transport.Transport
	if cfg.Transports.GRPC.Enabled {
		g := grpctransport.New(cfg.Transports.GRPC.Port)
		arbiter.Observe(g.ObserveSession)
		transports = append(transports, g)
	}
	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP, board, store, arbiter))
	}
	if cfg.Transports.MCP.Enabled {
		transports = append(transports, mcptransport.New(cfg.Transports.MCP.Port, version, store, arbiter))
	}

	healthServer := health.New(cfg.Server.HealthPort, arbiter)

	var wg sync.WaitGroup
	spawn := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("component failed", "name", name, "error", err)
			}
		}()
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	spawn("health", func() error { return healthServer.ListenAndServe(runCtx) })
	spawn("session", func() error { return arbiter.Run(runCtx) })
	spawn("voices", func() error {
		output.WatchVoices(runCtx, cfg.Voices.RetryInterval, cfg.Voices.RefreshInterval)
		return nil
	})
	for _, t := range transports {
		slog.Info("starting transport", "name", t.Name())
		spawn(t.Name(), func() error { return t.Listen(runCtx, dispatcher.Handle) })
	}
	spawn("greeting", func() error {
		dispatcher.Greet(runCtx, cfg.Session.GreetingDelay)
		return nil
	})

	healthServer.SetReady(true)
	slog.Info("mira ready",
		"stt", cfg.STT.Backend,
		"tts", cfg.TTS.Backend,
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	if cfg.Presentation.Mode == "tui" {
		updates, unsubscribe := board.Subscribe(64)
		err := tui.Run(runCtx, tui.Deps{
			Updates:   updates,
			Initial:   board.Snapshot(),
			Session:   arbiter,
			Handle:    dispatcher.Handle,
			TestAudio: dispatcher.TestAudio,
		})
		unsubscribe()
		if err != nil {
			slog.Error("terminal ui failed", "error", err)
		}
	} else {
		presentation.LogUpdates(runCtx, board)
	}

	slog.Info("shutting down, draining...")
	healthServer.SetReady(false)
	stop()
	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}
	wg.Wait()
	return nil
}

func newRecognizer(ctx context.Context, cfg *config.Config, mic *audio.Microphone) (stt.Recognizer, error) {
	segmented := func(t stt.Transcriber) stt.Recognizer {
		return segment.New(mic, t, segment.Config{
			SampleRate: cfg.Audio.SampleRate,
			VAD: audio.VADOptions{
				SpeechThreshold:  cfg.Audio.VAD.SpeechThreshold,
				SilenceThreshold: cfg.Audio.VAD.SilenceThreshold,
				SpeechFrames:     cfg.Audio.VAD.SpeechFrames,
				SilenceFrames:    cfg.Audio.VAD.SilenceFrames,
			},
			MaxUtterance: cfg.Audio.VAD.MaxUtterance,
		})
	}

	switch cfg.STT.Backend {
	case "google":
		return googlestt.New(ctx, cfg.STT.Google, mic, cfg.Audio.SampleRate)
	case "whisper":
		slog.Info("using whisper recognizer", "endpoint", cfg.STT.Whisper.Endpoint, "type", cfg.STT.Whisper.Type)
		return segmented(whisperstt.New(cfg.STT.Whisper)), nil
	case "openai":
		slog.Info("using openai recognizer", "model", cfg.STT.OpenAI.Model)
		return segmented(openaistt.New(cfg.STT.OpenAI)), nil
	default:
		return nil, errors.New("no recognizer configured")
	}
}

func newSynthesizer(ctx context.Context, cfg *config.Config) (tts.Synthesizer, error) {
	switch cfg.TTS.Backend {
	case "piper":
		slog.Info("using piper synthesizer", "endpoint", cfg.TTS.Piper.Endpoint)
		return piper.New(cfg.TTS.Piper), nil
	case "google":
		return googletts.New(ctx, cfg.TTS.Google)
	default:
		return nil, errors.New("no synthesizer configured")
	}
}
