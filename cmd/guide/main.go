package main

import (
	"VoiceGuide/internal/ai"
	"VoiceGuide/internal/app/turnloop"
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/dialogue"
	"VoiceGuide/internal/service/capture"
	"VoiceGuide/internal/service/notify"
	"VoiceGuide/internal/service/stt"
	"VoiceGuide/internal/service/stt/whisper"
	"VoiceGuide/internal/service/stt/yandex"
	"VoiceGuide/internal/service/tempaudio"
	"VoiceGuide/internal/service/tts"
	"VoiceGuide/internal/service/tts/elevenlabs"
	"VoiceGuide/internal/service/tts/gemini"
	"VoiceGuide/internal/service/tts/google"
	"VoiceGuide/internal/service/tts/player"
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func main() {
	cfg := config.NewConfig()

	// В дебаге development-логгер, иначе production
	var (
		logger *zap.Logger
		err    error
	)
	if cfg.DebugMode {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	//сброс буфера логгера
	defer func() {
		if err := logger.Sync(); err != nil {
			sugar.Errorw("Failed to sync logger", "error", err)
		}
	}()

	// Ctrl+C / SIGTERM завершает цикл без прощания
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vctx, cancel := context.WithTimeoutCause(ctx, 15*time.Second, errors.New("config validation timeout"))
	err = cfg.Validate(vctx)
	cancel()
	if err != nil {
		sugar.Errorw("Invalid configuration", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}

	sugar.Infow("Starting guide",
		"DebugMode", cfg.DebugMode,
		"STT", cfg.STTService,
		"TTS", cfg.TTSService,
		"LLM", cfg.LLM.Model,
	)

	if err := run(ctx, cfg, sugar); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Errorw("Guide stopped with error", "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, sugar *zap.SugaredLogger) error {
	fs := afero.NewOsFs()
	store := tempaudio.New(fs, cfg.TempDir, sugar)
	ply := player.NewWithVolume(cfg.PlayerVolumeDB)

	oClient := ai.NewOpenAIClient(cfg.LLM)

	backend, err := newRecognizerBackend(cfg, oClient, sugar)
	if err != nil {
		return err
	}
	recognizer := stt.NewService(backend, store, sugar)

	speaker := tts.NewSpeaker(newSynthesizer(cfg, sugar), store, ply, cfg.PlaybackTimeout, sugar)

	manager := dialogue.NewManager(
		ai.NewTextClient(oClient, cfg.LLM, sugar),
		dialogue.PolicyFromConfig(cfg),
		sugar,
	)

	rec := capture.NewRecorder(capture.Options{FramesPerBlock: cfg.FramesPerBlock, QueueSize: cfg.QueueSize}, sugar)
	if err := rec.Init(); err != nil {
		return err
	}
	defer func() {
		if err := rec.Close(); err != nil {
			sugar.Warnw("PortAudio terminate failed", "error", err)
		}
	}()

	deps := turnloop.Deps{
		Recorder:   rec,
		Recognizer: recognizer,
		Replier:    manager,
		Speaker:    speaker,
	}
	if cue := notify.NewSoundNotifier(sugar, fs, cfg.CuePath, ply); cue.Enabled() {
		deps.Cue = cue
	}

	loop := turnloop.New(deps, turnloop.OptionsFromConfig(cfg), sugar)
	err = loop.Run(ctx)
	st := loop.Stats()
	sugar.Infow("Guide finished",
		"turns", st.Turns,
		"emptyTurns", st.EmptyTurns,
		"speakErrors", st.SpeakErrors,
		"recordErrors", st.RecordErrors,
		"droppedBlocks", rec.Dropped(),
	)
	return err
}

func newRecognizerBackend(cfg *config.Config, oClient *openai.Client, sugar *zap.SugaredLogger) (stt.Backend, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.STTService)) {
	case "yandex":
		sugar.Infow("STT selected", "service", "yandex")
		c, err := yandex.New(cfg.YandexSTT, sugar)
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		sugar.Infow("STT selected", "service", "whisper")
		return whisper.New(oClient, cfg.Whisper, cfg.Language, sugar), nil
	}
}

func newSynthesizer(cfg *config.Config, sugar *zap.SugaredLogger) tts.Synthesizer {
	switch strings.ToLower(strings.TrimSpace(cfg.TTSService)) {
	case "google":
		sugar.Infow("TTS selected", "service", "google")
		return google.New(cfg.GoogleTTS, sugar)
	case "gemini":
		sugar.Infow("TTS selected", "service", "gemini", "model", cfg.GeminiTTS.ModelName)
		return gemini.New(cfg.GeminiTTS, sugar)
	default:
		sugar.Infow("TTS selected", "service", "elevenlabs")
		return elevenlabs.New(cfg.ElevenLabs, sugar)
	}
}
