// Отладочная утилита распознавания: WAV-файл или одно окно записи с микрофона → текст.
package main

import (
	"VoiceGuide/internal/ai"
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/service/capture"
	"VoiceGuide/internal/service/stt"
	"VoiceGuide/internal/service/stt/whisper"
	"VoiceGuide/internal/service/stt/yandex"
	"VoiceGuide/internal/service/tempaudio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

func main() {
	wavPath := flag.String("wav", "", "путь к WAV (mono PCM16); пусто — запись с микрофона")
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := newBackend(cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to init STT backend", "service", cfg.STTService, "error", err)
		os.Exit(1)
	}

	if *wavPath != "" {
		f, err := os.Open(*wavPath)
		if err != nil {
			sugar.Errorw("Failed to open wav", "path", *wavPath, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		text, err := backend.Transcribe(ctx, filepath.Base(*wavPath), f)
		if err != nil {
			sugar.Errorw("Transcription failed", "error", err)
			os.Exit(1)
		}
		fmt.Println(strings.TrimSpace(text))
		return
	}

	rec := capture.NewRecorder(capture.Options{FramesPerBlock: cfg.FramesPerBlock, QueueSize: cfg.QueueSize}, sugar)
	if err := rec.Init(); err != nil {
		sugar.Errorw("PortAudio init failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = rec.Close() }()

	sugar.Infow("Recording", "duration", cfg.RecordDuration.String(), "sampleRate", cfg.SampleRate)
	pcm, err := rec.Record(ctx, cfg.RecordDuration, cfg.SampleRate)
	if err != nil {
		sugar.Errorw("Recording failed", "error", err)
		os.Exit(1)
	}
	svc := stt.NewService(backend, tempaudio.New(nil, cfg.TempDir, sugar), sugar)
	fmt.Println(svc.Transcribe(ctx, pcm))
}

func newBackend(cfg *config.Config, sugar *zap.SugaredLogger) (stt.Backend, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.STTService), "yandex") {
		c, err := yandex.New(cfg.YandexSTT, sugar)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	if cfg.LLM.APIKey == "" {
		return nil, errors.New("GROQ_API_KEY не задан")
	}
	return whisper.New(ai.NewOpenAIClient(cfg.LLM), cfg.Whisper, cfg.Language, sugar), nil
}
