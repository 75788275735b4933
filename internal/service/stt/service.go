package stt

import (
	"VoiceGuide/internal/service/capture"
	"VoiceGuide/internal/service/tempaudio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"
)

// Backend распознаёт WAV-файл. name — имя файла (нужно multipart-загрузке).
type Backend interface {
	Transcribe(ctx context.Context, name string, r io.Reader) (string, error)
}

// Service превращает запись в текст. Любая ошибка даёт пустую строку.
type Service struct {
	backend Backend
	store   *tempaudio.Store
	logger  *zap.SugaredLogger
}

func NewService(backend Backend, store *tempaudio.Store, logger *zap.SugaredLogger) *Service {
	return &Service{backend: backend, store: store, logger: logger}
}

// Transcribe кодирует pcm во временный WAV, отдаёт его бэкенду и удаляет файл при любом исходе.
func (s *Service) Transcribe(ctx context.Context, pcm capture.PCM) string {
	if pcm.Samples() == 0 {
		s.logger.Infow("Пустая запись, распознавание пропущено")
		return ""
	}

	name, err := s.writeWAV(pcm)
	if name != "" {
		defer s.store.Remove(name)
	}
	if err != nil {
		s.logger.Warnw("Не удалось сохранить запись", "error", err)
		return ""
	}

	f, err := s.store.Open(name)
	if err != nil {
		s.logger.Warnw("Не удалось открыть запись", "path", name, "error", err)
		return ""
	}
	defer f.Close()

	started := time.Now()
	text, err := s.backend.Transcribe(ctx, filepath.Base(name), f)
	if err != nil {
		s.logger.Warnw("Ошибка распознавания", "error", err, "took", time.Since(started).String())
		return ""
	}
	text = strings.TrimSpace(text)
	s.logger.Infow("Распознано", "text", text, "took", time.Since(started).String())
	return text
}

// writeWAV пишет моно 16 бит. Имя возвращается и при ошибке, чтобы файл можно было удалить.
func (s *Service) writeWAV(pcm capture.PCM) (string, error) {
	f, err := s.store.Create("wav")
	if err != nil {
		return "", err
	}
	name := f.Name()

	enc := wav.NewEncoder(f, pcm.SampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: pcm.SampleRate},
		Data:           pcm.Ints(),
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return name, fmt.Errorf("encode wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return name, fmt.Errorf("finalize wav: %w", err)
	}
	if err := f.Close(); err != nil {
		return name, fmt.Errorf("close wav: %w", err)
	}
	return name, nil
}
