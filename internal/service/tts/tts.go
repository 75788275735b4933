package tts

import (
	"VoiceGuide/internal/service/tempaudio"
	"VoiceGuide/internal/service/tts/player"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrPlaybackTimeout воспроизведение не уложилось в отведённое время.
var ErrPlaybackTimeout = errors.New("playback timeout")

// Audio синтезированная речь. Format — расширение файла и формат для плеера (mp3, wav).
type Audio struct {
	Format string
	Data   []byte
}

// Synthesizer абстракция TTS-провайдера: текст в готовый аудиофайл.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}

// Speaker озвучивает текст: синтез, временный файл, воспроизведение с лимитом времени.
type Speaker struct {
	synth   Synthesizer
	store   *tempaudio.Store
	player  player.Player
	timeout time.Duration
	logger  *zap.SugaredLogger
}

func NewSpeaker(synth Synthesizer, store *tempaudio.Store, p player.Player, timeout time.Duration, logger *zap.SugaredLogger) *Speaker {
	return &Speaker{synth: synth, store: store, player: p, timeout: timeout, logger: logger}
}

// Speak ничего не делает для пустого текста. Временный файл удаляется на любом исходе.
// Прерывание по таймауту не считается ошибкой: звук остановлен, цикл продолжается.
func (s *Speaker) Speak(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	started := time.Now()
	audio, err := s.synth.Synthesize(ctx, text)
	if err != nil {
		return fmt.Errorf("synthesize: %w", err)
	}
	if len(audio.Data) == 0 {
		return errors.New("synthesize: empty audio")
	}
	s.logger.Debugw("Синтез завершён", "format", audio.Format, "bytes", len(audio.Data), "took", time.Since(started).String())

	name, err := s.store.WriteFile(audio.Format, bytes.NewReader(audio.Data))
	if err != nil {
		return err
	}
	defer s.store.Remove(name)

	f, err := s.store.Open(name)
	if err != nil {
		return fmt.Errorf("open synthesized audio: %w", err)
	}

	playCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		playCtx, cancel = context.WithTimeoutCause(ctx, s.timeout, ErrPlaybackTimeout)
		defer cancel()
	}
	if err := s.player.Play(playCtx, audio.Format, f); err != nil {
		if errors.Is(err, ErrPlaybackTimeout) {
			s.logger.Warnw("Воспроизведение остановлено по таймауту", "timeout", s.timeout.String())
			return nil
		}
		return fmt.Errorf("play: %w", err)
	}
	return nil
}
