package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
)

// ErrUnsupportedFormat формат, который плеер не умеет декодировать.
var ErrUnsupportedFormat = errors.New("unsupported format for direct playback; use mp3 or wav")

// Player воспроизводит аудио и блокируется до конца звука или отмены ctx. Play закрывает r.
type Player interface {
	Play(ctx context.Context, format string, r io.ReadCloser) error
}

// Default реализует Player поверх beep и поддерживает mp3 и wav.
type Default struct{ volumeDB float64 }

// New создаёт плеер без изменения громкости (0 dB).
func New() *Default { return &Default{volumeDB: 0} }

// NewWithVolume создаёт плеер с предустановленной громкостью в dB (отрицательные — тише).
func NewWithVolume(db float64) *Default { return &Default{volumeDB: db} }

func (d *Default) Play(ctx context.Context, format string, r io.ReadCloser) error {
	streamer, f, err := decode(format, r)
	if err != nil {
		_ = r.Close()
		return err
	}
	defer streamer.Close()

	// Частота у mp3 и wav разная, поэтому speaker переинициализируется под каждый файл.
	if err := speaker.Init(f.SampleRate, f.SampleRate.N(time.Second/10)); err != nil {
		return fmt.Errorf("speaker init: %w", err)
	}
	vol := &effects.Volume{
		Streamer: streamer,
		Base:     2,
		Volume:   d.volumeDB,
		Silent:   false,
	}
	done := make(chan struct{})
	speaker.Play(beep.Seq(vol, beep.Callback(func() { close(done) })))

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		speaker.Clear()
		return context.Cause(ctx)
	}
}

func decode(format string, r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s   beep.StreamSeekCloser
		f   beep.Format
		err error
	)
	switch strings.ToLower(format) {
	case "wav":
		s, f, err = wav.Decode(r)
	case "mp3":
		s, f, err = mp3.Decode(r)
	default:
		return nil, beep.Format{}, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", format, err)
	}
	return s, f, nil
}
