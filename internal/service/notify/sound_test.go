package notify

import (
	"context"
	"io"
	"testing"

	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
)

type recordingPlayer struct {
	calls  int
	format string
}

func (p *recordingPlayer) Play(_ context.Context, format string, r io.ReadCloser) error {
	defer r.Close()
	p.calls++
	p.format = format
	return nil
}

func TestPlayListening(t *testing.T) {
	fs := afero.NewMemMapFs()
	_ = afero.WriteFile(fs, "/sound/listen.WAV", []byte("RIFF"), 0o644)
	log := zaptest.NewLogger(t).Sugar()

	p := &recordingPlayer{}
	n := NewSoundNotifier(log, fs, "/sound/listen.WAV", p)
	n.PlayListening(context.Background())
	if p.calls != 1 || p.format != "wav" {
		t.Fatalf("calls=%d format=%q", p.calls, p.format)
	}
}

func TestPlayListening_DisabledOrMissing(t *testing.T) {
	fs := afero.NewMemMapFs()
	log := zaptest.NewLogger(t).Sugar()

	p := &recordingPlayer{}
	off := NewSoundNotifier(log, fs, "  ", p)
	if off.Enabled() {
		t.Fatalf("empty path must disable the cue")
	}
	off.PlayListening(context.Background())

	NewSoundNotifier(log, fs, "/sound/missing.mp3", p).PlayListening(context.Background())
	if p.calls != 0 {
		t.Fatalf("player called %d times", p.calls)
	}
}
