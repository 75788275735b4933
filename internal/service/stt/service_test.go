package stt

import (
	"VoiceGuide/internal/service/capture"
	"VoiceGuide/internal/service/tempaudio"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/go-audio/wav"
	"github.com/spf13/afero"
	"go.uber.org/zap/zaptest"
)

type fakeBackend struct {
	text    string
	err     error
	calls   int
	name    string
	samples []int
	rate    int
}

func (f *fakeBackend) Transcribe(_ context.Context, name string, r io.Reader) (string, error) {
	f.calls++
	f.name = name
	if rs, ok := r.(io.ReadSeeker); ok {
		dec := wav.NewDecoder(rs)
		if buf, err := dec.FullPCMBuffer(); err == nil {
			f.samples = buf.Data
			f.rate = buf.Format.SampleRate
		}
	}
	return f.text, f.err
}

func pcmOf(samples ...int16) capture.PCM {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return capture.PCM{Data: b, SampleRate: 16000}
}

func newService(t *testing.T, b Backend) (*Service, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	log := zaptest.NewLogger(t).Sugar()
	return NewService(b, tempaudio.New(fs, "/tmp/guide", log), log), fs
}

func assertNoTempFiles(t *testing.T, fs afero.Fs) {
	t.Helper()
	entries, _ := afero.ReadDir(fs, "/tmp/guide")
	if len(entries) != 0 {
		t.Fatalf("temp files left: %d", len(entries))
	}
}

func TestTranscribe_EncodesWAVAndTrims(t *testing.T) {
	fb := &fakeBackend{text: "  Kapalıçarşı kaçta açılıyor?  "}
	s, fs := newService(t, fb)

	got := s.Transcribe(context.Background(), pcmOf(1, -2, 300, -32768))
	if got != "Kapalıçarşı kaçta açılıyor?" {
		t.Fatalf("text = %q", got)
	}
	if fb.rate != 16000 {
		t.Fatalf("backend got rate %d", fb.rate)
	}
	want := []int{1, -2, 300, -32768}
	if len(fb.samples) != len(want) {
		t.Fatalf("backend got samples %v", fb.samples)
	}
	for i := range want {
		if fb.samples[i] != want[i] {
			t.Fatalf("backend got samples %v, want %v", fb.samples, want)
		}
	}
	assertNoTempFiles(t, fs)
}

func TestTranscribe_BackendErrorYieldsEmpty(t *testing.T) {
	fb := &fakeBackend{err: errors.New("network down")}
	s, fs := newService(t, fb)
	if got := s.Transcribe(context.Background(), pcmOf(5, 6)); got != "" {
		t.Fatalf("text = %q, want empty", got)
	}
	assertNoTempFiles(t, fs)
}

func TestTranscribe_EmptyRecordingSkipsBackend(t *testing.T) {
	fb := &fakeBackend{text: "unused"}
	s, _ := newService(t, fb)
	if got := s.Transcribe(context.Background(), capture.PCM{SampleRate: 16000}); got != "" {
		t.Fatalf("text = %q", got)
	}
	if fb.calls != 0 {
		t.Fatalf("backend called %d times", fb.calls)
	}
}
