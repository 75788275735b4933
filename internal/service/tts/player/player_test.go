package player

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

type trackingCloser struct {
	io.Reader
	closed bool
}

func (c *trackingCloser) Close() error { c.closed = true; return nil }

func TestPlay_UnsupportedFormatClosesReader(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("OggS")}
	err := New().Play(context.Background(), "ogg", rc)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
	if !rc.closed {
		t.Fatalf("reader not closed")
	}
}

func TestPlay_CorruptWAV(t *testing.T) {
	rc := &trackingCloser{Reader: strings.NewReader("definitely not riff")}
	if err := NewWithVolume(-3).Play(context.Background(), "WAV", rc); err == nil {
		t.Fatalf("expected decode error")
	}
	if !rc.closed {
		t.Fatalf("reader not closed")
	}
}
