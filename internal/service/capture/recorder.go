package capture

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gordonklaus/portaudio"
	"go.uber.org/zap"
)

// Stream минимальный входной поток; реализуется *portaudio.Stream.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// OpenFunc открывает входной поток, который вызывает onFrames из аудио-потока драйвера.
type OpenFunc func(sampleRate, framesPerBlock int, onFrames func(in []int16)) (Stream, error)

// Recorder пишет фиксированное окно звука с микрофона.
// Колбэк драйвера — единственный производитель, Record — единственный потребитель.
type Recorder struct {
	open           OpenFunc
	framesPerBlock int
	queueSize      int
	logger         *zap.SugaredLogger

	dropped atomic.Int64
}

// Options параметры записи.
type Options struct {
	FramesPerBlock int // сэмплов в одном блоке колбэка
	QueueSize      int // ёмкость очереди блоков
	Open           OpenFunc
}

func NewRecorder(opts Options, logger *zap.SugaredLogger) *Recorder {
	if opts.FramesPerBlock <= 0 {
		opts.FramesPerBlock = 4000
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = 64
	}
	if opts.Open == nil {
		opts.Open = openPortAudio
	}
	return &Recorder{open: opts.Open, framesPerBlock: opts.FramesPerBlock, queueSize: opts.QueueSize, logger: logger}
}

// Init инициализирует PortAudio; парный вызов — Close.
func (r *Recorder) Init() error {
	return portaudio.Initialize()
}

func (r *Recorder) Close() error {
	return portaudio.Terminate()
}

// Dropped сколько блоков потеряно из-за переполнения очереди.
func (r *Recorder) Dropped() int64 { return r.dropped.Load() }

// Record блокируется примерно на duration и возвращает собранные сэмплы в порядке поступления.
func (r *Recorder) Record(ctx context.Context, duration time.Duration, sampleRate int) (PCM, error) {
	if duration <= 0 {
		return PCM{}, errors.New("capture: non-positive duration")
	}
	frames := make(chan []byte, r.queueSize)
	var closed atomic.Bool

	onFrames := func(in []int16) {
		if closed.Load() {
			return
		}
		// PortAudio переиспользует буфер — копируем.
		select {
		case frames <- encodeInt16(in):
		default:
			r.dropped.Add(1)
		}
	}

	stream, err := r.open(sampleRate, r.framesPerBlock, onFrames)
	if err != nil {
		return PCM{}, fmt.Errorf("open input stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return PCM{}, fmt.Errorf("start stream: %w", err)
	}

	data := Drain(ctx, frames, duration)

	closed.Store(true)
	if err := stream.Stop(); err != nil && r.logger != nil {
		r.logger.Warnw("Failed to stop input stream", "error", err)
	}

	if r.logger != nil {
		r.logger.Debugw("Recorded", "bytes", len(data), "dropped", r.Dropped())
	}
	return PCM{Data: data, SampleRate: sampleRate}, nil
}

// Drain забирает блоки из frames до истечения duration или отмены ctx.
// Блоки, пришедшие после отсечки, остаются в канале и отбрасываются вместе с ним.
func Drain(ctx context.Context, frames <-chan []byte, duration time.Duration) []byte {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	var out []byte
	for {
		select {
		case <-ctx.Done():
			return out
		case <-timer.C:
			return out
		case b := <-frames:
			out = append(out, b...)
		}
	}
}

func openPortAudio(sampleRate, framesPerBlock int, onFrames func(in []int16)) (Stream, error) {
	// 1 входной канал (mono), 0 выходных, int16
	s, err := portaudio.OpenDefaultStream(1, 0, float64(sampleRate), framesPerBlock, onFrames)
	if err != nil {
		return nil, fmt.Errorf("OpenDefaultStream: %w", err)
	}
	return s, nil
}
