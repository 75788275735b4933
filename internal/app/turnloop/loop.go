package turnloop

import (
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/dialogue"
	"VoiceGuide/internal/service/capture"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State этап цикла.
type State int

const (
	StateGreeting State = iota
	StateListening
	StateProcessing
	StateExit
)

func (s State) String() string {
	switch s {
	case StateGreeting:
		return "greeting"
	case StateListening:
		return "listening"
	case StateProcessing:
		return "processing"
	case StateExit:
		return "exit"
	default:
		return "unknown"
	}
}

type Recorder interface {
	Record(ctx context.Context, duration time.Duration, sampleRate int) (capture.PCM, error)
}

type Recognizer interface {
	Transcribe(ctx context.Context, pcm capture.PCM) string
}

type Replier interface {
	Reply(ctx context.Context, history dialogue.History, userText string) (string, dialogue.History)
}

type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Cue сигнал перед началом записи.
type Cue interface {
	PlayListening(ctx context.Context)
}

// Deps внешние участники хода. Cue необязателен.
type Deps struct {
	Recorder   Recorder
	Recognizer Recognizer
	Replier    Replier
	Speaker    Speaker
	Cue        Cue
}

// Options реплики и параметры записи.
type Options struct {
	Greeting       string
	Farewell       string
	ExitPhrases    []string
	Language       string
	RecordDuration time.Duration
	SampleRate     int
	MaxHistory     int
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Greeting:       cfg.GreetingText,
		Farewell:       cfg.FarewellText,
		ExitPhrases:    cfg.ExitPhrases,
		Language:       cfg.Language,
		RecordDuration: cfg.RecordDuration,
		SampleRate:     cfg.SampleRate,
		MaxHistory:     cfg.MaxHistory,
	}
}

// Stats счётчики за время работы цикла.
type Stats struct {
	Turns        int // обработанные реплики (с ответом)
	EmptyTurns   int // окна без распознанной речи
	SpeakErrors  int
	RecordErrors int
}

// Loop диалоговый цикл гида. Один управляющий поток, ходы строго последовательны.
type Loop struct {
	deps    Deps
	opts    Options
	exit    map[string]struct{}
	lower   cases.Caser
	history dialogue.History
	state   State
	stats   Stats
	logger  *zap.SugaredLogger
}

func New(deps Deps, opts Options, logger *zap.SugaredLogger) *Loop {
	tag := language.Turkish
	if opts.Language != "" {
		if t, err := language.Parse(opts.Language); err == nil {
			tag = t
		}
	}
	l := &Loop{
		deps:    deps,
		opts:    opts,
		exit:    make(map[string]struct{}, len(opts.ExitPhrases)),
		lower:   cases.Lower(tag),
		history: dialogue.NewHistory(opts.MaxHistory),
		state:   StateGreeting,
		logger:  logger,
	}
	for _, p := range opts.ExitPhrases {
		if n := l.normalize(p); n != "" {
			l.exit[n] = struct{}{}
		}
	}
	return l
}

// Run приветствует, затем слушает и отвечает до фразы выхода.
// Фраза выхода: прощание и nil. Отмена ctx: выход с причиной отмены, без прощания.
func (l *Loop) Run(ctx context.Context) error {
	l.setState(StateGreeting)
	l.speak(ctx, l.opts.Greeting)

	for {
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		l.setState(StateListening)
		text := strings.TrimSpace(l.listen(ctx))
		if ctx.Err() != nil {
			return context.Cause(ctx)
		}
		if text == "" {
			l.stats.EmptyTurns++
			l.logger.Infow("No speech detected")
			continue
		}
		if l.IsExit(text) {
			l.setState(StateExit)
			l.logger.Infow("Exit phrase received", "text", text)
			l.speak(ctx, l.opts.Farewell)
			return nil
		}

		l.setState(StateProcessing)
		l.process(ctx, text)
	}
}

// Stats снимок счётчиков.
func (l *Loop) Stats() Stats { return l.stats }

// History текущая история диалога.
func (l *Loop) History() dialogue.History { return l.history }

// State текущее состояние.
func (l *Loop) State() State { return l.state }

// IsExit сравнивает реплику с фразами выхода: нижний регистр по правилам языка, без краевых пробелов и знаков.
func (l *Loop) IsExit(text string) bool {
	_, ok := l.exit[l.normalize(text)]
	return ok
}

func (l *Loop) normalize(s string) string {
	s = l.lower.String(strings.TrimSpace(s))
	s = strings.TrimRight(s, ".,!?;:… ")
	return strings.Join(strings.Fields(s), " ")
}

// listen одно окно записи. Ошибка записи считается пустым ходом.
func (l *Loop) listen(ctx context.Context) string {
	if l.deps.Cue != nil {
		l.deps.Cue.PlayListening(ctx)
	}
	l.logger.Infow("Listening", "duration", l.opts.RecordDuration.String())
	pcm, err := l.deps.Recorder.Record(ctx, l.opts.RecordDuration, l.opts.SampleRate)
	if err != nil {
		l.stats.RecordErrors++
		l.logger.Errorw("Recording failed", "error", err)
		return ""
	}
	return l.deps.Recognizer.Transcribe(ctx, pcm)
}

func (l *Loop) process(ctx context.Context, text string) {
	turnID := uuid.NewString()
	started := time.Now()
	log := l.logger.With("turn", turnID)
	log.Infow("User said", "text", text)

	reply, h := l.deps.Replier.Reply(ctx, l.history, text)
	l.history = h
	log.Infow("Guide reply", "text", reply, "history", h.Len(), "took", time.Since(started).String())

	l.speak(ctx, reply)
	l.stats.Turns++
}

func (l *Loop) speak(ctx context.Context, text string) {
	if err := l.deps.Speaker.Speak(ctx, text); err != nil {
		l.stats.SpeakErrors++
		l.logger.Errorw("Speech synthesis failed", "error", err)
	}
}

func (l *Loop) setState(s State) {
	if l.state != s {
		l.logger.Debugw("State", "from", l.state.String(), "to", s.String())
	}
	l.state = s
}
