package turnloop

import (
	"VoiceGuide/internal/ai"
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/dialogue"
	"VoiceGuide/internal/service/capture"
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type scriptedRecorder struct {
	errs  []error
	calls int
}

func (r *scriptedRecorder) Record(context.Context, time.Duration, int) (capture.PCM, error) {
	i := r.calls
	r.calls++
	if i < len(r.errs) && r.errs[i] != nil {
		return capture.PCM{}, r.errs[i]
	}
	return capture.PCM{Data: []byte{0, 0}, SampleRate: 16000}, nil
}

// scriptedRecognizer выдаёт реплики по порядку; после конца сценария отменяет контекст.
type scriptedRecognizer struct {
	texts  []string
	calls  int
	cancel context.CancelFunc
}

func (r *scriptedRecognizer) Transcribe(context.Context, capture.PCM) string {
	i := r.calls
	r.calls++
	if i >= len(r.texts) {
		if r.cancel != nil {
			r.cancel()
		}
		return ""
	}
	return r.texts[i]
}

type fakeAI struct {
	reply string
	err   error
	calls int
}

func (f *fakeAI) Complete(context.Context, string, []ai.Message) (string, error) {
	f.calls++
	return f.reply, f.err
}

type recordingSpeaker struct {
	said []string
	err  error
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.said = append(s.said, text)
	return s.err
}

type countingCue struct{ calls int }

func (c *countingCue) PlayListening(context.Context) { c.calls++ }

type fixture struct {
	loop *Loop
	rec  *scriptedRecorder
	stt  *scriptedRecognizer
	ai   *fakeAI
	spk  *recordingSpeaker
	cue  *countingCue
}

func newFixture(t *testing.T, texts ...string) *fixture {
	t.Helper()
	cfg := config.Defaults()
	log := zaptest.NewLogger(t).Sugar()
	f := &fixture{
		rec: &scriptedRecorder{},
		stt: &scriptedRecognizer{texts: texts},
		ai:  &fakeAI{reply: "Ayasofya Sultanahmet meydanında, Topkapı Sarayı'nın yanındadır."},
		spk: &recordingSpeaker{},
		cue: &countingCue{},
	}
	mgr := dialogue.NewManager(f.ai, dialogue.PolicyFromConfig(cfg), log)
	f.loop = New(Deps{Recorder: f.rec, Recognizer: f.stt, Replier: mgr, Speaker: f.spk, Cue: f.cue}, OptionsFromConfig(cfg), log)
	return f
}

func TestRun_ExitPlaysFarewellOnce(t *testing.T) {
	f := newFixture(t, "Ayasofya nerede?", "  KAPAT ")
	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	cfg := config.Defaults()
	want := []string{cfg.GreetingText, f.ai.reply, cfg.FarewellText}
	if len(f.spk.said) != len(want) {
		t.Fatalf("said %q, want %q", f.spk.said, want)
	}
	for i := range want {
		if f.spk.said[i] != want[i] {
			t.Fatalf("said[%d] = %q, want %q", i, f.spk.said[i], want[i])
		}
	}
	if f.loop.Stats().Turns != 1 || f.loop.State() != StateExit {
		t.Fatalf("stats=%+v state=%s", f.loop.Stats(), f.loop.State())
	}
	if f.cue.calls != 2 {
		t.Fatalf("cue played %d times", f.cue.calls)
	}
}

func TestRun_EmptyRecognitionSkipsGeneration(t *testing.T) {
	f := newFixture(t, "", "   ", "çıkış")
	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if f.ai.calls != 0 {
		t.Fatalf("generator called %d times", f.ai.calls)
	}
	if f.loop.History().Len() != 0 {
		t.Fatalf("history changed: %d", f.loop.History().Len())
	}
	if got := f.loop.Stats().EmptyTurns; got != 2 {
		t.Fatalf("empty turns = %d, want 2", got)
	}
}

func TestRun_CollaboratorErrorsDoNotStopLoop(t *testing.T) {
	f := newFixture(t, "Topkapı kaçta açılıyor?", "programı kapat")
	f.rec.errs = []error{errors.New("device lost")}
	f.ai.err = errors.New("503")
	f.spk.err = errors.New("audio busy")

	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	st := f.loop.Stats()
	if st.RecordErrors != 1 || st.EmptyTurns != 1 || st.Turns != 1 {
		t.Fatalf("stats = %+v", st)
	}
	// приветствие, запасной ответ, прощание
	if len(f.spk.said) != 3 || f.spk.said[1] != config.Defaults().DefaultReply {
		t.Fatalf("said = %q", f.spk.said)
	}
	if st.SpeakErrors != 3 {
		t.Fatalf("speak errors = %d", st.SpeakErrors)
	}
}

func TestRun_ContextCancelEndsWithoutFarewell(t *testing.T) {
	f := newFixture(t, "Boğaz turu var mı?")
	ctx, cancel := context.WithCancelCause(context.Background())
	stop := errors.New("signal")
	f.stt.cancel = func() { cancel(stop) }

	err := f.loop.Run(ctx)
	if !errors.Is(err, stop) {
		t.Fatalf("err = %v, want cancel cause", err)
	}
	for _, s := range f.spk.said {
		if s == config.Defaults().FarewellText {
			t.Fatalf("farewell spoken on cancellation")
		}
	}
}

func TestIsExit_TurkishCasing(t *testing.T) {
	f := newFixture(t)
	tests := map[string]bool{
		"ÇIKIŞ":            true,
		"Çıkış.":           true,
		"Programı  Kapat!": true,
		"kapat lütfen":     false,
		"İstanbul":         false,
	}
	for in, want := range tests {
		if got := f.loop.IsExit(in); got != want {
			t.Errorf("IsExit(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestHistory_BoundedAcrossTurns(t *testing.T) {
	texts := make([]string, 0, 13)
	for i := 0; i < 12; i++ {
		texts = append(texts, "Galata Kulesi?")
	}
	texts = append(texts, "kapat")
	f := newFixture(t, texts...)
	if err := f.loop.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if n := f.loop.History().Len(); n != 10 {
		t.Fatalf("history = %d entries, want 10", n)
	}
}
