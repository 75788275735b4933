package dialogue

import (
	"VoiceGuide/internal/ai"
	"VoiceGuide/internal/config"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"
)

type fakeClient struct {
	reply   string
	err     error
	calls   int
	system  string
	history []ai.Message
}

func (f *fakeClient) Complete(_ context.Context, system string, history []ai.Message) (string, error) {
	f.calls++
	f.system = system
	f.history = history
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func newManager(t *testing.T, c ai.Client) *Manager {
	t.Helper()
	return NewManager(c, PolicyFromConfig(config.Defaults()), zaptest.NewLogger(t).Sugar())
}

func TestReply_EmptyInput(t *testing.T) {
	fc := &fakeClient{reply: "unused"}
	m := newManager(t, fc)
	h := NewHistory(10).Append(ai.RoleUser, "önceki")

	for _, in := range []string{"", "   "} {
		reply, got := m.Reply(context.Background(), h, in)
		if reply != config.Defaults().NotUnderstood {
			t.Fatalf("reply = %q, want not-understood fallback", reply)
		}
		if got.Len() != 1 {
			t.Fatalf("history changed: %d entries", got.Len())
		}
	}
	if fc.calls != 0 {
		t.Fatalf("generator called %d times", fc.calls)
	}
}

func TestReply_Success(t *testing.T) {
	fc := &fakeClient{reply: "  Ayasofya, 537 yılında tamamlanmış bir Bizans yapısıdır.  "}
	m := newManager(t, fc)

	reply, h := m.Reply(context.Background(), NewHistory(10), "Ayasofya hakkında bilgi verir misiniz?")
	if reply != strings.TrimSpace(reply) || reply == "" {
		t.Fatalf("reply has surrounding whitespace: %q", reply)
	}
	if WordCount(reply) > 35 {
		t.Fatalf("reply too long: %d words", WordCount(reply))
	}
	msgs := h.Messages()
	if len(msgs) != 2 {
		t.Fatalf("history = %d entries, want 2", len(msgs))
	}
	if msgs[0].Role != ai.RoleUser || msgs[0].Content != "Ayasofya hakkında bilgi verir misiniz?" {
		t.Fatalf("unexpected user entry: %+v", msgs[0])
	}
	if msgs[1].Role != ai.RoleAssistant || msgs[1].Content != reply {
		t.Fatalf("unexpected assistant entry: %+v", msgs[1])
	}
	if fc.system != config.Defaults().SystemPrompt {
		t.Fatalf("system prompt not passed")
	}
	if len(fc.history) != 1 || fc.history[0].Role != ai.RoleUser {
		t.Fatalf("generator got history %+v", fc.history)
	}
}

func TestReply_LongReplyTruncated(t *testing.T) {
	fc := &fakeClient{reply: words(60, "Sultanahmet")}
	m := newManager(t, fc)
	reply, h := m.Reply(context.Background(), NewHistory(10), "Sultanahmet?")
	if WordCount(reply) > 35 {
		t.Fatalf("reply has %d words", WordCount(reply))
	}
	if last := h.Messages()[h.Len()-1]; last.Content != reply {
		t.Fatalf("history stores %q, reply %q", last.Content, reply)
	}
}

func TestReply_GenerationError(t *testing.T) {
	fc := &fakeClient{err: errors.New("boom")}
	m := newManager(t, fc)
	reply, h := m.Reply(context.Background(), NewHistory(10), "Topkapı Sarayı nerede?")
	if reply != config.Defaults().DefaultReply {
		t.Fatalf("reply = %q, want default fallback", reply)
	}
	msgs := h.Messages()
	if len(msgs) != 1 || msgs[0].Role != ai.RoleUser {
		t.Fatalf("history = %+v, want only the user turn", msgs)
	}
}

func TestReply_TooShort(t *testing.T) {
	fc := &fakeClient{reply: "Evet efendim"}
	m := newManager(t, fc)
	reply, h := m.Reply(context.Background(), NewHistory(10), "Açık mı?")
	if reply != config.Defaults().DefaultReply {
		t.Fatalf("reply = %q, want default fallback", reply)
	}
	msgs := h.Messages()
	if len(msgs) != 2 || msgs[1].Content != "Evet efendim" {
		t.Fatalf("history = %+v, want truncated text stored", msgs)
	}
}

func TestHistory_CapAndFIFO(t *testing.T) {
	fc := &fakeClient{reply: "Boğaz turu için Eminönü iskelesine gidin."}
	m := newManager(t, fc)
	h := NewHistory(10)
	for i := 0; i < 12; i++ {
		_, h = m.Reply(context.Background(), h, fmt.Sprintf("soru %d", i))
		if h.Len() > 10 {
			t.Fatalf("turn %d: history has %d entries", i, h.Len())
		}
	}
	msgs := h.Messages()
	// Последние 5 обменов: вопросы 7..11.
	if msgs[0].Content != "soru 7" || msgs[len(msgs)-2].Content != "soru 11" {
		t.Fatalf("oldest entries not evicted first: first=%q", msgs[0].Content)
	}
}

func TestHistory_AppendDoesNotAlias(t *testing.T) {
	base := NewHistory(3).Append(ai.RoleUser, "a").Append(ai.RoleAssistant, "b")
	left := base.Append(ai.RoleUser, "left")
	right := base.Append(ai.RoleUser, "right")
	if left.Messages()[2].Content != "left" || right.Messages()[2].Content != "right" {
		t.Fatalf("appends share storage: %v / %v", left.Messages(), right.Messages())
	}
	if base.Len() != 2 {
		t.Fatalf("base mutated: %d", base.Len())
	}
	if got := right.Append(ai.RoleAssistant, "x").Messages(); got[0].Content != "b" {
		t.Fatalf("eviction order wrong: %v", got)
	}
}
