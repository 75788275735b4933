package dialogue

import "VoiceGuide/internal/ai"

// DefaultMaxHistory 5 пар вопрос/ответ.
const DefaultMaxHistory = 10

// History локальная история диалога с ограничением на размер.
// Значение неизменяемо: Append возвращает новую историю, не трогая исходный срез.
type History struct {
	entries    []ai.Message
	maxRecords int
}

// NewHistory создаёт пустую историю. maxRecords <= 0 — DefaultMaxHistory.
func NewHistory(maxRecords int) History {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxHistory
	}
	return History{maxRecords: maxRecords}
}

// Append добавляет реплику; при переполнении удаляются самые старые записи.
func (h History) Append(role ai.Role, content string) History {
	limit := h.limit()
	entries := make([]ai.Message, 0, min(len(h.entries)+1, limit))
	entries = append(entries, h.entries...)
	entries = append(entries, ai.Message{Role: role, Content: content})
	if len(entries) > limit {
		// Оставляем последние limit элементов
		entries = entries[len(entries)-limit:]
	}
	return History{entries: entries, maxRecords: limit}
}

// Messages возвращает копию записей в хронологическом порядке.
func (h History) Messages() []ai.Message {
	out := make([]ai.Message, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h History) Len() int { return len(h.entries) }

func (h History) limit() int {
	if h.maxRecords <= 0 {
		return DefaultMaxHistory
	}
	return h.maxRecords
}
