package dialogue

import (
	"VoiceGuide/internal/ai"
	"VoiceGuide/internal/config"
	"context"
	"strings"

	"go.uber.org/zap"
)

// Fallbacks фиксированные ответы гида.
type Fallbacks struct {
	NotUnderstood string // речь не распознана
	Default       string // генерация не удалась или ответ слишком короткий
}

// Policy правила формирования озвучиваемого ответа.
type Policy struct {
	SystemPrompt string
	MaxWords     int
	MinWords     int
	Continuation string
	Fallbacks    Fallbacks
}

// PolicyFromConfig собирает Policy из конфигурации приложения.
func PolicyFromConfig(cfg *config.Config) Policy {
	return Policy{
		SystemPrompt: cfg.SystemPrompt,
		MaxWords:     cfg.MaxReplyWords,
		MinWords:     cfg.MinReplyWords,
		Continuation: cfg.ContinuationText,
		Fallbacks: Fallbacks{
			NotUnderstood: cfg.NotUnderstood,
			Default:       cfg.DefaultReply,
		},
	}
}

// Manager формирует ответ гида на реплику пользователя.
type Manager struct {
	client ai.Client
	policy Policy
	logger *zap.SugaredLogger
}

func NewManager(client ai.Client, policy Policy, logger *zap.SugaredLogger) *Manager {
	if policy.MaxWords <= 0 {
		policy.MaxWords = 35
	}
	return &Manager{client: client, policy: policy, logger: logger}
}

// Reply возвращает текст для озвучки и обновлённую историю.
// Пустой ввод не трогает историю; ошибка генерации оставляет в истории только реплику пользователя.
func (m *Manager) Reply(ctx context.Context, history History, userText string) (string, History) {
	userText = strings.TrimSpace(userText)
	if userText == "" {
		return m.policy.Fallbacks.NotUnderstood, history
	}

	history = history.Append(ai.RoleUser, userText)

	out, err := m.client.Complete(ctx, m.policy.SystemPrompt, history.Messages())
	if err != nil {
		m.logger.Warnw("Generation failed, using fallback", "error", err)
		return m.policy.Fallbacks.Default, history
	}

	reply := Truncate(strings.TrimSpace(out), m.policy.MaxWords, m.policy.Continuation)
	// В историю пишем именно обрезанный текст — то, что пользователь бы услышал.
	history = history.Append(ai.RoleAssistant, reply)

	if WordCount(reply) < m.policy.MinWords {
		m.logger.Infow("Reply too short, using fallback", "reply", reply)
		return m.policy.Fallbacks.Default, history
	}
	return reply, history
}
