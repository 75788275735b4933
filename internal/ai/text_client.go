package ai

import (
	"VoiceGuide/internal/config"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"go.uber.org/zap"
)

// ErrEmptyCompletion модель вернула пустой ответ.
var ErrEmptyCompletion = errors.New("empty completion")

// TextClient отправляет историю диалога в OpenAI-совместимый Chat Completions API (Groq по умолчанию).
type TextClient struct {
	client *openai.Client
	cfg    config.LLMConfig
	logger *zap.SugaredLogger
}

// NewOpenAIClient создаёт SDK-клиента под настройки LLM. Повторы отключены:
// ошибка генерации сразу превращается в запасной ответ.
func NewOpenAIClient(cfg config.LLMConfig, opts ...option.RequestOption) *openai.Client {
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if u := strings.TrimSpace(cfg.BaseURL); u != "" {
		base = append(base, option.WithBaseURL(u))
	}
	c := openai.NewClient(append(base, opts...)...)
	return &c
}

func NewTextClient(client *openai.Client, cfg config.LLMConfig, logger *zap.SugaredLogger) *TextClient {
	return &TextClient{client: client, cfg: cfg, logger: logger}
}

func (c *TextClient) Complete(ctx context.Context, system string, history []Message) (string, error) {
	if c.client == nil {
		return "", errors.New("nil openai client")
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history)+1)
	if s := strings.TrimSpace(system); s != "" {
		messages = append(messages, openai.SystemMessage(s))
	}
	for _, m := range history {
		switch m.Role {
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	// Параметры сэмплинга отправляются всегда: 0 тоже осмысленное значение.
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.cfg.Model),
		Messages:    messages,
		Temperature: openai.Float(c.cfg.Temperature),
		TopP:        openai.Float(c.cfg.TopP),
	}
	if c.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(c.cfg.MaxTokens)
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.cfg.Timeout, errors.New("llm request timeout"))
		defer cancel()
	}

	start := time.Now()
	c.logger.Debugw("Запрос в LLM...", "model", c.cfg.Model, "messages", len(messages))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	dur := time.Since(start)
	if err != nil {
		c.logger.Errorw("Ошибка ответа LLM", "duration", dur.String(), "error", err)
		return "", fmt.Errorf("chat completion: %w", err)
	}
	c.logger.Infow("Ответ LLM получен", "duration", dur.String())

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in response: %w", ErrEmptyCompletion)
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyCompletion
	}
	return content, nil
}
