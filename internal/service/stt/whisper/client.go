package whisper

import (
	"VoiceGuide/internal/config"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/openai/openai-go/v3"
	"go.uber.org/zap"
)

// Client распознаёт речь через OpenAI-совместимый /audio/transcriptions (Groq Whisper).
type Client struct {
	client   *openai.Client
	cfg      config.WhisperConfig
	language string
	logger   *zap.SugaredLogger
}

// New использует тот же *openai.Client, что и генерация ответов.
func New(client *openai.Client, cfg config.WhisperConfig, language string, logger *zap.SugaredLogger) *Client {
	return &Client{client: client, cfg: cfg, language: language, logger: logger}
}

func (c *Client) Transcribe(ctx context.Context, name string, r io.Reader) (string, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, c.cfg.Timeout, errors.New("whisper transcription timeout"))
		defer cancel()
	}

	params := openai.AudioTranscriptionNewParams{
		File:        openai.File(r, name, "audio/wav"),
		Model:       openai.AudioModel(c.cfg.Model),
		Temperature: openai.Float(0),
	}
	if c.language != "" {
		params.Language = openai.String(c.language)
	}

	started := time.Now()
	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("whisper: %w", err)
	}
	if c.logger != nil {
		c.logger.Debugw("Whisper transcription completed", "model", c.cfg.Model, "took", time.Since(started).String())
	}
	return resp.Text, nil
}
