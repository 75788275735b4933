package elevenlabs

import (
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/service/tts"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultBaseURL = "https://api.elevenlabs.io"

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

// Client синтез речи через ElevenLabs REST text-to-speech.
type Client struct {
	cfg     config.ElevenLabsConfig
	baseURL string
	http    *http.Client
	logger  *zap.SugaredLogger
}

func New(cfg config.ElevenLabsConfig, logger *zap.SugaredLogger) *Client {
	return &Client{
		cfg:     cfg,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// WithBaseURL переопределяет адрес API (для тестов и прокси).
func (c *Client) WithBaseURL(u string) *Client {
	c.baseURL = strings.TrimRight(u, "/")
	return c
}

func (c *Client) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	body, err := json.Marshal(synthesizeRequest{
		Text:    text,
		ModelID: c.cfg.Model,
		VoiceSettings: voiceSettings{
			Stability:       c.cfg.Stability,
			SimilarityBoost: c.cfg.SimilarityBoost,
			Style:           c.cfg.Style,
			UseSpeakerBoost: c.cfg.SpeakerBoost,
		},
	})
	if err != nil {
		return tts.Audio{}, err
	}

	u := c.baseURL + "/v1/text-to-speech/" + url.PathEscape(c.cfg.VoiceID)
	if c.cfg.OutputFormat != "" {
		u += "?" + url.Values{"output_format": {c.cfg.OutputFormat}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return tts.Audio{}, err
	}
	req.Header.Set("xi-api-key", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("elevenlabs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return tts.Audio{}, fmt.Errorf("elevenlabs status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("elevenlabs read: %w", err)
	}
	if c.logger != nil {
		c.logger.Infow("ElevenLabs synthesize completed", "bytes", len(data), "took", time.Since(started).String())
	}
	return tts.Audio{Format: formatOf(c.cfg.OutputFormat), Data: data}, nil
}

// formatOf mp3_44100_128 -> mp3.
func formatOf(outputFormat string) string {
	if outputFormat == "" {
		return "mp3"
	}
	codec, _, _ := strings.Cut(outputFormat, "_")
	return strings.ToLower(codec)
}
