package gemini

import (
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/service/tts"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
)

const defaultEndpoint = "https://texttospeech.googleapis.com/v1beta1/text:synthesize"

// Client синтезирует речь моделью Gemini-TTS через Cloud Text-to-Speech v1beta1.
// Стиль задаётся текстовой инструкцией (input.prompt), голос и язык как у обычного Cloud TTS.
type Client struct {
	cfg    config.GeminiTTSConfig
	http   *http.Client
	logger *zap.SugaredLogger
}

func New(cfg config.GeminiTTSConfig, logger *zap.SugaredLogger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// WithHTTPClient задаёт готовый HTTP-клиент вместо ADC.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

type requestPayload struct {
	Input struct {
		Prompt string `json:"prompt,omitempty"`
		Text   string `json:"text"`
	} `json:"input"`
	Voice struct {
		ModelName    string `json:"modelName,omitempty"`
		LanguageCode string `json:"languageCode,omitempty"`
		VoiceName    string `json:"name,omitempty"`
	} `json:"voice"`
	AudioConfig struct {
		AudioEncoding string  `json:"audioEncoding"`
		SpeakingRate  float64 `json:"speakingRate,omitempty"`
	} `json:"audioConfig"`
}

type audioResponse struct {
	AudioContent string `json:"audioContent"`
}

func buildPayload(gc config.GeminiTTSConfig, text string) requestPayload {
	var rp requestPayload
	rp.Input.Text = text
	rp.Input.Prompt = strings.TrimSpace(gc.Prompt)
	rp.Voice.ModelName = strings.TrimSpace(gc.ModelName)
	rp.Voice.LanguageCode = strings.TrimSpace(gc.Language)
	rp.Voice.VoiceName = strings.TrimSpace(gc.VoiceName)
	rp.AudioConfig.AudioEncoding = "MP3"
	rp.AudioConfig.SpeakingRate = gc.SpeakingRate
	return rp
}

// Synthesize возвращает MP3.
func (c *Client) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	if strings.TrimSpace(text) == "" {
		return tts.Audio{}, errors.New("gemini tts: пустой текст")
	}
	body, err := json.Marshal(buildPayload(c.cfg, text))
	if err != nil {
		return tts.Audio{}, err
	}

	hc := c.http
	if hc == nil {
		// Только ADC: GOOGLE_APPLICATION_CREDENTIALS или метаданные GCE.
		hc, err = google.DefaultClient(ctx, "https://www.googleapis.com/auth/cloud-platform")
		if err != nil {
			return tts.Audio{}, fmt.Errorf("gemini tts: учётные данные ADC: %w", err)
		}
	}

	endpoint := strings.TrimSpace(c.cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return tts.Audio{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("gemini tts: %w", err)
	}
	defer resp.Body.Close()

	if c.logger != nil {
		c.logger.Infow("Gemini TTS request completed", "status", resp.StatusCode, "took", time.Since(started).String())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if len(b) == 0 {
			b = []byte(resp.Status)
		}
		return tts.Audio{}, fmt.Errorf("gemini tts error: status=%d, body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var ar audioResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 5<<20)).Decode(&ar); err != nil {
		return tts.Audio{}, fmt.Errorf("gemini tts: разбор ответа: %w", err)
	}
	if strings.TrimSpace(ar.AudioContent) == "" {
		return tts.Audio{}, errors.New("gemini tts: пустой audioContent")
	}
	data, err := base64.StdEncoding.DecodeString(ar.AudioContent)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("gemini tts: base64: %w", err)
	}
	return tts.Audio{Format: "mp3", Data: data}, nil
}
