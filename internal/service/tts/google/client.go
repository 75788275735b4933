package google

import (
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/service/tts"
	"context"
	"fmt"
	"strings"
	"time"

	gctts "cloud.google.com/go/texttospeech/apiv1"
	ttspb "cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"go.uber.org/zap"
)

// Client реализует синтез речи через Google Cloud Text-to-Speech (ADC из GOOGLE_APPLICATION_CREDENTIALS).
type Client struct {
	cfg    config.GoogleTTSConfig
	logger *zap.SugaredLogger
}

func New(cfg config.GoogleTTSConfig, logger *zap.SugaredLogger) *Client {
	return &Client{cfg: cfg, logger: logger}
}

// Synthesize возвращает MP3. SDK-клиент живёт в пределах одного вызова.
func (c *Client) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	ttsClient, err := gctts.NewClient(ctx)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("google tts client: %w", err)
	}
	defer ttsClient.Close()

	started := time.Now()
	resp, err := ttsClient.SynthesizeSpeech(ctx, buildRequest(c.cfg, text))
	if err != nil {
		return tts.Audio{}, fmt.Errorf("google tts: %w", err)
	}
	if c.logger != nil {
		c.logger.Infow("Google TTS synthesize completed", "took", time.Since(started).String())
	}
	return tts.Audio{Format: "mp3", Data: resp.GetAudioContent()}, nil
}

func buildRequest(gc config.GoogleTTSConfig, text string) *ttspb.SynthesizeSpeechRequest {
	audio := &ttspb.AudioConfig{
		AudioEncoding: ttspb.AudioEncoding_MP3,
		SpeakingRate:  gc.SpeakingRate,
		Pitch:         gc.Pitch,
		VolumeGainDb:  gc.VolumeGainDb,
	}
	if ep := strings.TrimSpace(gc.EffectsProfileID); ep != "" {
		audio.EffectsProfileId = []string{ep}
	}
	return &ttspb.SynthesizeSpeechRequest{
		Input: &ttspb.SynthesisInput{InputSource: &ttspb.SynthesisInput_Text{Text: text}},
		Voice: &ttspb.VoiceSelectionParams{
			LanguageCode: gc.Language,
			Name:         gc.Voice,
		},
		AudioConfig: audio,
	}
}
