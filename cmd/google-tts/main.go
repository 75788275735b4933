package main

import (
	"VoiceGuide/internal/config"
	"VoiceGuide/internal/service/tempaudio"
	"VoiceGuide/internal/service/tts"
	"VoiceGuide/internal/service/tts/google"
	"VoiceGuide/internal/service/tts/player"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
	googleauth "golang.org/x/oauth2/google"
)

// voice элемент ответа texttospeech.googleapis.com/v1/voices.
type voice struct {
	LanguageCodes          []string `json:"languageCodes"`
	Name                   string   `json:"name"`
	SsmlGender             string   `json:"ssmlGender"`
	NaturalSampleRateHertz int      `json:"naturalSampleRateHertz"`
}

// Утилита подбора голоса: печатает доступные голоса Google TTS для языка гида
// и, если задан -say, озвучивает фразу выбранным голосом.
func main() {
	say := flag.String("say", "", "фраза для пробного синтеза выбранным голосом")
	cfg := config.NewConfig()

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	sugar := logger.Sugar()
	defer func() { _ = logger.Sync() }()

	// Установим GOOGLE_APPLICATION_CREDENTIALS из конфига, если не задано в окружении.
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") == "" && cfg.GoogleTTS.CredentialsPath != "" {
		_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cfg.GoogleTTS.CredentialsPath)
	}

	ctx, cancel := context.WithTimeoutCause(context.Background(), 30*time.Second, errors.New("google tts voices request timeout"))
	defer cancel()

	lang := cfg.GoogleTTS.Language
	if lang == "" {
		lang = "tr-TR"
	}
	voices, err := listVoices(ctx, lang)
	if err != nil {
		sugar.Errorw("Failed to list voices", "language", lang, "error", err)
		os.Exit(1)
	}
	for _, v := range voices {
		mark := " "
		if v.Name == cfg.GoogleTTS.Voice {
			mark = "*"
		}
		fmt.Printf("%s %-28s %-8s %6d Hz  %s\n", mark, v.Name, v.SsmlGender, v.NaturalSampleRateHertz, strings.Join(v.LanguageCodes, ","))
	}

	if strings.TrimSpace(*say) == "" {
		return
	}
	store := tempaudio.New(nil, cfg.TempDir, sugar)
	speaker := tts.NewSpeaker(google.New(cfg.GoogleTTS, sugar), store, player.NewWithVolume(cfg.PlayerVolumeDB), cfg.PlaybackTimeout, sugar)
	if err := speaker.Speak(context.Background(), *say); err != nil {
		sugar.Errorw("Sample synthesis failed", "voice", cfg.GoogleTTS.Voice, "error", err)
		os.Exit(1)
	}
}

func listVoices(ctx context.Context, lang string) ([]voice, error) {
	// Токен по ADC для вызова REST API.
	creds, err := googleauth.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("учётные данные Google (ADC): %w", err)
	}
	tok, err := creds.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("токен доступа Google: %w", err)
	}

	u := "https://texttospeech.googleapis.com/v1/voices?" + url.Values{"languageCode": {lang}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)

	hc := &http.Client{Timeout: 20 * time.Second}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var raw any
		_ = json.NewDecoder(resp.Body).Decode(&raw)
		b, _ := json.Marshal(raw)
		return nil, fmt.Errorf("status=%d body=%s", resp.StatusCode, b)
	}

	var payload struct {
		Voices []voice `json:"voices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("разбор ответа: %w", err)
	}
	return payload.Voices, nil
}
