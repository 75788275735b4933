package config

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2/google"
)

type Config struct {
	DebugMode bool   `env:"DEBUG_MODE"` //Режим дебага
	Language  string `env:"LANGUAGE"`   // Язык диалога (BCP 47), используется для распознавания и регистра фраз выхода

	// Реплики гида
	SystemPrompt     string   `env:"SYSTEM_PROMPT"`                 // Системная инструкция (персона + ограничение длины)
	GreetingText     string   `env:"GREETING_TEXT"`                 // Приветствие при старте
	FarewellText     string   `env:"FAREWELL_TEXT"`                 // Прощание перед выходом
	NotUnderstood    string   `env:"NOT_UNDERSTOOD_TEXT"`           // Ответ, если речь не распознана
	DefaultReply     string   `env:"DEFAULT_REPLY_TEXT"`            // Ответ при ошибке генерации или слишком коротком ответе
	ContinuationText string   `env:"CONTINUATION_TEXT"`             // Хвост, добавляемый к обрезанному ответу
	ExitPhrases      []string `env:"EXIT_PHRASES" envSeparator:";"` // Фразы завершения работы
	MaxHistory       int      `env:"MAX_HISTORY"`                   // Максимум записей истории (user+assistant)
	MaxReplyWords    int      `env:"MAX_REPLY_WORDS"`               // Максимум слов в озвучиваемом ответе
	MinReplyWords    int      `env:"MIN_REPLY_WORDS"`               // Меньше этого — ответ заменяется дефолтным
	CuePath          string   `env:"LISTEN_CUE_PATH"`               // Звук перед началом записи, пусто — без звука
	TempDir          string   `env:"TEMP_DIR"`                      // Каталог для временных аудиофайлов, пусто — системный

	// Запись
	RecordDuration time.Duration `env:"RECORD_DURATION"`  // Длительность окна записи
	SampleRate     int           `env:"SAMPLE_RATE"`      // Частота дискретизации
	FramesPerBlock int           `env:"FRAMES_PER_BLOCK"` // Размер блока PortAudio в сэмплах
	QueueSize      int           `env:"CAPTURE_QUEUE"`    // Ёмкость очереди блоков между колбэком и потребителем

	LLM LLMConfig

	// Распознавание
	STTService string `env:"STT_SERVICE"` // whisper|yandex, по умолчанию whisper
	Whisper    WhisperConfig
	YandexSTT  YandexSTTConfig

	// Синтез
	TTSService      string        `env:"TTS_SERVICE"`      // elevenlabs|google|gemini, по умолчанию elevenlabs
	PlaybackTimeout time.Duration `env:"PLAYBACK_TIMEOUT"` // Жёсткий лимит воспроизведения
	PlayerVolumeDB  float64       `env:"PLAYER_VOLUME_DB"` // Громкость плеера в dB (отрицательные — тише)
	ElevenLabs      ElevenLabsConfig
	GoogleTTS       GoogleTTSConfig
	GeminiTTS       GeminiTTSConfig
}

// LLMConfig параметры OpenAI-совместимого чата (по умолчанию Groq).
type LLMConfig struct {
	APIKey      string        `env:"GROQ_API_KEY"`
	BaseURL     string        `env:"LLM_BASE_URL"`
	Model       string        `env:"LLM_MODEL"`
	Temperature float64       `env:"LLM_TEMPERATURE"`
	TopP        float64       `env:"LLM_TOP_P"`
	MaxTokens   int64         `env:"LLM_MAX_TOKENS"`
	Timeout     time.Duration `env:"LLM_TIMEOUT"`
}

// WhisperConfig распознавание через OpenAI-совместимый endpoint транскрипции.
type WhisperConfig struct {
	Model   string        `env:"WHISPER_MODEL"`
	Timeout time.Duration `env:"WHISPER_TIMEOUT"`
}

// YandexSTTConfig потоковое распознавание Yandex SpeechKit.
type YandexSTTConfig struct {
	APIKey   string        `env:"YC_STT_API_KEY"`
	Endpoint string        `env:"YC_STT_ENDPOINT"`
	Language string        `env:"YC_STT_LANGUAGE"`
	ChunkMS  int           `env:"YC_STT_CHUNK_MS"`
	Timeout  time.Duration `env:"YC_STT_TIMEOUT"`
}

// ElevenLabsConfig синтез через ElevenLabs REST API.
type ElevenLabsConfig struct {
	APIKey          string  `env:"ELEVENLABS_API_KEY"`
	VoiceID         string  `env:"ELEVENLABS_VOICE_ID"`
	Model           string  `env:"ELEVENLABS_MODEL"`
	OutputFormat    string  `env:"ELEVENLABS_OUTPUT_FORMAT"`
	Stability       float64 `env:"ELEVENLABS_STABILITY"`
	SimilarityBoost float64 `env:"ELEVENLABS_SIMILARITY"`
	Style           float64 `env:"ELEVENLABS_STYLE"`
	SpeakerBoost    bool    `env:"ELEVENLABS_SPEAKER_BOOST"`
}

// GoogleTTSConfig конфигурация для синтеза речи через Google Cloud Text-to-Speech.
type GoogleTTSConfig struct {
	// Путь к файлу ключа сервисного аккаунта. Фактически читается из ENV GOOGLE_APPLICATION_CREDENTIALS.
	CredentialsPath string  `env:"GOOGLE_APPLICATION_CREDENTIALS"`
	Language        string  `env:"GOOGLE_TTS_LANGUAGE"`
	Voice           string  `env:"GOOGLE_TTS_VOICE"`
	SpeakingRate    float64 `env:"GOOGLE_TTS_SPEAKING_RATE"`
	Pitch           float64 `env:"GOOGLE_TTS_PITCH"`
	VolumeGainDb    float64 `env:"GOOGLE_TTS_VOLUME_DB"`
	// Эффект профиля устройства воспроизведения, напр. small-bluetooth-speaker-class-device
	EffectsProfileID string `env:"GOOGLE_TTS_EFFECTS_PROFILE_ID"`
}

// GeminiTTSConfig синтез Gemini-TTS через Cloud Text-to-Speech v1beta1.
// Учётные данные общие с GoogleTTSConfig (ADC).
type GeminiTTSConfig struct {
	Endpoint  string `env:"GEMINI_TTS_ENDPOINT"`
	ModelName string `env:"GEMINI_TTS_MODEL"`
	Language  string `env:"GEMINI_TTS_LANGUAGE"`
	VoiceName string `env:"GEMINI_TTS_VOICE"`
	// Стилевая инструкция для модели, напр. «говори как дружелюбный гид»
	Prompt       string  `env:"GEMINI_TTS_PROMPT"`
	SpeakingRate float64 `env:"GEMINI_TTS_SPEAKING_RATE"`
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode: false,
		Language:  "tr",
		SystemPrompt: "Sen İstanbul'da profesyonel bir tur rehberisin. Turistlere doğru, net ve 30 kelimeyi geçmeyen yanıtlar ver. " +
			"Önceki konuşma bağlamını dikkate al ve yanıtlarını buna göre şekillendir.",
		GreetingText:     "Merhaba! İstanbul tur rehberinizim. Size nasıl yardımcı olabilirim?",
		FarewellText:     "Görüşmek üzere! İyi günler.",
		NotUnderstood:    "Üzgünüm, sizi anlayamadım. Lütfen tekrar eder misiniz?",
		DefaultReply:     "İstanbul'da gezilecek yerler çok! Önerdiğim bir yeri görmek ister misiniz?",
		ContinuationText: "... Daha fazla bilgi için sorabilirsiniz.",
		ExitPhrases:      []string{"çıkış", "kapat", "programı kapat"},
		MaxHistory:       10, // 5 пар user/assistant
		MaxReplyWords:    35, // укладывается примерно в 15 секунд речи
		MinReplyWords:    3,
		RecordDuration:   5 * time.Second,
		SampleRate:       16000,
		FramesPerBlock:   4000,
		QueueSize:        64,
		LLM: LLMConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "meta-llama/llama-4-maverick-17b-128e-instruct",
			Temperature: 0.7,
			TopP:        0.9,
			MaxTokens:   50,
			Timeout:     30 * time.Second,
		},
		STTService: "whisper",
		Whisper: WhisperConfig{
			Model:   "whisper-large-v3",
			Timeout: 30 * time.Second,
		},
		YandexSTT: YandexSTTConfig{
			Endpoint: "wss://stt.api.cloud.yandex.net/speech/v1/stt:streaming",
			Language: "tr-TR",
			ChunkMS:  50,
			Timeout:  20 * time.Second,
		},
		TTSService:      "elevenlabs",
		PlaybackTimeout: 20 * time.Second,
		PlayerVolumeDB:  0,
		ElevenLabs: ElevenLabsConfig{
			VoiceID:         "IuRRIAcbQK5AQk1XevPj", // Doga
			Model:           "eleven_multilingual_v2",
			OutputFormat:    "mp3_44100_128",
			Stability:       0.5,
			SimilarityBoost: 0.5,
			Style:           0.0,
			SpeakerBoost:    true,
		},
		GoogleTTS: GoogleTTSConfig{
			CredentialsPath: "service-account.json",
			Language:        "tr-TR",
			Voice:           "tr-TR-Standard-A",
			SpeakingRate:    1.0,
		},
		GeminiTTS: GeminiTTSConfig{
			Endpoint:     "https://texttospeech.googleapis.com/v1beta1/text:synthesize",
			ModelName:    "gemini-2.5-flash-tts",
			Language:     "tr-TR",
			VoiceName:    "Kore",
			Prompt:       "Samimi ve sakin bir İstanbul tur rehberi gibi konuş.",
			SpeakingRate: 1.0,
		},
	}
}

// NewConfig загружает конфигурацию приложения.
func NewConfig() *Config {
	_ = godotenv.Load()

	// Стартуем с дефолтов, затем перекрываем .env/окружением и флагами
	cfg := Defaults()
	_ = env.Parse(cfg)

	fs := flag.CommandLine
	cfg.bindFlags(fs)
	// Список фраз выхода одной строкой, разделённой ';'
	exitFlag := strings.Join(cfg.ExitPhrases, ";")
	fs.StringVar(&exitFlag, "exit-phrases", exitFlag, "фразы завершения, разделённые ';'")
	flag.Parse()

	cfg.ExitPhrases = parseListFlag(exitFlag, Defaults().ExitPhrases)
	return cfg
}

func (cfg *Config) bindFlags(fs *flag.FlagSet) {
	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага (development-логгер)")
	fs.StringVar(&cfg.Language, "language", cfg.Language, "язык диалога, напр. tr")
	fs.StringVar(&cfg.SystemPrompt, "system-prompt", cfg.SystemPrompt, "системная инструкция гида")
	fs.IntVar(&cfg.MaxHistory, "max-history", cfg.MaxHistory, "максимум записей истории диалога")
	fs.IntVar(&cfg.MaxReplyWords, "max-reply-words", cfg.MaxReplyWords, "максимум слов в ответе")
	fs.IntVar(&cfg.MinReplyWords, "min-reply-words", cfg.MinReplyWords, "минимум слов, иначе дефолтный ответ")
	fs.StringVar(&cfg.CuePath, "listen-cue-path", cfg.CuePath, "звук перед записью (mp3|wav), пусто — выключен")
	fs.StringVar(&cfg.TempDir, "temp-dir", cfg.TempDir, "каталог временных аудиофайлов")
	// Запись
	fs.DurationVar(&cfg.RecordDuration, "record-duration", cfg.RecordDuration, "длительность окна записи, напр. 5s")
	fs.IntVar(&cfg.SampleRate, "sample-rate", cfg.SampleRate, "частота дискретизации (Гц)")
	fs.IntVar(&cfg.FramesPerBlock, "frames-per-block", cfg.FramesPerBlock, "размер блока PortAudio в сэмплах")
	// LLM
	fs.StringVar(&cfg.LLM.BaseURL, "llm-base-url", cfg.LLM.BaseURL, "OpenAI-совместимый endpoint")
	fs.StringVar(&cfg.LLM.Model, "llm-model", cfg.LLM.Model, "модель генерации ответа")
	fs.Float64Var(&cfg.LLM.Temperature, "llm-temperature", cfg.LLM.Temperature, "temperature")
	fs.Float64Var(&cfg.LLM.TopP, "llm-top-p", cfg.LLM.TopP, "top_p")
	fs.Int64Var(&cfg.LLM.MaxTokens, "llm-max-tokens", cfg.LLM.MaxTokens, "максимум токенов ответа")
	fs.DurationVar(&cfg.LLM.Timeout, "llm-timeout", cfg.LLM.Timeout, "таймаут запроса генерации")
	// STT
	fs.StringVar(&cfg.STTService, "stt-service", cfg.STTService, "сервис распознавания: whisper|yandex")
	fs.StringVar(&cfg.Whisper.Model, "whisper-model", cfg.Whisper.Model, "модель транскрипции")
	fs.DurationVar(&cfg.Whisper.Timeout, "whisper-timeout", cfg.Whisper.Timeout, "таймаут транскрипции")
	fs.StringVar(&cfg.YandexSTT.Endpoint, "yc-stt-endpoint", cfg.YandexSTT.Endpoint, "WebSocket endpoint Yandex STT")
	fs.StringVar(&cfg.YandexSTT.Language, "yc-stt-language", cfg.YandexSTT.Language, "язык распознавания Yandex, напр. tr-TR")
	// TTS
	fs.StringVar(&cfg.TTSService, "tts-service", cfg.TTSService, "выбор сервиса TTS: elevenlabs|google|gemini")
	fs.DurationVar(&cfg.PlaybackTimeout, "playback-timeout", cfg.PlaybackTimeout, "жёсткий лимит воспроизведения, напр. 20s")
	fs.Float64Var(&cfg.PlayerVolumeDB, "player-volume-db", cfg.PlayerVolumeDB, "громкость плеера в dB")
	fs.StringVar(&cfg.ElevenLabs.VoiceID, "elevenlabs-voice-id", cfg.ElevenLabs.VoiceID, "ID голоса ElevenLabs")
	fs.StringVar(&cfg.ElevenLabs.Model, "elevenlabs-model", cfg.ElevenLabs.Model, "модель ElevenLabs")
	fs.StringVar(&cfg.GoogleTTS.CredentialsPath, "google-tts-credentials", cfg.GoogleTTS.CredentialsPath, "путь к service-account.json (также читается из ENV GOOGLE_APPLICATION_CREDENTIALS)")
	fs.StringVar(&cfg.GoogleTTS.Language, "google-tts-language", cfg.GoogleTTS.Language, "язык синтеза, напр. tr-TR")
	fs.StringVar(&cfg.GoogleTTS.Voice, "google-tts-voice", cfg.GoogleTTS.Voice, "имя голоса, напр. tr-TR-Wavenet-A")
	fs.Float64Var(&cfg.GoogleTTS.SpeakingRate, "google-tts-speaking-rate", cfg.GoogleTTS.SpeakingRate, "скорость речи (1.0 по умолчанию)")
	fs.StringVar(&cfg.GeminiTTS.ModelName, "gemini-tts-model", cfg.GeminiTTS.ModelName, "модель Gemini-TTS")
	fs.StringVar(&cfg.GeminiTTS.VoiceName, "gemini-tts-voice", cfg.GeminiTTS.VoiceName, "голос Gemini-TTS, напр. Kore")
	fs.StringVar(&cfg.GeminiTTS.Prompt, "gemini-tts-prompt", cfg.GeminiTTS.Prompt, "стилевая инструкция Gemini-TTS")
}

// Validate проверяет наличие ключей для выбранных сервисов.
// Ошибка здесь фатальна: процесс завершается до начала диалога.
func (cfg *Config) Validate(ctx context.Context) error {
	var errs []error
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		errs = append(errs, errors.New("GROQ_API_KEY не задан"))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.STTService)) {
	case "yandex":
		if strings.TrimSpace(cfg.YandexSTT.APIKey) == "" {
			errs = append(errs, errors.New("YC_STT_API_KEY не задан"))
		}
	case "", "whisper":
	default:
		errs = append(errs, fmt.Errorf("неизвестный STT_SERVICE: %q", cfg.STTService))
	}

	switch strings.ToLower(strings.TrimSpace(cfg.TTSService)) {
	case "google", "gemini":
		if err := cfg.prepareGoogleCredentials(ctx); err != nil {
			errs = append(errs, err)
		}
	case "", "elevenlabs":
		if strings.TrimSpace(cfg.ElevenLabs.APIKey) == "" {
			errs = append(errs, errors.New("ELEVENLABS_API_KEY не задан"))
		}
	default:
		errs = append(errs, fmt.Errorf("неизвестный TTS_SERVICE: %q", cfg.TTSService))
	}

	if cfg.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("некорректная частота дискретизации: %d", cfg.SampleRate))
	}
	if cfg.RecordDuration <= 0 {
		errs = append(errs, fmt.Errorf("некорректная длительность записи: %s", cfg.RecordDuration))
	}
	return errors.Join(errs...)
}

// prepareGoogleCredentials убеждается, что задан путь к cred-файлу и по нему находятся ADC.
// Если ENV пуст, но в конфиге указан путь — устанавливаем ENV.
func (cfg *Config) prepareGoogleCredentials(ctx context.Context) error {
	cred := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	if cred == "" {
		if cp := strings.TrimSpace(cfg.GoogleTTS.CredentialsPath); cp != "" {
			_ = os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", cp)
			cred = cp
		}
	}
	if cred == "" {
		return errors.New("google tts: переменная окружения GOOGLE_APPLICATION_CREDENTIALS не задана")
	}
	if _, err := os.Stat(cred); err != nil {
		return fmt.Errorf("google tts: файл ключа не найден: %s", cred)
	}
	if _, err := google.FindDefaultCredentials(ctx, "https://www.googleapis.com/auth/cloud-platform"); err != nil {
		return fmt.Errorf("google tts: учётные данные не загружены: %w", err)
	}
	return nil
}

// parseListFlag разбирает значение флага со списком, разделённым ';'
func parseListFlag(v string, def []string) []string {
	// Пустая строка → дефолт
	if v == "" {
		return def
	}
	parts := strings.Split(v, ";")
	cleaned := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			cleaned = append(cleaned, p)
		}
	}
	if len(cleaned) == 0 {
		return def
	}
	return cleaned
}
