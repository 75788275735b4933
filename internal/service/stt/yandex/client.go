package yandex

import (
	"VoiceGuide/internal/config"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-audio/wav"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const defaultEndpoint = "wss://stt.api.cloud.yandex.net/speech/v1/stt:streaming"

// Result единица результата распознавания.
type Result struct {
	Text  string
	Final bool
}

// Client распознаёт готовую запись через потоковый WebSocket SpeechKit:
// одна запись — одно соединение.
type Client struct {
	cfg    config.YandexSTTConfig
	dialer websocket.Dialer
	logger *zap.SugaredLogger
}

// New создаёт клиент, без установления соединения.
func New(cfg config.YandexSTTConfig, logger *zap.SugaredLogger) (*Client, error) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = defaultEndpoint
	}
	if cfg.APIKey == "" {
		return nil, errors.New("yandex stt: пустой API key (ожидается YC_STT_API_KEY)")
	}
	if cfg.Language == "" {
		cfg.Language = "tr-TR"
	}
	if cfg.ChunkMS <= 0 {
		cfg.ChunkMS = 50
	}
	return &Client{
		cfg: cfg,
		dialer: websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		logger: logger,
	}, nil
}

// Transcribe декодирует WAV, отправляет сэмплы блоками по ChunkMS и склеивает финальные гипотезы.
func (c *Client) Transcribe(ctx context.Context, _ string, r io.Reader) (string, error) {
	samples, rate, err := decodeWAV(r)
	if err != nil {
		return "", err
	}
	// Отмена при любом выходе: readLoop не должен пережить вызов.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if c.cfg.Timeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeoutCause(ctx, c.cfg.Timeout, errors.New("yandex stt timeout"))
		defer cancelTimeout()
	}

	conn, err := c.dial(ctx, rate)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	results := make(chan Result, 32)
	go readLoop(ctx, conn, results)

	// Закрываем соединение при отмене, чтобы разблокировать readLoop.
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	chunk := rate * c.cfg.ChunkMS / 1000
	if chunk <= 0 {
		chunk = len(samples)
	}
	for off := 0; off < len(samples); off += chunk {
		end := min(off+chunk, len(samples))
		if err := conn.WriteMessage(websocket.BinaryMessage, encodePCM16(samples[off:end])); err != nil {
			return "", fmt.Errorf("yandex stt: отправка аудио: %w", err)
		}
	}
	// Конец аудио: просим сервер закрыть поток после выдачи результатов.
	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "eof"))

	var finals []string
	for {
		select {
		case <-ctx.Done():
			if len(finals) > 0 {
				return strings.Join(finals, " "), nil
			}
			return "", fmt.Errorf("yandex stt: %w", context.Cause(ctx))
		case res, ok := <-results:
			if !ok {
				return strings.Join(finals, " "), nil
			}
			if res.Final && strings.TrimSpace(res.Text) != "" {
				finals = append(finals, strings.TrimSpace(res.Text))
			}
		}
	}
}

func (c *Client) dial(ctx context.Context, sampleRate int) (*websocket.Conn, error) {
	u, err := url.Parse(c.cfg.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("yandex stt: неверный endpoint: %w", err)
	}
	q := u.Query()
	q.Set("lang", c.cfg.Language)
	q.Set("sampleRateHertz", fmt.Sprint(sampleRate))
	if q.Get("topic") == "" {
		q.Set("topic", "general")
	}
	if q.Get("format") == "" {
		q.Set("format", "lpcm")
	}
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Api-Key "+c.cfg.APIKey)

	conn, resp, err := c.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("yandex stt: не удалось подключиться к %s (HTTP %d): %w", u.Host, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("yandex stt: не удалось подключиться к %s: %w", u.Host, err)
	}

	start := map[string]any{
		"lang":            c.cfg.Language,
		"format":          "lpcm",
		"sampleRateHertz": sampleRate,
		"topic":           "general",
	}
	b, _ := json.Marshal(start)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("yandex stt: стартовое сообщение: %w", err)
	}
	if c.logger != nil {
		c.logger.Debugw("Yandex STT connected", "host", u.Host, "sampleRate", sampleRate)
	}
	return conn, nil
}

// readLoop публикует разобранные ответы сервера до закрытия соединения.
func readLoop(ctx context.Context, conn *websocket.Conn, out chan<- Result) {
	defer close(out)
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}
		if res, ok := parseServerMessage(data); ok {
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// parseServerMessage вытаскивает текст и признак финальности из известных вариантов ответа.
func parseServerMessage(data []byte) (Result, bool) {
	// {"result":"text","final":true}
	var s1 struct {
		Result string `json:"result"`
		Final  bool   `json:"final"`
	}
	if json.Unmarshal(data, &s1) == nil && (s1.Result != "" || s1.Final) {
		return Result{Text: s1.Result, Final: s1.Final}, true
	}

	// {"alternatives":[{"text":"..."}],"final":true}
	var s2 struct {
		Alternatives []struct {
			Text string `json:"text"`
		} `json:"alternatives"`
		Final bool `json:"final"`
	}
	if json.Unmarshal(data, &s2) == nil && len(s2.Alternatives) > 0 {
		return Result{Text: s2.Alternatives[0].Text, Final: s2.Final}, true
	}

	// {"text":"...","is_final":true}
	var s3 struct {
		Text    string `json:"text"`
		IsFinal bool   `json:"is_final"`
		Final   bool   `json:"final"`
	}
	if json.Unmarshal(data, &s3) == nil && (s3.Text != "" || s3.IsFinal || s3.Final) {
		return Result{Text: s3.Text, Final: s3.IsFinal || s3.Final}, true
	}

	return Result{}, false
}

// decodeWAV достаёт моно-сэмплы и частоту. Для многоканальной записи берётся первый канал.
func decodeWAV(r io.Reader) ([]int16, int, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, 0, fmt.Errorf("yandex stt: чтение wav: %w", err)
		}
		rs = bytes.NewReader(b)
	}
	dec := wav.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, 0, errors.New("yandex stt: некорректный wav")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("yandex stt: декодирование wav: %w", err)
	}
	channels := max(buf.Format.NumChannels, 1)
	out := make([]int16, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		out = append(out, int16(buf.Data[i]))
	}
	return out, buf.Format.SampleRate, nil
}

func encodePCM16(samples []int16) []byte {
	b := make([]byte, 2*len(samples))
	for i, s := range samples {
		binary.LittleEndian.PutUint16(b[2*i:], uint16(s))
	}
	return b
}
