package notify

import (
	ttsplayer "VoiceGuide/internal/service/tts/player"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// SoundNotifier проигрывает короткий сигнал «слушаю» перед окном записи.
type SoundNotifier struct {
	logger *zap.SugaredLogger
	fs     afero.Fs
	path   string
	ply    ttsplayer.Player
}

// NewSoundNotifier создаёт нотификатор. Пустой path выключает сигнал.
// Относительный путь сначала ищется рядом с бинарём, затем от рабочей директории.
func NewSoundNotifier(logger *zap.SugaredLogger, fs afero.Fs, path string, ply ttsplayer.Player) *SoundNotifier {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	path = strings.TrimSpace(path)
	if path != "" && !filepath.IsAbs(path) {
		path = resolve(fs, path)
	}
	return &SoundNotifier{logger: logger, fs: fs, path: path, ply: ply}
}

// Enabled true, если сигнал настроен.
func (n *SoundNotifier) Enabled() bool { return n != nil && n.path != "" }

// PlayListening проигрывает сигнал. Ошибки только логируются: без сигнала диалог продолжается.
func (n *SoundNotifier) PlayListening(ctx context.Context) {
	if !n.Enabled() {
		return
	}
	if ctx.Err() != nil {
		return
	}

	f, err := n.fs.Open(n.path)
	if err != nil {
		n.logger.Warnw("Не удалось открыть звуковой файл уведомления", "path", n.path, "error", err)
		return
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(n.path), "."))
	if ext == "" {
		ext = "mp3" // по умолчанию
	}
	if err := n.ply.Play(ctx, ext, f); err != nil {
		n.logger.Warnw("Не удалось воспроизвести звуковое уведомление", "path", n.path, "error", err)
	}
}

func resolve(fs afero.Fs, rel string) string {
	if exe, err := os.Executable(); err == nil {
		cand := filepath.Join(filepath.Dir(exe), rel)
		if ok, _ := afero.Exists(fs, cand); ok {
			return cand
		}
	}
	return filepath.FromSlash(rel)
}
