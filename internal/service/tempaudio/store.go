package tempaudio

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Store создаёт и удаляет временные аудиофайлы одного хода (запись .wav, синтез .mp3).
// Файлы не переживают ход: вызывающий обязан вызвать Remove на любом исходе.
type Store struct {
	fs     afero.Fs
	dir    string
	logger *zap.SugaredLogger
}

// New создаёт хранилище поверх fs. Пустой dir — системный временный каталог.
func New(fs afero.Fs, dir string, logger *zap.SugaredLogger) *Store {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	return &Store{fs: fs, dir: dir, logger: logger}
}

// Create открывает новый файл вида guide-*.<ext>.
func (s *Store) Create(ext string) (afero.File, error) {
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	f, err := afero.TempFile(s.fs, s.dir, "guide-*."+ext)
	if err != nil {
		return nil, fmt.Errorf("create temp %s: %w", ext, err)
	}
	return f, nil
}

// WriteFile сохраняет r во временный файл и возвращает его имя.
func (s *Store) WriteFile(ext string, r io.Reader) (string, error) {
	f, err := s.Create(ext)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		s.Remove(name)
		return "", fmt.Errorf("write temp %s: %w", ext, err)
	}
	if err := f.Close(); err != nil {
		s.Remove(name)
		return "", fmt.Errorf("close temp %s: %w", ext, err)
	}
	return name, nil
}

// Open открывает ранее созданный файл на чтение.
func (s *Store) Open(name string) (afero.File, error) {
	return s.fs.Open(name)
}

// Remove удаляет файл; ошибка только логируется.
func (s *Store) Remove(name string) {
	if name == "" {
		return
	}
	if err := s.fs.Remove(name); err != nil && !os.IsNotExist(err) && s.logger != nil {
		s.logger.Warnw("Не удалось удалить временный файл", "path", name, "error", err)
	}
}
