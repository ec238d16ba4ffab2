package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// File is a JSON settings file.
type File struct {
	path   string
	logger *slog.Logger
}

// FileOption configures a File.
type FileOption func(*File)

// WithLogger sets the logger used by Watch.
func WithLogger(l *slog.Logger) FileOption {
	return func(f *File) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFile returns a handle for the settings file at path. The file does
// not need to exist.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{path: filepath.Clean(path), logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Path returns the file location.
func (f *File) Path() string { return f.path }

// Load reads the file over the defaults, so absent keys keep their
// default values. A missing file yields Default.
func (f *File) Load() (Settings, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("settings: read %s: %w", f.path, err)
	}

	return Parse(data)
}

// Parse decodes JSON settings over the defaults, validates and normalizes
// them.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &s); err != nil {
			return Settings{}, fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	return s.Normalize(), nil
}

// Save writes s atomically through a temporary file in the same
// directory.
func (f *File) Save(s Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.Normalize(), "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("settings: replace %s: %w", f.path, err)
	}

	return nil
}

// Watch reloads the file whenever it changes and sends every valid result
// that differs from the previous one. Invalid edits are logged and
// skipped. The channel is closed when ctx is done.
func (f *File) Watch(ctx context.Context) (<-chan Settings, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("settings: watch: %w", err)
	}

	// Editors and Save replace the file by rename, so watch the directory.
	if err := w.Add(filepath.Dir(f.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("settings: watch %s: %w", filepath.Dir(f.path), err)
	}

	last, err := f.Load()
	if err != nil {
		f.logger.Warn("settings file invalid", "path", f.path, "err", err)
		last = Default()
	}

	out := make(chan Settings, 1)
	go f.watchLoop(ctx, w, last, out)

	return out, nil
}

func (f *File) watchLoop(ctx context.Context, w *fsnotify.Watcher, last Settings, out chan<- Settings) {
	defer close(out)
	defer w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != f.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}

			s, err := f.Load()
			if err != nil {
				f.logger.Warn("settings reload skipped", "path", f.path, "err", err)
				continue
			}
			if s == last {
				continue
			}
			last = s
			f.logger.Debug("settings reloaded", "path", f.path)

			select {
			case out <- s:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			f.logger.Warn("settings watcher", "err", err)
		}
	}
}
