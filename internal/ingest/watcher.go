package ingest

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

type WatchConfig struct {
	Roots       []string      // directories to watch (recursive)
	InitialScan bool          // if true, walk roots and emit existing files
	Debounce    time.Duration // coalesce rapid create/write bursts
	Logger      *slog.Logger
}

// StartWatcher emits paths of receipt files created or written under the
// roots until ctx is done. Both channels are closed on exit.
func StartWatcher(ctx context.Context, cfg WatchConfig) (<-chan string, <-chan error, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Roots) == 0 {
		return nil, nil, errors.New("no roots provided")
	}
	evCh := make(chan string, 256)
	errCh := make(chan error, 1)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("ingest.watch.create_failed", "error", err)
		return nil, nil, err
	}

	var initial []string
	addDir := func(root string) error {
		return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if path != root && IsHidden(path) {
					return filepath.SkipDir
				}
				return w.Add(path)
			}
			if cfg.InitialScan && AllowedExt(filepath.Ext(path)) && !IsHidden(path) {
				initial = append(initial, path)
			}
			return nil
		})
	}
	for _, r := range cfg.Roots {
		if err := addDir(r); err != nil {
			logger.Error("ingest.watch.add_root_failed", "root", r, "error", err)
			_ = w.Close()
			return nil, nil, err
		}
	}
	logger.Info("ingest.watch.started", "roots", cfg.Roots, "initial", len(initial))

	go func() {
		defer close(evCh)
		defer close(errCh)
		defer w.Close()

		emit := func(p string) bool {
			select {
			case evCh <- p:
				return true
			case <-ctx.Done():
				return false
			}
		}
		for _, p := range initial {
			if !emit(p) {
				return
			}
		}

		var mu sync.Mutex
		pending := map[string]struct{}{}
		flush := make(chan struct{}, 1)
		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		sendPending := func() {
			mu.Lock()
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			clear(pending)
			mu.Unlock()
			for _, p := range batch {
				if !emit(p) {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-flush:
				sendPending()
			case e, ok := <-w.Events:
				if !ok {
					return
				}
				if e.Op&fsnotify.Create == fsnotify.Create {
					if fi, err := os.Stat(e.Name); err == nil && fi.IsDir() && !IsHidden(e.Name) {
						if err := w.Add(e.Name); err != nil {
							logger.Warn("ingest.watch.add_dir_failed", "path", e.Name, "error", err)
						}
						continue
					}
				}
				if IsHidden(e.Name) || !AllowedExt(filepath.Ext(e.Name)) {
					continue
				}
				if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
					continue
				}
				mu.Lock()
				pending[e.Name] = struct{}{}
				mu.Unlock()
				if cfg.Debounce <= 0 {
					sendPending()
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(cfg.Debounce, func() {
					select {
					case flush <- struct{}{}:
					default:
					}
				})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				logger.Error("ingest.watch.error", "error", err)
				select {
				case errCh <- err:
				default:
				}
			}
		}
	}()

	return evCh, errCh, nil
}
