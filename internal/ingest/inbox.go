package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Inbox submits every receipt dropped into a watched directory. Files whose
// content was already submitted are skipped.
type Inbox struct {
	submitter Submitter
	cfg       WatchConfig
	lang      string
	logger    *slog.Logger

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewInbox(submitter Submitter, dir, lang string, logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		submitter: submitter,
		cfg: WatchConfig{
			Roots:       []string{dir},
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
			Logger:      logger,
		},
		lang:   lang,
		logger: logger,
		seen:   map[string]struct{}{},
	}
}

// Run blocks until ctx is done or the watcher fails to start.
func (in *Inbox) Run(ctx context.Context) error {
	events, errs, err := StartWatcher(ctx, in.cfg)
	if err != nil {
		return err
	}
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return ctx.Err()
			}
			in.submit(ctx, path)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			in.logger.Warn("ingest.inbox.watch_error", "error", err)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (in *Inbox) submit(ctx context.Context, path string) {
	f, err := ReadFile(path)
	if err != nil {
		in.logger.Warn("ingest.inbox.read_failed", "path", path, "error", err)
		return
	}

	in.mu.Lock()
	_, dup := in.seen[f.HashHex]
	if !dup {
		in.seen[f.HashHex] = struct{}{}
	}
	in.mu.Unlock()
	if dup {
		in.logger.Debug("ingest.inbox.duplicate", "path", path, "sha256", f.HashHex)
		return
	}

	job, err := in.submitter.Submit(ctx, f.Name, f.Data, in.lang)
	if err != nil {
		in.mu.Lock()
		delete(in.seen, f.HashHex)
		in.mu.Unlock()
		in.logger.Error("ingest.inbox.submit_failed", "path", path, "error", err)
		return
	}
	in.logger.Info("ingest.inbox.submitted", "path", path, "job_id", job.ID)
}
