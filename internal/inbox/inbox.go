// Package inbox ingests EDI files dropped into a local directory, typically the
// landing directory of an SFTP server.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/dvloznov/edi-processor/internal/domain"
	"github.com/dvloznov/edi-processor/internal/edi"
	"github.com/dvloznov/edi-processor/internal/logger"
)

const (
	// IngestedDir receives files after a successful ingest.
	IngestedDir = "ingested"
	// FailedDir receives files whose ingest failed.
	FailedDir = "failed"

	DefaultSettle = 500 * time.Millisecond
)

// Ingester stores a document and creates its records.
type Ingester interface {
	Ingest(ctx context.Context, content io.ReadSeeker, fileName string, source domain.Source, accountID string) (*domain.File, error)
}

type Options struct {
	Dir string

	// Settle is how long a file must go without writes before it is picked up.
	Settle time.Duration

	RatePerSecond float64
	Burst         int

	// AccountID is attached to every file ingested from Dir.
	AccountID string
}

// Watcher moves EDI files from Dir through the ingestion pipeline.
type Watcher struct {
	ingester Ingester
	opts     Options
	limiter  *rate.Limiter
	isEdi    func(string) bool

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func NewWatcher(ingester Ingester, opts Options) *Watcher {
	if opts.Settle <= 0 {
		opts.Settle = DefaultSettle
	}
	limit := rate.Inf
	if opts.RatePerSecond > 0 {
		limit = rate.Limit(opts.RatePerSecond)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Watcher{
		ingester: ingester,
		opts:     opts,
		limiter:  rate.NewLimiter(limit, opts.Burst),
		isEdi:    edi.IsEdiFile,
		pending:  make(map[string]*time.Timer),
	}
}

func (w *Watcher) ensureDirs() error {
	for _, d := range []string{w.opts.Dir, filepath.Join(w.opts.Dir, IngestedDir), filepath.Join(w.opts.Dir, FailedDir)} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", d, err)
		}
	}
	return nil
}

// ScanOnce ingests every EDI file already present in Dir and returns how many succeeded.
func (w *Watcher) ScanOnce(ctx context.Context) (int, error) {
	if err := w.ensureDirs(); err != nil {
		return 0, fmt.Errorf("ScanOnce: %w", err)
	}

	entries, err := os.ReadDir(w.opts.Dir)
	if err != nil {
		return 0, fmt.Errorf("ScanOnce: reading %s: %w", w.opts.Dir, err)
	}

	ingested := 0
	for _, e := range entries {
		if e.IsDir() || !w.isEdi(e.Name()) {
			continue
		}
		if err := w.ingestPath(ctx, filepath.Join(w.opts.Dir, e.Name())); err != nil {
			if ctx.Err() != nil {
				return ingested, ctx.Err()
			}
			continue
		}
		ingested++
	}
	return ingested, nil
}

// Run scans Dir once, then ingests new files as they settle until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	log := logger.FromContext(ctx)

	if err := w.ensureDirs(); err != nil {
		return fmt.Errorf("Run: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("Run: creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.opts.Dir); err != nil {
		return fmt.Errorf("Run: watching %s: %w", w.opts.Dir, err)
	}

	n, err := w.ScanOnce(ctx)
	if err != nil {
		return err
	}
	log.Info().Str("dir", w.opts.Dir).Int("ingested", n).Msg("inbox: watching for files")

	ready := make(chan string, 16)
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if filepath.Dir(ev.Name) != filepath.Clean(w.opts.Dir) || !w.isEdi(filepath.Base(ev.Name)) {
				continue
			}
			w.schedule(ctx, ev.Name, ready)

		case path := <-ready:
			if info, err := os.Stat(path); err != nil || info.IsDir() {
				continue
			}
			_ = w.ingestPath(ctx, path)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("inbox: watcher error")
		}
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string, ready chan<- string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Reset(w.opts.Settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.opts.Settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		select {
		case ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) ingestPath(ctx context.Context, path string) error {
	log := logger.FromContext(ctx).With().Str("path", path).Logger()

	if err := w.limiter.Wait(ctx); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		log.Error().Err(err).Msg("inbox: opening file")
		return err
	}

	name := filepath.Base(path)
	file, ingestErr := w.ingester.Ingest(ctx, f, name, domain.SourceSFTP, w.opts.AccountID)
	f.Close()

	target := IngestedDir
	if ingestErr != nil {
		target = FailedDir
		log.Error().Err(ingestErr).Str("file_name", name).Msg("inbox: ingest failed")
	}

	dest, err := move(path, filepath.Join(w.opts.Dir, target))
	if err != nil {
		log.Error().Err(err).Msg("inbox: moving file")
		return errors.Join(ingestErr, err)
	}
	if ingestErr != nil {
		return ingestErr
	}

	log.Info().
		Str("file_id", file.ID).
		Str("file_name", name).
		Str("moved_to", dest).
		Msg("inbox: file ingested")
	return nil
}

// move renames path into dir, adding a numeric suffix if the name is taken.
func move(path, dir string) (string, error) {
	base := filepath.Base(path)
	dest := filepath.Join(dir, base)
	for i := 1; ; i++ {
		if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
			break
		}
		dest = filepath.Join(dir, base+"."+strconv.Itoa(i))
	}
	if err := os.Rename(path, dest); err != nil {
		return "", err
	}
	return dest, nil
}
