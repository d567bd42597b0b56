package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/varga/larkpub/internal/apperr"
	"github.com/varga/larkpub/internal/checksum"
)

// watchDebounce coalesces the burst of events editors emit on save.
const watchDebounce = 200 * time.Millisecond

// Watch republishes req.Path whenever it changes, until ctx is cancelled.
// The first pass publishes the file if the ledger has no entry for it,
// otherwise updates the existing document. Subsequent passes are updates,
// skipped when the content checksum is unchanged.
func (p *Publisher) Watch(ctx context.Context, req Request) error {
	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return fmt.Errorf("publisher: resolve watch path: %w", err)
	}
	req.Path = abs

	docID, lastSum, err := p.ensurePublished(ctx, req)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("publisher: start watcher: %w", err)
	}
	defer w.Close()

	// Watch the directory, not the file: editors replace files on save and
	// a file-level watch would go stale after the first rename.
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("publisher: watch dir: %w", err)
	}

	p.logger.Info("watch: started", slog.String("path", abs), slog.String("document", docID))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(watchDebounce)
			debounceCh = debounce.C
		} else {
			debounce.Reset(watchDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			p.logger.Info("watch: stopped")
			return nil

		case <-debounceCh:
			sum, err := checksum.SumFile(abs)
			if err != nil {
				p.logger.Warn("watch: read failed", slog.String("error", err.Error()))
				continue
			}
			if sum == lastSum {
				continue
			}
			res, err := p.Update(ctx, docID, abs)
			if err != nil {
				p.logger.Warn("watch: update failed", slog.String("error", err.Error()))
				continue
			}
			lastSum = sum
			p.logger.Info("watch: document updated",
				slog.String("document", res.DocumentID),
				slog.Int("images", res.UploadedImages))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				schedule()
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			p.logger.Warn("watch: watcher error", slog.String("error", err.Error()))
		}
	}
}

// ensurePublished publishes the file on first watch, or picks up the
// document id from an earlier publish recorded in the ledger.
func (p *Publisher) ensurePublished(ctx context.Context, req Request) (docID, sum string, err error) {
	if p.store != nil {
		if pub, getErr := p.store.Get(req.Path); getErr == nil {
			return pub.DocumentID, pub.Checksum, nil
		} else if !errors.Is(getErr, apperr.ErrNotFound) {
			return "", "", fmt.Errorf("publisher: ledger lookup: %w", getErr)
		}
	}

	res, err := p.Publish(ctx, req)
	if err != nil {
		return "", "", err
	}
	sum, err = checksum.SumFile(req.Path)
	if err != nil {
		return "", "", err
	}
	p.logger.Info("watch: initial publish",
		slog.String("document", res.DocumentID),
		slog.String("title", res.Title))
	return res.DocumentID, sum, nil
}
