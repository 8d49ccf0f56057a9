package config

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"sync"
	"time"
)

// Watcher watches the configuration document for changes and invokes a
// callback each time it is updated. Implementations may poll files, watch
// key-value stores, or subscribe to change notifications; runtime.New wires
// FileWatcher against the discovered super.json so an edit invalidates the
// executor's bound-provider cache without a process restart.
type Watcher interface {
	// Watch starts watching for changes and calls callback whenever the
	// configuration changes. It blocks until ctx is cancelled, Close is
	// called, or an unrecoverable error occurs.
	Watch(ctx context.Context, callback func(newConfig any)) error

	// Close releases resources held by the watcher.
	Close() error
}

// minWatchInterval is the smallest polling interval NewFileWatcher accepts;
// anything smaller is clamped to it to bound the worst-case read-and-hash
// rate.
const minWatchInterval = 100 * time.Millisecond

// FileWatcher polls a file at a regular interval and invokes a callback
// when its content changes. Change detection hashes the full content with
// SHA-256 rather than comparing mtimes, since some filesystems and editors
// (atomic-rename saves, containers with coarse mtime resolution) don't
// reliably bump the modification time on every write.
type FileWatcher struct {
	path     string
	interval time.Duration
	onError  func(err error)

	mu       sync.Mutex
	lastHash [sha256.Size]byte
	closed   bool
	done     chan struct{}
}

// FileWatcherOption configures a FileWatcher at construction time.
type FileWatcherOption func(*FileWatcher)

// WithWatchErrorHandler registers a callback invoked whenever a poll's
// read of the watched file fails (e.g. the file is briefly missing during
// an atomic-rename save). Without one, a failed poll is silently skipped
// and retried on the next tick.
func WithWatchErrorHandler(onError func(err error)) FileWatcherOption {
	return func(w *FileWatcher) { w.onError = onError }
}

// NewFileWatcher creates a FileWatcher that polls path every interval for
// changes. The minimum interval is minWatchInterval; smaller values are
// clamped.
func NewFileWatcher(path string, interval time.Duration, opts ...FileWatcherOption) Watcher {
	if interval < minWatchInterval {
		interval = minWatchInterval
	}
	w := &FileWatcher{
		path:     path,
		interval: interval,
		done:     make(chan struct{}),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Watch polls the file for changes until ctx is cancelled or Close is
// called. When a change is detected, callback is invoked with the raw file
// content as a []byte; the caller unmarshals it as needed.
func (w *FileWatcher) Watch(ctx context.Context, callback func(newConfig any)) error {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return fmt.Errorf("config: watch initial read %s: %w", w.path, err)
	}

	w.mu.Lock()
	w.lastHash = sha256.Sum256(data)
	w.mu.Unlock()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			w.mu.Lock()
			if w.closed {
				w.mu.Unlock()
				return nil
			}
			w.mu.Unlock()

			changed, data, err := w.poll()
			if err != nil {
				if w.onError != nil {
					w.onError(err)
				}
				continue
			}
			if changed {
				callback(data)
			}
		}
	}
}

// poll reads the file once, reporting whether its content hash changed
// since the last successful poll.
func (w *FileWatcher) poll() (bool, []byte, error) {
	data, err := os.ReadFile(w.path)
	if err != nil {
		return false, nil, fmt.Errorf("config: watch read %s: %w", w.path, err)
	}

	hash := sha256.Sum256(data)
	w.mu.Lock()
	changed := hash != w.lastHash
	if changed {
		w.lastHash = hash
	}
	w.mu.Unlock()

	return changed, data, nil
}

// Close stops the watcher. It is safe to call Close concurrently with Watch.
func (w *FileWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.closed {
		w.closed = true
		close(w.done)
	}
	return nil
}
