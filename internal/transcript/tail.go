package transcript

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"toolscope/internal/pubsub"
)

// Tailer follows an append-only JSONL transcript file and publishes each new
// record as it lands. It is the live half of the transport: a history fetch
// via ReadFile and a running Tailer may race, which the downstream engine
// absorbs by idempotent upsert.
type Tailer struct {
	path   string
	broker *pubsub.Broker[RawMessage]

	offset  int64
	partial strings.Builder
}

func NewTailer(path string) *Tailer {
	return &Tailer{
		path:   path,
		broker: pubsub.NewBroker[RawMessage](256),
	}
}

// Subscribe registers for records appended after the subscription is made.
func (t *Tailer) Subscribe(ctx context.Context) <-chan pubsub.Event[RawMessage] {
	return t.broker.Subscribe(ctx)
}

// Run watches the file until ctx is done. Records already present when Run
// starts are published too, so a subscriber that attaches before Run sees the
// whole file; late subscribers should pair the tail with a history fetch.
func (t *Tailer) Run(ctx context.Context) error {
	defer t.broker.Close()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: the transcript file may not exist yet, and some
	// writers replace rather than append.
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(t.path), err)
	}

	if err := t.drain(); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != filepath.Clean(t.path) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				t.offset = 0
				t.partial.Reset()
			}
			if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) {
				if err := t.drain(); err != nil {
					return err
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("watcher: %w", err)
		}
	}
}

// drain reads everything past the current offset and publishes complete
// lines. A trailing fragment without a newline is carried until the writer
// finishes the line.
func (t *Tailer) drain() error {
	f, err := os.Open(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer f.Close()

	if info, err := f.Stat(); err == nil && info.Size() < t.offset {
		// Truncated; start over.
		t.offset = 0
		t.partial.Reset()
	}
	if _, err := f.Seek(t.offset, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, 64*1024)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			t.offset += int64(n)
			t.consume(string(buf[:n]))
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (t *Tailer) consume(chunk string) {
	for {
		nl := strings.IndexByte(chunk, '\n')
		if nl < 0 {
			t.partial.WriteString(chunk)
			return
		}
		t.partial.WriteString(chunk[:nl])
		line := t.partial.String()
		t.partial.Reset()
		chunk = chunk[nl+1:]

		msg, ok, err := DecodeLine(line)
		if err != nil || !ok {
			// Malformed lines are skipped; the engine prefers partial
			// reconstruction over halting the feed.
			continue
		}
		t.broker.Publish(pubsub.AppendedEvent, msg)
	}
}
