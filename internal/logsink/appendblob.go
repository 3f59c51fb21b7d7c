package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
)

type BlobConfig struct {
	AccountName string
	AccountKey  string
	Container   string
	BlobName    string        // defaults to YYYY/MM/DD/<hostname>.jsonl
	FlushEvery  time.Duration // default 2s
	Level       slog.Leveler
}

func (c BlobConfig) Enabled() bool {
	return c.AccountName != "" && c.AccountKey != ""
}

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

// BlobHandler batches JSON lines and appends them to an Azure append blob.
type BlobHandler struct {
	level  slog.Leveler
	ab     appender
	ch     chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	ticker *time.Ticker
}

func NewBlobHandler(ctx context.Context, cfg BlobConfig) (*BlobHandler, error) {
	if cfg.AccountName == "" || cfg.AccountKey == "" || cfg.Container == "" {
		return nil, errors.New("AccountName, AccountKey and Container are required")
	}

	if cfg.BlobName == "" {
		host, _ := os.Hostname()
		cfg.BlobName = BlobName(host, time.Now())
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" +
		url.PathEscape(cfg.Container) + "/" + cfg.BlobName // BlobName may include slashes; don't path-escape it.

	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, err
	}
	_, err = ab.Create(ctx, &appendblob.CreateOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: to.Ptr(azcore.ETagAny)},
		},
	})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return nil, fmt.Errorf("failed to create log blob %s: %w", cfg.BlobName, err)
	}

	return newBlobHandler(ctx, ab, cfg), nil
}

func newBlobHandler(ctx context.Context, ab appender, cfg BlobConfig) *BlobHandler {
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = 2 * time.Second
	}
	level := cfg.Level
	if level == nil {
		level = slog.LevelInfo
	}
	ctx, cancel := context.WithCancel(ctx)
	h := &BlobHandler{
		level:  level,
		ab:     ab,
		ch:     make(chan []byte, 1024),
		ctx:    ctx,
		cancel: cancel,
		ticker: time.NewTicker(cfg.FlushEvery),
	}
	h.wg.Add(1)
	go h.loop()
	return h
}

// Close flushes whatever is buffered and stops the background writer.
func (h *BlobHandler) Close() error {
	close(h.ch)
	h.wg.Wait()
	h.cancel()
	h.ticker.Stop()
	return nil
}

func (h *BlobHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *BlobHandler) Handle(_ context.Context, r slog.Record) error {
	line, err := encodeRecord(r, nil)
	if err != nil {
		return err
	}
	select {
	case h.ch <- line:
		return nil
	case <-h.ctx.Done():
		return h.ctx.Err()
	}
}

func encodeRecord(r slog.Record, extra []slog.Attr) ([]byte, error) {
	ev := make(map[string]any, r.NumAttrs()+len(extra)+3)
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev["ts"] = ts.UTC().Format(time.RFC3339Nano)
	ev["level"] = r.Level.String()
	ev["msg"] = r.Message

	add := func(a slog.Attr) bool {
		a.Value = a.Value.Resolve()
		if a.Value.Kind() == slog.KindGroup {
			m := map[string]any{}
			//only goes one level deep. do we care?
			for _, aa := range a.Value.Group() {
				aa.Value = aa.Value.Resolve()
				m[aa.Key] = aa.Value.Any()
			}
			ev[a.Key] = m
		} else if err, ok := a.Value.Any().(error); ok {
			ev[a.Key] = err.Error()
		} else {
			ev[a.Key] = a.Value.Any()
		}
		return true
	}
	for _, a := range extra {
		add(a)
	}
	r.Attrs(add)

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func (h *BlobHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &blobWithAttrs{h: h, attrs: attrs}
}

func (h *BlobHandler) WithGroup(string) slog.Handler { return h } // groups are flattened

func (h *BlobHandler) loop() {
	defer h.wg.Done()
	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		if _, err := h.ab.AppendBlock(h.ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "logsink: append failed: %v\n", err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case line, ok := <-h.ch:
			if !ok {
				flush()
				return
			}
			buf = append(buf, line...)
		case <-h.ticker.C:
			flush()
		}
	}
}

type blobWithAttrs struct {
	h     *BlobHandler
	attrs []slog.Attr
}

func (w *blobWithAttrs) Enabled(ctx context.Context, l slog.Level) bool {
	return w.h.Enabled(ctx, l)
}

func (w *blobWithAttrs) Handle(ctx context.Context, r slog.Record) error {
	line, err := encodeRecord(r, w.attrs)
	if err != nil {
		return err
	}
	select {
	case w.h.ch <- line:
		return nil
	case <-w.h.ctx.Done():
		return w.h.ctx.Err()
	}
}

func (w *blobWithAttrs) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := append(append([]slog.Attr(nil), w.attrs...), attrs...)
	return &blobWithAttrs{h: w.h, attrs: merged}
}

func (w *blobWithAttrs) WithGroup(string) slog.Handler { return w }

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
