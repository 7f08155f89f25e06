package service

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/application/port"
	"github.com/MuhammadAhmed787/daily-activity-app-sub000/internal/domain/entity"
)

const (
	archiveModeSequential = "sequential"
	archiveModeParallel   = "parallel"
)

// ArchiveOptions configures one packaging strategy
type ArchiveOptions struct {
	// MaxTotalBytes rejects the request before any download when the summed sizes exceed it. Zero disables the check.
	MaxTotalBytes int64
	// SoftCapBytes stops adding entries once this many bytes were written. Zero disables the cap.
	SoftCapBytes int64
	// Timeout bounds the whole packaging run. Zero disables it.
	Timeout time.Duration
	// Parallelism above one fetches entries concurrently and skips failures.
	Parallelism int
	// Store writes entries uncompressed.
	Store bool
}

// SequentialArchiveOptions is the guarded single-category strategy
func SequentialArchiveOptions() ArchiveOptions {
	return ArchiveOptions{
		MaxTotalBytes: 20 << 20,
		SoftCapBytes:  15 << 20,
		Timeout:       8 * time.Second,
		Parallelism:   1,
	}
}

// BulkArchiveOptions is the concurrent all-or-selected strategy
func BulkArchiveOptions() ArchiveOptions {
	return ArchiveOptions{
		Timeout:     60 * time.Second,
		Parallelism: 8,
		Store:       true,
	}
}

// Archive is a finished zip held in memory
type Archive struct {
	Name      string
	Data      []byte
	Entries   []string
	Skipped   []string
	Truncated bool
}

// ArchiveSource resolves attachment references for packaging
type ArchiveSource interface {
	Stat(ctx context.Context, ref entity.AttachmentRef) (*AttachmentInfo, error)
	Open(ctx context.Context, ref entity.AttachmentRef) (io.ReadCloser, *AttachmentInfo, error)
}

// ArchivePackager zips attachment lists under size and time guards
type ArchivePackager struct {
	source  ArchiveSource
	opts    ArchiveOptions
	metrics port.Metrics
	logger  Logger
}

// NewArchivePackager creates a packager using opts
func NewArchivePackager(source ArchiveSource, opts ArchiveOptions, metrics port.Metrics, logger Logger) *ArchivePackager {
	if metrics == nil {
		metrics = port.NopMetrics{}
	}
	return &ArchivePackager{source: source, opts: opts, metrics: metrics, logger: logger}
}

// Options returns the packaging options
func (p *ArchivePackager) Options() ArchiveOptions {
	return p.opts
}

func (p *ArchivePackager) mode() string {
	if p.opts.Parallelism > 1 {
		return archiveModeParallel
	}
	return archiveModeSequential
}

type archiveResult struct {
	archive *Archive
	err     error
}

// Package builds a zip named name from refs. It fails with ArchiveError when nothing
// can be packaged, when the total is over the limit, or when the timeout fires first.
func (p *ArchivePackager) Package(ctx context.Context, name string, refs []entity.AttachmentRef) (*Archive, error) {
	archive, err := p.run(ctx, name, refs)
	p.metrics.ArchiveBuilt(p.mode(), archiveOutcome(err))
	if err != nil {
		p.logger.Error("Archive failed", "error", err, "name", name, "refs", len(refs))
		return nil, err
	}
	p.logger.Info("Archive built", "name", name, "entries", len(archive.Entries),
		"skipped", len(archive.Skipped), "bytes", len(archive.Data), "truncated", archive.Truncated)
	return archive, nil
}

func (p *ArchivePackager) run(ctx context.Context, name string, refs []entity.AttachmentRef) (*Archive, error) {
	if len(refs) == 0 {
		return nil, &ArchiveError{Kind: ArchiveEmpty}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var timeout <-chan time.Time
	if p.opts.Timeout > 0 {
		timer := time.NewTimer(p.opts.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	done := make(chan archiveResult, 1)
	go func() {
		archive, err := p.build(runCtx, name, refs)
		done <- archiveResult{archive: archive, err: err}
	}()

	select {
	case res := <-done:
		return res.archive, res.err
	case <-timeout:
		return nil, &ArchiveError{Kind: ArchiveTimeout, Timeout: p.opts.Timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type archiveItem struct {
	index int
	ref   entity.AttachmentRef
	info  *AttachmentInfo
}

func (p *ArchivePackager) build(ctx context.Context, name string, refs []entity.AttachmentRef) (*Archive, error) {
	archive := &Archive{Name: name}

	items := make([]archiveItem, 0, len(refs))
	var total int64
	for i, ref := range refs {
		info, err := p.source.Stat(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			p.logger.Error("Skipping attachment", "error", err, "ref", ref.Value)
			archive.Skipped = append(archive.Skipped, ref.Value)
			continue
		}
		total += info.Size
		items = append(items, archiveItem{index: i, ref: ref, info: info})
	}

	if len(items) == 0 {
		return nil, &ArchiveError{Kind: ArchiveEmpty}
	}
	if p.opts.MaxTotalBytes > 0 && total > p.opts.MaxTotalBytes {
		return nil, &ArchiveError{Kind: ArchiveTooLarge, Size: total, Limit: p.opts.MaxTotalBytes}
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := newEntryNamer()

	var err error
	if p.opts.Parallelism > 1 {
		err = p.writeParallel(ctx, zw, names, items, archive)
	} else {
		err = p.writeSequential(ctx, zw, names, items, archive)
	}
	if err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if len(archive.Entries) == 0 {
		return nil, &ArchiveError{Kind: ArchiveEmpty}
	}

	archive.Data = buf.Bytes()
	return archive, nil
}

func (p *ArchivePackager) writeSequential(ctx context.Context, zw *zip.Writer, names *entryNamer, items []archiveItem, archive *Archive) error {
	var written int64
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.opts.SoftCapBytes > 0 && written >= p.opts.SoftCapBytes {
			archive.Truncated = true
			for _, rest := range items[i:] {
				archive.Skipped = append(archive.Skipped, rest.ref.Value)
			}
			break
		}

		entry := names.next(item)
		n, err := p.copyEntry(ctx, zw, entry, item.ref)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error("Skipping attachment", "error", err, "ref", item.ref.Value)
			archive.Skipped = append(archive.Skipped, item.ref.Value)
			continue
		}
		written += n
		archive.Entries = append(archive.Entries, entry)
	}
	return nil
}

func (p *ArchivePackager) copyEntry(ctx context.Context, zw *zip.Writer, entry string, ref entity.AttachmentRef) (int64, error) {
	rc, _, err := p.source.Open(ctx, ref)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	w, err := zw.CreateHeader(p.header(entry))
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	return io.Copy(w, rc)
}

type fetched struct {
	data []byte
	err  error
}

func (p *ArchivePackager) writeParallel(ctx context.Context, zw *zip.Writer, names *entryNamer, items []archiveItem, archive *Archive) error {
	results := make([]fetched, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			rc, _, err := p.source.Open(gctx, item.ref)
			if err != nil {
				results[i] = fetched{err: err}
				return nil
			}
			defer rc.Close()
			data, err := io.ReadAll(rc)
			results[i] = fetched{data: data, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}

	for i, item := range items {
		if results[i].err != nil {
			p.logger.Error("Skipping attachment", "error", results[i].err, "ref", item.ref.Value)
			archive.Skipped = append(archive.Skipped, item.ref.Value)
			continue
		}
		entry := names.next(item)
		w, err := zw.CreateHeader(p.header(entry))
		if err != nil {
			return fmt.Errorf("create entry: %w", err)
		}
		if _, err := w.Write(results[i].data); err != nil {
			return fmt.Errorf("write entry: %w", err)
		}
		archive.Entries = append(archive.Entries, entry)
	}
	return nil
}

func (p *ArchivePackager) header(entry string) *zip.FileHeader {
	h := &zip.FileHeader{Name: entry, Method: zip.Deflate, Modified: time.Now()}
	if p.opts.Store {
		h.Method = zip.Store
	}
	return h
}

// entryNamer yields unique entry names, falling back to file-{n} for unnamed attachments
type entryNamer struct {
	used map[string]bool
}

func newEntryNamer() *entryNamer {
	return &entryNamer{used: make(map[string]bool)}
}

func (n *entryNamer) next(item archiveItem) string {
	name := ""
	if item.info != nil {
		name = path.Base(strings.ReplaceAll(strings.TrimSpace(item.info.Name), "\\", "/"))
	}
	if name == "" || name == "." || name == "/" {
		name = fmt.Sprintf("file-%d", item.index+1)
	}

	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	candidate := name
	for i := 2; n.used[candidate]; i++ {
		candidate = fmt.Sprintf("%s (%d)%s", base, i, ext)
	}
	n.used[candidate] = true
	return candidate
}

func archiveOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	if ae, ok := AsArchiveError(err); ok {
		return string(ae.Kind)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "cancelled"
	}
	return "error"
}
