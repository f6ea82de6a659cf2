package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

// Messenger is the chat surface a session reports through. Edits may fail
// transiently; callers must not treat an edit failure as a processing
// failure.
type Messenger interface {
	// EditStatus replaces the text of the status message in place.
	EditStatus(text string) error

	// SendVideo replies with the artifact inline. Width and height may be
	// zero when unknown.
	SendVideo(path, caption string, width, height int) error

	// SendText replies with a plain text message.
	SendText(text string) error

	// DeleteStatus removes the status message.
	DeleteStatus() error
}

// DownloadContext owns the state of one in-flight operation. It is held
// exclusively by the session until terminal, then handed to cleanup. The
// worker is the only progress writer; the poller is the only reader.
type DownloadContext struct {
	URL        string
	Meta       *domain.VideoMetadata
	WorkDir    string
	TargetPath string

	progress  atomic.Pointer[domain.ProgressSnapshot]
	discarded atomic.Bool

	// resultPath and resultErr are written by the worker strictly before
	// done is closed; the poller never observes a signaled-but-empty
	// result.
	resultPath string
	resultErr  error
	done       chan struct{}
}

func newDownloadContext(url string, meta *domain.VideoMetadata, workDir string) *DownloadContext {
	return &DownloadContext{
		URL:        url,
		Meta:       meta,
		WorkDir:    workDir,
		TargetPath: filepath.Join(workDir, "video.mp4"),
		done:       make(chan struct{}),
	}
}

// publishProgress swaps in a whole snapshot. Once the context is discarded
// by cleanup, writes from an abandoned worker become no-ops.
func (c *DownloadContext) publishProgress(s *domain.ProgressSnapshot) {
	if c.discarded.Load() {
		return
	}
	c.progress.Store(s)
}

// Snapshot returns the latest complete progress snapshot, or nil.
func (c *DownloadContext) Snapshot() *domain.ProgressSnapshot {
	return c.progress.Load()
}

// Session orchestrates one URL-to-delivery run: extraction, preflight,
// background download, progress polling, postflight routing, cleanup.
type Session struct {
	cfg        *domain.DownloadConfig
	extractor  domain.Extractor
	downloader domain.Downloader
	router     *DeliveryRouter
	records    domain.RecordRepository
	logger     *zap.Logger
}

// NewSession creates a session orchestrator. records may be nil when
// history persistence is disabled.
func NewSession(
	cfg *domain.DownloadConfig,
	extractor domain.Extractor,
	downloader domain.Downloader,
	router *DeliveryRouter,
	records domain.RecordRepository,
	logger *zap.Logger,
) *Session {
	return &Session{
		cfg:        cfg,
		extractor:  extractor,
		downloader: downloader,
		router:     router,
		records:    records,
		logger:     logger,
	}
}

// Run processes a single URL end to end and reports outcomes through m.
// The working directory is reclaimed on every exit path, including panics
// propagating out of a step. The returned error is terminal; nothing is
// retried.
func (s *Session) Run(ctx context.Context, url string, m Messenger) error {
	record := domain.NewDownloadRecord(url)
	s.saveRecord(record, false)

	// A panic escaping the run must not leave the record running forever.
	defer func() {
		if r := recover(); r != nil {
			record.MarkFailed(fmt.Errorf("panic: %v", r))
			s.saveRecord(record, true)
			panic(r)
		}
	}()

	err := s.run(ctx, url, m, record)
	if err != nil {
		record.MarkFailed(err)
		s.saveRecord(record, true)
	}
	return err
}

func (s *Session) run(ctx context.Context, url string, m Messenger, record *domain.DownloadRecord) error {
	meta, err := s.extractor.Extract(ctx, url)
	if err != nil {
		if domain.KindOf(err) == domain.KindUnsupportedSource {
			s.tryEdit(m, "Sorry, this URL is not from a supported platform.\n"+
				"I can download videos from YouTube, Instagram, and Twitter/X.")
		} else {
			s.tryEdit(m, "Sorry, there was an error downloading the video.")
		}
		return err
	}

	record.Title = meta.Title
	record.Extractor = meta.Extractor

	if meta.Filesize > 0 && meta.Filesize > s.cfg.MaxFileSize() {
		s.tryEdit(m, sizeExceededMessage(meta.Filesize, s.cfg.MaxFileSize()))
		return domain.E(domain.KindSizePreflight,
			"reported size %d exceeds limit %d", meta.Filesize, s.cfg.MaxFileSize())
	}

	if err := os.MkdirAll(s.cfg.WorkDir, 0755); err != nil {
		return domain.Wrap(domain.KindDownload, err, "failed to create work root")
	}
	workDir, err := os.MkdirTemp(s.cfg.WorkDir, "dl-*")
	if err != nil {
		return domain.Wrap(domain.KindDownload, err, "failed to create working directory")
	}

	dctx := newDownloadContext(url, meta, workDir)
	s.logger.Info("Working directory created",
		zap.String("work_dir", dctx.WorkDir),
		zap.String("target", dctx.TargetPath))

	// Cleanup runs on every exit path below, panics included.
	defer s.cleanup(dctx)

	s.startWorker(ctx, dctx)
	s.pollProgress(ctx, dctx, m)

	if err := s.join(dctx); err != nil {
		return err
	}

	if dctx.resultErr != nil {
		s.tryEdit(m, "Sorry, there was an error downloading the video.")
		return domain.Wrap(domain.KindDownload, dctx.resultErr, "worker failed")
	}

	artifact, err := checkArtifact(dctx.resultPath)
	if err != nil {
		s.tryEdit(m, "Sorry, there was an error downloading the video.")
		return err
	}

	s.logger.Info("Video downloaded",
		zap.String("path", artifact.Path),
		zap.Int64("size", artifact.Size))

	route, publicURL, err := s.router.Deliver(ctx, artifact, meta, url, m)
	if err != nil {
		return err
	}

	record.MarkSucceeded(artifact.Size, route, publicURL)
	s.saveRecord(record, true)

	if err := m.DeleteStatus(); err != nil {
		s.logger.Warn("Failed to delete status message", zap.Error(err))
	}
	return nil
}

// startWorker spawns the blocking external operation on its own goroutine.
// The result slot is written strictly before the completion signal.
func (s *Session) startWorker(ctx context.Context, dctx *DownloadContext) {
	plan := domain.PlanEncode(dctx.Meta, s.cfg)
	s.logger.Info("Starting download worker",
		zap.String("url", dctx.URL),
		zap.String("vcodec", dctx.Meta.VCodec),
		zap.String("acodec", dctx.Meta.ACodec),
		zap.String("extractor", dctx.Meta.Extractor),
		zap.Bool("reencode", plan.Needed))

	go func() {
		defer close(dctx.done)
		err := s.downloader.Download(ctx, dctx.URL, dctx.TargetPath, plan, dctx.publishProgress)
		if err != nil {
			dctx.resultErr = err
			return
		}
		dctx.resultPath = dctx.TargetPath
	}()
}

// pollProgress drives user-visible status updates until the worker signals
// completion or ctx is cancelled. Edits happen only when the formatted
// text changed and at most once per edit interval.
func (s *Session) pollProgress(ctx context.Context, dctx *DownloadContext, m Messenger) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	var prevText string
	var lastEdit time.Time

	for {
		select {
		case <-dctx.done:
			return
		case <-ctx.Done():
			s.logger.Warn("Progress polling cancelled", zap.String("url", dctx.URL))
			return
		case <-ticker.C:
			if time.Since(lastEdit) < s.cfg.EditInterval {
				continue
			}
			text := domain.FormatProgress(dctx.Snapshot())
			if text == "" || text == prevText {
				continue
			}
			lastEdit = time.Now()
			prevText = text
			s.tryEdit(m, text)
		}
	}
}

// join waits for the worker with a bounded timeout. A worker that outlives
// the timeout is abandoned; cleanup discards the context so its eventual
// writes become no-ops.
func (s *Session) join(dctx *DownloadContext) error {
	select {
	case <-dctx.done:
		return nil
	case <-time.After(s.cfg.JoinTimeout):
		s.logger.Warn("Worker did not finish within join timeout, abandoning",
			zap.String("url", dctx.URL),
			zap.Duration("timeout", s.cfg.JoinTimeout))
		return domain.E(domain.KindDownload, "worker did not finish within %s", s.cfg.JoinTimeout)
	}
}

// cleanup reclaims the working directory exactly once, regardless of which
// terminal state was reached. A still-active worker gets a bounded grace
// period first. Failures are logged and never surface to the user.
func (s *Session) cleanup(dctx *DownloadContext) {
	select {
	case <-dctx.done:
	case <-time.After(s.cfg.CleanupWait):
		s.logger.Warn("Worker still active at cleanup, abandoning",
			zap.String("work_dir", dctx.WorkDir))
	}

	dctx.discarded.Store(true)

	if err := os.RemoveAll(dctx.WorkDir); err != nil {
		cerr := domain.Wrap(domain.KindCleanup, err, "failed to remove %s", dctx.WorkDir)
		s.logger.Error("Cleanup failed", zap.Error(cerr))
		return
	}
	s.logger.Debug("Working directory removed", zap.String("work_dir", dctx.WorkDir))
}

// tryEdit updates the status message, tolerating transient edit failures.
func (s *Session) tryEdit(m Messenger, text string) {
	if err := m.EditStatus(text); err != nil {
		s.logger.Warn("Failed to edit status message", zap.Error(err))
	}
}

func (s *Session) saveRecord(record *domain.DownloadRecord, update bool) {
	if s.records == nil {
		return
	}
	var err error
	if update {
		err = s.records.Update(record)
	} else {
		err = s.records.Create(record)
	}
	if err != nil {
		s.logger.Warn("Failed to persist download record",
			zap.String("id", record.ID), zap.Error(err))
	}
}

// checkArtifact verifies the worker actually produced a non-empty file.
func checkArtifact(path string) (domain.Artifact, error) {
	if path == "" {
		return domain.Artifact{}, domain.E(domain.KindDownload, "worker reported no output file")
	}
	info, err := os.Stat(path)
	if err != nil {
		return domain.Artifact{}, domain.Wrap(domain.KindDownload, err, "output file missing")
	}
	if info.Size() == 0 {
		return domain.Artifact{}, domain.E(domain.KindDownload, "output file is empty")
	}
	return domain.Artifact{Path: path, Size: info.Size()}, nil
}
