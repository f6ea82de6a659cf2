package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

// formatSelector prefers a ready-made mp4, then an mp4 video with best
// audio, then whatever merges best.
const formatSelector = "best[ext=mp4]/bestvideo[ext=mp4]+bestaudio/best/bestvideo+bestaudio"

// Progress lines are tagged so they can be picked out of the rest of the
// yt-dlp output.
const (
	dlLinePrefix = "__dl:"
	ppLinePrefix = "__pp:"
)

// YtdlpClient drives the external yt-dlp binary. It implements both
// domain.Extractor (metadata-only dump) and domain.Downloader (download,
// merge, conditional re-encode).
type YtdlpClient struct {
	cfg    *domain.DownloadConfig
	debug  bool
	logger *zap.Logger
}

// NewYtdlpClient creates a yt-dlp client
func NewYtdlpClient(cfg *domain.DownloadConfig, debug bool, logger *zap.Logger) *YtdlpClient {
	return &YtdlpClient{
		cfg:    cfg,
		debug:  debug,
		logger: logger,
	}
}

// infoJSON is the subset of the yt-dlp -J dump this bot reads.
type infoJSON struct {
	Type           string            `json:"_type"`
	Title          string            `json:"title"`
	Extractor      string            `json:"extractor"`
	VCodec         string            `json:"vcodec"`
	ACodec         string            `json:"acodec"`
	Filesize       int64             `json:"filesize"`
	FilesizeApprox int64             `json:"filesize_approx"`
	Width          int               `json:"width"`
	Height         int               `json:"height"`
	Ext            string            `json:"ext"`
	Entries        []json.RawMessage `json:"entries"`
}

// Extract performs a metadata-only extraction: a single synchronous call,
// no bytes transferred.
func (c *YtdlpClient) Extract(ctx context.Context, url string) (*domain.VideoMetadata, error) {
	args := c.commonArgs()
	args = append(args, "-J", "--flat-playlist", url)

	c.logger.Info("Extracting video information", zap.String("url", url))

	cmd := exec.CommandContext(ctx, c.cfg.YTDLPBinary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyExtractError(err, stderr.String())
	}

	out := bytes.TrimSpace(stdout.Bytes())
	if len(out) == 0 {
		return nil, domain.E(domain.KindExtraction, "yt-dlp returned no metadata for %s", url)
	}

	var info infoJSON
	if err := json.Unmarshal(out, &info); err != nil {
		return nil, domain.Wrap(domain.KindExtraction, err, "failed to parse yt-dlp metadata")
	}

	if info.Type == "playlist" || len(info.Entries) > 0 {
		return nil, domain.E(domain.KindExtraction, "expected a single item, got a playlist")
	}

	meta := &domain.VideoMetadata{
		Title:     info.Title,
		Extractor: info.Extractor,
		VCodec:    info.VCodec,
		ACodec:    info.ACodec,
		Filesize:  info.Filesize,
		Width:     info.Width,
		Height:    info.Height,
		Ext:       info.Ext,
	}
	if meta.Filesize == 0 {
		meta.Filesize = info.FilesizeApprox
	}
	return meta, nil
}

// classifyExtractError distinguishes URLs yt-dlp has no extractor for from
// ordinary extraction failures.
func classifyExtractError(err error, stderr string) error {
	if strings.Contains(stderr, "Unsupported URL") || strings.Contains(stderr, "is not a valid URL") {
		return domain.Wrap(domain.KindUnsupportedSource, err, "no extractor accepts this URL")
	}
	return domain.Wrap(domain.KindExtraction, err, "yt-dlp extraction failed: %s", tail(stderr, 300))
}

// Download runs the blocking download+merge+(conditional re-encode)
// operation, streaming tagged progress lines into whole snapshots.
func (c *YtdlpClient) Download(
	ctx context.Context,
	url, outputPath string,
	plan domain.EncodePlan,
	onProgress domain.ProgressFunc,
) error {
	if onProgress == nil {
		onProgress = func(*domain.ProgressSnapshot) {}
	}

	args := c.downloadArgs(url, outputPath, plan)
	c.logger.Info("Starting yt-dlp download",
		zap.String("url", url),
		zap.String("output", outputPath),
		zap.Bool("reencode", plan.Needed))

	cmd := exec.CommandContext(ctx, c.cfg.YTDLPBinary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open yt-dlp stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start yt-dlp: %w", err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if snapshot, ok := parseProgressLine(line); ok {
			onProgress(snapshot)
		} else if c.debug {
			c.logger.Debug("yt-dlp output", zap.String("line", line))
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("yt-dlp failed: %w: %s", err, tail(stderr.String(), 300))
	}
	return nil
}

// downloadArgs builds the yt-dlp invocation. The container is always
// normalized to mp4; a forced stream re-encode is appended only when the
// codec decision requires it.
func (c *YtdlpClient) downloadArgs(url, outputPath string, plan domain.EncodePlan) []string {
	args := c.commonArgs()
	args = append(args,
		"-o", outputPath,
		"--merge-output-format", "mp4",
		"--remux-video", "mp4",
		"--newline",
		"--progress",
		"--progress-template", "download:"+dlLinePrefix+"%(progress)j",
		"--progress-template", "postprocess:"+ppLinePrefix+"%(progress)j",
	)

	if plan.Needed {
		args = append(args,
			"--recode-video", "mp4",
			"--postprocessor-args",
			fmt.Sprintf("VideoConvertor:-c:v %s -c:a %s", plan.VCodec, plan.ACodec),
		)
	}

	args = append(args, url)
	return args
}

// commonArgs holds the flags shared by extraction and download runs.
func (c *YtdlpClient) commonArgs() []string {
	args := []string{
		"-f", formatSelector,
		"--age-limit", fmt.Sprintf("%d", c.cfg.AgeLimit),
		"--geo-bypass",
		"--force-ipv6",
	}
	if c.debug {
		args = append(args, "--verbose")
	} else {
		args = append(args, "--quiet", "--no-warnings")
	}
	if c.cfg.CookieFile != "" {
		args = append(args, "--cookies", c.cfg.CookieFile)
	}
	return args
}

// progressPayload mirrors the yt-dlp progress dict. Numeric fields may be
// null in the JSON; decoding leaves them zero.
type progressPayload struct {
	Status             string  `json:"status"`
	DownloadedBytes    float64 `json:"downloaded_bytes"`
	TotalBytes         float64 `json:"total_bytes"`
	TotalBytesEstimate float64 `json:"total_bytes_estimate"`
	Speed              float64 `json:"speed"`
	ETA                float64 `json:"eta"`
	Filename           string  `json:"filename"`
	Postprocessor      string  `json:"postprocessor"`
}

// parseProgressLine maps one tagged output line to a progress snapshot.
// Untagged lines and unparseable payloads are ignored.
func parseProgressLine(line string) (*domain.ProgressSnapshot, bool) {
	line = strings.TrimSpace(line)

	switch {
	case strings.HasPrefix(line, dlLinePrefix):
		var p progressPayload
		if err := json.Unmarshal([]byte(line[len(dlLinePrefix):]), &p); err != nil {
			return nil, false
		}
		if p.Status == "finished" {
			return &domain.ProgressSnapshot{Stage: domain.StageFinished}, true
		}
		total := p.TotalBytes
		if total == 0 {
			total = p.TotalBytesEstimate
		}
		return &domain.ProgressSnapshot{
			Stage:           domain.StageDownloading,
			DownloadedBytes: int64(p.DownloadedBytes),
			TotalBytes:      int64(total),
			Speed:           p.Speed,
			ETASeconds:      p.ETA,
			Filename:        p.Filename,
		}, true

	case strings.HasPrefix(line, ppLinePrefix):
		var p progressPayload
		if err := json.Unmarshal([]byte(line[len(ppLinePrefix):]), &p); err != nil {
			return nil, false
		}
		return &domain.ProgressSnapshot{
			Stage:         domain.StagePostprocessing,
			Postprocessor: p.Postprocessor,
			Status:        p.Status,
		}, true
	}

	return nil, false
}

// tail returns the last n bytes of s for compact error messages.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
