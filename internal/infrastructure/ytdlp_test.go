package infrastructure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/minya/videodlbot/internal/domain"
)

func testClient(cfg *domain.DownloadConfig) *YtdlpClient {
	return NewYtdlpClient(cfg, false, zap.NewNop())
}

func TestParseProgressLine_Downloading(t *testing.T) {
	line := `__dl:{"status":"downloading","downloaded_bytes":52428800,"total_bytes":104857600,"speed":1048576,"eta":60,"filename":"clip.mp4"}`

	snapshot, ok := parseProgressLine(line)
	require.True(t, ok)

	assert.Equal(t, domain.StageDownloading, snapshot.Stage)
	assert.Equal(t, int64(52428800), snapshot.DownloadedBytes)
	assert.Equal(t, int64(104857600), snapshot.TotalBytes)
	assert.Equal(t, float64(1048576), snapshot.Speed)
	assert.Equal(t, float64(60), snapshot.ETASeconds)
	assert.Equal(t, "clip.mp4", snapshot.Filename)
}

func TestParseProgressLine_EstimateFallback(t *testing.T) {
	line := `__dl:{"status":"downloading","downloaded_bytes":1024,"total_bytes_estimate":4096}`

	snapshot, ok := parseProgressLine(line)
	require.True(t, ok)
	assert.Equal(t, int64(4096), snapshot.TotalBytes)
}

func TestParseProgressLine_Finished(t *testing.T) {
	snapshot, ok := parseProgressLine(`__dl:{"status":"finished","downloaded_bytes":4096}`)
	require.True(t, ok)
	assert.Equal(t, domain.StageFinished, snapshot.Stage)
}

func TestParseProgressLine_Postprocess(t *testing.T) {
	snapshot, ok := parseProgressLine(`__pp:{"status":"started","postprocessor":"VideoConvertor"}`)
	require.True(t, ok)

	assert.Equal(t, domain.StagePostprocessing, snapshot.Stage)
	assert.Equal(t, "VideoConvertor", snapshot.Postprocessor)
	assert.Equal(t, "started", snapshot.Status)
}

func TestParseProgressLine_NullFields(t *testing.T) {
	line := `__dl:{"status":"downloading","downloaded_bytes":1024,"total_bytes":null,"speed":null,"eta":null}`

	snapshot, ok := parseProgressLine(line)
	require.True(t, ok)
	assert.Equal(t, int64(0), snapshot.TotalBytes)
	assert.Equal(t, float64(0), snapshot.Speed)
}

func TestParseProgressLine_Ignored(t *testing.T) {
	for _, line := range []string{
		"",
		"[download] Destination: clip.mp4",
		"__dl:not-json",
		"__pp:{broken",
		"WARNING: unable to obtain file audio codec",
	} {
		_, ok := parseProgressLine(line)
		assert.False(t, ok, "line %q should be ignored", line)
	}
}

func TestDownloadArgs_NoReencode(t *testing.T) {
	cfg := &domain.DownloadConfig{YTDLPBinary: "yt-dlp", AgeLimit: 21}
	client := testClient(cfg)

	args := client.downloadArgs("https://example.com/v", "/tmp/out.mp4", domain.EncodePlan{})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "--merge-output-format mp4")
	assert.Contains(t, joined, "--remux-video mp4")
	assert.Contains(t, joined, "download:__dl:%(progress)j")
	assert.Contains(t, joined, "postprocess:__pp:%(progress)j")
	assert.NotContains(t, joined, "--recode-video")
	assert.NotContains(t, joined, "VideoConvertor")
	// URL comes last
	assert.Equal(t, "https://example.com/v", args[len(args)-1])
}

func TestDownloadArgs_WithReencode(t *testing.T) {
	cfg := &domain.DownloadConfig{YTDLPBinary: "yt-dlp"}
	client := testClient(cfg)

	plan := domain.EncodePlan{Needed: true, VCodec: "h264", ACodec: "aac"}
	args := client.downloadArgs("https://example.com/v", "/tmp/out.mp4", plan)
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "--recode-video mp4")
	assert.Contains(t, joined, "VideoConvertor:-c:v h264 -c:a aac")
}

func TestCommonArgs_Cookies(t *testing.T) {
	withCookies := testClient(&domain.DownloadConfig{CookieFile: "/etc/cookies.txt"})
	joined := strings.Join(withCookies.commonArgs(), " ")
	assert.Contains(t, joined, "--cookies /etc/cookies.txt")

	without := testClient(&domain.DownloadConfig{})
	assert.NotContains(t, strings.Join(without.commonArgs(), " "), "--cookies")
}

func TestCommonArgs_DebugVerbosity(t *testing.T) {
	quiet := testClient(&domain.DownloadConfig{})
	assert.Contains(t, quiet.commonArgs(), "--quiet")

	verbose := NewYtdlpClient(&domain.DownloadConfig{}, true, zap.NewNop())
	assert.Contains(t, verbose.commonArgs(), "--verbose")
}

func TestClassifyExtractError(t *testing.T) {
	err := classifyExtractError(assert.AnError, "ERROR: Unsupported URL: https://example.com/page")
	assert.Equal(t, domain.KindUnsupportedSource, domain.KindOf(err))

	err = classifyExtractError(assert.AnError, "ERROR: HTTP Error 403")
	assert.Equal(t, domain.KindExtraction, domain.KindOf(err))
}

func TestTail(t *testing.T) {
	assert.Equal(t, "short", tail("short", 300))
	long := strings.Repeat("x", 400)
	got := tail(long, 300)
	assert.True(t, strings.HasPrefix(got, "..."))
	assert.Len(t, got, 303)
}
