package domain

import (
	"fmt"
	"path/filepath"
)

// ProgressStage discriminates the progress snapshot variants.
type ProgressStage int

const (
	StageUnset ProgressStage = iota
	StageDownloading
	StageFinished
	StagePostprocessing
)

// ProgressSnapshot is an immutable point-in-time description of an
// in-flight operation. The worker publishes whole snapshots through an
// atomic holder; readers never observe partial updates.
type ProgressSnapshot struct {
	Stage ProgressStage

	// Downloading fields
	DownloadedBytes int64
	TotalBytes      int64
	Speed           float64 // bytes per second, <= 0 when unknown
	ETASeconds      float64
	Filename        string

	// Postprocessing fields
	Postprocessor string
	Status        string
}

// FormatProgress renders a snapshot as user-visible status text.
// Deterministic, no filesystem or network access. Returns "" for snapshots
// that carry nothing worth showing.
func FormatProgress(s *ProgressSnapshot) string {
	if s == nil {
		return ""
	}

	switch s.Stage {
	case StageDownloading:
		filename := filepath.Base(s.Filename)
		if filename == "." || filename == "/" {
			filename = "video"
		}

		speedMiB := s.Speed / float64(BytesPerMiB)
		speedStr := "N/A"
		if speedMiB > 0 {
			speedStr = fmt.Sprintf("%.2f MiB/s", speedMiB)
		}

		percent := 0.0
		if s.TotalBytes > 0 {
			percent = float64(s.DownloadedBytes) / float64(s.TotalBytes) * 100
		}

		return fmt.Sprintf("Downloading %s...\t[%.2f%%]\n"+
			"Downloaded: %.2f MiB at %s\n"+
			"Total: %.2f MiB\n"+
			"ETA: %.0f seconds",
			filename, percent,
			float64(s.DownloadedBytes)/float64(BytesPerMiB), speedStr,
			float64(s.TotalBytes)/float64(BytesPerMiB),
			s.ETASeconds)

	case StageFinished:
		return "Download complete. Processing video..."

	case StagePostprocessing:
		pp := s.Postprocessor
		if pp == "" {
			pp = "unknown postprocessor"
		}
		status := s.Status
		if status == "" {
			status = "unknown status"
		}
		return fmt.Sprintf("Postprocessing with %s...\nStatus: %s", pp, status)
	}

	return ""
}
