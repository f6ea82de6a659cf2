package domain

import "strings"

// compatibleVideo holds the normalized video codec families the chat
// transport plays without re-encoding.
var compatibleVideo = map[string]bool{
	"h264": true,
	"h265": true,
	"avc1": true,
	"av01": true,
}

// compatibleAudio holds the literal audio codec identifiers accepted
// without re-encoding.
var compatibleAudio = map[string]bool{
	"aac":        true,
	"mp4a.40.2":  true,
	"mp4a.40.5":  true,
	"mp4a.40.29": true,
}

// normalizeVCodec reduces a raw video codec identifier to its family name.
// Unknown identifiers pass through unchanged and fail the compatibility
// lookup.
func normalizeVCodec(vcodec string) string {
	switch {
	case strings.HasPrefix(vcodec, "avc1"):
		return "h264"
	case strings.HasPrefix(vcodec, "av01"):
		return "av01"
	case strings.HasPrefix(vcodec, "hvc1"):
		return "h265"
	case strings.HasPrefix(vcodec, "hevc"):
		return "h265"
	case strings.HasPrefix(vcodec, "h264"):
		return "h264"
	case strings.HasPrefix(vcodec, "h265"):
		return "h265"
	}
	return vcodec
}

// NeedConvertVideo reports whether the video stream must be re-encoded
// before delivery. An empty or unrecognized codec always converts.
func NeedConvertVideo(vcodec string) bool {
	if vcodec == "" {
		return true
	}
	return !compatibleVideo[normalizeVCodec(vcodec)]
}

// NeedConvertAudio reports whether the audio stream must be re-encoded
// before delivery.
func NeedConvertAudio(acodec string) bool {
	return !compatibleAudio[acodec]
}

// EncodePlan describes the re-encode decision for one artifact. Video and
// audio are decided independently: a stream that is already compatible is
// copied, not transcoded.
type EncodePlan struct {
	Needed bool
	VCodec string // ffmpeg -c:v argument
	ACodec string // ffmpeg -c:a argument
}

// PlanEncode makes the re-encode decision for an artifact. Conversion is
// requested only for extractors on the force list; everything else is
// treated as already compatible regardless of the reported codecs.
func PlanEncode(m *VideoMetadata, cfg *DownloadConfig) EncodePlan {
	if !cfg.ForceReencode(m.Extractor) {
		return EncodePlan{}
	}

	cv := NeedConvertVideo(m.VCodec)
	ca := NeedConvertAudio(m.ACodec)
	if !cv && !ca {
		return EncodePlan{}
	}

	plan := EncodePlan{Needed: true, VCodec: "copy", ACodec: "copy"}
	if cv {
		plan.VCodec = "libx264"
	}
	if ca {
		plan.ACodec = "aac"
	}
	return plan
}
