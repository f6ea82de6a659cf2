package domain

import "net/url"

// VideoMetadata is the result of metadata extraction for a single media
// resource. Immutable after creation.
type VideoMetadata struct {
	Title     string
	Extractor string
	VCodec    string
	ACodec    string
	Filesize  int64 // 0 when the extractor does not report a size
	Width     int
	Height    int
	Ext       string
}

// Artifact is the final media file produced by a download operation.
// Created by the worker on success, consumed by delivery, deleted by
// cleanup. Never deleted before delivery completes.
type Artifact struct {
	Path string
	Size int64
}

// IsValidURL reports whether s parses as an absolute http(s) URL.
func IsValidURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}
