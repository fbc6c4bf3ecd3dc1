package movies

import (
	"path/filepath"
	"strings"
)

const (
	MimeMP4      = "video/mp4"
	MimeMatroska = "video/x-matroska"
	MimeAVI      = "video/x-msvideo"
	MimeWebM     = "video/webm"
	// MimeOther marks a container that is not in the mapping table.
	MimeOther = "application/octet-stream"
)

// MimeClass tells the ingestion workflow whether a source must be re-encoded
// to become playable.
type MimeClass int

const (
	// MimeUnknown containers always get a canonical transcode.
	MimeUnknown MimeClass = iota
	// MimeKnownAlternate containers are recognised but not the playback target.
	MimeKnownAlternate
	// MimeCanonical is the playback target container.
	MimeCanonical
)

func (c MimeClass) String() string {
	switch c {
	case MimeCanonical:
		return "canonical"
	case MimeKnownAlternate:
		return "known_alternate"
	default:
		return "unknown"
	}
}

// MimeTypeFromFormat maps an ffprobe format_name (a comma separated list of
// demuxer names) to a MIME type.
func MimeTypeFromFormat(formatName string) string {
	f := strings.ToLower(formatName)
	switch {
	case strings.Contains(f, "mp4"):
		return MimeMP4
	case strings.Contains(f, "matroska"):
		return MimeMatroska
	case strings.Contains(f, "avi"):
		return MimeAVI
	case strings.Contains(f, "webm"):
		return MimeWebM
	default:
		return MimeOther
	}
}

// ClassifyMime sorts a MIME type into canonical, known alternate or unknown.
func ClassifyMime(mime string) MimeClass {
	switch mime {
	case MimeMP4:
		return MimeCanonical
	case MimeMatroska, MimeAVI, MimeWebM:
		return MimeKnownAlternate
	default:
		return MimeUnknown
	}
}

var mimeExtensions = map[string]string{
	MimeMP4:      ".mp4",
	MimeMatroska: ".mkv",
	MimeAVI:      ".avi",
	MimeWebM:     ".webm",
}

// sourceExtension keeps the uploaded file's extension, falling back to one
// derived from the probed MIME type.
func sourceExtension(originalName, mime string) string {
	if ext := strings.ToLower(filepath.Ext(originalName)); ext != "" && len(ext) <= 8 {
		return ext
	}
	if ext, ok := mimeExtensions[mime]; ok {
		return ext
	}
	return ".bin"
}

// isImageFormat reports still-image demuxers that ffprobe reports with a
// single "video" stream.
func isImageFormat(formatName string) bool {
	f := strings.ToLower(formatName)
	return strings.Contains(f, "image") ||
		strings.Contains(f, "png") ||
		strings.HasSuffix(f, "_pipe") ||
		f == "mjpeg"
}
