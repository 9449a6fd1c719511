package storygate

import "strings"

// ContentCategory classifies media by file extension. It is used only to
// pick a browser-private Cache-Control policy when a response bypasses the
// shared edge cache.
type ContentCategory int

const (
	CategoryDefault ContentCategory = iota
	CategoryVideo
	CategoryAudio
	CategoryImage
	CategoryMetadata
)

// SharedCacheControl is the policy applied to responses that may enter the
// shared edge cache. Media objects are immutable once published.
const SharedCacheControl = "public, max-age=2592000, immutable"

func (c ContentCategory) String() string {
	switch c {
	case CategoryVideo:
		return "video"
	case CategoryAudio:
		return "audio"
	case CategoryImage:
		return "image"
	case CategoryMetadata:
		return "metadata"
	default:
		return "default"
	}
}

// BrowserCacheControl returns the Cache-Control policy for responses that
// must only be cached by the requesting browser, never a shared cache.
func (c ContentCategory) BrowserCacheControl() string {
	switch c {
	case CategoryVideo:
		return "private, max-age=21600"
	case CategoryAudio:
		return "private, max-age=10800"
	case CategoryImage:
		return "private, max-age=86400"
	default:
		return "private, max-age=3600"
	}
}

// Classify maps a path to its ContentCategory based on the substring after
// the last dot, case-insensitively. Unknown or missing extensions map to
// CategoryDefault.
func Classify(path string) ContentCategory {
	idx := strings.LastIndexByte(path, '.')
	if idx < 0 || idx == len(path)-1 {
		return CategoryDefault
	}

	switch strings.ToLower(path[idx+1:]) {
	case "mp4", "webm", "mov":
		return CategoryVideo
	case "mp3", "wav", "ogg", "aac":
		return CategoryAudio
	case "png", "jpg", "jpeg", "gif", "webp":
		return CategoryImage
	case "json":
		return CategoryMetadata
	default:
		return CategoryDefault
	}
}
