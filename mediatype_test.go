package storygate_test

import (
	"testing"

	"github.com/storygate/storygate"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want storygate.ContentCategory
	}{
		{"a/b/c.mp4", storygate.CategoryVideo},
		{"a/b/c.MP4", storygate.CategoryVideo},
		{"clip.webm", storygate.CategoryVideo},
		{"clip.mov", storygate.CategoryVideo},
		{"narration.mp3", storygate.CategoryAudio},
		{"narration.WAV", storygate.CategoryAudio},
		{"narration.ogg", storygate.CategoryAudio},
		{"narration.aac", storygate.CategoryAudio},
		{"cover.png", storygate.CategoryImage},
		{"cover.jpg", storygate.CategoryImage},
		{"cover.JPEG", storygate.CategoryImage},
		{"cover.gif", storygate.CategoryImage},
		{"cover.webp", storygate.CategoryImage},
		{"story.json", storygate.CategoryMetadata},
		{"a/b/c", storygate.CategoryDefault},
		{"archive.tar.gz", storygate.CategoryDefault},
		{"README.txt", storygate.CategoryDefault},
		{"trailing.", storygate.CategoryDefault},
		{"", storygate.CategoryDefault},
		{"dir.mp4/file", storygate.CategoryDefault},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, storygate.Classify(tt.path))
		})
	}
}

func TestContentCategory_String(t *testing.T) {
	assert.Equal(t, "video", storygate.CategoryVideo.String())
	assert.Equal(t, "audio", storygate.CategoryAudio.String())
	assert.Equal(t, "image", storygate.CategoryImage.String())
	assert.Equal(t, "metadata", storygate.CategoryMetadata.String())
	assert.Equal(t, "default", storygate.CategoryDefault.String())
}

func TestContentCategory_BrowserCacheControl(t *testing.T) {
	tests := []struct {
		category storygate.ContentCategory
		want     string
	}{
		{storygate.CategoryVideo, "private, max-age=21600"},
		{storygate.CategoryAudio, "private, max-age=10800"},
		{storygate.CategoryImage, "private, max-age=86400"},
		{storygate.CategoryMetadata, "private, max-age=3600"},
		{storygate.CategoryDefault, "private, max-age=3600"},
	}

	for _, tt := range tests {
		t.Run(tt.category.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.category.BrowserCacheControl())
		})
	}
}
