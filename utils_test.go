package storygate_test

import (
	"testing"

	"github.com/storygate/storygate"
	"github.com/stretchr/testify/assert"
)

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "private/story1.mp4", storygate.ObjectKey("/private/story1.mp4"))
	assert.Equal(t, "shared/cover.jpg", storygate.ObjectKey("/shared/cover.jpg"))
	assert.Equal(t, "no-slash.json", storygate.ObjectKey("no-slash.json"))
}

func TestIsValidKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"simple file", "file.mp4", true},
		{"nested path", "private/story1.mp4", true},
		{"deeply nested", "a/b/c/d.json", true},
		{"empty", "", false},
		{"root", "/", false},
		{"dot", ".", false},
		{"absolute", "/file.mp4", false},
		{"trailing slash", "dir/", false},
		{"traversal", "../etc/passwd", false},
		{"embedded traversal", "a/../b", false},
		{"double slash", "a//b", false},
		{"backslash", `a\b`, false},
		{"question mark", "a?b", false},
		{"hash", "a#b", false},
		{"tilde", "a~b", false},
		{"dot segment", "a/./b", false},
		{"trailing dot segment", "a/.", false},
		{"whitespace", "a b", false},
		{"control char", "a\x01b", false},
		{"null byte", "a\x00b", false},
		{"unicode", "日記/p1.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, storygate.IsValidKey(tt.key))
		})
	}
}
