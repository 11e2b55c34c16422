package dbmongo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyURL(t *testing.T) {
	assert.Equal(t, "video", ClassifyURL("https://cdn.example.com/clip.mp4"))
	assert.Equal(t, "image", ClassifyURL("https://cdn.example.com/photo.png"))
	assert.Equal(t, "image", ClassifyURL("https://cdn.example.com/photo.jpg"))
	assert.Equal(t, "image", ClassifyURL("https://cdn.example.com/no-extension"))
}
