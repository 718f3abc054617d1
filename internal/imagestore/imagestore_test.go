package imagestore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyIsContentAddressed(t *testing.T) {
	a := objectKey([]byte("image-bytes"), "image/jpeg")
	b := objectKey([]byte("image-bytes"), "image/jpeg")
	c := objectKey([]byte("other-bytes"), "image/jpeg")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".png", extensionFor("image/png"))
	assert.Equal(t, ".webp", extensionFor("image/webp"))
	assert.Equal(t, ".jpg", extensionFor("image/jpeg"))
	assert.Equal(t, ".jpg", extensionFor("application/octet-stream"))
}
