package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(Image{ContentType: "image/png", Size: 10}, 100))
	assert.NoError(t, Validate(Image{ContentType: "IMAGE/JPEG; charset=binary", Size: 10}, 0))
	assert.ErrorIs(t, Validate(Image{ContentType: "application/pdf", Size: 10}, 100), ErrUnsupportedImage)
	assert.ErrorIs(t, Validate(Image{ContentType: "image/webp", Size: 101}, 100), ErrImageTooLarge)
}

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir, "/uploads/")

	url, err := store.Put(context.Background(), "ticket-1", Image{
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("\x89PNG"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/reports/ticket-1/"))
	assert.True(t, strings.HasSuffix(url, ".png"))

	full := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(url, "/uploads/")))
	body, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(body))

	require.NoError(t, store.Delete(context.Background(), url))
	_, err = os.Stat(full)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(context.Background(), url), "deleting twice is not an error")
	assert.Error(t, store.Delete(context.Background(), "/uploads/../etc/passwd"))
}
