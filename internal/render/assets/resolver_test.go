package assets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func writeAsset(t *testing.T, root, name string, data []byte) {
	t.Helper()
	assert.NoError(t, os.WriteFile(filepath.Join(root, name), data, 0644))
}

func TestResolveRemoteURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpeg-bytes"))
	}))
	defer server.Close()

	resolver := NewResolver(server.Client(), t.TempDir(), nil)
	asset := resolver.Resolve(context.Background(), server.URL+"/hero.jpg", "")

	assert.False(t, asset.Empty())
	assert.Equal(t, "image/jpeg", asset.MIME)
	assert.Equal(t, []byte("jpeg-bytes"), asset.Bytes)
	assert.True(t, strings.HasPrefix(asset.DataURI(), "data:image/jpeg;base64,"))
}

func TestResolveRemoteFailureFallsBackToLocal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	root := t.TempDir()
	writeAsset(t, root, "hero.jpg", []byte("local-bytes"))

	resolver := NewResolver(server.Client(), root, nil)
	asset := resolver.Resolve(context.Background(), server.URL+"/hero.jpg", "")

	assert.Equal(t, []byte("local-bytes"), asset.Bytes)
	assert.Equal(t, "image/jpeg", asset.MIME)
}

func TestResolveLocalPathStripsQueryAndFragment(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "cover.png", []byte("png-bytes"))

	resolver := NewResolver(nil, root, nil)
	asset := resolver.Resolve(context.Background(), "cover.png?v=3#top", "")

	assert.Equal(t, []byte("png-bytes"), asset.Bytes)
	assert.Equal(t, "image/png", asset.MIME)
}

func TestResolveUsesFallbackPath(t *testing.T) {
	root := t.TempDir()
	writeAsset(t, root, "placeholder.png", []byte("placeholder"))

	resolver := NewResolver(nil, root, nil)
	asset := resolver.Resolve(context.Background(), "missing.png", "placeholder.png")

	assert.Equal(t, []byte("placeholder"), asset.Bytes)
}

func TestResolveEverythingMissingIsEmpty(t *testing.T) {
	resolver := NewResolver(nil, t.TempDir(), nil)

	asset := resolver.Resolve(context.Background(), "http://127.0.0.1:1/hero.png", "missing.png")

	assert.True(t, asset.Empty())
	assert.Equal(t, "", asset.DataURI())
}

func TestMimeFromExtension(t *testing.T) {
	assert.Equal(t, "image/png", mimeFromExtension("a.PNG"))
	assert.Equal(t, "image/jpeg", mimeFromExtension("a.jpg"))
	assert.Equal(t, "image/jpeg", mimeFromExtension("a.jpeg?v=1"))
	assert.Equal(t, "image/webp", mimeFromExtension("a.webp"))
	assert.Equal(t, "image/svg+xml", mimeFromExtension("a.svg"))
	assert.Equal(t, "image/svg+xml", mimeFromExtension("logo"))
}
