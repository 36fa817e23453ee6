package assets

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ticket-engine/internal/logger"
)

// Asset is an image payload ready to be inlined into a document.
type Asset struct {
	Bytes []byte
	MIME  string
}

func (a Asset) Empty() bool {
	return len(a.Bytes) == 0
}

// DataURI renders the asset as a base64 data URI, or "" when empty.
func (a Asset) DataURI() string {
	if a.Empty() {
		return ""
	}
	return fmt.Sprintf("data:%s;base64,%s", a.MIME, base64.StdEncoding.EncodeToString(a.Bytes))
}

// Resolver turns image references into embeddable payloads. Resolution order:
// remote URL fetch, then local path under Root, then the fallback local path,
// then empty. A missing image never fails a render.
type Resolver struct {
	Client *http.Client
	Root   string
	Logger *logger.Logger
}

func NewResolver(client *http.Client, root string, log *logger.Logger) *Resolver {
	if client == nil {
		client = http.DefaultClient
	}
	return &Resolver{Client: client, Root: root, Logger: log}
}

func (r *Resolver) Resolve(ctx context.Context, reference, fallbackPath string) Asset {
	if isRemote(reference) {
		if asset, err := r.fetch(ctx, reference); err == nil {
			return asset
		} else if r.Logger != nil {
			r.Logger.Warn("ASSETS", fmt.Sprintf("Remote fetch failed for %s: %v", reference, err))
		}
	}

	if reference != "" {
		if asset, err := r.readLocal(reference); err == nil {
			return asset
		}
	}

	if fallbackPath != "" {
		if asset, err := r.readLocal(fallbackPath); err == nil {
			return asset
		}
	}

	if r.Logger != nil {
		r.Logger.Warn("ASSETS", fmt.Sprintf("Asset unresolved, rendering without it: %q", reference))
	}
	return Asset{}
}

func isRemote(reference string) bool {
	return strings.HasPrefix(reference, "http://") || strings.HasPrefix(reference, "https://")
}

func (r *Resolver) fetch(ctx context.Context, rawURL string) (Asset, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Asset{}, err
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return Asset{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Asset{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Asset{}, err
	}
	if len(body) == 0 {
		return Asset{}, fmt.Errorf("empty response body")
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = mimeFromExtension(rawURL)
	}
	return Asset{Bytes: body, MIME: mime}, nil
}

func (r *Resolver) readLocal(reference string) (Asset, error) {
	rel := stripQueryAndFragment(reference)

	// Clean against the root so references cannot escape the asset directory.
	path := filepath.Join(r.Root, filepath.Clean("/"+rel))
	data, err := os.ReadFile(path)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Bytes: data, MIME: mimeFromExtension(rel)}, nil
}

func stripQueryAndFragment(reference string) string {
	if u, err := url.Parse(reference); err == nil && u.Path != "" {
		return u.Path
	}
	if i := strings.IndexAny(reference, "?#"); i >= 0 {
		return reference[:i]
	}
	return reference
}

func mimeFromExtension(reference string) string {
	switch strings.ToLower(filepath.Ext(stripQueryAndFragment(reference))) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/svg+xml"
	}
}
