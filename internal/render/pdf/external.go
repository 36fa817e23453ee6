package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"ticket-engine/internal/logger"
)

// ErrUnavailable tags every primary-renderer failure: missing binary, timeout,
// non-zero exit, corrupt output. The coordinator falls back to programmatic
// composition only on this error.
var ErrUnavailable = errors.New("external renderer unavailable")

// Page box for a vertical ticket, also used by the programmatic renderer.
const (
	PageWidthMM  = 90
	PageHeightMM = 190
)

// ExternalRenderer drives a wkhtmltopdf process scoped to a single request.
type ExternalRenderer struct {
	Binary  string
	Timeout time.Duration
	Logger  *logger.Logger
}

func NewExternalRenderer(binary string, timeout time.Duration, log *logger.Logger) *ExternalRenderer {
	return &ExternalRenderer{Binary: binary, Timeout: timeout, Logger: log}
}

// ComposeDocument wraps substituted per-ticket HTML into one printable
// document: fixed vertical page box, zero margins, backgrounds preserved,
// one page per ticket.
func ComposeDocument(pages []string) string {
	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><style>\n")
	fmt.Fprintf(&sb, "@page { size: %dmm %dmm; margin: 0; }\n", PageWidthMM, PageHeightMM)
	sb.WriteString("html, body { margin: 0; padding: 0; -webkit-print-color-adjust: exact; }\n")
	fmt.Fprintf(&sb, ".ticket-page { width: %dmm; height: %dmm; overflow: hidden; page-break-after: always; }\n", PageWidthMM, PageHeightMM)
	sb.WriteString(".ticket-page:last-child { page-break-after: auto; }\n")
	sb.WriteString("</style></head><body>\n")
	for _, page := range pages {
		sb.WriteString("<div class=\"ticket-page\">")
		sb.WriteString(page)
		sb.WriteString("</div>\n")
	}
	sb.WriteString("</body></html>\n")
	return sb.String()
}

// Render rasterizes the pages into a single multi-page PDF. Every failure is
// reported as ErrUnavailable; nothing from this path is fatal.
func (r *ExternalRenderer) Render(ctx context.Context, pages []string) ([]byte, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("%w: no pages to render", ErrUnavailable)
	}

	workDir, err := os.MkdirTemp("", "ticket-render-")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, "tickets.html")
	outPath := filepath.Join(workDir, "tickets.pdf")
	if err := os.WriteFile(inPath, []byte(ComposeDocument(pages)), 0600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary,
		"--quiet",
		"--enable-local-file-access",
		"--page-width", fmt.Sprintf("%dmm", PageWidthMM),
		"--page-height", fmt.Sprintf("%dmm", PageHeightMM),
		"--margin-top", "0",
		"--margin-bottom", "0",
		"--margin-left", "0",
		"--margin-right", "0",
		inPath, outPath,
	)

	if output, err := cmd.CombinedOutput(); err != nil {
		if r.Logger != nil {
			r.Logger.Warn("RENDER", fmt.Sprintf("wkhtmltopdf failed: %v (%s)", err, strings.TrimSpace(string(output))))
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		return nil, fmt.Errorf("%w: renderer produced a corrupt document", ErrUnavailable)
	}
	return data, nil
}
