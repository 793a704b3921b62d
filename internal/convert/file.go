// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdiddy/pandoc-live/pkg/types"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Failed    int
}

// Total returns the total number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// ConvertFile reads inPath, converts its content with req (req.Content is
// ignored) and writes the result to outPath, creating parent directories.
func (p *Pipeline) ConvertFile(ctx context.Context, inPath, outPath string, req types.ConversionRequest) error {
	data, err := os.ReadFile(inPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inPath, err)
	}

	req.Content = string(data)
	out, err := p.ConvertString(ctx, req)
	if err != nil {
		return fmt.Errorf("converting %s: %w", inPath, err)
	}

	if dir := filepath.Dir(outPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}

// OutputPath returns the path inPath converts to inside outDir, with the
// extension of the target format.
func OutputPath(inPath, outDir string, to types.Format) string {
	base := strings.TrimSuffix(filepath.Base(inPath), filepath.Ext(inPath))
	return filepath.Join(outDir, base+Extension(to))
}

// Extension returns the conventional file extension for a pandoc format.
func Extension(f types.Format) string {
	switch f.Base() {
	case types.FormatHTML, "html5", "html4":
		return ".html"
	case types.FormatMarkdown, types.FormatCommonMarkX, "commonmark", "gfm", "markdown_strict":
		return ".md"
	case "latex":
		return ".tex"
	case "plain":
		return ".txt"
	default:
		return "." + string(f.Base())
	}
}

// ConvertBatch converts each input into outDir, printing per-file status to
// w and returning a summary. A failing file does not stop the batch.
func (p *Pipeline) ConvertBatch(ctx context.Context, inPaths []string, outDir string, req types.ConversionRequest, w io.Writer) BatchResult {
	var result BatchResult
	for _, in := range inPaths {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", in, ctx.Err())
			result.Failed++
			continue
		}
		out := OutputPath(in, outDir, req.To)
		if err := p.ConvertFile(ctx, in, out, req); err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", in, err)
			result.Failed++
			continue
		}
		fmt.Fprintf(w, "converted: %s -> %s\n", in, out)
		result.Converted++
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		result.Converted, result.Failed, result.Total())
	return result
}
