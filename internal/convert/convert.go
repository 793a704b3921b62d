// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the conversion pipeline between the editing
// surface's HTML and the Markdown stored on disk. Every conversion runs
// through a pandoc.Runner; the HTML to Markdown direction adds sanitizing
// and a final formatting pass.
package convert

import (
	"context"
	"time"

	"github.com/pdiddy/pandoc-live/internal/format"
	"github.com/pdiddy/pandoc-live/internal/logger"
	"github.com/pdiddy/pandoc-live/internal/pandoc"
	"github.com/pdiddy/pandoc-live/internal/sanitize"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

const (
	directionToHTML     = "markdown->html"
	directionToMarkdown = "html->markdown"
)

// Converter is the subset of the pipeline an editor session depends on.
type Converter interface {
	// MarkdownToHTML renders Markdown for display in the editing surface.
	MarkdownToHTML(ctx context.Context, markdown string, opts types.ConversionOptions) (string, error)

	// HTMLToMarkdown turns edited HTML back into canonical Markdown.
	HTMLToMarkdown(ctx context.Context, html string) (string, error)
}

// Pipeline is the pandoc-backed Converter. It holds no per-call state and
// is safe for concurrent use.
type Pipeline struct {
	runner    pandoc.Runner
	formatter format.Formatter
	log       *logger.Logger
}

// New creates a pipeline. A nil log discards output.
func New(runner pandoc.Runner, formatter format.Formatter, log *logger.Logger) *Pipeline {
	if log == nil {
		log = logger.Discard()
	}
	return &Pipeline{runner: runner, formatter: formatter, log: log}
}

// MarkdownToHTML converts Markdown with dollar math to an HTML fragment with
// MathJax markup. Generic flags from opts follow the fixed arguments.
func (p *Pipeline) MarkdownToHTML(ctx context.Context, markdown string, opts types.ConversionOptions) (string, error) {
	start := time.Now()
	p.log.ConversionStarted(directionToHTML, len(markdown))

	// --mathjax is already part of the fixed arguments.
	opts.MathJax = false
	args := append(append([]string(nil), pandoc.MarkdownToHTMLArgs...), pandoc.OptionArgs(opts)...)

	html, err := p.runner.Run(ctx, args, markdown)
	if err != nil {
		err = pandoc.Wrap(err, "failed to convert Markdown to HTML")
		p.log.ConversionFailed(directionToHTML, err)
		return "", err
	}

	p.log.ConversionFinished(directionToHTML, len(html), time.Since(start))
	return html, nil
}

// HTMLToMarkdown cleans editor HTML, converts it to CommonMark with
// extensions and normalizes the result. A formatting failure is logged and
// the unformatted Markdown is returned.
func (p *Pipeline) HTMLToMarkdown(ctx context.Context, html string) (string, error) {
	start := time.Now()
	p.log.ConversionStarted(directionToMarkdown, len(html))

	raw, err := p.runner.Run(ctx, pandoc.HTMLToMarkdownArgs, sanitize.CleanIncomingHTML(html))
	if err != nil {
		err = pandoc.Wrap(err, "failed to convert HTML to Markdown")
		p.log.ConversionFailed(directionToMarkdown, err)
		return "", err
	}

	md := sanitize.PostProcessMarkdown(raw)
	if p.formatter != nil {
		formatted, ferr := p.formatter.Format(md)
		if ferr != nil {
			p.log.FormattingFailed(ferr)
		} else {
			md = formatted
		}
	}

	p.log.ConversionFinished(directionToMarkdown, len(md), time.Since(start))
	return md, nil
}

// ConvertString dispatches a request. The two editing directions go through
// their dedicated paths; any other pair runs pandoc with the generic
// arguments and returns its output untouched.
func (p *Pipeline) ConvertString(ctx context.Context, req types.ConversionRequest) (string, error) {
	from, to := req.From.Base(), req.To.Base()
	switch {
	case from == types.FormatHTML && to == types.FormatMarkdown:
		return p.HTMLToMarkdown(ctx, req.Content)
	case from == types.FormatMarkdown && to == types.FormatHTML && req.Options.MathJax:
		return p.MarkdownToHTML(ctx, req.Content, req.Options)
	}

	direction := string(req.From) + "->" + string(req.To)
	start := time.Now()
	p.log.ConversionStarted(direction, len(req.Content))

	out, err := p.runner.Run(ctx, pandoc.BuildArgs(req.From, req.To, req.Options), req.Content)
	if err != nil {
		err = pandoc.Wrap(err, "failed to convert "+direction)
		p.log.ConversionFailed(direction, err)
		return "", err
	}

	p.log.ConversionFinished(direction, len(out), time.Since(start))
	return out, nil
}
