// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format implements the final cosmetic pass over Markdown produced
// by pandoc. Top-level paragraphs are re-flowed according to a prose-wrap
// policy; every other block is copied verbatim.
package format

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/pdiddy/pandoc-live/pkg/types"
)

// DefaultWidth is the wrap column used when none is configured.
const DefaultWidth = 80

// glue joins the words of an inline math or code span so the wrapper never
// breaks inside it.
const glue = '\uE000'

var (
	// ErrUnknownProseWrap is returned by New for an unsupported policy.
	ErrUnknownProseWrap = errors.New("unknown prose wrap policy")

	// ErrReservedRune is returned by Format when the input already contains
	// the rune used to glue inline spans together.
	ErrReservedRune = errors.New("markdown contains reserved rune U+E000")
)

// blockStart matches text that would open a new block if it began a line.
var blockStart = regexp.MustCompile("^(#|>|[-+*=|<]|```|~~~|:::|[0-9]+[.)])")

// Formatter rewrites Markdown into its canonical layout.
type Formatter interface {
	Format(markdown string) (string, error)
}

// MarkdownFormatter is the goldmark-backed Formatter.
type MarkdownFormatter struct {
	policy types.ProseWrap
	width  int
	md     goldmark.Markdown
}

// New validates cfg and returns a formatter. An empty policy means
// preserve; a zero width means DefaultWidth.
func New(cfg types.FormatConfig) (*MarkdownFormatter, error) {
	policy := cfg.ProseWrap
	if policy == "" {
		policy = types.ProseWrapPreserve
	}
	width := cfg.Width
	if width == 0 {
		width = DefaultWidth
	}

	switch policy {
	case types.ProseWrapPreserve, types.ProseWrapNever, types.ProseWrapAlways:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProseWrap, policy)
	}
	if width < 0 {
		return nil, fmt.Errorf("format width must be positive, got %d", width)
	}

	return &MarkdownFormatter{
		policy: policy,
		width:  width,
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

// Policy returns the configured prose-wrap policy.
func (f *MarkdownFormatter) Policy() types.ProseWrap { return f.policy }

// Format re-flows top-level paragraphs and ends the document with exactly
// one newline. Blank input yields an empty string.
func (f *MarkdownFormatter) Format(markdown string) (string, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	if strings.ContainsRune(markdown, glue) {
		return "", ErrReservedRune
	}

	src := []byte(markdown)
	if f.policy != types.ProseWrapPreserve {
		src = f.reflow(src)
	}
	return strings.TrimRight(string(src), " \t\r\n") + "\n", nil
}

type edit struct {
	start, stop int
	text        string
}

func (f *MarkdownFormatter) reflow(src []byte) []byte {
	doc := f.md.Parser().Parse(text.NewReader(src))

	var edits []edit
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		p, ok := n.(*ast.Paragraph)
		if !ok || p.Lines().Len() == 0 {
			continue
		}
		lines := p.Lines()
		start := lineStart(src, lines.At(0).Start)
		stop := lines.At(lines.Len() - 1).Stop
		if stop > 0 && src[stop-1] == '\n' {
			stop--
		} else {
			stop = lineEnd(src, stop)
		}

		raw := make([]string, 0, lines.Len())
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			raw = append(raw, strings.TrimRight(string(seg.Value(src)), "\r\n"))
		}

		out := f.paragraph(raw)
		if out != string(src[start:stop]) {
			edits = append(edits, edit{start: start, stop: stop, text: out})
		}
	}
	if len(edits) == 0 {
		return src
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].start > edits[j].start })
	out := append([]byte(nil), src...)
	for _, e := range edits {
		tail := append([]byte(e.text), out[e.stop:]...)
		out = append(out[:e.start], tail...)
	}
	return out
}

// paragraph re-flows one paragraph. Hard breaks and fenced-div markers
// split it into chunks that are wrapped independently.
func (f *MarkdownFormatter) paragraph(lines []string) string {
	var out []string
	var words []string
	flush := func() []string {
		if len(words) == 0 {
			return nil
		}
		w := f.wrap(words)
		words = nil
		return w
	}

	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ":::") {
			out = append(out, flush()...)
			out = append(out, strings.TrimSpace(line))
			continue
		}
		words = append(words, strings.Fields(line)...)
		if i == len(lines)-1 || !isHardBreak(line) {
			continue
		}
		wrapped := flush()
		if len(wrapped) > 0 && !strings.HasSuffix(strings.TrimRight(line, " \t"), `\`) {
			wrapped[len(wrapped)-1] += "  "
		}
		out = append(out, wrapped...)
	}
	out = append(out, flush()...)
	return strings.Join(out, "\n")
}

func (f *MarkdownFormatter) wrap(words []string) []string {
	if f.policy == types.ProseWrapNever {
		return []string{strings.Join(words, " ")}
	}

	w := wordwrap.NewWriter(f.width)
	w.Breakpoints = nil
	w.KeepNewlines = false
	_, _ = w.Write([]byte(strings.Join(glueSpans(words), " ")))
	_ = w.Close()

	var lines []string
	for _, line := range strings.Split(w.String(), "\n") {
		line = strings.TrimSpace(strings.ReplaceAll(line, string(glue), " "))
		if line == "" {
			continue
		}
		if len(lines) > 0 && blockStart.MatchString(line) {
			lines[len(lines)-1] += " " + line
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// glueSpans merges words that belong to one inline math ($...$) or code
// (`...`) span, joining them with the glue rune.
func glueSpans(words []string) []string {
	var out []string
	inMath, inCode := false, false
	for _, w := range words {
		if (inMath || inCode) && len(out) > 0 {
			out[len(out)-1] += string(glue) + w
		} else {
			out = append(out, w)
		}
		if mathToggles(w)%2 == 1 {
			inMath = !inMath
		}
		if strings.Count(w, "`")%2 == 1 {
			inCode = !inCode
		}
	}
	return out
}

func mathToggles(w string) int {
	w = strings.ReplaceAll(w, `\$`, "")
	display := strings.Count(w, "$$")
	return display + strings.Count(strings.ReplaceAll(w, "$$", ""), "$")
}

func isHardBreak(line string) bool {
	if strings.HasSuffix(line, "  ") {
		return true
	}
	trimmed := strings.TrimRight(line, " \t")
	return strings.HasSuffix(trimmed, `\`) && !strings.HasSuffix(trimmed, `\\`)
}

func lineStart(src []byte, i int) int {
	for i > 0 && src[i-1] != '\n' {
		i--
	}
	return i
}

func lineEnd(src []byte, i int) int {
	for i < len(src) && src[i] != '\n' {
		i++
	}
	return i
}
