// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"fmt"
	"strings"

	"github.com/google/shlex"

	"github.com/pdiddy/pandoc-live/pkg/types"
)

// Fixed argument lists for the two editing directions. Their exact form is
// part of the compatibility contract with existing documents.
var (
	MarkdownToHTMLArgs = []string{
		"--from=markdown+tex_math_dollars",
		"--to=html",
		"--mathjax",
	}
	HTMLToMarkdownArgs = []string{
		"--from=html-native_divs-native_spans",
		"--to=commonmark_x",
		"--wrap=none",
	}
)

// BuildArgs returns the generic argument list for converting from one
// format to another with opts.
func BuildArgs(from, to types.Format, opts types.ConversionOptions) []string {
	args := []string{
		"--from=" + string(from),
		"--to=" + string(to),
	}
	return append(args, OptionArgs(opts)...)
}

// OptionArgs returns the flags derived from opts, without format flags.
func OptionArgs(opts types.ConversionOptions) []string {
	var args []string
	if opts.MathJax {
		args = append(args, "--mathjax")
	}
	if opts.Standalone {
		args = append(args, "--standalone")
	}
	if opts.Template != "" {
		args = append(args, "--template="+opts.Template)
	}
	for _, f := range opts.Filters {
		args = append(args, "--filter="+f)
	}
	for _, v := range opts.Variables {
		args = append(args, fmt.Sprintf("-V%s=%s", v.Key, v.Value))
	}
	return append(args, opts.AdditionalArgs...)
}

// ParseArgs splits a shell-style argument string such as
// `--toc --metadata title="My Doc"` into arguments.
func ParseArgs(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	args, err := shlex.Split(s)
	if err != nil {
		return nil, fmt.Errorf("parsing pandoc arguments %q: %w", s, err)
	}
	return args, nil
}
