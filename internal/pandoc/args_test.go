// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pandoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pandoc-live/pkg/types"
)

func TestBuildArgs(t *testing.T) {
	tests := []struct {
		name string
		from types.Format
		to   types.Format
		opts types.ConversionOptions
		want []string
	}{
		{
			name: "formats only",
			from: "markdown",
			to:   "latex",
			want: []string{"--from=markdown", "--to=latex"},
		},
		{
			name: "all options in order",
			from: "markdown",
			to:   "html5",
			opts: types.ConversionOptions{
				MathJax:    true,
				Standalone: true,
				Template:   "report",
				Filters:    []string{"pandoc-crossref", "citeproc-lite"},
				Variables: []types.TemplateVariable{
					{Key: "title", Value: "Notes"},
					{Key: "lang", Value: "en"},
				},
				AdditionalArgs: []string{"--toc"},
			},
			want: []string{
				"--from=markdown", "--to=html5",
				"--mathjax", "--standalone", "--template=report",
				"--filter=pandoc-crossref", "--filter=citeproc-lite",
				"-Vtitle=Notes", "-Vlang=en",
				"--toc",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArgs(tt.from, tt.to, tt.opts))
		})
	}
}

func TestParseArgs(t *testing.T) {
	args, err := ParseArgs(`--toc --metadata title="My Doc"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"--toc", "--metadata", "title=My Doc"}, args)

	args, err = ParseArgs("   ")
	require.NoError(t, err)
	assert.Nil(t, args)
}
