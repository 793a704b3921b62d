// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sanitize

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanIncomingHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "contenteditable removed, content kept",
			in:   `<div contenteditable="true">x</div>`,
			want: `<div>x</div>`,
		},
		{
			name: "spellcheck removed",
			in:   `<p spellcheck="false" class="lead">Hello</p>`,
			want: `<p class="lead">Hello</p>`,
		},
		{
			name: "both attributes on one element",
			in:   `<div id="editor" contenteditable="true" spellcheck="true"><p>a</p></div>`,
			want: `<div id="editor"><p>a</p></div>`,
		},
		{
			name: "empty divs removed",
			in:   "<p>a</p><div></div><div>  \n </div><p>b</p>",
			want: "<p>a</p><p>b</p>",
		},
		{
			name: "div with attributes is not treated as empty",
			in:   `<div class="math"></div>`,
			want: `<div class="math"></div>`,
		},
		{
			name: "surrounding whitespace trimmed",
			in:   "\n\n  <p>a</p>  \n",
			want: "<p>a</p>",
		},
		{
			name: "math spans untouched",
			in:   `<p>Euler: <span class="math inline">\(e^{i\pi} + 1 = 0\)</span></p>`,
			want: `<p>Euler: <span class="math inline">\(e^{i\pi} + 1 = 0\)</span></p>`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanIncomingHTML(tt.in)
			assert.Equal(t, tt.want, got)
			assert.NotContains(t, got, "contenteditable")
			assert.NotContains(t, got, "spellcheck")
		})
	}
}

func TestPostProcessMarkdown(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "three newlines collapse", in: "a\n\n\nb", want: "a\n\nb"},
		{name: "long run collapses", in: "a\n\n\n\n\n\n\nb", want: "a\n\nb"},
		{name: "two newlines kept", in: "a\n\nb", want: "a\n\nb"},
		{name: "single newline kept", in: "a\nb", want: "a\nb"},
		{name: "trimmed", in: "\n\n# Title\n\ntext\n\n\n", want: "# Title\n\ntext"},
		{name: "empty", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PostProcessMarkdown(tt.in))
		})
	}
}

func TestPostProcessMarkdown_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"\n",
		"\n\n\n",
		"a\n\n\n\nb\n\n\n\n\nc",
		"  lead\n\n\n\ttrail  ",
		"$$\nx^2\n$$\n\n\n\n- item\n\n\n",
		"a\r\n\r\n\r\nb",
		strings.Repeat("\n", 50) + "x" + strings.Repeat("\n", 50),
	}
	for _, in := range inputs {
		once := PostProcessMarkdown(in)
		assert.Equal(t, once, PostProcessMarkdown(once), "input %q", in)
	}
}

func TestPostProcessMarkdown_NoRunLongerThanTwo(t *testing.T) {
	for n := 3; n < 12; n++ {
		in := "x" + strings.Repeat("\n", n) + "y" + strings.Repeat("\n", n+1) + "z"
		assert.NotContains(t, PostProcessMarkdown(in), "\n\n\n", "run of %d", n)
	}
}
