// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pandoc-live
// synchronization pipeline: conversion requests and options, save requests
// and results, and configuration.
package types

import "strings"

// Format names a pandoc input or output format. A format may carry pandoc
// extension suffixes (e.g. "markdown+tex_math_dollars").
type Format string

const (
	FormatMarkdown    Format = "markdown"
	FormatHTML        Format = "html"
	FormatCommonMarkX Format = "commonmark_x"
)

// Base returns the format name without pandoc extension suffixes.
func (f Format) Base() Format {
	s := string(f)
	if i := strings.IndexAny(s, "+-"); i > 0 {
		s = s[:i]
	}
	return Format(s)
}

// Delimiters is an opening and closing math delimiter pair.
type Delimiters struct {
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// MathDelimiters holds the inline and display math conventions.
type MathDelimiters struct {
	Inline  Delimiters `json:"inline" yaml:"inline"`
	Display Delimiters `json:"display" yaml:"display"`
}

// TemplateVariable is one -V key=value pair passed to a pandoc template.
type TemplateVariable struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// ConversionOptions configures a single conversion. Values are treated as
// immutable: use WithOverrides to derive a modified copy.
type ConversionOptions struct {
	// MathJax enables MathJax-compatible math markup (--mathjax).
	MathJax bool `json:"mathjax" yaml:"mathjax"`

	// Standalone emits a full document wrapper (--standalone).
	Standalone bool `json:"standalone" yaml:"standalone"`

	// Template names an external pandoc template (--template=).
	Template string `json:"template,omitempty" yaml:"template,omitempty"`

	// Variables are template variables, passed in order as -Vkey=value.
	Variables []TemplateVariable `json:"variables,omitempty" yaml:"variables,omitempty"`

	// Filters are external filter identifiers, passed in order as --filter=.
	Filters []string `json:"filters,omitempty" yaml:"filters,omitempty"`

	// AdditionalArgs are appended to the pandoc argument list verbatim.
	AdditionalArgs []string `json:"additional_args,omitempty" yaml:"additional_args,omitempty"`

	// MathDelimiters is the math delimiter convention of the Markdown source.
	// It is descriptive only: the Markdown to HTML arguments always enable
	// tex_math_dollars, so the dollar convention is the one pandoc parses.
	MathDelimiters MathDelimiters `json:"math_delimiters" yaml:"math_delimiters"`
}

// DefaultConversionOptions returns options with everything disabled and the
// dollar math convention: $...$ inline, $$...$$ display.
func DefaultConversionOptions() ConversionOptions {
	return ConversionOptions{
		MathDelimiters: MathDelimiters{
			Inline:  Delimiters{Open: "$", Close: "$"},
			Display: Delimiters{Open: "$$", Close: "$$"},
		},
	}
}

// WithOverrides returns a new ConversionOptions in which every non-zero field
// of o replaces the corresponding field of the receiver. Slices in the result
// never alias the slices of either input.
func (c ConversionOptions) WithOverrides(o ConversionOptions) ConversionOptions {
	out := c
	if o.MathJax {
		out.MathJax = true
	}
	if o.Standalone {
		out.Standalone = true
	}
	if o.Template != "" {
		out.Template = o.Template
	}
	out.Variables = cloneSlice(c.Variables)
	if len(o.Variables) > 0 {
		out.Variables = cloneSlice(o.Variables)
	}
	out.Filters = cloneSlice(c.Filters)
	if len(o.Filters) > 0 {
		out.Filters = cloneSlice(o.Filters)
	}
	out.AdditionalArgs = cloneSlice(c.AdditionalArgs)
	if len(o.AdditionalArgs) > 0 {
		out.AdditionalArgs = cloneSlice(o.AdditionalArgs)
	}
	if o.MathDelimiters.Inline != (Delimiters{}) {
		out.MathDelimiters.Inline = o.MathDelimiters.Inline
	}
	if o.MathDelimiters.Display != (Delimiters{}) {
		out.MathDelimiters.Display = o.MathDelimiters.Display
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	return append(make([]T, 0, len(s)), s...)
}

// ConversionRequest is one unit of work for the conversion pipeline. It is
// created per call and never persisted.
type ConversionRequest struct {
	Content string            `json:"content" yaml:"content"`
	From    Format            `json:"from" yaml:"from"`
	To      Format            `json:"to" yaml:"to"`
	Options ConversionOptions `json:"options" yaml:"options"`
}
