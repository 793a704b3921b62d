// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/pandoc-live/internal/pandoc"
	"github.com/pdiddy/pandoc-live/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert documents with the pandoc pipeline",
	Long: `Convert runs the same pipeline the editing surface uses. HTML to Markdown
goes through sanitizing and the formatting pass; Markdown to HTML with
--mathjax produces the editing surface's rendering. Any other pair of
formats is handed to pandoc as is, with pandoc.extra_args appended.

With a single input, --output names the output file ("-" or empty for
stdout). An input of "-" reads stdin. With several inputs, results are
written into --output-dir with the target format's extension.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, log, cleanup, err := loadConfig()
	if err != nil {
		return err
	}
	defer cleanup()

	req, err := conversionRequestFromFlags(cmd, cfg)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	pipeline, h, err := openPipeline(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer h.Close()

	if cfg.Pandoc.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Pandoc.Timeout*time.Duration(len(args)))
		defer cancel()
	}

	if len(args) > 1 {
		outDir, _ := cmd.Flags().GetString("output-dir")
		result := pipeline.ConvertBatch(ctx, args, outDir, req, cmd.OutOrStdout())
		if result.HasFailures() {
			return fmt.Errorf("%d file(s) failed conversion", result.Failed)
		}
		return nil
	}

	in := args[0]
	out, _ := cmd.Flags().GetString("output")
	if in != "-" && out != "" && out != "-" {
		if err := pipeline.ConvertFile(ctx, in, out, req); err != nil {
			return userError(err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "converted: %s -> %s\n", in, out)
		return nil
	}

	content, err := readInput(cmd, in)
	if err != nil {
		return err
	}
	req.Content = content
	result, err := pipeline.ConvertString(ctx, req)
	if err != nil {
		return userError(err)
	}
	if out == "" || out == "-" {
		_, err = io.WriteString(cmd.OutOrStdout(), result)
		return err
	}
	if err := os.WriteFile(out, []byte(result), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func readInput(cmd *cobra.Command, in string) (string, error) {
	if in == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", in, err)
	}
	return string(data), nil
}

// conversionRequestFromFlags builds the request template for the convert
// command from flags and pandoc.extra_args.
func conversionRequestFromFlags(cmd *cobra.Command, cfg types.Config) (types.ConversionRequest, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	mathjax, _ := cmd.Flags().GetBool("mathjax")
	standalone, _ := cmd.Flags().GetBool("standalone")
	template, _ := cmd.Flags().GetString("template")
	filters, _ := cmd.Flags().GetStringSlice("filter")
	vars, _ := cmd.Flags().GetStringArray("var")
	extra, _ := cmd.Flags().GetStringArray("pandoc-arg")

	configArgs, err := pandoc.ParseArgs(cfg.Pandoc.ExtraArgs)
	if err != nil {
		return types.ConversionRequest{}, err
	}

	overrides := types.ConversionOptions{
		MathJax:        mathjax,
		Standalone:     standalone,
		Template:       template,
		Filters:        filters,
		AdditionalArgs: append(configArgs, extra...),
	}
	for _, v := range vars {
		key, value, ok := strings.Cut(v, "=")
		if !ok || key == "" {
			return types.ConversionRequest{}, fmt.Errorf("invalid --var %q: want key=value", v)
		}
		overrides.Variables = append(overrides.Variables, types.TemplateVariable{Key: key, Value: value})
	}

	return types.ConversionRequest{
		From:    types.Format(from),
		To:      types.Format(to),
		Options: types.DefaultConversionOptions().WithOverrides(overrides),
	}, nil
}

// userError replaces a pandoc failure with its user-facing message.
func userError(err error) error {
	var ce *pandoc.ConversionError
	if errors.As(err, &ce) {
		return errors.New(ce.UserMessage())
	}
	return err
}

func init() {
	convertCmd.Flags().String("from", string(types.FormatMarkdown), "input format (pandoc name, extensions allowed)")
	convertCmd.Flags().String("to", string(types.FormatHTML), "output format (pandoc name, extensions allowed)")
	convertCmd.Flags().StringP("output", "o", "", "output file for a single input (default stdout)")
	convertCmd.Flags().String("output-dir", ".", "output directory when converting several files")
	convertCmd.Flags().Bool("mathjax", false, "render math with MathJax markup")
	convertCmd.Flags().Bool("standalone", false, "produce a complete document")
	convertCmd.Flags().String("template", "", "pandoc template file")
	convertCmd.Flags().StringSlice("filter", nil, "pandoc filter, repeatable, applied in order")
	convertCmd.Flags().StringArrayP("var", "V", nil, "template variable key=value, repeatable")
	convertCmd.Flags().StringArray("pandoc-arg", nil, "extra pandoc argument, repeatable")

	rootCmd.AddCommand(convertCmd)
}
