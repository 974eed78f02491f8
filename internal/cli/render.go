package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/texviz/refgraph/pkg/render/dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output string // output file path; derived from input if empty
	format string // svg, png, or pdf; derived from output extension if empty
}

// newRenderCmd creates the render command for turning an exported DOT file
// into an image. The heavy lifting is Graphviz; PDF additionally goes
// through librsvg.
func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render [graph.gv]",
		Short: "Render an exported graph description to SVG, PNG, or PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (derived from input if empty)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: svg (default), png, pdf")

	return cmd
}

// runRender reads the DOT file and writes the rendered image.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	format, output, err := resolveRenderTarget(input, opts)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("read %s: %w", input, err)
	}

	logger.Infof("Rendering %s as %s", input, format)
	prog := newProgress(logger)

	var out []byte
	switch format {
	case "svg":
		out, err = dot.RenderSVG(string(data))
	case "png":
		out, err = dot.RenderPNG(string(data))
	case "pdf":
		out, err = dot.RenderPDF(string(data))
	default:
		return fmt.Errorf("invalid format: %s (must be 'svg', 'png', or 'pdf')", format)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, out, 0o644); err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d bytes", len(out)))
	printSuccess("Wrote image")
	printFile(output)
	return nil
}

// resolveRenderTarget derives the output format and path. The format comes
// from --format, then from the output extension, then defaults to svg; the
// path defaults to the input with its extension swapped for the format.
func resolveRenderTarget(input string, opts *renderOpts) (format, output string, err error) {
	format = strings.ToLower(opts.format)
	output = opts.output

	if format == "" && output != "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(output)), ".")
	}
	if format == "" {
		format = "svg"
	}
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}
	return format, output, nil
}
