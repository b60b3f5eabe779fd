package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/style"
)

// Output formats of the styles command.
const (
	formatText = "text"
	formatDOT  = "dot"
	formatSVG  = "svg"
)

type stylesFlags struct {
	sceneFlags
	format string
	output string
}

// stylesCommand creates the styles command, which prints the style catalog
// of a scene without loading its sources.
func (c *CLI) stylesCommand() *cobra.Command {
	var flags stylesFlags

	cmd := &cobra.Command{
		Use:   "styles [scene]",
		Short: "List the styles a scene offers",
		Long: `List the style catalog of a scene.

The text format shows each style with its camera, the layers it binds and
its tunable uniforms. The dot and svg formats draw the catalog as a graph
of styles, layers and cameras.`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeScene(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cache, err := newCache(flags.noCache)
			if err != nil {
				return err
			}
			cfg, _, err := scene.ReadConfig(ctx, scenePath(args), scene.LoadOptions{
				Fetcher: newFetcher(cache, logger),
				Logger:  logger,
			})
			if err != nil {
				return err
			}
			catalog, err := style.FromConfig(cfg)
			if err != nil {
				return err
			}

			out, closeOut, err := openOutput(cmd, flags.output)
			if err != nil {
				return err
			}
			defer closeOut()

			switch strings.ToLower(flags.format) {
			case formatText, "":
				writeCatalog(out, catalog)
			case formatDOT:
				_, err = io.WriteString(out, style.ToDOT(catalog))
			case formatSVG:
				var svg []byte
				svg, err = style.RenderSVG(ctx, style.ToDOT(catalog))
				if err == nil {
					_, err = out.Write(svg)
				}
			default:
				return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want text, dot or svg)", flags.format)
			}
			if err != nil {
				return err
			}
			if flags.output != "" {
				printSuccess("Wrote %d styles", catalog.Len())
				printFile(flags.output)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", formatText, "output format: text, dot or svg")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "write to file instead of stdout")
	flags.register(cmd)

	return cmd
}

// writeCatalog prints one block per style in catalog order.
func writeCatalog(w io.Writer, c *style.Catalog) {
	for _, d := range c.Descriptors() {
		camera := d.Camera
		if camera == "" {
			camera = "-"
		}
		fmt.Fprintf(w, "%s\n", d.Name)
		fmt.Fprintf(w, "  camera:   %s\n", camera)

		a, ok := d.Setup.(style.AssignLayers)
		if !ok {
			continue
		}
		fmt.Fprintf(w, "  layers:   %s\n", strings.Join(a.Layers, ", "))
		for _, u := range a.Uniforms {
			fmt.Fprintf(w, "  uniform:  %s = %g [%g, %g]\n", u.Name, u.Value, u.Min, u.Max)
		}
	}
}

// openOutput returns the file at path, or the command's stdout when path is empty.
func openOutput(cmd *cobra.Command, path string) (io.Writer, func(), error) {
	if path == "" {
		return cmd.OutOrStdout(), func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}
