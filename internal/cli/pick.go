package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/pkg/errors"
	"github.com/matzehuels/mapstyle/pkg/hover"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

type pickFlags struct {
	sceneFlags
	at     string
	lngLat string
	view   string
	size   string
}

// pickCommand creates the pick command, a one-shot hover.
func (c *CLI) pickCommand() *cobra.Command {
	var flags pickFlags

	cmd := &cobra.Command{
		Use:   "pick [scene]",
		Short: "Show the label a hover at a point would produce",
		Long: `Hover once over a scene and print the label it produces.

The point is a pixel of the viewport (--at x,y) or a coordinate
(--lnglat lng,lat) projected through the viewport. The viewport defaults to
the scene's start location and size.`,
		Example: `  mapstyle pick --at 400,300
  mapstyle pick --lnglat -74.0114,40.70665 --view '#16/40.706/-74.011'`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeScene(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (flags.at == "") == (flags.lngLat == "") {
				return errors.New(errors.ErrCodeInvalidInput, "exactly one of --at or --lnglat is required")
			}
			ctx := cmd.Context()
			a, err := loadApp(ctx, scenePath(args), flags.sceneFlags, app.Options{})
			if err != nil {
				return err
			}
			if err := setupView(a, flags.view, flags.size); err != nil {
				return err
			}

			var p viewport.Pixel
			if flags.at != "" {
				p.X, p.Y, err = parsePair(flags.at, ",")
			} else {
				var lng, lat float64
				lng, lat, err = parsePair(flags.lngLat, ",")
				p = a.Scene.View().Project(orb.Point{lng, lat})
			}
			if err != nil {
				return err
			}

			if a.Hover.Hover(ctx, p) != hover.Labeled {
				printInfo("No named feature at %s", formatPixel(p))
				return nil
			}
			l, _ := a.Hover.Label()
			printSuccess("%s", StyleHighlight.Render(l.Text))
			printKeyValue("pixel", formatPixel(p))
			printKeyValue("label at", formatPixel(l.Pos))
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.at, "at", "", "viewport pixel as x,y")
	cmd.Flags().StringVar(&flags.lngLat, "lnglat", "", "coordinate as lng,lat")
	cmd.Flags().StringVar(&flags.view, "view", "", "viewport as #zoom/lat/lng or a named location")
	_ = cmd.RegisterFlagCompletionFunc("view", completeView)
	cmd.Flags().StringVar(&flags.size, "size", "", "viewport size as WIDTHxHEIGHT pixels")
	flags.register(cmd)

	return cmd
}

// setupView moves and resizes the scene's viewport. Empty arguments keep
// the scene's start values.
func setupView(a *app.App, view, size string) error {
	if view != "" {
		loc, err := parseView(view)
		if err != nil {
			return err
		}
		if err := a.Scene.SetCenter(loc); err != nil {
			return err
		}
	}
	if size != "" {
		w, h, err := parsePair(size, "x")
		if err != nil {
			return err
		}
		if w <= 0 || h <= 0 {
			return errors.New(errors.ErrCodeInvalidViewport, "size %q must be positive", size)
		}
		a.Scene.SetSize(int(w), int(h))
	}
	return nil
}

// parseView accepts a "#zoom/lat/lng" hash or a named location.
func parseView(s string) (viewport.Location, error) {
	if loc, ok := viewport.Named(s); ok {
		return loc, nil
	}
	return viewport.Parse(s)
}

// parsePair splits "a<sep>b" into two numbers.
func parsePair(s, sep string) (float64, float64, error) {
	a, b, ok := strings.Cut(s, sep)
	if !ok {
		return 0, 0, errors.New(errors.ErrCodeInvalidInput, "%q: want two numbers separated by %q", s, sep)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(a), 64)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "%q", s)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if err != nil {
		return 0, 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "%q", s)
	}
	return x, y, nil
}

func formatPixel(p viewport.Pixel) string {
	return fmt.Sprintf("(%.0f, %.0f)", p.X, p.Y)
}
