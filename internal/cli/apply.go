package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/internal/app"
	"github.com/matzehuels/mapstyle/pkg/scene"
)

// applyCommand creates the apply command, which applies one style to a
// freshly loaded scene and prints the resulting layer bindings.
func (c *CLI) applyCommand() *cobra.Command {
	var (
		flags  sceneFlags
		output string
	)

	cmd := &cobra.Command{
		Use:   "apply <style> [scene]",
		Short: "Apply a style and show which layers it rebinds",
		Long: `Apply a style to a scene and print every layer's style afterwards.

Layers whose style differs from the scene file are marked with '*'. An
unknown style name, or "", shows the baseline. With --output the styled
scene is written as a scene file (TOML or YAML by extension).`,
		Args:              cobra.RangeArgs(1, 2),
		ValidArgsFunction: completeApply,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := loadApp(ctx, scenePath(args[1:]), flags, app.Options{})
			if err != nil {
				return err
			}
			if err := a.ApplyStyle(ctx, args[0]); err != nil {
				return err
			}

			base, _ := a.Styles.Baseline()
			active := a.Styles.Active()
			if active == "" {
				printInfo("Baseline")
			} else {
				printSuccess("Applied %s", StyleHighlight.Render(active))
			}
			printKeyValue("camera", a.Scene.ActiveCamera())
			printBindings(a.Scene.Layers(), base.Layers)

			if output == "" {
				return nil
			}
			return exportScene(a.Scene, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the styled scene to this file")
	flags.register(cmd)
	return cmd
}

// exportScene writes the live configuration of sc to path.
func exportScene(sc *scene.Scene, path string) error {
	format, err := scene.FormatOf(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := scene.Encode(f, sc.Snapshot(), format); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	printSuccess("Wrote %s", path)
	return nil
}
