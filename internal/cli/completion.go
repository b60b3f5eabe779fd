package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/pkg/scene"
	"github.com/matzehuels/mapstyle/pkg/style"
	"github.com/matzehuels/mapstyle/pkg/viewport"
)

var sceneExts = []string{"toml", "yaml", "yml"}

// completionCommand creates the completion command.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for mapstyle.

Besides commands and flags, the scripts complete style names for
'apply', named locations for --view and scene files for [scene].

  bash:        source <(mapstyle completion bash)
  zsh:         mapstyle completion zsh > "${fpath[1]}/_mapstyle"
  fish:        mapstyle completion fish | source
  powershell:  mapstyle completion powershell | Out-String | Invoke-Expression`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, out := cmd.Root(), cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			default:
				return root.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

// completeScene completes the optional trailing [scene] argument of a
// command taking pos positional arguments before it.
func completeScene(pos int) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) != pos {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		return sceneExts, cobra.ShellCompDirectiveFilterFileExt
	}
}

// completeApply completes apply's style name from the default scene in the
// working directory, then the scene file.
func completeApply(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return completeScene(1)(cmd, args, toComplete)
	}
	return filterPrefix(styleNames(cmd.Context(), defaultScene), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeView completes --view with the named locations.
func completeView(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return filterPrefix(viewport.Names(), toComplete), cobra.ShellCompDirectiveNoFileComp
}

// styleNames lists the styles of the local scene at path, or the default
// catalog when it cannot be read.
func styleNames(ctx context.Context, path string) []string {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, _, err := scene.ReadConfig(ctx, path, scene.LoadOptions{})
	if err != nil {
		return style.DefaultCatalog().Names()
	}
	cat, err := style.FromConfig(cfg)
	if err != nil {
		return style.DefaultCatalog().Names()
	}
	return cat.Names()
}

// filterPrefix keeps the names starting with prefix, ignoring case.
func filterPrefix(names []string, prefix string) []string {
	prefix = strings.ToLower(prefix)
	var out []string
	for _, n := range names {
		if strings.HasPrefix(strings.ToLower(n), prefix) {
			out = append(out, n)
		}
	}
	return out
}
