package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/mapstyle/pkg/session"
)

// sessionCommand creates the session command for the terminal UI's saved view.
func (c *CLI) sessionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage the saved terminal view",
	}

	cmd.AddCommand(c.sessionShowCommand())
	cmd.AddCommand(c.sessionResetCommand())
	cmd.AddCommand(c.sessionCleanCommand())

	return cmd
}

func openFileSessions() (*session.FileStore, error) {
	dir, err := sessionDir()
	if err != nil {
		return nil, err
	}
	return session.NewFileStore(dir)
}

func (c *CLI) sessionShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved view",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openFileSessions()
			if err != nil {
				return err
			}
			defer store.Close()

			sess, err := session.Lookup(cmd.Context(), store, session.LocalID)
			if err == session.ErrNotFound {
				printInfo("No saved view")
				return nil
			}
			if err != nil {
				return err
			}
			style := sess.Style
			if style == "" {
				style = "(baseline)"
			}
			printKeyValue("view", sess.View.Hash())
			printKeyValue("style", style)
			printKeyValue("expires", sess.ExpiresAt.Format("2006-01-02 15:04"))
			printDetail("Directory: %s", store.Path())
			return nil
		},
	}
}

func (c *CLI) sessionResetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Forget the saved view",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openFileSessions()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), session.LocalID); err != nil {
				return err
			}
			printSuccess("Saved view removed")
			return nil
		},
	}
}

func (c *CLI) sessionCleanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Remove expired session files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openFileSessions()
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Cleanup(cmd.Context()); err != nil {
				return err
			}
			printSuccess("Expired sessions removed")
			printDetail("Directory: %s", store.Path())
			return nil
		},
	}
}
