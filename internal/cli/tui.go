package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/samsirama/windows-explorer-clone/internal/explorer"
	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/internal/tui"
)

func newTUICommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive browser",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *options) error {
	ctx := cmd.Context()
	c := opts.client()
	if err := c.Ping(ctx); err != nil {
		return fmt.Errorf("server %s unreachable: %w", opts.server, err)
	}

	// Log lines would tear the alternate screen.
	logging.SetLevel("fatal")

	notices := &tui.Notices{}
	exp := explorer.New(c, explorer.WithNotifier(notices))
	p := tea.NewProgram(tui.New(ctx, exp), tea.WithAltScreen(), tea.WithContext(ctx))
	notices.Attach(p)

	_, err := p.Run()
	return err
}
