// Package cli implements the explorer command line client.
package cli

import (
	"context"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsirama/windows-explorer-clone/internal/logging"
	"github.com/samsirama/windows-explorer-clone/pkg/client"
)

const defaultServer = "http://localhost:3000"

type options struct {
	server   string
	timeout  time.Duration
	logLevel string
}

func (o *options) client() *client.Client {
	return client.New(client.Config{BaseURL: o.server, Timeout: o.timeout})
}

// NewRootCommand builds the explorer command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "explorer",
		Short: "Browse and edit the folder tree served by the explorer API",
		Long: `explorer talks to the folder REST API. Run it without a subcommand
for the interactive folder browser, or use the subcommands to script
against the tree.

Nodes are addressed by id or by a slash separated path of names,
for example "Documents/Work/Reports".`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logging.Init(logging.Config{
				Level:      opts.logLevel,
				Format:     "console",
				OutputPath: "stderr",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}

	server := os.Getenv("EXPLORER_SERVER")
	if server == "" {
		server = defaultServer
	}
	root.PersistentFlags().StringVarP(&opts.server, "server", "s", server, "API base URL (env EXPLORER_SERVER)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "Request timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	root.AddCommand(
		newTUICommand(opts),
		newTreeCommand(opts),
		newLsCommand(opts),
		newSearchCommand(opts),
		newMkdirCommand(opts),
		newTouchCommand(opts),
		newMvCommand(opts),
		newRenameCommand(opts),
		newRmCommand(opts),
		newWatchCommand(opts),
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}
