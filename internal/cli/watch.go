package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsirama/windows-explorer-clone/pkg/client"
)

func newWatchCommand(opts *options) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream tree changes as they happen",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()
			events, errs := client.NewWatcher(opts.server).Subscribe(ctx)

			fmt.Fprintln(out, dimStyle.Render("watching "+opts.server+" (ctrl+c to stop)"))
			seen := 0
			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return nil
					}
					fmt.Fprintf(out, "%s %-7s %s %s\n",
						dimStyle.Render(time.Unix(ev.Timestamp, 0).Format("15:04:05")),
						infoStyle.Render(ev.Type), ev.Name, dimStyle.Render(ev.ID))
					seen++
					if limit > 0 && seen >= limit {
						return nil
					}
				case err, ok := <-errs:
					if ok && err != nil {
						return err
					}
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
	cmd.Flags().IntVarP(&limit, "count", "n", 0, "Exit after this many events (0 to run until interrupted)")
	return cmd
}
