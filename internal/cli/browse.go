package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsirama/windows-explorer-clone/internal/explorer"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/tree"
)

func newTreeCommand(opts *options) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print the folder tree",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := fetch(cmd.Context(), opts.client())
			if err != nil {
				return err
			}
			start := roots
			label := explorer.RootName
			if len(args) == 1 {
				n, err := resolveFolder(roots, args[0])
				if err != nil {
					return err
				}
				if n != nil {
					start = n.Children
					label = n.Name
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, boldStyle.Render(label))
			printTree(out, start, "", depth, 1)
			fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d nodes", tree.CountNodes(start))))
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "L", 0, "Descend at most this many levels (0 for no limit)")
	return cmd
}

func printTree(w io.Writer, nodes []*models.Node, prefix string, maxDepth, depth int) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		line := prefix + branch + displayName(n)
		if !n.IsFolder() {
			line += dimStyle.Render(" (" + size(n) + ")")
		}
		fmt.Fprintln(w, line)
		if n.IsFolder() && (maxDepth == 0 || depth < maxDepth) {
			printTree(w, n.Children, prefix+next, maxDepth, depth+1)
		}
	}
}

func newLsCommand(opts *options) *cobra.Command {
	var showIDs bool
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List the contents of a folder",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			roots, err := fetch(cmd.Context(), opts.client())
			if err != nil {
				return err
			}
			var ref string
			if len(args) == 1 {
				ref = args[0]
			}
			folder, err := resolveFolder(roots, ref)
			if err != nil {
				return err
			}
			items := roots
			if folder != nil {
				items = folder.Children
			}
			printListing(cmd.OutOrStdout(), items, showIDs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showIDs, "ids", false, "Show node ids")
	return cmd
}

func printListing(w io.Writer, items []*models.Node, showIDs bool) {
	if len(items) == 0 {
		fmt.Fprintln(w, dimStyle.Render("This folder is empty."))
		return
	}
	headers := []interface{}{"NAME", "TYPE", "SIZE", "CREATED"}
	if showIDs {
		headers = append(headers, "ID")
	}
	tbl := newTable(w, headers...)
	for _, n := range items {
		row := []interface{}{displayName(n), kind(n), size(n), explorer.CreatedAt(n)}
		if showIDs {
			row = append(row, n.ID)
		}
		tbl.AddRow(row...)
	}
	tbl.Print()
}

func newSearchCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Find nodes whose names contain query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()
			query := strings.Join(args, " ")
			results, err := c.Search(ctx, query)
			if err != nil {
				return fmt.Errorf("search %q: %w", query, err)
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("No items match %q.", query)))
				return nil
			}
			roots, err := fetch(ctx, c)
			if err != nil {
				return err
			}

			tbl := newTable(out, "NAME", "TYPE", "SIZE", "PATH")
			for _, n := range results {
				path := "/" + n.Name
				if cached := tree.FindByID(roots, n.ID); cached != nil {
					path = pathOf(roots, cached)
				}
				tbl.AddRow(displayName(n), kind(n), size(n), path)
			}
			tbl.Print()
			fmt.Fprintln(out, infoStyle.Render(fmt.Sprintf("%d results", len(results))))
			return nil
		},
	}
}
