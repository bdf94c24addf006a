package cli

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
)

// splitTarget separates "a/b/name" into the parent ref "a/b" and "name".
func splitTarget(ref string) (parent, name string) {
	ref = strings.ReplaceAll(ref, `\`, "/")
	dir, name := path.Split(strings.TrimRight(ref, "/"))
	return strings.TrimRight(dir, "/"), name
}

func newMkdirCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return create(cmd, opts, args[0], models.TypeFolder, nil)
		},
	}
}

func newTouchCommand(opts *options) *cobra.Command {
	var sz int64
	cmd := &cobra.Command{
		Use:   "touch <path>",
		Short: "Create a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return create(cmd, opts, args[0], models.TypeFile, models.Int64Ptr(sz))
		},
	}
	cmd.Flags().Int64Var(&sz, "size", 0, "File size in bytes")
	return cmd
}

func create(cmd *cobra.Command, opts *options, ref string, typ models.NodeType, sz *int64) error {
	ctx := cmd.Context()
	c := opts.client()
	parentPath, name := splitTarget(ref)
	if name == "" {
		return fmt.Errorf("missing name in %q", ref)
	}
	roots, err := fetch(ctx, c)
	if err != nil {
		return err
	}
	parent, err := resolveFolder(roots, parentPath)
	if err != nil {
		return err
	}

	n, err := c.CreateNode(ctx, protocol.CreateNodeRequest{
		Name:     name,
		Type:     typ,
		ParentID: parentRef(parent),
		Size:     sz,
	})
	if err != nil {
		return fmt.Errorf("create %s: %w", ref, err)
	}
	success(cmd.OutOrStdout(), "created %s %s (%s)", kind(n), n.Name, n.ID)
	return nil
}

func newMvCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <path> <folder>",
		Short: "Move a node into a folder (\"/\" for the top level)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()
			roots, err := fetch(ctx, c)
			if err != nil {
				return err
			}
			n, err := resolve(roots, args[0])
			if err != nil {
				return err
			}
			if n == nil {
				return fmt.Errorf("cannot move the root")
			}
			dest, err := resolveFolder(roots, args[1])
			if err != nil {
				return err
			}

			patch := models.NodePatch{ParentID: parentRef(dest), ParentSet: true}
			if _, err := c.UpdateNode(ctx, n.ID, patch); err != nil {
				return fmt.Errorf("move %s: %w", args[0], err)
			}
			where := "/"
			if dest != nil {
				where = pathOf(roots, dest)
			}
			success(cmd.OutOrStdout(), "moved %s to %s", n.Name, where)
			return nil
		},
	}
}

func newRenameCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <path> <new-name>",
		Short: "Rename a node",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()
			roots, err := fetch(ctx, c)
			if err != nil {
				return err
			}
			n, err := resolve(roots, args[0])
			if err != nil {
				return err
			}
			if n == nil {
				return fmt.Errorf("cannot rename the root")
			}
			name := args[1]
			updated, err := c.UpdateNode(ctx, n.ID, models.NodePatch{Name: &name})
			if err != nil {
				return fmt.Errorf("rename %s: %w", args[0], err)
			}
			success(cmd.OutOrStdout(), "renamed %s to %s", n.Name, updated.Name)
			return nil
		},
	}
}

func newRmCommand(opts *options) *cobra.Command {
	var recursive bool
	cmd := &cobra.Command{
		Use:   "rm <path>...",
		Short: "Delete nodes",
		Long: `Delete nodes. Without -r only the named node is removed and its
children move to the top level.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := opts.client()
			roots, err := fetch(ctx, c)
			if err != nil {
				return err
			}
			var targets []*models.Node
			for _, ref := range args {
				n, err := resolve(roots, ref)
				if err != nil {
					return err
				}
				if n == nil {
					return fmt.Errorf("cannot delete the root")
				}
				targets = append(targets, n)
			}

			out := cmd.OutOrStdout()
			for _, n := range targets {
				if recursive {
					count, err := c.DeleteTree(ctx, n.ID)
					if err != nil {
						return fmt.Errorf("delete %s: %w", n.Name, err)
					}
					success(out, "deleted %s (%d nodes)", n.Name, count)
					continue
				}
				if err := c.DeleteNode(ctx, n.ID); err != nil {
					return fmt.Errorf("delete %s: %w", n.Name, err)
				}
				success(out, "deleted %s", n.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Delete folders with everything below them")
	return cmd
}
