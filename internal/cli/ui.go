package cli

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/rodaine/table"

	"github.com/samsirama/windows-explorer-clone/internal/tui"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#0099FF"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
	folderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

// newTable creates a table writing to w with consistent styling.
func newTable(w io.Writer, headers ...interface{}) table.Table {
	tbl := table.New(headers...)

	// Only the first column is bold; formatting headers breaks the layout.
	tbl.WithFirstColumnFormatter(func(format string, vals ...interface{}) string {
		return boldStyle.Render(fmt.Sprintf(format, vals...))
	})
	tbl.WithPadding(2)
	tbl.WithWidthFunc(lipgloss.Width)
	tbl.WithWriter(w)
	return tbl
}

func success(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, successStyle.Render(fmt.Sprintf(format, args...)))
}

func kind(n *models.Node) string {
	if n.IsFolder() {
		return "folder"
	}
	return "file"
}

func displayName(n *models.Node) string {
	if n.IsFolder() {
		return folderStyle.Render(n.Name + "/")
	}
	return n.Name
}

func size(n *models.Node) string {
	if n.IsFolder() || n.Size == nil {
		return "-"
	}
	return tui.FormatSize(*n.Size)
}
