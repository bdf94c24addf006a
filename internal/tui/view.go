package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/samsirama/windows-explorer-clone/internal/explorer"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("81")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	folderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	fileStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))

	modalStyle = lipgloss.NewStyle().
			Padding(1, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63"))
)

const helpLine = "enter open  h back  l fwd  u up  t/w/tab tabs  c/x/v clipboard  d del  r rename  n/f new  / search  p props  R refresh  q quit"

// View renders the explorer.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewTabs())
	b.WriteString("\n")
	b.WriteString(m.viewCrumbs())
	b.WriteString("\n\n")

	if props := m.exp.Properties(); props.Visible {
		b.WriteString(viewProperties(props))
		b.WriteString("\n")
	} else {
		b.WriteString(m.viewListing())
	}

	b.WriteString("\n")
	b.WriteString(m.viewStatus())
	return b.String()
}

func (m Model) viewTabs() string {
	active := m.exp.ActiveTab().ID
	var parts []string
	for _, t := range m.exp.Tabs() {
		label := explorer.RootName
		if t.CurrentFolder != nil {
			label = t.CurrentFolder.Name
		}
		if t.SearchQuery != "" {
			label = fmt.Sprintf("Search: %s", t.SearchQuery)
		}
		if t.ID == active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) viewCrumbs() string {
	var names []string
	for _, c := range m.exp.Breadcrumbs() {
		names = append(names, c.Name)
	}
	line := crumbStyle.Render(strings.Join(names, " > "))
	if q := m.exp.ActiveTab().SearchQuery; q != "" {
		line += dimStyle.Render(fmt.Sprintf("  (results for %q)", q))
	}
	return line
}

func (m Model) viewListing() string {
	files := m.files()
	if len(files) == 0 {
		return dimStyle.Render("  This folder is empty.") + "\n"
	}

	rename := m.exp.Rename()
	visible := len(files)
	if m.height > 8 && visible > m.height-8 {
		visible = m.height - 8
	}
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}

	var b strings.Builder
	for i := start; i < len(files) && i < start+visible; i++ {
		n := files[i]
		name := n.Name
		if rename.Editing && rename.NodeID == n.ID && m.mode == modeRename {
			name = m.input.View()
		}
		line := fmt.Sprintf("%-2s %-40s %10s  %s", icon(n), name, sizeOf(n), explorer.CreatedAt(n))
		switch {
		case i == m.cursor:
			line = selectedStyle.Render("> " + line)
		case n.IsFolder():
			line = folderStyle.Render("  " + line)
		default:
			line = fileStyle.Render("  " + line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewStatus() string {
	var b strings.Builder
	switch m.mode {
	case modeSearch:
		b.WriteString("Search: " + m.input.View() + "\n")
	case modeNewFolder:
		b.WriteString("New folder: " + m.input.View() + "\n")
	case modeNewFile:
		b.WriteString("New file: " + m.input.View() + "\n")
	}

	status := fmt.Sprintf("%d items", len(m.files()))
	if cb := m.exp.Clipboard(); cb != nil {
		status += fmt.Sprintf("  |  %s: %d", strings.ToLower(string(cb.Action)), len(cb.Nodes))
	}
	if m.busy > 0 {
		status += "  |  working..."
	}
	b.WriteString(dimStyle.Render(status))
	b.WriteString("\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(helpLine))
	return b.String()
}

func viewProperties(p explorer.Properties) string {
	n := p.Node
	kind := "File"
	if n.IsFolder() {
		kind = "Folder"
	}
	lines := []string{
		crumbStyle.Render(n.Name),
		"",
		fmt.Sprintf("Type:     %s", kind),
		fmt.Sprintf("Location: %s", p.Path),
		fmt.Sprintf("Size:     %s", FormatSize(p.TotalSize)),
	}
	if n.IsFolder() {
		lines = append(lines, fmt.Sprintf("Contains: %d files, %d folders", p.Files, p.Folders))
	}
	lines = append(lines, fmt.Sprintf("Created:  %s", explorer.CreatedAt(n)))
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func icon(n *models.Node) string {
	if n.IsFolder() {
		return "D"
	}
	return "F"
}

func sizeOf(n *models.Node) string {
	if n.IsFolder() || n.Size == nil {
		return ""
	}
	return FormatSize(*n.Size)
}

// FormatSize renders a byte count with a binary unit.
func FormatSize(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}
