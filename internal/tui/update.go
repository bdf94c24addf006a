package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsirama/windows-explorer-clone/internal/explorer"
)

// Update handles events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case NoticeMsg:
		m.notice = string(msg)
		return m, nil

	case doneMsg:
		if m.busy > 0 {
			m.busy--
		}
		m.clamp()
		return m, nil

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		if m.exp.Properties().Visible {
			m.exp.HideProperties()
			return m, nil
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.notice = ""
	var cmd tea.Cmd
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
		m.exp.Select(m.selected())
	case "down", "j":
		if m.cursor < len(m.files())-1 {
			m.cursor++
		}
		m.exp.Select(m.selected())

	case "enter":
		if sel := m.selected(); sel != nil && sel.IsFolder() {
			m.exp.OpenItem(sel)
			m.cursor = 0
		}
	case "backspace", "h":
		m.exp.Back()
		m.cursor = 0
	case "l":
		m.exp.Forward()
		m.cursor = 0
	case "u":
		m.exp.Up()
		m.cursor = 0

	case "t":
		m.exp.NewTab()
		m.cursor = 0
	case "w":
		m.exp.CloseTab(m.exp.ActiveTab().ID)
		m.cursor = 0
	case "tab":
		m.nextTab()
		m.cursor = 0

	case "c":
		if sel := m.selected(); sel != nil {
			m.exp.Copy(sel)
		}
	case "x":
		if sel := m.selected(); sel != nil {
			m.exp.Cut(sel)
		}
	case "v":
		cmd = m.run("paste", m.exp.Paste)
	case "d":
		if sel := m.selected(); sel != nil {
			cmd = m.run("delete", func(ctx context.Context) error {
				return m.exp.Delete(ctx, sel)
			})
		}

	case "r":
		if sel := m.selected(); sel != nil {
			m.exp.StartRename(sel)
			cmd = m.prompt(modeRename, sel.Name, "")
		}
	case "/":
		cmd = m.prompt(modeSearch, m.exp.ActiveTab().SearchQuery, "search")
	case "n":
		cmd = m.prompt(modeNewFolder, "", explorer.DefaultFolderName)
	case "f":
		cmd = m.prompt(modeNewFile, "", explorer.DefaultFileName)

	case "p":
		sel := m.selected()
		if sel == nil {
			sel = m.exp.ActiveTab().CurrentFolder
		}
		m.exp.ShowProperties(sel)
	case "R":
		cmd = m.run("refresh", m.exp.Refresh)
	}
	return m, cmd
}

func (m *Model) prompt(mode inputMode, value, placeholder string) tea.Cmd {
	m.mode = mode
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return tea.Batch(m.input.Focus(), textinput.Blink)
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.mode == modeRename {
			m.exp.CancelRename()
		}
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil

	case tea.KeyEnter:
		var cmd tea.Cmd
		mode, value := m.mode, m.input.Value()
		m.mode = modeBrowse
		m.input.Blur()
		switch mode {
		case modeRename:
			m.exp.SetRenameText(value)
			cmd = m.run("rename", m.exp.CommitRename)
		case modeSearch:
			m.cursor = 0
			cmd = m.run("search", func(ctx context.Context) error {
				return m.exp.Search(ctx, value)
			})
		case modeNewFolder:
			cmd = m.run("create", func(ctx context.Context) error {
				_, err := m.exp.CreateFolder(ctx, value)
				return err
			})
		case modeNewFile:
			cmd = m.run("create", func(ctx context.Context) error {
				_, err := m.exp.CreateFile(ctx, value)
				return err
			})
		}
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) nextTab() {
	tabs := m.exp.Tabs()
	active := m.exp.ActiveTab().ID
	for i, t := range tabs {
		if t.ID == active {
			m.exp.SwitchTab(tabs[(i+1)%len(tabs)].ID)
			return
		}
	}
}
