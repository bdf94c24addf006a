// Package tui renders an Explorer in the terminal.
package tui

import (
	"context"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/samsirama/windows-explorer-clone/internal/explorer"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
)

type inputMode int

const (
	modeBrowse inputMode = iota
	modeRename
	modeSearch
	modeNewFolder
	modeNewFile
)

// NoticeMsg carries an explorer notification into the program.
type NoticeMsg string

// doneMsg reports the end of a background explorer call.
type doneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model for the explorer window.
type Model struct {
	exp *explorer.Explorer
	ctx context.Context

	cursor int
	mode   inputMode
	input  textinput.Model
	notice string
	busy   int

	width, height int
}

// New returns a model over exp. Background calls use ctx.
func New(ctx context.Context, exp *explorer.Explorer) Model {
	ti := textinput.New()
	ti.CharLimit = 255
	ti.Width = 40
	return Model{exp: exp, ctx: ctx, input: ti}
}

// Notices forwards explorer notifications to a program. Messages sent
// before Attach are dropped.
type Notices struct {
	mu sync.Mutex
	p  *tea.Program
}

var _ explorer.Notifier = (*Notices)(nil)

// Attach sets the receiving program.
func (n *Notices) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.p = p
}

// Notify sends msg to the attached program.
func (n *Notices) Notify(msg string) {
	n.mu.Lock()
	p := n.p
	n.mu.Unlock()
	if p != nil {
		p.Send(NoticeMsg(msg))
	}
}

// Init loads the tree.
func (m Model) Init() tea.Cmd {
	return m.run("refresh", m.exp.Refresh)
}

// run executes fn off the update loop.
func (m *Model) run(op string, fn func(context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg {
		return doneMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) files() []*models.Node {
	return m.exp.ActiveTab().CurrentFiles
}

// selected returns the node under the cursor, or nil for an empty listing.
func (m Model) selected() *models.Node {
	files := m.files()
	if m.cursor < 0 || m.cursor >= len(files) {
		return nil
	}
	return files[m.cursor]
}

func (m *Model) clamp() {
	n := len(m.files())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}
