package explorer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samsirama/windows-explorer-clone/internal/folder"
	"github.com/samsirama/windows-explorer-clone/internal/metadata/memory"
	"github.com/samsirama/windows-explorer-clone/pkg/models"
	"github.com/samsirama/windows-explorer-clone/pkg/protocol"
)

var errBackend = errors.New("backend unavailable")

// fakeBackend serves the explorer from a real folder service over the
// memory store, with per-operation failure and blocking hooks.
type fakeBackend struct {
	svc *folder.Service

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]error
	gate  map[string]chan struct{}
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		svc:   folder.NewService(memory.New(), nil, 0),
		calls: make(map[string]int),
		fail:  make(map[string]error),
		gate:  make(map[string]chan struct{}),
	}
}

func (f *fakeBackend) before(op string) error {
	f.mu.Lock()
	f.calls[op]++
	err := f.fail[op]
	g := f.gate[op]
	f.mu.Unlock()
	if g != nil {
		<-g
	}
	return err
}

func (f *fakeBackend) setFail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeBackend) block(op string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := make(chan struct{})
	f.gate[op] = g
	return g
}

func (f *fakeBackend) unblock(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.gate, op)
}

func (f *fakeBackend) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeBackend) FetchTree(ctx context.Context) ([]*models.Node, error) {
	if err := f.before("tree"); err != nil {
		return nil, err
	}
	return f.svc.Tree(ctx)
}

func (f *fakeBackend) Search(ctx context.Context, query string) ([]*models.Node, error) {
	if err := f.before("search"); err != nil {
		return nil, err
	}
	return f.svc.Search(ctx, query)
}

func (f *fakeBackend) CreateNode(ctx context.Context, req protocol.CreateNodeRequest) (*models.Node, error) {
	if err := f.before("create"); err != nil {
		return nil, err
	}
	return f.svc.Create(ctx, req)
}

func (f *fakeBackend) UpdateNode(ctx context.Context, id string, patch models.NodePatch) (*models.Node, error) {
	if err := f.before("update"); err != nil {
		return nil, err
	}
	return f.svc.Update(ctx, id, patch)
}

func (f *fakeBackend) DeleteNode(ctx context.Context, id string) error {
	if err := f.before("delete"); err != nil {
		return err
	}
	_, err := f.svc.Delete(ctx, id, false)
	return err
}

// seed creates a node directly on the backend, bypassing the explorer.
func (f *fakeBackend) seed(t *testing.T, name string, typ models.NodeType, parent *models.Node, size int64) *models.Node {
	t.Helper()
	req := protocol.CreateNodeRequest{Name: name, Type: typ}
	if parent != nil {
		req.ParentID = models.StringPtr(parent.ID)
	}
	if typ == models.TypeFile {
		req.Size = models.Int64Ptr(size)
	}
	n, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return n
}

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) Notify(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

type fixture struct {
	backend *fakeBackend
	notes   *recorder
	exp     *Explorer

	documents, work, reports, music, pictures *models.Node
	q1, cv                                    *models.Node
}

// newFixture builds:
//
//	Documents/
//	  Work/
//	    Reports/
//	      q1.txt (100)
//	  cv.pdf (50)
//	Music/
//	Pictures/
func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := newFakeBackend()
	f := &fixture{backend: b, notes: &recorder{}}
	f.documents = b.seed(t, "Documents", models.TypeFolder, nil, 0)
	f.work = b.seed(t, "Work", models.TypeFolder, f.documents, 0)
	f.reports = b.seed(t, "Reports", models.TypeFolder, f.work, 0)
	f.q1 = b.seed(t, "q1.txt", models.TypeFile, f.reports, 100)
	f.cv = b.seed(t, "cv.pdf", models.TypeFile, f.documents, 50)
	f.music = b.seed(t, "Music", models.TypeFolder, nil, 0)
	f.pictures = b.seed(t, "Pictures", models.TypeFolder, nil, 0)

	f.exp = New(b, WithNotifier(f.notes))
	require.NoError(t, f.exp.Refresh(context.Background()))
	return f
}

func names(nodes []*models.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Name)
	}
	return out
}

func ids(nodes []*models.Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			out = append(out, "")
			continue
		}
		out = append(out, n.ID)
	}
	return out
}

func TestNewStartsWithOneRootTab(t *testing.T) {
	e := New(newFakeBackend())
	tabs := e.Tabs()
	require.Len(t, tabs, 1)
	assert.Equal(t, []*models.Node{nil}, tabs[0].History)
	assert.Equal(t, 0, tabs[0].HistoryIndex)
	assert.Nil(t, tabs[0].CurrentFolder)
	assert.Empty(t, tabs[0].CurrentFiles)
}

func TestRefreshListsRoots(t *testing.T) {
	f := newFixture(t)
	tab := f.exp.ActiveTab()
	assert.Equal(t, []string{"Documents", "Music", "Pictures"}, names(tab.CurrentFiles))
}

func TestNavigationHistory(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	a, b, c := f.documents, f.music, f.pictures

	e.NavigateTo(a)
	e.NavigateTo(b)
	e.NavigateTo(c)
	tab := e.ActiveTab()
	assert.Equal(t, []string{"", a.ID, b.ID, c.ID}, ids(tab.History))
	assert.Equal(t, 3, tab.HistoryIndex)

	e.Back()
	e.Back()
	tab = e.ActiveTab()
	assert.Equal(t, 1, tab.HistoryIndex)
	assert.Equal(t, a.ID, tab.CurrentFolder.ID)

	d := f.work
	e.NavigateTo(d)
	tab = e.ActiveTab()
	assert.Equal(t, []string{"", a.ID, d.ID}, ids(tab.History))
	assert.Equal(t, 2, tab.HistoryIndex)
	assert.False(t, e.CanForward())
}

func TestBackForward(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	pushed := []*models.Node{f.documents, f.work, f.reports}
	for _, n := range pushed {
		e.NavigateTo(n)
	}

	for i := 0; i < len(pushed)-1; i++ {
		e.Back()
	}
	assert.Equal(t, f.documents.ID, e.ActiveTab().CurrentFolder.ID)
	assert.True(t, e.CanForward())

	e.Forward()
	assert.Equal(t, f.work.ID, e.ActiveTab().CurrentFolder.ID)

	// Back never mutates the stack and stops at the root entry.
	for i := 0; i < 10; i++ {
		e.Back()
	}
	tab := e.ActiveTab()
	assert.Equal(t, 0, tab.HistoryIndex)
	assert.Nil(t, tab.CurrentFolder)
	assert.Len(t, tab.History, 4)
	assert.False(t, e.CanBack())

	for i := 0; i < 10; i++ {
		e.Forward()
	}
	assert.Equal(t, 3, e.ActiveTab().HistoryIndex)
}

func TestNavigateToCurrentFolderIsNoop(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.NavigateTo(f.documents)
	e.NavigateTo(f.documents)
	tab := e.ActiveTab()
	assert.Len(t, tab.History, 2)
	assert.Equal(t, 1, tab.HistoryIndex)

	e.NavigateTo(f.cv)
	assert.Len(t, e.ActiveTab().History, 2, "files are not navigable")
}

func TestListingFollowsFolder(t *testing.T) {
	f := newFixture(t)
	f.exp.NavigateTo(f.documents)
	assert.Equal(t, []string{"Work", "cv.pdf"}, names(f.exp.ActiveTab().CurrentFiles))
}

func TestUp(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.NavigateTo(f.reports)
	e.Up()
	assert.Equal(t, f.work.ID, e.ActiveTab().CurrentFolder.ID)
	e.Up()
	e.Up()
	tab := e.ActiveTab()
	assert.Nil(t, tab.CurrentFolder)
	assert.Len(t, tab.History, 5)

	e.Up()
	assert.Len(t, e.ActiveTab().History, 5, "up at the root does nothing")
}

func TestUpWithStaleParentGoesToRoot(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.NavigateTo(f.documents)
	e.NavigateTo(f.work)

	// Documents vanishes from the server; Work is orphaned.
	_, err := f.backend.svc.Delete(context.Background(), f.documents.ID, false)
	require.NoError(t, err)
	require.NoError(t, e.Refresh(context.Background()))

	e.Up()
	assert.Nil(t, e.ActiveTab().CurrentFolder)
}

func TestOpenItem(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.OpenItem(f.documents)
	assert.Equal(t, f.documents.ID, e.ActiveTab().CurrentFolder.ID)

	e.OpenItem(f.cv)
	assert.Equal(t, f.documents.ID, e.ActiveTab().CurrentFolder.ID)
	props := e.Properties()
	require.True(t, props.Visible)
	assert.Equal(t, "cv.pdf", props.Node.Name)
}

func TestBreadcrumbs(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	assert.Equal(t, []Crumb{{Name: RootName}}, e.Breadcrumbs())

	e.NavigateTo(f.reports)
	crumbs := e.Breadcrumbs()
	require.Len(t, crumbs, 4)
	assert.Equal(t, []string{RootName, "Documents", "Work", "Reports"},
		[]string{crumbs[0].Name, crumbs[1].Name, crumbs[2].Name, crumbs[3].Name})
	assert.Equal(t, f.reports.ID, crumbs[3].ID)
}

func TestBreadcrumbsStopAtUnresolvedParent(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.NavigateTo(f.reports)
	_, err := f.backend.svc.Delete(context.Background(), f.work.ID, false)
	require.NoError(t, err)
	require.NoError(t, e.Refresh(context.Background()))

	crumbs := e.Breadcrumbs()
	require.Len(t, crumbs, 2)
	assert.Equal(t, "Reports", crumbs[1].Name)
}

func TestTabs(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	first := e.ActiveTab().ID
	e.NavigateTo(f.documents)

	second := e.NewTab()
	assert.Equal(t, second.ID, e.ActiveTab().ID)
	assert.Nil(t, second.CurrentFolder)
	assert.Equal(t, []string{"Documents", "Music", "Pictures"}, names(second.CurrentFiles))

	// Tabs navigate independently.
	e.NavigateTo(f.music)
	require.True(t, e.SwitchTab(first))
	assert.Equal(t, f.documents.ID, e.ActiveTab().CurrentFolder.ID)
	assert.False(t, e.SwitchTab("nope"))
}

func TestCloseTab(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	t1 := e.ActiveTab().ID
	t2 := e.NewTab().ID
	t3 := e.NewTab().ID

	e.SwitchTab(t2)
	e.CloseTab(t2)
	assert.Equal(t, t3, e.ActiveTab().ID, "tab taking the closed index becomes active")

	e.CloseTab(t3)
	assert.Equal(t, t1, e.ActiveTab().ID, "closing the last index falls back to the new last tab")

	e.CloseTab(t1)
	require.Len(t, e.Tabs(), 1, "closing the last remaining tab is a no-op")
	assert.Equal(t, t1, e.ActiveTab().ID)
}

func TestCloseInactiveTabKeepsActive(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	t1 := e.ActiveTab().ID
	t2 := e.NewTab().ID
	e.CloseTab(t1)
	assert.Equal(t, t2, e.ActiveTab().ID)
	assert.Len(t, e.Tabs(), 1)
}

func TestRenameUnchangedSendsNothing(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.StartRename(f.music)
	assert.True(t, e.Rename().Editing)
	e.SetRenameText("  Music ")
	require.NoError(t, e.CommitRename(context.Background()))
	assert.Zero(t, f.backend.count("update"))
	assert.False(t, e.Rename().Editing)

	e.StartRename(f.music)
	e.SetRenameText("   ")
	require.NoError(t, e.CommitRename(context.Background()))
	assert.Zero(t, f.backend.count("update"))
	assert.Equal(t, "Music", e.FindFolder(f.music.ID).Name)
}

func TestRenameAppliesBeforeServerConfirms(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	gate := f.backend.block("update")

	e.StartRename(f.music)
	e.SetRenameText("Songs")
	done := make(chan error, 1)
	go func() { done <- e.CommitRename(context.Background()) }()

	require.Eventually(t, func() bool { return f.backend.count("update") == 1 }, time.Second, time.Millisecond)
	assert.Contains(t, names(e.ActiveTab().CurrentFiles), "Songs")
	assert.False(t, e.Rename().Editing)

	close(gate)
	require.NoError(t, <-done)
	require.NoError(t, e.Refresh(context.Background()))
	assert.Contains(t, names(e.ActiveTab().CurrentFiles), "Songs")
}

func TestRenameFailureReverts(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	f.backend.setFail("update", errBackend)

	e.StartRename(f.music)
	e.SetRenameText("Songs")
	err := e.CommitRename(context.Background())
	assert.ErrorIs(t, err, errBackend)
	assert.Contains(t, names(e.ActiveTab().CurrentFiles), "Music")
	assert.Equal(t, 1, f.notes.count())
	assert.Equal(t, 1, f.backend.count("tree"), "rename failure does not reload")
}

func TestOnlyOneRenameAtATime(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.StartRename(f.music)
	e.StartRename(f.pictures)
	st := e.Rename()
	assert.Equal(t, f.pictures.ID, st.NodeID)
	assert.Equal(t, "Pictures", st.Text)
	e.CancelRename()
	assert.False(t, e.Rename().Editing)
}

func TestCreateFolderPlaceholder(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.NavigateTo(f.documents)
	gate := f.backend.block("create")

	done := make(chan *models.Node, 1)
	go func() {
		n, err := e.CreateFolder(context.Background(), "Invoices")
		assert.NoError(t, err)
		done <- n
	}()

	require.Eventually(t, func() bool { return f.backend.count("create") == 1 }, time.Second, time.Millisecond)
	files := e.ActiveTab().CurrentFiles
	require.Len(t, files, 3)
	assert.Equal(t, "Invoices", files[2].Name)
	assert.Contains(t, files[2].ID, TempIDPrefix)

	close(gate)
	created := <-done
	require.NotNil(t, created)
	assert.NotContains(t, created.ID, TempIDPrefix)
	assert.Equal(t, f.documents.ID, created.Parent())

	tab := e.ActiveTab()
	assert.Equal(t, created.ID, tab.CurrentFiles[2].ID)
	assert.Equal(t, created.ID, tab.SelectedItem.ID)
}

func TestCreateFailureResyncs(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	f.backend.setFail("create", errBackend)

	_, err := e.CreateFile(context.Background(), "")
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, []string{"Documents", "Music", "Pictures"}, names(e.ActiveTab().CurrentFiles))
	assert.Equal(t, 2, f.backend.count("tree"))
	assert.Equal(t, 1, f.notes.count())
}

func TestDeleteIsOptimistic(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	require.NoError(t, e.Delete(context.Background(), f.music))
	assert.Equal(t, []string{"Documents", "Pictures"}, names(e.ActiveTab().CurrentFiles))
	assert.Equal(t, 1, f.backend.count("tree"), "successful delete does not reload")
}

func TestDeleteFailureResyncs(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	f.backend.setFail("delete", errBackend)

	err := e.Delete(context.Background(), f.music)
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, []string{"Documents", "Music", "Pictures"}, names(e.ActiveTab().CurrentFiles))
	assert.Equal(t, 1, f.notes.count())
}

func TestDeleteFolderOrphansChildrenOnReload(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	require.NoError(t, e.Delete(context.Background(), f.documents))
	require.NoError(t, e.Refresh(context.Background()))
	assert.Equal(t, []string{"Work", "cv.pdf", "Music", "Pictures"}, names(e.ActiveTab().CurrentFiles))
}

func TestCutPasteMovesAndClears(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.Cut(f.cv, f.reports)
	require.Equal(t, ClipboardCut, e.Clipboard().Action)

	e.NavigateTo(f.music)
	require.NoError(t, e.Paste(context.Background()))

	assert.Nil(t, e.Clipboard())
	assert.Equal(t, 2, f.backend.count("update"))
	assert.ElementsMatch(t, []string{"cv.pdf", "Reports"}, names(e.ActiveTab().CurrentFiles))

	// The moved folder keeps its contents.
	e.NavigateTo(e.FindFolder(f.reports.ID))
	assert.Equal(t, []string{"q1.txt"}, names(e.ActiveTab().CurrentFiles))
}

func TestCutPasteToRoot(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.Cut(f.cv)
	require.NoError(t, e.Paste(context.Background()))
	assert.Contains(t, names(e.ActiveTab().CurrentFiles), "cv.pdf")

	for _, r := range e.Roots() {
		if r.ID == f.cv.ID {
			assert.Nil(t, r.ParentID)
		}
	}
}

func TestCutPasteIntoDescendantIsSkipped(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.Cut(f.documents)
	e.NavigateTo(f.documents)
	e.NavigateTo(f.work)
	require.NoError(t, e.Paste(context.Background()))

	assert.Zero(t, f.backend.count("update"))
	assert.Equal(t, 1, f.notes.count())
	require.NotNil(t, e.Clipboard(), "nothing moved, so the cut stays staged")
	assert.Equal(t, ClipboardCut, e.Clipboard().Action)
}

func TestCutPasteUsesCurrentParent(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	ctx := context.Background()
	e.Cut(f.cv)

	// cv.pdf leaves Documents after it was cut.
	_, err := f.backend.svc.Update(ctx, f.cv.ID, models.NodePatch{ParentID: models.StringPtr(f.music.ID), ParentSet: true})
	require.NoError(t, err)
	require.NoError(t, e.Refresh(ctx))

	e.NavigateTo(f.documents)
	require.NoError(t, e.Paste(ctx))
	assert.Equal(t, 1, f.backend.count("update"))
	assert.Contains(t, names(e.ActiveTab().CurrentFiles), "cv.pdf")
	assert.Nil(t, e.Clipboard())

	e.Cut(f.cv)
	require.NoError(t, e.Paste(ctx))
	assert.Equal(t, 1, f.backend.count("update"), "already in the folder")
}

func TestCutPasteFailureKeepsClipboard(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	f.backend.setFail("update", errBackend)
	e.Cut(f.cv)
	e.NavigateTo(f.music)

	err := e.Paste(context.Background())
	assert.ErrorIs(t, err, errBackend)
	require.NotNil(t, e.Clipboard())
	assert.Empty(t, e.ActiveTab().CurrentFiles, "reload restores the server state")
	assert.Equal(t, 1, f.notes.count())
}

func TestCopyPasteKeepsClipboard(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.Copy(f.cv)
	e.NavigateTo(f.music)

	require.NoError(t, e.Paste(context.Background()))
	require.NoError(t, e.Paste(context.Background()))

	cb := e.Clipboard()
	require.NotNil(t, cb)
	assert.Equal(t, ClipboardCopy, cb.Action)
	assert.Equal(t, []string{"cv.pdf (Copy)", "cv.pdf (Copy)"}, names(e.ActiveTab().CurrentFiles))
	assert.EqualValues(t, 50, *e.ActiveTab().CurrentFiles[0].Size)
}

func TestCutUsesSelectionByDefault(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.Cut()
	assert.Nil(t, e.Clipboard())

	e.Select(f.music)
	e.Cut()
	cb := e.Clipboard()
	require.NotNil(t, cb)
	assert.Equal(t, []string{"Music"}, names(cb.Nodes))
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.NavigateTo(f.documents)

	require.NoError(t, e.Search(context.Background(), "R"))
	tab := e.ActiveTab()
	assert.Equal(t, "R", tab.SearchQuery)
	assert.ElementsMatch(t, []string{"Work", "Reports", "Pictures"}, names(tab.CurrentFiles))
	assert.Equal(t, f.documents.ID, tab.CurrentFolder.ID)

	require.NoError(t, e.Search(context.Background(), ""))
	tab = e.ActiveTab()
	assert.Empty(t, tab.SearchQuery)
	assert.Equal(t, []string{"Work", "cv.pdf"}, names(tab.CurrentFiles))
}

func TestSearchResultDiscardedAfterNavigation(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	gate := f.backend.block("search")

	done := make(chan error, 1)
	go func() { done <- e.Search(context.Background(), "q1") }()
	require.Eventually(t, func() bool { return f.backend.count("search") == 1 }, time.Second, time.Millisecond)

	e.NavigateTo(f.music)
	close(gate)
	require.NoError(t, <-done)

	tab := e.ActiveTab()
	assert.Empty(t, tab.SearchQuery)
	assert.Equal(t, f.music.ID, tab.CurrentFolder.ID)
	assert.Empty(t, tab.CurrentFiles)
}

func TestNewerSearchWins(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	gate := f.backend.block("search")

	done := make(chan error, 1)
	go func() { done <- e.Search(context.Background(), "Music") }()
	require.Eventually(t, func() bool { return f.backend.count("search") == 1 }, time.Second, time.Millisecond)

	f.backend.unblock("search")
	require.NoError(t, e.Search(context.Background(), "cv"))
	close(gate)
	require.NoError(t, <-done)

	tab := e.ActiveTab()
	assert.Equal(t, "cv", tab.SearchQuery)
	assert.Equal(t, []string{"cv.pdf"}, names(tab.CurrentFiles))
}

func TestSearchFailureNotifies(t *testing.T) {
	f := newFixture(t)
	f.backend.setFail("search", errBackend)
	err := f.exp.Search(context.Background(), "x")
	assert.ErrorIs(t, err, errBackend)
	assert.Equal(t, 1, f.notes.count())
}

func TestContextMenuDispatchClosesMenu(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.OpenContextMenu(10, 20, f.music)
	menu := e.ContextMenu()
	require.True(t, menu.Visible)
	assert.Equal(t, 10, menu.X)
	assert.Equal(t, f.music.ID, menu.Node.ID)
	assert.Equal(t, f.music.ID, e.ActiveTab().SelectedItem.ID)
	assert.Contains(t, e.MenuActions(), ActionRename)

	require.NoError(t, e.Dispatch(context.Background(), ActionCopy))
	assert.False(t, e.ContextMenu().Visible)
	assert.Equal(t, ClipboardCopy, e.Clipboard().Action)

	e.OpenContextMenu(0, 0, nil)
	assert.Contains(t, e.MenuActions(), ActionPaste)
	require.NoError(t, e.Dispatch(context.Background(), ActionNewFolder))
	assert.False(t, e.ContextMenu().Visible)
	assert.Contains(t, names(e.ActiveTab().CurrentFiles), DefaultFolderName)

	e.OpenContextMenu(0, 0, f.music)
	require.NoError(t, e.Dispatch(context.Background(), ActionOpen))
	assert.Equal(t, f.music.ID, e.ActiveTab().CurrentFolder.ID)

	e.OpenContextMenu(0, 0, nil)
	assert.Error(t, e.Dispatch(context.Background(), Action("bogus")))
	assert.False(t, e.ContextMenu().Visible)
}

func TestContextMenuRenameAndDelete(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.OpenContextMenu(0, 0, f.pictures)
	require.NoError(t, e.Dispatch(context.Background(), ActionRename))
	assert.Equal(t, f.pictures.ID, e.Rename().NodeID)
	e.CancelRename()

	e.OpenContextMenu(0, 0, f.pictures)
	require.NoError(t, e.Dispatch(context.Background(), ActionDelete))
	assert.NotContains(t, names(e.ActiveTab().CurrentFiles), "Pictures")
}

func TestProperties(t *testing.T) {
	f := newFixture(t)
	e := f.exp
	e.ShowProperties(f.documents)
	p := e.Properties()
	require.True(t, p.Visible)
	assert.Equal(t, `This PC\Documents`, p.Path)
	assert.Equal(t, 2, p.Files)
	assert.Equal(t, 2, p.Folders)
	assert.EqualValues(t, 150, p.TotalSize)

	e.ShowProperties(f.q1)
	p = e.Properties()
	assert.Equal(t, `This PC\Documents\Work\Reports\q1.txt`, p.Path)
	assert.EqualValues(t, 100, p.TotalSize)

	e.HideProperties()
	assert.False(t, e.Properties().Visible)
}

func TestRefreshFailureNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	f.backend.setFail("tree", errBackend)
	assert.ErrorIs(t, f.exp.Refresh(context.Background()), errBackend)
	assert.Equal(t, 1, f.notes.count())
	assert.Len(t, f.exp.ActiveTab().CurrentFiles, 3, "cache kept on failure")
}

func TestSnapshotsAreCopies(t *testing.T) {
	f := newFixture(t)
	tab := f.exp.ActiveTab()
	tab.CurrentFiles[0].Name = "mutated"
	assert.Equal(t, "Documents", f.exp.ActiveTab().CurrentFiles[0].Name)
}
