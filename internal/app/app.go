package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/normalize"
	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/push"
	appsync "github.com/nhle/fleetbell/internal/sync"
	"github.com/nhle/fleetbell/internal/theme"
	"github.com/nhle/fleetbell/internal/ui"
	"github.com/nhle/fleetbell/internal/ui/bell"
	"github.com/nhle/fleetbell/internal/ui/command"
	"github.com/nhle/fleetbell/internal/ui/detail"
	helpview "github.com/nhle/fleetbell/internal/ui/help"
	"github.com/nhle/fleetbell/internal/ui/notiflist"
	"github.com/nhle/fleetbell/internal/ui/permission"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewList ViewState = iota
	ViewHelp
	ViewCommand
	ViewDetail
)

// PasswordResetter runs the password reset action against the backend.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, emailAddress, username string) error
}

// Deps are the collaborators the root model drives.
type Deps struct {
	Store      *notifications.Store
	Adapter    *push.Adapter
	Normalizer *normalize.Normalizer
	Resetter   PasswordResetter
	Logger     *zap.Logger
}

// Model is the root Bubble Tea model. It owns the session: the store's
// change feed, the push subscription and the views that consume them.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	keys         *KeyMap

	list        notiflist.Model
	detailView  detail.Model
	helpView    helpview.Model
	commandView command.Model
	permission  permission.Model

	store      *notifications.Store
	adapter    *push.Adapter
	normalizer *normalize.Normalizer
	resetter   PasswordResetter
	bridge     *permission.Bridge
	feed       *appsync.Feed
	logger     *zap.Logger

	// ctx is cancelled when the session ends.
	ctx    context.Context
	cancel context.CancelFunc

	unread    int
	itemCount int
	pushState push.PermissionState
	status    string
	statusErr bool
	ready     bool
}

// New creates the root model. The store should already be seeding
// (see notifications.Create).
func New(deps Deps) Model {
	k := DefaultKeyMap()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		currentView: ViewList,
		keys:        k,
		list:        notiflist.New(deps.Store, k, 80, 22),
		detailView:  detail.New(k, 80, 22),
		helpView:    helpview.New(k, 80, 22),
		commandView: command.New(80, 22),
		permission:  permission.New(80),
		store:       deps.Store,
		adapter:     deps.Adapter,
		normalizer:  deps.Normalizer,
		resetter:    deps.Resetter,
		bridge:      permission.NewBridge(),
		feed:        appsync.NewFeed(deps.Store),
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		pushState:   push.PermissionDefault,
	}
}

// Init starts listening for store changes and permission requests, and
// runs the permission and push subscription step.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.list.Init(),
		m.feed.WaitForNext(),
		m.bridge.WaitForRequest(),
		appsync.Attach(
			m.ctx,
			m.adapter,
			m.bridge,
			m.store.Receiver(m.normalizer),
			m.logger,
		),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.list.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.permission.SetWidth(contentWidth)
		// Forward to the prompt so huh forms can calculate their layout.
		if m.permission.Active() {
			var cmd tea.Cmd
			m.permission, cmd = m.permission.Update(msg)
			return m, cmd
		}
		return m, nil

	case notifications.Snapshot:
		m.unread = msg.UnreadCount
		m.followDetail(msg.Items)
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, tea.Batch(cmd, m.feed.WaitForNext())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd

	case appsync.FeedClosedMsg:
		return m, nil

	case permission.RequestMsg:
		return m, m.permission.Prompt(msg)

	case permission.AnsweredMsg:
		return m, nil

	case appsync.AttachedMsg:
		m.pushState = msg.State
		switch {
		case push.IsPermissionDenied(msg.Err):
			return m, m.permission.Alert()
		case msg.Err != nil:
			m.setStatus("push unavailable: "+msg.Err.Error(), true)
		case msg.Subscribed:
			m.setStatus("listening for notifications", false)
		}
		return m, nil

	case permission.AlertDismissedMsg:
		return m, nil

	case notiflist.OpenMsg:
		m.detailView.SetEntry(msg.Entry)
		m.previousView = ViewList
		m.currentView = ViewDetail
		return m, nil

	case detail.BackMsg:
		m.closeDetail()
		return m, nil

	case detail.MarkReadMsg:
		m.store.MarkAsRead(msg.Index)
		return m, nil

	case notiflist.ResetPasswordMsg:
		m.setStatus("resetting password for "+msg.Username+"…", false)
		return m, m.resetPassword(msg)

	case resetPasswordResultMsg:
		if msg.err != nil {
			m.logger.Error("Password reset failed", zap.String("username", msg.username), zap.Error(msg.err))
			m.setStatus("password reset failed: "+msg.err.Error(), true)
			return m, nil
		}
		m.setStatus("password reset sent for "+msg.username, false)
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(command.Name(msg))

	case command.UnknownCommandMsg:
		m.currentView = m.previousView
		m.setStatus("unknown command: "+string(msg), true)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}

		// The permission prompt and the denied alert block everything else.
		if m.permission.Active() {
			var cmd tea.Cmd
			m.permission, cmd = m.permission.Update(msg)
			return m, cmd
		}

		switch {
		case key.Matches(msg, m.keys.Quit) && m.currentView == ViewList:
			return m.quit()

		case key.Matches(msg, m.keys.Help) && m.currentView != ViewCommand:
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewHelp
			return m, nil

		case key.Matches(msg, m.keys.Command):
			if m.currentView == ViewCommand {
				m.currentView = m.previousView
				return m, nil
			}
			m.previousView = m.currentView
			m.currentView = ViewCommand
			return m, m.commandView.Focus()

		case key.Matches(msg, m.keys.Back) && m.currentView != ViewList && m.currentView != ViewDetail:
			m.closeDetail()
			m.currentView = ViewList
			return m, nil
		}
	}

	if m.permission.Active() {
		var cmd tea.Cmd
		m.permission, cmd = m.permission.Update(msg)
		return m, cmd
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentView {
	case ViewList:
		m.list, cmd = m.list.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	}
	return m, cmd
}

// executeCommand handles a command from the command palette.
func (m Model) executeCommand(name command.Name) (tea.Model, tea.Cmd) {
	switch name {
	case command.ReadAll:
		m.store.MarkAllAsRead()
		m.setStatus("all notifications marked read", false)
	case command.ClearAll:
		m.store.DeleteAllNotifications()
		m.setStatus("all notifications deleted", false)
	case command.Help:
		m.previousView = ViewList
		m.currentView = ViewHelp
	case command.Quit:
		return m.quit()
	}
	return m, nil
}

// quit ends the session: the push subscription is dropped exactly once
// and the store stops accepting changes. Nothing is flushed.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.cancel()
	m.bridge.Close()
	m.adapter.Detach()
	m.feed.Stop()
	m.store.Dispose()
	return m, tea.Quit
}

// followDetail keeps the detail entry pointing at the same store item,
// including while help or the palette covers the pane. Pushes prepend, so
// growth shifts the index; if the item is gone the pane is closed.
func (m *Model) followDetail(items []model.Notification) {
	prev := m.itemCount
	m.itemCount = len(items)

	e, ok := m.detailView.Entry()
	if !ok {
		return
	}
	if len(items) > prev {
		e.Index += len(items) - prev
	}
	if e.Index >= len(items) {
		m.closeDetail()
		return
	}
	e.Notification = items[e.Index]
	m.detailView.Refresh(e)
}

// closeDetail drops the detail entry and leaves any view that would
// return to it.
func (m *Model) closeDetail() {
	m.detailView.Clear()
	if m.currentView == ViewDetail {
		m.currentView = ViewList
	}
	if m.previousView == ViewDetail {
		m.previousView = ViewList
	}
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	title := "Fleet Console"
	if m.currentView == ViewDetail {
		title += " › " + m.detailView.Title()
	}
	right := bell.Render(m.unread)
	if m.pushState == push.PermissionDenied {
		right = theme.HelpStyle.Render("push blocked") + "  " + right
	}
	header := m.layout.RenderHeader(title, right)
	statusBar := m.layout.RenderStatusBar(m.keyHints())
	return m.layout.RenderWithFrame(header, m.renderContent(), statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	if m.permission.Active() {
		return lipgloss.Place(
			m.layout.ContentWidth(), m.layout.ContentHeight(),
			lipgloss.Center, lipgloss.Center,
			m.permission.View(),
		)
	}

	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewDetail:
		return m.detailView.View()
	default:
		return m.list.View()
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.permission.Active() {
		return "enter confirm | ←/→ choose"
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return ": close command | enter execute | esc back"
	case ViewDetail:
		return "esc back | m read | r reset password | ↑/↓ scroll"
	}

	hints := "q quit | ? help | : commands | enter read | o details | d delete | M read all | D clear"
	if m.status != "" {
		return theme.ToastStyle(m.statusErr).Render(m.status) + "  " + hints
	}
	return hints
}
