package app

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ymori/salesdesk/internal/auth"
	"github.com/ymori/salesdesk/internal/blob"
	"github.com/ymori/salesdesk/internal/customers"
	"github.com/ymori/salesdesk/internal/keys"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/store"
	"github.com/ymori/salesdesk/internal/tasks"
	"github.com/ymori/salesdesk/internal/threads"
	"github.com/ymori/salesdesk/internal/ui"
	"github.com/ymori/salesdesk/internal/ui/commentform"
	"github.com/ymori/salesdesk/internal/ui/customermgr"
	"github.com/ymori/salesdesk/internal/ui/detail"
	helpview "github.com/ymori/salesdesk/internal/ui/help"
	loginview "github.com/ymori/salesdesk/internal/ui/login"
	"github.com/ymori/salesdesk/internal/ui/notifcenter"
	"github.com/ymori/salesdesk/internal/ui/taskform"
	"github.com/ymori/salesdesk/internal/ui/tasklist"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewList
	ViewDetail
	ViewTaskForm
	ViewCommentForm
	ViewCustomers
	ViewNotifications
	ViewHelp
)

// Deps bundles the services the root model drives.
type Deps struct {
	Store     store.Store
	Auth      auth.Provider
	Tasks     *tasks.Service
	Threads   *threads.Service
	Customers *customers.Service
	Blob      blob.Storage
}

// Model is the root Bubble Tea model that manages authentication, view
// routing, layout, and the unread notification badge.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	deps         Deps
	keys         *keys.KeyMap

	user  *model.User
	actor policy.Actor

	center *notify.Center
	sub    *store.Subscription

	loginView    loginview.Model
	taskList     tasklist.Model
	detailView   detail.Model
	taskFormView taskform.Model
	commentView  commentform.Model
	customerView customermgr.Model
	notifView    notifcenter.Model
	helpView     helpview.Model

	ready       bool
	unreadCount int
	statusMsg   string
}

// New creates the root application model. The session gate runs first; the
// main views are built once a user is signed in.
func New(deps Deps) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView:  ViewLogin,
		deps:         deps,
		keys:         k,
		loginView:    loginview.New(deps.Auth, 80, 24),
		taskList:     tasklist.New(deps.Tasks, policy.Actor{}, k, 80, 24),
		detailView:   detail.New(k, 80, 24),
		taskFormView: taskform.New(80, 24),
		commentView:  commentform.New(80, 24),
		customerView: customermgr.New(deps.Customers, k, 80, 24),
		notifView:    notifcenter.New(nil, k, 80, 24),
		helpView:     helpview.New(k, 80, 24),
	}
}

// Init restores a persisted session if one exists and starts the login
// form otherwise.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.loginView.Init(),
		m.restoreSession(),
	)
}

// signIn wires up the per-user state once authentication succeeds.
func (m *Model) signIn(user model.User) tea.Cmd {
	m.user = &user
	m.actor = policy.Actor{UserID: user.ID, Role: user.Role}

	m.center = notify.NewCenter(m.deps.Store, user.ID)
	m.sub = m.center.Subscribe()

	w := m.layout.ContentWidth()
	h := m.layout.ContentHeight()
	if !m.ready {
		w, h = 80, 24
	}
	m.taskList = tasklist.New(m.deps.Tasks, m.actor, m.keys, w, h)
	m.notifView = notifcenter.New(m.center, m.keys, w, h)

	m.currentView = ViewList
	return tea.Batch(
		m.loadBoard(),
		m.fetchUnreadCount(),
		m.waitForNotification(),
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
		m.loginView.SetSize(contentWidth, contentHeight)
		m.taskList.SetSize(contentWidth, contentHeight)
		m.detailView.SetSize(contentWidth, contentHeight)
		m.taskFormView.SetSize(contentWidth, contentHeight)
		m.commentView.SetSize(contentWidth, contentHeight)
		m.customerView.SetSize(contentWidth, contentHeight)
		m.notifView.SetSize(contentWidth, contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		// Forward to active view so huh forms can calculate their layout.
		return m.updateActiveView(msg)

	case sessionRestoredMsg:
		if msg.user != nil {
			cmd := m.signIn(*msg.user)
			return m, cmd
		}
		return m, nil

	case loginview.SignedInMsg:
		cmd := m.signIn(msg.User)
		return m, cmd

	case boardLoadedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		return m, m.taskList.LoadTasks()

	case notificationArrivedMsg:
		// Re-arm the feed wait and refresh the badge. A reply or status
		// change elsewhere also means the board may be out of date.
		return m, tea.Batch(
			m.fetchUnreadCount(),
			m.waitForNotification(),
			m.loadBoard(),
		)

	case unreadCountMsg:
		m.unreadCount = msg.count
		return m, nil

	case tasklist.SelectedTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetLoading(true)
		return m, m.loadTaskDetail(msg.TaskID)

	case detail.DetailLoadedMsg:
		var cmd tea.Cmd
		m.detailView, cmd = m.detailView.Update(msg)
		return m, cmd

	case detail.BackMsg:
		m.currentView = ViewList
		return m, m.taskList.LoadTasks()

	case detail.ActionMsg:
		return m.handleTaskAction(msg)

	case taskActedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		m.statusMsg = ""
		if m.currentView == ViewDetail && msg.taskID != "" {
			return m, tea.Batch(m.loadTaskDetail(msg.taskID), m.loadBoard())
		}
		m.currentView = ViewList
		return m, m.loadBoard()

	case formOptionsLoadedMsg:
		m.taskFormView.SetOptions(msg.customers, msg.users)
		m.previousView = m.currentView
		m.currentView = ViewTaskForm
		if msg.edit != nil {
			return m, m.taskFormView.StartEdit(*msg.edit)
		}
		return m, m.taskFormView.StartCreate()

	case taskform.TaskCreatedMsg:
		m.currentView = ViewList
		params := msg.Params
		params.AssignedBy = m.actor.UserID
		return m, m.createTask(params)

	case taskform.TaskUpdatedMsg:
		m.currentView = ViewList
		return m, m.updateTaskFields(msg.TaskID, msg.Patch)

	case taskform.TaskFormCancelMsg:
		m.currentView = m.previousView
		return m, nil

	case commentform.CommentSubmittedMsg:
		m.currentView = ViewDetail
		return m, m.createComment(msg)

	case commentform.CommentCancelMsg:
		m.currentView = ViewDetail
		return m, nil

	case customermgr.CustomerListCloseMsg:
		m.currentView = ViewList
		return m, nil

	case customermgr.CustomerChangedMsg:
		return m, nil

	case notifcenter.CloseMsg:
		m.currentView = ViewList
		return m, m.fetchUnreadCount()

	case notifcenter.OpenTaskMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		m.detailView.SetLoading(true)
		return m, tea.Batch(
			m.loadTaskDetail(msg.TaskID),
			m.fetchUnreadCount(),
		)

	case notifcenter.ReadCountChangedMsg:
		return m, m.fetchUnreadCount()

	case tea.KeyMsg:
		if m.currentView == ViewLogin {
			break
		}

		// Global keys that work regardless of current view
		switch msg.String() {
		case "ctrl+c":
			return m, m.quit()

		case "q":
			if m.currentView == ViewList {
				return m, m.quit()
			}

		case "?":
			if m.currentView == ViewHelp {
				m.currentView = m.previousView
				return m, nil
			}
			if m.currentView == ViewList || m.currentView == ViewDetail {
				m.previousView = m.currentView
				m.currentView = ViewHelp
				return m, nil
			}

		case "N":
			if m.currentView == ViewList {
				m.previousView = m.currentView
				m.currentView = ViewNotifications
				return m, m.notifView.Init()
			}

		case "C":
			if m.currentView == ViewList {
				m.previousView = m.currentView
				m.currentView = ViewCustomers
				return m, m.customerView.Init()
			}

		case "n":
			if m.currentView == ViewList {
				return m, m.loadFormOptions(nil)
			}

		case "R":
			if m.currentView == ViewList {
				return m, tea.Batch(m.loadBoard(), m.fetchUnreadCount())
			}
		}
	}

	// Delegate to active sub-view
	return m.updateActiveView(msg)
}

// handleTaskAction routes a detail view action to the owning service.
func (m Model) handleTaskAction(msg detail.ActionMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case "comment":
		m.previousView = m.currentView
		m.currentView = ViewCommentForm
		return m, m.commentView.Start(msg.TaskID)

	case "advance":
		return m, m.advanceStatus(msg.TaskID)

	case "approve":
		return m, m.applyStatus(msg.TaskID, model.StatusApproved)

	case "reject":
		return m, m.applyStatus(msg.TaskID, model.StatusRejected)

	case "revert":
		return m, m.revertStatus(msg.TaskID)

	case "edit":
		if task, ok := m.deps.Tasks.Get(msg.TaskID); ok {
			return m, m.loadFormOptions(&task)
		}
		return m, nil

	case "delete":
		return m, m.deleteTask(msg.TaskID)
	}
	return m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewList:
		m.taskList, cmd = m.taskList.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewTaskForm:
		m.taskFormView, cmd = m.taskFormView.Update(msg)
	case ViewCommentForm:
		m.commentView, cmd = m.commentView.Update(msg)
	case ViewCustomers:
		m.customerView, cmd = m.customerView.Update(msg)
	case ViewNotifications:
		m.notifView, cmd = m.notifView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	}

	return m, cmd
}

// View renders the full terminal UI using the layout manager.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Sales Desk", m.headerRight())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// headerRight builds the signed-in user segment with the unread badge.
func (m Model) headerRight() string {
	if m.user == nil {
		return ""
	}
	right := fmt.Sprintf("%s (%s)", m.user.Name, m.user.Role)
	if m.unreadCount > 0 {
		right = fmt.Sprintf("[%d new] %s", m.unreadCount, right)
	}
	return right
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewLogin:
		return m.loginView.View()
	case ViewList:
		return m.taskList.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewTaskForm:
		return m.taskFormView.View()
	case ViewCommentForm:
		return m.commentView.View()
	case ViewCustomers:
		return m.customerView.View()
	case ViewNotifications:
		return m.notifView.View()
	case ViewHelp:
		return m.helpView.View()
	default:
		return ""
	}
}

// keyHints returns keyboard shortcut hints for the status bar.
func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewLogin:
		return "enter submit | ctrl+t switch mode | esc quit"
	case ViewHelp:
		return "? close help | esc back"
	case ViewDetail:
		return "c comment | s advance | a approve | x reject | u undo | e edit | esc back"
	case ViewTaskForm, ViewCommentForm:
		return "enter submit | esc cancel"
	case ViewCustomers:
		return "n new | e edit | esc back"
	case ViewNotifications:
		return "enter open/read | m mark all read | esc back"
	default:
		filterSummary := m.taskList.FilterSummary()
		if filterSummary != "" {
			return filterSummary + " | tab scope | / search"
		}
		return "q quit | ? help | n new | / search | tab scope | N notifications | C customers"
	}
}
