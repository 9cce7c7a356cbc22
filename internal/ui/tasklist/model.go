package tasklist

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/keys"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/policy"
	"github.com/ymori/salesdesk/internal/tasks"
	"github.com/ymori/salesdesk/internal/theme"
)

// TasksLoadedMsg is sent when the visible task set has been recomputed.
type TasksLoadedMsg struct {
	Tasks []model.Task
}

// SelectedTaskMsg is sent when a user selects a task to view details.
type SelectedTaskMsg struct {
	TaskID string
}

// Scope selects which slice of the task board the list shows.
type Scope int

const (
	ScopeAll Scope = iota
	ScopeMine
	ScopeAssignedByMe
)

// scopeLabels maps scopes to their status bar labels.
var scopeLabels = map[Scope]string{
	ScopeAll:          "all",
	ScopeMine:         "mine",
	ScopeAssignedByMe: "assigned by me",
}

// Model is the main task list view component.
type Model struct {
	list        list.Model
	svc         *tasks.Service
	actor       policy.Actor
	keys        *keys.KeyMap
	scope       Scope
	query       string
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// New creates a new task list model.
func New(svc *tasks.Service, actor policy.Actor, k *keys.KeyMap, width, height int) Model {
	delegate := TaskDelegate{}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = "Tasks"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search tasks..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		list:        l,
		svc:         svc,
		actor:       actor,
		keys:        k,
		scope:       ScopeAll,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init returns a command that loads the initial set of tasks.
func (m Model) Init() tea.Cmd {
	return m.LoadTasks()
}

// Update handles messages for the task list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TasksLoadedMsg:
		items := make([]list.Item, len(msg.Tasks))
		for i, task := range msg.Tasks {
			items[i] = TaskItem{Task: task}
		}
		cmd := m.list.SetItems(items)
		return m, cmd

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	// Delegate to list model for other messages
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		m.query = strings.TrimSpace(m.searchInput.Value())
		return m, m.LoadTasks()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		m.query = ""
		return m, m.LoadTasks()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(TaskItem)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			return SelectedTaskMsg{TaskID: item.Task.ID}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleScope):
		m.scope = (m.scope + 1) % 3
		return m, m.LoadTasks()
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View renders the task list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no tasks are visible.
func (m Model) renderEmptyState() string {
	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if m.query != "" || m.scope != ScopeAll {
		return style.Render("No matching tasks.\nTry tab to change scope or / to search again.")
	}

	return style.Render("No tasks yet.\n\nPress n to create one.")
}

// SelectedTask returns the currently highlighted task, if any.
func (m Model) SelectedTask() (model.Task, bool) {
	item, ok := m.list.SelectedItem().(TaskItem)
	if !ok {
		return model.Task{}, false
	}
	return item.Task, true
}

// FilterSummary describes the active scope and query for the status bar.
func (m Model) FilterSummary() string {
	var parts []string
	if m.scope != ScopeAll {
		parts = append(parts, "scope: "+scopeLabels[m.scope])
	}
	if m.query != "" {
		parts = append(parts, "search: "+m.query)
	}
	return strings.Join(parts, " | ")
}

// LoadTasks returns a tea.Cmd that recomputes the visible tasks from the
// service's board projection under the current scope and search query.
func (m Model) LoadTasks() tea.Cmd {
	svc := m.svc
	actor := m.actor
	scope := m.scope
	query := strings.ToLower(m.query)

	return func() tea.Msg {
		var visible []model.Task
		switch scope {
		case ScopeMine:
			visible = svc.Mine(actor)
		case ScopeAssignedByMe:
			visible = svc.AssignedByMe(actor)
		default:
			visible = svc.All()
		}

		if query == "" {
			return TasksLoadedMsg{Tasks: visible}
		}

		matched := visible[:0:0]
		for _, t := range visible {
			if taskMatches(t, query) {
				matched = append(matched, t)
			}
		}
		return TasksLoadedMsg{Tasks: matched}
	}
}

// taskMatches reports whether the lowercase query appears in the task's
// title, description, or customer names.
func taskMatches(t model.Task, query string) bool {
	if strings.Contains(strings.ToLower(t.Title), query) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), query) {
		return true
	}
	if t.Customer != nil {
		if strings.Contains(strings.ToLower(t.Customer.LineName), query) ||
			strings.Contains(strings.ToLower(t.Customer.RealName), query) {
			return true
		}
	}
	return false
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
