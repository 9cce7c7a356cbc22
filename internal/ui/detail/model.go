package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/attachment"
	"github.com/ymori/salesdesk/internal/keys"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/theme"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// DetailLoadedMsg carries the loaded task and its comment thread.
type DetailLoadedMsg struct {
	Task   *model.Task
	Thread []model.TaskThread
}

// ActionMsg signals the parent to execute an action on the current task.
type ActionMsg struct {
	Action string
	TaskID string
}

// Model is the task detail view component.
type Model struct {
	task     *model.Task
	thread   []model.TaskThread
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
	loading  bool
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DetailLoadedMsg:
		m.task = msg.Task
		m.thread = msg.Thread
		m.loading = false
		m.viewport.SetContent(m.renderContent())
		m.viewport.GotoTop()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg {
				return BackMsg{}
			}

		case key.Matches(msg, m.keys.Comment):
			return m, m.action("comment")

		case key.Matches(msg, m.keys.Advance):
			return m, m.action("advance")

		case key.Matches(msg, m.keys.Approve):
			return m, m.action("approve")

		case key.Matches(msg, m.keys.Reject):
			return m, m.action("reject")

		case key.Matches(msg, m.keys.Revert):
			return m, m.action("revert")

		case key.Matches(msg, m.keys.Edit):
			return m, m.action("edit")

		case key.Matches(msg, m.keys.Delete):
			return m, m.action("delete")
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// action builds a command that asks the parent to run the named action on
// the current task.
func (m Model) action(name string) tea.Cmd {
	if m.task == nil {
		return nil
	}
	taskID := m.task.ID
	return func() tea.Msg {
		return ActionMsg{Action: name, TaskID: taskID}
	}
}

// View renders the detail view.
func (m Model) View() string {
	if m.loading {
		loadingStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return loadingStyle.Render("Loading task details...")
	}

	if m.task == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No task selected")
	}

	return m.viewport.View()
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.task == nil {
		return ""
	}

	task := m.task
	var sections []string

	// Title
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections, titleStyle.Render(task.Title))

	// Badges line: status + overdue marker
	statusBadge := theme.StatusStyle(task.Status).Render(string(task.Status))
	badgeLine := statusBadge
	if task.Deadline != nil {
		badgeLine = lipgloss.JoinHorizontal(
			lipgloss.Top, statusBadge, "  ",
			theme.DeadlineStyle.Render("due "+task.Deadline.Format("2006-01-02")),
		)
	}
	sections = append(sections, badgeLine)
	sections = append(sections, "")

	// Metadata table
	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	if task.Customer != nil {
		sections = append(sections, fmt.Sprintf(
			"%s  %s (%s)",
			metaStyle.Render("Customer:"),
			valStyle.Render(task.Customer.LineName),
			task.Customer.RealName,
		))
	}
	if task.AssignedToUser != nil {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Assignee:"),
			valStyle.Render(task.AssignedToUser.Name),
		))
	}
	if task.AssignedByUser != nil {
		sections = append(sections, fmt.Sprintf(
			"%s  %s",
			metaStyle.Render("Assigner:"),
			valStyle.Render(task.AssignedByUser.Name),
		))
	}
	if !task.CreatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Created:"),
			valStyle.Render(task.CreatedAt.Format("2006-01-02 15:04")),
		))
	}
	if !task.UpdatedAt.IsZero() {
		sections = append(sections, fmt.Sprintf(
			"%s   %s",
			metaStyle.Render("Updated:"),
			valStyle.Render(task.UpdatedAt.Format("2006-01-02 15:04")),
		))
	}

	// Separator
	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", min(m.width-4, 80)))
	sections = append(sections, "")
	sections = append(sections, separator)
	sections = append(sections, "")

	// Description, with any trailing image block split out
	descHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	sections = append(sections, descHeaderStyle.Render("Description"))

	body, imageURLs := attachment.Parse(task.Description)
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	}
	sections = append(sections, body)

	if len(imageURLs) > 0 {
		sections = append(sections, "")
		sections = append(sections, descHeaderStyle.Render(
			fmt.Sprintf("Images (%d)", len(imageURLs)),
		))
		urlStyle := lipgloss.NewStyle().Foreground(theme.ColorBlue)
		for i, u := range imageURLs {
			sections = append(sections, fmt.Sprintf("%d. %s", i+1, urlStyle.Render(u)))
		}
	}

	// Thread section
	if len(m.thread) > 0 {
		sections = append(sections, "")
		sections = append(sections, separator)
		sections = append(sections, "")

		threadHeaderStyle := lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.ColorWhite)

		sections = append(sections, threadHeaderStyle.Render(
			fmt.Sprintf("Messages (%d)", len(m.thread)),
		))
		sections = append(sections, "")

		authorStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue)
		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		imgStyle := lipgloss.NewStyle().Foreground(theme.ColorMagenta)

		for _, msg := range m.thread {
			author := msg.UserID
			if msg.User != nil {
				author = msg.User.Name
			}
			header := fmt.Sprintf(
				"%s  %s",
				authorStyle.Render(author),
				timeStyle.Render(msg.CreatedAt.Format("2006-01-02 15:04")),
			)
			sections = append(sections, header)
			sections = append(sections, msg.Message)
			if msg.AttachmentURL != nil {
				sections = append(sections, imgStyle.Render("image: "+*msg.AttachmentURL))
			}
			sections = append(sections, "")
		}
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Task returns the task being displayed, if any.
func (m Model) Task() *model.Task {
	return m.task
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
}
