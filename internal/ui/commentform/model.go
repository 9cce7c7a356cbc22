package commentform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/theme"
)

// CommentSubmittedMsg is dispatched when a thread message is submitted.
type CommentSubmittedMsg struct {
	TaskID        string
	Message       string
	AttachmentURL *string
}

// CommentCancelMsg is dispatched when the user cancels the form.
type CommentCancelMsg struct{}

type formBindings struct {
	message       string
	attachmentURL string
}

// Model is the thread reply form shown from the task detail view.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	taskID string
	width  int
	height int
}

// New creates a comment form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Start initializes the form for a reply on the given task.
func (m *Model) Start(taskID string) tea.Cmd {
	m.taskID = taskID
	m.fb.message = ""
	m.fb.attachmentURL = ""
	m.form = m.buildForm()
	return m.form.Init()
}

// Update handles messages for the comment form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CommentCancelMsg{} }
	}

	return m, cmd
}

// View renders the comment form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render("Reply") + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Message").
				Placeholder("Write a reply...").
				Value(&m.fb.message).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("message must not be blank")
					}
					return nil
				}),
			huh.NewInput().
				Title("Image URL").
				Placeholder("http... (optional)").
				Value(&m.fb.attachmentURL),
		),
	).WithWidth(w)
}

func (m Model) handleSubmit() tea.Cmd {
	taskID := m.taskID
	message := m.fb.message

	var attachmentURL *string
	if u := strings.TrimSpace(m.fb.attachmentURL); u != "" {
		attachmentURL = &u
	}

	return func() tea.Msg {
		return CommentSubmittedMsg{
			TaskID:        taskID,
			Message:       message,
			AttachmentURL: attachmentURL,
		}
	}
}
