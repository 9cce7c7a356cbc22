package taskform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/attachment"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/tasks"
	"github.com/ymori/salesdesk/internal/theme"
)

// TaskCreatedMsg is dispatched when a new task is submitted via the form.
// AssignedBy is left blank for the parent to fill from the signed-in user.
type TaskCreatedMsg struct {
	Params tasks.CreateParams
}

// TaskUpdatedMsg is dispatched when an existing task is edited via the form.
type TaskUpdatedMsg struct {
	TaskID string
	Patch  tasks.FieldPatch
}

// TaskFormCancelMsg is dispatched when the user cancels the form.
type TaskFormCancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	imageURLs   string
	customerID  string
	assigneeID  string
	deadline    string
}

// Model is the Bubble Tea model for the task create/edit form.
type Model struct {
	form      *huh.Form
	fb        *formBindings
	editMode  bool
	editID    string
	customers []model.Customer
	users     []model.User
	width     int
	height    int
}

// New creates a new task form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// SetOptions sets the available customers and assignees for the selectors.
func (m *Model) SetOptions(customers []model.Customer, users []model.User) {
	m.customers = customers
	m.users = users
}

// StartCreate initializes the form for creating a new task.
func (m *Model) StartCreate() tea.Cmd {
	m.editMode = false
	m.editID = ""
	m.fb.title = ""
	m.fb.description = ""
	m.fb.imageURLs = ""
	m.fb.customerID = ""
	m.fb.assigneeID = ""
	m.fb.deadline = ""
	m.form = m.buildForm(true)
	return m.form.Init()
}

// StartEdit initializes the form for editing an existing task. Status is
// not editable here; transitions go through the workflow actions.
func (m *Model) StartEdit(task model.Task) tea.Cmd {
	m.editMode = true
	m.editID = task.ID
	m.fb.title = task.Title
	clean, urls := attachment.Parse(task.Description)
	m.fb.description = clean
	m.fb.imageURLs = strings.Join(urls, "\n")
	m.fb.customerID = task.CustomerID
	m.fb.assigneeID = task.AssignedTo
	if task.Deadline != nil {
		m.fb.deadline = task.Deadline.Format("2006-01-02")
	} else {
		m.fb.deadline = ""
	}
	m.form = m.buildForm(false)
	return m.form.Init()
}

// Update handles messages for the task form.
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
		return m, func() tea.Msg { return TaskFormCancelMsg{} }
	}

	return m, cmd
}

// View renders the task form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Task"
	if m.editMode {
		titleText = "Edit Task"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(titleText) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm(create bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Optional details...").
			Value(&m.fb.description),
		huh.NewText().
			Title("Image URLs").
			Placeholder("https://... one per line (optional)").
			Value(&m.fb.imageURLs).
			Validate(validateImageURLs),
	}

	if create {
		fields = append(fields, m.customerField())
	}
	fields = append(fields,
		m.assigneeField(),
		huh.NewInput().
			Title("Deadline").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.deadline).
			Validate(validateOptionalDate),
	)

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) customerField() huh.Field {
	opts := make([]huh.Option[string], 0, len(m.customers))
	for _, c := range m.customers {
		label := fmt.Sprintf("%s (%s)", c.LineName, c.InterviewID)
		opts = append(opts, huh.NewOption(label, c.ID))
	}
	return huh.NewSelect[string]().
		Title("Customer").
		Options(opts...).
		Value(&m.fb.customerID).
		Validate(validateRequired("Customer"))
}

func (m *Model) assigneeField() huh.Field {
	opts := make([]huh.Option[string], 0, len(m.users))
	for _, u := range m.users {
		label := fmt.Sprintf("%s (%s)", u.Name, u.Role)
		opts = append(opts, huh.NewOption(label, u.ID))
	}
	return huh.NewSelect[string]().
		Title("Assignee").
		Options(opts...).
		Value(&m.fb.assigneeID).
		Validate(validateRequired("Assignee"))
}

func (m Model) handleSubmit() tea.Cmd {
	var deadline *time.Time
	if m.fb.deadline != "" {
		t, err := time.Parse("2006-01-02", m.fb.deadline)
		if err == nil {
			deadline = &t
		}
	}

	description := attachment.Format(m.fb.description, splitImageURLs(m.fb.imageURLs))

	if m.editMode {
		title := m.fb.title
		assignee := m.fb.assigneeID
		patch := tasks.FieldPatch{
			Title:       &title,
			Description: &description,
			AssignedTo:  &assignee,
			Deadline:    deadline,
		}
		if deadline == nil {
			patch.ClearDeadline = true
		}
		taskID := m.editID
		return func() tea.Msg { return TaskUpdatedMsg{TaskID: taskID, Patch: patch} }
	}

	params := tasks.CreateParams{
		CustomerID:  m.fb.customerID,
		Title:       m.fb.title,
		Description: description,
		AssignedTo:  m.fb.assigneeID,
		Deadline:    deadline,
	}
	return func() tea.Msg { return TaskCreatedMsg{Params: params} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

// splitImageURLs turns the one-per-line field value into a URL slice,
// skipping blank lines.
func splitImageURLs(s string) []string {
	var urls []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			urls = append(urls, line)
		}
	}
	return urls
}

func validateImageURLs(s string) error {
	for _, u := range splitImageURLs(s) {
		if !strings.HasPrefix(u, "http") {
			return fmt.Errorf("image URLs must start with http")
		}
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
