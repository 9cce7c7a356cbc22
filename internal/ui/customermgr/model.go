package customermgr

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/customers"
	"github.com/ymori/salesdesk/internal/keys"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/theme"
)

// CustomerListCloseMsg signals the parent to close the customer view.
type CustomerListCloseMsg struct{}

// CustomerChangedMsg signals that customers were created or updated.
type CustomerChangedMsg struct{}

type customerMode int

const (
	modeList customerMode = iota
	modeForm
	modeConfirmConflict
)

type formBindings struct {
	interviewID string
	lineName    string
	realName    string
	confirm     bool
}

type customersLoadedMsg struct {
	customers []model.Customer
}

// checkedMsg carries the dedup decision for a submitted candidate.
type checkedMsg struct {
	candidate customers.Candidate
	decision  customers.Decision
	err       error
}

type customerSavedMsg struct{ err error }

// Model is the Bubble Tea model for customer entry and management. New
// entries go through the dedup check; a conflict requires an explicit
// confirmation before a duplicate record is created.
type Model struct {
	mode        customerMode
	svc         *customers.Service
	keys        *keys.KeyMap
	customers   []model.Customer
	selectedIdx int
	editingID   string
	isNew       bool
	form        *huh.Form
	confirmForm *huh.Form
	fb          *formBindings
	pending     customers.Candidate
	conflicts   []model.Customer
	statusMsg   string
	width       int
	height      int
}

// New creates a new customer manager model.
func New(svc *customers.Service, k *keys.KeyMap, width, height int) Model {
	return Model{
		mode:  modeList,
		svc:   svc,
		keys:  k,
		fb:    &formBindings{},
		width: width, height: height,
	}
}

// Init loads customers.
func (m Model) Init() tea.Cmd {
	return m.loadCustomers()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case customersLoadedMsg:
		m.customers = msg.customers
		if m.selectedIdx >= len(m.customers) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.customers) - 1
		}
		return m, nil

	case checkedMsg:
		return m.handleDecision(msg)

	case customerSavedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		} else {
			m.statusMsg = "Customer saved"
		}
		m.mode = modeList
		return m, tea.Batch(m.loadCustomers(), func() tea.Msg { return CustomerChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateActiveForm(msg)
}

// handleDecision routes a dedup decision: reuse and autofill never create
// a record, a conflict asks for confirmation, and a clean candidate is
// created immediately.
func (m Model) handleDecision(msg checkedMsg) (Model, tea.Cmd) {
	if msg.err != nil {
		m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
		m.mode = modeList
		return m, nil
	}

	switch msg.decision.Kind {
	case customers.DecisionReuse:
		m.statusMsg = fmt.Sprintf(
			"Matched existing customer %s, no new record created",
			msg.decision.Existing.LineName,
		)
		m.mode = modeList
		return m, tea.Batch(m.loadCustomers(), func() tea.Msg { return CustomerChangedMsg{} })

	case customers.DecisionAutofill:
		// Prefill the names from the matched record and let the user
		// review before submitting again.
		m.fb.lineName = msg.decision.Existing.LineName
		m.fb.realName = msg.decision.Existing.RealName
		m.statusMsg = "Names filled from an earlier entry with this interview id"
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case customers.DecisionConflict:
		m.pending = msg.candidate
		m.conflicts = msg.decision.Conflicts
		m.fb.confirm = false
		m.confirmForm = m.buildConflictForm()
		m.mode = modeConfirmConflict
		return m, m.confirmForm.Init()

	default:
		return m, m.saveCustomer(msg.candidate)
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.mode {
	case modeList:
		return m.handleListKey(msg)
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmConflict:
		return m.updateConfirm(msg)
	}
	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CustomerListCloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.customers) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.customers)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.customers) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.customers) - 1
			}
		}
		return m, nil

	case msg.String() == "n":
		m.isNew = true
		m.editingID = ""
		m.fb.interviewID = ""
		m.fb.lineName = ""
		m.fb.realName = ""
		m.statusMsg = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()

	case msg.String() == "e":
		if len(m.customers) == 0 {
			return m, nil
		}
		c := m.customers[m.selectedIdx]
		m.isNew = false
		m.editingID = c.ID
		m.fb.interviewID = c.InterviewID
		m.fb.lineName = c.LineName
		m.fb.realName = c.RealName
		m.statusMsg = ""
		m.form = m.buildForm()
		m.mode = modeForm
		return m, m.form.Init()
	}
	return m, nil
}

func (m Model) buildForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Interview ID").
				Placeholder("intake identifier").
				Value(&m.fb.interviewID).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("interview id is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("LINE Name").
				Placeholder("messaging handle").
				Value(&m.fb.lineName),
			huh.NewInput().
				Title("Real Name").
				Placeholder("legal name").
				Value(&m.fb.realName),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) buildConflictForm() *huh.Form {
	var lines []string
	for _, c := range m.conflicts {
		lines = append(lines, fmt.Sprintf("%s / %s", c.LineName, c.RealName))
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Interview ID %s already exists", m.pending.InterviewID)).
				Description("Existing: " + strings.Join(lines, "; ") + "\nCreate a separate record anyway?").
				Affirmative("Yes, create").
				Negative("Cancel").
				Value(&m.fb.confirm),
		),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) updateForm(msg tea.Msg) (Model, tea.Cmd) {
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
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.Msg) (Model, tea.Cmd) {
	if m.confirmForm == nil {
		return m, nil
	}
	mdl, cmd := m.confirmForm.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.confirmForm = f
	}
	if m.confirmForm.State == huh.StateCompleted {
		if m.fb.confirm {
			return m, m.saveCustomer(m.pending)
		}
		m.mode = modeList
		return m, nil
	}
	if m.confirmForm.State == huh.StateAborted {
		m.mode = modeList
		return m, nil
	}
	return m, cmd
}

func (m Model) updateActiveForm(msg tea.Msg) (Model, tea.Cmd) {
	switch m.mode {
	case modeForm:
		return m.updateForm(msg)
	case modeConfirmConflict:
		return m.updateConfirm(msg)
	}
	return m, nil
}

// handleSubmit runs an edit straight to the store and a new entry through
// the dedup check.
func (m Model) handleSubmit() tea.Cmd {
	if !m.isNew {
		svc := m.svc
		updated := model.Customer{
			ID:          m.editingID,
			InterviewID: strings.TrimSpace(m.fb.interviewID),
			LineName:    strings.TrimSpace(m.fb.lineName),
			RealName:    strings.TrimSpace(m.fb.realName),
		}
		return func() tea.Msg {
			_, err := svc.Update(context.Background(), updated)
			return customerSavedMsg{err: err}
		}
	}

	svc := m.svc
	candidate := customers.Candidate{
		InterviewID: strings.TrimSpace(m.fb.interviewID),
		LineName:    strings.TrimSpace(m.fb.lineName),
		RealName:    strings.TrimSpace(m.fb.realName),
	}
	return func() tea.Msg {
		decision, err := svc.Check(context.Background(), candidate)
		return checkedMsg{candidate: candidate, decision: decision, err: err}
	}
}

// View renders the customer manager.
func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.viewForm(m.form)
	case modeConfirmConflict:
		return m.viewForm(m.confirmForm)
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Customers"))
	b.WriteString("\n\n")

	if len(m.customers) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("No customers yet. Press 'n' to add one."))
	} else {
		idStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for i, c := range m.customers {
			label := fmt.Sprintf(
				"%s  %s %s",
				idStyle.Render(c.InterviewID),
				c.LineName,
				idStyle.Render("("+c.RealName+")"),
			)

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(label))
			} else {
				b.WriteString(theme.ListItemStyle.Render(label))
			}
			b.WriteString("\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorYellow).Italic(true).Render(m.statusMsg))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		"n new | e edit | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

func (m Model) viewForm(f *huh.Form) string {
	if f == nil {
		return ""
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(f.View())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
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

func (m Model) loadCustomers() tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		list, err := svc.List(context.Background())
		if err != nil {
			return customersLoadedMsg{customers: nil}
		}
		return customersLoadedMsg{customers: list}
	}
}

func (m Model) saveCustomer(c customers.Candidate) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		_, err := svc.Create(context.Background(), c)
		return customerSavedMsg{err: err}
	}
}
