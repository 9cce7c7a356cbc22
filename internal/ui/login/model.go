package login

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/auth"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/theme"
)

// SignedInMsg is dispatched when authentication succeeds.
type SignedInMsg struct {
	User model.User
}

type signInResultMsg struct {
	user *model.User
	err  error
}

type loginMode int

const (
	modeSignIn loginMode = iota
	modeSignUp
)

type formBindings struct {
	email    string
	password string
	name     string
}

// Model is the sign-in / sign-up gate shown before the main views.
type Model struct {
	provider auth.Provider
	mode     loginMode
	form     *huh.Form
	fb       *formBindings
	errMsg   string
	width    int
	height   int
}

// New creates a login model.
func New(provider auth.Provider, width, height int) Model {
	m := Model{
		provider: provider,
		mode:     modeSignIn,
		fb:       &formBindings{},
		width:    width,
		height:   height,
	}
	m.form = m.buildForm()
	return m
}

// Init starts the initial form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the login view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case signInResultMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("Error: %v", msg.err)
			m.fb.password = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
		user := *msg.user
		return m, func() tea.Msg { return SignedInMsg{User: user} }

	case tea.KeyMsg:
		// Toggle between sign in and sign up with ctrl+t; other keys go
		// to the form.
		if msg.String() == "ctrl+t" {
			if m.mode == modeSignIn {
				m.mode = modeSignUp
			} else {
				m.mode = modeSignIn
			}
			m.errMsg = ""
			m.form = m.buildForm()
			return m, m.form.Init()
		}
	}

	if m.form == nil {
		return m, nil
	}
	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.submit()
	}
	if m.form.State == huh.StateAborted {
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the login gate.
func (m Model) View() string {
	titleText := "Sign In"
	hint := "ctrl+t to create an account"
	if m.mode == modeSignUp {
		titleText = "Sign Up"
		hint = "ctrl+t to sign in instead"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render(titleText)}
	if m.errMsg != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.errMsg))
	}
	parts = append(parts, m.form.View(), theme.HelpStyle.Render(hint))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(content)
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildForm() *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Email").
			Placeholder("you@example.com").
			Value(&m.fb.email).
			Validate(func(s string) error {
				if !strings.Contains(s, "@") {
					return fmt.Errorf("invalid email address")
				}
				return nil
			}),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password),
	}

	if m.mode == modeSignUp {
		fields = append(fields,
			huh.NewInput().
				Title("Name").
				Placeholder("display name").
				Value(&m.fb.name).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),
		)
	}

	w := m.width - 8
	if w < 40 {
		w = 40
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithWidth(w)
}

func (m Model) submit() tea.Cmd {
	provider := m.provider
	mode := m.mode
	email := strings.TrimSpace(m.fb.email)
	password := m.fb.password
	name := strings.TrimSpace(m.fb.name)

	return func() tea.Msg {
		ctx := context.Background()
		var (
			user *model.User
			err  error
		)
		if mode == modeSignUp {
			user, err = provider.SignUp(ctx, email, password, name, model.RoleSales)
		} else {
			user, err = provider.SignIn(ctx, email, password)
		}
		return signInResultMsg{user: user, err: err}
	}
}
