package notifcenter

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/keys"
	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/notify"
	"github.com/ymori/salesdesk/internal/theme"
)

// CloseMsg signals the parent to close the notification center.
type CloseMsg struct{}

// OpenTaskMsg asks the parent to open the task a notification points at.
type OpenTaskMsg struct {
	TaskID string
}

// ReadCountChangedMsg tells the parent to refresh its unread badge.
type ReadCountChangedMsg struct{}

type notificationsLoadedMsg struct {
	notifications []model.Notification
}

type markedMsg struct{ err error }

// Model is the notification center view: newest first, unread bold, with
// per-item and bulk mark-as-read.
type Model struct {
	center        *notify.Center
	keys          *keys.KeyMap
	notifications []model.Notification
	selectedIdx   int
	statusMsg     string
	width         int
	height        int
}

// New creates a new notification center model.
func New(center *notify.Center, k *keys.KeyMap, width, height int) Model {
	return Model{
		center: center,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init loads notifications.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notificationsLoadedMsg:
		m.notifications = msg.notifications
		if m.selectedIdx >= len(m.notifications) && m.selectedIdx > 0 {
			m.selectedIdx = len(m.notifications) - 1
		}
		return m, nil

	case markedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}
		return m, tea.Batch(m.load(), func() tea.Msg { return ReadCountChangedMsg{} })

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return CloseMsg{} }

	case key.Matches(msg, m.keys.Down):
		if len(m.notifications) > 0 {
			m.selectedIdx = (m.selectedIdx + 1) % len(m.notifications)
		}
		return m, nil

	case key.Matches(msg, m.keys.Up):
		if len(m.notifications) > 0 {
			m.selectedIdx--
			if m.selectedIdx < 0 {
				m.selectedIdx = len(m.notifications) - 1
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		if len(m.notifications) == 0 {
			return m, nil
		}
		n := m.notifications[m.selectedIdx]
		cmds := []tea.Cmd{}
		if !n.Read {
			cmds = append(cmds, m.markRead(n.ID))
		}
		if n.TaskID != nil {
			taskID := *n.TaskID
			cmds = append(cmds, func() tea.Msg { return OpenTaskMsg{TaskID: taskID} })
		}
		return m, tea.Batch(cmds...)

	case key.Matches(msg, m.keys.MarkAllRead):
		return m, m.markAllRead()
	}
	return m, nil
}

// View renders the notification center.
func (m Model) View() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1)
	b.WriteString(titleStyle.Render("Notifications"))
	b.WriteString("\n\n")

	if len(m.notifications) == 0 {
		emptyStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true)
		b.WriteString(emptyStyle.Render("Nothing here yet."))
	} else {
		timeStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		for i, n := range m.notifications {
			line := n.Title
			if n.Message != nil {
				line += ": " + *n.Message
			}
			line += timeStyle.Render("  " + n.CreatedAt.Format("Jan 02 15:04"))

			if n.Read {
				line = theme.DimmedStyle.Render(line)
			} else {
				line = theme.UnreadStyle.Render("● " + line)
			}

			if i == m.selectedIdx {
				b.WriteString(theme.SelectedItemStyle.Render(line))
			} else {
				b.WriteString(theme.ListItemStyle.Render(line))
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
		"enter open/read | m mark all read | esc back",
	))

	return lipgloss.NewStyle().Padding(1, 2).Width(m.width).Height(m.height).Render(b.String())
}

// SetSize updates dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) load() tea.Cmd {
	center := m.center
	return func() tea.Msg {
		if center == nil {
			return notificationsLoadedMsg{notifications: nil}
		}
		notifications, err := center.List(context.Background())
		if err != nil {
			return notificationsLoadedMsg{notifications: nil}
		}
		return notificationsLoadedMsg{notifications: notifications}
	}
}

func (m Model) markRead(id string) tea.Cmd {
	center := m.center
	return func() tea.Msg {
		return markedMsg{err: center.MarkAsRead(context.Background(), id)}
	}
}

func (m Model) markAllRead() tea.Cmd {
	center := m.center
	return func() tea.Msg {
		return markedMsg{err: center.MarkAllAsRead(context.Background())}
	}
}
