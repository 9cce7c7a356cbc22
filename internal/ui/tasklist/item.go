package tasklist

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ymori/salesdesk/internal/model"
	"github.com/ymori/salesdesk/internal/theme"
)

// TaskItem wraps a model.Task so it can be used in a bubbles/list.
type TaskItem struct {
	Task model.Task
}

// FilterValue returns the string used for fuzzy filtering.
func (i TaskItem) FilterValue() string { return i.Task.Title }

// TaskDelegate implements list.ItemDelegate for rendering task rows.
type TaskDelegate struct{}

// Height returns the number of lines each item takes.
func (d TaskDelegate) Height() int { return 1 }

// Spacing returns the number of blank lines between items.
func (d TaskDelegate) Spacing() int { return 0 }

// Update handles per-item messages (unused).
func (d TaskDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single task row: status badge, title, customer, assignee,
// deadline, and the time of the last update.
func (d TaskDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ti, ok := item.(TaskItem)
	if !ok {
		return
	}

	task := ti.Task
	isSelected := index == m.Index()

	statusBadge := theme.StatusStyle(task.Status).Render(string(task.Status))

	customer := ""
	if task.Customer != nil {
		customer = lipgloss.NewStyle().
			Foreground(theme.ColorMagenta).
			Render(" " + task.Customer.LineName)
	}

	assignee := ""
	if task.AssignedToUser != nil {
		assignee = lipgloss.NewStyle().
			Foreground(theme.ColorBlue).
			Render(" @" + task.AssignedToUser.Name)
	}

	deadlineStr := ""
	if task.Deadline != nil {
		deadlineStr = theme.DeadlineStyle.Render(" " + task.Deadline.Format("Jan 02"))
	}

	overdueStr := ""
	if task.Overdue(time.Now()) {
		overdueStr = theme.OverdueStyle.Render(" OVERDUE")
	}

	timeStr := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Render("  " + relativeTime(task.UpdatedAt))

	line := fmt.Sprintf(
		"%s %s%s%s%s%s%s",
		statusBadge, task.Title, customer, assignee,
		deadlineStr, overdueStr, timeStr,
	)

	if task.Status == model.StatusApproved {
		line = theme.DimmedStyle.Render(line)
	}

	if isSelected {
		line = theme.SelectedItemStyle.Render(line)
	} else {
		line = theme.ListItemStyle.Render(line)
	}

	fmt.Fprint(w, line)
}

// relativeTime returns a human-friendly relative time string.
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		mins := int(d.Minutes())
		if mins == 1 {
			return "1m ago"
		}
		return fmt.Sprintf("%dm ago", mins)
	case d < 24*time.Hour:
		hrs := int(d.Hours())
		if hrs == 1 {
			return "1h ago"
		}
		return fmt.Sprintf("%dh ago", hrs)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "1d ago"
		}
		return fmt.Sprintf("%dd ago", days)
	default:
		weeks := int(d.Hours() / 24 / 7)
		if weeks == 1 {
			return "1w ago"
		}
		return fmt.Sprintf("%dw ago", weeks)
	}
}
