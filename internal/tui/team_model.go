package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/attendance"
	"github.com/balkashynov/punchclock/internal/clock"
)

const teamRefreshInterval = 30 * time.Second

// Roster lists who is clocked in
type Roster interface {
	ActiveEmployees(ctx context.Context, tenant string) ([]attendance.EmployeeStatus, error)
}

// TeamModel is a live board of everyone clocked in within a tenant
type TeamModel struct {
	ctx    context.Context
	roster Roster
	clock  clock.Clock
	tenant string

	employees   []attendance.EmployeeStatus
	selected    int
	lastRefresh time.Time
	err         error

	width  int
	height int
	keys   teamKeyMap
	help   help.Model
}

type rosterMsg struct {
	employees []attendance.EmployeeStatus
	at        time.Time
	err       error
}

type refreshTickMsg struct{}

func NewTeamModel(ctx context.Context, roster Roster, clk clock.Clock, tenant string) TeamModel {
	return TeamModel{
		ctx:    ctx,
		roster: roster,
		clock:  clk,
		tenant: tenant,
		keys:   teamKeys,
		help:   help.New(),
	}
}

func (m TeamModel) Init() tea.Cmd {
	return tea.Batch(m.refresh(), refreshTick())
}

func refreshTick() tea.Cmd {
	return tea.Tick(teamRefreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func (m TeamModel) refresh() tea.Cmd {
	ctx, roster, clk, tenant := m.ctx, m.roster, m.clock, m.tenant
	return func() tea.Msg {
		employees, err := roster.ActiveEmployees(ctx, tenant)
		return rosterMsg{employees: employees, at: clk.Now(), err: err}
	}
}

func (m TeamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rosterMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.employees = msg.employees
		sort.Slice(m.employees, func(i, j int) bool {
			return m.employees[i].Start.Before(m.employees[j].Start)
		})
		m.lastRefresh = msg.at
		if m.selected >= len(m.employees) {
			m.selected = max(len(m.employees)-1, 0)
		}
		return m, nil

	case refreshTickMsg:
		return m, tea.Batch(m.refresh(), refreshTick())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			if m.selected > 0 {
				m.selected--
			}
		case key.Matches(msg, m.keys.Down):
			if m.selected < len(m.employees)-1 {
				m.selected++
			}
		case key.Matches(msg, m.keys.Refresh):
			return m, m.refresh()
		}
	}
	return m, nil
}

// Selected returns the highlighted row, nil when the board is empty
func (m TeamModel) Selected() *attendance.EmployeeStatus {
	if m.selected < 0 || m.selected >= len(m.employees) {
		return nil
	}
	return &m.employees[m.selected]
}

func (m TeamModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	titleStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentMain)).Bold(true)
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))

	var b strings.Builder
	title := fmt.Sprintf("Clocked in: %d", len(m.employees))
	if m.tenant != "" {
		title += " · team " + m.tenant
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	if len(m.employees) == 0 {
		b.WriteString(mutedStyle.Render("Nobody is clocked in."))
	} else {
		b.WriteString(m.renderTable())
	}
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if !m.lastRefresh.IsZero() {
		b.WriteString(mutedStyle.Italic(true).Render("Updated " + m.lastRefresh.Format("15:04:05")))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))

	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m TeamModel) renderTable() string {
	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true)
	rowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
	breakStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWarning))

	row := func(cols ...string) string {
		return fmt.Sprintf("%-24s %-10s %-8s %-10s %-10s", cols[0], cols[1], cols[2], cols[3], cols[4])
	}

	lines := []string{
		headerStyle.Render(row("NAME", "STATE", "SINCE", "ELAPSED", "BREAK")),
		lipgloss.NewStyle().Foreground(lipgloss.Color(ColorBorder)).Render(strings.Repeat("─", 66)),
	}
	for i, e := range m.employees {
		name := e.SubjectName
		if name == "" {
			name = e.SubjectID
		}
		if len(name) > 24 {
			name = name[:21] + "..."
		}
		state := "working"
		onBreak := "-"
		if e.State == attendance.StateOnBreak {
			state = "on break"
			onBreak = accounting.FormatMinutes(*e.BreakDuration)
		}
		line := row(name, state, e.Start.Format("15:04"), accounting.FormatMinutes(e.WorkingDuration), onBreak)

		switch {
		case i == m.selected:
			lines = append(lines, selectedStyle.Render("› "+line))
		case e.State == attendance.StateOnBreak:
			lines = append(lines, breakStyle.Render("  "+line))
		default:
			lines = append(lines, rowStyle.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n")
}
