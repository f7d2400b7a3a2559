package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/attendance"
	"github.com/balkashynov/punchclock/internal/clock"
	"github.com/balkashynov/punchclock/internal/models"
	"github.com/balkashynov/punchclock/internal/parser"
)

// Lifecycle is the part of the attendance service the live view drives
type Lifecycle interface {
	Status(ctx context.Context, subject, tenant string) (*attendance.EmployeeStatus, error)
	StartBreak(ctx context.Context, subject, tenant string) (time.Time, error)
	EndBreak(ctx context.Context, subject, tenant string) (time.Time, float64, error)
	PunchOut(ctx context.Context, subject, tenant string) (models.Session, error)
	SubmitReport(ctx context.Context, subject, sessionID string, report attendance.Report) (models.Session, error)
}

// SessionModel is the live view of one subject's active session
type SessionModel struct {
	ctx     context.Context
	svc     Lifecycle
	clock   clock.Clock
	subject string
	tenant  string

	status *attendance.EmployeeStatus
	now    time.Time
	width  int
	height int

	keys sessionKeyMap
	help help.Model

	// Set after clocking out; the view then asks for a work report
	closed       *models.Session
	report       textinput.Model
	reportSaved  bool
	reportWarned []string

	notice string
	err    error
	busy   bool
	done   bool
}

type tickMsg time.Time

type statusMsg struct {
	status *attendance.EmployeeStatus
	notice string
	err    error
}

type closedMsg struct {
	session models.Session
	err     error
}

type reportMsg struct {
	errs []string
	err  error
}

// NewSessionModel creates the live view for an already fetched status
func NewSessionModel(ctx context.Context, svc Lifecycle, clk clock.Clock, subject, tenant string, status *attendance.EmployeeStatus) SessionModel {
	input := textinput.New()
	input.Width = 60
	input.CharLimit = 500
	input.Placeholder = `What did you work on? progress:"80%" #channel @mention (Enter to skip)`
	input.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	input.PlaceholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPlaceholder))
	input.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(ColorAccentBright))

	return SessionModel{
		ctx:     ctx,
		svc:     svc,
		clock:   clk,
		subject: subject,
		tenant:  tenant,
		status:  status,
		now:     clk.Now(),
		keys:    sessionKeys,
		help:    help.New(),
		report:  input,
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m SessionModel) Init() tea.Cmd {
	return tick()
}

func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.now = m.clock.Now()
		if m.done {
			return m, nil
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.status
		m.notice = msg.notice
		m.now = m.clock.Now()
		return m, nil

	case closedMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.closed = &msg.session
		m.status = nil
		m.notice = ""
		m.report.Focus()
		return m, textinput.Blink

	case reportMsg:
		m.busy = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.reportSaved = true
		m.reportWarned = msg.errs
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if m.closed != nil {
			return m.updateReport(msg)
		}
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Break):
			if m.busy || m.status == nil {
				return m, nil
			}
			m.busy = true
			return m, m.toggleBreak()
		case key.Matches(msg, m.keys.Out):
			if m.busy || m.status == nil {
				return m, nil
			}
			m.busy = true
			return m, m.punchOut()
		}
	}

	return m, nil
}

func (m SessionModel) updateReport(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.done = true
		return m, tea.Quit
	case tea.KeyEnter:
		value := strings.TrimSpace(m.report.Value())
		if value == "" {
			m.done = true
			return m, tea.Quit
		}
		if m.busy {
			return m, nil
		}
		m.busy = true
		return m, m.submitReport(value)
	}

	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)
	return m, cmd
}

func (m SessionModel) toggleBreak() tea.Cmd {
	ctx, svc, subject, tenant := m.ctx, m.svc, m.subject, m.tenant
	onBreak := m.status.State == attendance.StateOnBreak

	return func() tea.Msg {
		var notice string
		if onBreak {
			_, minutes, err := svc.EndBreak(ctx, subject, tenant)
			if err != nil {
				return statusMsg{err: err}
			}
			notice = "Break ended after " + accounting.FormatMinutes(minutes)
		} else {
			if _, err := svc.StartBreak(ctx, subject, tenant); err != nil {
				return statusMsg{err: err}
			}
			notice = "Break started"
		}
		st, err := svc.Status(ctx, subject, tenant)
		return statusMsg{status: st, notice: notice, err: err}
	}
}

func (m SessionModel) punchOut() tea.Cmd {
	ctx, svc, subject, tenant := m.ctx, m.svc, m.subject, m.tenant
	return func() tea.Msg {
		s, err := svc.PunchOut(ctx, subject, tenant)
		return closedMsg{session: s, err: err}
	}
}

func (m SessionModel) submitReport(value string) tea.Cmd {
	ctx, svc, subject, sessionID := m.ctx, m.svc, m.subject, m.closed.ID
	return func() tea.Msg {
		parsed := parser.ParseReport(value)
		_, err := svc.SubmitReport(ctx, subject, sessionID, attendance.Report{
			Description: parsed.Description,
			Progress:    parsed.Progress,
			ChannelID:   parsed.ChannelID,
			Mentions:    parsed.Mentions,
		})
		return reportMsg{errs: parsed.Errors, err: err}
	}
}

// Closed returns the session closed from the view, nil if the subject is still in
func (m SessionModel) Closed() *models.Session {
	return m.closed
}

// ReportSaved reports whether a work report was attached before exit
func (m SessionModel) ReportSaved() bool {
	return m.reportSaved
}

// ReportWarnings lists parts of the report text that were ignored
func (m SessionModel) ReportWarnings() []string {
	return m.reportWarned
}

// durations splits the time since punch-in into work and the open break
func (m SessionModel) durations() (worked, onBreak time.Duration) {
	st := m.status
	if st == nil {
		return 0, 0
	}
	if st.BreakStart != nil {
		onBreak = m.now.Sub(*st.BreakStart)
	}
	closedBreaks := time.Duration(st.TotalBreakTime * float64(time.Minute))
	worked = m.now.Sub(st.Start) - closedBreaks - onBreak
	return worked, onBreak
}

func (m SessionModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	switch {
	case m.closed != nil:
		body = m.renderReport()
	case m.status == nil:
		body = lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Render("Not clocked in")
	default:
		body = m.renderClock()
	}

	var footer []string
	if m.err != nil {
		footer = append(footer, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorError)).Render("Error: "+m.err.Error()))
	} else if m.notice != "" {
		footer = append(footer, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Render(m.notice))
	}
	if m.closed == nil {
		footer = append(footer, m.help.View(m.keys))
	} else {
		footer = append(footer, lipgloss.NewStyle().Foreground(lipgloss.Color(ColorHelpText)).Italic(true).
			Render("enter save report · esc skip"))
	}

	// Available height for content (total minus footer)
	contentHeight := m.height - len(footer) - 1
	if contentHeight < 1 {
		contentHeight = 1
	}
	content := lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Align(lipgloss.Center, lipgloss.Center).
		Render(body)

	centered := lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center)
	for i := range footer {
		footer[i] = centered.Render(footer[i])
	}
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{content}, footer...)...)
}

func (m SessionModel) renderClock() string {
	worked, onBreak := m.durations()
	st := m.status

	header := "●  WORKING  ●"
	headerColor := ColorAccentBright
	clockValue := worked
	if st.State == attendance.StateOnBreak {
		header = "☕  ON BREAK  ☕"
		headerColor = ColorWarning
		clockValue = onBreak
	}

	headerStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(headerColor)).Bold(true)
	nameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).Bold(true)
	infoStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSecondaryText)).Italic(true)

	name := st.SubjectName
	if name == "" {
		name = st.SubjectID
	}

	lines := []string{
		headerStyle.Render(header),
		nameStyle.Render(name),
		bigClock(clockValue, headerColor),
		infoStyle.Render(fmt.Sprintf("Clocked in at %s", st.Start.Format("15:04:05"))),
	}

	breaks := st.TotalBreakTime
	if st.State == attendance.StateOnBreak {
		lines = append(lines, infoStyle.Render("Worked "+clockText(worked)))
	}
	if breaks > 0 {
		lines = append(lines, infoStyle.Render("Breaks so far: "+accounting.FormatMinutes(breaks)))
	}
	return strings.Join(lines, "\n\n")
}

func (m SessionModel) renderReport() string {
	s := *m.closed
	title := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorSuccess)).Bold(true).
		Render("Clocked out")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText)).
		Render(fmt.Sprintf("Worked %s · breaks %s",
			accounting.FormatMinutes(accounting.WorkingTime(s)),
			accounting.FormatMinutes(accounting.TotalBreakTime(s))))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorAccentMain)).
		Padding(0, 1).
		Render(m.report.View())
	return strings.Join([]string{title, summary, box}, "\n\n")
}
