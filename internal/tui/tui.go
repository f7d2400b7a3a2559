package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/punchclock/internal/accounting"
	"github.com/balkashynov/punchclock/internal/attendance"
	"github.com/balkashynov/punchclock/internal/clock"
)

// RunSession starts the live session view for a clocked-in subject
func RunSession(ctx context.Context, svc Lifecycle, clk clock.Clock, subject, tenant string, status *attendance.EmployeeStatus) error {
	model := NewSessionModel(ctx, svc, clk, subject, tenant, status)

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	// Handle exit messages after TUI closes
	m, ok := finalModel.(SessionModel)
	if !ok {
		return nil
	}
	if closed := m.Closed(); closed != nil {
		fmt.Printf("⏹️  Clocked out at %s\n", closed.End.Format("15:04"))
		fmt.Printf("📊 Worked %s, breaks %s\n",
			accounting.FormatMinutes(accounting.WorkingTime(*closed)),
			accounting.FormatMinutes(accounting.TotalBreakTime(*closed)))
		if m.ReportSaved() {
			fmt.Println("📝 Report saved")
		}
		for _, w := range m.ReportWarnings() {
			fmt.Printf("⚠️  %s\n", w)
		}
		return nil
	}

	fmt.Println("\n💡 Still clocked in.")
	fmt.Println("   Use 'punchclock status' to check or 'punchclock out' to clock out.")
	return nil
}

// RunTeam starts the live board of a tenant's active employees
func RunTeam(ctx context.Context, roster Roster, clk clock.Clock, tenant string) error {
	p := tea.NewProgram(NewTeamModel(ctx, roster, clk, tenant), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
