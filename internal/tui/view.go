package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"wirecrab/internal/capture"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func (m HostModel) View() string {
	headerText := fmt.Sprintf("wirecrab - Monitoring: %s", m.opts.Interface)
	if m.opts.Ports != "" {
		headerText += fmt.Sprintf(" [%s]", m.opts.Ports)
	}
	title := titleStyle.Render(headerText)

	trafficBox := infoStyle.Render("Traffic\n" + formatStats(m.traffic))
	dnsBox := infoStyle.Render("DNS\n" + formatStats(m.dnsStats))
	hostBox := infoStyle.Render(fmt.Sprintf("Hosts\n%d seen\n%d lookups pending", m.hosts.Len(), m.hosts.Pending()))
	row1 := lipgloss.JoinHorizontal(lipgloss.Top, trafficBox, dnsBox, hostBox)

	tableView := m.table.View()
	if m.hosts.Len() == 0 {
		tableView += "\nWaiting for traffic..."
	}
	tableBox := infoStyle.Render(tableView)

	body := lipgloss.JoinVertical(lipgloss.Left, title, row1, tableBox)
	return body + "\n" + helpStyle.Render("↑/k ↓/j select • c clear • q quit")
}

func formatStats(s capture.Stats) string {
	return fmt.Sprintf("%d received\n%d emitted\n%d dropped\n%d stalled", s.Received, s.Emitted, s.TotalDropped(), s.Stalled)
}
