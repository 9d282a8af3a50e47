package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wirecrab/internal/capture"
	"wirecrab/internal/dns"
	"wirecrab/internal/hosts"
	"wirecrab/internal/models"
)

// TickMsg triggers a drain of the event channels and a table refresh.
type TickMsg time.Time

// Sources are the channels the model drains on every tick. Nil channels are skipped.
type Sources struct {
	Traffic <-chan models.TrafficObservation
	DNS     <-chan *dns.Message
	Reverse <-chan models.ReverseResult
}

// Options configures the header and refresh rate.
type Options struct {
	Interface string
	Ports     string
	Refresh   time.Duration
	// Stats reports the capture loop counters. May be nil.
	Stats func() (traffic, dns capture.Stats)
}

// HostModel renders the host table and owns it: every mutation of the table
// happens inside Update.
type HostModel struct {
	hosts   *hosts.Table
	sources Sources
	opts    Options

	table   table.Model
	running bool

	traffic  capture.Stats
	dnsStats capture.Stats
}

// NewHostModel creates the model around an existing table.
func NewHostModel(h *hosts.Table, sources Sources, opts Options) HostModel {
	if opts.Refresh <= 0 {
		opts.Refresh = 250 * time.Millisecond
	}

	columns := []table.Column{
		{Title: "#", Width: 5},
		{Title: "Address", Width: 40},
		{Title: "Host", Width: 48},
		{Title: "Packets", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(false),
		table.WithHeight(20),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return HostModel{
		hosts:   h,
		sources: sources,
		opts:    opts,
		table:   t,
		running: true,
	}
}

// Running reports whether the operator has not yet asked to quit.
func (m HostModel) Running() bool {
	return m.running
}

// Hosts returns the table the model owns.
func (m HostModel) Hosts() *hosts.Table {
	return m.hosts
}

func (m HostModel) Init() tea.Cmd {
	return m.tickCmd()
}

func (m HostModel) tickCmd() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
