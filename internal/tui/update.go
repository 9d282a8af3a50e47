package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"wirecrab/internal/models"
)

const (
	// chrome is the number of lines taken by everything but the table body.
	chrome = 10
	// maxDrain caps the values taken from one channel per tick.
	maxDrain = 1 << 16
)

func (m HostModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.running = false
			return m, tea.Quit
		case "up", "k":
			m.hosts.SelectPrev()
		case "down", "j":
			m.hosts.SelectNext()
		case "c":
			m.hosts.Clear()
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(max(msg.Height-chrome, 3))
		return m, nil

	case TickMsg:
		m.drain()
		if m.opts.Stats != nil {
			m.traffic, m.dnsStats = m.opts.Stats()
		}
		m.refresh()
		return m, m.tickCmd()
	}

	return m, nil
}

// drain applies queued events until every channel is empty, taking at most
// maxDrain values from each so a flood cannot hold off rendering. A closed
// channel is dropped from the sources.
func (m *HostModel) drain() {
	if !receive(m.sources.Traffic, func(obs models.TrafficObservation) {
		m.hosts.RecordTraffic(obs.Src)
	}) {
		m.sources.Traffic = nil
	}
	if !receive(m.sources.DNS, m.hosts.RecordDNSAnswer) {
		m.sources.DNS = nil
	}
	if !receive(m.sources.Reverse, func(res models.ReverseResult) {
		m.hosts.ApplyReverse(res)
	}) {
		m.sources.Reverse = nil
	}
}

// receive hands values from ch to apply without blocking and reports whether
// ch is still open. A nil channel reads as empty.
func receive[T any](ch <-chan T, apply func(T)) bool {
	for range maxDrain {
		select {
		case v, ok := <-ch:
			if !ok {
				return false
			}
			apply(v)
		default:
			return true
		}
	}
	return true
}

func (m *HostModel) refresh() {
	rows := make([]table.Row, 0, m.hosts.Len())
	for e := range m.hosts.Entries() {
		host := e.Addr.String()
		if e.Resolved {
			host = e.Domain
		}
		rows = append(rows, table.Row{
			strconv.Itoa(len(rows) + 1),
			e.Addr.String(),
			host,
			strconv.Itoa(e.Count),
		})
	}
	m.table.SetRows(rows)
	if sel := m.hosts.Selected(); sel >= 0 {
		m.table.SetCursor(sel)
	}
}
