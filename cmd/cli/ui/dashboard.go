package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type DashboardModel struct {
	Session *Session
	Table   table.Model
	Clients []ClientEntry
	Err     error
}

type clientsLoadedMsg []ClientEntry

type ClientSelectedMsg struct {
	ClientID string
}

func NewDashboardModel(s *Session, width, height int) DashboardModel {
	columns := []table.Column{
		{Title: "Client ID", Width: 28},
		{Title: "Hostname", Width: 20},
		{Title: "User", Width: 14},
		{Title: "Status", Width: 10},
		{Title: "Last Seen", Width: 20},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height-10),
	)

	sStyle := table.DefaultStyles()
	sStyle.Header = sStyle.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	sStyle.Selected = sStyle.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(sStyle)

	return DashboardModel{Session: s, Table: t}
}

func (m DashboardModel) Init() tea.Cmd {
	return m.RefreshCmd
}

func (m DashboardModel) RefreshCmd() tea.Msg {
	clients, err := m.Session.ListClients()
	if err != nil {
		return errMsg(err)
	}
	return clientsLoadedMsg(clients)
}

func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.RefreshCmd
		case "enter":
			selected := m.Table.SelectedRow()
			if len(selected) > 0 {
				id := selected[0]
				return m, func() tea.Msg { return ClientSelectedMsg{ClientID: id} }
			}
		case "t":
			selected := m.Table.SelectedRow()
			if len(selected) > 0 {
				id := selected[0]
				return m, func() tea.Msg {
					if err := m.Session.Terminate(id); err != nil {
						return errMsg(err)
					}
					return m.RefreshCmd()
				}
			}
		case "q":
			return m, tea.Quit
		}

	case clientsLoadedMsg:
		m.Clients = msg
		m.Err = nil
		rows := make([]table.Row, 0, len(msg))
		for _, c := range msg {
			rows = append(rows, table.Row{
				c.StableID,
				c.Hostname,
				c.Username,
				c.Status,
				time.Unix(c.LastSeen, 0).Format("2006-01-02 15:04:05"),
			})
		}
		m.Table.SetRows(rows)

	case errMsg:
		m.Err = msg
	}

	m.Table, cmd = m.Table.Update(msg)
	return m, cmd
}

func (m DashboardModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Dashboard - Registered Clients") + "\n\n")
	b.WriteString(m.Table.View())
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("enter: send command, t: terminate, r: refresh, q: quit"))

	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
