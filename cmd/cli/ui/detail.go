package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// DetailModel shows the command history for one client and the latest
// result text.
type DetailModel struct {
	Session  *Session
	ClientID string
	Log      viewport.Model
	History  []CommandEntry
	Err      error
}

type historyLoadedMsg []CommandEntry

func NewDetailModel(s *Session, clientID string, width, height int) DetailModel {
	vp := viewport.New(width-4, height-12)
	return DetailModel{Session: s, ClientID: clientID, Log: vp}
}

func (m DetailModel) Init() tea.Cmd {
	return m.LoadCmd
}

func (m DetailModel) LoadCmd() tea.Msg {
	history, err := m.Session.History(m.ClientID, 50)
	if err != nil {
		return errMsg(err)
	}
	return historyLoadedMsg(history)
}

func (m DetailModel) Update(msg tea.Msg) (DetailModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return m, m.LoadCmd
		case "esc", "b":
			return m, func() tea.Msg { return BackToDashboardMsg{} }
		case "q":
			return m, tea.Quit
		}

	case historyLoadedMsg:
		m.History = msg
		m.Err = nil
		m.Log.SetContent(renderHistory(msg))

	case errMsg:
		m.Err = msg
	}

	var cmd tea.Cmd
	m.Log, cmd = m.Log.Update(msg)
	return m, cmd
}

func renderHistory(entries []CommandEntry) string {
	if len(entries) == 0 {
		return "No commands recorded yet."
	}
	var b strings.Builder
	for _, e := range entries {
		ts := time.Unix(e.CreatedAt, 0).Format("15:04:05")
		fmt.Fprintf(&b, "[%s] %s  %s  (%s)\n", ts, e.CommandID, e.Command, e.Status)
		if e.Result != "" {
			result := e.Result
			if len(result) > 500 {
				result = result[:500] + "..."
			}
			b.WriteString(result)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m DetailModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("History - "+m.ClientID) + "\n\n")
	b.WriteString(m.Log.View())
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("r: refresh, esc: back, q: quit"))

	if m.Err != nil {
		b.WriteString("\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
