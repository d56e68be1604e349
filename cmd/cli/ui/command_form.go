package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type CommandFormModel struct {
	Session  *Session
	ClientID string
	Input    textinput.Model
	Status   string
	Err      error
}

type commandQueuedMsg struct {
	CommandID string
}

func NewCommandFormModel(s *Session, clientID string) CommandFormModel {
	in := textinput.New()
	in.Placeholder = "Get-Process"
	in.Prompt = "Command: "
	in.Focus()
	in.CharLimit = 0
	return CommandFormModel{Session: s, ClientID: clientID, Input: in}
}

func (m CommandFormModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m CommandFormModel) Update(msg tea.Msg) (CommandFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			command := m.Input.Value()
			if command == "" {
				return m, nil
			}
			return m, func() tea.Msg {
				id, err := m.Session.SendCommand(m.ClientID, command)
				if err != nil {
					return errMsg(err)
				}
				return commandQueuedMsg{CommandID: id}
			}
		case tea.KeyEsc:
			return m, func() tea.Msg { return BackToDashboardMsg{} }
		}

	case commandQueuedMsg:
		m.Status = fmt.Sprintf("Queued as %s", msg.CommandID)
		m.Err = nil
		m.Input.SetValue("")

	case errMsg:
		m.Err = msg
	}

	var cmd tea.Cmd
	m.Input, cmd = m.Input.Update(msg)
	return m, cmd
}

func (m CommandFormModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Send Command - "+m.ClientID) + "\n\n")
	b.WriteString(m.Input.View())
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("enter: queue command, esc: back to dashboard"))

	if m.Status != "" {
		b.WriteString("\n\n" + statusMessageStyle(m.Status))
	}
	if m.Err != nil {
		b.WriteString("\n\n" + errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
