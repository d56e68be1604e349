package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type errMsg error

type loginSuccessMsg struct{}

type LoginModel struct {
	Session  *Session
	Inputs   []textinput.Model
	FocusIdx int
	Err      error
}

const (
	inputHost = iota
	inputPort
	inputToken
)

func NewLoginModel(s *Session) LoginModel {
	inputs := make([]textinput.Model, 3)

	inputs[inputHost] = textinput.New()
	inputs[inputHost].Placeholder = "127.0.0.1"
	inputs[inputHost].Focus()
	inputs[inputHost].Prompt = "Host:  "
	inputs[inputHost].SetValue("127.0.0.1")

	inputs[inputPort] = textinput.New()
	inputs[inputPort].Placeholder = "5566"
	inputs[inputPort].Prompt = "Port:  "
	inputs[inputPort].SetValue("5566")

	inputs[inputToken] = textinput.New()
	inputs[inputToken].Placeholder = "root token"
	inputs[inputToken].EchoMode = textinput.EchoPassword
	inputs[inputToken].Prompt = "Token: "

	return LoginModel{Session: s, Inputs: inputs}
}

func (m LoginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m LoginModel) Update(msg tea.Msg) (LoginModel, tea.Cmd) {
	cmds := make([]tea.Cmd, len(m.Inputs))

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEnter:
			if m.FocusIdx == len(m.Inputs)-1 {
				return m, m.LoginCmd
			}
			m.nextInput()
		case tea.KeyTab, tea.KeyDown:
			m.nextInput()
		case tea.KeyShiftTab, tea.KeyUp:
			m.prevInput()
		}
	case errMsg:
		m.Err = msg
	}

	for i := range m.Inputs {
		m.Inputs[i], cmds[i] = m.Inputs[i].Update(msg)
	}
	return m, tea.Batch(cmds...)
}

func (m *LoginModel) nextInput() {
	m.Inputs[m.FocusIdx].Blur()
	m.FocusIdx = (m.FocusIdx + 1) % len(m.Inputs)
	m.Inputs[m.FocusIdx].Focus()
}

func (m *LoginModel) prevInput() {
	m.Inputs[m.FocusIdx].Blur()
	m.FocusIdx--
	if m.FocusIdx < 0 {
		m.FocusIdx = len(m.Inputs) - 1
	}
	m.Inputs[m.FocusIdx].Focus()
}

func (m LoginModel) LoginCmd() tea.Msg {
	host := m.Inputs[inputHost].Value()
	port, err := strconv.Atoi(m.Inputs[inputPort].Value())
	if err != nil {
		return errMsg(fmt.Errorf("invalid port"))
	}
	token := m.Inputs[inputToken].Value()
	if token == "" {
		return errMsg(fmt.Errorf("token is required"))
	}
	if err := m.Session.Login(host, port, token); err != nil {
		return errMsg(fmt.Errorf("login failed: %v", err))
	}
	return loginSuccessMsg{}
}

func (m LoginModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("PT1 Console - Login") + "\n\n")
	for i := range m.Inputs {
		b.WriteString(m.Inputs[i].View())
		if i < len(m.Inputs)-1 {
			b.WriteRune('\n')
		}
	}
	b.WriteString("\n\n")
	b.WriteString(blurredStyle.Render("Press Tab to change fields, Enter to submit"))

	if m.Err != nil {
		b.WriteString("\n\n")
		b.WriteString(errorMessageStyle(m.Err.Error()))
	}
	return b.String()
}
