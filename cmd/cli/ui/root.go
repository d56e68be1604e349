package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type state int

const (
	stateLogin state = iota
	stateDashboard
	stateCommandForm
	stateDetail
)

// BackToDashboardMsg signals transition back to the dashboard.
type BackToDashboardMsg struct{}

type RootModel struct {
	State     state
	Session   *Session
	Login     LoginModel
	Dashboard DashboardModel
	Form      CommandFormModel
	Detail    DetailModel
	Quitting  bool
	width     int
	height    int
}

func NewRootModel() RootModel {
	s := NewSession()
	return RootModel{
		State:   stateLogin,
		Session: s,
		Login:   NewLoginModel(s),
	}
}

func (m RootModel) Init() tea.Cmd {
	return m.Login.Init()
}

func (m RootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 10 {
			m.Dashboard.Table.SetHeight(m.height - 10)
		}
		if m.height > 12 {
			m.Detail.Log.Height = m.height - 12
		}
		if m.width > 4 {
			m.Detail.Log.Width = m.width - 4
		}

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.Quitting = true
			return m, tea.Quit
		}
	}

	switch m.State {
	case stateLogin:
		if _, ok := msg.(loginSuccessMsg); ok {
			m.State = stateDashboard
			m.Dashboard = NewDashboardModel(m.Session, m.width, m.height)
			return m, m.Dashboard.Init()
		}
		newLogin, cmd := m.Login.Update(msg)
		m.Login = newLogin
		cmds = append(cmds, cmd)

	case stateDashboard:
		if sel, ok := msg.(ClientSelectedMsg); ok {
			m.State = stateCommandForm
			m.Form = NewCommandFormModel(m.Session, sel.ClientID)
			return m, m.Form.Init()
		}
		newDash, cmd := m.Dashboard.Update(msg)
		m.Dashboard = newDash
		cmds = append(cmds, cmd)

	case stateCommandForm:
		switch msg := msg.(type) {
		case BackToDashboardMsg:
			m.State = stateDashboard
			return m, m.Dashboard.Init()
		case commandQueuedMsg:
			// show the queue confirmation, then jump to history
			newForm, cmd := m.Form.Update(msg)
			m.Form = newForm
			m.State = stateDetail
			m.Detail = NewDetailModel(m.Session, m.Form.ClientID, m.width, m.height)
			return m, tea.Batch(cmd, m.Detail.Init())
		}
		newForm, cmd := m.Form.Update(msg)
		m.Form = newForm
		cmds = append(cmds, cmd)

	case stateDetail:
		if _, ok := msg.(BackToDashboardMsg); ok {
			m.State = stateDashboard
			return m, m.Dashboard.Init()
		}
		newDetail, cmd := m.Detail.Update(msg)
		m.Detail = newDetail
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m RootModel) View() string {
	if m.Quitting {
		return "Bye!\n"
	}
	switch m.State {
	case stateLogin:
		return docStyle.Render(m.Login.View())
	case stateDashboard:
		return docStyle.Render(m.Dashboard.View())
	case stateCommandForm:
		return docStyle.Render(m.Form.View())
	case stateDetail:
		return docStyle.Render(m.Detail.View())
	}
	return "Unknown state"
}
