package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type loginField int

const (
	loginEmail loginField = iota
	loginPassword
	numLoginFields
)

type loginModel struct {
	backend    Backend
	fields     [numLoginFields]string
	focus      loginField
	notice     string
	statusMsg  string
	submitting bool
}

type loginDoneMsg struct {
	err error
}

func newLoginModel(b Backend, notice string) loginModel {
	return loginModel{backend: b, notice: notice}
}

func (m loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.submitting = false
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			m.fields[loginPassword] = ""
			m.focus = loginPassword
			return m, nil
		}
		return m, navigate(routeDashboard, nil, "")

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m loginModel) updateKeys(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	switch msg.String() {
	case "ctrl+r":
		return m, navigate(routeRegister, nil, "")
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == numLoginFields-1 {
			return m.submit()
		}
		m.focus++
	case "tab", "down":
		m.focus = (m.focus + 1) % numLoginFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numLoginFields) % numLoginFields
	default:
		m.statusMsg = ""
		m.fields[m.focus] = editRune(m.fields[m.focus], msg.String())
	}
	return m, nil
}

func (m loginModel) submit() (loginModel, tea.Cmd) {
	email := strings.TrimSpace(m.fields[loginEmail])
	password := m.fields[loginPassword]
	if email == "" || password == "" {
		m.statusMsg = "Please enter your email and password"
		return m, nil
	}

	m.submitting = true
	m.statusMsg = ""
	b := m.backend
	return m, func() tea.Msg {
		_, err := b.Login(context.Background(), email, password)
		return loginDoneMsg{err: err}
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign in") + "\n")
	b.WriteString(dimStyle.Render("Student portal") + "\n\n")
	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice) + "\n\n")
	}

	b.WriteString(renderField("email", m.fields[loginEmail], m.focus == loginEmail, false) + "\n")
	b.WriteString(renderField("password", m.fields[loginPassword], m.focus == loginPassword, true) + "\n\n")

	b.WriteString(renderStatus(m.submitting, "signing in...", m.statusMsg) + "\n")
	b.WriteString(dimStyle.Render("Don't have an account? ") + accentStyle.Render("ctrl+r") + dimStyle.Render(" to register"))
	return b.String()
}
