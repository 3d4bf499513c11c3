package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aada-edu/aada/internal/wizard"
)

type accountField int

const (
	accountEmail accountField = iota
	accountPassword
	accountConfirm
	numAccountFields
)

// registerModel is step one of the wizard: email and password.
type registerModel struct {
	fields    [numAccountFields]string
	focus     accountField
	statusMsg string
}

func newRegisterModel() registerModel {
	return registerModel{}
}

func (m registerModel) Update(msg tea.Msg) (registerModel, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "ctrl+l":
		return m, navigate(routeLogin, nil, "")
	case "ctrl+s":
		return m.submit()
	case "enter":
		if m.focus == numAccountFields-1 {
			return m.submit()
		}
		m.focus++
	case "tab", "down":
		m.focus = (m.focus + 1) % numAccountFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numAccountFields) % numAccountFields
	default:
		m.statusMsg = ""
		m.fields[m.focus] = editRune(m.fields[m.focus], key.String())
	}
	return m, nil
}

func (m registerModel) submit() (registerModel, tea.Cmd) {
	draft, err := wizard.SubmitAccount(wizard.Account{
		Email:           strings.TrimSpace(m.fields[accountEmail]),
		Password:        m.fields[accountPassword],
		ConfirmPassword: m.fields[accountConfirm],
	})
	if err != nil {
		m.statusMsg = err.Error()
		return m, nil
	}
	return m, navigate(routePersonal, draft, "")
}

func (m registerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create your account") + "\n")
	b.WriteString(dimStyle.Render("Step 1 of 3") + "\n\n")

	b.WriteString(renderField("email", m.fields[accountEmail], m.focus == accountEmail, false) + "\n")
	b.WriteString(renderField("password", m.fields[accountPassword], m.focus == accountPassword, true) + "\n")
	b.WriteString(renderField("confirm password", m.fields[accountConfirm], m.focus == accountConfirm, true) + "\n\n")

	b.WriteString(sectionHeaderStyle.Render("Password requirements") + "\n")
	for _, c := range wizard.PasswordChecks(m.fields[accountPassword]) {
		if c.OK {
			b.WriteString("  " + checkOKStyle.Render("✓ "+c.Label) + "\n")
		} else {
			b.WriteString("  " + checkPendingStyle.Render("○ "+c.Label) + "\n")
		}
	}
	b.WriteString("\n")

	b.WriteString(renderStatus(false, "", m.statusMsg) + "\n")
	b.WriteString(dimStyle.Render("Already have an account? ") + accentStyle.Render("ctrl+l") + dimStyle.Render(" to login"))
	return b.String()
}
