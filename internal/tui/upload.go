package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aada-edu/aada/internal/wizard"
)

type uploadFocus int

const (
	focusPath uploadFocus = iota
	focusTerms
	numUploadFocus
)

// uploadModel is step three of the wizard: transcript and terms.
type uploadModel struct {
	backend    Backend
	links      Links
	draft      *wizard.Draft
	path       string
	file       *wizard.File
	agreed     bool
	focus      uploadFocus
	statusMsg  string
	submitting bool
}

type registrationDoneMsg struct {
	err error
}

func newUploadModel(b Backend, d *wizard.Draft, links Links) uploadModel {
	return uploadModel{backend: b, draft: d, links: links}
}

func (m uploadModel) Update(msg tea.Msg) (uploadModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registrationDoneMsg:
		m.submitting = false
		if errors.Is(msg.err, wizard.ErrNoDraft) {
			return m, navigate(routeRegister, nil, "")
		}
		if msg.err != nil {
			m.statusMsg = msg.err.Error()
			return m, nil
		}
		return m, navigate(routeLogin, nil, wizard.MsgRegistered)

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m uploadModel) updateKeys(msg tea.KeyMsg) (uploadModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m, navigate(routePersonal, m.draft, "")
	case "ctrl+s":
		return m.submit()
	case "ctrl+t":
		m.openLink(m.links.Terms)
		return m, nil
	case "ctrl+p":
		m.openLink(m.links.Privacy)
		return m, nil
	case "ctrl+x":
		m.file = nil
		m.statusMsg = ""
		return m, nil
	case "tab", "down", "shift+tab", "up":
		m.focus = (m.focus + 1) % numUploadFocus
		return m, nil
	}

	switch m.focus {
	case focusPath:
		if m.file != nil {
			return m, nil
		}
		if msg.String() == "enter" {
			return m.selectFile(), nil
		}
		m.statusMsg = ""
		m.path = editRune(m.path, msg.String())
	case focusTerms:
		switch msg.String() {
		case " ", "space", "x":
			m.agreed = !m.agreed
			m.statusMsg = ""
		case "enter":
			return m.submit()
		}
	}
	return m, nil
}

func (m uploadModel) openLink(url string) {
	if url == "" || m.links.Open == nil {
		return
	}
	m.links.Open(url) //nolint:errcheck // best-effort browser open
}

func (m uploadModel) selectFile() uploadModel {
	path := strings.TrimSpace(m.path)
	if path == "" {
		return m
	}
	f, err := wizard.OpenFile(path)
	if err != nil {
		m.statusMsg = "Could not read " + path
		return m
	}
	if err := wizard.SelectFile(*f); err != nil {
		m.file = nil
		m.statusMsg = err.Error()
		return m
	}
	m.file = f
	m.path = ""
	m.statusMsg = ""
	m.focus = focusTerms
	return m
}

func (m uploadModel) submit() (uploadModel, tea.Cmd) {
	// Validate locally first so nothing is sent for a bad form.
	if !m.agreed {
		m.statusMsg = "Please agree to the terms and conditions"
		return m, nil
	}
	if m.file == nil {
		m.statusMsg = "Please upload your academic transcript"
		return m, nil
	}

	m.submitting = true
	m.statusMsg = ""
	b, d, f := m.backend, m.draft, m.file
	return m, func() tea.Msg {
		_, err := wizard.Complete(context.Background(), b, d, f, true)
		return registrationDoneMsg{err: err}
	}
}

func (m uploadModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Upload your academic transcript") + "\n")
	b.WriteString(dimStyle.Render("Step 3 of 3") + "\n\n")

	if m.file != nil {
		b.WriteString("  " + selectedStyle.Render(m.file.Name) + "  " + dimStyle.Render(wizard.FileSizeString(m.file.Size)) +
			"  " + metaStyle.Render("(ctrl+x to remove)") + "\n")
	} else {
		b.WriteString(renderField("file path", m.path, m.focus == focusPath, false) + "\n")
		b.WriteString(metaStyle.Render("    PDF, DOC, DOCX, JPG or PNG, up to 10MB") + "\n")
	}
	b.WriteString("\n")

	box := "[ ]"
	if m.agreed {
		box = accentStyle.Render("[x]")
	}
	cursor := " "
	if m.focus == focusTerms {
		cursor = accentStyle.Render(">")
	}
	b.WriteString(cursor + " " + box + " " + normalStyle.Render("I agree to the Terms of Service and Privacy Policy") + "\n\n")

	b.WriteString(renderStatus(m.submitting, "completing registration...", m.statusMsg))
	return b.String()
}
