package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/aada-edu/aada/pkg/client"
	"github.com/aada-edu/aada/pkg/domain"
)

type dashTab int

const (
	tabDocuments dashTab = iota
	tabQuizzes
	tabJobs
	tabTuition
	numTabs
)

var tabNames = [numTabs]string{"Dashboard", "Quizzes", "Job Board", "My Tuition"}

// copyToClipboard is swapped out in tests.
var copyToClipboard = clipboard.WriteAll

type documentsLoadedMsg struct {
	docs []domain.Document
	err  error
}

type copyResultMsg struct {
	name string
	err  error
}

type dashboardModel struct {
	backend   Backend
	user      *domain.User
	tab       dashTab
	docs      []domain.Document
	loading   bool
	err       error
	cursor    int
	statusMsg string
	width     int
}

func newDashboardModel(b Backend, u *domain.User) dashboardModel {
	return dashboardModel{backend: b, user: u, loading: true}
}

func (m dashboardModel) Init() tea.Cmd {
	return m.loadDocuments()
}

func (m dashboardModel) loadDocuments() tea.Cmd {
	b := m.backend
	return func() tea.Msg {
		docs, err := b.GetUserDocuments(context.Background())
		return documentsLoadedMsg{docs: docs, err: err}
	}
}

func (m dashboardModel) Update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case documentsLoadedMsg:
		m.loading = false
		if errors.Is(msg.err, client.ErrSessionExpired) {
			return m, navigate(routeLogin, nil, msgSessionExpired)
		}
		m.err = msg.err
		m.docs = msg.docs
		if m.cursor >= len(m.docs) {
			m.cursor = 0
		}
		return m, nil

	case copyResultMsg:
		if msg.err != nil {
			m.statusMsg = "copy failed"
		} else {
			m.statusMsg = "copied " + msg.name
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m dashboardModel) updateKeys(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	m.statusMsg = ""
	switch msg.String() {
	case "1", "2", "3", "4":
		m.tab = dashTab(msg.String()[0] - '1')
	case "tab", "right":
		m.tab = (m.tab + 1) % numTabs
	case "shift+tab", "left":
		m.tab = (m.tab - 1 + numTabs) % numTabs
	case "o":
		b := m.backend
		b.Logout(context.Background())
		return m, navigate(routeLogin, nil, "")
	}

	if m.tab != tabDocuments {
		return m, nil
	}
	switch msg.String() {
	case "j", "down":
		if m.cursor < len(m.docs)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "r":
		m.loading = true
		m.err = nil
		return m, m.loadDocuments()
	case "c":
		if m.cursor < len(m.docs) {
			name := m.docs[m.cursor].FileName
			return m, func() tea.Msg {
				return copyResultMsg{name: name, err: copyToClipboard(name)}
			}
		}
	}
	return m, nil
}

func (m dashboardModel) helpKeys() string {
	keys := []string{}
	if m.tab == tabDocuments {
		keys = append(keys, helpEntry("j/k", "nav"), helpEntry("c", "copy name"), helpEntry("r", "reload"))
	}
	keys = append(keys, helpEntry("o", "logout"))
	return strings.Join(keys, "  ")
}

func (m dashboardModel) welcome() string {
	if m.user == nil {
		return "Welcome!"
	}
	return "Welcome, " + m.user.DisplayName() + "!"
}

func (m dashboardModel) View() string {
	var b strings.Builder

	for i := dashTab(0); i < numTabs; i++ {
		key := fmt.Sprintf("%d", i+1)
		if i == m.tab {
			b.WriteString(accentStyle.Render(key) + " " + selectedStyle.Underline(true).Render(tabNames[i]))
		} else {
			b.WriteString(metaStyle.Render(key) + " " + dimStyle.Render(tabNames[i]))
		}
		b.WriteString("   ")
	}
	b.WriteString("\n\n")
	b.WriteString(titleStyle.Render(m.welcome()) + "\n\n")

	switch m.tab {
	case tabDocuments:
		b.WriteString(m.viewDocuments())
	case tabQuizzes:
		for _, q := range domain.Quizzes {
			b.WriteString(cardStyle(quizColors[q.Status], m.width).Render(
				selectedStyle.Render(q.Title)+"\n"+dimStyle.Render(q.StatusText())) + "\n")
		}
	case tabJobs:
		for _, j := range domain.Jobs {
			b.WriteString(cardStyle(borderGrey, m.width).Render(
				selectedStyle.Render(j.Title+" – "+j.Employer)+"\n"+dimStyle.Render(j.Location)) + "\n")
		}
	case tabTuition:
		for _, t := range domain.Tuition {
			b.WriteString(cardStyle(tuitionColors[t.Kind], m.width).Render(
				selectedStyle.Render(t.Label)+"\n"+normalStyle.Render(t.Detail)) + "\n")
		}
	}

	if m.statusMsg != "" {
		b.WriteString("\n" + noticeStyle.Render(m.statusMsg))
	}
	return b.String()
}

func (m dashboardModel) viewDocuments() string {
	var b strings.Builder
	b.WriteString(sectionHeaderStyle.Render("My Documents") + "\n")

	switch {
	case m.loading:
		b.WriteString(dimStyle.Render("loading documents...") + "\n")
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error loading documents: "+m.err.Error()) + "\n")
	case len(m.docs) == 0:
		b.WriteString(dimStyle.Render("No documents uploaded yet") + "\n")
	default:
		for i, d := range m.docs {
			b.WriteString(m.renderDocument(d, i == m.cursor) + "\n")
		}
	}
	return b.String()
}

func (m dashboardModel) renderDocument(d domain.Document, selected bool) string {
	st := d.Status()
	style := statusStyle(st)

	title := selectedStyle.Render(d.TypeLabel())
	if selected {
		title = accentStyle.Render("> ") + title
	}
	lines := []string{
		title + "  " + style.Render(statusIcon(st)),
		normalStyle.Render(truncStr(d.FileName, 60)),
		dimStyle.Render("Uploaded: "+formatDate(d.UploadedAt)) + "  " + style.Render(d.StatusLabel()),
	}
	if d.VerificationNotes != "" {
		lines = append(lines, metaStyle.Render(d.VerificationNotes))
	}

	card := cardStyle(statusColors[st], m.width).Render(strings.Join(lines, "\n"))
	if selected {
		return selectedRowBg.Render(card)
	}
	return card
}
