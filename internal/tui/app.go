// Package tui is the terminal front end: login, the three registration
// steps and the student dashboard.
package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/aada-edu/aada/internal/wizard"
	"github.com/aada-edu/aada/pkg/domain"
)

// Backend is what the screens need from the auth layer. *auth.Service
// satisfies it.
type Backend interface {
	wizard.Registrar
	Login(ctx context.Context, email, password string) (*domain.LoginResponse, error)
	Logout(ctx context.Context)
	IsLoggedIn(ctx context.Context) bool
	StoredUser(ctx context.Context) *domain.User
	GetUserDocuments(ctx context.Context) ([]domain.Document, error)
}

type route string

const (
	routeRoot      route = "/"
	routeLogin     route = "/login"
	routeRegister  route = "/register"
	routePersonal  route = "/register/personal-info"
	routeUpload    route = "/register/document-upload"
	routeDashboard route = "/dashboard"
)

// msgSessionExpired is shown on the login screen after a forced logout.
const msgSessionExpired = "Your session has expired. Please log in again."

// navigateMsg moves the app to another screen. draft is the wizard state
// handed to the next step; it is never stored anywhere else.
type navigateMsg struct {
	to     route
	draft  *wizard.Draft
	notice string
}

func navigate(to route, draft *wizard.Draft, notice string) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{to: to, draft: draft, notice: notice}
	}
}

// Links are the legal pages opened from the upload screen.
type Links struct {
	Terms   string
	Privacy string
	Open    func(url string) error
}

// App is the root Bubbletea model.
type App struct {
	backend   Backend
	links     Links
	version   string
	route     route
	login     loginModel
	register  registerModel
	personal  personalModel
	upload    uploadModel
	dashboard dashboardModel
	update    string
	width     int
	height    int
	frame     int
}

// NewApp creates the TUI, starting at "/" (which redirects to the login screen).
func NewApp(b Backend, version string, links Links) App {
	a := App{backend: b, links: links, version: version}
	a, _ = a.navigate(navigateMsg{to: routeRoot})
	return a
}

func (a App) Init() tea.Cmd {
	return tea.Batch(shimmerTickCmd(), checkVersion(a.version))
}

// navigate applies the route guards and builds the target screen.
func (a App) navigate(msg navigateMsg) (App, tea.Cmd) {
	ctx := context.Background()
	to := msg.to
	if to == routeRoot {
		to = routeLogin
	}

	switch to {
	case routePersonal:
		if wizard.EnterPersonalInfo(msg.draft) != nil {
			to = routeRegister
		}
	case routeUpload:
		if wizard.EnterDocumentUpload(msg.draft) != nil {
			to = routeRegister
		}
	case routeDashboard:
		if !a.backend.IsLoggedIn(ctx) || a.backend.StoredUser(ctx) == nil {
			to = routeLogin
		}
	}

	a.route = to
	var cmd tea.Cmd
	switch to {
	case routeLogin:
		a.login = newLoginModel(a.backend, msg.notice)
	case routeRegister:
		a.register = newRegisterModel()
	case routePersonal:
		a.personal = newPersonalModel(msg.draft)
	case routeUpload:
		a.upload = newUploadModel(a.backend, msg.draft, a.links)
	case routeDashboard:
		a.dashboard = newDashboardModel(a.backend, a.backend.StoredUser(ctx))
		a.dashboard.width = a.width
		cmd = a.dashboard.Init()
	}
	return a, cmd
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.dashboard.width = msg.Width
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case versionCheckMsg:
		if msg.hasUpdate {
			a.update = msg.latestVersion
		}
		return a, nil

	case navigateMsg:
		return a.navigate(msg)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if msg.String() == "q" && a.route == routeDashboard {
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.route {
	case routeLogin:
		a.login, cmd = a.login.Update(msg)
	case routeRegister:
		a.register, cmd = a.register.Update(msg)
	case routePersonal:
		a.personal, cmd = a.personal.Update(msg)
	case routeUpload:
		a.upload, cmd = a.upload.Update(msg)
	case routeDashboard:
		a.dashboard, cmd = a.dashboard.Update(msg)
	}
	return a, cmd
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	pad := (a.width - lipgloss.Width(logo)) / 2
	if pad < 0 {
		pad = 0
	}
	header := strings.Repeat(" ", pad) + logo
	if a.update != "" {
		header += "  " + dimStyle.Render(fmt.Sprintf("%s available", a.update))
	}

	var body, help string
	switch a.route {
	case routeLogin:
		body = a.login.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "sign in") + "  " + helpEntry("ctrl+r", "register") + "  " + helpEntry("ctrl+c", "quit")
	case routeRegister:
		body = a.register.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("enter", "continue") + "  " + helpEntry("ctrl+l", "login") + "  " + helpEntry("ctrl+c", "quit")
	case routePersonal:
		body = a.personal.View()
		help = " " + helpEntry("tab", "next") + "  " + helpEntry("←/→", "state") + "  " + helpEntry("ctrl+s", "continue") + "  " + helpEntry("esc", "back")
	case routeUpload:
		body = a.upload.View()
		help = " " + helpEntry("enter", "select file") + "  " + helpEntry("space", "agree") + "  " + helpEntry("ctrl+t", "terms") + "  " + helpEntry("ctrl+s", "complete") + "  " + helpEntry("esc", "back")
	case routeDashboard:
		body = a.dashboard.View()
		help = " " + helpEntry("1-4", "tabs") + "  " + a.dashboard.helpKeys() + "  " + helpEntry("q", "quit")
	}

	// Chrome: header(1) + blank(1) + help(1)
	body = strings.TrimRight(truncateToHeight(body, a.height-3), "\n")
	return fmt.Sprintf("%s\n\n%s\n%s", header, body, help)
}
