package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/aada-edu/aada/internal/wizard"
	"github.com/aada-edu/aada/pkg/client"
	"github.com/aada-edu/aada/pkg/domain"
)

type fakeBackend struct {
	loggedIn    bool
	user        *domain.User
	docs        []domain.Document
	docsErr     error
	loginErr    error
	registerErr error
	uploadErr   error
	registered  []domain.RegisterRequest
	uploads     []client.UploadRequest
	logouts     int
}

func (f *fakeBackend) Login(_ context.Context, email, _ string) (*domain.LoginResponse, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.loggedIn = true
	f.user = &domain.User{Email: email, FirstName: "Ana", LastName: "Diaz"}
	return &domain.LoginResponse{AccessToken: "a", RefreshToken: "r", User: *f.user}, nil
}

func (f *fakeBackend) Logout(context.Context) {
	f.logouts++
	f.loggedIn = false
	f.user = nil
}

func (f *fakeBackend) IsLoggedIn(context.Context) bool { return f.loggedIn }

func (f *fakeBackend) StoredUser(context.Context) *domain.User { return f.user }

func (f *fakeBackend) GetUserDocuments(context.Context) ([]domain.Document, error) {
	return f.docs, f.docsErr
}

func (f *fakeBackend) Register(_ context.Context, req domain.RegisterRequest) (*domain.User, error) {
	f.registered = append(f.registered, req)
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &domain.User{ID: domain.ID(uuid.NewString()), Email: req.Email}, nil
}

func (f *fakeBackend) UploadRegistrationDocument(_ context.Context, up client.UploadRequest) (*domain.UploadedDocument, error) {
	f.uploads = append(f.uploads, up)
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	return &domain.UploadedDocument{ID: domain.ID(uuid.NewString()), DocumentType: up.DocumentType, FileName: up.FileName}, nil
}

func newTestApp(b *fakeBackend) App {
	a := NewApp(b, "dev", Links{})
	a.width = 80
	a.height = 40
	return a
}

// send delivers msg and then runs the resulting commands to completion,
// feeding each produced message back into the app.
func send(a App, msg tea.Msg) App {
	m, cmd := a.Update(msg)
	a = m.(App)
	for i := 0; cmd != nil && i < 10; i++ {
		next := cmd()
		if next == nil {
			break
		}
		m, cmd = a.Update(next)
		a = m.(App)
	}
	return a
}

func key(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(a App, s string) App {
	for _, r := range s {
		a = send(a, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return a
}

func TestAppStartsAtLogin(t *testing.T) {
	a := newTestApp(&fakeBackend{})
	if a.route != routeLogin {
		t.Fatalf("expected / to redirect to %s, got %s", routeLogin, a.route)
	}
	if !strings.Contains(a.View(), "Sign in") {
		t.Error("login view missing title")
	}
}

func TestRouteGuards(t *testing.T) {
	tests := []struct {
		name string
		msg  navigateMsg
		want route
	}{
		{"dashboard needs token", navigateMsg{to: routeDashboard}, routeLogin},
		{"personal needs draft", navigateMsg{to: routePersonal}, routeRegister},
		{"personal needs password", navigateMsg{to: routePersonal, draft: &wizard.Draft{Email: "a@b.com"}}, routeRegister},
		{"upload needs email", navigateMsg{to: routeUpload, draft: &wizard.Draft{}}, routeRegister},
		{"upload with email", navigateMsg{to: routeUpload, draft: &wizard.Draft{Email: "a@b.com"}}, routeUpload},
		{"register always open", navigateMsg{to: routeRegister}, routeRegister},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := send(newTestApp(&fakeBackend{}), tc.msg)
			if a.route != tc.want {
				t.Errorf("route = %s, want %s", a.route, tc.want)
			}
		})
	}
}

func TestLoginFlowReachesDashboard(t *testing.T) {
	b := &fakeBackend{docs: []domain.Document{{
		ID: domain.ID(uuid.NewString()), DocumentType: "transcript", FileName: "transcript.pdf",
		UploadedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.Local), VerificationStatus: "approved",
	}}}
	a := newTestApp(b)

	a = typeText(a, "ana@b.com")
	a = send(a, key(tea.KeyTab))
	a = typeText(a, "Abcdef12")
	a = send(a, key(tea.KeyEnter))

	if a.route != routeDashboard {
		t.Fatalf("expected dashboard after login, got %s (status %q)", a.route, a.login.statusMsg)
	}
	view := a.View()
	for _, want := range []string{"Welcome, Ana Diaz!", "Academic Transcript", "transcript.pdf", "approved"} {
		if !strings.Contains(view, want) {
			t.Errorf("dashboard view missing %q", want)
		}
	}
}

func TestLoginFailureStaysOnLogin(t *testing.T) {
	b := &fakeBackend{loginErr: errors.New("Incorrect email or password")}
	a := newTestApp(b)

	a = typeText(a, "ana@b.com")
	a = send(a, key(tea.KeyTab))
	a = typeText(a, "wrong")
	a = send(a, key(tea.KeyEnter))

	if a.route != routeLogin {
		t.Fatalf("expected to stay on login, got %s", a.route)
	}
	if a.login.statusMsg != "Incorrect email or password" {
		t.Errorf("statusMsg = %q", a.login.statusMsg)
	}
	if a.login.fields[loginPassword] != "" {
		t.Error("password should be cleared after a failed login")
	}
	if b.loggedIn {
		t.Error("no session expected after failed login")
	}
}

func TestLoginRequiresBothFields(t *testing.T) {
	a := newTestApp(&fakeBackend{})
	a = send(a, key(tea.KeyCtrlS))
	if a.login.statusMsg != "Please enter your email and password" {
		t.Errorf("statusMsg = %q", a.login.statusMsg)
	}
}

func TestRegisterStepAdvancesWithDraft(t *testing.T) {
	a := newTestApp(&fakeBackend{})
	a = send(a, key(tea.KeyCtrlR))
	if a.route != routeRegister {
		t.Fatalf("ctrl+r should open register, got %s", a.route)
	}

	a = typeText(a, "a@b.com")
	a = send(a, key(tea.KeyTab))
	a = typeText(a, "Abcdef12")
	if !strings.Contains(a.View(), "✓ One number") {
		t.Error("expected live password checklist to tick the number rule")
	}
	a = send(a, key(tea.KeyTab))
	a = typeText(a, "Abcdef12")
	a = send(a, key(tea.KeyEnter))

	if a.route != routePersonal {
		t.Fatalf("expected personal info step, got %s (status %q)", a.route, a.register.statusMsg)
	}
	if a.personal.draft == nil || a.personal.draft.Email != "a@b.com" {
		t.Errorf("draft not handed over: %+v", a.personal.draft)
	}
}

func TestRegisterStepRejectsMismatch(t *testing.T) {
	a := send(newTestApp(&fakeBackend{}), navigateMsg{to: routeRegister})
	a = typeText(a, "a@b.com")
	a = send(a, key(tea.KeyTab))
	a = typeText(a, "Abcdef12")
	a = send(a, key(tea.KeyTab))
	a = typeText(a, "Abcdef13")
	a = send(a, key(tea.KeyEnter))

	if a.route != routeRegister || a.register.statusMsg != "Passwords do not match" {
		t.Errorf("route=%s status=%q", a.route, a.register.statusMsg)
	}
}

func personalApp(t *testing.T) App {
	t.Helper()
	draft := &wizard.Draft{Email: "a@b.com", Password: "Abcdef12"}
	a := send(newTestApp(&fakeBackend{}), navigateMsg{to: routePersonal, draft: draft})
	if a.route != routePersonal {
		t.Fatalf("expected personal route, got %s", a.route)
	}
	return a
}

func TestPersonalPhoneFormatsAsTyped(t *testing.T) {
	a := personalApp(t)
	a.personal.focus = pPhone
	a = typeText(a, "555123456789")
	if got := a.personal.fields[pPhone]; got != "(555) 123-4567" {
		t.Errorf("phone = %q, want (555) 123-4567", got)
	}
}

func TestPersonalStateCycles(t *testing.T) {
	a := personalApp(t)
	a.personal.focus = pState
	a = send(a, key(tea.KeyRight))
	if a.personal.fields[pState] != "AL" {
		t.Errorf("first state = %q, want AL", a.personal.fields[pState])
	}
	a = send(a, key(tea.KeyLeft))
	if a.personal.fields[pState] != "WY" {
		t.Errorf("wrapped state = %q, want WY", a.personal.fields[pState])
	}
	a = typeText(a, "x")
	if a.personal.fields[pState] != "WY" {
		t.Error("state must not accept typed text")
	}
}

func filledPersonal() [numPersonalFields]string {
	return [numPersonalFields]string{
		"Ana", "Diaz", "(555) 123-4567", "1 Main St", "", "Austin", "TX", "78701",
		"Luis Diaz", "(555) 765-4321",
	}
}

func TestPersonalMissingZipBlocks(t *testing.T) {
	a := personalApp(t)
	a.personal.fields = filledPersonal()
	a.personal.fields[pZip] = ""
	a = send(a, key(tea.KeyCtrlS))

	if a.route != routePersonal {
		t.Fatalf("expected to stay on personal info, got %s", a.route)
	}
	if a.personal.statusMsg != "Please enter your ZIP code" {
		t.Errorf("statusMsg = %q", a.personal.statusMsg)
	}
	if a.personal.focus != pZip {
		t.Errorf("focus = %d, want zip field", a.personal.focus)
	}
}

func TestPersonalSubmitAdvances(t *testing.T) {
	a := personalApp(t)
	a.personal.fields = filledPersonal()
	a = send(a, key(tea.KeyCtrlS))

	if a.route != routeUpload {
		t.Fatalf("expected upload step, got %s (status %q)", a.route, a.personal.statusMsg)
	}
	if a.upload.draft.Personal == nil || a.upload.draft.Personal.City != "Austin" {
		t.Errorf("personal info not carried: %+v", a.upload.draft)
	}
}

func uploadApp(t *testing.T, b *fakeBackend) App {
	t.Helper()
	draft, err := wizard.SubmitAccount(wizard.Account{Email: "a@b.com", Password: "Abcdef12", ConfirmPassword: "Abcdef12"})
	if err != nil {
		t.Fatal(err)
	}
	return send(newTestApp(b), navigateMsg{to: routeUpload, draft: draft})
}

func writeFile(t *testing.T, name string, size int64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("%PDF"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, size); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestUploadFlowCompletesRegistration(t *testing.T) {
	b := &fakeBackend{}
	a := uploadApp(t, b)

	a = typeText(a, writeFile(t, "transcript.pdf", 2048))
	a = send(a, key(tea.KeyEnter))
	if a.upload.file == nil {
		t.Fatalf("file not selected: %q", a.upload.statusMsg)
	}
	if !strings.Contains(a.View(), "2.0 KB") {
		t.Error("expected file size in view")
	}

	a = send(a, key(tea.KeySpace))
	if !a.upload.agreed {
		t.Fatal("space should tick the terms box")
	}
	a = send(a, key(tea.KeyCtrlS))

	if a.route != routeLogin {
		t.Fatalf("expected redirect to login, got %s (status %q)", a.route, a.upload.statusMsg)
	}
	if a.login.notice != wizard.MsgRegistered {
		t.Errorf("notice = %q", a.login.notice)
	}
	if len(b.registered) != 1 || b.registered[0].Role != domain.RoleStudent {
		t.Errorf("registered = %+v", b.registered)
	}
	if len(b.uploads) != 1 || b.uploads[0].DocumentType != domain.DocumentTypeTranscript {
		t.Errorf("uploads = %+v", b.uploads)
	}
}

func TestUploadRejectsLargeFileBeforeNetwork(t *testing.T) {
	b := &fakeBackend{}
	a := uploadApp(t, b)

	a = typeText(a, writeFile(t, "big.pdf", 12*1024*1024))
	a = send(a, key(tea.KeyEnter))

	if a.upload.file != nil {
		t.Error("oversized file must not be selected")
	}
	if a.upload.statusMsg != "File size must be less than 10MB" {
		t.Errorf("statusMsg = %q", a.upload.statusMsg)
	}
	a.upload.agreed = true
	a = send(a, key(tea.KeyCtrlS))
	if len(b.registered) != 0 {
		t.Error("no registration expected")
	}
}

func TestUploadRequiresTerms(t *testing.T) {
	b := &fakeBackend{}
	a := uploadApp(t, b)
	a = send(a, key(tea.KeyCtrlS))
	if a.upload.statusMsg != "Please agree to the terms and conditions" {
		t.Errorf("statusMsg = %q", a.upload.statusMsg)
	}
	a.upload.agreed = true
	a = send(a, key(tea.KeyCtrlS))
	if a.upload.statusMsg != "Please upload your academic transcript" {
		t.Errorf("statusMsg = %q", a.upload.statusMsg)
	}
	if len(b.registered) != 0 {
		t.Error("no registration expected")
	}
}

func TestUploadFailureKeepsUserOnStep(t *testing.T) {
	b := &fakeBackend{uploadErr: &client.HTTPError{StatusCode: 500}}
	a := uploadApp(t, b)
	a = typeText(a, writeFile(t, "t.pdf", 100))
	a = send(a, key(tea.KeyEnter))
	a = send(a, key(tea.KeySpace))
	a = send(a, key(tea.KeyCtrlS))

	if a.route != routeUpload {
		t.Fatalf("expected to stay on upload, got %s", a.route)
	}
	if a.upload.statusMsg != wizard.MsgUploadFailed {
		t.Errorf("statusMsg = %q", a.upload.statusMsg)
	}
	if len(b.registered) != 1 {
		t.Error("account should have been registered once")
	}
}

func TestUploadOpensTermsLink(t *testing.T) {
	var opened []string
	b := &fakeBackend{}
	draft := &wizard.Draft{Email: "a@b.com"}
	a := NewApp(b, "dev", Links{Terms: "https://example.test/terms", Open: func(u string) error {
		opened = append(opened, u)
		return nil
	}})
	a = send(a, navigateMsg{to: routeUpload, draft: draft})
	a = send(a, key(tea.KeyCtrlT))
	if len(opened) != 1 || opened[0] != "https://example.test/terms" {
		t.Errorf("opened = %v", opened)
	}
}

func loggedIn(docs []domain.Document, err error) *fakeBackend {
	return &fakeBackend{
		loggedIn: true,
		user:     &domain.User{Email: "ana@b.com"},
		docs:     docs,
		docsErr:  err,
	}
}

func TestDashboardStates(t *testing.T) {
	tests := []struct {
		name string
		b    *fakeBackend
		want string
	}{
		{"empty", loggedIn(nil, nil), "No documents uploaded yet"},
		{"error", loggedIn(nil, errors.New("Server error: 500")), "Error loading documents: Server error: 500"},
		{"welcome falls back to email", loggedIn(nil, nil), "Welcome, ana@b.com!"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a := send(newTestApp(tc.b), navigateMsg{to: routeDashboard})
			if a.route != routeDashboard {
				t.Fatalf("expected dashboard, got %s", a.route)
			}
			if !strings.Contains(a.View(), tc.want) {
				t.Errorf("view missing %q", tc.want)
			}
		})
	}
}

func TestDashboardSessionExpiredRoutesToLogin(t *testing.T) {
	b := loggedIn(nil, fmt.Errorf("%w: %w", client.ErrSessionExpired, &client.HTTPError{StatusCode: 401}))
	a := send(newTestApp(b), navigateMsg{to: routeDashboard})

	if a.route != routeLogin {
		t.Fatalf("expected login after expiry, got %s", a.route)
	}
	if a.login.notice != msgSessionExpired {
		t.Errorf("notice = %q", a.login.notice)
	}
}

func TestDashboardTabs(t *testing.T) {
	a := send(newTestApp(loggedIn(nil, nil)), navigateMsg{to: routeDashboard})
	tests := []struct {
		key  string
		tab  dashTab
		want string
	}{
		{"2", tabQuizzes, "Status: Completed • Score: 90%"},
		{"3", tabJobs, "Atlanta, GA"},
		{"4", tabTuition, "$2,100 remaining"},
		{"1", tabDocuments, "My Documents"},
	}
	for _, tc := range tests {
		a = typeText(a, tc.key)
		if a.dashboard.tab != tc.tab {
			t.Errorf("key %s: tab = %d, want %d", tc.key, a.dashboard.tab, tc.tab)
		}
		if !strings.Contains(a.View(), tc.want) {
			t.Errorf("key %s: view missing %q", tc.key, tc.want)
		}
	}
}

func TestDashboardCopyFileName(t *testing.T) {
	var copied string
	old := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	t.Cleanup(func() { copyToClipboard = old })

	docs := []domain.Document{
		{FileName: "first.pdf", DocumentType: "transcript"},
		{FileName: "second.pdf", DocumentType: "diploma"},
	}
	a := send(newTestApp(loggedIn(docs, nil)), navigateMsg{to: routeDashboard})
	a = typeText(a, "j")
	a = typeText(a, "c")

	if copied != "second.pdf" {
		t.Errorf("copied %q, want second.pdf", copied)
	}
	if a.dashboard.statusMsg != "copied second.pdf" {
		t.Errorf("statusMsg = %q", a.dashboard.statusMsg)
	}
	if !strings.Contains(a.View(), "Diploma") {
		t.Error("expected capitalised document type")
	}
}

func TestDashboardLogout(t *testing.T) {
	b := loggedIn(nil, nil)
	a := send(newTestApp(b), navigateMsg{to: routeDashboard})
	a = typeText(a, "o")

	if b.logouts != 1 {
		t.Errorf("logouts = %d", b.logouts)
	}
	if a.route != routeLogin {
		t.Errorf("route = %s, want login", a.route)
	}
}

func TestQuitKeys(t *testing.T) {
	a := newTestApp(&fakeBackend{})
	if _, cmd := a.Update(key(tea.KeyCtrlC)); cmd == nil {
		t.Error("ctrl+c should quit")
	}
	// q is text on the login form.
	a = typeText(a, "q")
	if a.login.fields[loginEmail] != "q" {
		t.Errorf("email = %q, want q", a.login.fields[loginEmail])
	}

	a = send(newTestApp(loggedIn(nil, nil)), navigateMsg{to: routeDashboard})
	if _, cmd := a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}); cmd == nil {
		t.Error("q should quit on the dashboard")
	}
}
