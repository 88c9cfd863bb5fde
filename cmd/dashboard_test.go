package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/services"
)

func newTestDashboard(t *testing.T) dashboardModel {
	t.Helper()
	m := newDashboardModel(context.Background(), controller)
	t.Cleanup(m.unsubscribe)
	m.width, m.height = 100, 30
	return m
}

// nextTransition feeds the next published transition into the model
func nextTransition(t *testing.T, m dashboardModel) (dashboardModel, services.Transition) {
	t.Helper()
	select {
	case tr := <-m.transitions:
		updated, _ := m.Update(transitionMsg{transition: tr})
		return updated.(dashboardModel), tr
	case <-time.After(time.Second):
		t.Fatal("expected a transition")
	}
	return m, services.Transition{}
}

func drainTransitions(m dashboardModel) dashboardModel {
	for {
		select {
		case tr := <-m.transitions:
			updated, _ := m.Update(transitionMsg{transition: tr})
			m = updated.(dashboardModel)
		default:
			return m
		}
	}
}

func createTestDocuments(n int) []domain.Document {
	docs := make([]domain.Document, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		docs[i] = domain.Document{
			ID:         string(rune('1' + i)),
			Filename:   "document-" + string(rune('a'+i)) + ".pdf",
			Size:       int64(100 * (i + 1)),
			UploadedAt: base.AddDate(0, 0, i),
		}
	}
	return docs
}

func TestDashboard_AnonymousShowsAuthForm(t *testing.T) {
	setupTestApp(t)
	m := newTestDashboard(t)

	if m.authenticated() {
		t.Fatal("expected the auth screen")
	}
	view := m.View()
	if !strings.Contains(view, "Log in") || !strings.Contains(view, "Register") {
		t.Error("auth screen should offer login and register")
	}
	if m.authMode != domain.ModeLogin {
		t.Errorf("expected login mode, got %s", m.authMode)
	}
}

func TestDashboard_StoredSessionShowsDocuments(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)

	if !m.authenticated() {
		t.Fatal("expected the documents screen")
	}
	if m.inputs[fieldEmail].Value() != "user@test.com" {
		t.Error("email field should be prefilled from the session")
	}

	msg := m.loadDocuments()()
	updated, _ := m.Update(msg)
	m = updated.(dashboardModel)

	if m.loadErr != "" {
		t.Errorf("unexpected load error: %s", m.loadErr)
	}
	if !strings.Contains(m.View(), "No documents yet") {
		t.Error("empty account should show the empty state")
	}
}

func TestDashboard_InlineValidation(t *testing.T) {
	app := setupTestApp(t)
	m := newTestDashboard(t)

	updated, cmd := m.submitAuth()
	m = updated.(dashboardModel)

	if cmd != nil {
		t.Error("invalid input must not start a request")
	}
	if m.busy {
		t.Error("invalid input must not mark the form busy")
	}
	if m.fieldErrors["email"] != "Email is required" {
		t.Errorf("expected inline email error, got %q", m.fieldErrors["email"])
	}
	if m.banner != "" {
		t.Errorf("field errors should not use the banner, got %q", m.banner)
	}
	if len(app.backend.GetCalls()) != 0 {
		t.Errorf("expected no backend calls, got %v", app.backend.GetCalls())
	}

	m.inputs[fieldEmail].SetValue("user@test.com")
	updated, _ = m.submitAuth()
	m = updated.(dashboardModel)
	if m.fieldErrors["password"] != "Password is required" {
		t.Errorf("expected inline password error, got %q", m.fieldErrors["password"])
	}
	if m.focus != fieldPassword {
		t.Error("focus should move to the offending field")
	}
}

func TestDashboard_LoginFlow(t *testing.T) {
	app := setupTestApp(t)
	app.backend.AddUser("user@test.com", "password123")
	m := newTestDashboard(t)

	m.inputs[fieldEmail].SetValue("user@test.com")
	m.inputs[fieldPassword].SetValue("password123")

	updated, cmd := m.submitAuth()
	m = updated.(dashboardModel)
	if cmd == nil || !m.busy {
		t.Fatal("submit should start a request and disable the form")
	}

	// Keys are ignored while the request is in flight
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(dashboardModel)
	if m.authMode != domain.ModeLogin {
		t.Error("mode toggle should be disabled while busy")
	}

	msg := authCommand(m.ctx, m.ctrl, domain.ModeLogin, "user@test.com", "password123")()
	updated, _ = m.Update(msg)
	m = updated.(dashboardModel)

	if m.busy {
		t.Error("form should be enabled again")
	}
	if !m.authenticated() {
		t.Fatal("expected authenticated after login")
	}
	if m.inputs[fieldPassword].Value() != "" {
		t.Error("password should be cleared after login")
	}
	if _, ok := app.store.Load(); !ok {
		t.Error("session should be persisted")
	}

	epoch := m.epoch
	m = drainTransitions(m)
	if m.epoch == epoch {
		t.Error("login should start a new epoch")
	}
}

func TestDashboard_LoginRejectedShowsBanner(t *testing.T) {
	app := setupTestApp(t)
	app.backend.AddUser("user@test.com", "password123")
	m := newTestDashboard(t)

	msg := authCommand(m.ctx, m.ctrl, domain.ModeLogin, "user@test.com", "wrong")()
	updated, _ := m.Update(msg)
	m = updated.(dashboardModel)

	if m.authenticated() {
		t.Fatal("bad credentials must not authenticate")
	}
	if m.banner != "Incorrect email or password" {
		t.Errorf("expected backend message in banner, got %q", m.banner)
	}
	if len(m.fieldErrors) != 0 {
		t.Errorf("backend rejections are not field errors: %v", m.fieldErrors)
	}
}

func TestDashboard_RegisterReturnsToLogin(t *testing.T) {
	setupTestApp(t)
	m := newTestDashboard(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlR})
	m = updated.(dashboardModel)
	if m.authMode != domain.ModeRegister {
		t.Fatal("ctrl+r should switch to register")
	}

	msg := authCommand(m.ctx, m.ctrl, domain.ModeRegister, "new@test.com", "password123")()
	updated, _ = m.Update(msg)
	m = updated.(dashboardModel)

	if m.authenticated() {
		t.Error("registration must not create a session")
	}
	if m.authMode != domain.ModeLogin {
		t.Error("registration should switch back to login")
	}
	if m.banner != "Registration successful. Please log in." {
		t.Errorf("unexpected banner %q", m.banner)
	}
}

func TestDashboard_LogoutKey(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("l")})
	m = updated.(dashboardModel)

	if m.authenticated() {
		t.Fatal("expected anonymous after logout")
	}
	if _, ok := app.store.Load(); ok {
		t.Error("session should be cleared")
	}

	m, tr := nextTransition(t, m)
	if tr.Reason != services.ReasonLogout {
		t.Errorf("expected logout transition, got %v", tr.Reason)
	}
	if !strings.Contains(m.View(), "Log in") {
		t.Error("auth screen should be shown after logout")
	}
}

func TestDashboard_ForcedLogoutDropsStaleResults(t *testing.T) {
	app := setupTestApp(t)
	token := app.login(t, "user@test.com")
	m := newTestDashboard(t)
	m.setDocuments(createTestDocuments(2))

	app.backend.RevokeToken(token)
	staleMsg := m.loadDocuments()()

	m, tr := nextTransition(t, m)
	if tr.Reason != services.ReasonForcedLogout {
		t.Fatalf("expected forced logout, got %v", tr.Reason)
	}
	if m.authenticated() {
		t.Error("rejected token must log out")
	}
	if m.banner != "Your session has expired. Please log in again." {
		t.Errorf("unexpected banner %q", m.banner)
	}
	if len(m.docs) != 0 {
		t.Error("documents of the old session should be gone")
	}

	updated, _ := m.Update(staleMsg)
	m = updated.(dashboardModel)
	if m.loadErr != "" || len(m.docs) != 0 {
		t.Error("results from the old session must be ignored")
	}
}

func TestDashboard_StaleDocumentsIgnored(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)
	m.epoch = 2

	updated, _ := m.Update(docsLoadedMsg{epoch: 1, docs: createTestDocuments(3)})
	m = updated.(dashboardModel)
	if len(m.docs) != 0 {
		t.Error("stale epoch should be dropped")
	}

	updated, _ = m.Update(docsLoadedMsg{epoch: 2, docs: createTestDocuments(3)})
	m = updated.(dashboardModel)
	if len(m.docs) != 3 {
		t.Errorf("expected 3 documents, got %d", len(m.docs))
	}
	if m.docs[0].ID != "3" {
		t.Error("documents should be newest first")
	}
}

func TestDashboard_UploadRefreshesList(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)

	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4\n%test document\n"), 0644); err != nil {
		t.Fatal(err)
	}

	updated, cmd := m.startUpload(path)
	m = updated.(dashboardModel)
	if cmd == nil || !m.busy {
		t.Fatal("upload should disable controls")
	}

	msg := uploadCommand(m.ctx, m.ctrl, m.epoch, path)()
	updated, _ = m.Update(msg)
	m = updated.(dashboardModel)

	if m.busy {
		t.Error("controls should be enabled after the upload")
	}
	if len(m.docs) != 1 || m.docs[0].Filename != "report.pdf" {
		t.Fatalf("expected refreshed list with report.pdf, got %+v", m.docs)
	}
	if !strings.Contains(m.message, "report.pdf") {
		t.Errorf("status should name the file, got %q", m.message)
	}

	calls := app.backend.GetCalls()
	if len(calls) < 2 || calls[len(calls)-2] != "upload" || calls[len(calls)-1] != "list" {
		t.Errorf("expected upload then list, got %v", calls)
	}
}

func TestDashboard_UploadRejectedType(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)

	path := filepath.Join(t.TempDir(), "image.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	if err := os.WriteFile(path, png, 0644); err != nil {
		t.Fatal(err)
	}

	msg := uploadCommand(m.ctx, m.ctrl, m.epoch, path)()
	updated, _ := m.Update(msg)
	m = updated.(dashboardModel)

	if !strings.Contains(m.message, "not allowed") {
		t.Errorf("expected a type error, got %q", m.message)
	}
	for _, c := range app.backend.GetCalls() {
		if c == "upload" {
			t.Error("rejected files must not reach the backend")
		}
	}
}

func TestDashboard_ExternalLogoutViaSessionFile(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)

	// Another process removed the session
	app.store.Clear()
	updated, _ := m.Update(sessionFileMsg{})
	m = updated.(dashboardModel)

	if m.authenticated() {
		t.Fatal("external logout should be picked up")
	}
	m, tr := nextTransition(t, m)
	if tr.Reason != services.ReasonExternal {
		t.Errorf("expected external transition, got %v", tr.Reason)
	}
	if m.banner == "" {
		t.Error("expected a banner explaining the logout")
	}
}

func TestDashboard_Navigation(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)
	m.setDocuments(createTestDocuments(3))

	down := tea.KeyMsg{Type: tea.KeyDown}
	up := tea.KeyMsg{Type: tea.KeyUp}

	updated, _ := m.updateList(up)
	m = updated.(dashboardModel)
	if m.cursor != 0 {
		t.Errorf("cursor should stay at 0, got %d", m.cursor)
	}

	for i := 0; i < 5; i++ {
		updated, _ = m.updateList(down)
		m = updated.(dashboardModel)
	}
	if m.cursor != 2 {
		t.Errorf("cursor should stop at the last item, got %d", m.cursor)
	}

	updated, _ = m.updateList(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	m = updated.(dashboardModel)
	if m.cursor != 0 {
		t.Errorf("g should jump to top, got %d", m.cursor)
	}
}

func TestDashboard_Search(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)
	m.setDocuments(createTestDocuments(3))

	updated, _ := m.updateList(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/")})
	m = updated.(dashboardModel)
	if m.mode != modeSearch {
		t.Fatal("/ should enter search mode")
	}

	updated, _ = m.updateSearch(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("document-b")})
	m = updated.(dashboardModel)
	if len(m.filtered) == 0 || m.filtered[0].Filename != "document-b.pdf" {
		t.Errorf("expected document-b.pdf first, got %+v", m.filtered)
	}

	updated, _ = m.updateSearch(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(dashboardModel)
	if m.mode != modeList || len(m.filtered) != 3 {
		t.Error("esc should clear the search")
	}
}

func TestDashboard_HelpMode(t *testing.T) {
	app := setupTestApp(t)
	app.login(t, "user@test.com")
	m := newTestDashboard(t)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("?")})
	m = updated.(dashboardModel)
	if m.mode != modeHelp {
		t.Fatal("? should open help")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("help view should list shortcuts")
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	m = updated.(dashboardModel)
	if m.mode != modeList {
		t.Error("any key should close help")
	}
}
