package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/services"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

// dashboardCmd represents the dashboard command
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash"},
	Short:   "Launch the interactive dashboard (alias: dash)",
	Long: `Launch a full-screen dashboard for signing in and managing documents.

Signed out, the dashboard shows the login and registration form.
Signed in, it shows your documents, fetched fresh from the backend.
Logging in or out from another terminal is picked up automatically.

Keyboard Shortcuts:
  Sign in:
    Tab         Next field
    Enter       Submit
    Ctrl+R      Switch between login and register
    Esc         Quit

  Documents:
    ↑/k ↓/j     Move
    g / G       Top / bottom
    /           Search
    u           Upload a file
    r           Refresh
    l           Log out
    ?           Help
    q           Quit`,
	RunE: runDashboard,
}

func runDashboard(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(getContext())
	defer cancel()

	m := newDashboardModel(ctx, controller)
	defer m.unsubscribe()

	events, stop, err := watchSessionFile(sessionPath)
	if err != nil {
		appLogger.Warn("session file watch disabled", zap.Error(err))
	} else {
		defer stop()
		m.sessionEvents = events
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running dashboard: %w", err)
	}
	return nil
}

// Dashboard modes within the documents screen
type viewMode int

const (
	modeList viewMode = iota
	modeSearch
	modePicker
	modeHelp
)

const (
	fieldEmail = iota
	fieldPassword
)

// Dashboard model
type dashboardModel struct {
	ctx           context.Context
	ctrl          *services.Controller
	transitions   chan services.Transition
	unsubscribe   func()
	sessionEvents <-chan struct{}

	// Sign-in form
	authMode    domain.AuthMode
	inputs      []textinput.Model
	focus       int
	fieldErrors map[string]string
	banner      string
	bannerStyle lipgloss.Style

	// Documents
	docs     []domain.Document
	filtered []domain.Document
	loading  bool
	loadErr  string
	cursor   int
	offset   int
	mode     viewMode
	search   textinput.Model
	picker   filepicker.Model

	// busy is set while an authentication or upload is in flight and
	// disables every action but quit
	busy    bool
	spinner spinner.Model

	// epoch changes with the session; async results from an older epoch
	// are dropped
	epoch int

	help          help.Model
	authKeys      authKeyMap
	docKeys       docKeyMap
	width         int
	height        int
	message       string
	messageStyle  lipgloss.Style
	messageExpiry time.Time
}

// Key bindings
type authKeyMap struct {
	Next   key.Binding
	Prev   key.Binding
	Submit key.Binding
	Toggle key.Binding
	Quit   key.Binding
}

func (k authKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Submit, k.Toggle, k.Quit}
}

func (k authKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Next, k.Prev, k.Submit, k.Toggle, k.Quit}}
}

type docKeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Top     key.Binding
	Bottom  key.Binding
	Search  key.Binding
	Upload  key.Binding
	Refresh key.Binding
	Logout  key.Binding
	Help    key.Binding
	Quit    key.Binding
	Escape  key.Binding
}

func (k docKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Search, k.Upload, k.Refresh, k.Logout, k.Help, k.Quit}
}

func (k docKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Top, k.Bottom},
		{k.Search, k.Upload, k.Refresh, k.Logout},
		{k.Help, k.Escape, k.Quit},
	}
}

var authKeys = authKeyMap{
	Next: key.NewBinding(
		key.WithKeys("tab", "down"),
		key.WithHelp("tab", "next field"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab", "up"),
		key.WithHelp("shift+tab", "previous field"),
	),
	Submit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "submit"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "login/register"),
	),
	Quit: key.NewBinding(
		key.WithKeys("esc", "ctrl+c"),
		key.WithHelp("esc", "quit"),
	),
}

var docKeys = docKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "move up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "move down"),
	),
	Top: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "top"),
	),
	Bottom: key.NewBinding(
		key.WithKeys("G"),
		key.WithHelp("G", "bottom"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	Upload: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "upload"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Logout: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "log out"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Escape: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "cancel"),
	),
}

func newDashboardModel(ctx context.Context, ctrl *services.Controller) dashboardModel {
	email := textinput.New()
	email.Placeholder = "you@example.com"
	email.CharLimit = 254
	email.Width = 40
	email.Prompt = ""

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.Width = 40
	password.Prompt = ""
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	if s := ctrl.Session(); s != nil {
		email.SetValue(s.Email)
	}
	email.Focus()

	search := textinput.New()
	search.Placeholder = "Search documents..."
	search.CharLimit = 100
	search.Width = 50

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.StylePrimary

	m := dashboardModel{
		ctx:         ctx,
		ctrl:        ctrl,
		transitions: make(chan services.Transition, 16),
		authMode:    domain.ModeLogin,
		inputs:      []textinput.Model{email, password},
		focus:       fieldEmail,
		fieldErrors: make(map[string]string),
		search:      search,
		picker:      newUploadPicker(),
		spinner:     sp,
		help:        help.New(),
		authKeys:    authKeys,
		docKeys:     docKeys,
	}

	m.loading = m.authenticated()

	ch := m.transitions
	m.unsubscribe = ctrl.Subscribe(func(t services.Transition) {
		select {
		case ch <- t:
		default:
			// The screen is derived from the controller, so a dropped
			// transition only loses its banner text
		}
	})
	return m
}

func newUploadPicker() filepicker.Model {
	fp := filepicker.New()
	fp.AllowedTypes = pickerExtensions()
	fp.ShowPermissions = false
	fp.ShowSize = true
	fp.AutoHeight = true
	if wd, err := os.Getwd(); err == nil {
		fp.CurrentDirectory = wd
	}
	return fp
}

// pickerExtensions lists the allowed extensions in a stable order
func pickerExtensions() []string {
	if appConfig == nil {
		return nil
	}
	exts := make([]string, 0, len(extensionTypes))
	for ext := range candidateExtensions() {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// authenticated derives the screen from the controller, never from local state
func (m dashboardModel) authenticated() bool {
	return m.ctrl.State() == services.StateAuthenticated
}

func (m dashboardModel) Init() tea.Cmd {
	cmds := []tea.Cmd{
		m.waitForTransition(),
		m.waitForSessionFile(),
		textinput.Blink,
		m.spinner.Tick,
	}
	if m.authenticated() {
		cmds = append(cmds, m.loadDocuments())
	}
	return tea.Batch(cmds...)
}

// Messages

type transitionMsg struct {
	transition services.Transition
}

type sessionFileMsg struct{}

type authDoneMsg struct {
	mode   domain.AuthMode
	result *domain.AuthResult
	err    error
}

type docsLoadedMsg struct {
	epoch int
	docs  []domain.Document
	err   error
}

type uploadDoneMsg struct {
	epoch  int
	name   string
	result *domain.UploadResult
	docs   []domain.Document
	err    error
}

type statusMsg struct {
	message string
	style   lipgloss.Style
}

type clearMessageMsg struct{}

func (m dashboardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.adjustViewport()
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.busy {
			return m, m.setStatus("Please wait for the current request to finish", ui.StyleWarning)
		}
		if !m.authenticated() {
			return m.updateAuth(msg)
		}
		switch m.mode {
		case modeSearch:
			return m.updateSearch(msg)
		case modePicker:
			return m.updatePicker(msg)
		case modeHelp:
			m.mode = modeList
			return m, nil
		default:
			return m.updateList(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case transitionMsg:
		next, cmd := m.applyTransition(msg.transition)
		return next, tea.Batch(cmd, next.waitForTransition())

	case sessionFileMsg:
		// Transitions arrive through the subscription
		m.ctrl.Sync()
		return m, m.waitForSessionFile()

	case authDoneMsg:
		return m.applyAuthResult(msg)

	case docsLoadedMsg:
		if msg.epoch != m.epoch {
			return m, nil
		}
		m.loading = false
		if msg.err != nil {
			m.loadErr = domain.Message(msg.err)
			return m, nil
		}
		m.loadErr = ""
		m.setDocuments(msg.docs)
		return m, nil

	case uploadDoneMsg:
		m.busy = false
		if msg.epoch != m.epoch {
			return m, nil
		}
		return m.applyUploadResult(msg)

	case statusMsg:
		return m, m.setStatus(msg.message, msg.style)

	case clearMessageMsg:
		if !time.Now().Before(m.messageExpiry) {
			m.message = ""
		}
		return m, nil
	}

	// Directory reads and other picker internals
	if m.mode == modePicker {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m dashboardModel) updateAuth(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.authKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.authKeys.Toggle):
		if m.authMode == domain.ModeLogin {
			m.authMode = domain.ModeRegister
		} else {
			m.authMode = domain.ModeLogin
		}
		m.fieldErrors = make(map[string]string)
		m.banner = ""
		return m, nil

	case key.Matches(msg, m.authKeys.Next):
		return m, m.focusField((m.focus + 1) % len(m.inputs))

	case key.Matches(msg, m.authKeys.Prev):
		return m, m.focusField((m.focus + len(m.inputs) - 1) % len(m.inputs))

	case key.Matches(msg, m.authKeys.Submit):
		if m.focus == fieldEmail && m.inputs[fieldPassword].Value() == "" {
			return m, m.focusField(fieldPassword)
		}
		return m.submitAuth()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	// Editing a field clears its complaint
	delete(m.fieldErrors, fieldName(m.focus))
	return m, cmd
}

func (m *dashboardModel) focusField(i int) tea.Cmd {
	m.focus = i
	var cmd tea.Cmd
	for j := range m.inputs {
		if j == i {
			cmd = m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
	return cmd
}

func fieldName(i int) string {
	if i == fieldPassword {
		return "password"
	}
	return "email"
}

// submitAuth validates locally and starts the request
func (m dashboardModel) submitAuth() (tea.Model, tea.Cmd) {
	email := m.inputs[fieldEmail].Value()
	password := m.inputs[fieldPassword].Value()

	m.fieldErrors = make(map[string]string)
	m.banner = ""

	creds := domain.Credentials{Email: email, Password: password}
	if err := creds.Validate(); err != nil {
		m.showAuthError(err)
		return m, nil
	}

	m.busy = true
	return m, tea.Batch(m.spinner.Tick, authCommand(m.ctx, m.ctrl, m.authMode, email, password))
}

func authCommand(ctx context.Context, ctrl *services.Controller, mode domain.AuthMode, email, password string) tea.Cmd {
	return func() tea.Msg {
		result, err := ctrl.Submit(ctx, mode, email, password)
		return authDoneMsg{mode: mode, result: result, err: err}
	}
}

func (m *dashboardModel) showAuthError(err error) {
	if field := domain.Field(err); field != "" && errors.Is(err, domain.ErrValidation) {
		m.fieldErrors[field] = domain.Message(err)
		if field == "password" {
			m.focusField(fieldPassword)
		} else {
			m.focusField(fieldEmail)
		}
		return
	}
	m.banner = domain.Message(err)
	m.bannerStyle = ui.StyleBanner
}

func (m dashboardModel) applyAuthResult(msg authDoneMsg) (tea.Model, tea.Cmd) {
	m.busy = false
	if msg.err != nil {
		m.showAuthError(msg.err)
		return m, nil
	}

	if msg.result.Session == nil {
		// Registered: stay on the form, ready to log in
		m.authMode = domain.ModeLogin
		m.inputs[fieldPassword].Reset()
		m.banner = msg.result.Message
		m.bannerStyle = ui.StyleSuccess
		return m, m.focusField(fieldPassword)
	}

	m.inputs[fieldPassword].Reset()
	m.banner = ""
	return m, m.setStatus(msg.result.Message, ui.StyleSuccess)
}

// applyTransition reacts to a controller state change
func (m dashboardModel) applyTransition(t services.Transition) (dashboardModel, tea.Cmd) {
	appLogger.Debug("dashboard transition",
		zap.Stringer("to", t.To), zap.Stringer("reason", t.Reason))

	switch t.Reason {
	case services.ReasonLogin, services.ReasonExternal:
		m.epoch++
		m.resetDocuments()
		if t.To == services.StateAuthenticated {
			if s := m.ctrl.Session(); s != nil {
				m.inputs[fieldEmail].SetValue(s.Email)
			}
			return m, m.refresh()
		}
		m.banner = t.Message
		m.bannerStyle = ui.StyleWarning
		return m, m.focusField(fieldEmail)

	case services.ReasonLogout, services.ReasonForcedLogout:
		m.epoch++
		m.busy = false
		m.resetDocuments()
		m.inputs[fieldPassword].Reset()
		m.banner = t.Message
		m.bannerStyle = ui.StyleBanner
		if t.Reason == services.ReasonLogout {
			m.bannerStyle = ui.StyleSuccess
		}
		return m, m.focusField(fieldPassword)
	}
	return m, nil
}

func (m *dashboardModel) resetDocuments() {
	m.loading = false
	m.docs = nil
	m.filtered = nil
	m.cursor = 0
	m.offset = 0
	m.mode = modeList
	m.loadErr = ""
	m.search.Reset()
	m.search.Blur()
}

func (m dashboardModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.docKeys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.docKeys.Up):
		if m.cursor > 0 {
			m.cursor--
			m.adjustViewport()
		}

	case key.Matches(msg, m.docKeys.Down):
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.adjustViewport()
		}

	case key.Matches(msg, m.docKeys.Top):
		m.cursor = 0
		m.adjustViewport()

	case key.Matches(msg, m.docKeys.Bottom):
		if len(m.filtered) > 0 {
			m.cursor = len(m.filtered) - 1
			m.adjustViewport()
		}

	case key.Matches(msg, m.docKeys.Search):
		m.mode = modeSearch
		return m, m.search.Focus()

	case key.Matches(msg, m.docKeys.Escape):
		if m.search.Value() != "" {
			m.search.Reset()
			m.applySearch()
		}

	case key.Matches(msg, m.docKeys.Refresh):
		return m, m.refresh()

	case key.Matches(msg, m.docKeys.Upload):
		m.mode = modePicker
		m.picker = newUploadPicker()
		return m, m.picker.Init()

	case key.Matches(msg, m.docKeys.Logout):
		if err := m.ctrl.Logout(); err != nil {
			return m, m.setStatus(err.Error(), ui.StyleError)
		}

	case key.Matches(msg, m.docKeys.Help):
		m.mode = modeHelp
	}
	return m, nil
}

func (m dashboardModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeList
		m.search.Reset()
		m.search.Blur()
		m.applySearch()
		return m, nil
	case tea.KeyEnter:
		m.mode = modeList
		m.search.Blur()
		return m, nil
	case tea.KeyUp, tea.KeyDown:
		m.mode = modeList
		m.search.Blur()
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.applySearch()
	return m, cmd
}

func (m dashboardModel) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.docKeys.Escape) || msg.String() == "q" {
		m.mode = modeList
		return m, nil
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		m.mode = modeList
		return m.startUpload(path)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		return m, tea.Batch(cmd, m.setStatus(filepath.Base(path)+" is not a supported type", ui.StyleError))
	}
	return m, cmd
}

// startUpload sends path and refetches the list when it lands
func (m dashboardModel) startUpload(path string) (tea.Model, tea.Cmd) {
	m.busy = true
	return m, tea.Batch(m.spinner.Tick, uploadCommand(m.ctx, m.ctrl, m.epoch, path))
}

func uploadCommand(ctx context.Context, ctrl *services.Controller, epoch int, path string) tea.Cmd {
	name := filepath.Base(path)
	return func() tea.Msg {
		file, closeFn, err := services.OpenUploadFile(path)
		if err != nil {
			return uploadDoneMsg{epoch: epoch, name: name, err: err}
		}
		defer closeFn()

		result, docs, err := ctrl.UploadAndRefresh(ctx, file)
		return uploadDoneMsg{epoch: epoch, name: name, result: result, docs: docs, err: err}
	}
}

func (m dashboardModel) applyUploadResult(msg uploadDoneMsg) (tea.Model, tea.Cmd) {
	if msg.result == nil {
		return m, m.setStatus(msg.name+": "+domain.Message(msg.err), ui.StyleError)
	}

	status := m.setStatus(msg.result.Summary(msg.name), ui.StyleSuccess)
	if msg.err != nil {
		m.loadErr = "Uploaded, but the list could not be refreshed: " + domain.Message(msg.err)
		return m, status
	}
	m.loadErr = ""
	m.setDocuments(msg.docs)
	return m, status
}

func (m *dashboardModel) refresh() tea.Cmd {
	m.loading = true
	return m.loadDocuments()
}

func (m dashboardModel) loadDocuments() tea.Cmd {
	epoch, ctx, ctrl := m.epoch, m.ctx, m.ctrl
	return func() tea.Msg {
		docs, err := ctrl.Documents(ctx)
		return docsLoadedMsg{epoch: epoch, docs: docs, err: err}
	}
}

// setDocuments replaces the list with a fresh copy from the backend, newest first
func (m *dashboardModel) setDocuments(docs []domain.Document) {
	m.docs = services.SortDocuments(docs, "date", true)
	m.applySearch()
}

func (m *dashboardModel) applySearch() {
	query := strings.TrimSpace(m.search.Value())
	if query == "" {
		m.filtered = m.docs
	} else {
		m.filtered = services.SearchDocuments(m.docs, query)
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = len(m.filtered) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.adjustViewport()
}

func (m dashboardModel) listHeight() int {
	h := m.height - 10
	if h < 3 {
		h = 3
	}
	return h
}

func (m *dashboardModel) adjustViewport() {
	h := m.listHeight()
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

func (m *dashboardModel) setStatus(message string, style lipgloss.Style) tea.Cmd {
	const ttl = 3 * time.Second
	m.message = message
	m.messageStyle = style
	m.messageExpiry = time.Now().Add(ttl)
	return tea.Tick(ttl, func(time.Time) tea.Msg { return clearMessageMsg{} })
}

func (m dashboardModel) waitForTransition() tea.Cmd {
	ch := m.transitions
	return func() tea.Msg {
		return transitionMsg{transition: <-ch}
	}
}

func (m dashboardModel) waitForSessionFile() tea.Cmd {
	if m.sessionEvents == nil {
		return nil
	}
	ch := m.sessionEvents
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return sessionFileMsg{}
	}
}

// watchSessionFile reports changes to the session file made by any process.
// The directory is watched because the file is replaced on every save.
func watchSessionFile(path string) (<-chan struct{}, func(), error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, err
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, nil, err
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	target := filepath.Clean(path)

	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(100*time.Millisecond, func() {
					select {
					case out <- struct{}{}:
					default:
					}
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				appLogger.Warn("session watcher error", zap.Error(err))
			case <-done:
				if debounce != nil {
					debounce.Stop()
				}
				return
			}
		}
	}()

	stop := func() {
		close(done)
		watcher.Close()
	}
	return out, stop, nil
}
