package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/mcao2/truthlens/internal/api"
	"github.com/mcao2/truthlens/internal/config"
	"github.com/mcao2/truthlens/internal/flow"
	"github.com/mcao2/truthlens/internal/history"
	"github.com/mcao2/truthlens/internal/session"
	"github.com/mcao2/truthlens/internal/verdict"
)

type State int

const (
	StateLogin State = iota
	StateVerify
	StateHistory
	StateConfirmClear
	StateMessage
)

func (s State) String() string {
	switch s {
	case StateLogin:
		return "Login"
	case StateVerify:
		return "Verify"
	case StateHistory:
		return "History"
	case StateConfirmClear:
		return "ConfirmClear"
	case StateMessage:
		return "Message"
	default:
		return "Unknown"
	}
}

const sessionExpiredMessage = "Session expired. Please log in again."

// Backend is the API surface the TUI needs
type Backend interface {
	flow.Service
	history.Backend
	Login(ctx context.Context, creds api.Credentials) (*api.TokenResponse, error)
}

// Options wires the model to its collaborators
type Options struct {
	Config  *config.Config
	Backend Backend
	Cache   *session.Cache
	Tokens  *session.Tokens
	Logger  *zap.Logger
	// Offline skips the login screen and browses the local history mirror
	Offline bool
}

type Model struct {
	state       State
	returnState State
	width       int
	height      int
	styles      Styles
	keys        KeyMap
	themeIndex  int
	showHelp    bool

	cfg     *config.Config
	backend Backend
	cache   *session.Cache
	tokens  *session.Tokens
	logger  *zap.Logger
	vocab   verdict.Vocabulary
	ctrl    *flow.Controller
	offline bool

	loginForm   *LoginForm
	input       textarea.Model
	claimInput  textarea.Model
	spinner     spinner.Model
	viewport    viewport.Model
	resultView  *ResultView
	historyView HistoryView
	filter      textinput.Model
	filtering   bool
	source      history.Source
	remote      bool
	loading     bool

	statusMessage string
	messageType   string
}

func newTextarea(placeholder string, keys KeyMap) textarea.Model {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetWidth(72)
	ta.SetHeight(5)
	ta.KeyMap.InsertNewline = keys.Newline
	return ta
}

func NewModel(opts Options) *Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	vocab, err := verdict.VocabularyByName(cfg.StanceVocabulary)
	if err != nil {
		vocab = verdict.VocabularyClient
	}

	themeNames := GetThemeNames()
	themeIndex := 0
	for i, name := range themeNames {
		if name == cfg.Theme {
			themeIndex = i
			break
		}
	}
	theme := Themes[themeNames[themeIndex]]

	keys := DefaultKeyMap()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))

	filter := textinput.New()
	filter.Prompt = "/ "
	filter.Placeholder = "filter by claim or verdict"

	m := &Model{
		styles:      NewStyles(theme),
		keys:        keys,
		themeIndex:  themeIndex,
		cfg:         cfg,
		backend:     opts.Backend,
		cache:       opts.Cache,
		tokens:      opts.Tokens,
		logger:      logger,
		vocab:       vocab,
		offline:     opts.Offline,
		input:       newTextarea("Paste a claim, a paragraph or an http(s) URL…", keys),
		claimInput:  newTextarea("The claim to verify", keys),
		spinner:     s,
		viewport:    viewport.New(80, 20),
		resultView:  NewResultView(theme, vocab),
		historyView: NewHistoryView(80, 24),
		filter:      filter,
	}
	m.historyView.UpdateStyles(theme)
	m.claimInput.SetHeight(3)

	m.ctrl = flow.NewController(opts.Backend, opts.Cache,
		flow.WithLogger(logger.Named("flow")),
		flow.WithTimeout(cfg.Timeout()),
	)

	if m.authenticated() || m.offline {
		m.enterVerify()
	} else {
		m.loginForm = NewLoginForm(m.knownEmail())
		m.state = StateLogin
	}
	return m
}

func (m *Model) authenticated() bool {
	return m.tokens != nil && m.tokens.Authenticated()
}

func (m *Model) knownEmail() string {
	if m.tokens == nil {
		return ""
	}
	claims, err := m.tokens.Claims()
	if err != nil || claims == nil {
		return ""
	}
	if claims.Email != "" {
		return claims.Email
	}
	if strings.Contains(claims.Subject, "@") {
		return claims.Subject
	}
	return ""
}

func (m *Model) theme() Theme {
	return Themes[GetThemeNames()[m.themeIndex]]
}

func (m *Model) cycleTheme() {
	themeNames := GetThemeNames()
	m.themeIndex = (m.themeIndex + 1) % len(themeNames)
	theme := m.theme()
	m.styles = NewStyles(theme)
	m.resultView.SetTheme(theme)
	m.historyView.UpdateStyles(theme)
	m.spinner.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(theme.Primary))
	m.refreshResult()

	m.cfg.Theme = theme.Name
	if err := m.cfg.Save(); err != nil {
		m.logger.Warn("failed to save theme", zap.Error(err))
	}
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.spinner.Tick, textarea.Blink}
	if m.state == StateLogin && m.loginForm != nil {
		cmds = append(cmds, m.loginForm.GetForm().Init())
	}
	return tea.Batch(cmds...)
}

// Messages produced by async commands

type extractedMsg struct {
	result flow.ExtractionResult
}

type analyzedMsg struct {
	result flow.AnalysisResult
}

type loggedInMsg struct {
	email string
}

type historyLoadedMsg struct {
	entries []history.Entry
	remote  bool
}

type historyOpenedMsg struct {
	entry *history.Entry
}

type historyDeletedMsg struct {
	id string
}

type historyClearedMsg struct{}

type clipboardMsg struct {
	err error
}

type ErrorMsg struct {
	Error error
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case extractedMsg:
		return m.handleExtracted(msg)

	case analyzedMsg:
		return m.handleAnalyzed(msg)

	case loggedInMsg:
		m.loading = false
		m.offline = false
		m.loginForm = nil
		m.statusMessage = ""
		if msg.email != "" {
			m.statusMessage = "Signed in as " + msg.email
		}
		return m, m.enterVerify()

	case historyLoadedMsg:
		m.loading = false
		m.remote = msg.remote
		m.historyView.SetEntries(msg.entries)
		return m, nil

	case historyOpenedMsg:
		m.loading = false
		m.ctrl.Restore()
		m.refreshResult()
		return m, m.enterVerify()

	case historyDeletedMsg:
		m.loading = false
		m.historyView.Remove(msg.id)
		m.statusMessage = "Entry deleted"
		return m, nil

	case historyClearedMsg:
		m.loading = false
		m.historyView.SetEntries(nil)
		m.statusMessage = "History cleared"
		return m, nil

	case loginFailedMsg:
		return m.handleLoginFailed(msg)

	case clipboardMsg:
		if msg.err != nil {
			m.statusMessage = fmt.Sprintf("Copy failed: %v", msg.err)
		} else {
			m.statusMessage = "Summary copied to clipboard"
		}
		return m, nil

	case ErrorMsg:
		return m.handleError(msg.Error)
	}

	return m.updateComponents(msg)
}

// updateComponents forwards non-key messages (blinks, form internals) to
// whatever component is active
func (m *Model) updateComponents(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.state {
	case StateLogin:
		return m.updateLoginForm(msg)
	case StateVerify:
		switch m.ctrl.State() {
		case flow.StateIdle:
			m.input, cmd = m.input.Update(msg)
		case flow.StateAwaitingConfirmation:
			m.claimInput, cmd = m.claimInput.Update(msg)
		}
	case StateHistory:
		if m.filtering {
			m.filter, cmd = m.filter.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.historyView.SetWidthHeight(width, height)

	inputWidth := width - 8
	if inputWidth > 100 {
		inputWidth = 100
	}
	if inputWidth < 20 {
		inputWidth = 20
	}
	m.input.SetWidth(inputWidth)
	m.claimInput.SetWidth(inputWidth)

	m.viewport.Width = width
	m.viewport.Height = height - 4
	if m.viewport.Height < 5 {
		m.viewport.Height = 5
	}
	m.refreshResult()
}

// refreshResult re-renders the current result into the viewport
func (m *Model) refreshResult() {
	snap := m.ctrl.Snapshot()
	if snap.Result == nil {
		m.viewport.SetContent("")
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.viewport.SetContent(m.resultView.Render(snap.Claim, snap.Result, width))
}

func (m *Model) enterVerify() tea.Cmd {
	m.state = StateVerify
	switch m.ctrl.State() {
	case flow.StateIdle:
		m.claimInput.Blur()
		return m.input.Focus()
	case flow.StateAwaitingConfirmation:
		m.input.Blur()
		return m.claimInput.Focus()
	case flow.StateCompleted:
		m.input.Blur()
		m.claimInput.Blur()
		m.refreshResult()
		m.viewport.GotoTop()
	}
	return nil
}

func (m *Model) expireSession() tea.Cmd {
	m.loading = false
	m.input.Blur()
	m.claimInput.Blur()
	m.loginForm = NewLoginForm(m.knownEmail())
	m.statusMessage = sessionExpiredMessage
	m.state = StateLogin
	return m.loginForm.GetForm().Init()
}

func (m *Model) handleError(err error) (tea.Model, tea.Cmd) {
	m.loading = false
	if errors.Is(err, api.ErrUnauthorized) {
		return m, m.expireSession()
	}
	m.logger.Info("operation failed", zap.Error(err))
	m.showMessage("error", err.Error())
	return m, nil
}

func (m *Model) showMessage(kind, text string) {
	if m.state != StateMessage {
		m.returnState = m.state
	}
	m.messageType = kind
	m.statusMessage = text
	m.state = StateMessage
}

// Verification flow

func (m *Model) submitInput() tea.Cmd {
	req, err := m.ctrl.Submit(m.input.Value())
	if err != nil {
		if errors.Is(err, flow.ErrEmptyInput) {
			m.statusMessage = "Enter some text or a URL to verify"
		} else {
			m.statusMessage = err.Error()
		}
		return nil
	}
	m.statusMessage = ""
	m.input.Blur()

	ctrl := m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return extractedMsg{result: ctrl.Extract(req)}
	})
}

func (m *Model) handleExtracted(msg extractedMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.ApplyExtraction(msg.result) {
		return m, nil
	}
	m.claimInput.SetValue(m.ctrl.Claim())
	if msg.result.Fallback && msg.result.Err == nil {
		m.statusMessage = "No distinct claim found; edit the text below if needed"
	}
	if errors.Is(msg.result.Err, api.ErrUnauthorized) {
		return m, m.expireSession()
	}
	if m.state != StateVerify {
		return m, nil
	}
	return m, m.claimInput.Focus()
}

func (m *Model) confirmClaim() tea.Cmd {
	if err := m.ctrl.EditClaim(m.claimInput.Value()); err != nil {
		m.statusMessage = err.Error()
		return nil
	}
	req, err := m.ctrl.Confirm()
	if err != nil {
		if errors.Is(err, flow.ErrEmptyClaim) {
			m.statusMessage = "The claim cannot be empty"
		} else {
			m.statusMessage = err.Error()
		}
		return nil
	}
	m.statusMessage = ""
	m.claimInput.Blur()

	ctrl := m.ctrl
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return analyzedMsg{result: ctrl.Analyze(req)}
	})
}

func (m *Model) handleAnalyzed(msg analyzedMsg) (tea.Model, tea.Cmd) {
	if !m.ctrl.ApplyAnalysis(msg.result) {
		return m, nil
	}
	if m.ctrl.Unauthorized() {
		return m, m.expireSession()
	}
	if m.ctrl.State() == flow.StateCompleted {
		m.refreshResult()
		m.viewport.GotoTop()
		return m, nil
	}
	if m.state != StateVerify {
		return m, nil
	}
	return m, m.claimInput.Focus()
}

func (m *Model) newAnalysis() tea.Cmd {
	if err := m.ctrl.Reset(); err != nil {
		m.logger.Warn("failed to clear cached result", zap.Error(err))
	}
	m.input.Reset()
	m.claimInput.Reset()
	m.viewport.SetContent("")
	m.statusMessage = ""
	return m.enterVerify()
}

func (m *Model) copySummary() tea.Cmd {
	snap := m.ctrl.Snapshot()
	text := ResultSummary(snap.Claim, snap.Result, m.vocab)
	if text == "" {
		return nil
	}
	return func() tea.Msg {
		return clipboardMsg{err: clipboard.WriteAll(text)}
	}
}

func (m *Model) logout() tea.Cmd {
	if m.tokens != nil {
		if err := m.tokens.ClearToken(); err != nil {
			m.logger.Warn("failed to clear token", zap.Error(err))
		}
	}
	m.offline = false
	m.loginForm = NewLoginForm("")
	m.statusMessage = "Logged out"
	m.state = StateLogin
	return m.loginForm.GetForm().Init()
}

// Login

func (m *Model) updateLoginForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.loginForm == nil {
		m.loginForm = NewLoginForm(m.knownEmail())
	}
	form, cmd := m.loginForm.GetForm().Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.loginForm.SetForm(f)
	}
	if m.loginForm.Completed() && !m.loading {
		return m, tea.Batch(cmd, m.loginCmd(m.loginForm.Credentials()))
	}
	return m, cmd
}

func (m *Model) loginCmd(creds *api.Credentials) tea.Cmd {
	m.loading = true
	m.statusMessage = "Signing in…"
	backend := m.backend
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := backend.Login(ctx, *creds); err != nil {
			return loginFailedMsg{email: creds.Email, err: err}
		}
		return loggedInMsg{email: creds.Email}
	}
}

type loginFailedMsg struct {
	email string
	err   error
}

func (m *Model) handleLoginFailed(msg loginFailedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.statusMessage = msg.err.Error()
	m.loginForm = NewLoginForm(msg.email)
	return m, m.loginForm.GetForm().Init()
}

func (m *Model) continueOffline() tea.Cmd {
	m.offline = true
	m.loginForm = nil
	m.statusMessage = "Offline: browsing local history only"
	return m.enterVerify()
}

// History

func (m *Model) openHistory() tea.Cmd {
	m.input.Blur()
	m.claimInput.Blur()
	var auth history.Authenticator
	if m.tokens != nil && !m.offline {
		auth = m.tokens
	}
	m.source = history.Select(m.backend, m.cache, auth)
	m.state = StateHistory
	m.statusMessage = ""
	return m.loadHistory()
}

func (m *Model) loadHistory() tea.Cmd {
	m.loading = true
	src := m.source
	timeout := m.cfg.Timeout()
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		entries, err := src.List(ctx)
		if err != nil {
			return ErrorMsg{Error: fmt.Errorf("failed to load history: %w", err)}
		}
		return historyLoadedMsg{entries: entries, remote: src.Remote()}
	})
}

func (m *Model) openEntry() tea.Cmd {
	e := m.historyView.Selected()
	if e == nil {
		return nil
	}
	m.loading = true
	src, cache, id := m.source, m.cache, e.ID
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		entry, err := history.View(ctx, src, cache, id)
		if err != nil {
			return ErrorMsg{Error: fmt.Errorf("failed to open entry: %w", err)}
		}
		return historyOpenedMsg{entry: entry}
	}
}

func (m *Model) deleteEntry() tea.Cmd {
	e := m.historyView.Selected()
	if e == nil {
		return nil
	}
	m.loading = true
	src, id := m.source, e.ID
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := src.Delete(ctx, id); err != nil {
			return ErrorMsg{Error: fmt.Errorf("failed to delete entry: %w", err)}
		}
		return historyDeletedMsg{id: id}
	}
}

func (m *Model) clearHistory() tea.Cmd {
	m.state = StateHistory
	m.loading = true
	src := m.source
	timeout := m.cfg.Timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := src.Clear(ctx); err != nil {
			return ErrorMsg{Error: fmt.Errorf("failed to clear history: %w", err)}
		}
		return historyClearedMsg{}
	}
}

// Key handling

func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if keyMatches(msg, m.keys.ForceQuit) {
		m.ctrl.Abort()
		return m, tea.Quit
	}

	switch m.state {
	case StateLogin:
		return m.handleLoginKeys(msg)
	case StateVerify:
		return m.handleVerifyKeys(msg)
	case StateHistory:
		return m.handleHistoryKeys(msg)
	case StateConfirmClear:
		return m.handleConfirmClearKeys(msg)
	case StateMessage:
		return m.handleMessageKeys(msg)
	}
	return m, nil
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	if keyMatches(msg, m.keys.Back) {
		return m, m.continueOffline()
	}
	return m.updateLoginForm(msg)
}

func (m *Model) handleVerifyKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.ctrl.State() {
	case flow.StateIdle:
		switch {
		case keyMatches(msg, m.keys.Enter):
			return m, m.submitInput()
		case msg.Type == tea.KeyTab:
			return m, m.openHistory()
		case msg.Type == tea.KeyEsc && m.offline:
			return m, m.logout()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd

	case flow.StateExtracting, flow.StateAnalyzing:
		if keyMatches(msg, m.keys.Back) {
			m.ctrl.Abort()
			m.statusMessage = "Cancelled"
			return m, m.enterVerify()
		}
		return m, nil

	case flow.StateAwaitingConfirmation:
		switch {
		case keyMatches(msg, m.keys.Enter):
			return m, m.confirmClaim()
		case keyMatches(msg, m.keys.Back):
			if err := m.ctrl.CancelConfirmation(); err != nil {
				m.statusMessage = err.Error()
				return m, nil
			}
			m.statusMessage = ""
			m.input.SetValue(m.ctrl.Input())
			return m, m.enterVerify()
		}
		var cmd tea.Cmd
		m.claimInput, cmd = m.claimInput.Update(msg)
		return m, cmd

	case flow.StateCompleted:
		return m.handleCompletedKeys(msg)
	}
	return m, nil
}

func (m *Model) handleCompletedKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit
	case keyMatches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case keyMatches(msg, m.keys.NewCheck):
		return m, m.newAnalysis()
	case keyMatches(msg, m.keys.History):
		return m, m.openHistory()
	case keyMatches(msg, m.keys.Copy):
		return m, m.copySummary()
	case keyMatches(msg, m.keys.CycleTheme):
		m.cycleTheme()
		return m, nil
	case keyMatches(msg, m.keys.Logout):
		return m, m.logout()
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleHistoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filtering {
		switch msg.Type {
		case tea.KeyEnter:
			m.filtering = false
			m.filter.Blur()
			return m, nil
		case tea.KeyEsc:
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.historyView.SetFilter("")
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.historyView.SetFilter(m.filter.Value())
		return m, cmd
	}

	if m.loading {
		if keyMatches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit
	case keyMatches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
	case keyMatches(msg, m.keys.Up):
		m.historyView.MoveCursor(-1)
	case keyMatches(msg, m.keys.Down):
		m.historyView.MoveCursor(1)
	case keyMatches(msg, m.keys.Open):
		return m, m.openEntry()
	case keyMatches(msg, m.keys.Delete):
		return m, m.deleteEntry()
	case keyMatches(msg, m.keys.ClearAll):
		if m.historyView.Total() > 0 {
			m.state = StateConfirmClear
		}
	case keyMatches(msg, m.keys.Filter):
		m.filtering = true
		m.filter.SetValue(m.historyView.Filter())
		return m, m.filter.Focus()
	case keyMatches(msg, m.keys.Refresh):
		return m, m.loadHistory()
	case keyMatches(msg, m.keys.CycleTheme):
		m.cycleTheme()
	case keyMatches(msg, m.keys.Back), keyMatches(msg, m.keys.History):
		m.statusMessage = ""
		return m, m.enterVerify()
	}
	return m, nil
}

func (m *Model) handleConfirmClearKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Yes):
		return m, m.clearHistory()
	case keyMatches(msg, m.keys.No):
		m.state = StateHistory
	}
	return m, nil
}

func (m *Model) handleMessageKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.state = m.returnState
	m.statusMessage = ""
	if m.state == StateVerify {
		return m, m.enterVerify()
	}
	return m, nil
}

func keyMatches(msg tea.KeyMsg, target key.Binding) bool {
	for _, k := range target.Keys() {
		if msg.String() == k {
			return true
		}
	}
	return false
}
