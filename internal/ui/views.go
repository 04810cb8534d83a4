package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mcao2/truthlens/internal/flow"
)

func (m *Model) View() string {
	var content string
	centered := true

	switch m.state {
	case StateLogin:
		content = m.loginView()
	case StateVerify:
		if m.ctrl.State() == flow.StateCompleted {
			content = m.resultScreen()
			centered = false
		} else {
			content = m.verifyView()
		}
	case StateHistory:
		content = m.historyScreen()
		centered = false
	case StateConfirmClear:
		content = m.confirmClearView()
	case StateMessage:
		content = m.messageView()
	default:
		return "Unknown state"
	}

	if centered && m.width > 0 && m.height > 0 {
		content = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}

	return content
}

func (m *Model) sessionLabel() string {
	if m.offline || !m.authenticated() {
		return "offline"
	}
	if email := m.knownEmail(); email != "" {
		return email
	}
	return "signed in"
}

func (m *Model) loginView() string {
	title := m.styles.Title.Render("  TruthLens")
	subtitle := m.styles.HelpDesc.Render("  Sign in to verify claims")

	form := ""
	if m.loginForm != nil {
		form = m.loginForm.GetForm().View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left, "", title, subtitle, "", form)

	if m.statusMessage != "" {
		style := m.styles.Error
		if m.loading {
			style = m.styles.Help
		}
		content = lipgloss.JoinVertical(lipgloss.Left, content, style.Render("  "+m.statusMessage), "")
	}

	help := m.renderHelpLine([]helpEntry{
		{"enter", "next / sign in"},
		{"esc", "continue offline"},
		{"ctrl+c", "quit"},
	})

	return lipgloss.JoinVertical(lipgloss.Center, "", m.styles.Card.Render(content), "", help)
}

func (m *Model) verifyView() string {
	snap := m.ctrl.Snapshot()
	title := m.styles.Title.Render("TruthLens")
	who := m.styles.HelpDesc.Render("  " + m.sessionLabel())

	var body []string
	var help []helpEntry

	switch snap.State {
	case flow.StateIdle:
		body = append(body,
			m.styles.Normal.Render("What would you like to verify?"),
			"",
			m.input.View(),
		)
		help = []helpEntry{{"enter", "extract claim"}, {"alt+enter", "newline"}, {"tab", "history"}, {"ctrl+c", "quit"}}
		if m.offline {
			help = append(help, helpEntry{"esc", "sign in"})
		}

	case flow.StateExtracting:
		body = append(body,
			m.styles.Normal.Render(fmt.Sprintf("%s Extracting the main claim…", m.spinner.View())),
			"",
			m.styles.HelpDesc.Render(Truncate(oneLine(snap.Input), 72)),
		)
		help = []helpEntry{{"esc", "cancel"}}

	case flow.StateAwaitingConfirmation:
		body = append(body,
			m.styles.Normal.Render("Confirm or edit the claim to analyze"),
			"",
			m.claimInput.View(),
		)
		if snap.Error != "" {
			body = append(body, "", m.styles.Error.Render("⚠  "+snap.Error))
		}
		help = []helpEntry{{"enter", "analyze"}, {"alt+enter", "newline"}, {"esc", "back"}}

	case flow.StateAnalyzing:
		body = append(body,
			m.styles.Normal.Render(fmt.Sprintf("%s Analyzing claim…", m.spinner.View())),
			"",
			m.styles.Highlight.Render(Truncate(oneLine(snap.Claim), 72)),
		)
		help = []helpEntry{{"esc", "cancel"}}
	}

	if m.statusMessage != "" {
		body = append(body, "", m.styles.Help.Render(m.statusMessage))
	}

	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title+who,
			"",
			lipgloss.JoinVertical(lipgloss.Left, body...),
		),
	)

	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", m.renderHelpLine(help))
}

func (m *Model) resultScreen() string {
	header := m.header("Result", fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100))

	var footer string
	if m.showHelp {
		footer = m.renderFullHelp()
	} else {
		lines := []string{m.renderHelpLine([]helpEntry{
			{"j/k", "scroll"},
			{"n", "new analysis"},
			{"h", "history"},
			{"c", "copy"},
			{"t", "theme"},
			{"L", "log out"},
			{"?", "help"},
			{"q", "quit"},
		})}
		if m.statusMessage != "" {
			lines = append([]string{m.styles.Help.Render(m.statusMessage)}, lines...)
		}
		footer = m.styles.FooterBar.Width(m.footerWidth()).Render(strings.Join(lines, "\n"))
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, m.viewport.View(), footer)
}

func (m *Model) historyScreen() string {
	label := "History · local"
	if m.remote {
		label = "History · remote"
	}
	count := fmt.Sprintf("%d/%d", m.historyView.Len(), m.historyView.Total())
	if m.loading {
		count = m.spinner.View() + " loading"
	}
	header := m.header(label, count)

	var filterLine string
	if m.filtering {
		filterLine = m.filter.View()
	} else if q := m.historyView.Filter(); q != "" {
		filterLine = m.styles.HelpDesc.Render("filter: " + q)
	}

	parts := []string{header, m.historyView.View(m.styles)}
	if filterLine != "" {
		parts = append(parts, filterLine)
	}
	parts = append(parts, m.historyView.DetailView(m.width, m.styles))

	var footer string
	if m.showHelp {
		footer = m.renderFullHelp()
	} else {
		lines := []string{m.renderHelpLine([]helpEntry{
			{"j/k", "navigate"},
			{"enter", "open"},
			{"d", "delete"},
			{"X", "clear all"},
			{"/", "filter"},
			{"r", "refresh"},
			{"esc", "back"},
			{"q", "quit"},
		})}
		if m.statusMessage != "" {
			lines = append([]string{m.styles.Help.Render(m.statusMessage)}, lines...)
		}
		footer = m.styles.FooterBar.Width(m.footerWidth()).Render(strings.Join(lines, "\n"))
	}
	parts = append(parts, footer)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *Model) confirmClearView() string {
	where := "local history"
	if m.remote {
		where = "server-side history"
	}
	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			m.styles.Title.Render("Clear History"),
			"",
			m.styles.Normal.Render(fmt.Sprintf("Delete all %d entries from your %s?", m.historyView.Total(), where)),
			m.styles.Error.Render("This cannot be undone."),
		),
	)

	help := m.renderHelpLine([]helpEntry{{"y", "confirm"}, {"n", "cancel"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) messageView() string {
	var icon, title string
	var titleStyle lipgloss.Style

	if m.messageType == "error" {
		icon = "✗"
		title = "Error"
		titleStyle = m.styles.Error
	} else {
		icon = "✓"
		title = "Success"
		titleStyle = m.styles.Success
	}

	content := m.styles.Border.Render(
		lipgloss.JoinVertical(lipgloss.Center,
			titleStyle.Render(icon+" "+title),
			"",
			m.styles.Normal.Render(m.statusMessage),
		),
	)

	help := m.renderHelpLine([]helpEntry{{"any key", "continue"}})
	return lipgloss.JoinVertical(lipgloss.Center, "", content, "", help)
}

func (m *Model) header(left, right string) string {
	headerLeft := m.styles.HelpKey.Render("TruthLens · " + left)
	headerRight := m.styles.HelpDesc.Render(right + "  " + m.sessionLabel())
	gap := ""
	if m.width > 0 {
		if n := m.width - lipgloss.Width(headerLeft) - lipgloss.Width(headerRight) - 2; n > 0 {
			gap = strings.Repeat(" ", n)
		}
	}
	return headerLeft + gap + headerRight
}

func (m *Model) footerWidth() int {
	if m.width <= 1 {
		return 80
	}
	return m.width - 1
}

// Help rendering

type helpEntry struct {
	key  string
	desc string
}

func (m *Model) renderHelpLine(entries []helpEntry) string {
	var parts []string
	sep := m.styles.HelpSep.Render(" · ")
	for _, e := range entries {
		parts = append(parts, m.styles.HelpKey.Render(e.key)+" "+m.styles.HelpDesc.Render(e.desc))
	}
	return strings.Join(parts, sep)
}

func (m *Model) renderFullHelp() string {
	sections := []struct {
		title   string
		entries []helpEntry
	}{
		{"Verify", []helpEntry{
			{"enter", "extract claim / analyze"},
			{"alt+enter", "insert newline"},
			{"esc", "cancel or go back"},
		}},
		{"Result", []helpEntry{
			{"j / k", "scroll"},
			{"n", "start a new analysis"},
			{"c", "copy summary to clipboard"},
			{"h / tab", "open history"},
		}},
		{"History", []helpEntry{
			{"enter", "open entry"},
			{"d", "delete entry"},
			{"X", "clear all"},
			{"/", "filter"},
			{"r", "refresh"},
		}},
		{"General", []helpEntry{
			{"t", "cycle theme"},
			{"L", "log out"},
			{"?", "toggle this help"},
			{"q / ctrl+c", "quit"},
		}},
	}

	var lines []string
	for _, sec := range sections {
		lines = append(lines, m.styles.HelpKey.Render("  "+sec.title))
		for _, e := range sec.entries {
			lines = append(lines, fmt.Sprintf("    %s  %s",
				m.styles.HelpKey.Render(fmt.Sprintf("%-12s", e.key)),
				m.styles.HelpDesc.Render(e.desc),
			))
		}
	}

	return m.styles.FooterBar.Width(m.footerWidth()).Render(strings.Join(lines, "\n"))
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
