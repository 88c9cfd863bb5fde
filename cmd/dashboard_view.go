package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kamal-hamza/docusage/internal/core/domain"
	"github.com/kamal-hamza/docusage/internal/core/services"
	"github.com/kamal-hamza/docusage/pkg/ui"
)

func (m dashboardModel) View() string {
	if !m.authenticated() {
		return m.viewAuth()
	}
	switch m.mode {
	case modeHelp:
		return m.viewHelp()
	case modePicker:
		return m.viewPicker()
	default:
		return m.viewDocuments()
	}
}

func (m dashboardModel) viewAuth() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")
	s.WriteString(m.renderModeTabs())
	s.WriteString("\n\n")

	if m.banner != "" {
		s.WriteString(m.bannerStyle.Render(m.banner))
		s.WriteString("\n\n")
	}

	labels := []string{"Email", "Password"}
	for i, input := range m.inputs {
		label := ui.StyleBlurred.Render(labels[i])
		if i == m.focus && !m.busy {
			label = ui.StyleFocused.Render(labels[i])
		}
		s.WriteString(label + "\n")

		field := input.View()
		if m.busy {
			field = ui.StyleDisabled.Render(input.Value())
			if i == fieldPassword {
				field = ui.StyleDisabled.Render(strings.Repeat("•", len([]rune(input.Value()))))
			}
		}
		s.WriteString("  " + field + "\n")

		if msg := m.fieldErrors[fieldName(i)]; msg != "" {
			s.WriteString("  " + ui.StyleFieldError.Render(msg) + "\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.renderSubmitButton())
	s.WriteString("\n\n")
	s.WriteString(m.renderFooter(m.help.View(m.authKeys)))

	return lipgloss.NewStyle().Padding(1, 2).Render(s.String())
}

func (m dashboardModel) renderModeTabs() string {
	active := lipgloss.NewStyle().
		Foreground(ui.ColorPrimary).
		Bold(true).
		Underline(true).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Padding(0, 1)

	login, register := inactive.Render("Log in"), inactive.Render("Register")
	if m.authMode == domain.ModeRegister {
		register = active.Render("Register")
	} else {
		login = active.Render("Log in")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, login, ui.StyleMuted.Render("│"), register)
}

func (m dashboardModel) renderSubmitButton() string {
	label := "Log in"
	pending := "Signing in..."
	if m.authMode == domain.ModeRegister {
		label = "Create account"
		pending = "Creating account..."
	}

	button := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		Padding(0, 2)

	if m.busy {
		return button.BorderForeground(ui.ColorMuted).
			Render(m.spinner.View() + " " + ui.StyleDisabled.Render(pending))
	}
	return button.BorderForeground(ui.ColorPrimary).Render(ui.StylePrimary.Render(label))
}

func (m dashboardModel) viewDocuments() string {
	var s strings.Builder

	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")
	s.WriteString(m.renderSearchBar())
	s.WriteString("\n\n")

	if m.loadErr != "" {
		s.WriteString(ui.StyleBanner.Render(m.loadErr))
		s.WriteString("\n\n")
	}

	s.WriteString(m.renderDocumentList())
	s.WriteString("\n")
	s.WriteString(m.renderFooter(m.help.View(m.docKeys)))

	return s.String()
}

func (m dashboardModel) viewPicker() string {
	var s strings.Builder
	s.WriteString(m.renderHeader())
	s.WriteString("\n\n")
	s.WriteString(ui.StyleHeader.Render(ui.IconUpload + " Select a file to upload"))
	s.WriteString("\n")
	s.WriteString(ui.StyleMuted.Render(m.picker.CurrentDirectory))
	s.WriteString("\n\n")
	s.WriteString(m.picker.View())
	s.WriteString("\n")
	s.WriteString(m.renderFooter(ui.StyleMuted.Render("enter select • esc cancel")))
	return s.String()
}

func (m dashboardModel) viewHelp() string {
	h := m.help
	h.ShowAll = true

	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorPrimary).
		Padding(1, 2)

	content := lipgloss.JoinVertical(lipgloss.Left,
		ui.StyleHeader.Render("Keyboard Shortcuts"),
		"",
		h.View(m.docKeys),
		"",
		ui.StyleMuted.Render("Press any key to return"),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(box.Render(content))
}

func (m dashboardModel) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(ui.ColorPrimary).
		Bold(true).
		Padding(0, 1)

	statsStyle := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Align(lipgloss.Right)

	title := titleStyle.Render(ui.IconDocument + " DocuSage")

	var right string
	switch m.ctrl.State() {
	case services.StateAuthenticated:
		who := "signed in"
		if s := m.ctrl.Session(); s != nil && s.Email != "" {
			who = s.Email
		}
		right = fmt.Sprintf("%d documents  %s %s", len(m.filtered), ui.IconUser, who)
	case services.StateAuthenticating:
		right = "signing in..."
	default:
		right = ui.IconLock + " not signed in"
	}
	stats := statsStyle.Render(right)

	spacer := m.width - lipgloss.Width(title) - lipgloss.Width(stats)
	if spacer < 1 {
		spacer = 1
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, title, strings.Repeat(" ", spacer), stats)
}

func (m dashboardModel) renderSearchBar() string {
	borderColor := ui.ColorMuted
	if m.mode == modeSearch {
		borderColor = ui.ColorPrimary
	}

	width := m.width - 4
	if width < 20 {
		width = 20
	}
	searchStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(borderColor).
		Padding(0, 1).
		Width(width)

	content := m.search.View()
	if m.mode != modeSearch && m.search.Value() == "" {
		content = ui.StyleMuted.Render("Press / to search...")
	}
	return searchStyle.Render(content)
}

func (m dashboardModel) renderDocumentList() string {
	emptyStyle := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Italic(true).
		Padding(1, 4)

	if m.loading && len(m.docs) == 0 {
		return emptyStyle.Render(m.spinner.View() + " Loading documents...")
	}
	if len(m.filtered) == 0 {
		if m.search.Value() != "" {
			return emptyStyle.Render("No documents match your search.")
		}
		return emptyStyle.Render("No documents yet. Press 'u' to upload your first file!")
	}

	var s strings.Builder
	end := m.offset + m.listHeight()
	if end > len(m.filtered) {
		end = len(m.filtered)
	}
	for i := m.offset; i < end; i++ {
		s.WriteString(m.renderDocumentRow(m.filtered[i], i == m.cursor))
	}
	if len(m.filtered) > end-m.offset {
		s.WriteString(ui.StyleMuted.Render(fmt.Sprintf("  %d-%d of %d", m.offset+1, end, len(m.filtered))))
		s.WriteString("\n")
	}
	return s.String()
}

func (m dashboardModel) renderDocumentRow(doc domain.Document, selected bool) string {
	cursor := "  "
	nameStyle := lipgloss.NewStyle().Foreground(ui.ColorDefault)
	if selected {
		cursor = ui.StylePrimary.Render("▶ ")
		nameStyle = ui.StyleSelectedRow
	}

	nameWidth := m.width - 30
	if nameWidth < 20 {
		nameWidth = 20
	}
	name := ui.Truncate(doc.Filename, nameWidth)

	return fmt.Sprintf("%s%s  %s  %s\n",
		cursor,
		padRight(nameStyle.Render(name), nameWidth),
		ui.StyleMuted.Render(fmt.Sprintf("%8s", domain.FormatSize(doc.Size))),
		ui.StyleMuted.Render(formatRelativeTime(doc.UploadedAt, time.Now())),
	)
}

func (m dashboardModel) renderFooter(helpLine string) string {
	var statusLine string
	switch {
	case m.message != "" && time.Now().Before(m.messageExpiry):
		statusLine = m.messageStyle.Render(m.message)
	case m.busy:
		statusLine = m.spinner.View() + ui.StyleMuted.Render(" Working...")
	case m.loading:
		statusLine = m.spinner.View() + ui.StyleMuted.Render(" Refreshing...")
	default:
		statusLine = ui.StyleMuted.Render("Ready")
	}

	footerStyle := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ui.ColorMuted).
		Padding(0, 1)

	return footerStyle.Render(lipgloss.JoinVertical(lipgloss.Left, statusLine, helpLine))
}

func padRight(s string, width int) string {
	realLen := lipgloss.Width(s)
	if realLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-realLen)
}

// formatRelativeTime renders t relative to now in days, weeks, months or years
func formatRelativeTime(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	local := t.In(now.Location())
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, now.Location())
	days := int(today.Sub(day).Hours() / 24)

	switch {
	case days <= 0:
		return "today"
	case days == 1:
		return "1d ago"
	case days < 7:
		return fmt.Sprintf("%dd ago", days)
	case days < 14:
		return "1w ago"
	case days < 30:
		return fmt.Sprintf("%dw ago", days/7)
	case days < 60:
		return "1mo ago"
	case days < 365:
		return fmt.Sprintf("%dmo ago", days/30)
	case days < 730:
		return "1y ago"
	default:
		return fmt.Sprintf("%dy ago", days/365)
	}
}
