package views

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gikenye/givecaesar/internal/recipients"
	"github.com/gikenye/givecaesar/internal/utils"
)

// ApprovalPromptModel is the wallet confirmation dialog shown while the
// submission waits for a signature.
type ApprovalPromptModel struct {
	unit     recipients.Unit
	method   string
	request  *ApprovalRequestMsg
	answered bool
}

func NewApprovalPromptModel(unit recipients.Unit, method string) *ApprovalPromptModel {
	return &ApprovalPromptModel{unit: unit, method: method}
}

func (m *ApprovalPromptModel) Show(req ApprovalRequestMsg) {
	if m.request != nil && !m.answered {
		m.request.Reply(false)
	}
	m.request = &req
	m.answered = false
}

func (m *ApprovalPromptModel) IsVisible() bool {
	return m.request != nil && !m.answered
}

func (m *ApprovalPromptModel) Update(msg tea.Msg) tea.Cmd {
	if !m.IsVisible() {
		return nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	switch strings.ToLower(key.String()) {
	case "y":
		m.answer(true)
	case "n", "esc":
		m.answer(false)
	}
	return nil
}

func (m *ApprovalPromptModel) answer(ok bool) {
	m.request.Reply(ok)
	m.answered = true
}

// Cancel rejects an open request, e.g. on quit.
func (m *ApprovalPromptModel) Cancel() {
	if m.IsVisible() {
		m.answer(false)
	}
}

func (m *ApprovalPromptModel) View() string {
	if !m.IsVisible() {
		return ""
	}

	call := m.request.Call
	details := [][2]string{
		{"From", call.From.Hex()},
		{"Contract", call.To.Hex()},
		{"Method", m.method},
		{"Recipients", utils.Pluralize(call.Recipients, "address", "addresses")},
		{"Value", utils.FormatAmount(call.Value, m.unit.Decimals, m.unit.Decimals) + " " + m.unit.Symbol},
	}

	overlayStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Warning)).
		Padding(1, 2)

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Warning)).
		Bold(true)

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Muted)).
		Italic(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render("Wallet confirmation"))
	content.WriteString("\n\n")
	content.WriteString(utils.FormatConfirmationText("payment", details))
	content.WriteString("\n\n")
	content.WriteString(helpStyle.Render("Y: approve and sign • N/Esc: reject"))

	return overlayStyle.Render(content.String())
}
