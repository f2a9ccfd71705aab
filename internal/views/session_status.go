package views

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ethereum/go-ethereum/common"

	"github.com/gikenye/givecaesar/internal/utils"
	"github.com/gikenye/givecaesar/internal/wallet"
)

// SessionSource is the read side of the wallet session.
type SessionSource interface {
	Status() wallet.SessionStatus
	TimeRemaining() time.Duration
	CurrentAddress() (common.Address, bool)
}

type SessionTickMsg time.Time

type SessionTimeoutWarningMsg struct {
	TimeRemaining time.Duration
}

type SessionStatusModel struct {
	session      SessionSource
	warningShown bool
}

func NewSessionStatusModel(session SessionSource) *SessionStatusModel {
	return &SessionStatusModel{session: session}
}

func (m *SessionStatusModel) Init() tea.Cmd {
	return m.tick()
}

func (m *SessionStatusModel) Update(msg tea.Msg) tea.Cmd {
	switch msg.(type) {
	case SessionTickMsg:
		if m.session == nil {
			return nil
		}
		remaining := m.session.TimeRemaining()
		var warn tea.Cmd
		if m.session.Status() == wallet.SessionStatusExpiring && !m.warningShown {
			m.warningShown = true
			warn = func() tea.Msg { return SessionTimeoutWarningMsg{TimeRemaining: remaining} }
		}
		if m.session.Status() == wallet.SessionStatusActive {
			m.warningShown = false
		}
		return tea.Batch(warn, m.tick())
	}
	return nil
}

func (m *SessionStatusModel) View() string {
	if m.session == nil {
		return ""
	}

	status := m.session.Status()

	var indicator string
	var statusColor string
	switch status {
	case wallet.SessionStatusActive:
		indicator, statusColor = "●", utils.Colours.Success
	case wallet.SessionStatusExpiring:
		indicator, statusColor = "●", utils.Colours.Warning
	case wallet.SessionStatusExpired:
		indicator, statusColor = "●", utils.Colours.Error
	default:
		indicator, statusColor = "○", utils.Colours.Subtle
	}

	statusStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(statusColor)).
		Bold(true)
	detailStyle := utils.Fg(utils.Colours.Muted)

	addr, connected := m.session.CurrentAddress()
	if !connected {
		return statusStyle.Render(indicator) + detailStyle.Render(" Not connected")
	}

	return lipgloss.JoinHorizontal(lipgloss.Left,
		statusStyle.Render(indicator),
		detailStyle.Render(fmt.Sprintf(" Connected: %s", utils.ShortAddress(addr))),
		detailStyle.Render(fmt.Sprintf(" (locks in %s)", utils.FormatDuration(m.session.TimeRemaining()))),
	)
}

func (m *SessionStatusModel) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return SessionTickMsg(t)
	})
}
