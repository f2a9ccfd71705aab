package views

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gikenye/givecaesar/internal/utils"
	"github.com/gikenye/givecaesar/internal/wallet"
)

// Unlocker opens the wallet session with a password.
type Unlocker interface {
	Unlock(password string) error
}

type PasswordPromptModel struct {
	unlocker Unlocker

	input       textinput.Model
	attempts    int
	maxAttempts int

	visible     bool
	loading     bool
	error       string
	title       string
	description string

	onSuccess func() tea.Cmd
	onCancel  func() tea.Cmd
	onError   func(error) tea.Cmd
}

type PasswordVerificationMsg struct {
	Success bool
	Error   error
}

func NewPasswordPromptModel(unlocker Unlocker) *PasswordPromptModel {
	input := textinput.New()
	input.Placeholder = "Keystore password"
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '*'
	input.CharLimit = 128
	input.Width = 36
	input.Prompt = "Password: "
	input.PromptStyle = utils.Fg(utils.Colours.Accent)

	return &PasswordPromptModel{
		unlocker:    unlocker,
		input:       input,
		maxAttempts: 3,
	}
}

func (m *PasswordPromptModel) SetCallbacks(onSuccess func() tea.Cmd, onCancel func() tea.Cmd, onError func(error) tea.Cmd) {
	m.onSuccess = onSuccess
	m.onCancel = onCancel
	m.onError = onError
}

func (m *PasswordPromptModel) Show(title, description string) tea.Cmd {
	m.visible = true
	m.title = title
	m.description = description
	m.error = ""
	m.loading = false
	m.input.SetValue("")
	return m.input.Focus()
}

func (m *PasswordPromptModel) Hide() {
	m.visible = false
	m.error = ""
	m.loading = false
	m.input.SetValue("")
	m.input.Blur()
}

func (m *PasswordPromptModel) IsVisible() bool {
	return m.visible
}

func (m *PasswordPromptModel) Update(msg tea.Msg) tea.Cmd {
	if !m.visible {
		return nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.loading {
			return nil
		}

		switch msg.String() {
		case "esc":
			m.Hide()
			if m.onCancel != nil {
				return m.onCancel()
			}
			return nil

		case "enter":
			if m.input.Value() == "" {
				m.error = "Password cannot be empty"
				return nil
			}
			if m.attempts >= m.maxAttempts {
				m.error = "Too many failed attempts"
				return nil
			}
			m.loading = true
			m.error = ""
			return m.verifyPassword(m.input.Value())

		case "ctrl+u":
			m.input.SetValue("")
			return nil
		}

	case PasswordVerificationMsg:
		m.loading = false
		if msg.Success {
			m.attempts = 0
			m.Hide()
			if m.onSuccess != nil {
				return m.onSuccess()
			}
			return nil
		}

		if !errors.Is(msg.Error, wallet.ErrBadPassword) {
			m.error = msg.Error.Error()
			m.input.SetValue("")
			return nil
		}
		m.attempts++
		m.input.SetValue("")
		if m.attempts >= m.maxAttempts {
			m.error = "Too many failed attempts. Please restart the application."
			if m.onError != nil {
				return m.onError(fmt.Errorf("maximum password attempts exceeded"))
			}
			return nil
		}
		m.error = fmt.Sprintf("Incorrect password (%d/%d attempts)", m.attempts, m.maxAttempts)
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *PasswordPromptModel) View() string {
	if !m.visible {
		return ""
	}

	overlayStyle := lipgloss.NewStyle().
		Width(60).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Accent)).
		Padding(1).
		Align(lipgloss.Center)

	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Accent)).
		Bold(true)

	descStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text)).
		Margin(1, 0)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Error)).
		Bold(true)

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Muted)).
		Italic(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render(m.title))
	content.WriteString("\n")

	if m.description != "" {
		content.WriteString(descStyle.Render(m.description))
		content.WriteString("\n")
	}

	if m.loading {
		content.WriteString("Unlocking keystore...")
	} else {
		content.WriteString(m.input.View())
	}
	content.WriteString("\n\n")

	if m.error != "" {
		content.WriteString(errorStyle.Render(m.error))
		content.WriteString("\n\n")
	}

	if !m.loading {
		content.WriteString(helpStyle.Render("Enter: connect • Esc: cancel • Ctrl+U: clear"))
	}

	return overlayStyle.Render(content.String())
}

func (m *PasswordPromptModel) verifyPassword(password string) tea.Cmd {
	unlocker := m.unlocker
	return func() tea.Msg {
		if unlocker == nil {
			return PasswordVerificationMsg{Error: fmt.Errorf("no keystore found; run 'caesar keystore init' first")}
		}
		if err := unlocker.Unlock(password); err != nil {
			return PasswordVerificationMsg{Error: err}
		}
		return PasswordVerificationMsg{Success: true}
	}
}
