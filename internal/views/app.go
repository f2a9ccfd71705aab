// Package views is the terminal front end. It consumes list, tracker and
// session events and never mutates core state except through their
// operations.
package views

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gikenye/givecaesar/internal/batch"
	"github.com/gikenye/givecaesar/internal/errs"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
	"github.com/gikenye/givecaesar/internal/utils"
	"github.com/gikenye/givecaesar/internal/wallet"
)

// Submitter runs one submission to completion.
type Submitter interface {
	Send(ctx context.Context) (batch.Result, error)
}

type AppDeps struct {
	List    *recipients.List
	Tracker *lifecycle.Tracker
	Sender  Submitter
	Session *wallet.Session
	Bridge  *Bridge
	Network string
	Method  string
	TxURL   func(string) string
	Logger  *slog.Logger
}

type SendResultMsg struct {
	Result batch.Result
	Err    error
}

type AppModel struct {
	width  int
	height int

	ctx     context.Context
	cancel  context.CancelFunc
	bridge  *Bridge
	sender  Submitter
	session *wallet.Session
	network string
	logger  *slog.Logger
	detach  func()

	batchSend      *BatchSendModel
	passwordPrompt *PasswordPromptModel
	approval       *ApprovalPromptModel
	sessionStatus  *SessionStatusModel
	feedback       feedbackState

	submitting bool
}

func NewAppModel(deps AppDeps) *AppModel {
	ctx, cancel := context.WithCancel(context.Background())
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var unlocker Unlocker
	if deps.Session != nil {
		unlocker = deps.Session
	}

	m := &AppModel{
		ctx:     ctx,
		cancel:  cancel,
		bridge:  deps.Bridge,
		sender:  deps.Sender,
		session: deps.Session,
		network: deps.Network,
		logger:  logger,

		batchSend:      NewBatchSendModel(deps.List, deps.Tracker.Status(), deps.TxURL),
		passwordPrompt: NewPasswordPromptModel(unlocker),
		approval:       NewApprovalPromptModel(deps.List.Unit(), deps.Method),
	}
	if deps.Session != nil {
		m.sessionStatus = NewSessionStatusModel(deps.Session)
		deps.Session.OnPrompt(func() { deps.Bridge.Post(ConnectPromptMsg{}) })
		deps.Session.OnChange(func(connected bool) { deps.Bridge.Post(SessionChangedMsg{Connected: connected}) })
	}
	m.detach = deps.Bridge.Attach(deps.List, deps.Tracker)

	m.passwordPrompt.SetCallbacks(m.onUnlocked, m.onUnlockCancelled, m.onUnlockFailed)
	return m
}

func (m *AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.bridge.Next(), m.batchSend.Init()}
	if m.sessionStatus != nil {
		cmds = append(cmds, m.sessionStatus.Init())
	}
	return tea.Batch(cmds...)
}

func (m *AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.batchSend.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.Shutdown()
			return m, tea.Quit
		}
		if m.session != nil {
			m.session.RecordActivity()
		}
		switch {
		case m.approval.IsVisible():
			return m, m.approval.Update(msg)
		case m.passwordPrompt.IsVisible():
			return m, m.passwordPrompt.Update(msg)
		}
		return m, m.batchSend.Update(msg)

	case BridgeMsg:
		_, cmd := m.Update(msg.Msg)
		return m, tea.Batch(cmd, m.bridge.Next())

	case ListChangedMsg:
		cmd := m.batchSend.Update(msg)
		if msg.Event.Type == recipients.EventResolutionFailed && msg.Event.Resolution != nil &&
			errs.KindOf(msg.Event.Resolution.Err) == errs.KindResolution {
			return m, tea.Batch(cmd, m.feedback.show(FeedbackWarning, errs.UserMessage(msg.Event.Resolution.Err), 4*time.Second))
		}
		return m, cmd

	case LifecycleMsg:
		return m, m.batchSend.Update(msg)

	case ConnectPromptMsg:
		return m, m.passwordPrompt.Show("Connect wallet", "Unlock your keystore to sign payments.")

	case SessionChangedMsg:
		if !msg.Connected {
			return m, m.feedback.show(FeedbackInfo, "Wallet locked", 3*time.Second)
		}
		return m, nil

	case SessionTimeoutWarningMsg:
		return m, m.feedback.show(FeedbackWarning,
			fmt.Sprintf("⚠ Session locks in %s", utils.FormatDuration(msg.TimeRemaining)), 5*time.Second)

	case SessionTickMsg:
		if m.sessionStatus != nil {
			return m, m.sessionStatus.Update(msg)
		}
		return m, nil

	case ApprovalRequestMsg:
		m.approval.Show(msg)
		return m, nil

	case NoticeMsg:
		return m, m.feedback.show(FeedbackInfo, msg.Notice.String(), 5*time.Second)

	case SubmitMsg:
		if m.submitting {
			return m, m.feedback.show(FeedbackWarning, errs.UserMessage(errs.ErrInFlight), 3*time.Second)
		}
		m.submitting = true
		return m, m.send()

	case SendResultMsg:
		m.submitting = false
		if msg.Err != nil {
			severity := FeedbackWarning
			if errs.BlocksSubmission(msg.Err) {
				severity = FeedbackError
			}
			return m, m.feedback.show(severity, errs.UserMessage(msg.Err), 6*time.Second)
		}
		return m, m.feedback.show(FeedbackSuccess,
			fmt.Sprintf("Paid %s", utils.Pluralize(msg.Result.Plan.Len(), "recipient", "recipients")), 5*time.Second)

	case PasswordVerificationMsg:
		return m, m.passwordPrompt.Update(msg)

	case FeedbackTimeoutMsg:
		m.feedback.expire(msg)
		return m, nil
	}

	if m.passwordPrompt.IsVisible() {
		return m, m.passwordPrompt.Update(msg)
	}
	return m, m.batchSend.Update(msg)
}

func (m *AppModel) send() tea.Cmd {
	ctx, sender, logger := m.ctx, m.sender, m.logger
	return func() tea.Msg {
		result, err := sender.Send(ctx)
		if err != nil {
			logger.Info("submission ended", "kind", string(errs.KindOf(err)), "error", err)
		}
		return SendResultMsg{Result: result, Err: err}
	}
}

func (m *AppModel) onUnlocked() tea.Cmd {
	addr, _ := m.session.CurrentAddress()
	return m.feedback.show(FeedbackSuccess, "Connected: "+utils.ShortAddress(addr), 3*time.Second)
}

func (m *AppModel) onUnlockCancelled() tea.Cmd {
	return m.feedback.show(FeedbackWarning, errs.UserMessage(errs.ErrNotConnected), 3*time.Second)
}

func (m *AppModel) onUnlockFailed(err error) tea.Cmd {
	return m.feedback.show(FeedbackError, fmt.Sprintf("Password error: %s", err.Error()), 5*time.Second)
}

func (m *AppModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Muted))

	header := headerStyle.Render("Caesar · " + m.network)
	if m.sessionStatus != nil {
		header = lipgloss.JoinHorizontal(lipgloss.Left, header, "   ", m.sessionStatus.View())
	}

	body := lipgloss.NewStyle().
		Padding(1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Accent)).
		Render(m.batchSend.View())

	content := lipgloss.JoinVertical(lipgloss.Left, header, body)
	if fb := m.feedback.view(); fb != "" {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", fb)
	}

	switch {
	case m.approval.IsVisible():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, content, m.approval.View()))
	case m.passwordPrompt.IsVisible():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, content, m.passwordPrompt.View()))
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Render(content)
}

// Shutdown rejects any pending approval and stops background work.
func (m *AppModel) Shutdown() {
	m.approval.Cancel()
	m.cancel()
	if m.detach != nil {
		m.detach()
	}
	m.bridge.Close()
}
