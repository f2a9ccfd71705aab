package views

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gikenye/givecaesar/internal/utils"
)

type FeedbackType string

const (
	FeedbackSuccess FeedbackType = "success"
	FeedbackError   FeedbackType = "error"
	FeedbackWarning FeedbackType = "warning"
	FeedbackInfo    FeedbackType = "info"
)

// FeedbackMessage is a transient notification. Errors never block editing.
type FeedbackMessage struct {
	ID       int
	Type     FeedbackType
	Message  string
	Duration time.Duration
	ShowTime time.Time
}

// FeedbackTimeoutMsg clears the message with the same ID, if still shown.
type FeedbackTimeoutMsg struct {
	ID int
}

type feedbackState struct {
	current *FeedbackMessage
	nextID  int
}

func (f *feedbackState) show(feedbackType FeedbackType, message string, duration time.Duration) tea.Cmd {
	f.nextID++
	id := f.nextID
	f.current = &FeedbackMessage{
		ID:       id,
		Type:     feedbackType,
		Message:  message,
		Duration: duration,
		ShowTime: time.Now(),
	}
	return tea.Tick(duration, func(time.Time) tea.Msg {
		return FeedbackTimeoutMsg{ID: id}
	})
}

func (f *feedbackState) expire(msg FeedbackTimeoutMsg) {
	if f.current != nil && f.current.ID == msg.ID {
		f.current = nil
	}
}

func (f *feedbackState) view() string {
	if f.current == nil {
		return ""
	}

	var color string
	switch f.current.Type {
	case FeedbackSuccess:
		color = utils.Colours.Success
	case FeedbackError:
		color = utils.Colours.Error
	case FeedbackWarning:
		color = utils.Colours.Warning
	case FeedbackInfo:
		color = utils.Colours.Accent
	default:
		color = utils.Colours.Text
	}

	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(color)).
		Background(lipgloss.Color(utils.Colours.Surface)).
		Padding(0, 1).
		Bold(true).
		Render(f.current.Message)
}
