package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gikenye/givecaesar/internal/errs"
	"github.com/gikenye/givecaesar/internal/lifecycle"
	"github.com/gikenye/givecaesar/internal/recipients"
	"github.com/gikenye/givecaesar/internal/utils"
)

// SubmitMsg asks the app to run a submission.
type SubmitMsg struct{}

type recipientRow struct {
	id      string
	address textinput.Model
	amount  textinput.Model
	entry   recipients.Entry
}

func newRecipientRow(entry recipients.Entry) *recipientRow {
	address := textinput.New()
	address.Placeholder = "0x... or name.eth"
	address.CharLimit = 255
	address.Width = 44
	address.Prompt = ""
	address.TextStyle = utils.Fg(utils.Colours.Text)
	address.SetValue(entry.RawInput)

	amount := textinput.New()
	amount.Placeholder = "0.0"
	amount.CharLimit = 40
	amount.Width = 14
	amount.Prompt = ""
	amount.TextStyle = utils.Fg(utils.Colours.Text)
	amount.SetValue(entry.AmountText)

	return &recipientRow{id: entry.ID, address: address, amount: amount, entry: entry}
}

// BatchSendModel renders the recipient list and submission status. It only
// reads the core through events and calls list operations on edits.
type BatchSendModel struct {
	list    *recipients.List
	unit    recipients.Unit
	rows    []*recipientRow
	focus   int
	total   recipients.Total
	status  lifecycle.Status
	spinner spinner.Model
	txURL   func(string) string

	pendingFocus string
	width        int
}

func NewBatchSendModel(list *recipients.List, status lifecycle.Status, txURL func(string) string) *BatchSendModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = utils.Fg(utils.Colours.Pending)

	m := &BatchSendModel{
		list:    list,
		unit:    list.Unit(),
		status:  status,
		spinner: s,
		txURL:   txURL,
	}
	for _, e := range list.Entries() {
		m.rows = append(m.rows, newRecipientRow(e))
	}
	m.total = list.Total()
	m.applyFocus()
	return m
}

func (m *BatchSendModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m *BatchSendModel) SetWidth(width int) {
	m.width = width
}

func (m *BatchSendModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case ListChangedMsg:
		m.applyEvent(msg.Event)
		m.total = m.list.Total()
		return nil

	case LifecycleMsg:
		m.status = msg.Transition.Status
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return cmd
	}

	return m.updateFocused(msg)
}

func (m *BatchSendModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "tab", "down":
		m.moveFocus(1)
		return nil
	case "shift+tab", "up":
		m.moveFocus(-1)
		return nil
	case "ctrl+n":
		m.pendingFocus = m.list.Add()
		return nil
	case "ctrl+d":
		if row := m.focusedRow(); row != nil {
			_ = m.list.Remove(row.id)
		}
		return nil
	case "ctrl+s":
		return func() tea.Msg { return SubmitMsg{} }
	}
	return m.updateFocused(msg)
}

// updateFocused forwards msg to the focused input and pushes any edit into
// the list.
func (m *BatchSendModel) updateFocused(msg tea.Msg) tea.Cmd {
	row := m.focusedRow()
	if row == nil {
		return nil
	}

	var cmd tea.Cmd
	if m.focus%2 == 0 {
		before := row.address.Value()
		row.address, cmd = row.address.Update(msg)
		if v := row.address.Value(); v != before {
			_ = m.list.UpdateAddress(row.id, v)
		}
	} else {
		before := row.amount.Value()
		row.amount, cmd = row.amount.Update(msg)
		if v := row.amount.Value(); v != before {
			_ = m.list.UpdateAmount(row.id, v)
		}
	}
	return cmd
}

func (m *BatchSendModel) applyEvent(ev recipients.Event) {
	switch ev.Type {
	case recipients.EventAdded:
		m.rows = append(m.rows, newRecipientRow(ev.Entry))
		if m.pendingFocus == ev.Entry.ID {
			m.focus = (len(m.rows) - 1) * 2
			m.pendingFocus = ""
			m.applyFocus()
		}
	case recipients.EventRemoved:
		for i, row := range m.rows {
			if row.id == ev.Entry.ID {
				m.rows = append(m.rows[:i], m.rows[i+1:]...)
				break
			}
		}
		if m.focus >= len(m.rows)*2 {
			m.focus = len(m.rows)*2 - 1
		}
		m.applyFocus()
	default:
		if row := m.row(ev.Entry.ID); row != nil {
			row.entry = ev.Entry
		}
	}
}

func (m *BatchSendModel) row(id string) *recipientRow {
	for _, row := range m.rows {
		if row.id == id {
			return row
		}
	}
	return nil
}

func (m *BatchSendModel) focusedRow() *recipientRow {
	idx := m.focus / 2
	if idx < 0 || idx >= len(m.rows) {
		return nil
	}
	return m.rows[idx]
}

func (m *BatchSendModel) moveFocus(delta int) {
	fields := len(m.rows) * 2
	if fields == 0 {
		return
	}
	m.focus = (m.focus + delta + fields) % fields
	m.applyFocus()
}

func (m *BatchSendModel) applyFocus() {
	if m.focus < 0 {
		m.focus = 0
	}
	for i, row := range m.rows {
		if m.focus == i*2 {
			row.address.Focus()
		} else {
			row.address.Blur()
		}
		if m.focus == i*2+1 {
			row.amount.Focus()
		} else {
			row.amount.Blur()
		}
	}
}

func (m *BatchSendModel) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Accent)).
		Bold(true)

	var content strings.Builder
	content.WriteString(titleStyle.Render("Batch Payment"))
	content.WriteString("\n\n")
	content.WriteString(m.renderRows())
	content.WriteString("\n")
	content.WriteString(m.renderTotal())
	content.WriteString("\n\n")
	content.WriteString(m.renderStatus())
	content.WriteString("\n\n")
	content.WriteString(m.renderHelpText())
	return content.String()
}

func (m *BatchSendModel) renderRows() string {
	labelStyle := utils.Fg(utils.Colours.Muted)
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(utils.Colours.Border)).
		Padding(0, 1)
	focusedBox := boxStyle.BorderForeground(lipgloss.Color(utils.Colours.Accent))

	var b strings.Builder
	for i, row := range m.rows {
		addrBox, amountBox := boxStyle, boxStyle
		if m.focus == i*2 {
			addrBox = focusedBox
		}
		if m.focus == i*2+1 {
			amountBox = focusedBox
		}

		line := lipgloss.JoinHorizontal(lipgloss.Top,
			labelStyle.Render(fmt.Sprintf("%2d ", i+1)),
			addrBox.Render(row.address.View()),
			" ",
			amountBox.Render(row.amount.View()),
			" ",
			labelStyle.Render(m.unit.Symbol),
		)
		b.WriteString(line)
		b.WriteString("\n")
		if detail := m.renderRowDetail(row); detail != "" {
			b.WriteString("    ")
			b.WriteString(detail)
			b.WriteString("\n")
		}
	}
	return b.String()
}

const maxDetailLen = 72

func (m *BatchSendModel) renderRowDetail(row *recipientRow) string {
	e := row.entry
	var parts []string

	switch e.AddressStatus {
	case recipients.AddressResolving:
		parts = append(parts, m.spinner.View()+utils.Fg(utils.Colours.Pending).Render(" resolving..."))
	case recipients.AddressResolved:
		if e.ResolvedAddress != nil && e.DisplayName != "" {
			parts = append(parts, utils.Fg(utils.Colours.Success).Render("✓ "+utils.FormatAddressWithName(*e.ResolvedAddress, e.DisplayName)))
		}
	case recipients.AddressInvalid, recipients.AddressNotFound, recipients.AddressLookupFailed:
		parts = append(parts, utils.Fg(utils.Colours.Error).Render("✗ "+utils.TruncateString(errs.UserMessage(e.AddressErr), maxDetailLen)))
	}
	if e.AmountErr != nil {
		parts = append(parts, utils.Fg(utils.Colours.Error).Render("✗ "+utils.TruncateString(errs.UserMessage(e.AmountErr), maxDetailLen)))
	}
	return strings.Join(parts, "  ")
}

func (m *BatchSendModel) renderTotal() string {
	totalStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Text)).
		Bold(true)
	countStyle := utils.Fg(utils.Colours.Muted)

	return totalStyle.Render("Total: "+utils.FormatBalance(m.total.Base, m.unit.Symbol, m.unit.Decimals)) +
		countStyle.Render(fmt.Sprintf("  (%s)", utils.Pluralize(m.total.Count, "valid recipient", "valid recipients")))
}

func (m *BatchSendModel) renderStatus() string {
	st := m.status
	switch st.State {
	case lifecycle.Idle:
		return ""
	case lifecycle.AwaitingSignature, lifecycle.Broadcasting:
		return m.spinner.View() + utils.Fg(utils.Colours.Pending).Render(" "+st.State.String()+"...")
	case lifecycle.Confirming:
		return m.spinner.View() + utils.Fg(utils.Colours.Pending).Render(" Confirming "+utils.FormatTransactionID(st.TxID)) + m.renderTxLink(st.TxID)
	case lifecycle.Confirmed:
		return utils.Fg(utils.Colours.Success).Render("✓ Payment confirmed "+utils.FormatTransactionID(st.TxID)) + m.renderTxLink(st.TxID)
	case lifecycle.Failed:
		return utils.Fg(utils.Colours.Error).Render("✗ " + errs.UserMessage(st.Err))
	default:
		return ""
	}
}

func (m *BatchSendModel) renderTxLink(txID string) string {
	if m.txURL == nil || txID == "" {
		return ""
	}
	url := m.txURL(txID)
	if url == "" {
		return ""
	}
	return "\n" + utils.Fg(utils.Colours.Subtle).Render(url)
}

func (m *BatchSendModel) renderHelpText() string {
	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(utils.Colours.Muted)).
		Italic(true)

	if m.status.State.Pending() {
		return helpStyle.Render("Waiting for the transaction... • Ctrl+C: quit")
	}
	return helpStyle.Render("Tab: next field • Ctrl+N: add recipient • Ctrl+D: remove • Ctrl+S: send • Ctrl+C: quit")
}
