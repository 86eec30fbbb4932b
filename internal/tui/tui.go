// Package tui renders a live table session in the terminal. It is a pure
// observer of session snapshots; user input feeds back through the
// session's command sender.
package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/pokerroom/tableclient/internal/protocol"
	"github.com/pokerroom/tableclient/internal/session"
)

// Model is the Bubble Tea model for watch mode.
type Model struct {
	sess   *session.Session
	logger *log.Logger

	eventLog    viewport.Model
	actionInput textinput.Model

	snap   session.Snapshot
	events []string

	width       int
	height      int
	initialized bool
	quitting    bool
}

type snapshotMsg session.Snapshot

type sessionDoneMsg struct{}

// New creates a watch model bound to a session.
func New(sess *session.Session, logger *log.Logger) *Model {
	vp := viewport.New(10, 5)

	ti := textinput.New()
	ti.Placeholder = "fold | check | call | bet 50 | raise 100 | all-in | ready"
	ti.Focus()
	ti.CharLimit = 60
	ti.Prompt = "> "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)

	return &Model{
		sess:        sess,
		logger:      logger.WithPrefix("tui"),
		eventLog:    vp,
		actionInput: ti,
		snap:        sess.Snapshot(),
	}
}

// Run drives the model until the user quits or the session dies.
func Run(sess *session.Session, logger *log.Logger) error {
	program := tea.NewProgram(New(sess, logger), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

// waitForUpdate blocks on the session's update signal and turns it into a
// Bubble Tea message.
func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.sess.Updates():
			return snapshotMsg(m.sess.Snapshot())
		case <-m.sess.Done():
			return sessionDoneMsg{}
		}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case sessionDoneMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case snapshotMsg:
		m.applySnapshot(session.Snapshot(msg))
		cmds = append(cmds, m.waitForUpdate())

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.eventLog.Width = msg.Width - 4
		m.eventLog.Height = max(3, msg.Height-16)
		m.initialized = true

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			m.submit(strings.TrimSpace(m.actionInput.Value()))
			m.actionInput.SetValue("")
		}
	}

	var cmd tea.Cmd
	m.actionInput, cmd = m.actionInput.Update(msg)
	cmds = append(cmds, cmd)
	m.eventLog, cmd = m.eventLog.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// applySnapshot records what changed for the event log, then replaces the
// rendered snapshot.
func (m *Model) applySnapshot(next session.Snapshot) {
	prev := m.snap

	if next.Conn != prev.Conn {
		m.logEvent(fmt.Sprintf("connection: %s", next.Conn))
	}
	if next.Game.Pot != prev.Game.Pot {
		m.logEvent(fmt.Sprintf("pot is now %d", next.Game.Pot))
	}
	if next.Game.CurrentTurn != prev.Game.CurrentTurn && next.Game.CurrentTurn != "" {
		m.logEvent(fmt.Sprintf("turn: %s", m.nickname(next, next.Game.CurrentTurn)))
	}
	if next.Game.WinnerID != prev.Game.WinnerID && next.Game.WinnerID != "" {
		m.logEvent(fmt.Sprintf("winner: %s", m.nickname(next, next.Game.WinnerID)))
	}

	m.snap = next
	m.eventLog.SetContent(strings.Join(m.events, "\n"))
	m.eventLog.GotoBottom()
}

func (m *Model) nickname(snap session.Snapshot, id string) string {
	for _, p := range snap.Game.Players {
		if p.ID == id {
			return p.Nickname
		}
	}
	return id
}

func (m *Model) logEvent(line string) {
	m.events = append(m.events, line)
	if len(m.events) > 200 {
		m.events = m.events[len(m.events)-200:]
	}
}

// submit parses one input line into a session command.
func (m *Model) submit(input string) {
	if input == "" {
		return
	}
	fields := strings.Fields(input)
	verb := strings.ToLower(fields[0])

	switch verb {
	case "fold", "check", "call", "all-in", "allin":
		if verb == "allin" {
			verb = "all-in"
		}
		m.sess.SendAction(protocol.Activity(verb))
		m.logEvent("sent: " + verb)

	case "bet", "raise":
		if len(fields) < 2 {
			m.logEvent(ErrorStyle.Render(verb + " needs an amount"))
			return
		}
		amount, err := strconv.Atoi(fields[1])
		if err != nil || amount <= 0 {
			m.logEvent(ErrorStyle.Render("bad amount: " + fields[1]))
			return
		}
		m.sess.SendAction(protocol.Activity(verb), amount)
		m.logEvent(fmt.Sprintf("sent: %s %d", verb, amount))

	case "ready":
		m.sess.SendReady(true)
		m.logEvent("sent: ready")

	case "unready", "not-ready":
		m.sess.SendReady(false)
		m.logEvent("sent: not ready")

	default:
		m.logEvent(ErrorStyle.Render("unknown command: " + verb))
	}
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.initialized {
		return "Connecting..."
	}

	var b strings.Builder

	header := fmt.Sprintf(" Room %s — %s — %s ",
		m.snap.Game.RoomID, orDash(string(m.snap.Game.Status)), m.snap.Conn)
	b.WriteString(HeaderStyle.Render(header))
	b.WriteString("\n\n")

	b.WriteString(PotStyle.Render(fmt.Sprintf("Pot: %d", m.snap.Game.Pot)))
	b.WriteString("   Board: ")
	b.WriteString(m.renderCards(m.snap.Game.CommunityCards))
	b.WriteString("\n\n")

	b.WriteString(m.renderPlayers())
	b.WriteString("\n")

	b.WriteString("Your hand: ")
	b.WriteString(m.renderCards(m.snap.MyCards))
	b.WriteString("\n")

	if len(m.snap.AvailableActions) > 0 {
		b.WriteString(ActionsStyle.Render("Your turn: " + strings.Join(m.snap.AvailableActions, ", ")))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	b.WriteString(m.eventLog.View())
	b.WriteString("\n")
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")
	b.WriteString(StatusStyle.Render("enter to send · esc to quit"))

	return b.String()
}

func (m *Model) renderPlayers() string {
	if len(m.snap.Game.Players) == 0 {
		return StatusStyle.Render("no players seated") + "\n"
	}

	var b strings.Builder
	for _, p := range m.snap.Game.Players {
		line := fmt.Sprintf("%-16s %6d chips", p.Nickname, p.Chips)

		switch {
		case p.HasFolded:
			line = FoldedStyle.Render(line)
		case p.ID == m.snap.Game.WinnerID:
			line = WinnerStyle.Render(line + "  🏆")
		case p.ID == m.snap.Game.CurrentTurn:
			line = TurnStyle.Render(line + "  ◀ turn")
		}

		if ready, ok := m.snap.ReadyStatus[p.ID]; ok && ready {
			line += ReadyStyle.Render("  ✓ ready")
		}

		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderCards(cards []string) string {
	if len(cards) == 0 {
		return StatusStyle.Render("—")
	}
	rendered := make([]string, len(cards))
	for i, c := range cards {
		rendered[i] = renderCard(c)
	}
	return strings.Join(rendered, " ")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
