package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/connector"
)

// Screen is the part of claimscreen.Screen the terminal drives.
type Screen interface {
	View() claimscreen.View
	NewInbox() *claimscreen.Inbox
	ConnectAsync(method connector.Method) <-chan struct{}
	ClaimAsync() <-chan struct{}
	Cancel() bool
	Changed() <-chan struct{}
}

// maxNotes is how many past notifications stay on screen.
const maxNotes = 3

// settledMsg is delivered when a connect or claim started by the model ends.
type settledMsg struct{}

// changedMsg is delivered when the session changed, whoever changed it.
type changedMsg struct{}

// Model renders the claim screen in a terminal.
type Model struct {
	screen   Screen
	inbox    *claimscreen.Inbox
	styles   Styles
	view     claimscreen.View
	notes    []claimscreen.Notification
	cursor   int
	quitting bool
}

func New(screen Screen) Model {
	return Model{
		screen: screen,
		inbox:  screen.NewInbox(),
		styles: DefaultStyles(),
		view:   screen.View(),
	}
}

func (m Model) Init() tea.Cmd {
	return watchChanges(m.screen.Changed())
}

func watchChanges(changed <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-changed
		return changedMsg{}
	}
}

func waitSettled(done <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-done
		return settledMsg{}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case settledMsg:
		m.refresh()
		return m, nil
	case changedMsg:
		// subscribe before reading so no change slips in between
		next := m.screen.Changed()
		m.refresh()
		return m, watchChanges(next)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.screen.Cancel()
		m.quitting = true
		return m, tea.Quit
	case "esc":
		m.screen.Cancel()
		return m, nil
	case "up", "k", "shift+tab":
		if n := len(m.view.ConnectMethods); n > 0 {
			m.cursor = (m.cursor + n - 1) % n
		}
	case "down", "j", "tab":
		if n := len(m.view.ConnectMethods); n > 0 {
			m.cursor = (m.cursor + 1) % n
		}
	case "enter", " ":
		if m.view.Loading {
			return m, nil
		}
		if m.view.CanClaim {
			return m.start(m.screen.ClaimAsync())
		}
		if m.cursor < len(m.view.ConnectMethods) {
			method, err := connector.ParseMethod(m.view.ConnectMethods[m.cursor])
			if err != nil {
				return m, nil
			}
			return m.start(m.screen.ConnectAsync(method))
		}
	}
	return m, nil
}

func (m Model) start(done <-chan struct{}) (tea.Model, tea.Cmd) {
	m.refresh()
	return m, waitSettled(done)
}

func (m *Model) refresh() {
	m.view = m.screen.View()
	m.notes = append(m.notes, m.inbox.Take()...)
	if len(m.notes) > maxNotes {
		m.notes = m.notes[len(m.notes)-maxNotes:]
	}
	if m.cursor >= len(m.view.ConnectMethods) {
		m.cursor = 0
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	s := m.styles
	var b strings.Builder

	b.WriteString(s.Title.Render("Airdrop Token ONET"))
	b.WriteString("\n")

	for _, n := range m.notes {
		style := s.Success
		if n.IsError() {
			style = s.Error
		}
		b.WriteString(style.Render(n.Message))
		b.WriteString("\n")
	}
	if len(m.notes) > 0 {
		b.WriteString("\n")
	}

	v := m.view
	if v.Loading {
		b.WriteString("Memuat...\n")
	}

	switch {
	case v.Account != "":
		b.WriteString("Akun: " + s.Account.Render(v.Account) + "\n")
		if v.Claimed {
			b.WriteString(s.Success.Render("Anda sudah klaim ONET.") + "\n")
		} else if v.CanClaim {
			b.WriteString("\n" + s.Button.Render("Klaim Sekarang") + "\n")
		}
		if v.TxHash != "" {
			b.WriteString(s.Muted.Render(v.TxHash) + "\n")
		}
	case !v.Loading:
		for i, name := range v.ConnectMethods {
			label := name
			if method, err := connector.ParseMethod(name); err == nil {
				label = "Connect with " + method.Label()
			}
			if i == m.cursor {
				b.WriteString(s.Selected.Render(label))
			} else {
				b.WriteString(s.Item.Render(label))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(s.Muted.Render(m.help()))
	return b.String()
}

func (m Model) help() string {
	switch {
	case m.view.Loading:
		return "esc: cancel • q: quit"
	case m.view.CanClaim:
		return "enter: claim • q: quit"
	case len(m.view.ConnectMethods) > 0:
		return "↑/↓: choose wallet • enter: connect • q: quit"
	default:
		return "q: quit"
	}
}

// Run shows the screen until the user quits.
func Run(screen Screen, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(New(screen), opts...).Run()
	return err
}
