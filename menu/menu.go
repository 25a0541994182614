// Package menu is a terminal layer menu: a radio group of base styles, an
// "all overlays" checkbox and one checkbox per overlay.
package menu

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/khankhulgun/maplayers/maplayer"
	"github.com/khankhulgun/maplayers/models"
)

var (
	colorCyan  = lipgloss.Color("36")
	colorGreen = lipgloss.Color("35")
	colorRed   = lipgloss.Color("167")
	colorDim   = lipgloss.Color("240")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	checkedStyle  = lipgloss.NewStyle().Foreground(colorGreen)
	normalStyle   = lipgloss.NewStyle()
	dimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	errorStyle    = lipgloss.NewStyle().Foreground(colorRed)
)

// DefaultRefresh is how often the menu polls for state while open.
const DefaultRefresh = 500 * time.Millisecond

type stateMsg struct {
	state maplayer.State
	err   error
}

type tickMsg struct{}

// Model is the bubbletea model for the layer menu. Rows are the base styles,
// then the "all" row, then one row per overlay.
type Model struct {
	cmds     Commands
	styles   []models.BaseStyleOption
	state    maplayer.State
	cursor   int
	err      error
	Refresh  time.Duration
	quitting bool
}

func New(cmds Commands) Model {
	return Model{
		cmds:    cmds,
		styles:  models.BaseStyleOptions(),
		Refresh: DefaultRefresh,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(func() error { return nil }), m.tick())
}

func (m Model) tick() tea.Cmd {
	if m.Refresh <= 0 {
		return nil
	}
	return tea.Tick(m.Refresh, func(time.Time) tea.Msg { return tickMsg{} })
}

// fetch runs action and then reads the state back, reporting action's error.
func (m Model) fetch(action func() error) tea.Cmd {
	cmds := m.cmds
	return func() tea.Msg {
		err := action()
		state, stateErr := cmds.State()
		if stateErr != nil {
			return stateMsg{state: state, err: errors.Join(err, stateErr)}
		}
		return stateMsg{state: state, err: err}
	}
}

func (m Model) rows() int {
	return len(m.styles) + 1 + len(m.state.Overlays)
}

func (m Model) allRow() int {
	return len(m.styles)
}

// activate issues the command behind the row under the cursor.
func (m Model) activate() tea.Cmd {
	switch {
	case m.cursor < len(m.styles):
		style := m.styles[m.cursor].Value
		return m.fetch(func() error { return m.cmds.SelectBaseStyle(style) })
	case m.cursor == m.allRow():
		return m.fetch(m.cmds.ToggleAllOverlays)
	default:
		o := m.state.Overlays[m.cursor-m.allRow()-1]
		return m.fetch(func() error { return m.cmds.SetOverlayVisibility(o.ID, !o.Visible) })
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < m.rows()-1 {
				m.cursor++
			}
		case "enter", " ", "space", "x":
			return m, m.activate()
		case "r":
			return m, m.fetch(func() error { return nil })
		}
	case stateMsg:
		m.state = msg.state
		m.err = msg.err
		if m.cursor >= m.rows() {
			m.cursor = m.rows() - 1
		}
	case tickMsg:
		return m, tea.Batch(m.fetch(func() error { return nil }), m.tick())
	}
	return m, nil
}

func (m Model) line(b *strings.Builder, row int, mark, label string, on bool) {
	cursor := "  "
	style := normalStyle
	if on {
		style = checkedStyle
	}
	if row == m.cursor {
		cursor = "▸ "
		style = selectedStyle
	}
	b.WriteString(cursor + style.Render(mark+" "+label) + "\n")
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var b strings.Builder

	b.WriteString(titleStyle.Render("Base style"))
	b.WriteString("\n")
	for i, s := range m.styles {
		on := s.Value == m.state.BaseStyle
		mark := "( )"
		if on {
			mark = "(•)"
		}
		m.line(&b, i, mark, s.Label, on)
	}

	b.WriteString("\n")
	b.WriteString(titleStyle.Render("Overlays"))
	b.WriteString("\n")
	m.line(&b, m.allRow(), checkbox(m.state.AllVisible), "All", m.state.AllVisible)
	for i, o := range m.state.Overlays {
		title := o.Title
		if title == "" {
			title = o.ID
		}
		m.line(&b, m.allRow()+1+i, checkbox(o.Visible), title, o.Visible)
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
	case !m.state.EngineReady:
		b.WriteString(dimStyle.Render("map engine starting"))
	case m.state.Reloading:
		b.WriteString(dimStyle.Render(fmt.Sprintf("loading %s style", m.state.BaseStyle)))
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("↑/↓ navigate  ␣ select  r refresh  q quit"))
	b.WriteString("\n")
	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// Run shows the menu until the user quits.
func Run(cmds Commands, opts ...tea.ProgramOption) error {
	_, err := tea.NewProgram(New(cmds), opts...).Run()
	return err
}
