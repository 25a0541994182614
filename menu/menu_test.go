package menu

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/khankhulgun/maplayers/engine/enginetest"
	"github.com/khankhulgun/maplayers/maplayer"
	"github.com/khankhulgun/maplayers/models"
)

func trees(visible bool) models.OverlayLayer {
	return models.OverlayLayer{
		ID:      "routeLayer",
		Title:   "Trees",
		Source:  json.RawMessage(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`),
		Style:   models.OverlayStyle{Type: "line"},
		Visible: visible,
	}
}

func newLocal(t *testing.T) (*maplayer.Controller, *enginetest.Fake) {
	t.Helper()
	c, err := maplayer.NewController(maplayer.Options{
		Overlays: []models.OverlayLayer{trees(true)},
		Logger:   log.New(io.Discard),
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	f := enginetest.New()
	c.Init(f.Factory(nil))
	f.FireStyleReady()
	return c, f
}

// drive feeds msg to m and runs the resulting command chain until it settles.
func drive(m tea.Model, msg tea.Msg) Model {
	next, cmd := m.Update(msg)
	for cmd != nil {
		sm, ok := cmd().(stateMsg)
		if !ok {
			break
		}
		next, cmd = next.Update(sm)
	}
	return next.(Model)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func open(c *maplayer.Controller) Model {
	m := New(Local{c})
	m.Refresh = 0
	return drive(m, key("r"))
}

func moveTo(m Model, row int) Model {
	for m.cursor > row {
		m = drive(m, key("up"))
	}
	for m.cursor < row {
		m = drive(m, key("down"))
	}
	return m
}

func TestViewRendersState(t *testing.T) {
	c, _ := newLocal(t)
	view := open(c).View()

	for _, want := range []string{"(•) Satellite", "( ) Dark", "[x] All", "[x] Trees"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSelectBaseStyle(t *testing.T) {
	c, f := newLocal(t)
	m := open(c)

	m = moveTo(m, 4)
	m = drive(m, key(" "))

	if got := c.BaseStyle(); got != models.Dark {
		t.Fatalf("base style = %s, want dark", got)
	}
	if !strings.Contains(m.View(), "loading dark style") {
		t.Errorf("view should report the pending reload:\n%s", m.View())
	}

	// commands during the swap are dropped and reported
	m = moveTo(m, m.allRow()+1)
	m = drive(m, key("enter"))
	if !errors.Is(m.err, maplayer.ErrReconciling) {
		t.Errorf("err = %v, want ErrReconciling", m.err)
	}

	f.FireStyleReady()
	m = drive(m, key("r"))
	if m.err != nil || strings.Contains(m.View(), "loading") {
		t.Errorf("view after style load:\n%s", m.View())
	}
	if !strings.Contains(m.View(), "(•) Dark") {
		t.Errorf("dark should be selected:\n%s", m.View())
	}
}

func TestToggleOverlay(t *testing.T) {
	c, f := newLocal(t)
	m := open(c)

	m = moveTo(m, m.allRow()+1)
	m = drive(m, key("x"))

	if got := f.Visibility("routeLayer"); got != models.None {
		t.Errorf("engine visibility = %q, want none", got)
	}
	view := m.View()
	if !strings.Contains(view, "[ ] Trees") || !strings.Contains(view, "[ ] All") {
		t.Errorf("view after hiding:\n%s", view)
	}

	m = moveTo(m, m.allRow())
	m = drive(m, key(" "))
	if got := f.Visibility("routeLayer"); got != models.Visible {
		t.Errorf("engine visibility after toggle all = %q, want visible", got)
	}
	if !c.AllVisible() {
		t.Error("aggregate should be visible again")
	}
}

func TestCursorStaysInRange(t *testing.T) {
	c, _ := newLocal(t)
	m := open(c)

	m = drive(m, key("up"))
	if m.cursor != 0 {
		t.Errorf("cursor = %d, want 0", m.cursor)
	}
	for i := 0; i < 20; i++ {
		m = drive(m, key("j"))
	}
	if want := m.rows() - 1; m.cursor != want {
		t.Errorf("cursor = %d, want %d", m.cursor, want)
	}
}

func TestQuit(t *testing.T) {
	c, _ := newLocal(t)
	next, cmd := open(c).Update(key("q"))
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
	if next.View() != "" {
		t.Error("view should be empty after quitting")
	}
}
