package led

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/coreman2200/lightwrap/internal/layout"
)

const cellWidth = 3

// Terminal previews frames as colored blocks laid out like the keyboard.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
	lay    *layout.Layout
	own    bool
}

// NewTerminal opens the controlling terminal.
func NewTerminal(l *layout.Layout) (*Terminal, error) {
	s, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	if err := s.Init(); err != nil {
		return nil, fmt.Errorf("terminal init: %w", err)
	}
	t := NewTerminalScreen(s, l)
	t.own = true
	return t, nil
}

// NewTerminalScreen draws onto an already initialized screen.
func NewTerminalScreen(s tcell.Screen, l *layout.Layout) *Terminal {
	return &Terminal{screen: s, lay: l}
}

// Screen exposes the underlying screen for event polling.
func (t *Terminal) Screen() tcell.Screen { return t.screen }

func (t *Terminal) Write(rgb []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(rgb) != t.lay.Count()*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), t.lay.Count())
	}
	for i, l := range t.lay.LEDs() {
		p, _ := t.lay.Position(l)
		st := CellStyle(rgb[i*3], rgb[i*3+1], rgb[i*3+2])
		for dx := 0; dx < cellWidth-1; dx++ {
			t.screen.SetContent(p.X*cellWidth+dx, p.Y, ' ', nil, st)
		}
	}
	t.screen.Show()
	return nil
}

// Interrupts polls terminal events and closes the returned channel on Esc, Ctrl-C or q.
func (t *Terminal) Interrupts() <-chan struct{} {
	ch := make(chan struct{})
	go func() {
		defer close(ch)
		for {
			switch ev := t.screen.PollEvent().(type) {
			case nil:
				return
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEsc || ev.Key() == tcell.KeyCtrlC || ev.Rune() == 'q' {
					return
				}
			case *tcell.EventResize:
				t.screen.Sync()
			}
		}
	}()
	return ch
}

func (t *Terminal) Close() error {
	if t.own {
		t.screen.Fini()
	}
	return nil
}

// CellStyle paints a cell background with the LED color.
func CellStyle(r, g, b byte) tcell.Style {
	return tcell.StyleDefault.Background(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}
