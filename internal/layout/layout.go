package layout

import "github.com/coreman2200/lightwrap/internal/keymap"

// Layout is the physical arrangement of a device: a grid of keys plus a row of
// extra zones. Index order is row-major over the grid followed by the extras.
type Layout struct {
	Rows   [][]keymap.LED
	Extras []keymap.LED

	index map[keymap.LED]int
	pos   map[keymap.LED]Point
	leds  []keymap.LED
}

// Point is a grid cell; extras sit on the row below the last grid row.
type Point struct{ X, Y int }

func New(rows [][]keymap.LED, extras []keymap.LED) *Layout {
	l := &Layout{
		Rows:   rows,
		Extras: extras,
		index:  map[keymap.LED]int{},
		pos:    map[keymap.LED]Point{},
	}
	for y, row := range rows {
		for x, led := range row {
			l.add(led, Point{X: x, Y: y})
		}
	}
	for x, led := range extras {
		l.add(led, Point{X: x, Y: len(rows)})
	}
	return l
}

// Keyboard is the full-size bitmap keyboard with logo, peripheral and macro keys.
func Keyboard() *Layout {
	return New(keymap.BitmapRows(), keymap.ExtraLEDs())
}

func (l *Layout) add(led keymap.LED, p Point) {
	if led == keymap.None {
		return
	}
	if _, dup := l.index[led]; dup {
		return
	}
	l.index[led] = len(l.leds)
	l.pos[led] = p
	l.leds = append(l.leds, led)
}

// Index maps an LED to its linear output index.
func (l *Layout) Index(led keymap.LED) (int, bool) {
	i, ok := l.index[led]
	return i, ok
}

func (l *Layout) Position(led keymap.LED) (Point, bool) {
	p, ok := l.pos[led]
	return p, ok
}

// LEDs returns every known LED in index order.
func (l *Layout) LEDs() []keymap.LED {
	return append([]keymap.LED(nil), l.leds...)
}

func (l *Layout) Count() int {
	return len(l.leds)
}

// Size returns the grid width and height including the extras row.
func (l *Layout) Size() (w, h int) {
	for _, row := range l.Rows {
		if len(row) > w {
			w = len(row)
		}
	}
	if len(l.Extras) > w {
		w = len(l.Extras)
	}
	h = len(l.Rows)
	if len(l.Extras) > 0 {
		h++
	}
	return w, h
}
