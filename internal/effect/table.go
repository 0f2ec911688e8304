package effect

import (
	"sort"
	"time"

	"github.com/coreman2200/lightwrap/internal/keymap"
)

// Table holds at most one KeyEffect per LED.
type Table struct {
	m map[keymap.LED]KeyEffect
}

func NewTable() *Table {
	return &Table{m: map[keymap.LED]KeyEffect{}}
}

// Put adds e, replacing any effect already bound to the same LED.
func (t *Table) Put(e KeyEffect) {
	t.m[e.LED] = e
}

func (t *Table) Get(l keymap.LED) (KeyEffect, bool) {
	e, ok := t.m[l]
	return e, ok
}

func (t *Table) Clear() {
	t.m = map[keymap.LED]KeyEffect{}
}

func (t *Table) Len() int { return len(t.m) }

// Live evicts every expired effect and returns the rest ordered by LED.
func (t *Table) Live(now time.Time) []KeyEffect {
	out := make([]KeyEffect, 0, len(t.m))
	for l, e := range t.m {
		if e.Expired(now) {
			delete(t.m, l)
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LED < out[j].LED })
	return out
}
