// Package keymap names every addressable light and translates vendor key
// identifiers (scan codes, Logitech bitmap offsets) into those names.
package keymap

import "strconv"

// LED identifies one physical light-emitting location.
type LED string

const None LED = ""

// Extra keys addressed by name instead of by bitmap slot.
const (
	Logo       LED = "LOGO"
	Logo2      LED = "LOGO2"
	Peripheral LED = "PERIPHERAL"
)

// MacroKeys is the number of G-key slots carried by the extra-keys snapshot.
const MacroKeys = 20

const (
	// BitmapSize is the number of packed colors in the whole-surface bitmap.
	BitmapSize = 126
	// BitmapKeyWidth is the byte width of one key in the vendor bitmap offsets.
	BitmapKeyWidth = 4
	bitmapColumns  = 21
)

// G returns the LED name of macro key n (1-based).
func G(n int) LED {
	return LED("G" + strconv.Itoa(n))
}

// Rows of the vendor bitmap, left to right. Empty names are unused slots.
var bitmapRows = [][bitmapColumns]LED{
	{"ESC", "F1", "F2", "F3", "F4", "F5", "F6", "F7", "F8", "F9", "F10", "F11", "F12",
		"PRINT_SCREEN", "SCROLL_LOCK", "PAUSE_BREAK", "", "", "", "", ""},
	{"TILDE", "ONE", "TWO", "THREE", "FOUR", "FIVE", "SIX", "SEVEN", "EIGHT", "NINE", "ZERO",
		"MINUS", "EQUALS", "BACKSPACE", "INSERT", "HOME", "PAGE_UP",
		"NUM_LOCK", "NUM_SLASH", "NUM_ASTERISK", "NUM_MINUS"},
	{"TAB", "Q", "W", "E", "R", "T", "Y", "U", "I", "O", "P",
		"OPEN_BRACKET", "CLOSE_BRACKET", "BACKSLASH", "DELETE", "END", "PAGE_DOWN",
		"NUM_SEVEN", "NUM_EIGHT", "NUM_NINE", "NUM_PLUS"},
	{"CAPS_LOCK", "A", "S", "D", "F", "G", "H", "J", "K", "L", "SEMICOLON", "APOSTROPHE",
		"", "ENTER", "", "", "", "NUM_FOUR", "NUM_FIVE", "NUM_SIX", ""},
	{"LEFT_SHIFT", "", "Z", "X", "C", "V", "B", "N", "M", "COMMA", "PERIOD", "FORWARD_SLASH",
		"", "RIGHT_SHIFT", "", "ARROW_UP", "", "NUM_ONE", "NUM_TWO", "NUM_THREE", "NUM_ENTER"},
	{"LEFT_CONTROL", "LEFT_WINDOWS", "LEFT_ALT", "", "", "SPACE", "", "", "", "", "",
		"RIGHT_ALT", "RIGHT_WINDOWS", "APPLICATION_SELECT", "RIGHT_CONTROL",
		"ARROW_LEFT", "ARROW_DOWN", "ARROW_RIGHT", "NUM_ZERO", "NUM_PERIOD", ""},
}

// Keyboard scan codes as sent by the bitmap protocol's per-key commands.
var scanCodes = map[int]LED{
	0x01: "ESC", 0x3b: "F1", 0x3c: "F2", 0x3d: "F3", 0x3e: "F4", 0x3f: "F5", 0x40: "F6",
	0x41: "F7", 0x42: "F8", 0x43: "F9", 0x44: "F10", 0x57: "F11", 0x58: "F12",
	0x137: "PRINT_SCREEN", 0x46: "SCROLL_LOCK", 0x45: "PAUSE_BREAK",

	0x29: "TILDE", 0x02: "ONE", 0x03: "TWO", 0x04: "THREE", 0x05: "FOUR", 0x06: "FIVE",
	0x07: "SIX", 0x08: "SEVEN", 0x09: "EIGHT", 0x0a: "NINE", 0x0b: "ZERO",
	0x0c: "MINUS", 0x0d: "EQUALS", 0x0e: "BACKSPACE", 0x152: "INSERT", 0x147: "HOME",
	0x149: "PAGE_UP", 0x145: "NUM_LOCK", 0x135: "NUM_SLASH", 0x37: "NUM_ASTERISK", 0x4a: "NUM_MINUS",

	0x0f: "TAB", 0x10: "Q", 0x11: "W", 0x12: "E", 0x13: "R", 0x14: "T", 0x15: "Y", 0x16: "U",
	0x17: "I", 0x18: "O", 0x19: "P", 0x1a: "OPEN_BRACKET", 0x1b: "CLOSE_BRACKET",
	0x2b: "BACKSLASH", 0x153: "DELETE", 0x14f: "END", 0x151: "PAGE_DOWN",
	0x47: "NUM_SEVEN", 0x48: "NUM_EIGHT", 0x49: "NUM_NINE", 0x4e: "NUM_PLUS",

	0x3a: "CAPS_LOCK", 0x1e: "A", 0x1f: "S", 0x20: "D", 0x21: "F", 0x22: "G", 0x23: "H",
	0x24: "J", 0x25: "K", 0x26: "L", 0x27: "SEMICOLON", 0x28: "APOSTROPHE", 0x1c: "ENTER",
	0x4b: "NUM_FOUR", 0x4c: "NUM_FIVE", 0x4d: "NUM_SIX",

	0x2a: "LEFT_SHIFT", 0x2c: "Z", 0x2d: "X", 0x2e: "C", 0x2f: "V", 0x30: "B", 0x31: "N",
	0x32: "M", 0x33: "COMMA", 0x34: "PERIOD", 0x35: "FORWARD_SLASH", 0x36: "RIGHT_SHIFT",
	0x148: "ARROW_UP", 0x4f: "NUM_ONE", 0x50: "NUM_TWO", 0x51: "NUM_THREE", 0x11c: "NUM_ENTER",

	0x1d: "LEFT_CONTROL", 0x15b: "LEFT_WINDOWS", 0x38: "LEFT_ALT", 0x39: "SPACE",
	0x138: "RIGHT_ALT", 0x15c: "RIGHT_WINDOWS", 0x15d: "APPLICATION_SELECT",
	0x11d: "RIGHT_CONTROL", 0x14b: "ARROW_LEFT", 0x150: "ARROW_DOWN", 0x14d: "ARROW_RIGHT",
	0x52: "NUM_ZERO", 0x53: "NUM_PERIOD",

	0xFFF1: "G1", 0xFFF2: "G2", 0xFFF3: "G3", 0xFFF4: "G4", 0xFFF5: "G5",
	0xFFF6: "G6", 0xFFF7: "G7", 0xFFF8: "G8", 0xFFF9: "G9", 0xFFFF1: Logo,
}

var bitmapOffsets = func() map[LED]int {
	m := make(map[LED]int, BitmapSize)
	for r, row := range bitmapRows {
		for c, l := range row {
			if l != None {
				m[l] = (r*bitmapColumns + c) * BitmapKeyWidth
			}
		}
	}
	return m
}()

// BitmapOffset returns the vendor byte offset of l in the bitmap.
func BitmapOffset(l LED) (int, bool) {
	off, ok := bitmapOffsets[l]
	return off, ok
}

// BitmapSlot returns the index of l in the packed-color bitmap buffer.
func BitmapSlot(l LED) (int, bool) {
	off, ok := BitmapOffset(l)
	if !ok {
		return 0, false
	}
	return off / BitmapKeyWidth, true
}

// KeyLED resolves a scan code to the LED it lights.
func KeyLED(code int) (LED, bool) {
	l, ok := scanCodes[code]
	return l, ok
}

// BitmapRows returns the bitmap grid rows; unused slots are None.
func BitmapRows() [][]LED {
	out := make([][]LED, len(bitmapRows))
	for i := range bitmapRows {
		out[i] = append([]LED(nil), bitmapRows[i][:]...)
	}
	return out
}

// ExtraLEDs lists the extra keys in snapshot order: logo, logo2, peripheral, G1..G20.
func ExtraLEDs() []LED {
	out := []LED{Logo, Logo2, Peripheral}
	for i := 1; i <= MacroKeys; i++ {
		out = append(out, G(i))
	}
	return out
}

// Logitech resolves keys with the Logitech bitmap layout and scan-code table.
type Logitech struct{}

func (Logitech) BitmapSlot(l LED) (int, bool) { return BitmapSlot(l) }
func (Logitech) KeyLED(code int) (LED, bool)  { return KeyLED(code) }
