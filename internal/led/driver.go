package led

import "github.com/rs/zerolog/log"

// Driver abstracts an LED output sink.
type Driver interface {
	// Write pushes an RGB frame to hardware. len(rgb) must be 3*N.
	Write(rgb []byte) error
	// Close releases resources.
	Close() error
}

// Sim is a hardware-free sink that counts frames and keeps the last one.
type Sim struct {
	Count int
	last  []byte
}

func NewSim() *Sim { return &Sim{} }

func (s *Sim) Write(rgb []byte) error {
	s.Count++
	s.last = append(s.last[:0], rgb...)
	if s.Count%600 == 1 {
		log.Debug().Int("frame", s.Count).Int("bytes", len(rgb)).Msg("sim frame")
	}
	return nil
}

// Last returns the most recent frame.
func (s *Sim) Last() []byte { return s.last }

func (s *Sim) Close() error { return nil }

// Reorder maps an RGB triple onto a wire color order such as "GRB".
// Unknown letters fall back to green; orders that are not three letters leave the triple as is.
func Reorder(order string, r, g, b byte) (byte, byte, byte) {
	if len(order) != 3 {
		return r, g, b
	}
	var v [3]byte
	for i := 0; i < 3; i++ {
		switch order[i] {
		case 'R':
			v[i] = r
		case 'G':
			v[i] = g
		case 'B':
			v[i] = b
		default:
			v[i] = g
		}
	}
	return v[0], v[1], v[2]
}
