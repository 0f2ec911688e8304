package led

import (
	"fmt"
	"io"
	"sync"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPIConfig selects the spidev port and the NRZ encoding parameters.
type SPIConfig struct {
	Dev        string // "" opens the first registered port
	FreqKHz    int
	ColorOrder string // order the strip expects relative to RGB input; "" or "RGB" passes through
}

// SPI drives WS281x-style strips through periph's NRZ encoder over spidev.
type SPI struct {
	mu     sync.Mutex
	port   io.Closer
	dev    *nrzled.Dev
	count  int
	order  string
	buf    []byte
	halted bool
}

// NewSPI initializes the host, opens the SPI port and prepares an NRZ device for count LEDs.
func NewSPI(cfg SPIConfig, count int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid LED count: %d", count)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(cfg.Dev)
	if err != nil {
		return nil, fmt.Errorf("open spi port %q: %w", cfg.Dev, err)
	}
	s, err := newSPI(p, cfg, count)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	s.port = p
	return s, nil
}

func newSPI(p spi.Port, cfg SPIConfig, count int) (*SPI, error) {
	freq := cfg.FreqKHz
	if freq <= 0 {
		freq = 2500
	}
	d, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      physic.Frequency(freq) * physic.KiloHertz,
	})
	if err != nil {
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{dev: d, count: count, order: cfg.ColorOrder, buf: make([]byte, count*3)}, nil
}

func (s *SPI) String() string { return s.dev.String() }

// Write takes len(rgb)==3*count.
func (s *SPI) Write(rgb []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return fmt.Errorf("spi closed")
	}
	if len(rgb) != s.count*3 {
		return fmt.Errorf("rgb length %d does not match count %d", len(rgb), s.count)
	}
	for i := 0; i < s.count; i++ {
		s.buf[i*3], s.buf[i*3+1], s.buf[i*3+2] = Reorder(s.order, rgb[i*3], rgb[i*3+1], rgb[i*3+2])
	}
	if _, err := s.dev.Write(s.buf); err != nil {
		return fmt.Errorf("spi write: %w", err)
	}
	return nil
}

// Close blanks the strip and releases the port.
func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted {
		return nil
	}
	s.halted = true
	err := s.dev.Halt()
	if s.port != nil {
		if cerr := s.port.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
