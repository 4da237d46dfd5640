package dac80501

import (
	"time"

	"tinygo.org/x/drivers"
)

// Transport writes one register. The chip cannot be read back over SPI.
type Transport interface {
	WriteRegister(reg byte, val uint16) error
}

// PinOutput drives an output pin to the given logical level.
type PinOutput func(level bool)

// DefaultFrameGap is the SYNC# hold time around each frame.
const DefaultFrameGap = time.Microsecond

// SPITransport frames register writes over a 3-wire SPI bus:
// [reg][data_hi][data_lo], MSB first, with SYNC# held low for the frame.
type SPITransport struct {
	spi   drivers.SPI
	sync  PinOutput
	sleep func(time.Duration)
	gap   time.Duration

	// Fixed buffer to avoid per-call heap allocations.
	w [3]byte
}

// NewSPITransport binds a bus and SYNC# pin. A zero gap uses DefaultFrameGap;
// a nil sleep uses time.Sleep. The bus and pin must already be configured.
func NewSPITransport(spi drivers.SPI, sync PinOutput, gap time.Duration, sleep func(time.Duration)) *SPITransport {
	if gap <= 0 {
		gap = DefaultFrameGap
	}
	if sleep == nil {
		sleep = time.Sleep
	}
	return &SPITransport{spi: spi, sync: sync, sleep: sleep, gap: gap}
}

// Check reports missing collaborators without touching the bus.
func (t *SPITransport) Check() error {
	var e Error
	if t.spi == nil {
		e |= ErrTransport
	}
	if t.sync == nil {
		e |= ErrSync
	}
	if e != 0 {
		return e
	}
	return nil
}

func (t *SPITransport) WriteRegister(reg byte, val uint16) error {
	if err := t.Check(); err != nil {
		return err
	}
	t.w[0] = reg
	t.w[1] = byte(val >> 8) // high
	t.w[2] = byte(val)      // low

	t.sync(false)
	t.sleep(t.gap)
	err := t.spi.Tx(t.w[:], nil)
	t.sync(true)
	t.sleep(t.gap)
	if err != nil {
		return &busError{reg: reg, flags: ErrTransport, err: err}
	}
	return nil
}

// Release leaves SYNC# deasserted (high).
func (t *SPITransport) Release() {
	if t.sync != nil {
		t.sync(true)
		t.sleep(t.gap)
	}
}
