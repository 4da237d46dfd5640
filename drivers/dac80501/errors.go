package dac80501

import "errors"

// Error is a set of independent failure flags. Several may be set at once.
type Error uint8

const (
	ErrDevice     Error = 1 << iota // device missing or closed
	ErrAlloc                        // shadow state unavailable
	ErrTransport                    // SPI bus missing or write failed
	ErrSync                         // SYNC# (chip-select) pin missing
	ErrGain                         // buffer gain not 1 or 2
	ErrDivider                      // reference divider not 1 or 2
	ErrRefVoltage                   // reference voltage out of range
	ErrOutVoltage                   // output voltage out of range
)

var flagNames = [...]string{
	"device",
	"alloc",
	"transport",
	"sync",
	"gain",
	"divider",
	"ref_voltage",
	"out_voltage",
}

func (e Error) Error() string {
	if e == 0 {
		return "dac80501: ok"
	}
	s := "dac80501:"
	sep := " "
	for i, name := range flagNames {
		if e&(1<<i) != 0 {
			s += sep + name
			sep = "|"
		}
	}
	return s
}

// Has reports whether all flags in f are set.
func (e Error) Has(f Error) bool { return f != 0 && e&f == f }

// Is lets errors.Is match any error carrying at least the target flags.
func (e Error) Is(target error) bool {
	t, ok := target.(Error)
	return ok && e.Has(t)
}

// busError pairs transport flags with the underlying bus error.
type busError struct {
	reg   byte
	flags Error
	err   error
}

func (e *busError) Error() string {
	return e.flags.Error() + ": write reg " + hexByte(e.reg) + ": " + e.err.Error()
}

func (e *busError) Unwrap() []error { return []error{e.flags, e.err} }

// Flags extracts the flag set carried by err. nil yields 0; errors that do not
// originate from this driver yield ErrTransport.
func Flags(err error) Error {
	if err == nil {
		return 0
	}
	var be *busError
	if errors.As(err, &be) {
		return be.flags
	}
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return ErrTransport
}

func hexByte(b byte) string {
	const digits = "0123456789abcdef"
	return "0x" + string([]byte{digits[b>>4], digits[b&0x0F]})
}
