package errcode

import "dac80501-go/drivers/dac80501"

// Code is a stable, bus-facing error identifier.
// It is a string newtype, comparable, allocation-free, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

// Canonical codes (short, stable).
const (
	OK                Code = "ok"
	Busy              Code = "busy"
	Unsupported       Code = "unsupported"
	InvalidParams     Code = "invalid_params"
	InvalidPayload    Code = "invalid_payload"

	UnknownBus Code = "unknown_bus"
	UnknownPin Code = "unknown_pin"
	PinInUse   Code = "pin_in_use"
	Conflict   Code = "conflict"
	OutOfRange Code = "out_of_range"
	IOError    Code = "io_error"
	NotReady   Code = "not_ready"
	Timeout    Code = "timeout"

	Error Code = "error" // generic fallback
)

// Optional wrapper when we want to keep context and a cause.
type E struct {
	C   Code
	Op  string
	Msg string
	Err error
}

func (e *E) Error() string {
	if e.Msg != "" {
		return string(e.C) + ": " + e.Msg
	}
	return string(e.C)
}
func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	if c, ok := err.(Code); ok {
		return c
	}
	type coder interface{ Code() Code }
	if x, ok := err.(coder); ok {
		return x.Code()
	}
	return Error
}

// MapDriverErr maps DAC driver errors to a Code. Bus failures win over
// validation flags since they leave the chip partially updated.
func MapDriverErr(err error) Code {
	if err == nil {
		return OK
	}
	if c := Of(err); c != Error {
		return c
	}
	f := dac80501.Flags(err)
	switch {
	case f&(dac80501.ErrTransport|dac80501.ErrSync) != 0:
		return IOError
	case f&dac80501.ErrDevice != 0:
		return NotReady
	case f&(dac80501.ErrOutVoltage|dac80501.ErrRefVoltage) != 0:
		return OutOfRange
	case f&(dac80501.ErrGain|dac80501.ErrDivider) != 0:
		return InvalidParams
	default:
		return Error
	}
}
