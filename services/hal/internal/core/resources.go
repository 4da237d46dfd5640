package core

import (
	"dac80501-go/errcode"

	"tinygo.org/x/drivers"
)

type ResourceID string // e.g. "spi0", "gpio17"

// ---- GPIO handles ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

type GPIOHandle interface {
	Number() int
	ConfigureInput(pull Pull) error
	ConfigureOutput(initial bool) error
	Set(bool)
	Get() bool
}

// ---- Device → HAL telemetry (single shape) ----
// By default, an Event represents a "value-like" update for a capability that
// HAL should publish to .../value (retained). Err, when non-empty, causes HAL
// to publish only .../status=degraded (retained).

type Event struct {
	Addr    CapAddr
	Payload any    // typed value payload (e.g. types.DACValue)
	TSms    int64  // ms timestamp
	Err     string // "io_error","out_of_range",...
}

// ---- Event emission (devices → HAL) ----

type EventEmitter interface {
	// Emit tries to enqueue an Event for HAL publication.
	// It must be non-blocking; false indicates a drop under pressure.
	Emit(ev Event) bool
}

// ---- HAL-injected resources ----

type Resources struct {
	Reg ResourceRegistry
	Pub EventEmitter // provided by HAL; devices use it to emit values/events
}

// ResourceRegistry hands out exclusive claims on buses and pins.
// SPI buses are returned already configured (mode, clock) by the platform.
type ResourceRegistry interface {
	ClaimSPI(devID string, id ResourceID) (drivers.SPI, error)
	ReleaseSPI(devID string, id ResourceID)

	ClaimGPIO(devID string, pin int) (GPIOHandle, error)
	ReleaseGPIO(devID string, pin int)
}

// Claim errors, as bus-facing codes.
var (
	ErrUnknownPin error = errcode.UnknownPin
	ErrPinInUse   error = errcode.PinInUse

	ErrUnknownBus error = errcode.UnknownBus
	ErrBusInUse   error = errcode.Conflict
)
