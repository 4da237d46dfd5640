// Package dac80501 provides a TinyGo driver for the TI DAC80501 16-bit
// voltage-output DAC in its write-only 3-wire SPI mode.
//
// Design notes (datasheet references):
// • 24-bit frames: register address byte, then the 16-bit value MSB first.
// • SYNC# is active low and frames the write; a rising edge mid-frame aborts it.
// • Internal 2.5 V reference, optional REF/2 divider and 2x output buffer gain.
// • Nothing can be read back, so the driver keeps a shadow of every register.
//
// Callers work in volts: the driver chooses divider/gain for the requested
// output and keeps that output fixed across reference changes and resets.
package dac80501

import (
	"errors"
	"math"
	"time"

	"dac80501-go/x/mathx"

	"tinygo.org/x/drivers"
)

// DefaultSettleTime is the wait before and after a soft reset.
const DefaultSettleTime = time.Millisecond

// Controller is the voltage-level operation set of a DAC80501.
type Controller interface {
	SetOutputVoltage(v float64) error
	SetReferenceVoltage(v float64) error
	SetInternalReferencePower(enabled bool) error
	SetDACPower(disabled bool) error
	SetSyncMode(enabled bool) error
	SetLDAC(enabled bool) error
	SetReferenceDivider(div uint8) error
	SetBufferGain(gain uint8) error
	SoftReset() error
	State() State
	Close() error
}

var _ Controller = (*Device)(nil)

// Config holds driver settings. Zero values select defaults.
type Config struct {
	// DefaultVoltage is applied by Init. Must be within 0..2*InternalVref.
	DefaultVoltage float64
	// SettleTime defaults to DefaultSettleTime.
	SettleTime time.Duration
	// FrameGap is used by NewSPI; defaults to DefaultFrameGap.
	FrameGap time.Duration
	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)

	// Optional hooks run after a successful Init and after Close.
	OnInit  func()
	OnClose func()
}

// State is a snapshot of the shadow registers in voltage terms.
type State struct {
	Ladder           Ladder
	Scaling          Scaling
	RequestedVoltage float64
	Code             uint16
	SyncEnabled      bool
	DACPowered       bool
	RefPowered       bool
	LDAC             bool
}

type lifecycle uint8

const (
	stUninit lifecycle = iota
	stReady
	stResetting
	stClosed
)

// Device is a DAC80501 instance. It is not safe for concurrent use.
type Device struct {
	t      Transport
	sleep  func(time.Duration)
	settle time.Duration
	onInit func()
	onEnd  func()

	st     lifecycle
	ladder Ladder
	vout   float64 // last requested output
	code   uint16

	// Register shadows.
	sync SyncReg
	conf ConfigReg
	gain GainReg
	trig TriggerReg

	defaultV float64
}

// New constructs a Device over t. It does not touch the hardware.
func New(t Transport, cfg Config) *Device {
	d := &Device{
		t:        t,
		sleep:    cfg.Sleep,
		settle:   cfg.SettleTime,
		onInit:   cfg.OnInit,
		onEnd:    cfg.OnClose,
		defaultV: cfg.DefaultVoltage,
	}
	if d.sleep == nil {
		d.sleep = time.Sleep
	}
	if d.settle <= 0 {
		d.settle = DefaultSettleTime
	}
	return d
}

// NewSPI constructs a Device on a configured SPI bus and SYNC# pin.
func NewSPI(spi drivers.SPI, sync PinOutput, cfg Config) *Device {
	return New(NewSPITransport(spi, sync, cfg.FrameGap, cfg.Sleep), cfg)
}

// Init validates the configuration, soft-resets the chip and applies the
// default output voltage.
func (d *Device) Init() error {
	if d == nil || d.st == stClosed {
		return ErrDevice
	}
	if !mathx.Between(d.defaultV, 0, 2*InternalVref) {
		return ErrOutVoltage
	}
	if d.t == nil {
		return ErrTransport
	}
	if c, ok := d.t.(interface{ Check() error }); ok {
		if err := c.Check(); err != nil {
			return err
		}
	}

	d.vout = d.defaultV
	d.resetShadow()
	if err := d.softReset(); err != nil {
		d.st = stUninit
		return err
	}
	if d.onInit != nil {
		d.onInit()
	}
	return nil
}

// Close resets the chip, releases SYNC# and invalidates the device.
func (d *Device) Close() error {
	if err := d.ready(); err != nil {
		return err
	}
	err := d.softReset()
	if r, ok := d.t.(interface{ Release() }); ok {
		r.Release()
	}
	d.st = stClosed
	d.ladder, d.vout, d.code = Ladder{}, 0, 0
	d.sync, d.conf, d.gain, d.trig = 0, 0, 0, 0
	if d.onEnd != nil {
		d.onEnd()
	}
	return err
}

// SetOutputVoltage sets the output to v volts, re-scaling if needed.
func (d *Device) SetOutputVoltage(v float64) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.setOutput(v)
}

// SetReferenceVoltage switches to an external reference of v volts. The
// internal reference is powered down and the last requested output is
// re-applied under the new ladder, so the physical output does not move.
func (d *Device) SetReferenceVoltage(v float64) error {
	if err := d.ready(); err != nil {
		return err
	}
	if !mathx.Between(v, 0, MaxVoltage) {
		return ErrRefVoltage
	}
	if v == d.ladder.One {
		return nil
	}
	if err := d.writeConfig(d.conf.WithRefPowerDown(true)); err != nil {
		return err
	}
	d.ladder = NewLadder(v)
	return d.setOutput(d.vout)
}

// SetInternalReferencePower powers the internal reference up or down.
// Enabling it switches the ladder back to InternalVref.
func (d *Device) SetInternalReferencePower(enabled bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	if err := d.writeConfig(d.conf.WithRefPowerDown(!enabled)); err != nil {
		return err
	}
	if enabled && d.ladder != InternalLadder() {
		d.ladder = InternalLadder()
		return d.setOutput(d.vout)
	}
	return nil
}

// SetDACPower powers the output down (tied to GND through 1 kΩ) or up.
func (d *Device) SetDACPower(disabled bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.writeConfig(d.conf.WithDACPowerDown(disabled))
}

// SetSyncMode selects LDAC-triggered (true) or immediate (false) updates.
func (d *Device) SetSyncMode(enabled bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	r := d.sync.WithSyncEnabled(enabled)
	if err := d.write(regSync, uint16(r)); err != nil {
		return err
	}
	d.sync = r
	return nil
}

// SetLDAC writes the LDAC trigger bit.
func (d *Device) SetLDAC(enabled bool) error {
	if err := d.ready(); err != nil {
		return err
	}
	r := d.trig.WithLDAC(enabled)
	if err := d.write(regTrigger, uint16(r)); err != nil {
		return err
	}
	d.trig = r
	return nil
}

// SetReferenceDivider writes REF_DIV directly (1 or 2). The DAC code is not
// recomputed; the next SetOutputVoltage restores automatic scaling.
func (d *Device) SetReferenceDivider(div uint8) error {
	if err := d.ready(); err != nil {
		return err
	}
	if Divider(div) != Div1 && Divider(div) != Div2 {
		return ErrDivider
	}
	return d.writeGain(d.gain.WithRefDiv2(Divider(div) == Div2))
}

// SetBufferGain writes BUFF_GAIN directly (1 or 2). The DAC code is not
// recomputed; the next SetOutputVoltage restores automatic scaling.
func (d *Device) SetBufferGain(gain uint8) error {
	if err := d.ready(); err != nil {
		return err
	}
	if Gain(gain) != Gain1 && Gain(gain) != Gain2 {
		return ErrGain
	}
	return d.writeGain(d.gain.WithBufferGain2(Gain(gain) == Gain2))
}

// SoftReset returns the chip to its power-on state, restores the internal
// reference and re-applies the last requested output. Power-on output
// differences between chip variants are therefore not visible.
func (d *Device) SoftReset() error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.softReset()
}

// State returns a snapshot of the shadow state. Zero before Init and after Close.
func (d *Device) State() State {
	if d == nil || (d.st != stReady && d.st != stResetting) {
		return State{}
	}
	return State{
		Ladder:           d.ladder,
		Scaling:          d.gain.Scaling(),
		RequestedVoltage: d.vout,
		Code:             d.code,
		SyncEnabled:      d.sync.SyncEnabled(),
		DACPowered:       !d.conf.DACPowerDown(),
		RefPowered:       !d.conf.RefPowerDown(),
		LDAC:             d.trig.LDAC(),
	}
}

// Introspection.
func (d *Device) Ladder() Ladder            { return d.State().Ladder }
func (d *Device) RequestedVoltage() float64 { return d.State().RequestedVoltage }
func (d *Device) Code() uint16              { return d.State().Code }

// ---------------- internals ----------------

func (d *Device) ready() error {
	if d == nil || d.st != stReady {
		return ErrDevice
	}
	return nil
}

func (d *Device) resetShadow() {
	d.ladder = InternalLadder()
	d.sync = syncPOR
	d.conf = configPOR
	d.gain = gainPOR
	d.trig = triggerPOR
	d.code = 0
}

func (d *Device) softReset() error {
	d.st = stResetting
	defer func() { d.st = stReady }()

	d.sleep(d.settle)
	if err := d.write(regTrigger, uint16(d.trig.WithSoftReset(triggerResetCode))); err != nil {
		return err
	}
	d.resetShadow()
	d.sleep(d.settle)
	return d.setOutput(d.vout)
}

func (d *Device) setOutput(v float64) error {
	if math.IsNaN(v) || v < 0 || v > MaxVoltage || v > d.ladder.Two {
		return ErrOutVoltage
	}
	d.vout = v

	s, max, err := Select(v, d.ladder)
	if err != nil {
		return err
	}
	if s != d.gain.Scaling() {
		if err := d.writeGain(PackGain(s)); err != nil {
			return err
		}
	}
	code := Code(v, max)
	if err := d.write(regDAC, code); err != nil {
		return err
	}
	d.code = code
	return nil
}

func (d *Device) writeConfig(r ConfigReg) error {
	if err := d.write(regConfig, uint16(r)); err != nil {
		return err
	}
	d.conf = r
	return nil
}

func (d *Device) writeGain(r GainReg) error {
	if err := d.write(regGain, uint16(r)); err != nil {
		return err
	}
	d.gain = r
	return nil
}

func (d *Device) write(reg byte, val uint16) error {
	err := d.t.WriteRegister(reg, val)
	if err == nil {
		return nil
	}
	var be *busError
	var fe Error
	if errors.As(err, &be) || errors.As(err, &fe) {
		return err
	}
	return &busError{reg: reg, flags: ErrTransport, err: err}
}
