package dac80501

// Register addresses. SPI mode is write-only; DEVID and STATUS are listed
// for completeness but never written by this driver.
const (
	regNoop    = 0x00
	regDevID   = 0x01
	regSync    = 0x02
	regConfig  = 0x03
	regGain    = 0x04
	regTrigger = 0x05
	regStatus  = 0x07
	regDAC     = 0x08
)

// Bit positions.
const (
	// SYNC
	bitDACSyncEn = 0

	// CONFIG
	bitDACPwdwn = 0
	bitRefPwdwn = 8

	// GAIN
	bitBuffGain = 0
	bitRefDiv   = 8

	// TRIGGER
	maskSoftReset = 0x000F
	bitLDAC       = 4

	// STATUS
	bitRefAlarm = 0

	// DEVID
	bitRstSel        = 7
	shiftResolution  = 12
	maskResolution   = 0x7
	triggerResetCode = 0b1010
)

// Power-on register values restored by a soft reset.
const (
	syncPOR    SyncReg    = 0x0000
	configPOR  ConfigReg  = 0x0000
	gainPOR    GainReg    = 0x0001
	triggerPOR TriggerReg = 0x0000
)

func bit(v uint16, n uint) bool { return v&(1<<n) != 0 }

func withBit(v uint16, n uint, on bool) uint16 {
	if on {
		return v | 1<<n
	}
	return v &^ (1 << n)
}

// SyncReg is the SYNC register (0x02).
type SyncReg uint16

func (r SyncReg) SyncEnabled() bool { return bit(uint16(r), bitDACSyncEn) }

func (r SyncReg) WithSyncEnabled(on bool) SyncReg {
	return SyncReg(withBit(uint16(r), bitDACSyncEn, on))
}

// ConfigReg is the CONFIG register (0x03).
type ConfigReg uint16

func (r ConfigReg) DACPowerDown() bool { return bit(uint16(r), bitDACPwdwn) }
func (r ConfigReg) RefPowerDown() bool { return bit(uint16(r), bitRefPwdwn) }

func (r ConfigReg) WithDACPowerDown(on bool) ConfigReg {
	return ConfigReg(withBit(uint16(r), bitDACPwdwn, on))
}

func (r ConfigReg) WithRefPowerDown(on bool) ConfigReg {
	return ConfigReg(withBit(uint16(r), bitRefPwdwn, on))
}

// GainReg is the GAIN register (0x04). BUFF_GAIN=1 selects 2x output gain,
// REF_DIV=1 divides the reference by two.
type GainReg uint16

func (r GainReg) BufferGain2() bool { return bit(uint16(r), bitBuffGain) }
func (r GainReg) RefDiv2() bool     { return bit(uint16(r), bitRefDiv) }

func (r GainReg) WithBufferGain2(on bool) GainReg {
	return GainReg(withBit(uint16(r), bitBuffGain, on))
}

func (r GainReg) WithRefDiv2(on bool) GainReg {
	return GainReg(withBit(uint16(r), bitRefDiv, on))
}

// Scaling decodes the divider/gain pair.
func (r GainReg) Scaling() Scaling {
	s := Scaling{Divider: Div1, Gain: Gain1}
	if r.RefDiv2() {
		s.Divider = Div2
	}
	if r.BufferGain2() {
		s.Gain = Gain2
	}
	return s
}

// PackGain encodes s into a GAIN register value.
func PackGain(s Scaling) GainReg {
	var r GainReg
	return r.WithRefDiv2(s.Divider == Div2).WithBufferGain2(s.Gain == Gain2)
}

// TriggerReg is the TRIGGER register (0x05).
type TriggerReg uint16

func (r TriggerReg) SoftReset() uint8 { return uint8(uint16(r) & maskSoftReset) }
func (r TriggerReg) LDAC() bool       { return bit(uint16(r), bitLDAC) }

func (r TriggerReg) WithSoftReset(code uint8) TriggerReg {
	return TriggerReg(uint16(r)&^maskSoftReset | uint16(code)&maskSoftReset)
}

func (r TriggerReg) WithLDAC(on bool) TriggerReg {
	return TriggerReg(withBit(uint16(r), bitLDAC, on))
}

// StatusReg is the STATUS register (0x07). Decode only.
type StatusReg uint16

func (r StatusReg) RefAlarm() bool { return bit(uint16(r), bitRefAlarm) }

// DevIDReg is the DEVID register (0x01). Decode only.
type DevIDReg uint16

func (r DevIDReg) ResetToMidscale() bool { return bit(uint16(r), bitRstSel) }
func (r DevIDReg) Resolution() uint8 {
	return uint8((uint16(r) >> shiftResolution) & maskResolution)
}
