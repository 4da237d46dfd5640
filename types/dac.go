package types

// ---- DAC capability ----

// DACInfo is published under hal/cap/.../info as Info.Detail.
type DACInfo struct {
	Bus        string  `json:"bus"`
	CSPin      int     `json:"cs_pin"`
	Resolution uint8   `json:"resolution_bits"`
	MaxVolts   float64 `json:"max_volts"`
}

// DACValue is published under hal/cap/.../value (retained).
type DACValue struct {
	Volts    float64 `json:"volts"`     // last requested output
	Code     uint16  `json:"code"`      // DAC data register
	RefVolts float64 `json:"ref_volts"` // active reference
	Internal bool    `json:"internal"`  // internal reference powered
	Divider  uint8   `json:"divider"`   // 1 or 2
	Gain     uint8   `json:"gain"`      // 1 or 2
	OutputOn bool    `json:"output_on"` // false => output tied to GND
	SyncMode bool    `json:"sync_mode"` // LDAC-triggered updates
}

// Control payloads

// DACSetVoltage requests an output voltage.
type DACSetVoltage struct {
	Volts float64 `json:"volts"`
}

// DACSetReference selects an external reference of Volts, or the internal
// reference when Internal is set.
type DACSetReference struct {
	Volts    float64 `json:"volts,omitempty"`
	Internal bool    `json:"internal,omitempty"`
}

// DACSetFlag drives a single on/off control ("power", "sync", "ldac").
type DACSetFlag struct {
	On bool `json:"on"`
}
