//go:build pico && pico_dac_dev

package setups

import (
	dac80501dev "dac80501-go/services/hal/devices/dac80501"
	"dac80501-go/types"
)

var SelectedPlan = ResourcePlan{
	SPI: []SPIPlan{
		// DAC80501 samples SDIN on the falling edge of SCLK (mode 1).
		{ID: "spi0", SCK: 18, SDO: 19, SDI: -1, Hz: 10_000_000, Mode: 1},
	},
	GPIOMax: 29,
}

var SelectedSetup = types.HALConfig{
	Devices: []types.HALDevice{
		// Bias output; SYNC# on GP17.
		{ID: "dac0", Type: "dac80501", Params: dac80501dev.Params{
			Bus:          "spi0",
			CSPin:        17,
			DefaultVolts: 0,
			Domain:       "io",
			Name:         "bias",
		}},
	},
}
