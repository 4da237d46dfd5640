//go:build !(pico && pico_dac_dev)

package provider

import "dac80501-go/services/hal/internal/provider/setups"

func init() {
	SelectedPlan = setups.ResourcePlan{}
	// InitialHALConfig left zero-value (no devices).
}
