package provider

import (
	"dac80501-go/services/hal/internal/provider/setups"
	"dac80501-go/types"
)

// SelectedPlan and InitialHALConfig are provided via build-tagged files
// (see setup_selected.go / setup_none.go in this package).
var (
	SelectedPlan     setups.ResourcePlan
	InitialHALConfig types.HALConfig
)

const defaultGPIOMax = 29

func gpioMax(plan setups.ResourcePlan) int {
	if plan.GPIOMax > 0 {
		return plan.GPIOMax
	}
	return defaultGPIOMax
}
