//go:build !(rp2040 || rp2350)

package provider

import (
	"dac80501-go/services/hal/internal/core"
	"dac80501-go/services/hal/internal/provider/setups"
)

// NewResources constructs a simulated registry from the selected plan.
// Without a board setup, a single spi0 bus is provided.
func NewResources(pub core.EventEmitter) core.Resources {
	plan := SelectedPlan
	if len(plan.SPI) == 0 {
		plan.SPI = []setups.SPIPlan{{ID: "spi0", SDI: -1}}
	}
	return core.Resources{Reg: NewSimRegistry(plan), Pub: pub}
}
