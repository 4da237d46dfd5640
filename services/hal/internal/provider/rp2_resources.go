//go:build rp2040 || rp2350

package provider

import (
	"machine"
	"sync"
	"time"

	"dac80501-go/services/hal/internal/core"
	"dac80501-go/services/hal/internal/provider/setups"

	"tinygo.org/x/drivers"
)

var _ core.ResourceRegistry = (*rp2Registry)(nil)

// -----------------------------------------------------------------------------
// GPIO handle
// -----------------------------------------------------------------------------

type rp2GPIO struct {
	p machine.Pin
	n int
}

func (r *rp2GPIO) Number() int { return r.n }

func (r *rp2GPIO) ConfigureInput(pull core.Pull) error {
	var mode machine.PinMode
	switch pull {
	case core.PullUp:
		mode = machine.PinInputPullup
	case core.PullDown:
		mode = machine.PinInputPulldown
	default:
		mode = machine.PinInput
	}
	r.p.Configure(machine.PinConfig{Mode: mode})
	return nil
}

func (r *rp2GPIO) ConfigureOutput(initial bool) error {
	// Latch the level before switching direction so SYNC# never glitches low.
	r.p.Set(initial)
	r.p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	r.p.Set(initial)
	return nil
}

func (r *rp2GPIO) Set(b bool) { r.p.Set(b) }
func (r *rp2GPIO) Get() bool  { return r.p.Get() }

// -----------------------------------------------------------------------------
// Resource registry (GPIO + SPI)
// -----------------------------------------------------------------------------

type rp2Registry struct {
	mu sync.Mutex

	claims    claimTable
	gpioMap   map[int]*rp2GPIO // pin -> GPIO view (cached)
	spiOwners map[core.ResourceID]*spiOwner
	gpioMax   int
}

// NewResources constructs the registry from the selected plan.
func NewResources(pub core.EventEmitter) core.Resources {
	return core.Resources{Reg: NewResourceRegistry(SelectedPlan), Pub: pub}
}

func NewResourceRegistry(plan setups.ResourcePlan) *rp2Registry {
	r := &rp2Registry{
		claims:    newClaimTable(),
		gpioMap:   make(map[int]*rp2GPIO),
		spiOwners: make(map[core.ResourceID]*spiOwner),
		gpioMax:   gpioMax(plan),
	}

	for _, p := range plan.SPI {
		var hw *machine.SPI
		switch p.ID {
		case "spi0":
			hw = machine.SPI0
		case "spi1":
			hw = machine.SPI1
		default:
			continue
		}
		cfg := machine.SPIConfig{
			Frequency: p.Hz,
			SCK:       machine.Pin(p.SCK),
			SDO:       machine.Pin(p.SDO),
			SDI:       machine.NoPin,
			Mode:      p.Mode,
		}
		if p.SDI >= 0 {
			cfg.SDI = machine.Pin(p.SDI)
		}
		if err := hw.Configure(cfg); err != nil {
			println("[hal] spi configure failed:", p.ID, err.Error())
			continue
		}
		r.spiOwners[core.ResourceID(p.ID)] = newSPIOwner(core.ResourceID(p.ID), hw)
	}
	return r
}

func (r *rp2Registry) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.spiOwners[id]
	if o == nil {
		return nil, core.ErrUnknownBus
	}
	if err := r.claims.claimBus(devID, id); err != nil {
		return nil, err
	}
	return &driversSPI{o: o, timeout: 250 * time.Millisecond}, nil
}

func (r *rp2Registry) ReleaseSPI(devID string, id core.ResourceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims.releaseBus(devID, id)
}

func (r *rp2Registry) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 || n > r.gpioMax {
		return nil, core.ErrUnknownPin
	}
	if err := r.claims.claimPin(devID, n); err != nil {
		return nil, err
	}
	g, ok := r.gpioMap[n]
	if !ok {
		g = &rp2GPIO{p: machine.Pin(n), n: n}
		r.gpioMap[n] = g
	}
	return g, nil
}

func (r *rp2Registry) ReleaseGPIO(devID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claims.releasePin(devID, n) {
		// Put the pin back to input.
		machine.Pin(n).Configure(machine.PinConfig{Mode: machine.PinInput})
	}
}

// Close stops the per-bus SPI workers.
func (r *rp2Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.spiOwners {
		o.stop()
	}
}
