package provider

import (
	"sync"

	"dac80501-go/services/hal/internal/core"
	"dac80501-go/services/hal/internal/provider/setups"

	"tinygo.org/x/drivers"
)

var _ core.ResourceRegistry = (*SimRegistry)(nil)

// SimSPI is an in-memory SPI controller that records every frame written.
// Reads return zeros.
type SimSPI struct {
	mu     sync.Mutex
	frames [][]byte
}

func (s *SimSPI) Tx(w, r []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(w) > 0 {
		s.frames = append(s.frames, append([]byte(nil), w...))
	}
	for i := range r {
		r[i] = 0
	}
	return nil
}

// Frames returns a copy of the frames written so far.
func (s *SimSPI) Frames() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.frames))
	copy(out, s.frames)
	return out
}

type simGPIO struct {
	mu     sync.Mutex
	n      int
	level  bool
	output bool
}

func (g *simGPIO) Number() int { return g.n }

func (g *simGPIO) ConfigureInput(core.Pull) error {
	g.mu.Lock()
	g.output = false
	g.mu.Unlock()
	return nil
}

func (g *simGPIO) ConfigureOutput(initial bool) error {
	g.mu.Lock()
	g.output, g.level = true, initial
	g.mu.Unlock()
	return nil
}

func (g *simGPIO) Set(b bool) {
	g.mu.Lock()
	g.level = b
	g.mu.Unlock()
}

func (g *simGPIO) Get() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.level
}

// SimRegistry hands out simulated SPI buses and GPIO pins with the same
// ownership rules as the hardware providers. Bus traffic still goes through
// a per-bus worker.
type SimRegistry struct {
	mu sync.Mutex

	claims  claimTable
	buses   map[core.ResourceID]*SimSPI
	owners  map[core.ResourceID]*spiOwner
	pins    map[int]*simGPIO
	gpioMax int
}

func NewSimRegistry(plan setups.ResourcePlan) *SimRegistry {
	r := &SimRegistry{
		claims:  newClaimTable(),
		buses:   make(map[core.ResourceID]*SimSPI),
		owners:  make(map[core.ResourceID]*spiOwner),
		pins:    make(map[int]*simGPIO),
		gpioMax: gpioMax(plan),
	}
	for _, p := range plan.SPI {
		id := core.ResourceID(p.ID)
		bus := &SimSPI{}
		r.buses[id] = bus
		r.owners[id] = newSPIOwner(id, bus)
	}
	return r
}

// Bus returns the simulated controller behind id, or nil.
func (r *SimRegistry) Bus(id core.ResourceID) *SimSPI {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buses[id]
}

// Level reports the last driven level of pin n.
func (r *SimRegistry) Level(n int) bool {
	r.mu.Lock()
	g := r.pins[n]
	r.mu.Unlock()
	return g != nil && g.Get()
}

func (r *SimRegistry) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := r.owners[id]
	if o == nil {
		return nil, core.ErrUnknownBus
	}
	if err := r.claims.claimBus(devID, id); err != nil {
		return nil, err
	}
	return &driversSPI{o: o}, nil
}

func (r *SimRegistry) ReleaseSPI(devID string, id core.ResourceID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.claims.releaseBus(devID, id)
}

func (r *SimRegistry) ClaimGPIO(devID string, n int) (core.GPIOHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n < 0 || n > r.gpioMax {
		return nil, core.ErrUnknownPin
	}
	if err := r.claims.claimPin(devID, n); err != nil {
		return nil, err
	}
	g, ok := r.pins[n]
	if !ok {
		g = &simGPIO{n: n}
		r.pins[n] = g
	}
	return g, nil
}

func (r *SimRegistry) ReleaseGPIO(devID string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.claims.releasePin(devID, n) {
		if g := r.pins[n]; g != nil {
			_ = g.ConfigureInput(core.PullNone)
		}
	}
}

func (r *SimRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.owners {
		o.stop()
	}
}
