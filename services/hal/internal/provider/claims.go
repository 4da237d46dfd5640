package provider

import "dac80501-go/services/hal/internal/core"

// claimTable records exclusive ownership of buses and pins by device ID.
// Callers hold the registry lock.
type claimTable struct {
	buses map[core.ResourceID]string
	pins  map[int]string
}

func newClaimTable() claimTable {
	return claimTable{
		buses: make(map[core.ResourceID]string),
		pins:  make(map[int]string),
	}
}

// claimBus records (or reaffirms) ownership of a bus.
func (t claimTable) claimBus(devID string, id core.ResourceID) error {
	if owner, taken := t.buses[id]; taken && owner != devID {
		return core.ErrBusInUse
	}
	t.buses[id] = devID
	return nil
}

func (t claimTable) releaseBus(devID string, id core.ResourceID) bool {
	if owner, ok := t.buses[id]; ok && owner == devID {
		delete(t.buses, id)
		return true
	}
	return false
}

func (t claimTable) claimPin(devID string, n int) error {
	if owner, taken := t.pins[n]; taken && owner != devID {
		return core.ErrPinInUse
	}
	t.pins[n] = devID
	return nil
}

func (t claimTable) releasePin(devID string, n int) bool {
	if owner, ok := t.pins[n]; ok && owner == devID {
		delete(t.pins, n)
		return true
	}
	return false
}
