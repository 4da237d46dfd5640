package core

import (
	"context"
	"sync"

	"dac80501-go/errcode"
	"dac80501-go/types"
)

var (
	regMu    sync.RWMutex
	builders = map[string]Builder{}
)

func RegisterBuilder(typ string, b Builder) {
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := builders[typ]; exists {
		panic("duplicate device builder: " + typ)
	}
	builders[typ] = b
}

func lookupBuilder(typ string) (Builder, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	b, ok := builders[typ]
	return b, ok
}

// BuildDevice builds and initialises one configured device. A device whose
// Init fails is closed so its claims are released.
func BuildDevice(ctx context.Context, dc types.HALDevice, res Resources) (Device, error) {
	b, ok := lookupBuilder(dc.Type)
	if !ok {
		println("[hal] no builder for type:", dc.Type, "id:", dc.ID)
		return nil, errcode.Unsupported
	}
	dev, err := b.Build(ctx, BuilderInput{
		ID:     dc.ID,
		Type:   dc.Type,
		Params: dc.Params,
		Res:    res,
	})
	if err != nil {
		println("[hal] build failed for:", dc.ID, "err:", err.Error())
		return nil, err
	}
	if err := dev.Init(ctx); err != nil {
		println("[hal] init failed for:", dc.ID, "err:", err.Error())
		_ = dev.Close()
		return nil, err
	}
	return dev, nil
}

// BuildAll applies a HAL config, skipping devices that fail. Devices already
// present in have are left untouched.
func BuildAll(ctx context.Context, cfg types.HALConfig, res Resources, have map[string]Device) map[string]Device {
	if have == nil {
		have = map[string]Device{}
	}
	for i := range cfg.Devices {
		dc := cfg.Devices[i]
		if _, exists := have[dc.ID]; exists {
			continue
		}
		dev, err := BuildDevice(ctx, dc, res)
		if err != nil {
			continue
		}
		have[dev.ID()] = dev
	}
	return have
}
