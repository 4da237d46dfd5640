package dac80501dev

import (
	"context"
	"sync"

	"dac80501-go/drivers/dac80501"
	"dac80501-go/errcode"
	"dac80501-go/services/hal/internal/core"
	"dac80501-go/types"
	"dac80501-go/x/timex"
)

type Params struct {
	Bus          string  `json:"bus"`
	CSPin        int     `json:"cs_pin"`
	DefaultVolts float64 `json:"default_volts"`
	RefVolts     float64 `json:"ref_volts,omitempty"` // 0 => internal reference
	Sync         bool    `json:"sync,omitempty"`
	Domain       string  `json:"domain,omitempty"`
	Name         string  `json:"name,omitempty"`
}

// Driver is what the adaptor needs from the chip driver.
type Driver interface {
	dac80501.Controller
	Init() error
}

// Device exposes one DAC80501 as an io/dac/<name> capability. Control calls
// are serialised; the driver itself is single-owner.
type Device struct {
	id      string
	params  Params
	pub     core.EventEmitter
	addr    core.CapAddr
	release func()

	mu  sync.Mutex
	dac Driver
}

func New(id string, p Params, drv Driver, pub core.EventEmitter, release func()) *Device {
	d := &Device{
		id:      id,
		params:  p,
		pub:     pub,
		release: release,
		dac:     drv,
	}
	domain := p.Domain
	if domain == "" {
		domain = "io"
	}
	name := p.Name
	if name == "" {
		name = id
	}
	d.addr = core.CapAddr{Domain: domain, Kind: string(types.KindDAC), Name: name}
	return d
}

func (d *Device) ID() string { return d.id }

func (d *Device) Capabilities() []core.CapabilitySpec {
	return []core.CapabilitySpec{{
		Domain: d.addr.Domain,
		Kind:   types.KindDAC,
		Name:   d.addr.Name,
		Info: types.Info{
			SchemaVersion: 1,
			Driver:        "dac80501",
			Detail: types.DACInfo{
				Bus:        d.params.Bus,
				CSPin:      d.params.CSPin,
				Resolution: 16,
				MaxVolts:   dac80501.MaxVoltage,
			},
		},
	}}
}

func (d *Device) Init(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.dac.Init(); err != nil {
		println("[dac80501] init failed:", d.id, err.Error())
		d.emitErr(err)
		return err
	}
	if d.params.RefVolts != 0 {
		if err := d.dac.SetReferenceVoltage(d.params.RefVolts); err != nil {
			println("[dac80501] reference setup failed:", d.id, err.Error())
			d.emitErr(err)
			return err
		}
	}
	if d.params.Sync {
		if err := d.dac.SetSyncMode(true); err != nil {
			d.emitErr(err)
			return err
		}
	}
	d.emitValue()
	return nil
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	err := d.dac.Close()
	if d.release != nil {
		d.release()
		d.release = nil
	}
	return err
}

func (d *Device) Control(_ core.CapAddr, method string, payload any) (core.EnqueueResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	switch method {
	case "set":
		v, ok := volts(payload)
		if !ok {
			return core.EnqueueResult{OK: false, Error: errcode.InvalidPayload}, nil
		}
		err = d.dac.SetOutputVoltage(v)
	case "set_reference":
		p, ok := payload.(types.DACSetReference)
		if !ok {
			return core.EnqueueResult{OK: false, Error: errcode.InvalidPayload}, nil
		}
		if p.Internal {
			err = d.dac.SetInternalReferencePower(true)
		} else {
			err = d.dac.SetReferenceVoltage(p.Volts)
		}
	case "power", "sync", "ldac":
		p, ok := payload.(types.DACSetFlag)
		if !ok {
			return core.EnqueueResult{OK: false, Error: errcode.InvalidPayload}, nil
		}
		switch method {
		case "power":
			err = d.dac.SetDACPower(!p.On)
		case "sync":
			err = d.dac.SetSyncMode(p.On)
		default:
			err = d.dac.SetLDAC(p.On)
		}
	case "reset":
		err = d.dac.SoftReset()
	case "read":
	default:
		return core.EnqueueResult{OK: false, Error: errcode.Unsupported}, nil
	}

	if err != nil {
		d.emitErr(err)
		return core.EnqueueResult{OK: false, Error: errcode.MapDriverErr(err)}, nil
	}
	d.emitValue()
	return core.EnqueueResult{OK: true}, nil
}

func volts(payload any) (float64, bool) {
	switch p := payload.(type) {
	case types.DACSetVoltage:
		return p.Volts, true
	case *types.DACSetVoltage:
		if p == nil {
			return 0, false
		}
		return p.Volts, true
	case float64:
		return p, true
	default:
		return 0, false
	}
}

func valueOf(st dac80501.State) types.DACValue {
	return types.DACValue{
		Volts:    st.RequestedVoltage,
		Code:     st.Code,
		RefVolts: st.Ladder.One,
		Internal: st.RefPowered,
		Divider:  uint8(st.Scaling.Divider),
		Gain:     uint8(st.Scaling.Gain),
		OutputOn: st.DACPowered,
		SyncMode: st.SyncEnabled,
	}
}

func (d *Device) emitValue() {
	if d.pub == nil {
		return
	}
	_ = d.pub.Emit(core.Event{
		Addr:    d.addr,
		Payload: valueOf(d.dac.State()),
		TSms:    timex.NowMs(),
	})
}

func (d *Device) emitErr(err error) {
	if d.pub == nil {
		return
	}
	_ = d.pub.Emit(core.Event{
		Addr: d.addr,
		TSms: timex.NowMs(),
		Err:  string(errcode.MapDriverErr(err)),
	})
}
