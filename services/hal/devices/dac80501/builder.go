package dac80501dev

import (
	"context"
	"encoding/json"

	"dac80501-go/drivers/dac80501"
	"dac80501-go/errcode"
	"dac80501-go/services/hal/internal/core"
)

func init() {
	core.RegisterBuilder("dac80501", builder{})
}

type builder struct{}

func (builder) Build(ctx context.Context, in core.BuilderInput) (core.Device, error) {
	p, err := parseParams(in.Params)
	if err != nil {
		return nil, err
	}
	if p.Bus == "" {
		return nil, errcode.InvalidParams
	}
	bus := core.ResourceID(p.Bus)
	spi, err := in.Res.Reg.ClaimSPI(in.ID, bus)
	if err != nil {
		return nil, err
	}
	cs, err := in.Res.Reg.ClaimGPIO(in.ID, p.CSPin)
	if err != nil {
		in.Res.Reg.ReleaseSPI(in.ID, bus)
		return nil, err
	}
	release := func() {
		in.Res.Reg.ReleaseGPIO(in.ID, p.CSPin)
		in.Res.Reg.ReleaseSPI(in.ID, bus)
	}
	// SYNC# idles high.
	if err := cs.ConfigureOutput(true); err != nil {
		release()
		return nil, err
	}
	drv := dac80501.NewSPI(spi, cs.Set, dac80501.Config{DefaultVoltage: p.DefaultVolts})
	return New(in.ID, p, drv, in.Res.Pub, release), nil
}

func parseParams(v any) (Params, error) {
	switch p := v.(type) {
	case Params:
		return p, nil
	case *Params:
		if p == nil {
			return Params{}, errcode.InvalidParams
		}
		return *p, nil
	case nil:
		return Params{}, errcode.InvalidParams
	}
	var p Params
	if err := decodeJSON(v, &p); err != nil {
		return Params{}, errcode.InvalidParams
	}
	return p, nil
}

// decodeJSON accepts raw JSON or an already-decoded JSON-like value.
func decodeJSON[T any](src any, dst *T) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		return json.Unmarshal(b, dst)
	}
}
