package dac80501dev

import (
	"context"
	"errors"
	"testing"

	"dac80501-go/drivers/dac80501"
	"dac80501-go/errcode"
	"dac80501-go/services/hal/internal/core"
	"dac80501-go/types"

	"github.com/google/go-cmp/cmp"
	"tinygo.org/x/drivers"
)

// ---- Test doubles ----

type fakeSPI struct {
	frames [][]byte
	err    error
}

func (s *fakeSPI) Tx(w, r []byte) error {
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, append([]byte(nil), w...))
	return nil
}

func (s *fakeSPI) Transfer(b byte) (byte, error) { return 0, nil }

type fakePin struct {
	n      int
	level  bool
	config string
}

func (p *fakePin) Number() int { return p.n }

func (p *fakePin) ConfigureInput(_ core.Pull) error {
	p.config = "in"
	return nil
}

func (p *fakePin) ConfigureOutput(initial bool) error {
	p.config = "out"
	p.level = initial
	return nil
}

func (p *fakePin) Set(b bool) { p.level = b }
func (p *fakePin) Get() bool  { return p.level }

type fakeRegistry struct {
	spi      *fakeSPI
	pins     map[int]*fakePin
	claimed  map[string]string
	released []string
}

func newRegistry() *fakeRegistry {
	return &fakeRegistry{
		spi:     &fakeSPI{},
		pins:    map[int]*fakePin{17: {n: 17}},
		claimed: map[string]string{},
	}
}

func (r *fakeRegistry) ClaimSPI(devID string, id core.ResourceID) (drivers.SPI, error) {
	if id != "spi0" {
		return nil, core.ErrUnknownBus
	}
	if owner, ok := r.claimed[string(id)]; ok && owner != devID {
		return nil, core.ErrBusInUse
	}
	r.claimed[string(id)] = devID
	return r.spi, nil
}

func (r *fakeRegistry) ReleaseSPI(devID string, id core.ResourceID) {
	delete(r.claimed, string(id))
	r.released = append(r.released, string(id))
}

func (r *fakeRegistry) ClaimGPIO(devID string, pin int) (core.GPIOHandle, error) {
	p, ok := r.pins[pin]
	if !ok {
		return nil, core.ErrUnknownPin
	}
	return p, nil
}

func (r *fakeRegistry) ReleaseGPIO(devID string, pin int) {
	r.released = append(r.released, "gpio")
}

type fakeEmitter struct{ events []core.Event }

func (e *fakeEmitter) Emit(ev core.Event) bool {
	e.events = append(e.events, ev)
	return true
}

func (e *fakeEmitter) last(t *testing.T) core.Event {
	t.Helper()
	if len(e.events) == 0 {
		t.Fatal("no events emitted")
	}
	return e.events[len(e.events)-1]
}

func build(t *testing.T, params any) (*Device, *fakeRegistry, *fakeEmitter) {
	t.Helper()
	reg := newRegistry()
	pub := &fakeEmitter{}
	dev, err := core.BuildDevice(context.Background(), types.HALDevice{
		ID:     "dac0",
		Type:   "dac80501",
		Params: params,
	}, core.Resources{Reg: reg, Pub: pub})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	d, ok := dev.(*Device)
	if !ok {
		t.Fatalf("unexpected device type: %T", dev)
	}
	return d, reg, pub
}

// ---- Tests ----

func TestBuildFromJSONParams(t *testing.T) {
	d, reg, pub := build(t, map[string]any{
		"bus":           "spi0",
		"cs_pin":        17,
		"default_volts": 1.0,
		"name":          "bias",
	})
	if reg.pins[17].config != "out" || !reg.pins[17].level {
		t.Fatalf("SYNC# pin not idle-high output: %+v", reg.pins[17])
	}
	want := [][]byte{
		{0x05, 0x00, 0x0A},
		{0x04, 0x01, 0x00},
		{0x08, 0xCC, 0xCD},
	}
	if diff := cmp.Diff(want, reg.spi.frames); diff != "" {
		t.Fatalf("init frames (-want +got):\n%s", diff)
	}

	caps := d.Capabilities()
	if len(caps) != 1 || caps[0].Domain != "io" || caps[0].Kind != types.KindDAC || caps[0].Name != "bias" {
		t.Fatalf("capabilities: %+v", caps)
	}
	ev := pub.last(t)
	v, ok := ev.Payload.(types.DACValue)
	if !ok {
		t.Fatalf("unexpected payload: %T", ev.Payload)
	}
	wantV := types.DACValue{Volts: 1.0, Code: 52429, RefVolts: 2.5, Internal: true, Divider: 2, Gain: 1, OutputOn: true}
	if diff := cmp.Diff(wantV, v); diff != "" {
		t.Fatalf("value (-want +got):\n%s", diff)
	}
}

func TestBuildWithExternalReference(t *testing.T) {
	_, _, pub := build(t, Params{Bus: "spi0", CSPin: 17, DefaultVolts: 2.0, RefVolts: 4.0, Sync: true})
	v := pub.last(t).Payload.(types.DACValue)
	if v.Volts != 2.0 || v.RefVolts != 4.0 || v.Internal || !v.SyncMode {
		t.Fatalf("value: %+v", v)
	}
}

func TestBuildRejects(t *testing.T) {
	reg := newRegistry()
	res := core.Resources{Reg: reg, Pub: &fakeEmitter{}}
	ctx := context.Background()

	cases := map[string]any{
		"nil params":   nil,
		"missing bus":  map[string]any{"cs_pin": 17},
		"bad json":     "{",
		"unknown bus":  Params{Bus: "spi9", CSPin: 17},
		"unknown pin":  Params{Bus: "spi0", CSPin: 99},
		"out of range": Params{Bus: "spi0", CSPin: 17, DefaultVolts: 6},
	}
	for name, p := range cases {
		_, err := core.BuildDevice(ctx, types.HALDevice{ID: "dac0", Type: "dac80501", Params: p}, res)
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if len(reg.claimed) != 0 {
			t.Fatalf("%s: claims leaked: %v", name, reg.claimed)
		}
	}

	_, err := core.BuildDevice(ctx, types.HALDevice{ID: "x", Type: "nope"}, res)
	if !errors.Is(err, errcode.Unsupported) {
		t.Fatalf("unknown type: %v", err)
	}
}

func TestControlVerbs(t *testing.T) {
	d, reg, pub := build(t, Params{Bus: "spi0", CSPin: 17, DefaultVolts: 1.0})
	addr := d.addr

	res, err := d.Control(addr, "set", types.DACSetVoltage{Volts: 2.0})
	if err != nil || !res.OK {
		t.Fatalf("set: %+v %v", res, err)
	}
	res, _ = d.Control(addr, "set_reference", types.DACSetReference{Volts: 4.0})
	if !res.OK {
		t.Fatalf("set_reference: %+v", res)
	}
	v := pub.last(t).Payload.(types.DACValue)
	if v.Volts != 2.0 || v.RefVolts != 4.0 {
		t.Fatalf("output moved with reference: %+v", v)
	}

	res, _ = d.Control(addr, "power", types.DACSetFlag{On: false})
	if !res.OK || pub.last(t).Payload.(types.DACValue).OutputOn {
		t.Fatalf("power off: %+v", res)
	}

	res, _ = d.Control(addr, "reset", nil)
	if !res.OK {
		t.Fatalf("reset: %+v", res)
	}
	v = pub.last(t).Payload.(types.DACValue)
	if v.Volts != 2.0 || v.RefVolts != dac80501.InternalVref || !v.OutputOn {
		t.Fatalf("after reset: %+v", v)
	}

	res, _ = d.Control(addr, "set_reference", types.DACSetReference{Internal: true})
	if !res.OK {
		t.Fatalf("internal reference: %+v", res)
	}

	for _, verb := range []string{"sync", "ldac"} {
		if res, _ := d.Control(addr, verb, types.DACSetFlag{On: true}); !res.OK {
			t.Fatalf("%s: %+v", verb, res)
		}
	}
	if !pub.last(t).Payload.(types.DACValue).SyncMode {
		t.Fatal("sync mode not reported")
	}

	n := len(reg.spi.frames)
	if res, _ := d.Control(addr, "read", nil); !res.OK || len(reg.spi.frames) != n {
		t.Fatalf("read wrote to the bus or failed: %+v", res)
	}
}

func TestControlErrors(t *testing.T) {
	d, reg, pub := build(t, Params{Bus: "spi0", CSPin: 17, DefaultVolts: 1.0})
	addr := d.addr

	res, _ := d.Control(addr, "set", types.DACSetVoltage{Volts: 5.6})
	if res.OK || res.Error != errcode.OutOfRange {
		t.Fatalf("out of range: %+v", res)
	}
	if ev := pub.last(t); ev.Err != string(errcode.OutOfRange) {
		t.Fatalf("degraded event: %+v", ev)
	}

	res, _ = d.Control(addr, "set", "2V")
	if res.Error != errcode.InvalidPayload {
		t.Fatalf("bad payload: %+v", res)
	}
	res, _ = d.Control(addr, "toggle", nil)
	if res.Error != errcode.Unsupported {
		t.Fatalf("unknown verb: %+v", res)
	}

	reg.spi.err = errors.New("spi fault")
	res, _ = d.Control(addr, "set", 3.0)
	if res.Error != errcode.IOError {
		t.Fatalf("bus fault: %+v", res)
	}
}

func TestCloseReleasesResources(t *testing.T) {
	d, reg, _ := build(t, Params{Bus: "spi0", CSPin: 17, DefaultVolts: 1.0})
	if err := d.Close(); err != nil {
		t.Fatal(err)
	}
	if len(reg.claimed) != 0 || !reg.pins[17].level {
		t.Fatalf("claims=%v sync level=%v", reg.claimed, reg.pins[17].level)
	}
	res, _ := d.Control(d.addr, "set", 1.0)
	if res.Error != errcode.NotReady {
		t.Fatalf("control after close: %+v", res)
	}
}
