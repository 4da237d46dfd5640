package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"dac80501-go/errcode"
	dac80501dev "dac80501-go/services/hal/devices/dac80501"
	"dac80501-go/services/hal/internal/core"
	"dac80501-go/services/hal/internal/provider/setups"
	"dac80501-go/types"

	"github.com/google/go-cmp/cmp"
)

func TestClaimTable(t *testing.T) {
	c := newClaimTable()
	if err := c.claimBus("a", "spi0"); err != nil {
		t.Fatal(err)
	}
	if err := c.claimBus("a", "spi0"); err != nil {
		t.Fatalf("reaffirm by owner: %v", err)
	}
	if err := c.claimBus("b", "spi0"); !errors.Is(err, core.ErrBusInUse) {
		t.Fatalf("expected bus in use, got %v", err)
	}
	if c.releaseBus("b", "spi0") {
		t.Fatal("non-owner released bus")
	}
	if !c.releaseBus("a", "spi0") {
		t.Fatal("owner could not release bus")
	}
	if err := c.claimBus("b", "spi0"); err != nil {
		t.Fatalf("claim after release: %v", err)
	}

	if err := c.claimPin("a", 17); err != nil {
		t.Fatal(err)
	}
	if err := c.claimPin("b", 17); !errors.Is(err, core.ErrPinInUse) {
		t.Fatalf("expected pin in use, got %v", err)
	}
}

type blockingSPI struct{ release chan struct{} }

func (b *blockingSPI) Tx(w, r []byte) error {
	<-b.release
	return nil
}

type failingSPI struct{}

func (failingSPI) Tx(w, r []byte) error { return errors.New("bus fault") }

func TestSPIOwnerRoundTrip(t *testing.T) {
	sim := &SimSPI{}
	o := newSPIOwner("spi0", sim)
	defer o.stop()
	spi := &driversSPI{o: o, timeout: time.Second}

	buf := []byte{0x08, 0x80, 0x00}
	if err := spi.Tx(buf, nil); err != nil {
		t.Fatal(err)
	}
	buf[0] = 0xFF
	if got, err := spi.Transfer(0x05); err != nil || got != 0 {
		t.Fatalf("transfer: %v %v", got, err)
	}
	want := [][]byte{{0x08, 0x80, 0x00}, {0x05}}
	if diff := cmp.Diff(want, sim.Frames()); diff != "" {
		t.Fatalf("frames (-want +got):\n%s", diff)
	}

	bad := newSPIOwner("spi1", failingSPI{})
	defer bad.stop()
	if err := (&driversSPI{o: bad}).Tx([]byte{0}, nil); err == nil {
		t.Fatal("hardware error not surfaced")
	}
}

func TestSPIOwnerTimeout(t *testing.T) {
	hw := &blockingSPI{release: make(chan struct{})}
	o := newSPIOwner("spi0", hw)
	defer o.stop()
	defer close(hw.release)

	spi := &driversSPI{o: o, timeout: 10 * time.Millisecond}
	if err := spi.Tx([]byte{1}, nil); !errors.Is(err, errcode.Timeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
}

func TestSimRegistryClaims(t *testing.T) {
	r := NewSimRegistry(setups.ResourcePlan{SPI: []setups.SPIPlan{{ID: "spi0", SDI: -1}}})
	defer r.Close()

	if _, err := r.ClaimSPI("dac0", "spi9"); !errors.Is(err, core.ErrUnknownBus) {
		t.Fatalf("unknown bus: %v", err)
	}
	if _, err := r.ClaimSPI("dac0", "spi0"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimSPI("dac1", "spi0"); !errors.Is(err, core.ErrBusInUse) {
		t.Fatalf("second owner: %v", err)
	}
	r.ReleaseSPI("dac0", "spi0")
	if _, err := r.ClaimSPI("dac1", "spi0"); err != nil {
		t.Fatalf("claim after release: %v", err)
	}

	if _, err := r.ClaimGPIO("dac1", 30); !errors.Is(err, core.ErrUnknownPin) {
		t.Fatalf("out of range pin: %v", err)
	}
	g, err := r.ClaimGPIO("dac1", 17)
	if err != nil {
		t.Fatal(err)
	}
	_ = g.ConfigureOutput(true)
	if !r.Level(17) {
		t.Fatal("pin level not driven")
	}
	if _, err := r.ClaimGPIO("dac0", 17); !errors.Is(err, core.ErrPinInUse) {
		t.Fatalf("pin conflict: %v", err)
	}
}

type recorder struct{ events []core.Event }

func (r *recorder) Emit(ev core.Event) bool {
	r.events = append(r.events, ev)
	return true
}

func TestSimResourcesDriveDAC(t *testing.T) {
	rec := &recorder{}
	res := NewResources(rec)
	sim, ok := res.Reg.(*SimRegistry)
	if !ok {
		t.Fatalf("unexpected registry: %T", res.Reg)
	}
	defer sim.Close()

	dev, err := core.BuildDevice(context.Background(), types.HALDevice{
		ID:     "dac0",
		Type:   "dac80501",
		Params: dac80501dev.Params{Bus: "spi0", CSPin: 17, DefaultVolts: 1.25},
	}, res)
	if err != nil {
		t.Fatal(err)
	}
	if !sim.Level(17) {
		t.Fatal("SYNC# left low after init")
	}
	want := [][]byte{
		{0x05, 0x00, 0x0A},
		{0x04, 0x01, 0x00},
		{0x08, 0xFF, 0xFF},
	}
	if diff := cmp.Diff(want, sim.Bus("spi0").Frames()); diff != "" {
		t.Fatalf("frames (-want +got):\n%s", diff)
	}
	if len(rec.events) == 0 || rec.events[0].Err != "" {
		t.Fatalf("init events: %+v", rec.events)
	}

	if err := dev.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.ClaimSPI("other", "spi0"); err != nil {
		t.Fatalf("bus not released on close: %v", err)
	}
}
