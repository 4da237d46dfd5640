// Command pico-demo: HAL bring-up for RP2040/Pico with a DAC80501 on SPI.
//
// Build/flash (TinyGo):
//   tinygo flash -target pico -tags pico_dac_dev ./services/hal/cmd/pico-demo
//
// Wiring assumptions (edit in setups/pico_dac_dev.go as needed):
// - SPI0 @ 10 MHz, mode 1: SCLK=GP18, SDIN=GP19.
// - SYNC# on GP17.
//
// On a host build the SPI bus and pins are simulated.

package main

import (
	"context"
	"fmt"
	"time"

	dac80501dev "dac80501-go/services/hal/devices/dac80501"
	"dac80501-go/services/hal/internal/core"
	"dac80501-go/services/hal/internal/provider"
	"dac80501-go/types"
)

// chanEmitter delivers device events to the print loop, dropping on overflow.
type chanEmitter chan core.Event

func (c chanEmitter) Emit(ev core.Event) bool {
	select {
	case c <- ev:
		return true
	default:
		return false
	}
}

func main() {
	time.Sleep(3 * time.Second)
	fmt.Println("\n== DAC80501 demo (HAL + SPI) ==")

	events := make(chanEmitter, 16)
	res := provider.NewResources(events)

	// ----------------------------------------------------------------------------
	// EDITABLE CONFIGURATION (used when no board setup is selected)
	// ----------------------------------------------------------------------------
	halCfg := provider.InitialHALConfig
	if len(halCfg.Devices) == 0 {
		halCfg = types.HALConfig{
			Devices: []types.HALDevice{
				{ID: "dac0", Type: "dac80501", Params: dac80501dev.Params{
					Bus:          "spi0",
					CSPin:        17,
					DefaultVolts: 0,
					Name:         "bias",
				}},
			},
		}
	}
	// ----------------------------------------------------------------------------

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	devs := core.BuildAll(ctx, halCfg, res, nil)
	if len(devs) == 0 {
		fmt.Println("no devices built; check wiring and config")
		return
	}
	for id, d := range devs {
		for _, c := range d.Capabilities() {
			fmt.Printf("device %s: %s/%s/%s\n", id, c.Domain, c.Kind, c.Name)
		}
	}
	go printEvents(ctx, events)

	// Sweep every DAC through the three scaling bands, then switch to an
	// external reference and back.
	steps := []struct {
		method  string
		payload any
	}{
		{"set", types.DACSetVoltage{Volts: 0.5}},
		{"set", types.DACSetVoltage{Volts: 1.8}},
		{"set", types.DACSetVoltage{Volts: 4.2}},
		{"set_reference", types.DACSetReference{Volts: 3.3}},
		{"set", types.DACSetVoltage{Volts: 6.0}}, // rejected: above 5.5 V
		{"set_reference", types.DACSetReference{Internal: true}},
		{"reset", nil},
	}
	tick := time.NewTicker(time.Second)
	defer tick.Stop()
	for i := 0; ; i = (i + 1) % len(steps) {
		<-tick.C
		s := steps[i]
		for _, d := range devs {
			for _, c := range d.Capabilities() {
				if c.Kind != types.KindDAC {
					continue
				}
				addr := core.CapAddr{Domain: c.Domain, Kind: string(c.Kind), Name: c.Name}
				r, err := d.Control(addr, s.method, s.payload)
				switch {
				case err != nil:
					fmt.Printf("%s %s: %v\n", c.Name, s.method, err)
				case !r.OK:
					fmt.Printf("%s %s: %s\n", c.Name, s.method, r.Error)
				}
			}
		}
	}
}

// ---------------- Printing helpers ----------------

func printEvents(ctx context.Context, events <-chan core.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if ev.Err != "" {
				fmt.Printf("[%d] %s/%s/%s status=degraded err=%s\n",
					ev.TSms, ev.Addr.Domain, ev.Addr.Kind, ev.Addr.Name, ev.Err)
				continue
			}
			v, ok := ev.Payload.(types.DACValue)
			if !ok {
				continue
			}
			fmt.Printf("[%d] %s/%s/%s vout=%.3fV code=%d ref=%.3fV internal=%t div=%d gain=%d on=%t\n",
				ev.TSms, ev.Addr.Domain, ev.Addr.Kind, ev.Addr.Name,
				v.Volts, v.Code, v.RefVolts, v.Internal, v.Divider, v.Gain, v.OutputOn)
		}
	}
}
